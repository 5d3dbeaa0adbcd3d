package convert

import "strings"

// lineSplitter reassembles complete lines from arbitrarily sized output
// chunks. The engine terminates status updates with \r and everything
// else with \n, so both count as line breaks and \r\n is one break. A
// partial line at the end of a chunk is held until more bytes arrive.
type lineSplitter struct {
	pending []byte
}

// push appends one chunk and returns the complete lines it closed,
// in arrival order.
func (s *lineSplitter) push(chunk []byte) []string {
	s.pending = append(s.pending, chunk...)

	var lines []string
	start := 0
	for i := 0; i < len(s.pending); i++ {
		switch s.pending[i] {
		case '\n':
			lines = append(lines, string(s.pending[start:i]))
			start = i + 1
		case '\r':
			if i+1 == len(s.pending) {
				// Cannot tell yet whether a \n follows; keep the
				// carriage return buffered until the next chunk.
				s.pending = append(s.pending[:0], s.pending[start:]...)
				return lines
			}
			lines = append(lines, string(s.pending[start:i]))
			if s.pending[i+1] == '\n' {
				i++
			}
			start = i + 1
		}
	}

	s.pending = append(s.pending[:0], s.pending[start:]...)
	return lines
}

// flush returns the buffered partial line once the stream has ended.
func (s *lineSplitter) flush() (string, bool) {
	if len(s.pending) == 0 {
		return "", false
	}
	line := strings.TrimSuffix(string(s.pending), "\r")
	s.pending = nil
	return line, true
}

// DefaultTailLines is how much trailing output a failure report keeps.
const DefaultTailLines = 20

// tailBuffer retains the most recent output lines for failure reports.
type tailBuffer struct {
	limit int
	lines []string
}

func newTailBuffer(limit int) *tailBuffer {
	if limit <= 0 {
		limit = DefaultTailLines
	}
	return &tailBuffer{limit: limit}
}

// add records one line, discarding the oldest once the limit is hit.
func (t *tailBuffer) add(line string) {
	t.lines = append(t.lines, line)
	if len(t.lines) > t.limit {
		t.lines = append(t.lines[:0], t.lines[len(t.lines)-t.limit:]...)
	}
}

// tail returns a copy of the retained lines in arrival order.
func (t *tailBuffer) tail() []string {
	if len(t.lines) == 0 {
		return nil
	}
	return append([]string(nil), t.lines...)
}
