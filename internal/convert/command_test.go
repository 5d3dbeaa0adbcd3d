package convert

import (
	"reflect"
	"strings"
	"testing"

	"m4b-studio/internal/domain"
)

// TestConcatListPreservesOrder verifies each input appears exactly once,
// in playback order.
func TestConcatListPreservesOrder(t *testing.T) {
	list := ConcatList([]string{"/audio/a.mp3", "/audio/b.mp3"})

	want := "file '/audio/a.mp3'\nfile '/audio/b.mp3'\n"
	if list != want {
		t.Fatalf("list = %q, want %q", list, want)
	}
	if strings.Count(list, "/audio/a.mp3") != 1 || strings.Count(list, "/audio/b.mp3") != 1 {
		t.Fatalf("expected each path exactly once, got %q", list)
	}
}

// TestConcatListEscapesSingleQuotes verifies demuxer-safe quoting.
func TestConcatListEscapesSingleQuotes(t *testing.T) {
	list := ConcatList([]string{"/audio/it's a book.mp3"})

	want := `file '/audio/it'\''s a book.mp3'` + "\n"
	if list != want {
		t.Fatalf("list = %q, want %q", list, want)
	}
}

// TestEngineArgsIncludesMetadataAndContainer checks the exported tags
// and the forced ipod muxer for the destination.
func TestEngineArgsIncludesMetadataAndContainer(t *testing.T) {
	args := EngineArgs("/tmp/list.txt", domain.AudiobookMeta{Title: "My Book", Author: "Jane Doe"}, "/out/book.m4b", "128k")

	if !hasArg(args, "-metadata") {
		t.Fatalf("expected -metadata in args: %v", args)
	}
	if !containsArg(args, "title=My Book") {
		t.Fatalf("expected title tag in args: %v", args)
	}
	if !containsArg(args, "artist=Jane Doe") {
		t.Fatalf("expected artist tag in args: %v", args)
	}
	if got := argValue(args, "-i"); got != "/tmp/list.txt" {
		t.Fatalf("input arg = %q, want /tmp/list.txt", got)
	}
	if args[len(args)-1] != "/out/book.m4b" {
		t.Fatalf("last arg = %q, want destination", args[len(args)-1])
	}
	if args[len(args)-3] != "-f" || args[len(args)-2] != "ipod" {
		t.Fatalf("expected -f ipod before destination: %v", args)
	}
}

// TestEngineArgsDeterministic verifies identical inputs produce
// identical vectors.
func TestEngineArgsDeterministic(t *testing.T) {
	meta := domain.AudiobookMeta{Title: "My Book", Author: "Jane Doe"}
	first := EngineArgs("/tmp/list.txt", meta, "/out/book.m4b", "96k")
	second := EngineArgs("/tmp/list.txt", meta, "/out/book.m4b", "96k")

	if !reflect.DeepEqual(first, second) {
		t.Fatalf("vectors differ:\n%v\n%v", first, second)
	}
}

// TestEngineArgsDefaultBitrate checks the fallback when settings leave
// the bitrate empty.
func TestEngineArgsDefaultBitrate(t *testing.T) {
	args := EngineArgs("/tmp/list.txt", domain.AudiobookMeta{Title: "T", Author: "A"}, "/out/book.m4b", "")

	if got := argValue(args, "-b:a"); got != DefaultBitrate {
		t.Fatalf("bitrate = %q, want %q", got, DefaultBitrate)
	}
}

// TestEngineArgsSkipsEmptyTags verifies blank metadata produces no tag flags.
func TestEngineArgsSkipsEmptyTags(t *testing.T) {
	args := EngineArgs("/tmp/list.txt", domain.AudiobookMeta{Title: "  ", Author: ""}, "/out/book.m4b", "128k")

	if hasArg(args, "-metadata") {
		t.Fatalf("did not expect -metadata in args: %v", args)
	}
}

// containsArg reports whether args include the exact value anywhere.
func containsArg(args []string, value string) bool {
	for _, arg := range args {
		if arg == value {
			return true
		}
	}
	return false
}
