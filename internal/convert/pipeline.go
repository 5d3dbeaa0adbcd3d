package convert

import (
	"context"
	"os"
	"os/exec"
	"strings"

	"m4b-studio/internal/domain"
)

// Request describes one conversion: the ordered input files, the tags
// to write, the destination path, and an optional per-line callback
// for live engine output. OnLine must not block; delivery to a slow
// consumer is the caller's concern (see jobs.EventBus).
type Request struct {
	Files      []string
	Meta       domain.AudiobookMeta
	OutputPath string
	EnginePath string
	Bitrate    string
	TailLines  int
	OnLine     func(line string)
}

// Result reports a completed conversion.
type Result struct {
	OutputPath string
}

// Pipeline drives the external transcoding engine for one conversion.
// It owns the full subprocess lifecycle: the engine is always reaped,
// whether the run completes, fails, or is cancelled.
type Pipeline struct {
	enginePath string
	spawner    engineSpawner
	lookPath   func(string) (string, error)
	stat       func(string) (os.FileInfo, error)
	createTemp func(dir, pattern string) (*os.File, error)
	remove     func(string) error
}

// NewPipeline constructs the production pipeline with OS dependencies.
func NewPipeline() *Pipeline {
	return &Pipeline{
		enginePath: "ffmpeg",
		spawner:    &execSpawner{},
		lookPath:   exec.LookPath,
		stat:       os.Stat,
		createTemp: os.CreateTemp,
		remove:     os.Remove,
	}
}

// Run validates the request, launches the engine, and streams its
// combined output through OnLine until the process exits. The caller's
// goroutine blocks for the duration; cancellation happens through ctx,
// which terminates the engine and surfaces ctx.Err().
//
// The returned error is a *ValidationError, a *LaunchError, an
// *EngineError, or the context error for caller-initiated cancellation.
func (p *Pipeline) Run(ctx context.Context, req Request) (Result, error) {
	if err := p.Validate(req); err != nil {
		return Result{}, err
	}

	engine := strings.TrimSpace(req.EnginePath)
	if engine == "" {
		engine = p.enginePath
	}
	resolved, err := p.lookPath(engine)
	if err != nil {
		return Result{}, &LaunchError{Reason: LaunchEngineNotFound, Engine: engine, Err: err}
	}

	listPath, err := p.writeConcatList(req.Files)
	if err != nil {
		return Result{}, &LaunchError{Reason: LaunchSpawnFailed, Engine: engine, Err: err}
	}
	defer func() {
		_ = p.remove(listPath)
	}()

	args := EngineArgs(listPath, req.Meta, req.OutputPath, req.Bitrate)
	proc, err := p.spawner.Spawn(ctx, resolved, args)
	if err != nil {
		return Result{}, &LaunchError{Reason: LaunchSpawnFailed, Engine: engine, Err: err}
	}

	splitter := &lineSplitter{}
	tail := newTailBuffer(req.TailLines)
	emit := func(line string) {
		tail.add(line)
		if req.OnLine != nil {
			req.OnLine(line)
		}
	}

	// The only blocking operation in the loop is the pipe read, which
	// returns once the engine exits or is killed by cancellation.
	buf := make([]byte, 4096)
	out := proc.Output()
	for {
		n, readErr := out.Read(buf)
		if n > 0 {
			for _, line := range splitter.push(buf[:n]) {
				emit(line)
			}
		}
		if readErr != nil {
			break
		}
	}
	if line, ok := splitter.flush(); ok {
		emit(line)
	}

	code, waitErr := proc.Wait()
	if waitErr != nil {
		// A clean exit beats a cancel that lands at the same moment:
		// the engine finished and the destination is complete.
		if ctx.Err() != nil {
			return Result{}, ctx.Err()
		}
		return Result{}, &EngineError{ExitCode: code, Tail: tail.tail(), Err: waitErr}
	}

	return Result{OutputPath: req.OutputPath}, nil
}

// writeConcatList persists the concat demuxer list to a temp file and
// returns its path. The caller removes the file after the run.
func (p *Pipeline) writeConcatList(files []string) (string, error) {
	f, err := p.createTemp("", "m4b-concat-*.txt")
	if err != nil {
		return "", err
	}

	if _, err := f.WriteString(ConcatList(files)); err != nil {
		_ = f.Close()
		_ = p.remove(f.Name())
		return "", err
	}
	if err := f.Close(); err != nil {
		_ = p.remove(f.Name())
		return "", err
	}
	return f.Name(), nil
}

// NewPipelineForTests constructs a pipeline with injectable dependencies.
func NewPipelineForTests(
	enginePath string,
	spawner engineSpawner,
	lookPath func(string) (string, error),
	stat func(string) (os.FileInfo, error),
	createTemp func(dir, pattern string) (*os.File, error),
	remove func(string) error,
) *Pipeline {
	return &Pipeline{
		enginePath: enginePath,
		spawner:    spawner,
		lookPath:   lookPath,
		stat:       stat,
		createTemp: createTemp,
		remove:     remove,
	}
}
