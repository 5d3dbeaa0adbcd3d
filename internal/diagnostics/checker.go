package diagnostics

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	"m4b-studio/internal/domain"
)

// Checker validates the external engine and filesystem prerequisites a
// conversion depends on.
type Checker struct {
	lookPath   func(string) (string, error)
	stat       func(string) (os.FileInfo, error)
	createTemp func(string, string) (*os.File, error)
	remove     func(string) error
	tempDir    func() string
}

// NewChecker builds a checker using real OS dependencies.
func NewChecker() *Checker {
	return &Checker{
		lookPath:   exec.LookPath,
		stat:       os.Stat,
		createTemp: os.CreateTemp,
		remove:     os.Remove,
		tempDir:    os.TempDir,
	}
}

// Run executes all startup checks and returns a combined report.
func (c *Checker) Run(settings domain.Settings) domain.DiagnosticReport {
	items := []domain.DiagnosticItem{
		c.checkEngine(settings.EnginePath),
		c.checkTempDir(),
	}

	hasFailures := false
	for _, item := range items {
		if item.Status == domain.DiagnosticStatusFail {
			hasFailures = true
			break
		}
	}

	return domain.DiagnosticReport{
		GeneratedAt: time.Now().UTC(),
		HasFailures: hasFailures,
		Items:       items,
	}
}

// checkEngine verifies the configured transcoding engine is runnable.
// A bare name is resolved through PATH; an explicit path is stat'd.
func (c *Checker) checkEngine(enginePath string) domain.DiagnosticItem {
	engine := strings.TrimSpace(enginePath)
	if engine == "" {
		engine = "ffmpeg"
	}

	item := domain.DiagnosticItem{
		ID:   "engine",
		Name: "Transcoding engine",
	}

	if strings.ContainsAny(engine, `/\`) {
		if _, err := c.stat(engine); err != nil {
			item.Status = domain.DiagnosticStatusFail
			if errors.Is(err, os.ErrNotExist) {
				item.Message = fmt.Sprintf("Engine binary does not exist: %s", engine)
			} else {
				item.Message = fmt.Sprintf("Cannot access engine binary: %s", engine)
			}
			item.Hint = "Point the engine path at an ffmpeg binary or clear it to use PATH lookup."
			return item
		}

		item.Status = domain.DiagnosticStatusPass
		item.Message = fmt.Sprintf("Engine binary found: %s", engine)
		return item
	}

	path, err := c.lookPath(engine)
	if err != nil {
		item.Status = domain.DiagnosticStatusFail
		item.Message = fmt.Sprintf("Engine not found in PATH: %s", engine)
		item.Hint = "Install ffmpeg and ensure the binary is available on PATH before exporting an audiobook."
		return item
	}

	item.Status = domain.DiagnosticStatusPass
	item.Message = fmt.Sprintf("Found at %s", path)
	return item
}

// checkTempDir validates the temp directory the concat list is written to.
func (c *Checker) checkTempDir() domain.DiagnosticItem {
	item := domain.DiagnosticItem{
		ID:   "temp_dir",
		Name: "Temporary directory",
	}

	dir := c.tempDir()
	tmpFile, err := c.createTemp(dir, ".write-check-*")
	if err != nil {
		item.Status = domain.DiagnosticStatusFail
		item.Message = fmt.Sprintf("Temporary directory is not writable: %s", dir)
		item.Hint = "Conversions stage their input list in the temp directory; adjust permissions or TMPDIR."
		return item
	}

	tmpPath := tmpFile.Name()
	_ = tmpFile.Close()
	_ = c.remove(tmpPath)

	item.Status = domain.DiagnosticStatusPass
	item.Message = fmt.Sprintf("Writable directory: %s", dir)
	return item
}

// NewCheckerForTests creates a checker with injectable dependencies.
func NewCheckerForTests(
	lookPath func(string) (string, error),
	stat func(string) (os.FileInfo, error),
	createTemp func(string, string) (*os.File, error),
	remove func(string) error,
	tempDir func() string,
) *Checker {
	return &Checker{
		lookPath:   lookPath,
		stat:       stat,
		createTemp: createTemp,
		remove:     remove,
		tempDir:    tempDir,
	}
}
