package diagnostics

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"m4b-studio/internal/domain"
)

func findItem(t *testing.T, report domain.DiagnosticReport, id string) domain.DiagnosticItem {
	t.Helper()
	for _, item := range report.Items {
		if item.ID == id {
			return item
		}
	}
	t.Fatalf("report has no %q item: %+v", id, report.Items)
	return domain.DiagnosticItem{}
}

// TestCheckerPassesWhenEngineOnPath resolves a bare engine name.
func TestCheckerPassesWhenEngineOnPath(t *testing.T) {
	checker := NewCheckerForTests(
		func(name string) (string, error) { return "/usr/bin/" + name, nil },
		os.Stat,
		os.CreateTemp,
		os.Remove,
		os.TempDir,
	)

	report := checker.Run(domain.Settings{EnginePath: "ffmpeg"})
	if report.HasFailures {
		t.Fatalf("report has failures: %+v", report.Items)
	}
	engine := findItem(t, report, "engine")
	if engine.Status != domain.DiagnosticStatusPass {
		t.Fatalf("engine status = %s, want %s", engine.Status, domain.DiagnosticStatusPass)
	}
}

// TestCheckerFailsWhenEngineMissing reports a failing engine check with
// an installation hint.
func TestCheckerFailsWhenEngineMissing(t *testing.T) {
	checker := NewCheckerForTests(
		func(string) (string, error) { return "", errors.New("not found") },
		os.Stat,
		os.CreateTemp,
		os.Remove,
		os.TempDir,
	)

	report := checker.Run(domain.Settings{EnginePath: "ffmpeg"})
	if !report.HasFailures {
		t.Fatal("report should flag failures")
	}
	engine := findItem(t, report, "engine")
	if engine.Status != domain.DiagnosticStatusFail {
		t.Fatalf("engine status = %s, want %s", engine.Status, domain.DiagnosticStatusFail)
	}
	if engine.Hint == "" {
		t.Fatal("failing engine check should carry a hint")
	}
}

// TestCheckerStatsExplicitEnginePath skips PATH lookup for a full path.
func TestCheckerStatsExplicitEnginePath(t *testing.T) {
	binary := filepath.Join(t.TempDir(), "ffmpeg")
	if err := os.WriteFile(binary, []byte("#!/bin/sh\n"), 0o755); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	lookPath := func(string) (string, error) {
		t.Error("lookPath called for an explicit path")
		return "", errors.New("unexpected")
	}
	checker := NewCheckerForTests(lookPath, os.Stat, os.CreateTemp, os.Remove, os.TempDir)

	report := checker.Run(domain.Settings{EnginePath: binary})
	engine := findItem(t, report, "engine")
	if engine.Status != domain.DiagnosticStatusPass {
		t.Fatalf("engine status = %s, want %s", engine.Status, domain.DiagnosticStatusPass)
	}

	report = checker.Run(domain.Settings{EnginePath: filepath.Join(t.TempDir(), "missing")})
	engine = findItem(t, report, "engine")
	if engine.Status != domain.DiagnosticStatusFail {
		t.Fatalf("engine status = %s, want %s", engine.Status, domain.DiagnosticStatusFail)
	}
}

// TestCheckerFailsWhenTempDirNotWritable flags a temp dir the concat
// list cannot be staged in.
func TestCheckerFailsWhenTempDirNotWritable(t *testing.T) {
	checker := NewCheckerForTests(
		func(name string) (string, error) { return "/usr/bin/" + name, nil },
		os.Stat,
		func(string, string) (*os.File, error) { return nil, errors.New("read-only file system") },
		os.Remove,
		func() string { return "/readonly/tmp" },
	)

	report := checker.Run(domain.Settings{EnginePath: "ffmpeg"})
	if !report.HasFailures {
		t.Fatal("report should flag failures")
	}
	tempDir := findItem(t, report, "temp_dir")
	if tempDir.Status != domain.DiagnosticStatusFail {
		t.Fatalf("temp dir status = %s, want %s", tempDir.Status, domain.DiagnosticStatusFail)
	}
}

// TestCheckerCleansUpWriteCheck removes the probe file it created.
func TestCheckerCleansUpWriteCheck(t *testing.T) {
	var removedPath string
	checker := NewCheckerForTests(
		func(name string) (string, error) { return "/usr/bin/" + name, nil },
		os.Stat,
		os.CreateTemp,
		func(path string) error {
			removedPath = path
			return os.Remove(path)
		},
		os.TempDir,
	)

	report := checker.Run(domain.Settings{EnginePath: "ffmpeg"})
	if report.HasFailures {
		t.Fatalf("report has failures: %+v", report.Items)
	}
	if removedPath == "" {
		t.Fatal("write-check file was not removed")
	}
	if _, err := os.Stat(removedPath); !os.IsNotExist(err) {
		t.Fatalf("write-check file still exists: %s", removedPath)
	}
}
