package config

import (
	"os"
	"path/filepath"
	"testing"

	"m4b-studio/internal/domain"
)

// TestLoadReturnsDefaultsWhenMissing treats a missing file as first launch.
func TestLoadReturnsDefaultsWhenMissing(t *testing.T) {
	store := NewJSONStore(filepath.Join(t.TempDir(), "settings.json"))

	cfg, err := store.Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg != DefaultSettings() {
		t.Fatalf("Load() = %+v, want defaults", cfg)
	}
}

// TestSaveThenLoadRoundTrips persists settings faithfully and creates
// the parent directory.
func TestSaveThenLoadRoundTrips(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "settings.json")
	store := NewJSONStore(path)

	want := domain.Settings{
		EnginePath:   "/opt/ffmpeg/bin/ffmpeg",
		AudioBitrate: "96k",
		TailLines:    40,
		DarkMode:     false,
	}
	if err := store.Save(want); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	got, err := store.Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if got != want {
		t.Fatalf("Load() = %+v, want %+v", got, want)
	}
}

// TestLoadRejectsCorruptFile surfaces parse failures instead of
// silently resetting user preferences.
func TestLoadRejectsCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	if _, err := NewJSONStore(path).Load(); err == nil {
		t.Fatal("Load() accepted corrupt settings file")
	}
}

// TestDefaultSettingsMatchOriginalChoices pins the first-launch values.
func TestDefaultSettingsMatchOriginalChoices(t *testing.T) {
	cfg := DefaultSettings()
	if cfg.EnginePath != "ffmpeg" {
		t.Fatalf("engine = %q, want ffmpeg", cfg.EnginePath)
	}
	if cfg.AudioBitrate != "128k" {
		t.Fatalf("bitrate = %q, want 128k", cfg.AudioBitrate)
	}
	if cfg.TailLines != 20 {
		t.Fatalf("tail lines = %d, want 20", cfg.TailLines)
	}
	if !cfg.DarkMode {
		t.Fatal("dark mode should default on")
	}
}
