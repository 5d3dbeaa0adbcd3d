package config

import "m4b-studio/internal/domain"

// DefaultSettings returns baseline configuration for first launch.
// The engine is resolved from PATH and the original app's encoding
// choices (128k AAC, dark theme) are kept as defaults.
func DefaultSettings() domain.Settings {
	return domain.Settings{
		EnginePath:   "ffmpeg",
		AudioBitrate: "128k",
		TailLines:    20,
		DarkMode:     true,
	}
}
