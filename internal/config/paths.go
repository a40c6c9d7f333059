// Package config handles configuration loading and validation for predlab.
package config

import (
	"os"
	"path/filepath"
	"runtime"
)

// DataDir returns the base predlab data directory.
// Uses platform-specific paths or the PREDLAB_DATA_DIR override.
//
// Platform paths:
//   - macOS:   ~/Library/Application Support/predlab/
//   - Linux:   ~/.local/share/predlab/
//   - Windows: %APPDATA%\predlab\
//
// Falls back to ~/.predlab if platform detection fails.
func DataDir() string {
	if envDir := os.Getenv("PREDLAB_DATA_DIR"); envDir != "" {
		return envDir
	}

	switch runtime.GOOS {
	case "darwin":
		home, _ := os.UserHomeDir()
		return filepath.Join(home, "Library", "Application Support", "predlab")
	case "windows":
		appData := os.Getenv("APPDATA")
		if appData == "" {
			home, _ := os.UserHomeDir()
			return filepath.Join(home, "predlab")
		}
		return filepath.Join(appData, "predlab")
	case "linux":
		if dataHome := os.Getenv("XDG_DATA_HOME"); dataHome != "" {
			return filepath.Join(dataHome, "predlab")
		}
		home, _ := os.UserHomeDir()
		return filepath.Join(home, ".local", "share", "predlab")
	default:
		home, _ := os.UserHomeDir()
		return filepath.Join(home, ".predlab")
	}
}
