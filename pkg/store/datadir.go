package store

import (
	"os"
	"path/filepath"
	"runtime"
)

const appName = "tempo"

// DefaultDataDir returns where tempo keeps its local state and logs.
//
//   - macOS:   ~/Library/Application Support/tempo
//   - Linux:   $XDG_DATA_HOME/tempo (fallback ~/.local/share/tempo)
//   - Windows: %LOCALAPPDATA%\tempo (fallback %APPDATA%\tempo)
func DefaultDataDir() string {
	return defaultDataDirForOS(runtime.GOOS)
}

// DefaultConfigDir returns where tempo looks for config.yaml.
//
//   - macOS:   ~/Library/Application Support/tempo
//   - Linux:   $XDG_CONFIG_HOME/tempo (fallback ~/.config/tempo)
//   - Windows: %APPDATA%\tempo
func DefaultConfigDir() string {
	return defaultConfigDirForOS(runtime.GOOS)
}

func defaultDataDirForOS(goos string) string {
	home, _ := os.UserHomeDir()

	switch goos {
	case "darwin":
		return filepath.Join(home, "Library", "Application Support", appName)
	case "windows":
		return windowsDir(home, "LOCALAPPDATA", "APPDATA")
	default: // linux, freebsd, etc.
		return xdgDir(home, "XDG_DATA_HOME", ".local", "share")
	}
}

func defaultConfigDirForOS(goos string) string {
	home, _ := os.UserHomeDir()

	switch goos {
	case "darwin":
		return filepath.Join(home, "Library", "Application Support", appName)
	case "windows":
		return windowsDir(home, "APPDATA")
	default:
		return xdgDir(home, "XDG_CONFIG_HOME", ".config")
	}
}

func windowsDir(home string, envs ...string) string {
	for _, env := range envs {
		if dir := os.Getenv(env); dir != "" {
			return filepath.Join(dir, appName)
		}
	}
	return filepath.Join(home, appName)
}

func xdgDir(home, env string, fallback ...string) string {
	if dir := os.Getenv(env); dir != "" {
		return filepath.Join(dir, appName)
	}
	parts := append([]string{home}, fallback...)
	return filepath.Join(append(parts, appName)...)
}
