package dirs

import (
	"os"
	"path/filepath"
	"runtime"
)

const appName = "cloudclass"

// AppName returns the canonical application name for directory paths.
func AppName() string {
	return appName
}

// ConfigDir returns the app's configuration directory.
// - Linux: $XDG_CONFIG_HOME/cloudclass or ~/.config/cloudclass
// - macOS: ~/Library/Application Support/cloudclass
// - Windows: %AppData%/cloudclass (fallback to os.UserConfigDir)
func ConfigDir() (string, error) {
	switch runtime.GOOS {
	case "darwin":
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(home, "Library", "Application Support", AppName()), nil
	case "linux":
		if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
			return filepath.Join(xdg, AppName()), nil
		}
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(home, ".config", AppName()), nil
	default:
		cfg, err := os.UserConfigDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(cfg, AppName()), nil
	}
}

// DataDir returns the app's data directory (log file lives here).
// - Linux: $XDG_DATA_HOME/cloudclass or ~/.local/share/cloudclass
// - macOS: ~/Library/Application Support/cloudclass
// - Windows: %AppData%/cloudclass (fallback to os.UserConfigDir)
func DataDir() (string, error) {
	switch runtime.GOOS {
	case "darwin":
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(home, "Library", "Application Support", AppName()), nil
	case "linux":
		if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" {
			return filepath.Join(xdg, AppName()), nil
		}
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(home, ".local", "share", AppName()), nil
	default:
		cfg, err := os.UserConfigDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(cfg, AppName()), nil
	}
}

// Ensure creates the directory if missing.
func Ensure(path string) error {
	if path == "" {
		return nil
	}
	return os.MkdirAll(path, 0o755)
}

// EnsureAll creates all app directories, ignoring individual failures.
func EnsureAll() error {
	var firstErr error
	for _, fn := range []func() (string, error){ConfigDir, DataDir} {
		dir, err := fn()
		if err == nil {
			err = Ensure(dir)
		}
		if err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
