package config

import (
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
)

// File locations searched by Loader.
const (
	ProjectConfigFile = "syntaxrules.yaml"
	UserConfigDir     = ".config/syntaxrules"
	UserConfigFile    = "config.yaml"
)

// Loader builds a Config from defaults, the user file and the nearest
// project file, later layers overriding earlier ones.
type Loader struct {
	logger  *slog.Logger
	workDir string // project search start; cwd when empty
	homeDir string // user config root; os.UserHomeDir when empty
}

// NewLoader returns a Loader logging to logger, or slog.Default().
func NewLoader(logger *slog.Logger) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Loader{logger: logger}
}

// Load merges the layers and validates the result. A missing file is
// skipped; an unreadable user file is logged and skipped. Rule paths of the
// project file are taken relative to its directory.
func (l *Loader) Load() (*Config, error) {
	cfg := DefaultConfig()

	if path := l.userConfigPath(); path != "" {
		layer, err := loadLayer(path)
		switch {
		case err == nil:
			l.logger.Debug("Loaded user config", slog.String("path", path))
			cfg.Merge(layer)
		case !errors.Is(err, fs.ErrNotExist):
			l.logger.Warn("Skipping user config", slog.String("path", path), slog.String("error", err.Error()))
		}
	}

	if path := l.findProjectConfig(); path != "" {
		layer, err := loadLayer(path)
		if err != nil {
			l.logger.Warn("Skipping project config", slog.String("path", path), slog.String("error", err.Error()))
		} else {
			layer.ResolvePaths(filepath.Dir(path))
			l.logger.Debug("Loaded project config", slog.String("path", path))
			cfg.Merge(layer)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// EnsureUserConfig writes the default config to the user location unless a
// file is already there.
func (l *Loader) EnsureUserConfig() error {
	path := l.userConfigPath()
	if _, err := os.Stat(path); err == nil {
		return nil
	}
	if err := DefaultConfig().SaveToFile(path); err != nil {
		return err
	}
	l.logger.Info("Wrote default user config", slog.String("path", path))
	return nil
}

// loadLayer reads a config file without defaults so Merge only sees the
// values the file sets.
func loadLayer(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return parseLayer(data)
}

func (l *Loader) userConfigPath() string {
	home := l.homeDir
	if home == "" {
		var err error
		if home, err = os.UserHomeDir(); err != nil {
			return ""
		}
	}
	return filepath.Join(home, UserConfigDir, UserConfigFile)
}

// findProjectConfig walks up from the working directory to the filesystem
// root and returns the first ProjectConfigFile found.
func (l *Loader) findProjectConfig() string {
	dir := l.workDir
	if dir == "" {
		var err error
		if dir, err = os.Getwd(); err != nil {
			return ""
		}
	}
	for {
		candidate := filepath.Join(dir, ProjectConfigFile)
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return candidate
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}
