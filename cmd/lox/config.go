package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	lox "github.com/brauliobz/crafting-interpreters"
)

const (
	configEnv      = "LOX_CONFIG"
	configFileName = ".loxrc.yaml"
	historyFile    = ".lox_history"
	promptMain     = "> "
	promptCont     = "... "
)

// Config is the CLI configuration. Every field is optional in the file;
// command-line flags override whatever the file sets.
type Config struct {
	MaxCallDepth int    `yaml:"max_call_depth"`
	HistoryFile  string `yaml:"history_file"`
	Prompt       string `yaml:"prompt"`
	LogLevel     string `yaml:"log_level"`
}

func defaultConfig() Config {
	return Config{
		MaxCallDepth: lox.DefaultMaxCallDepth,
		Prompt:       promptMain,
		LogLevel:     "warn",
	}
}

// configPath returns the file named by $LOX_CONFIG, else ~/.loxrc.yaml. The
// second result reports whether the path was set explicitly.
func configPath() (string, bool) {
	if p := strings.TrimSpace(os.Getenv(configEnv)); p != "" {
		return p, true
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", false
	}
	return filepath.Join(home, configFileName), false
}

// LoadConfig reads the YAML config at path on top of the defaults. A missing
// file is not an error unless required is set. Unknown keys are rejected.
func LoadConfig(path string, required bool) (Config, error) {
	cfg := defaultConfig()
	if path == "" {
		return cfg, nil
	}
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) && !required {
			return cfg, nil
		}
		return cfg, fmt.Errorf("config: open %s: %w", path, err)
	}
	defer file.Close()

	decoder := yaml.NewDecoder(file)
	decoder.KnownFields(true)
	if err := decoder.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return cfg, fmt.Errorf("config: parse %s: %w", path, err)
	}
	if cfg.MaxCallDepth < 1 {
		return cfg, fmt.Errorf("config: %s: max_call_depth must be positive, got %d", path, cfg.MaxCallDepth)
	}
	if _, err := parseLevel(cfg.LogLevel); err != nil {
		return cfg, fmt.Errorf("config: %s: %w", path, err)
	}
	return cfg, nil
}

// historyPath resolves the REPL history file, defaulting to ~/.lox_history.
func (c Config) historyPath() string {
	if c.HistoryFile != "" {
		if strings.HasPrefix(c.HistoryFile, "~/") {
			if home, err := os.UserHomeDir(); err == nil {
				return filepath.Join(home, c.HistoryFile[2:])
			}
		}
		return c.HistoryFile
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, historyFile)
}

func parseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "", "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return slog.LevelWarn, fmt.Errorf("unknown log level %q (want debug, info, warn or error)", s)
}

func newLogger(w io.Writer, level slog.Level) *slog.Logger {
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}
