package main

import (
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is everything now can be told, from flags or a YAML file.
type Config struct {
	Port     int           `yaml:"port"`
	Folder   string        `yaml:"folder"`
	Index    string        `yaml:"index"`
	Style    bool          `yaml:"style"`
	Minify   bool          `yaml:"minify"`
	Metrics  bool          `yaml:"metrics"`
	LogLevel string        `yaml:"log_level"`
	Patterns []string      `yaml:"patterns"`
	Ignore   []string      `yaml:"ignore"`
	Debounce time.Duration `yaml:"debounce"`
	Throttle time.Duration `yaml:"throttle"`
}

// DefaultConfig returns the settings used when nothing overrides them.
func DefaultConfig() Config {
	return Config{
		Port:     8003,
		Folder:   ".",
		Index:    "index.html",
		Metrics:  true,
		LogLevel: "info",
		Patterns: []string{"*"},
		Ignore:   []string{"*.swp", "*.swx", "*~", "4913", "*.tmp"},
		Debounce: 50 * time.Millisecond,
		Throttle: 50 * time.Millisecond,
	}
}

// LoadFile reads a YAML config over cfg.
func LoadFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	return nil
}

// parseConfig builds the config from defaults, then the config file, then
// any flags given on the command line.
func parseConfig(args []string, output io.Writer) (Config, error) {
	def := DefaultConfig()
	fs := flag.NewFlagSet("now", flag.ContinueOnError)
	fs.SetOutput(output)

	port := fs.Int("p", def.Port, "port to serve")
	style := fs.Bool("style", def.Style, "render markdown files into the default styled page")
	index := fs.String("index", def.Index, "index page to render on /")
	folder := fs.String("f", def.Folder, "folder to serve and watch")
	logLevel := fs.String("log-level", def.LogLevel, "log level: debug, info, warn or error")
	configPath := fs.String("config", "", "YAML config file")
	minify := fs.Bool("minify", def.Minify, "serve the page script minified")

	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}

	cfg := def
	if *configPath != "" {
		if err := LoadFile(*configPath, &cfg); err != nil {
			return Config{}, err
		}
	}

	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "p":
			cfg.Port = *port
		case "style":
			cfg.Style = *style
		case "index":
			cfg.Index = *index
		case "f":
			cfg.Folder = *folder
		case "log-level":
			cfg.LogLevel = *logLevel
		case "minify":
			cfg.Minify = *minify
		}
	})

	if cfg.Folder == "" {
		cfg.Folder = "."
	}
	if strings.EqualFold(filepath.Ext(cfg.Index), ".md") {
		cfg.Style = true
	}
	if cfg.Port < 0 || cfg.Port > 65535 {
		return Config{}, fmt.Errorf("invalid port %d", cfg.Port)
	}
	if _, err := parseLevel(cfg.LogLevel); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func parseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return 0, fmt.Errorf("invalid log level %q: %w", s, err)
	}
	return level, nil
}

func newLogger(w io.Writer, levelName string) *slog.Logger {
	level, err := parseLevel(levelName)
	if err != nil {
		level = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}
