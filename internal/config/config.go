// Package config loads boardctl configuration: built-in defaults, then an
// optional YAML file, then LIFEBOARD_* environment overrides.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"

	"github.com/joshuapare/lifeboard/board"
	"github.com/joshuapare/lifeboard/board/field"
	"github.com/joshuapare/lifeboard/internal/logger"
	"github.com/joshuapare/lifeboard/internal/pagebuf"
	"github.com/joshuapare/lifeboard/pkg/types"
)

// Config holds every tunable of the engine and its interface layer.
type Config struct {
	Field    FieldConfig    `yaml:"field"`
	Registry RegistryConfig `yaml:"registry"`
	Log      LogConfig      `yaml:"log"`
}

// FieldConfig sizes board fields.
type FieldConfig struct {
	PageSize      int    `yaml:"page_size" env:"LIFEBOARD_PAGE_SIZE"`             // bytes, power of two
	MaxPagesPower int    `yaml:"max_pages_power" env:"LIFEBOARD_MAX_PAGES_POWER"` // growth stops at 2^this pages
	Backing       string `yaml:"backing" env:"LIFEBOARD_BACKING"`                 // "heap" or "mmap"
}

// RegistryConfig bounds the registry.
type RegistryConfig struct {
	MaxBoards  int `yaml:"max_boards" env:"LIFEBOARD_MAX_BOARDS"` // 0 = unlimited
	MaxNameLen int `yaml:"max_name_len" env:"LIFEBOARD_MAX_NAME_LEN"`
	// largest used extent the field node renders; 0 = unlimited
	MaxRenderSide int `yaml:"max_render_side" env:"LIFEBOARD_MAX_RENDER_SIDE"`
}

// LogConfig controls logging.
type LogConfig struct {
	Enabled bool   `yaml:"enabled" env:"LIFEBOARD_LOG"`
	Dir     string `yaml:"dir" env:"LIFEBOARD_LOG_DIR"` // empty logs to stderr
	Level   string `yaml:"level" env:"LIFEBOARD_LOG_LEVEL"`
}

// Default returns the built-in configuration.
func Default() Config {
	l := types.DefaultLimits()
	return Config{
		Field: FieldConfig{
			PageSize:      l.PageSize,
			MaxPagesPower: l.MaxPagesPower,
			Backing:       pagebuf.BackingHeap.String(),
		},
		Registry: RegistryConfig{
			MaxBoards:     l.MaxBoards,
			MaxNameLen:    l.MaxNameLen,
			MaxRenderSide: l.MaxRenderSide,
		},
		Log: LogConfig{Level: "info"},
	}
}

// Load builds a Config from defaults, the YAML file at path (skipped when
// path is empty) and the environment, and validates the result.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("config: read %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
		}
	}
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("config: parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Limits returns the engine limits described by c.
func (c Config) Limits() types.Limits {
	return types.Limits{
		PageSize:      c.Field.PageSize,
		MaxPagesPower: c.Field.MaxPagesPower,
		MaxBoards:     c.Registry.MaxBoards,
		MaxNameLen:    c.Registry.MaxNameLen,
		MaxRenderSide: c.Registry.MaxRenderSide,
	}
}

// Validate reports every invalid setting.
func (c Config) Validate() error {
	var errs []error
	if err := c.Limits().Validate(); err != nil {
		errs = append(errs, err)
	}
	if _, err := pagebuf.ParseBacking(c.Field.Backing); err != nil {
		errs = append(errs, err)
	}
	if _, err := logger.ParseLevel(c.Log.Level); err != nil {
		errs = append(errs, err)
	}
	if len(errs) > 0 {
		return fmt.Errorf("config: %w", errors.Join(errs...))
	}
	return nil
}

// RegistryOptions converts c into board registry options. The presenter is
// left unset.
func (c Config) RegistryOptions(log *slog.Logger) (board.Options, error) {
	backing, err := pagebuf.ParseBacking(c.Field.Backing)
	if err != nil {
		return board.Options{}, err
	}
	return board.Options{
		Field: field.Options{
			PageSize:      c.Field.PageSize,
			MaxPagesPower: c.Field.MaxPagesPower,
			Allocator:     pagebuf.New(backing),
		},
		MaxBoards:     c.Registry.MaxBoards,
		MaxNameLen:    c.Registry.MaxNameLen,
		MaxRenderSide: c.Registry.MaxRenderSide,
		Logger:        log,
	}, nil
}

// LoggerOptions converts c into logger options.
func (c Config) LoggerOptions() logger.Options {
	level, _ := logger.ParseLevel(c.Log.Level)
	return logger.Options{
		Enabled: c.Log.Enabled,
		LogDir:  strings.TrimSpace(c.Log.Dir),
		Level:   level,
	}
}
