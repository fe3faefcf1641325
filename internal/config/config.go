package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/evanschultz/lanes/internal/domain"
	toml "github.com/pelletier/go-toml/v2"
)

// ColorStrategy names how the card color cycle restarts after a load.
type ColorStrategy string

const (
	ColorStrategyDerive ColorStrategy = "derive"
	ColorStrategyReset  ColorStrategy = "reset"
)

// Drag bias bounds accepted in [drag] bias.
const (
	MinDragBias = 0.4
	MaxDragBias = 0.55
)

var hexColorPattern = regexp.MustCompile(`^#[0-9a-fA-F]{6}$`)

type Config struct {
	Database DatabaseConfig `toml:"database"`
	Storage  StorageConfig  `toml:"storage"`
	Board    BoardConfig    `toml:"board"`
	Drag     DragConfig     `toml:"drag"`
	Palette  PaletteConfig  `toml:"palette"`
	Confirm  ConfirmConfig  `toml:"confirm"`
	Logging  LoggingConfig  `toml:"logging"`
}

type DatabaseConfig struct {
	Path string `toml:"path,omitempty"`
}

type StorageConfig struct {
	Key string `toml:"key"`
}

type BoardConfig struct {
	Columns         []ColumnConfig `toml:"columns"`
	DefaultColumn   string         `toml:"default_column"`
	CompletedColumn string         `toml:"completed_column"`
}

type ColumnConfig struct {
	ID   string `toml:"id"`
	Name string `toml:"name"`
}

type DragConfig struct {
	Bias        float64 `toml:"bias"`
	IdleTimeout string  `toml:"idle_timeout"`
}

type PaletteConfig struct {
	Colors   []string      `toml:"colors"`
	Strategy ColorStrategy `toml:"strategy"`
}

type ConfirmConfig struct {
	DeleteProject bool `toml:"delete_project"`
}

type LoggingConfig struct {
	Level   string               `toml:"level"`
	DevFile DevFileLoggingConfig `toml:"dev_file"`
}

type DevFileLoggingConfig struct {
	Enabled bool   `toml:"enabled"`
	Dir     string `toml:"dir"`
}

func defaultColumns() []ColumnConfig {
	layout := domain.DefaultLayout()
	out := make([]ColumnConfig, 0, len(layout.Columns))
	for _, col := range layout.Columns {
		out = append(out, ColumnConfig{ID: string(col.ID), Name: col.Name})
	}
	return out
}

func Default(dbPath string) Config {
	return Config{
		Database: DatabaseConfig{
			Path: dbPath,
		},
		Storage: StorageConfig{
			Key: "lanes.appdata",
		},
		Board: BoardConfig{
			Columns:         defaultColumns(),
			DefaultColumn:   string(domain.ColumnTodo),
			CompletedColumn: string(domain.ColumnCompleted),
		},
		Drag: DragConfig{
			Bias:        0.55,
			IdleTimeout: "30s",
		},
		Palette: PaletteConfig{
			Strategy: ColorStrategyDerive,
		},
		Confirm: ConfirmConfig{
			DeleteProject: true,
		},
		Logging: LoggingConfig{
			Level: "info",
			DevFile: DevFileLoggingConfig{
				Enabled: true,
				Dir:     ".lanes/log",
			},
		},
	}
}

func Load(path string, defaults Config) (Config, error) {
	cfg := defaults
	if strings.TrimSpace(path) == "" {
		return cfg, nil
	}

	content, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	if len(content) == 0 {
		return cfg, nil
	}

	// file columns replace the defaults rather than extending them
	cfg.Board.Columns = nil
	if err := toml.Unmarshal(content, &cfg); err != nil {
		return Config{}, fmt.Errorf("decode toml: %w", err)
	}
	if len(cfg.Board.Columns) == 0 {
		cfg.Board.Columns = defaults.Board.Columns
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.Database.Path) == "" {
		return errors.New("database path is required")
	}
	if strings.TrimSpace(c.Storage.Key) == "" {
		return errors.New("storage.key is required")
	}
	if _, err := c.Layout(); err != nil {
		return err
	}
	if c.Drag.Bias < MinDragBias || c.Drag.Bias > MaxDragBias {
		return fmt.Errorf("drag.bias must be within [%.2f, %.2f], got %v", MinDragBias, MaxDragBias, c.Drag.Bias)
	}
	if _, err := c.IdleTimeout(); err != nil {
		return err
	}
	switch c.Palette.Strategy {
	case ColorStrategyDerive, ColorStrategyReset:
	default:
		return fmt.Errorf("invalid palette.strategy: %q", c.Palette.Strategy)
	}
	for i, color := range c.Palette.Colors {
		if !hexColorPattern.MatchString(strings.TrimSpace(color)) {
			return fmt.Errorf("palette.colors[%d] must be a #rrggbb color, got %q", i, color)
		}
	}
	switch strings.ToLower(strings.TrimSpace(c.Logging.Level)) {
	case "", "debug", "info", "warn", "error", "fatal":
	default:
		return fmt.Errorf("invalid logging.level: %q", c.Logging.Level)
	}
	if c.Logging.DevFile.Enabled && strings.TrimSpace(c.Logging.DevFile.Dir) == "" {
		return errors.New("logging.dev_file.dir is required when logging.dev_file.enabled is true")
	}
	return nil
}

// Layout builds the board column layout from [board].
func (c Config) Layout() (domain.Layout, error) {
	if len(c.Board.Columns) == 0 {
		return domain.Layout{}, errors.New("board.columns must include at least one column")
	}
	specs := make([]domain.ColumnSpec, 0, len(c.Board.Columns))
	for idx, col := range c.Board.Columns {
		if strings.TrimSpace(col.ID) == "" {
			return domain.Layout{}, fmt.Errorf("board.columns[%d].id is required", idx)
		}
		if strings.TrimSpace(col.Name) == "" {
			return domain.Layout{}, fmt.Errorf("board.columns[%d].name is required", idx)
		}
		specs = append(specs, domain.ColumnSpec{ID: domain.ColumnID(col.ID), Name: col.Name})
	}
	layout, err := domain.NewLayout(specs, domain.ColumnID(c.Board.DefaultColumn), domain.ColumnID(c.Board.CompletedColumn))
	if err != nil {
		return domain.Layout{}, fmt.Errorf("invalid board columns: %w", err)
	}
	return layout, nil
}

// IdleTimeout parses [drag] idle_timeout. Empty means the built-in default.
func (c Config) IdleTimeout() (time.Duration, error) {
	raw := strings.TrimSpace(c.Drag.IdleTimeout)
	if raw == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid drag.idle_timeout: %w", err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("drag.idle_timeout must be positive, got %s", d)
	}
	return d, nil
}

// WriteDefault writes cfg as TOML to path unless a file already exists there.
// The database path is left out so the resolved data dir stays authoritative.
func WriteDefault(path string, cfg Config) (bool, error) {
	if _, err := os.Stat(path); err == nil {
		return false, nil
	} else if !errors.Is(err, os.ErrNotExist) {
		return false, fmt.Errorf("stat config: %w", err)
	}
	if err := EnsureConfigDir(path); err != nil {
		return false, fmt.Errorf("create config dir: %w", err)
	}
	cfg.Database.Path = ""
	encoded, err := toml.Marshal(cfg)
	if err != nil {
		return false, fmt.Errorf("encode toml: %w", err)
	}
	if err := os.WriteFile(path, encoded, 0o644); err != nil {
		return false, fmt.Errorf("write config: %w", err)
	}
	return true, nil
}

func EnsureConfigDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "." || dir == "" {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}
