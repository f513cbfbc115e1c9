// Package config loads the workbench settings from YAML.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/chandrasekarnarayana/Modeling-GUI/pkg/data"
)

// Config is the full settings tree. Fields absent from the file keep their
// defaults.
type Config struct {
	RandomState int64          `yaml:"random_state"`
	Data        DataConfig     `yaml:"data"`
	KMeans      KMeansConfig   `yaml:"kmeans"`
	CurveFit    CurveFitConfig `yaml:"curve_fit"`
	Plot        PlotConfig     `yaml:"plot"`
	Log         LogConfig      `yaml:"log"`
	History     HistoryConfig  `yaml:"history"`
}

type DataConfig struct {
	Delimiter string   `yaml:"delimiter" validate:"required"`
	Encoding  string   `yaml:"encoding"`
	NaNValues []string `yaml:"nan_values"`
	CacheSize int      `yaml:"cache_size" validate:"gte=1,lte=64"`
	Watch     bool     `yaml:"watch"`
}

type KMeansConfig struct {
	Restarts int `yaml:"restarts" validate:"gte=1,lte=100"`
	MaxIter  int `yaml:"max_iter" validate:"gte=1"`
}

type CurveFitConfig struct {
	Method string `yaml:"method" validate:"oneof=lm lbfgs nelder-mead"`
}

type PlotConfig struct {
	Dir    string  `yaml:"dir" validate:"required"`
	Format string  `yaml:"format" validate:"oneof=png svg pdf"`
	Width  float64 `yaml:"width_in" validate:"gt=0,lte=40"`
	Height float64 `yaml:"height_in" validate:"gt=0,lte=40"`
}

type LogConfig struct {
	Level      string `yaml:"level" validate:"oneof=debug info warn error"`
	Format     string `yaml:"format" validate:"oneof=console json"`
	File       string `yaml:"file"`
	MaxSizeMB  int    `yaml:"max_size_mb" validate:"gte=1"`
	MaxBackups int    `yaml:"max_backups" validate:"gte=0"`
	MaxAgeDays int    `yaml:"max_age_days" validate:"gte=0"`
}

type HistoryConfig struct {
	Path     string `yaml:"path"`
	Disabled bool   `yaml:"disabled"`
}

// Dir is the per-user settings directory.
func Dir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".modelgui"
	}
	return filepath.Join(home, ".modelgui")
}

// DefaultPath is where Load looks when no path is given.
func DefaultPath() string { return filepath.Join(Dir(), "config.yaml") }

// Default returns the built-in settings.
func Default() Config {
	return Config{
		RandomState: 42,
		Data: DataConfig{
			Delimiter: ",",
			Encoding:  "utf-8",
			NaNValues: data.DefaultOptions().NaNValues,
			CacheSize: 4,
		},
		KMeans:   KMeansConfig{Restarts: 10, MaxIter: 300},
		CurveFit: CurveFitConfig{Method: "lm"},
		Plot:     PlotConfig{Dir: "plots", Format: "png", Width: 8, Height: 6},
		Log:      LogConfig{Level: "info", Format: "console", MaxSizeMB: 10, MaxBackups: 3, MaxAgeDays: 28},
		History:  HistoryConfig{Path: filepath.Join(Dir(), "history.db")},
	}
}

// Load reads path over the defaults. An empty path means DefaultPath; a
// missing file yields the defaults.
func Load(path string) (Config, error) {
	if path == "" {
		path = DefaultPath()
	}
	raw, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return Default(), nil
	}
	if err != nil {
		return Config{}, fmt.Errorf("config: read %s: %w", path, err)
	}
	cfg, err := Parse(raw)
	if err != nil {
		return Config{}, fmt.Errorf("config: %s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes YAML over the defaults and validates the result.
func Parse(raw []byte) (Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return Config{}, fmt.Errorf("decode: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

var validate = validator.New()

// Validate checks ranges and enumerations.
func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return err
		}
		msgs := make([]string, len(verrs))
		for i, fe := range verrs {
			msgs[i] = fmt.Sprintf("%s fails %q", fe.Namespace(), strings.TrimSpace(fe.Tag()+" "+fe.Param()))
		}
		return fmt.Errorf("invalid config: %s", strings.Join(msgs, "; "))
	}
	if utf8.RuneCountInString(c.Data.Delimiter) != 1 && c.Data.Delimiter != `\t` {
		return fmt.Errorf("invalid config: delimiter %q must be a single character", c.Data.Delimiter)
	}
	return nil
}

// Write saves c as YAML, creating parent directories.
func (c Config) Write(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	out, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(path, out, 0o644)
}

// LoaderOptions converts the data section for the loader.
func (d DataConfig) LoaderOptions() data.Options {
	delim := ','
	if d.Delimiter == `\t` {
		delim = '\t'
	} else if r, _ := utf8.DecodeRuneInString(d.Delimiter); r != utf8.RuneError {
		delim = r
	}
	return data.Options{Delimiter: delim, Encoding: d.Encoding, NaNValues: d.NaNValues}
}
