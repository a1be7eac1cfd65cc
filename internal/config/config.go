// Package config holds the adjustable settings of the plotter: defaults,
// an optional YAML file, .env / WEIGHPLOT_* environment overrides and
// validation at the boundary.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/luki/weighplot/internal/decoder"
	"github.com/luki/weighplot/internal/series"
)

// Defaults.
const (
	DefaultPollInterval = 20 * time.Millisecond
	DefaultBaudRate     = 115200
	DefaultExportDir    = "."

	envPrefix = "WEIGHPLOT_"
)

// ErrInvalid is wrapped by every validation failure.
var ErrInvalid = errors.New("invalid configuration")

// Config is the full set of tunables.
type Config struct {
	Port         string        `yaml:"port"`
	BaudRate     int           `yaml:"baud_rate"`
	PollInterval time.Duration `yaml:"poll_interval"`
	MaxPoints    int           `yaml:"max_points"`
	Delimiter    string        `yaml:"delimiter"`
	MaxPending   int           `yaml:"max_pending"`
	LogFile      string        `yaml:"log_file"`
	Debug        bool          `yaml:"debug"`
	ExportDir    string        `yaml:"export_dir"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		BaudRate:     DefaultBaudRate,
		PollInterval: DefaultPollInterval,
		MaxPoints:    series.DefaultMaxPoints,
		Delimiter:    string(decoder.DefaultDelimiter),
		MaxPending:   decoder.DefaultMaxPending,
		ExportDir:    DefaultExportDir,
	}
}

// Load starts from Default, overlays the YAML file at path (skipped when
// path is empty), then .env and the process environment.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	// A missing .env is normal.
	_ = godotenv.Load()

	if err := cfg.applyEnv(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	if v, ok := lookup("PORT"); ok {
		c.Port = v
	}
	if v, ok := lookup("DELIMITER"); ok {
		c.Delimiter = v
	}
	if v, ok := lookup("LOG_FILE"); ok {
		c.LogFile = v
	}
	if v, ok := lookup("EXPORT_DIR"); ok {
		c.ExportDir = v
	}

	ints := []struct {
		key string
		dst *int
	}{
		{"BAUD_RATE", &c.BaudRate},
		{"MAX_POINTS", &c.MaxPoints},
		{"MAX_PENDING", &c.MaxPending},
	}
	for _, e := range ints {
		v, ok := lookup(e.key)
		if !ok {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%w: %s%s=%q is not an integer", ErrInvalid, envPrefix, e.key, v)
		}
		*e.dst = n
	}

	if v, ok := lookup("POLL_INTERVAL"); ok {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("%w: %sPOLL_INTERVAL=%q: %v", ErrInvalid, envPrefix, v, err)
		}
		c.PollInterval = d
	}
	if v, ok := lookup("DEBUG"); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%w: %sDEBUG=%q is not a boolean", ErrInvalid, envPrefix, v)
		}
		c.Debug = b
	}
	return nil
}

func lookup(key string) (string, bool) {
	v, ok := os.LookupEnv(envPrefix + key)
	if !ok || strings.TrimSpace(v) == "" {
		return "", false
	}
	return strings.TrimSpace(v), true
}

// Validate rejects settings the core cannot run with.
func (c Config) Validate() error {
	if c.PollInterval < time.Millisecond || c.PollInterval > 10*time.Second {
		return fmt.Errorf("%w: poll interval %v must be within [1ms, 10s]", ErrInvalid, c.PollInterval)
	}
	if c.MaxPoints < 1 || c.MaxPoints > 1_000_000 {
		return fmt.Errorf("%w: max points %d must be within [1, 1000000]", ErrInvalid, c.MaxPoints)
	}
	if c.BaudRate <= 0 {
		return fmt.Errorf("%w: baud rate %d must be positive", ErrInvalid, c.BaudRate)
	}
	if c.MaxPending < 0 {
		return fmt.Errorf("%w: max pending %d must not be negative", ErrInvalid, c.MaxPending)
	}
	if _, err := c.DelimiterRune(); err != nil {
		return err
	}
	return nil
}

// DelimiterRune returns the delimiter as a single rune. Digits, signs,
// the decimal point, exponent markers and whitespace would collide with
// the number syntax and are refused.
func (c Config) DelimiterRune() (rune, error) {
	if utf8.RuneCountInString(c.Delimiter) != 1 {
		return 0, fmt.Errorf("%w: delimiter %q must be exactly one character", ErrInvalid, c.Delimiter)
	}
	r, _ := utf8.DecodeRuneInString(c.Delimiter)
	if r == '\n' || r == '\r' {
		return r, nil
	}
	if strings.ContainsRune("0123456789+-.eE \t", r) {
		return 0, fmt.Errorf("%w: delimiter %q collides with number syntax", ErrInvalid, c.Delimiter)
	}
	return r, nil
}
