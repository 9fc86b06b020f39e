// Package config loads phpc.toml.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"

	"phpc/internal/tinf"
)

// FileName is the configuration file looked up from the working directory upwards.
const FileName = "phpc.toml"

var (
	// ErrUnknownKey reports a key the configuration does not define.
	ErrUnknownKey = errors.New("unknown key")
	// ErrBadValue reports a value outside the allowed set.
	ErrBadValue = errors.New("invalid value")
	// ErrUnknownCheck reports a name in [check].checks that is not a known check.
	ErrUnknownCheck = errors.New("unknown check")
)

// Config mirrors phpc.toml.
type Config struct {
	// Path is the file the config came from; empty for defaults.
	Path   string       `toml:"-"`
	Check  CheckConfig  `toml:"check"`
	Cache  CacheConfig  `toml:"cache"`
	Output OutputConfig `toml:"output"`
}

type CheckConfig struct {
	MaxDiagnostics   int      `toml:"max_diagnostics"`
	WarningsAsErrors bool     `toml:"warnings_as_errors"`
	Jobs             int      `toml:"jobs"`
	Checks           []string `toml:"checks"`
}

type CacheConfig struct {
	Enabled bool   `toml:"enabled"`
	Dir     string `toml:"dir"`
}

type OutputConfig struct {
	Format string `toml:"format"`
	Color  string `toml:"color"`
}

var (
	formats = []string{"pretty", "short", "json"}
	colors  = []string{"auto", "on", "off"}
)

// Default returns the configuration used when no phpc.toml is found.
func Default() Config {
	return Config{
		Check: CheckConfig{
			MaxDiagnostics: 100,
			Checks:         []string{"all"},
		},
		Cache:  CacheConfig{Enabled: true},
		Output: OutputConfig{Format: "pretty", Color: "auto"},
	}
}

// Find walks up from startDir to locate phpc.toml.
func Find(startDir string) (path string, ok bool, err error) {
	if startDir == "" {
		startDir = "."
	}
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", false, fmt.Errorf("failed to resolve start directory: %w", err)
	}
	for {
		candidate := filepath.Join(dir, FileName)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, true, nil
		} else if !errors.Is(err, os.ErrNotExist) {
			return "", false, fmt.Errorf("failed to stat %q: %w", candidate, err)
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return "", false, nil
}

// Discover loads the nearest phpc.toml above startDir, or the defaults.
func Discover(startDir string) (Config, error) {
	path, ok, err := Find(startDir)
	if err != nil {
		return Config{}, err
	}
	if !ok {
		return Default(), nil
	}
	return Load(path)
}

// Load parses path on top of the defaults and validates the result.
func Load(path string) (Config, error) {
	cfg := Default()
	meta, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return Config{}, fmt.Errorf("%s: failed to parse TOML: %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		sort.Strings(keys)
		return Config{}, fmt.Errorf("%s: %w: %s", path, ErrUnknownKey, strings.Join(keys, ", "))
	}
	cfg.Path = path
	if cfg.Cache.Dir != "" && !filepath.IsAbs(cfg.Cache.Dir) {
		cfg.Cache.Dir = filepath.Join(filepath.Dir(path), cfg.Cache.Dir)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks value ranges and check names.
func (c *Config) Validate() error {
	if c.Check.MaxDiagnostics < 0 {
		return fmt.Errorf("check.max_diagnostics: %w: %d", ErrBadValue, c.Check.MaxDiagnostics)
	}
	if c.Check.Jobs < 0 {
		return fmt.Errorf("check.jobs: %w: %d", ErrBadValue, c.Check.Jobs)
	}
	if !oneOf(c.Output.Format, formats) {
		return fmt.Errorf("output.format: %w: %q (want %s)", ErrBadValue, c.Output.Format, strings.Join(formats, "|"))
	}
	if !oneOf(c.Output.Color, colors) {
		return fmt.Errorf("output.color: %w: %q (want %s)", ErrBadValue, c.Output.Color, strings.Join(colors, "|"))
	}
	_, err := c.CheckMask()
	return err
}

// CheckMask returns the enabled checks. An absent list enables all of them; a list
// that names nothing, e.g. [""], is an error.
func (c *Config) CheckMask() (tinf.IssetFlags, error) {
	if len(c.Check.Checks) == 0 {
		return tinf.IfiAll, nil
	}
	mask, err := tinf.ParseIssetFlags(c.Check.Checks)
	if err != nil {
		return 0, fmt.Errorf("check.checks: %w: %w", ErrUnknownCheck, err)
	}
	if mask == 0 {
		return 0, fmt.Errorf("check.checks: %w: %q selects no check", ErrBadValue, c.Check.Checks)
	}
	return mask, nil
}

// CacheDir returns the cache directory: [cache].dir or the user cache dir.
func (c *Config) CacheDir() (string, error) {
	if c.Cache.Dir != "" {
		return c.Cache.Dir, nil
	}
	base, err := os.UserCacheDir()
	if err != nil {
		return "", fmt.Errorf("cache dir: %w", err)
	}
	return filepath.Join(base, "phpc"), nil
}

func oneOf(s string, allowed []string) bool {
	for _, a := range allowed {
		if s == a {
			return true
		}
	}
	return false
}
