package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"phpc/internal/tinf"
)

func writeConfig(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, FileName)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestDiscoverWalksUp(t *testing.T) {
	root := t.TempDir()
	nested := filepath.Join(root, "a", "b")
	if err := os.MkdirAll(nested, 0o755); err != nil {
		t.Fatal(err)
	}
	path := writeConfig(t, root, `
[check]
max_diagnostics = 5
warnings_as_errors = true
checks = ["isset", "is_int"]

[cache]
dir = ".cache"

[output]
format = "short"
`)

	cfg, err := Discover(nested)
	if err != nil {
		t.Fatalf("discover: %v", err)
	}
	if cfg.Path != path {
		t.Fatalf("path = %q, want %q", cfg.Path, path)
	}
	if cfg.Check.MaxDiagnostics != 5 || !cfg.Check.WarningsAsErrors || cfg.Output.Format != "short" {
		t.Fatalf("unexpected config %+v", cfg)
	}
	// untouched keys keep their defaults
	if cfg.Output.Color != "auto" || !cfg.Cache.Enabled {
		t.Fatalf("defaults lost: %+v", cfg)
	}
	if cfg.Cache.Dir != filepath.Join(root, ".cache") {
		t.Fatalf("cache dir = %q", cfg.Cache.Dir)
	}
	mask, err := cfg.CheckMask()
	if err != nil || mask != tinf.IfiIsset|tinf.IfiIsInteger {
		t.Fatalf("mask = %s, %v", mask, err)
	}
}

func TestDiscoverDefaults(t *testing.T) {
	cfg, err := Discover(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	// a phpc.toml above the temp dir would change the result; only check the shape
	if cfg.Path == "" {
		mask, _ := cfg.CheckMask()
		if mask != tinf.IfiAll || cfg.Check.MaxDiagnostics != 100 {
			t.Fatalf("unexpected defaults %+v", cfg)
		}
	}
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		err     error
	}{
		{"unknown key", "[check]\nmax_diags = 1\n", ErrUnknownKey},
		{"bad format", "[output]\nformat = \"xml\"\n", ErrBadValue},
		{"bad color", "[output]\ncolor = \"sometimes\"\n", ErrBadValue},
		{"negative jobs", "[check]\njobs = -2\n", ErrBadValue},
		{"unknown check", "[check]\nchecks = [\"is_callable\"]\n", ErrUnknownCheck},
		{"empty check", "[check]\nchecks = [\"\"]\n", ErrBadValue},
		{"blank checks", "[check]\nchecks = [\" \", \"\"]\n", ErrBadValue},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeConfig(t, t.TempDir(), tt.content)
			if _, err := Load(path); !errors.Is(err, tt.err) {
				t.Fatalf("expected %v, got %v", tt.err, err)
			}
		})
	}
}

func TestLoadSyntaxError(t *testing.T) {
	path := writeConfig(t, t.TempDir(), "[check\n")
	_, err := Load(path)
	if err == nil {
		t.Fatal("expected parse error")
	}
	for _, sentinel := range []error{ErrUnknownKey, ErrBadValue, ErrUnknownCheck} {
		if errors.Is(err, sentinel) {
			t.Fatalf("syntax error classified as %v", sentinel)
		}
	}
}
