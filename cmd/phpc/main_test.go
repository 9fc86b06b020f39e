package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/pflag"
)

const dangerousDump = `file: uninited.php
source: |
  <?php
  if (isset($x)) {}
globals:
  - {name: x, type: int, uninited: true, at: [16, 18]}
main:
  op: op_seq
  at: [6, 23]
  children:
    - op: op_if
      at: [6, 23]
      children:
        - op: op_isset
          at: [10, 19]
          children:
            - {op: op_var, var: x, at: [16, 18]}
        - {op: op_seq}
`

// execute runs the root command with args; flags are reset afterwards since cobra keeps
// them on package-level commands.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	reset := func(f *pflag.Flag) {
		if sv, ok := f.Value.(pflag.SliceValue); ok {
			_ = sv.Replace(nil)
		} else {
			_ = f.Value.Set(f.DefValue)
		}
		f.Changed = false
	}
	defer func() {
		for _, c := range rootCmd.Commands() {
			c.Flags().VisitAll(reset)
		}
		rootCmd.PersistentFlags().VisitAll(reset)
	}()
	err := rootCmd.Execute()
	runCleanups()
	return out.String(), err
}

func writeDump(t *testing.T) (dir, path string) {
	t.Helper()
	dir = t.TempDir()
	path = filepath.Join(dir, "a.yaml")
	if err := os.WriteFile(path, []byte(dangerousDump), 0o600); err != nil {
		t.Fatal(err)
	}
	// an explicit config keeps the test away from phpc.toml files above the temp dir
	if err := os.WriteFile(filepath.Join(dir, "phpc.toml"), []byte("[cache]\nenabled = false\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	return dir, path
}

func TestCheckShort(t *testing.T) {
	dir, path := writeDump(t)
	out, err := execute(t, "check", "--config", filepath.Join(dir, "phpc.toml"), "--format", "short", path)
	if err != nil {
		t.Fatalf("check: %v\n%s", err, out)
	}
	want := "warning SEM3101 uninited.php:2:5 isset, !==, ===, is_array or similar function result may differ from PHP\n" +
		"note SEM3101 uninited.php:2:11 as expression: $x\n"
	if out != want {
		t.Fatalf("output mismatch\nwant:\n%s\ngot:\n%s", want, out)
	}
}

func TestCheckWarningsAsErrorsFails(t *testing.T) {
	dir, path := writeDump(t)
	out, err := execute(t, "check", "--config", filepath.Join(dir, "phpc.toml"), "--warnings-as-errors", "--color", "off", path)
	if !errors.Is(err, errDiagnostics) {
		t.Fatalf("expected errDiagnostics, got %v", err)
	}
	if !strings.Contains(out, "uninited.php:2:5: ERROR SEM3101:") || !strings.Contains(out, "1 error(s), 0 warning(s)") {
		t.Fatalf("unexpected output:\n%s", out)
	}
}

func TestCheckDisabledCheck(t *testing.T) {
	dir, path := writeDump(t)
	out, err := execute(t, "check", "--config", filepath.Join(dir, "phpc.toml"), "--checks", "is_array", "--format", "short", path)
	if err != nil || out != "" {
		t.Fatalf("expected silence, got err=%v out=%q", err, out)
	}
}

func TestCheckJSON(t *testing.T) {
	dir, path := writeDump(t)
	out, err := execute(t, "check", "--config", filepath.Join(dir, "phpc.toml"), "--format", "json", path)
	if err != nil {
		t.Fatal(err)
	}
	if !json.Valid([]byte(out)) || !strings.Contains(out, "SEM3101") {
		t.Fatalf("unexpected json:\n%s", out)
	}
}

func TestCheckBadConfig(t *testing.T) {
	dir, path := writeDump(t)
	cfg := filepath.Join(dir, "bad.toml")
	if err := os.WriteFile(cfg, []byte("[output]\nformat = \"xml\"\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := execute(t, "check", "--config", cfg, path); err == nil || errors.Is(err, errDiagnostics) {
		t.Fatalf("expected config error, got %v", err)
	}
}

func TestCheckBadUIMode(t *testing.T) {
	dir, path := writeDump(t)
	_, err := execute(t, "check", "--config", filepath.Join(dir, "phpc.toml"), "--ui", "fancy", path)
	if err == nil || !strings.Contains(err.Error(), "invalid --ui value") {
		t.Fatalf("expected ui error, got %v", err)
	}
}

func TestOpsListsCatalog(t *testing.T) {
	out, err := execute(t, "ops")
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(out, "meta_op") || !strings.Contains(out, "op_index") || !strings.Contains(out, "sons=array,key") {
		t.Fatalf("unexpected catalog:\n%s", out)
	}
}

func TestVersionJSON(t *testing.T) {
	out, err := execute(t, "version", "--format", "json")
	if err != nil {
		t.Fatal(err)
	}
	var p versionPayload
	if err := json.Unmarshal([]byte(out), &p); err != nil || p.Tool != "phpc" || p.Version == "" {
		t.Fatalf("bad payload %q: %v", out, err)
	}
}
