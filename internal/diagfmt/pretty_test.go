package diagfmt

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"phpc/internal/diag"
	"phpc/internal/source"
)

func sampleBag(t *testing.T) (*diag.Bag, *source.FileSet) {
	t.Helper()
	fs := source.NewFileSet()
	fs.SetBaseDir("/home/user/project")
	content := []byte("<?php\nif (isset($a[$i])) {}\n")
	id := fs.AddVirtual("/home/user/project/src/test.php", content)

	bag := diag.NewBag(10)
	d := diag.NewWarning(diag.SemaDangerousIsset, source.Span{File: id, Start: 10, End: 23},
		"isset result may differ from PHP\n Chain of assignments:\n  as expression: $a[$i]")
	d = d.WithNote(source.Span{File: id, Start: 16, End: 22}, "as expression: $a[$i]\tat src/test.php:2:11")
	bag.Add(d)
	return bag, fs
}

// TestPrettyPathModes проверяет различные режимы форматирования путей
func TestPrettyPathModes(t *testing.T) {
	bag, fs := sampleBag(t)
	tests := []struct {
		name     string
		mode     PathMode
		contains string
	}{
		{"Relative path", PathModeRelative, "src/test.php:2:5: "},
		{"Basename only", PathModeBasename, "test.php:2:5: "},
		{"Absolute path", PathModeAbsolute, "/home/user/project/src/test.php:2:5"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			Pretty(&buf, bag, fs, PrettyOpts{PathMode: tt.mode})
			out := buf.String()
			if !strings.Contains(out, tt.contains) {
				t.Errorf("Expected output to contain %q, got:\n%s", tt.contains, out)
			}
			if !strings.Contains(out, "WARNING SEM3101: isset result may differ from PHP") {
				t.Errorf("Expected header line, got:\n%s", out)
			}
		})
	}
}

func TestPrettySnippetAndNotes(t *testing.T) {
	bag, fs := sampleBag(t)
	var buf bytes.Buffer
	Pretty(&buf, bag, fs, PrettyOpts{ShowNotes: true})
	out := buf.String()

	want := []string{
		"  Chain of assignments:\n",
		"   2 | if (isset($a[$i])) {}\n",
		"     |     ^~~~~~~~~~~~~\n",
		"  note: src/test.php:2:11: as expression: $a[$i] at src/test.php:2:11\n",
	}
	for _, w := range want {
		if !strings.Contains(out, w) {
			t.Errorf("missing %q in:\n%s", w, out)
		}
	}
	if strings.Contains(out, "\x1b[") {
		t.Errorf("colors leaked with Color=false:\n%q", out)
	}
}

func TestPrettyColor(t *testing.T) {
	bag, fs := sampleBag(t)
	var buf bytes.Buffer
	Pretty(&buf, bag, fs, PrettyOpts{Color: true})
	if !strings.Contains(buf.String(), "\x1b[") {
		t.Fatalf("expected ANSI colors:\n%q", buf.String())
	}
}

func TestPrettyWideRunes(t *testing.T) {
	fs := source.NewFileSet()
	id := fs.AddVirtual("w.php", []byte("$имя = $x;\n"))
	bag := diag.NewBag(0)
	// "$имя = " is 10 bytes and 7 cells wide.
	bag.Add(diag.NewWarning(diag.SemaDangerousIsset, source.Span{File: id, Start: 10, End: 12}, "m"))

	var buf bytes.Buffer
	Pretty(&buf, bag, fs, PrettyOpts{})
	if !strings.Contains(buf.String(), "     |        ^~\n") {
		t.Fatalf("caret misaligned:\n%s", buf.String())
	}
}

func TestJSONOutput(t *testing.T) {
	bag, fs := sampleBag(t)
	var buf bytes.Buffer
	if err := JSON(&buf, bag, fs, JSONOpts{IncludePositions: true, IncludeNotes: true, PathMode: PathModeRelative}); err != nil {
		t.Fatal(err)
	}
	var out DiagnosticsOutput
	if err := json.Unmarshal(buf.Bytes(), &out); err != nil {
		t.Fatalf("invalid json: %v\n%s", err, buf.String())
	}
	if out.Count != 1 || len(out.Diagnostics) != 1 {
		t.Fatalf("count = %d", out.Count)
	}
	d := out.Diagnostics[0]
	if d.Code != "SEM3101" || d.Severity != "WARNING" || d.Location.File != "src/test.php" {
		t.Fatalf("unexpected diagnostic: %+v", d)
	}
	if d.Location.StartLine != 2 || d.Location.StartCol != 5 || len(d.Notes) != 1 {
		t.Fatalf("positions/notes: %+v", d)
	}

	buf.Reset()
	if err := JSON(&buf, bag, fs, JSONOpts{Max: -1}); err != nil {
		t.Fatal(err)
	}
	if strings.Contains(buf.String(), "notes") || strings.Contains(buf.String(), "start_line") {
		t.Fatalf("notes/positions should be omitted:\n%s", buf.String())
	}
}
