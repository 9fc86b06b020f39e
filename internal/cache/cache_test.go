package cache

import (
	"path/filepath"
	"testing"

	"phpc/internal/diag"
	"phpc/internal/source"
	"phpc/internal/tinf"
)

func TestKeyDependsOnChecks(t *testing.T) {
	content := []byte("main: {op: op_null}")
	if Key("a.yaml", content, tinf.IfiAll) == Key("a.yaml", content, tinf.IfiIsset) {
		t.Fatal("check mask does not change the key")
	}
	if Key("a.yaml", content, tinf.IfiAll) != Key("a.yaml", append([]byte(nil), content...), tinf.IfiAll) {
		t.Fatal("key is not deterministic")
	}
}

func TestKeyDependsOnPath(t *testing.T) {
	content := []byte("main: {op: op_null}")
	if Key("a/x.yaml", content, tinf.IfiAll) == Key("b/x.yaml", content, tinf.IfiAll) {
		t.Fatal("same content under different paths shares a key")
	}
	// длина пути в ключе: "ab"+"c..." не совпадает с "a"+"bc..."
	if Key("ab", []byte("c"), tinf.IfiAll) == Key("a", []byte("bc"), tinf.IfiAll) {
		t.Fatal("path and content boundary is ambiguous")
	}
}

func TestPutGetRestore(t *testing.T) {
	c, err := Open(filepath.Join(t.TempDir(), "phpc"))
	if err != nil {
		t.Fatal(err)
	}

	fs := source.NewFileSet()
	fs.AddVirtual("other.php", []byte("<?php\n"))
	file := fs.AddVirtual("a.php", []byte("<?php\nisset($x);\n"))
	d := diag.NewWarning(diag.SemaDangerousIsset, source.Span{File: file, Start: 6, End: 15}, "w")
	d = d.WithNote(source.Span{File: file, Start: 12, End: 14}, "as expression: $x")
	d = d.WithNote(source.NoSpan, "nowhere")

	key := Key("a.yaml", []byte("dump"), tinf.IfiAll)
	entry := NewEntry(fs, file, []diag.Diagnostic{d})
	entry.Sites, entry.Reported = 1, 1
	if err := c.Put(key, entry); err != nil {
		t.Fatalf("put: %v", err)
	}

	got, ok, err := c.Get(key)
	if err != nil || !ok {
		t.Fatalf("get: ok=%v err=%v", ok, err)
	}
	if got.File != "a.php" || got.Sites != 1 || len(got.Diagnostics) != 1 {
		t.Fatalf("unexpected entry %+v", got)
	}

	fresh := source.NewFileSet()
	id, diags := got.Restore(fresh)
	if fresh.Get(id).Path != "a.php" || string(fresh.Get(id).Content) != "<?php\nisset($x);\n" {
		t.Fatalf("file not restored")
	}
	r := diags[0]
	if r.Primary != (source.Span{File: id, Start: 6, End: 15}) {
		t.Fatalf("primary = %+v", r.Primary)
	}
	if r.Notes[0].Span.File != id || r.Notes[1].Span != source.NoSpan {
		t.Fatalf("notes = %+v", r.Notes)
	}
	// the stored entry keeps its own copy
	if d.Primary.File != file {
		t.Fatalf("input diagnostic modified")
	}
}

func TestMissAndDropAll(t *testing.T) {
	c, err := Open(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	key := Key("x.yaml", []byte("x"), tinf.IfiAll)
	if _, ok, err := c.Get(key); ok || err != nil {
		t.Fatalf("expected miss, got ok=%v err=%v", ok, err)
	}
	if err := c.Put(key, &Entry{Schema: schemaVersion, File: "x.php"}); err != nil {
		t.Fatal(err)
	}
	if err := c.DropAll(); err != nil {
		t.Fatal(err)
	}
	if _, ok, _ := c.Get(key); ok {
		t.Fatal("entry survived DropAll")
	}
	if err := c.Put(key, &Entry{Schema: schemaVersion}); err != nil {
		t.Fatalf("put after drop: %v", err)
	}
}

func TestNilDisk(t *testing.T) {
	var c *Disk
	if err := c.Put(Digest{}, &Entry{}); err != nil {
		t.Fatal(err)
	}
	if _, ok, err := c.Get(Digest{}); ok || err != nil {
		t.Fatal("nil cache must miss")
	}
}
