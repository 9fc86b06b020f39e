package validate

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"golang.org/x/tools/txtar"

	"phpc/internal/ast"
	"phpc/internal/diag"
	"phpc/internal/dump"
	"phpc/internal/source"
	"phpc/internal/testkit"
	"phpc/internal/tinf"
)

func archiveFile(ar *txtar.Archive, name string) ([]byte, bool) {
	for _, f := range ar.Files {
		if f.Name == name {
			return f.Data, true
		}
	}
	return nil, false
}

func runArchive(t *testing.T, path string) (*dump.Unit, *diag.Bag, Stats) {
	t.Helper()
	ar, err := txtar.ParseFile(path)
	if err != nil {
		t.Fatalf("parse archive: %v", err)
	}
	doc, ok := archiveFile(ar, "dump.yaml")
	if !ok {
		t.Fatalf("%s: no dump.yaml", path)
	}
	var opts Options
	if checks, ok := archiveFile(ar, "checks"); ok {
		opts.Checks, err = tinf.ParseIssetFlags(strings.Fields(string(checks)))
		if err != nil {
			t.Fatalf("checks: %v", err)
		}
	}
	u, err := dump.Parse(source.NewFileSet(), filepath.Base(path), doc)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if err := testkit.CheckSpanNesting(u); err != nil {
		t.Fatalf("fixture: %v", err)
	}
	bag := diag.NewBag(0)
	st, err := Run(context.Background(), u, &diag.BagReporter{Bag: bag}, opts)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	return u, bag, st
}

func TestGolden(t *testing.T) {
	files, err := filepath.Glob(filepath.Join("testdata", "*.txtar"))
	if err != nil || len(files) == 0 {
		t.Fatalf("no fixtures: %v", err)
	}
	for _, path := range files {
		t.Run(strings.TrimSuffix(filepath.Base(path), ".txtar"), func(t *testing.T) {
			ar, err := txtar.ParseFile(path)
			if err != nil {
				t.Fatal(err)
			}
			want, _ := archiveFile(ar, "want")
			u, bag, _ := runArchive(t, path)
			got := diag.FormatGoldenDiagnostics(bag.Refs(), u.Files, true)
			if strings.TrimSpace(got) != strings.TrimSpace(string(want)) {
				t.Fatalf("diagnostics mismatch\nwant:\n%s\ngot:\n%s", want, got)
			}
		})
	}
}

func TestReportCarriesChain(t *testing.T) {
	_, bag, st := runArchive(t, filepath.Join("testdata", "call_chain.txtar"))
	if bag.Len() != 1 {
		t.Fatalf("expected 1 diagnostic, got %d", bag.Len())
	}
	d := bag.Items()[0]
	if d.Severity != diag.SevWarning || d.Code != diag.SemaDangerousIsset {
		t.Fatalf("unexpected diagnostic %s %s", d.Severity, d.Code.ID())
	}
	if len(d.Notes) != 3 {
		t.Fatalf("expected 3 notes, got %d", len(d.Notes))
	}
	for _, want := range []string{
		"of type float can't be null",
		"Chain of assignments:",
		"as expression: $a[0]\tat sample.php:2:25",
	} {
		if !strings.Contains(d.Message, want) {
			t.Fatalf("message lacks %q:\n%s", want, d.Message)
		}
	}
	if st.Functions != 2 || st.Sites != 1 || st.Reported != 1 || st.Detector.Reports != 1 {
		t.Fatalf("unexpected stats %+v", st)
	}
}

func TestMaskedSitesAreCounted(t *testing.T) {
	_, bag, st := runArchive(t, filepath.Join("testdata", "masked.txtar"))
	if bag.Len() != 0 || st.Masked != 1 || st.Detector.Queries != 0 {
		t.Fatalf("len=%d stats=%+v", bag.Len(), st)
	}
}

func TestFindSites(t *testing.T) {
	x := ast.Create(ast.OpVar)
	y := ast.Create(ast.OpVar)
	null := ast.Create(ast.OpNull)
	isset := ast.Create(ast.OpIsset, x)
	eq := ast.Create(ast.OpEq3, null, y)
	both := ast.Create(ast.OpNeq3, ast.Create(ast.OpNull), ast.Create(ast.OpNull))
	root := ast.Create(ast.OpSeq, isset, eq, both)

	sites := FindSites(root)
	if len(sites) != 2 {
		t.Fatalf("expected 2 sites, got %d", len(sites))
	}
	if sites[0].Vertex != isset || sites[0].Target != x || sites[0].Flags != tinf.IfiIsset {
		t.Fatalf("isset site = %+v", sites[0])
	}
	if sites[1].Vertex != eq || sites[1].Target != y {
		t.Fatalf("=== site = %+v", sites[1])
	}
}

func TestRunCancelled(t *testing.T) {
	ar, err := txtar.ParseFile(filepath.Join("testdata", "uninited.txtar"))
	if err != nil {
		t.Fatal(err)
	}
	doc, _ := archiveFile(ar, "dump.yaml")
	u, err := dump.Parse(source.NewFileSet(), "uninited.txtar", doc)
	if err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	bag := diag.NewBag(0)
	if _, err := Run(ctx, u, &diag.BagReporter{Bag: bag}, Options{}); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if bag.Len() != 0 {
		t.Fatalf("cancelled run reported %d diagnostics", bag.Len())
	}
}
