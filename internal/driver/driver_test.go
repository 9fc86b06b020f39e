package driver

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"phpc/internal/cache"
	"phpc/internal/diag"
	"phpc/internal/observ"
)

const issetDump = `file: uninited.php
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

const brokenDump = "main: {op: op_seq, children: [{op: op_goto}]}\n"

func writeDumps(t *testing.T, docs map[string]string) (string, []string) {
	t.Helper()
	dir := t.TempDir()
	var paths []string
	for _, name := range []string{"a.yaml", "b.yaml", "c.yaml"} {
		doc, ok := docs[name]
		if !ok {
			continue
		}
		p := filepath.Join(dir, name)
		if err := os.WriteFile(p, []byte(doc), 0o600); err != nil {
			t.Fatal(err)
		}
		paths = append(paths, p)
	}
	return dir, paths
}

func golden(res *Result) string {
	return diag.FormatGoldenDiagnostics(res.Bag.Refs(), res.Files, false)
}

func TestCheckMergesUnits(t *testing.T) {
	dir, paths := writeDumps(t, map[string]string{"a.yaml": issetDump, "b.yaml": brokenDump})
	res, err := Check(context.Background(), paths, Options{Jobs: 2, BaseDir: dir})
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	if len(res.Units) != 2 || res.Units[0].Path != paths[0] || res.Units[1].Path != paths[1] {
		t.Fatalf("units out of order: %+v", res.Units)
	}
	if res.Units[0].Stats.Reported != 1 {
		t.Fatalf("stats = %+v", res.Units[0].Stats)
	}
	// golden output is ordered by path
	want := "error DMP2002 b.yaml:1:1 " + paths[1] + ": main.children[0]: unknown operation \"op_goto\"\n" +
		"warning SEM3101 uninited.php:2:5 isset, !==, ===, is_array or similar function result may differ from PHP"
	if got := golden(res); got != want {
		t.Fatalf("diagnostics mismatch\nwant:\n%s\ngot:\n%s", want, got)
	}
}

func TestCheckPromoteAndDrop(t *testing.T) {
	_, paths := writeDumps(t, map[string]string{"a.yaml": issetDump})

	res, err := Check(context.Background(), paths, Options{WarningsAsErrors: true})
	if err != nil {
		t.Fatal(err)
	}
	if !res.Bag.HasErrors() || res.Bag.Items()[0].Code != diag.SemaDangerousIsset {
		t.Fatalf("warning not promoted: %+v", res.Bag.Items())
	}

	res, err = Check(context.Background(), paths, Options{NoWarnings: true})
	if err != nil {
		t.Fatal(err)
	}
	if res.Bag.Len() != 0 {
		t.Fatalf("warnings not dropped: %+v", res.Bag.Items())
	}
}

func TestCheckUsesCache(t *testing.T) {
	dir, paths := writeDumps(t, map[string]string{"a.yaml": issetDump})
	c, err := cache.Open(filepath.Join(dir, "cache"))
	if err != nil {
		t.Fatal(err)
	}
	opts := Options{Cache: c, BaseDir: dir}

	first, err := Check(context.Background(), paths, opts)
	if err != nil {
		t.Fatal(err)
	}
	if first.Units[0].Cached {
		t.Fatal("first run cannot be a cache hit")
	}
	second, err := Check(context.Background(), paths, opts)
	if err != nil {
		t.Fatal(err)
	}
	if !second.Units[0].Cached || second.Units[0].Stats.Reported != 1 {
		t.Fatalf("expected cache hit, got %+v", second.Units[0])
	}
	if golden(first) != golden(second) || second.Bag.Items()[0].Notes == nil {
		t.Fatalf("cached result differs:\n%s\n---\n%s", golden(first), golden(second))
	}

	// promotion applies to cached results too
	opts.WarningsAsErrors = true
	third, err := Check(context.Background(), paths, opts)
	if err != nil {
		t.Fatal(err)
	}
	if !third.Units[0].Cached || !third.Bag.HasErrors() {
		t.Fatalf("cached warning not promoted")
	}
}

func TestCheckCacheKeyedByPath(t *testing.T) {
	dir := t.TempDir()
	anon := strings.TrimPrefix(issetDump, "file: uninited.php\n")
	var paths []string
	for _, sub := range []string{"one", "two"} {
		p := filepath.Join(dir, sub, "x.yaml")
		if err := os.MkdirAll(filepath.Dir(p), 0o750); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(p, []byte(anon), 0o600); err != nil {
			t.Fatal(err)
		}
		paths = append(paths, p)
	}
	c, err := cache.Open(filepath.Join(dir, "cache"))
	if err != nil {
		t.Fatal(err)
	}
	opts := Options{Cache: c, BaseDir: dir}
	if _, err := Check(context.Background(), paths[:1], opts); err != nil {
		t.Fatal(err)
	}
	res, err := Check(context.Background(), paths[1:], opts)
	if err != nil {
		t.Fatal(err)
	}
	u := res.Units[0]
	if u.Cached {
		t.Fatal("identical content under another path hit the cache")
	}
	if got := res.Files.Get(u.File).Path; got != filepath.ToSlash(paths[1]) {
		t.Fatalf("diagnostics point at %q, want %q", got, paths[1])
	}
}

func TestCheckLimitAndTimings(t *testing.T) {
	_, paths := writeDumps(t, map[string]string{"a.yaml": issetDump, "b.yaml": issetDump, "c.yaml": brokenDump})
	res, err := Check(context.Background(), paths, Options{MaxDiagnostics: 2, Timer: observ.NewTimer(), Timings: true})
	if err != nil {
		t.Fatal(err)
	}
	items := res.Bag.Items()
	if len(items) != 3 || res.Bag.Dropped() != 1 {
		t.Fatalf("len=%d dropped=%d", len(items), res.Bag.Dropped())
	}
	last := items[len(items)-1]
	if last.Code != diag.ObsTimings || !strings.Contains(last.Notes[0].Msg, `"phases"`) {
		t.Fatalf("timings entry missing: %+v", last)
	}
}

type recordSink struct {
	mu     sync.Mutex
	events []Event
}

func (s *recordSink) OnEvent(ev Event) {
	s.mu.Lock()
	s.events = append(s.events, ev)
	s.mu.Unlock()
}

func TestCheckReportsProgress(t *testing.T) {
	dir, paths := writeDumps(t, map[string]string{"a.yaml": issetDump, "b.yaml": brokenDump})
	sink := &recordSink{}
	if _, err := Check(context.Background(), paths, Options{Jobs: 1, BaseDir: dir, Progress: sink}); err != nil {
		t.Fatalf("check: %v", err)
	}
	final := map[string]Status{}
	queued := 0
	for _, ev := range sink.events {
		switch ev.Status {
		case StatusQueued:
			queued++
		case StatusDone, StatusError:
			final[ev.File] = ev.Status
		}
	}
	if queued != 2 {
		t.Fatalf("queued events = %d, want 2", queued)
	}
	if final[paths[0]] != StatusDone || final[paths[1]] != StatusError {
		t.Fatalf("final statuses = %v", final)
	}
}

func TestCheckMissingFile(t *testing.T) {
	res, err := Check(context.Background(), []string{filepath.Join(t.TempDir(), "nope.yaml")}, Options{})
	if err != nil {
		t.Fatal(err)
	}
	if res.Bag.Len() != 1 || res.Bag.Items()[0].Code != diag.IOLoadFileError {
		t.Fatalf("unexpected %+v", res.Bag.Items())
	}
}

func TestCheckCancelled(t *testing.T) {
	_, paths := writeDumps(t, map[string]string{"a.yaml": issetDump})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := Check(ctx, paths, Options{}); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestLoadErrorCode(t *testing.T) {
	if got := loadErrorCode(errors.New("other")); got != diag.DmpBadYAML {
		t.Fatalf("fallback = %v", got)
	}
}
