package trace

import (
	"bytes"
	"context"
	"strings"
	"testing"
)

func TestStreamTracerFiltersByLevel(t *testing.T) {
	var buf bytes.Buffer
	tr := NewStreamTracer(&buf, LevelPhase, FormatText)

	span := Begin(tr, ScopePass, "validate", 0)
	Point(tr, ScopeNode, "isset.dangerous", "$x", span.ID())
	span.WithExtra("sites", "3").End("done")

	out := buf.String()
	if !strings.Contains(out, "validate") || !strings.Contains(out, "sites=3") {
		t.Fatalf("pass events missing:\n%s", out)
	}
	if strings.Contains(out, "isset.dangerous") {
		t.Fatalf("node event leaked at phase level:\n%s", out)
	}
}

func TestRingTracerKeepsUnitEventsAtErrorLevel(t *testing.T) {
	ring := NewRingTracer(2, LevelError)
	for _, name := range []string{"a", "b", "c"} {
		Begin(ring, ScopeUnit, name, 0)
	}
	Point(ring, ScopeNode, "skipped", "", 0)

	events := ring.Snapshot()
	if len(events) != 2 || events[0].Name != "b" || events[1].Name != "c" {
		t.Fatalf("unexpected ring contents: %+v", events)
	}
}

func TestContextPropagation(t *testing.T) {
	if FromContext(context.Background()) != Nop {
		t.Fatalf("expected nop tracer by default")
	}
	ring := NewRingTracer(8, LevelDebug)
	ctx := WithTracer(context.Background(), ring)
	if FromContext(ctx) != Tracer(ring) {
		t.Fatalf("tracer not propagated")
	}
	span := Begin(ring, ScopeDriver, "check", 0)
	if CurrentSpan(WithSpan(ctx, span)) != span.ID() {
		t.Fatalf("span id not propagated")
	}
}

func TestParseLevel(t *testing.T) {
	if l, err := ParseLevel("DETAIL"); err != nil || l != LevelDetail {
		t.Fatalf("got %v %v", l, err)
	}
	if _, err := ParseLevel("loud"); err == nil {
		t.Fatalf("expected error")
	}
}

func TestNewBothStreamsAndKeeps(t *testing.T) {
	var buf bytes.Buffer
	tr, err := New(Config{Level: LevelPhase, Mode: ModeBoth, Output: &buf, RingSize: 4})
	if err != nil {
		t.Fatal(err)
	}
	Begin(tr, ScopeDriver, "check", 0).End("ok")
	if !strings.Contains(buf.String(), "check") {
		t.Fatalf("stream got nothing:\n%s", buf.String())
	}
	d, ok := tr.(Dumper)
	if !ok {
		t.Fatalf("%T cannot dump", tr)
	}
	var dump bytes.Buffer
	if err := d.Dump(&dump, FormatText); err != nil || !strings.Contains(dump.String(), "check") {
		t.Fatalf("dump = %q, %v", dump.String(), err)
	}
	if tr.Level() != LevelPhase || tr.Close() != nil {
		t.Fatal("fan-out level or close")
	}
}

func TestParseMode(t *testing.T) {
	if m, err := ParseMode("BOTH"); err != nil || m != ModeBoth || m.String() != "both" {
		t.Fatalf("got %v %v", m, err)
	}
	if _, err := ParseMode("disk"); err == nil {
		t.Fatal("expected error")
	}
}
