package ui

import (
	"strings"
	"testing"

	"phpc/internal/driver"
)

func TestProgressModelTracksUnits(t *testing.T) {
	m := NewProgressModel("checking", []string{"a.yaml", "b.yaml"}, nil).(*progressModel)

	m.Update(eventMsg(driver.Event{File: "a.yaml", Stage: driver.StageValidate, Status: driver.StatusWorking}))
	m.Update(eventMsg(driver.Event{File: "b.yaml", Status: driver.StatusDone, Cached: true}))
	m.Update(eventMsg(driver.Event{File: "zzz.yaml", Status: driver.StatusError}))

	if got := m.items[0].status; got != "checking" {
		t.Fatalf("a.yaml status = %q", got)
	}
	if got := m.items[1].status; got != "cached" {
		t.Fatalf("b.yaml status = %q", got)
	}
	if m.finished() != 1 {
		t.Fatalf("finished = %d, want 1", m.finished())
	}
	view := m.View()
	if !strings.Contains(view, "a.yaml") || !strings.Contains(view, "(1/2)") {
		t.Fatalf("unexpected view:\n%s", view)
	}

	m.Update(doneMsg{})
	if !m.done || !strings.Contains(m.View(), "done: checking") {
		t.Fatalf("model did not finish:\n%s", m.View())
	}
}

func TestTruncate(t *testing.T) {
	if got := truncate("abcdef", 5); got != "ab..." {
		t.Fatalf("truncate = %q", got)
	}
	if got := truncate("日本語テキスト", 7); got != "日本..." {
		t.Fatalf("truncate wide = %q", got)
	}
	if got := truncate("abcdef", 3); got != "abc" {
		t.Fatalf("truncate narrow = %q", got)
	}
	if got := truncate("abc", 10); got != "abc" {
		t.Fatalf("truncate = %q", got)
	}
}
