package app

import (
	"fmt"
	"strings"
	"testing"

	"stinstaller/internal/wizard"
)

func logEvent(seq uint64, lines int) wizard.LogEvent {
	text := make([]string, lines)
	for i := range text {
		text[i] = fmt.Sprintf("[INFO] line %d", i)
	}
	return wizard.LogEvent{Seq: seq, Update: wizard.LogUpdate{Lines: wizard.ParseLog(strings.Join(text, "\n"))}}
}

func TestLogPaneKeepsOffsetWhenScrolledAway(t *testing.T) {
	pane := newLogPane(40, 5, 3)
	pane.Apply(logEvent(1, 50))
	pane.viewport.SetYOffset(10)

	pane.Apply(logEvent(2, 60))
	if got := pane.viewport.YOffset; got != 10 {
		t.Fatalf("expected offset 10 to be preserved, got %d", got)
	}
}

func TestLogPaneFollowsWhenNearBottom(t *testing.T) {
	pane := newLogPane(40, 5, 3)
	pane.Apply(logEvent(1, 50))
	if !pane.viewport.AtBottom() {
		t.Fatalf("first update should land at the bottom")
	}
	pane.viewport.SetYOffset(pane.viewport.YOffset - 2)

	pane.Apply(logEvent(2, 60))
	if got, want := pane.viewport.YOffset, 55; got != want {
		t.Fatalf("expected follow to offset %d, got %d", want, got)
	}
}

func TestLogPaneDropsOlderEvents(t *testing.T) {
	pane := newLogPane(40, 5, 3)
	pane.Apply(logEvent(5, 3))
	if pane.Apply(logEvent(4, 10)) {
		t.Fatalf("older event should be ignored")
	}
	if got := pane.viewport.TotalLineCount(); got != 3 {
		t.Fatalf("expected 3 lines, got %d", got)
	}
}

func TestRenderLogLinesErrorIndicator(t *testing.T) {
	out := renderLogLines(wizard.LogUpdate{Err: fmt.Errorf("offline")})
	if !strings.Contains(out, "Failed to load log") {
		t.Fatalf("expected error indicator, got %q", out)
	}
}
