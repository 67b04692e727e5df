package logging

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"
)

func TestLoggerWritesLogfmt(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, Info).(*logfmtLogger)
	l.now = func() time.Time { return time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC) }

	l.With(F("phase", 3)).Warn("status poll failed", Err(errors.New("connection refused")))

	got := buf.String()
	want := `ts=2024-01-02T03:04:05Z level=warn msg="status poll failed" phase=3 error="connection refused"` + "\n"
	if got != want {
		t.Fatalf("unexpected line:\n got %q\nwant %q", got, want)
	}
}

func TestLoggerFiltersBelowLevel(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, Warn)
	l.Info("ignored")
	l.Debug("ignored")
	if buf.Len() != 0 {
		t.Fatalf("expected no output, got %q", buf.String())
	}
	if l.Enabled(Info) || !l.Enabled(Error) {
		t.Fatalf("unexpected Enabled results")
	}
}

func TestParseLevel(t *testing.T) {
	for raw, want := range map[string]Level{"DEBUG": Debug, "warning": Warn, "error": Error, "": Info, "bogus": Info} {
		if got := ParseLevel(raw); got != want {
			t.Fatalf("ParseLevel(%q) = %v, want %v", raw, got, want)
		}
	}
}

func TestRecorderSharesEntriesAcrossWith(t *testing.T) {
	r := NewRecorder()
	r.With(F("action", "status")).Warn("poll failed")
	r.Info("other")

	if r.Count(Warn, "poll failed") != 1 {
		t.Fatalf("expected one warn entry, got %#v", r.Entries())
	}
	entry := r.Entries()[0]
	if value, ok := entry.Field("action"); !ok || value != "status" {
		t.Fatalf("expected action field, got %#v", entry.Fields)
	}
}

func TestQuoteIfNeeded(t *testing.T) {
	if got := quoteIfNeeded("a b"); !strings.HasPrefix(got, `"`) {
		t.Fatalf("expected quoted value, got %s", got)
	}
	if got := quoteIfNeeded("plain"); got != "plain" {
		t.Fatalf("unexpected quoting: %s", got)
	}
}
