package wizard

import (
	"context"
	"errors"
	"testing"
)

type stubLogSource struct {
	text  string
	err   error
	lines int
}

func (s *stubLogSource) Log(_ context.Context, lines int) (string, error) {
	s.lines = lines
	return s.text, s.err
}

func TestLogTailerSameTextTwiceUpdatesOnce(t *testing.T) {
	tailer := NewLogTailer(0)
	updates := 0
	for i := 0; i < 2; i++ {
		if _, ok := tailer.Apply("[INFO] step 1\\n[SUCCESS] done"); ok {
			updates++
		}
	}
	if updates != 1 {
		t.Fatalf("expected exactly one update, got %d", updates)
	}
}

func TestLogTailerErrorResetsFingerprint(t *testing.T) {
	tailer := NewLogTailer(50)
	src := &stubLogSource{text: "line"}
	if _, ok := tailer.Fetch(context.Background(), src); !ok {
		t.Fatalf("first fetch should update")
	}
	if src.lines != 50 {
		t.Fatalf("expected 50 lines requested, got %d", src.lines)
	}
	src.err = errors.New("offline")
	update, ok := tailer.Fetch(context.Background(), src)
	if !ok || update.Err == nil {
		t.Fatalf("expected error update, got %#v ok=%v", update, ok)
	}
	src.err = nil
	if _, ok := tailer.Fetch(context.Background(), src); !ok {
		t.Fatalf("fetch after error should render even when text is unchanged")
	}
}

func TestLogTailerEmptyText(t *testing.T) {
	tailer := NewLogTailer(0)
	update, ok := tailer.Apply("")
	if !ok || !update.Empty() {
		t.Fatalf("expected empty update, got %#v ok=%v", update, ok)
	}
	if tailer.Lines() != DefaultLogLines {
		t.Fatalf("expected default lines, got %d", tailer.Lines())
	}
}
