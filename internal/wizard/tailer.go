package wizard

import (
	"context"
	"sync"

	"stinstaller/internal/backend"
)

// LogSource is the part of the backend the tailer reads from.
type LogSource interface {
	Log(ctx context.Context, lines int) (string, error)
}

// LogFrom adapts a backend querier to a LogSource.
func LogFrom(q backend.Querier) LogSource {
	return querierLog{q: q}
}

type querierLog struct {
	q backend.Querier
}

func (s querierLog) Log(ctx context.Context, lines int) (string, error) {
	resp, err := s.q.Log(ctx, lines)
	if err != nil {
		return "", err
	}
	return resp.Log, nil
}

// LogTailer turns successive log snapshots into updates, suppressing
// snapshots whose fingerprint matches the last rendered one.
type LogTailer struct {
	lines int

	mu   sync.Mutex
	last LogFingerprint
	seen bool
}

func NewLogTailer(lines int) *LogTailer {
	if lines <= 0 {
		lines = DefaultLogLines
	}
	return &LogTailer{lines: lines}
}

func (t *LogTailer) Lines() int {
	return t.lines
}

// Apply returns the update for text and true, or false when text renders
// the same as the previous snapshot.
func (t *LogTailer) Apply(text string) (LogUpdate, bool) {
	fp := Fingerprint(text)
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.seen && fp == t.last {
		return LogUpdate{}, false
	}
	t.last = fp
	t.seen = true
	return LogUpdate{Lines: ParseLog(text)}, true
}

// Fail returns the error update for a failed fetch. The fingerprint is reset
// so the next successful fetch always renders.
func (t *LogTailer) Fail(err error) LogUpdate {
	t.mu.Lock()
	t.last = LogFingerprint{}
	t.seen = false
	t.mu.Unlock()
	return LogUpdate{Err: err}
}

// Fetch reads the log tail from src and applies it.
func (t *LogTailer) Fetch(ctx context.Context, src LogSource) (LogUpdate, bool) {
	text, err := src.Log(ctx, t.lines)
	if err != nil {
		return t.Fail(err), true
	}
	return t.Apply(text)
}
