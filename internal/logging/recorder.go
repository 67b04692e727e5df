package logging

import "sync"

// Entry is one message captured by a Recorder.
type Entry struct {
	Level  Level
	Msg    string
	Fields []Field
}

func (e Entry) Field(key string) (any, bool) {
	for i := len(e.Fields) - 1; i >= 0; i-- {
		if e.Fields[i].Key == key {
			return e.Fields[i].Value, true
		}
	}
	return nil, false
}

// Recorder keeps every message in memory. It is used by tests that assert on
// swallowed errors.
type Recorder struct {
	mu      *sync.Mutex
	entries *[]Entry
	fields  []Field
}

func NewRecorder() *Recorder {
	return &Recorder{mu: &sync.Mutex{}, entries: &[]Entry{}}
}

func (r *Recorder) Debug(msg string, fields ...Field) { r.record(Debug, msg, fields) }
func (r *Recorder) Info(msg string, fields ...Field)  { r.record(Info, msg, fields) }
func (r *Recorder) Warn(msg string, fields ...Field)  { r.record(Warn, msg, fields) }
func (r *Recorder) Error(msg string, fields ...Field) { r.record(Error, msg, fields) }

func (r *Recorder) Enabled(Level) bool { return true }

func (r *Recorder) With(fields ...Field) Logger {
	return &Recorder{
		mu:      r.mu,
		entries: r.entries,
		fields:  append(append([]Field{}, r.fields...), fields...),
	}
}

func (r *Recorder) Entries() []Entry {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Entry(nil), (*r.entries)...)
}

func (r *Recorder) Count(level Level, msg string) int {
	n := 0
	for _, entry := range r.Entries() {
		if entry.Level == level && entry.Msg == msg {
			n++
		}
	}
	return n
}

func (r *Recorder) record(level Level, msg string, fields []Field) {
	all := append(append([]Field{}, r.fields...), fields...)
	r.mu.Lock()
	defer r.mu.Unlock()
	*r.entries = append(*r.entries, Entry{Level: level, Msg: msg, Fields: all})
}
