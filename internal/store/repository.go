package store

import (
	"context"
	"time"
)

const RepositoryBackendBbolt = "bbolt"

// Repository is the console's local journal.
type Repository interface {
	PhaseEvents() PhaseEventStore
	ConfigSnapshot() ConfigSnapshotStore
	Backend() string
	Close() error
}

// PhaseEvent is one recorded phase transition.
type PhaseEvent struct {
	ID        string    `json:"id" yaml:"id"`
	SessionID string    `json:"session_id" yaml:"session_id"`
	Phase     int       `json:"phase" yaml:"phase"`
	Status    string    `json:"status" yaml:"status"`
	At        time.Time `json:"at" yaml:"at"`
}

type PhaseEventStore interface {
	Append(ctx context.Context, event *PhaseEvent) (*PhaseEvent, error)
	// List returns events oldest first. A positive limit keeps only the most
	// recent events.
	List(ctx context.Context, limit int) ([]*PhaseEvent, error)
}

// ConfigSnapshot is the last configuration the backend accepted.
type ConfigSnapshot struct {
	Values  map[string]string `json:"values"`
	SavedAt time.Time         `json:"saved_at"`
}

type ConfigSnapshotStore interface {
	Load(ctx context.Context) (*ConfigSnapshot, bool, error)
	Save(ctx context.Context, values map[string]string) error
}

func clonePhaseEvent(event *PhaseEvent) *PhaseEvent {
	if event == nil {
		return nil
	}
	out := *event
	return &out
}

func cloneValues(in map[string]string) map[string]string {
	if in == nil {
		return nil
	}
	out := make(map[string]string, len(in))
	for key, value := range in {
		out[key] = value
	}
	return out
}
