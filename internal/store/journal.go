package store

import (
	"context"

	"stinstaller/internal/wizard"
)

// Journal records wizard progress into a Repository.
type Journal struct {
	repo Repository
}

func NewJournal(repo Repository) *Journal {
	return &Journal{repo: repo}
}

func (j *Journal) RecordPhase(ctx context.Context, record wizard.PhaseRecord) error {
	_, err := j.repo.PhaseEvents().Append(ctx, &PhaseEvent{
		SessionID: record.SessionID,
		Phase:     int(record.Phase),
		Status:    string(record.Status),
		At:        record.At,
	})
	return err
}

func (j *Journal) SaveConfig(ctx context.Context, cfg map[string]string) error {
	return j.repo.ConfigSnapshot().Save(ctx, cfg)
}

// LastConfig returns the last saved configuration, or nil.
func (j *Journal) LastConfig(ctx context.Context) (map[string]string, error) {
	snapshot, ok, err := j.repo.ConfigSnapshot().Load(ctx)
	if err != nil || !ok {
		return nil, err
	}
	return cloneValues(snapshot.Values), nil
}
