package wizard

import (
	"context"
	"time"

	"stinstaller/internal/steps"
)

// PhaseRecord is one phase transition worth remembering across restarts.
type PhaseRecord struct {
	SessionID string
	Phase     steps.Phase
	Status    PhaseStatus
	At        time.Time
}

// Journal persists phase transitions and the last saved configuration.
// Writes are best effort; failures are logged and never block the wizard.
type Journal interface {
	RecordPhase(ctx context.Context, record PhaseRecord) error
	SaveConfig(ctx context.Context, cfg map[string]string) error
}
