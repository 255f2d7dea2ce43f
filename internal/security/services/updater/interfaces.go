package updater

import (
	"context"

	"github.com/haukened/cd-security/internal/security/domain"
)

// ReleaseSource reads the published release metadata.
type ReleaseSource interface {
	Latest(ctx context.Context) (domain.Release, error)
	URL() string
}

// StateRegistry stores the host's update state between checks.
type StateRegistry interface {
	Snapshot() domain.UpdateState
	Store(st domain.UpdateState)
}

// Recorder receives update check outcomes for metrics.
type Recorder interface {
	ObserveUpdateCheck(outcome string)
}

// Check outcomes reported to the Recorder.
const (
	OutcomeSkipped   = "skipped"
	OutcomeFailed    = "failed"
	OutcomeCurrent   = "current"
	OutcomeAvailable = "available"
)
