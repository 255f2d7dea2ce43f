package transport

import (
	"context"

	"github.com/haukened/cd-security/internal/security/domain"
)

// RegistrationHandler screens a newly registered user.
type RegistrationHandler interface {
	HandleRegistration(ctx context.Context, userID uint64) (domain.DecisionRecord, error)
}

// SettingsStore persists the "Enable Automatic Updates" flag.
type SettingsStore interface {
	AutoUpdate() (bool, error)
	SetAutoUpdate(enabled bool) error
}

// UpdateRunner runs an update check on demand.
type UpdateRunner interface {
	Run(ctx context.Context) domain.UpdateState
	Slug() string
}

// UpdateRegistry exposes the current update state.
type UpdateRegistry interface {
	Snapshot() domain.UpdateState
}

// DecisionJournal lists recent decisions.
type DecisionJournal interface {
	Recent(limit int) []domain.DecisionRecord
	Get(id string) (domain.DecisionRecord, bool)
}
