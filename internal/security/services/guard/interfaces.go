package guard

import (
	"context"
	"errors"

	"github.com/haukened/cd-security/internal/security/domain"
)

// ErrUserNotFound is returned by a UserDirectory when the id is unknown.
var ErrUserNotFound = errors.New("user not found")

// BlockListSource supplies a freshly fetched block list. Implementations
// report failures by returning an empty list.
type BlockListSource interface {
	Fetch(ctx context.Context) domain.BlockList
}

// UserDirectory is the host's account store.
type UserDirectory interface {
	Lookup(ctx context.Context, id uint64) (domain.User, error)
	Delete(ctx context.Context, id uint64) error
}

// Journal keeps recent decision records for administrators.
type Journal interface {
	Append(rec domain.DecisionRecord)
}

// Recorder receives decision outcomes for metrics.
type Recorder interface {
	ObserveDecision(d domain.Decision, deleted bool)
}
