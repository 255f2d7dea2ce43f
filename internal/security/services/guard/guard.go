package guard

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/haukened/cd-security/internal/security/common/clock"
	"github.com/haukened/cd-security/internal/security/common/log"
	"github.com/haukened/cd-security/internal/security/common/utils"
	"github.com/haukened/cd-security/internal/security/domain"
)

const (
	errSourceRequired = "block list source is required"
	errUsersRequired  = "user directory is required"
	errLookup         = "lookup user %d: %w"
	errDelete         = "delete user %d: %w"
)

// Guard screens newly registered accounts against the remote block list.
type Guard struct {
	source   BlockListSource
	users    UserDirectory
	journal  Journal
	recorder Recorder
	clock    clock.Clock
	logger   log.Logger
}

// Options wires a Guard. Source and Users are required.
type Options struct {
	Source   BlockListSource
	Users    UserDirectory
	Journal  Journal
	Recorder Recorder
	Clock    clock.Clock
	Logger   log.Logger
}

// New builds a Guard.
func New(opts Options) (*Guard, error) {
	if opts.Source == nil {
		return nil, fmt.Errorf(errSourceRequired)
	}
	if opts.Users == nil {
		return nil, fmt.Errorf(errUsersRequired)
	}
	if opts.Clock == nil {
		opts.Clock = clock.RealClock{}
	}
	if opts.Logger == nil {
		opts.Logger = log.GetLogger()
	}
	return &Guard{
		source:   opts.Source,
		users:    opts.Users,
		journal:  opts.Journal,
		recorder: opts.Recorder,
		clock:    opts.Clock,
		logger:   opts.Logger,
	}, nil
}

// HandleRegistration is run once per user-registered event: look the user
// up, fetch the block list, evaluate, and delete the account when blocked.
// A lookup failure aborts before anything is fetched.
func (g *Guard) HandleRegistration(ctx context.Context, userID uint64) (domain.DecisionRecord, error) {
	user, err := g.users.Lookup(ctx, userID)
	if err != nil {
		g.logger.Error(map[string]any{"user_id": userID, "error": err.Error()}, "User lookup failed")
		return domain.DecisionRecord{}, fmt.Errorf(errLookup, userID, err)
	}

	list := g.source.Fetch(ctx)
	decision := Evaluate(user.Candidate(), list, g.logger)

	rec := domain.DecisionRecord{
		ID:                uuid.NewString(),
		UserID:            user.ID,
		Login:             user.Login,
		Email:             user.Email,
		RegistrableDomain: utils.RegistrableDomain(utils.EmailDomain(user.Email)),
		Decision:          decision,
		ListSize:          list.Len(),
		At:                g.clock.Now(),
	}

	var deleteErr error
	if decision.Blocked {
		if err := g.users.Delete(ctx, userID); err != nil {
			g.logger.Error(map[string]any{"user_id": userID, "login": user.Login, "error": err.Error()}, "User deletion failed")
			deleteErr = fmt.Errorf(errDelete, userID, err)
		} else {
			rec.Deleted = true
			g.logger.Info(map[string]any{"user_id": userID, "login": user.Login, "reason": decision.Reason.String()}, "User deleted")
		}
	} else {
		g.logger.Info(map[string]any{"user_id": userID, "login": user.Login}, "User not deleted")
	}

	if g.journal != nil {
		g.journal.Append(rec)
	}
	if g.recorder != nil {
		g.recorder.ObserveDecision(decision, rec.Deleted)
	}
	return rec, deleteErr
}
