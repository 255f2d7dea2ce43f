package updater

import (
	"context"
	"fmt"
	"strings"

	"github.com/haukened/cd-security/internal/security/common/clock"
	"github.com/haukened/cd-security/internal/security/common/log"
	"github.com/haukened/cd-security/internal/security/domain"
)

// Checker compares the published release against the installed version and
// registers an update offer when the release is newer.
type Checker struct {
	source    ReleaseSource
	registry  StateRegistry
	recorder  Recorder
	slug      string
	installed string
	clock     clock.Clock
	logger    log.Logger
}

// Options wires a Checker. Source, Registry, Slug and Installed are required.
type Options struct {
	Source    ReleaseSource
	Registry  StateRegistry
	Recorder  Recorder
	Slug      string
	Installed string
	Clock     clock.Clock
	Logger    log.Logger
}

// NewChecker builds a Checker.
func NewChecker(opts Options) (*Checker, error) {
	switch {
	case opts.Source == nil:
		return nil, fmt.Errorf("release source is required")
	case opts.Registry == nil:
		return nil, fmt.Errorf("update registry is required")
	case opts.Slug == "":
		return nil, fmt.Errorf("plugin slug is required")
	case opts.Installed == "":
		return nil, fmt.Errorf("installed version is required")
	}
	if opts.Clock == nil {
		opts.Clock = clock.RealClock{}
	}
	if opts.Logger == nil {
		opts.Logger = log.GetLogger()
	}
	return &Checker{
		source:    opts.Source,
		registry:  opts.Registry,
		recorder:  opts.Recorder,
		slug:      opts.Slug,
		installed: opts.Installed,
		clock:     opts.Clock,
		logger:    opts.Logger,
	}, nil
}

// Slug returns the plugin slug this checker manages.
func (c *Checker) Slug() string { return c.slug }

// Check returns state with an offer for our slug added when a newer release
// is published. A state with nothing checked, or any fetch/decode failure,
// returns state unchanged.
func (c *Checker) Check(ctx context.Context, state domain.UpdateState) domain.UpdateState {
	if len(state.Checked) == 0 {
		c.observe(OutcomeSkipped)
		return state
	}

	rel, err := c.source.Latest(ctx)
	if err != nil {
		c.logger.Error(map[string]any{"url": c.source.URL(), "error": err.Error()}, "Failed to fetch update information")
		c.observe(OutcomeFailed)
		return state
	}

	remote := strings.TrimSpace(rel.Version)
	newer, err := isNewer(c.installed, remote)
	if err != nil {
		c.logger.Error(map[string]any{"error": err.Error()}, "Failed to decode update information")
		c.observe(OutcomeFailed)
		return state
	}
	if !newer {
		c.logger.Debug(map[string]any{"installed": c.installed, "remote": remote}, "Plugin is up to date")
		c.observe(OutcomeCurrent)
		return state
	}

	out := state.Clone()
	if out.Response == nil {
		out.Response = map[string]domain.UpdateOffer{}
	}
	out.Response[c.slug] = domain.UpdateOffer{
		Slug:       c.slug,
		NewVersion: remote,
		URL:        c.source.URL(),
		Package:    rel.DownloadURL,
		CheckedAt:  c.clock.Now(),
	}
	c.logger.Info(map[string]any{"installed": c.installed, "remote": remote, "package": rel.DownloadURL}, "Update available")
	c.observe(OutcomeAvailable)
	return out
}

// Run applies Check to the registry's current state and stores the result.
func (c *Checker) Run(ctx context.Context) domain.UpdateState {
	st := c.Check(ctx, c.registry.Snapshot())
	c.registry.Store(st)
	return st
}

func (c *Checker) observe(outcome string) {
	if c.recorder != nil {
		c.recorder.ObserveUpdateCheck(outcome)
	}
}
