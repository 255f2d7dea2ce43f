package updates

import (
	"sync"

	"github.com/haukened/cd-security/internal/security/domain"
)

// Registry holds the current update state: which plugins are installed at
// which version and which offers are pending. Snapshots are deep copies.
type Registry struct {
	mu    sync.RWMutex
	state domain.UpdateState
}

// New seeds the registry with the installed plugins.
func New(installed map[string]string) *Registry {
	st := domain.UpdateState{Checked: installed}.Clone()
	if st.Checked == nil {
		st.Checked = map[string]string{}
	}
	st.Response = map[string]domain.UpdateOffer{}
	return &Registry{state: st}
}

// Snapshot returns a copy of the current state.
func (r *Registry) Snapshot() domain.UpdateState {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.state.Clone()
}

// Store replaces the current state.
func (r *Registry) Store(st domain.UpdateState) {
	st = st.Clone()
	r.mu.Lock()
	r.state = st
	r.mu.Unlock()
}

// Offer returns the pending offer for slug, if any.
func (r *Registry) Offer(slug string) (domain.UpdateOffer, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	o, ok := r.state.Response[slug]
	return o, ok
}
