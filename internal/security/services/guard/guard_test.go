package guard

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/haukened/cd-security/internal/security/common/clock"
	"github.com/haukened/cd-security/internal/security/common/log"
	"github.com/haukened/cd-security/internal/security/domain"
)

type MockUserDirectory struct {
	mock.Mock
}

func (m *MockUserDirectory) Lookup(ctx context.Context, id uint64) (domain.User, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(domain.User), args.Error(1)
}

func (m *MockUserDirectory) Delete(ctx context.Context, id uint64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

type staticSource struct {
	list  domain.BlockList
	calls int
}

func (s *staticSource) Fetch(context.Context) domain.BlockList {
	s.calls++
	return s.list
}

type memJournal struct {
	mu      sync.Mutex
	records []domain.DecisionRecord
}

func (j *memJournal) Append(rec domain.DecisionRecord) {
	j.mu.Lock()
	j.records = append(j.records, rec)
	j.mu.Unlock()
}

type countingRecorder struct {
	blocked, allowed, deleted int
}

func (r *countingRecorder) ObserveDecision(d domain.Decision, deleted bool) {
	if d.Blocked {
		r.blocked++
	} else {
		r.allowed++
	}
	if deleted {
		r.deleted++
	}
}

func newTestGuard(t *testing.T, users UserDirectory, src BlockListSource) (*Guard, *memJournal, *countingRecorder, *log.Recorder) {
	t.Helper()
	j := &memJournal{}
	r := &countingRecorder{}
	l := log.NewRecorder()
	g, err := New(Options{
		Source:   src,
		Users:    users,
		Journal:  j,
		Recorder: r,
		Clock:    &clock.MockClock{CurrentTime: time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)},
		Logger:   l,
	})
	require.NoError(t, err)
	return g, j, r, l
}

func TestNew_RequiresCollaborators(t *testing.T) {
	_, err := New(Options{Users: &MockUserDirectory{}})
	assert.Error(t, err)
	_, err = New(Options{Source: &staticSource{}})
	assert.Error(t, err)
}

func TestHandleRegistration_BlockedUserIsDeleted(t *testing.T) {
	ctx := context.Background()
	users := &MockUserDirectory{}
	users.On("Lookup", ctx, uint64(42)).Return(domain.User{
		ID: 42, Login: "spammer", Email: "s@Mail.Bad.co.uk", Registered: validDate,
	}, nil)
	users.On("Delete", ctx, uint64(42)).Return(nil)

	src := &staticSource{list: domain.BlockList{{Username: "x", Domain: "mail.bad.co.uk"}}}
	g, j, r, l := newTestGuard(t, users, src)

	rec, err := g.HandleRegistration(ctx, 42)
	require.NoError(t, err)

	assert.True(t, rec.Decision.Blocked)
	assert.Equal(t, domain.ReasonEmailDomain, rec.Decision.Reason)
	assert.True(t, rec.Deleted)
	assert.Equal(t, "bad.co.uk", rec.RegistrableDomain)
	assert.Equal(t, 1, rec.ListSize)
	assert.NotEmpty(t, rec.ID)
	assert.Equal(t, time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC), rec.At)

	users.AssertExpectations(t)
	require.Len(t, j.records, 1)
	assert.Equal(t, 1, r.deleted)
	_, ok := l.Find("User deleted")
	assert.True(t, ok)
}

func TestHandleRegistration_AllowedUserIsKept(t *testing.T) {
	ctx := context.Background()
	users := &MockUserDirectory{}
	users.On("Lookup", ctx, uint64(7)).Return(domain.User{
		ID: 7, Login: "carol", Email: "carol@good.com", Registered: validDate,
	}, nil)

	g, j, r, l := newTestGuard(t, users, &staticSource{list: domain.BlockList{{Username: "evil", Domain: "bad.com"}}})

	rec, err := g.HandleRegistration(ctx, 7)
	require.NoError(t, err)
	assert.False(t, rec.Decision.Blocked)
	assert.False(t, rec.Deleted)

	users.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
	assert.Len(t, j.records, 1)
	assert.Equal(t, 1, r.allowed)
	_, ok := l.Find("User not deleted")
	assert.True(t, ok)
}

func TestHandleRegistration_EmptyListStillBlocksMissingEmail(t *testing.T) {
	ctx := context.Background()
	users := &MockUserDirectory{}
	users.On("Lookup", ctx, uint64(3)).Return(domain.User{ID: 3, Login: "bob", Registered: validDate}, nil)
	users.On("Delete", ctx, uint64(3)).Return(nil)

	g, _, _, _ := newTestGuard(t, users, &staticSource{})

	rec, err := g.HandleRegistration(ctx, 3)
	require.NoError(t, err)
	assert.Equal(t, domain.ReasonMissingEmail, rec.Decision.Reason)
	assert.True(t, rec.Deleted)
	assert.Empty(t, rec.RegistrableDomain)
}

func TestHandleRegistration_LookupFailureSkipsFetch(t *testing.T) {
	ctx := context.Background()
	users := &MockUserDirectory{}
	users.On("Lookup", ctx, uint64(9)).Return(domain.User{}, ErrUserNotFound)

	src := &staticSource{}
	g, j, _, _ := newTestGuard(t, users, src)

	_, err := g.HandleRegistration(ctx, 9)
	assert.ErrorIs(t, err, ErrUserNotFound)
	assert.Zero(t, src.calls)
	assert.Empty(t, j.records)
}

func TestHandleRegistration_DeleteFailureIsReported(t *testing.T) {
	ctx := context.Background()
	boom := errors.New("host unavailable")
	users := &MockUserDirectory{}
	users.On("Lookup", ctx, uint64(5)).Return(domain.User{ID: 5, Login: "evil", Email: "e@x.test", Registered: validDate}, nil)
	users.On("Delete", ctx, uint64(5)).Return(boom)

	g, j, r, _ := newTestGuard(t, users, &staticSource{list: domain.BlockList{{Username: "EVIL", Domain: "-"}}})

	rec, err := g.HandleRegistration(ctx, 5)
	assert.ErrorIs(t, err, boom)
	assert.True(t, rec.Decision.Blocked)
	assert.False(t, rec.Deleted)
	require.Len(t, j.records, 1)
	assert.Equal(t, 1, r.blocked)
	assert.Zero(t, r.deleted)
}
