package guard

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/haukened/cd-security/internal/security/common/log"
	"github.com/haukened/cd-security/internal/security/domain"
)

const validDate = "2024-05-01 10:00:00"

func TestIsBlocked(t *testing.T) {
	tests := []struct {
		name         string
		login        string
		email        string
		registeredAt string
		list         domain.BlockList
		want         bool
	}{
		{
			name:  "username match is case-insensitive",
			login: "Alice", email: "alice@good.com", registeredAt: validDate,
			list: domain.BlockList{{Username: "alice", Domain: "x"}},
			want: true,
		},
		{
			name:  "domain match is case-insensitive",
			login: "dave", email: "dave@BAD.com", registeredAt: validDate,
			list: domain.BlockList{{Username: "evil", Domain: "bad.COM"}},
			want: true,
		},
		{
			name:  "domain is taken after the last at sign",
			login: "eve", email: "a@b@evil.com", registeredAt: validDate,
			list: domain.BlockList{{Username: "nobody", Domain: "evil.com"}},
			want: true,
		},
		{
			name:  "middle segment is not the domain",
			login: "eve", email: "a@b@evil.com", registeredAt: validDate,
			list: domain.BlockList{{Username: "nobody", Domain: "b@evil.com"}},
			want: false,
		},
		{
			name:  "missing email blocks with empty list",
			login: "bob", email: "", registeredAt: "2024-01-01 00:00:00",
			list: domain.BlockList{},
			want: true,
		},
		{
			name:  "missing email blocks with nil list",
			login: "bob", email: "", registeredAt: validDate,
			list: nil,
			want: true,
		},
		{
			name:  "sentinel registration date blocks",
			login: "bob", email: "bob@ok.com", registeredAt: domain.SentinelTimestamp,
			list: domain.BlockList{},
			want: true,
		},
		{
			name:  "valid non-matching candidate is allowed",
			login: "carol", email: "carol@good.com", registeredAt: validDate,
			list: domain.BlockList{{Username: "evil", Domain: "bad.com"}},
			want: false,
		},
		{
			name:  "email without at sign compares as a whole domain",
			login: "x", email: "evil.com", registeredAt: validDate,
			list: domain.BlockList{{Username: "y", Domain: "evil.com"}},
			want: true,
		},
		{
			name:  "email without at sign does not match an empty domain entry",
			login: "frank", email: "frank", registeredAt: validDate,
			list: domain.BlockList{{Username: "other", Domain: ""}},
			want: false,
		},
		{
			name:  "kelvin sign does not fold to k",
			login: "\u212Aevin", email: "kevin@ok.com", registeredAt: validDate,
			list: domain.BlockList{{Username: "kevin", Domain: "bad.com"}},
			want: false,
		},
		{
			name:  "non-ASCII letters are compared exactly",
			login: "ÄLICE", email: "alice@ok.com", registeredAt: validDate,
			list: domain.BlockList{{Username: "älice", Domain: "bad.com"}},
			want: false,
		},
		{
			name:  "ASCII folding still applies around non-ASCII letters",
			login: "ÄLICE", email: "alice@ok.com", registeredAt: validDate,
			list: domain.BlockList{{Username: "Älice", Domain: "bad.com"}},
			want: true,
		},
		{
			name:  "non-ASCII domain compared exactly",
			login: "eve", email: "eve@BÜCHER.de", registeredAt: validDate,
			list: domain.BlockList{{Username: "nobody", Domain: "bücher.de"}},
			want: false,
		},
		{
			name:  "empty login matches an empty username entry",
			login: "", email: "x@good.com", registeredAt: validDate,
			list: domain.BlockList{{Username: "", Domain: "bad.com"}},
			want: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsBlocked(tt.login, tt.email, tt.registeredAt, tt.list))
		})
	}
}

func TestEvaluate_Reasons(t *testing.T) {
	list := domain.BlockList{
		{Username: "first", Domain: "one.test"},
		{Username: "second", Domain: "two.test"},
	}
	logger := log.NewNoopLogger()

	d := Evaluate(domain.Candidate{Login: "SECOND", Email: "x@none.test", RegisteredAt: validDate}, list, logger)
	require.True(t, d.Blocked)
	assert.Equal(t, domain.ReasonUsername, d.Reason)
	require.NotNil(t, d.Matched)
	assert.Equal(t, "second", d.Matched.Username)

	d = Evaluate(domain.Candidate{Login: "x", Email: "x@TWO.test", RegisteredAt: validDate}, list, logger)
	assert.Equal(t, domain.ReasonEmailDomain, d.Reason)
	assert.Equal(t, "two.test", d.Matched.Domain)

	d = Evaluate(domain.Candidate{Login: "x", RegisteredAt: domain.SentinelTimestamp}, list, logger)
	assert.Equal(t, domain.ReasonMissingEmail, d.Reason, "missing email is checked before the date")
	assert.Nil(t, d.Matched)

	d = Evaluate(domain.Candidate{Login: "x", Email: "x@ok.test", RegisteredAt: domain.SentinelTimestamp}, list, logger)
	assert.Equal(t, domain.ReasonInvalidRegistration, d.Reason)

	d = Evaluate(domain.Candidate{Login: "x", Email: "x@ok.test", RegisteredAt: validDate}, list, logger)
	assert.Equal(t, domain.AllowDecision(), d)
}

func TestEvaluate_FirstEntryWinsWithinOnePass(t *testing.T) {
	// entry 0 matches on domain, entry 1 on username; the per-entry scan
	// must report the domain match from entry 0.
	list := domain.BlockList{
		{Username: "nobody", Domain: "bad.com"},
		{Username: "mallory", Domain: "other.test"},
	}
	d := Evaluate(domain.Candidate{Login: "mallory", Email: "m@bad.com", RegisteredAt: validDate}, list, log.NewNoopLogger())
	assert.Equal(t, domain.ReasonEmailDomain, d.Reason)
	assert.Equal(t, "nobody", d.Matched.Username)
}

func TestEvaluate_LogsDomainComparisons(t *testing.T) {
	rec := log.NewRecorder()
	list := domain.BlockList{{Username: "a", Domain: "a.test"}, {Username: "b", Domain: "b.test"}}
	Evaluate(domain.Candidate{Login: "c", Email: "c@c.test", RegisteredAt: validDate}, list, rec)

	n := 0
	for _, e := range rec.Entries() {
		if e.Msg == "Checking email domain" {
			n++
		}
	}
	assert.Equal(t, 2, n)
}
