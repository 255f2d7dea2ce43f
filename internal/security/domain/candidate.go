package domain

// SentinelTimestamp is the zero registration date the host stores when the
// real value is missing or invalid.
const SentinelTimestamp = "0000-00-00 00:00:00"

// Candidate is the newly registered user under evaluation.
type Candidate struct {
	Login        string
	Email        string
	RegisteredAt string
}

// HasEmail reports whether an email address was supplied at all.
func (c Candidate) HasEmail() bool { return c.Email != "" }

// HasSentinelRegistration reports whether the registration timestamp is the
// zero sentinel.
func (c Candidate) HasSentinelRegistration() bool { return c.RegisteredAt == SentinelTimestamp }

// User is the host's record of an account.
type User struct {
	ID         uint64 `json:"id"`
	Login      string `json:"login"`
	Email      string `json:"email"`
	Registered string `json:"registered"`
}

// Candidate projects the user record onto the fields evaluation reads.
func (u User) Candidate() Candidate {
	return Candidate{Login: u.Login, Email: u.Email, RegisteredAt: u.Registered}
}
