package domain

import (
	"fmt"
	"strings"
	"time"
)

// DecisionReason records which rule produced a block.
type DecisionReason uint8

const (
	// ReasonNone means the candidate was allowed.
	ReasonNone DecisionReason = iota
	// ReasonUsername means the login matched a block list username.
	ReasonUsername
	// ReasonEmailDomain means the email domain matched a block list domain.
	ReasonEmailDomain
	// ReasonMissingEmail means no email address was supplied.
	ReasonMissingEmail
	// ReasonInvalidRegistration means the registration date was the sentinel.
	ReasonInvalidRegistration
)

// String returns a stable string representation of the reason.
func (r DecisionReason) String() string {
	switch r {
	case ReasonNone:
		return "none"
	case ReasonUsername:
		return "username"
	case ReasonEmailDomain:
		return "email_domain"
	case ReasonMissingEmail:
		return "missing_email"
	case ReasonInvalidRegistration:
		return "invalid_registration_date"
	default:
		return fmt.Sprintf("DecisionReason(%d)", r)
	}
}

// ParseDecisionReason converts a string into a DecisionReason (case-insensitive).
func ParseDecisionReason(s string) (DecisionReason, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "none":
		return ReasonNone, nil
	case "username":
		return ReasonUsername, nil
	case "email_domain":
		return ReasonEmailDomain, nil
	case "missing_email":
		return ReasonMissingEmail, nil
	case "invalid_registration_date":
		return ReasonInvalidRegistration, nil
	default:
		return 0, fmt.Errorf("unsupported DecisionReason: %q", s)
	}
}

// MarshalText lets reasons render as strings in JSON.
func (r DecisionReason) MarshalText() ([]byte, error) {
	return []byte(r.String()), nil
}

// UnmarshalText is the inverse of MarshalText.
func (r *DecisionReason) UnmarshalText(b []byte) error {
	v, err := ParseDecisionReason(string(b))
	if err != nil {
		return err
	}
	*r = v
	return nil
}

// Decision is the outcome of evaluating a candidate. Matched is set only for
// username and email-domain blocks.
type Decision struct {
	Blocked bool           `json:"blocked"`
	Reason  DecisionReason `json:"reason"`
	Matched *BlockEntry    `json:"matched,omitempty"`
}

// AllowDecision returns a not-blocked decision.
func AllowDecision() Decision { return Decision{Reason: ReasonNone} }

// BlockDecision returns a blocked decision for reason. entry may be nil.
func BlockDecision(reason DecisionReason, entry *BlockEntry) Decision {
	return Decision{Blocked: true, Reason: reason, Matched: entry}
}

// DecisionRecord is the audit trail kept for one handled registration.
type DecisionRecord struct {
	ID                string    `json:"id"`
	UserID            uint64    `json:"user_id"`
	Login             string    `json:"login"`
	Email             string    `json:"email"`
	RegistrableDomain string    `json:"registrable_domain,omitempty"`
	Decision          Decision  `json:"decision"`
	ListSize          int       `json:"list_size"`
	Deleted           bool      `json:"deleted"`
	At                time.Time `json:"at"`
}
