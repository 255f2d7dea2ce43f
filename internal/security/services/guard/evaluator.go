package guard

import (
	"github.com/haukened/cd-security/internal/security/common/log"
	"github.com/haukened/cd-security/internal/security/common/utils"
	"github.com/haukened/cd-security/internal/security/domain"
)

// IsBlocked reports whether the candidate must be removed.
func IsBlocked(login, email, registeredAt string, list domain.BlockList) bool {
	c := domain.Candidate{Login: login, Email: email, RegisteredAt: registeredAt}
	return Evaluate(c, list, log.NewNoopLogger()).Blocked
}

// Evaluate runs the block rules in order and stops at the first match:
//
//  1. per entry, login equals the entry username (ASCII case-insensitive)
//  2. per entry, when an email is present, the part after its last '@'
//     equals the entry domain (ASCII case-insensitive); an address without
//     '@' is compared whole
//  3. a missing email blocks
//  4. the sentinel registration date blocks
//
// An empty list still goes through rules 3 and 4.
func Evaluate(c domain.Candidate, list domain.BlockList, logger log.Logger) domain.Decision {
	for i := range list {
		entry := list[i]

		if utils.EqualFoldASCII(c.Login, entry.Username) {
			logger.Info(map[string]any{"login": c.Login}, "Blocked by username")
			return domain.BlockDecision(domain.ReasonUsername, &entry)
		}

		if c.HasEmail() {
			emailDomain := utils.EmailDomain(c.Email)
			logger.Debug(map[string]any{"email_domain": emailDomain, "blocked_domain": entry.Domain}, "Checking email domain")
			if utils.EqualFoldASCII(emailDomain, entry.Domain) {
				logger.Info(map[string]any{"email": c.Email}, "Blocked by email domain")
				return domain.BlockDecision(domain.ReasonEmailDomain, &entry)
			}
		}
	}

	if !c.HasEmail() {
		logger.Info(map[string]any{"login": c.Login}, "Blocked due to missing email")
		return domain.BlockDecision(domain.ReasonMissingEmail, nil)
	}

	if c.HasSentinelRegistration() {
		logger.Info(map[string]any{"login": c.Login}, "Blocked due to invalid registration date")
		return domain.BlockDecision(domain.ReasonInvalidRegistration, nil)
	}

	return domain.AllowDecision()
}
