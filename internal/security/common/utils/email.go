package utils

import (
	"strings"

	"golang.org/x/net/publicsuffix"
)

// EmailDomain returns the part of email after the last '@'. An address
// without '@' is returned whole.
func EmailDomain(email string) string {
	return email[strings.LastIndexByte(email, '@')+1:]
}

// RegistrableDomain reduces a mail domain to its eTLD+1, lowercased, so
// journal entries for mail.example.co.uk and example.co.uk group together.
// Names the public suffix list cannot handle are returned as-is.
func RegistrableDomain(domain string) string {
	domain = strings.ToLower(strings.TrimSpace(domain))
	for strings.HasSuffix(domain, ".") {
		domain = strings.TrimSuffix(domain, ".")
	}
	if domain == "" {
		return ""
	}
	apex, err := publicsuffix.EffectiveTLDPlusOne(domain)
	if err != nil {
		return domain
	}
	return apex
}
