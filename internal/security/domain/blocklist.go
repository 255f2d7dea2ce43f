package domain

import "strings"

// BlockEntry is one row of the remote block list.
type BlockEntry struct {
	Username string `json:"username"`
	Domain   string `json:"domain"`
}

// NewBlockEntry builds an entry from raw CSV columns, trimming both.
func NewBlockEntry(username, domain string) BlockEntry {
	return BlockEntry{
		Username: strings.TrimSpace(username),
		Domain:   strings.TrimSpace(domain),
	}
}

// BlockList is the ordered set of entries fetched for a single registration.
// It is never cached; an empty list simply matches nothing.
type BlockList []BlockEntry

// Len returns the number of entries.
func (l BlockList) Len() int { return len(l) }
