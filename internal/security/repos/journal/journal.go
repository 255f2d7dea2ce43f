package journal

import (
	"sync/atomic"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/haukened/cd-security/internal/security/domain"
)

// Journal keeps the most recent decision records in a bounded LRU keyed by
// record id. Reads use Peek so recency always reflects append order.
type Journal struct {
	lru     *lru.Cache[string, domain.DecisionRecord]
	evicted atomic.Uint64
}

// New creates a journal holding at most size records.
func New(size int) (*Journal, error) {
	j := &Journal{}
	records, err := lru.NewWithEvict(size, func(string, domain.DecisionRecord) {
		j.evicted.Add(1)
	})
	if err != nil {
		return nil, err
	}
	j.lru = records
	return j, nil
}

// Append records a decision.
func (j *Journal) Append(rec domain.DecisionRecord) {
	j.lru.Add(rec.ID, rec)
}

// Get returns the record with the given id.
func (j *Journal) Get(id string) (domain.DecisionRecord, bool) {
	return j.lru.Peek(id)
}

// Recent returns up to limit records, newest first. limit <= 0 returns all.
func (j *Journal) Recent(limit int) []domain.DecisionRecord {
	keys := j.lru.Keys() // oldest to newest
	out := make([]domain.DecisionRecord, 0, len(keys))
	for i := len(keys) - 1; i >= 0; i-- {
		if limit > 0 && len(out) == limit {
			break
		}
		if rec, ok := j.lru.Peek(keys[i]); ok {
			out = append(out, rec)
		}
	}
	return out
}

// Len returns the number of records held.
func (j *Journal) Len() int { return j.lru.Len() }

// Evictions returns how many records have aged out.
func (j *Journal) Evictions() uint64 { return j.evicted.Load() }
