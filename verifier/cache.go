package verifier

import "sync"

type reputationState int

const (
	repUnchecked reputationState = iota
	repClean
	repListed
)

// DomainRecord memoizes per-domain network outcomes for the duration of a
// run. Zero values mean "not checked yet".
type DomainRecord struct {
	Reputation reputationState
	MXChecked  bool
	MXHost     string
	Probe      ProbeOutcome
}

// domainCache is the per-run verdict cache, keyed by lower-cased domain.
// Concurrent classifications may race to fill the same field; the value is
// recomputed at worst, and readers never observe a partially written
// record.
type domainCache struct {
	mu sync.RWMutex
	m  map[string]DomainRecord
}

func newDomainCache() *domainCache {
	return &domainCache{m: make(map[string]DomainRecord)}
}

func (c *domainCache) get(domain string) DomainRecord {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.m[domain]
}

// update applies fn to a copy of the record under the write lock and
// stores it back, so partial writes are never visible.
func (c *domainCache) update(domain string, fn func(*DomainRecord)) DomainRecord {
	c.mu.Lock()
	defer c.mu.Unlock()
	record := c.m[domain]
	fn(&record)
	c.m[domain] = record
	return record
}
