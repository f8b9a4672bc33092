package verifier

import (
	"sync"
	"testing"
)

func TestDomainCacheConcurrentUpdates(t *testing.T) {
	cache := newDomainCache()

	var wg sync.WaitGroup
	for i := 0; i < 64; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			cache.update("example.com", func(r *DomainRecord) {
				r.MXChecked = true
				r.MXHost = "mx.example.com"
			})
			if n%2 == 0 {
				cache.update("example.com", func(r *DomainRecord) {
					r.Probe = RejectsUnknown
				})
			}
			record := cache.get("example.com")
			// Never a half-written record: MXChecked implies the host.
			if record.MXChecked && record.MXHost == "" {
				t.Error("observed MXChecked without MXHost")
			}
		}(i)
	}
	wg.Wait()

	record := cache.get("example.com")
	if !record.MXChecked || record.MXHost != "mx.example.com" || record.Probe != RejectsUnknown {
		t.Fatalf("final record %+v not fully populated", record)
	}
}

func TestDomainCacheMissIsZero(t *testing.T) {
	cache := newDomainCache()
	record := cache.get("unknown.example")
	if record.Reputation != repUnchecked || record.MXChecked || record.Probe != ProbeNone {
		t.Fatalf("zero record expected for a miss, got %+v", record)
	}
}

func TestDefaultListsPopulated(t *testing.T) {
	lists := DefaultLists()
	if _, ok := lists.Disposable["mailinator.com"]; !ok {
		t.Error("built-in disposable set misses mailinator.com")
	}
	if _, ok := lists.Role["sales"]; !ok {
		t.Error("built-in role set misses sales")
	}
	if lists.Typos["gamil.com"] != "gmail.com" {
		t.Error("built-in typo map misses gamil.com correction")
	}
}
