package verifier

import (
	"context"
	"net"
	"time"
)

// ipLookuper is the slice of *net.Resolver the checker needs.
type ipLookuper interface {
	LookupIPAddr(ctx context.Context, host string) ([]net.IPAddr, error)
}

// ReputationChecker queries a DNS-based domain blocklist. A name under the
// blocklist zone that resolves means the domain is listed; NXDOMAIN or any
// network trouble reads as clean, so ambiguous conditions can only ever
// under-report, never produce a false "blacklisted".
type ReputationChecker struct {
	zone    string
	lookup  ipLookuper
	timeout time.Duration
}

func NewReputationChecker(zone string, timeout time.Duration) *ReputationChecker {
	return &ReputationChecker{
		zone:    zone,
		lookup:  &net.Resolver{},
		timeout: timeout,
	}
}

// IsListed reports whether domain appears on the blocklist zone.
func (rc *ReputationChecker) IsListed(ctx context.Context, domain string) bool {
	ctx, cancel := context.WithTimeout(ctx, rc.timeout)
	defer cancel()

	addrs, err := rc.lookup.LookupIPAddr(ctx, domain+"."+rc.zone)
	return err == nil && len(addrs) > 0
}
