package verifier

import (
	"context"
	"net"
	"strings"
	"time"
)

// mxLookuper is the slice of *net.Resolver the Resolver needs.
type mxLookuper interface {
	LookupMX(ctx context.Context, name string) ([]*net.MX, error)
}

// Resolver answers MX questions for a domain with a bounded timeout.
// Every resolution failure (NXDOMAIN, timeout, unreachable server) reads
// uniformly as "no mail exchanger"; transient DNS trouble therefore costs
// a false negative, never a hang.
type Resolver struct {
	lookup  mxLookuper
	timeout time.Duration
}

func NewResolver(timeout time.Duration) *Resolver {
	return &Resolver{lookup: &net.Resolver{}, timeout: timeout}
}

// MXHost returns the preferred (lowest-preference) mail exchanger for
// domain, or "" when the domain has none or resolution failed.
func (r *Resolver) MXHost(ctx context.Context, domain string) string {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	records, err := r.lookup.LookupMX(ctx, domain)
	if err != nil || len(records) == 0 {
		return ""
	}

	best := records[0]
	for _, record := range records[1:] {
		if record.Pref < best.Pref {
			best = record
		}
	}
	// A null MX ("." per RFC 7505) trims down to the empty string.
	return strings.TrimSuffix(best.Host, ".")
}
