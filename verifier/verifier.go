// Package verifier classifies email addresses for deliverability risk
// without sending mail. It layers syntax validation, reference-list
// lookups, a DNS blocklist query, MX resolution and an SMTP catch-all
// probe, short-circuiting on the first disqualifying condition.
package verifier

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// Config carries the classifier knobs. Zero values fall back to
// DefaultConfig.
type Config struct {
	Policy         Policy
	MaxConcurrency int
	HELODomain     string
	SMTPPort       int
	SMTPTimeout    time.Duration
	DNSTimeout     time.Duration
	BlocklistZone  string
}

func DefaultConfig() Config {
	return Config{
		Policy:         PolicyStrict,
		MaxConcurrency: 10,
		HELODomain:     "verify.localhost",
		SMTPPort:       25,
		SMTPTimeout:    8 * time.Second,
		DNSTimeout:     4 * time.Second,
		BlocklistZone:  "dbl.spamhaus.org",
	}
}

// Seams so tests can swap the network-facing components for fakes.
type mxResolver interface {
	MXHost(ctx context.Context, domain string) string
}

type reputationChecker interface {
	IsListed(ctx context.Context, domain string) bool
}

type catchAllProber interface {
	Probe(ctx context.Context, domain, mxHost string) ProbeOutcome
}

// Verifier orchestrates one classification run. The embedded domain cache
// lives for the lifetime of the Verifier, so repeated addresses at the
// same domain reuse the probe outcome instead of re-contacting the server.
type Verifier struct {
	config     Config
	lists      ListProvider
	resolver   mxResolver
	reputation reputationChecker
	prober     catchAllProber
	cache      *domainCache
	logger     *logrus.Logger
}

// New builds a Verifier for one run. lists and logger may be nil; the
// built-in reference lists and the standard logrus logger are used then.
func New(cfg Config, lists ListProvider, logger *logrus.Logger) *Verifier {
	def := DefaultConfig()
	if cfg.Policy == "" {
		cfg.Policy = def.Policy
	}
	if cfg.MaxConcurrency <= 0 {
		cfg.MaxConcurrency = def.MaxConcurrency
	}
	if cfg.HELODomain == "" {
		cfg.HELODomain = def.HELODomain
	}
	if cfg.SMTPPort == 0 {
		cfg.SMTPPort = def.SMTPPort
	}
	if cfg.SMTPTimeout == 0 {
		cfg.SMTPTimeout = def.SMTPTimeout
	}
	if cfg.DNSTimeout == 0 {
		cfg.DNSTimeout = def.DNSTimeout
	}
	if cfg.BlocklistZone == "" {
		cfg.BlocklistZone = def.BlocklistZone
	}
	if lists == nil {
		lists = StaticLists{L: DefaultLists()}
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}

	return &Verifier{
		config:     cfg,
		lists:      lists,
		resolver:   NewResolver(cfg.DNSTimeout),
		reputation: NewReputationChecker(cfg.BlocklistZone, cfg.DNSTimeout),
		prober:     NewCatchAllProbe(cfg.HELODomain, cfg.SMTPPort, cfg.SMTPTimeout),
		cache:      newDomainCache(),
		logger:     logger,
	}
}

// Classify runs the full decision pipeline for one address. Every failure
// mode maps to a verdict and reason; Classify never returns an error and
// never panics on malformed input.
func (v *Verifier) Classify(ctx context.Context, email string) Result {
	email = normalize(email)
	result := Result{Email: email}

	parsed, err := parseAddress(email)
	if err != nil {
		result.Verdict = DoNotSend
		result.Reason = ReasonInvalidSyntax
		result.Detail = "address could not be parsed"
		return result
	}

	lists := v.lists.Lists()

	if right, ok := lists.Typos[parsed.domain]; ok {
		result.Verdict = DoNotSend
		result.Reason = ReasonTypo
		result.Detail = fmt.Sprintf("possible typo, did you mean %s@%s?", parsed.local, right)
		return result
	}

	if _, ok := lists.Disposable[parsed.domain]; ok {
		result.Verdict = DoNotSend
		result.Reason = ReasonDisposable
		result.Detail = "disposable or temporary domain"
		return result
	}

	// Annotation only: a role mailbox is worth flagging but is still a
	// deliverable address.
	if _, ok := lists.Role[parsed.local]; ok {
		result.RoleAccount = true
	}

	if v.listed(ctx, parsed.domain) {
		result.Verdict = DoNotSend
		result.Reason = ReasonBlacklisted
		result.Detail = "domain is listed on " + v.config.BlocklistZone
		return result
	}

	mxHost := v.mxHost(ctx, parsed.domain)
	if mxHost == "" {
		result.Verdict = DoNotSend
		result.Reason = ReasonNoMX
		result.Detail = "domain has no MX records"
		return result
	}

	switch v.probeDomain(ctx, parsed.domain, mxHost) {
	case AcceptsAll:
		result.Verdict = v.uncertainVerdict()
		result.Reason = ReasonCatchAll
		result.Detail = "server accepts any recipient, mailbox cannot be confirmed"
	case RejectsUnknown:
		result.Verdict = OkayToSend
		result.Reason = ReasonAccepted
		result.Detail = "mail exchanger filters unknown mailboxes"
	default:
		result.Verdict = v.uncertainVerdict()
		result.Reason = ReasonCatchAllUnconfirmed
		result.Detail = "probe failed, mailbox cannot be confirmed"
	}
	return result
}

// ClassifyBatch classifies every address with at most MaxConcurrency in
// flight. Output order matches input order regardless of completion order.
// onProgress, when non-nil, fires once per completed address; calls are
// serialized and Done increases by one each call.
func (v *Verifier) ClassifyBatch(ctx context.Context, emails []string, onProgress func(BatchProgress)) []Result {
	results := make([]Result, len(emails))
	if len(emails) == 0 {
		return results
	}

	workers := v.config.MaxConcurrency
	if workers > len(emails) {
		workers = len(emails)
	}

	type job struct {
		idx   int
		email string
	}
	jobs := make(chan job)

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		done int
	)

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := range jobs {
				res := v.Classify(ctx, j.email)
				results[j.idx] = res

				// The callback runs under the lock so consumers see Done
				// advance monotonically even with racing workers.
				mu.Lock()
				done++
				if onProgress != nil {
					onProgress(BatchProgress{Done: done, Total: len(emails), Result: res})
				}
				mu.Unlock()
			}
		}()
	}

	for i, email := range emails {
		jobs <- job{idx: i, email: email}
	}
	close(jobs)
	wg.Wait()

	return results
}

func (v *Verifier) uncertainVerdict() Verdict {
	if v.config.Policy == PolicyLenient {
		return MaybeSend
	}
	return DoNotSend
}

// listed consults the cache before querying the blocklist.
func (v *Verifier) listed(ctx context.Context, domain string) bool {
	if record := v.cache.get(domain); record.Reputation != repUnchecked {
		return record.Reputation == repListed
	}

	isListed := v.reputation.IsListed(ctx, domain)
	v.cache.update(domain, func(r *DomainRecord) {
		if isListed {
			r.Reputation = repListed
		} else {
			r.Reputation = repClean
		}
	})
	return isListed
}

// mxHost consults the cache before resolving; "" means no exchanger.
func (v *Verifier) mxHost(ctx context.Context, domain string) string {
	if record := v.cache.get(domain); record.MXChecked {
		return record.MXHost
	}

	host := v.resolver.MXHost(ctx, domain)
	v.cache.update(domain, func(r *DomainRecord) {
		r.MXChecked = true
		r.MXHost = host
	})
	return host
}

// probeDomain consults the cache before running the SMTP probe, so a
// domain is probed at most once per run outside of races.
func (v *Verifier) probeDomain(ctx context.Context, domain, mxHost string) ProbeOutcome {
	if record := v.cache.get(domain); record.Probe != ProbeNone {
		return record.Probe
	}

	outcome := v.prober.Probe(ctx, domain, mxHost)
	if outcome == ProbeUnknown {
		v.logger.WithFields(logrus.Fields{
			"domain":  domain,
			"mx_host": mxHost,
		}).Debug("catch-all probe inconclusive")
	}
	v.cache.update(domain, func(r *DomainRecord) {
		r.Probe = outcome
	})
	return outcome
}
