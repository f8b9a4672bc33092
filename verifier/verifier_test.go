package verifier

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
)

type fakeResolver struct {
	hosts map[string]string
	calls int32
}

func (f *fakeResolver) MXHost(ctx context.Context, domain string) string {
	atomic.AddInt32(&f.calls, 1)
	return f.hosts[domain]
}

type fakeReputation struct {
	listed map[string]bool
	calls  int32
}

func (f *fakeReputation) IsListed(ctx context.Context, domain string) bool {
	atomic.AddInt32(&f.calls, 1)
	return f.listed[domain]
}

type fakeProber struct {
	outcomes map[string]ProbeOutcome
	calls    int32
}

func (f *fakeProber) Probe(ctx context.Context, domain, mxHost string) ProbeOutcome {
	atomic.AddInt32(&f.calls, 1)
	if outcome, ok := f.outcomes[domain]; ok {
		return outcome
	}
	return RejectsUnknown
}

func newTestVerifier(policy Policy) (*Verifier, *fakeResolver, *fakeReputation, *fakeProber) {
	resolver := &fakeResolver{hosts: map[string]string{
		"example.com": "mx.example.com",
		"catchall.io": "mx.catchall.io",
		"flaky.net":   "mx.flaky.net",
		"listed.biz":  "mx.listed.biz",
	}}
	reputation := &fakeReputation{listed: map[string]bool{"listed.biz": true}}
	prober := &fakeProber{outcomes: map[string]ProbeOutcome{
		"catchall.io": AcceptsAll,
		"flaky.net":   ProbeUnknown,
	}}

	v := New(Config{Policy: policy, MaxConcurrency: 4}, nil, nil)
	v.resolver = resolver
	v.reputation = reputation
	v.prober = prober
	return v, resolver, reputation, prober
}

func networkCalls(r *fakeResolver, rep *fakeReputation, p *fakeProber) int32 {
	return atomic.LoadInt32(&r.calls) + atomic.LoadInt32(&rep.calls) + atomic.LoadInt32(&p.calls)
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"  User@Example.COM  ", "user@example.com"},
		{"user@example.com;", "user@example.com"},
		{"\tsales@Foo.ORG;\n", "sales@foo.org"},
	}
	for _, tt := range tests {
		if got := normalize(tt.in); got != tt.want {
			t.Errorf("normalize(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestClassifyInvalidSyntaxNoNetwork(t *testing.T) {
	v, resolver, reputation, prober := newTestVerifier(PolicyStrict)

	for _, email := range []string{"not-an-email", "", "   ", "user@", "@example.com", "a b@example.com"} {
		result := v.Classify(context.Background(), email)
		if result.Verdict != DoNotSend || result.Reason != ReasonInvalidSyntax {
			t.Errorf("Classify(%q) = (%s, %s), want (%s, %s)",
				email, result.Verdict, result.Reason, DoNotSend, ReasonInvalidSyntax)
		}
	}

	if n := networkCalls(resolver, reputation, prober); n != 0 {
		t.Fatalf("invalid addresses triggered %d network calls, want 0", n)
	}
}

func TestClassifyDisposableBeforeNetwork(t *testing.T) {
	v, resolver, reputation, prober := newTestVerifier(PolicyStrict)

	result := v.Classify(context.Background(), "user@mailinator.com")
	if result.Verdict != DoNotSend || result.Reason != ReasonDisposable {
		t.Fatalf("got (%s, %s), want (%s, %s)", result.Verdict, result.Reason, DoNotSend, ReasonDisposable)
	}
	if n := networkCalls(resolver, reputation, prober); n != 0 {
		t.Fatalf("disposable domain triggered %d network calls, want 0", n)
	}
}

func TestClassifyTypoSuggestion(t *testing.T) {
	v, resolver, reputation, prober := newTestVerifier(PolicyStrict)

	result := v.Classify(context.Background(), "user@gamil.com")
	if result.Verdict != DoNotSend || result.Reason != ReasonTypo {
		t.Fatalf("got (%s, %s), want (%s, %s)", result.Verdict, result.Reason, DoNotSend, ReasonTypo)
	}
	if !strings.Contains(result.Detail, "user@gmail.com") {
		t.Errorf("detail %q does not suggest user@gmail.com", result.Detail)
	}
	if n := networkCalls(resolver, reputation, prober); n != 0 {
		t.Fatalf("typo domain triggered %d network calls, want 0", n)
	}
}

func TestClassifyBlacklistedBeforeMX(t *testing.T) {
	v, resolver, _, prober := newTestVerifier(PolicyStrict)

	result := v.Classify(context.Background(), "user@listed.biz")
	if result.Verdict != DoNotSend || result.Reason != ReasonBlacklisted {
		t.Fatalf("got (%s, %s), want (%s, %s)", result.Verdict, result.Reason, DoNotSend, ReasonBlacklisted)
	}
	if resolver.calls != 0 || prober.calls != 0 {
		t.Errorf("blacklisted domain still resolved MX (%d) or probed (%d)", resolver.calls, prober.calls)
	}
}

func TestClassifyNoMX(t *testing.T) {
	v, _, _, prober := newTestVerifier(PolicyStrict)

	result := v.Classify(context.Background(), "user@no-exchanger.org")
	if result.Verdict != DoNotSend || result.Reason != ReasonNoMX {
		t.Fatalf("got (%s, %s), want (%s, %s)", result.Verdict, result.Reason, DoNotSend, ReasonNoMX)
	}
	if prober.calls != 0 {
		t.Errorf("domain without MX was probed %d times", prober.calls)
	}
}

func TestClassifyAccepted(t *testing.T) {
	v, _, _, _ := newTestVerifier(PolicyStrict)

	result := v.Classify(context.Background(), "user@example.com")
	if result.Verdict != OkayToSend || result.Reason != ReasonAccepted {
		t.Fatalf("got (%s, %s), want (%s, %s)", result.Verdict, result.Reason, OkayToSend, ReasonAccepted)
	}
}

func TestClassifyCatchAllPolicies(t *testing.T) {
	tests := []struct {
		name    string
		policy  Policy
		email   string
		verdict Verdict
		reason  Reason
	}{
		{"strict catch-all", PolicyStrict, "user@catchall.io", DoNotSend, ReasonCatchAll},
		{"lenient catch-all", PolicyLenient, "user@catchall.io", MaybeSend, ReasonCatchAll},
		{"strict unconfirmed", PolicyStrict, "user@flaky.net", DoNotSend, ReasonCatchAllUnconfirmed},
		{"lenient unconfirmed", PolicyLenient, "user@flaky.net", MaybeSend, ReasonCatchAllUnconfirmed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, _, _, _ := newTestVerifier(tt.policy)
			result := v.Classify(context.Background(), tt.email)
			if result.Verdict != tt.verdict || result.Reason != tt.reason {
				t.Fatalf("got (%s, %s), want (%s, %s)", result.Verdict, result.Reason, tt.verdict, tt.reason)
			}
		})
	}
}

func TestRoleAccountAnnotationOnly(t *testing.T) {
	v, _, _, _ := newTestVerifier(PolicyStrict)

	result := v.Classify(context.Background(), "sales@example.com")
	if !result.RoleAccount {
		t.Error("sales@ was not flagged as a role account")
	}
	if result.Verdict != OkayToSend || result.Reason != ReasonAccepted {
		t.Fatalf("role annotation changed the verdict: got (%s, %s)", result.Verdict, result.Reason)
	}
}

func TestClassifyIdempotentWithinRun(t *testing.T) {
	v, _, _, prober := newTestVerifier(PolicyStrict)

	first := v.Classify(context.Background(), "user@example.com")
	second := v.Classify(context.Background(), "user@example.com")
	if first != second {
		t.Fatalf("repeated classification diverged: %+v vs %+v", first, second)
	}
	if prober.calls != 1 {
		t.Errorf("probe ran %d times for one domain, want 1", prober.calls)
	}
}

func TestProbeCachedAcrossAddresses(t *testing.T) {
	v, resolver, reputation, prober := newTestVerifier(PolicyStrict)

	a := v.Classify(context.Background(), "alice@example.com")
	b := v.Classify(context.Background(), "bob@example.com")
	if a.Verdict != OkayToSend || b.Verdict != OkayToSend {
		t.Fatalf("unexpected verdicts %s / %s", a.Verdict, b.Verdict)
	}
	if prober.calls != 1 {
		t.Errorf("probe ran %d times for a shared domain, want 1", prober.calls)
	}
	if resolver.calls != 1 || reputation.calls != 1 {
		t.Errorf("MX lookups %d, blocklist lookups %d, want 1 each", resolver.calls, reputation.calls)
	}
}

func TestClassifyBatchPreservesOrder(t *testing.T) {
	base := []string{
		"alice@example.com", "not-an-email", "bob@example.com", "user@mailinator.com",
		"user@gamil.com", "carol@catchall.io", "dave@flaky.net", "erin@listed.biz",
		"frank@no-exchanger.org", "sales@example.com",
	}

	for _, workers := range []int{1, 3, 8, 32} {
		emails := make([]string, 0, len(base)*4)
		for i := 0; i < 4; i++ {
			emails = append(emails, base...)
		}
		rand.Shuffle(len(emails), func(i, j int) {
			emails[i], emails[j] = emails[j], emails[i]
		})

		v, _, _, _ := newTestVerifier(PolicyStrict)
		v.config.MaxConcurrency = workers

		results := v.ClassifyBatch(context.Background(), emails, nil)
		if len(results) != len(emails) {
			t.Fatalf("workers=%d: got %d results for %d inputs", workers, len(results), len(emails))
		}
		for i, email := range emails {
			if results[i].Email != normalize(email) {
				t.Fatalf("workers=%d: row %d holds %q, want %q", workers, i, results[i].Email, normalize(email))
			}
		}
	}
}

func TestClassifyBatchDeterministicPerDomain(t *testing.T) {
	emails := []string{
		"a@example.com", "b@example.com", "c@example.com",
		"d@catchall.io", "e@catchall.io", "f@catchall.io",
	}
	v, _, _, _ := newTestVerifier(PolicyStrict)
	v.config.MaxConcurrency = 6

	results := v.ClassifyBatch(context.Background(), emails, nil)
	for i := 0; i < 3; i++ {
		if results[i].Reason != ReasonAccepted {
			t.Errorf("example.com row %d got %s", i, results[i].Reason)
		}
	}
	for i := 3; i < 6; i++ {
		if results[i].Reason != ReasonCatchAll {
			t.Errorf("catchall.io row %d got %s", i, results[i].Reason)
		}
	}
}

func TestClassifyBatchProgress(t *testing.T) {
	emails := []string{"a@example.com", "not-an-email", "b@catchall.io", "c@no-exchanger.org"}
	v, _, _, _ := newTestVerifier(PolicyStrict)

	var (
		mu      sync.Mutex
		events  []BatchProgress
		maxDone int
	)
	v.ClassifyBatch(context.Background(), emails, func(p BatchProgress) {
		mu.Lock()
		defer mu.Unlock()
		events = append(events, p)
		if p.Done > maxDone {
			maxDone = p.Done
		}
	})

	if len(events) != len(emails) {
		t.Fatalf("got %d progress events, want %d", len(events), len(emails))
	}
	if maxDone != len(emails) {
		t.Errorf("progress topped out at %d/%d", maxDone, len(emails))
	}
	for _, p := range events {
		if p.Total != len(emails) {
			t.Errorf("progress event reports total %d, want %d", p.Total, len(emails))
		}
	}
}

func TestClassifyBatchProgressMonotonic(t *testing.T) {
	emails := make([]string, 200)
	for i := range emails {
		emails[i] = fmt.Sprintf("user%d@example.com", i)
	}

	v, _, _, _ := newTestVerifier(PolicyStrict)
	v.config.MaxConcurrency = 16

	// Callbacks are serialized by ClassifyBatch, so the slice needs no
	// extra locking here.
	var seen []int
	v.ClassifyBatch(context.Background(), emails, func(p BatchProgress) {
		seen = append(seen, p.Done)
	})

	if len(seen) != len(emails) {
		t.Fatalf("got %d progress events, want %d", len(seen), len(emails))
	}
	for i, done := range seen {
		if done != i+1 {
			t.Fatalf("progress event %d reports done=%d, want %d", i, done, i+1)
		}
	}
}

func TestClassifyBatchEmpty(t *testing.T) {
	v, _, _, _ := newTestVerifier(PolicyStrict)
	if results := v.ClassifyBatch(context.Background(), nil, nil); len(results) != 0 {
		t.Fatalf("got %d results for empty input", len(results))
	}
}
