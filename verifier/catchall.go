package verifier

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"net"
	"net/smtp"
	"net/textproto"
	"time"
)

// ProbeOutcome classifies what an SMTP probe learned about a domain.
type ProbeOutcome string

const (
	// ProbeNone marks a domain that has not been probed yet.
	ProbeNone ProbeOutcome = ""
	// AcceptsAll means the exchanger accepted a recipient that almost
	// certainly does not exist: the domain is a catch-all.
	AcceptsAll ProbeOutcome = "accepts_all"
	// RejectsUnknown means the exchanger filters per mailbox.
	RejectsUnknown ProbeOutcome = "rejects_unknown"
	// ProbeUnknown covers every failure: connect refused, timeout,
	// protocol error, 4xx replies. Never upgraded to a positive signal.
	ProbeUnknown ProbeOutcome = "unknown"
)

const probeLocalLength = 16

// CatchAllProbe opens an SMTP session against a domain's mail exchanger
// and issues RCPT TO for a randomly generated mailbox. The session stops
// after RCPT; no DATA command is ever sent.
type CatchAllProbe struct {
	heloDomain string
	port       int
	timeout    time.Duration
}

func NewCatchAllProbe(heloDomain string, port int, timeout time.Duration) *CatchAllProbe {
	return &CatchAllProbe{
		heloDomain: heloDomain,
		port:       port,
		timeout:    timeout,
	}
}

// Probe runs the catch-all test against mxHost for domain. Reply-code
// mapping: 2xx acceptance of the random mailbox means AcceptsAll, any 5xx
// means RejectsUnknown, everything else collapses to ProbeUnknown.
func (p *CatchAllProbe) Probe(ctx context.Context, domain, mxHost string) ProbeOutcome {
	if mxHost == "" {
		return ProbeUnknown
	}

	dialer := net.Dialer{Timeout: p.timeout}
	conn, err := dialer.DialContext(ctx, "tcp", fmt.Sprintf("%s:%d", mxHost, p.port))
	if err != nil {
		return ProbeUnknown
	}
	defer conn.Close()

	// One deadline covers the whole command exchange so a stalling server
	// cannot hold the probe open.
	conn.SetDeadline(time.Now().Add(p.timeout))

	client, err := smtp.NewClient(conn, mxHost)
	if err != nil {
		return ProbeUnknown
	}
	defer client.Close()

	if err := client.Hello(p.heloDomain); err != nil {
		return ProbeUnknown
	}
	if err := client.Mail("probe@" + domain); err != nil {
		return ProbeUnknown
	}

	err = client.Rcpt(randomLocalPart(probeLocalLength) + "@" + domain)
	defer client.Quit()
	if err == nil {
		return AcceptsAll
	}

	var protoErr *textproto.Error
	if errors.As(err, &protoErr) && protoErr.Code >= 500 && protoErr.Code < 600 {
		return RejectsUnknown
	}
	return ProbeUnknown
}

const probeAlphabet = "abcdefghijklmnopqrstuvwxyz0123456789"

func randomLocalPart(n int) string {
	b := make([]byte, n)
	for i := range b {
		b[i] = probeAlphabet[rand.Intn(len(probeAlphabet))]
	}
	return string(b)
}
