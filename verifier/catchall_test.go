package verifier

import (
	"bufio"
	"context"
	"fmt"
	"net"
	"strings"
	"testing"
	"time"
)

// fakeExchanger speaks just enough SMTP for the probe: greeting, EHLO/HELO,
// MAIL, RCPT, QUIT. acceptAll controls the RCPT reply.
func fakeExchanger(t *testing.T, acceptAll bool) (string, int) {
	t.Helper()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	t.Cleanup(func() { ln.Close() })

	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			go serveProbeSession(conn, acceptAll)
		}
	}()

	addr := ln.Addr().(*net.TCPAddr)
	return "127.0.0.1", addr.Port
}

func serveProbeSession(conn net.Conn, acceptAll bool) {
	defer conn.Close()
	reader := bufio.NewReader(conn)
	reply := func(s string) { fmt.Fprintf(conn, "%s\r\n", s) }

	reply("220 fake.test ESMTP")
	for {
		line, err := reader.ReadString('\n')
		if err != nil {
			return
		}
		cmd := strings.ToUpper(strings.TrimSpace(line))
		switch {
		case strings.HasPrefix(cmd, "EHLO"):
			reply("250-fake.test")
			reply("250 OK")
		case strings.HasPrefix(cmd, "HELO"):
			reply("250 fake.test")
		case strings.HasPrefix(cmd, "MAIL"):
			reply("250 OK")
		case strings.HasPrefix(cmd, "RCPT"):
			if acceptAll {
				reply("250 OK")
			} else {
				reply("550 5.1.1 no such user")
			}
		case strings.HasPrefix(cmd, "QUIT"):
			reply("221 bye")
			return
		default:
			reply("502 command not implemented")
		}
	}
}

func TestProbeAcceptsAll(t *testing.T) {
	host, port := fakeExchanger(t, true)
	probe := NewCatchAllProbe("verify.test", port, 2*time.Second)

	if got := probe.Probe(context.Background(), "fake.test", host); got != AcceptsAll {
		t.Fatalf("Probe = %s, want %s", got, AcceptsAll)
	}
}

func TestProbeRejectsUnknown(t *testing.T) {
	host, port := fakeExchanger(t, false)
	probe := NewCatchAllProbe("verify.test", port, 2*time.Second)

	if got := probe.Probe(context.Background(), "fake.test", host); got != RejectsUnknown {
		t.Fatalf("Probe = %s, want %s", got, RejectsUnknown)
	}
}

func TestProbeConnectFailure(t *testing.T) {
	// Grab a free port and close it again so the dial is refused.
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	port := ln.Addr().(*net.TCPAddr).Port
	ln.Close()

	probe := NewCatchAllProbe("verify.test", port, 1*time.Second)
	if got := probe.Probe(context.Background(), "fake.test", "127.0.0.1"); got != ProbeUnknown {
		t.Fatalf("Probe = %s, want %s", got, ProbeUnknown)
	}
}

func TestProbeSilentServerTimesOut(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	t.Cleanup(func() { ln.Close() })
	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			// Hold the connection open without ever greeting.
			defer conn.Close()
		}
	}()

	port := ln.Addr().(*net.TCPAddr).Port
	probe := NewCatchAllProbe("verify.test", port, 300*time.Millisecond)

	start := time.Now()
	got := probe.Probe(context.Background(), "fake.test", "127.0.0.1")
	if got != ProbeUnknown {
		t.Fatalf("Probe = %s, want %s", got, ProbeUnknown)
	}
	if elapsed := time.Since(start); elapsed > 3*time.Second {
		t.Errorf("probe took %v, deadline did not bound the session", elapsed)
	}
}

func TestProbeEmptyHost(t *testing.T) {
	probe := NewCatchAllProbe("verify.test", 25, time.Second)
	if got := probe.Probe(context.Background(), "fake.test", ""); got != ProbeUnknown {
		t.Fatalf("Probe = %s, want %s", got, ProbeUnknown)
	}
}

func TestRandomLocalPart(t *testing.T) {
	seen := map[string]bool{}
	for i := 0; i < 32; i++ {
		local := randomLocalPart(probeLocalLength)
		if len(local) != probeLocalLength {
			t.Fatalf("local part %q has length %d, want %d", local, len(local), probeLocalLength)
		}
		for _, c := range local {
			if !strings.ContainsRune(probeAlphabet, c) {
				t.Fatalf("local part %q contains %q outside the alphabet", local, c)
			}
		}
		seen[local] = true
	}
	if len(seen) < 30 {
		t.Errorf("only %d distinct local parts out of 32, entropy looks broken", len(seen))
	}
}
