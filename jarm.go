// Package jarm actively fingerprints TLS servers. It sends ten fixed
// ClientHello shapes to a target, observes how the remote stack picks
// cipher, version and extensions in each ServerHello, and reduces the
// observations into a 62-character hex digest that identifies the
// server's TLS implementation rather than its certificate.
package jarm

import (
	"context"
	"net"
	"strconv"
	"sync"
	"time"

	"github.com/enetx/g"
	"go.uber.org/zap"
	"golang.org/x/net/idna"
)

// Scanner probes one target. Construct with NewScanner, tune with the
// chainable setters, then call Fingerprint. A Scanner is safe to
// reuse; each call runs a fresh scan.
type Scanner struct {
	host      g.String // SNI host, verbatim
	addr      g.String // resolved ip:port
	timeout   time.Duration
	workers   int
	dial      dialFunc
	transport Transport
	log       *zap.Logger
}

// NewScanner resolves the target and returns a Scanner with default
// settings. Resolution is the only failure surfaced ahead of a scan.
// Non-ASCII hostnames are converted with IDNA before resolution and
// SNI; ASCII hosts and IP literals pass through untouched.
func NewScanner(host g.String, port uint16) g.Result[*Scanner] {
	for i := 0; i < len(host); i++ {
		if host[i] >= 0x80 {
			if ascii, err := idna.Lookup.ToASCII(host.Std()); err == nil && ascii != "" {
				host = g.String(ascii)
			}

			break
		}
	}

	target := net.JoinHostPort(host.Std(), strconv.Itoa(int(port)))

	addr, err := net.ResolveTCPAddr("tcp", target)
	if err != nil {
		return g.Err[*Scanner](&ErrResolve{Host: target, Err: err})
	}

	return g.Ok(&Scanner{
		host:    host,
		addr:    g.String(addr.String()),
		timeout: _probeTimeout,
		workers: 1,
		log:     zap.NewNop(),
	})
}

// Timeout sets the per-probe connect/write/read deadline.
func (s *Scanner) Timeout(d time.Duration) *Scanner {
	s.timeout = d
	return s
}

// Concurrency issues probes across up to n goroutines. Results keep
// their probe-table slots regardless of completion order, so the
// digest is unaffected.
func (s *Scanner) Concurrency(n int) *Scanner {
	if n > 0 {
		s.workers = n
	}

	return s
}

// Proxy routes probes through a socks5://, socks4:// or socks4a://
// proxy. A proxy that cannot be set up makes every probe fail, which
// degrades the scan to the all-dead digest rather than erroring.
func (s *Scanner) Proxy(addr g.String) *Scanner {
	dial, err := proxyDial(addr, s.timeout)
	if err != nil {
		s.log.Warn("jarm: proxy unusable, probes will fail", zap.String("proxy", addr.Std()), zap.Error(err))
		s.dial = func(context.Context, string, string) (net.Conn, error) { return nil, err }

		return s
	}

	s.dial = dial

	return s
}

// Transport replaces the probe transport wholesale. Mostly useful in
// tests and for callers with their own socket management.
func (s *Scanner) Transport(t Transport) *Scanner {
	s.transport = t
	return s
}

// Log attaches a logger for per-probe diagnostics. The scanner is
// silent without one.
func (s *Scanner) Log(l *zap.Logger) *Scanner {
	if l != nil {
		s.log = l
	}

	return s
}

// Fingerprint scans the target and returns its digest. The result is
// always 62 hex characters; a target that never answers yields the
// all-dead digest, not an error.
//
// A ServerHello whose extensions-block length has 0x0b as its high
// byte is read as malformed: that probe still contributes its cipher
// and version, but no ALPN or extension types.
func (s *Scanner) Fingerprint() g.String { return s.FingerprintCtx(context.Background()) }

// FingerprintCtx is Fingerprint with cancellation. Once ctx is done
// no further probes are issued; observations already collected keep
// their table slots and the digest is still produced.
func (s *Scanner) FingerprintCtx(ctx context.Context) g.String {
	transport := s.transport
	if transport == nil {
		transport = newNetTransport(s.addr.Std(), s.timeout, s.dial)
	}

	parts := make([]observation, len(probeTable))

	if s.workers > 1 {
		s.scanParallel(ctx, transport, parts)
	} else {
		s.scanSequential(ctx, transport, parts)
	}

	return reduce(parts)
}

func (s *Scanner) scanSequential(ctx context.Context, transport Transport, parts []observation) {
	for i, p := range probeTable {
		if ctx.Err() != nil {
			return
		}

		parts[i] = s.probeOne(ctx, transport, i, p)
	}
}

func (s *Scanner) scanParallel(ctx context.Context, transport Transport, parts []observation) {
	sem := make(chan struct{}, s.workers)

	var wg sync.WaitGroup
	for i, p := range probeTable {
		if ctx.Err() != nil {
			break
		}

		wg.Add(1)
		sem <- struct{}{}

		go func(i int, p probe) {
			defer wg.Done()
			defer func() { <-sem }()

			parts[i] = s.probeOne(ctx, transport, i, p)
		}(i, p)
	}

	wg.Wait()
}

func (s *Scanner) probeOne(ctx context.Context, transport Transport, i int, p probe) observation {
	resp := transport.Probe(ctx, buildClientHello(p, s.host))
	if resp.IsErr() {
		s.log.Debug("jarm: probe failed", zap.Int("probe", i+1), zap.Error(resp.Err()))
		return observation{}
	}

	obs := parseServerHello(resp.Ok())
	s.log.Debug("jarm: probe answered",
		zap.Int("probe", i+1),
		zap.Bool("rejected", obs.cipher.IsNone()),
	)

	return obs
}
