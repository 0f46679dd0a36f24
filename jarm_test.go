package jarm

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/enetx/g"
	"github.com/enetx/http"
	"github.com/enetx/http/httptest"
)

func TestScannerAgainstLiveTLSServer(t *testing.T) {
	t.Parallel()

	ts := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		fmt.Fprint(w, "ok")
	}))
	defer ts.Close()

	host, portStr, err := net.SplitHostPort(strings.TrimPrefix(ts.URL, "https://"))
	if err != nil {
		t.Fatal(err)
	}

	port, _ := strconv.Atoi(portStr)

	scanner := NewScanner(g.String(host), uint16(port))
	if scanner.IsErr() {
		t.Fatal(scanner.Err())
	}

	digest := scanner.Ok().Timeout(5 * time.Second).Fingerprint()

	if len(digest) != 62 {
		t.Fatalf("digest length %d, want 62: %s", len(digest), digest)
	}

	// A live TLS stack answers at least the plain TLS 1.2 probes.
	if digest == allDeadDigest {
		t.Error("live server fingerprinted as dead")
	}
}

func TestScannerConcurrencyMatchesSequential(t *testing.T) {
	t.Parallel()

	ts := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer ts.Close()

	host, portStr, _ := net.SplitHostPort(strings.TrimPrefix(ts.URL, "https://"))
	port, _ := strconv.Atoi(portStr)

	sequential := NewScanner(g.String(host), uint16(port)).Unwrap().
		Timeout(5 * time.Second).
		Fingerprint()

	parallel := NewScanner(g.String(host), uint16(port)).Unwrap().
		Timeout(5 * time.Second).
		Concurrency(5).
		Fingerprint()

	if sequential != parallel {
		t.Errorf("parallel digest diverged:\nseq %s\npar %s", sequential, parallel)
	}
}

func TestScannerDeadTarget(t *testing.T) {
	t.Parallel()

	// Grab a port nothing listens on.
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}

	port := l.Addr().(*net.TCPAddr).Port
	l.Close()

	scanner := NewScanner("127.0.0.1", uint16(port))
	if scanner.IsErr() {
		t.Fatal(scanner.Err())
	}

	digest := scanner.Ok().Timeout(2 * time.Second).Fingerprint()
	if digest != allDeadDigest {
		t.Errorf("dead target digest\n got %s\nwant %s", digest, allDeadDigest)
	}
}

// stubTransport replays one canned reply for every probe.
type stubTransport struct{ reply g.Bytes }

func (s *stubTransport) Probe(context.Context, g.Bytes) g.Result[g.Bytes] {
	return g.Ok(s.reply)
}

func TestScannerWithStubTransport(t *testing.T) {
	t.Parallel()

	exts := []byte{
		0xff, 0x01, 0x00, 0x00,
		0x00, 0x00, 0x00, 0x00,
		0x00, 0x17, 0x00, 0x00,
		0x00, 0x23, 0x00, 0x00,
		0x00, 0x10, 0x00, 0x05, 0x00, 0x03, 0x02, 'h', '2',
		0x00, 0x2b, 0x00, 0x02, 0x03, 0x04,
	}
	reply := serverHello(32, [2]byte{0xc0, 0x2f}, [2]byte{0x03, 0x03}, exts, len(exts))

	scanner := NewScanner("127.0.0.1", 443)
	if scanner.IsErr() {
		t.Fatal(scanner.Err())
	}

	digest := scanner.Ok().Transport(&stubTransport{reply: reply}).Fingerprint()

	wantFuzzy := strings.Repeat("29d", 10)
	sum := sha256.Sum256([]byte(strings.Repeat("h2"+"ff01-0000-0017-0023-0010-002b", 10)))
	want := wantFuzzy + hex.EncodeToString(sum[:])[:32]

	if digest.Std() != want {
		t.Errorf("digest\n got %s\nwant %s", digest.Std(), want)
	}
}

func TestScannerContextCancelled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	scanner := NewScanner("127.0.0.1", 443)
	if scanner.IsErr() {
		t.Fatal(scanner.Err())
	}

	digest := scanner.Ok().Transport(&stubTransport{reply: make(g.Bytes, _readCap)}).FingerprintCtx(ctx)
	if digest != allDeadDigest {
		t.Errorf("cancelled scan digest\n got %s\nwant %s", digest, allDeadDigest)
	}
}

func TestProxyDial(t *testing.T) {
	t.Parallel()

	t.Run("unsupported scheme", func(t *testing.T) {
		t.Parallel()

		if _, err := proxyDial("http://127.0.0.1:8080", time.Second); err == nil {
			t.Error("expected an error for http proxies")
		}
	})

	t.Run("socks5 dialer construction", func(t *testing.T) {
		t.Parallel()

		dial, err := proxyDial("socks5://127.0.0.1:1080", time.Second)
		if err != nil {
			t.Fatal(err)
		}

		if dial == nil {
			t.Fatal("expected a dialer")
		}
	})

	t.Run("unusable proxy degrades to the dead digest", func(t *testing.T) {
		t.Parallel()

		scanner := NewScanner("127.0.0.1", 443)
		if scanner.IsErr() {
			t.Fatal(scanner.Err())
		}

		digest := scanner.Ok().
			Timeout(time.Second).
			Proxy("ftp://127.0.0.1:2121").
			Fingerprint()

		if digest != allDeadDigest {
			t.Errorf("digest\n got %s\nwant %s", digest, allDeadDigest)
		}
	})
}
