package jarm

import (
	"context"
	"net"
	"net/url"
	"time"

	"github.com/enetx/g"
	"github.com/wzshiming/socks5"
	"golang.org/x/net/proxy"

	_ "github.com/enetx/jarm/pkg/socks4" // registers socks4:// and socks4a:// with x/net/proxy
)

// Transport delivers one probe payload to the target and returns the
// opening bytes of the reply, zero-padded to the read cap. A failed
// delivery is an error result; the scanner folds it into an empty
// observation and keeps going.
type Transport interface {
	Probe(ctx context.Context, payload g.Bytes) g.Result[g.Bytes]
}

// dialFunc matches net.Dialer.DialContext and the proxy dialers.
type dialFunc func(ctx context.Context, network, addr string) (net.Conn, error)

// netTransport is the default Transport: one TCP connection per
// probe, a single capped read, matching the reference scanner's
// read contract.
type netTransport struct {
	addr    string
	timeout time.Duration
	dial    dialFunc
}

func newNetTransport(addr string, timeout time.Duration, dial dialFunc) *netTransport {
	if dial == nil {
		d := &net.Dialer{Timeout: timeout}
		dial = d.DialContext
	}

	return &netTransport{addr: addr, timeout: timeout, dial: dial}
}

func (t *netTransport) Probe(ctx context.Context, payload g.Bytes) g.Result[g.Bytes] {
	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()

	conn, err := t.dial(ctx, "tcp", t.addr)
	if err != nil {
		return g.Err[g.Bytes](err)
	}
	defer conn.Close()

	deadline := time.Now().Add(t.timeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}

	_ = conn.SetDeadline(deadline)

	if _, err := conn.Write(payload); err != nil {
		return g.Err[g.Bytes](err)
	}

	// One read, like the reference: the first segment either carries
	// the ServerHello or the probe is written off.
	buf := make([]byte, _readCap)
	if _, err := conn.Read(buf); err != nil {
		return g.Err[g.Bytes](err)
	}

	return g.Ok(g.Bytes(buf))
}

// proxyDial builds a dialer that routes probes through the given
// proxy URL. socks5 goes through wzshiming/socks5; socks4 and socks4a
// go through the x/net proxy registry.
func proxyDial(addr g.String, timeout time.Duration) (dialFunc, error) {
	u, err := url.Parse(addr.Std())
	if err != nil {
		return nil, &ErrProxyURL{URL: addr.Std(), Err: err}
	}

	switch u.Scheme {
	case "socks5", "socks5h":
		dialer, err := socks5.NewDialer(u.String())
		if err != nil {
			return nil, &ErrProxyURL{URL: addr.Std(), Err: err}
		}

		return dialer.DialContext, nil
	case "socks4", "socks4a":
		forward := &net.Dialer{Timeout: timeout}

		dialer, err := proxy.FromURL(u, forward)
		if err != nil {
			return nil, &ErrProxyURL{URL: addr.Std(), Err: err}
		}

		if cd, ok := dialer.(proxy.ContextDialer); ok {
			return cd.DialContext, nil
		}

		return func(_ context.Context, network, address string) (net.Conn, error) {
			return dialer.Dial(network, address)
		}, nil
	default:
		return nil, &ErrProxyScheme{Scheme: u.Scheme}
	}
}
