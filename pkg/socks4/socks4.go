// Package socks4 teaches golang.org/x/net/proxy the socks4:// and
// socks4a:// schemes so probe traffic can be routed through legacy
// proxies. Import for side effects and build dialers with
// proxy.FromURL.
package socks4

import (
	"bytes"
	"context"
	"encoding/binary"
	"fmt"
	"io"
	"net"
	"net/url"
	"strconv"
	"time"

	"golang.org/x/net/proxy"
)

const (
	version = 0x04
	connect = 0x01

	granted       = 0x5a
	rejected      = 0x5b
	identRequired = 0x5c
	identFailed   = 0x5d
)

// Ident is the userid field sent in every CONNECT request.
var Ident = "nobody@0.0.0.0"

func init() {
	for _, scheme := range []string{"socks4", "socks4a"} {
		proxy.RegisterDialerType(scheme, func(u *url.URL, d proxy.Dialer) (proxy.Dialer, error) {
			return &dialer{proxy: u, forward: d}, nil
		})
	}
}

type (
	// ErrRefused is a proxy reply other than access-granted.
	ErrRefused struct{ Code byte }

	// ErrHandshake wraps any transport failure during the exchange.
	ErrHandshake struct{ Err error }
)

func (e *ErrRefused) Error() string {
	switch e.Code {
	case rejected:
		return "socks4: connection rejected"
	case identRequired, identFailed:
		return "socks4: ident verification required"
	default:
		return fmt.Sprintf("socks4: invalid reply code 0x%02x", e.Code)
	}
}

func (e *ErrHandshake) Error() string { return fmt.Sprintf("socks4: %v", e.Err) }

func (e *ErrHandshake) Unwrap() error { return e.Err }

type dialer struct {
	proxy   *url.URL
	forward proxy.Dialer
}

// Dial implements proxy.Dialer.
func (d *dialer) Dial(network, addr string) (net.Conn, error) {
	return d.DialContext(context.Background(), network, addr)
}

// DialContext implements proxy.ContextDialer. The context deadline
// bounds the proxy handshake as well as the forward dial.
func (d *dialer) DialContext(ctx context.Context, network, addr string) (net.Conn, error) {
	if network != "tcp" && network != "tcp4" {
		return nil, &ErrHandshake{Err: net.UnknownNetworkError(network)}
	}

	conn, err := d.dialForward(ctx, network)
	if err != nil {
		return nil, err
	}

	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
		defer conn.SetDeadline(time.Time{})
	}

	if err := d.handshake(ctx, conn, addr); err != nil {
		_ = conn.Close()
		return nil, err
	}

	return conn, nil
}

func (d *dialer) dialForward(ctx context.Context, network string) (net.Conn, error) {
	if cd, ok := d.forward.(proxy.ContextDialer); ok {
		return cd.DialContext(ctx, network, d.proxy.Host)
	}

	return d.forward.Dial(network, d.proxy.Host)
}

func (d *dialer) handshake(ctx context.Context, conn net.Conn, addr string) error {
	req, err := d.request(ctx, addr)
	if err != nil {
		return err
	}

	if _, err := conn.Write(req); err != nil {
		return &ErrHandshake{Err: err}
	}

	var reply [8]byte
	if _, err := io.ReadFull(conn, reply[:]); err != nil {
		return &ErrHandshake{Err: err}
	}

	if reply[1] != granted {
		return &ErrRefused{Code: reply[1]}
	}

	return nil
}

// request serializes a CONNECT. Plain socks4 resolves the target to
// an IPv4 address locally; socks4a defers resolution to the proxy
// with the 0.0.0.1 marker address and a trailing hostname.
func (d *dialer) request(ctx context.Context, addr string) ([]byte, error) {
	host, portStr, err := net.SplitHostPort(addr)
	if err != nil {
		return nil, &ErrHandshake{Err: err}
	}

	port, err := strconv.Atoi(portStr)
	if err != nil {
		return nil, &ErrHandshake{Err: err}
	}

	remote := d.proxy.Scheme == "socks4a"

	ip := net.IPv4(0, 0, 0, 1)
	if !remote {
		if ip, err = resolve4(ctx, host); err != nil {
			return nil, &ErrHandshake{Err: err}
		}
	}

	var buf bytes.Buffer
	buf.Write([]byte{version, connect})
	_ = binary.Write(&buf, binary.BigEndian, uint16(port))
	buf.Write(ip.To4())
	buf.WriteString(Ident)
	buf.WriteByte(0)

	if remote {
		buf.WriteString(host)
		buf.WriteByte(0)
	}

	return buf.Bytes(), nil
}

func resolve4(ctx context.Context, host string) (net.IP, error) {
	ips, err := net.DefaultResolver.LookupIPAddr(ctx, host)
	if err != nil {
		return nil, err
	}

	for _, ip := range ips {
		if v4 := ip.IP.To4(); v4 != nil {
			return v4, nil
		}
	}

	return nil, &net.DNSError{Err: "no IPv4 address", Name: host}
}
