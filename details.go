package jarm

import (
	"context"
	"crypto/tls"
	"net"

	"github.com/enetx/g"
	utls "github.com/enetx/utls"
)

// Details is what the target actually negotiates when offered a
// mainstream browser hello, as opposed to the raw probe observations
// behind the digest.
type Details struct {
	Version g.String // negotiated TLS version name
	Cipher  g.String // negotiated cipher suite name
	ALPN    g.String // negotiated protocol, empty if none
	Subject g.String // leaf certificate subject, empty if none sent
}

// Details performs one real TLS handshake against the target with a
// Chrome ClientHello and reports the outcome. Certificate chains are
// not verified; this is a readout, not a trust decision. It never
// contributes to the digest.
func (s *Scanner) Details(ctx context.Context) g.Result[Details] {
	dial := s.dial
	if dial == nil {
		d := &net.Dialer{Timeout: s.timeout}
		dial = d.DialContext
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	conn, err := dial(ctx, "tcp", s.addr.Std())
	if err != nil {
		return g.Err[Details](err)
	}
	defer conn.Close()

	uconn := utls.UClient(conn, &utls.Config{
		ServerName:         s.host.Std(),
		InsecureSkipVerify: true,
		NextProtos:         []string{"h2", "http/1.1"},
	}, utls.HelloChrome_Auto)

	if err := uconn.HandshakeContext(ctx); err != nil {
		return g.Err[Details](err)
	}

	state := uconn.ConnectionState()

	details := Details{
		Version: g.String(tls.VersionName(state.Version)),
		Cipher:  g.String(tls.CipherSuiteName(state.CipherSuite)),
		ALPN:    g.String(state.NegotiatedProtocol),
	}

	if len(state.PeerCertificates) != 0 {
		details.Subject = g.String(state.PeerCertificates[0].Subject.String())
	}

	return g.Ok(details)
}
