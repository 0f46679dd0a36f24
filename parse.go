package jarm

import (
	"bytes"
	"encoding/binary"
	"encoding/hex"
	"strings"
	"unicode/utf8"

	"github.com/enetx/g"
)

// observation is what one probe saw in the server's reply. The zero
// value is the empty observation a failed or rejected probe yields.
type observation struct {
	cipher  g.Option[g.String] // selected suite, 4 hex chars
	version g.Option[g.String] // selected wire version, 4 hex chars
	alpn    g.String           // negotiated protocol, may be empty
	exts    g.String           // extension type codes, hex, "-"-joined
}

var (
	alertPatternLow  = []byte{0x0e, 0xac, 0x0b}
	alertPatternHigh = []byte{0x0f, 0xf0, 0x0b}
)

// parseServerHello recovers an observation from the first _readCap
// bytes of a reply. The input is expected zero-padded to _readCap;
// shorter buffers are padded here so every offset below stays in
// range of the announced layout checks.
//
// Quirk kept for fingerprint compatibility with the reference
// implementation: an extensions-block length whose high byte is 0x0b
// trips the certificate-message guard and the reply is treated as
// malformed.
func parseServerHello(data g.Bytes) observation {
	buf := []byte(data)
	if len(buf) < _readCap {
		padded := make([]byte, _readCap)
		copy(padded, buf)
		buf = padded
	}

	if buf[0] != 22 || buf[5] != 2 {
		return observation{}
	}

	c := int(buf[43])

	obs := observation{
		cipher:  g.Some(g.String(hex.EncodeToString(buf[c+44 : c+46]))),
		version: g.Some(g.String(hex.EncodeToString(buf[9:11]))),
	}

	if replyMalformed(buf, c) {
		return obs
	}

	types, values := walkExtensions(buf, c)

	obs.alpn = alpnValue(types, values)
	obs.exts = joinTypes(types)

	return obs
}

// replyMalformed applies the reference error guards: a certificate
// byte where the extensions length should start, two known
// error-alert byte patterns, and an announced handshake body too
// short for the session-id-dependent offsets.
func replyMalformed(buf []byte, c int) bool {
	if buf[c+47] == 11 {
		return true
	}

	if bytes.Equal(buf[c+50:c+53], alertPatternLow) || bytes.Equal(buf[c+82:c+85], alertPatternHigh) {
		return true
	}

	return c+42 >= int(binary.BigEndian.Uint16(buf[3:5]))
}

// walkExtensions iterates the extensions block, collecting type codes
// and values in wire order. The announced length is trusted only as
// an upper bound: the walk halts at the first position the buffer
// cannot satisfy, keeping what was collected so far.
func walkExtensions(buf []byte, c int) (types [][]byte, values [][]byte) {
	count := c + 49
	length := int(binary.BigEndian.Uint16(buf[c+47 : c+49]))
	maximum := count + length - 1

	for count < maximum {
		if count+4 > len(buf) {
			break
		}

		extLen := int(binary.BigEndian.Uint16(buf[count+2 : count+4]))
		if extLen > 0 && count+4+extLen > len(buf) {
			break
		}

		types = append(types, buf[count:count+2])

		if extLen == 0 {
			values = append(values, nil)
			count += 4
		} else {
			values = append(values, buf[count+4:count+4+extLen])
			count += extLen + 4
		}
	}

	return types, values
}

// alpnValue extracts the negotiated protocol from extension 0x0010:
// the value minus its 3-byte list-length/name-length prefix. Missing,
// short or non-UTF-8 values yield the empty string.
func alpnValue(types, values [][]byte) g.String {
	for i, t := range types {
		if t[0] != 0x00 || t[1] != 0x10 {
			continue
		}

		v := values[i]
		if v == nil {
			continue
		}

		if len(v) < 4 {
			return ""
		}

		if !utf8.Valid(v[3:]) {
			return ""
		}

		return g.String(v[3:])
	}

	return ""
}

func joinTypes(types [][]byte) g.String {
	encoded := make([]string, len(types))
	for i, t := range types {
		encoded[i] = hex.EncodeToString(t)
	}

	return g.String(strings.Join(encoded, "-"))
}
