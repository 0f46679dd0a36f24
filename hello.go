package jarm

import (
	"bytes"
	"crypto/rand"
	"encoding/binary"

	"github.com/enetx/g"
)

// grease returns a GREASE pair 0xNA 0xNA with a random shared nibble
// (RFC 8701 shape). The nibble varies between calls; it never reaches
// the digest because servers do not echo it through the channels the
// parser reads.
func grease() [2]byte {
	var b [1]byte
	_, _ = rand.Read(b[:])

	n := b[0] % 15

	return [2]byte{n*16 + 10, n*16 + 10}
}

// randomBytes fills the 32-byte random fields of a hello.
func randomBytes() []byte {
	b := make([]byte, _randomLen)
	_, _ = rand.Read(b)

	return b
}

func putUint16(buf *bytes.Buffer, v uint16) {
	var b [2]byte
	binary.BigEndian.PutUint16(b[:], v)
	buf.Write(b[:])
}

// buildClientHello serializes one probe into a complete TLS record.
// The SNI carries host verbatim, IP literals included.
func buildClientHello(p probe, host g.String) g.Bytes {
	recVer, helloVer := p.version.recordBytes()

	var hello bytes.Buffer
	hello.Write(helloVer[:])
	hello.Write(randomBytes())

	hello.WriteByte(_randomLen)
	hello.Write(randomBytes())

	suites := probeCiphers(p)
	putUint16(&hello, uint16(len(suites)))
	hello.Write(suites)

	hello.WriteByte(0x01) // compression methods length
	hello.WriteByte(0x00) // null compression

	hello.Write(probeExtensions(p, host))

	// Handshake header: type 1, 3-byte length.
	var hs bytes.Buffer
	hs.WriteByte(0x01)
	hs.WriteByte(0x00)
	putUint16(&hs, uint16(hello.Len()))
	hs.Write(hello.Bytes())

	var record bytes.Buffer
	record.WriteByte(0x16)
	record.Write(recVer[:])
	putUint16(&record, uint16(hs.Len()))
	record.Write(hs.Bytes())

	return record.Bytes()
}

// probeCiphers serializes the probe's cipher suite field: inventory,
// permutation, optional leading GREASE pair.
func probeCiphers(p probe) []byte {
	suites := mung(p.ciphers.values(), p.order)

	var buf bytes.Buffer
	if p.grease {
		gr := grease()
		buf.Write(gr[:])
	}

	for _, s := range suites {
		putUint16(&buf, s)
	}

	return buf.Bytes()
}
