package jarm

import (
	"bytes"

	"github.com/enetx/g"
)

// Fixed extension bodies shared by every probe.
var (
	extMasterSecret    = []byte{0x00, 0x17, 0x00, 0x00}
	extMaxFragment     = []byte{0x00, 0x01, 0x00, 0x01, 0x01}
	extRenegotiation   = []byte{0xff, 0x01, 0x00, 0x01, 0x00}
	extSupportedGroups = []byte{
		0x00, 0x0a, 0x00, 0x0a, 0x00, 0x08,
		0x00, 0x1d, 0x00, 0x17, 0x00, 0x18, 0x00, 0x19,
	}
	extECPointFormats = []byte{0x00, 0x0b, 0x00, 0x02, 0x01, 0x00}
	extSessionTicket  = []byte{0x00, 0x23, 0x00, 0x00}
	extSignatureAlgos = []byte{
		0x00, 0x0d, 0x00, 0x14, 0x00, 0x12,
		0x04, 0x03, 0x08, 0x04, 0x04, 0x01, 0x05, 0x03, 0x08, 0x05,
		0x05, 0x01, 0x08, 0x06, 0x06, 0x01, 0x02, 0x01,
	}
	extPSKModes = []byte{0x00, 0x2d, 0x00, 0x02, 0x01, 0x01}
)

// ALPN protocol entries as emitted, length prefixes included. The
// common list's sixth entry declares six bytes of spdy/3 and drags an
// h2 tail behind the prefix; the reference emits exactly these bytes
// and the digest depends on them.
var (
	alpnCommon = [][]byte{
		{0x08, 'h', 't', 't', 'p', '/', '0', '.', '9'},
		{0x08, 'h', 't', 't', 'p', '/', '1', '.', '0'},
		{0x08, 'h', 't', 't', 'p', '/', '1', '.', '1'},
		{0x06, 's', 'p', 'd', 'y', '/', '1'},
		{0x06, 's', 'p', 'd', 'y', '/', '2'},
		{0x06, 's', 'p', 'd', 'y', '/', '3', 0x02, 'h', '2'},
		{0x03, 'h', '2', 'c'},
		{0x02, 'h', 'q'},
	}
	alpnRare = [][]byte{
		{0x08, 'h', 't', 't', 'p', '/', '0', '.', '9'},
		{0x08, 'h', 't', 't', 'p', '/', '1', '.', '0'},
		{0x06, 's', 'p', 'd', 'y', '/', '1'},
		{0x06, 's', 'p', 'd', 'y', '/', '2'},
		{0x06, 's', 'p', 'd', 'y', '/', '3'},
		{0x03, 'h', '2', 'c'},
		{0x02, 'h', 'q'},
	}
)

// probeExtensions assembles the extensions block, 2-byte length
// prefix included. Order is fixed; only the GREASE leader and
// supported_versions are conditional.
func probeExtensions(p probe, host g.String) []byte {
	var all bytes.Buffer

	if p.grease {
		gr := grease()
		all.Write(gr[:])
		all.Write([]byte{0x00, 0x00})
	}

	all.Write(sniExtension(host))
	all.Write(extMasterSecret)
	all.Write(extMaxFragment)
	all.Write(extRenegotiation)
	all.Write(extSupportedGroups)
	all.Write(extECPointFormats)
	all.Write(extSessionTicket)
	all.Write(alpnExtension(p))
	all.Write(extSignatureAlgos)
	all.Write(keyShareExtension(p))
	all.Write(extPSKModes)

	if p.version == tls13 || p.support == supportTLS12 {
		all.Write(supportedVersionsExtension(p))
	}

	var out bytes.Buffer
	putUint16(&out, uint16(all.Len()))
	out.Write(all.Bytes())

	return out.Bytes()
}

// sniExtension builds server_name: one host_name entry carrying host
// as given.
func sniExtension(host g.String) []byte {
	hlen := len(host)

	var buf bytes.Buffer
	buf.Write([]byte{0x00, 0x00})
	putUint16(&buf, uint16(hlen+5))
	putUint16(&buf, uint16(hlen+3))
	buf.WriteByte(0x00)
	putUint16(&buf, uint16(hlen))
	buf.WriteString(host.Std())

	return buf.Bytes()
}

// alpnExtension builds application_layer_protocol_negotiation from
// the probe's protocol list and inner-list orientation.
func alpnExtension(p probe) []byte {
	list := alpnCommon
	if p.rareALPN {
		list = alpnRare
	}

	if p.extOrder == extReverse {
		list = mung(list, orderReverse)
	}

	var inner bytes.Buffer
	for _, entry := range list {
		inner.Write(entry)
	}

	var buf bytes.Buffer
	buf.Write([]byte{0x00, 0x10})
	putUint16(&buf, uint16(inner.Len()+2))
	putUint16(&buf, uint16(inner.Len()))
	buf.Write(inner.Bytes())

	return buf.Bytes()
}

// keyShareExtension builds key_share with a single x25519 entry and,
// for GREASE probes, a leading GREASE share.
func keyShareExtension(p probe) []byte {
	var inner bytes.Buffer
	if p.grease {
		gr := grease()
		inner.Write(gr[:])
		inner.Write([]byte{0x00, 0x01, 0x00})
	}

	inner.Write([]byte{0x00, 0x1d}) // x25519
	inner.Write([]byte{0x00, 0x20})
	inner.Write(randomBytes())

	var buf bytes.Buffer
	buf.Write([]byte{0x00, 0x33})
	putUint16(&buf, uint16(inner.Len()+2))
	putUint16(&buf, uint16(inner.Len()))
	buf.Write(inner.Bytes())

	return buf.Bytes()
}

// supportedVersionsExtension builds supported_versions from the
// probe's advertised set; callers gate emission.
func supportedVersionsExtension(p probe) []byte {
	versions := [][]byte{{0x03, 0x01}, {0x03, 0x02}, {0x03, 0x03}, {0x03, 0x04}}
	if p.support == supportTLS12 {
		versions = versions[:3]
	}

	if p.extOrder == extReverse {
		versions = mung(versions, orderReverse)
	}

	var list bytes.Buffer
	if p.grease {
		gr := grease()
		list.Write(gr[:])
	}

	for _, v := range versions {
		list.Write(v)
	}

	var buf bytes.Buffer
	buf.Write([]byte{0x00, 0x2b})
	putUint16(&buf, uint16(list.Len()+1))
	buf.WriteByte(byte(list.Len()))
	buf.Write(list.Bytes())

	return buf.Bytes()
}
