package jarm

// tlsVersion is the TLS version a probe advertises on the wire.
type tlsVersion int

const (
	sslV3 tlsVersion = iota
	tls10
	tls11
	tls12
	tls13
)

// recordBytes returns the record-layer version and the ClientHello
// version for this probe. TLS 1.3 keeps the record layer at 0x0301
// on purpose: real-world 1.3 hellos downgrade the outer version so
// middleboxes pass them through.
func (v tlsVersion) recordBytes() (rec, hello [2]byte) {
	switch v {
	case sslV3:
		return [2]byte{0x03, 0x00}, [2]byte{0x03, 0x00}
	case tls10:
		return [2]byte{0x03, 0x01}, [2]byte{0x03, 0x01}
	case tls11:
		return [2]byte{0x03, 0x02}, [2]byte{0x03, 0x02}
	case tls12:
		return [2]byte{0x03, 0x03}, [2]byte{0x03, 0x03}
	default:
		return [2]byte{0x03, 0x01}, [2]byte{0x03, 0x03}
	}
}

// supportSet selects the version list of the supported_versions
// extension, or suppresses the extension entirely.
type supportSet int

const (
	supportNone supportSet = iota
	supportTLS12
	supportTLS13
)

// extOrder is the orientation applied to the ALPN and
// supported_versions inner lists.
type extOrder int

const (
	extForward extOrder = iota
	extReverse
)

// probe describes one of the ten ClientHello shapes sent to the
// target.
type probe struct {
	version  tlsVersion
	ciphers  cipherList
	order    cipherOrder
	grease   bool
	rareALPN bool
	support  supportSet
	extOrder extOrder
}

// probeTable is the fixed probe sequence. It is order-sensitive: the
// digest is reduced from observations in exactly this order, so
// reordering entries changes every fingerprint this package emits.
var probeTable = [10]probe{
	{tls12, cipherAll, orderForward, false, false, supportTLS12, extReverse},
	{tls12, cipherAll, orderReverse, false, false, supportTLS12, extForward},
	{tls12, cipherAll, orderTopHalf, false, false, supportNone, extForward},
	{tls12, cipherAll, orderBottomHalf, false, true, supportNone, extForward},
	{tls12, cipherAll, orderMiddleOut, true, true, supportNone, extReverse},
	{tls11, cipherAll, orderForward, false, false, supportNone, extForward},
	{tls13, cipherAll, orderForward, false, false, supportTLS13, extReverse},
	{tls13, cipherAll, orderReverse, false, false, supportTLS13, extForward},
	{tls13, cipherNoTLS13, orderForward, false, false, supportTLS13, extForward},
	{tls13, cipherAll, orderMiddleOut, true, false, supportTLS13, extReverse},
}
