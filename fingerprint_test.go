package jarm

import (
	"strings"
	"testing"

	"github.com/enetx/g"
)

const allDeadDigest = "000000000000000000000000000000e3b0c44298fc1c149afbf4c8996fb924"

func TestReduceAllDead(t *testing.T) {
	t.Parallel()

	digest := reduce(make([]observation, len(probeTable)))
	if digest != allDeadDigest {
		t.Errorf("all-dead digest\n got %s\nwant %s", digest, allDeadDigest)
	}
}

func TestReduceShape(t *testing.T) {
	t.Parallel()

	parts := make([]observation, len(probeTable))
	parts[0] = observation{
		cipher:  g.Some(g.String("c02f")),
		version: g.Some(g.String("0303")),
		alpn:    "h2",
		exts:    "ff01-0000",
	}

	digest := reduce(parts)
	if len(digest) != 62 {
		t.Fatalf("digest length %d, want 62", len(digest))
	}

	for _, r := range digest.Std() {
		if !strings.ContainsRune("0123456789abcdef", r) {
			t.Fatalf("digest contains non-hex %q", r)
		}
	}
}

func TestCipherShortCodes(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name   string
		cipher g.Option[g.String]
		want   string
	}{
		{"missing", g.None[g.String](), "00"},
		{"first entry", g.Some(g.String("0004")), "01"},
		{"c02f", g.Some(g.String("c02f")), "29"},
		{"last entry", g.Some(g.String("1305")), "45"},
		{"unknown suite", g.Some(g.String("abcd")), "00"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			obs := observation{cipher: tc.cipher}
			if got := obs.cipherShort(); got != tc.want {
				t.Errorf("got %s, want %s", got, tc.want)
			}
		})
	}
}

func TestVersionChars(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name    string
		version g.Option[g.String]
		want    byte
	}{
		{"missing", g.None[g.String](), '0'},
		{"ssl3", g.Some(g.String("0300")), 'a'},
		{"tls12", g.Some(g.String("0303")), 'd'},
		{"tls13", g.Some(g.String("0304")), 'e'},
		{"garbage digit", g.Some(g.String("03ff")), '0'},
		{"too short", g.Some(g.String("03")), '0'},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			obs := observation{version: tc.version}
			if got := obs.versionChar(); got != tc.want {
				t.Errorf("got %c, want %c", got, tc.want)
			}
		})
	}
}

func TestReduceOrderSensitive(t *testing.T) {
	t.Parallel()

	a := observation{cipher: g.Some(g.String("c02f")), version: g.Some(g.String("0303"))}
	b := observation{cipher: g.Some(g.String("1301")), version: g.Some(g.String("0304"))}

	first := []observation{a, b, {}, {}, {}, {}, {}, {}, {}, {}}
	second := []observation{b, a, {}, {}, {}, {}, {}, {}, {}, {}}

	if reduce(first) == reduce(second) {
		t.Error("reducer must be order sensitive")
	}
}

func TestProbeTableShape(t *testing.T) {
	t.Parallel()

	if len(probeTable) != 10 {
		t.Fatalf("probe table length %d, want 10", len(probeTable))
	}

	// Spot checks against the reference queue.
	if p := probeTable[0]; p.version != tls12 || p.support != supportTLS12 || p.extOrder != extReverse {
		t.Error("probe 1 diverges from the reference queue")
	}

	if p := probeTable[8]; p.ciphers != cipherNoTLS13 || p.version != tls13 {
		t.Error("probe 9 diverges from the reference queue")
	}

	greased := 0
	for _, p := range probeTable {
		if p.grease {
			greased++
		}
	}

	if greased != 2 {
		t.Errorf("greased probes %d, want 2", greased)
	}
}
