package jarm

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/enetx/g"
)

// cipherRank is the fingerprint lookup table: a suite's short code is
// its 1-based position here, two hex digits. Suites outside the table
// and empty observations both read "00".
var cipherRank = []string{
	"0004", "0005", "0007", "000a", "0016", "002f", "0033", "0035",
	"0039", "003c", "003d", "0041", "0045", "0067", "006b", "0084",
	"0088", "009a", "009c", "009d", "009e", "009f", "00ba", "00be",
	"00c0", "00c4", "c007", "c008", "c009", "c00a", "c011", "c012",
	"c013", "c014", "c023", "c024", "c027", "c028", "c02b", "c02c",
	"c02f", "c030", "c060", "c061", "c072", "c073", "c076", "c077",
	"c09c", "c09d", "c09e", "c09f", "c0a0", "c0a1", "c0a2", "c0a3",
	"c0ac", "c0ad", "c0ae", "c0af", "cc13", "cc14", "cca8", "cca9",
	"1301", "1302", "1303", "1304", "1305",
}

// cipherShort returns the observation's two-digit cipher code.
func (o observation) cipherShort() string {
	if o.cipher.IsNone() {
		return "00"
	}

	cipher := o.cipher.Some().Std()
	for i, known := range cipherRank {
		if known == cipher {
			return fmt.Sprintf("%02x", byte(i+1))
		}
	}

	return "00"
}

// versionChar maps the observed version's fourth hex digit 0..5 onto
// 'a'..'f'. Anything else, including a missing version, reads '0'.
func (o observation) versionChar() byte {
	if o.version.IsNone() {
		return '0'
	}

	v := o.version.Some().Std()
	if len(v) < 4 {
		return '0'
	}

	if d := v[3]; d >= '0' && d <= '5' {
		return 'a' + d - '0'
	}

	return '0'
}

// reduce folds the ten observations, in probe-table order, into the
// 62-character digest: a 30-char fuzzy prefix of cipher codes and
// version chars, then the first 32 hex chars of SHA-256 over the
// concatenated ALPN and extension-type observations.
func reduce(parts []observation) g.String {
	var fuzzy, acc strings.Builder

	for _, p := range parts {
		fuzzy.WriteString(p.cipherShort())
		fuzzy.WriteByte(p.versionChar())
		acc.WriteString(p.alpn.Std())
		acc.WriteString(p.exts.Std())
	}

	sum := sha256.Sum256([]byte(acc.String()))
	fuzzy.WriteString(hex.EncodeToString(sum[:])[:32])

	return g.String(fuzzy.String())
}
