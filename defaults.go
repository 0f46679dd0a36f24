package jarm

import "time"

// Default configuration constants for the jarm scanner.
const (
	// _probeTimeout is the default per-probe connect/write/read deadline.
	// Each of the ten probes opens its own connection, so a stalled
	// target costs at most ten of these.
	_probeTimeout = 30 * time.Second

	// _readCap is how many bytes of the server's reply are considered.
	// The parser operates on a buffer of exactly this size, zero-padded
	// when the server sends less.
	_readCap = 1484

	// _defaultPort is the port the thin driver falls back to when the
	// target carries none.
	_defaultPort = 443

	// _randomLen is the length of the client random, the session id and
	// the x25519 key-share key. None of these bytes reach the digest.
	_randomLen = 32
)
