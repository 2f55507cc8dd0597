package util

import (
	"crypto/rand"
	"encoding/hex"
)

// idLen is the number of random bytes per identifier. 12 bytes give a
// 24-character hex tail, which keeps IDs short enough for log lines
// while leaving collisions out of practical reach.
const idLen = 12

// NewID returns a fresh opaque identifier. Callers pass a short prefix
// ("usr", "idea", "msg") so IDs stay recognizable in logs and query
// output; an empty prefix yields just the hex tail.
func NewID(prefix string) string {
	buf := make([]byte, idLen)
	if _, err := rand.Read(buf); err != nil {
		// crypto/rand only fails when the platform source is broken,
		// at which point nothing else in the process is trustworthy.
		panic("util: system random source unavailable: " + err.Error())
	}
	tail := hex.EncodeToString(buf)
	if prefix == "" {
		return tail
	}
	return prefix + "_" + tail
}
