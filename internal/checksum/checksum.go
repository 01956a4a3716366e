// Package checksum identifies file contents. The same digest serves as the
// session version in ETag and If-Match headers.
package checksum

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// Sum returns the hex-encoded SHA-256 digest of data.
func Sum(data []byte) string {
	h := sha256.Sum256(data)
	return hex.EncodeToString(h[:])
}

// Matches reports whether tag names the current version of data. tag may be
// a bare digest or an entity tag, quoted and optionally weak.
func Matches(data []byte, tag string) bool {
	tag = strings.TrimPrefix(strings.TrimSpace(tag), "W/")
	return strings.Trim(tag, `"`) == Sum(data)
}
