// Package idhash derives deterministic identifiers from source data,
// so re-registering the same Reddit post yields the same post_id.
package idhash

import (
	"crypto/sha256"
	"encoding/hex"
)

// PostIDLen is the length of a derived post_id in hex characters.
const PostIDLen = 16

// ComputePostID computes a deterministic post_id from the canonical
// Reddit URL: the first 8 bytes of SHA256, hex-encoded. The URL must
// already be canonicalized — trailing slashes or query strings change
// the hash.
func ComputePostID(canonicalURL string) string {
	hash := sha256.Sum256([]byte(canonicalURL))
	return hex.EncodeToString(hash[:])[:PostIDLen]
}
