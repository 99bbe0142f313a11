// Package digest provides the hashing support used by transactions, the
// merkle tree and block sealing. Every digest is the lowercase hex encoding
// of a SHA-256 sum, 64 characters long.
package digest

import (
	"crypto/sha256"
	"encoding/hex"

	"github.com/ethereum/go-ethereum/common"
)

// ZeroHash is the previous hash recorded by the first block of a chain.
const ZeroHash = "0000000000000000000000000000000000000000000000000000000000000000"

// Size is the length of a hex encoded digest.
const Size = 2 * common.HashLength

// Hash returns the hex encoded SHA-256 digest of the UTF-8 bytes of s.
func Hash(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])
}

// Pair returns the digest of two digests concatenated left to right.
func Pair(left string, right string) string {
	return Hash(left + right)
}

// ToHash converts a hex encoded digest into a fixed size 32 byte value. The
// second return is false if the string is not a well formed digest.
func ToHash(s string) (common.Hash, bool) {
	if len(s) != Size {
		return common.Hash{}, false
	}

	b, err := hex.DecodeString(s)
	if err != nil {
		return common.Hash{}, false
	}

	return common.BytesToHash(b), true
}

// IsHash reports whether s is a well formed hex encoded digest.
func IsHash(s string) bool {
	_, ok := ToHash(s)
	return ok
}
