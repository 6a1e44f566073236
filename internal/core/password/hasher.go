// Package password implements the credential hasher: bcrypt digests for all
// new passwords, with verification fallback for the legacy "<salt>$<hex>"
// SHA-256 scheme that predates the bcrypt migration.
package password

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// bcrypt silently truncates longer inputs, so reject them explicitly.
const maxPlaintextBytes = 72

var modernPrefixes = []string{"$2a$", "$2b$", "$2y$"}

// Hasher computes and verifies password digests. The bcrypt cost is
// injectable so tests can run at bcrypt.MinCost.
type Hasher struct {
	cost int
}

// NewHasher returns a Hasher with the given bcrypt cost. Costs outside the
// valid bcrypt range fall back to bcrypt.DefaultCost.
func NewHasher(cost int) *Hasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &Hasher{cost: cost}
}

// Hash transforms plaintext into a self-describing bcrypt digest. A fresh
// random salt is generated on every call, so hashing the same plaintext twice
// yields two different digests.
func (h *Hasher) Hash(plaintext string) (string, error) {
	if len(plaintext) > maxPlaintextBytes {
		return "", fmt.Errorf("password: plaintext exceeds %d bytes", maxPlaintextBytes)
	}
	digest, err := bcrypt.GenerateFromPassword([]byte(plaintext), h.cost)
	if err != nil {
		return "", fmt.Errorf("password: hash: %w", err)
	}
	return string(digest), nil
}

// Verify reports whether plaintext reproduces digest. Digests produced by
// Hash are checked with bcrypt's constant-time comparison. Anything that does
// not parse as a bcrypt digest is retried as a legacy "<salt>$<hex>" SHA-256
// digest. Malformed digests of either kind verify false; Verify never fails
// with an error.
func (h *Hasher) Verify(plaintext, digest string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(digest), []byte(plaintext))
	if err == nil {
		return true
	}
	if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		// Well-formed bcrypt digest, wrong password. No legacy fallback.
		return false
	}
	return verifyLegacy(plaintext, digest)
}

// verifyLegacy checks plaintext against the pre-migration scheme:
// hex(sha256(plaintext + salt)) stored as "<salt>$<hex>".
func verifyLegacy(plaintext, digest string) bool {
	salt, hexDigest, ok := strings.Cut(digest, "$")
	if !ok || salt == "" || hexDigest == "" {
		return false
	}
	want, err := hex.DecodeString(hexDigest)
	if err != nil || len(want) != sha256.Size {
		return false
	}
	sum := sha256.Sum256([]byte(plaintext + salt))
	return subtle.ConstantTimeCompare(sum[:], want) == 1
}

// IsModern reports whether digest is in the current bcrypt format.
func IsModern(digest string) bool {
	for _, p := range modernPrefixes {
		if strings.HasPrefix(digest, p) {
			return true
		}
	}
	return false
}

// IsLegacy reports whether digest looks like the old "<salt>$<hex>" format.
// The "$" separator is the distinguishing marker once bcrypt prefixes have
// been ruled out.
func IsLegacy(digest string) bool {
	return !IsModern(digest) && strings.Contains(digest, "$")
}
