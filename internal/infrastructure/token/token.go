package token

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
)

// rawLen is the number of random bytes per token. 8 bytes gives 2^64
// possible tokens, which makes guessing one within a room's lifetime
// infeasible.
const rawLen = 8

// Issue generates a fresh URL-safe room token. It has no side effects;
// the caller inserts the token into the registry.
func Issue() (string, error) {
	buf := make([]byte, rawLen)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to read random bytes: %w", err)
	}

	return base64.RawURLEncoding.EncodeToString(buf), nil
}
