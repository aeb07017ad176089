// Package keys generates the player keys and server manager ids used to
// bind a WebSocket session to one side of one game.
package keys

import (
	"context"
	"crypto/rand"
	"strings"

	"github.com/google/uuid"
)

const alphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"

// keyLength matches the 10-character, 62^10-keyspace requirement.
const keyLength = 10

// Generate returns a single cryptographically random 10-character key.
func Generate() (string, error) {
	buf := make([]byte, keyLength)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	out := make([]byte, keyLength)
	for i, b := range buf {
		out[i] = alphabet[int(b)%len(alphabet)]
	}
	return string(out), nil
}

// Unique generates one fresh key, calling exists to check each candidate
// and retrying on collision. Pair below calls it once per side of a new
// game.
func Unique(ctx context.Context, exists func(ctx context.Context, key string) (bool, error)) (string, error) {
	for {
		candidate, err := Generate()
		if err != nil {
			return "", err
		}
		taken, err := exists(ctx, candidate)
		if err != nil {
			return "", err
		}
		if !taken {
			return candidate, nil
		}
	}
}

// Pair generates the two distinct keys for a new game's two player-key
// rows. The rows reference each other as opponent_key; the store gateway
// inserts both within one transaction with that foreign key deferred to
// commit, so the pair only needs to be collision-free and distinct from
// each other here.
func Pair(ctx context.Context, exists func(ctx context.Context, key string) (bool, error)) (a, b string, err error) {
	a, err = Unique(ctx, exists)
	if err != nil {
		return "", "", err
	}
	for {
		b, err = Unique(ctx, exists)
		if err != nil {
			return "", "", err
		}
		if b != a {
			return a, b, nil
		}
	}
}

// ManagerID mints a 64-character server-process identifier: two
// de-hyphenated UUIDs concatenated, giving 64 hex characters.
func ManagerID() string {
	first := strings.ReplaceAll(uuid.New().String(), "-", "")
	second := strings.ReplaceAll(uuid.New().String(), "-", "")
	return first + second
}
