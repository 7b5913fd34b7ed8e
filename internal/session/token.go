package session

import (
	"crypto/rand"
	"encoding/base64"
	"encoding/binary"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// newToken joins a random UUID, 128 random bits and the issue instant.
// Consumers must treat the result as opaque.
func newToken(now time.Time) (string, error) {
	buf := make([]byte, 40)

	id := uuid.New()
	copy(buf[:16], id[:])

	if _, err := rand.Read(buf[16:32]); err != nil {
		return "", fmt.Errorf("cannot read random bytes: %w", err)
	}
	binary.BigEndian.PutUint64(buf[32:], uint64(now.UnixNano()))

	return base64.RawURLEncoding.EncodeToString(buf), nil
}
