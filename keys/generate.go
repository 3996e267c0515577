package keys

import (
	"encoding/base64"

	"github.com/google/uuid"
)

// Generate returns a fresh URL-safe token: 128 bits of random entropy,
// base64url-encoded with padding stripped. Always 22 characters.
func Generate() string {
	id := uuid.New()
	return base64.RawURLEncoding.EncodeToString(id[:])
}
