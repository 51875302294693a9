package security

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/crypto/pbkdf2"
)

const (
	pbkdf2Tag        = "pbkdf2"
	pbkdf2SaltBytes  = 16
	pbkdf2KeyBytes   = 32
	MinPBKDF2Iters   = 100_000
	DefaultHashIters = 100_000
)

// PasswordHasher derives and verifies PBKDF2-HMAC-SHA256 digests encoded as
// "pbkdf2$<iterations>$<salt_b64>$<key_b64>". The encoding carries its own
// parameters, so digests written with older iteration counts keep verifying
// after the configured count changes.
type PasswordHasher struct {
	iterations int
}

func NewPasswordHasher(iterations int) *PasswordHasher {
	if iterations < MinPBKDF2Iters {
		iterations = DefaultHashIters
	}
	return &PasswordHasher{iterations: iterations}
}

func (h *PasswordHasher) Hash(password string) (string, error) {
	salt := make([]byte, pbkdf2SaltBytes)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("read salt: %w", err)
	}
	key := pbkdf2.Key([]byte(password), salt, h.iterations, pbkdf2KeyBytes, sha256.New)
	return strings.Join([]string{
		pbkdf2Tag,
		strconv.Itoa(h.iterations),
		base64.StdEncoding.EncodeToString(salt),
		base64.StdEncoding.EncodeToString(key),
	}, "$"), nil
}

// Verify reports whether password matches the encoded digest. Malformed
// digests verify as false rather than erroring; the final comparison is
// constant time for equal-length keys.
func (h *PasswordHasher) Verify(password, encoded string) bool {
	parts := strings.Split(encoded, "$")
	if len(parts) != 4 || parts[0] != pbkdf2Tag {
		return false
	}
	iterations, err := strconv.Atoi(parts[1])
	if err != nil || iterations < 1 {
		return false
	}
	salt, err := base64.StdEncoding.DecodeString(parts[2])
	if err != nil || len(salt) == 0 {
		return false
	}
	expected, err := base64.StdEncoding.DecodeString(parts[3])
	if err != nil || len(expected) == 0 {
		return false
	}
	key := pbkdf2.Key([]byte(password), salt, iterations, len(expected), sha256.New)
	return subtle.ConstantTimeCompare(key, expected) == 1
}
