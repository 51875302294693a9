package security

import "github.com/google/uuid"

// TokenSource produces opaque session identifiers. It exists as an interface
// so tests can substitute a deterministic sequence.
type TokenSource interface {
	NewToken() string
}

// UUIDTokenSource issues random UUIDv4 strings, 122 bits of entropy from
// crypto/rand. Collisions are negligible by construction and not checked.
type UUIDTokenSource struct{}

func NewUUIDTokenSource() UUIDTokenSource { return UUIDTokenSource{} }

func (UUIDTokenSource) NewToken() string { return uuid.NewString() }
