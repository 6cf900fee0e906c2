package models

import (
	"encoding/hex"
	"fmt"
)

// IdentityLen is the byte length of every on-ledger identity (accounts,
// treasuries, token mints alike).
const IdentityLen = 32

// Identity is a 32-byte account identity. The host environment is trusted to
// have verified the signature behind it; the ledger only compares identities.
type Identity [IdentityLen]byte

// ParseIdentity decodes a hex-encoded 32-byte identity.
func ParseIdentity(s string) (Identity, error) {
	var id Identity
	raw, err := hex.DecodeString(s)
	if err != nil {
		return id, fmt.Errorf("parse identity: %w", err)
	}
	if len(raw) != IdentityLen {
		return id, fmt.Errorf("parse identity: expected %d bytes, got %d", IdentityLen, len(raw))
	}
	copy(id[:], raw)
	return id, nil
}

// MustParseIdentity is ParseIdentity for hard-coded values; it panics on error.
func MustParseIdentity(s string) Identity {
	id, err := ParseIdentity(s)
	if err != nil {
		panic(err)
	}
	return id
}

// String returns the hex encoding of the identity.
func (id Identity) String() string {
	return hex.EncodeToString(id[:])
}

// IsZero reports whether the identity is the all-zero value.
func (id Identity) IsZero() bool {
	return id == Identity{}
}
