// Package treasury derives the treasury account address from a fixed, public
// seed and the ledger's program identity. The derivation walks a bump byte
// downward until the resulting digest is not a valid edwards25519 point, so
// the derived address has no associated private key and cannot be controlled
// by any external signer.
package treasury

import (
	"crypto/sha256"
	"errors"
	"fmt"

	"filippo.io/edwards25519"

	"github.com/tokenforge/settlement-ledger/internal/models"
)

// DefaultSeed is the fixed, publicly known derivation seed.
const DefaultSeed = "payment_state"

// marker domain-separates treasury derivations from other uses of the hash.
const marker = "TreasuryDerivedAddress"

// ErrNoValidBump is returned when no bump in [0,255] yields an off-curve
// address. For a SHA-256 based derivation this is not expected to occur.
var ErrNoValidBump = errors.New("treasury: no valid bump for seed")

// Derive computes the treasury address and its bump for the given seed and
// program identity. The result is deterministic: callers re-derive and
// compare rather than trusting any supplied address.
func Derive(seed []byte, programID models.Identity) (models.Identity, uint8, error) {
	for bump := 255; bump >= 0; bump-- {
		h := sha256.New()
		h.Write(seed)
		h.Write([]byte{uint8(bump)})
		h.Write(programID[:])
		h.Write([]byte(marker))

		var addr models.Identity
		copy(addr[:], h.Sum(nil))
		if offCurve(addr) {
			return addr, uint8(bump), nil
		}
	}
	return models.Identity{}, 0, ErrNoValidBump
}

// Verify recomputes the derivation and checks it matches the stored address
// and bump.
func Verify(addr models.Identity, bump uint8, seed []byte, programID models.Identity) error {
	derived, derivedBump, err := Derive(seed, programID)
	if err != nil {
		return err
	}
	if derived != addr || derivedBump != bump {
		return fmt.Errorf("treasury: address %s does not match derivation", addr)
	}
	return nil
}

// offCurve reports whether the 32 bytes fail to decode as a curve point,
// i.e. no keypair can ever produce this address.
func offCurve(addr models.Identity) bool {
	_, err := new(edwards25519.Point).SetBytes(addr[:])
	return err != nil
}
