package models

import "time"

// LedgerAccount is the single persisted record binding the administrative
// authority, the derived treasury address, and the pause flag. Authority and
// treasury are set once at initialization and never change afterwards.
type LedgerAccount struct {
	Authority Identity  // identity permitted to pause and refund
	Treasury  Identity  // derived receiver of settled funds
	Bump      uint8     // discriminator byte from the treasury derivation
	Paused    bool      // circuit breaker; rejects settlements when true
	CreatedAt time.Time // when the account was initialized
}
