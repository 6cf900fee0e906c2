package models

import "time"

// Settlement is the durable record of one successful payment. Exactly one
// settlement exists per processed session; its presence is what makes a
// session replay fail.
type Settlement struct {
	ID          string    // unique record identifier
	SessionID   string    // off-chain session this payment settles
	Payer       Identity  // account the funds were moved from
	Mint        *Identity // token mint, nil for the native asset
	Amount      uint64    // amount in base units (positive)
	ServiceType string    // opaque service label, carried through to events
	CreatedAt   time.Time // settlement timestamp
}
