package models

import "time"

// Refund is the durable record of an authority-issued reversal. The session
// id is informational: a refund never removes the session from the processed
// set and the ledger does not track remaining refundable balance.
type Refund struct {
	ID        string    // unique record identifier
	SessionID string    // session the refund refers to
	Recipient Identity  // account the funds were returned to
	Mint      *Identity // token mint, nil for the native asset
	Amount    uint64    // amount in base units (positive)
	CreatedAt time.Time // refund timestamp
}
