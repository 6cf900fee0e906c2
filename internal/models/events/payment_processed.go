package events

// PaymentProcessed is the indexer-facing settlement record, emitted once per
// processed session alongside PaymentReceived.
type PaymentProcessed struct {
	SessionID string  `json:"session_id"`
	Payer     string  `json:"payer"`
	Mint      *string `json:"mint,omitempty"`
	Amount    uint64  `json:"amount"`
	Timestamp int64   `json:"timestamp"` // unix seconds
}
