package events

// PaymentRefunded notifies consumers that the authority reversed value back
// to a recipient. Token is absent for native-asset refunds.
type PaymentRefunded struct {
	Recipient string  `json:"recipient"`
	Token     *string `json:"token,omitempty"`
	Amount    uint64  `json:"amount"`
	SessionID string  `json:"session_id"`
}
