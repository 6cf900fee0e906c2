package events

// PaymentReceived notifies payment-gateway consumers that a settlement was
// accepted. Token is absent for native-asset payments.
type PaymentReceived struct {
	Payer       string  `json:"payer"`
	Token       *string `json:"token,omitempty"`
	Amount      uint64  `json:"amount"`
	ServiceType string  `json:"service_type"`
	SessionID   string  `json:"session_id"`
}
