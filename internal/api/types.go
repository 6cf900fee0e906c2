package api

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"github.com/tokenforge/settlement-ledger/internal/models"
)

// amountField decodes a JSON amount (number or string) with arbitrary
// precision and converts it to integer base units. Fractional or
// non-positive values never reach the core.
type amountField struct {
	d decimal.Decimal
}

func (a *amountField) UnmarshalJSON(data []byte) error {
	return a.d.UnmarshalJSON(data)
}

func (a amountField) baseUnits() (uint64, error) {
	if a.d.Sign() <= 0 {
		return 0, errors.New("amount must be positive")
	}
	if !a.d.IsInteger() {
		return 0, errors.New("amount must be a whole number of base units")
	}
	bi := a.d.BigInt()
	if !bi.IsUint64() {
		return 0, errors.New("amount exceeds the maximum base-unit value")
	}
	return bi.Uint64(), nil
}

type accountBody struct {
	Authority string    `json:"authority"`
	Treasury  string    `json:"treasury"`
	Bump      uint8     `json:"bump"`
	Paused    bool      `json:"paused"`
	CreatedAt time.Time `json:"created_at"`
}

func accountResponse(account models.LedgerAccount) accountBody {
	return accountBody{
		Authority: account.Authority.String(),
		Treasury:  account.Treasury.String(),
		Bump:      account.Bump,
		Paused:    account.Paused,
		CreatedAt: account.CreatedAt,
	}
}

type settlementBody struct {
	ID          string    `json:"id"`
	SessionID   string    `json:"session_id"`
	Payer       string    `json:"payer"`
	Mint        *string   `json:"mint,omitempty"`
	Amount      uint64    `json:"amount"`
	ServiceType string    `json:"service_type"`
	CreatedAt   time.Time `json:"created_at"`
}

func settlementResponse(settlement models.Settlement) settlementBody {
	return settlementBody{
		ID:          settlement.ID,
		SessionID:   settlement.SessionID,
		Payer:       settlement.Payer.String(),
		Mint:        mintString(settlement.Mint),
		Amount:      settlement.Amount,
		ServiceType: settlement.ServiceType,
		CreatedAt:   settlement.CreatedAt,
	}
}

type refundBody struct {
	ID        string    `json:"id"`
	SessionID string    `json:"session_id"`
	Recipient string    `json:"recipient"`
	Mint      *string   `json:"mint,omitempty"`
	Amount    uint64    `json:"amount"`
	CreatedAt time.Time `json:"created_at"`
}

func refundResponse(refund models.Refund) refundBody {
	return refundBody{
		ID:        refund.ID,
		SessionID: refund.SessionID,
		Recipient: refund.Recipient.String(),
		Mint:      mintString(refund.Mint),
		Amount:    refund.Amount,
		CreatedAt: refund.CreatedAt,
	}
}

func mintString(mint *models.Identity) *string {
	if mint == nil {
		return nil
	}
	s := mint.String()
	return &s
}
