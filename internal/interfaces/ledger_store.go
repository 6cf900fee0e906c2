package interfaces

import (
	"context"
	"errors"

	"github.com/tokenforge/settlement-ledger/internal/models"
)

// Storage-level sentinel errors. The ledger service maps these onto its own
// error taxonomy; callers outside internal/ledger should not depend on them.
var (
	ErrAccountExists   = errors.New("ledger account already exists")
	ErrAccountNotFound = errors.New("ledger account not found")
	ErrSessionExists   = errors.New("session already recorded")
)

// LedgerStore persists the ledger account, its processed-session set, and the
// settlement/refund records. SaveSettlement must commit the record and the
// session membership atomically: a duplicate session fails the whole save
// with ErrSessionExists and writes nothing.
type LedgerStore interface {
	CreateAccount(ctx context.Context, account models.LedgerAccount) error
	GetAccount(ctx context.Context) (models.LedgerAccount, error)
	SetPaused(ctx context.Context, paused bool) error

	SessionProcessed(ctx context.Context, sessionID string) (bool, error)
	SaveSettlement(ctx context.Context, settlement models.Settlement) error
	SaveRefund(ctx context.Context, refund models.Refund) error

	GetSettlements(ctx context.Context) ([]models.Settlement, error)
	GetRefunds(ctx context.Context) ([]models.Refund, error)
}
