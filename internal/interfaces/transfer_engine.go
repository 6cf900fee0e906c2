package interfaces

import (
	"context"

	"github.com/tokenforge/settlement-ledger/internal/models"
)

// TransferEngine is the external collaborator that moves value between
// accounts. Each call is atomic: either the full amount moves or nothing
// does. Engine errors (insufficient balance, frozen account) are opaque to
// the ledger and surface to callers wrapped, not translated.
type TransferEngine interface {
	TransferNative(ctx context.Context, from, to models.Identity, amount uint64) error
	TransferToken(ctx context.Context, mint, from, to models.Identity, amount uint64) error
}
