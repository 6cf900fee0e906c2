package ledger

import "errors"

// Error taxonomy for the settlement core. Every rejected operation surfaces
// exactly one of these (or an ErrTransferFailed chain from the transfer
// engine); there is no silent failure path.
var (
	ErrAlreadyInitialized      = errors.New("ledger already initialized")
	ErrNotInitialized          = errors.New("ledger not initialized")
	ErrServicePaused           = errors.New("payment service is paused")
	ErrInvalidAmount           = errors.New("invalid payment amount")
	ErrSessionAlreadyProcessed = errors.New("session already processed")
	ErrReceiverMismatch        = errors.New("declared receiver does not match ledger treasury")
	ErrInvalidTreasuryAddress  = errors.New("treasury address does not match derivation")
	ErrUnauthorized            = errors.New("caller is not the ledger authority")

	// ErrTransferFailed wraps opaque errors from the transfer engine
	// (insufficient balance, frozen account). Match with errors.Is and
	// inspect the joined cause for detail.
	ErrTransferFailed = errors.New("transfer failed")
)
