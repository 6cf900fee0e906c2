// Package ledger implements the settlement and authorization core: one
// ledger account, replay-protected settlements, and authority-gated
// administrative operations. Value movement itself is delegated to the
// transfer engine; this package only decides whether a movement is allowed
// and records that it happened.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/tokenforge/settlement-ledger/internal/interfaces"
	"github.com/tokenforge/settlement-ledger/internal/models"
	"github.com/tokenforge/settlement-ledger/internal/models/events"
	"github.com/tokenforge/settlement-ledger/internal/treasury"
)

// Event topics consumed by external observers.
const (
	TopicPaymentReceived  = "payments.received"
	TopicPaymentProcessed = "payments.processed"
	TopicPaymentRefunded  = "payments.refunded"
)

// Ledger serializes all operations against the single ledger account. The
// mutex gives each operation exclusive, consistent access for its full
// duration, so precondition checks and the following commit never interleave.
type Ledger struct {
	mu        sync.Mutex
	store     interfaces.LedgerStore
	engine    interfaces.TransferEngine
	publisher interfaces.EventPublisher

	programID models.Identity
	seed      []byte

	now   func() time.Time
	newID func() string
}

// New creates a Ledger bound to the given program identity. The treasury
// address is always derived from treasury.DefaultSeed and programID; it is
// never taken from caller input.
func New(store interfaces.LedgerStore, engine interfaces.TransferEngine, publisher interfaces.EventPublisher, programID models.Identity) *Ledger {
	return &Ledger{
		store:     store,
		engine:    engine,
		publisher: publisher,
		programID: programID,
		seed:      []byte(treasury.DefaultSeed),
		now:       time.Now,
		newID:     func() string { return uuid.New().String() },
	}
}

// Initialize creates the one ledger account, binding the caller as authority
// and the derived address as treasury. When expectedTreasury is non-nil it
// must equal the derivation, otherwise the attempt fails with
// ErrInvalidTreasuryAddress. Fails with ErrAlreadyInitialized on a second
// call.
func (l *Ledger) Initialize(ctx context.Context, authority models.Identity, expectedTreasury *models.Identity) (models.LedgerAccount, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	addr, bump, err := treasury.Derive(l.seed, l.programID)
	if err != nil {
		return models.LedgerAccount{}, fmt.Errorf("derive treasury: %w", err)
	}
	if expectedTreasury != nil && *expectedTreasury != addr {
		return models.LedgerAccount{}, ErrInvalidTreasuryAddress
	}

	account := models.LedgerAccount{
		Authority: authority,
		Treasury:  addr,
		Bump:      bump,
		Paused:    false,
		CreatedAt: l.now().UTC(),
	}
	if err := l.store.CreateAccount(ctx, account); err != nil {
		if errors.Is(err, interfaces.ErrAccountExists) {
			return models.LedgerAccount{}, ErrAlreadyInitialized
		}
		return models.LedgerAccount{}, fmt.Errorf("create account: %w", err)
	}
	return account, nil
}

// PayNative settles a native-asset payment from payer to the treasury.
// declaredReceiver, when non-nil, is the treasury the caller believes it is
// paying; a mismatch with the bound treasury fails the settlement.
func (l *Ledger) PayNative(ctx context.Context, payer models.Identity, amount uint64, serviceType, sessionID string, declaredReceiver *models.Identity) (models.Settlement, error) {
	return l.settle(ctx, payer, nil, amount, serviceType, sessionID, declaredReceiver)
}

// PayToken settles a payment in the fungible token identified by mint.
func (l *Ledger) PayToken(ctx context.Context, payer models.Identity, mint models.Identity, amount uint64, serviceType, sessionID string, declaredReceiver *models.Identity) (models.Settlement, error) {
	return l.settle(ctx, payer, &mint, amount, serviceType, sessionID, declaredReceiver)
}

// settle validates preconditions in fixed order (paused, amount, session,
// receiver, treasury binding), delegates the transfer, then commits the
// settlement record and session membership atomically. A transfer failure
// leaves the ledger untouched; a commit failure reverses the transfer so no
// value moves without its record.
func (l *Ledger) settle(ctx context.Context, payer models.Identity, mint *models.Identity, amount uint64, serviceType, sessionID string, declaredReceiver *models.Identity) (models.Settlement, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	account, err := l.getAccount(ctx)
	if err != nil {
		return models.Settlement{}, err
	}
	if account.Paused {
		return models.Settlement{}, ErrServicePaused
	}
	if amount == 0 {
		return models.Settlement{}, ErrInvalidAmount
	}
	seen, err := l.store.SessionProcessed(ctx, sessionID)
	if err != nil {
		return models.Settlement{}, fmt.Errorf("session lookup: %w", err)
	}
	if seen {
		return models.Settlement{}, ErrSessionAlreadyProcessed
	}
	if declaredReceiver != nil && *declaredReceiver != account.Treasury {
		return models.Settlement{}, ErrReceiverMismatch
	}
	if err := treasury.Verify(account.Treasury, account.Bump, l.seed, l.programID); err != nil {
		return models.Settlement{}, ErrInvalidTreasuryAddress
	}

	if err := l.transfer(ctx, mint, payer, account.Treasury, amount); err != nil {
		return models.Settlement{}, errors.Join(ErrTransferFailed, err)
	}

	settlement := models.Settlement{
		ID:          l.newID(),
		SessionID:   sessionID,
		Payer:       payer,
		Mint:        mint,
		Amount:      amount,
		ServiceType: serviceType,
		CreatedAt:   l.now().UTC(),
	}
	if err := l.store.SaveSettlement(ctx, settlement); err != nil {
		// Funds already moved; send them back before reporting failure.
		if revErr := l.transfer(ctx, mint, account.Treasury, payer, amount); revErr != nil {
			err = errors.Join(err, fmt.Errorf("reverse transfer: %w", revErr))
		}
		if errors.Is(err, interfaces.ErrSessionExists) {
			return models.Settlement{}, ErrSessionAlreadyProcessed
		}
		return models.Settlement{}, fmt.Errorf("commit settlement: %w", err)
	}

	l.publish(TopicPaymentReceived, events.PaymentReceived{
		Payer:       payer.String(),
		Token:       mintString(mint),
		Amount:      amount,
		ServiceType: serviceType,
		SessionID:   sessionID,
	})
	l.publish(TopicPaymentProcessed, events.PaymentProcessed{
		SessionID: sessionID,
		Payer:     payer.String(),
		Mint:      mintString(mint),
		Amount:    amount,
		Timestamp: settlement.CreatedAt.Unix(),
	})
	return settlement, nil
}

// RefundNative moves amount from the treasury back to recipient. Only the
// stored authority may refund. The session id is recorded but not validated
// against prior settlements and no refundable balance is tracked.
func (l *Ledger) RefundNative(ctx context.Context, caller, recipient models.Identity, amount uint64, sessionID string) (models.Refund, error) {
	return l.refund(ctx, caller, recipient, nil, amount, sessionID)
}

// RefundToken is RefundNative for the fungible token identified by mint.
func (l *Ledger) RefundToken(ctx context.Context, caller, recipient, mint models.Identity, amount uint64, sessionID string) (models.Refund, error) {
	return l.refund(ctx, caller, recipient, &mint, amount, sessionID)
}

func (l *Ledger) refund(ctx context.Context, caller, recipient models.Identity, mint *models.Identity, amount uint64, sessionID string) (models.Refund, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	account, err := l.getAccount(ctx)
	if err != nil {
		return models.Refund{}, err
	}
	if caller != account.Authority {
		return models.Refund{}, ErrUnauthorized
	}
	if amount == 0 {
		return models.Refund{}, ErrInvalidAmount
	}
	if err := treasury.Verify(account.Treasury, account.Bump, l.seed, l.programID); err != nil {
		return models.Refund{}, ErrInvalidTreasuryAddress
	}

	if err := l.transfer(ctx, mint, account.Treasury, recipient, amount); err != nil {
		return models.Refund{}, errors.Join(ErrTransferFailed, err)
	}

	refund := models.Refund{
		ID:        l.newID(),
		SessionID: sessionID,
		Recipient: recipient,
		Mint:      mint,
		Amount:    amount,
		CreatedAt: l.now().UTC(),
	}
	if err := l.store.SaveRefund(ctx, refund); err != nil {
		if revErr := l.transfer(ctx, mint, recipient, account.Treasury, amount); revErr != nil {
			err = errors.Join(err, fmt.Errorf("reverse transfer: %w", revErr))
		}
		return models.Refund{}, fmt.Errorf("commit refund: %w", err)
	}

	l.publish(TopicPaymentRefunded, events.PaymentRefunded{
		Recipient: recipient.String(),
		Token:     mintString(mint),
		Amount:    amount,
		SessionID: sessionID,
	})
	return refund, nil
}

// SetPaused flips the circuit breaker. Only the stored authority may call it;
// it has no other side effects.
func (l *Ledger) SetPaused(ctx context.Context, caller models.Identity, paused bool) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	account, err := l.getAccount(ctx)
	if err != nil {
		return err
	}
	if caller != account.Authority {
		return ErrUnauthorized
	}
	if err := l.store.SetPaused(ctx, paused); err != nil {
		return fmt.Errorf("set paused: %w", err)
	}
	return nil
}

// Account returns the ledger account header.
func (l *Ledger) Account(ctx context.Context) (models.LedgerAccount, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.getAccount(ctx)
}

// Settlements returns the settlement history, oldest first.
func (l *Ledger) Settlements(ctx context.Context) ([]models.Settlement, error) {
	return l.store.GetSettlements(ctx)
}

// Refunds returns the refund history, oldest first.
func (l *Ledger) Refunds(ctx context.Context) ([]models.Refund, error) {
	return l.store.GetRefunds(ctx)
}

func (l *Ledger) getAccount(ctx context.Context) (models.LedgerAccount, error) {
	account, err := l.store.GetAccount(ctx)
	if err != nil {
		if errors.Is(err, interfaces.ErrAccountNotFound) {
			return models.LedgerAccount{}, ErrNotInitialized
		}
		return models.LedgerAccount{}, fmt.Errorf("load account: %w", err)
	}
	return account, nil
}

func (l *Ledger) transfer(ctx context.Context, mint *models.Identity, from, to models.Identity, amount uint64) error {
	if mint == nil {
		return l.engine.TransferNative(ctx, from, to, amount)
	}
	return l.engine.TransferToken(ctx, *mint, from, to, amount)
}

// publish delivers an event to external observers. The settlement record in
// the store is the durable source of truth; a publish failure is logged and
// does not roll back a committed operation.
func (l *Ledger) publish(topic string, event any) {
	if err := l.publisher.Publish(topic, event); err != nil {
		log.Printf("publish %s: %v", topic, err)
	}
}

func mintString(mint *models.Identity) *string {
	if mint == nil {
		return nil
	}
	s := mint.String()
	return &s
}
