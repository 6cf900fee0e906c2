// Package memory provides an in-memory LedgerStore used by tests and the
// development server. It is thread-safe for concurrent access.
package memory

import (
	"context"
	"sync"

	"github.com/tokenforge/settlement-ledger/internal/interfaces"
	"github.com/tokenforge/settlement-ledger/internal/models"
)

// DefaultSessionCapacity bounds the in-memory processed-session index when no
// explicit capacity is given.
const DefaultSessionCapacity = 65536

// MemoryLedgerStore is an in-memory implementation of interfaces.LedgerStore.
// Settlement and refund records are kept in full; the processed-session index
// is capacity-bounded (see sessionIndex), since each tracked session consumes
// storage forever in an unbounded design.
type MemoryLedgerStore struct {
	mu          sync.Mutex
	account     *models.LedgerAccount
	settlements []models.Settlement
	refunds     []models.Refund
	sessions    *sessionIndex
}

// NewMemoryLedgerStore creates a store whose session index holds at most
// sessionCapacity entries; zero or negative selects DefaultSessionCapacity.
func NewMemoryLedgerStore(sessionCapacity int) *MemoryLedgerStore {
	if sessionCapacity <= 0 {
		sessionCapacity = DefaultSessionCapacity
	}
	return &MemoryLedgerStore{
		sessions: newSessionIndex(sessionCapacity),
	}
}

func (m *MemoryLedgerStore) CreateAccount(ctx context.Context, account models.LedgerAccount) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.account != nil {
		return interfaces.ErrAccountExists
	}
	acct := account
	m.account = &acct
	return nil
}

func (m *MemoryLedgerStore) GetAccount(ctx context.Context) (models.LedgerAccount, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.account == nil {
		return models.LedgerAccount{}, interfaces.ErrAccountNotFound
	}
	return *m.account, nil
}

func (m *MemoryLedgerStore) SetPaused(ctx context.Context, paused bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.account == nil {
		return interfaces.ErrAccountNotFound
	}
	m.account.Paused = paused
	return nil
}

func (m *MemoryLedgerStore) SessionProcessed(ctx context.Context, sessionID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sessions.seen(sessionID), nil
}

// SaveSettlement records the settlement and marks its session processed in
// one critical section: a duplicate session writes nothing and returns
// interfaces.ErrSessionExists.
func (m *MemoryLedgerStore) SaveSettlement(ctx context.Context, settlement models.Settlement) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.sessions.seen(settlement.SessionID) {
		return interfaces.ErrSessionExists
	}
	m.sessions.add(settlement.SessionID)
	m.settlements = append(m.settlements, settlement)
	return nil
}

func (m *MemoryLedgerStore) SaveRefund(ctx context.Context, refund models.Refund) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.refunds = append(m.refunds, refund)
	return nil
}

// GetSettlements returns a copy so callers cannot mutate internal state.
func (m *MemoryLedgerStore) GetSettlements(ctx context.Context) ([]models.Settlement, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	copied := make([]models.Settlement, len(m.settlements))
	copy(copied, m.settlements)
	return copied, nil
}

func (m *MemoryLedgerStore) GetRefunds(ctx context.Context) ([]models.Refund, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	copied := make([]models.Refund, len(m.refunds))
	copy(copied, m.refunds)
	return copied, nil
}

// Compile-time check: ensure MemoryLedgerStore implements LedgerStore.
var _ interfaces.LedgerStore = (*MemoryLedgerStore)(nil)
