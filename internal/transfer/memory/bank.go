// Package memory provides an in-process TransferEngine with per-account
// balances. It stands in for the external asset-transfer primitive: each
// transfer is all-or-nothing and authenticated by the caller-supplied
// identities (the host is trusted to have verified signatures).
package memory

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/tokenforge/settlement-ledger/internal/interfaces"
	"github.com/tokenforge/settlement-ledger/internal/models"
)

var (
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrAccountFrozen     = errors.New("account is frozen")
)

// Bank tracks native and per-mint token balances in memory.
type Bank struct {
	mu     sync.Mutex
	native map[models.Identity]uint64
	tokens map[models.Identity]map[models.Identity]uint64 // mint -> account -> balance
	frozen map[models.Identity]bool
}

func NewBank() *Bank {
	return &Bank{
		native: make(map[models.Identity]uint64),
		tokens: make(map[models.Identity]map[models.Identity]uint64),
		frozen: make(map[models.Identity]bool),
	}
}

// Credit adds native balance to an account. Test and seed helper.
func (b *Bank) Credit(account models.Identity, amount uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.native[account] += amount
}

// CreditToken adds token balance for a mint to an account. Test and seed helper.
func (b *Bank) CreditToken(mint, account models.Identity, amount uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.tokens[mint] == nil {
		b.tokens[mint] = make(map[models.Identity]uint64)
	}
	b.tokens[mint][account] += amount
}

// Freeze marks an account so any transfer touching it fails.
func (b *Bank) Freeze(account models.Identity) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.frozen[account] = true
}

// Balance returns an account's native balance.
func (b *Bank) Balance(account models.Identity) uint64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.native[account]
}

// TokenBalance returns an account's balance for the given mint.
func (b *Bank) TokenBalance(mint, account models.Identity) uint64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.tokens[mint][account]
}

func (b *Bank) TransferNative(ctx context.Context, from, to models.Identity, amount uint64) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if err := b.check(from, to, b.native[from], amount); err != nil {
		return err
	}
	b.native[from] -= amount
	b.native[to] += amount
	return nil
}

func (b *Bank) TransferToken(ctx context.Context, mint, from, to models.Identity, amount uint64) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	balances := b.tokens[mint]
	if err := b.check(from, to, balances[from], amount); err != nil {
		return err
	}
	if balances == nil {
		balances = make(map[models.Identity]uint64)
		b.tokens[mint] = balances
	}
	balances[from] -= amount
	balances[to] += amount
	return nil
}

func (b *Bank) check(from, to models.Identity, balance, amount uint64) error {
	if b.frozen[from] {
		return fmt.Errorf("%w: %s", ErrAccountFrozen, from)
	}
	if b.frozen[to] {
		return fmt.Errorf("%w: %s", ErrAccountFrozen, to)
	}
	if balance < amount {
		return fmt.Errorf("%w: have %d, need %d", ErrInsufficientFunds, balance, amount)
	}
	return nil
}

// Compile-time check: ensure Bank implements TransferEngine.
var _ interfaces.TransferEngine = (*Bank)(nil)
