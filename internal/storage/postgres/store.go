// Package postgres provides the durable LedgerStore backed by lib/pq. The
// sessions unique index covers all history, so replay protection does not
// depend on the bounded in-memory index used by the development store.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"github.com/tokenforge/settlement-ledger/internal/interfaces"
	"github.com/tokenforge/settlement-ledger/internal/models"
)

const uniqueViolation = "23505"

type PostgresLedgerStore struct {
	db *sql.DB
}

func NewPostgresLedgerStore(db *sql.DB) *PostgresLedgerStore {
	return &PostgresLedgerStore{db: db}
}

// EnsureSchema creates the ledger tables if they do not exist yet.
func (p *PostgresLedgerStore) EnsureSchema(ctx context.Context) error {
	const schema = `
	CREATE TABLE IF NOT EXISTS ledger_account (
		id         integer PRIMARY KEY CHECK (id = 1),
		authority  text NOT NULL,
		treasury   text NOT NULL,
		bump       smallint NOT NULL,
		paused     boolean NOT NULL,
		created_at timestamptz NOT NULL
	);
	CREATE TABLE IF NOT EXISTS settlements (
		id           text PRIMARY KEY,
		session_id   text NOT NULL UNIQUE,
		payer        text NOT NULL,
		mint         text,
		amount       numeric(20,0) NOT NULL,
		service_type text NOT NULL,
		created_at   timestamptz NOT NULL
	);
	CREATE TABLE IF NOT EXISTS refunds (
		id         text PRIMARY KEY,
		session_id text NOT NULL,
		recipient  text NOT NULL,
		mint       text,
		amount     numeric(20,0) NOT NULL,
		created_at timestamptz NOT NULL
	);`

	if _, err := p.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}

func (p *PostgresLedgerStore) CreateAccount(ctx context.Context, account models.LedgerAccount) error {
	const query = `INSERT INTO ledger_account (id, authority, treasury, bump, paused, created_at)
	VALUES (1, $1, $2, $3, $4, $5)`

	_, err := p.db.ExecContext(ctx, query,
		account.Authority.String(), account.Treasury.String(),
		account.Bump, account.Paused, account.CreatedAt)
	if isUniqueViolation(err) {
		return interfaces.ErrAccountExists
	}
	return err
}

func (p *PostgresLedgerStore) GetAccount(ctx context.Context) (models.LedgerAccount, error) {
	const query = `SELECT authority, treasury, bump, paused, created_at FROM ledger_account WHERE id = 1`

	var (
		account   models.LedgerAccount
		authority string
		treasury  string
	)
	err := p.db.QueryRowContext(ctx, query).Scan(
		&authority, &treasury, &account.Bump, &account.Paused, &account.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return models.LedgerAccount{}, interfaces.ErrAccountNotFound
	}
	if err != nil {
		return models.LedgerAccount{}, err
	}
	if account.Authority, err = models.ParseIdentity(authority); err != nil {
		return models.LedgerAccount{}, err
	}
	if account.Treasury, err = models.ParseIdentity(treasury); err != nil {
		return models.LedgerAccount{}, err
	}
	return account, nil
}

func (p *PostgresLedgerStore) SetPaused(ctx context.Context, paused bool) error {
	const query = `UPDATE ledger_account SET paused = $1 WHERE id = 1`

	res, err := p.db.ExecContext(ctx, query, paused)
	if err != nil {
		return err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return interfaces.ErrAccountNotFound
	}
	return nil
}

func (p *PostgresLedgerStore) SessionProcessed(ctx context.Context, sessionID string) (bool, error) {
	const query = `SELECT 1 FROM settlements WHERE session_id = $1 LIMIT 1`

	var exists int
	err := p.db.QueryRowContext(ctx, query, sessionID).Scan(&exists)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// SaveSettlement relies on the session_id unique index: the insert and the
// session membership commit as one statement, so a duplicate session writes
// nothing.
func (p *PostgresLedgerStore) SaveSettlement(ctx context.Context, settlement models.Settlement) error {
	const query = `INSERT INTO settlements (id, session_id, payer, mint, amount, service_type, created_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err := p.db.ExecContext(ctx, query,
		settlement.ID, settlement.SessionID, settlement.Payer.String(),
		mintValue(settlement.Mint), settlement.Amount, settlement.ServiceType, settlement.CreatedAt)
	if isUniqueViolation(err) {
		return interfaces.ErrSessionExists
	}
	return err
}

func (p *PostgresLedgerStore) SaveRefund(ctx context.Context, refund models.Refund) error {
	const query = `INSERT INTO refunds (id, session_id, recipient, mint, amount, created_at)
	VALUES ($1, $2, $3, $4, $5, $6)`

	_, err := p.db.ExecContext(ctx, query,
		refund.ID, refund.SessionID, refund.Recipient.String(),
		mintValue(refund.Mint), refund.Amount, refund.CreatedAt)
	return err
}

func (p *PostgresLedgerStore) GetSettlements(ctx context.Context) ([]models.Settlement, error) {
	const query = `SELECT id, session_id, payer, mint, amount, service_type, created_at
	FROM settlements ORDER BY created_at, id`

	rows, err := p.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var settlements []models.Settlement
	for rows.Next() {
		var (
			s     models.Settlement
			payer string
			mint  sql.NullString
		)
		if err := rows.Scan(&s.ID, &s.SessionID, &payer, &mint, &s.Amount, &s.ServiceType, &s.CreatedAt); err != nil {
			return nil, err
		}
		if s.Payer, err = models.ParseIdentity(payer); err != nil {
			return nil, err
		}
		if s.Mint, err = parseMint(mint); err != nil {
			return nil, err
		}
		settlements = append(settlements, s)
	}
	return settlements, rows.Err()
}

func (p *PostgresLedgerStore) GetRefunds(ctx context.Context) ([]models.Refund, error) {
	const query = `SELECT id, session_id, recipient, mint, amount, created_at
	FROM refunds ORDER BY created_at, id`

	rows, err := p.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var refunds []models.Refund
	for rows.Next() {
		var (
			r         models.Refund
			recipient string
			mint      sql.NullString
		)
		if err := rows.Scan(&r.ID, &r.SessionID, &recipient, &mint, &r.Amount, &r.CreatedAt); err != nil {
			return nil, err
		}
		if r.Recipient, err = models.ParseIdentity(recipient); err != nil {
			return nil, err
		}
		if r.Mint, err = parseMint(mint); err != nil {
			return nil, err
		}
		refunds = append(refunds, r)
	}
	return refunds, rows.Err()
}

func mintValue(mint *models.Identity) sql.NullString {
	if mint == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: mint.String(), Valid: true}
}

func parseMint(mint sql.NullString) (*models.Identity, error) {
	if !mint.Valid {
		return nil, nil
	}
	id, err := models.ParseIdentity(mint.String)
	if err != nil {
		return nil, err
	}
	return &id, nil
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == uniqueViolation
}

// Compile-time check: ensure PostgresLedgerStore implements LedgerStore.
var _ interfaces.LedgerStore = (*PostgresLedgerStore)(nil)
