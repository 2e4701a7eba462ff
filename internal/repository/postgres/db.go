package postgres

import (
	"context"
	"fmt"

	"github.com/dafibh/ledger/ledger-backend/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// DBTX is satisfied by both *pgxpool.Pool and pgx.Tx
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// ledgerLockKey identifies the advisory lock that serializes ledger writers
const ledgerLockKey int64 = 0x6c6564676572 // "ledger"

// LedgerTxManager implements domain.LedgerTxManager using PostgreSQL
type LedgerTxManager struct {
	pool *pgxpool.Pool
}

// NewLedgerTxManager creates a new LedgerTxManager
func NewLedgerTxManager(pool *pgxpool.Pool) *LedgerTxManager {
	return &LedgerTxManager{pool: pool}
}

// WithinLedgerTx runs fn in a database transaction holding the ledger advisory lock.
// The lock is released on commit or rollback.
func (m *LedgerTxManager) WithinLedgerTx(ctx context.Context, fn func(ctx context.Context, repos domain.LedgerRepositories) error) error {
	tx, err := m.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin ledger transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, "SELECT pg_advisory_xact_lock($1)", ledgerLockKey); err != nil {
		return fmt.Errorf("acquire ledger lock: %w", err)
	}

	repos := domain.LedgerRepositories{
		Transactions: NewTransactionRepository(tx),
		Categories:   NewCategoryRepository(tx),
	}
	if err := fn(ctx, repos); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit ledger transaction: %w", err)
	}
	return nil
}
