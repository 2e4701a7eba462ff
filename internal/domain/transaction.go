package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type TransactionType string

const (
	TransactionTypeIncome  TransactionType = "income"
	TransactionTypeOutcome TransactionType = "outcome"
)

// Valid reports whether t is one of the two ledger directions
func (t TransactionType) Valid() bool {
	return t == TransactionTypeIncome || t == TransactionTypeOutcome
}

type Transaction struct {
	ID         uuid.UUID       `json:"id"`
	Title      string          `json:"title"`
	Value      decimal.Decimal `json:"value"`
	Type       TransactionType `json:"type"`
	CategoryID uuid.UUID       `json:"categoryId"`
	Category   *Category       `json:"category,omitempty"`
	CreatedAt  time.Time       `json:"createdAt"`
	UpdatedAt  time.Time       `json:"updatedAt"`
}

// Validation constants
const (
	MaxTransactionTitleLength = 255
)

// MaxTransactionValue is the largest amount a NUMERIC(14,2) column holds
var MaxTransactionValue = decimal.RequireFromString("999999999999.99")

type TransactionRepository interface {
	FindAll(ctx context.Context) ([]*Transaction, error)
	Create(ctx context.Context, transaction *Transaction) (*Transaction, error)
	CreateMany(ctx context.Context, transactions []*Transaction) ([]*Transaction, error)
}

// LedgerRepositories are the stores bound to a single ledger transaction
type LedgerRepositories struct {
	Transactions TransactionRepository
	Categories   CategoryRepository
}

// LedgerTxManager runs fn atomically with respect to every other ledger writer.
// Balance reads made through repos inside fn cannot be invalidated by a
// concurrent insert before fn returns.
type LedgerTxManager interface {
	WithinLedgerTx(ctx context.Context, fn func(ctx context.Context, repos LedgerRepositories) error) error
}
