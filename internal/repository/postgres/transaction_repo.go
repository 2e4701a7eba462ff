package postgres

import (
	"context"
	"fmt"

	"github.com/dafibh/ledger/ledger-backend/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

const transactionColumns = "id, title, value, type, category_id, created_at, updated_at"

// TransactionRepository implements domain.TransactionRepository using PostgreSQL
type TransactionRepository struct {
	db DBTX
}

// NewTransactionRepository creates a new TransactionRepository
func NewTransactionRepository(db DBTX) *TransactionRepository {
	return &TransactionRepository{db: db}
}

// FindAll retrieves every transaction with its category, oldest first
func (r *TransactionRepository) FindAll(ctx context.Context) ([]*domain.Transaction, error) {
	rows, err := r.db.Query(ctx, `
		SELECT t.id, t.title, t.value, t.type, t.category_id, t.created_at, t.updated_at,
		       c.title, c.created_at, c.updated_at
		FROM transactions t
		JOIN categories c ON c.id = t.category_id
		ORDER BY t.created_at, t.id`)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}

	transactions, err := pgx.CollectRows(rows, scanTransactionWithCategory)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	if transactions == nil {
		return []*domain.Transaction{}, nil
	}
	return transactions, nil
}

// Create inserts a single transaction
func (r *TransactionRepository) Create(ctx context.Context, transaction *domain.Transaction) (*domain.Transaction, error) {
	value, err := decimalToPgNumeric(transaction.Value)
	if err != nil {
		return nil, fmt.Errorf("invalid value: %w", err)
	}

	rows, err := r.db.Query(ctx, `
		INSERT INTO transactions (title, value, type, category_id)
		VALUES ($1, $2, $3, $4)
		RETURNING `+transactionColumns,
		transaction.Title, value, string(transaction.Type), uuidToPg(transaction.CategoryID),
	)
	if err != nil {
		return nil, fmt.Errorf("create transaction: %w", err)
	}

	created, err := pgx.CollectExactlyOneRow(rows, scanTransaction)
	if err != nil {
		return nil, fmt.Errorf("create transaction: %w", err)
	}
	created.Category = transaction.Category
	return created, nil
}

// CreateMany inserts all transactions in a single statement
func (r *TransactionRepository) CreateMany(ctx context.Context, transactions []*domain.Transaction) ([]*domain.Transaction, error) {
	if len(transactions) == 0 {
		return []*domain.Transaction{}, nil
	}

	titles := make([]string, len(transactions))
	values := make([]pgtype.Numeric, len(transactions))
	types := make([]string, len(transactions))
	categoryIDs := make([]pgtype.UUID, len(transactions))
	for i, t := range transactions {
		value, err := decimalToPgNumeric(t.Value)
		if err != nil {
			return nil, fmt.Errorf("invalid value for %q: %w", t.Title, err)
		}
		titles[i] = t.Title
		values[i] = value
		types[i] = string(t.Type)
		categoryIDs[i] = uuidToPg(t.CategoryID)
	}

	rows, err := r.db.Query(ctx, `
		INSERT INTO transactions (title, value, type, category_id)
		SELECT * FROM unnest($1::text[], $2::numeric[], $3::text[], $4::uuid[])
		RETURNING `+transactionColumns,
		titles, values, types, categoryIDs,
	)
	if err != nil {
		return nil, fmt.Errorf("bulk create transactions: %w", err)
	}

	created, err := pgx.CollectRows(rows, scanTransaction)
	if err != nil {
		return nil, fmt.Errorf("bulk create transactions: %w", err)
	}
	return created, nil
}

// Helper functions

func scanTransaction(row pgx.CollectableRow) (*domain.Transaction, error) {
	var (
		id          pgtype.UUID
		categoryID  pgtype.UUID
		value       pgtype.Numeric
		txType      string
		createdAt   pgtype.Timestamptz
		updatedAt   pgtype.Timestamptz
		transaction domain.Transaction
	)
	if err := row.Scan(&id, &transaction.Title, &value, &txType, &categoryID, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	transaction.ID = pgToUUID(id)
	transaction.Value = pgNumericToDecimal(value)
	transaction.Type = domain.TransactionType(txType)
	transaction.CategoryID = pgToUUID(categoryID)
	transaction.CreatedAt = createdAt.Time
	transaction.UpdatedAt = updatedAt.Time
	return &transaction, nil
}

func scanTransactionWithCategory(row pgx.CollectableRow) (*domain.Transaction, error) {
	var (
		id                pgtype.UUID
		categoryID        pgtype.UUID
		value             pgtype.Numeric
		txType            string
		createdAt         pgtype.Timestamptz
		updatedAt         pgtype.Timestamptz
		categoryTitle     string
		categoryCreatedAt pgtype.Timestamptz
		categoryUpdatedAt pgtype.Timestamptz
		transaction       domain.Transaction
	)
	err := row.Scan(
		&id, &transaction.Title, &value, &txType, &categoryID, &createdAt, &updatedAt,
		&categoryTitle, &categoryCreatedAt, &categoryUpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	transaction.ID = pgToUUID(id)
	transaction.Value = pgNumericToDecimal(value)
	transaction.Type = domain.TransactionType(txType)
	transaction.CategoryID = pgToUUID(categoryID)
	transaction.CreatedAt = createdAt.Time
	transaction.UpdatedAt = updatedAt.Time
	transaction.Category = &domain.Category{
		ID:        transaction.CategoryID,
		Title:     categoryTitle,
		CreatedAt: categoryCreatedAt.Time,
		UpdatedAt: categoryUpdatedAt.Time,
	}
	return &transaction, nil
}
