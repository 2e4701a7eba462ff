package service

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/dafibh/ledger/ledger-backend/internal/domain"
	"github.com/dafibh/ledger/ledger-backend/internal/event"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

// TransactionService handles single transaction creation
type TransactionService struct {
	ledger         domain.LedgerTxManager
	eventPublisher event.Publisher
}

// NewTransactionService creates a new TransactionService
func NewTransactionService(ledger domain.LedgerTxManager) *TransactionService {
	return &TransactionService{ledger: ledger}
}

// SetEventPublisher sets the event publisher for real-time updates
func (s *TransactionService) SetEventPublisher(publisher event.Publisher) {
	s.eventPublisher = publisher
}

func (s *TransactionService) publishEvent(ev event.Event) {
	if s.eventPublisher != nil {
		s.eventPublisher.Publish(ev)
	}
}

// CreateTransactionInput holds the input for creating a transaction
type CreateTransactionInput struct {
	Title    string
	Value    decimal.Decimal
	Type     domain.TransactionType
	Category string
}

// validateValue accepts non-negative amounts with at most two decimal places
// that fit the stored NUMERIC(14,2) column
func validateValue(value decimal.Decimal) error {
	if value.IsNegative() || value.GreaterThan(domain.MaxTransactionValue) {
		return domain.ErrInvalidValue
	}
	if !value.Equal(value.Round(2)) {
		return domain.ErrInvalidValue
	}
	return nil
}

func validateTitle(title string) (string, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return "", domain.ErrTitleRequired
	}
	if utf8.RuneCountInString(title) > domain.MaxTransactionTitleLength {
		return "", domain.ErrTitleTooLong
	}
	return title, nil
}

// CreateTransaction records one transaction. An outcome that would push total
// outcomes above total incomes is rejected and nothing is written.
func (s *TransactionService) CreateTransaction(ctx context.Context, input CreateTransactionInput) (*domain.Transaction, error) {
	// Type is checked before anything else, including storage
	if !input.Type.Valid() {
		return nil, domain.ErrInvalidTransactionType
	}

	title, err := validateTitle(input.Title)
	if err != nil {
		return nil, err
	}
	categoryTitle, err := validateCategoryTitle(input.Category)
	if err != nil {
		return nil, err
	}
	if err := validateValue(input.Value); err != nil {
		return nil, err
	}

	var (
		created         *domain.Transaction
		categoryCreated *domain.Category
	)
	err = s.ledger.WithinLedgerTx(ctx, func(ctx context.Context, repos domain.LedgerRepositories) error {
		existing, err := repos.Transactions.FindAll(ctx)
		if err != nil {
			return fmt.Errorf("load transactions: %w", err)
		}

		if input.Type == domain.TransactionTypeOutcome {
			balance := domain.ComputeBalance(existing)
			if !balance.CanAfford(input.Value) {
				return domain.ErrInsufficientBalance
			}
		}

		category, isNew, err := resolveCategory(ctx, repos.Categories, categoryTitle)
		if err != nil {
			return err
		}
		if isNew {
			categoryCreated = category
		}

		created, err = repos.Transactions.Create(ctx, &domain.Transaction{
			Title:      title,
			Value:      input.Value,
			Type:       input.Type,
			CategoryID: category.ID,
			Category:   category,
		})
		if err != nil {
			return fmt.Errorf("create transaction: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Info().
		Str("transaction_id", created.ID.String()).
		Str("type", string(created.Type)).
		Str("value", created.Value.StringFixed(2)).
		Msg("Transaction created")

	if categoryCreated != nil {
		s.publishEvent(event.CategoryCreated(categoryCreated))
	}
	s.publishEvent(event.TransactionCreated(created))

	return created, nil
}
