package service

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/dafibh/ledger/ledger-backend/internal/domain"
	"github.com/dafibh/ledger/ledger-backend/internal/event"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// ImportService bulk imports transactions from uploaded CSV files
type ImportService struct {
	ledger         domain.LedgerTxManager
	uploads        domain.UploadStore
	eventPublisher event.Publisher
}

// NewImportService creates a new ImportService
func NewImportService(ledger domain.LedgerTxManager, uploads domain.UploadStore) *ImportService {
	return &ImportService{
		ledger:  ledger,
		uploads: uploads,
	}
}

// SetEventPublisher sets the event publisher for real-time updates
func (s *ImportService) SetEventPublisher(publisher event.Publisher) {
	s.eventPublisher = publisher
}

func (s *ImportService) publishEvent(ev event.Event) {
	if s.eventPublisher != nil {
		s.eventPublisher.Publish(ev)
	}
}

// ImportResult describes a completed import
type ImportResult struct {
	Transactions      []*domain.Transaction `json:"transactions"`
	CategoriesCreated []*domain.Category    `json:"categoriesCreated"`
	RowsSkipped       int                   `json:"rowsSkipped"`
}

// ImportTransactions reads the stored artifact called filename and records
// every accepted row. Imports do not check solvency. The artifact is removed
// whether or not the import succeeds.
func (s *ImportService) ImportTransactions(ctx context.Context, filename string) (*ImportResult, error) {
	defer s.removeArtifact(ctx, filename)

	if strings.ToLower(filepath.Ext(filename)) != ".csv" {
		return nil, domain.ErrUnsupportedFileType
	}

	f, err := s.uploads.Open(ctx, filename)
	if err != nil {
		return nil, fmt.Errorf("open import file: %w", err)
	}
	defer f.Close()

	reader := newCSVRowReader(f)
	var rows []csvRow
	for row, err := range reader.Rows() {
		if err != nil {
			return nil, err
		}
		rows = append(rows, row)
	}

	result := &ImportResult{
		Transactions:      []*domain.Transaction{},
		CategoriesCreated: []*domain.Category{},
		RowsSkipped:       reader.Skipped(),
	}

	if len(rows) > 0 {
		err = s.ledger.WithinLedgerTx(ctx, func(ctx context.Context, repos domain.LedgerRepositories) error {
			categories, created, err := resolveImportCategories(ctx, repos.Categories, rows)
			if err != nil {
				return err
			}

			transactions := make([]*domain.Transaction, 0, len(rows))
			for _, row := range rows {
				category, ok := categories[row.Category]
				if !ok {
					return fmt.Errorf("line %d: %w", row.Line, domain.ErrInternalConsistency)
				}
				transactions = append(transactions, &domain.Transaction{
					Title:      row.Title,
					Value:      row.Value,
					Type:       row.Type,
					CategoryID: category.ID,
					Category:   category,
				})
			}

			inserted, err := repos.Transactions.CreateMany(ctx, transactions)
			if err != nil {
				return fmt.Errorf("create transactions: %w", err)
			}

			byID := make(map[uuid.UUID]*domain.Category, len(categories))
			for _, c := range categories {
				byID[c.ID] = c
			}
			for _, t := range inserted {
				if t.Category == nil {
					t.Category = byID[t.CategoryID]
				}
			}

			result.Transactions = inserted
			result.CategoriesCreated = created
			return nil
		})
		if err != nil {
			return nil, err
		}
	}

	log.Info().
		Str("filename", filename).
		Int("transactions", len(result.Transactions)).
		Int("categories_created", len(result.CategoriesCreated)).
		Int("rows_skipped", result.RowsSkipped).
		Msg("Transactions imported")

	for _, c := range result.CategoriesCreated {
		s.publishEvent(event.CategoryCreated(c))
	}
	s.publishEvent(event.ImportCompleted(event.ImportSummary{
		Filename:          filename,
		TransactionCount:  len(result.Transactions),
		CategoriesCreated: len(result.CategoriesCreated),
		RowsSkipped:       result.RowsSkipped,
	}))

	return result, nil
}

func (s *ImportService) removeArtifact(ctx context.Context, filename string) {
	// cleanup must run even when the request context is already cancelled
	if err := s.uploads.Remove(context.WithoutCancel(ctx), filename); err != nil {
		log.Warn().Err(err).Str("filename", filename).Msg("Failed to remove import artifact")
	}
}

// resolveImportCategories maps every category title referenced by rows to its
// category. Existing titles are fetched with one query and missing titles are
// created with one insert, in order of first appearance.
func resolveImportCategories(ctx context.Context, repo domain.CategoryRepository, rows []csvRow) (map[string]*domain.Category, []*domain.Category, error) {
	titles := make([]string, 0, len(rows))
	seen := make(map[string]bool, len(rows))
	for _, row := range rows {
		if !seen[row.Category] {
			seen[row.Category] = true
			titles = append(titles, row.Category)
		}
	}

	existing, err := repo.FindByTitles(ctx, titles)
	if err != nil {
		return nil, nil, fmt.Errorf("find categories: %w", err)
	}

	lookup := make(map[string]*domain.Category, len(titles))
	for _, c := range existing {
		lookup[c.Title] = c
	}

	var missing []string
	for _, t := range titles {
		if _, ok := lookup[t]; !ok {
			missing = append(missing, t)
		}
	}

	created := []*domain.Category{}
	if len(missing) > 0 {
		created, err = repo.CreateMany(ctx, missing)
		if err != nil {
			return nil, nil, fmt.Errorf("create categories: %w", err)
		}
		for _, c := range created {
			lookup[c.Title] = c
		}
	}

	return lookup, created, nil
}
