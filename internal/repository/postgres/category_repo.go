package postgres

import (
	"context"
	"fmt"

	"github.com/dafibh/ledger/ledger-backend/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

const categoryColumns = "id, title, created_at, updated_at"

// CategoryRepository implements domain.CategoryRepository using PostgreSQL
type CategoryRepository struct {
	db DBTX
}

// NewCategoryRepository creates a new CategoryRepository
func NewCategoryRepository(db DBTX) *CategoryRepository {
	return &CategoryRepository{db: db}
}

// FindByTitles returns the categories whose title exactly matches one of titles
func (r *CategoryRepository) FindByTitles(ctx context.Context, titles []string) ([]*domain.Category, error) {
	if len(titles) == 0 {
		return []*domain.Category{}, nil
	}

	rows, err := r.db.Query(ctx,
		"SELECT "+categoryColumns+" FROM categories WHERE title = ANY($1::text[])",
		titles,
	)
	if err != nil {
		return nil, fmt.Errorf("find categories by title: %w", err)
	}
	return collectCategories(rows)
}

// CreateMany bulk inserts titles. A title that already exists, or that a
// concurrent writer inserts first, is returned as the stored row.
func (r *CategoryRepository) CreateMany(ctx context.Context, titles []string) ([]*domain.Category, error) {
	// ON CONFLICT DO UPDATE rejects a title appearing twice in one statement
	unique := make([]string, 0, len(titles))
	seen := make(map[string]bool, len(titles))
	for _, title := range titles {
		if !seen[title] {
			seen[title] = true
			unique = append(unique, title)
		}
	}
	if len(unique) == 0 {
		return []*domain.Category{}, nil
	}

	rows, err := r.db.Query(ctx, `
		INSERT INTO categories (title)
		SELECT unnest($1::text[])
		ON CONFLICT (title) DO UPDATE SET title = EXCLUDED.title
		RETURNING `+categoryColumns,
		unique,
	)
	if err != nil {
		return nil, fmt.Errorf("create categories: %w", err)
	}
	return collectCategories(rows)
}

// GetAll retrieves every category ordered by title
func (r *CategoryRepository) GetAll(ctx context.Context) ([]*domain.Category, error) {
	rows, err := r.db.Query(ctx, "SELECT "+categoryColumns+" FROM categories ORDER BY title")
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	return collectCategories(rows)
}

// Helper functions

func collectCategories(rows pgx.Rows) ([]*domain.Category, error) {
	categories, err := pgx.CollectRows(rows, scanCategory)
	if err != nil {
		return nil, err
	}
	if categories == nil {
		return []*domain.Category{}, nil
	}
	return categories, nil
}

func scanCategory(row pgx.CollectableRow) (*domain.Category, error) {
	var (
		id        pgtype.UUID
		category  domain.Category
		createdAt pgtype.Timestamptz
		updatedAt pgtype.Timestamptz
	)
	if err := row.Scan(&id, &category.Title, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	category.ID = pgToUUID(id)
	category.CreatedAt = createdAt.Time
	category.UpdatedAt = updatedAt.Time
	return &category, nil
}
