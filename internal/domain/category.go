package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type Category struct {
	ID        uuid.UUID `json:"id"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

const (
	MaxCategoryTitleLength = 100
)

// CategoryRepository looks categories up by exact, case-sensitive title
type CategoryRepository interface {
	FindByTitles(ctx context.Context, titles []string) ([]*Category, error)
	// CreateMany inserts the given titles in one statement and returns a row for
	// every title, including titles another writer created concurrently.
	CreateMany(ctx context.Context, titles []string) ([]*Category, error)
	GetAll(ctx context.Context) ([]*Category, error)
}
