package service

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/dafibh/ledger/ledger-backend/internal/domain"
	"github.com/dafibh/ledger/ledger-backend/internal/event"
	"golang.org/x/sync/singleflight"
)

// CategoryService handles category lookup and creation outside of a ledger transaction
type CategoryService struct {
	categoryRepo   domain.CategoryRepository
	group          singleflight.Group
	eventPublisher event.Publisher
}

// NewCategoryService creates a new CategoryService
func NewCategoryService(categoryRepo domain.CategoryRepository) *CategoryService {
	return &CategoryService{categoryRepo: categoryRepo}
}

// SetEventPublisher sets the event publisher for real-time updates
func (s *CategoryService) SetEventPublisher(publisher event.Publisher) {
	s.eventPublisher = publisher
}

func (s *CategoryService) publishEvent(ev event.Event) {
	if s.eventPublisher != nil {
		s.eventPublisher.Publish(ev)
	}
}

// validateCategoryTitle trims and checks a category title
func validateCategoryTitle(title string) (string, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return "", domain.ErrCategoryRequired
	}
	if utf8.RuneCountInString(title) > domain.MaxCategoryTitleLength {
		return "", domain.ErrCategoryTitleTooLong
	}
	return title, nil
}

// GetOrCreate returns the category with exactly this title, creating it if absent.
// Concurrent calls for the same title share one lookup, which runs detached
// from the caller that happened to start it.
func (s *CategoryService) GetOrCreate(ctx context.Context, title string) (*domain.Category, error) {
	title, err := validateCategoryTitle(title)
	if err != nil {
		return nil, err
	}

	shared := context.WithoutCancel(ctx)
	v, err, _ := s.group.Do(title, func() (interface{}, error) {
		category, created, err := resolveCategory(shared, s.categoryRepo, title)
		if err != nil {
			return nil, err
		}
		if created {
			s.publishEvent(event.CategoryCreated(category))
		}
		return category, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*domain.Category), nil
}

// List returns every category ordered by title
func (s *CategoryService) List(ctx context.Context) ([]*domain.Category, error) {
	categories, err := s.categoryRepo.GetAll(ctx)
	if err != nil {
		return nil, err
	}
	if categories == nil {
		categories = []*domain.Category{}
	}
	return categories, nil
}

// resolveCategory looks title up and creates it when missing. created is false
// when the category already existed.
func resolveCategory(ctx context.Context, repo domain.CategoryRepository, title string) (*domain.Category, bool, error) {
	existing, err := repo.FindByTitles(ctx, []string{title})
	if err != nil {
		return nil, false, fmt.Errorf("find category: %w", err)
	}
	for _, c := range existing {
		if c.Title == title {
			return c, false, nil
		}
	}

	created, err := repo.CreateMany(ctx, []string{title})
	if err != nil {
		return nil, false, fmt.Errorf("create category: %w", err)
	}
	for _, c := range created {
		if c.Title == title {
			return c, true, nil
		}
	}
	return nil, false, domain.ErrInternalConsistency
}
