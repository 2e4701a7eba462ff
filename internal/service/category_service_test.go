package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/dafibh/ledger/ledger-backend/internal/domain"
	"github.com/dafibh/ledger/ledger-backend/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCategoryService_GetOrCreate_CreatesOnce(t *testing.T) {
	repo := testutil.NewMockCategoryRepository()
	publisher := &testutil.MockEventPublisher{}
	svc := NewCategoryService(repo)
	svc.SetEventPublisher(publisher)

	first, err := svc.GetOrCreate(context.Background(), "Travel")
	require.NoError(t, err)
	second, err := svc.GetOrCreate(context.Background(), " Travel ")
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.Len(t, repo.Order, 1)
	assert.Equal(t, 1, repo.CreateManyCalls)

	events := publisher.Published()
	require.Len(t, events, 1)
	assert.Equal(t, "category.created", events[0].Type)
}

func TestCategoryService_GetOrCreate_Validation(t *testing.T) {
	svc := NewCategoryService(testutil.NewMockCategoryRepository())

	_, err := svc.GetOrCreate(context.Background(), "   ")
	assert.ErrorIs(t, err, domain.ErrCategoryRequired)

	_, err = svc.GetOrCreate(context.Background(), strings.Repeat("x", domain.MaxCategoryTitleLength+1))
	assert.ErrorIs(t, err, domain.ErrCategoryTitleTooLong)
}

func TestCategoryService_GetOrCreate_RepositoryError(t *testing.T) {
	repo := testutil.NewMockCategoryRepository()
	repo.FindByTitlesErr = errors.New("connection refused")
	svc := NewCategoryService(repo)

	_, err := svc.GetOrCreate(context.Background(), "Travel")
	require.Error(t, err)
	assert.Zero(t, repo.CreateManyCalls)
}

// lockedCategoryRepo guards the mock for concurrent use
type lockedCategoryRepo struct {
	mu   sync.Mutex
	repo *testutil.MockCategoryRepository
}

func (l *lockedCategoryRepo) FindByTitles(ctx context.Context, titles []string) ([]*domain.Category, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.repo.FindByTitles(ctx, titles)
}

func (l *lockedCategoryRepo) CreateMany(ctx context.Context, titles []string) ([]*domain.Category, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.repo.CreateMany(ctx, titles)
}

func (l *lockedCategoryRepo) GetAll(ctx context.Context) ([]*domain.Category, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.repo.GetAll(ctx)
}

func TestCategoryService_GetOrCreate_Concurrent(t *testing.T) {
	mock := testutil.NewMockCategoryRepository()
	svc := NewCategoryService(&lockedCategoryRepo{repo: mock})

	var wg sync.WaitGroup
	ids := make(chan string, 50)
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c, err := svc.GetOrCreate(context.Background(), "Travel")
			if err != nil {
				t.Errorf("GetOrCreate: %v", err)
				return
			}
			ids <- c.ID.String()
		}()
	}
	wg.Wait()
	close(ids)

	distinct := make(map[string]bool)
	for id := range ids {
		distinct[id] = true
	}
	assert.Len(t, distinct, 1)
	assert.Len(t, mock.Order, 1)
}

// ctxCheckingCategoryRepo fails like a database driver once ctx is done
type ctxCheckingCategoryRepo struct {
	repo *testutil.MockCategoryRepository
}

func (r *ctxCheckingCategoryRepo) FindByTitles(ctx context.Context, titles []string) ([]*domain.Category, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return r.repo.FindByTitles(ctx, titles)
}

func (r *ctxCheckingCategoryRepo) CreateMany(ctx context.Context, titles []string) ([]*domain.Category, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return r.repo.CreateMany(ctx, titles)
}

func (r *ctxCheckingCategoryRepo) GetAll(ctx context.Context) ([]*domain.Category, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return r.repo.GetAll(ctx)
}

func TestCategoryService_GetOrCreate_IgnoresCallerCancellation(t *testing.T) {
	mock := testutil.NewMockCategoryRepository()
	svc := NewCategoryService(&ctxCheckingCategoryRepo{repo: mock})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	category, err := svc.GetOrCreate(ctx, "Travel")
	require.NoError(t, err)
	assert.Equal(t, "Travel", category.Title)
	assert.Len(t, mock.Order, 1)

	again, err := svc.GetOrCreate(context.Background(), "Travel")
	require.NoError(t, err)
	assert.Equal(t, category.ID, again.ID)
}

func TestCategoryService_List(t *testing.T) {
	repo := testutil.NewMockCategoryRepository()
	svc := NewCategoryService(repo)

	categories, err := svc.List(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, categories)
	assert.Empty(t, categories)

	repo.AddCategory("Food")
	repo.AddCategory("Work")
	categories, err = svc.List(context.Background())
	require.NoError(t, err)
	assert.Len(t, categories, 2)
}
