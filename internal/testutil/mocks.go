package testutil

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/dafibh/ledger/ledger-backend/internal/domain"
	"github.com/dafibh/ledger/ledger-backend/internal/event"
	"github.com/google/uuid"
)

// MockTransactionRepository is a mock implementation of domain.TransactionRepository
type MockTransactionRepository struct {
	Transactions []*domain.Transaction
	Categories   *MockCategoryRepository

	FindAllErr       error
	CreateErr        error
	CreateManyErr    error
	FindAllCalls     int
	CreateCalls      int
	CreateManyCalls  int
	CreateManyInputs [][]*domain.Transaction
}

// NewMockTransactionRepository creates a new MockTransactionRepository.
// categories is used to attach Category to returned rows and may be nil.
func NewMockTransactionRepository(categories *MockCategoryRepository) *MockTransactionRepository {
	return &MockTransactionRepository{Categories: categories}
}

// FindAll returns every stored transaction in insertion order
func (m *MockTransactionRepository) FindAll(ctx context.Context) ([]*domain.Transaction, error) {
	m.FindAllCalls++
	if m.FindAllErr != nil {
		return nil, m.FindAllErr
	}
	out := make([]*domain.Transaction, len(m.Transactions))
	copy(out, m.Transactions)
	return out, nil
}

// Create stores a single transaction
func (m *MockTransactionRepository) Create(ctx context.Context, tx *domain.Transaction) (*domain.Transaction, error) {
	m.CreateCalls++
	if m.CreateErr != nil {
		return nil, m.CreateErr
	}
	return m.store(tx), nil
}

// CreateMany stores all transactions at once
func (m *MockTransactionRepository) CreateMany(ctx context.Context, txs []*domain.Transaction) ([]*domain.Transaction, error) {
	m.CreateManyCalls++
	m.CreateManyInputs = append(m.CreateManyInputs, txs)
	if m.CreateManyErr != nil {
		return nil, m.CreateManyErr
	}
	out := make([]*domain.Transaction, 0, len(txs))
	for _, tx := range txs {
		out = append(out, m.store(tx))
	}
	return out, nil
}

func (m *MockTransactionRepository) store(tx *domain.Transaction) *domain.Transaction {
	now := time.Now()
	created := *tx
	created.ID = uuid.New()
	created.CreatedAt = now
	created.UpdatedAt = now
	if m.Categories != nil {
		created.Category = m.Categories.ByID[created.CategoryID]
	}
	m.Transactions = append(m.Transactions, &created)
	return &created
}

// AddTransaction adds a transaction to the mock repository (helper for tests)
func (m *MockTransactionRepository) AddTransaction(tx *domain.Transaction) {
	if tx.ID == uuid.Nil {
		tx.ID = uuid.New()
	}
	m.Transactions = append(m.Transactions, tx)
}

// MockCategoryRepository is a mock implementation of domain.CategoryRepository
type MockCategoryRepository struct {
	ByTitle map[string]*domain.Category
	ByID    map[uuid.UUID]*domain.Category
	// Order keeps insertion order for GetAll
	Order []*domain.Category

	FindByTitlesErr   error
	CreateManyErr     error
	FindByTitlesCalls int
	CreateManyCalls   int
	CreateManyInputs  [][]string
	// OmitFromCreate drops titles from CreateMany results to simulate a broken store
	OmitFromCreate map[string]bool
}

// NewMockCategoryRepository creates a new MockCategoryRepository
func NewMockCategoryRepository() *MockCategoryRepository {
	return &MockCategoryRepository{
		ByTitle: make(map[string]*domain.Category),
		ByID:    make(map[uuid.UUID]*domain.Category),
	}
}

// FindByTitles returns the categories whose title matches exactly
func (m *MockCategoryRepository) FindByTitles(ctx context.Context, titles []string) ([]*domain.Category, error) {
	m.FindByTitlesCalls++
	if m.FindByTitlesErr != nil {
		return nil, m.FindByTitlesErr
	}
	seen := make(map[string]bool)
	var out []*domain.Category
	for _, t := range titles {
		if c, ok := m.ByTitle[t]; ok && !seen[t] {
			seen[t] = true
			out = append(out, c)
		}
	}
	return out, nil
}

// CreateMany creates missing titles and returns a row for each distinct title
func (m *MockCategoryRepository) CreateMany(ctx context.Context, titles []string) ([]*domain.Category, error) {
	m.CreateManyCalls++
	m.CreateManyInputs = append(m.CreateManyInputs, titles)
	if m.CreateManyErr != nil {
		return nil, m.CreateManyErr
	}
	seen := make(map[string]bool)
	var out []*domain.Category
	for _, t := range titles {
		if seen[t] {
			continue
		}
		seen[t] = true
		c, ok := m.ByTitle[t]
		if !ok {
			c = m.AddCategory(t)
		}
		if m.OmitFromCreate[t] {
			continue
		}
		out = append(out, c)
	}
	return out, nil
}

// GetAll returns every category in creation order
func (m *MockCategoryRepository) GetAll(ctx context.Context) ([]*domain.Category, error) {
	out := make([]*domain.Category, len(m.Order))
	copy(out, m.Order)
	return out, nil
}

// AddCategory adds a category to the mock repository (helper for tests)
func (m *MockCategoryRepository) AddCategory(title string) *domain.Category {
	now := time.Now()
	c := &domain.Category{ID: uuid.New(), Title: title, CreatedAt: now, UpdatedAt: now}
	m.ByTitle[title] = c
	m.ByID[c.ID] = c
	m.Order = append(m.Order, c)
	return c
}

// MockLedgerTxManager is a mock implementation of domain.LedgerTxManager.
// It serializes callers and restores repository contents when fn fails.
type MockLedgerTxManager struct {
	mu           sync.Mutex
	Transactions *MockTransactionRepository
	Categories   *MockCategoryRepository
	Calls        int
	Commits      int
	Rollbacks    int
}

// NewMockLedgerTxManager wires fresh mock repositories into a ledger manager
func NewMockLedgerTxManager() *MockLedgerTxManager {
	cats := NewMockCategoryRepository()
	return &MockLedgerTxManager{
		Transactions: NewMockTransactionRepository(cats),
		Categories:   cats,
	}
}

// WithinLedgerTx runs fn with the mock repositories
func (m *MockLedgerTxManager) WithinLedgerTx(ctx context.Context, fn func(ctx context.Context, repos domain.LedgerRepositories) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls++

	txSnapshot := append([]*domain.Transaction(nil), m.Transactions.Transactions...)
	catOrder := append([]*domain.Category(nil), m.Categories.Order...)

	err := fn(ctx, domain.LedgerRepositories{
		Transactions: m.Transactions,
		Categories:   m.Categories,
	})
	if err != nil {
		m.Rollbacks++
		m.Transactions.Transactions = txSnapshot
		m.Categories.Order = catOrder
		m.Categories.ByTitle = make(map[string]*domain.Category, len(catOrder))
		m.Categories.ByID = make(map[uuid.UUID]*domain.Category, len(catOrder))
		for _, c := range catOrder {
			m.Categories.ByTitle[c.Title] = c
			m.Categories.ByID[c.ID] = c
		}
		return err
	}
	m.Commits++
	return nil
}

// MockUploadStore is an in-memory domain.UploadStore
type MockUploadStore struct {
	mu      sync.Mutex
	Files   map[string][]byte
	Removed []string

	SaveErr   error
	OpenErr   error
	RemoveErr error
}

// NewMockUploadStore creates a new MockUploadStore
func NewMockUploadStore() *MockUploadStore {
	return &MockUploadStore{Files: make(map[string][]byte)}
}

// Save stores data under name
func (m *MockUploadStore) Save(ctx context.Context, name string, data io.Reader) error {
	if m.SaveErr != nil {
		return m.SaveErr
	}
	b, err := io.ReadAll(data)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Files[name] = b
	return nil
}

// Open returns the stored bytes
func (m *MockUploadStore) Open(ctx context.Context, name string) (io.ReadCloser, error) {
	if m.OpenErr != nil {
		return nil, m.OpenErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.Files[name]
	if !ok {
		return nil, fmt.Errorf("open upload %q: %w", name, domain.ErrNotFound)
	}
	return io.NopCloser(bytes.NewReader(b)), nil
}

// Remove deletes the stored bytes and records the call
func (m *MockUploadStore) Remove(ctx context.Context, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Removed = append(m.Removed, name)
	if m.RemoveErr != nil {
		return m.RemoveErr
	}
	delete(m.Files, name)
	return nil
}

// AddFile adds a file to the mock store (helper for tests)
func (m *MockUploadStore) AddFile(name, content string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Files[name] = []byte(content)
}

// Has reports whether name is still stored
func (m *MockUploadStore) Has(name string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.Files[name]
	return ok
}

// MockEventPublisher records published events
type MockEventPublisher struct {
	mu     sync.Mutex
	Events []event.Event
}

// Publish records the event
func (m *MockEventPublisher) Publish(ev event.Event) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Events = append(m.Events, ev)
}

// Published returns a copy of the recorded events
func (m *MockEventPublisher) Published() []event.Event {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]event.Event(nil), m.Events...)
}
