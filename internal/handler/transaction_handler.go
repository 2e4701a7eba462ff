package handler

import (
	"fmt"
	"net/http"
	"time"

	"github.com/dafibh/ledger/ledger-backend/internal/domain"
	"github.com/dafibh/ledger/ledger-backend/internal/repository/storage"
	"github.com/dafibh/ledger/ledger-backend/internal/service"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

// TransactionHandler handles transaction-related HTTP requests
type TransactionHandler struct {
	transactionService *service.TransactionService
	balanceService     *service.BalanceService
	importService      *service.ImportService
	uploads            domain.UploadStore
	maxUploadBytes     int64
}

// NewTransactionHandler creates a new TransactionHandler
func NewTransactionHandler(transactionService *service.TransactionService, balanceService *service.BalanceService, importService *service.ImportService, uploads domain.UploadStore, maxUploadBytes int64) *TransactionHandler {
	return &TransactionHandler{
		transactionService: transactionService,
		balanceService:     balanceService,
		importService:      importService,
		uploads:            uploads,
		maxUploadBytes:     maxUploadBytes,
	}
}

// CreateTransactionRequest represents the create transaction request body.
// value accepts a JSON number or a decimal string.
type CreateTransactionRequest struct {
	Title    string           `json:"title"`
	Value    *decimal.Decimal `json:"value"`
	Type     string           `json:"type"`
	Category string           `json:"category"`
}

// CategoryResponse represents a category in API responses
type CategoryResponse struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	CreatedAt string `json:"createdAt"`
	UpdatedAt string `json:"updatedAt"`
}

// TransactionResponse represents a transaction in API responses
type TransactionResponse struct {
	ID         string            `json:"id"`
	Title      string            `json:"title"`
	Value      string            `json:"value"`
	Type       string            `json:"type"`
	CategoryID string            `json:"categoryId"`
	Category   *CategoryResponse `json:"category,omitempty"`
	CreatedAt  string            `json:"createdAt"`
	UpdatedAt  string            `json:"updatedAt"`
}

// BalanceResponse represents the aggregate balance
type BalanceResponse struct {
	Income  string `json:"income"`
	Outcome string `json:"outcome"`
	Total   string `json:"total"`
}

// TransactionListResponse is every transaction plus the balance over them
type TransactionListResponse struct {
	Transactions []TransactionResponse `json:"transactions"`
	Balance      BalanceResponse       `json:"balance"`
}

// ImportResponse describes a completed import
type ImportResponse struct {
	Transactions      []TransactionResponse `json:"transactions"`
	CategoriesCreated []CategoryResponse    `json:"categoriesCreated"`
	RowsSkipped       int                   `json:"rowsSkipped"`
}

// ListTransactions handles GET /api/v1/transactions
func (h *TransactionHandler) ListTransactions(c echo.Context) error {
	result, err := h.balanceService.ListWithBalance(c.Request().Context())
	if err != nil {
		return respondServiceError(c, err, "Failed to list transactions")
	}

	return c.JSON(http.StatusOK, TransactionListResponse{
		Transactions: toTransactionResponses(result.Transactions),
		Balance:      toBalanceResponse(result.Balance),
	})
}

// GetBalance handles GET /api/v1/transactions/balance
func (h *TransactionHandler) GetBalance(c echo.Context) error {
	balance, err := h.balanceService.GetBalance(c.Request().Context())
	if err != nil {
		return respondServiceError(c, err, "Failed to compute balance")
	}
	return c.JSON(http.StatusOK, toBalanceResponse(balance))
}

// CreateTransaction handles POST /api/v1/transactions
func (h *TransactionHandler) CreateTransaction(c echo.Context) error {
	var req CreateTransactionRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Invalid request body", nil)
	}

	if !domain.TransactionType(req.Type).Valid() {
		return respondServiceError(c, domain.ErrInvalidTransactionType, "Failed to create transaction")
	}

	if req.Value == nil {
		return NewValidationError(c, "Validation failed", []ValidationError{
			{Field: "value", Message: "Value is required"},
		})
	}

	transaction, err := h.transactionService.CreateTransaction(c.Request().Context(), service.CreateTransactionInput{
		Title:    req.Title,
		Value:    *req.Value,
		Type:     domain.TransactionType(req.Type),
		Category: req.Category,
	})
	if err != nil {
		return respondServiceError(c, err, "Failed to create transaction")
	}

	return c.JSON(http.StatusCreated, toTransactionResponse(transaction))
}

// ImportTransactions handles POST /api/v1/transactions/import
func (h *TransactionHandler) ImportTransactions(c echo.Context) error {
	file, err := c.FormFile("file")
	if err != nil {
		return NewValidationError(c, "Validation failed", []ValidationError{
			{Field: "file", Message: "A CSV file is required"},
		})
	}

	if h.maxUploadBytes > 0 && file.Size > h.maxUploadBytes {
		return NewValidationError(c, "Validation failed", []ValidationError{
			{Field: "file", Message: fmt.Sprintf("File too large. Maximum size is %d bytes", h.maxUploadBytes)},
		})
	}

	src, err := file.Open()
	if err != nil {
		log.Error().Err(err).Msg("Failed to open uploaded file")
		return NewInternalError(c, "Failed to process file")
	}
	defer src.Close()

	ctx := c.Request().Context()
	name := storage.NewUploadName(file.Filename)
	if err := h.uploads.Save(ctx, name, src); err != nil {
		log.Error().Err(err).Str("filename", file.Filename).Msg("Failed to store uploaded file")
		return NewInternalError(c, "Failed to store file")
	}

	result, err := h.importService.ImportTransactions(ctx, name)
	if err != nil {
		return respondServiceError(c, err, "Failed to import transactions")
	}

	categories := make([]CategoryResponse, 0, len(result.CategoriesCreated))
	for _, cat := range result.CategoriesCreated {
		categories = append(categories, toCategoryResponse(cat))
	}

	return c.JSON(http.StatusCreated, ImportResponse{
		Transactions:      toTransactionResponses(result.Transactions),
		CategoriesCreated: categories,
		RowsSkipped:       result.RowsSkipped,
	})
}

// Helper functions

func toCategoryResponse(c *domain.Category) CategoryResponse {
	return CategoryResponse{
		ID:        c.ID.String(),
		Title:     c.Title,
		CreatedAt: c.CreatedAt.Format(time.RFC3339),
		UpdatedAt: c.UpdatedAt.Format(time.RFC3339),
	}
}

func toTransactionResponse(t *domain.Transaction) TransactionResponse {
	resp := TransactionResponse{
		ID:         t.ID.String(),
		Title:      t.Title,
		Value:      t.Value.StringFixed(2),
		Type:       string(t.Type),
		CategoryID: t.CategoryID.String(),
		CreatedAt:  t.CreatedAt.Format(time.RFC3339),
		UpdatedAt:  t.UpdatedAt.Format(time.RFC3339),
	}
	if t.Category != nil {
		cat := toCategoryResponse(t.Category)
		resp.Category = &cat
	}
	return resp
}

func toTransactionResponses(transactions []*domain.Transaction) []TransactionResponse {
	out := make([]TransactionResponse, 0, len(transactions))
	for _, t := range transactions {
		out = append(out, toTransactionResponse(t))
	}
	return out
}

func toBalanceResponse(b domain.Balance) BalanceResponse {
	return BalanceResponse{
		Income:  b.Income.StringFixed(2),
		Outcome: b.Outcome.StringFixed(2),
		Total:   b.Total.StringFixed(2),
	}
}
