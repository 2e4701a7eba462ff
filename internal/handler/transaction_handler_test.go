package handler

import (
	"bytes"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/dafibh/ledger/ledger-backend/internal/domain"
	"github.com/dafibh/ledger/ledger-backend/internal/service"
	"github.com/dafibh/ledger/ledger-backend/internal/testutil"
	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type transactionHandlerFixture struct {
	handler *TransactionHandler
	ledger  *testutil.MockLedgerTxManager
	uploads *testutil.MockUploadStore
}

func newTransactionHandlerFixture(maxUploadBytes int64) *transactionHandlerFixture {
	ledger := testutil.NewMockLedgerTxManager()
	uploads := testutil.NewMockUploadStore()
	h := NewTransactionHandler(
		service.NewTransactionService(ledger),
		service.NewBalanceService(ledger.Transactions),
		service.NewImportService(ledger, uploads),
		uploads,
		maxUploadBytes,
	)
	return &transactionHandlerFixture{handler: h, ledger: ledger, uploads: uploads}
}

func jsonRequest(method, path, body string) (*http.Request, *httptest.ResponseRecorder) {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	return req, httptest.NewRecorder()
}

func multipartRequest(t *testing.T, path, field, filename, content string) (*http.Request, *httptest.ResponseRecorder) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile(field, filename)
	require.NoError(t, err)
	_, err = part.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set(echo.HeaderContentType, w.FormDataContentType())
	return req, httptest.NewRecorder()
}

func TestCreateTransaction_Success(t *testing.T) {
	e := echo.New()
	f := newTransactionHandlerFixture(0)

	req, rec := jsonRequest(http.MethodPost, "/api/v1/transactions", `{"title": "Salary", "value": 5000, "type": "income", "category": "Work"}`)
	c := e.NewContext(req, rec)

	require.NoError(t, f.handler.CreateTransaction(c))
	assert.Equal(t, http.StatusCreated, rec.Code)

	var response TransactionResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &response))
	assert.Equal(t, "Salary", response.Title)
	assert.Equal(t, "5000.00", response.Value)
	assert.Equal(t, "income", response.Type)
	require.NotNil(t, response.Category)
	assert.Equal(t, "Work", response.Category.Title)
	assert.Equal(t, response.Category.ID, response.CategoryID)
}

func TestCreateTransaction_StringValue(t *testing.T) {
	e := echo.New()
	f := newTransactionHandlerFixture(0)

	req, rec := jsonRequest(http.MethodPost, "/api/v1/transactions", `{"title": "Salary", "value": "1250.50", "type": "income", "category": "Work"}`)
	c := e.NewContext(req, rec)

	require.NoError(t, f.handler.CreateTransaction(c))
	assert.Equal(t, http.StatusCreated, rec.Code)

	var response TransactionResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &response))
	assert.Equal(t, "1250.50", response.Value)
}

func TestCreateTransaction_InsufficientBalance(t *testing.T) {
	e := echo.New()
	f := newTransactionHandlerFixture(0)
	work := f.ledger.Categories.AddCategory("Work")
	f.ledger.Transactions.AddTransaction(&domain.Transaction{
		Title: "Salary", Value: decimal.NewFromInt(1000), Type: domain.TransactionTypeIncome, CategoryID: work.ID,
	})

	req, rec := jsonRequest(http.MethodPost, "/api/v1/transactions", `{"title": "Rent", "value": 1001, "type": "outcome", "category": "House"}`)
	c := e.NewContext(req, rec)

	require.NoError(t, f.handler.CreateTransaction(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	var problem ProblemDetails
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &problem))
	assert.Equal(t, ErrorTypeValidation, problem.Type)
	assert.Equal(t, "the total outcomes can not be bigger than incomes", problem.Detail)
	assert.Len(t, f.ledger.Transactions.Transactions, 1)
}

func TestCreateTransaction_ValidationErrors(t *testing.T) {
	tests := []struct {
		name   string
		body   string
		field  string
		detail string
	}{
		{"invalid type", `{"title": "Move", "value": 10, "type": "transfer", "category": "Bank"}`, "type", "the transaction type needs to be income or outcome"},
		{"invalid type without value", `{"type": "transfer"}`, "type", domain.ErrInvalidTransactionType.Error()},
		{"missing type without value", `{"title": "Salary", "category": "Work"}`, "type", domain.ErrInvalidTransactionType.Error()},
		{"missing value", `{"title": "Salary", "type": "income", "category": "Work"}`, "value", "Validation failed"},
		{"negative value", `{"title": "Salary", "value": -1, "type": "income", "category": "Work"}`, "value", domain.ErrInvalidValue.Error()},
		{"missing title", `{"value": 1, "type": "income", "category": "Work"}`, "title", domain.ErrTitleRequired.Error()},
		{"missing category", `{"title": "Salary", "value": 1, "type": "income"}`, "category", domain.ErrCategoryRequired.Error()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := echo.New()
			f := newTransactionHandlerFixture(0)
			req, rec := jsonRequest(http.MethodPost, "/api/v1/transactions", tt.body)
			c := e.NewContext(req, rec)

			require.NoError(t, f.handler.CreateTransaction(c))
			assert.Equal(t, http.StatusBadRequest, rec.Code)

			var problem ProblemDetails
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &problem))
			assert.Equal(t, tt.detail, problem.Detail)
			require.Len(t, problem.Errors, 1)
			assert.Equal(t, tt.field, problem.Errors[0].Field)
		})
	}
}

func TestCreateTransaction_InvalidBody(t *testing.T) {
	e := echo.New()
	f := newTransactionHandlerFixture(0)

	req, rec := jsonRequest(http.MethodPost, "/api/v1/transactions", `{"value": "lots"}`)
	c := e.NewContext(req, rec)

	require.NoError(t, f.handler.CreateTransaction(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCreateTransaction_StorageFailure(t *testing.T) {
	e := echo.New()
	f := newTransactionHandlerFixture(0)
	f.ledger.Transactions.FindAllErr = assert.AnError

	req, rec := jsonRequest(http.MethodPost, "/api/v1/transactions", `{"title": "Salary", "value": 1, "type": "income", "category": "Work"}`)
	c := e.NewContext(req, rec)

	require.NoError(t, f.handler.CreateTransaction(c))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)

	var problem ProblemDetails
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &problem))
	assert.Equal(t, ErrorTypeInternal, problem.Type)
	assert.NotContains(t, problem.Detail, assert.AnError.Error())
}

func TestListTransactions(t *testing.T) {
	e := echo.New()
	f := newTransactionHandlerFixture(0)
	work := f.ledger.Categories.AddCategory("Work")
	f.ledger.Transactions.AddTransaction(&domain.Transaction{
		Title: "Salary", Value: decimal.RequireFromString("5000"), Type: domain.TransactionTypeIncome, CategoryID: work.ID, Category: work,
	})
	f.ledger.Transactions.AddTransaction(&domain.Transaction{
		Title: "Rent", Value: decimal.RequireFromString("1500.25"), Type: domain.TransactionTypeOutcome, CategoryID: work.ID, Category: work,
	})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/transactions", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	require.NoError(t, f.handler.ListTransactions(c))
	assert.Equal(t, http.StatusOK, rec.Code)

	var response TransactionListResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &response))
	assert.Len(t, response.Transactions, 2)
	assert.Equal(t, BalanceResponse{Income: "5000.00", Outcome: "1500.25", Total: "3499.75"}, response.Balance)
}

func TestListTransactions_Empty(t *testing.T) {
	e := echo.New()
	f := newTransactionHandlerFixture(0)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/transactions", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	require.NoError(t, f.handler.ListTransactions(c))
	assert.JSONEq(t, `{"transactions": [], "balance": {"income": "0.00", "outcome": "0.00", "total": "0.00"}}`, rec.Body.String())
}

func TestGetBalance(t *testing.T) {
	e := echo.New()
	f := newTransactionHandlerFixture(0)
	f.ledger.Transactions.AddTransaction(&domain.Transaction{
		Title: "Salary", Value: decimal.NewFromInt(100), Type: domain.TransactionTypeIncome,
	})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/transactions/balance", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	require.NoError(t, f.handler.GetBalance(c))
	assert.JSONEq(t, `{"income": "100.00", "outcome": "0.00", "total": "100.00"}`, rec.Body.String())
}

func TestImportTransactions_Success(t *testing.T) {
	e := echo.New()
	f := newTransactionHandlerFixture(1 << 20)

	req, rec := multipartRequest(t, "/api/v1/transactions/import", "file", "statement.csv",
		"title,type,value,category\nSalary,income,5000,Work\nRent,outcome,1500,House\n,income,1,Work\n")
	c := e.NewContext(req, rec)

	require.NoError(t, f.handler.ImportTransactions(c))
	assert.Equal(t, http.StatusCreated, rec.Code)

	var response ImportResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &response))
	assert.Len(t, response.Transactions, 2)
	assert.Len(t, response.CategoriesCreated, 2)
	assert.Equal(t, 1, response.RowsSkipped)

	assert.Empty(t, f.uploads.Files, "artifact should be removed after import")
	require.Len(t, f.uploads.Removed, 1)
	assert.True(t, strings.HasSuffix(f.uploads.Removed[0], "-statement.csv"))
}

func TestImportTransactions_NonCSV(t *testing.T) {
	e := echo.New()
	f := newTransactionHandlerFixture(1 << 20)

	req, rec := multipartRequest(t, "/api/v1/transactions/import", "file", "statement.xlsx", "binary")
	c := e.NewContext(req, rec)

	require.NoError(t, f.handler.ImportTransactions(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	var problem ProblemDetails
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &problem))
	assert.Equal(t, "the file's extension must be .csv", problem.Detail)
	assert.Empty(t, f.uploads.Files)
	assert.Empty(t, f.ledger.Transactions.Transactions)
}

func TestImportTransactions_MalformedRow(t *testing.T) {
	e := echo.New()
	f := newTransactionHandlerFixture(1 << 20)

	req, rec := multipartRequest(t, "/api/v1/transactions/import", "file", "a.csv",
		"title,type,value,category\nSalary,income,abc,Work\n")
	c := e.NewContext(req, rec)

	require.NoError(t, f.handler.ImportTransactions(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "line 2")
	assert.Empty(t, f.ledger.Transactions.Transactions)
}

func TestImportTransactions_MissingFile(t *testing.T) {
	e := echo.New()
	f := newTransactionHandlerFixture(1 << 20)

	req, rec := multipartRequest(t, "/api/v1/transactions/import", "other", "a.csv", "x")
	c := e.NewContext(req, rec)

	require.NoError(t, f.handler.ImportTransactions(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestImportTransactions_TooLarge(t *testing.T) {
	e := echo.New()
	f := newTransactionHandlerFixture(10)

	req, rec := multipartRequest(t, "/api/v1/transactions/import", "file", "a.csv", "title,type,value,category\n")
	c := e.NewContext(req, rec)

	require.NoError(t, f.handler.ImportTransactions(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "File too large")
	assert.Empty(t, f.uploads.Files)
}

func TestImportTransactions_StoreFailure(t *testing.T) {
	e := echo.New()
	f := newTransactionHandlerFixture(1 << 20)
	f.uploads.SaveErr = assert.AnError

	req, rec := multipartRequest(t, "/api/v1/transactions/import", "file", "a.csv", "title,type,value,category\n")
	c := e.NewContext(req, rec)

	require.NoError(t, f.handler.ImportTransactions(c))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestImportTransactions_ArtifactMissing(t *testing.T) {
	e := echo.New()
	f := newTransactionHandlerFixture(1 << 20)
	f.uploads.OpenErr = fmt.Errorf("open upload: %w", domain.ErrNotFound)

	req, rec := multipartRequest(t, "/api/v1/transactions/import", "file", "a.csv", "title,type,value,category\nSalary,income,5000,Work\n")
	c := e.NewContext(req, rec)

	require.NoError(t, f.handler.ImportTransactions(c))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	var problem ProblemDetails
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &problem))
	assert.Equal(t, ErrorTypeNotFound, problem.Type)
	assert.Equal(t, domain.ErrNotFound.Error(), problem.Detail)
	assert.Empty(t, f.ledger.Transactions.Transactions)
}
