package handler

import (
	"errors"
	"net/http"

	"github.com/dafibh/ledger/ledger-backend/internal/domain"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
)

// ProblemDetails represents an RFC 7807 Problem Details response
type ProblemDetails struct {
	Type     string            `json:"type"`
	Title    string            `json:"title"`
	Status   int               `json:"status"`
	Detail   string            `json:"detail,omitempty"`
	Instance string            `json:"instance,omitempty"`
	Errors   []ValidationError `json:"errors,omitempty"`
}

// ValidationError represents a single validation error
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Error types
const (
	ErrorTypeValidation = "https://ledger.app/errors/validation"
	ErrorTypeNotFound   = "https://ledger.app/errors/not-found"
	ErrorTypeInternal   = "https://ledger.app/errors/internal"
)

// NewValidationError creates a validation error response
func NewValidationError(c echo.Context, detail string, errors []ValidationError) error {
	return c.JSON(http.StatusBadRequest, ProblemDetails{
		Type:     ErrorTypeValidation,
		Title:    "Validation Error",
		Status:   http.StatusBadRequest,
		Detail:   detail,
		Instance: c.Request().URL.Path,
		Errors:   errors,
	})
}

// NewNotFoundError creates a not found error response
func NewNotFoundError(c echo.Context, detail string) error {
	return c.JSON(http.StatusNotFound, ProblemDetails{
		Type:     ErrorTypeNotFound,
		Title:    "Not Found",
		Status:   http.StatusNotFound,
		Detail:   detail,
		Instance: c.Request().URL.Path,
	})
}

// NewInternalError creates an internal error response
func NewInternalError(c echo.Context, detail string) error {
	return c.JSON(http.StatusInternalServerError, ProblemDetails{
		Type:     ErrorTypeInternal,
		Title:    "Internal Server Error",
		Status:   http.StatusInternalServerError,
		Detail:   detail,
		Instance: c.Request().URL.Path,
	})
}

// fieldErrors maps client-caused domain errors to the offending request field
var fieldErrors = []struct {
	err   error
	field string
}{
	{domain.ErrInvalidTransactionType, "type"},
	{domain.ErrTitleRequired, "title"},
	{domain.ErrTitleTooLong, "title"},
	{domain.ErrCategoryRequired, "category"},
	{domain.ErrCategoryTitleTooLong, "category"},
	{domain.ErrInvalidValue, "value"},
	{domain.ErrInsufficientBalance, "value"},
	{domain.ErrUnsupportedFileType, "file"},
}

// respondServiceError writes the problem details for an error returned by a
// service. Unknown errors are logged and reported as internal errors.
func respondServiceError(c echo.Context, err error, internalDetail string) error {
	// malformed rows carry the line number and cause in the message
	if errors.Is(err, domain.ErrMalformedImportRow) {
		return NewValidationError(c, err.Error(), []ValidationError{
			{Field: "file", Message: err.Error()},
		})
	}

	if errors.Is(err, domain.ErrNotFound) {
		return NewNotFoundError(c, domain.ErrNotFound.Error())
	}

	for _, fe := range fieldErrors {
		if errors.Is(err, fe.err) {
			return NewValidationError(c, fe.err.Error(), []ValidationError{
				{Field: fe.field, Message: fe.err.Error()},
			})
		}
	}

	log.Error().
		Err(err).
		Str("path", c.Request().URL.Path).
		Str("request_id", c.Response().Header().Get(echo.HeaderXRequestID)).
		Msg(internalDetail)
	return NewInternalError(c, internalDetail)
}
