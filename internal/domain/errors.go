package domain

import "errors"

// Domain errors
var (
	ErrNotFound = errors.New("resource not found")

	ErrInvalidTransactionType = errors.New("the transaction type needs to be income or outcome")
	ErrInsufficientBalance    = errors.New("the total outcomes can not be bigger than incomes")
	ErrInvalidValue           = errors.New("value must be a non-negative amount")
	ErrTitleRequired          = errors.New("title is required")
	ErrTitleTooLong           = errors.New("title exceeds maximum length")
	ErrCategoryRequired       = errors.New("category is required")
	ErrCategoryTitleTooLong   = errors.New("category exceeds maximum length")

	ErrUnsupportedFileType = errors.New("the file's extension must be .csv")
	ErrMalformedImportRow  = errors.New("malformed import row")
	ErrInternalConsistency = errors.New("category could not be resolved for imported row")
)
