package storage

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// ErrInvalidUploadName is returned for names that would escape the upload root
var ErrInvalidUploadName = errors.New("invalid upload name")

// NewUploadName derives a unique stored name from the client's filename,
// keeping the original base name so its declared extension survives.
func NewUploadName(original string) string {
	base := filepath.Base(strings.ReplaceAll(original, "\\", "/"))
	if base == "." || base == "/" || base == "" {
		base = "upload"
	}
	return fmt.Sprintf("%s-%s", uuid.New().String(), base)
}

// validateName rejects names containing path separators or traversal
func validateName(name string) error {
	if name == "" || name == "." || name == ".." {
		return ErrInvalidUploadName
	}
	if strings.ContainsAny(name, `/\`) {
		return ErrInvalidUploadName
	}
	return nil
}
