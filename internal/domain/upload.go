package domain

import (
	"context"
	"io"
)

// UploadStore holds uploaded import artifacts until they are processed
type UploadStore interface {
	Save(ctx context.Context, name string, data io.Reader) error
	Open(ctx context.Context, name string) (io.ReadCloser, error)
	Remove(ctx context.Context, name string) error
}
