package storage

import (
	"context"
	"io"
)

// BinaryStore is the remote binary store contract: upload a blob under
// a path and get back a public URL.
type BinaryStore interface {
	Upload(ctx context.Context, path string, body io.Reader, size int64, contentType string) (string, error)
}
