package ports

import (
	"context"
	"io"
)

// Attachment is a file that accompanies a multipart submission.
type Attachment struct {
	Field    string
	Filename string
	Size     int64
	Open     func() (io.ReadCloser, error)
}

// ResourceAPI is the CRUD surface shared by every backend collection.
// Paths are relative to the backend base URL. List decodes the collection
// found under key in the response envelope.
type ResourceAPI interface {
	List(ctx context.Context, token, path, key string, into any) error
	Create(ctx context.Context, token, path string, body any, file *Attachment) error
	Update(ctx context.Context, token, path string, body any, file *Attachment) error
	Delete(ctx context.Context, token, path string) error
}
