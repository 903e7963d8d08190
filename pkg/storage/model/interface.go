package model

import (
	"context"
	"errors"

	"github.com/denysvitali/preclear/pkg/models"
)

// ErrInvalidKey is returned for keys that do not name a stored object.
var ErrInvalidKey = errors.New("invalid storage key")

type Storer interface {
	Store(ctx context.Context, file models.StoredFile) error
}

// Retriever returns the raw bytes stored under a document's storage key. A
// missing object is reported as os.ErrNotExist.
type Retriever interface {
	Retrieve(ctx context.Context, key string) (*models.StoredFile, error)
}

type RWStorage interface {
	Storer
	Retriever
}
