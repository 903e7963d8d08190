package models

import (
	"io"
	"time"
)

// StoredFile is a raw uploaded document as held by object storage.
type StoredFile struct {
	Reader     io.ReadSeeker
	Key        string
	ModifiedAt time.Time
}
