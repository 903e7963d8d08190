package fs

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/denysvitali/preclear/pkg/models"
	"github.com/denysvitali/preclear/pkg/storage/model"
)

var log = logrus.StandardLogger().WithField("package", "storage/fs")

type Fs struct {
	dir string
}

var _ model.Storer = (*Fs)(nil)
var _ model.Retriever = (*Fs)(nil)

// path resolves a storage key below the storage directory, refusing keys
// that escape it.
func (fs *Fs) path(key string) (string, error) {
	p := filepath.Join(fs.dir, filepath.FromSlash(key))
	rel, err := filepath.Rel(fs.dir, p)
	if err != nil || rel == "." || strings.HasPrefix(rel, "..") {
		return "", fmt.Errorf("%w: %q", model.ErrInvalidKey, key)
	}
	return p, nil
}

func (fs *Fs) Retrieve(ctx context.Context, key string) (*models.StoredFile, error) {
	p, err := fs.path(key)
	if err != nil {
		return nil, err
	}
	st, err := os.Stat(p)
	if err != nil {
		return nil, err
	}
	b, err := os.ReadFile(p)
	if err != nil {
		return nil, err
	}
	return &models.StoredFile{
		Reader:     bytes.NewReader(b),
		Key:        key,
		ModifiedAt: st.ModTime(),
	}, nil
}

func (fs *Fs) Store(ctx context.Context, file models.StoredFile) error {
	p, err := fs.path(file.Key)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(p), 0755); err != nil {
		return err
	}

	f, err := os.Create(p)
	if err != nil {
		return err
	}
	defer f.Close()
	if _, err := io.Copy(f, file.Reader); err != nil {
		return err
	}
	if _, err := file.Reader.Seek(0, io.SeekStart); err != nil {
		return err
	}
	log.Debugf("created file %s", f.Name())
	return nil
}

func New(dir string) (*Fs, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(abs, 0755); err != nil {
		return nil, fmt.Errorf("unable to create storage directory: %w", err)
	}
	return &Fs{dir: abs}, nil
}
