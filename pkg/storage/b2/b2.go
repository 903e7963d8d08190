package b2

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	rcloneb2 "github.com/rclone/rclone/backend/b2"
	"github.com/rclone/rclone/fs"
	"github.com/rclone/rclone/fs/config/configmap"
	"github.com/sirupsen/logrus"

	docscrypt "github.com/denysvitali/preclear/pkg/crypt"
	"github.com/denysvitali/preclear/pkg/models"
	"github.com/denysvitali/preclear/pkg/storage/model"
	"github.com/denysvitali/preclear/pkg/storage/rclone"
)

var log = logrus.StandardLogger().WithField("package", "storage/b2")
var _ model.Storer = (*B2)(nil)
var _ model.Retriever = (*B2)(nil)

type B2 struct {
	b2fs       fs.Fs
	bucketName string
	crypt      *docscrypt.DocsCrypt
}

func (b *B2) Store(ctx context.Context, file models.StoredFile) (err error) {
	reader := file.Reader
	if b.crypt != nil {
		reader, err = b.crypt.Encrypt(reader)
		if err != nil {
			return fmt.Errorf("encrypt %s: %w", file.Key, err)
		}
	}

	fileSize, err := reader.Seek(0, io.SeekEnd)
	if err != nil {
		return err
	}
	if _, err = reader.Seek(0, io.SeekStart); err != nil {
		return err
	}

	modTime := file.ModifiedAt
	if modTime.IsZero() {
		modTime = time.Now()
	}
	info := rclone.NewSourceFile(b.bucketName, file.Key, modTime, fileSize)
	obj, err := b.b2fs.Put(ctx, reader, info, &fs.RangeOption{Start: 0, End: fileSize})
	if err != nil {
		return fmt.Errorf("put %s: %w", file.Key, err)
	}
	log.Debugf("stored %s (%d bytes)", obj.Remote(), obj.Size())
	return nil
}

func (b *B2) Retrieve(ctx context.Context, key string) (*models.StoredFile, error) {
	obj, err := b.b2fs.NewObject(ctx, key)
	if err != nil {
		if errors.Is(err, fs.ErrorObjectNotFound) {
			return nil, os.ErrNotExist
		}
		return nil, err
	}

	objReader, err := obj.Open(ctx)
	if err != nil {
		return nil, err
	}
	defer objReader.Close()

	var reader io.ReadSeeker
	if b.crypt != nil {
		reader, err = b.crypt.Decrypt(objReader)
		if err != nil {
			return nil, fmt.Errorf("decrypt %s: %w", key, err)
		}
	} else {
		buffer := bytes.NewBuffer(nil)
		if _, err = io.Copy(buffer, objReader); err != nil {
			return nil, err
		}
		reader = bytes.NewReader(buffer.Bytes())
	}

	return &models.StoredFile{
		Reader:     reader,
		Key:        key,
		ModifiedAt: obj.ModTime(ctx),
	}, nil
}

type Config struct {
	Account    string
	Key        string
	BucketName string

	// Encryption specific
	Passphrase string
}

func New(config Config) (*B2, error) {
	if config.Account == "" {
		return nil, fmt.Errorf("account is required")
	}
	if config.Key == "" {
		return nil, fmt.Errorf("key is required")
	}
	if config.BucketName == "" {
		return nil, fmt.Errorf("bucket name is required")
	}

	if len(config.Passphrase) == 0 {
		log.Warnf("no passphrase provided, documents are stored unencrypted")
	}

	b2fs, err := rcloneb2.NewFs(context.Background(),
		"b2",
		config.BucketName+"/",
		configmap.Simple{
			"account":    config.Account,
			"key":        config.Key,
			"chunk_size": "5M",
		},
	)
	if err != nil {
		return nil, err
	}

	b := &B2{
		bucketName: config.BucketName,
		b2fs:       b2fs,
	}

	if len(config.Passphrase) != 0 {
		b.crypt, err = docscrypt.New(config.Passphrase)
		if err != nil {
			return nil, err
		}
	}

	return b, nil
}
