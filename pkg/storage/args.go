package storage

import (
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/denysvitali/preclear/pkg/storage/b2"
	"github.com/denysvitali/preclear/pkg/storage/fs"
	"github.com/denysvitali/preclear/pkg/storage/model"
)

var log = logrus.StandardLogger().WithField("package", "storage")

// Args are the storage flags shared by the binaries.
type Args struct {
	B2AccountId  string `arg:"--b2-account-id,env:B2_ACCOUNT" help:"Account for B2 storage - when using the b2 storage"`
	B2AccountKey string `arg:"--b2-account-key,env:B2_KEY" help:"Key for B2 storage - when using the b2 storage"`
	B2BucketName string `arg:"--b2-bucket-name,env:B2_BUCKET_NAME" help:"Bucket Name for B2 storage - when using the b2 storage"`
	B2Passphrase string `arg:"--b2-passphrase,env:B2_PASSPHRASE" help:"Passphrase for B2 storage (optional) - when using the b2 storage"`
	FsPath       string `arg:"--fs-path,env:FS_PATH" help:"Directory holding the uploaded documents - when using the fs storage"`
	StorageType  string `arg:"--storage-type,env:STORAGE_TYPE" default:"fs" help:"Type of storage to use (fs or b2)"`
}

// Setup builds the storage selected by a.
func (a Args) Setup() (model.RWStorage, error) {
	switch strings.ToLower(a.StorageType) {
	case "b2":
		return b2.New(b2.Config{
			Account:    a.B2AccountId,
			BucketName: a.B2BucketName,
			Key:        a.B2AccountKey,
			Passphrase: a.B2Passphrase,
		})
	case "fs":
		if a.FsPath == "" {
			return nil, fmt.Errorf("--fs-path is required for the fs storage")
		}
		return fs.New(a.FsPath)
	}
	return nil, fmt.Errorf("unknown storage type: %s", a.StorageType)
}

// MustSetup is Setup for binaries that cannot run without storage.
func (a Args) MustSetup() model.RWStorage {
	s, err := a.Setup()
	if err != nil {
		log.Fatalf("unable to set up %s storage: %v", a.StorageType, err)
	}
	return s
}
