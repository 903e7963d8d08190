package rclone

import (
	"context"
	"time"

	"github.com/rclone/rclone/fs"
	"github.com/rclone/rclone/fs/hash"
)

// SourceFile describes an in-memory document being uploaded through an rclone backend.
type SourceFile struct {
	key     string
	modTime time.Time
	remote  string
	size    int64
}

var _ fs.ObjectInfo = (*SourceFile)(nil)

func NewSourceFile(remote string, key string, modTime time.Time, size int64) SourceFile {
	return SourceFile{
		key:     key,
		modTime: modTime,
		remote:  remote,
		size:    size,
	}
}

// uploadInfo is the fs.Info of the in-memory source.
type uploadInfo struct {
	bucket string
}

var _ fs.Info = (*uploadInfo)(nil)

func (u uploadInfo) Name() string {
	return "upload"
}

func (u uploadInfo) Root() string {
	return u.bucket
}

func (u uploadInfo) String() string {
	return "upload:" + u.bucket
}

func (u uploadInfo) Precision() time.Duration {
	return time.Second
}

func (u uploadInfo) Hashes() hash.Set {
	return hash.Set(hash.None)
}

func (u uploadInfo) Features() *fs.Features {
	return &fs.Features{}
}

func (s SourceFile) String() string {
	return s.key
}

func (s SourceFile) Remote() string {
	return s.key
}

func (s SourceFile) ModTime(ctx context.Context) time.Time {
	return s.modTime
}

func (s SourceFile) Size() int64 {
	return s.size
}

func (s SourceFile) Fs() fs.Info {
	return uploadInfo{bucket: s.remote}
}

func (s SourceFile) Hash(ctx context.Context, ty hash.Type) (string, error) {
	return "", nil
}

func (s SourceFile) Storable() bool {
	return true
}
