package rclone_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/denysvitali/preclear/pkg/storage/rclone"
)

func TestSourceFile(t *testing.T) {
	mod := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	f := rclone.NewSourceFile("customs-docs", "shipments/42/invoice.pdf", mod, 1234)

	assert.Equal(t, "shipments/42/invoice.pdf", f.Remote())
	assert.Equal(t, int64(1234), f.Size())
	assert.Equal(t, mod, f.ModTime(context.Background()))
	assert.True(t, f.Storable())
	assert.Equal(t, "customs-docs", f.Fs().Root())
}
