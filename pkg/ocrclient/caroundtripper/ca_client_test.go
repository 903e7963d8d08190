package caroundtripper_test

import (
	"encoding/pem"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/denysvitali/preclear/pkg/ocrclient/caroundtripper"
)

func TestNew(t *testing.T) {
	srv := httptest.NewTLSServer(nil)
	defer srv.Close()

	p := filepath.Join(t.TempDir(), "ca.pem")
	cert := srv.Certificate()
	require.NoError(t, os.WriteFile(p, pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: cert.Raw}), 0o600))

	rt, err := caroundtripper.New(p)
	require.NoError(t, err)
	assert.NotNil(t, rt)
}

func TestNew_InvalidBundle(t *testing.T) {
	p := filepath.Join(t.TempDir(), "ca.pem")
	require.NoError(t, os.WriteFile(p, []byte("not a certificate"), 0o600))
	_, err := caroundtripper.New(p)
	assert.Error(t, err)

	_, err = caroundtripper.New(filepath.Join(t.TempDir(), "missing.pem"))
	assert.Error(t, err)
}
