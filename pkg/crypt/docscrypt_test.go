package docscrypt_test

import (
	"bytes"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	docscrypt "github.com/denysvitali/preclear/pkg/crypt"
)

func TestRoundTrip(t *testing.T) {
	c, err := docscrypt.New("my key")
	require.NoError(t, err)

	enc, err := c.Encrypt(bytes.NewReader([]byte("COMMERCIAL INVOICE #1234567")))
	require.NoError(t, err)
	sealed, err := io.ReadAll(enc)
	require.NoError(t, err)
	assert.NotContains(t, string(sealed), "INVOICE")

	other, err := docscrypt.New("my key")
	require.NoError(t, err)
	dec, err := other.Decrypt(bytes.NewReader(sealed))
	require.NoError(t, err)
	plain, err := io.ReadAll(dec)
	require.NoError(t, err)
	assert.Equal(t, "COMMERCIAL INVOICE #1234567", string(plain))
}

func TestDecrypt_WrongKey(t *testing.T) {
	c, _ := docscrypt.New("my key")
	enc, err := c.Encrypt(bytes.NewReader([]byte("hello")))
	require.NoError(t, err)

	wrong, _ := docscrypt.New("another key")
	_, err = wrong.Decrypt(enc)
	assert.Error(t, err)
}

func TestDecrypt_Short(t *testing.T) {
	c, _ := docscrypt.New("my key")
	_, err := c.Decrypt(bytes.NewReader([]byte{1, 2, 3}))
	assert.ErrorIs(t, err, docscrypt.ErrShortCiphertext)
}

func TestNew_EmptyPassphrase(t *testing.T) {
	_, err := docscrypt.New("")
	assert.Error(t, err)
}
