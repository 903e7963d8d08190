package cli

import (
	"errors"
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type storageArgs struct {
	B2Key        string
	B2Passphrase string
}

type testArgs struct {
	DatabaseDSN string
	Workers     int
	Storage     storageArgs
	Optional    *storageArgs
	Nil         *storageArgs
}

func TestFillValues(t *testing.T) {
	args := testArgs{
		DatabaseDSN: "keychain:database",
		Workers:     4,
		Storage:     storageArgs{B2Key: "plain", B2Passphrase: "keychain:b2-passphrase"},
		Optional:    &storageArgs{B2Key: "keychain:b2-key"},
	}
	secrets := map[string]string{
		"database":      "postgres://preclear@db/preclear",
		"b2-passphrase": "s3cr3t",
		"b2-key":        "K001",
	}

	err := fillValues(reflect.ValueOf(&args).Elem(), func(element string) (string, error) {
		s, ok := secrets[element]
		if !ok {
			return "", errors.New("not found")
		}
		return s, nil
	})
	require.NoError(t, err)
	assert.Equal(t, "postgres://preclear@db/preclear", args.DatabaseDSN)
	assert.Equal(t, "plain", args.Storage.B2Key)
	assert.Equal(t, "s3cr3t", args.Storage.B2Passphrase)
	assert.Equal(t, "K001", args.Optional.B2Key)
	assert.Nil(t, args.Nil)
}

func TestFillValues_LookupError(t *testing.T) {
	args := testArgs{DatabaseDSN: "keychain:missing"}
	err := fillValues(reflect.ValueOf(&args).Elem(), func(string) (string, error) {
		return "", errors.New("keychain element missing not found")
	})
	assert.Error(t, err)
}

func TestFillValues_NoKeychainValues(t *testing.T) {
	args := testArgs{DatabaseDSN: "postgres://localhost"}
	err := fillValues(reflect.ValueOf(&args).Elem(), func(string) (string, error) {
		t.Fatal("lookup must not be called")
		return "", nil
	})
	assert.NoError(t, err)
}
