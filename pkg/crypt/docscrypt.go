package docscrypt

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/pbkdf2"
)

const (
	keyIterations = 4096
	keySize       = 32
)

// keySalt is fixed so that a passphrase alone is enough to read back
// documents stored by another instance.
var keySalt = []byte("preclear-documents")

var ErrShortCiphertext = errors.New("ciphertext shorter than nonce")

// DocsCrypt seals stored documents with AES-256-GCM. Each object is laid out
// as nonce || ciphertext.
type DocsCrypt struct {
	gcm cipher.AEAD
}

func New(passphrase string) (*DocsCrypt, error) {
	if passphrase == "" {
		return nil, errors.New("passphrase cannot be empty")
	}
	dk := pbkdf2.Key([]byte(passphrase), keySalt, keyIterations, keySize, sha256.New)
	c, err := aes.NewCipher(dk)
	if err != nil {
		return nil, err
	}
	gcm, err := cipher.NewGCM(c)
	if err != nil {
		return nil, err
	}
	return &DocsCrypt{gcm: gcm}, nil
}

func (d *DocsCrypt) Encrypt(input io.Reader) (io.ReadSeeker, error) {
	nonce := make([]byte, d.gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, err
	}

	plainText, err := io.ReadAll(input)
	if err != nil {
		return nil, err
	}

	out := make([]byte, 0, len(nonce)+len(plainText)+d.gcm.Overhead())
	out = append(out, nonce...)
	out = d.gcm.Seal(out, nonce, plainText, nil)
	return bytes.NewReader(out), nil
}

func (d *DocsCrypt) Decrypt(input io.Reader) (io.ReadSeeker, error) {
	nonce := make([]byte, d.gcm.NonceSize())
	if _, err := io.ReadFull(input, nonce); err != nil {
		if errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, io.EOF) {
			return nil, ErrShortCiphertext
		}
		return nil, err
	}

	cipherText, err := io.ReadAll(input)
	if err != nil {
		return nil, err
	}

	plainText, err := d.gcm.Open(nil, nonce, cipherText, nil)
	if err != nil {
		return nil, fmt.Errorf("open: %w", err)
	}
	return bytes.NewReader(plainText), nil
}
