// Package credentials persists marketplace credential bundles encrypted at
// rest. Bundles are sealed with AES-GCM; the key is derived once from the
// configured passphrase.
package credentials

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"errors"
	"io"

	"golang.org/x/crypto/pbkdf2"
)

const (
	keyLength       = 32
	pbkdf2Rounds    = 10000
	encryptorSalt   = "marketplace-credentials-v1"
	minSecretLength = 16
)

var (
	ErrSecretTooShort    = errors.New("credentials: encryption secret must be at least 16 characters")
	ErrCiphertextInvalid = errors.New("credentials: ciphertext is truncated or corrupted")
)

// Encryptor seals and opens credential payloads with AES-256-GCM. The nonce
// is prepended to each ciphertext.
type Encryptor struct {
	aead cipher.AEAD
}

// NewEncryptor derives the AES key from the secret and builds the AEAD.
func NewEncryptor(secret string) (*Encryptor, error) {
	if len(secret) < minSecretLength {
		return nil, ErrSecretTooShort
	}
	key := pbkdf2.Key([]byte(secret), []byte(encryptorSalt), pbkdf2Rounds, keyLength, sha256.New)

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}
	return &Encryptor{aead: aead}, nil
}

// Seal encrypts the plaintext with a fresh random nonce.
func (e *Encryptor) Seal(plaintext []byte) ([]byte, error) {
	nonce := make([]byte, e.aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, err
	}
	return e.aead.Seal(nonce, nonce, plaintext, nil), nil
}

// Open decrypts a ciphertext produced by Seal.
func (e *Encryptor) Open(ciphertext []byte) ([]byte, error) {
	if len(ciphertext) < e.aead.NonceSize() {
		return nil, ErrCiphertextInvalid
	}
	nonce, sealed := ciphertext[:e.aead.NonceSize()], ciphertext[e.aead.NonceSize():]
	plaintext, err := e.aead.Open(nil, nonce, sealed, nil)
	if err != nil {
		return nil, ErrCiphertextInvalid
	}
	return plaintext, nil
}
