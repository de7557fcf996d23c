package security

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"io"
	"strings"

	"golang.org/x/crypto/chacha20poly1305"
	"golang.org/x/crypto/hkdf"
)

const sealerInfo = "tukicale sealed credentials v1"

var (
	ErrSealerSecretMissing = errors.New("sealer secret missing")
	ErrSealedValueInvalid  = errors.New("sealed value invalid")
)

// Sealer encrypts small values, such as OAuth tokens, before they are
// written to the database. The key is derived from the configured secret.
type Sealer struct {
	key []byte
}

func NewSealer(secret string) (*Sealer, error) {
	secret = strings.TrimSpace(secret)
	if secret == "" {
		return nil, ErrSealerSecretMissing
	}

	key := make([]byte, chacha20poly1305.KeySize)
	reader := hkdf.New(sha256.New, []byte(secret), nil, []byte(sealerInfo))
	if _, err := io.ReadFull(reader, key); err != nil {
		return nil, err
	}
	return &Sealer{key: key}, nil
}

// Seal returns base64(nonce || ciphertext).
func (sealer *Sealer) Seal(plaintext []byte) (string, error) {
	aead, err := chacha20poly1305.NewX(sealer.key)
	if err != nil {
		return "", err
	}

	nonce := make([]byte, aead.NonceSize(), aead.NonceSize()+len(plaintext)+aead.Overhead())
	if _, err := rand.Read(nonce); err != nil {
		return "", err
	}
	sealed := aead.Seal(nonce, nonce, plaintext, nil)
	return base64.RawURLEncoding.EncodeToString(sealed), nil
}

func (sealer *Sealer) Open(encoded string) ([]byte, error) {
	raw, err := base64.RawURLEncoding.DecodeString(strings.TrimSpace(encoded))
	if err != nil {
		return nil, ErrSealedValueInvalid
	}

	aead, err := chacha20poly1305.NewX(sealer.key)
	if err != nil {
		return nil, err
	}
	if len(raw) < aead.NonceSize()+aead.Overhead() {
		return nil, ErrSealedValueInvalid
	}

	nonce, ciphertext := raw[:aead.NonceSize()], raw[aead.NonceSize():]
	plaintext, err := aead.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, ErrSealedValueInvalid
	}
	return plaintext, nil
}
