package security

import (
	"crypto/rand"
	"errors"
	"fmt"
)

const (
	SecretKeyAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"
	SecretKeyLength   = 48
)

var (
	ErrInvalidLength   = errors.New("random string length must be non-negative")
	ErrInvalidAlphabet = errors.New("alphabet must hold between 1 and 256 bytes")
)

// RandomString draws length bytes from alphabet using crypto/rand. Bytes at
// or above the largest multiple of len(alphabet) are rejected so every
// symbol is equally likely.
func RandomString(length int, alphabet string) (string, error) {
	switch {
	case length < 0:
		return "", ErrInvalidLength
	case length == 0:
		return "", nil
	case len(alphabet) == 0 || len(alphabet) > 256:
		return "", ErrInvalidAlphabet
	}

	size := len(alphabet)
	cutoff := 256 - 256%size
	out := make([]byte, 0, length)
	buffer := make([]byte, length+length/2+1)
	for len(out) < length {
		if _, err := rand.Read(buffer); err != nil {
			return "", fmt.Errorf("read random bytes: %w", err)
		}
		for _, b := range buffer {
			if int(b) >= cutoff {
				continue
			}
			out = append(out, alphabet[int(b)%size])
			if len(out) == length {
				break
			}
		}
	}
	return string(out), nil
}

// NewSecretKey generates the signing and sealing secret written on first run.
func NewSecretKey() (string, error) {
	return RandomString(SecretKeyLength, SecretKeyAlphabet)
}
