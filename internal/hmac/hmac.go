package hmac

import (
	cryptoHMAC "crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"errors"
)

// ErrMissingKey is returned when signing without a key
var ErrMissingKey = errors.New("hmac key is not configured")

// HMAC is a utility for creating and verifying HMACs
type HMAC struct {
	Key []byte
}

// Create creates a HMAC-SHA256 of the message, encoded as urlsafe base64 without padding
func (h *HMAC) Create(message string) (string, error) {
	if len(h.Key) == 0 {
		return "", ErrMissingKey
	}

	mac := cryptoHMAC.New(sha256.New, h.Key)
	if _, err := mac.Write([]byte(message)); err != nil {
		return "", err
	}

	return base64.RawURLEncoding.EncodeToString(mac.Sum(nil)), nil
}

// Validate validates that the message matches a given HMAC in constant time
func (h *HMAC) Validate(message, mac string) (bool, error) {
	expectedMAC, err := h.Create(message)
	if err != nil {
		return false, err
	}

	return cryptoHMAC.Equal([]byte(mac), []byte(expectedMAC)), nil
}
