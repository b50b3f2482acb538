package storage

import (
	"context"
	"errors"
	"regexp"
)

// Provider is an interface for retrieving source images
type Provider interface {
	Get(ctx context.Context, id string) ([]byte, error)
}

// Extensions are the source file extensions looked up for an image id, in order
var Extensions = []string{".png", ".jpg", ".jpeg", ".webp"}

var validID = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

// ValidID reports whether id is safe to use as a file name or object key
func ValidID(id string) bool {
	return validID.MatchString(id)
}

// Errors
var (
	ErrNotFound  = errors.New("Image does not exist")
	ErrInvalidID = errors.New("Invalid image id")
)
