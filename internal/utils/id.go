package utils

import (
	"github.com/google/uuid"
)

// GenerateID returns a new random identifier for blob names and request tracing.
func GenerateID() string {
	return uuid.New().String()
}

// ShortID returns the first 8 characters of a fresh UUID, used to keep blob
// names unique without making them unwieldy.
func ShortID() string {
	return uuid.New().String()[:8]
}
