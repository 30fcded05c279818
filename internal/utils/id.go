package utils

import "github.com/google/uuid"

// NewID returns a unique identifier, optionally prefixed for readability
// in logs.
func NewID(prefix string) string {
	id := uuid.NewString()
	if prefix == "" {
		return id
	}
	return prefix + "-" + id
}
