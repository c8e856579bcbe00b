package pipeline

import "github.com/google/uuid"

// IDGenerator produces run IDs.
type IDGenerator func() string

// NewRunID returns a random UUID.
func NewRunID() string {
	return uuid.NewString()
}
