package id

import (
	"strings"

	"github.com/google/uuid"
)

// NewID32 returns a random v4 UUID as exactly 32 lowercase hex characters.
func NewID32() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}

// NewTaskID returns a canonical dashed UUID for outbox rows.
func NewTaskID() string { return uuid.NewString() }
