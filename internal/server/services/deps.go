package services

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Clock supplies the current instant. Implementations return UTC.
type Clock interface {
	Now() time.Time
}

// IDGenerator produces new primary keys.
type IDGenerator interface {
	NewID() (string, error)
}

// PasswordHasher hashes and checks passwords; see auth.Argon2Hasher.
type PasswordHasher interface {
	Hash(password string) (string, error)
	Verify(password, encoded string) bool
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now().UTC() }

// uuidV7Generator issues time-ordered UUIDs, so sorting by id preserves
// insertion order.
type uuidV7Generator struct{}

func (uuidV7Generator) NewID() (string, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return "", fmt.Errorf("generate id: %w", err)
	}
	return id.String(), nil
}
