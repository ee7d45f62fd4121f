package model

import (
	"time"

	"github.com/google/uuid"
)

type User struct {
	ID           uuid.UUID
	Email        string
	PasswordHash string
	CreatedAt    time.Time
}

// Principal is the authenticated caller of a request.
type Principal struct {
	UserID uuid.UUID `json:"user_id"`
	Email  string    `json:"email"`
}
