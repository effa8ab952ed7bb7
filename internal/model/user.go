package model

import (
	"time"

	"github.com/google/uuid"
)

// User is an account that owns questions and triggers validation runs.
// Staff users may view SUPERVISED analyses they do not own.
type User struct {
	ID           uuid.UUID `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	IsStaff      bool      `json:"is_staff"`
	CreatedAt    time.Time `json:"created_at"`
}
