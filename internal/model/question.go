package model

import (
	"time"

	"github.com/google/uuid"
)

// Mode is the visibility mode of a question or cause.
//
// The set of modes is an external contract shared with the client: PRIVATE
// analyses are visible to their owner only, SUPERVISED analyses additionally
// to staff users, and anything else is treated as openly readable.
type Mode string

const (
	ModePrivate    Mode = "PRIVATE"
	ModeSupervised Mode = "SUPERVISED"
	ModePublic     Mode = "PUBLIC"
)

// Valid reports whether m is a known visibility mode.
func (m Mode) Valid() bool {
	switch m {
	case ModePrivate, ModeSupervised, ModePublic:
		return true
	}
	return false
}

// Question is the root of a root-cause analysis tree: the problem statement
// whose cause grid is validated bottom-up.
type Question struct {
	ID        uuid.UUID `json:"id"`
	UserID    uuid.UUID `json:"user_id"`
	Question  string    `json:"question"`
	Mode      Mode      `json:"mode"`
	CreatedAt time.Time `json:"created_at"`
}
