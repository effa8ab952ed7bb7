package model

import (
	"time"

	"github.com/google/uuid"
)

// Cause is one cell of a question's cause grid. Row 1 sits directly beneath
// the question; higher rows are deeper in the causal chain. Column identifies
// which branch of the analysis the cause belongs to.
//
// Status and RootStatus are monotonic: validation only ever flips them
// false→true, never back.
type Cause struct {
	ID         uuid.UUID `json:"id"`
	QuestionID uuid.UUID `json:"question_id"`
	Row        int       `json:"row"`
	Column     int       `json:"column"`
	Mode       Mode      `json:"mode"`
	Cause      string    `json:"cause"`
	Status     bool      `json:"status"`
	RootStatus bool      `json:"root_status"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}
