package models

import (
	"time"

	"github.com/google/uuid"
)

// User is a signer identified by phone number.
type User struct {
	ID          uuid.UUID `json:"id"`
	PhoneNumber string    `json:"phone_number"`
	FullName    string    `json:"full_name"`
	Email       *string   `json:"email,omitempty"`
	ValidVote   bool      `json:"valid_vote"` // counted toward the real tally
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type UserFilter struct {
	ValidVote *bool
	Limit     int
	Offset    int
}
