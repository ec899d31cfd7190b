package models

import (
	"time"

	"github.com/google/uuid"
)

// SMSVerification is the one active code per phone number. A resend
// overwrites the row; once IsVerified is set the row is never consumed again.
type SMSVerification struct {
	ID          uuid.UUID `json:"id"`
	PhoneNumber string    `json:"phone_number"`
	Code        string    `json:"-"`
	CreatedAt   time.Time `json:"created_at"`
	ExpiresAt   time.Time `json:"expires_at"`
	Attempts    int       `json:"attempts"`
	IsVerified  bool      `json:"is_verified"`
	UserID      uuid.UUID `json:"user_id"`
}

func (v *SMSVerification) Expired(now time.Time) bool {
	return now.After(v.ExpiresAt)
}
