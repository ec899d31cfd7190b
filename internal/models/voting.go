package models

import (
	"time"

	"github.com/google/uuid"
)

type VoteStatus string

const (
	VoteStatusCollecting VoteStatus = "collecting"
	VoteStatusReviewing  VoteStatus = "reviewing"
	VoteStatusAccepted   VoteStatus = "accepted"
	VoteStatusRejected   VoteStatus = "rejected"
)

var voteStatusLabels = map[VoteStatus]string{
	VoteStatusCollecting: "Сбор подписей",
	VoteStatusReviewing:  "На проверке",
	VoteStatusAccepted:   "Принято",
	VoteStatusRejected:   "Не принято",
}

func (s VoteStatus) Valid() bool {
	_, ok := voteStatusLabels[s]
	return ok
}

// Label is the text the public site shows for the status.
func (s VoteStatus) Label() string {
	return voteStatusLabels[s]
}

// Voting is the signature collection campaign. Exactly one row has
// IsCurrent set; the public endpoints read only that row.
type Voting struct {
	ID           uuid.UUID  `json:"id"`
	StartDate    time.Time  `json:"start_date"`
	EndDate      time.Time  `json:"end_date"`
	RealQuantity int        `json:"real_quantity"`
	FakeQuantity int        `json:"fake_quantity"`
	ShowReal     bool       `json:"show_real"`
	Status       VoteStatus `json:"status"`
	IsCurrent    bool       `json:"is_current"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// DisplayQuantity picks the public counter. real is the live count of valid
// votes; the cached RealQuantity column is not trusted.
func (v *Voting) DisplayQuantity(real int) int {
	if v.ShowReal {
		return real
	}
	return v.FakeQuantity
}

// VotingInfo is the public read model.
type VotingInfo struct {
	StartDate time.Time `json:"start_date"`
	EndDate   time.Time `json:"end_date"`
	Quantity  int       `json:"quantity"`
	Status    string    `json:"status"`
}

// VotingUpdate carries a partial admin update; nil fields are left alone.
type VotingUpdate struct {
	StartDate    *time.Time  `json:"start_date"`
	EndDate      *time.Time  `json:"end_date"`
	FakeQuantity *int        `json:"fake_quantity"`
	ShowReal     *bool       `json:"show_real"`
	Status       *VoteStatus `json:"status"`
}
