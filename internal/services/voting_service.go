package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"petition/internal/models"
	"petition/internal/repositories"
)

var (
	ErrNoCurrentVoting   = errors.New("no current voting")
	ErrInvalidStatus     = errors.New("invalid status")
	ErrInvalidTransition = errors.New("status transition not allowed")
	ErrInvalidPeriod     = errors.New("end_date must be after start_date")
	ErrNegativeQuantity  = errors.New("fake_quantity must not be negative")
)

// Допустимые переходы статусов кампании.
var VotingTransitions = map[models.VoteStatus]map[models.VoteStatus]bool{
	models.VoteStatusCollecting: {models.VoteStatusReviewing: true},
	models.VoteStatusReviewing:  {models.VoteStatusAccepted: true, models.VoteStatusRejected: true, models.VoteStatusCollecting: true},
	models.VoteStatusAccepted:   {},
	models.VoteStatusRejected:   {},
}

func canTransition(current, to models.VoteStatus) bool {
	if current == to {
		return true
	}
	nexts, ok := VotingTransitions[current]
	if !ok {
		return false
	}
	return nexts[to]
}

type CreateVotingInput struct {
	StartDate    time.Time          `json:"start_date" binding:"required"`
	EndDate      time.Time          `json:"end_date" binding:"required"`
	FakeQuantity int                `json:"fake_quantity"`
	ShowReal     *bool              `json:"show_real"`
	Status       *models.VoteStatus `json:"status"`
}

type VotingService struct {
	store repositories.Store
	log   *zap.Logger
}

func NewVotingService(store repositories.Store, log *zap.Logger) *VotingService {
	if log == nil {
		log = zap.NewNop()
	}
	return &VotingService{store: store, log: log}
}

// PublicInfo is what the public site shows. The real count is always taken
// live from users, never from the cached column.
func (s *VotingService) PublicInfo(ctx context.Context) (*models.VotingInfo, error) {
	v, err := s.store.Votings().GetCurrent(ctx)
	if err != nil {
		return nil, err
	}
	if v == nil {
		return nil, ErrNoCurrentVoting
	}

	quantity := v.FakeQuantity
	if v.ShowReal {
		real, err := s.store.Users().CountValid(ctx)
		if err != nil {
			return nil, err
		}
		quantity = v.DisplayQuantity(real)
	}

	return &models.VotingInfo{
		StartDate: v.StartDate,
		EndDate:   v.EndDate,
		Quantity:  quantity,
		Status:    v.Status.Label(),
	}, nil
}

// Current returns the full campaign for admins with real_quantity refreshed.
func (s *VotingService) Current(ctx context.Context) (*models.Voting, error) {
	v, err := s.store.Votings().GetCurrent(ctx)
	if err != nil {
		return nil, err
	}
	if v == nil {
		return nil, ErrNoCurrentVoting
	}
	real, err := s.store.Votings().RefreshRealQuantity(ctx)
	if err != nil {
		if !errors.Is(err, repositories.ErrNotFound) {
			return nil, err
		}
		// retired between the two calls
		return nil, ErrNoCurrentVoting
	}
	v.RealQuantity = real
	return v, nil
}

// Create starts a new campaign and retires the previous current one.
func (s *VotingService) Create(ctx context.Context, in CreateVotingInput) (*models.Voting, error) {
	if !in.EndDate.After(in.StartDate) {
		return nil, ErrInvalidPeriod
	}
	if in.FakeQuantity < 0 {
		return nil, ErrNegativeQuantity
	}

	v := &models.Voting{
		StartDate:    in.StartDate.UTC(),
		EndDate:      in.EndDate.UTC(),
		FakeQuantity: in.FakeQuantity,
		ShowReal:     true,
		Status:       models.VoteStatusCollecting,
	}
	if in.ShowReal != nil {
		v.ShowReal = *in.ShowReal
	}
	if in.Status != nil {
		if !in.Status.Valid() {
			return nil, ErrInvalidStatus
		}
		v.Status = *in.Status
	}

	if err := s.store.Votings().Create(ctx, v); err != nil {
		return nil, fmt.Errorf("create voting: %w", err)
	}
	s.log.Info("voting created",
		zap.String("voting_id", v.ID.String()),
		zap.Time("start_date", v.StartDate),
		zap.Time("end_date", v.EndDate),
	)
	return v, nil
}

// Update applies a partial change to the current campaign. The row stays
// locked for the whole read-modify-write.
func (s *VotingService) Update(ctx context.Context, upd models.VotingUpdate) (*models.Voting, error) {
	var out *models.Voting
	err := s.store.WithinTx(ctx, func(tx repositories.Store) error {
		v, err := tx.Votings().GetCurrent(ctx)
		if err != nil {
			return err
		}
		if v == nil {
			return ErrNoCurrentVoting
		}

		if upd.StartDate != nil {
			v.StartDate = upd.StartDate.UTC()
		}
		if upd.EndDate != nil {
			v.EndDate = upd.EndDate.UTC()
		}
		if !v.EndDate.After(v.StartDate) {
			return ErrInvalidPeriod
		}
		if upd.FakeQuantity != nil {
			if *upd.FakeQuantity < 0 {
				return ErrNegativeQuantity
			}
			v.FakeQuantity = *upd.FakeQuantity
		}
		if upd.ShowReal != nil {
			v.ShowReal = *upd.ShowReal
		}
		if upd.Status != nil {
			if !upd.Status.Valid() {
				return ErrInvalidStatus
			}
			if !canTransition(v.Status, *upd.Status) {
				return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, v.Status, *upd.Status)
			}
			v.Status = *upd.Status
		}

		if err := tx.Votings().Update(ctx, v); err != nil {
			return err
		}
		out = v
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.log.Info("voting updated", zap.String("voting_id", out.ID.String()), zap.String("status", string(out.Status)))
	return out, nil
}
