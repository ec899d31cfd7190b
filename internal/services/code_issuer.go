package services

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"time"

	"github.com/google/uuid"

	"petition/internal/models"
	"petition/internal/repositories"
)

const (
	DefaultCodeTTL     = 5 * time.Minute
	DefaultMaxAttempts = 3

	codeSpace = 1000000
)

// CodeGenerator returns a zero-padded 6-digit code.
type CodeGenerator func() (string, error)

// GenerateCode draws uniformly from 000000-999999 using crypto/rand.
func GenerateCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(codeSpace))
	if err != nil {
		return "", fmt.Errorf("generate code: %w", err)
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}

// CodeIssuer owns the "one active code per phone" record.
type CodeIssuer struct {
	store    repositories.Store
	ttl      time.Duration
	now      func() time.Time
	generate CodeGenerator
}

func NewCodeIssuer(store repositories.Store, ttl time.Duration) *CodeIssuer {
	if ttl <= 0 {
		ttl = DefaultCodeTTL
	}
	return &CodeIssuer{
		store:    store,
		ttl:      ttl,
		now:      func() time.Time { return time.Now().UTC() },
		generate: GenerateCode,
	}
}

// WithStore returns a copy of the issuer bound to st, typically a
// transaction handed out by Store.WithinTx.
func (i *CodeIssuer) WithStore(st repositories.Store) *CodeIssuer {
	cp := *i
	cp.store = st
	return &cp
}

func (i *CodeIssuer) TTL() time.Duration { return i.ttl }

// CreateOrResend writes a fresh code for phone and returns it. issued is
// false when the phone is already verified; the record is then left as is
// and no SMS must be sent.
func (i *CodeIssuer) CreateOrResend(ctx context.Context, phone string, userID uuid.UUID) (code string, issued bool, err error) {
	err = i.store.Verifications().Mutate(ctx, phone, func(current *models.SMSVerification) (*models.SMSVerification, error) {
		code, issued = "", false
		if current != nil && current.IsVerified {
			return nil, nil
		}

		previous := ""
		if current != nil {
			previous = current.Code
		}
		c, err := i.freshCode(previous)
		if err != nil {
			return nil, err
		}

		now := i.now()
		next := &models.SMSVerification{
			PhoneNumber: phone,
			Code:        c,
			CreatedAt:   now,
			ExpiresAt:   now.Add(i.ttl),
			Attempts:    0,
			IsVerified:  false,
			UserID:      userID,
		}
		if current != nil {
			next.ID = current.ID
		}
		code, issued = c, true
		return next, nil
	})
	if err != nil {
		return "", false, fmt.Errorf("create or resend code: %w", err)
	}
	return code, issued, nil
}

// freshCode never hands out the code that is being replaced.
func (i *CodeIssuer) freshCode(previous string) (string, error) {
	for {
		c, err := i.generate()
		if err != nil {
			return "", err
		}
		if c != previous {
			return c, nil
		}
	}
}
