package services

import (
	"context"
	"crypto/subtle"
	"fmt"
	"time"

	"petition/internal/models"
	"petition/internal/repositories"
)

// RejectReason explains why a code was not accepted. The values go out to
// clients verbatim.
type RejectReason string

const (
	ReasonNotFound         RejectReason = "not_found"
	ReasonAlreadyVerified  RejectReason = "already_verified"
	ReasonExpired          RejectReason = "expired"
	ReasonAttemptsExceeded RejectReason = "attempts_exceeded"
	ReasonInvalidCode      RejectReason = "invalid_code"
)

type VerifyResult struct {
	OK     bool
	Reason RejectReason
	// Record is the state after the call, nil when the phone has none.
	Record *models.SMSVerification
}

type Verifier struct {
	store       repositories.Store
	maxAttempts int
	now         func() time.Time
}

func NewVerifier(store repositories.Store, maxAttempts int) *Verifier {
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}
	return &Verifier{
		store:       store,
		maxAttempts: maxAttempts,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

func (v *Verifier) WithStore(st repositories.Store) *Verifier {
	cp := *v
	cp.store = st
	return &cp
}

func (v *Verifier) MaxAttempts() int { return v.maxAttempts }

// VerifyCode checks code against the phone's record under the record lock.
// Only a mismatch charges an attempt; success marks the record verified and
// counts the attempt too. Rejections are reported in the result, the error
// is reserved for storage failures.
func (v *Verifier) VerifyCode(ctx context.Context, phone, code string) (VerifyResult, error) {
	var res VerifyResult
	err := v.store.Verifications().Mutate(ctx, phone, func(current *models.SMSVerification) (*models.SMSVerification, error) {
		res = VerifyResult{Record: current}
		switch {
		case current == nil:
			res.Reason = ReasonNotFound
			return nil, nil
		case current.IsVerified:
			res.Reason = ReasonAlreadyVerified
			return nil, nil
		case current.Expired(v.now()):
			res.Reason = ReasonExpired
			return nil, nil
		case current.Attempts >= v.maxAttempts:
			res.Reason = ReasonAttemptsExceeded
			return nil, nil
		}

		next := *current
		next.Attempts++
		if subtle.ConstantTimeCompare([]byte(current.Code), []byte(code)) != 1 {
			res.Reason = ReasonInvalidCode
		} else {
			next.IsVerified = true
			res.OK = true
		}
		res.Record = &next
		return &next, nil
	})
	if err != nil {
		return VerifyResult{}, fmt.Errorf("verify code: %w", err)
	}
	return res, nil
}
