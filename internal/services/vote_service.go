package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"petition/internal/logger"
	"petition/internal/models"
	"petition/internal/ratelimit"
	"petition/internal/repositories"
	"petition/internal/utils"
)

var (
	ErrMissingToken       = errors.New("captcha token is required")
	ErrCaptchaUnavailable = errors.New("captcha service error")
	ErrThrottled          = errors.New("too many requests")
	ErrSMSProvider        = errors.New("SMS provider error")
)

// CaptchaRejectedError carries the message the CAPTCHA service gave for a
// non-ok verdict.
type CaptchaRejectedError struct {
	Message string
}

func (e *CaptchaRejectedError) Error() string {
	if e.Message == "" {
		return "captcha rejected"
	}
	return "captcha rejected: " + e.Message
}

type CaptchaVerifier interface {
	Validate(ctx context.Context, token, ip string) (*utils.CaptchaResult, error)
}

type SMSSender interface {
	Send(ctx context.Context, phone, text string) error
}

type SubmitStatus string

const (
	OutcomeSMSSent         SubmitStatus = "sms_sent"
	OutcomeAlreadyVerified SubmitStatus = "already_verified"
)

type SubmitRequest struct {
	FullName     string
	Email        string
	Phone        string
	CaptchaToken string
	ClientIP     string
}

type SubmitOutcome struct {
	Status SubmitStatus
	// Host is the opaque value SmartCaptcha returned for the token.
	Host string
}

// VoteLimits bounds how often one phone or one IP may request a code.
// Zero disables the corresponding check.
type VoteLimits struct {
	Window   time.Duration
	PerPhone int
	PerIP    int
}

// VoteService drives the public flow: CAPTCHA, code issue, SMS, then
// verification and tally bookkeeping.
type VoteService struct {
	store    repositories.Store
	issuer   *CodeIssuer
	verifier *Verifier
	captcha  CaptchaVerifier
	sms      SMSSender
	limiter  ratelimit.Limiter
	email    EmailService
	limits   VoteLimits
	log      *zap.Logger
}

func NewVoteService(
	store repositories.Store,
	issuer *CodeIssuer,
	verifier *Verifier,
	captcha CaptchaVerifier,
	sms SMSSender,
	limiter ratelimit.Limiter,
	email EmailService,
	limits VoteLimits,
	log *zap.Logger,
) *VoteService {
	if log == nil {
		log = zap.NewNop()
	}
	if email == nil {
		email = noopEmailService{}
	}
	return &VoteService{
		store:    store,
		issuer:   issuer,
		verifier: verifier,
		captcha:  captcha,
		sms:      sms,
		limiter:  limiter,
		email:    email,
		limits:   limits,
		log:      log,
	}
}

// Submit validates the CAPTCHA token, issues a code for the phone and sends
// it. The record is committed before the SMS goes out and is left in place
// when the gateway fails, so a retry resends over it.
func (s *VoteService) Submit(ctx context.Context, req SubmitRequest) (SubmitOutcome, error) {
	token := strings.TrimSpace(req.CaptchaToken)
	if token == "" {
		return SubmitOutcome{}, ErrMissingToken
	}
	log := s.log.With(zap.String("phone", logger.MaskPhone(req.Phone)), zap.String("ip", req.ClientIP))

	verdict, err := s.captcha.Validate(ctx, token, req.ClientIP)
	if err != nil {
		log.Warn("captcha validation failed", zap.Error(err))
		return SubmitOutcome{}, fmt.Errorf("%w: %v", ErrCaptchaUnavailable, err)
	}
	if !verdict.OK() {
		log.Info("captcha rejected", zap.String("message", verdict.Message))
		return SubmitOutcome{}, &CaptchaRejectedError{Message: verdict.Message}
	}

	if err := s.throttle(ctx, req.Phone, req.ClientIP); err != nil {
		log.Info("submit throttled")
		return SubmitOutcome{}, err
	}

	var (
		code   string
		issued bool
	)
	err = s.store.WithinTx(ctx, func(tx repositories.Store) error {
		user := &models.User{
			PhoneNumber: req.Phone,
			FullName:    strings.TrimSpace(req.FullName),
		}
		if e := strings.TrimSpace(req.Email); e != "" {
			user.Email = &e
		}
		user, created, err := tx.Users().GetOrCreate(ctx, user)
		if err != nil {
			return err
		}
		if created {
			log.Info("user created", zap.String("user_id", user.ID.String()))
		}

		code, issued, err = s.issuer.WithStore(tx).CreateOrResend(ctx, req.Phone, user.ID)
		return err
	})
	if err != nil {
		log.Error("submit failed", zap.Error(err))
		return SubmitOutcome{}, fmt.Errorf("submit vote: %w", err)
	}
	if !issued {
		log.Info("phone already verified, sms skipped")
		return SubmitOutcome{Status: OutcomeAlreadyVerified, Host: verdict.Host}, nil
	}

	if err := s.sms.Send(ctx, req.Phone, fmt.Sprintf("Код подтверждения: %s", code)); err != nil {
		log.Error("sms dispatch failed", zap.Error(err))
		return SubmitOutcome{}, fmt.Errorf("%w: %v", ErrSMSProvider, err)
	}

	log.Info("verification code sent")
	return SubmitOutcome{Status: OutcomeSMSSent, Host: verdict.Host}, nil
}

type limitCheck struct {
	key   string
	limit int
}

// throttle fails open when the limiter itself is broken; an outage of the
// counter store must not stop voting.
func (s *VoteService) throttle(ctx context.Context, phone, ip string) error {
	if s.limiter == nil || s.limits.Window <= 0 {
		return nil
	}
	checks := []limitCheck{{ratelimit.PhonePrefix + phone, s.limits.PerPhone}}
	if ip != "" {
		checks = append(checks, limitCheck{ratelimit.IPPrefix + ip, s.limits.PerIP})
	}

	for _, c := range checks {
		ok, err := s.limiter.Allow(ctx, c.key, c.limit, s.limits.Window)
		if err != nil {
			s.log.Warn("rate limiter unavailable", zap.Error(err))
			return nil
		}
		if !ok {
			return ErrThrottled
		}
	}
	return nil
}

// Verify checks the code and, on success, marks the owner's vote as valid in
// the same transaction. The tally increment and the thank-you email run after
// commit and never turn a success into a failure.
func (s *VoteService) Verify(ctx context.Context, phone, code string) (VerifyResult, error) {
	var res VerifyResult
	err := s.store.WithinTx(ctx, func(tx repositories.Store) error {
		var err error
		res, err = s.verifier.WithStore(tx).VerifyCode(ctx, phone, code)
		if err != nil || !res.OK {
			return err
		}
		return tx.Users().SetValidVote(ctx, res.Record.UserID, true)
	})
	log := s.log.With(zap.String("phone", logger.MaskPhone(phone)))
	if err != nil {
		log.Error("verify failed", zap.Error(err))
		return VerifyResult{}, fmt.Errorf("verify vote: %w", err)
	}
	if !res.OK {
		log.Info("code rejected", zap.String("reason", string(res.Reason)))
		return res, nil
	}

	if err := s.store.Votings().IncrementFake(ctx); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			log.Warn("tally not incremented: no current voting")
		} else {
			log.Warn("tally not incremented", zap.Error(err))
		}
	}

	s.thank(ctx, res.Record, log)
	log.Info("vote verified")
	return res, nil
}

func (s *VoteService) thank(ctx context.Context, rec *models.SMSVerification, log *zap.Logger) {
	user, err := s.store.Users().GetByID(ctx, rec.UserID)
	if err != nil || user == nil || user.Email == nil || *user.Email == "" {
		return
	}
	if err := s.email.SendThankYouEmail(*user.Email, user.FullName); err != nil {
		log.Warn("thank you email failed", zap.Error(err))
	}
}
