package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"petition/internal/models"
	"petition/internal/repositories"
	"petition/internal/utils"
)

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrInvalidToken       = utils.ErrInvalidToken
	ErrAdminNotFound      = errors.New("admin not found")
	ErrWeakPassword       = errors.New("password must be at least 8 characters")
)

const minPasswordLength = 8

// compared against when the email is unknown so both paths cost one bcrypt
var dummyHash, _ = bcrypt.GenerateFromPassword([]byte("petition-dummy-password"), bcrypt.DefaultCost)

type TokenPair struct {
	Access         string
	AccessExpires  time.Time
	Refresh        string
	RefreshExpires time.Time
}

type AuthService interface {
	HashPassword(password string) (string, error)
	Login(ctx context.Context, email, password string) (*models.Admin, *TokenPair, error)
	Refresh(ctx context.Context, refreshToken string) (*models.Admin, *TokenPair, error)
	Authenticate(accessToken string) (uuid.UUID, error)
	GetAdmin(ctx context.Context, id uuid.UUID) (*models.Admin, error)
	UpsertAdmin(ctx context.Context, email, password string) (*models.Admin, bool, error)
}

type authService struct {
	store  repositories.Store
	tokens *utils.TokenManager
	log    *zap.Logger
}

func NewAuthService(store repositories.Store, tokens *utils.TokenManager, log *zap.Logger) AuthService {
	if log == nil {
		log = zap.NewNop()
	}
	return &authService{store: store, tokens: tokens, log: log}
}

func (s *authService) HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

func (s *authService) Login(ctx context.Context, email, password string) (*models.Admin, *TokenPair, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	admin, err := s.store.Admins().GetByEmail(ctx, email)
	if err != nil {
		return nil, nil, err
	}

	hash := dummyHash
	if admin != nil {
		hash = []byte(strings.TrimSpace(admin.PasswordHash))
	}
	if err := bcrypt.CompareHashAndPassword(hash, []byte(password)); err != nil || admin == nil {
		s.log.Info("admin login rejected", zap.String("email", email))
		return nil, nil, ErrInvalidCredentials
	}

	pair, err := s.issuePair(admin.ID)
	if err != nil {
		return nil, nil, err
	}
	s.log.Info("admin logged in", zap.String("admin_id", admin.ID.String()))
	return admin, pair, nil
}

func (s *authService) Refresh(ctx context.Context, refreshToken string) (*models.Admin, *TokenPair, error) {
	claims, err := s.tokens.Parse(refreshToken, utils.RefreshToken)
	if err != nil {
		return nil, nil, ErrInvalidToken
	}
	id, _ := uuid.Parse(claims.AdminID)

	admin, err := s.store.Admins().GetByID(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	if admin == nil {
		// deleted after the token was issued
		return nil, nil, ErrInvalidToken
	}

	pair, err := s.issuePair(admin.ID)
	if err != nil {
		return nil, nil, err
	}
	return admin, pair, nil
}

func (s *authService) Authenticate(accessToken string) (uuid.UUID, error) {
	claims, err := s.tokens.Parse(accessToken, utils.AccessToken)
	if err != nil {
		return uuid.Nil, ErrInvalidToken
	}
	id, _ := uuid.Parse(claims.AdminID)
	return id, nil
}

func (s *authService) GetAdmin(ctx context.Context, id uuid.UUID) (*models.Admin, error) {
	admin, err := s.store.Admins().GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if admin == nil {
		return nil, ErrAdminNotFound
	}
	return admin, nil
}

// UpsertAdmin creates the admin or resets the password of an existing one.
func (s *authService) UpsertAdmin(ctx context.Context, email, password string) (*models.Admin, bool, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return nil, false, fmt.Errorf("email is required")
	}
	if len(password) < minPasswordLength {
		return nil, false, ErrWeakPassword
	}
	hash, err := s.HashPassword(password)
	if err != nil {
		return nil, false, err
	}

	admin := &models.Admin{Email: email, PasswordHash: hash}
	inserted, err := s.store.Admins().Upsert(ctx, admin)
	if err != nil {
		return nil, false, err
	}
	return admin, inserted, nil
}

func (s *authService) issuePair(adminID uuid.UUID) (*TokenPair, error) {
	access, accessExp, err := s.tokens.Issue(adminID, utils.AccessToken)
	if err != nil {
		return nil, err
	}
	refresh, refreshExp, err := s.tokens.Issue(adminID, utils.RefreshToken)
	if err != nil {
		return nil, err
	}
	return &TokenPair{
		Access:         access,
		AccessExpires:  accessExp,
		Refresh:        refresh,
		RefreshExpires: refreshExp,
	}, nil
}
