package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"petition/internal/repositories/memory"
	"petition/internal/utils"
)

func newAuth(t *testing.T) (AuthService, *utils.TokenManager) {
	t.Helper()
	tokens := utils.NewTokenManager("test-secret", 15*time.Minute, 24*time.Hour)
	return NewAuthService(memory.NewStore(), tokens, nil), tokens
}

func TestUpsertAdmin(t *testing.T) {
	auth, _ := newAuth(t)
	ctx := context.Background()

	admin, created, err := auth.UpsertAdmin(ctx, " Admin@Example.com ", "first-password")
	if err != nil {
		t.Fatalf("UpsertAdmin: %v", err)
	}
	if !created || admin.Email != "admin@example.com" {
		t.Fatalf("created=%v email=%q", created, admin.Email)
	}

	again, created, err := auth.UpsertAdmin(ctx, "admin@example.com", "second-password")
	if err != nil {
		t.Fatalf("UpsertAdmin: %v", err)
	}
	if created || again.ID != admin.ID {
		t.Fatalf("second upsert: created=%v id=%v, want false/%v", created, again.ID, admin.ID)
	}

	if _, _, err := auth.Login(ctx, "admin@example.com", "first-password"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("old password still works: %v", err)
	}
	if _, _, err := auth.Login(ctx, "admin@example.com", "second-password"); err != nil {
		t.Errorf("new password rejected: %v", err)
	}
}

func TestUpsertAdmin_WeakPassword(t *testing.T) {
	auth, _ := newAuth(t)
	if _, _, err := auth.UpsertAdmin(context.Background(), "a@example.com", "short"); !errors.Is(err, ErrWeakPassword) {
		t.Fatalf("err = %v, want ErrWeakPassword", err)
	}
}

func TestLogin(t *testing.T) {
	auth, tokens := newAuth(t)
	ctx := context.Background()
	admin, _, err := auth.UpsertAdmin(ctx, "root@example.com", "correct-horse")
	if err != nil {
		t.Fatalf("UpsertAdmin: %v", err)
	}

	t.Run("ok", func(t *testing.T) {
		got, pair, err := auth.Login(ctx, "ROOT@example.com", "correct-horse")
		if err != nil {
			t.Fatalf("Login: %v", err)
		}
		if got.ID != admin.ID {
			t.Errorf("admin id = %v, want %v", got.ID, admin.ID)
		}
		id, err := auth.Authenticate(pair.Access)
		if err != nil || id != admin.ID {
			t.Errorf("Authenticate(access) = %v, %v", id, err)
		}
		if _, err := tokens.Parse(pair.Refresh, utils.RefreshToken); err != nil {
			t.Errorf("refresh token invalid: %v", err)
		}
		if !pair.RefreshExpires.After(pair.AccessExpires) {
			t.Errorf("refresh expires %v before access %v", pair.RefreshExpires, pair.AccessExpires)
		}
	})

	t.Run("wrong password", func(t *testing.T) {
		if _, _, err := auth.Login(ctx, "root@example.com", "wrong"); !errors.Is(err, ErrInvalidCredentials) {
			t.Fatalf("err = %v", err)
		}
	})

	t.Run("unknown email", func(t *testing.T) {
		if _, _, err := auth.Login(ctx, "nobody@example.com", "correct-horse"); !errors.Is(err, ErrInvalidCredentials) {
			t.Fatalf("err = %v", err)
		}
	})
}

func TestRefresh(t *testing.T) {
	auth, tokens := newAuth(t)
	ctx := context.Background()
	admin, _, _ := auth.UpsertAdmin(ctx, "root@example.com", "correct-horse")
	_, pair, err := auth.Login(ctx, "root@example.com", "correct-horse")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}

	got, next, err := auth.Refresh(ctx, pair.Refresh)
	if err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	if got.ID != admin.ID || next.Access == "" {
		t.Fatalf("refresh returned %v %+v", got.ID, next)
	}

	// an access token is not accepted where a refresh token is expected
	if _, _, err := auth.Refresh(ctx, pair.Access); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("access as refresh: err = %v", err)
	}
	if _, err := auth.Authenticate(pair.Refresh); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("refresh as access: err = %v", err)
	}

	orphan, _, _ := tokens.Issue(uuid.New(), utils.RefreshToken)
	if _, _, err := auth.Refresh(ctx, orphan); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("unknown admin: err = %v", err)
	}
}

func TestGetAdmin_NotFound(t *testing.T) {
	auth, _ := newAuth(t)
	if _, err := auth.GetAdmin(context.Background(), uuid.New()); !errors.Is(err, ErrAdminNotFound) {
		t.Fatalf("err = %v, want ErrAdminNotFound", err)
	}
}
