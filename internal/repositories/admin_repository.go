package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"petition/internal/models"
)

type adminRepository struct {
	q DBTX
}

const selectAdmin = `
	SELECT id, email, password_hash, created_at, updated_at
	FROM admins
`

func scanAdmin(row rowScanner) (*models.Admin, error) {
	var a models.Admin
	if err := row.Scan(&a.ID, &a.Email, &a.PasswordHash, &a.CreatedAt, &a.UpdatedAt); err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *adminRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Admin, error) {
	a, err := scanAdmin(r.q.QueryRowContext(ctx, selectAdmin+` WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get admin: %w", err)
	}
	return a, nil
}

func (r *adminRepository) GetByEmail(ctx context.Context, email string) (*models.Admin, error) {
	a, err := scanAdmin(r.q.QueryRowContext(ctx, selectAdmin+` WHERE email = $1`, strings.ToLower(strings.TrimSpace(email))))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get admin by email: %w", err)
	}
	return a, nil
}

// Upsert reports true when a new row was inserted. xmax = 0 only holds for
// freshly inserted tuples.
func (r *adminRepository) Upsert(ctx context.Context, a *models.Admin) (bool, error) {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	a.Email = strings.ToLower(strings.TrimSpace(a.Email))
	now := utcNow()
	const stmt = `
		INSERT INTO admins (id, email, password_hash, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $4)
		ON CONFLICT (email) DO UPDATE
		SET password_hash = EXCLUDED.password_hash, updated_at = EXCLUDED.updated_at
		RETURNING id, created_at, updated_at, (xmax = 0) AS inserted
	`
	var inserted bool
	if err := r.q.QueryRowContext(ctx, stmt, a.ID, a.Email, a.PasswordHash, now).
		Scan(&a.ID, &a.CreatedAt, &a.UpdatedAt, &inserted); err != nil {
		return false, fmt.Errorf("upsert admin: %w", err)
	}
	return inserted, nil
}
