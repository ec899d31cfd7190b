package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"petition/internal/models"
)

type userRepository struct {
	q DBTX
}

const selectUser = `
	SELECT id, phone_number, full_name, email, valid_vote, created_at, updated_at
	FROM users
`

func scanUser(row rowScanner) (*models.User, error) {
	var (
		u     models.User
		email sql.NullString
	)
	if err := row.Scan(&u.ID, &u.PhoneNumber, &u.FullName, &email, &u.ValidVote, &u.CreatedAt, &u.UpdatedAt); err != nil {
		return nil, err
	}
	u.Email = nullString(email)
	return &u, nil
}

func (r *userRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	u, err := scanUser(r.q.QueryRowContext(ctx, selectUser+` WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	return u, nil
}

func (r *userRepository) GetByPhone(ctx context.Context, phone string) (*models.User, error) {
	u, err := scanUser(r.q.QueryRowContext(ctx, selectUser+` WHERE phone_number = $1`, phone))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get user by phone: %w", err)
	}
	return u, nil
}

func (r *userRepository) GetOrCreate(ctx context.Context, u *models.User) (*models.User, bool, error) {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	now := utcNow()
	const q = `
		INSERT INTO users (id, phone_number, full_name, email, valid_vote, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $6)
		ON CONFLICT (phone_number) DO NOTHING
		RETURNING id, phone_number, full_name, email, valid_vote, created_at, updated_at
	`
	created, err := scanUser(r.q.QueryRowContext(ctx, q, u.ID, u.PhoneNumber, u.FullName, u.Email, u.ValidVote, now))
	if err == nil {
		return created, true, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, false, fmt.Errorf("create user: %w", err)
	}

	existing, err := r.GetByPhone(ctx, u.PhoneNumber)
	if err != nil {
		return nil, false, err
	}
	if existing == nil {
		return nil, false, fmt.Errorf("create user: phone %s conflicted but no row found", u.PhoneNumber)
	}
	return existing, false, nil
}

func (r *userRepository) List(ctx context.Context, filter models.UserFilter) ([]*models.User, error) {
	q := selectUser
	args := []any{}
	if filter.ValidVote != nil {
		args = append(args, *filter.ValidVote)
		q += fmt.Sprintf(" WHERE valid_vote = $%d", len(args))
	}
	q += " ORDER BY created_at DESC"
	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		q += fmt.Sprintf(" LIMIT $%d", len(args))
	}
	if filter.Offset > 0 {
		args = append(args, filter.Offset)
		q += fmt.Sprintf(" OFFSET $%d", len(args))
	}

	rows, err := r.q.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	users := make([]*models.User, 0)
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return users, nil
}

func (r *userRepository) SetValidVote(ctx context.Context, id uuid.UUID, valid bool) error {
	res, err := r.q.ExecContext(ctx,
		`UPDATE users SET valid_vote = $1, updated_at = $2 WHERE id = $3`,
		valid, utcNow(), id,
	)
	if err != nil {
		return fmt.Errorf("set valid_vote: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *userRepository) CountValid(ctx context.Context) (int, error) {
	var c int
	if err := r.q.QueryRowContext(ctx, `SELECT COUNT(*) FROM users WHERE valid_vote`).Scan(&c); err != nil {
		return 0, fmt.Errorf("count valid users: %w", err)
	}
	return c, nil
}
