package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"petition/internal/models"
)

type votingRepository struct {
	s *pgStore
}

const selectVoting = `
	SELECT id, start_date, end_date, real_quantity, fake_quantity, show_real, status, is_current, created_at, updated_at
	FROM votings
`

func scanVoting(row rowScanner) (*models.Voting, error) {
	var (
		v      models.Voting
		status string
	)
	if err := row.Scan(
		&v.ID, &v.StartDate, &v.EndDate, &v.RealQuantity, &v.FakeQuantity,
		&v.ShowReal, &status, &v.IsCurrent, &v.CreatedAt, &v.UpdatedAt,
	); err != nil {
		return nil, err
	}
	v.Status = models.VoteStatus(status)
	return &v, nil
}

// GetCurrent locks the row when called inside a transaction so a
// read-modify-write by an admin cannot swallow concurrent increments.
func (r *votingRepository) GetCurrent(ctx context.Context) (*models.Voting, error) {
	query := selectVoting + ` WHERE is_current LIMIT 1`
	if r.s.tx != nil {
		query += ` FOR UPDATE`
	}
	v, err := scanVoting(r.s.q.QueryRowContext(ctx, query))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get current voting: %w", err)
	}
	return v, nil
}

func (r *votingRepository) Create(ctx context.Context, v *models.Voting) error {
	return r.s.WithinTx(ctx, func(st Store) error {
		q := st.(*pgStore).q
		if _, err := q.ExecContext(ctx, `UPDATE votings SET is_current = FALSE, updated_at = $1 WHERE is_current`, utcNow()); err != nil {
			return fmt.Errorf("retire current voting: %w", err)
		}

		if v.ID == uuid.Nil {
			v.ID = uuid.New()
		}
		now := utcNow()
		v.IsCurrent = true
		v.CreatedAt, v.UpdatedAt = now, now
		const stmt = `
			INSERT INTO votings (id, start_date, end_date, real_quantity, fake_quantity, show_real, status, is_current, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, TRUE, $8, $8)
		`
		if _, err := q.ExecContext(ctx, stmt,
			v.ID, v.StartDate, v.EndDate, v.RealQuantity, v.FakeQuantity, v.ShowReal, string(v.Status), now,
		); err != nil {
			if isUniqueViolation(err) {
				return fmt.Errorf("create voting: %w", ErrConflict)
			}
			return fmt.Errorf("create voting: %w", err)
		}
		return nil
	})
}

func (r *votingRepository) Update(ctx context.Context, v *models.Voting) error {
	v.UpdatedAt = utcNow()
	const stmt = `
		UPDATE votings
		SET start_date = $1, end_date = $2, fake_quantity = $3, show_real = $4, status = $5, updated_at = $6
		WHERE id = $7
	`
	res, err := r.s.q.ExecContext(ctx, stmt,
		v.StartDate, v.EndDate, v.FakeQuantity, v.ShowReal, string(v.Status), v.UpdatedAt, v.ID,
	)
	if err != nil {
		return fmt.Errorf("update voting: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *votingRepository) IncrementFake(ctx context.Context) error {
	res, err := r.s.q.ExecContext(ctx,
		`UPDATE votings SET fake_quantity = fake_quantity + 1, updated_at = $1 WHERE is_current`,
		utcNow(),
	)
	if err != nil {
		return fmt.Errorf("increment fake_quantity: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *votingRepository) RefreshRealQuantity(ctx context.Context) (int, error) {
	const stmt = `
		UPDATE votings
		SET real_quantity = (SELECT COUNT(*) FROM users WHERE valid_vote)
		WHERE is_current
		RETURNING real_quantity
	`
	var real int
	if err := r.s.q.QueryRowContext(ctx, stmt).Scan(&real); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, ErrNotFound
		}
		return 0, fmt.Errorf("refresh real_quantity: %w", err)
	}
	return real, nil
}
