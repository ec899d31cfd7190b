package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"petition/internal/models"
)

type smsVerificationRepository struct {
	s *pgStore
}

const selectVerification = `
	SELECT id, phone_number, code, created_at, expires_at, attempts, is_verified, user_id
	FROM sms_verifications
	WHERE phone_number = $1
`

func scanVerification(row rowScanner) (*models.SMSVerification, error) {
	var v models.SMSVerification
	if err := row.Scan(&v.ID, &v.PhoneNumber, &v.Code, &v.CreatedAt, &v.ExpiresAt, &v.Attempts, &v.IsVerified, &v.UserID); err != nil {
		return nil, err
	}
	return &v, nil
}

func (r *smsVerificationRepository) GetByPhone(ctx context.Context, phone string) (*models.SMSVerification, error) {
	v, err := scanVerification(r.s.q.QueryRowContext(ctx, selectVerification, phone))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get sms verification: %w", err)
	}
	return v, nil
}

// Mutate locks the row with SELECT ... FOR UPDATE. When the phone has no row
// yet, two first-time writers race on the unique phone index; the loser sees
// its insert skipped and retries against the winner's committed row.
func (r *smsVerificationRepository) Mutate(ctx context.Context, phone string, fn VerificationMutation) error {
	return r.s.WithinTx(ctx, func(st Store) error {
		q := st.(*pgStore).q

		for attempt := 0; attempt < 2; attempt++ {
			current, err := scanVerification(q.QueryRowContext(ctx, selectVerification+` FOR UPDATE`, phone))
			if err != nil && !errors.Is(err, sql.ErrNoRows) {
				return fmt.Errorf("lock sms verification: %w", err)
			}

			next, err := fn(current)
			if err != nil || next == nil {
				return err
			}

			if current != nil {
				return updateVerification(ctx, q, current.ID, next)
			}

			inserted, err := insertVerification(ctx, q, next)
			if err != nil {
				return err
			}
			if inserted {
				return nil
			}
		}
		return fmt.Errorf("sms verification for %s: %w", phone, ErrConflict)
	})
}

func insertVerification(ctx context.Context, q DBTX, v *models.SMSVerification) (bool, error) {
	if v.ID == uuid.Nil {
		v.ID = uuid.New()
	}
	const stmt = `
		INSERT INTO sms_verifications (id, phone_number, code, created_at, expires_at, attempts, is_verified, user_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (phone_number) DO NOTHING
	`
	res, err := q.ExecContext(ctx, stmt,
		v.ID, v.PhoneNumber, v.Code, v.CreatedAt, v.ExpiresAt, v.Attempts, v.IsVerified, v.UserID,
	)
	if err != nil {
		return false, fmt.Errorf("insert sms verification: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("insert sms verification: %w", err)
	}
	return n == 1, nil
}

func updateVerification(ctx context.Context, q DBTX, id uuid.UUID, v *models.SMSVerification) error {
	const stmt = `
		UPDATE sms_verifications
		SET code = $1, created_at = $2, expires_at = $3, attempts = $4, is_verified = $5, user_id = $6
		WHERE id = $7
	`
	if _, err := q.ExecContext(ctx, stmt,
		v.Code, v.CreatedAt, v.ExpiresAt, v.Attempts, v.IsVerified, v.UserID, id,
	); err != nil {
		return fmt.Errorf("update sms verification: %w", err)
	}
	v.ID = id
	return nil
}
