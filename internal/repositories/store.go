package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"petition/internal/models"
)

var (
	ErrNotFound = errors.New("not found")
	ErrConflict = errors.New("conflict")
)

type UserRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	GetByPhone(ctx context.Context, phone string) (*models.User, error)
	// GetOrCreate returns the user owning u.PhoneNumber, inserting u when no
	// such user exists yet.
	GetOrCreate(ctx context.Context, u *models.User) (*models.User, bool, error)
	List(ctx context.Context, filter models.UserFilter) ([]*models.User, error)
	SetValidVote(ctx context.Context, id uuid.UUID, valid bool) error
	CountValid(ctx context.Context) (int, error)
}

// VerificationMutation receives the locked record for a phone (nil when the
// phone has none) and returns the record to persist, or nil to leave storage
// untouched.
type VerificationMutation func(current *models.SMSVerification) (*models.SMSVerification, error)

type SMSVerificationRepository interface {
	GetByPhone(ctx context.Context, phone string) (*models.SMSVerification, error)
	// Mutate serializes all writers of one phone's record.
	Mutate(ctx context.Context, phone string, fn VerificationMutation) error
}

type VotingRepository interface {
	GetCurrent(ctx context.Context) (*models.Voting, error)
	// Create inserts v and makes it the current campaign.
	Create(ctx context.Context, v *models.Voting) error
	Update(ctx context.Context, v *models.Voting) error
	// IncrementFake bumps fake_quantity of the current campaign in one
	// statement. ErrNotFound when there is no current campaign.
	IncrementFake(ctx context.Context) error
	// RefreshRealQuantity recomputes the cached real_quantity column from
	// users and returns the fresh value.
	RefreshRealQuantity(ctx context.Context) (int, error)
}

type AdminRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Admin, error)
	GetByEmail(ctx context.Context, email string) (*models.Admin, error)
	// Upsert creates the admin or replaces the password of an existing one.
	Upsert(ctx context.Context, a *models.Admin) (bool, error)
}

// Store groups the per-aggregate repositories behind one transactional scope.
type Store interface {
	Users() UserRepository
	Verifications() SMSVerificationRepository
	Votings() VotingRepository
	Admins() AdminRepository
	// WithinTx runs fn against repositories bound to one transaction. The
	// transaction commits when fn returns nil and rolls back otherwise.
	// Nested calls join the outer transaction.
	WithinTx(ctx context.Context, fn func(Store) error) error
	Ping(ctx context.Context) error
}

// DBTX is satisfied by both *sql.DB and *sql.Tx.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type rowScanner interface {
	Scan(dest ...any) error
}

type pgStore struct {
	db *sql.DB
	q  DBTX
	tx *sql.Tx
}

func NewPostgresStore(db *sql.DB) Store {
	return &pgStore{db: db, q: db}
}

func (s *pgStore) Users() UserRepository                    { return &userRepository{q: s.q} }
func (s *pgStore) Verifications() SMSVerificationRepository { return &smsVerificationRepository{s: s} }
func (s *pgStore) Votings() VotingRepository                { return &votingRepository{s: s} }
func (s *pgStore) Admins() AdminRepository                  { return &adminRepository{q: s.q} }

func (s *pgStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *pgStore) WithinTx(ctx context.Context, fn func(Store) error) (err error) {
	if s.tx != nil {
		return fn(s)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(&pgStore{db: s.db, q: tx, tx: tx}); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
			return fmt.Errorf("%w (rollback: %v)", err, rbErr)
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}

func nullString(s sql.NullString) *string {
	if !s.Valid {
		return nil
	}
	v := s.String
	return &v
}

func utcNow() time.Time {
	return time.Now().UTC()
}
