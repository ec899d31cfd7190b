// Package memory is an in-process implementation of repositories.Store. It
// serializes every write through one transaction lock and restores a snapshot
// when a transaction fails, which is enough to mirror the Postgres semantics
// the services rely on.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"petition/internal/models"
	"petition/internal/repositories"
)

type state struct {
	txMu sync.Mutex
	mu   sync.RWMutex

	users         map[uuid.UUID]models.User
	phones        map[string]uuid.UUID
	verifications map[string]models.SMSVerification
	votings       map[uuid.UUID]models.Voting
	admins        map[string]models.Admin
}

type snapshot struct {
	users         map[uuid.UUID]models.User
	phones        map[string]uuid.UUID
	verifications map[string]models.SMSVerification
	votings       map[uuid.UUID]models.Voting
	admins        map[string]models.Admin
}

type Store struct {
	*state
	inTx bool
}

func NewStore() *Store {
	return &Store{state: &state{
		users:         make(map[uuid.UUID]models.User),
		phones:        make(map[string]uuid.UUID),
		verifications: make(map[string]models.SMSVerification),
		votings:       make(map[uuid.UUID]models.Voting),
		admins:        make(map[string]models.Admin),
	}}
}

var _ repositories.Store = (*Store)(nil)

func (s *Store) Users() repositories.UserRepository                    { return userRepo{s} }
func (s *Store) Verifications() repositories.SMSVerificationRepository { return verificationRepo{s} }
func (s *Store) Votings() repositories.VotingRepository                { return votingRepo{s} }
func (s *Store) Admins() repositories.AdminRepository                  { return adminRepo{s} }

func (s *Store) Ping(ctx context.Context) error {
	return ctx.Err()
}

func (s *Store) WithinTx(ctx context.Context, fn func(repositories.Store) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s.inTx {
		return fn(s)
	}

	s.txMu.Lock()
	defer s.txMu.Unlock()

	snap := s.snapshot()
	if err := fn(&Store{state: s.state, inTx: true}); err != nil {
		s.restore(snap)
		return err
	}
	return nil
}

// write runs fn under the data lock inside a transaction.
func (s *Store) write(ctx context.Context, fn func() error) error {
	return s.WithinTx(ctx, func(st repositories.Store) error {
		s.mu.Lock()
		defer s.mu.Unlock()
		return fn()
	})
}

func (s *Store) snapshot() snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	snap := snapshot{
		users:         make(map[uuid.UUID]models.User, len(s.users)),
		phones:        make(map[string]uuid.UUID, len(s.phones)),
		verifications: make(map[string]models.SMSVerification, len(s.verifications)),
		votings:       make(map[uuid.UUID]models.Voting, len(s.votings)),
		admins:        make(map[string]models.Admin, len(s.admins)),
	}
	for k, v := range s.users {
		snap.users[k] = v
	}
	for k, v := range s.phones {
		snap.phones[k] = v
	}
	for k, v := range s.verifications {
		snap.verifications[k] = v
	}
	for k, v := range s.votings {
		snap.votings[k] = v
	}
	for k, v := range s.admins {
		snap.admins[k] = v
	}
	return snap
}

func (s *Store) restore(snap snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users = snap.users
	s.phones = snap.phones
	s.verifications = snap.verifications
	s.votings = snap.votings
	s.admins = snap.admins
}

func now() time.Time {
	return time.Now().UTC()
}

// ---- users

type userRepo struct{ s *Store }

func (r userRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	u, ok := r.s.users[id]
	if !ok {
		return nil, nil
	}
	return &u, nil
}

func (r userRepo) GetByPhone(ctx context.Context, phone string) (*models.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	id, ok := r.s.phones[phone]
	if !ok {
		return nil, nil
	}
	u := r.s.users[id]
	return &u, nil
}

func (r userRepo) GetOrCreate(ctx context.Context, u *models.User) (*models.User, bool, error) {
	var (
		out     models.User
		created bool
	)
	err := r.s.write(ctx, func() error {
		if id, ok := r.s.phones[u.PhoneNumber]; ok {
			out = r.s.users[id]
			return nil
		}
		if u.ID == uuid.Nil {
			u.ID = uuid.New()
		}
		ts := now()
		u.CreatedAt, u.UpdatedAt = ts, ts
		r.s.users[u.ID] = *u
		r.s.phones[u.PhoneNumber] = u.ID
		out, created = *u, true
		return nil
	})
	if err != nil {
		return nil, false, err
	}
	return &out, created, nil
}

func (r userRepo) List(ctx context.Context, filter models.UserFilter) ([]*models.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.s.mu.RLock()
	all := make([]models.User, 0, len(r.s.users))
	for _, u := range r.s.users {
		if filter.ValidVote != nil && u.ValidVote != *filter.ValidVote {
			continue
		}
		all = append(all, u)
	}
	r.s.mu.RUnlock()

	sort.Slice(all, func(i, j int) bool {
		if all[i].CreatedAt.Equal(all[j].CreatedAt) {
			return all[i].PhoneNumber < all[j].PhoneNumber
		}
		return all[i].CreatedAt.After(all[j].CreatedAt)
	})

	if filter.Offset > 0 {
		if filter.Offset >= len(all) {
			all = nil
		} else {
			all = all[filter.Offset:]
		}
	}
	if filter.Limit > 0 && len(all) > filter.Limit {
		all = all[:filter.Limit]
	}

	out := make([]*models.User, 0, len(all))
	for i := range all {
		out = append(out, &all[i])
	}
	return out, nil
}

func (r userRepo) SetValidVote(ctx context.Context, id uuid.UUID, valid bool) error {
	return r.s.write(ctx, func() error {
		u, ok := r.s.users[id]
		if !ok {
			return repositories.ErrNotFound
		}
		u.ValidVote = valid
		u.UpdatedAt = now()
		r.s.users[id] = u
		return nil
	})
}

func (r userRepo) CountValid(ctx context.Context) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return r.s.countValidLocked(), nil
}

func (s *state) countValidLocked() int {
	n := 0
	for _, u := range s.users {
		if u.ValidVote {
			n++
		}
	}
	return n
}

// ---- sms verifications

type verificationRepo struct{ s *Store }

func (r verificationRepo) GetByPhone(ctx context.Context, phone string) (*models.SMSVerification, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	v, ok := r.s.verifications[phone]
	if !ok {
		return nil, nil
	}
	return &v, nil
}

func (r verificationRepo) Mutate(ctx context.Context, phone string, fn repositories.VerificationMutation) error {
	return r.s.write(ctx, func() error {
		var current *models.SMSVerification
		if v, ok := r.s.verifications[phone]; ok {
			current = &v
		}
		next, err := fn(current)
		if err != nil || next == nil {
			return err
		}
		if current != nil {
			next.ID = current.ID
		} else if next.ID == uuid.Nil {
			next.ID = uuid.New()
		}
		r.s.verifications[phone] = *next
		return nil
	})
}

// ---- votings

type votingRepo struct{ s *Store }

func (r votingRepo) GetCurrent(ctx context.Context) (*models.Voting, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	v, ok := r.s.currentLocked()
	if !ok {
		return nil, nil
	}
	return &v, nil
}

func (s *state) currentLocked() (models.Voting, bool) {
	for _, v := range s.votings {
		if v.IsCurrent {
			return v, true
		}
	}
	return models.Voting{}, false
}

func (r votingRepo) Create(ctx context.Context, v *models.Voting) error {
	return r.s.write(ctx, func() error {
		ts := now()
		for id, existing := range r.s.votings {
			if existing.IsCurrent {
				existing.IsCurrent = false
				existing.UpdatedAt = ts
				r.s.votings[id] = existing
			}
		}
		if v.ID == uuid.Nil {
			v.ID = uuid.New()
		}
		v.IsCurrent = true
		v.CreatedAt, v.UpdatedAt = ts, ts
		r.s.votings[v.ID] = *v
		return nil
	})
}

func (r votingRepo) Update(ctx context.Context, v *models.Voting) error {
	return r.s.write(ctx, func() error {
		existing, ok := r.s.votings[v.ID]
		if !ok {
			return repositories.ErrNotFound
		}
		existing.StartDate = v.StartDate
		existing.EndDate = v.EndDate
		existing.FakeQuantity = v.FakeQuantity
		existing.ShowReal = v.ShowReal
		existing.Status = v.Status
		existing.UpdatedAt = now()
		v.UpdatedAt = existing.UpdatedAt
		r.s.votings[v.ID] = existing
		return nil
	})
}

func (r votingRepo) IncrementFake(ctx context.Context) error {
	return r.s.write(ctx, func() error {
		v, ok := r.s.currentLocked()
		if !ok {
			return repositories.ErrNotFound
		}
		v.FakeQuantity++
		v.UpdatedAt = now()
		r.s.votings[v.ID] = v
		return nil
	})
}

func (r votingRepo) RefreshRealQuantity(ctx context.Context) (int, error) {
	var real int
	err := r.s.write(ctx, func() error {
		v, ok := r.s.currentLocked()
		if !ok {
			return repositories.ErrNotFound
		}
		real = r.s.countValidLocked()
		v.RealQuantity = real
		r.s.votings[v.ID] = v
		return nil
	})
	return real, err
}

// ---- admins

type adminRepo struct{ s *Store }

func (r adminRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Admin, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, a := range r.s.admins {
		if a.ID == id {
			return &a, nil
		}
	}
	return nil, nil
}

func (r adminRepo) GetByEmail(ctx context.Context, email string) (*models.Admin, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	a, ok := r.s.admins[strings.ToLower(strings.TrimSpace(email))]
	if !ok {
		return nil, nil
	}
	return &a, nil
}

func (r adminRepo) Upsert(ctx context.Context, a *models.Admin) (bool, error) {
	var inserted bool
	err := r.s.write(ctx, func() error {
		a.Email = strings.ToLower(strings.TrimSpace(a.Email))
		ts := now()
		if existing, ok := r.s.admins[a.Email]; ok {
			existing.PasswordHash = a.PasswordHash
			existing.UpdatedAt = ts
			r.s.admins[a.Email] = existing
			*a = existing
			return nil
		}
		if a.ID == uuid.Nil {
			a.ID = uuid.New()
		}
		a.CreatedAt, a.UpdatedAt = ts, ts
		r.s.admins[a.Email] = *a
		inserted = true
		return nil
	})
	return inserted, err
}
