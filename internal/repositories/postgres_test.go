package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math/rand"
	"os"
	"sync"
	"testing"
	"time"

	"petition/internal/models"
)

// openTestDB connects to TEST_DATABASE_URL. The tests share one database and
// use random phone numbers, so they can run against a dirty schema.
func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := CreateSchema(ctx, db); err != nil {
		t.Fatalf("CreateSchema: %v", err)
	}
	return db
}

func randomPhone() string {
	return fmt.Sprintf("+7999%07d", rand.Intn(10_000_000))
}

func TestPostgres_UserAndVerification(t *testing.T) {
	store := NewPostgresStore(openTestDB(t))
	ctx := context.Background()
	phone := randomPhone()

	u, created, err := store.Users().GetOrCreate(ctx, &models.User{PhoneNumber: phone, FullName: "Тест"})
	if err != nil || !created {
		t.Fatalf("GetOrCreate: created=%v err=%v", created, err)
	}
	again, created, err := store.Users().GetOrCreate(ctx, &models.User{PhoneNumber: phone})
	if err != nil || created || again.ID != u.ID {
		t.Fatalf("second GetOrCreate: %+v created=%v err=%v", again, created, err)
	}

	err = store.Verifications().Mutate(ctx, phone, func(cur *models.SMSVerification) (*models.SMSVerification, error) {
		if cur != nil {
			t.Errorf("unexpected existing record %+v", cur)
		}
		return &models.SMSVerification{
			PhoneNumber: phone,
			Code:        "123456",
			CreatedAt:   time.Now().UTC(),
			ExpiresAt:   time.Now().UTC().Add(5 * time.Minute),
			UserID:      u.ID,
		}, nil
	})
	if err != nil {
		t.Fatalf("Mutate: %v", err)
	}

	rec, err := store.Verifications().GetByPhone(ctx, phone)
	if err != nil || rec == nil || rec.Code != "123456" || rec.Attempts != 0 {
		t.Fatalf("GetByPhone: %+v err=%v", rec, err)
	}
}

func TestPostgres_MutateSerializes(t *testing.T) {
	store := NewPostgresStore(openTestDB(t))
	ctx := context.Background()
	phone := randomPhone()

	u, _, err := store.Users().GetOrCreate(ctx, &models.User{PhoneNumber: phone})
	if err != nil {
		t.Fatalf("GetOrCreate: %v", err)
	}
	_ = store.Verifications().Mutate(ctx, phone, func(*models.SMSVerification) (*models.SMSVerification, error) {
		return &models.SMSVerification{PhoneNumber: phone, Code: "000000", ExpiresAt: time.Now().Add(time.Minute), UserID: u.ID}, nil
	})

	const n = 20
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := store.WithinTx(ctx, func(tx Store) error {
				return tx.Verifications().Mutate(ctx, phone, func(cur *models.SMSVerification) (*models.SMSVerification, error) {
					next := *cur
					next.Attempts++
					return &next, nil
				})
			})
			if err != nil {
				t.Errorf("Mutate: %v", err)
			}
		}()
	}
	wg.Wait()

	rec, _ := store.Verifications().GetByPhone(ctx, phone)
	if rec.Attempts != n {
		t.Errorf("attempts = %d, want %d (lost updates)", rec.Attempts, n)
	}
}

func TestPostgres_WithinTxRollsBack(t *testing.T) {
	store := NewPostgresStore(openTestDB(t))
	ctx := context.Background()
	phone := randomPhone()
	boom := errors.New("boom")

	err := store.WithinTx(ctx, func(tx Store) error {
		if _, _, err := tx.Users().GetOrCreate(ctx, &models.User{PhoneNumber: phone}); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v", err)
	}
	if u, _ := store.Users().GetByPhone(ctx, phone); u != nil {
		t.Fatal("user survived rollback")
	}
}
