package services

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestVerifyCode_SucceedsOnce(t *testing.T) {
	f := newFixture(t, 5*time.Minute, 3)
	ctx := context.Background()
	phone := "+79990001240"
	code := f.issue(t, phone)

	res, err := f.verifier.VerifyCode(ctx, phone, code)
	if err != nil {
		t.Fatalf("VerifyCode: %v", err)
	}
	if !res.OK {
		t.Fatalf("first verify rejected: %s", res.Reason)
	}
	if !res.Record.IsVerified || res.Record.Attempts != 1 {
		t.Errorf("record after success: verified=%v attempts=%d, want true/1", res.Record.IsVerified, res.Record.Attempts)
	}

	res, err = f.verifier.VerifyCode(ctx, phone, code)
	if err != nil {
		t.Fatalf("VerifyCode: %v", err)
	}
	if res.OK || res.Reason != ReasonAlreadyVerified {
		t.Fatalf("second verify: ok=%v reason=%q, want already_verified", res.OK, res.Reason)
	}
	rec, _ := f.store.Verifications().GetByPhone(ctx, phone)
	if rec.Attempts != 1 {
		t.Errorf("attempts = %d after already-verified call, want 1", rec.Attempts)
	}
}

func TestVerifyCode_NotFound(t *testing.T) {
	f := newFixture(t, 5*time.Minute, 3)

	res, err := f.verifier.VerifyCode(context.Background(), "+79990009999", "123456")
	if err != nil {
		t.Fatalf("VerifyCode: %v", err)
	}
	if res.OK || res.Reason != ReasonNotFound {
		t.Fatalf("ok=%v reason=%q, want not_found", res.OK, res.Reason)
	}
	if res.Record != nil {
		t.Errorf("expected nil record, got %+v", res.Record)
	}
}

func TestVerifyCode_WrongCodeChargesAttempt(t *testing.T) {
	f := newFixture(t, 5*time.Minute, 3)
	ctx := context.Background()
	phone := "+79990001241"
	code := f.issue(t, phone)

	res, err := f.verifier.VerifyCode(ctx, phone, wrongCode(code))
	if err != nil {
		t.Fatalf("VerifyCode: %v", err)
	}
	if res.OK || res.Reason != ReasonInvalidCode {
		t.Fatalf("ok=%v reason=%q, want invalid_code", res.OK, res.Reason)
	}
	rec, _ := f.store.Verifications().GetByPhone(ctx, phone)
	if rec.Attempts != 1 || rec.IsVerified {
		t.Errorf("attempts=%d verified=%v, want 1/false", rec.Attempts, rec.IsVerified)
	}
}

func TestVerifyCode_ExpiredIsNotCharged(t *testing.T) {
	f := newFixture(t, 5*time.Minute, 3)
	ctx := context.Background()
	phone := "+79990001242"
	code := f.issue(t, phone)

	// exactly at expires_at the code is still good; one tick later it is not
	f.now = f.now.Add(5*time.Minute + time.Nanosecond)

	res, err := f.verifier.VerifyCode(ctx, phone, code)
	if err != nil {
		t.Fatalf("VerifyCode: %v", err)
	}
	if res.OK || res.Reason != ReasonExpired {
		t.Fatalf("ok=%v reason=%q, want expired", res.OK, res.Reason)
	}
	rec, _ := f.store.Verifications().GetByPhone(ctx, phone)
	if rec.Attempts != 0 {
		t.Errorf("attempts = %d, want 0", rec.Attempts)
	}
}

func TestVerifyCode_AtExpiryBoundary(t *testing.T) {
	f := newFixture(t, 5*time.Minute, 3)
	phone := "+79990001243"
	code := f.issue(t, phone)
	f.now = f.now.Add(5 * time.Minute)

	res, err := f.verifier.VerifyCode(context.Background(), phone, code)
	if err != nil {
		t.Fatalf("VerifyCode: %v", err)
	}
	if !res.OK {
		t.Fatalf("verify at expires_at rejected: %s", res.Reason)
	}
}

// TTL=5m, MAX_ATTEMPTS=3: three wrong guesses lock the record and the right
// code is then refused without touching the counter.
func TestVerifyCode_AttemptLimitScenario(t *testing.T) {
	f := newFixture(t, 5*time.Minute, 3)
	ctx := context.Background()
	phone := "+79990001234"

	code := f.issue(t, phone)
	rec, _ := f.store.Verifications().GetByPhone(ctx, phone)
	if rec.Attempts != 0 {
		t.Fatalf("fresh record attempts = %d", rec.Attempts)
	}

	for i := 1; i <= 3; i++ {
		res, err := f.verifier.VerifyCode(ctx, phone, wrongCode(code))
		if err != nil {
			t.Fatalf("VerifyCode #%d: %v", i, err)
		}
		if res.Reason != ReasonInvalidCode {
			t.Fatalf("wrong guess #%d: reason=%q", i, res.Reason)
		}
	}
	rec, _ = f.store.Verifications().GetByPhone(ctx, phone)
	if rec.Attempts != 3 || rec.IsVerified {
		t.Fatalf("after 3 wrong guesses: attempts=%d verified=%v", rec.Attempts, rec.IsVerified)
	}

	res, err := f.verifier.VerifyCode(ctx, phone, code)
	if err != nil {
		t.Fatalf("VerifyCode: %v", err)
	}
	if res.OK || res.Reason != ReasonAttemptsExceeded {
		t.Fatalf("correct code after limit: ok=%v reason=%q, want attempts_exceeded", res.OK, res.Reason)
	}
	rec, _ = f.store.Verifications().GetByPhone(ctx, phone)
	if rec.Attempts != 3 || rec.IsVerified {
		t.Errorf("record changed: attempts=%d verified=%v, want 3/false", rec.Attempts, rec.IsVerified)
	}
}

func TestVerifyCode_ConfigurableAttempts(t *testing.T) {
	f := newFixture(t, 5*time.Minute, 10)
	ctx := context.Background()
	phone := "+79990001244"
	code := f.issue(t, phone)

	for i := 0; i < 9; i++ {
		if _, err := f.verifier.VerifyCode(ctx, phone, wrongCode(code)); err != nil {
			t.Fatalf("VerifyCode: %v", err)
		}
	}
	res, err := f.verifier.VerifyCode(ctx, phone, code)
	if err != nil {
		t.Fatalf("VerifyCode: %v", err)
	}
	if !res.OK {
		t.Fatalf("10th attempt rejected: %s", res.Reason)
	}
}

func TestVerifyCode_ConcurrentCorrectCode(t *testing.T) {
	f := newFixture(t, 5*time.Minute, 3)
	phone := "+79990001245"
	code := f.issue(t, phone)

	const n = 25
	var (
		wg       sync.WaitGroup
		start    = make(chan struct{})
		ok       atomic.Int32
		verified atomic.Int32
		other    atomic.Int32
	)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			res, err := f.verifier.VerifyCode(context.Background(), phone, code)
			switch {
			case err != nil:
				other.Add(1)
			case res.OK:
				ok.Add(1)
			case res.Reason == ReasonAlreadyVerified:
				verified.Add(1)
			default:
				other.Add(1)
			}
		}()
	}
	close(start)
	wg.Wait()

	if ok.Load() != 1 {
		t.Errorf("successes = %d, want exactly 1", ok.Load())
	}
	if verified.Load() != n-1 {
		t.Errorf("already_verified = %d, want %d", verified.Load(), n-1)
	}
	if other.Load() != 0 {
		t.Errorf("unexpected outcomes = %d", other.Load())
	}
}
