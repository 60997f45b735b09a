package authcore

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

var codePattern = regexp.MustCompile(`\d{6,10}`)

type captureMailer struct {
	mu    sync.Mutex
	mails []Mail
	fail  bool
}

func (m *captureMailer) Send(_ context.Context, mail Mail) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.mails = append(m.mails, mail)
	if m.fail {
		return errors.New("smtp unavailable")
	}
	return nil
}

func (m *captureMailer) lastCode(t *testing.T) string {
	t.Helper()
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.mails) == 0 {
		t.Fatal("no mail was sent")
	}
	code := codePattern.FindString(m.mails[len(m.mails)-1].Body)
	if code == "" {
		t.Fatalf("no code in mail body %q", m.mails[len(m.mails)-1].Body)
	}
	return code
}

func testConfig() Config {
	cfg := defaultConfig()
	cfg.Session.Secret = []byte("test-session-secret-test-1234567")
	cfg.Webhook.Secret = []byte("test-webhook-secret")
	return cfg
}

func newTestEngine(t *testing.T, mutate func(*Config)) (*Engine, *captureMailer, *MemoryUserProvider) {
	t.Helper()

	cfg := testConfig()
	if mutate != nil {
		mutate(&cfg)
	}

	mailer := &captureMailer{}
	users := NewMemoryUserProvider()

	engine, err := New().
		WithConfig(cfg).
		WithMailer(mailer).
		WithUserProvider(users).
		Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	t.Cleanup(engine.Close)

	return engine, mailer, users
}

func newTestRedisEngine(t *testing.T, mutate func(*Config)) (*miniredis.Miniredis, *Engine, *captureMailer) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis.Run failed: %v", err)
	}
	t.Cleanup(mr.Close)

	cfg := testConfig()
	cfg.Store.Backend = BackendRedis
	if mutate != nil {
		mutate(&cfg)
	}

	mailer := &captureMailer{}
	engine, err := New().
		WithConfig(cfg).
		WithRedis(redis.NewClient(&redis.Options{Addr: mr.Addr()})).
		WithMailer(mailer).
		WithUserProvider(NewMemoryUserProvider()).
		Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	t.Cleanup(engine.Close)

	return mr, engine, mailer
}

func TestSendAndVerifyFlow(t *testing.T) {
	engine, mailer, _ := newTestEngine(t, nil)
	ctx := context.Background()

	if err := engine.SendCode(ctx, "alice@example.com"); err != nil {
		t.Fatalf("SendCode failed: %v", err)
	}

	result, err := engine.VerifyCode(ctx, "alice@example.com", mailer.lastCode(t))
	if err != nil {
		t.Fatalf("VerifyCode failed: %v", err)
	}
	if result.Token == "" {
		t.Fatal("no token issued")
	}
	if result.User.Email != "alice@example.com" || result.User.Role != RoleUser {
		t.Fatalf("user = %+v, want a fresh USER record", result.User)
	}
	if result.User.UserID == "" {
		t.Fatal("created user has no ID")
	}
}

func TestVerifyIsSingleUse(t *testing.T) {
	engine, mailer, _ := newTestEngine(t, nil)
	ctx := context.Background()

	if err := engine.SendCode(ctx, "alice@example.com"); err != nil {
		t.Fatal(err)
	}
	code := mailer.lastCode(t)

	if _, err := engine.VerifyCode(ctx, "alice@example.com", code); err != nil {
		t.Fatalf("first verify failed: %v", err)
	}
	if _, err := engine.VerifyCode(ctx, "alice@example.com", code); !errors.Is(err, ErrInvalidOrExpired) {
		t.Fatalf("second verify = %v, want ErrInvalidOrExpired", err)
	}
}

func TestNewCodeReplacesPrior(t *testing.T) {
	engine, mailer, _ := newTestEngine(t, nil)
	ctx := context.Background()

	if err := engine.SendCode(ctx, "alice@example.com"); err != nil {
		t.Fatal(err)
	}
	first := mailer.lastCode(t)

	if err := engine.SendCode(ctx, "alice@example.com"); err != nil {
		t.Fatal(err)
	}
	second := mailer.lastCode(t)

	if first == second {
		t.Skip("generator drew the same code twice; replacement indistinguishable")
	}
	if _, err := engine.VerifyCode(ctx, "alice@example.com", first); !errors.Is(err, ErrInvalidOrExpired) {
		t.Fatalf("replaced code verified: %v", err)
	}
	if _, err := engine.VerifyCode(ctx, "alice@example.com", second); err != nil {
		t.Fatalf("replacing code failed: %v", err)
	}
}

func TestIdentityNormalization(t *testing.T) {
	// normalize is idempotent and collapses case and padding.
	for _, raw := range []string{"A@B.com", " a@b.com ", "a@B.COM"} {
		once := normalizeIdentity(raw)
		if twice := normalizeIdentity(once); twice != once {
			t.Fatalf("normalize not idempotent: %q -> %q -> %q", raw, once, twice)
		}
		if once != "a@b.com" {
			t.Fatalf("normalize(%q) = %q, want a@b.com", raw, once)
		}
	}

	engine, mailer, _ := newTestEngine(t, nil)
	ctx := context.Background()

	if err := engine.SendCode(ctx, "A@B.com"); err != nil {
		t.Fatal(err)
	}
	result, err := engine.VerifyCode(ctx, " a@b.com ", mailer.lastCode(t))
	if err != nil {
		t.Fatalf("differently spelled identity did not verify: %v", err)
	}
	if result.User.Email != "a@b.com" {
		t.Fatalf("stored email = %q, want normalized form", result.User.Email)
	}
}

func TestSendRejectsInvalidIdentity(t *testing.T) {
	engine, _, _ := newTestEngine(t, nil)

	for _, email := range []string{"", "   ", "no-at-sign", "@nobody", "trailing@"} {
		if err := engine.SendCode(context.Background(), email); !errors.Is(err, ErrInvalidIdentity) {
			t.Fatalf("SendCode(%q) = %v, want ErrInvalidIdentity", email, err)
		}
	}
}

func TestSendRateLimit(t *testing.T) {
	engine, _, _ := newTestEngine(t, func(cfg *Config) {
		cfg.RateLimit.Window = 50 * time.Millisecond
		cfg.RateLimit.Max = 3
	})
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if err := engine.SendCode(ctx, "alice@example.com"); err != nil {
			t.Fatalf("send %d: %v, want allowed", i+1, err)
		}
	}
	if err := engine.SendCode(ctx, "alice@example.com"); !errors.Is(err, ErrRateLimited) {
		t.Fatalf("send 4: %v, want ErrRateLimited", err)
	}

	// Unrelated identities are unaffected.
	if err := engine.SendCode(ctx, "bob@example.com"); err != nil {
		t.Fatalf("other identity limited: %v", err)
	}

	time.Sleep(60 * time.Millisecond)
	if err := engine.SendCode(ctx, "alice@example.com"); err != nil {
		t.Fatalf("send after window reset: %v, want allowed", err)
	}
}

func TestRateLimitDoesNotInvalidateHeldCode(t *testing.T) {
	engine, mailer, _ := newTestEngine(t, func(cfg *Config) {
		cfg.RateLimit.Max = 1
	})
	ctx := context.Background()

	if err := engine.SendCode(ctx, "alice@example.com"); err != nil {
		t.Fatal(err)
	}
	code := mailer.lastCode(t)

	if err := engine.SendCode(ctx, "alice@example.com"); !errors.Is(err, ErrRateLimited) {
		t.Fatalf("send 2: %v, want ErrRateLimited", err)
	}

	// The limiter gates issuance, not verification.
	if _, err := engine.VerifyCode(ctx, "alice@example.com", code); err != nil {
		t.Fatalf("held code failed after rate limit: %v", err)
	}
}

func TestVerifyNeverIssuedIdentity(t *testing.T) {
	engine, _, _ := newTestEngine(t, nil)

	_, err := engine.VerifyCode(context.Background(), "nobody@example.com", "123456")
	if !errors.Is(err, ErrInvalidOrExpired) {
		t.Fatalf("verify = %v, want ErrInvalidOrExpired", err)
	}
}

func TestWrongCodeDoesNotConsume(t *testing.T) {
	engine, mailer, _ := newTestEngine(t, nil)
	ctx := context.Background()

	if err := engine.SendCode(ctx, "alice@example.com"); err != nil {
		t.Fatal(err)
	}
	code := mailer.lastCode(t)

	// Generated codes never start with zero, so this cannot collide.
	if _, err := engine.VerifyCode(ctx, "alice@example.com", "000000"); !errors.Is(err, ErrInvalidOrExpired) {
		t.Fatalf("wrong code = %v, want ErrInvalidOrExpired", err)
	}

	// A failed attempt reads the record without consuming it.
	if _, err := engine.VerifyCode(ctx, "alice@example.com", code); err != nil {
		t.Fatalf("correct code failed after a wrong attempt: %v", err)
	}
}

func TestMailerFailureDoesNotBlockIssuance(t *testing.T) {
	engine, mailer, _ := newTestEngine(t, nil)
	mailer.fail = true
	ctx := context.Background()

	if err := engine.SendCode(ctx, "alice@example.com"); err != nil {
		t.Fatalf("SendCode with failing mailer: %v, want success", err)
	}
	if _, err := engine.VerifyCode(ctx, "alice@example.com", mailer.lastCode(t)); err != nil {
		t.Fatalf("code unverifiable after delivery failure: %v", err)
	}
}

func TestMailerFailureBlocksWhenDeliveryRequired(t *testing.T) {
	engine, mailer, _ := newTestEngine(t, func(cfg *Config) {
		cfg.OTP.RequireDelivery = true
	})
	mailer.fail = true

	err := engine.SendCode(context.Background(), "alice@example.com")
	if !errors.Is(err, ErrMailerUnavailable) {
		t.Fatalf("SendCode = %v, want ErrMailerUnavailable", err)
	}
}

func TestExpiryThroughRedisBackend(t *testing.T) {
	mr, engine, mailer := newTestRedisEngine(t, nil)
	ctx := context.Background()

	if err := engine.SendCode(ctx, "alice@example.com"); err != nil {
		t.Fatal(err)
	}
	code := mailer.lastCode(t)

	mr.FastForward(299 * time.Second)
	if _, err := engine.VerifyCode(ctx, "alice@example.com", code); err != nil {
		t.Fatalf("code expired before its TTL: %v", err)
	}

	if err := engine.SendCode(ctx, "alice@example.com"); err != nil {
		t.Fatal(err)
	}
	code = mailer.lastCode(t)

	mr.FastForward(301 * time.Second)
	if _, err := engine.VerifyCode(ctx, "alice@example.com", code); !errors.Is(err, ErrInvalidOrExpired) {
		t.Fatalf("verify past TTL = %v, want ErrInvalidOrExpired", err)
	}
}

func TestRedisOutageFallsBackLocally(t *testing.T) {
	mr, engine, mailer := newTestRedisEngine(t, nil)
	ctx := context.Background()

	mr.Close()

	// The outage is invisible to the caller: issuance and verification keep
	// working against local state.
	if err := engine.SendCode(ctx, "alice@example.com"); err != nil {
		t.Fatalf("SendCode during outage: %v, want success", err)
	}
	if _, err := engine.VerifyCode(ctx, "alice@example.com", mailer.lastCode(t)); err != nil {
		t.Fatalf("VerifyCode during outage: %v, want success", err)
	}

	snap := engine.MetricsSnapshot()
	if snap.Counters[MetricStoreFallback] == 0 {
		t.Fatal("store fallback not counted")
	}
	if snap.Counters[MetricLimiterFallback] == 0 {
		t.Fatal("limiter fallback not counted")
	}
}

func TestConcurrentSendsAreIndependent(t *testing.T) {
	engine, _, _ := newTestEngine(t, func(cfg *Config) {
		cfg.RateLimit.Max = 200
	})
	ctx := context.Background()

	const workers = 20
	var wg sync.WaitGroup
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func(i int) {
			defer wg.Done()
			identity := fmt.Sprintf("user%d@example.com", i)
			for j := 0; j < 10; j++ {
				if err := engine.SendCode(ctx, identity); err != nil {
					t.Errorf("SendCode(%s): %v", identity, err)
					return
				}
			}
		}(i)
	}
	wg.Wait()
}

func TestGenerateCodeRangeAndShape(t *testing.T) {
	for i := 0; i < 500; i++ {
		code, err := generateCode(6)
		if err != nil {
			t.Fatalf("generateCode failed: %v", err)
		}
		if len(code) != 6 {
			t.Fatalf("code %q has %d digits, want 6", code, len(code))
		}
		n, err := strconv.Atoi(code)
		if err != nil {
			t.Fatalf("code %q is not numeric", code)
		}
		if n < 100000 || n > 999999 {
			t.Fatalf("code %d outside [100000, 999999]", n)
		}
	}

	for _, digits := range []int{0, 5, 11} {
		if _, err := generateCode(digits); err == nil {
			t.Fatalf("generateCode(%d) accepted an invalid width", digits)
		}
	}
}
