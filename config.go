package authcore

import (
	"errors"
	"time"
)

// Config defines a public type used by authcore APIs.
//
// Config instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Config struct {
	OTP       OTPConfig
	RateLimit RateLimitConfig
	Session   SessionConfig
	Store     StoreConfig
	Webhook   WebhookConfig
	Audit     AuditConfig
	Metrics   MetricsConfig
}

/*
====================================
OTP CONFIG
====================================
*/

// OTPConfig tunes code issuance and verification.
type OTPConfig struct {
	// TTL is how long an issued code stays verifiable. Default 5 minutes.
	TTL time.Duration
	// Digits is the code length. The first digit is never zero, so the code
	// space for 6 digits is [100000, 999999]. Default 6.
	Digits int
	// RequireDelivery makes SendCode fail when the mailer rejects the
	// message. When false (development), issuance succeeds anyway and the
	// code stays verifiable; the failure is still audited.
	RequireDelivery bool
	// Subject is the mail subject line for delivered codes.
	Subject string
}

/*
====================================
RATE LIMIT CONFIG
====================================
*/

// RateLimitConfig tunes the fixed-window send limiter. The window is
// independent of OTP expiry: a limited identity can still verify a code it
// already holds.
type RateLimitConfig struct {
	// Window is the fixed window length. Default 1 minute.
	Window time.Duration
	// Max is the number of sends allowed per window. Default 3.
	Max int
}

/*
====================================
SESSION CONFIG
====================================
*/

// SessionConfig tunes signed session tokens.
type SessionConfig struct {
	// TTL is the token lifetime. Default 7 days.
	TTL time.Duration
	// Secret is the HS256 signing secret. Required.
	Secret []byte
	// Issuer is embedded in and required of every token when non-empty.
	Issuer string
	// Leeway is the clock-skew tolerance applied when parsing. Default 0,
	// capped at 2 minutes.
	Leeway time.Duration
	// CookieName is the cookie consulted by the bearer-token resolver in
	// addition to the Authorization header. Default "authToken".
	CookieName string
}

/*
====================================
STORE CONFIG
====================================
*/

// StoreBackend selects the authoritative credential store backend.
type StoreBackend string

const (
	// BackendMemory keeps codes in process memory only.
	BackendMemory StoreBackend = "memory"
	// BackendFile keeps codes in memory mirrored to a snapshot file after
	// every mutation, reloaded once at startup. Single-instance only.
	BackendFile StoreBackend = "file"
	// BackendRedis makes Redis authoritative with transparent per-call
	// fallback to process memory when Redis errors.
	BackendRedis StoreBackend = "redis"
)

// StoreConfig selects and tunes the credential store backend.
type StoreConfig struct {
	// Backend picks the authoritative store. Default [BackendMemory].
	Backend StoreBackend
	// SnapshotPath is the snapshot file for [BackendFile].
	// Default ".otp-store.json".
	SnapshotPath string
	// KeyPrefix namespaces Redis keys. Default "otp".
	KeyPrefix string
}

/*
====================================
WEBHOOK CONFIG
====================================
*/

// WebhookConfig tunes payment-webhook trust verification.
type WebhookConfig struct {
	// Secret is the shared HMAC-SHA256 secret. Required when webhooks are
	// handled.
	Secret []byte
}

/*
====================================
AUDIT CONFIG
====================================
*/

// AuditConfig tunes the asynchronous audit pipeline.
type AuditConfig struct {
	// Enabled turns audit emission on. Default false.
	Enabled bool
	// BufferSize is the dispatcher channel capacity. Default 256.
	BufferSize int
	// DropIfFull drops events instead of blocking when the buffer is full.
	// Dropped events are counted and reported by [Engine.AuditDropped].
	DropIfFull bool
}

/*
====================================
METRICS CONFIG
====================================
*/

// MetricsConfig tunes the in-process counter registry.
type MetricsConfig struct {
	// Enabled turns counters on. Default true.
	Enabled bool
}

func defaultConfig() Config {
	return Config{
		OTP: OTPConfig{
			TTL:     5 * time.Minute,
			Digits:  6,
			Subject: "Your login code",
		},
		RateLimit: RateLimitConfig{
			Window: time.Minute,
			Max:    3,
		},
		Session: SessionConfig{
			TTL:        7 * 24 * time.Hour,
			CookieName: "authToken",
		},
		Store: StoreConfig{
			Backend:      BackendMemory,
			SnapshotPath: ".otp-store.json",
			KeyPrefix:    "otp",
		},
		Audit: AuditConfig{
			BufferSize: 256,
			DropIfFull: true,
		},
		Metrics: MetricsConfig{
			Enabled: true,
		},
	}
}

func validateConfig(cfg Config) error {
	if cfg.OTP.TTL <= 0 {
		return errors.New("otp ttl must be positive")
	}
	if cfg.OTP.Digits < 6 || cfg.OTP.Digits > 10 {
		return errors.New("otp digits must be between 6 and 10")
	}
	if cfg.RateLimit.Window <= 0 {
		return errors.New("rate limit window must be positive")
	}
	if cfg.RateLimit.Max <= 0 {
		return errors.New("rate limit max must be positive")
	}
	if cfg.Session.TTL <= 0 {
		return errors.New("session ttl must be positive")
	}
	if len(cfg.Session.Secret) == 0 {
		return errors.New("session secret is required")
	}
	if cfg.Session.Leeway < 0 || cfg.Session.Leeway > 2*time.Minute {
		return errors.New("session leeway out of range")
	}
	switch cfg.Store.Backend {
	case BackendMemory, BackendFile, BackendRedis:
	default:
		return errors.New("unknown store backend")
	}
	if cfg.Store.Backend == BackendFile && cfg.Store.SnapshotPath == "" {
		return errors.New("file backend requires a snapshot path")
	}
	if cfg.Audit.Enabled && cfg.Audit.BufferSize <= 0 {
		return errors.New("audit buffer size must be positive")
	}
	return nil
}

// mergeDefaults fills zero-valued tunables so a partially populated Config
// behaves like defaultConfig for the fields the caller left unset.
func mergeDefaults(cfg Config) Config {
	def := defaultConfig()
	if cfg.OTP.TTL == 0 {
		cfg.OTP.TTL = def.OTP.TTL
	}
	if cfg.OTP.Digits == 0 {
		cfg.OTP.Digits = def.OTP.Digits
	}
	if cfg.OTP.Subject == "" {
		cfg.OTP.Subject = def.OTP.Subject
	}
	if cfg.RateLimit.Window == 0 {
		cfg.RateLimit.Window = def.RateLimit.Window
	}
	if cfg.RateLimit.Max == 0 {
		cfg.RateLimit.Max = def.RateLimit.Max
	}
	if cfg.Session.TTL == 0 {
		cfg.Session.TTL = def.Session.TTL
	}
	if cfg.Session.CookieName == "" {
		cfg.Session.CookieName = def.Session.CookieName
	}
	if cfg.Store.Backend == "" {
		cfg.Store.Backend = def.Store.Backend
	}
	if cfg.Store.SnapshotPath == "" {
		cfg.Store.SnapshotPath = def.Store.SnapshotPath
	}
	if cfg.Store.KeyPrefix == "" {
		cfg.Store.KeyPrefix = def.Store.KeyPrefix
	}
	if cfg.Audit.BufferSize == 0 {
		cfg.Audit.BufferSize = def.Audit.BufferSize
	}
	return cfg
}
