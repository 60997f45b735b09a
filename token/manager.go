package token

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Config defines the signing parameters for session tokens.
//
// Config instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Config struct {
	// TTL is the token lifetime measured from issuance.
	TTL time.Duration
	// Secret is the HS256 signing secret shared by issuance and
	// verification.
	Secret []byte
	// Issuer, when non-empty, is embedded in and required of every token.
	Issuer string
	// Leeway is the clock-skew tolerance applied when validating expiry.
	Leeway time.Duration
}

// SessionClaims is the claim set carried by a session token. Subject holds
// the normalized identity.
type SessionClaims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// Manager issues and parses session tokens. Safe for concurrent use.
type Manager struct {
	config Config
}

// NewManager validates cfg and creates a [Manager].
func NewManager(cfg Config) (*Manager, error) {
	if cfg.TTL <= 0 {
		return nil, errors.New("invalid TTL configuration")
	}
	if len(cfg.Secret) == 0 {
		return nil, errors.New("hs256 requires a signing secret")
	}
	if cfg.Leeway < 0 || cfg.Leeway > 2*time.Minute {
		return nil, errors.New("invalid leeway configuration")
	}
	return &Manager{config: cfg}, nil
}

// Issue signs a token binding identity and role, expiring after the
// configured TTL. Deterministic given the same secret and claims except for
// the timestamps.
func (m *Manager) Issue(identity, role string) (string, error) {
	now := time.Now()
	claims := SessionClaims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   identity,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.config.TTL)),
		},
	}
	if m.config.Issuer != "" {
		claims.Issuer = m.config.Issuer
	}

	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.config.Secret)
}

// Parse verifies a token's signature and expiry and returns its claims.
// Any failure (bad signature, wrong algorithm, expired, malformed) is an
// error; callers treating verification as one of several proof mechanisms
// skip on error rather than hard-failing.
func (m *Manager) Parse(tokenStr string) (*SessionClaims, error) {
	options := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	}
	if m.config.Leeway > 0 {
		options = append(options, jwt.WithLeeway(m.config.Leeway))
	}
	if m.config.Issuer != "" {
		options = append(options, jwt.WithIssuer(m.config.Issuer))
	}

	parser := jwt.NewParser(options...)
	parsed, err := parser.ParseWithClaims(tokenStr, &SessionClaims{}, func(*jwt.Token) (interface{}, error) {
		return m.config.Secret, nil
	})
	if err != nil {
		return nil, err
	}

	claims, ok := parsed.Claims.(*SessionClaims)
	if !ok || !parsed.Valid {
		return nil, jwt.ErrTokenInvalidClaims
	}
	return claims, nil
}
