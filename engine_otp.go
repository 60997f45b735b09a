package authcore

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"errors"
	"fmt"
	"math/big"

	"github.com/commercekit/authcore/internal/rate"
)

// VerifyResult is returned by a successful [Engine.VerifyCode]: the signed
// session token and the user record the identity resolved to.
type VerifyResult struct {
	Token string
	User  UserRecord
}

// SendCode issues a fresh one-time passcode for email and dispatches it
// through the mailer.
//
// The identity is normalized first, then charged against the fixed-window
// send budget; a denied request fails with [ErrRateLimited] and still counts
// against the window. On success the code replaces any prior unexpired code
// for the identity; exactly one code is live per identity at a time.
//
// Mailer failure is audited and counted. Unless RequireDelivery is set it
// does not fail the call: the stored code remains verifiable, which is the
// intended development behavior.
func (e *Engine) SendCode(ctx context.Context, email string) error {
	if e == nil || e.store == nil || e.limiter == nil {
		return ErrEngineNotReady
	}

	identity := normalizeIdentity(email)
	if !validIdentity(identity) {
		e.emitAudit(ctx, auditEventCodeRequest, false, identity, ErrInvalidIdentity, nil)
		return ErrInvalidIdentity
	}

	if err := e.consumeSendBudget(ctx, identity); err != nil {
		e.metricInc(MetricCodeRateLimited)
		e.emitAudit(ctx, auditEventCodeRequest, false, identity, err, nil)
		return err
	}

	code, err := generateCode(e.config.OTP.Digits)
	if err != nil {
		e.emitAudit(ctx, auditEventCodeRequest, false, identity, err, nil)
		return fmt.Errorf("code generation: %w", err)
	}

	if err := e.store.Put(ctx, identity, code, e.config.OTP.TTL); err != nil {
		e.emitAudit(ctx, auditEventCodeRequest, false, identity, ErrBackendUnavailable, nil)
		return fmt.Errorf("%w: %v", ErrBackendUnavailable, err)
	}

	e.metricInc(MetricCodeIssued)
	e.emitAudit(ctx, auditEventCodeRequest, true, identity, nil, nil)

	if e.mailer == nil {
		return nil
	}
	mail := Mail{
		To:      identity,
		Subject: e.config.OTP.Subject,
		Body:    fmt.Sprintf("Your login code is %s. It expires in %s.", code, e.config.OTP.TTL),
	}
	if err := e.mailer.Send(ctx, mail); err != nil {
		e.metricInc(MetricCodeDeliveryFailure)
		e.emitAudit(ctx, auditEventCodeRequest, !e.config.OTP.RequireDelivery, identity, ErrMailerUnavailable, func() map[string]string {
			return map[string]string{"stage": "delivery"}
		})
		if e.config.OTP.RequireDelivery {
			return fmt.Errorf("%w: %v", ErrMailerUnavailable, err)
		}
	}
	return nil
}

// VerifyCode checks a submitted code, consumes it on match, and mints a
// session token for the resolved user.
//
// Every failure is [ErrInvalidOrExpired]: whether the code was wrong,
// already consumed, expired, or never issued is not distinguishable from the
// outside, so a caller cannot probe which identities hold live codes. A
// matching code is deleted before the token is minted; codes are single-use.
func (e *Engine) VerifyCode(ctx context.Context, email, code string) (VerifyResult, error) {
	if e == nil || e.store == nil || e.tokens == nil || e.users == nil {
		return VerifyResult{}, ErrEngineNotReady
	}

	identity := normalizeIdentity(email)
	if !validIdentity(identity) {
		e.metricInc(MetricCodeVerifyFailure)
		e.emitAudit(ctx, auditEventCodeVerify, false, identity, ErrInvalidOrExpired, nil)
		return VerifyResult{}, ErrInvalidOrExpired
	}

	stored, ok, err := e.store.Get(ctx, identity)
	if err != nil {
		e.emitAudit(ctx, auditEventCodeVerify, false, identity, ErrBackendUnavailable, nil)
		return VerifyResult{}, fmt.Errorf("%w: %v", ErrBackendUnavailable, err)
	}
	if !ok || subtle.ConstantTimeCompare([]byte(stored), []byte(code)) != 1 {
		e.metricInc(MetricCodeVerifyFailure)
		e.emitAudit(ctx, auditEventCodeVerify, false, identity, ErrInvalidOrExpired, nil)
		return VerifyResult{}, ErrInvalidOrExpired
	}

	// Single use: consume before minting so a concurrent retry of the same
	// code races against a deleted record, not a live one.
	if err := e.store.Delete(ctx, identity); err != nil {
		e.emitAudit(ctx, auditEventCodeVerify, false, identity, ErrBackendUnavailable, nil)
		return VerifyResult{}, fmt.Errorf("%w: %v", ErrBackendUnavailable, err)
	}

	user, err := e.users.FindOrCreate(ctx, identity)
	if err != nil {
		e.emitAudit(ctx, auditEventCodeVerify, false, identity, err, func() map[string]string {
			return map[string]string{"stage": "user_provider"}
		})
		return VerifyResult{}, fmt.Errorf("user provider: %w", err)
	}

	role := user.Role
	if !role.Valid() {
		role = RoleUser
	}

	signed, err := e.tokens.Issue(identity, string(role))
	if err != nil {
		e.emitAudit(ctx, auditEventCodeVerify, false, identity, err, func() map[string]string {
			return map[string]string{"stage": "token"}
		})
		return VerifyResult{}, fmt.Errorf("token issuance: %w", err)
	}

	e.metricInc(MetricCodeVerifySuccess)
	e.metricInc(MetricTokenIssued)
	e.emitAudit(ctx, auditEventCodeVerify, true, identity, nil, nil)

	return VerifyResult{Token: signed, User: user}, nil
}

// IssueSession mints a signed session token for an already-established
// identity and role, outside the OTP flow. Used when a trusted administrative
// action changes a role and a fresh token must reflect it.
func (e *Engine) IssueSession(identity string, role Role) (string, error) {
	if e == nil || e.tokens == nil {
		return "", ErrEngineNotReady
	}
	if !role.Valid() {
		return "", fmt.Errorf("unknown role %q", role)
	}

	signed, err := e.tokens.Issue(normalizeIdentity(identity), string(role))
	if err != nil {
		return "", err
	}
	e.metricInc(MetricTokenIssued)
	return signed, nil
}

// consumeSendBudget charges one send against the identity's window. A
// networked limiter outage falls through to the in-process limiter so
// issuance stays available; the looser local window during the outage is an
// accepted trade.
func (e *Engine) consumeSendBudget(ctx context.Context, identity string) error {
	err := e.limiter.Consume(ctx, identity)
	if err == nil {
		return nil
	}
	if errors.Is(err, rate.ErrRateLimited) {
		return ErrRateLimited
	}
	if errors.Is(err, rate.ErrUnavailable) && e.localLimiter != nil {
		e.metricInc(MetricLimiterFallback)
		e.emitAudit(ctx, auditEventLimiterFallback, true, identity, nil, nil)
		if err := e.localLimiter.Consume(ctx, identity); err != nil {
			return ErrRateLimited
		}
		return nil
	}
	return fmt.Errorf("%w: %v", ErrBackendUnavailable, err)
}

// generateCode draws a uniformly random numeric code with the given digit
// count. The first digit is never zero, so the printed form is unambiguous.
func generateCode(digits int) (string, error) {
	if digits < 6 || digits > 10 {
		return "", errors.New("invalid code digits")
	}

	low := int64(1)
	for i := 1; i < digits; i++ {
		low *= 10
	}
	span := big.NewInt(low*10 - low) // [low, low*10)

	n, err := rand.Int(rand.Reader, span)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%d", n.Int64()+low), nil
}
