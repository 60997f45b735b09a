package authcore

import "errors"

var (
	// ErrEngineNotReady is returned when an Engine method is called before
	// the required dependencies were wired through [Builder.Build].
	ErrEngineNotReady = errors.New("engine not ready")
	// ErrRateLimited is returned by SendCode when the identity has exhausted
	// its fixed-window request budget. The window reset implies the retry-after.
	ErrRateLimited = errors.New("too many code requests")
	// ErrInvalidOrExpired is returned by VerifyCode for every verification
	// failure. Whether the code was wrong, consumed, expired, or never issued
	// is intentionally indistinguishable to the caller.
	ErrInvalidOrExpired = errors.New("invalid or expired code")
	// ErrUnauthenticated is returned when no identity resolver accepted the
	// request.
	ErrUnauthenticated = errors.New("unauthenticated")
	// ErrForbidden is returned when a resolved identity lacks the required role.
	ErrForbidden = errors.New("forbidden")
	// ErrUntrustedWebhook is returned when a webhook signature does not match
	// the raw body. No further detail is attached.
	ErrUntrustedWebhook = errors.New("untrusted webhook")
	// ErrBackendUnavailable wraps credential-backend infrastructure faults.
	// It is absorbed by the fallback path and never reaches an end user.
	ErrBackendUnavailable = errors.New("credential backend unavailable")
	// ErrMailerUnavailable wraps notification-channel delivery failures.
	ErrMailerUnavailable = errors.New("mailer unavailable")
	// ErrInvalidIdentity is returned when the supplied email does not survive
	// normalization.
	ErrInvalidIdentity = errors.New("invalid identity")
)
