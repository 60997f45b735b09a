package authcore

import "context"

type clientIPContextKey struct{}

// WithClientIP attaches the caller's IP address to ctx. The engine records it
// on audit events; it does not feed rate limiting, which keys on the
// identity alone.
func WithClientIP(ctx context.Context, ip string) context.Context {
	return context.WithValue(ctx, clientIPContextKey{}, ip)
}

func clientIPFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}

	ip, _ := ctx.Value(clientIPContextKey{}).(string)
	return ip
}
