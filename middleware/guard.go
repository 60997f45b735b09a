package middleware

import (
	"context"
	"errors"
	"net/http"

	authcore "github.com/commercekit/authcore"
)

type sessionContextKey struct{}

// SessionFromContext returns the session attached by [Guard] or
// [AdminGuard].
func SessionFromContext(ctx context.Context) (authcore.Session, bool) {
	session, ok := ctx.Value(sessionContextKey{}).(authcore.Session)
	return session, ok
}

// Guard rejects requests no proof mechanism accepts with 401 and attaches
// the resolved session to the request context otherwise.
func Guard(engine *authcore.Engine) func(http.Handler) http.Handler {
	return guard(engine, false)
}

// AdminGuard is [Guard] plus the role gate: resolved non-admin sessions are
// rejected with 403.
func AdminGuard(engine *authcore.Engine) func(http.Handler) http.Handler {
	return guard(engine, true)
}

func guard(engine *authcore.Engine, requireAdmin bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if engine == nil {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			var (
				session authcore.Session
				err     error
			)
			if requireAdmin {
				session, err = engine.ResolveAdmin(r)
			} else {
				session, err = engine.Resolve(r)
			}
			if err != nil {
				if errors.Is(err, authcore.ErrForbidden) {
					http.Error(w, "forbidden", http.StatusForbidden)
					return
				}
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			ctx := context.WithValue(r.Context(), sessionContextKey{}, session)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
