package authcore

import (
	"net/http"
	"strings"

	"github.com/commercekit/authcore/token"
)

// IdentityResolver is one proof mechanism for establishing who an HTTP
// request acts as. Resolve returns false when the mechanism does not apply
// or its proof fails; a failed mechanism is skipped, never fatal, so the
// next resolver in the chain still gets a chance.
type IdentityResolver interface {
	Resolve(r *http.Request) (Session, bool)
}

// ResolverChain tries each resolver in order; the first success wins.
// Supporting a new sign-in mechanism is appending a resolver, not adding a
// branch.
type ResolverChain []IdentityResolver

// Resolve implements [IdentityResolver] over the whole chain.
func (c ResolverChain) Resolve(r *http.Request) (Session, bool) {
	for _, res := range c {
		if session, ok := res.Resolve(r); ok {
			return session, true
		}
	}
	return Session{}, false
}

// ExternalSessionReader is the federated sign-in collaborator: a separate
// identity-provider flow that maintains its own session storage. Its
// integrity is assumed, not re-validated here.
type ExternalSessionReader interface {
	ReadSession(r *http.Request) (Session, bool)
}

// ExternalSessionResolver accepts a session established by the external
// identity-provider flow.
type ExternalSessionResolver struct {
	Reader ExternalSessionReader
}

// Resolve implements [IdentityResolver].
func (res ExternalSessionResolver) Resolve(r *http.Request) (Session, bool) {
	if res.Reader == nil {
		return Session{}, false
	}
	session, ok := res.Reader.ReadSession(r)
	if !ok || session.Identity == "" || !session.Role.Valid() {
		return Session{}, false
	}
	return session, true
}

// TokenResolver accepts a bearer session token from the Authorization header
// or, failing that, from the configured cookie. Signature or expiry failures
// skip the mechanism rather than rejecting the request.
type TokenResolver struct {
	Manager    *token.Manager
	CookieName string
}

// Resolve implements [IdentityResolver].
func (res TokenResolver) Resolve(r *http.Request) (Session, bool) {
	if res.Manager == nil {
		return Session{}, false
	}

	raw, ok := bearerToken(r.Header.Get("Authorization"))
	if !ok && res.CookieName != "" {
		if cookie, err := r.Cookie(res.CookieName); err == nil && cookie.Value != "" {
			raw, ok = cookie.Value, true
		}
	}
	if !ok {
		return Session{}, false
	}

	claims, err := res.Manager.Parse(raw)
	if err != nil {
		return Session{}, false
	}

	session := Session{Identity: claims.Subject, Role: Role(claims.Role)}
	if session.Identity == "" || !session.Role.Valid() {
		return Session{}, false
	}
	return session, true
}

func bearerToken(value string) (string, bool) {
	const bearer = "Bearer "
	if !strings.HasPrefix(value, bearer) {
		return "", false
	}

	raw := value[len(bearer):]
	if raw == "" {
		return "", false
	}
	return raw, true
}

// Resolve establishes the request's identity and role through the resolver
// chain. When no mechanism succeeds the result is [ErrUnauthenticated];
// nothing in the error reveals which mechanisms were tried.
func (e *Engine) Resolve(r *http.Request) (Session, error) {
	if e == nil || len(e.resolvers) == 0 {
		return Session{}, ErrEngineNotReady
	}

	for _, res := range e.resolvers {
		session, ok := res.Resolve(r)
		if !ok {
			continue
		}
		if _, external := res.(ExternalSessionResolver); external {
			e.metricInc(MetricResolveExternal)
		} else {
			e.metricInc(MetricResolveToken)
		}
		return session, nil
	}

	e.metricInc(MetricResolveUnauthenticated)
	e.emitAudit(r.Context(), auditEventSessionResolve, false, "", ErrUnauthenticated, nil)
	return Session{}, ErrUnauthenticated
}

// ResolveAdmin is [Engine.Resolve] plus a role gate: a resolved non-admin
// session fails with [ErrForbidden].
func (e *Engine) ResolveAdmin(r *http.Request) (Session, error) {
	session, err := e.Resolve(r)
	if err != nil {
		return Session{}, err
	}
	if session.Role != RoleAdmin {
		e.metricInc(MetricResolveForbidden)
		e.emitAudit(r.Context(), auditEventSessionResolve, false, session.Identity, ErrForbidden, nil)
		return Session{}, ErrForbidden
	}
	return session, nil
}

// ExternalSessionFunc adapts a function to [ExternalSessionReader].
type ExternalSessionFunc func(r *http.Request) (Session, bool)

// ReadSession implements [ExternalSessionReader].
func (f ExternalSessionFunc) ReadSession(r *http.Request) (Session, bool) {
	return f(r)
}
