// Package authcore provides the passwordless authentication and payment-trust
// core for a commerce backend: one-time passcode (OTP) issuance and
// verification, per-identity fixed-window rate limiting, a pluggable TTL
// credential store with graceful backend fallback, signed session tokens, a
// dual-mode session resolver, and keyed-signature verification of inbound
// payment webhooks.
//
// The package is designed for concurrent server workloads: Engine methods are
// safe to call from multiple goroutines after initialization through
// [Builder.Build].
//
// # Architecture boundaries
//
// authcore is the public surface. It exposes [Engine], [Builder], [Config],
// the identity resolver chain, and value types (Session, UserRecord,
// AuditEvent, MetricsSnapshot). Reusable mechanisms live in subpackages
// (credstore, token, webhook, middleware); rate limiting lives under
// internal/ and is never exported.
//
// # What this package must NOT do
//
//   - Own user or order records. [UserProvider] and [OrderUpdater] are
//     collaborator interfaces supplied by the caller.
//   - Parse a webhook body before its signature has been verified.
//   - Distinguish "wrong code" from "no code issued" in any error surfaced
//     to a caller.
//   - Surface a credential-backend outage to the end user when a local
//     fallback exists.
package authcore
