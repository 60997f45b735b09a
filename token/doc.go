// Package token mints and verifies the signed session tokens issued after a
// successful passcode verification.
//
// Tokens are self-contained HS256 JWTs carrying the subject identity, a role
// claim, and issued-at/expiry timestamps. Validity is proven by signature and
// expiry alone: no server-side session table is consulted, so a token is
// transmissible as a bearer credential in a header or cookie.
//
// # What this package must NOT do
//
//   - Accept any signing algorithm other than the configured HS256 method
//     (alg confusion is rejected at parse time).
//   - Keep state. Manager is a pure function of its configuration.
package token
