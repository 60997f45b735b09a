// Package middleware provides net/http glue over the authcore resolver
// chain: authentication and admin guards, and a raw-body webhook handler
// that verifies before parsing.
//
// # What this package must NOT do
//
//   - Re-implement proof mechanisms. Resolution is [authcore.Engine.Resolve];
//     this package only maps its outcomes onto HTTP status codes.
//   - Leak failure detail. Rejections are bare 401/403 bodies.
package middleware
