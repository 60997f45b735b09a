// Package rate provides fixed-window request counting for code issuance.
//
// # Window semantics
//
// Fixed windows, not sliding: the first hit opens a window of the configured
// length, every hit increments, and a hit past the post-increment max is
// denied. Denied hits are still recorded, so hammering a denied identity
// never resets its window early. A window past its deadline is replaced
// whole, never incremented.
//
// Two implementations share the semantics: [Memory] (sharded in-process map)
// and [Redis] (INCR + conditional EXPIRE on the first hit in the window).
//
// # What this package must NOT do
//
//   - Share state with the credential store. Being rate-limited on sending
//     must never invalidate a code the identity already holds.
//   - Be imported outside the authcore module.
package rate
