// Package webhook verifies the authenticity of inbound payment-processor
// notifications and normalizes trusted payloads into events the order
// pipeline can consume.
//
// The signature covers the exact raw bytes received. Callers must hold onto
// the unparsed body and verify it first; verifying a re-serialized or
// otherwise mutated body is a correctness violation, and parsing before
// verification hands attacker-controlled input to the decoder.
//
// # What this package must NOT do
//
//   - Reveal which part of a failed check went wrong. Verify returns a bare
//     boolean.
//   - Apply state changes. Mutation belongs to the caller's order store,
//     which must be idempotent under duplicate trusted deliveries.
package webhook
