// Package credstore provides the TTL key-value store that holds live one-time
// passcodes, with interchangeable backends behind one [Store] contract.
//
// # Expiry semantics
//
// Expiry is lazy: a record past its deadline may still physically exist but
// Get never returns it. No background sweeper runs; at the cardinality of
// live login codes a wall-clock comparison at read time is sufficient.
//
// # Backends
//
//   - [Memory]: sharded in-process map. Authoritative in non-networked
//     configurations.
//   - [File]: Memory mirrored to a JSON snapshot after every mutation so
//     codes survive a process restart. Single-instance only.
//   - [Redis]: networked backend, SET/GET/DEL with server-side TTL.
//   - [Fallback]: Redis authoritative with transparent per-call fail-open to
//     Memory on infrastructure errors.
//
// # What this package must NOT do
//
//   - Interpret codes. Comparison and consumption policy belong to the engine.
//   - Fail a caller's mutation because a snapshot write failed.
package credstore
