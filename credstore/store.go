package credstore

import (
	"context"
	"errors"
	"time"
)

// Store is the credential contract: one live code per identity, replaced on
// Put, invisible past its TTL, removed on Delete.
//
// Identity keys are assumed to be normalized by the caller; the store treats
// them as opaque.
type Store interface {
	// Put stores code for identity with the given TTL, overwriting any
	// existing record.
	Put(ctx context.Context, identity, code string, ttl time.Duration) error
	// Get returns the live code for identity. ok is false when no record
	// exists or the record has expired; the two are indistinguishable.
	Get(ctx context.Context, identity string) (code string, ok bool, err error)
	// Delete removes the record for identity. Deleting an absent record is
	// not an error.
	Delete(ctx context.Context, identity string) error
}

// ErrUnavailable wraps backend infrastructure faults (unreachable Redis,
// unwritable snapshot). Callers with a fallback path absorb it.
var ErrUnavailable = errors.New("credential backend unavailable")
