package credstore

import (
	"context"
	"time"
)

// Fallback makes a networked primary authoritative while absorbing its
// infrastructure faults: when the primary errors, the call transparently
// falls through to a local [Memory] store and succeeds (fail-open).
// Availability is preferred over strict consistency here: the credentials
// are short-lived and low-stakes, and in a multi-instance deployment the two
// backends can transiently disagree while the primary is down.
type Fallback struct {
	primary Store
	local   *Memory

	// OnFallback, when set, is invoked with the operation name and the
	// primary's error each time a call falls through. Must be safe for
	// concurrent use.
	OnFallback func(op string, err error)
}

// NewFallback creates a fallback store over primary with a fresh local
// [Memory] store.
func NewFallback(primary Store) *Fallback {
	return &Fallback{primary: primary, local: NewMemory()}
}

func (f *Fallback) fellBack(op string, err error) {
	if f.OnFallback != nil {
		f.OnFallback(op, err)
	}
}

// Put implements [Store]. A primary failure stores the code locally instead,
// so issuance keeps working through a backend outage.
func (f *Fallback) Put(ctx context.Context, identity, code string, ttl time.Duration) error {
	if err := f.primary.Put(ctx, identity, code, ttl); err != nil {
		f.fellBack("put", err)
		return f.local.Put(ctx, identity, code, ttl)
	}
	return nil
}

// Get implements [Store]. A primary failure reads the local store instead;
// a primary miss is a miss, not a reason to consult local state.
func (f *Fallback) Get(ctx context.Context, identity string) (string, bool, error) {
	code, ok, err := f.primary.Get(ctx, identity)
	if err != nil {
		f.fellBack("get", err)
		return f.local.Get(ctx, identity)
	}
	return code, ok, nil
}

// Delete implements [Store]. The local store is always cleared so a code
// stored during an outage cannot outlive its consumption.
func (f *Fallback) Delete(ctx context.Context, identity string) error {
	if err := f.primary.Delete(ctx, identity); err != nil {
		f.fellBack("delete", err)
	}
	return f.local.Delete(ctx, identity)
}
