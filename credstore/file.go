package credstore

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"sync/atomic"
	"time"
)

type snapshotEntry struct {
	Code      string `json:"code"`
	ExpiresAt int64  `json:"expires_at_ms"`
}

// File is a [Store] that keeps records in a [Memory] store and mirrors them
// to a JSON snapshot file after every mutation, so live codes survive a
// process restart. The snapshot is read once at construction and merged into
// memory.
//
// Snapshot I/O failures never fail the caller's mutation; they are counted
// and reported by [File.SnapshotFailures]. File is meant for single-instance
// deployments: two processes sharing one snapshot path will clobber each
// other.
type File struct {
	mem      *Memory
	path     string
	writeMu  sync.Mutex
	failures atomic.Uint64
}

// NewFile creates a file-mirrored store over path. A missing snapshot is not
// an error; a corrupt one is, so a deployment problem surfaces at startup
// rather than as silently lost codes.
func NewFile(path string) (*File, error) {
	f := &File{mem: NewMemory(), path: path}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return f, nil
		}
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	var raw map[string]snapshotEntry
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: corrupt snapshot: %v", ErrUnavailable, err)
	}

	records := make(map[string]record, len(raw))
	for identity, entry := range raw {
		records[identity] = record{
			code:      entry.Code,
			expiresAt: time.UnixMilli(entry.ExpiresAt),
		}
	}
	f.mem.restore(records)
	return f, nil
}

// Put implements [Store].
func (f *File) Put(ctx context.Context, identity, code string, ttl time.Duration) error {
	if err := f.mem.Put(ctx, identity, code, ttl); err != nil {
		return err
	}
	f.snapshot()
	return nil
}

// Get implements [Store]. Reads never touch the snapshot file.
func (f *File) Get(ctx context.Context, identity string) (string, bool, error) {
	return f.mem.Get(ctx, identity)
}

// Delete implements [Store].
func (f *File) Delete(ctx context.Context, identity string) error {
	if err := f.mem.Delete(ctx, identity); err != nil {
		return err
	}
	f.snapshot()
	return nil
}

// SnapshotFailures returns how many snapshot writes have failed since
// construction.
func (f *File) SnapshotFailures() uint64 {
	return f.failures.Load()
}

func (f *File) snapshot() {
	f.writeMu.Lock()
	defer f.writeMu.Unlock()

	records := f.mem.entries()
	raw := make(map[string]snapshotEntry, len(records))
	for identity, rec := range records {
		raw[identity] = snapshotEntry{
			Code:      rec.code,
			ExpiresAt: rec.expiresAt.UnixMilli(),
		}
	}

	data, err := json.Marshal(raw)
	if err != nil {
		f.failures.Add(1)
		return
	}

	// Write-then-rename keeps a crash from leaving a truncated snapshot.
	tmp := f.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		f.failures.Add(1)
		return
	}
	if err := os.Rename(tmp, f.path); err != nil {
		f.failures.Add(1)
	}
}
