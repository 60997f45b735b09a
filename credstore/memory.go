package credstore

import (
	"context"
	"hash/fnv"
	"sync"
	"time"
)

const memoryShards = 16

type record struct {
	code      string
	expiresAt time.Time
}

type shard struct {
	mu      sync.Mutex
	records map[string]record
}

// Memory is an in-process [Store]. Records are spread over a fixed number of
// mutex-guarded shards so operations on different identities do not contend
// on one lock, while a read-modify-write on a single identity is atomic.
type Memory struct {
	shards [memoryShards]shard
	now    func() time.Time
}

// NewMemory creates an empty in-process store.
func NewMemory() *Memory {
	m := &Memory{now: time.Now}
	for i := range m.shards {
		m.shards[i].records = make(map[string]record)
	}
	return m
}

func (m *Memory) shardFor(identity string) *shard {
	h := fnv.New32a()
	_, _ = h.Write([]byte(identity))
	return &m.shards[h.Sum32()%memoryShards]
}

// Put implements [Store].
func (m *Memory) Put(_ context.Context, identity, code string, ttl time.Duration) error {
	s := m.shardFor(identity)
	s.mu.Lock()
	defer s.mu.Unlock()

	s.records[identity] = record{code: code, expiresAt: m.now().Add(ttl)}
	return nil
}

// Get implements [Store]. Expired records are removed on sight.
func (m *Memory) Get(_ context.Context, identity string) (string, bool, error) {
	s := m.shardFor(identity)
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.records[identity]
	if !ok {
		return "", false, nil
	}
	if m.now().After(rec.expiresAt) {
		delete(s.records, identity)
		return "", false, nil
	}
	return rec.code, true, nil
}

// Delete implements [Store].
func (m *Memory) Delete(_ context.Context, identity string) error {
	s := m.shardFor(identity)
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.records, identity)
	return nil
}

// entries returns a copy of all live records. Used by the snapshot mirror.
func (m *Memory) entries() map[string]record {
	now := m.now()
	out := make(map[string]record)
	for i := range m.shards {
		s := &m.shards[i]
		s.mu.Lock()
		for identity, rec := range s.records {
			if now.After(rec.expiresAt) {
				continue
			}
			out[identity] = rec
		}
		s.mu.Unlock()
	}
	return out
}

// restore merges records into the store, keeping whichever record is already
// present. Used once at startup when loading a snapshot.
func (m *Memory) restore(records map[string]record) {
	now := m.now()
	for identity, rec := range records {
		if now.After(rec.expiresAt) {
			continue
		}
		s := m.shardFor(identity)
		s.mu.Lock()
		if _, ok := s.records[identity]; !ok {
			s.records[identity] = rec
		}
		s.mu.Unlock()
	}
}
