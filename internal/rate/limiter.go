package rate

import (
	"context"
	"hash/fnv"
	"sync"
	"time"
)

// Limiter is the consumption contract shared by both implementations.
// Consume records one request for key and returns [ErrRateLimited] when the
// post-increment count exceeds the configured max.
type Limiter interface {
	Consume(ctx context.Context, key string) error
}

// Config holds fixed-window tuning shared by both implementations.
type Config struct {
	Window time.Duration
	Max    int
}

const memoryShards = 16

type window struct {
	count   int
	resetAt time.Time
}

type shard struct {
	mu      sync.Mutex
	windows map[string]window
}

// Memory is an in-process fixed-window [Limiter]. Windows are spread over
// mutex-guarded shards; the increment-and-compare for one key runs entirely
// under its shard lock, so concurrent callers never overcount or undercount.
type Memory struct {
	cfg    Config
	shards [memoryShards]shard
	now    func() time.Time
}

// NewMemory creates an in-process limiter.
func NewMemory(cfg Config) *Memory {
	m := &Memory{cfg: cfg, now: time.Now}
	for i := range m.shards {
		m.shards[i].windows = make(map[string]window)
	}
	return m
}

// Consume implements [Limiter].
func (m *Memory) Consume(_ context.Context, key string) error {
	h := fnv.New32a()
	_, _ = h.Write([]byte(key))
	s := &m.shards[h.Sum32()%memoryShards]

	s.mu.Lock()
	defer s.mu.Unlock()

	now := m.now()
	w, ok := s.windows[key]
	if !ok || now.After(w.resetAt) {
		// Stale windows are replaced, never incremented.
		w = window{resetAt: now.Add(m.cfg.Window)}
	}
	w.count++
	s.windows[key] = w

	if w.count > m.cfg.Max {
		return ErrRateLimited
	}
	return nil
}
