package browser

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"zest/internal/cache"
	"zest/internal/liked"
	"zest/internal/metrics"
)

type session struct {
	browser  *Browser
	lastUsed time.Time
}

// Sessions hands out one Browser per visitor id and drops idle ones.
type Sessions struct {
	source   RecipeSource
	kv       cache.Cache
	pageSize int
	ttl      time.Duration
	now      func() time.Time

	mu    sync.Mutex
	items map[string]*session
}

func NewSessions(source RecipeSource, kv cache.Cache, pageSize int, ttl time.Duration) *Sessions {
	return &Sessions{
		source:   source,
		kv:       kv,
		pageSize: pageSize,
		ttl:      ttl,
		now:      time.Now,
		items:    make(map[string]*session),
	}
}

// Get returns the visitor's Browser, creating it on first use. A new Browser
// loads the visitor's liked set and starts the initial search. The registry
// lock is not held while storage is read.
func (s *Sessions) Get(ctx context.Context, id string) *Browser {
	if b := s.lookup(id); b != nil {
		return b
	}

	store := liked.NewStore(s.kv, id)
	store.Load(ctx)
	b := New(s.source, store, s.pageSize)
	b.Start()

	s.mu.Lock()
	if sess, ok := s.items[id]; ok {
		// another request for the same visitor got here first
		sess.lastUsed = s.now()
		s.mu.Unlock()
		b.Close()
		return sess.browser
	}
	s.items[id] = &session{browser: b, lastUsed: s.now()}
	metrics.ActiveSessions.Set(float64(len(s.items)))
	s.mu.Unlock()

	slog.InfoContext(ctx, "started browser session", "session", id)
	return b
}

func (s *Sessions) lookup(id string) *Browser {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.items[id]
	if !ok {
		return nil
	}
	sess.lastUsed = s.now()
	return sess.browser
}

func (s *Sessions) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}

// Sweep closes sessions idle for longer than the ttl and returns how many went.
func (s *Sessions) Sweep() int {
	cutoff := s.now().Add(-s.ttl)

	s.mu.Lock()
	var idle []*Browser
	for id, sess := range s.items {
		if sess.lastUsed.Before(cutoff) {
			idle = append(idle, sess.browser)
			delete(s.items, id)
		}
	}
	metrics.ActiveSessions.Set(float64(len(s.items)))
	s.mu.Unlock()

	for _, b := range idle {
		b.Close()
	}
	return len(idle)
}

// Run sweeps every interval until ctx is done.
func (s *Sessions) Run(ctx context.Context, every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := s.Sweep(); n > 0 {
				slog.InfoContext(ctx, "dropped idle browser sessions", "count", n)
			}
		}
	}
}

// Close shuts every session down and forgets them.
func (s *Sessions) Close() {
	s.mu.Lock()
	items := s.items
	s.items = make(map[string]*session)
	metrics.ActiveSessions.Set(0)
	s.mu.Unlock()

	for _, sess := range items {
		sess.browser.Close()
	}
}
