// Package liked keeps the set of recipe ids a visitor has liked, mirrored
// into a key-value store on every change.
package liked

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/samber/lo"

	"zest/internal/cache"
	"zest/internal/metrics"
)

// Key is the slot the liked ids live under.
const Key = "likedRecipes"

// storageTimeout bounds each read or write. Storage calls outlive the
// request that triggered them, so an aborted request cannot degrade the store.
const storageTimeout = 5 * time.Second

type Store struct {
	kv  cache.Cache
	key string

	mu       sync.Mutex
	ids      []int
	degraded bool
}

// NewStore scopes the liked slot to one visitor. An empty scope uses the bare key.
func NewStore(kv cache.Cache, scope string) *Store {
	key := Key
	if scope != "" {
		key = "liked/" + scope + "/" + Key
	}
	return &Store{kv: kv, key: key}
}

// Load reads the persisted ids. A missing or unparsable value is an empty set.
func (s *Store) Load(ctx context.Context) []int {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.ids = nil
	if s.kv == nil {
		s.degrade(ctx, errors.New("no storage configured"))
		return nil
	}
	readCtx, cancel := storageContext(ctx)
	defer cancel()
	raw, err := cache.GetString(readCtx, s.kv, s.key)
	if err != nil {
		if !errors.Is(err, cache.ErrNotFound) {
			s.degrade(ctx, err)
		}
		return nil
	}
	var ids []int
	if err := json.Unmarshal([]byte(raw), &ids); err != nil {
		slog.WarnContext(ctx, "ignoring unparsable liked recipes", "key", s.key, "error", err)
		return nil
	}
	s.ids = lo.Uniq(ids)
	return slices.Clone(s.ids)
}

// Toggle removes id if present and appends it otherwise. The new set is
// written to storage before it replaces the in-memory one.
func (s *Store) Toggle(ctx context.Context, id int) []int {
	s.mu.Lock()
	defer s.mu.Unlock()

	var next []int
	action := "like"
	if slices.Contains(s.ids, id) {
		next = lo.Without(s.ids, id)
		action = "unlike"
	} else {
		next = append(slices.Clone(s.ids), id)
	}

	if !s.degraded {
		if err := s.persist(ctx, next); err != nil {
			s.degrade(ctx, err)
		}
	}
	s.ids = next
	metrics.LikeToggles.WithLabelValues(action).Inc()
	return slices.Clone(s.ids)
}

func (s *Store) IDs() []int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.ids)
}

// Degraded reports whether the store stopped writing through to storage.
func (s *Store) Degraded() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.degraded
}

func (s *Store) persist(ctx context.Context, ids []int) error {
	if ids == nil {
		ids = []int{}
	}
	b, err := json.Marshal(ids)
	if err != nil {
		return err
	}
	writeCtx, cancel := storageContext(ctx)
	defer cancel()
	return s.kv.Put(writeCtx, s.key, string(b))
}

func storageContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(ctx), storageTimeout)
}

// degrade must be called with mu held.
func (s *Store) degrade(ctx context.Context, err error) {
	if s.degraded {
		return
	}
	s.degraded = true
	metrics.StorageDegraded.Inc()
	slog.WarnContext(ctx, "liked recipes storage unavailable, keeping them in memory", "key", s.key, "error", err)
}
