package usercontext

import (
	"context"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// CachedStore is a read-through cache in front of another Store. Entries are
// dropped on every Save, and concurrent loads of the same user share one
// backend read. Callers always receive their own copy.
type CachedStore struct {
	inner Store
	log   *zap.Logger

	mu      sync.RWMutex
	entries map[string]*UserContext
	group   singleflight.Group
}

// NewCachedStore wraps inner with a cache.
func NewCachedStore(inner Store, log *zap.Logger) *CachedStore {
	if log == nil {
		log = zap.NewNop()
	}
	return &CachedStore{inner: inner, log: log, entries: map[string]*UserContext{}}
}

// Load returns a copy of the cached context, reading through on a miss.
func (s *CachedStore) Load(ctx context.Context, userID string) (*UserContext, error) {
	s.mu.RLock()
	c, ok := s.entries[userID]
	s.mu.RUnlock()
	if ok {
		return c.Clone(), nil
	}

	v, err, shared := s.group.Do(userID, func() (any, error) {
		loaded, err := s.inner.Load(ctx, userID)
		if err != nil {
			return nil, err
		}
		s.mu.Lock()
		s.entries[userID] = loaded
		s.mu.Unlock()
		return loaded, nil
	})
	if err != nil {
		return nil, err
	}
	s.log.Debug("context cache miss", zap.String("user_id", userID), zap.Bool("shared", shared))
	return v.(*UserContext).Clone(), nil
}

// Save writes through and invalidates the cached entry.
func (s *CachedStore) Save(ctx context.Context, c *UserContext) error {
	if err := s.inner.Save(ctx, c); err != nil {
		return err
	}
	s.Invalidate(c.UserID)
	return nil
}

// List delegates to the wrapped store.
func (s *CachedStore) List(ctx context.Context) ([]string, error) {
	return s.inner.List(ctx)
}

// Invalidate drops a user's cached entry.
func (s *CachedStore) Invalidate(userID string) {
	s.mu.Lock()
	delete(s.entries, userID)
	s.mu.Unlock()
	s.group.Forget(userID)
}

// Len reports the number of cached users.
func (s *CachedStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}
