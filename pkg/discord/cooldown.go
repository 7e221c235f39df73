package discord

import (
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// MaxCooldown bounds how long an entry stays in the cooldown cache.
const MaxCooldown = time.Hour

// CooldownStore tracks per-user per-handler cooldown deadlines.
type CooldownStore struct {
	mu    sync.Mutex
	cache *expirable.LRU[string, time.Time]
	now   func() time.Time
}

// NewCooldownStore creates a store holding at most size entries.
func NewCooldownStore(size int) *CooldownStore {
	if size <= 0 {
		size = 1024
	}
	return &CooldownStore{
		cache: expirable.NewLRU[string, time.Time](size, nil, MaxCooldown),
		now:   time.Now,
	}
}

// Take starts a window for (userID, handler) unless one is running, in which
// case it returns the remaining time and false.
func (s *CooldownStore) Take(userID, handler string, window time.Duration) (time.Duration, bool) {
	if window <= 0 {
		return 0, true
	}
	key := userID + ":" + handler

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if deadline, ok := s.cache.Get(key); ok && deadline.After(now) {
		return deadline.Sub(now), false
	}
	s.cache.Add(key, now.Add(window))
	return 0, true
}

// Reset clears the window for (userID, handler).
func (s *CooldownStore) Reset(userID, handler string) {
	s.cache.Remove(userID + ":" + handler)
}
