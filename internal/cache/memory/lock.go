package memory

import (
	"context"
	"sync"
	"time"

	"github.com/alanyoungcy/dropmarket/internal/domain"
	"github.com/google/uuid"
)

type lockEntry struct {
	token   string
	expires time.Time
}

// LockManager implements domain.LockManager with an in-process map. A lock
// whose TTL has passed is treated as released.
type LockManager struct {
	mu    sync.Mutex
	locks map[string]lockEntry
	nowFn func() time.Time
}

// NewLockManager creates an empty LockManager.
func NewLockManager() *LockManager {
	return &LockManager{
		locks: make(map[string]lockEntry),
		nowFn: time.Now,
	}
}

// Acquire returns domain.ErrLockHeld if key is held by someone else. The
// returned unlock function only releases the lock it acquired and is safe to
// call more than once.
func (lm *LockManager) Acquire(_ context.Context, key string, ttl time.Duration) (func(), error) {
	lm.mu.Lock()
	defer lm.mu.Unlock()

	now := lm.nowFn()
	if cur, ok := lm.locks[key]; ok && now.Before(cur.expires) {
		return nil, domain.ErrLockHeld
	}

	token := uuid.NewString()
	lm.locks[key] = lockEntry{token: token, expires: now.Add(ttl)}

	var once sync.Once
	unlock := func() {
		once.Do(func() {
			lm.mu.Lock()
			defer lm.mu.Unlock()
			if cur, ok := lm.locks[key]; ok && cur.token == token {
				delete(lm.locks, key)
			}
		})
	}
	return unlock, nil
}

var _ domain.LockManager = (*LockManager)(nil)
