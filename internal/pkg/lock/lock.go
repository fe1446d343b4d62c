// internal/pkg/lock/lock.go
package lock

import (
	"context"
	"sync"
	"time"
)

// Locker is an advisory lock over a shared key space. The renewal sweep
// takes a per-subscription lease before issuing a charge so overlapping
// sweeps never double-charge the same row.
type Locker interface {
	// Acquire takes the lease if free, returning false when another holder
	// has it. The lease expires after ttl if never released.
	Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error)

	// Release frees a lease taken by this locker. Releasing an expired or
	// foreign lease is a no-op.
	Release(ctx context.Context, key string) error
}

// MemoryLocker is a process-local Locker for tests and single-node setups.
type MemoryLocker struct {
	mu     sync.Mutex
	leases map[string]time.Time
}

func NewMemoryLocker() *MemoryLocker {
	return &MemoryLocker{leases: make(map[string]time.Time)}
}

func (l *MemoryLocker) Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	if expiry, ok := l.leases[key]; ok && expiry.After(now) {
		return false, nil
	}
	l.leases[key] = now.Add(ttl)
	return true, nil
}

func (l *MemoryLocker) Release(ctx context.Context, key string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.leases, key)
	return nil
}
