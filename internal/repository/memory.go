package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"carspa/internal/models"
)

// maxSweepInterval bounds how long expired entries may stay in memory when
// nobody reads them again.
const maxSweepInterval = time.Minute

type MemorySessionRepository struct {
	sessions   sync.Map
	rateLimits sync.Map
	ttl        time.Duration
	lastSweep  atomic.Int64
}

type memoryEntry struct {
	data      []byte
	expiresAt time.Time
}

func NewMemorySessionRepository(ttl time.Duration) *MemorySessionRepository {
	return &MemorySessionRepository{
		ttl: ttl,
	}
}

// Sessions are stored as JSON so callers never share a pointer with the store.
func (r *MemorySessionRepository) GetSession(ctx context.Context, id string) (*models.BookingSession, error) {
	val, ok := r.sessions.Load(id)
	if !ok {
		return nil, nil
	}
	entry := val.(*memoryEntry)
	if r.ttl > 0 && time.Now().After(entry.expiresAt) {
		r.sessions.Delete(id)
		return nil, nil
	}

	var session models.BookingSession
	if err := json.Unmarshal(entry.data, &session); err != nil {
		return nil, fmt.Errorf("failed to unmarshal session: %w", err)
	}
	return &session, nil
}

func (r *MemorySessionRepository) SaveSession(ctx context.Context, session *models.BookingSession) error {
	data, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}
	now := time.Now()
	r.sessions.Store(session.ID, &memoryEntry{data: data, expiresAt: now.Add(r.ttl)})
	r.maybeSweep(now)
	return nil
}

func (r *MemorySessionRepository) DeleteSession(ctx context.Context, id string) error {
	r.sessions.Delete(id)
	return nil
}

type rateLimitEntry struct {
	mu        sync.Mutex
	count     int
	expiresAt time.Time
	removed   bool
}

func (r *MemorySessionRepository) CheckRateLimit(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	now := time.Now()
	defer r.maybeSweep(now)

	for {
		val, _ := r.rateLimits.LoadOrStore(key, &rateLimitEntry{expiresAt: now.Add(window)})
		entry := val.(*rateLimitEntry)

		entry.mu.Lock()
		if entry.removed {
			// the sweeper dropped it between Load and Lock
			entry.mu.Unlock()
			continue
		}
		if now.After(entry.expiresAt) {
			entry.count = 0
			entry.expiresAt = now.Add(window)
		}
		entry.count++
		allowed := entry.count <= limit
		entry.mu.Unlock()
		return allowed, nil
	}
}

func (r *MemorySessionRepository) sweepInterval() time.Duration {
	if r.ttl > 0 && r.ttl < maxSweepInterval {
		return r.ttl
	}
	return maxSweepInterval
}

// maybeSweep runs sweep at most once per sweepInterval.
func (r *MemorySessionRepository) maybeSweep(now time.Time) {
	last := r.lastSweep.Load()
	if now.UnixNano()-last < int64(r.sweepInterval()) {
		return
	}
	if !r.lastSweep.CompareAndSwap(last, now.UnixNano()) {
		return
	}
	r.sweep(now)
}

// sweep drops expired sessions and rate limit windows.
func (r *MemorySessionRepository) sweep(now time.Time) {
	if r.ttl > 0 {
		r.sessions.Range(func(key, val any) bool {
			if now.After(val.(*memoryEntry).expiresAt) {
				r.sessions.CompareAndDelete(key, val)
			}
			return true
		})
	}

	r.rateLimits.Range(func(key, val any) bool {
		entry := val.(*rateLimitEntry)
		entry.mu.Lock()
		if now.After(entry.expiresAt) {
			entry.removed = true
			r.rateLimits.CompareAndDelete(key, val)
		}
		entry.mu.Unlock()
		return true
	})
}
