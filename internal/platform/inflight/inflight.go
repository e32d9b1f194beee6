// Package inflight guards against concurrent submissions for the same session key
// A key is either free or held; there is no queue. Holders release with the lease they got.
package inflight

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
)

// ErrHeld is returned when the key already has an active holder
var ErrHeld = errors.New("inflight: submission already in progress")

// Lease proves ownership of a key
type Lease struct {
	Key   string
	Token string
}

// Guard hands out at most one lease per key
type Guard interface {
	Acquire(ctx context.Context, key string) (Lease, error)
	Release(ctx context.Context, l Lease) error
}

// Memory is a process local Guard; a lease expires after ttl so a crashed
// holder cannot block a key forever
type Memory struct {
	mu   sync.Mutex
	ttl  time.Duration
	now  func() time.Time
	held map[string]memLease
}

type memLease struct {
	token   string
	expires time.Time
}

// NewMemory returns an in process guard; ttl <= 0 means leases never expire
func NewMemory(ttl time.Duration) *Memory {
	return &Memory{ttl: ttl, now: time.Now, held: map[string]memLease{}}
}

// Acquire takes the key or fails with ErrHeld
func (m *Memory) Acquire(_ context.Context, key string) (Lease, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.now()
	if cur, ok := m.held[key]; ok && (cur.expires.IsZero() || now.Before(cur.expires)) {
		return Lease{}, ErrHeld
	}
	l := Lease{Key: key, Token: uuid.NewString()}
	var exp time.Time
	if m.ttl > 0 {
		exp = now.Add(m.ttl)
	}
	m.held[key] = memLease{token: l.Token, expires: exp}
	return l, nil
}

// Release frees the key if the lease still owns it
func (m *Memory) Release(_ context.Context, l Lease) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if cur, ok := m.held[l.Key]; ok && cur.token == l.Token {
		delete(m.held, l.Key)
	}
	return nil
}

// Held reports whether key currently has a live lease
func (m *Memory) Held(key string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	cur, ok := m.held[key]
	return ok && (cur.expires.IsZero() || m.now().Before(cur.expires))
}
