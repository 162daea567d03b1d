// Package ratelimit provides local token-bucket rate limiting for
// calls to external services.
package ratelimit

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ErrClosed is returned when the limiter has been closed.
var ErrClosed = errors.New("limiter closed")

// Capacity describes the limit configured for a service.
type Capacity struct {
	// Service is the rate-limited service name.
	Service string

	// Available is the current number of tokens.
	Available int

	// Total is the maximum tokens per window.
	Total int

	// Window is the refill period.
	Window time.Duration
}

// bucket is a token bucket.
type bucket struct {
	capacity   int
	available  int
	window     time.Duration
	lastRefill time.Time
}

// refill adds tokens based on elapsed time since the last refill.
func (b *bucket) refill(now time.Time) {
	if b.window == 0 || b.capacity == 0 {
		return
	}
	elapsed := now.Sub(b.lastRefill)
	if elapsed <= 0 {
		return
	}

	add := int(float64(b.capacity) * float64(elapsed) / float64(b.window))
	if add > 0 {
		b.available += add
		if b.available > b.capacity {
			b.available = b.capacity
		}
		b.lastRefill = now
	}
}

// Limiter rate-limits calls per service using token buckets. Safe for
// concurrent use.
type Limiter struct {
	mu      sync.Mutex
	buckets map[string]*bucket
	closed  bool
	nowFunc func() time.Time
}

// NewLimiter creates an empty limiter. Services without a configured
// capacity are not limited.
func NewLimiter() *Limiter {
	return &Limiter{
		buckets: make(map[string]*bucket),
		nowFunc: time.Now,
	}
}

// SetCapacity configures the limit for a service: capacity tokens per
// window. Non-positive values remove the limit.
func (l *Limiter) SetCapacity(service string, capacity int, window time.Duration) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return
	}

	if capacity <= 0 || window <= 0 {
		delete(l.buckets, service)
		return
	}

	if b, ok := l.buckets[service]; ok {
		b.capacity = capacity
		b.window = window
		if b.available > capacity {
			b.available = capacity
		}
		return
	}
	l.buckets[service] = &bucket{
		capacity:   capacity,
		available:  capacity,
		window:     window,
		lastRefill: l.nowFunc(),
	}
}

// TryAcquire takes a token without blocking. Unlimited services always
// succeed.
func (l *Limiter) TryAcquire(service string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return false
	}

	b, ok := l.buckets[service]
	if !ok {
		return true
	}
	b.refill(l.nowFunc())
	if b.available > 0 {
		b.available--
		return true
	}
	return false
}

// Acquire blocks until a token is available or the context ends.
func (l *Limiter) Acquire(ctx context.Context, service string) error {
	for {
		l.mu.Lock()
		if l.closed {
			l.mu.Unlock()
			return ErrClosed
		}
		b, ok := l.buckets[service]
		if !ok {
			l.mu.Unlock()
			return nil
		}
		b.refill(l.nowFunc())
		if b.available > 0 {
			b.available--
			l.mu.Unlock()
			return nil
		}
		wait := b.window / time.Duration(b.capacity)
		l.mu.Unlock()

		if wait <= 0 {
			wait = 10 * time.Millisecond
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
		}
	}
}

// Reduce shrinks a service's capacity by a quarter, used after the
// service pushes back with a rate-limit response.
func (l *Limiter) Reduce(service string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	b, ok := l.buckets[service]
	if !ok {
		return
	}
	capacity := b.capacity * 3 / 4
	if capacity < 1 {
		capacity = 1
	}
	b.capacity = capacity
	if b.available > capacity {
		b.available = capacity
	}
}

// Capacity returns the current limit for a service, or nil when the
// service is unlimited.
func (l *Limiter) Capacity(service string) *Capacity {
	l.mu.Lock()
	defer l.mu.Unlock()

	b, ok := l.buckets[service]
	if !ok {
		return nil
	}
	b.refill(l.nowFunc())
	return &Capacity{
		Service:   service,
		Available: b.available,
		Total:     b.capacity,
		Window:    b.window,
	}
}

// Close shuts down the limiter. Blocked Acquire calls return ErrClosed
// on their next retry.
func (l *Limiter) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return ErrClosed
	}
	l.closed = true
	return nil
}
