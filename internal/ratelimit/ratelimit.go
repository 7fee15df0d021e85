// Package ratelimit provides a token bucket keyed by client identity,
// applied to every inbound game message.
package ratelimit

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"
)

// Keyed is a set of token buckets, one per identity, created lazily.
type Keyed struct {
	mu       sync.Mutex
	limiters map[uuid.UUID]*rate.Limiter
	limit    rate.Limit
	burst    int
}

// NewKeyed returns a limiter sustaining perSecond tokens with the given
// burst for each distinct key.
func NewKeyed(perSecond float64, burst int) *Keyed {
	return &Keyed{
		limiters: make(map[uuid.UUID]*rate.Limiter),
		limit:    rate.Limit(perSecond),
		burst:    burst,
	}
}

// Allow reports whether key may proceed now, consuming a token if so.
func (k *Keyed) Allow(key uuid.UUID) bool {
	return k.allowAt(key, time.Now())
}

func (k *Keyed) allowAt(key uuid.UUID, t time.Time) bool {
	return k.limiterFor(key).AllowN(t, 1)
}

func (k *Keyed) limiterFor(key uuid.UUID) *rate.Limiter {
	k.mu.Lock()
	defer k.mu.Unlock()

	l, ok := k.limiters[key]
	if !ok {
		l = rate.NewLimiter(k.limit, k.burst)
		k.limiters[key] = l
	}
	return l
}

// Forget drops the bucket for key. Called when a client is removed so the
// map does not grow with every identity ever seen.
func (k *Keyed) Forget(key uuid.UUID) {
	k.mu.Lock()
	defer k.mu.Unlock()
	delete(k.limiters, key)
}
