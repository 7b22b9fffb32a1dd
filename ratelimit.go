/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package main

import (
	"time"

	"github.com/jonboulle/clockwork"
)

// chatLimiter is a token bucket keyed by (clientID, userName), so a renamed
// sender gets a fresh window but cannot bypass the limit by reconnecting
// under the same name.
//
// It carries no mutex of its own: callers already hold the RoomStore lock.
// Stale buckets are swept on the same cadence as room reaping.
type chatLimiter struct {
	buckets map[string]*chatBucket
	max     int           // tokens per window
	per     time.Duration // window size
	clock   clockwork.Clock
}

type chatBucket struct {
	ts     time.Time // window start
	tokens int       // remaining tokens
}

func newChatLimiter(max int, per time.Duration, clock clockwork.Clock) *chatLimiter {
	return &chatLimiter{
		buckets: make(map[string]*chatBucket),
		max:     max,
		per:     per,
		clock:   clock,
	}
}

func (l *chatLimiter) allow(key string) bool {
	b := l.buckets[key]
	if b == nil || l.clock.Since(b.ts) > l.per {
		// Start a new window
		b = &chatBucket{ts: l.clock.Now(), tokens: l.max}
		l.buckets[key] = b
	}

	if b.tokens <= 0 {
		return false
	}

	b.tokens--
	return true
}

func (l *chatLimiter) sweep() {
	for key, b := range l.buckets {
		if l.clock.Since(b.ts) > l.per {
			delete(l.buckets, key)
		}
	}
}
