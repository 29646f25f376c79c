package safety

import (
	"sync"
	"time"

	"github.com/ducminhle1904/polymarket-risk/internal/clock"
)

// RateLimiter implements token bucket rate limiting
type RateLimiter struct {
	mu         sync.Mutex
	capacity   int           // maximum number of tokens
	tokens     int           // current number of tokens
	interval   time.Duration // time to earn one token
	lastRefill time.Time
	clock      clock.Clock
}

// NewRateLimiter creates a full bucket of capacity tokens that earns one
// token per interval. A nil clock uses the system clock.
func NewRateLimiter(capacity int, interval time.Duration, clk clock.Clock) *RateLimiter {
	if clk == nil {
		clk = clock.System{}
	}
	return &RateLimiter{
		capacity:   capacity,
		tokens:     capacity,
		interval:   interval,
		lastRefill: clk.Now(),
		clock:      clk,
	}
}

// Allow takes a token if one is available.
func (rl *RateLimiter) Allow() bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	rl.refill()
	if rl.tokens == 0 {
		return false
	}
	rl.tokens--
	return true
}

// Tokens returns the tokens currently available.
func (rl *RateLimiter) Tokens() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	rl.refill()
	return rl.tokens
}

func (rl *RateLimiter) refill() {
	if rl.interval <= 0 {
		rl.tokens = rl.capacity
		return
	}
	now := rl.clock.Now()
	earned := int(now.Sub(rl.lastRefill) / rl.interval)
	if earned <= 0 {
		return
	}
	rl.tokens += earned
	if rl.tokens >= rl.capacity {
		rl.tokens = rl.capacity
		rl.lastRefill = now
		return
	}
	rl.lastRefill = rl.lastRefill.Add(time.Duration(earned) * rl.interval)
}
