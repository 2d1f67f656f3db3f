package services

import (
	"math/rand"
	"sync"
	"time"
)

// Rate limiter defaults: 10 requests per client per minute.
const (
	DefaultRateLimitMax    = 10
	DefaultRateLimitWindow = time.Minute

	// 1-in-sweepChance admissions trigger a sweep of abandoned client keys.
	sweepChance = 20
)

// AdmissionResult is the outcome of one admission check.
type AdmissionResult struct {
	Allowed      bool
	Remaining    int
	ResetAfterMs int64
}

// RateLimitService is a per-client sliding-window rate limiter. It keeps the
// admitted-request timestamps of each client within the trailing window and
// rejects once the count reaches the limit. State is in-process only, so the
// limit applies per instance; fine for single-instance deployments.
type RateLimitService struct {
	mu      sync.Mutex
	clients map[string][]time.Time
	max     int
	window  time.Duration

	nowFunc func() time.Time
	rng     *rand.Rand
}

// NewRateLimitService creates a limiter admitting max requests per window.
// Non-positive arguments fall back to the defaults.
func NewRateLimitService(max int, window time.Duration) *RateLimitService {
	if max <= 0 {
		max = DefaultRateLimitMax
	}
	if window <= 0 {
		window = DefaultRateLimitWindow
	}
	return &RateLimitService{
		clients: make(map[string][]time.Time),
		max:     max,
		window:  window,
		nowFunc: time.Now,
		rng:     rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// CheckAdmission decides whether the client may proceed. A rejection is not
// recorded, and ResetAfterMs reports how long until the oldest surviving
// request leaves the window. Never fails.
func (rl *RateLimitService) CheckAdmission(clientKey string) AdmissionResult {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.nowFunc()
	cutoff := now.Add(-rl.window)

	var recent []time.Time
	for _, ts := range rl.clients[clientKey] {
		if ts.After(cutoff) {
			recent = append(recent, ts)
		}
	}

	if len(recent) >= rl.max {
		rl.clients[clientKey] = recent
		resetAfter := recent[0].Add(rl.window).Sub(now)
		return AdmissionResult{
			Allowed:      false,
			Remaining:    0,
			ResetAfterMs: resetAfter.Milliseconds(),
		}
	}

	recent = append(recent, now)
	rl.clients[clientKey] = recent

	if rl.rng.Intn(sweepChance) == 0 {
		rl.sweepLocked(cutoff)
	}

	return AdmissionResult{
		Allowed:   true,
		Remaining: rl.max - len(recent),
	}
}

// sweepLocked drops client keys with no requests inside the window, bounding
// memory for abandoned clients. Caller must hold rl.mu.
func (rl *RateLimitService) sweepLocked(cutoff time.Time) {
	for key, timestamps := range rl.clients {
		live := false
		for _, ts := range timestamps {
			if ts.After(cutoff) {
				live = true
				break
			}
		}
		if !live {
			delete(rl.clients, key)
		}
	}
}
