// Copyright (c) 2025-2026, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package jackett

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// RateLimitWaitError is returned when honouring the limit would take longer than allowed.
type RateLimitWaitError struct {
	Wait     time.Duration
	MaxWait  time.Duration
	Cooldown bool
}

func (e *RateLimitWaitError) Error() string {
	if e.Cooldown {
		return fmt.Sprintf("jackett is cooling down after a rate limit response: requires %s wait but maximum allowed is %s", e.Wait, e.MaxWait)
	}
	return fmt.Sprintf("blocked by jackett rate limit: requires %s wait but maximum allowed is %s", e.Wait, e.MaxWait)
}

func (e *RateLimitWaitError) Is(target error) bool {
	_, ok := target.(*RateLimitWaitError)
	return ok
}

// RateLimiter is a token bucket in front of Jackett plus a cooldown window that
// opens when Jackett itself answers 429.
type RateLimiter struct {
	limiter *rate.Limiter
	maxWait time.Duration

	mu            sync.Mutex
	cooldownUntil time.Time
}

// NewRateLimiter allows perSecond requests with the given burst. A non-positive rate
// disables the bucket. maxWait of zero waits as long as the context allows.
func NewRateLimiter(perSecond float64, burst int, maxWait time.Duration) *RateLimiter {
	limit := rate.Inf
	if perSecond > 0 {
		limit = rate.Limit(perSecond)
	}
	if burst <= 0 {
		burst = 1
	}
	return &RateLimiter{
		limiter: rate.NewLimiter(limit, burst),
		maxWait: maxWait,
	}
}

// BeforeRequest blocks until a request may be sent.
func (r *RateLimiter) BeforeRequest(ctx context.Context) error {
	if inCooldown, until := r.IsInCooldown(); inCooldown {
		wait := time.Until(until)
		if r.maxWait > 0 && wait > r.maxWait {
			return &RateLimitWaitError{Wait: wait, MaxWait: r.maxWait, Cooldown: true}
		}
		if err := sleepCtx(ctx, wait); err != nil {
			return err
		}
	}

	reservation := r.limiter.Reserve()
	if !reservation.OK() {
		return &RateLimitWaitError{MaxWait: r.maxWait}
	}

	delay := reservation.Delay()
	if delay <= 0 {
		return nil
	}
	if r.maxWait > 0 && delay > r.maxWait {
		reservation.Cancel()
		return &RateLimitWaitError{Wait: delay, MaxWait: r.maxWait}
	}

	if err := sleepCtx(ctx, delay); err != nil {
		reservation.Cancel()
		return err
	}
	return nil
}

func (r *RateLimiter) SetCooldown(until time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if until.After(r.cooldownUntil) {
		r.cooldownUntil = until
	}
}

func (r *RateLimiter) ClearCooldown() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.cooldownUntil = time.Time{}
}

// IsInCooldown checks the cooldown window without blocking.
func (r *RateLimiter) IsInCooldown() (bool, time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.cooldownUntil.IsZero() && r.cooldownUntil.After(time.Now()) {
		return true, r.cooldownUntil
	}
	return false, time.Time{}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
