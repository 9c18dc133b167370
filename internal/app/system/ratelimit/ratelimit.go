// internal/app/system/ratelimit/ratelimit.go

// Package ratelimit protects the login endpoint from credential stuffing
// with sliding-window counters per client IP and per target account.
package ratelimit

import (
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/dalemusser/waffle/pantry/text"
)

// Limiter is a sliding-window counter keyed by string. Safe for
// concurrent use.
type Limiter struct {
	mu       sync.Mutex
	windows  map[string]*window
	limit    int
	duration time.Duration
}

type window struct {
	count     int
	expiresAt time.Time
}

// New creates a limiter allowing limit requests per duration per key.
func New(limit int, duration time.Duration) *Limiter {
	l := &Limiter{
		windows:  make(map[string]*window),
		limit:    limit,
		duration: duration,
	}
	go l.cleanupLoop()
	return l
}

// Allow records an attempt for key and reports whether it is within the
// limit.
func (l *Limiter) Allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	w, exists := l.windows[key]
	if !exists || now.After(w.expiresAt) {
		l.windows[key] = &window{count: 1, expiresAt: now.Add(l.duration)}
		return true
	}
	if w.count >= l.limit {
		return false
	}
	w.count++
	return true
}

// Reset clears the window for key, forgiving past attempts.
func (l *Limiter) Reset(key string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.windows, key)
}

func (l *Limiter) cleanupLoop() {
	ticker := time.NewTicker(2 * l.duration)
	defer ticker.Stop()
	for range ticker.C {
		l.mu.Lock()
		now := time.Now()
		for key, w := range l.windows {
			if now.After(w.expiresAt) {
				delete(l.windows, key)
			}
		}
		l.mu.Unlock()
	}
}

// ClientIP extracts the client IP, honoring proxy headers before falling
// back to RemoteAddr.
func ClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		if ip := strings.TrimSpace(strings.SplitN(xff, ",", 2)[0]); ip != "" {
			return ip
		}
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return strings.TrimSpace(xri)
	}
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}

// LoginLimiter combines an IP window (distributed guessing) with an
// account window (targeted guessing).
type LoginLimiter struct {
	ip      *Limiter
	account *Limiter
}

// NewLoginLimiter uses the defaults: 10 attempts per IP per minute and
// 5 attempts per account per 5 minutes.
func NewLoginLimiter() *LoginLimiter {
	return &LoginLimiter{
		ip:      New(10, time.Minute),
		account: New(5, 5*time.Minute),
	}
}

// Check records a login attempt and reports whether it may proceed.
func (ll *LoginLimiter) Check(r *http.Request, email string) bool {
	if !ll.ip.Allow(ClientIP(r)) {
		return false
	}
	if email != "" && !ll.account.Allow(text.Fold(email)) {
		return false
	}
	return true
}

// ResetAccount forgives an account's window after a successful login.
func (ll *LoginLimiter) ResetAccount(email string) {
	if email != "" {
		ll.account.Reset(text.Fold(email))
	}
}
