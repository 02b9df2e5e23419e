package ratelimit

import (
	"net/http"
	"strings"
	"time"
)

// LoginLimiter caps attempts per client address and per account email.
type LoginLimiter struct {
	byIP    *Limiter
	byEmail *Limiter
}

// NewLoginLimiter allows 10 attempts per minute per address and 5 per five
// minutes per email.
func NewLoginLimiter() *LoginLimiter {
	return NewLoginLimiterWithConfig(10, time.Minute, 5, 5*time.Minute)
}

func NewLoginLimiterWithConfig(ipLimit int, ipWindow time.Duration, emailLimit int, emailWindow time.Duration) *LoginLimiter {
	return &LoginLimiter{
		byIP:    New(ipLimit, ipWindow),
		byEmail: New(emailLimit, emailWindow),
	}
}

// Check spends one attempt. When it refuses, the string is safe to show.
func (ll *LoginLimiter) Check(r *http.Request, email string) (bool, string) {
	if !ll.byIP.Allow(ClientIP(r)) {
		return false, "Too many login attempts. Please wait a minute before trying again."
	}
	if key := emailKey(email); key != "" && !ll.byEmail.Allow(key) {
		return false, "Too many login attempts for this account. Please wait a few minutes."
	}
	return true, ""
}

// ResetEmail clears the per-account count after a successful sign-in.
func (ll *LoginLimiter) ResetEmail(email string) {
	if key := emailKey(email); key != "" {
		ll.byEmail.Reset(key)
	}
}

func emailKey(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
