package ratelimit

import (
	"encoding/json"
	"net"
	"net/http"
	"strconv"
	"strings"

	"go.uber.org/zap"
)

const tooMany = "Too many requests. Please try again shortly."

// ClientIP prefers the first X-Forwarded-For hop, then X-Real-IP, then the
// host part of RemoteAddr.
func ClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}
	if xri := strings.TrimSpace(r.Header.Get("X-Real-IP")); xri != "" {
		return xri
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}

// KeyFunc picks the bucket a request counts against.
type KeyFunc func(r *http.Request) string

// ByIP buckets requests by client address.
func ByIP(r *http.Request) string { return ClientIP(r) }

func wantsJSON(r *http.Request) bool {
	return strings.Contains(r.Header.Get("Content-Type"), "application/json") ||
		strings.Contains(r.Header.Get("Accept"), "application/json")
}

// Middleware answers 429 with Retry-After once a key runs dry. JSON callers
// get {"success":false,"error":...}.
func Middleware(l *Limiter, key KeyFunc, logger *zap.Logger) func(http.Handler) http.Handler {
	if key == nil {
		key = ByIP
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			k := key(r)
			if l.Allow(k) {
				next.ServeHTTP(w, r)
				return
			}
			logger.Warn("rate limited", zap.String("key", k), zap.String("path", r.URL.Path))

			w.Header().Set("Retry-After", strconv.Itoa(l.RetryAfter()))
			if !wantsJSON(r) {
				http.Error(w, tooMany, http.StatusTooManyRequests)
				return
			}
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusTooManyRequests)
			_ = json.NewEncoder(w).Encode(map[string]any{"success": false, "error": tooMany})
		})
	}
}
