// Package timeouts provides the shared deadlines used with context.WithTimeout
// around Directory Store calls and outbound email.
//
// Values start at the defaults below and may be overridden once at startup
// with Configure or ConfigureFromEnv.
//
//   - Ping: health checks
//   - Short: single-document reads and writes
//   - Medium: list queries and the donor directory load
//   - Long: exports and the emergency filing (persist + coordinator send)
//   - Send: one outbound email, end to end
package timeouts

import (
	"context"
	"os"
	"sync"
	"time"

	"go.uber.org/zap"
)

const (
	DefaultPing   = 2 * time.Second
	DefaultShort  = 5 * time.Second
	DefaultMedium = 10 * time.Second
	DefaultLong   = 30 * time.Second
	DefaultSend   = 45 * time.Second
)

var mu sync.RWMutex

var (
	ping   = DefaultPing
	short  = DefaultShort
	medium = DefaultMedium
	long   = DefaultLong
	send   = DefaultSend
)

func get(p *time.Duration) time.Duration {
	mu.RLock()
	defer mu.RUnlock()
	return *p
}

// Ping returns the health-check timeout.
func Ping() time.Duration { return get(&ping) }

// Short returns the timeout for single-document operations.
func Short() time.Duration { return get(&short) }

// Medium returns the timeout for list queries.
func Medium() time.Duration { return get(&medium) }

// Long returns the timeout for multi-step operations.
func Long() time.Duration { return get(&long) }

// Send returns the ceiling for a single outbound email. The SMTP transport
// applies its own connect, greeting and socket deadlines inside it.
func Send() time.Duration { return get(&send) }

// Config holds timeout overrides. Zero values keep the current value.
type Config struct {
	Ping   time.Duration
	Short  time.Duration
	Medium time.Duration
	Long   time.Duration
	Send   time.Duration
}

// Configure applies non-zero values from cfg.
func Configure(cfg Config) {
	mu.Lock()
	defer mu.Unlock()
	set(&ping, cfg.Ping)
	set(&short, cfg.Short)
	set(&medium, cfg.Medium)
	set(&long, cfg.Long)
	set(&send, cfg.Send)
}

func set(p *time.Duration, d time.Duration) {
	if d > 0 {
		*p = d
	}
}

// Reset restores the defaults. Used by tests.
func Reset() {
	mu.Lock()
	defer mu.Unlock()
	ping, short, medium, long, send = DefaultPing, DefaultShort, DefaultMedium, DefaultLong, DefaultSend
}

// ConfigureFromEnv reads TIMEOUT_PING, TIMEOUT_SHORT, TIMEOUT_MEDIUM,
// TIMEOUT_LONG and TIMEOUT_SEND (Go duration strings). Invalid or
// non-positive values are ignored. It returns how many were applied.
func ConfigureFromEnv() int {
	var cfg Config
	n := 0
	for _, e := range []struct {
		key string
		dst *time.Duration
	}{
		{"TIMEOUT_PING", &cfg.Ping},
		{"TIMEOUT_SHORT", &cfg.Short},
		{"TIMEOUT_MEDIUM", &cfg.Medium},
		{"TIMEOUT_LONG", &cfg.Long},
		{"TIMEOUT_SEND", &cfg.Send},
	} {
		v := os.Getenv(e.key)
		if v == "" {
			continue
		}
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			*e.dst = d
			n++
		}
	}
	Configure(cfg)
	return n
}

// Current returns the effective values, for startup logging.
func Current() Config {
	mu.RLock()
	defer mu.RUnlock()
	return Config{Ping: ping, Short: short, Medium: medium, Long: long, Send: send}
}

// WithTimeout is context.WithTimeout whose cancel func logs a warning when
// the deadline was hit.
//
//	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Long(), h.Log, "file emergency")
//	defer cancel()
func WithTimeout(parent context.Context, timeout time.Duration, log *zap.Logger, operation string) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithTimeout(parent, timeout)
	return ctx, func() {
		if ctx.Err() == context.DeadlineExceeded && log != nil {
			log.Warn("operation timed out",
				zap.String("operation", operation),
				zap.Duration("timeout", timeout),
			)
		}
		cancel()
	}
}
