package timeouts

import (
	"context"
	"testing"
	"time"
)

func TestConfigure_IgnoresZero(t *testing.T) {
	defer Reset()

	Configure(Config{Short: 7 * time.Second})
	if Short() != 7*time.Second {
		t.Errorf("Short: got %v, want 7s", Short())
	}
	if Medium() != DefaultMedium {
		t.Errorf("Medium changed to %v", Medium())
	}
}

func TestConfigureFromEnv(t *testing.T) {
	defer Reset()

	t.Setenv("TIMEOUT_SEND", "90s")
	t.Setenv("TIMEOUT_PING", "garbage")
	t.Setenv("TIMEOUT_LONG", "-5s")

	if n := ConfigureFromEnv(); n != 1 {
		t.Errorf("configured %d values, want 1", n)
	}
	if Send() != 90*time.Second {
		t.Errorf("Send: got %v, want 90s", Send())
	}
	if Ping() != DefaultPing {
		t.Errorf("Ping: got %v, want default", Ping())
	}
	if Long() != DefaultLong {
		t.Errorf("Long: got %v, want default", Long())
	}
}

func TestWithTimeout_Expires(t *testing.T) {
	ctx, cancel := WithTimeout(context.Background(), time.Millisecond, nil, "test")
	defer cancel()
	<-ctx.Done()
	if ctx.Err() != context.DeadlineExceeded {
		t.Errorf("expected DeadlineExceeded, got %v", ctx.Err())
	}
}
