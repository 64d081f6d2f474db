package timeouts

import (
	"context"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestConfigure_IgnoresZero(t *testing.T) {
	t.Cleanup(Reset)

	Configure(Config{Short: 7 * time.Second})
	if Short() != 7*time.Second {
		t.Errorf("Short = %v, want 7s", Short())
	}
	if Medium() != DefaultMedium {
		t.Errorf("Medium = %v, want default", Medium())
	}
}

func TestConfigureFromEnv(t *testing.T) {
	t.Cleanup(Reset)
	t.Setenv("TASKHUB_TIMEOUT_PING", "500ms")
	t.Setenv("TASKHUB_TIMEOUT_LONG", "2m")
	t.Setenv("TASKHUB_TIMEOUT_SHORT", "nonsense")
	t.Setenv("TASKHUB_TIMEOUT_MEDIUM", "-1s")

	if n := ConfigureFromEnv(); n != 2 {
		t.Errorf("configured %d values, want 2", n)
	}
	want := Config{Ping: 500 * time.Millisecond, Short: DefaultShort, Medium: DefaultMedium, Long: 2 * time.Minute}
	if got := Current(); got != want {
		t.Errorf("Current = %+v, want %+v", got, want)
	}

	Reset()
	if Ping() != DefaultPing || Long() != DefaultLong {
		t.Error("Reset did not restore defaults")
	}
}

func TestWithTimeout_LogsDeadline(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	ctx, cancel := WithTimeout(context.Background(), time.Millisecond, zap.New(core), "slow op")
	<-ctx.Done()
	cancel()

	if logs.Len() != 1 {
		t.Fatalf("expected 1 warning, got %d", logs.Len())
	}
	if op := logs.All()[0].ContextMap()["operation"]; op != "slow op" {
		t.Errorf("operation = %v", op)
	}
}
