package health

import (
	"context"
	"path/filepath"
	"testing"
)

func TestCacheDirChecker(t *testing.T) {
	t.Run("writable dir passes", func(t *testing.T) {
		c := CacheDirChecker(t.TempDir())
		if err := c.Check(context.Background()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	})

	t.Run("missing dir fails", func(t *testing.T) {
		c := CacheDirChecker(filepath.Join(t.TempDir(), "missing"))
		if err := c.Check(context.Background()); err == nil {
			t.Fatal("expected error for missing dir")
		}
	})
}

func TestSensorChecker(t *testing.T) {
	c := SensorChecker(func() string { return "/dev/ttyUSB0" })
	if err := c.Check(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	c = SensorChecker(func() string { return "" })
	if err := c.Check(context.Background()); err == nil {
		t.Fatal("expected error for disconnected sensor")
	}
}

func TestBreakerChecker(t *testing.T) {
	c := BreakerChecker(func() string { return "closed" })
	if err := c.Check(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	c = BreakerChecker(func() string { return "open" })
	if err := c.Check(context.Background()); err == nil {
		t.Fatal("expected error for open breaker")
	}
}
