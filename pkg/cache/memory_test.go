package cache

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	testingclock "k8s.io/utils/clock/testing"
)

func TestMemoryCache(t *testing.T) {
	ctx := context.Background()
	fc := testingclock.NewFakePassiveClock(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	c := NewMemoryCacheWithClock(fc)
	defer c.Close()

	if _, hit, _ := c.Get(ctx, "k"); hit {
		t.Fatal("empty cache should miss")
	}

	src := []byte("value")
	if err := c.Set(ctx, "k", src, time.Minute); err != nil {
		t.Fatalf("Set error: %v", err)
	}
	src[0] = 'X'

	data, hit, err := c.Get(ctx, "k")
	if err != nil || !hit || string(data) != "value" {
		t.Fatalf("Get = %q, %v, %v", data, hit, err)
	}

	fc.SetTime(fc.Now().Add(2 * time.Minute))
	if _, hit, _ := c.Get(ctx, "k"); hit {
		t.Error("expired entry should miss")
	}
	if c.Len() != 0 {
		t.Errorf("expired entry not dropped, Len() = %d", c.Len())
	}

	if err := c.Set(ctx, "forever", []byte("x"), 0); err != nil {
		t.Fatal(err)
	}
	fc.SetTime(fc.Now().Add(1000 * time.Hour))
	if _, hit, _ := c.Get(ctx, "forever"); !hit {
		t.Error("entry without ttl should not expire")
	}

	if err := c.Delete(ctx, "forever"); err != nil {
		t.Fatal(err)
	}
	if _, hit, _ := c.Get(ctx, "forever"); hit {
		t.Error("deleted entry should miss")
	}
}

func TestFileCacheRoundTrip(t *testing.T) {
	ctx := context.Background()
	c, err := NewFileCache(filepath.Join(t.TempDir(), "cache"))
	if err != nil {
		t.Fatal(err)
	}
	defer c.Close()

	if err := c.Set(ctx, "signal:x:1", []byte("Index,Energy_Value\n"), time.Hour); err != nil {
		t.Fatalf("Set error: %v", err)
	}
	data, hit, err := c.Get(ctx, "signal:x:1")
	if err != nil || !hit || string(data) != "Index,Energy_Value\n" {
		t.Errorf("Get = %q, %v, %v", data, hit, err)
	}
	if err := c.Delete(ctx, "signal:x:1"); err != nil {
		t.Fatal(err)
	}
	if err := c.Delete(ctx, "signal:x:1"); err != nil {
		t.Errorf("deleting a missing key should not fail: %v", err)
	}
	if _, hit, _ := c.Get(ctx, "signal:x:1"); hit {
		t.Error("deleted entry should miss")
	}
}
