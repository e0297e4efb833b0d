package cache

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestMemoryCacheSetGet(t *testing.T) {
	c := NewMemoryCache()
	defer c.Close()
	ctx := context.Background()

	if err := c.Set(ctx, "key", []byte("value"), time.Minute); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	got, err := c.Get(ctx, "key")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if string(got) != "value" {
		t.Errorf("expected value, got %q", got)
	}
}

func TestMemoryCacheMiss(t *testing.T) {
	c := NewMemoryCache()
	defer c.Close()

	if _, err := c.Get(context.Background(), "missing"); err != ErrCacheMiss {
		t.Errorf("expected ErrCacheMiss, got %v", err)
	}
}

func TestMemoryCacheExpiry(t *testing.T) {
	c := NewMemoryCache()
	defer c.Close()
	ctx := context.Background()

	if err := c.Set(ctx, "key", []byte("value"), -time.Second); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	if _, err := c.Get(ctx, "key"); err != ErrCacheMiss {
		t.Errorf("expected expired entry to miss, got %v", err)
	}
}

func TestMemoryCacheDelete(t *testing.T) {
	c := NewMemoryCache()
	defer c.Close()
	ctx := context.Background()

	c.Set(ctx, "key", []byte("value"), time.Minute)
	if err := c.Delete(ctx, "key"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, err := c.Get(ctx, "key"); err != ErrCacheMiss {
		t.Errorf("expected miss after delete, got %v", err)
	}
}

func TestMemoryCacheGetOrSet(t *testing.T) {
	c := NewMemoryCache()
	defer c.Close()
	ctx := context.Background()

	calls := 0
	fn := func() ([]byte, error) {
		calls++
		return []byte("computed"), nil
	}

	got, err := c.GetOrSet(ctx, "key", time.Minute, fn)
	if err != nil {
		t.Fatalf("GetOrSet failed: %v", err)
	}
	if string(got) != "computed" {
		t.Errorf("expected computed value, got %q", got)
	}

	// Second call must hit the cache
	if _, err := c.GetOrSet(ctx, "key", time.Minute, fn); err != nil {
		t.Fatalf("GetOrSet failed: %v", err)
	}
	if calls != 1 {
		t.Errorf("expected 1 compute call, got %d", calls)
	}
}

func TestMemoryCacheGetOrSetError(t *testing.T) {
	c := NewMemoryCache()
	defer c.Close()

	wantErr := errors.New("compute failed")
	_, err := c.GetOrSet(context.Background(), "key", time.Minute, func() ([]byte, error) {
		return nil, wantErr
	})
	if err != wantErr {
		t.Errorf("expected compute error, got %v", err)
	}
}

func TestMemoryCacheClear(t *testing.T) {
	c := NewMemoryCache()
	defer c.Close()
	ctx := context.Background()

	c.Set(ctx, "a", []byte("1"), time.Minute)
	c.Set(ctx, "b", []byte("2"), time.Minute)
	if err := c.Clear(ctx); err != nil {
		t.Fatalf("Clear failed: %v", err)
	}
	if _, err := c.Get(ctx, "a"); err != ErrCacheMiss {
		t.Errorf("expected miss after clear, got %v", err)
	}
}
