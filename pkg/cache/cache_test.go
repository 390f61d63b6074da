package cache

import (
	"context"
	"strings"
	"testing"
	"time"
)

func TestNullCache(t *testing.T) {
	ctx := context.Background()
	c := NewNullCache()

	data, hit, err := c.Get(ctx, "key")
	if err != nil {
		t.Fatalf("Get error: %v", err)
	}
	if hit || data != nil {
		t.Error("NullCache.Get should always miss with nil data")
	}

	if err := c.Set(ctx, "key", []byte("value"), time.Hour); err != nil {
		t.Errorf("Set error: %v", err)
	}
	if _, hit, _ := c.Get(ctx, "key"); hit {
		t.Error("NullCache should not store data")
	}
	if err := c.Delete(ctx, "key"); err != nil {
		t.Errorf("Delete error: %v", err)
	}
}

func TestFileCacheRoundTrip(t *testing.T) {
	ctx := context.Background()
	c, err := NewFileCache(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileCache: %v", err)
	}

	if _, hit, _ := c.Get(ctx, "missing"); hit {
		t.Error("Get on empty cache hit")
	}

	payload := []byte(`{"narSize":123}`)
	if err := c.Set(ctx, "batch", payload, time.Hour); err != nil {
		t.Fatalf("Set: %v", err)
	}

	got, hit, err := c.Get(ctx, "batch")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !hit {
		t.Fatal("Get missed after Set")
	}
	if string(got) != string(payload) {
		t.Errorf("Get = %q, want %q", got, payload)
	}

	if err := c.Delete(ctx, "batch"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, hit, _ := c.Get(ctx, "batch"); hit {
		t.Error("Get hit after Delete")
	}
}

func TestFileCacheExpiration(t *testing.T) {
	ctx := context.Background()
	c, err := NewFileCache(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileCache: %v", err)
	}

	if err := c.Set(ctx, "old", []byte("x"), -time.Second); err == nil {
		// Non-positive TTL means no expiration, so this entry must survive.
		if _, hit, _ := c.Get(ctx, "old"); !hit {
			t.Error("entry with no expiration was evicted")
		}
	}

	if err := c.Set(ctx, "short", []byte("y"), time.Nanosecond); err != nil {
		t.Fatalf("Set: %v", err)
	}
	time.Sleep(5 * time.Millisecond)
	if _, hit, _ := c.Get(ctx, "short"); hit {
		t.Error("expired entry still served")
	}
}

func TestFileCachePurgeAndStats(t *testing.T) {
	ctx := context.Background()
	c, err := NewFileCache(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileCache: %v", err)
	}

	for _, key := range []string{"a", "b", "c"} {
		if err := c.Set(ctx, key, []byte("data-"+key), 0); err != nil {
			t.Fatalf("Set(%s): %v", key, err)
		}
	}

	entries, bytes, err := c.Stats()
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if entries != 3 {
		t.Errorf("entries = %d, want 3", entries)
	}
	if bytes == 0 {
		t.Error("bytes = 0, want non-zero")
	}

	if err := c.Purge(); err != nil {
		t.Fatalf("Purge: %v", err)
	}
	entries, _, err = c.Stats()
	if err != nil {
		t.Fatalf("Stats after purge: %v", err)
	}
	if entries != 0 {
		t.Errorf("entries after purge = %d, want 0", entries)
	}
	if _, hit, _ := c.Get(ctx, "a"); hit {
		t.Error("Get hit after Purge")
	}
}

func TestKeyDeterministicAndDistinct(t *testing.T) {
	k1 := Key("pathinfo", "daemon", false, []string{"/nix/store/x"})
	k2 := Key("pathinfo", "daemon", false, []string{"/nix/store/x"})
	if k1 != k2 {
		t.Error("identical components produced different keys")
	}
	if !strings.HasPrefix(k1, "pathinfo:") {
		t.Errorf("key %q missing prefix", k1)
	}

	k3 := Key("pathinfo", "daemon", true, []string{"/nix/store/x"})
	if k1 == k3 {
		t.Error("different components produced the same key")
	}
}
