package cache

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"

	"github.com/johnrirwin/smartnews/internal/logging"
)

func newTestRedisCache(t *testing.T) (*RedisCache, *miniredis.Miniredis) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("failed to start miniredis: %v", err)
	}
	t.Cleanup(mr.Close)

	c, err := NewRedis(RedisConfig{Addr: mr.Addr()}, time.Minute)
	if err != nil {
		t.Fatalf("NewRedis() error = %v", err)
	}
	t.Cleanup(func() { _ = c.Close() })
	return c, mr
}

func TestRedisCache_DefaultPrefix(t *testing.T) {
	c, mr := newTestRedisCache(t)

	c.Set("feed", []string{"a"})

	if !mr.Exists(DefaultRedisPrefix + "feed") {
		t.Fatalf("expected key %q in redis, have %v", DefaultRedisPrefix+"feed", mr.Keys())
	}
}

func TestRedisCache_SetGetDelete(t *testing.T) {
	c, _ := newTestRedisCache(t)

	c.Set("k", map[string]int{"n": 1})

	got, ok := c.Get("k")
	if !ok {
		t.Fatal("Get() returned false for existing key")
	}
	m, ok := got.(map[string]interface{})
	if !ok || m["n"] != float64(1) {
		t.Fatalf("Get() = %#v", got)
	}

	c.Delete("k")
	if _, ok := c.Get("k"); ok {
		t.Fatal("Get() should return false after Delete()")
	}
}

func TestRedisCache_SetWithTTL(t *testing.T) {
	c, mr := newTestRedisCache(t)

	c.SetWithTTL("short", "v", time.Second)
	mr.FastForward(2 * time.Second)

	if _, ok := c.Get("short"); ok {
		t.Fatal("Get() should return false after TTL")
	}
}

func TestRedisCache_Clear(t *testing.T) {
	c, mr := newTestRedisCache(t)

	c.Set("a", 1)
	c.Set("b", 2)
	if err := mr.Set("other:key", "x"); err != nil {
		t.Fatal(err)
	}

	c.Clear()

	if _, ok := c.Get("a"); ok {
		t.Error("a should be cleared")
	}
	if !mr.Exists("other:key") {
		t.Error("Clear() must not touch keys outside the prefix")
	}
}

func TestDecode(t *testing.T) {
	type snap struct {
		IDs []string `json:"ids"`
	}

	mem := NewMemory(time.Minute)
	defer mem.Stop()
	rc, _ := newTestRedisCache(t)

	for name, c := range map[string]Cache{"memory": mem, "redis": rc} {
		t.Run(name, func(t *testing.T) {
			c.Set("snap", snap{IDs: []string{"x", "y"}})

			var got snap
			if !Decode(c, "snap", &got) {
				t.Fatal("Decode() returned false")
			}
			if len(got.IDs) != 2 || got.IDs[1] != "y" {
				t.Fatalf("Decode() = %+v", got)
			}

			if Decode(c, "missing", &got) {
				t.Fatal("Decode() should return false for a missing key")
			}
		})
	}
}

func TestDecode_NilCache(t *testing.T) {
	var dst []string
	if Decode(nil, "k", &dst) {
		t.Fatal("Decode(nil) should return false")
	}
}

func TestRedisCache_LogsFailedWrites(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("failed to start miniredis: %v", err)
	}
	t.Cleanup(mr.Close)

	var buf bytes.Buffer
	c, err := NewRedis(RedisConfig{Addr: mr.Addr(), Logger: logging.NewWithWriter(logging.LevelDebug, &buf)}, time.Minute)
	if err != nil {
		t.Fatalf("NewRedis() error = %v", err)
	}
	t.Cleanup(func() { _ = c.Close() })

	mr.SetError("READONLY You can't write against a read only replica.")
	c.Set("feed:r1", map[string]int{"n": 1})
	c.Delete("feed:r1")
	mr.SetError("")

	out := buf.String()
	if !strings.Contains(out, "Redis cache write failed") || !strings.Contains(out, "feed:r1") {
		t.Errorf("write failure not logged, got %q", out)
	}
	if !strings.Contains(out, "Redis cache delete failed") {
		t.Errorf("delete failure not logged, got %q", out)
	}
	if _, ok := c.Get("feed:r1"); ok {
		t.Error("value should not have been stored")
	}
}

func TestRedisCache_LogsUnencodableValue(t *testing.T) {
	_, mr := newTestRedisCache(t)

	var buf bytes.Buffer
	c, err := NewRedis(RedisConfig{Addr: mr.Addr(), Logger: logging.NewWithWriter(logging.LevelDebug, &buf)}, time.Minute)
	if err != nil {
		t.Fatalf("NewRedis() error = %v", err)
	}
	t.Cleanup(func() { _ = c.Close() })

	c.Set("bad", make(chan int))

	if !strings.Contains(buf.String(), "Failed to encode cache value") {
		t.Errorf("encode failure not logged, got %q", buf.String())
	}
}
