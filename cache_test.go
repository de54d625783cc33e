package freeathome

import (
	"testing"
	"time"
)

func TestMemoryCache(t *testing.T) {
	t.Run("set and get", func(t *testing.T) {
		cache := NewMemoryCache()
		cache.Set("key", "value", time.Minute)

		got, ok := cache.Get("key")
		if !ok {
			t.Fatal("expected cache hit")
		}
		if got != "value" {
			t.Errorf("got %v, want value", got)
		}
	})

	t.Run("miss", func(t *testing.T) {
		cache := NewMemoryCache()
		if _, ok := cache.Get("absent"); ok {
			t.Error("expected cache miss")
		}
	})

	t.Run("expiry", func(t *testing.T) {
		cache := NewMemoryCache()
		cache.Set("key", "value", time.Nanosecond)
		time.Sleep(10 * time.Millisecond)

		if _, ok := cache.Get("key"); ok {
			t.Error("expected expired entry to miss")
		}
	})

	t.Run("zero ttl never expires", func(t *testing.T) {
		cache := NewMemoryCache()
		cache.Set("key", "value", 0)
		time.Sleep(10 * time.Millisecond)

		if _, ok := cache.Get("key"); !ok {
			t.Error("expected entry without expiry to survive")
		}
	})

	t.Run("delete", func(t *testing.T) {
		cache := NewMemoryCache()
		cache.Set("key", "value", time.Minute)
		cache.Delete("key")

		if _, ok := cache.Get("key"); ok {
			t.Error("expected deleted entry to miss")
		}
	})
}

func TestMemoryCache_Concurrent(t *testing.T) {
	cache := NewMemoryCache()
	done := make(chan struct{})

	go func() {
		defer close(done)
		for i := 0; i < 1000; i++ {
			cache.Set("key", i, time.Minute)
		}
	}()
	for i := 0; i < 1000; i++ {
		cache.Get("key")
	}
	<-done
}
