package cache

import (
	"testing"
	"time"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) Now() time.Time { return c.t }

func TestLRUCache_Expiry(t *testing.T) {
	clock := &fakeClock{t: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	c := NewLRUCache[float64](10, time.Minute).WithClock(clock.Now)

	c.Set("USD:EUR", 0.9)
	if v, ok := c.Get("USD:EUR"); !ok || v != 0.9 {
		t.Fatalf("Get() = %v, %v", v, ok)
	}

	clock.t = clock.t.Add(2 * time.Minute)
	if _, ok := c.Get("USD:EUR"); ok {
		t.Fatalf("expected entry to expire")
	}
	if c.Size() != 0 {
		t.Fatalf("expired entry should be removed on read, size=%d", c.Size())
	}
}

func TestLRUCache_Eviction(t *testing.T) {
	c := NewLRUCache[int](2, time.Hour)
	c.Set("a", 1)
	c.Set("b", 2)
	c.Get("a") // a becomes most recent
	c.Set("c", 3)

	if _, ok := c.Get("b"); ok {
		t.Fatalf("least recently used key should be evicted")
	}
	if _, ok := c.Get("a"); !ok {
		t.Fatalf("recently used key evicted")
	}
	c.Delete("a")
	if c.Size() != 1 {
		t.Fatalf("size=%d", c.Size())
	}
}

func TestManager_CleanAll(t *testing.T) {
	clock := &fakeClock{t: time.Now()}
	c := NewLRUCache[string](10, time.Second).WithClock(clock.Now)
	c.Set("x", "1")
	c.Set("y", "2")

	m := NewManager(nil)
	m.Register(c)
	if n := m.CleanAll(); n != 0 {
		t.Fatalf("nothing should be expired yet, cleaned %d", n)
	}
	clock.t = clock.t.Add(time.Minute)
	if n := m.CleanAll(); n != 2 {
		t.Fatalf("cleaned %d, want 2", n)
	}

	m.StartCleanup(time.Millisecond)
	m.Stop()
}
