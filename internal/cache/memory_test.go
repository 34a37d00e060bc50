package cache

import (
	"fmt"
	"sync"
	"testing"
	"time"
)

func TestMemory_BasicOperations(t *testing.T) {
	cache := NewMemory(1024)

	key := "test-key"
	value := []byte("test-value")

	if err := cache.Put(key, value); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	retrieved, ok := cache.Get(key)
	if !ok {
		t.Fatal("Get failed: key not found")
	}
	if string(retrieved) != string(value) {
		t.Errorf("Retrieved value mismatch: got %s, want %s", retrieved, value)
	}
	if !cache.Contains(key) {
		t.Error("Contains returned false for existing key")
	}
	if cache.Size() != int64(len(value)) {
		t.Errorf("Size mismatch: got %d, want %d", cache.Size(), len(value))
	}

	if err := cache.Delete(key); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if cache.Contains(key) {
		t.Error("Key still exists after delete")
	}
	if cache.Size() != 0 {
		t.Errorf("Size not zero after delete: %d", cache.Size())
	}
}

func TestMemory_LRUEviction(t *testing.T) {
	cache := NewMemory(100)

	for i := 0; i < 4; i++ {
		_ = cache.Put(fmt.Sprintf("key-%d", i), make([]byte, 25))
	}

	// Touch key-0 so key-1 becomes the oldest.
	cache.Get("key-0")
	_ = cache.Put("key-4", make([]byte, 25))

	if cache.Contains("key-1") {
		t.Error("Least recently used key should have been evicted")
	}
	for _, key := range []string{"key-0", "key-2", "key-3", "key-4"} {
		if !cache.Contains(key) {
			t.Errorf("Expected %s to remain", key)
		}
	}
	if stats := cache.Stats(); stats.Evictions != 1 {
		t.Errorf("Expected 1 eviction, got %d", stats.Evictions)
	}
}

func TestMemory_ItemTooLarge(t *testing.T) {
	cache := NewMemory(10)
	if err := cache.Put("big", make([]byte, 11)); err != ErrItemTooLarge {
		t.Errorf("Expected ErrItemTooLarge, got %v", err)
	}
}

func TestMemory_UpdateExisting(t *testing.T) {
	cache := NewMemory(100)

	_ = cache.Put("key", make([]byte, 10))
	_ = cache.Put("key", make([]byte, 30))

	if cache.Size() != 30 {
		t.Errorf("Expected size 30 after update, got %d", cache.Size())
	}
	if got, _ := cache.Get("key"); len(got) != 30 {
		t.Errorf("Expected updated value, got %d bytes", len(got))
	}
}

func TestMemory_Stats(t *testing.T) {
	cache := NewMemory(100)
	_ = cache.Put("a", []byte("1"))

	cache.Get("a")
	cache.Get("a")
	cache.Get("missing")

	stats := cache.Stats()
	if stats.Hits != 2 || stats.Misses != 1 {
		t.Errorf("Expected 2 hits and 1 miss, got %d/%d", stats.Hits, stats.Misses)
	}
	if stats.ItemCount != 1 || stats.Capacity != 100 {
		t.Errorf("Unexpected stats %+v", stats)
	}
	if stats.HitRate < 0.66 || stats.HitRate > 0.67 {
		t.Errorf("Expected hit rate 2/3, got %f", stats.HitRate)
	}
}

func TestMemory_Prune(t *testing.T) {
	cache := NewMemory(100)
	_ = cache.Put("old", []byte("x"))
	time.Sleep(20 * time.Millisecond)
	_ = cache.Put("new", []byte("y"))

	if n := cache.Prune(10 * time.Millisecond); n != 1 {
		t.Errorf("Expected 1 pruned, got %d", n)
	}
	if cache.Contains("old") || !cache.Contains("new") {
		t.Error("Prune removed the wrong item")
	}
}

func TestMemory_Oldest(t *testing.T) {
	cache := NewMemory(100)
	_ = cache.Put("a", []byte("1"))
	_ = cache.Put("b", []byte("2"))
	_ = cache.Put("c", []byte("3"))
	cache.Get("a")

	oldest := cache.Oldest(2)
	if len(oldest) != 2 || oldest[0].Key != "b" || oldest[1].Key != "c" {
		t.Errorf("Unexpected LRU order %+v", oldest)
	}
	if oldest[0].Level != LevelMemory {
		t.Errorf("Expected memory level, got %v", oldest[0].Level)
	}
}

func TestMemory_ConcurrentAccess(t *testing.T) {
	cache := NewMemory(1 << 20)

	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				key := fmt.Sprintf("g%d-%d", g, i)
				_ = cache.Put(key, []byte(key))
				if got, ok := cache.Get(key); !ok || string(got) != key {
					t.Errorf("Concurrent get mismatch for %s", key)
				}
			}
		}(g)
	}
	wg.Wait()

	if stats := cache.Stats(); stats.ItemCount != 800 {
		t.Errorf("Expected 800 items, got %d", stats.ItemCount)
	}
}
