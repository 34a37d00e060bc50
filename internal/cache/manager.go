package cache

import (
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/log"
)

// Manager layers the memory cache over the disk cache. Disk hits are
// promoted to memory, and a background sweeper expires items by TTL.
type Manager struct {
	memory *Memory
	disk   *Disk // nil when the disk tier is disabled
	config Config
	logger *log.Logger

	stop chan struct{}
	wg   sync.WaitGroup

	mu    sync.Mutex
	stats ManagerStats
}

// ManagerStats aggregates both tiers.
type ManagerStats struct {
	Hits        int64
	Misses      int64
	MemoryHits  int64
	DiskHits    int64
	Promotions  int64
	CleanupRuns int64
	LastCleanup time.Time
	HitRate     float64

	Memory Stats
	Disk   Stats
}

// NewManager creates a cache manager. A zero DiskCapacity or empty Dir
// keeps everything in memory.
func NewManager(config Config, logger *log.Logger) (*Manager, error) {
	if logger == nil {
		logger = log.Default()
	}

	cm := &Manager{
		memory: NewMemory(config.MemoryCapacity),
		config: config,
		logger: logger,
		stop:   make(chan struct{}),
	}

	if config.DiskCapacity > 0 && config.Dir != "" {
		disk, err := NewDisk(config.Dir, config.DiskCapacity, config.CompressionLevel)
		if err != nil {
			return nil, fmt.Errorf("failed to create disk cache: %w", err)
		}
		cm.disk = disk
	}

	if config.TTL > 0 && config.CleanupInterval > 0 {
		cm.wg.Add(1)
		go cm.cleanupLoop()
	}
	return cm, nil
}

// Get checks memory, then disk.
func (cm *Manager) Get(key string) ([]byte, bool) {
	if data, ok := cm.memory.Get(key); ok {
		cm.mu.Lock()
		cm.stats.Hits++
		cm.stats.MemoryHits++
		cm.mu.Unlock()
		return data, true
	}

	if cm.disk != nil {
		if data, ok := cm.disk.Get(key); ok {
			// Promotion is best effort.
			promoted := cm.memory.Put(key, data) == nil

			cm.mu.Lock()
			cm.stats.Hits++
			cm.stats.DiskHits++
			if promoted {
				cm.stats.Promotions++
			}
			cm.mu.Unlock()
			return data, true
		}
	}

	cm.mu.Lock()
	cm.stats.Misses++
	cm.mu.Unlock()
	return nil, false
}

// Put stores value in both tiers. An item too large for memory can still
// go to disk.
func (cm *Manager) Put(key string, value []byte) error {
	memErr := cm.memory.Put(key, value)
	if cm.disk == nil {
		return memErr
	}
	return cm.disk.Put(key, value)
}

// Delete removes key from both tiers.
func (cm *Manager) Delete(key string) error {
	_ = cm.memory.Delete(key)
	if cm.disk != nil {
		return cm.disk.Delete(key)
	}
	return nil
}

// Clear empties both tiers.
func (cm *Manager) Clear() error {
	_ = cm.memory.Clear()
	if cm.disk != nil {
		return cm.disk.Clear()
	}
	return nil
}

// Contains reports whether either tier holds key.
func (cm *Manager) Contains(key string) bool {
	return cm.memory.Contains(key) || (cm.disk != nil && cm.disk.Contains(key))
}

// Size returns the memory and disk usage in bytes.
func (cm *Manager) Size() (memory, disk int64) {
	memory = cm.memory.Size()
	if cm.disk != nil {
		disk = cm.disk.Size()
	}
	return memory, disk
}

// Stats returns the aggregated counters.
func (cm *Manager) Stats() ManagerStats {
	cm.mu.Lock()
	stats := cm.stats
	cm.mu.Unlock()

	if total := stats.Hits + stats.Misses; total > 0 {
		stats.HitRate = float64(stats.Hits) / float64(total)
	}
	stats.Memory = cm.memory.Stats()
	if cm.disk != nil {
		stats.Disk = cm.disk.Stats()
	}
	return stats
}

// Cleanup expires items older than the TTL and returns how many were
// removed.
func (cm *Manager) Cleanup() int {
	cm.mu.Lock()
	cm.stats.CleanupRuns++
	cm.stats.LastCleanup = time.Now()
	cm.mu.Unlock()

	if cm.config.TTL <= 0 {
		return 0
	}
	removed := cm.memory.Prune(cm.config.TTL)
	if cm.disk != nil {
		removed += cm.disk.RemoveOlderThan(time.Now().Add(-cm.config.TTL))
	}
	if removed > 0 {
		cm.logger.Debug("expired cached audio", "items", removed)
	}
	return removed
}

// Close stops the sweeper and saves the disk index.
func (cm *Manager) Close() error {
	select {
	case <-cm.stop:
		return nil
	default:
		close(cm.stop)
	}
	cm.wg.Wait()

	if cm.disk != nil {
		if err := cm.disk.Close(); err != nil {
			return fmt.Errorf("failed to close disk cache: %w", err)
		}
	}
	return nil
}

func (cm *Manager) cleanupLoop() {
	defer cm.wg.Done()

	ticker := time.NewTicker(cm.config.CleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			cm.Cleanup()
		case <-cm.stop:
			return
		}
	}
}
