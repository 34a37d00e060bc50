package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"
)

// ErrItemTooLarge is returned when an item exceeds the cache capacity
var ErrItemTooLarge = errors.New("item too large for cache")

// Level identifies the cache tier an item was served from.
type Level int

const (
	// LevelMemory is the in-process LRU.
	LevelMemory Level = iota

	// LevelDisk is the persistent zstd store.
	LevelDisk
)

func (l Level) String() string {
	switch l {
	case LevelMemory:
		return "memory"
	case LevelDisk:
		return "disk"
	default:
		return "unknown"
	}
}

// Stats holds the counters of one cache tier.
type Stats struct {
	Capacity  int64
	Size      int64
	ItemCount int64
	Hits      int64
	Misses    int64
	Evictions int64
	HitRate   float64
}

func (s *Stats) updateHitRate() {
	if total := s.Hits + s.Misses; total > 0 {
		s.HitRate = float64(s.Hits) / float64(total)
	}
}

// Metadata describes a cached item.
type Metadata struct {
	Key        string
	Size       int64
	Timestamp  time.Time
	LastAccess time.Time
	Hits       int64
	Level      Level
}

// Config holds cache settings.
type Config struct {
	// MemoryCapacity in bytes
	MemoryCapacity int64

	// DiskCapacity in bytes, zero disables the disk tier
	DiskCapacity int64

	// Dir holds the disk tier
	Dir string

	// CompressionLevel is the zstd level, 0 stores raw audio
	CompressionLevel int

	// TTL expires items by age, zero keeps them until evicted
	TTL time.Duration

	// CleanupInterval between TTL sweeps, zero disables the sweeper
	CleanupInterval time.Duration
}

// DefaultConfig returns the default cache settings. Dir is left empty for
// the caller to fill in.
func DefaultConfig() Config {
	return Config{
		MemoryCapacity:   64 << 20,
		DiskCapacity:     512 << 20,
		CompressionLevel: 3,
		TTL:              7 * 24 * time.Hour,
		CleanupInterval:  time.Hour,
	}
}

// Key identifies one synthesis result.
type Key struct {
	Engine string
	Voice  string
	Speed  float64
	Pitch  float64
	Text   string
}

// String hashes the key into a fixed-length cache key.
func (k Key) String() string {
	data := fmt.Sprintf("%s|%s|%.2f|%.2f|%s", k.Engine, k.Voice, k.Speed, k.Pitch, k.Text)
	hash := sha256.Sum256([]byte(data))
	return hex.EncodeToString(hash[:16])
}

// Cache is a byte store keyed by string.
type Cache interface {
	Get(key string) ([]byte, bool)
	Put(key string, value []byte) error
	Delete(key string) error
	Clear() error
	Contains(key string) bool
	Size() int64
	Stats() Stats
}

var (
	_ Cache = (*Memory)(nil)
	_ Cache = (*Disk)(nil)
)
