// Package cache stores synthesized audio so repeated text is not sent to the
// engine twice. Memory is an in-process LRU, Disk a zstd compressed store
// shared between processes, and Manager layers the two with TTL expiry.
package cache
