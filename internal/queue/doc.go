// Package queue provides the FIFO channel between audio synthesis and
// playback. The queue itself is unbounded; producers apply backpressure with
// WaitBelow.
package queue
