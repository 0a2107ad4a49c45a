package gateway

import "sync"

// replayEntry holds a single broadcast envelope for replay.
type replayEntry struct {
	Seq  int64
	Data []byte
}

// ReplayBuffer is a fixed-size circular buffer of recent quote envelopes.
// A client reconnecting with its last seen seq gets the gap backfilled from
// here instead of waiting for the next tick of every symbol.
//
// Safe for concurrent writes and reads.
type ReplayBuffer struct {
	mu   sync.RWMutex
	buf  []replayEntry
	cap  int
	pos  int // next write position
	full bool
}

// NewReplayBuffer creates a replay buffer with the given capacity.
func NewReplayBuffer(capacity int) *ReplayBuffer {
	if capacity <= 0 {
		capacity = 500
	}
	return &ReplayBuffer{
		buf: make([]replayEntry, capacity),
		cap: capacity,
	}
}

// Push appends an envelope, overwriting the oldest entry when full.
func (rb *ReplayBuffer) Push(seq int64, data []byte) {
	rb.mu.Lock()
	defer rb.mu.Unlock()

	cp := make([]byte, len(data))
	copy(cp, data)

	rb.buf[rb.pos] = replayEntry{Seq: seq, Data: cp}
	rb.pos = (rb.pos + 1) % rb.cap
	if rb.pos == 0 && !rb.full {
		rb.full = true
	}
}

// After returns all entries with seq greater than afterSeq, oldest first.
func (rb *ReplayBuffer) After(afterSeq int64) []replayEntry {
	rb.mu.RLock()
	defer rb.mu.RUnlock()

	var result []replayEntry
	count := rb.len()
	for i := 0; i < count; i++ {
		e := rb.buf[rb.index(i)]
		if e.Seq > afterSeq {
			result = append(result, e)
		}
	}
	return result
}

// Len returns the number of buffered entries.
func (rb *ReplayBuffer) Len() int {
	rb.mu.RLock()
	defer rb.mu.RUnlock()
	return rb.len()
}

func (rb *ReplayBuffer) len() int {
	if rb.full {
		return rb.cap
	}
	return rb.pos
}

// index converts a logical index (0 = oldest) to a physical one.
func (rb *ReplayBuffer) index(logical int) int {
	if rb.full {
		return (rb.pos + logical) % rb.cap
	}
	return logical
}
