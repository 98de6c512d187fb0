package metrics

import (
	"sync"
	"time"
)

// DefaultRingCap is the number of progress snapshots kept when no cap is set.
const DefaultRingCap = 34

// Snapshot is one training progress record.
type Snapshot struct {
	Epoch        int       `json:"epoch"`
	Loss         float64   `json:"loss"`
	LearningRate float64   `json:"learning_rate"`
	Timestamp    time.Time `json:"timestamp"`
}

// Ring keeps the most recent snapshots. Once full, every Append evicts the
// oldest entry. It is safe for concurrent use.
type Ring struct {
	mu    sync.Mutex
	buf   []Snapshot
	start int
	size  int
}

// NewRing returns a ring holding at most capacity snapshots.
// A non-positive capacity means DefaultRingCap.
func NewRing(capacity int) *Ring {
	if capacity <= 0 {
		capacity = DefaultRingCap
	}
	return &Ring{buf: make([]Snapshot, capacity)}
}

// Append stores s, evicting the oldest snapshot when the ring is full.
func (r *Ring) Append(s Snapshot) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.size < len(r.buf) {
		r.buf[(r.start+r.size)%len(r.buf)] = s
		r.size++
		return
	}
	r.buf[r.start] = s
	r.start = (r.start + 1) % len(r.buf)
}

// Snapshots returns the stored snapshots, oldest first.
func (r *Ring) Snapshots() []Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Snapshot, r.size)
	for i := range out {
		out[i] = r.buf[(r.start+i)%len(r.buf)]
	}
	return out
}

// Len is the number of stored snapshots.
func (r *Ring) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.size
}

// Cap is the maximum number of stored snapshots.
func (r *Ring) Cap() int { return len(r.buf) }

// Reset drops every snapshot.
func (r *Ring) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.start, r.size = 0, 0
}
