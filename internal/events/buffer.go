package events

import "sync"

// RingBuffer keeps the most recent events in emission order.
type RingBuffer struct {
	mu    sync.RWMutex
	slots []Event
	head  int // next write position
	count int
	total uint64
}

func NewRingBuffer(size int) *RingBuffer {
	if size < 1 {
		size = 1
	}
	return &RingBuffer{slots: make([]Event, size)}
}

func (rb *RingBuffer) Add(e Event) {
	rb.mu.Lock()
	defer rb.mu.Unlock()

	rb.slots[rb.head] = e
	rb.head = (rb.head + 1) % len(rb.slots)
	if rb.count < len(rb.slots) {
		rb.count++
	}
	rb.total++
}

// Snapshot returns every retained event, oldest first.
func (rb *RingBuffer) Snapshot() []Event {
	return rb.Last(0, nil)
}

// Last returns up to n of the newest events accepted by match, oldest
// first. n <= 0 means no limit and a nil match accepts everything.
func (rb *RingBuffer) Last(n int, match func(Event) bool) []Event {
	rb.mu.RLock()
	defer rb.mu.RUnlock()

	size := len(rb.slots)
	var picked []Event
	for i := 1; i <= rb.count; i++ {
		e := rb.slots[(rb.head-i+size)%size]
		if match != nil && !match(e) {
			continue
		}
		picked = append(picked, e)
		if n > 0 && len(picked) == n {
			break
		}
	}
	for i, j := 0, len(picked)-1; i < j; i, j = i+1, j-1 {
		picked[i], picked[j] = picked[j], picked[i]
	}
	if picked == nil {
		picked = []Event{}
	}
	return picked
}

// Total is the number of events ever added, including overwritten ones.
func (rb *RingBuffer) Total() uint64 {
	rb.mu.RLock()
	defer rb.mu.RUnlock()
	return rb.total
}

func (rb *RingBuffer) Clear() {
	rb.mu.Lock()
	defer rb.mu.Unlock()

	clear(rb.slots)
	rb.head, rb.count, rb.total = 0, 0, 0
}
