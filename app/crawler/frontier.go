package crawler

import "sync"

// Frontier is the BFS queue of discovered-but-not-yet-fetched URL ids.
// An id is recorded as seen the moment it is enqueued, so a URL is never
// queued twice even when several pages link to it.
type Frontier struct {
	mu    sync.Mutex
	queue []int64
	seen  map[int64]bool
}

func NewFrontier() *Frontier {
	return &Frontier{seen: map[int64]bool{}}
}

// Enqueue adds an id to the back of the queue. Returns false if the id was
// already enqueued or dequeued before.
func (f *Frontier) Enqueue(id int64) bool {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.seen[id] {
		return false
	}
	f.seen[id] = true
	f.queue = append(f.queue, id)
	return true
}

// DequeueLayer drains the current queue contents in FIFO order. Ids enqueued
// afterwards form the next BFS layer.
func (f *Frontier) DequeueLayer() []int64 {
	f.mu.Lock()
	defer f.mu.Unlock()

	layer := f.queue
	f.queue = nil
	return layer
}

func (f *Frontier) Len() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.queue)
}
