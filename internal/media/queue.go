package media

import (
	"math/rand"
	"sync"
)

// Queue is the shuffled list of items still waiting to be shown.
type Queue struct {
	mu    sync.Mutex
	items []WorkItem
}

// NewQueue copies items and applies one uniform shuffle drawn from rng.
func NewQueue(items []WorkItem, rng *rand.Rand) *Queue {
	q := &Queue{items: make([]WorkItem, len(items))}
	copy(q.items, items)
	rng.Shuffle(len(q.items), func(i, j int) {
		q.items[i], q.items[j] = q.items[j], q.items[i]
	})
	return q
}

// Pop removes and returns the next item.
func (q *Queue) Pop() (WorkItem, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.items) == 0 {
		return WorkItem{}, false
	}
	last := len(q.items) - 1
	item := q.items[last]
	q.items = q.items[:last]
	return item, true
}

// Len returns the number of items left.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

