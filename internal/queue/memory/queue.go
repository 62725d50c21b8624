// Package memory provides the in-process priority queue feeding the pool.
package memory

import (
	"container/heap"
	"context"
	"fmt"
	"sync"

	"github.com/newsharvest/harvestd/internal/scraping"
)

// PriorityQueue is a thread-safe priority queue with context-aware blocking
// dequeue. Higher Task.Priority values are served first; ties break on
// ascending Task.ID so admission order is deterministic.
type PriorityQueue struct {
	mu       sync.Mutex
	items    taskHeap
	closed   bool
	notEmpty chan struct{}
	closedCh chan struct{}
}

// NewPriorityQueue constructs an empty queue.
func NewPriorityQueue() *PriorityQueue {
	return &PriorityQueue{
		notEmpty: make(chan struct{}, 1),
		closedCh: make(chan struct{}),
	}
}

// Enqueue adds a task, or fails if the queue is closed or the context ends.
func (q *PriorityQueue) Enqueue(ctx context.Context, task scraping.Task) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("enqueue canceled: %w", err)
	}
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return scraping.ErrQueueClosed
	}
	heap.Push(&q.items, task)
	q.mu.Unlock()
	q.signal()
	return nil
}

// Dequeue pops the highest-priority task, blocking while the queue is empty.
// It returns ErrQueueClosed once Close has been called, even if tasks remain;
// leftovers are recovered via Drain.
func (q *PriorityQueue) Dequeue(ctx context.Context) (scraping.Task, error) {
	for {
		q.mu.Lock()
		if q.closed {
			q.mu.Unlock()
			return scraping.Task{}, scraping.ErrQueueClosed
		}
		if q.items.Len() > 0 {
			task := heap.Pop(&q.items).(scraping.Task)
			remaining := q.items.Len()
			q.mu.Unlock()
			if remaining > 0 {
				q.signal()
			}
			return task, nil
		}
		q.mu.Unlock()

		select {
		case <-ctx.Done():
			return scraping.Task{}, fmt.Errorf("dequeue canceled: %w", ctx.Err())
		case <-q.closedCh:
		case <-q.notEmpty:
		}
	}
}

// Len reports the number of queued tasks.
func (q *PriorityQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.items.Len()
}

// Close stops all dequeuers. Safe to call more than once.
func (q *PriorityQueue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return
	}
	q.closed = true
	close(q.closedCh)
}

// Drain removes and returns any tasks left after Close, in priority order.
func (q *PriorityQueue) Drain() []scraping.Task {
	q.mu.Lock()
	defer q.mu.Unlock()
	var left []scraping.Task
	for q.items.Len() > 0 {
		left = append(left, heap.Pop(&q.items).(scraping.Task))
	}
	return left
}

func (q *PriorityQueue) signal() {
	select {
	case q.notEmpty <- struct{}{}:
	default:
	}
}

type taskHeap []scraping.Task

func (h taskHeap) Len() int { return len(h) }

func (h taskHeap) Less(i, j int) bool {
	if h[i].Priority != h[j].Priority {
		return h[i].Priority > h[j].Priority
	}
	return h[i].ID < h[j].ID
}

func (h taskHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *taskHeap) Push(x any) {
	*h = append(*h, x.(scraping.Task))
}

func (h *taskHeap) Pop() any {
	old := *h
	n := len(old)
	task := old[n-1]
	*h = old[:n-1]
	return task
}
