package executor

import (
	"container/heap"
	"sync"
)

// task is one queued run request.
type task struct {
	id       string
	input    string
	priority int

	// attempt counts deliveries of this task; the whole-task retry path
	// re-enqueues with an incremented attempt.
	attempt int

	// seq breaks priority ties so equal-priority tasks stay FIFO.
	seq uint64
}

// taskQueue is a blocking priority queue. Higher priority tasks are
// delivered first; within a priority class delivery order is submission
// order. Push never blocks; Pop blocks until a task arrives or the queue is
// closed.
type taskQueue struct {
	mu     sync.Mutex
	cond   *sync.Cond
	heap   taskHeap
	seq    uint64
	closed bool
}

func newTaskQueue() *taskQueue {
	q := &taskQueue{}
	q.cond = sync.NewCond(&q.mu)
	return q
}

// Push enqueues a task. Pushing to a closed queue is a no-op.
func (q *taskQueue) Push(t *task) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return
	}
	q.seq++
	t.seq = q.seq
	heap.Push(&q.heap, t)
	q.cond.Signal()
}

// Pop dequeues the highest-priority task, blocking while the queue is empty.
// The second return is false once the queue is closed and drained.
func (q *taskQueue) Pop() (*task, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	for len(q.heap) == 0 && !q.closed {
		q.cond.Wait()
	}
	if len(q.heap) == 0 {
		return nil, false
	}
	return heap.Pop(&q.heap).(*task), true
}

// Close wakes all blocked consumers. Queued tasks may still be drained.
func (q *taskQueue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.closed = true
	q.cond.Broadcast()
}

// Len reports the number of queued tasks.
func (q *taskQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.heap)
}

// taskHeap implements heap.Interface ordered by (priority desc, seq asc).
type taskHeap []*task

func (h taskHeap) Len() int { return len(h) }

func (h taskHeap) Less(i, j int) bool {
	if h[i].priority != h[j].priority {
		return h[i].priority > h[j].priority
	}
	return h[i].seq < h[j].seq
}

func (h taskHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *taskHeap) Push(x any) { *h = append(*h, x.(*task)) }

func (h *taskHeap) Pop() any {
	old := *h
	n := len(old)
	t := old[n-1]
	old[n-1] = nil
	*h = old[:n-1]
	return t
}
