package fifoqueue

import (
	"sync"

	"github.com/gammazero/deque"
)

// Queue is a synchronized unbounded FIFO queue. Readers are woken through Ready
type Queue[T any] struct {
	mutex  sync.Mutex
	d      *deque.Deque[T]
	ready  chan struct{}
	closed bool
}

func New[T any]() *Queue[T] {
	return &Queue[T]{
		d:     new(deque.Deque[T]),
		ready: make(chan struct{}, 1),
	}
}

// Push appends the element. Returns false if the queue is closed
func (q *Queue[T]) Push(elem T) bool {
	q.mutex.Lock()
	defer q.mutex.Unlock()

	if q.closed {
		return false
	}
	q.d.PushBack(elem)
	select {
	case q.ready <- struct{}{}:
	default:
	}
	return true
}

// Ready receives a signal after elements were pushed
func (q *Queue[T]) Ready() <-chan struct{} {
	return q.ready
}

// Pop removes the front element without blocking
func (q *Queue[T]) Pop() (T, bool) {
	q.mutex.Lock()
	defer q.mutex.Unlock()

	if q.d.Len() == 0 {
		var zero T
		return zero, false
	}
	return q.d.PopFront(), true
}

// Drain calls fun for the elements in the queue at the moment of the call, in FIFO order.
// Elements pushed by fun are left for the next Drain. Returns number of elements consumed
func (q *Queue[T]) Drain(fun func(elem T)) int {
	q.mutex.Lock()
	n := q.d.Len()
	lst := make([]T, n)
	for i := range lst {
		lst[i] = q.d.PopFront()
	}
	q.mutex.Unlock()

	for _, e := range lst {
		fun(e)
	}
	return n
}

// Close rejects further pushes. Elements in the queue can still be read
func (q *Queue[T]) Close() {
	q.mutex.Lock()
	defer q.mutex.Unlock()

	q.closed = true
}

func (q *Queue[T]) Len() int {
	q.mutex.Lock()
	defer q.mutex.Unlock()

	return q.d.Len()
}
