package taskshare

import (
	"sync"

	"github.com/pkg/errors"
)

// ErrDropped is returned by Put when the queue is full and overwrite is disabled.
var ErrDropped = errors.New("queue full, value dropped")

// Queue is a fixed-capacity FIFO.  When overwrite is enabled, a Put into a full queue evicts
// the oldest value; otherwise the new value is rejected.
type Queue[T any] struct {
	name      string
	guarded   bool
	overwrite bool

	// Guards everything below when the queue is guarded.  Held only for one ring update.
	lock sync.Mutex

	buf  []T
	head int // Index of the oldest value.
	n    int

	dropped uint64
	evicted uint64
}

func NewQueue[T any](name string, capacity int, guarded, overwrite bool) *Queue[T] {
	if capacity < 1 {
		capacity = 1
	}
	return &Queue[T]{
		name:      name,
		guarded:   guarded,
		overwrite: overwrite,
		buf:       make([]T, capacity),
	}
}

func (q *Queue[T]) Name() string {
	return q.name
}

func (q *Queue[T]) Capacity() int {
	return len(q.buf)
}

func (q *Queue[T]) enter() {
	if q.guarded {
		q.lock.Lock()
	}
}

func (q *Queue[T]) exit() {
	if q.guarded {
		q.lock.Unlock()
	}
}

// Put appends v.  It returns ErrDropped if the queue was full and v was not stored.
func (q *Queue[T]) Put(v T) error {
	q.enter()
	defer q.exit()

	if q.n == len(q.buf) {
		if !q.overwrite {
			q.dropped++
			return ErrDropped
		}
		q.head = (q.head + 1) % len(q.buf)
		q.n--
		q.evicted++
	}
	q.buf[(q.head+q.n)%len(q.buf)] = v
	q.n++
	return nil
}

// Get removes and returns the oldest value.  ok is false if the queue was empty.
func (q *Queue[T]) Get() (v T, ok bool) {
	q.enter()
	defer q.exit()

	if q.n == 0 {
		return v, false
	}
	v = q.buf[q.head]
	var zero T
	q.buf[q.head] = zero
	q.head = (q.head + 1) % len(q.buf)
	q.n--
	return v, true
}

func (q *Queue[T]) Any() bool {
	return q.NumWaiting() > 0
}

func (q *Queue[T]) Full() bool {
	q.enter()
	defer q.exit()
	return q.n == len(q.buf)
}

func (q *Queue[T]) NumWaiting() int {
	q.enter()
	defer q.exit()
	return q.n
}

// Dropped returns the number of values rejected because the queue was full.
func (q *Queue[T]) Dropped() uint64 {
	q.enter()
	defer q.exit()
	return q.dropped
}

// Evicted returns the number of old values thrown away to make room in overwrite mode.
func (q *Queue[T]) Evicted() uint64 {
	q.enter()
	defer q.exit()
	return q.evicted
}

// Clear empties the queue.
func (q *Queue[T]) Clear() {
	q.enter()
	defer q.exit()
	var zero T
	for i := range q.buf {
		q.buf[i] = zero
	}
	q.head = 0
	q.n = 0
}
