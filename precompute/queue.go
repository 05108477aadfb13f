///////////////////////////////////////////////////////////////////////////////
// Copyright © 2020 xx network SEZC                                          //
//                                                                           //
// Use of this source code is governed by a license that can be found in the //
// LICENSE file                                                              //
///////////////////////////////////////////////////////////////////////////////


package precompute

// queue.go contains the bounded FIFO the buffer queues units in

// queue is a bounded FIFO. It is not safe for concurrent use, the owning
// Buffer's lock guards it.
type queue[T any] struct {
	items    []T
	capacity uint32
}

func newQueue[T any](capacity uint32) *queue[T] {
	return &queue[T]{
		items:    make([]T, 0, capacity),
		capacity: capacity,
	}
}

// Send appends the item, returning false if the queue is full
func (q *queue[T]) Send(item T) bool {
	if uint32(len(q.items)) >= q.capacity {
		return false
	}
	q.items = append(q.items, item)
	return true
}

// Receive removes the oldest item, returning false if the queue is empty
func (q *queue[T]) Receive() (T, bool) {
	var zero T
	if len(q.items) == 0 {
		return zero, false
	}
	item := q.items[0]
	q.items[0] = zero
	q.items = q.items[1:]
	return item, true
}

// Len returns the number of queued items
func (q *queue[T]) Len() uint32 {
	return uint32(len(q.items))
}

// Cap returns the maximum number of items
func (q *queue[T]) Cap() uint32 {
	return q.capacity
}

// Free returns how many more items fit
func (q *queue[T]) Free() uint32 {
	return q.capacity - q.Len()
}

// Resize changes the capacity. Items beyond the new capacity are removed,
// newest first, and returned.
func (q *queue[T]) Resize(capacity uint32) []T {
	q.capacity = capacity
	if uint32(len(q.items)) <= capacity {
		return nil
	}
	evicted := make([]T, uint32(len(q.items))-capacity)
	copy(evicted, q.items[capacity:])
	var zero T
	for i := capacity; i < uint32(len(q.items)); i++ {
		q.items[i] = zero
	}
	q.items = q.items[:capacity]
	return evicted
}

// Drain removes and returns every item
func (q *queue[T]) Drain() []T {
	drained := q.items
	q.items = make([]T, 0, q.capacity)
	return drained
}
