package pathfinding

import (
	"errors"
	"fmt"
	"iter"

	"golang.org/x/exp/constraints"
)

// DefaultQueueCapacity is the capacity a zero-capacity queue grows to on first insert
// (a full binary tree of height 4)
const DefaultQueueCapacity = 15

var (
	// ErrNegativeCapacity is returned when a queue is created with capacity < 0
	ErrNegativeCapacity = errors.New("priority queue capacity cannot be less than zero")
	// ErrNilQueue is returned when cloning a nil queue
	ErrNilQueue = errors.New("priority queue to copy cannot be nil")
	// ErrEmptyQueue is returned by Remove and Peek when the queue has no entries
	ErrEmptyQueue = errors.New("no items in priority queue")
	// ErrNilDestination is returned by the CopyTo family when dst is nil
	ErrNilDestination = errors.New("destination slice cannot be nil")
	// ErrDestinationTooSmall is returned by the CopyTo family when dst cannot hold Count entries from start
	ErrDestinationTooSmall = errors.New("destination start index out of bounds")
)

// Entry is a value stored in the queue along with its score
type Entry[V comparable, S constraints.Ordered] struct {
	Value V
	Score S
}

// PriorityQueue is a resizable binary min-heap keyed by score. Lower scores are removed first.
//
// Duplicate values are allowed, so value based operations (Contains, FindScore, TryRemove)
// scan the heap and act on the first match in heap order. Which duplicate that is is not
// specified. Equal scores are ordered by heap shape, not by insertion order.
//
// A PriorityQueue is not safe for concurrent use.
type PriorityQueue[V comparable, S constraints.Ordered] struct {
	heap    []Entry[V, S] // len(heap) is the capacity
	count   int
	version int
}

// NewPriorityQueue creates an empty queue able to hold capacity entries before growing
func NewPriorityQueue[V comparable, S constraints.Ordered](capacity int) (*PriorityQueue[V, S], error) {
	if capacity < 0 {
		return nil, fmt.Errorf("%w: %d", ErrNegativeCapacity, capacity)
	}

	return &PriorityQueue[V, S]{
		heap: make([]Entry[V, S], capacity),
	}, nil
}

// ClonePriorityQueue returns a deep copy of other with the same contents and capacity
func ClonePriorityQueue[V comparable, S constraints.Ordered](other *PriorityQueue[V, S]) (*PriorityQueue[V, S], error) {
	if other == nil {
		return nil, ErrNilQueue
	}

	heap := make([]Entry[V, S], len(other.heap))
	copy(heap, other.heap[:other.count])

	return &PriorityQueue[V, S]{
		heap:  heap,
		count: other.count,
	}, nil
}

// Capacity returns the number of entries the queue can hold before it must grow
func (q *PriorityQueue[V, S]) Capacity() int { return len(q.heap) }

// Count returns the number of entries in the queue
func (q *PriorityQueue[V, S]) Count() int { return q.count }

// IsEmpty reports whether the queue has no entries
func (q *PriorityQueue[V, S]) IsEmpty() bool { return q.count == 0 }

// IsFull reports whether the next Add will grow the queue
func (q *PriorityQueue[V, S]) IsFull() bool { return q.count == len(q.heap) }

// Version is incremented by every structural change (Add, Remove, TryRemove, Clear)
func (q *PriorityQueue[V, S]) Version() int { return q.version }

// Add inserts value with the given score
func (q *PriorityQueue[V, S]) Add(value V, score S) {
	if q.count == len(q.heap) {
		q.grow()
	}

	q.count++
	q.siftUp(q.count-1, Entry[V, S]{Value: value, Score: score})
	q.version++
}

// Remove removes and returns the value with the lowest score
func (q *PriorityQueue[V, S]) Remove() (V, error) {
	if q.count == 0 {
		var zero V
		return zero, ErrEmptyQueue
	}

	result := q.heap[0].Value
	q.removeAt(0)
	return result, nil
}

// TryRemove removes the first entry holding value. It returns false, leaving the
// queue untouched, if no entry matches.
func (q *PriorityQueue[V, S]) TryRemove(value V) bool {
	i := q.indexOf(value)
	if i < 0 {
		return false
	}

	q.removeAt(i)
	return true
}

// Peek returns the value with the lowest score without removing it
func (q *PriorityQueue[V, S]) Peek() (V, error) {
	if q.count == 0 {
		var zero V
		return zero, ErrEmptyQueue
	}
	return q.heap[0].Value, nil
}

// TryPeek is Peek with a found flag instead of an error
func (q *PriorityQueue[V, S]) TryPeek() (V, bool) {
	if q.count == 0 {
		var zero V
		return zero, false
	}
	return q.heap[0].Value, true
}

// Contains reports whether any entry holds value
func (q *PriorityQueue[V, S]) Contains(value V) bool {
	return q.indexOf(value) >= 0
}

// FindScore returns the score of the first entry holding value
func (q *PriorityQueue[V, S]) FindScore(value V) (S, bool) {
	i := q.indexOf(value)
	if i < 0 {
		var zero S
		return zero, false
	}
	return q.heap[i].Score, true
}

// Clear removes all entries. The backing storage is kept for reuse.
func (q *PriorityQueue[V, S]) Clear() {
	clear(q.heap[:q.count])
	q.count = 0
	q.version++
}

// CopyTo copies the queued values, in heap order, into dst starting at start
func (q *PriorityQueue[V, S]) CopyTo(dst []V, start int) error {
	if err := q.checkDestination(dst == nil, len(dst), start); err != nil {
		return err
	}

	for i := 0; i < q.count; i++ {
		dst[start+i] = q.heap[i].Value
	}
	return nil
}

// CopyEntriesTo copies the queued value/score pairs, in heap order, into dst starting at start
func (q *PriorityQueue[V, S]) CopyEntriesTo(dst []Entry[V, S], start int) error {
	if err := q.checkDestination(dst == nil, len(dst), start); err != nil {
		return err
	}

	copy(dst[start:], q.heap[:q.count])
	return nil
}

// Values iterates the queued values in heap order. The heap order satisfies the
// heap property but is not sorted in general.
func (q *PriorityQueue[V, S]) Values() iter.Seq[V] {
	return func(yield func(V) bool) {
		version := q.version
		for i := 0; i < q.count; i++ {
			q.checkVersion(version)
			if !yield(q.heap[i].Value) {
				return
			}
		}
	}
}

// Entries iterates the queued value/score pairs in heap order
func (q *PriorityQueue[V, S]) Entries() iter.Seq2[V, S] {
	return func(yield func(V, S) bool) {
		version := q.version
		for i := 0; i < q.count; i++ {
			q.checkVersion(version)
			if !yield(q.heap[i].Value, q.heap[i].Score) {
				return
			}
		}
	}
}

func (q *PriorityQueue[V, S]) checkVersion(version int) {
	if q.version != version {
		panic("pathfinding: priority queue modified during iteration")
	}
}

func (q *PriorityQueue[V, S]) checkDestination(isNil bool, length, start int) error {
	if isNil {
		return ErrNilDestination
	}
	if start < 0 || length < start+q.count {
		return fmt.Errorf("%w: need %d slots from %d, have %d", ErrDestinationTooSmall, q.count, start, length)
	}
	return nil
}

func (q *PriorityQueue[V, S]) indexOf(value V) int {
	for i := 0; i < q.count; i++ {
		if q.heap[i].Value == value {
			return i
		}
	}
	return -1
}

// removeAt moves the last entry into slot i and restores the heap property in
// whichever direction the moved entry needs to travel
func (q *PriorityQueue[V, S]) removeAt(i int) {
	q.count--
	last := q.heap[q.count]
	q.heap[q.count] = Entry[V, S]{}

	if i != q.count {
		if i > 0 && last.Score < q.heap[(i-1)/2].Score {
			q.siftUp(i, last)
		} else {
			q.heap[i] = last
			q.siftDown(i)
		}
	}

	q.version++
}

// siftUp places e in the hole at index i, moving larger parents down until the heap property holds
func (q *PriorityQueue[V, S]) siftUp(i int, e Entry[V, S]) {
	for i > 0 {
		parent := (i - 1) / 2
		if !(e.Score < q.heap[parent].Score) {
			break
		}
		q.heap[i] = q.heap[parent]
		i = parent
	}
	q.heap[i] = e
}

func (q *PriorityQueue[V, S]) siftDown(i int) {
	e := q.heap[i]
	for {
		smallest := 2*i + 1
		if smallest >= q.count {
			break
		}
		if right := smallest + 1; right < q.count && q.heap[right].Score < q.heap[smallest].Score {
			smallest = right
		}
		if !(q.heap[smallest].Score < e.Score) {
			break
		}
		q.heap[i] = q.heap[smallest]
		i = smallest
	}
	q.heap[i] = e
}

func (q *PriorityQueue[V, S]) grow() {
	capacity := 2*len(q.heap) + 1
	if capacity < DefaultQueueCapacity {
		capacity = DefaultQueueCapacity
	}

	heap := make([]Entry[V, S], capacity)
	copy(heap, q.heap[:q.count])
	q.heap = heap
}
