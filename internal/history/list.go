// Package history provides a cursor-based undo list.
package history

// List is an ordered record list with a cursor. The cursor points at the
// record that was applied last, or -1 when nothing is applied. Inserting
// drops every record after the cursor, so redo is lost after a new action.
//
// A positive capacity bounds the list; the oldest record is dropped first.
// The last dropped record stays reachable through Dropped, since the state
// it produced is what the cursor position -1 stands for from then on.
type List[T any] struct {
	items    []T
	cursor   int
	capacity int

	dropped    T
	hasDropped bool
}

// New creates an unbounded list
func New[T any]() *List[T] {
	return &List[T]{cursor: -1}
}

// NewBounded creates a list that keeps at most capacity records. A capacity
// of 0 or less means unbounded.
func NewBounded[T any](capacity int) *List[T] {
	return &List[T]{cursor: -1, capacity: max(capacity, 0)}
}

// Insert truncates everything after the cursor, appends v and moves the
// cursor onto it
func (l *List[T]) Insert(v T) {
	clear(l.items[l.cursor+1:])
	l.items = append(l.items[:l.cursor+1], v)
	l.cursor++

	if l.capacity > 0 && len(l.items) > l.capacity {
		drop := len(l.items) - l.capacity
		l.dropped, l.hasDropped = l.items[drop-1], true
		var zero T
		for i := range drop {
			l.items[i] = zero
		}
		l.items = l.items[drop:]
		l.cursor -= drop
	}
}

// CanMoveBack reports whether there is an applied record to undo
func (l *List[T]) CanMoveBack() bool {
	return l.cursor >= 0
}

// CanMoveForward reports whether there is an undone record to redo
func (l *List[T]) CanMoveForward() bool {
	return l.cursor+1 < len(l.items)
}

// MoveBack returns the record at the cursor and steps the cursor back
func (l *List[T]) MoveBack() (T, bool) {
	var zero T
	if !l.CanMoveBack() {
		return zero, false
	}
	v := l.items[l.cursor]
	l.cursor--
	return v, true
}

// MoveForward steps the cursor forward and returns the record there
func (l *List[T]) MoveForward() (T, bool) {
	var zero T
	if !l.CanMoveForward() {
		return zero, false
	}
	l.cursor++
	return l.items[l.cursor], true
}

// Current returns the record at the cursor
func (l *List[T]) Current() (T, bool) {
	var zero T
	if l.cursor < 0 {
		return zero, false
	}
	return l.items[l.cursor], true
}

// Dropped returns the most recent record removed by the capacity bound.
// Moving back past the first kept record returns to the state it left.
func (l *List[T]) Dropped() (T, bool) {
	return l.dropped, l.hasDropped
}

// Peek returns the record MoveForward would return, without moving
func (l *List[T]) Peek() (T, bool) {
	var zero T
	if !l.CanMoveForward() {
		return zero, false
	}
	return l.items[l.cursor+1], true
}

// Clear drops all records
func (l *List[T]) Clear() {
	clear(l.items)
	l.items = l.items[:0]
	l.cursor = -1
	var zero T
	l.dropped, l.hasDropped = zero, false
}

// Len returns the number of records kept
func (l *List[T]) Len() int { return len(l.items) }

// Index returns the cursor position, -1 when nothing is applied
func (l *List[T]) Index() int { return l.cursor }

// Capacity returns the bound, 0 when unbounded
func (l *List[T]) Capacity() int { return l.capacity }

// Records returns a copy of all records, oldest first
func (l *List[T]) Records() []T {
	out := make([]T, len(l.items))
	copy(out, l.items)
	return out
}
