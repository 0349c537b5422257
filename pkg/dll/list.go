package dll

import (
	"fmt"
	"iter"

	"github.com/nobletooth/ring/pkg/utils"
)

// List is a sentinel-anchored ring of records of type T. It hides nodes entirely: every method takes and returns
// records, recovering them through the list's Container.
//
// A List must not be copied after first use, since the ring points at its sentinel.
type List[T any] struct {
	root Node
	c    Container[T]
}

// NewList returns an empty list of records linked through c. c must come from NewContainer or MustContainer; a zero
// Container is an invariant and falls back to a node at offset zero.
func NewList[T any](c Container[T]) *List[T] {
	if c.field == nil {
		utils.RaiseInvariant("dll", "nil_container_field",
			"List has been created with a zero container.", "record", fmt.Sprintf("%T", (*T)(nil)))
	}
	l := &List[T]{c: c}
	l.root.Init()
	return l
}

// Init empties the list, unlinking every record so each of them can be pushed again. It takes O(n).
func (l *List[T]) Init() *List[T] {
	for n := range All(&l.root) {
		n.Remove()
	}
	l.root.next = &l.root
	l.root.prev = &l.root
	return l
}

// Empty reports whether the list has no records.
func (l *List[T]) Empty() bool {
	return l.root.Solitary()
}

// Len returns the number of records in the list. It takes O(n).
func (l *List[T]) Len() int {
	return Len(&l.root)
}

// record maps a node back to its record, treating the sentinel as nil.
func (l *List[T]) record(n *Node) *T {
	if n == &l.root {
		return nil
	}
	return l.c.Of(n)
}

// Validate checks the links of every node in the list. See the package level Validate.
func (l *List[T]) Validate() error {
	return Validate(&l.root)
}

// Front returns the first record or nil if the list is empty.
func (l *List[T]) Front() *T {
	return l.record(l.root.Next())
}

// Back returns the last record or nil if the list is empty.
func (l *List[T]) Back() *T {
	return l.record(l.root.Prev())
}

// Next returns the record after r, or nil if r is the last one or is not linked.
func (l *List[T]) Next(r *T) *T {
	n := l.c.Node(r)
	if n.Solitary() {
		return nil
	}
	return l.record(n.Next())
}

// Prev returns the record before r, or nil if r is the first one or is not linked.
func (l *List[T]) Prev(r *T) *T {
	n := l.c.Node(r)
	if n.Solitary() {
		return nil
	}
	return l.record(n.Prev())
}

// PushFront inserts r at the front of the list.
func (l *List[T]) PushFront(r *T) {
	l.root.PushFront(l.c.Node(r))
}

// PushBack inserts r at the back of the list.
func (l *List[T]) PushBack(r *T) {
	l.root.PushBack(l.c.Node(r))
}

// InsertAfter inserts r right after mark, which must be in the list.
func (l *List[T]) InsertAfter(mark, r *T) {
	l.c.Node(mark).InsertAfter(l.c.Node(r))
}

// InsertBefore inserts r right before mark, which must be in the list.
func (l *List[T]) InsertBefore(mark, r *T) {
	l.c.Node(mark).InsertBefore(l.c.Node(r))
}

// Remove unlinks r. Removing a record that is not linked is a no-op.
func (l *List[T]) Remove(r *T) {
	l.c.Node(r).Remove()
}

// MoveToFront moves r, which must be in the list, to the front.
func (l *List[T]) MoveToFront(r *T) {
	n := l.c.Node(r)
	n.Remove()
	l.root.PushFront(n)
}

// MoveToBack moves r, which must be in the list, to the back.
func (l *List[T]) MoveToBack(r *T) {
	n := l.c.Node(r)
	n.Remove()
	l.root.PushBack(n)
}

// All returns the records front to back. See the package level All for what the loop body may do.
func (l *List[T]) All() iter.Seq[*T] {
	return l.records(All(&l.root))
}

// Backward returns the records back to front.
func (l *List[T]) Backward() iter.Seq[*T] {
	return l.records(Backward(&l.root))
}

func (l *List[T]) records(nodes iter.Seq[*Node]) iter.Seq[*T] {
	return func(yield func(*T) bool) {
		for n := range nodes {
			if !yield(l.c.Of(n)) {
				return
			}
		}
	}
}
