// Recovering a record from its embedded Node is the one place this package uses unsafe. Each Container is bound to
// a single record type and a single field, so the offset arithmetic is audited once per shape instead of being a
// general purpose pointer calculator.

package dll

import (
	"errors"
	"fmt"
	"unsafe"
)

var ErrFieldNotEmbedded = errors.New("selected node is not embedded by value in the record")

// Container converts between a record of type T and the Node embedded in it.
type Container[T any] struct {
	field  func(*T) *Node
	offset uintptr // Byte offset of the node field inside T.
}

// NewContainer builds the accessor for the node returned by field, typically `func(r *T) *Node { return &r.link }`.
// The offset is measured once on a probe value, and the selected node must lie entirely inside T.
func NewContainer[T any](field func(*T) *Node) (Container[T], error) {
	if field == nil {
		return Container[T]{}, fmt.Errorf("%w: nil field selector", ErrFieldNotEmbedded)
	}
	probe := new(T)
	node := field(probe)
	if node == nil {
		return Container[T]{}, fmt.Errorf("%w: selector returned nil for %T", ErrFieldNotEmbedded, probe)
	}
	start := uintptr(unsafe.Pointer(probe))
	addr := uintptr(unsafe.Pointer(node))
	if addr < start || addr+unsafe.Sizeof(Node{}) > start+unsafe.Sizeof(*probe) {
		return Container[T]{}, fmt.Errorf("%w: selector of %T points outside the record", ErrFieldNotEmbedded, probe)
	}
	return Container[T]{field: field, offset: addr - start}, nil
}

// MustContainer is like NewContainer but panics on error. It is meant for package level variables.
func MustContainer[T any](field func(*T) *Node) Container[T] {
	c, err := NewContainer(field)
	if err != nil {
		panic(err)
	}
	return c
}

// Of returns the record that embeds n. n must be the selected field of a live T; anything else yields a wild
// pointer. Of(nil) is nil.
func (c Container[T]) Of(n *Node) *T {
	if n == nil {
		return nil
	}
	return (*T)(unsafe.Add(unsafe.Pointer(n), -int(c.offset)))
}

// Node returns the node embedded in r. A zero Container treats the node as the first field of T.
func (c Container[T]) Node(r *T) *Node {
	if r == nil {
		return nil
	}
	if c.field == nil {
		return (*Node)(unsafe.Add(unsafe.Pointer(r), int(c.offset)))
	}
	return c.field(r)
}

// Offset returns the byte offset of the node field inside T.
func (c Container[T]) Offset() uintptr {
	return c.offset
}
