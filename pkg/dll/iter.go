package dll

import (
	"errors"
	"fmt"
	"iter"

	"github.com/nobletooth/ring/pkg/utils"
)

var (
	ErrBrokenRing  = errors.New("ring links are inconsistent")
	ErrRingTooLong = errors.New("ring did not close within the step limit")
)

// MaxValidateSteps bounds the number of nodes Validate visits before giving up on a ring that never returns to
// its sentinel (e.g. the sentinel was detached from the ring it anchored).
var MaxValidateSteps = 1 << 24

// All returns the nodes of the ring anchored at sentinel, front to back, excluding the sentinel.
// The loop body may remove the node it was handed, and may remove nodes ahead of it. Nodes inserted right after the
// current one are not visited. Re-linking the current node ahead of the cursor makes it show up again. Moving the
// next node elsewhere in the ring moves the cursor with it: the nodes it jumped over are not visited.
func All(sentinel *Node) iter.Seq[*Node] {
	return walk(sentinel, (*Node).Next)
}

// Backward is All in reverse order.
func Backward(sentinel *Node) iter.Seq[*Node] {
	return walk(sentinel, (*Node).Prev)
}

// walk visits the ring in the direction given by step. The successor is captured before yielding so the yielded
// node can be unlinked by the caller.
func walk(sentinel *Node, step func(*Node) *Node) iter.Seq[*Node] {
	return func(yield func(*Node) bool) {
		for cur := step(sentinel); cur != sentinel; {
			next := step(cur)
			if !yield(cur) {
				return
			}
			if next != sentinel && next.Solitary() { // The body detached the successor as well.
				if cur.Solitary() {
					utils.RaiseInvariant("dll", "traversal_detached",
						"Both the cursor and its successor were removed during traversal.")
					return
				}
				next = step(cur)
			}
			cur = next
		}
	}
}

// Len counts the nodes of the ring anchored at sentinel, excluding the sentinel. It takes O(n).
func Len(sentinel *Node) int {
	count := 0
	for range All(sentinel) {
		count++
	}
	return count
}

// Validate walks the ring anchored at sentinel and checks that every node's neighbors point back at it.
func Validate(sentinel *Node) error {
	if sentinel.Solitary() {
		if sentinel.prev != sentinel.next {
			return fmt.Errorf("%w: solitary node %p has prev %p", ErrBrokenRing, sentinel, sentinel.prev)
		}
		return nil
	}
	n := sentinel
	for range MaxValidateSteps {
		if n.next == nil || n.prev == nil {
			return fmt.Errorf("%w: node %p has a nil link inside a ring", ErrBrokenRing, n)
		}
		if n.next.prev != n {
			return fmt.Errorf("%w: node %p: next.prev is %p", ErrBrokenRing, n, n.next.prev)
		}
		if n.prev.next != n {
			return fmt.Errorf("%w: node %p: prev.next is %p", ErrBrokenRing, n, n.prev.next)
		}
		if n = n.next; n == sentinel {
			return nil
		}
	}
	return fmt.Errorf("%w: %d steps from %p", ErrRingTooLong, MaxValidateSteps, sentinel)
}
