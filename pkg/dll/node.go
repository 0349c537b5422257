// Package dll implements an intrusive circular doubly linked list.
//
// A Node is embedded by value inside a user record. Nodes are linked into rings: a node that is not part of any
// other ring links to itself (it is "solitary"), which is also how an empty list looks when a dedicated node is
// used as the sentinel. The package never allocates nodes or records; their lifetime belongs to the embedding code.
//
// Nothing in this package is safe for concurrent use. Callers serialize all mutations of a ring.
//
//	type job struct {
//		id   int
//		link dll.Node
//	}
//
//	var jobs dll.Node // Sentinel.
//	jobs.PushBack(&j.link)
//	for n := range dll.All(&jobs) {
//		...
//	}
package dll

import (
	"flag"

	"github.com/nobletooth/ring/pkg/utils"
)

var strictChecks = flag.Bool("dll_strict_checks", true,
	"Check ring preconditions (double insertion, re-init of a linked node) and raise invariants on violations.")

// Node is the link embedded in a record. The zero value is a solitary node.
type Node struct {
	prev, next *Node
}

// lazyInit links a zero node to itself.
func (n *Node) lazyInit() {
	if n.next == nil {
		n.next = n
		n.prev = n
	}
}

// Init makes n solitary. Re-initializing a node that is still linked would strand its neighbors with references
// to it, so that case is reported as an invariant and n is unlinked properly instead.
func (n *Node) Init() *Node {
	if *strictChecks && n.Linked() {
		utils.RaiseInvariant("dll", "init_linked_node", "Init called on a node that is still linked.")
		n.unlink()
	}
	n.next = n
	n.prev = n
	return n
}

// Next returns the node following n. A solitary node returns itself.
func (n *Node) Next() *Node {
	if n.next == nil {
		return n
	}
	return n.next
}

// Prev returns the node preceding n. A solitary node returns itself.
func (n *Node) Prev() *Node {
	if n.prev == nil {
		return n
	}
	return n.prev
}

// Solitary reports whether n forms a ring of its own. For a sentinel this means the list is empty.
func (n *Node) Solitary() bool {
	return n.next == nil || n.next == n
}

// Linked reports whether n shares its ring with at least one other node.
func (n *Node) Linked() bool {
	return !n.Solitary()
}

// canInsert checks that newNode may be spliced next to n.
func (n *Node) canInsert(newNode *Node) bool {
	if !*strictChecks {
		return true
	}
	if newNode == n {
		utils.RaiseInvariant("dll", "insert_self", "A node cannot be inserted next to itself.")
		return false
	}
	if newNode.Linked() {
		utils.RaiseInvariant("dll", "insert_linked_node", "Inserted node is already linked into a ring.")
		return false
	}
	return true
}

// InsertAfter splices newNode into n's ring right after n. newNode must be solitary.
func (n *Node) InsertAfter(newNode *Node) {
	if !n.canInsert(newNode) {
		return
	}
	n.lazyInit()
	next := n.next // Read before n.next is overwritten; next == n for a solitary anchor.
	newNode.next = next
	newNode.prev = n
	next.prev = newNode
	n.next = newNode
}

// InsertBefore splices newNode into n's ring right before n. newNode must be solitary.
func (n *Node) InsertBefore(newNode *Node) {
	if !n.canInsert(newNode) {
		return
	}
	n.lazyInit()
	prev := n.prev
	newNode.prev = prev
	newNode.next = n
	prev.next = newNode
	n.prev = newNode
}

// PushFront makes newNode the first element of the list anchored at sentinel n.
func (n *Node) PushFront(newNode *Node) {
	n.InsertAfter(newNode)
}

// PushBack makes newNode the last element of the list anchored at sentinel n.
func (n *Node) PushBack(newNode *Node) {
	n.InsertBefore(newNode)
}

// Remove unlinks n from its ring and leaves it solitary. Removing a solitary node is a no-op.
func (n *Node) Remove() {
	n.unlink()
	n.next = n
	n.prev = n
}

// unlink joins n's neighbors without touching n itself.
func (n *Node) unlink() {
	if n.Solitary() {
		return
	}
	n.prev.next = n.next
	n.next.prev = n.prev
}
