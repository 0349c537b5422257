package dll

import (
	"iter"
	"slices"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/nobletooth/ring/pkg/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// byIdentity compares nodes by address; their fields are unexported and cyclic.
var byIdentity = cmp.Comparer(func(a, b *Node) bool { return a == b })

// collect drains seq into a non-nil slice.
func collect[T any](seq iter.Seq[T]) []T {
	out := make([]T, 0)
	for v := range seq {
		out = append(out, v)
	}
	return out
}

func TestAll_Empty(t *testing.T) {
	sentinel := new(Node).Init()
	assert.Empty(t, collect(All(sentinel)))
	assert.Empty(t, collect(Backward(sentinel)))
	assert.Zero(t, Len(sentinel))

	// Inserting then removing leaves nothing to traverse.
	var x Node
	sentinel.InsertAfter(x.Init())
	x.Remove()
	assert.Empty(t, collect(All(sentinel)))
}

func TestAll_ForwardIsReverseOfBackward(t *testing.T) {
	for _, count := range []int{1, 2, 3, 10} {
		sentinel, nodes := newRing(count)
		forward := collect(All(sentinel))
		backward := collect(Backward(sentinel))
		slices.Reverse(backward)
		if diff := cmp.Diff(nodes, forward, byIdentity); diff != "" {
			t.Errorf("forward order mismatch for %d nodes (-want +got):\n%s", count, diff)
		}
		if diff := cmp.Diff(forward, backward, byIdentity); diff != "" {
			t.Errorf("backward order is not the reverse of forward for %d nodes (-want +got):\n%s", count, diff)
		}
		assert.Equal(t, count, Len(sentinel))
	}
}

func TestAll_Restartable(t *testing.T) {
	sentinel, nodes := newRing(4)
	seq := All(sentinel)
	assert.Equal(t, nodes, collect(seq))
	assert.Equal(t, nodes, collect(seq), "A sequence should be replayable")
}

func TestAll_EarlyBreak(t *testing.T) {
	sentinel, nodes := newRing(4)
	var seen []*Node
	for n := range All(sentinel) {
		seen = append(seen, n)
		if len(seen) == 2 {
			break
		}
	}
	assert.Equal(t, nodes[:2], seen)
}

func TestAll_AnySentinel(t *testing.T) {
	// Any node of the ring can anchor a traversal.
	sentinel, nodes := newRing(3)
	assert.Equal(t, []*Node{nodes[2], sentinel, nodes[0]}, collect(All(nodes[1])),
		"The original sentinel is visited like any other node")
	assert.Equal(t, []*Node{nodes[0], sentinel, nodes[2]}, collect(Backward(nodes[1])))
}

func TestAll_RemoveCurrent(t *testing.T) {
	sentinel, nodes := newRing(5)
	var seen []*Node
	for n := range All(sentinel) {
		seen = append(seen, n)
		n.Remove()
	}
	assert.Equal(t, nodes, seen)
	assertSolitary(t, sentinel)
}

func TestBackward_RemoveCurrent(t *testing.T) {
	sentinel, nodes := newRing(5)
	var seen []*Node
	for n := range Backward(sentinel) {
		seen = append(seen, n)
		n.Remove()
	}
	slices.Reverse(seen)
	assert.Equal(t, nodes, seen)
	assertSolitary(t, sentinel)
}

func TestAll_RemoveSuccessor(t *testing.T) {
	sentinel, nodes := newRing(5)
	var seen []*Node
	for n := range All(sentinel) {
		seen = append(seen, n)
		if n == nodes[1] {
			nodes[2].Remove()
		}
	}
	assert.Equal(t, []*Node{nodes[0], nodes[1], nodes[3], nodes[4]}, seen)
	require.NoError(t, Validate(sentinel))
}

func TestAll_RemoveCurrentAndSuccessor(t *testing.T) {
	sentinel, nodes := newRing(5)
	before := utils.GetMetricValue("dll", "traversal_detached")
	var seen []*Node
	for n := range All(sentinel) {
		seen = append(seen, n)
		if n == nodes[1] {
			nodes[1].Remove()
			nodes[2].Remove()
		}
	}
	assert.Equal(t, []*Node{nodes[0], nodes[1]}, seen, "Traversal should stop instead of spinning")
	assert.Equal(t, before+1, utils.GetMetricValue("dll", "traversal_detached"))
	require.NoError(t, Validate(sentinel))
}

func TestAll_RelinkSuccessorMovesCursor(t *testing.T) {
	sentinel, nodes := newRing(5)
	var seen []*Node
	for n := range All(sentinel) {
		seen = append(seen, n)
		if n == nodes[1] {
			nodes[2].Remove()
			sentinel.PushBack(nodes[2])
		}
	}
	assert.Equal(t, []*Node{nodes[0], nodes[1], nodes[2]}, seen, "Nodes jumped over by the moved successor are skipped")
	assert.Equal(t, []*Node{nodes[0], nodes[1], nodes[3], nodes[4], nodes[2]}, collect(All(sentinel)))
	require.NoError(t, Validate(sentinel))
}

func TestAll_InsertAfterCurrentIsSkipped(t *testing.T) {
	sentinel, nodes := newRing(2)
	var extra Node
	var seen []*Node
	for n := range All(sentinel) {
		seen = append(seen, n)
		if n == nodes[0] {
			n.InsertAfter(extra.Init())
		}
	}
	assert.Equal(t, nodes, seen)
	assert.Equal(t, []*Node{nodes[0], &extra, nodes[1]}, collect(All(sentinel)))
}

func TestValidate(t *testing.T) {
	t.Run("consistent", func(t *testing.T) {
		sentinel, _ := newRing(4)
		assert.NoError(t, Validate(sentinel))
	})

	t.Run("broken_back_link", func(t *testing.T) {
		sentinel, nodes := newRing(4)
		nodes[2].prev = nodes[0]
		assert.ErrorIs(t, Validate(sentinel), ErrBrokenRing)
	})

	t.Run("nil_link", func(t *testing.T) {
		sentinel, nodes := newRing(3)
		nodes[1].next = nil
		assert.ErrorIs(t, Validate(sentinel), ErrBrokenRing)
	})

	t.Run("half_initialized", func(t *testing.T) {
		n := &Node{}
		n.prev = n
		assert.ErrorIs(t, Validate(n), ErrBrokenRing)
	})

	t.Run("too_long", func(t *testing.T) {
		prev := MaxValidateSteps
		MaxValidateSteps = 2
		t.Cleanup(func() { MaxValidateSteps = prev })

		sentinel, _ := newRing(5)
		assert.ErrorIs(t, Validate(sentinel), ErrRingTooLong)
	})
}
