// Package redblack is an ordered key/value container balanced as a
// red-black tree. The structural work is done by package bst; this package
// only recolors nodes and asks for rotations from the bst hooks.
//
// A Tree is not safe for concurrent use; callers serialize access.
package redblack

import (
	"cmp"
	"iter"

	"github.com/cockroachdb/errors"

	"rbkv/domain/bst"
)

type options struct {
	selfCheck bool
}

// Option configures a Tree.
type Option func(*options)

// WithSelfCheck verifies every invariant after each mutation and panics on
// the first violation. It turns every operation into O(n); use it in tests.
func WithSelfCheck() Option {
	return func(o *options) { o.selfCheck = true }
}

// Tree is a red-black balanced ordered map.
type Tree[K, V any] struct {
	base      *bst.Tree[K, V]
	selfCheck bool
}

// New returns an empty tree ordered by the 3-way comparator cmp.
func New[K, V any](cmp bst.Compare[K], opts ...Option) *Tree[K, V] {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	return &Tree[K, V]{
		base:      bst.New[K, V](cmp, policy[K, V]{}),
		selfCheck: o.selfCheck,
	}
}

// NewOrdered returns an empty tree using the natural order of K.
func NewOrdered[K cmp.Ordered, V any](opts ...Option) *Tree[K, V] {
	return New[K, V](cmp.Compare[K], opts...)
}

// Insert stores value under key and reports whether a new node was created.
// An existing key keeps its node and only the value changes.
func (t *Tree[K, V]) Insert(key K, value V) bool {
	inserted := t.base.Insert(key, value)
	t.mustVerify()
	return inserted
}

// Remove deletes key. Removing a missing key is a no-op that reports false.
func (t *Tree[K, V]) Remove(key K) bool {
	removed := t.base.Remove(key)
	t.mustVerify()
	return removed
}

func (t *Tree[K, V]) Find(key K) (V, bool) { return t.base.Find(key) }

func (t *Tree[K, V]) Len() int { return t.base.Len() }

// Height returns the number of nodes on the longest root-to-leaf path. It
// never exceeds 2*log2(Len()+1).
func (t *Tree[K, V]) Height() int { return t.base.Height() }

// All yields the entries in ascending key order.
func (t *Tree[K, V]) All() iter.Seq2[K, V] { return t.base.All() }

// Clear drops every entry.
func (t *Tree[K, V]) Clear() { t.base.Clear() }

// Verify checks the structural invariants of the underlying search tree and
// the coloring rules: black root, no red node with a red child and the same
// black-height on every path. Violations are assertion failures naming the
// offending node.
func (t *Tree[K, V]) Verify() error {
	if err := t.base.Check(); err != nil {
		return err
	}
	root := t.base.Root()
	if colorOf(root) != Black {
		return errors.AssertionFailedf("root %v is red", root.Key())
	}
	_, err := blackHeight(root)
	return err
}

func (t *Tree[K, V]) mustVerify() {
	if !t.selfCheck {
		return
	}
	if err := t.Verify(); err != nil {
		panic(err)
	}
}

// blackHeight returns the black node count from n down to any nil leaf,
// counting the leaf itself.
func blackHeight[K, V any](n *bst.Node[K, V]) (int, error) {
	if n == nil {
		return 1, nil
	}
	if colorOf(n) == Red && (colorOf(n.Left()) == Red || colorOf(n.Right()) == Red) {
		return 0, errors.AssertionFailedf("red node %v has a red child", n.Key())
	}
	lh, err := blackHeight(n.Left())
	if err != nil {
		return 0, err
	}
	rh, err := blackHeight(n.Right())
	if err != nil {
		return 0, err
	}
	if lh != rh {
		return 0, errors.AssertionFailedf("black-height mismatch under %v: left %d, right %d", n.Key(), lh, rh)
	}
	if colorOf(n) == Black {
		lh++
	}
	return lh, nil
}
