package bst

import "iter"

// Compare is a 3-way comparator: negative when a orders before b, zero when
// they are equal, positive otherwise.
type Compare[K any] func(a, b K) int

// Removal describes a node that has just been spliced out of the tree.
//
// Replacement is the child promoted into the vacated slot and may be nil.
// Parent and Side locate that slot, so a policy can find the sibling even
// when Replacement is nil. Parent is nil when the root was removed.
type Removal[K, V any] struct {
	Node        *Node[K, V]
	Replacement *Node[K, V]
	Parent      *Node[K, V]
	Side        Side
}

// Hooks are the extension points a balance policy plugs into.
type Hooks[K, V any] interface {
	// AfterInsert runs once a new node has been attached. It is not called
	// when an existing key is overwritten.
	AfterInsert(t *Tree[K, V], n *Node[K, V])
	// AfterSwap runs after target, which had two children, exchanged tree
	// positions with its in-order successor.
	AfterSwap(t *Tree[K, V], target, successor *Node[K, V])
	// AfterRemove runs after a node has been spliced out.
	AfterRemove(t *Tree[K, V], r Removal[K, V])
}

// NopHooks leaves the tree unbalanced.
type NopHooks[K, V any] struct{}

func (NopHooks[K, V]) AfterInsert(*Tree[K, V], *Node[K, V])            {}
func (NopHooks[K, V]) AfterSwap(*Tree[K, V], *Node[K, V], *Node[K, V]) {}
func (NopHooks[K, V]) AfterRemove(*Tree[K, V], Removal[K, V])          {}

// Tree is an ordered map from K to V.
type Tree[K, V any] struct {
	root  *Node[K, V]
	cmp   Compare[K]
	hooks Hooks[K, V]
	size  int
}

// New returns an empty tree ordered by cmp. A nil hooks leaves the tree
// unbalanced.
func New[K, V any](cmp Compare[K], hooks Hooks[K, V]) *Tree[K, V] {
	if cmp == nil {
		panic("bst: nil comparator")
	}
	if hooks == nil {
		hooks = NopHooks[K, V]{}
	}
	return &Tree[K, V]{cmp: cmp, hooks: hooks}
}

func (t *Tree[K, V]) Root() *Node[K, V] { return t.root }

// Len returns the number of nodes.
func (t *Tree[K, V]) Len() int { return t.size }

// Height returns the number of nodes on the longest root-to-leaf path, 0 for
// an empty tree.
func (t *Tree[K, V]) Height() int { return height(t.root) }

// Find returns the value stored under key.
func (t *Tree[K, V]) Find(key K) (V, bool) {
	if n := t.findNode(key); n != nil {
		return n.value, true
	}
	var zero V
	return zero, false
}

// Insert stores value under key. An existing key has its value replaced in
// place and Insert reports false; no hook fires in that case.
func (t *Tree[K, V]) Insert(key K, value V) bool {
	var parent *Node[K, V]
	side := Left
	for cur := t.root; cur != nil; {
		c := t.cmp(key, cur.key)
		if c == 0 {
			cur.value = value
			return false
		}
		parent = cur
		if c < 0 {
			side, cur = Left, cur.left
		} else {
			side, cur = Right, cur.right
		}
	}

	n := &Node[K, V]{key: key, value: value, parent: parent}
	switch {
	case parent == nil:
		t.root = n
	case side == Left:
		parent.left = n
	default:
		parent.right = n
	}
	t.size++
	t.hooks.AfterInsert(t, n)
	return true
}

// Remove deletes key and reports whether it was present.
func (t *Tree[K, V]) Remove(key K) bool {
	n := t.findNode(key)
	if n == nil {
		return false
	}

	if n.left != nil && n.right != nil {
		succ := leftmost(n.right)
		t.swap(n, succ)
		t.hooks.AfterSwap(t, n, succ)
	}

	// n has at most one child now.
	child := n.left
	if child == nil {
		child = n.right
	}
	parent := n.parent
	side := Left
	if parent != nil {
		side = n.Side()
	}
	t.replaceChild(parent, n, child)
	if child != nil {
		child.parent = parent
	}
	t.size--

	t.hooks.AfterRemove(t, Removal[K, V]{
		Node:        n,
		Replacement: child,
		Parent:      parent,
		Side:        side,
	})
	n.parent, n.left, n.right = nil, nil, nil
	return true
}

// Clear drops every node.
func (t *Tree[K, V]) Clear() {
	t.root = nil
	t.size = 0
}

// All yields every entry in ascending key order. The tree must not be
// mutated during iteration.
func (t *Tree[K, V]) All() iter.Seq2[K, V] {
	return func(yield func(K, V) bool) {
		if t.root == nil {
			return
		}
		for n := leftmost(t.root); n != nil; n = next(n) {
			if !yield(n.key, n.value) {
				return
			}
		}
	}
}

// RotateLeft promotes n's right child into n's position.
func (t *Tree[K, V]) RotateLeft(n *Node[K, V]) {
	pivot := n.right
	if pivot == nil {
		panic("bst: RotateLeft without right child")
	}
	n.right = pivot.left
	if pivot.left != nil {
		pivot.left.parent = n
	}
	t.replaceChild(n.parent, n, pivot)
	pivot.parent = n.parent
	pivot.left = n
	n.parent = pivot
}

// RotateRight promotes n's left child into n's position.
func (t *Tree[K, V]) RotateRight(n *Node[K, V]) {
	pivot := n.left
	if pivot == nil {
		panic("bst: RotateRight without left child")
	}
	n.left = pivot.right
	if pivot.right != nil {
		pivot.right.parent = n
	}
	t.replaceChild(n.parent, n, pivot)
	pivot.parent = n.parent
	pivot.right = n
	n.parent = pivot
}

/******************** Internal helpers ********************/

func (t *Tree[K, V]) findNode(key K) *Node[K, V] {
	n := t.root
	for n != nil {
		c := t.cmp(key, n.key)
		switch {
		case c < 0:
			n = n.left
		case c > 0:
			n = n.right
		default:
			return n
		}
	}
	return nil
}

// replaceChild points whichever link held old (parent's child or the root)
// at repl. It does not touch repl.parent.
func (t *Tree[K, V]) replaceChild(parent, old, repl *Node[K, V]) {
	switch {
	case parent == nil:
		t.root = repl
	case parent.left == old:
		parent.left = repl
	default:
		parent.right = repl
	}
}

// swap exchanges the tree positions of target and succ, its in-order
// successor. Keys and values stay on their node objects. succ has no left
// child and may be target's own right child.
func (t *Tree[K, V]) swap(target, succ *Node[K, V]) {
	tParent, tLeft, tRight := target.parent, target.left, target.right
	sParent, sRight := succ.parent, succ.right

	t.replaceChild(tParent, target, succ)
	succ.parent = tParent

	if sParent == target {
		succ.right = target
		target.parent = succ
	} else {
		sParent.left = target
		target.parent = sParent
		succ.right = tRight
		tRight.parent = succ
	}

	succ.left = tLeft
	tLeft.parent = succ

	target.left = nil
	target.right = sRight
	if sRight != nil {
		sRight.parent = target
	}
}
