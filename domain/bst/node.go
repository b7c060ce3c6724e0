package bst

// Side names the child link of a parent that a node hangs from.
type Side uint8

const (
	Left Side = iota
	Right
)

// Opposite returns the other side.
func (s Side) Opposite() Side {
	if s == Left {
		return Right
	}
	return Left
}

func (s Side) String() string {
	if s == Left {
		return "left"
	}
	return "right"
}

// Node is a single key/value entry of a Tree.
//
// The tag byte belongs to whatever balance policy drives the tree; the
// ordered tree itself never reads it.
type Node[K, V any] struct {
	key   K
	value V
	tag   uint8

	parent *Node[K, V]
	left   *Node[K, V]
	right  *Node[K, V]
}

func (n *Node[K, V]) Key() K   { return n.key }
func (n *Node[K, V]) Value() V { return n.value }

// Tag returns the policy metadata attached to the node.
func (n *Node[K, V]) Tag() uint8 { return n.tag }

// SetTag replaces the policy metadata attached to the node.
func (n *Node[K, V]) SetTag(tag uint8) { n.tag = tag }

func (n *Node[K, V]) Parent() *Node[K, V] { return n.parent }
func (n *Node[K, V]) Left() *Node[K, V]   { return n.left }
func (n *Node[K, V]) Right() *Node[K, V]  { return n.right }

// Child returns the child on the given side.
func (n *Node[K, V]) Child(s Side) *Node[K, V] {
	if s == Left {
		return n.left
	}
	return n.right
}

// Side reports which child of its parent n is. Only valid for non-root nodes.
func (n *Node[K, V]) Side() Side {
	if n.parent.left == n {
		return Left
	}
	return Right
}

func (n *Node[K, V]) Grandparent() *Node[K, V] {
	if n.parent == nil {
		return nil
	}
	return n.parent.parent
}

func (n *Node[K, V]) Sibling() *Node[K, V] {
	if n.parent == nil {
		return nil
	}
	if n.parent.left == n {
		return n.parent.right
	}
	return n.parent.left
}

func (n *Node[K, V]) Uncle() *Node[K, V] {
	if n.parent == nil {
		return nil
	}
	return n.parent.Sibling()
}

func leftmost[K, V any](n *Node[K, V]) *Node[K, V] {
	for n.left != nil {
		n = n.left
	}
	return n
}

// next returns the in-order successor of n, or nil.
func next[K, V any](n *Node[K, V]) *Node[K, V] {
	if n.right != nil {
		return leftmost(n.right)
	}
	p := n.parent
	for p != nil && n == p.right {
		n = p
		p = p.parent
	}
	return p
}

func height[K, V any](n *Node[K, V]) int {
	if n == nil {
		return 0
	}
	return 1 + max(height(n.left), height(n.right))
}
