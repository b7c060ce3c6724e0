package redblack

import "rbkv/domain/bst"

type Color uint8

// Red is the zero tag so freshly attached nodes start red.
const (
	Red   Color = 0
	Black Color = 1
)

func (c Color) String() string {
	if c == Red {
		return "red"
	}
	return "black"
}

// colorOf treats nil leaves as black.
func colorOf[K, V any](n *bst.Node[K, V]) Color {
	if n == nil {
		return Black
	}
	return Color(n.Tag())
}

func setColor[K, V any](n *bst.Node[K, V], c Color) {
	n.SetTag(uint8(c))
}

// rotateToward rotates at n so that n moves down on side s.
func rotateToward[K, V any](t *bst.Tree[K, V], n *bst.Node[K, V], s bst.Side) {
	if s == bst.Left {
		t.RotateLeft(n)
	} else {
		t.RotateRight(n)
	}
}

// policy keeps the red-black invariants through the bst hooks.
type policy[K, V any] struct{}

func (policy[K, V]) AfterInsert(t *bst.Tree[K, V], n *bst.Node[K, V]) {
	for {
		parent := n.Parent()
		if parent == nil {
			setColor(n, Black)
			return
		}
		if colorOf(parent) == Black {
			return
		}

		// A red parent is never the root, so the grandparent exists.
		grand := parent.Parent()
		uncle := n.Uncle()
		if colorOf(uncle) == Red {
			setColor(parent, Black)
			setColor(uncle, Black)
			setColor(grand, Red)
			n = grand
			continue
		}

		// Straighten a zig-zag so n, parent and grand sit on one line.
		if n == parent.Right() && parent == grand.Left() {
			t.RotateLeft(parent)
			n, parent = parent, n
		} else if n == parent.Left() && parent == grand.Right() {
			t.RotateRight(parent)
			n, parent = parent, n
		}

		setColor(parent, Black)
		setColor(grand, Red)
		if n == parent.Left() {
			t.RotateRight(grand)
		} else {
			t.RotateLeft(grand)
		}
		return
	}
}

// AfterSwap exchanges colors: the color describes the slot's black-height
// contribution and the two nodes just exchanged slots.
func (policy[K, V]) AfterSwap(_ *bst.Tree[K, V], target, successor *bst.Node[K, V]) {
	tc, sc := colorOf(target), colorOf(successor)
	setColor(target, sc)
	setColor(successor, tc)
}

func (policy[K, V]) AfterRemove(t *bst.Tree[K, V], r bst.Removal[K, V]) {
	if colorOf(r.Node) == Red {
		return
	}
	if colorOf(r.Replacement) == Red {
		setColor(r.Replacement, Black)
		return
	}

	// The slot at parent/side is one black short.
	parent, side := r.Parent, r.Side
	for parent != nil {
		sibling := parent.Child(side.Opposite())
		if colorOf(sibling) == Red {
			setColor(sibling, Black)
			setColor(parent, Red)
			rotateToward(t, parent, side)
			sibling = parent.Child(side.Opposite())
		}

		near, far := sibling.Child(side), sibling.Child(side.Opposite())
		if colorOf(near) == Black && colorOf(far) == Black {
			setColor(sibling, Red)
			if colorOf(parent) == Red {
				setColor(parent, Black)
				return
			}
			if parent.Parent() != nil {
				side = parent.Side()
			}
			parent = parent.Parent()
			continue
		}

		if colorOf(far) == Black {
			setColor(near, Black)
			setColor(sibling, Red)
			rotateToward(t, sibling, side.Opposite())
			far, sibling = sibling, near
		}

		setColor(sibling, colorOf(parent))
		setColor(parent, Black)
		setColor(far, Black)
		rotateToward(t, parent, side)
		return
	}
}
