package bst

import "github.com/cockroachdb/errors"

// Check walks the whole tree and verifies the parent back-links, the strict
// key order and the node count. A non-nil result is an assertion failure
// and means the mutation code is broken; it is meant for tests and
// self-verification only.
func (t *Tree[K, V]) Check() error {
	if t.root != nil && t.root.parent != nil {
		return errors.AssertionFailedf("root %v has parent %v", t.root.key, t.root.parent.key)
	}

	var (
		prev  *Node[K, V]
		count int
	)
	var walk func(n *Node[K, V]) error
	walk = func(n *Node[K, V]) error {
		if n == nil {
			return nil
		}
		if n.left != nil && n.left.parent != n {
			return errors.AssertionFailedf("parent(%v) != %v", n.left.key, n.key)
		}
		if n.right != nil && n.right.parent != n {
			return errors.AssertionFailedf("parent(%v) != %v", n.right.key, n.key)
		}
		if err := walk(n.left); err != nil {
			return err
		}
		if prev != nil && t.cmp(prev.key, n.key) >= 0 {
			return errors.AssertionFailedf("key %v is not ordered after %v", n.key, prev.key)
		}
		prev = n
		count++
		return walk(n.right)
	}
	if err := walk(t.root); err != nil {
		return err
	}

	if count != t.size {
		return errors.AssertionFailedf("tree holds %d nodes but records %d", count, t.size)
	}
	return nil
}
