package redblack

import (
	"fmt"
	"io"
	"strings"

	"rbkv/domain/bst"
)

// Dump writes the tree shape pre-order, one node per line, indented by
// depth: "key [color] (parent key)".
func (t *Tree[K, V]) Dump(w io.Writer) error {
	return dumpNode(w, t.base.Root(), 0)
}

func dumpNode[K, V any](w io.Writer, n *bst.Node[K, V], depth int) error {
	if n == nil {
		return nil
	}
	parent := "nil"
	if p := n.Parent(); p != nil {
		parent = fmt.Sprint(p.Key())
	}
	if _, err := fmt.Fprintf(w, "%s%v [%s] (%s)\n", strings.Repeat("  ", depth), n.Key(), colorOf(n), parent); err != nil {
		return err
	}
	if err := dumpNode(w, n.Left(), depth+1); err != nil {
		return err
	}
	return dumpNode(w, n.Right(), depth+1)
}
