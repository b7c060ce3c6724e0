// Package bst implements an unbalanced binary search tree that owns all
// structural mutation: the insert walk, delete by successor swap, splicing
// and rotations.
//
// Balancing is not done here. A Hooks implementation is injected at
// construction and is called after a node is attached, after a two-child
// node is swapped with its in-order successor, and after a node is spliced
// out. Policies (see package redblack) react to those events by retagging
// nodes and requesting rotations.
//
// A Tree is not safe for concurrent use.
package bst
