package redblack

import (
	"fmt"
	"maps"
	"math"
	"math/rand"
	"slices"
	"strings"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rbkv/domain/bst"
)

func newIntTree(keys ...int) *Tree[int, int] {
	tree := NewOrdered[int, int](WithSelfCheck())
	for _, k := range keys {
		tree.Insert(k, k*10)
	}
	return tree
}

func keysOf(tree *Tree[int, int]) []int {
	var out []int
	for k := range tree.All() {
		out = append(out, k)
	}
	return out
}

// nodeAt follows a path of 'l'/'r' steps from the root.
func nodeAt(tree *Tree[int, int], path string) *bst.Node[int, int] {
	n := tree.base.Root()
	for _, step := range path {
		if step == 'l' {
			n = n.Left()
		} else {
			n = n.Right()
		}
	}
	return n
}

func assertNode(t *testing.T, tree *Tree[int, int], path string, key int, c Color) {
	t.Helper()
	n := nodeAt(tree, path)
	require.NotNil(t, n, "no node at %q", path)
	assert.Equal(t, key, n.Key(), "key at %q", path)
	assert.Equal(t, c, colorOf(n), "color of %d", key)
}

func heightBound(n int) int {
	return int(math.Floor(2 * math.Log2(float64(n+1))))
}

func TestEmptyTreeIsValid(t *testing.T) {
	tree := NewOrdered[string, string]()

	require.NoError(t, tree.Verify())
	assert.Equal(t, 0, tree.Height())
	assert.False(t, tree.Remove("x"))
	_, ok := tree.Find("x")
	assert.False(t, ok)
}

func TestInsertScenarioMixed(t *testing.T) {
	tree := newIntTree(10, 20, 5, 15, 25, 3)

	require.NoError(t, tree.Verify())
	assert.Contains(t, []int{10, 20}, tree.base.Root().Key())
	assert.Equal(t, []int{3, 5, 10, 15, 20, 25}, keysOf(tree))
	for _, k := range []int{10, 20, 5, 15, 25, 3} {
		v, ok := tree.Find(k)
		require.True(t, ok)
		assert.Equal(t, k*10, v)
	}
}

func TestInsertAscendingSeven(t *testing.T) {
	tree := newIntTree(1, 2, 3, 4, 5, 6, 7)

	require.NoError(t, tree.Verify())
	// The longest path 2-4-6-7 has three edges.
	assert.LessOrEqual(t, tree.Height()-1, 3)
	assert.Equal(t, 2, tree.base.Root().Key())
	assertNode(t, tree, "r", 4, Red)
	assertNode(t, tree, "rr", 6, Black)
}

func TestInsertRecolorCascade(t *testing.T) {
	tree := newIntTree(10, 5, 20)
	assertNode(t, tree, "l", 5, Red)
	assertNode(t, tree, "r", 20, Red)

	// Red parent and red uncle: both turn black, the root is recolored back.
	tree.Insert(15, 150)
	assertNode(t, tree, "", 10, Black)
	assertNode(t, tree, "l", 5, Black)
	assertNode(t, tree, "r", 20, Black)
	assertNode(t, tree, "rl", 15, Red)
}

func TestInsertZigZagRotatesTwice(t *testing.T) {
	tree := newIntTree(10, 5, 7)

	assertNode(t, tree, "", 7, Black)
	assertNode(t, tree, "l", 5, Red)
	assertNode(t, tree, "r", 10, Red)

	tree = newIntTree(10, 20, 15)
	assertNode(t, tree, "", 15, Black)
	assertNode(t, tree, "l", 10, Red)
	assertNode(t, tree, "r", 20, Red)
}

func TestOverwriteKeepsNodeCount(t *testing.T) {
	tree := newIntTree(1, 2, 3)

	assert.False(t, tree.Insert(2, 99))
	assert.Equal(t, 3, tree.Len())
	v, ok := tree.Find(2)
	require.True(t, ok)
	assert.Equal(t, 99, v)
}

func TestRemoveBlackLeafWithRedSibling(t *testing.T) {
	tree := newIntTree(10, 5, 20, 15, 25, 30)
	assertNode(t, tree, "r", 20, Red)
	assertNode(t, tree, "l", 5, Black)

	require.True(t, tree.Remove(5))

	require.NoError(t, tree.Verify())
	assertNode(t, tree, "", 20, Black)
	assertNode(t, tree, "l", 10, Black)
	assertNode(t, tree, "lr", 15, Red)
	assertNode(t, tree, "r", 25, Black)
	assertNode(t, tree, "rr", 30, Red)
	assert.Nil(t, nodeAt(tree, "ll"))
}

func TestRemoveNearRedNephew(t *testing.T) {
	tree := newIntTree(10, 5, 20, 15)

	require.True(t, tree.Remove(5))

	assertNode(t, tree, "", 15, Black)
	assertNode(t, tree, "l", 10, Black)
	assertNode(t, tree, "r", 20, Black)
}

func TestRemoveFarRedNephew(t *testing.T) {
	tree := newIntTree(10, 5, 20, 25)

	require.True(t, tree.Remove(5))

	assertNode(t, tree, "", 20, Black)
	assertNode(t, tree, "l", 10, Black)
	assertNode(t, tree, "r", 25, Black)
}

func TestRemoveWithRedReplacement(t *testing.T) {
	tree := newIntTree(10, 5, 20, 3)

	require.True(t, tree.Remove(5))

	assertNode(t, tree, "l", 3, Black)
	assert.Equal(t, []int{3, 10, 20}, keysOf(tree))
}

func TestRemoveBlackSiblingBlackChildren(t *testing.T) {
	tree := newIntTree(10, 5, 20, 1)
	require.True(t, tree.Remove(1))
	assertNode(t, tree, "l", 5, Black)
	assertNode(t, tree, "r", 20, Black)

	require.True(t, tree.Remove(5))

	assertNode(t, tree, "", 10, Black)
	assertNode(t, tree, "r", 20, Red)
	assert.Nil(t, nodeAt(tree, "l"))
}

func TestRemoveTwoChildNodeSwapsColors(t *testing.T) {
	tree := newIntTree(10, 5, 20, 15, 25, 30)

	// 20 is red with two black children; its successor 25 is black.
	require.True(t, tree.Remove(20))

	require.NoError(t, tree.Verify())
	assert.Equal(t, []int{5, 10, 15, 25, 30}, keysOf(tree))
	_, ok := tree.Find(20)
	assert.False(t, ok)
}

func TestRemoveUntilEmpty(t *testing.T) {
	keys := []int{8, 3, 10, 1, 6, 14, 4, 7, 13}
	tree := newIntTree(keys...)

	for i, k := range keys {
		require.True(t, tree.Remove(k))
		assert.False(t, tree.Remove(k))
		assert.Equal(t, len(keys)-i-1, tree.Len())
		for _, rest := range keys[i+1:] {
			v, ok := tree.Find(rest)
			require.True(t, ok)
			assert.Equal(t, rest*10, v)
		}
	}
	assert.Nil(t, tree.base.Root())
}

func TestHeightBound(t *testing.T) {
	tree := NewOrdered[int, struct{}]()
	for n := 1; n <= 4096; n++ {
		tree.Insert(n, struct{}{})
		require.LessOrEqual(t, tree.Height(), heightBound(n), "n=%d", n)
	}
	require.NoError(t, tree.Verify())

	for n := 4096; n > 1; n -= 2 {
		tree.Remove(n)
	}
	require.NoError(t, tree.Verify())
	assert.LessOrEqual(t, tree.Height(), heightBound(tree.Len()))
}

// requireSameContents checks that an in-order walk of tree yields exactly
// the entries of expect, in ascending key order.
func requireSameContents(t *testing.T, tree *Tree[int, int], expect map[int]int, op int) {
	t.Helper()
	n := 0
	prev := math.MinInt
	for k, v := range tree.All() {
		require.Greater(t, k, prev, "op %d: walk out of order", op)
		want, ok := expect[k]
		require.True(t, ok, "op %d: unexpected key %d", op, k)
		require.Equal(t, want, v, "op %d: value of key %d", op, k)
		prev = k
		n++
	}
	require.Equal(t, len(expect), n, "op %d: walk length", op)
}

func TestRandomAgainstReference(t *testing.T) {
	for _, seed := range []int64{1, 7, 42} {
		t.Run(fmt.Sprintf("seed=%d", seed), func(t *testing.T) {
			rng := rand.New(rand.NewSource(seed))
			tree := NewOrdered[int, int]()
			expect := map[int]int{}

			for op := range 5000 {
				k := rng.Intn(512)
				if rng.Intn(3) == 0 {
					_, had := expect[k]
					require.Equal(t, had, tree.Remove(k))
					delete(expect, k)
				} else {
					v := rng.Int()
					_, had := expect[k]
					require.Equal(t, !had, tree.Insert(k, v))
					expect[k] = v
				}

				require.NoError(t, tree.Verify(), "op %d", op)
				require.Equal(t, len(expect), tree.Len())
				require.LessOrEqual(t, tree.Height(), heightBound(tree.Len()))
				requireSameContents(t, tree, expect, op)
			}

			want := slices.Sorted(maps.Keys(expect))
			assert.Equal(t, want, keysOf(tree))
		})
	}
}

func TestCustomComparator(t *testing.T) {
	tree := New[string, int](func(a, b string) int {
		return strings.Compare(strings.ToLower(a), strings.ToLower(b))
	})

	tree.Insert("Alpha", 1)
	tree.Insert("alpha", 2)
	tree.Insert("beta", 3)

	assert.Equal(t, 2, tree.Len())
	v, ok := tree.Find("ALPHA")
	require.True(t, ok)
	assert.Equal(t, 2, v)
}

func TestVerifyReportsRedRoot(t *testing.T) {
	tree := newIntTree(10, 5, 20)
	setColor(tree.base.Root(), Red)

	err := tree.Verify()
	require.Error(t, err)
	assert.True(t, errors.HasAssertionFailure(err))
	assert.Contains(t, err.Error(), "root 10 is red")
}

func TestVerifyReportsRedRed(t *testing.T) {
	tree := newIntTree(10, 5, 20, 3)
	setColor(nodeAt(tree, "l"), Red)

	err := tree.Verify()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "red node 5 has a red child")
}

func TestVerifyReportsBlackHeightMismatch(t *testing.T) {
	tree := newIntTree(10, 5, 20, 3)
	setColor(nodeAt(tree, "ll"), Black)

	err := tree.Verify()
	require.Error(t, err)
	assert.True(t, errors.HasAssertionFailure(err))
	assert.Contains(t, err.Error(), "black-height mismatch under 5")
}

func TestSelfCheckPanicsOnCorruption(t *testing.T) {
	tree := newIntTree(10, 5, 20, 3, 15, 25)
	setColor(nodeAt(tree, "ll"), Black)

	assert.Panics(t, func() { tree.Insert(30, 300) })
}

func TestDump(t *testing.T) {
	tree := newIntTree(10, 20, 5, 15, 25, 3)

	var sb strings.Builder
	require.NoError(t, tree.Dump(&sb))
	assert.Equal(t, strings.Join([]string{
		"10 [black] (nil)",
		"  5 [black] (10)",
		"    3 [red] (5)",
		"  20 [black] (10)",
		"    15 [red] (20)",
		"    25 [red] (20)",
		"",
	}, "\n"), sb.String())
}

func TestClear(t *testing.T) {
	tree := newIntTree(1, 2, 3)
	tree.Clear()

	assert.Equal(t, 0, tree.Len())
	assert.Empty(t, keysOf(tree))
	require.NoError(t, tree.Verify())
}
