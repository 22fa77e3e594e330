package pointcloud

import (
	"math"
	"sort"

	"github.com/golang/geo/r3"
)

// leafSize is the point-count threshold below which a subtree becomes a
// leaf rather than splitting again.
const leafSize = 16

// kdNode is either a leaf (Indices populated, everything else zero) or an
// internal node splitting on Axis at the point stored at Index, with Left
// and Right covering the points at-or-below and at-or-above the split value.
type kdNode struct {
	leaf    bool
	indices []int // leaf only

	axis        int
	splitValue  float64
	index       int // index of the point stored at this internal node
	left, right *kdNode
}

// KDTree is a balanced KD-tree over a fixed point set, built once and
// queried many times. Unlike a naive descend-only traversal, NearestNeighbor
// performs proper best-first branch-and-bound so it always returns the true
// nearest neighbor.
type KDTree struct {
	points []r3.Vector
	root   *kdNode
}

// NewKDTree builds a KD-tree over points. At depth d, a subtree with more than
// leafSize points is split along axis d mod 3 at the median index;
// subtrees with leafSize or fewer points become leaves.
func NewKDTree(points []r3.Vector) *KDTree {
	t := &KDTree{points: points}
	indices := make([]int, len(points))
	for i := range indices {
		indices[i] = i
	}
	t.root = t.build(indices, 0)
	return t
}

func (t *KDTree) coord(i, axis int) float64 {
	switch axis {
	case 0:
		return t.points[i].X
	case 1:
		return t.points[i].Y
	default:
		return t.points[i].Z
	}
}

func (t *KDTree) build(indices []int, depth int) *kdNode {
	if len(indices) == 0 {
		return nil
	}
	if len(indices) <= leafSize {
		return &kdNode{leaf: true, indices: indices}
	}

	axis := depth % 3
	sort.Slice(indices, func(a, b int) bool {
		return t.coord(indices[a], axis) < t.coord(indices[b], axis)
	})

	mid := len(indices) / 2
	medianIdx := indices[mid]

	node := &kdNode{
		axis:       axis,
		splitValue: t.coord(medianIdx, axis),
		index:      medianIdx,
	}
	node.left = t.build(indices[:mid], depth+1)
	node.right = t.build(indices[mid+1:], depth+1)
	return node
}

type nnState struct {
	bestIdx    int
	bestDistSq float64
	found      bool
}

// NearestNeighbor returns the nearest point to q, its index into the
// original points slice, and the squared distance. found is false only
// when the tree is empty.
func (t *KDTree) NearestNeighbor(q r3.Vector) (point r3.Vector, index int, distSq float64, found bool) {
	if t.root == nil {
		return r3.Vector{}, -1, 0, false
	}
	st := &nnState{bestDistSq: math.MaxFloat64}
	t.search(t.root, q, st)
	return t.points[st.bestIdx], st.bestIdx, st.bestDistSq, st.found
}

func (t *KDTree) search(n *kdNode, q r3.Vector, st *nnState) {
	if n == nil {
		return
	}
	if n.leaf {
		for _, idx := range n.indices {
			d := t.points[idx].Sub(q).Norm2()
			if d < st.bestDistSq {
				st.bestDistSq = d
				st.bestIdx = idx
				st.found = true
			}
		}
		return
	}

	d := t.points[n.index].Sub(q).Norm2()
	if d < st.bestDistSq {
		st.bestDistSq = d
		st.bestIdx = n.index
		st.found = true
	}

	var qCoord float64
	switch n.axis {
	case 0:
		qCoord = q.X
	case 1:
		qCoord = q.Y
	default:
		qCoord = q.Z
	}

	diff := qCoord - n.splitValue
	near, far := n.left, n.right
	if diff > 0 {
		near, far = n.right, n.left
	}

	t.search(near, q, st)
	// Only descend into the far branch if the splitting hyperplane is
	// closer than the current best candidate — proper branch-and-bound
	// pruning, not the approximate near-side-only descent.
	if diff*diff < st.bestDistSq {
		t.search(far, q, st)
	}
}

// Len returns the number of points the tree was built over.
func (t *KDTree) Len() int { return len(t.points) }
