package xgboost

import (
	"math"
)

// rootParent is the parent id XGBoost stores for a root node.
const rootParent = math.MaxInt32

// RegTree is a regression tree in XGBoost's array layout. Node 0 is the root;
// a node is a leaf when its left child is -1, and then SplitConditions holds
// its output value.
type RegTree struct {
	LeftChildren    []int
	RightChildren   []int
	Parents         []int
	SplitIndices    []int
	SplitConditions []float32
	DefaultLeft     []bool
	BaseWeights     []float32
	LossChanges     []float32
	SumHessian      []float32
	NumFeature      int
}

// NumNodes returns the number of nodes, leaves included.
func (t *RegTree) NumNodes() int {
	return len(t.LeftChildren)
}

// IsLeaf reports whether node nid has no children.
func (t *RegTree) IsLeaf(nid int) bool {
	return t.LeftChildren[nid] == -1
}

// NumLeaves counts the leaves.
func (t *RegTree) NumLeaves() int {
	n := 0
	for nid := range t.LeftChildren {
		if t.IsLeaf(nid) {
			n++
		}
	}
	return n
}

// Depth returns the length of the longest root-to-leaf path.
func (t *RegTree) Depth() int {
	var walk func(nid int) int
	walk = func(nid int) int {
		if t.IsLeaf(nid) {
			return 0
		}
		return 1 + max(walk(t.LeftChildren[nid]), walk(t.RightChildren[nid]))
	}
	if t.NumNodes() == 0 {
		return 0
	}
	return walk(0)
}

// leafIndex returns the leaf a feature row falls into. Values are compared
// at float32 precision; NaN follows the default direction.
func (t *RegTree) leafIndex(row []float64) int {
	nid := 0
	for !t.IsLeaf(nid) {
		v := row[t.SplitIndices[nid]]
		switch {
		case math.IsNaN(v):
			if t.DefaultLeft[nid] {
				nid = t.LeftChildren[nid]
			} else {
				nid = t.RightChildren[nid]
			}
		case float32(v) < t.SplitConditions[nid]:
			nid = t.LeftChildren[nid]
		default:
			nid = t.RightChildren[nid]
		}
	}
	return nid
}

// Predict returns the leaf value for a feature row.
func (t *RegTree) Predict(row []float64) float64 {
	return float64(t.SplitConditions[t.leafIndex(row)])
}

// addNode appends a leaf and returns its id.
func (t *RegTree) addNode(parent int, weight, leafValue, sumHess float64) int {
	nid := len(t.LeftChildren)
	t.LeftChildren = append(t.LeftChildren, -1)
	t.RightChildren = append(t.RightChildren, -1)
	t.Parents = append(t.Parents, parent)
	t.SplitIndices = append(t.SplitIndices, 0)
	t.SplitConditions = append(t.SplitConditions, float32(leafValue))
	t.DefaultLeft = append(t.DefaultLeft, false)
	t.BaseWeights = append(t.BaseWeights, float32(weight))
	t.LossChanges = append(t.LossChanges, 0)
	t.SumHessian = append(t.SumHessian, float32(sumHess))
	return nid
}

// expand turns leaf nid into a split node.
func (t *RegTree) expand(nid, feature int, threshold float64, defaultLeft bool, gain float64, left, right int) {
	t.LeftChildren[nid] = left
	t.RightChildren[nid] = right
	t.SplitIndices[nid] = feature
	t.SplitConditions[nid] = float32(threshold)
	t.DefaultLeft[nid] = defaultLeft
	t.LossChanges[nid] = float32(gain)
}

// validate checks the structural invariants a loaded tree must satisfy.
func (t *RegTree) validate() bool {
	n := t.NumNodes()
	if n == 0 {
		return false
	}
	for _, l := range [][]int{t.RightChildren, t.Parents, t.SplitIndices} {
		if len(l) != n {
			return false
		}
	}
	if len(t.SplitConditions) != n || len(t.DefaultLeft) != n {
		return false
	}
	for nid := 0; nid < n; nid++ {
		l, r := t.LeftChildren[nid], t.RightChildren[nid]
		if (l == -1) != (r == -1) {
			return false
		}
		if l == -1 {
			continue
		}
		if l < 0 || r < 0 || l >= n || r >= n {
			return false
		}
		if f := t.SplitIndices[nid]; f < 0 || (t.NumFeature > 0 && f >= t.NumFeature) {
			return false
		}
	}

	// Every node reachable from the root must be visited once.
	visited := make([]bool, n)
	stack := []int{0}
	for len(stack) > 0 {
		nid := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if visited[nid] {
			return false
		}
		visited[nid] = true
		if !t.IsLeaf(nid) {
			stack = append(stack, t.LeftChildren[nid], t.RightChildren[nid])
		}
	}
	return true
}
