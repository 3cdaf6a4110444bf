package xgboost

import (
	"gonum.org/v1/gonum/mat"

	"github.com/lucidfrontier45/silva/core/model"
	"github.com/lucidfrontier45/silva/core/parallel"
	"github.com/lucidfrontier45/silva/pkg/errors"
)

// Booster is a trained tree ensemble.
type Booster struct {
	model.BaseEstimator

	objective    ObjectiveFunction
	baseScore    float32
	numFeature   int
	featureNames []string
	trees        []*RegTree
	treeInfo     []int
	nthread      int
}

var (
	_ model.MarginPredictor = (*Booster)(nil)
	_ model.Persistable     = (*Booster)(nil)
)

func newBooster(obj ObjectiveFunction, numFeature int, baseScore float32, nthread int) *Booster {
	return &Booster{
		objective:  obj,
		baseScore:  baseScore,
		numFeature: numFeature,
		nthread:    nthread,
	}
}

func (b *Booster) appendTree(tree *RegTree, group int) {
	b.trees = append(b.trees, tree)
	b.treeInfo = append(b.treeInfo, group)
}

// baseMargin is the starting margin of every output group.
func (b *Booster) baseMargin() float64 {
	return b.objective.ProbToMargin(float64(b.baseScore))
}

// Objective returns the objective name, e.g. "binary:logistic".
func (b *Booster) Objective() string {
	return b.objective.Name()
}

// NumOutputs is the width of a prediction row: NumClass for multi:softprob,
// 1 otherwise.
func (b *Booster) NumOutputs() int {
	return b.objective.NumGroups()
}

// NumFeature returns the number of input columns the booster was trained on.
func (b *Booster) NumFeature() int {
	return b.numFeature
}

// FeatureNames returns the training column names, if any were set.
func (b *Booster) FeatureNames() []string {
	return b.featureNames
}

// BaseScore returns the intercept in output space.
func (b *Booster) BaseScore() float64 {
	return float64(b.baseScore)
}

// NumTrees returns the number of trees over all output groups.
func (b *Booster) NumTrees() int {
	return len(b.trees)
}

// NumBoostedRounds returns the number of completed boosting rounds.
func (b *Booster) NumBoostedRounds() int {
	return len(b.trees) / b.NumOutputs()
}

// Tree returns tree i. The tree must not be modified.
func (b *Booster) Tree(i int) *RegTree {
	return b.trees[i]
}

// TreeGroup returns the output group tree i contributes to.
func (b *Booster) TreeGroup(i int) int {
	return b.treeInfo[i]
}

// PredictRaw returns the untransformed margin: base margin plus the sum of
// leaf values of every tree of the group. The result has NumOutputs columns.
func (b *Booster) PredictRaw(X mat.Matrix) (*mat.Dense, error) {
	if !b.IsFitted() {
		return nil, errors.NewNotFittedError("xgboost.Booster", "PredictRaw")
	}
	rows, cols := X.Dims()
	if rows == 0 {
		return nil, errors.ErrEmptyData
	}
	if cols != b.numFeature {
		return nil, errors.NewDimensionError("PredictRaw", b.numFeature, cols, 1)
	}

	groups := b.NumOutputs()
	out := mat.NewDense(rows, groups, nil)
	raw := out.RawMatrix().Data
	base := b.baseMargin()

	parallel.ParallelizeWithThreshold(rows, parallel.DefaultThreshold, b.nthread, func(start, end int) {
		row := make([]float64, cols)
		for i := start; i < end; i++ {
			mat.Row(row, i, X)
			margins := raw[i*groups : (i+1)*groups]
			for k := range margins {
				margins[k] = base
			}
			for t, tree := range b.trees {
				margins[b.treeInfo[t]] += tree.Predict(row)
			}
		}
	})
	return out, nil
}

// Predict returns PredictRaw passed through the objective's link function:
// identity for regression, sigmoid for binary and softmax for multiclass.
func (b *Booster) Predict(X mat.Matrix) (*mat.Dense, error) {
	out, err := b.PredictRaw(X)
	if err != nil {
		return nil, err
	}
	rows, groups := out.Dims()
	raw := out.RawMatrix().Data
	for i := 0; i < rows; i++ {
		b.objective.Transform(raw[i*groups : (i+1)*groups])
	}
	return out, nil
}
