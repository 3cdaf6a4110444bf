package xgboost

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/lucidfrontier45/silva/pkg/errors"
)

// minHessian keeps second-order steps finite when predictions saturate.
const minHessian = 1e-16

// ObjectiveFunction computes first and second order gradients of a loss.
//
// Margins, gradients and hessians are row-major n x NumGroups slices.
type ObjectiveFunction interface {
	Name() string
	NumGroups() int

	// ValidateLabels rejects labels the loss is undefined for.
	ValidateLabels(labels []float64) error

	// InitScore estimates base_score from the labels, in output space.
	InitScore(labels []float64) float64

	// ProbToMargin converts base_score to the margin every group starts at.
	ProbToMargin(baseScore float64) float64

	Gradients(margins, labels, grad, hess []float64)

	// Transform applies the link function to one row of margins in place.
	Transform(row []float64)
}

// CreateObjectiveFunction returns the objective named by params.
func CreateObjectiveFunction(params Params) (ObjectiveFunction, error) {
	switch params.Objective {
	case ObjectiveSquaredError:
		return &SquaredError{}, nil
	case ObjectiveBinaryLogistic:
		return &BinaryLogistic{}, nil
	case ObjectiveMultiSoftprob:
		if params.NumClass < 2 {
			return nil, errors.NewValidationError("num_class", "multi:softprob requires num_class >= 2", params.NumClass)
		}
		return &MultiSoftprob{numClass: params.NumClass}, nil
	default:
		return nil, errors.NewValidationError("objective", "unsupported objective", params.Objective)
	}
}

// SquaredError implements reg:squarederror.
type SquaredError struct{}

func (o *SquaredError) Name() string   { return ObjectiveSquaredError }
func (o *SquaredError) NumGroups() int { return 1 }

func (o *SquaredError) ValidateLabels(labels []float64) error {
	return errors.CheckNumericalStability("labels", labels, 0)
}

// InitScore returns the label mean.
func (o *SquaredError) InitScore(labels []float64) float64 {
	return mean(labels)
}

func (o *SquaredError) ProbToMargin(baseScore float64) float64 {
	return baseScore
}

func (o *SquaredError) Gradients(margins, labels, grad, hess []float64) {
	for i, y := range labels {
		grad[i] = margins[i] - y
		hess[i] = 1
	}
}

func (o *SquaredError) Transform(row []float64) {}

// BinaryLogistic implements binary:logistic.
type BinaryLogistic struct{}

func (o *BinaryLogistic) Name() string   { return ObjectiveBinaryLogistic }
func (o *BinaryLogistic) NumGroups() int { return 1 }

func (o *BinaryLogistic) ValidateLabels(labels []float64) error {
	for i, y := range labels {
		if !(y >= 0 && y <= 1) {
			return errors.NewValidationError("label",
				fmt.Sprintf("binary:logistic labels must be in [0, 1] (row %d)", i), y)
		}
	}
	return nil
}

// InitScore returns the positive rate, kept inside (0, 1) so the margin is finite.
func (o *BinaryLogistic) InitScore(labels []float64) float64 {
	return errors.ClipValue(mean(labels), 1e-6, 1-1e-6)
}

func (o *BinaryLogistic) ProbToMargin(baseScore float64) float64 {
	return errors.Logit(baseScore)
}

func (o *BinaryLogistic) Gradients(margins, labels, grad, hess []float64) {
	for i, y := range labels {
		p := errors.Sigmoid(margins[i])
		grad[i] = p - y
		hess[i] = math.Max(p*(1-p), minHessian)
	}
}

func (o *BinaryLogistic) Transform(row []float64) {
	for i, v := range row {
		row[i] = errors.Sigmoid(v)
	}
}

// MultiSoftprob implements multi:softprob.
type MultiSoftprob struct {
	numClass int
}

func (o *MultiSoftprob) Name() string   { return ObjectiveMultiSoftprob }
func (o *MultiSoftprob) NumGroups() int { return o.numClass }

func (o *MultiSoftprob) ValidateLabels(labels []float64) error {
	for i, y := range labels {
		if !(y >= 0 && y < float64(o.numClass)) || y != math.Trunc(y) {
			return errors.NewValidationError("label",
				fmt.Sprintf("multi:softprob labels must be integers in [0, %d) (row %d)", o.numClass, i), y)
		}
	}
	return nil
}

// InitScore is fixed at 0.5; the multiclass intercept is not estimated.
func (o *MultiSoftprob) InitScore(labels []float64) float64 {
	return 0.5
}

func (o *MultiSoftprob) ProbToMargin(baseScore float64) float64 {
	return baseScore
}

func (o *MultiSoftprob) Gradients(margins, labels, grad, hess []float64) {
	k := o.numClass
	prob := make([]float64, k)
	for i, y := range labels {
		errors.Softmax(margins[i*k:(i+1)*k], prob)
		label := int(y)
		for c := 0; c < k; c++ {
			p := prob[c]
			g := p
			if c == label {
				g = p - 1
			}
			grad[i*k+c] = g
			hess[i*k+c] = math.Max(2*p*(1-p), minHessian)
		}
	}
}

func (o *MultiSoftprob) Transform(row []float64) {
	errors.Softmax(row, row)
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	return stat.Mean(values, nil)
}
