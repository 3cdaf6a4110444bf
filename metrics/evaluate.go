package metrics

import (
	"gonum.org/v1/gonum/mat"

	"github.com/lucidfrontier45/silva/pkg/errors"
)

// Metric names understood by Evaluate.
const (
	NameRMSE     = "rmse"
	NameMAE      = "mae"
	NameLogLoss  = "logloss"
	NameError    = "error"
	NameMLogLoss = "mlogloss"
	NameMError   = "merror"
)

// IsKnown reports whether Evaluate accepts name.
func IsKnown(name string) bool {
	switch name {
	case NameRMSE, NameMAE, NameLogLoss, NameError, NameMLogLoss, NameMError:
		return true
	}
	return false
}

// Evaluate computes the named metric. pred holds one row per sample: the
// prediction itself for regression metrics, the positive-class probability
// for binary metrics and the class probabilities for multiclass metrics.
func Evaluate(name string, yTrue []float64, pred mat.Matrix) (float64, error) {
	switch name {
	case NameMLogLoss:
		return MLogLoss(yTrue, pred)
	case NameMError:
		return MultiClassErrorRate(yTrue, pred)
	}

	if _, cols := pred.Dims(); cols != 1 {
		return 0, errors.NewDimensionError("Evaluate", 1, cols, 1)
	}
	col := mat.Col(nil, 0, pred)

	switch name {
	case NameRMSE:
		return RMSE(yTrue, col)
	case NameMAE:
		return MAE(yTrue, col)
	case NameLogLoss:
		return LogLoss(yTrue, col)
	case NameError:
		return ErrorRate(yTrue, col)
	default:
		return 0, errors.NewValidationError("eval_metric", "unknown metric", name)
	}
}
