package metrics

import (
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/lucidfrontier45/silva/pkg/errors"
)

// probEps bounds probabilities away from 0 and 1 before taking logs.
const probEps = 1e-15

// LogLoss は二値分類の負の対数尤度を計算する。prob は正例の確率。
func LogLoss(yTrue, prob []float64) (float64, error) {
	if err := checkPair("LogLoss", yTrue, prob); err != nil {
		return 0, err
	}

	var sum float64
	for i, y := range yTrue {
		p := errors.ClipValue(prob[i], probEps, 1-probEps)
		sum -= y*math.Log(p) + (1-y)*math.Log(1-p)
	}
	return sum / float64(len(yTrue)), nil
}

// ErrorRate は閾値0.5で判定した二値分類の誤り率を返す
func ErrorRate(yTrue, prob []float64) (float64, error) {
	if err := checkPair("ErrorRate", yTrue, prob); err != nil {
		return 0, err
	}

	wrong := 0
	for i, y := range yTrue {
		pred := 0.0
		if prob[i] > 0.5 {
			pred = 1
		}
		if pred != y {
			wrong++
		}
	}
	return float64(wrong) / float64(len(yTrue)), nil
}

func checkMulticlass(op string, yTrue []float64, prob mat.Matrix) (int, error) {
	rows, cols := prob.Dims()
	if len(yTrue) == 0 {
		return 0, errors.NewValueError(op, "empty vector")
	}
	if rows != len(yTrue) {
		return 0, errors.NewDimensionError(op, len(yTrue), rows, 0)
	}
	for _, y := range yTrue {
		if y < 0 || int(y) >= cols || y != math.Trunc(y) {
			return 0, errors.NewValueError(op, "label is not a class index of the probability matrix")
		}
	}
	return cols, nil
}

// MLogLoss は多クラス分類の負の対数尤度を計算する。
// prob の各行はクラスごとの確率。
func MLogLoss(yTrue []float64, prob mat.Matrix) (float64, error) {
	if _, err := checkMulticlass("MLogLoss", yTrue, prob); err != nil {
		return 0, err
	}

	var sum float64
	for i, y := range yTrue {
		p := errors.ClipValue(prob.At(i, int(y)), probEps, 1-probEps)
		sum -= math.Log(p)
	}
	return sum / float64(len(yTrue)), nil
}

// MultiClassErrorRate は確率最大のクラスが正解と異なる割合を返す
func MultiClassErrorRate(yTrue []float64, prob mat.Matrix) (float64, error) {
	cols, err := checkMulticlass("MultiClassErrorRate", yTrue, prob)
	if err != nil {
		return 0, err
	}

	wrong := 0
	for i, y := range yTrue {
		best := 0
		for k := 1; k < cols; k++ {
			if prob.At(i, k) > prob.At(i, best) {
				best = k
			}
		}
		if best != int(y) {
			wrong++
		}
	}
	return float64(wrong) / float64(len(yTrue)), nil
}
