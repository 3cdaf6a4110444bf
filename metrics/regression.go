package metrics

import (
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/lucidfrontier45/silva/pkg/errors"
)

func checkPair(op string, yTrue, yPred []float64) error {
	if len(yTrue) == 0 {
		return errors.NewValueError(op, "empty vector")
	}
	if len(yPred) != len(yTrue) {
		return errors.NewDimensionError(op, len(yTrue), len(yPred), 0)
	}
	return nil
}

// MSE は平均二乗誤差（Mean Squared Error）を計算する
func MSE(yTrue, yPred []float64) (float64, error) {
	if err := checkPair("MSE", yTrue, yPred); err != nil {
		return 0, err
	}

	var sum float64
	for i := range yTrue {
		diff := yTrue[i] - yPred[i]
		sum += diff * diff
	}
	return sum / float64(len(yTrue)), nil
}

// RMSE は平方根平均二乗誤差（Root Mean Squared Error）を計算する
func RMSE(yTrue, yPred []float64) (float64, error) {
	mse, err := MSE(yTrue, yPred)
	if err != nil {
		return 0, err
	}
	return math.Sqrt(mse), nil
}

// MAE は平均絶対誤差（Mean Absolute Error）を計算する
func MAE(yTrue, yPred []float64) (float64, error) {
	if err := checkPair("MAE", yTrue, yPred); err != nil {
		return 0, err
	}

	var sum float64
	for i := range yTrue {
		sum += math.Abs(yTrue[i] - yPred[i])
	}
	return sum / float64(len(yTrue)), nil
}

// MaxAbsError は要素ごとの絶対誤差の最大値を返す
func MaxAbsError(yTrue, yPred []float64) (float64, error) {
	if err := checkPair("MaxAbsError", yTrue, yPred); err != nil {
		return 0, err
	}

	var worst float64
	for i := range yTrue {
		d := math.Abs(yTrue[i] - yPred[i])
		if math.IsNaN(d) {
			return math.NaN(), nil
		}
		worst = math.Max(worst, d)
	}
	return worst, nil
}

// R2Score は決定係数（R²）を計算する
func R2Score(yTrue, yPred []float64) (float64, error) {
	if err := checkPair("R2Score", yTrue, yPred); err != nil {
		return 0, err
	}

	yMean := stat.Mean(yTrue, nil)

	// 全変動（TSS）と残差変動（RSS）
	var tss, rss float64
	for i, v := range yTrue {
		tss += (v - yMean) * (v - yMean)
		rss += (v - yPred[i]) * (v - yPred[i])
	}

	if tss == 0 {
		return 0, errors.Newf("R2Score: total sum of squares is zero (no variance in yTrue)")
	}
	return 1 - rss/tss, nil
}
