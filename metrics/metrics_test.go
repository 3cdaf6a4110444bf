package metrics

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/lucidfrontier45/silva/pkg/errors"
)

func TestRegressionMetrics(t *testing.T) {
	tests := []struct {
		name    string
		fn      func(a, b []float64) (float64, error)
		yTrue   []float64
		yPred   []float64
		want    float64
		wantErr bool
	}{
		{"mse perfect", MSE, []float64{1, 2, 3}, []float64{1, 2, 3}, 0, false},
		{"mse simple", MSE, []float64{1, 2, 3, 4}, []float64{1.5, 2.5, 2.5, 3.5}, 0.25, false},
		{"rmse", RMSE, []float64{10, 20, 30}, []float64{12, 18, 33}, math.Sqrt(17.0 / 3.0), false},
		{"mae", MAE, []float64{1, 2, 3}, []float64{2, 2, 5}, 1, false},
		{"max abs", MaxAbsError, []float64{1, 2, 3}, []float64{1.1, 2, 2}, 1, false},
		{"r2 perfect", R2Score, []float64{1, 2, 3}, []float64{1, 2, 3}, 1, false},
		{"r2 mean", R2Score, []float64{1, 2, 3}, []float64{2, 2, 2}, 0, false},
		{"mismatch", MSE, []float64{1, 2, 3}, []float64{1, 2}, 0, true},
		{"empty", RMSE, nil, nil, 0, true},
		{"r2 no variance", R2Score, []float64{2, 2}, []float64{1, 3}, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.fn(tt.yTrue, tt.yPred)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.InDelta(t, tt.want, got, 1e-10)
		})
	}
}

func TestMismatchIsDimensionError(t *testing.T) {
	_, err := RMSE([]float64{1, 2}, []float64{1})
	var de *errors.DimensionError
	assert.True(t, errors.As(err, &de))
}

func TestMaxAbsErrorNaN(t *testing.T) {
	got, err := MaxAbsError([]float64{1, 2}, []float64{1, math.NaN()})
	require.NoError(t, err)
	assert.True(t, math.IsNaN(got))
}

func TestLogLoss(t *testing.T) {
	got, err := LogLoss([]float64{1, 0}, []float64{0.8, 0.4})
	require.NoError(t, err)
	want := -(math.Log(0.8) + math.Log(0.6)) / 2
	assert.InDelta(t, want, got, 1e-12)

	// Confident mistakes are clipped instead of returning +Inf.
	got, err = LogLoss([]float64{1}, []float64{0})
	require.NoError(t, err)
	assert.False(t, math.IsInf(got, 0))
	assert.InDelta(t, -math.Log(probEps), got, 1e-9)
}

func TestErrorRate(t *testing.T) {
	got, err := ErrorRate([]float64{1, 0, 1, 0}, []float64{0.9, 0.2, 0.4, 0.6})
	require.NoError(t, err)
	assert.InDelta(t, 0.5, got, 1e-12)
}

func TestMLogLoss(t *testing.T) {
	prob := mat.NewDense(2, 3, []float64{
		0.7, 0.2, 0.1,
		0.1, 0.1, 0.8,
	})
	got, err := MLogLoss([]float64{0, 2}, prob)
	require.NoError(t, err)
	assert.InDelta(t, -(math.Log(0.7)+math.Log(0.8))/2, got, 1e-12)

	_, err = MLogLoss([]float64{0, 3}, prob)
	assert.Error(t, err)

	_, err = MLogLoss([]float64{0}, prob)
	assert.Error(t, err)
}

func TestMultiClassErrorRate(t *testing.T) {
	prob := mat.NewDense(3, 3, []float64{
		0.7, 0.2, 0.1,
		0.1, 0.1, 0.8,
		0.3, 0.4, 0.3,
	})
	got, err := MultiClassErrorRate([]float64{0, 2, 0}, prob)
	require.NoError(t, err)
	assert.InDelta(t, 1.0/3.0, got, 1e-12)
}

func TestEvaluate(t *testing.T) {
	col := mat.NewDense(2, 1, []float64{0.8, 0.4})
	got, err := Evaluate(NameLogLoss, []float64{1, 0}, col)
	require.NoError(t, err)
	want, _ := LogLoss([]float64{1, 0}, []float64{0.8, 0.4})
	assert.Equal(t, want, got)

	got, err = Evaluate(NameRMSE, []float64{1, 0}, col)
	require.NoError(t, err)
	assert.InDelta(t, math.Sqrt((0.04+0.16)/2), got, 1e-12)

	_, err = Evaluate("auc", []float64{1, 0}, col)
	var ve *errors.ValidationError
	assert.True(t, errors.As(err, &ve))

	_, err = Evaluate(NameRMSE, []float64{1, 0}, mat.NewDense(2, 2, nil))
	assert.Error(t, err)

	assert.True(t, IsKnown(NameMError))
	assert.False(t, IsKnown("ndcg"))
}
