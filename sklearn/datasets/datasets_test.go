package datasets

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	silvaErrors "github.com/lucidfrontier45/silva/pkg/errors"
)

func TestMakeRegressionShape(t *testing.T) {
	ds, err := MakeRegression(100, 10, WithRandomState(0))
	require.NoError(t, err)

	r, c := ds.Dims()
	assert.Equal(t, 100, r)
	assert.Equal(t, 10, c)
	assert.Len(t, ds.Y, 100)
	assert.Len(t, ds.Coef, 10)
	assert.Equal(t, 0, ds.NClasses)
}

func TestMakeRegressionIsLinear(t *testing.T) {
	// Without noise y must equal X·coef + bias exactly, also after shuffling.
	ds, err := MakeRegression(50, 5, WithBias(3.5), WithRandomState(7))
	require.NoError(t, err)

	for i := 0; i < 50; i++ {
		want := 3.5
		for j := 0; j < 5; j++ {
			want += ds.X.At(i, j) * ds.Coef[j]
		}
		assert.InDelta(t, want, ds.Y[i], 1e-9)
	}
}

func TestMakeRegressionInformativeCap(t *testing.T) {
	// The default of 10 informative features is capped at n_features.
	ds, err := MakeRegression(20, 4, WithRandomState(1))
	require.NoError(t, err)
	for _, c := range ds.Coef {
		assert.Greater(t, c, 0.0)
		assert.Less(t, c, 100.0)
	}

	ds, err = MakeRegression(20, 6, WithNInformative(2), WithShuffle(false), WithRandomState(1))
	require.NoError(t, err)
	assert.Greater(t, ds.Coef[0], 0.0)
	assert.Greater(t, ds.Coef[1], 0.0)
	for _, c := range ds.Coef[2:] {
		assert.Equal(t, 0.0, c)
	}
}

func TestMakeRegressionNoise(t *testing.T) {
	clean, err := MakeRegression(30, 3, WithRandomState(5), WithShuffle(false))
	require.NoError(t, err)
	noisy, err := MakeRegression(30, 3, WithRandomState(5), WithShuffle(false), WithNoise(1.0))
	require.NoError(t, err)

	assert.True(t, mat.Equal(clean.X, noisy.X))
	assert.NotEqual(t, clean.Y, noisy.Y)
}

func TestMakeRegressionSeeded(t *testing.T) {
	a, err := MakeRegression(40, 5, WithRandomState(0))
	require.NoError(t, err)
	b, err := MakeRegression(40, 5, WithRandomState(0))
	require.NoError(t, err)
	c, err := MakeRegression(40, 5, WithRandomState(1))
	require.NoError(t, err)

	assert.True(t, mat.Equal(a.X, b.X))
	assert.Equal(t, a.Y, b.Y)
	assert.False(t, mat.Equal(a.X, c.X))
}

func TestMakeRegressionUnseeded(t *testing.T) {
	a, err := MakeRegression(10, 3)
	require.NoError(t, err)
	b, err := MakeRegression(10, 3)
	require.NoError(t, err)
	assert.False(t, mat.Equal(a.X, b.X))
}

func TestMakeRegressionValidation(t *testing.T) {
	tests := []struct {
		name  string
		n, f  int
		opts  []Option
		param string
	}{
		{"zero samples", 0, 3, nil, "n_samples"},
		{"zero features", 10, 0, nil, "n_features"},
		{"negative informative", 10, 3, []Option{WithNInformative(-1)}, "n_informative"},
		{"negative noise", 10, 3, []Option{WithNoise(-0.5)}, "noise"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := MakeRegression(tt.n, tt.f, tt.opts...)
			require.Error(t, err)
			var ve *silvaErrors.ValidationError
			require.True(t, silvaErrors.As(err, &ve))
			assert.Equal(t, tt.param, ve.ParamName)
		})
	}
}

func TestMakeClassificationBinary(t *testing.T) {
	ds, err := MakeClassification(100, 10, WithNInformative(5), WithRandomState(0))
	require.NoError(t, err)

	r, c := ds.Dims()
	assert.Equal(t, 100, r)
	assert.Equal(t, 10, c)
	assert.Equal(t, 2, ds.NClasses)
	assert.Nil(t, ds.Coef)

	counts := map[float64]int{}
	for _, y := range ds.Y {
		counts[y]++
	}
	assert.Len(t, counts, 2)
	for label := range counts {
		assert.Contains(t, []float64{0, 1}, label)
	}
}

func TestMakeClassificationBalancedWithoutFlip(t *testing.T) {
	ds, err := MakeClassification(90, 5,
		WithNClasses(3), WithNInformative(3), WithNRedundant(0), WithFlipY(0), WithRandomState(2))
	require.NoError(t, err)

	counts := make([]int, 3)
	for _, y := range ds.Y {
		require.Equal(t, y, math.Trunc(y))
		counts[int(y)]++
	}
	assert.Equal(t, []int{30, 30, 30}, counts)
}

func TestMakeClassificationRemainderRoundRobin(t *testing.T) {
	// 10 samples over 2 classes x 2 clusters = 2 per cluster, remainder 2
	// goes to clusters 0 and 1, which belong to classes 0 and 1.
	ds, err := MakeClassification(10, 4, WithFlipY(0), WithShuffle(false), WithRandomState(3))
	require.NoError(t, err)
	assert.Equal(t, []float64{0, 0, 0, 1, 1, 1, 0, 0, 1, 1}, ds.Y)
}

func TestMakeClassificationRedundantColumns(t *testing.T) {
	// Unshuffled, columns 2..3 are linear combinations of columns 0..1, and
	// column 4 repeats one of the first four.
	ds, err := MakeClassification(40, 6,
		WithNRepeated(1), WithShuffle(false), WithFlipY(0), WithRandomState(4))
	require.NoError(t, err)

	// The informative block has full column rank, so least squares recovers
	// the redundant columns with zero residual.
	inf := mat.DenseCopyOf(ds.X.Slice(0, 40, 0, 2))
	red := mat.DenseCopyOf(ds.X.Slice(0, 40, 2, 4))
	var B mat.Dense
	require.NoError(t, B.Solve(inf, red))
	var back mat.Dense
	back.Mul(inf, &B)
	assert.True(t, mat.EqualApprox(&back, red, 1e-9))

	repeated := mat.Col(nil, 4, ds.X)
	found := false
	for j := 0; j < 4; j++ {
		if assert.ObjectsAreEqual(mat.Col(nil, j, ds.X), repeated) {
			found = true
		}
	}
	assert.True(t, found)
}

func TestMakeClassificationSeeded(t *testing.T) {
	a, err := MakeClassification(50, 5, WithNClasses(3), WithNInformative(3), WithRandomState(0))
	require.NoError(t, err)
	b, err := MakeClassification(50, 5, WithNClasses(3), WithNInformative(3), WithRandomState(0))
	require.NoError(t, err)

	assert.True(t, mat.Equal(a.X, b.X))
	assert.Equal(t, a.Y, b.Y)
}

func TestMakeClassificationValidation(t *testing.T) {
	tests := []struct {
		name  string
		n, f  int
		opts  []Option
		param string
	}{
		{"too many useful features", 10, 4, []Option{WithNInformative(3)}, "n_features"},
		{"too many clusters", 10, 10, []Option{WithNClasses(3), WithNInformative(1), WithNRedundant(0)}, "n_classes"},
		{"one class", 10, 5, []Option{WithNClasses(1)}, "n_classes"},
		{"zero informative", 10, 5, []Option{WithNInformative(0)}, "n_informative"},
		{"bad flip", 10, 5, []Option{WithFlipY(1.5)}, "flip_y"},
		{"zero samples", 0, 5, nil, "n_samples"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := MakeClassification(tt.n, tt.f, tt.opts...)
			require.Error(t, err)
			var ve *silvaErrors.ValidationError
			require.True(t, silvaErrors.As(err, &ve))
			assert.Equal(t, tt.param, ve.ParamName)
		})
	}
}

func TestSplitHalf(t *testing.T) {
	ds, err := MakeRegression(101, 3, WithRandomState(0))
	require.NoError(t, err)

	train, test := SplitHalf(ds)
	trainRows, _ := train.Dims()
	testRows, _ := test.Dims()
	assert.Equal(t, 50, trainRows)
	assert.Equal(t, 51, testRows)

	// Index order is preserved.
	assert.Equal(t, ds.Y[:50], train.Y)
	assert.Equal(t, ds.Y[50:], test.Y)
	assert.Equal(t, ds.X.RawRowView(50), test.X.RawRowView(0))
	assert.Equal(t, ds.X.RawRowView(0), train.X.RawRowView(0))
}
