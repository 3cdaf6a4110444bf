package export

import (
	"math"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/lucidfrontier45/silva/pkg/errors"
)

func exportTestVariant(t *testing.T) Config {
	t.Helper()
	cfg := testConfigAt(t.TempDir())
	runConfig(t, cfg)
	return cfg
}

func TestVerifyFreshArtifacts(t *testing.T) {
	cfg := exportTestVariant(t)

	reports, err := VerifyConfig(cfg, DefaultTolerance)
	require.NoError(t, err)
	require.Len(t, reports, 3)

	for _, r := range reports {
		assert.Equal(t, 50, r.Rows)
		assert.Equal(t, 5, r.Features)
		assert.Equal(t, 0.0, r.MaxAbsDiff, r.Dir)
	}
	assert.Equal(t, "reg:squarederror", reports[0].Objective)
	assert.Equal(t, 1, reports[1].Outputs)
	assert.Equal(t, 3, reports[2].Outputs)
}

func TestVerifyDetectsTamperedPredictions(t *testing.T) {
	cfg := exportTestVariant(t)
	dir := filepath.Join(cfg.Root, TaskBinaryClassification)
	yPath := filepath.Join(dir, PredictionsFile)

	y, err := ReadCSV(yPath)
	require.NoError(t, err)
	y.Set(7, 0, y.At(7, 0)+0.5)
	require.NoError(t, WriteCSV(yPath, y))

	report, err := Verify(dir, cfg.ModelFile, DefaultTolerance)
	var ve *errors.ValueError
	require.True(t, errors.As(err, &ve))
	require.NotNil(t, report)
	assert.InDelta(t, 0.5, report.MaxAbsDiff, 1e-9)

	// A loose enough tolerance accepts the same files.
	_, err = Verify(dir, cfg.ModelFile, 1)
	assert.NoError(t, err)

	_, err = VerifyConfig(cfg, DefaultTolerance)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "task binary_classification")
}

func TestVerifyShapeMismatch(t *testing.T) {
	cfg := exportTestVariant(t)

	dir := filepath.Join(cfg.Root, TaskRegression)
	X, err := ReadCSV(filepath.Join(dir, FeaturesFile))
	require.NoError(t, err)
	require.NoError(t, WriteCSV(filepath.Join(dir, FeaturesFile), X.Slice(0, 10, 0, 5)))
	report, err := Verify(dir, cfg.ModelFile, DefaultTolerance)
	var ve *errors.ValueError
	require.True(t, errors.As(err, &ve))
	assert.Contains(t, err.Error(), "rows")
	require.NotNil(t, report)
	assert.Equal(t, 10, report.Rows)
	assert.Equal(t, 5, report.Features)
	assert.True(t, math.IsNaN(report.MaxAbsDiff))

	dir = filepath.Join(cfg.Root, TaskMulticlassClassification)
	require.NoError(t, WriteCSV(filepath.Join(dir, PredictionsFile), mat.NewDense(50, 1, nil)))
	report, err = Verify(dir, cfg.ModelFile, DefaultTolerance)
	require.True(t, errors.As(err, &ve))
	assert.Contains(t, err.Error(), "columns")
	require.NotNil(t, report)
	assert.Equal(t, 1, report.Outputs)
	assert.Equal(t, "multi:softprob", report.Objective)
}

func TestVerifyMissingFiles(t *testing.T) {
	_, err := Verify(t.TempDir(), "model.json", DefaultTolerance)
	assert.Error(t, err)
}
