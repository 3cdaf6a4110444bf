package visualize

import (
	"bytes"
	"context"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/lucidfrontier45/silva/export"
	"github.com/lucidfrontier45/silva/pkg/errors"
)

var pngMagic = []byte("\x89PNG\r\n\x1a\n")

func TestPlotScoresPNG(t *testing.T) {
	data := make([]float64, 60)
	for i := range data {
		data[i] = math.Sin(float64(i))
	}
	path := filepath.Join(t.TempDir(), "scores.png")
	require.NoError(t, PlotScores(path, mat.NewDense(20, 3, data), "multiclass"))

	out, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, pngMagic))
}

func TestPlotScoresSVG(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scores.svg")
	scores := mat.NewDense(4, 1, []float64{1, 1, math.NaN(), 2})
	require.NoError(t, PlotScores(path, scores, "regression"))

	out, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(out), "<svg")
}

func TestPlotScoresErrors(t *testing.T) {
	dir := t.TempDir()

	err := PlotScores(filepath.Join(dir, "a.png"), mat.NewDense(2, 1, []float64{math.NaN(), math.Inf(1)}), "bad")
	var ve *errors.ValueError
	assert.True(t, errors.As(err, &ve))

	err = PlotScores(filepath.Join(dir, "b.unknown"), mat.NewDense(1, 1, []float64{1}), "bad")
	assert.Error(t, err)
}

func TestPlotDir(t *testing.T) {
	cfg := export.TestConfig()
	cfg.Root = t.TempDir()
	cfg.Tasks = cfg.Tasks[1:2]
	e, err := export.NewExporter(cfg)
	require.NoError(t, err)
	_, err = e.Run(context.Background())
	require.NoError(t, err)

	out := filepath.Join(t.TempDir(), "binary.png")
	require.NoError(t, PlotDir(filepath.Join(cfg.Root, export.TaskBinaryClassification), out))
	info, err := os.Stat(out)
	require.NoError(t, err)
	assert.Greater(t, info.Size(), int64(0))

	// The task directory still holds exactly the three artifacts.
	entries, err := os.ReadDir(filepath.Join(cfg.Root, export.TaskBinaryClassification))
	require.NoError(t, err)
	assert.Len(t, entries, 3)

	assert.Error(t, PlotDir(t.TempDir(), out))
}
