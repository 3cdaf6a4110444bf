package export

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lucidfrontier45/silva/pkg/errors"
	"github.com/lucidfrontier45/silva/pkg/log"
)

func runConfig(t *testing.T, cfg Config) ([]*Artifacts, *log.TestLogger) {
	t.Helper()
	logger, _ := log.NewTestLogger(log.LevelDebug)
	e, err := NewExporter(cfg, WithLogger(logger))
	require.NoError(t, err)
	artifacts, err := e.Run(context.Background())
	require.NoError(t, err)
	return artifacts, logger
}

func sampleConfigAt(root string) Config {
	cfg := SampleConfig()
	cfg.Root = root
	return cfg
}

func testConfigAt(root string) Config {
	cfg := TestConfig()
	cfg.Root = root
	return cfg
}

func readObjective(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var doc struct {
		Learner struct {
			Objective struct {
				Name string `json:"name"`
			} `json:"objective"`
		} `json:"learner"`
	}
	require.NoError(t, json.Unmarshal(data, &doc))
	return doc.Learner.Objective.Name
}

func TestSampleVariantWritesFullFitArtifacts(t *testing.T) {
	root := t.TempDir()
	artifacts, _ := runConfig(t, sampleConfigAt(root))
	require.Len(t, artifacts, 3)

	wantOutputs := map[string]int{
		TaskRegression:               1,
		TaskBinaryClassification:     1,
		TaskMulticlassClassification: 3,
	}
	for _, name := range TaskNames {
		dir := filepath.Join(root, name)
		entries, err := os.ReadDir(dir)
		require.NoError(t, err)
		assert.Len(t, entries, 3, name)

		for _, file := range []string{"xgb_model.json", "X.csv", "y.csv"} {
			info, err := os.Stat(filepath.Join(dir, file))
			require.NoError(t, err, file)
			assert.Greater(t, info.Size(), int64(0), file)
		}

		X, err := ReadCSV(filepath.Join(dir, "X.csv"))
		require.NoError(t, err)
		r, c := X.Dims()
		assert.Equal(t, 100, r, name)
		assert.Equal(t, 10, c, name)

		y, err := ReadCSV(filepath.Join(dir, "y.csv"))
		require.NoError(t, err)
		r, c = y.Dims()
		assert.Equal(t, 100, r, name)
		assert.Equal(t, wantOutputs[name], c, name)
	}

	assert.Equal(t, "binary:logistic", readObjective(t, filepath.Join(root, TaskBinaryClassification, "xgb_model.json")))
	assert.Equal(t, "reg:squarederror", readObjective(t, filepath.Join(root, TaskRegression, "xgb_model.json")))
	assert.Equal(t, "multi:softprob", readObjective(t, filepath.Join(root, TaskMulticlassClassification, "xgb_model.json")))

	for _, a := range artifacts {
		assert.Equal(t, 100, a.TrainRows)
	}
}

func TestTestVariantWritesSplitArtifacts(t *testing.T) {
	root := t.TempDir()
	artifacts, _ := runConfig(t, testConfigAt(root))
	require.Len(t, artifacts, 3)

	for _, a := range artifacts {
		assert.Equal(t, 50, a.TrainRows)
		assert.Equal(t, filepath.Join(root, a.Task.Name, "model.json"), a.ModelPath)
		_, err := os.Stat(a.ModelPath)
		require.NoError(t, err)

		X, err := ReadCSV(a.XPath)
		require.NoError(t, err)
		y, err := ReadCSV(a.YPath)
		require.NoError(t, err)

		xr, xc := X.Dims()
		yr, yc := y.Dims()
		assert.Equal(t, 50, xr)
		assert.Equal(t, 5, xc)
		assert.Equal(t, 50, yr)
		if a.Task.Name == TaskMulticlassClassification {
			assert.Equal(t, 3, yc)
		} else {
			assert.Equal(t, 1, yc)
		}
	}
}

func TestSplitModeOddSampleCount(t *testing.T) {
	cfg := testConfigAt(t.TempDir())
	cfg.NSamples = 101
	artifacts, _ := runConfig(t, cfg)
	for _, a := range artifacts {
		r, _ := a.X.Dims()
		assert.Equal(t, 51, r)
		assert.Equal(t, 50, a.TrainRows)
	}
}

func TestTestVariantIsByteIdentical(t *testing.T) {
	a, b := t.TempDir(), t.TempDir()
	runConfig(t, testConfigAt(a))
	runConfig(t, testConfigAt(b))

	for _, name := range TaskNames {
		for _, file := range []string{"X.csv", "y.csv", "model.json"} {
			da, err := os.ReadFile(filepath.Join(a, name, file))
			require.NoError(t, err)
			db, err := os.ReadFile(filepath.Join(b, name, file))
			require.NoError(t, err)
			assert.Equal(t, da, db, "%s/%s", name, file)
		}
	}
}

func TestSampleVariantIsUnseeded(t *testing.T) {
	a, b := t.TempDir(), t.TempDir()
	cfg := sampleConfigAt(a)
	cfg.Tasks = cfg.Tasks[:1]
	cfg.Rounds = 2
	runConfig(t, cfg)
	cfg.Root = b
	runConfig(t, cfg)

	da, err := os.ReadFile(filepath.Join(a, TaskRegression, "X.csv"))
	require.NoError(t, err)
	db, err := os.ReadFile(filepath.Join(b, TaskRegression, "X.csv"))
	require.NoError(t, err)
	assert.NotEqual(t, da, db)
}

func TestRerunOverwrites(t *testing.T) {
	root := t.TempDir()
	cfg := testConfigAt(root)
	runConfig(t, cfg)

	// Leave a larger stale file behind; the rerun must truncate it.
	stale := filepath.Join(root, TaskRegression, "y.csv")
	require.NoError(t, os.WriteFile(stale, make([]byte, 1<<16), 0o644))

	runConfig(t, cfg)
	for _, name := range TaskNames {
		entries, err := os.ReadDir(filepath.Join(root, name))
		require.NoError(t, err)
		assert.Len(t, entries, 3)
	}
	y, err := ReadCSV(stale)
	require.NoError(t, err)
	r, _ := y.Dims()
	assert.Equal(t, 50, r)
}

func TestProgressLogPerTask(t *testing.T) {
	_, logger := runConfig(t, testConfigAt(t.TempDir()))

	assert.Equal(t, 3, logger.CountMessages("Dataset shape: X=(100, 5), y=(100,)"))
	assert.True(t, logger.ContainsField(log.TaskKey, TaskMulticlassClassification))
	assert.True(t, logger.ContainsField(log.VariantKey, VariantTest))
	assert.True(t, logger.ContainsField(log.RandomSeedKey, 0.0))
}

func TestRunIDTagsEveryLine(t *testing.T) {
	logger, _ := log.NewTestLogger(log.LevelDebug)
	cfg := testConfigAt(t.TempDir())
	cfg.Tasks = cfg.Tasks[:1]
	e, err := NewExporter(cfg, WithLogger(logger), WithRunID("run-1"))
	require.NoError(t, err)
	assert.Equal(t, "run-1", e.RunID())
	_, err = e.Run(context.Background())
	require.NoError(t, err)

	entries, err := logger.GetLogEntries()
	require.NoError(t, err)
	require.NotEmpty(t, entries)
	for _, entry := range entries {
		assert.Equal(t, "run-1", entry[log.EstimatorIDKey])
	}

	e, err = NewExporter(cfg, WithLogger(logger))
	require.NoError(t, err)
	assert.Len(t, e.RunID(), 36)
}

func TestRunTaskValidation(t *testing.T) {
	root := t.TempDir()
	e, err := NewExporter(testConfigAt(root))
	require.NoError(t, err)

	tests := []struct {
		name  string
		task  Task
		param string
	}{
		{"unknown task", Task{Name: "ranking"}, "task"},
		{"multiclass with two classes", Task{Name: TaskMulticlassClassification, NumClass: 2}, "num_class"},
		{"regression with classes", Task{Name: TaskRegression, NumClass: 3}, "num_class"},
		{"binary with classes", Task{Name: TaskBinaryClassification, NumClass: 2}, "num_class"},
		{"mismatched objective", Task{Name: TaskRegression, Objective: "binary:logistic"}, "objective"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := e.RunTask(context.Background(), tt.task)
			var ve *errors.ValidationError
			require.True(t, errors.As(err, &ve))
			assert.Equal(t, tt.param, ve.ParamName)
		})
	}

	entries, err := os.ReadDir(root)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestRunAbortsOnFirstFailure(t *testing.T) {
	root := t.TempDir()
	cfg := testConfigAt(root)
	// Ten informative features cannot fit in five columns.
	cfg.Tasks = []Task{
		{Name: TaskRegression},
		{Name: TaskBinaryClassification, NumInformative: 10},
		{Name: TaskMulticlassClassification, NumClass: 3},
	}
	e, err := NewExporter(cfg)
	require.NoError(t, err)

	artifacts, err := e.Run(context.Background())
	require.Error(t, err)
	assert.Len(t, artifacts, 1)
	assert.Contains(t, err.Error(), "task binary_classification")

	var ve *errors.ValidationError
	assert.True(t, errors.As(err, &ve))

	_, err = os.Stat(filepath.Join(root, TaskRegression, "model.json"))
	assert.NoError(t, err)
	_, err = os.Stat(filepath.Join(root, TaskBinaryClassification))
	assert.True(t, os.IsNotExist(err))
	_, err = os.Stat(filepath.Join(root, TaskMulticlassClassification))
	assert.True(t, os.IsNotExist(err))
}

func TestRunHonorsCancellation(t *testing.T) {
	e, err := NewExporter(testConfigAt(t.TempDir()))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = e.Run(ctx)
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestRootIsCreated(t *testing.T) {
	root := filepath.Join(t.TempDir(), "nested", "test_data", "xgboost")
	cfg := testConfigAt(root)
	cfg.Tasks = cfg.Tasks[2:]
	runConfig(t, cfg)

	_, err := os.Stat(filepath.Join(root, TaskMulticlassClassification, "model.json"))
	assert.NoError(t, err)
}

func TestRootIsAFile(t *testing.T) {
	root := filepath.Join(t.TempDir(), "occupied")
	require.NoError(t, os.WriteFile(root, []byte("x"), 0o644))

	e, err := NewExporter(testConfigAt(root))
	require.NoError(t, err)
	_, err = e.Run(context.Background())
	assert.Error(t, err)
}

func TestShowProgressWritesBars(t *testing.T) {
	var buf bytes.Buffer
	cfg := testConfigAt(t.TempDir())
	cfg.ShowProgress = true
	e, err := NewExporter(cfg, WithProgressWriter(&buf))
	require.NoError(t, err)

	_, err = e.Run(context.Background())
	require.NoError(t, err)
	// At least one finished bar per task at the default round count.
	assert.GreaterOrEqual(t, strings.Count(buf.String(), "10 / 10"), 3)
}

func TestTasksMustFollowFixedOrder(t *testing.T) {
	root := t.TempDir()
	cfg := testConfigAt(root)
	cfg.Tasks = []Task{cfg.Tasks[2], cfg.Tasks[0]}

	_, err := NewExporter(cfg)
	var ve *errors.ValidationError
	require.True(t, errors.As(err, &ve))
	assert.Equal(t, "tasks", ve.ParamName)

	entries, err := os.ReadDir(root)
	require.NoError(t, err)
	assert.Empty(t, entries)
}
