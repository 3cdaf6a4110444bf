package export

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"gonum.org/v1/gonum/mat"

	"github.com/lucidfrontier45/silva/pkg/errors"
	"github.com/lucidfrontier45/silva/pkg/log"
	"github.com/lucidfrontier45/silva/sklearn/datasets"
	"github.com/lucidfrontier45/silva/sklearn/xgboost"
)

// File names written next to the model.
const (
	FeaturesFile    = "X.csv"
	PredictionsFile = "y.csv"
)

// Artifacts describes the files written for one task.
type Artifacts struct {
	Task      Task
	Dir       string
	ModelPath string
	XPath     string
	YPath     string
	// TrainRows is the number of rows the booster was trained on.
	TrainRows int
	// X holds the scored rows, Predictions their raw margins.
	X           *mat.Dense
	Predictions *mat.Dense
}

// Exporter writes the artifacts of every task of a configuration.
type Exporter struct {
	cfg      Config
	logger   log.Logger
	runID    string
	progress io.Writer
}

// Option configures an Exporter.
type Option func(*Exporter)

// WithLogger replaces the package logger.
func WithLogger(l log.Logger) Option {
	return func(e *Exporter) {
		e.logger = l
	}
}

// WithRunID sets the identifier attached to every log line of the run.
func WithRunID(id string) Option {
	return func(e *Exporter) {
		e.runID = id
	}
}

// WithProgressWriter sends the progress bars of cfg.ShowProgress to w
// instead of stderr.
func WithProgressWriter(w io.Writer) Option {
	return func(e *Exporter) {
		e.progress = w
	}
}

// NewExporter validates cfg and returns an exporter for it.
func NewExporter(cfg Config, opts ...Option) (*Exporter, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	e := &Exporter{cfg: cfg}
	for _, opt := range opts {
		opt(e)
	}
	if e.runID == "" {
		e.runID = uuid.NewString()
	}
	if e.logger == nil {
		e.logger = log.GetLoggerWithName("export")
	}
	e.logger = e.logger.With(
		log.EstimatorIDKey, e.runID,
		log.VariantKey, cfg.Variant,
		log.ModeKey, string(cfg.Mode),
	)
	return e, nil
}

// Config returns the run configuration.
func (e *Exporter) Config() Config {
	return e.cfg
}

// RunID returns the run identifier.
func (e *Exporter) RunID() string {
	return e.runID
}

// Run executes every task in order. The first failure aborts the run;
// files already written are left in place.
func (e *Exporter) Run(ctx context.Context) ([]*Artifacts, error) {
	if e.cfg.Seed != nil {
		e.logger.Info("Starting export", log.PathKey, e.cfg.Root, log.RandomSeedKey, *e.cfg.Seed)
	} else {
		e.logger.Info("Starting export", log.PathKey, e.cfg.Root)
	}

	out := make([]*Artifacts, 0, len(e.cfg.Tasks))
	for _, task := range e.cfg.Tasks {
		a, err := e.RunTask(ctx, task)
		if err != nil {
			e.logger.Error("Export failed", err, log.TaskKey, task.Name)
			return out, errors.Wrapf(err, "task %s", task.Name)
		}
		out = append(out, a)
	}
	return out, nil
}

// RunTask generates, trains, scores and writes one task.
func (e *Exporter) RunTask(ctx context.Context, task Task) (*Artifacts, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := task.Validate(); err != nil {
		return nil, err
	}
	start := time.Now()
	logger := e.logger.With(log.TaskKey, task.Name, log.ObjectiveKey, task.objective())

	ds, err := task.generate(e.cfg.NSamples, e.cfg.NFeatures, e.cfg.Seed)
	if err != nil {
		return nil, err
	}
	n, f := ds.Dims()
	logger.Info(fmt.Sprintf("Dataset shape: X=(%d, %d), y=(%d,)", n, f, len(ds.Y)),
		log.SamplesKey, n,
		log.FeaturesKey, f,
	)

	train, eval := ds, ds
	if e.cfg.Mode == ModeSplit {
		train, eval = datasets.SplitHalf(ds)
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	dtrain, err := xgboost.NewDMatrix(train.X, train.Y)
	if err != nil {
		return nil, err
	}
	params := task.trainParams(e.cfg.TreeMethod, e.cfg.trainerSeed(), e.cfg.ShowProgress)
	params.ProgressWriter = e.progress
	booster, err := xgboost.Train(params, dtrain, e.cfg.Rounds)
	if err != nil {
		return nil, err
	}
	raw, err := booster.PredictRaw(eval.X)
	if err != nil {
		return nil, err
	}

	dir := filepath.Join(e.cfg.Root, task.Name)
	a := &Artifacts{
		Task:        task,
		Dir:         dir,
		ModelPath:   filepath.Join(dir, e.cfg.ModelFile),
		XPath:       filepath.Join(dir, FeaturesFile),
		YPath:       filepath.Join(dir, PredictionsFile),
		TrainRows:   len(train.Y),
		X:           eval.X,
		Predictions: raw,
	}
	if err := e.write(a, booster); err != nil {
		return nil, err
	}

	rows, outputs := raw.Dims()
	logger.Debug("Artifacts written",
		log.PathKey, dir,
		log.SamplesKey, rows,
		log.OutputsKey, outputs,
		log.DurationMsKey, time.Since(start).Milliseconds(),
	)
	return a, nil
}

func (e *Exporter) write(a *Artifacts, booster *xgboost.Booster) error {
	if err := os.MkdirAll(a.Dir, 0o755); err != nil {
		return errors.Wrapf(err, "failed to create %s", a.Dir)
	}
	if err := booster.Save(a.ModelPath); err != nil {
		return err
	}
	if err := WriteCSV(a.XPath, a.X); err != nil {
		return err
	}
	return WriteCSV(a.YPath, a.Predictions)
}
