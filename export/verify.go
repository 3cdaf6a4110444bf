package export

import (
	"fmt"
	"math"
	"path/filepath"

	"gonum.org/v1/gonum/mat"

	"github.com/lucidfrontier45/silva/metrics"
	"github.com/lucidfrontier45/silva/pkg/errors"
	"github.com/lucidfrontier45/silva/pkg/log"
	"github.com/lucidfrontier45/silva/sklearn/xgboost"
)

// DefaultTolerance is the largest accepted difference between a stored and a
// recomputed margin.
const DefaultTolerance = 1e-5

// VerifyReport summarizes one checked task directory.
type VerifyReport struct {
	Dir        string
	Objective  string
	Rows       int
	Features   int
	Outputs    int
	MaxAbsDiff float64
}

// Verify reloads the model in dir, rescores X.csv and compares the result
// with y.csv. It fails when the shapes disagree or any margin differs by more
// than tol. Once all three files are read the report is returned even on
// failure.
func Verify(dir, modelFile string, tol float64) (*VerifyReport, error) {
	booster, err := xgboost.Load(filepath.Join(dir, modelFile))
	if err != nil {
		return nil, err
	}
	X, err := ReadCSV(filepath.Join(dir, FeaturesFile))
	if err != nil {
		return nil, err
	}
	want, err := ReadCSV(filepath.Join(dir, PredictionsFile))
	if err != nil {
		return nil, err
	}

	xRows, features := X.Dims()
	yRows, outputs := want.Dims()
	// MaxAbsDiff stays NaN until the margins are compared.
	report := &VerifyReport{
		Dir:        dir,
		Objective:  booster.Objective(),
		Rows:       xRows,
		Features:   features,
		Outputs:    outputs,
		MaxAbsDiff: math.NaN(),
	}
	if xRows != yRows {
		return report, errors.NewValueError("Verify",
			fmt.Sprintf("%s has %d rows but %s has %d", FeaturesFile, xRows, PredictionsFile, yRows))
	}
	if outputs != booster.NumOutputs() {
		return report, errors.NewValueError("Verify",
			fmt.Sprintf("%s has %d columns, model produces %d", PredictionsFile, outputs, booster.NumOutputs()))
	}

	got, err := booster.PredictRaw(X)
	if err != nil {
		return report, err
	}
	diff, err := metrics.MaxAbsError(flatten(want), flatten(got))
	if err != nil {
		return report, err
	}
	report.MaxAbsDiff = diff
	log.GetLoggerWithName("export").Debug("Verified artifacts",
		log.OperationKey, log.OperationVerify,
		log.PathKey, dir,
		log.MaxDiffKey, diff,
	)
	if !(diff <= tol) {
		return report, errors.NewValueError("Verify",
			fmt.Sprintf("predictions in %s differ by %g, tolerance %g", dir, diff, tol))
	}
	return report, nil
}

// VerifyConfig verifies every task directory of cfg.
func VerifyConfig(cfg Config, tol float64) ([]*VerifyReport, error) {
	reports := make([]*VerifyReport, 0, len(cfg.Tasks))
	for _, task := range cfg.Tasks {
		r, err := Verify(filepath.Join(cfg.Root, task.Name), cfg.ModelFile, tol)
		if err != nil {
			return reports, errors.Wrapf(err, "task %s", task.Name)
		}
		reports = append(reports, r)
	}
	return reports, nil
}

func flatten(m *mat.Dense) []float64 {
	r, c := m.Dims()
	out := make([]float64, 0, r*c)
	for i := 0; i < r; i++ {
		out = append(out, m.RawRowView(i)...)
	}
	return out
}
