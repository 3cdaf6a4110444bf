package xgboost

import (
	"io"
	"math"
	"time"

	"github.com/cheggaaa/pb/v3"

	"github.com/lucidfrontier45/silva/pkg/log"
)

// CallbackEnv contains the environment for callbacks
type CallbackEnv struct {
	Booster       *Booster
	Iteration     int
	NumBoostRound int
	BeginTime     time.Time
	EndTime       time.Time
	// EvalResults maps the metric name to its value on the training set.
	EvalResults  map[string]float64
	StopTraining bool
}

func (env *CallbackEnv) isLast() bool {
	return env.Iteration == env.NumBoostRound-1
}

// Callback is a function that can be called during training
type Callback func(env *CallbackEnv) error

// EvaluationLogger logs evaluation results every period rounds and at the
// last round. A nil logger uses the package logger.
func EvaluationLogger(period int, logger log.Logger) Callback {
	if period <= 0 {
		period = 1
	}
	if logger == nil {
		logger = log.GetLoggerWithName("xgboost")
	}
	return func(env *CallbackEnv) error {
		if env.Iteration%period != 0 && !env.isLast() {
			return nil
		}
		for name, value := range env.EvalResults {
			logger.Info("Evaluation",
				log.IterationKey, env.Iteration,
				log.MetricKey, name,
				log.LossKey, value,
			)
		}
		return nil
	}
}

// RecordEvaluation records evaluation history
func RecordEvaluation(history *map[string][]float64) Callback {
	return func(env *CallbackEnv) error {
		if *history == nil {
			*history = make(map[string][]float64)
		}
		for name, value := range env.EvalResults {
			(*history)[name] = append((*history)[name], value)
		}
		return nil
	}
}

// EarlyStopping stops training when metric has not decreased for rounds
// consecutive iterations.
func EarlyStopping(rounds int, metric string) Callback {
	best := math.Inf(1)
	stale := 0
	return func(env *CallbackEnv) error {
		value, ok := env.EvalResults[metric]
		if !ok {
			return nil
		}
		if value < best {
			best = value
			stale = 0
			return nil
		}
		stale++
		if stale >= rounds {
			log.GetLoggerWithName("xgboost").Info("Early stopping",
				log.IterationKey, env.Iteration,
				log.MetricKey, metric,
				log.LossKey, best,
			)
			env.StopTraining = true
		}
		return nil
	}
}

// ProgressBar renders a terminal progress bar with one tick per round.
func ProgressBar(total int) Callback {
	return ProgressBarTo(nil, total)
}

// ProgressBarTo is ProgressBar writing to w; nil means stderr.
func ProgressBarTo(w io.Writer, total int) Callback {
	var bar *pb.ProgressBar
	return func(env *CallbackEnv) error {
		if bar == nil {
			bar = pb.New(total)
			if w != nil {
				bar.SetWriter(w)
			}
			bar.Start()
		}
		bar.Increment()
		if env.isLast() || env.StopTraining {
			bar.Finish()
		}
		return nil
	}
}
