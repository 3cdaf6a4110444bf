package export

import (
	"github.com/lucidfrontier45/silva/pkg/errors"
	"github.com/lucidfrontier45/silva/sklearn/datasets"
	"github.com/lucidfrontier45/silva/sklearn/xgboost"
)

// Task names double as output subdirectory names.
const (
	TaskRegression               = "regression"
	TaskBinaryClassification     = "binary_classification"
	TaskMulticlassClassification = "multiclass_classification"
)

// TaskNames lists the supported tasks in run order.
var TaskNames = []string{
	TaskRegression,
	TaskBinaryClassification,
	TaskMulticlassClassification,
}

// Task describes one dataset/model pair.
type Task struct {
	Name      string `yaml:"name"`
	Objective string `yaml:"objective"`
	// NumClass is 0 for regression and binary tasks.
	NumClass int `yaml:"num_class"`
	// NumInformative overrides the generator's default when positive.
	NumInformative int `yaml:"n_informative"`
	// Noise is the target noise standard deviation of regression data.
	Noise float64 `yaml:"noise"`
	// EvalMetric is passed to the trainer; empty means the objective default.
	EvalMetric string `yaml:"eval_metric"`
}

// objectiveFor returns the objective a task name trains with.
func objectiveFor(name string) (string, bool) {
	switch name {
	case TaskRegression:
		return xgboost.ObjectiveSquaredError, true
	case TaskBinaryClassification:
		return xgboost.ObjectiveBinaryLogistic, true
	case TaskMulticlassClassification:
		return xgboost.ObjectiveMultiSoftprob, true
	}
	return "", false
}

// Validate checks the task kind and its class count.
func (t Task) Validate() error {
	objective, ok := objectiveFor(t.Name)
	if !ok {
		return errors.NewValidationError("task", "must be one of regression, binary_classification, multiclass_classification", t.Name)
	}
	if t.Objective != "" && t.Objective != objective {
		return errors.NewValidationError("objective", "task "+t.Name+" trains with "+objective, t.Objective)
	}
	switch t.Name {
	case TaskMulticlassClassification:
		if t.NumClass < 3 {
			return errors.NewValidationError("num_class", "multiclass tasks need at least 3 classes", t.NumClass)
		}
	default:
		if t.NumClass != 0 {
			return errors.NewValidationError("num_class", "must be 0 for "+t.Name, t.NumClass)
		}
	}
	if t.NumInformative < 0 {
		return errors.NewValidationError("n_informative", "must be non-negative", t.NumInformative)
	}
	return nil
}

// objective returns the explicit objective or the one implied by the name.
func (t Task) objective() string {
	if t.Objective != "" {
		return t.Objective
	}
	o, _ := objectiveFor(t.Name)
	return o
}

// numClasses is the generator class count.
func (t Task) numClasses() int {
	if t.Name == TaskMulticlassClassification {
		return t.NumClass
	}
	return 2
}

// generate builds the task's dataset.
func (t Task) generate(nSamples, nFeatures int, seed *uint64) (*datasets.Dataset, error) {
	var opts []datasets.Option
	if seed != nil {
		opts = append(opts, datasets.WithRandomState(*seed))
	}
	if t.NumInformative > 0 {
		opts = append(opts, datasets.WithNInformative(t.NumInformative))
	}

	if t.Name == TaskRegression {
		if t.Noise > 0 {
			opts = append(opts, datasets.WithNoise(t.Noise))
		}
		return datasets.MakeRegression(nSamples, nFeatures, opts...)
	}
	opts = append(opts, datasets.WithNClasses(t.numClasses()))
	return datasets.MakeClassification(nSamples, nFeatures, opts...)
}

// trainParams returns the booster parameters for the task.
func (t Task) trainParams(treeMethod string, seed uint64, showProgress bool) xgboost.Params {
	p := xgboost.DefaultParams()
	p.Objective = t.objective()
	p.NumClass = t.NumClass
	p.EvalMetric = t.EvalMetric
	if treeMethod != "" {
		p.TreeMethod = treeMethod
	}
	p.Seed = seed
	p.ShowProgress = showProgress
	return p
}
