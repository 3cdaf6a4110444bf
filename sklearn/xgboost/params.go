package xgboost

import (
	"fmt"
	"io"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/lucidfrontier45/silva/metrics"
	"github.com/lucidfrontier45/silva/pkg/errors"
	"github.com/lucidfrontier45/silva/pkg/log"
)

// Objective names.
const (
	ObjectiveSquaredError   = "reg:squarederror"
	ObjectiveBinaryLogistic = "binary:logistic"
	ObjectiveMultiSoftprob  = "multi:softprob"
)

// DefaultNumBoostRound is used when Train is given a non-positive round count.
const DefaultNumBoostRound = 10

// Params contains the booster hyperparameters.
type Params struct {
	// Task
	Objective  string `json:"objective"`
	NumClass   int    `json:"num_class"`
	EvalMetric string `json:"eval_metric"`

	// Tree construction. Only "hist" is implemented; "" and "auto" select it.
	TreeMethod     string  `json:"tree_method"`
	Eta            float64 `json:"eta"`
	MaxDepth       int     `json:"max_depth"`
	MinChildWeight float64 `json:"min_child_weight"`
	MaxBin         int     `json:"max_bin"`

	// Regularization
	Lambda float64 `json:"lambda"`
	Alpha  float64 `json:"alpha"`
	Gamma  float64 `json:"gamma"`

	// Sampling
	Subsample       float64 `json:"subsample"`
	ColsampleByTree float64 `json:"colsample_bytree"`

	// BaseScore overrides the intercept estimated from the labels.
	BaseScore *float64 `json:"base_score,omitempty"`

	Seed    uint64 `json:"seed"`
	NThread int    `json:"nthread"`

	// ShowProgress renders a progress bar on ProgressWriter (stderr when nil)
	// while training.
	ShowProgress   bool      `json:"-"`
	ProgressWriter io.Writer `json:"-"`
}

// DefaultParams returns XGBoost's defaults for a squared-error regressor.
func DefaultParams() Params {
	return Params{
		Objective:       ObjectiveSquaredError,
		TreeMethod:      "hist",
		Eta:             0.3,
		MaxDepth:        6,
		MinChildWeight:  1,
		MaxBin:          256,
		Lambda:          1,
		Alpha:           0,
		Gamma:           0,
		Subsample:       1,
		ColsampleByTree: 1,
	}
}

// Metric returns the evaluation metric, falling back to the objective's default.
func (p Params) Metric() string {
	if p.EvalMetric != "" {
		return p.EvalMetric
	}
	switch p.Objective {
	case ObjectiveBinaryLogistic:
		return metrics.NameLogLoss
	case ObjectiveMultiSoftprob:
		return metrics.NameMLogLoss
	default:
		return metrics.NameRMSE
	}
}

// Validate checks parameter ranges and the objective/num_class combination.
func (p Params) Validate() error {
	switch p.Objective {
	case ObjectiveSquaredError, ObjectiveBinaryLogistic:
		if p.NumClass > 1 {
			return errors.NewValidationError("num_class",
				fmt.Sprintf("%s produces a single output", p.Objective), p.NumClass)
		}
	case ObjectiveMultiSoftprob:
		if p.NumClass < 2 {
			return errors.NewValidationError("num_class", "multi:softprob requires num_class >= 2", p.NumClass)
		}
	default:
		return errors.NewValidationError("objective", "unsupported objective", p.Objective)
	}

	switch p.TreeMethod {
	case "", "auto", "hist":
	default:
		return errors.NewValidationError("tree_method", "only hist is supported", p.TreeMethod)
	}

	if p.EvalMetric != "" && !metrics.IsKnown(p.EvalMetric) {
		return errors.NewValidationError("eval_metric", "unknown metric", p.EvalMetric)
	}

	switch {
	case !(p.Eta > 0):
		return errors.NewValidationError("eta", "must be positive", p.Eta)
	case p.MaxDepth < 1:
		return errors.NewValidationError("max_depth", "must be at least 1", p.MaxDepth)
	case p.MinChildWeight < 0:
		return errors.NewValidationError("min_child_weight", "must be non-negative", p.MinChildWeight)
	case p.MaxBin < 2:
		return errors.NewValidationError("max_bin", "must be at least 2", p.MaxBin)
	case p.Lambda < 0:
		return errors.NewValidationError("lambda", "must be non-negative", p.Lambda)
	case p.Alpha < 0:
		return errors.NewValidationError("alpha", "must be non-negative", p.Alpha)
	case p.Gamma < 0:
		return errors.NewValidationError("gamma", "must be non-negative", p.Gamma)
	case !(p.Subsample > 0 && p.Subsample <= 1):
		return errors.NewValidationError("subsample", "must be in (0, 1]", p.Subsample)
	case !(p.ColsampleByTree > 0 && p.ColsampleByTree <= 1):
		return errors.NewValidationError("colsample_bytree", "must be in (0, 1]", p.ColsampleByTree)
	}

	if p.BaseScore != nil {
		b := *p.BaseScore
		if math.IsNaN(b) || math.IsInf(b, 0) {
			return errors.NewValidationError("base_score", "must be finite", b)
		}
		if p.Objective == ObjectiveBinaryLogistic && (b <= 0 || b >= 1) {
			return errors.NewValidationError("base_score", "binary:logistic requires a value in (0, 1)", b)
		}
	}
	return nil
}

// paramAliases maps every accepted dictionary key to its canonical name.
var paramAliases = map[string]string{
	"objective":        "objective",
	"num_class":        "num_class",
	"eval_metric":      "eval_metric",
	"tree_method":      "tree_method",
	"eta":              "eta",
	"learning_rate":    "eta",
	"max_depth":        "max_depth",
	"min_child_weight": "min_child_weight",
	"max_bin":          "max_bin",
	"lambda":           "lambda",
	"reg_lambda":       "lambda",
	"alpha":            "alpha",
	"reg_alpha":        "alpha",
	"gamma":            "gamma",
	"min_split_loss":   "gamma",
	"subsample":        "subsample",
	"colsample_bytree": "colsample_bytree",
	"base_score":       "base_score",
	"seed":             "seed",
	"random_state":     "seed",
	"nthread":          "nthread",
	"n_jobs":           "nthread",
	"verbosity":        "verbosity",
}

// ParseParams builds Params from an XGBoost-style parameter dictionary,
// starting from DefaultParams. Values may be numbers or strings. Keys XGBoost
// accepts but this trainer does not use are logged and skipped.
func ParseParams(raw map[string]interface{}) (Params, error) {
	p := DefaultParams()

	keys := make([]string, 0, len(raw))
	for k := range raw {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var unused []string
	for _, key := range keys {
		value := raw[key]
		name, ok := paramAliases[key]
		if !ok {
			unused = append(unused, key)
			continue
		}

		var err error
		switch name {
		case "objective":
			p.Objective, err = toString(name, value)
		case "num_class":
			p.NumClass, err = toInt(name, value)
		case "eval_metric":
			p.EvalMetric, err = toString(name, value)
		case "tree_method":
			p.TreeMethod, err = toString(name, value)
		case "eta":
			p.Eta, err = toFloat(name, value)
		case "max_depth":
			p.MaxDepth, err = toInt(name, value)
		case "min_child_weight":
			p.MinChildWeight, err = toFloat(name, value)
		case "max_bin":
			p.MaxBin, err = toInt(name, value)
		case "lambda":
			p.Lambda, err = toFloat(name, value)
		case "alpha":
			p.Alpha, err = toFloat(name, value)
		case "gamma":
			p.Gamma, err = toFloat(name, value)
		case "subsample":
			p.Subsample, err = toFloat(name, value)
		case "colsample_bytree":
			p.ColsampleByTree, err = toFloat(name, value)
		case "base_score":
			var b float64
			b, err = toFloat(name, value)
			p.BaseScore = &b
		case "seed":
			var s int
			s, err = toInt(name, value)
			if err == nil && s < 0 {
				err = errors.NewValidationError(name, "must be non-negative", s)
			}
			p.Seed = uint64(s)
		case "nthread":
			p.NThread, err = toInt(name, value)
		case "verbosity":
			_, err = toInt(name, value)
		}
		if err != nil {
			return Params{}, err
		}
	}

	if len(unused) > 0 {
		log.GetLoggerWithName("xgboost").Warn("Parameters are not used",
			"parameters", strings.Join(unused, ", "))
	}
	return p, p.Validate()
}

func toString(name string, v interface{}) (string, error) {
	s, ok := v.(string)
	if !ok {
		return "", errors.NewValidationError(name, "must be a string", v)
	}
	return s, nil
}

func toFloat(name string, v interface{}) (float64, error) {
	switch x := v.(type) {
	case float64:
		return x, nil
	case float32:
		return float64(x), nil
	case int:
		return float64(x), nil
	case int64:
		return float64(x), nil
	case uint64:
		return float64(x), nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(x), 64)
		if err != nil {
			return 0, errors.NewValidationError(name, "must be a number", v)
		}
		return f, nil
	default:
		return 0, errors.NewValidationError(name, "must be a number", v)
	}
}

func toInt(name string, v interface{}) (int, error) {
	switch x := v.(type) {
	case int:
		return x, nil
	case int64:
		return int(x), nil
	case uint64:
		return int(x), nil
	case string:
		i, err := strconv.Atoi(strings.TrimSpace(x))
		if err != nil {
			return 0, errors.NewValidationError(name, "must be an integer", v)
		}
		return i, nil
	default:
		f, err := toFloat(name, v)
		if err != nil || f != math.Trunc(f) {
			return 0, errors.NewValidationError(name, "must be an integer", v)
		}
		return int(f), nil
	}
}
