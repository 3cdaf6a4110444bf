package xgboost

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lucidfrontier45/silva/pkg/errors"
	"github.com/lucidfrontier45/silva/pkg/log"
)

func TestDefaultParams(t *testing.T) {
	p := DefaultParams()
	require.NoError(t, p.Validate())

	assert.Equal(t, ObjectiveSquaredError, p.Objective)
	assert.Equal(t, 0.3, p.Eta)
	assert.Equal(t, 6, p.MaxDepth)
	assert.Equal(t, 1.0, p.MinChildWeight)
	assert.Equal(t, 1.0, p.Lambda)
	assert.Equal(t, 256, p.MaxBin)
	assert.Equal(t, "rmse", p.Metric())
}

func TestParamsMetricDefaults(t *testing.T) {
	p := DefaultParams()
	p.Objective = ObjectiveBinaryLogistic
	assert.Equal(t, "logloss", p.Metric())

	p.Objective = ObjectiveMultiSoftprob
	assert.Equal(t, "mlogloss", p.Metric())

	p.EvalMetric = "merror"
	assert.Equal(t, "merror", p.Metric())
}

func TestParamsValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(p *Params)
		param  string
	}{
		{"unknown objective", func(p *Params) { p.Objective = "rank:pairwise" }, "objective"},
		{"softprob without classes", func(p *Params) { p.Objective = ObjectiveMultiSoftprob }, "num_class"},
		{"softprob with one class", func(p *Params) { p.Objective = ObjectiveMultiSoftprob; p.NumClass = 1 }, "num_class"},
		{"regression with classes", func(p *Params) { p.NumClass = 3 }, "num_class"},
		{"exact tree method", func(p *Params) { p.TreeMethod = "exact" }, "tree_method"},
		{"approx tree method", func(p *Params) { p.TreeMethod = "approx" }, "tree_method"},
		{"unknown metric", func(p *Params) { p.EvalMetric = "ndcg" }, "eval_metric"},
		{"zero eta", func(p *Params) { p.Eta = 0 }, "eta"},
		{"zero depth", func(p *Params) { p.MaxDepth = 0 }, "max_depth"},
		{"one bin", func(p *Params) { p.MaxBin = 1 }, "max_bin"},
		{"negative lambda", func(p *Params) { p.Lambda = -1 }, "lambda"},
		{"subsample above one", func(p *Params) { p.Subsample = 1.5 }, "subsample"},
		{"zero colsample", func(p *Params) { p.ColsampleByTree = 0 }, "colsample_bytree"},
		{"logistic base score", func(p *Params) {
			p.Objective = ObjectiveBinaryLogistic
			b := 1.0
			p.BaseScore = &b
		}, "base_score"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := DefaultParams()
			tt.modify(&p)
			err := p.Validate()
			require.Error(t, err)
			var ve *errors.ValidationError
			require.True(t, errors.As(err, &ve))
			assert.Equal(t, tt.param, ve.ParamName)
		})
	}

	p := DefaultParams()
	p.TreeMethod = "auto"
	assert.NoError(t, p.Validate())
	p.TreeMethod = ""
	assert.NoError(t, p.Validate())
}

func TestParseParams(t *testing.T) {
	p, err := ParseParams(map[string]interface{}{
		"objective":     "multi:softprob",
		"num_class":     3,
		"learning_rate": 0.1,
		"max_depth":     "4",
		"reg_lambda":    2.0,
		"random_state":  42,
		"subsample":     float32(0.5),
		"tree_method":   "hist",
		"eval_metric":   "mlogloss",
		"base_score":    "0.5",
		"max_bin":       64.0,
	})
	require.NoError(t, err)

	assert.Equal(t, ObjectiveMultiSoftprob, p.Objective)
	assert.Equal(t, 3, p.NumClass)
	assert.Equal(t, 0.1, p.Eta)
	assert.Equal(t, 4, p.MaxDepth)
	assert.Equal(t, 2.0, p.Lambda)
	assert.Equal(t, uint64(42), p.Seed)
	assert.Equal(t, 0.5, p.Subsample)
	assert.Equal(t, 64, p.MaxBin)
	require.NotNil(t, p.BaseScore)
	assert.Equal(t, 0.5, *p.BaseScore)
	// Untouched keys keep their defaults.
	assert.Equal(t, 1.0, p.MinChildWeight)
}

func TestParseParamsErrors(t *testing.T) {
	_, err := ParseParams(map[string]interface{}{"max_depth": 2.5})
	assert.Error(t, err)

	_, err = ParseParams(map[string]interface{}{"eta": "fast"})
	assert.Error(t, err)

	_, err = ParseParams(map[string]interface{}{"objective": 1})
	assert.Error(t, err)

	_, err = ParseParams(map[string]interface{}{"seed": -1})
	assert.Error(t, err)

	_, err = ParseParams(map[string]interface{}{"objective": "multi:softprob"})
	var ve *errors.ValidationError
	assert.True(t, errors.As(err, &ve))
}

func TestParseParamsWarnsOnUnusedKeys(t *testing.T) {
	provider, _ := log.NewTestLoggerProvider(log.LevelDebug)
	log.SetProvider(provider)
	defer log.SetProvider(log.NewZerologProvider(os.Stderr, log.LevelInfo))

	_, err := ParseParams(map[string]interface{}{"booster": "gbtree", "silent": 1})
	require.NoError(t, err)

	logger := provider.Logger()
	assert.True(t, logger.ContainsMessage("Parameters are not used"))
	assert.True(t, logger.ContainsField("parameters", "booster, silent"))
}
