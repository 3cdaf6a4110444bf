package xgboost

import (
	"math"
	"math/rand/v2"
	"sort"
	"time"

	"gonum.org/v1/gonum/mat"

	"github.com/lucidfrontier45/silva/core/parallel"
	"github.com/lucidfrontier45/silva/metrics"
	"github.com/lucidfrontier45/silva/pkg/errors"
	"github.com/lucidfrontier45/silva/pkg/log"
)

// rtEps is the smallest loss change accepted as a split.
const rtEps = 1e-6

// Train fits a booster on dtrain. numBoostRound <= 0 trains
// DefaultNumBoostRound rounds. Callbacks run after every round in the order
// given; a callback error aborts training.
func Train(params Params, dtrain *DMatrix, numBoostRound int, callbacks ...Callback) (booster *Booster, err error) {
	defer errors.Recover(&err, "xgboost.Train")

	if dtrain == nil {
		return nil, errors.NewValidationError("dtrain", "must not be nil", nil)
	}
	if err := params.Validate(); err != nil {
		return nil, err
	}
	obj, err := CreateObjectiveFunction(params)
	if err != nil {
		return nil, err
	}
	if err := obj.ValidateLabels(dtrain.Label); err != nil {
		return nil, err
	}
	if numBoostRound <= 0 {
		numBoostRound = DefaultNumBoostRound
	}

	rows, cols := dtrain.Dims()
	logger := log.GetLoggerWithName("xgboost").With(
		log.OperationKey, log.OperationTrain,
		log.ObjectiveKey, obj.Name(),
	)
	logger.Debug("Starting training",
		log.SamplesKey, rows,
		log.FeaturesKey, cols,
		log.RoundsKey, numBoostRound,
		log.RandomSeedKey, params.Seed,
	)

	baseScore := obj.InitScore(dtrain.Label)
	if params.BaseScore != nil {
		baseScore = *params.BaseScore
	}
	booster = newBooster(obj, cols, float32(baseScore), params.NThread)
	booster.featureNames = append([]string(nil), dtrain.FeatureNames...)

	t := newTrainer(params, obj, dtrain, booster)
	if err := errors.CheckScalar("base_margin", t.margins[0], 0); err != nil {
		return nil, err
	}

	if params.ShowProgress {
		callbacks = append(callbacks, ProgressBarTo(params.ProgressWriter, numBoostRound))
	}

	metric := params.Metric()
	begin := time.Now()
	for iter := 0; iter < numBoostRound; iter++ {
		if err := t.boostOneRound(iter); err != nil {
			return nil, err
		}
		if len(callbacks) == 0 {
			continue
		}

		env := &CallbackEnv{
			Booster:       booster,
			Iteration:     iter,
			NumBoostRound: numBoostRound,
			BeginTime:     begin,
			EndTime:       time.Now(),
			EvalResults:   map[string]float64{},
		}
		score, err := t.evaluate(metric)
		if err != nil {
			return nil, err
		}
		env.EvalResults[metric] = score

		for _, cb := range callbacks {
			if err := cb(env); err != nil {
				return nil, errors.Wrapf(err, "callback failed at iteration %d", iter)
			}
		}
		if env.StopTraining {
			break
		}
	}

	booster.SetFitted()
	leaves := 0
	for _, tree := range booster.trees {
		leaves += tree.NumLeaves()
	}
	logger.Debug("Training completed",
		"trees", booster.NumTrees(),
		"leaves", leaves,
		log.DurationMsKey, time.Since(begin).Milliseconds(),
	)
	return booster, nil
}

// trainer holds the quantized training data and running margins.
type trainer struct {
	params  Params
	obj     ObjectiveFunction
	booster *Booster
	rng     *rand.Rand

	data   []float64
	bins   []int32
	cuts   *histCuts
	labels []float64
	rows   int
	cols   int
	groups int

	margins []float64
	grad    []float64
	hess    []float64
}

func newTrainer(params Params, obj ObjectiveFunction, dtrain *DMatrix, booster *Booster) *trainer {
	rows, cols := dtrain.Dims()
	groups := obj.NumGroups()
	data := rowMajor(dtrain.X)
	cuts := buildCuts(data, rows, cols, params.MaxBin)

	t := &trainer{
		params:  params,
		obj:     obj,
		booster: booster,
		rng:     rand.New(rand.NewPCG(params.Seed, params.Seed)),
		data:    data,
		bins:    cuts.quantize(data, rows, cols),
		cuts:    cuts,
		labels:  dtrain.Label,
		rows:    rows,
		cols:    cols,
		groups:  groups,
		margins: make([]float64, rows*groups),
		grad:    make([]float64, rows*groups),
		hess:    make([]float64, rows*groups),
	}
	base := booster.baseMargin()
	for i := range t.margins {
		t.margins[i] = base
	}
	return t
}

func (t *trainer) boostOneRound(iter int) error {
	t.obj.Gradients(t.margins, t.labels, t.grad, t.hess)
	if err := errors.CheckNumericalStability("gradient", t.grad, iter); err != nil {
		return err
	}
	if err := errors.CheckNumericalStability("hessian", t.hess, iter); err != nil {
		return err
	}

	rowSet := t.sampleRows()
	features := t.sampleFeatures()
	for g := 0; g < t.groups; g++ {
		tree := t.buildTree(rowSet, features, g)
		for i := 0; i < t.rows; i++ {
			t.margins[i*t.groups+g] += tree.Predict(t.data[i*t.cols : (i+1)*t.cols])
		}
		t.booster.appendTree(tree, g)
	}
	return nil
}

// sampleRows draws each row with probability subsample.
func (t *trainer) sampleRows() []int {
	out := make([]int, 0, t.rows)
	if t.params.Subsample >= 1 {
		for i := 0; i < t.rows; i++ {
			out = append(out, i)
		}
		return out
	}
	for i := 0; i < t.rows; i++ {
		if t.rng.Float64() < t.params.Subsample {
			out = append(out, i)
		}
	}
	if len(out) == 0 {
		out = append(out, t.rng.IntN(t.rows))
	}
	return out
}

// sampleFeatures draws max(1, colsample_bytree*cols) features without replacement.
func (t *trainer) sampleFeatures() []int {
	if t.params.ColsampleByTree >= 1 {
		out := make([]int, t.cols)
		for f := range out {
			out[f] = f
		}
		return out
	}
	n := max(1, int(t.params.ColsampleByTree*float64(t.cols)))
	out := t.rng.Perm(t.cols)[:n]
	sort.Ints(out)
	return out
}

type expandEntry struct {
	nid  int
	rows []int
	grad float64
	hess float64
}

type splitCandidate struct {
	valid       bool
	feature     int
	bin         int
	threshold   float64
	defaultLeft bool
	gain        float64
	leftGrad    float64
	leftHess    float64
	rightGrad   float64
	rightHess   float64
}

// buildTree grows one tree depth-wise for output group g.
func (t *trainer) buildTree(rows, features []int, g int) *RegTree {
	tree := &RegTree{NumFeature: t.cols}

	var sumG, sumH float64
	for _, r := range rows {
		sumG += t.grad[r*t.groups+g]
		sumH += t.hess[r*t.groups+g]
	}
	w := t.weight(sumG, sumH)
	root := tree.addNode(rootParent, w, t.params.Eta*w, sumH)

	level := []expandEntry{{nid: root, rows: rows, grad: sumG, hess: sumH}}
	for depth := 0; depth < t.params.MaxDepth && len(level) > 0; depth++ {
		var next []expandEntry
		for _, e := range level {
			split := t.findBestSplit(e, features, g)
			if !split.valid {
				continue
			}
			leftRows, rightRows := t.partition(e.rows, split)

			wl := t.weight(split.leftGrad, split.leftHess)
			wr := t.weight(split.rightGrad, split.rightHess)
			l := tree.addNode(e.nid, wl, t.params.Eta*wl, split.leftHess)
			r := tree.addNode(e.nid, wr, t.params.Eta*wr, split.rightHess)
			tree.expand(e.nid, split.feature, split.threshold, split.defaultLeft, split.gain, l, r)

			next = append(next,
				expandEntry{nid: l, rows: leftRows, grad: split.leftGrad, hess: split.leftHess},
				expandEntry{nid: r, rows: rightRows, grad: split.rightGrad, hess: split.rightHess},
			)
		}
		level = next
	}
	return tree
}

// findBestSplit evaluates every sampled feature of a node. Features are
// scanned concurrently for large nodes; the reduction runs in feature order.
func (t *trainer) findBestSplit(e expandEntry, features []int, g int) splitCandidate {
	candidates := make([]splitCandidate, len(features))
	threshold := len(features)
	if len(e.rows) >= parallel.DefaultThreshold {
		threshold = 1
	}
	parallel.ParallelizeWithThreshold(len(features), threshold, t.params.NThread, func(start, end int) {
		for i := start; i < end; i++ {
			candidates[i] = t.findBestSplitForFeature(e, features[i], g)
		}
	})

	best := splitCandidate{}
	for _, c := range candidates {
		if c.valid && (!best.valid || c.gain > best.gain) {
			best = c
		}
	}
	if !best.valid || best.gain <= rtEps || best.gain <= t.params.Gamma {
		return splitCandidate{}
	}
	return best
}

func (t *trainer) findBestSplitForFeature(e expandEntry, f, g int) splitCandidate {
	nb := t.cuts.numBins(f)
	if nb < 2 {
		return splitCandidate{}
	}
	hist := make([]gradBin, nb)
	var present gradBin
	nMissing := 0
	for _, r := range e.rows {
		b := t.bins[r*t.cols+f]
		if b < 0 {
			nMissing++
			continue
		}
		gr, hs := t.grad[r*t.groups+g], t.hess[r*t.groups+g]
		hist[b].grad += gr
		hist[b].hess += hs
		present.grad += gr
		present.hess += hs
	}
	var missing gradBin
	hasMissing := nMissing > 0
	if hasMissing {
		missing = gradBin{grad: e.grad - present.grad, hess: e.hess - present.hess}
	}

	parentGain := t.gain(e.grad, e.hess)
	best := splitCandidate{}
	try := func(b int, gl, hl, gr, hr float64, defaultLeft bool) {
		if hl < t.params.MinChildWeight || hr < t.params.MinChildWeight {
			return
		}
		chg := t.gain(gl, hl) + t.gain(gr, hr) - parentGain
		if !best.valid || chg > best.gain {
			best = splitCandidate{
				valid:       true,
				feature:     f,
				bin:         b,
				threshold:   t.cuts.cuts[f][b],
				defaultLeft: defaultLeft,
				gain:        chg,
				leftGrad:    gl,
				leftHess:    hl,
				rightGrad:   gr,
				rightHess:   hr,
			}
		}
	}

	var left gradBin
	for b := 0; b < nb-1; b++ {
		left.grad += hist[b].grad
		left.hess += hist[b].hess
		right := gradBin{grad: present.grad - left.grad, hess: present.hess - left.hess}

		// Missing values go right first, then left.
		try(b, left.grad, left.hess, right.grad+missing.grad, right.hess+missing.hess, false)
		if hasMissing {
			try(b, left.grad+missing.grad, left.hess+missing.hess, right.grad, right.hess, true)
		}
	}
	return best
}

// partition splits node rows by the x < threshold rule expressed on bins.
func (t *trainer) partition(rows []int, s splitCandidate) (left, right []int) {
	for _, r := range rows {
		b := t.bins[r*t.cols+s.feature]
		goLeft := int(b) <= s.bin
		if b < 0 {
			goLeft = s.defaultLeft
		}
		if goLeft {
			left = append(left, r)
		} else {
			right = append(right, r)
		}
	}
	return left, right
}

func thresholdL1(w, alpha float64) float64 {
	switch {
	case w > alpha:
		return w - alpha
	case w < -alpha:
		return w + alpha
	default:
		return 0
	}
}

// weight is the optimal leaf weight -G/(H+lambda) with L1 shrinkage.
func (t *trainer) weight(g, h float64) float64 {
	if h < t.params.MinChildWeight || h <= 0 {
		return 0
	}
	return -thresholdL1(g, t.params.Alpha) / (h + t.params.Lambda)
}

// gain is the structure score G^2/(H+lambda) with L1 shrinkage.
func (t *trainer) gain(g, h float64) float64 {
	if h < t.params.MinChildWeight {
		return 0
	}
	tg := thresholdL1(g, t.params.Alpha)
	return tg * tg / (h + t.params.Lambda)
}

// evaluate scores the current training predictions with metric.
func (t *trainer) evaluate(metric string) (float64, error) {
	pred := mat.NewDense(t.rows, t.groups, nil)
	raw := pred.RawMatrix().Data
	copy(raw, t.margins)
	for i := 0; i < t.rows; i++ {
		t.obj.Transform(raw[i*t.groups : (i+1)*t.groups])
	}
	score, err := metrics.Evaluate(metric, t.labels, pred)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(score) {
		return 0, errors.NewNumericalInstabilityError("eval_"+metric, []float64{score}, 0)
	}
	return score, nil
}
