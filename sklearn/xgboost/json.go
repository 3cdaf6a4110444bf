package xgboost

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/lucidfrontier45/silva/pkg/errors"
)

// formatVersion is the XGBoost release whose JSON layout SaveJSON writes.
var formatVersion = []int{2, 1, 0}

// Document structs mirror XGBoost's JSON model schema. Fields are declared in
// key order so encoded documents match XGBoost's sorted output.

type modelDocument struct {
	Learner learnerJSON `json:"learner"`
	Version []int       `json:"version"`
}

type learnerJSON struct {
	Attributes        map[string]string     `json:"attributes"`
	FeatureNames      []string              `json:"feature_names"`
	FeatureTypes      []string              `json:"feature_types"`
	GradientBooster   gradientBoosterJSON   `json:"gradient_booster"`
	LearnerModelParam learnerModelParamJSON `json:"learner_model_param"`
	Objective         objectiveJSON         `json:"objective"`
}

type gradientBoosterJSON struct {
	Model gbtreeModelJSON `json:"model"`
	Name  string          `json:"name"`
}

type gbtreeModelJSON struct {
	GBTreeModelParam gbtreeModelParamJSON `json:"gbtree_model_param"`
	IterationIndptr  []int                `json:"iteration_indptr,omitempty"`
	TreeInfo         []int                `json:"tree_info"`
	Trees            []treeJSON           `json:"trees"`
}

type gbtreeModelParamJSON struct {
	NumParallelTree string `json:"num_parallel_tree"`
	NumTrees        string `json:"num_trees"`
}

type treeJSON struct {
	BaseWeights        []float32     `json:"base_weights"`
	Categories         []int         `json:"categories"`
	CategoriesNodes    []int         `json:"categories_nodes"`
	CategoriesSegments []int         `json:"categories_segments"`
	CategoriesSizes    []int         `json:"categories_sizes"`
	DefaultLeft        flexBools     `json:"default_left"`
	ID                 int           `json:"id"`
	LeftChildren       []int         `json:"left_children"`
	LossChanges        []float32     `json:"loss_changes"`
	Parents            []int         `json:"parents"`
	RightChildren      []int         `json:"right_children"`
	SplitConditions    []float32     `json:"split_conditions"`
	SplitIndices       []int         `json:"split_indices"`
	SplitType          []int         `json:"split_type"`
	SumHessian         []float32     `json:"sum_hessian"`
	TreeParam          treeParamJSON `json:"tree_param"`
}

type treeParamJSON struct {
	NumDeleted     string `json:"num_deleted"`
	NumFeature     string `json:"num_feature"`
	NumNodes       string `json:"num_nodes"`
	SizeLeafVector string `json:"size_leaf_vector"`
}

type learnerModelParamJSON struct {
	BaseScore        string `json:"base_score"`
	BoostFromAverage string `json:"boost_from_average,omitempty"`
	NumClass         string `json:"num_class"`
	NumFeature       string `json:"num_feature"`
	NumTarget        string `json:"num_target,omitempty"`
}

type objectiveJSON struct {
	Name                   string                   `json:"name"`
	RegLossParam           *regLossParamJSON        `json:"reg_loss_param,omitempty"`
	SoftmaxMulticlassParam *softmaxMulticlassParams `json:"softmax_multiclass_param,omitempty"`
}

type regLossParamJSON struct {
	ScalePosWeight string `json:"scale_pos_weight"`
}

type softmaxMulticlassParams struct {
	NumClass string `json:"num_class"`
}

// flexBools encodes as 0/1 integers and decodes integers or booleans.
type flexBools []bool

func (f flexBools) MarshalJSON() ([]byte, error) {
	ints := make([]int, len(f))
	for i, v := range f {
		if v {
			ints[i] = 1
		}
	}
	return json.Marshal(ints)
}

func (f *flexBools) UnmarshalJSON(data []byte) error {
	var raw []interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	out := make([]bool, len(raw))
	for i, v := range raw {
		switch x := v.(type) {
		case bool:
			out[i] = x
		case float64:
			out[i] = x != 0
		default:
			return fmt.Errorf("default_left[%d]: unexpected value %v", i, v)
		}
	}
	*f = out
	return nil
}

// formatFloat writes a float32 the way XGBoost serializes scalar
// parameters, e.g. 0.5 as "5E-1".
func formatFloat(v float32) string {
	s := strconv.FormatFloat(float64(v), 'E', -1, 32)
	mant, exp, ok := strings.Cut(s, "E")
	if !ok {
		return s
	}
	e, err := strconv.Atoi(exp)
	if err != nil {
		return s
	}
	return fmt.Sprintf("%sE%d", mant, e)
}

// parseBaseScore accepts "5E-1" and the vector form "[5E-1]" used by
// multi-target aware releases.
func parseBaseScore(s string) (float32, error) {
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(strings.TrimPrefix(s, "["), "]")
	parts := strings.Split(s, ",")
	first, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 32)
	if err != nil {
		return 0, err
	}
	for _, p := range parts[1:] {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 32)
		if err != nil {
			return 0, err
		}
		if v != first {
			return 0, fmt.Errorf("per-target base scores are not supported: %q", s)
		}
	}
	return float32(first), nil
}

func parseIntParam(name, s string, fallback int) (int, error) {
	if s == "" {
		return fallback, nil
	}
	v, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, errors.NewModelError("xgboost.Load", "parse "+name, err)
	}
	return v, nil
}

// document converts the booster to its schema representation.
func (b *Booster) document() *modelDocument {
	groups := b.NumOutputs()
	numClass := 0
	obj := objectiveJSON{Name: b.Objective()}
	if groups > 1 {
		numClass = groups
		obj.SoftmaxMulticlassParam = &softmaxMulticlassParams{NumClass: strconv.Itoa(groups)}
	} else {
		obj.RegLossParam = &regLossParamJSON{ScalePosWeight: "1"}
	}

	trees := make([]treeJSON, len(b.trees))
	for i, t := range b.trees {
		n := t.NumNodes()
		trees[i] = treeJSON{
			BaseWeights:        t.BaseWeights,
			Categories:         []int{},
			CategoriesNodes:    []int{},
			CategoriesSegments: []int{},
			CategoriesSizes:    []int{},
			DefaultLeft:        flexBools(t.DefaultLeft),
			ID:                 i,
			LeftChildren:       t.LeftChildren,
			LossChanges:        t.LossChanges,
			Parents:            t.Parents,
			RightChildren:      t.RightChildren,
			SplitConditions:    t.SplitConditions,
			SplitIndices:       t.SplitIndices,
			SplitType:          make([]int, n),
			SumHessian:         t.SumHessian,
			TreeParam: treeParamJSON{
				NumDeleted:     "0",
				NumFeature:     strconv.Itoa(b.numFeature),
				NumNodes:       strconv.Itoa(n),
				SizeLeafVector: "1",
			},
		}
	}

	rounds := b.NumBoostedRounds()
	indptr := make([]int, rounds+1)
	for r := range indptr {
		indptr[r] = r * groups
	}

	featureNames := append([]string{}, b.featureNames...)
	featureTypes := make([]string, len(featureNames))
	for i := range featureTypes {
		featureTypes[i] = "float"
	}

	return &modelDocument{
		Learner: learnerJSON{
			Attributes:   map[string]string{},
			FeatureNames: featureNames,
			FeatureTypes: featureTypes,
			GradientBooster: gradientBoosterJSON{
				Model: gbtreeModelJSON{
					GBTreeModelParam: gbtreeModelParamJSON{
						NumParallelTree: "1",
						NumTrees:        strconv.Itoa(len(b.trees)),
					},
					IterationIndptr: indptr,
					TreeInfo:        append([]int{}, b.treeInfo...),
					Trees:           trees,
				},
				Name: "gbtree",
			},
			LearnerModelParam: learnerModelParamJSON{
				BaseScore:        formatFloat(b.baseScore),
				BoostFromAverage: "1",
				NumClass:         strconv.Itoa(numClass),
				NumFeature:       strconv.Itoa(b.numFeature),
				NumTarget:        "1",
			},
			Objective: obj,
		},
		Version: formatVersion,
	}
}

// SaveJSON writes the model document to w.
func (b *Booster) SaveJSON(w io.Writer) error {
	if !b.IsFitted() {
		return errors.NewNotFittedError("xgboost.Booster", "SaveJSON")
	}
	if err := json.NewEncoder(w).Encode(b.document()); err != nil {
		return errors.Wrap(err, "failed to encode model")
	}
	return nil
}

// Save writes the model document to path, replacing an existing file.
func (b *Booster) Save(path string) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "failed to create model file %s", path)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = errors.Wrapf(cerr, "failed to close model file %s", path)
		}
	}()

	w := bufio.NewWriter(f)
	if err := b.SaveJSON(w); err != nil {
		return err
	}
	if err := w.Flush(); err != nil {
		return errors.Wrapf(err, "failed to write model file %s", path)
	}
	return nil
}

// Load reads a model document from path.
func Load(path string) (*Booster, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open model file %s", path)
	}
	defer f.Close()

	b, err := LoadJSON(bufio.NewReader(f))
	if err != nil {
		return nil, errors.Wrapf(err, "failed to load model from %s", path)
	}
	return b, nil
}

// LoadJSON reads a model document from r.
func LoadJSON(r io.Reader) (*Booster, error) {
	var doc modelDocument
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return nil, errors.NewModelError("xgboost.Load", "decode", err)
	}
	return fromDocument(&doc)
}

func fromDocument(doc *modelDocument) (*Booster, error) {
	const op = "xgboost.Load"
	l := doc.Learner

	if name := l.GradientBooster.Name; name != "gbtree" {
		return nil, errors.NewModelError(op, "booster", fmt.Errorf("unsupported booster %q", name))
	}

	numFeature, err := parseIntParam("num_feature", l.LearnerModelParam.NumFeature, 0)
	if err != nil {
		return nil, err
	}
	numClass, err := parseIntParam("num_class", l.LearnerModelParam.NumClass, 0)
	if err != nil {
		return nil, err
	}
	baseScore, err := parseBaseScore(l.LearnerModelParam.BaseScore)
	if err != nil {
		return nil, errors.NewModelError(op, "parse base_score", err)
	}

	objName := l.Objective.Name
	if objName == "reg:linear" {
		objName = ObjectiveSquaredError
	}
	if p := l.Objective.SoftmaxMulticlassParam; p != nil && numClass == 0 {
		if numClass, err = parseIntParam("num_class", p.NumClass, 0); err != nil {
			return nil, err
		}
	}
	params := Params{Objective: objName}
	if objName == ObjectiveMultiSoftprob {
		params.NumClass = numClass
	}
	obj, err := CreateObjectiveFunction(params)
	if err != nil {
		return nil, errors.NewModelError(op, "objective", err)
	}

	b := newBooster(obj, numFeature, baseScore, 0)
	b.featureNames = l.FeatureNames

	m := l.GradientBooster.Model
	if len(m.TreeInfo) != len(m.Trees) {
		return nil, errors.NewModelError(op, "tree_info",
			fmt.Errorf("%d entries for %d trees", len(m.TreeInfo), len(m.Trees)))
	}
	for i, tj := range m.Trees {
		tree := &RegTree{
			LeftChildren:    tj.LeftChildren,
			RightChildren:   tj.RightChildren,
			Parents:         tj.Parents,
			SplitIndices:    tj.SplitIndices,
			SplitConditions: tj.SplitConditions,
			DefaultLeft:     []bool(tj.DefaultLeft),
			BaseWeights:     tj.BaseWeights,
			LossChanges:     tj.LossChanges,
			SumHessian:      tj.SumHessian,
			NumFeature:      numFeature,
		}
		if !tree.validate() {
			return nil, errors.NewModelError(op, "tree", fmt.Errorf("tree %d is malformed", i))
		}
		group := m.TreeInfo[i]
		if group < 0 || group >= obj.NumGroups() {
			return nil, errors.NewModelError(op, "tree_info",
				fmt.Errorf("tree %d belongs to group %d of %d", i, group, obj.NumGroups()))
		}
		b.appendTree(tree, group)
	}

	b.SetFitted()
	return b, nil
}
