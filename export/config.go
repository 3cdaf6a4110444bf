package export

import (
	"io"
	"os"

	"gopkg.in/natefinch/lumberjack.v2"
	"gopkg.in/yaml.v2"

	"github.com/lucidfrontier45/silva/pkg/errors"
)

// Mode selects which rows are trained on and scored.
type Mode string

const (
	// ModeFullFit trains on every row and scores every row.
	ModeFullFit Mode = "full_fit"
	// ModeSplit trains on the first n/2 rows and scores the rest.
	ModeSplit Mode = "split"
)

// Variant names of the two presets.
const (
	VariantSample = "sample"
	VariantTest   = "test"
)

// Config describes one export run.
type Config struct {
	Variant   string `yaml:"variant"`
	Root      string `yaml:"root"`
	ModelFile string `yaml:"model_file"`
	NSamples  int    `yaml:"n_samples"`
	NFeatures int    `yaml:"n_features"`
	Mode      Mode   `yaml:"mode"`
	// Seed fixes both the dataset generator and the trainer. Nil leaves
	// the generator unseeded and the trainer at seed 0.
	Seed *uint64 `yaml:"seed"`
	// Rounds is the boosting round count; 0 uses the trainer default.
	Rounds     int    `yaml:"rounds"`
	TreeMethod string `yaml:"tree_method"`
	// ShowProgress draws a boosting progress bar per task.
	ShowProgress bool      `yaml:"show_progress"`
	Tasks        []Task    `yaml:"tasks"`
	Log          LogConfig `yaml:"log"`
}

// LogConfig configures the log sink of the command line tool.
type LogConfig struct {
	Level string `yaml:"level"`
	// File additionally writes JSON logs to a size-rotated file when set.
	File       string `yaml:"file"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days"`
	Compress   bool   `yaml:"compress"`
}

// SampleConfig returns the illustrative preset: unseeded, full-fit, 100x10
// datasets, 50 rounds, models named xgb_model.json under the working directory.
func SampleConfig() Config {
	return Config{
		Variant:    VariantSample,
		Root:       ".",
		ModelFile:  "xgb_model.json",
		NSamples:   100,
		NFeatures:  10,
		Mode:       ModeFullFit,
		Rounds:     50,
		TreeMethod: "hist",
		Tasks: []Task{
			{Name: TaskRegression, Noise: 0.1, EvalMetric: "rmse"},
			{Name: TaskBinaryClassification, NumInformative: 5, EvalMetric: "logloss"},
			{Name: TaskMulticlassClassification, NumClass: 3, NumInformative: 7, EvalMetric: "mlogloss"},
		},
		Log: LogConfig{Level: "info"},
	}
}

// TestConfig returns the reproducible preset: seed 0, split mode, 100x5
// datasets, default rounds, models named model.json under test_data/xgboost.
func TestConfig() Config {
	seed := uint64(0)
	return Config{
		Variant:   VariantTest,
		Root:      "test_data/xgboost",
		ModelFile: "model.json",
		NSamples:  100,
		NFeatures: 5,
		Mode:      ModeSplit,
		Seed:      &seed,
		Tasks: []Task{
			{Name: TaskRegression},
			{Name: TaskBinaryClassification},
			{Name: TaskMulticlassClassification, NumClass: 3, NumInformative: 3},
		},
		Log: LogConfig{Level: "info"},
	}
}

// Preset returns the named preset.
func Preset(variant string) (Config, error) {
	switch variant {
	case "", VariantSample:
		return SampleConfig(), nil
	case VariantTest:
		return TestConfig(), nil
	default:
		return Config{}, errors.NewValidationError("variant", "must be sample or test", variant)
	}
}

// LoadConfig reads a YAML run configuration. The file names a preset with
// `variant:` and overrides any of its fields; a tasks list replaces the
// preset's tasks.
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, errors.Wrapf(err, "failed to read config %s", path)
	}

	var head struct {
		Variant string `yaml:"variant"`
	}
	if err := yaml.Unmarshal(data, &head); err != nil {
		return Config{}, errors.Wrapf(err, "failed to parse config %s", path)
	}
	cfg, err := Preset(head.Variant)
	if err != nil {
		return Config{}, err
	}
	if err := yaml.UnmarshalStrict(data, &cfg); err != nil {
		return Config{}, errors.Wrapf(err, "failed to parse config %s", path)
	}
	if cfg.Variant == "" {
		cfg.Variant = VariantSample
	}
	return cfg, cfg.Validate()
}

// Validate checks the run-level fields and every task.
func (c Config) Validate() error {
	switch {
	case c.Root == "":
		return errors.NewValidationError("root", "must not be empty", c.Root)
	case c.ModelFile == "":
		return errors.NewValidationError("model_file", "must not be empty", c.ModelFile)
	case c.NSamples <= 0:
		return errors.NewValidationError("n_samples", "must be positive", c.NSamples)
	case c.NFeatures <= 0:
		return errors.NewValidationError("n_features", "must be positive", c.NFeatures)
	case c.Rounds < 0:
		return errors.NewValidationError("rounds", "must be non-negative", c.Rounds)
	case len(c.Tasks) == 0:
		return errors.NewValidationError("tasks", "must not be empty", len(c.Tasks))
	}
	switch c.Mode {
	case ModeFullFit:
	case ModeSplit:
		if c.NSamples < 2 {
			return errors.NewValidationError("n_samples", "split mode needs at least 2 samples", c.NSamples)
		}
	default:
		return errors.NewValidationError("mode", "must be full_fit or split", c.Mode)
	}
	last := -1
	for _, t := range c.Tasks {
		if err := t.Validate(); err != nil {
			return err
		}
		idx := taskIndex(t.Name)
		switch {
		case idx == last:
			return errors.NewValidationError("tasks", "duplicate task", t.Name)
		case idx < last:
			return errors.NewValidationError("tasks", "must run in order regression, binary_classification, multiclass_classification", t.Name)
		}
		last = idx
	}
	return nil
}

func taskIndex(name string) int {
	for i, n := range TaskNames {
		if n == name {
			return i
		}
	}
	return -1
}

// trainerSeed is the seed handed to the booster.
func (c Config) trainerSeed() uint64 {
	if c.Seed != nil {
		return *c.Seed
	}
	return 0
}

// Writer returns the log destination: stderr, plus a rotating file when
// File is set. The closer releases the file and is never nil.
func (l LogConfig) Writer() (io.Writer, io.Closer) {
	if l.File == "" {
		return os.Stderr, nopCloser{}
	}
	rotating := &lumberjack.Logger{
		Filename:   l.File,
		MaxSize:    l.MaxSizeMB,
		MaxBackups: l.MaxBackups,
		MaxAge:     l.MaxAgeDays,
		Compress:   l.Compress,
	}
	return io.MultiWriter(os.Stderr, rotating), rotating
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
