package datasets

import (
	"math/rand/v2"
)

// Option configures a generator call.
type Option func(*config)

type config struct {
	nInformative      int
	nInformativeSet   bool
	nRedundant        int
	nRepeated         int
	nClasses          int
	nClustersPerClass int
	flipY             float64
	classSep          float64
	hypercube         bool
	noise             float64
	bias              float64
	shuffle           bool
	seed              *uint64
}

func defaultConfig() *config {
	return &config{
		nRedundant:        2,
		nClasses:          2,
		nClustersPerClass: 2,
		flipY:             0.01,
		classSep:          1.0,
		hypercube:         true,
		shuffle:           true,
	}
}

func newConfig(opts []Option) *config {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}

// rng returns a PCG generator for the configured seed, or a freshly seeded one.
func (c *config) rng() *rand.Rand {
	if c.seed != nil {
		return rand.New(rand.NewPCG(*c.seed, *c.seed))
	}
	return rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
}

// WithNInformative sets the number of informative features.
// Defaults: 10 for MakeRegression (capped at the feature count), 2 for MakeClassification.
func WithNInformative(n int) Option {
	return func(c *config) {
		c.nInformative = n
		c.nInformativeSet = true
	}
}

// WithNRedundant sets the number of linear combinations of informative features (classification).
func WithNRedundant(n int) Option {
	return func(c *config) {
		c.nRedundant = n
	}
}

// WithNRepeated sets the number of duplicated features (classification).
func WithNRepeated(n int) Option {
	return func(c *config) {
		c.nRepeated = n
	}
}

// WithNClasses sets the number of classes (classification).
func WithNClasses(n int) Option {
	return func(c *config) {
		c.nClasses = n
	}
}

// WithNClustersPerClass sets the number of Gaussian clusters per class (classification).
func WithNClustersPerClass(n int) Option {
	return func(c *config) {
		c.nClustersPerClass = n
	}
}

// WithFlipY sets the fraction of labels reassigned at random (classification).
func WithFlipY(f float64) Option {
	return func(c *config) {
		c.flipY = f
	}
}

// WithClassSep scales the hypercube the cluster centroids sit on (classification).
func WithClassSep(s float64) Option {
	return func(c *config) {
		c.classSep = s
	}
}

// WithHypercube places centroids on hypercube vertices when true, or on a
// random polytope when false (classification).
func WithHypercube(h bool) Option {
	return func(c *config) {
		c.hypercube = h
	}
}

// WithNoise sets the standard deviation of Gaussian noise added to the target (regression).
func WithNoise(sd float64) Option {
	return func(c *config) {
		c.noise = sd
	}
}

// WithBias sets the target intercept (regression).
func WithBias(b float64) Option {
	return func(c *config) {
		c.bias = b
	}
}

// WithShuffle controls whether samples and features are permuted.
func WithShuffle(s bool) Option {
	return func(c *config) {
		c.shuffle = s
	}
}

// WithRandomState fixes the generator seed.
func WithRandomState(seed uint64) Option {
	return func(c *config) {
		s := seed
		c.seed = &s
	}
}
