package datasets

import (
	"math/rand/v2"

	"gonum.org/v1/gonum/mat"

	silvaErrors "github.com/lucidfrontier45/silva/pkg/errors"
)

const defaultClassificationInformative = 2

// MakeClassification generates a random n-class classification problem.
//
// Each class is made of n_clusters_per_class Gaussian clusters placed on the
// vertices of a hypercube with sides of length 2*class_sep in the informative
// subspace. Every cluster is given a random covariance. The remaining columns
// are, in order, redundant features (random linear combinations of the
// informative ones), repeated features (copies drawn at random from the first
// two groups) and pure noise. A flip_y fraction of labels is then replaced at
// random, and with shuffling enabled rows and columns are permuted.
func MakeClassification(nSamples, nFeatures int, opts ...Option) (*Dataset, error) {
	if nSamples <= 0 {
		return nil, silvaErrors.NewValidationError("n_samples", "must be positive", nSamples)
	}
	if nFeatures <= 0 {
		return nil, silvaErrors.NewValidationError("n_features", "must be positive", nFeatures)
	}
	cfg := newConfig(opts)
	nInformative := defaultClassificationInformative
	if cfg.nInformativeSet {
		nInformative = cfg.nInformative
	}
	if err := validateClassification(cfg, nFeatures, nInformative); err != nil {
		return nil, err
	}

	rng := cfg.rng()
	nClusters := cfg.nClasses * cfg.nClustersPerClass
	nUseful := nInformative + cfg.nRedundant + cfg.nRepeated

	// Equal class weights, remainder handed out round-robin over clusters.
	perCluster := make([]int, nClusters)
	total := 0
	for k := range perCluster {
		perCluster[k] = int(float64(nSamples) / float64(cfg.nClasses) / float64(cfg.nClustersPerClass))
		total += perCluster[k]
	}
	for i := 0; i < nSamples-total; i++ {
		perCluster[i%nClusters]++
	}

	centroids := hypercubeVertices(nClusters, nInformative, rng)
	for _, c := range centroids {
		for j := range c {
			c[j] = c[j]*2*cfg.classSep - cfg.classSep
		}
	}
	if !cfg.hypercube {
		colScale := make([]float64, nInformative)
		for j := range colScale {
			colScale[j] = rng.Float64()
		}
		for _, c := range centroids {
			s := 2 * rng.Float64()
			for j := range c {
				c[j] *= s * colScale[j]
			}
		}
	}

	X := mat.NewDense(nSamples, nFeatures, nil)
	Y := make([]float64, nSamples)

	for i := 0; i < nSamples; i++ {
		for j := 0; j < nInformative; j++ {
			X.Set(i, j, rng.NormFloat64())
		}
	}

	start := 0
	for k, centroid := range centroids {
		stop := start + perCluster[k]
		for i := start; i < stop; i++ {
			Y[i] = float64(k % cfg.nClasses)
		}
		if stop > start {
			A := uniformMatrix(nInformative, nInformative, rng)
			block := X.Slice(start, stop, 0, nInformative).(*mat.Dense)
			var mixed mat.Dense
			mixed.Mul(block, A)
			block.Copy(&mixed)
			for i := 0; i < stop-start; i++ {
				row := block.RawRowView(i)
				for j := range row {
					row[j] += centroid[j]
				}
			}
		}
		start = stop
	}

	if cfg.nRedundant > 0 {
		B := uniformMatrix(nInformative, cfg.nRedundant, rng)
		informative := X.Slice(0, nSamples, 0, nInformative)
		var combined mat.Dense
		combined.Mul(informative, B)
		X.Slice(0, nSamples, nInformative, nInformative+cfg.nRedundant).(*mat.Dense).Copy(&combined)
	}

	if cfg.nRepeated > 0 {
		n := nInformative + cfg.nRedundant
		for r := 0; r < cfg.nRepeated; r++ {
			src := int(float64(n-1)*rng.Float64() + 0.5)
			for i := 0; i < nSamples; i++ {
				X.Set(i, n+r, X.At(i, src))
			}
		}
	}

	for i := 0; i < nSamples; i++ {
		for j := nUseful; j < nFeatures; j++ {
			X.Set(i, j, rng.NormFloat64())
		}
	}

	if cfg.flipY > 0 {
		for i := range Y {
			if rng.Float64() < cfg.flipY {
				Y[i] = float64(rng.IntN(cfg.nClasses))
			}
		}
	}

	ds := &Dataset{X: X, Y: Y, NClasses: cfg.nClasses}
	if cfg.shuffle {
		shuffleRows(ds, rng.Perm(nSamples))
		shuffleColumns(ds.X, rng.Perm(nFeatures))
	}
	return ds, nil
}

func validateClassification(cfg *config, nFeatures, nInformative int) error {
	switch {
	case nInformative <= 0:
		return silvaErrors.NewValidationError("n_informative", "must be positive", nInformative)
	case cfg.nRedundant < 0:
		return silvaErrors.NewValidationError("n_redundant", "must be non-negative", cfg.nRedundant)
	case cfg.nRepeated < 0:
		return silvaErrors.NewValidationError("n_repeated", "must be non-negative", cfg.nRepeated)
	case cfg.nClasses < 2:
		return silvaErrors.NewValidationError("n_classes", "must be at least 2", cfg.nClasses)
	case cfg.nClustersPerClass <= 0:
		return silvaErrors.NewValidationError("n_clusters_per_class", "must be positive", cfg.nClustersPerClass)
	case cfg.flipY < 0 || cfg.flipY > 1:
		return silvaErrors.NewValidationError("flip_y", "must be in [0, 1]", cfg.flipY)
	}
	if sum := nInformative + cfg.nRedundant + cfg.nRepeated; sum > nFeatures {
		return silvaErrors.NewValidationError("n_features",
			"number of informative, redundant and repeated features must sum to at most n_features", sum)
	}
	if nInformative < 63 && cfg.nClasses*cfg.nClustersPerClass > 1<<nInformative {
		return silvaErrors.NewValidationError("n_classes",
			"n_classes * n_clusters_per_class must be smaller or equal 2**n_informative",
			cfg.nClasses*cfg.nClustersPerClass)
	}
	return nil
}

// hypercubeVertices draws n distinct vertices of the unit hypercube in d dimensions.
func hypercubeVertices(n, d int, rng *rand.Rand) [][]float64 {
	seen := make(map[string]struct{}, n)
	out := make([][]float64, 0, n)
	key := make([]byte, d)
	for len(out) < n {
		v := make([]float64, d)
		for j := range v {
			if rng.IntN(2) == 1 {
				v[j] = 1
				key[j] = '1'
			} else {
				key[j] = '0'
			}
		}
		if _, dup := seen[string(key)]; dup {
			continue
		}
		seen[string(key)] = struct{}{}
		out = append(out, v)
	}
	return out
}

// uniformMatrix returns an r x c matrix with entries drawn from U(-1, 1).
func uniformMatrix(r, c int, rng *rand.Rand) *mat.Dense {
	data := make([]float64, r*c)
	for i := range data {
		data[i] = 2*rng.Float64() - 1
	}
	return mat.NewDense(r, c, data)
}
