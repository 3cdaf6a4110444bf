package datasets

import (
	"gonum.org/v1/gonum/mat"

	silvaErrors "github.com/lucidfrontier45/silva/pkg/errors"
)

const defaultRegressionInformative = 10

// MakeRegression generates a linear regression problem.
//
// X is standard normal. The first n_informative features (default 10, capped
// at nFeatures) get coefficients drawn from 100*U(0,1), the rest get zero.
// y = X·coef + bias, plus Gaussian noise when WithNoise is positive. With
// shuffling enabled (the default) rows and feature columns are permuted.
func MakeRegression(nSamples, nFeatures int, opts ...Option) (*Dataset, error) {
	if nSamples <= 0 {
		return nil, silvaErrors.NewValidationError("n_samples", "must be positive", nSamples)
	}
	if nFeatures <= 0 {
		return nil, silvaErrors.NewValidationError("n_features", "must be positive", nFeatures)
	}
	cfg := newConfig(opts)
	nInformative := defaultRegressionInformative
	if cfg.nInformativeSet {
		nInformative = cfg.nInformative
	}
	if nInformative < 0 {
		return nil, silvaErrors.NewValidationError("n_informative", "must be non-negative", nInformative)
	}
	nInformative = min(nInformative, nFeatures)
	if cfg.noise < 0 {
		return nil, silvaErrors.NewValidationError("noise", "must be non-negative", cfg.noise)
	}

	rng := cfg.rng()

	X := mat.NewDense(nSamples, nFeatures, nil)
	raw := X.RawMatrix().Data
	for i := range raw {
		raw[i] = rng.NormFloat64()
	}

	coef := make([]float64, nFeatures)
	for j := 0; j < nInformative; j++ {
		coef[j] = 100 * rng.Float64()
	}

	y := mat.NewVecDense(nSamples, nil)
	y.MulVec(X, mat.NewVecDense(nFeatures, coef))
	Y := make([]float64, nSamples)
	for i := range Y {
		Y[i] = y.AtVec(i) + cfg.bias
		if cfg.noise > 0 {
			Y[i] += cfg.noise * rng.NormFloat64()
		}
	}

	ds := &Dataset{X: X, Y: Y, Coef: coef}
	if cfg.shuffle {
		shuffleRows(ds, rng.Perm(nSamples))
		perm := rng.Perm(nFeatures)
		shuffleColumns(ds.X, perm)
		shuffled := make([]float64, nFeatures)
		for j, src := range perm {
			shuffled[j] = coef[src]
		}
		ds.Coef = shuffled
	}
	return ds, nil
}

// shuffleRows reorders X and Y so that new row i is old row perm[i].
func shuffleRows(d *Dataset, perm []int) {
	r, c := d.X.Dims()
	X := mat.NewDense(r, c, nil)
	Y := make([]float64, r)
	for i, src := range perm {
		X.SetRow(i, d.X.RawRowView(src))
		Y[i] = d.Y[src]
	}
	d.X = X
	d.Y = Y
}

// shuffleColumns reorders X in place so that new column j is old column perm[j].
func shuffleColumns(X *mat.Dense, perm []int) {
	r, c := X.Dims()
	row := make([]float64, c)
	for i := 0; i < r; i++ {
		src := X.RawRowView(i)
		for j, p := range perm {
			row[j] = src[p]
		}
		copy(src, row)
	}
}
