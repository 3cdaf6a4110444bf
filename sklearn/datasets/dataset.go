package datasets

import (
	"gonum.org/v1/gonum/mat"
)

// Dataset is a feature matrix with one target value per row.
type Dataset struct {
	// X holds one sample per row.
	X *mat.Dense
	// Y holds continuous targets for regression and integer-valued class ids
	// for classification.
	Y []float64
	// NClasses is 0 for regression data.
	NClasses int
	// Coef holds the ground-truth coefficients of a regression dataset, in
	// the final (possibly shuffled) feature order. Nil for classification.
	Coef []float64
}

// Dims returns the number of samples and features.
func (d *Dataset) Dims() (samples, features int) {
	return d.X.Dims()
}

// Rows returns rows [i, j) as a dataset. X is a view sharing storage with d.
func (d *Dataset) Rows(i, j int) *Dataset {
	_, c := d.X.Dims()
	var x *mat.Dense
	if i == j {
		x = &mat.Dense{}
	} else {
		x = d.X.Slice(i, j, 0, c).(*mat.Dense)
	}
	return &Dataset{
		X:        x,
		Y:        d.Y[i:j],
		NClasses: d.NClasses,
		Coef:     d.Coef,
	}
}

// SplitHalf splits d in index order: the first n/2 rows (rounded down) are
// returned as train and the remaining rows as test.
func SplitHalf(d *Dataset) (train, test *Dataset) {
	n, _ := d.Dims()
	mid := n / 2
	return d.Rows(0, mid), d.Rows(mid, n)
}
