package xgboost

import (
	"gonum.org/v1/gonum/mat"

	"github.com/lucidfrontier45/silva/pkg/errors"
)

// DMatrix is a training matrix with its labels.
type DMatrix struct {
	X            mat.Matrix
	Label        []float64
	FeatureNames []string
}

// NewDMatrix pairs X with one label per row.
func NewDMatrix(X mat.Matrix, label []float64) (*DMatrix, error) {
	rows, cols := X.Dims()
	if rows == 0 || cols == 0 {
		return nil, errors.ErrEmptyData
	}
	if len(label) != rows {
		return nil, errors.NewDimensionError("NewDMatrix", rows, len(label), 0)
	}
	return &DMatrix{X: X, Label: label}, nil
}

// SetFeatureNames names the columns; the names are written to saved models.
func (d *DMatrix) SetFeatureNames(names []string) error {
	if _, cols := d.X.Dims(); len(names) != cols {
		return errors.NewDimensionError("SetFeatureNames", cols, len(names), 1)
	}
	d.FeatureNames = append([]string(nil), names...)
	return nil
}

// Dims returns the row and column counts.
func (d *DMatrix) Dims() (rows, cols int) {
	return d.X.Dims()
}

// rowMajor copies X into a row-major slice with every value rounded to
// float32, the precision trees compare at.
func rowMajor(X mat.Matrix) []float64 {
	rows, cols := X.Dims()
	out := make([]float64, rows*cols)
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			out[i*cols+j] = float64(float32(X.At(i, j)))
		}
	}
	return out
}
