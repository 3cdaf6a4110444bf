package export

import (
	"bufio"
	"encoding/csv"
	"io"
	"math"
	"os"
	"strconv"

	"gonum.org/v1/gonum/mat"

	"github.com/lucidfrontier45/silva/pkg/errors"
)

// FormatValue renders v like NumPy's savetxt default format, %.18e.
func FormatValue(v float64) string {
	switch {
	case math.IsNaN(v):
		return "nan"
	case math.IsInf(v, 1):
		return "inf"
	case math.IsInf(v, -1):
		return "-inf"
	}
	return strconv.FormatFloat(v, 'e', 18, 64)
}

// EncodeCSV writes one line per row of m, values separated by commas,
// without a header.
func EncodeCSV(w io.Writer, m mat.Matrix) error {
	rows, cols := m.Dims()
	cw := csv.NewWriter(w)
	record := make([]string, cols)
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			record[j] = FormatValue(m.At(i, j))
		}
		if err := cw.Write(record); err != nil {
			return errors.Wrapf(err, "failed to write row %d", i)
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteCSV writes m to path, replacing an existing file.
func WriteCSV(path string, m mat.Matrix) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "failed to create %s", path)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = errors.Wrapf(cerr, "failed to close %s", path)
		}
	}()

	w := bufio.NewWriter(f)
	if err := EncodeCSV(w, m); err != nil {
		return errors.Wrapf(err, "failed to write %s", path)
	}
	if err := w.Flush(); err != nil {
		return errors.Wrapf(err, "failed to write %s", path)
	}
	return nil
}

// DecodeCSV parses headerless comma-separated floats. Every line must have
// the same number of values.
func DecodeCSV(r io.Reader) (*mat.Dense, error) {
	cr := csv.NewReader(r)
	cr.ReuseRecord = true

	var data []float64
	rows, cols := 0, 0
	for {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.Wrap(err, "malformed csv")
		}
		if rows == 0 {
			cols = len(record)
		}
		for j, field := range record {
			v, err := strconv.ParseFloat(field, 64)
			if err != nil {
				return nil, errors.NewValueError("DecodeCSV",
					"line "+strconv.Itoa(rows+1)+" column "+strconv.Itoa(j+1)+": "+strconv.Quote(field)+" is not a number")
			}
			data = append(data, v)
		}
		rows++
	}
	if rows == 0 {
		return nil, errors.ErrEmptyData
	}
	return mat.NewDense(rows, cols, data), nil
}

// ReadCSV reads a matrix written by WriteCSV.
func ReadCSV(path string) (*mat.Dense, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open %s", path)
	}
	defer f.Close()

	m, err := DecodeCSV(bufio.NewReader(f))
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read %s", path)
	}
	return m, nil
}
