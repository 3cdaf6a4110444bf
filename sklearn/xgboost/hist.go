package xgboost

import (
	"math"
	"sort"
)

// histCuts holds per-feature bin upper bounds. A value x falls into the first
// bin whose bound is greater than x, so "bins 0..b go left" is the same rule
// as x < cuts[f][b].
type histCuts struct {
	cuts [][]float64
}

// buildCuts sketches quantile cuts for every column of a row-major matrix.
// Cut values are representable as float32 so that saved split conditions
// reproduce the training partition exactly.
func buildCuts(data []float64, rows, cols, maxBin int) *histCuts {
	hc := &histCuts{cuts: make([][]float64, cols)}
	values := make([]float64, 0, rows)
	for f := 0; f < cols; f++ {
		values = values[:0]
		for i := 0; i < rows; i++ {
			if v := data[i*cols+f]; !math.IsNaN(v) {
				values = append(values, v)
			}
		}
		hc.cuts[f] = featureCuts(values, maxBin)
	}
	return hc
}

func featureCuts(values []float64, maxBin int) []float64 {
	if len(values) == 0 {
		return nil
	}
	sort.Float64s(values)
	unique := values[:1:1]
	for _, v := range values[1:] {
		if v != unique[len(unique)-1] {
			unique = append(unique, v)
		}
	}

	var cuts []float64
	if len(unique) <= maxBin {
		// One bin per distinct value: each bound is the next distinct value.
		cuts = append(cuts, unique[1:]...)
	} else {
		// Equal-frequency bounds over the sorted sample.
		n := len(values)
		for b := 1; b < maxBin; b++ {
			v := values[b*n/maxBin]
			if len(cuts) == 0 || v > cuts[len(cuts)-1] {
				if v > values[0] {
					cuts = append(cuts, v)
				}
			}
		}
	}

	// Last bound sits above the maximum and is never used as a split.
	maxVal := unique[len(unique)-1]
	cuts = append(cuts, maxVal+math.Abs(maxVal)*1e-5+1e-5)
	for i, c := range cuts {
		cuts[i] = float64(float32(c))
	}
	return dedupe(cuts)
}

func dedupe(sorted []float64) []float64 {
	out := sorted[:0]
	for _, v := range sorted {
		if len(out) == 0 || v > out[len(out)-1] {
			out = append(out, v)
		}
	}
	return out
}

// binIndex returns the bin of v for feature f, or -1 for a missing value.
func (hc *histCuts) binIndex(f int, v float64) int32 {
	if math.IsNaN(v) {
		return -1
	}
	c := hc.cuts[f]
	b := sort.Search(len(c), func(i int) bool { return c[i] > v })
	if b == len(c) {
		b = len(c) - 1
	}
	return int32(b)
}

// numBins returns the bin count of feature f.
func (hc *histCuts) numBins(f int) int {
	return len(hc.cuts[f])
}

// quantize maps every value to its bin, row-major.
func (hc *histCuts) quantize(data []float64, rows, cols int) []int32 {
	bins := make([]int32, rows*cols)
	for i := 0; i < rows; i++ {
		for f := 0; f < cols; f++ {
			bins[i*cols+f] = hc.binIndex(f, data[i*cols+f])
		}
	}
	return bins
}

// gradBin accumulates gradient statistics of one histogram bin.
type gradBin struct {
	grad float64
	hess float64
}
