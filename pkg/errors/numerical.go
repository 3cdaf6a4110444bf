package errors

import "math"

const maxReportedValues = 10

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// CheckNumericalStability returns a NumericalInstabilityError when values
// holds a NaN or an infinity.
func CheckNumericalStability(operation string, values []float64, iteration int) error {
	var bad []float64
	for _, v := range values {
		if finite(v) {
			continue
		}
		bad = append(bad, v)
		if len(bad) == maxReportedValues {
			break
		}
	}
	if bad == nil {
		return nil
	}
	return NewNumericalInstabilityError(operation, bad, iteration)
}

// CheckScalar is CheckNumericalStability for one value.
func CheckScalar(operation string, value float64, iteration int) error {
	if finite(value) {
		return nil
	}
	return NewNumericalInstabilityError(operation, []float64{value}, iteration)
}

// Sigmoid computes 1/(1+exp(-x)) without overflowing for large |x|.
func Sigmoid(x float64) float64 {
	if x >= 0 {
		return 1 / (1 + math.Exp(-x))
	}
	z := math.Exp(x)
	return z / (1 + z)
}

// Logit is the inverse of Sigmoid. p is clipped to [1e-16, 1-1e-16].
func Logit(p float64) float64 {
	const eps = 1e-16
	p = ClipValue(p, eps, 1-eps)
	return math.Log(p / (1 - p))
}

func ClipValue(value, lo, hi float64) float64 {
	return math.Min(math.Max(value, lo), hi)
}

// Softmax writes the softmax of logits into out (allocated when nil) and returns it.
func Softmax(logits, out []float64) []float64 {
	if out == nil {
		out = make([]float64, len(logits))
	}
	if len(logits) == 0 {
		return out
	}
	hi := logits[0]
	for _, v := range logits[1:] {
		hi = math.Max(hi, v)
	}
	sum := 0.0
	for i, v := range logits {
		out[i] = math.Exp(v - hi)
		sum += out[i]
	}
	for i := range out {
		out[i] /= sum
	}
	return out
}
