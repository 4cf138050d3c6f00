package inference

import "math"

// Argmax returns the index of the largest value in row, or -1 for an empty
// row. Ties resolve to the lowest index.
func Argmax(row []float32) int {
	best := -1
	for i, v := range row {
		if best < 0 || v > row[best] {
			best = i
		}
	}
	return best
}

// Softmax returns the normalized probabilities of row.
func Softmax(row []float32) []float32 {
	if len(row) == 0 {
		return nil
	}

	maxVal := row[Argmax(row)]
	out := make([]float32, len(row))
	var sum float64
	for i, v := range row {
		e := math.Exp(float64(v - maxVal))
		out[i] = float32(e)
		sum += e
	}
	for i := range out {
		out[i] = float32(float64(out[i]) / sum)
	}
	return out
}
