package eeg

// DecimateMinMax reduces values to at most target points while preserving
// signal extremes. Values are split into buckets of equal width and each
// bucket contributes its minimum and maximum in positional order, so spikes
// survive that a plain stride would drop. The returned indices locate each
// kept value in the input.
//
// Inputs already at or under the target are returned as-is. Targets under 2
// fall back to the full input.
func DecimateMinMax(values []float64, target int) (indices []int, out []float64) {
	n := len(values)
	if n == 0 {
		return nil, nil
	}
	if target < 2 || n <= target {
		indices = make([]int, n)
		for i := range indices {
			indices[i] = i
		}
		return indices, values
	}

	buckets := target / 2
	indices = make([]int, 0, 2*buckets)
	out = make([]float64, 0, 2*buckets)

	for b := 0; b < buckets; b++ {
		lo := b * n / buckets
		hi := (b + 1) * n / buckets
		if lo >= hi {
			continue
		}

		minIdx, maxIdx := lo, lo
		for i := lo + 1; i < hi; i++ {
			if values[i] < values[minIdx] {
				minIdx = i
			}
			if values[i] > values[maxIdx] {
				maxIdx = i
			}
		}

		first, second := minIdx, maxIdx
		if first > second {
			first, second = second, first
		}
		indices = append(indices, first)
		out = append(out, values[first])
		if second != first {
			indices = append(indices, second)
			out = append(out, values[second])
		}
	}

	return indices, out
}
