package list

// increasingSubsequence returns the positions of a longest strictly increasing
// subsequence of seq, ignoring zero values. seq holds old index + 1 for each
// slot of the unprocessed new range, zero for slots that have no old entry.
//
// It runs in O(n log n): tails[k] is the position of the smallest tail of an
// increasing run of length k+1 found so far, and prev links each position to
// its predecessor in the run it extends.
func increasingSubsequence(seq []int) []int {
	prev := make([]int, len(seq))
	tails := make([]int, 0, len(seq))

	for i, v := range seq {
		if v == 0 {
			continue
		}
		if n := len(tails); n == 0 || seq[tails[n-1]] < v {
			if n > 0 {
				prev[i] = tails[n-1]
			}
			tails = append(tails, i)
			continue
		}

		lo, hi := 0, len(tails)-1
		for lo < hi {
			mid := (lo + hi) / 2
			if seq[tails[mid]] < v {
				lo = mid + 1
			} else {
				hi = mid
			}
		}
		if v < seq[tails[lo]] {
			if lo > 0 {
				prev[i] = tails[lo-1]
			}
			tails[lo] = i
		}
	}

	out := make([]int, len(tails))
	if len(tails) == 0 {
		return out
	}
	at := tails[len(tails)-1]
	for k := len(tails) - 1; k >= 0; k-- {
		out[k] = at
		at = prev[at]
	}
	return out
}
