package circuit

// Permutations returns every ordering of values, generated with Heap's
// algorithm. The input slice is not modified.
func Permutations(values []int64) [][]int64 {
	work := append([]int64(nil), values...)
	var out [][]int64
	heap(work, len(work), &out)
	return out
}

func heap(work []int64, n int, out *[][]int64) {
	if n <= 1 {
		*out = append(*out, append([]int64(nil), work...))
		return
	}
	for i := 0; i < n-1; i++ {
		heap(work, n-1, out)
		if n%2 == 0 {
			work[i], work[n-1] = work[n-1], work[i]
		} else {
			work[0], work[n-1] = work[n-1], work[0]
		}
	}
	heap(work, n-1, out)
}
