package util

// MaxBy returns the value of m with the highest score.
// Ties are broken by the smallest key so the result does not depend on map order.
func MaxBy[K ~string, T any](m map[K]T, score func(T) int) (T, bool) {
	var (
		best      T
		bestKey   K
		bestScore int
		found     bool
	)
	for k, v := range m {
		s := score(v)
		if !found || s > bestScore || (s == bestScore && k < bestKey) {
			best, bestKey, bestScore, found = v, k, s, true
		}
	}
	return best, found
}
