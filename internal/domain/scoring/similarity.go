package scoring

import "sort"

// Jaccard returns |A ∩ B| / |A ∪ B| over the distinct elements of a and b.
// Two empty sets have similarity 0.
func Jaccard[T comparable](a, b []T) float64 {
	setA := make(map[T]struct{}, len(a))
	for _, v := range a {
		setA[v] = struct{}{}
	}
	setB := make(map[T]struct{}, len(b))
	for _, v := range b {
		setB[v] = struct{}{}
	}

	union := len(setA)
	intersection := 0
	for v := range setB {
		if _, ok := setA[v]; ok {
			intersection++
		} else {
			union++
		}
	}
	if union == 0 {
		return 0
	}
	return float64(intersection) / float64(union)
}

func sortedKeys(m map[string]struct{}) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
