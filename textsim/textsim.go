// Package textsim provides edit-distance based string similarity for
// comparing captured element text across snapshots.
package textsim

// PartialThreshold is the similarity above which two non-identical strings
// count as a partial match.
const PartialThreshold = 0.8

// Distance returns the Levenshtein edit distance between two strings,
// computed over runes.
func Distance(a, b string) int {
	ra := []rune(a)
	rb := []rune(b)
	if len(ra) == 0 {
		return len(rb)
	}
	if len(rb) == 0 {
		return len(ra)
	}

	prev := make([]int, len(rb)+1)
	cur := make([]int, len(rb)+1)
	for j := range prev {
		prev[j] = j
	}

	for i := 1; i <= len(ra); i++ {
		cur[0] = i
		for j := 1; j <= len(rb); j++ {
			cost := 1
			if ra[i-1] == rb[j-1] {
				cost = 0
			}
			cur[j] = min3(cur[j-1]+1, prev[j]+1, prev[j-1]+cost)
		}
		prev, cur = cur, prev
	}
	return prev[len(rb)]
}

// Similarity returns 1 - distance/maxLen in [0,1]. Two empty strings are
// identical (1); exactly one empty string is maximally different (0).
func Similarity(a, b string) float64 {
	if a == "" && b == "" {
		return 1
	}
	if a == "" || b == "" {
		return 0
	}
	la := len([]rune(a))
	lb := len([]rune(b))
	max := la
	if lb > max {
		max = lb
	}
	return 1 - float64(Distance(a, b))/float64(max)
}

// Pair is one matched text pair.
type Pair struct {
	A, B string
}

// Aggregate summarises text similarity over matched pairs. Only pairs where
// at least one side has non-empty text are counted.
type Aggregate struct {
	ComparedPairs   int     `json:"compared_pairs"`
	ExactMatches    int     `json:"exact_matches"`
	PartialMatches  int     `json:"partial_matches"` // similarity in [PartialThreshold, 1)
	AvgEditDistance float64 `json:"avg_edit_distance"`
	AvgSimilarity   float64 `json:"avg_similarity"`
}

// AggregatePairs computes the aggregate text metric over matched pairs.
func AggregatePairs(pairs []Pair) Aggregate {
	var agg Aggregate
	var distSum int
	var simSum float64

	for _, p := range pairs {
		if p.A == "" && p.B == "" {
			continue
		}
		agg.ComparedPairs++
		sim := Similarity(p.A, p.B)
		simSum += sim
		distSum += Distance(p.A, p.B)
		switch {
		case sim == 1:
			agg.ExactMatches++
		case sim >= PartialThreshold:
			agg.PartialMatches++
		}
	}

	if agg.ComparedPairs > 0 {
		agg.AvgEditDistance = float64(distSum) / float64(agg.ComparedPairs)
		agg.AvgSimilarity = simSum / float64(agg.ComparedPairs)
	}
	return agg
}

func min3(a, b, c int) int {
	if b < a {
		a = b
	}
	if c < a {
		a = c
	}
	return a
}
