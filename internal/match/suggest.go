package match

import (
	"slices"
	"strings"
)

// MinSimilarity is the score below which a candidate is not suggested.
const MinSimilarity = 0.5

// Candidate is a scored suggestion.
type Candidate struct {
	Name  string
	Score float64
}

// Rank scores every candidate against name, best first. Ties are broken by
// name so the order is stable.
func Rank(name string, candidates []string) []Candidate {
	ranked := make([]Candidate, 0, len(candidates))
	for _, c := range candidates {
		ranked = append(ranked, Candidate{Name: c, Score: Similarity(name, c)})
	}

	slices.SortFunc(ranked, func(a, b Candidate) int {
		switch {
		case a.Score > b.Score:
			return -1
		case a.Score < b.Score:
			return 1
		default:
			return strings.Compare(a.Name, b.Name)
		}
	})

	return ranked
}

// Suggest returns at most limit candidates similar enough to name.
func Suggest(name string, candidates []string, limit int) []string {
	var out []string

	for _, c := range Rank(name, candidates) {
		if len(out) == limit || c.Score < MinSimilarity {
			break
		}
		out = append(out, c.Name)
	}

	return out
}
