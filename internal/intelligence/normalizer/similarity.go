package normalizer

import (
	"github.com/pmezard/go-difflib/difflib"
)

// Ratio returns the difflib similarity ratio 2*M/T of a and b compared rune by
// rune, where M is the number of matched runes and T the total rune count.
// Two empty strings are identical (1.0).
func Ratio(a, b string) float64 {
	return difflib.NewMatcher(splitRunes(a), splitRunes(b)).Ratio()
}

// scorer compares one query against many keys. The query is held as the
// matcher's second sequence so its lookup tables are built once.
type scorer struct {
	m *difflib.SequenceMatcher
}

func newScorer(query string) *scorer {
	return &scorer{m: difflib.NewMatcher(nil, splitRunes(query))}
}

// score returns the ratio of key against the query, or -1 when the cheap
// upper bounds already rule out reaching floor.
func (s *scorer) score(key string, floor float64) float64 {
	s.m.SetSeq1(splitRunes(key))
	if s.m.RealQuickRatio() < floor || s.m.QuickRatio() < floor {
		return -1
	}
	return s.m.Ratio()
}

func splitRunes(s string) []string {
	out := make([]string, 0, len(s))
	for _, r := range s {
		out = append(out, string(r))
	}
	return out
}

//Personal.AI order the ending
