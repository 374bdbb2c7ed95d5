package normalizer

import (
	"github.com/turtacn/OntoGround/pkg/errors"
	otypes "github.com/turtacn/OntoGround/pkg/types/ontology"
)

// DefaultMinFuzzyScore is the minimum similarity an approximate match needs.
const DefaultMinFuzzyScore = 0.86

// Recorder receives matching observations. EngineMetrics implements it.
type Recorder interface {
	ObserveMatch(cat otypes.Category, kind otypes.MatchKind, score float64)
	ObserveFact(ok bool)
	ObserveIndex(cat otypes.Category, keys, conflicts int)
}

type nopRecorder struct{}

func (nopRecorder) ObserveMatch(otypes.Category, otypes.MatchKind, float64) {}
func (nopRecorder) ObserveFact(bool)                                       {}
func (nopRecorder) ObserveIndex(otypes.Category, int, int)                 {}

// Matcher resolves one surface form against an Index.
type Matcher struct {
	index     *Index
	threshold float64
	recorder  Recorder
}

// NewMatcher validates threshold, which must lie in (0, 1].
func NewMatcher(index *Index, threshold float64, rec Recorder) (*Matcher, error) {
	if index == nil {
		return nil, errors.Configuration("matcher requires an index")
	}
	if threshold <= 0 || threshold > 1 {
		return nil, errors.Configuration("fuzzy threshold out of range (0, 1]").
			WithDetailf("min_fuzzy_score=%v", threshold)
	}
	if rec == nil {
		rec = nopRecorder{}
	}
	return &Matcher{index: index, threshold: threshold, recorder: rec}, nil
}

// Threshold returns the minimum fuzzy score.
func (m *Matcher) Threshold() float64 { return m.threshold }

// Lookup grounds raw in cat: exact or synonym key hit first, then the best
// approximate key at or above the threshold, otherwise unmatched. Among keys
// with equal similarity the lexicographically smallest wins.
func (m *Matcher) Lookup(cat otypes.Category, raw string) otypes.NormalizationMatch {
	match := m.lookup(cat, raw)
	m.recorder.ObserveMatch(cat, match.MatchKind, match.Score)
	return match
}

func (m *Matcher) lookup(cat otypes.Category, raw string) otypes.NormalizationMatch {
	ci := m.index.Category(cat)
	key := m.index.Normalize(raw)
	if ci == nil || key == "" {
		return otypes.Unmatched(raw)
	}

	if e, ok := ci.get(key); ok {
		return matchFor(raw, e, e.kind, 1.0)
	}

	bestKey, bestScore := "", -1.0
	sc := newScorer(key)
	for _, candidate := range ci.keys {
		floor := m.threshold
		if bestScore > floor {
			floor = bestScore
		}
		r := sc.score(candidate, floor)
		// keys are sorted, so a later tie never displaces the earlier key
		if r >= m.threshold && r > bestScore {
			bestKey, bestScore = candidate, r
		}
	}
	if bestKey == "" {
		return otypes.Unmatched(raw)
	}
	e, _ := ci.get(bestKey)
	return matchFor(raw, e, otypes.MatchFuzzy, bestScore)
}

func matchFor(raw string, e indexEntry, kind otypes.MatchKind, score float64) otypes.NormalizationMatch {
	return otypes.NormalizationMatch{
		OriginalText: raw,
		ConceptID:    e.concept.ID,
		Label:        e.concept.Label,
		Provider:     e.concept.Provider,
		MatchKind:    kind,
		Score:        score,
	}
}

//Personal.AI order the ending
