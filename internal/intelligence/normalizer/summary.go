package normalizer

import (
	otypes "github.com/turtacn/OntoGround/pkg/types/ontology"
)

// Summarize tallies matched and unmatched facts per field. A fact with no
// outcome counts as outcome-matched. A fact counts as side-effect-matched
// when it lists none or every listed side effect matched.
func Summarize(facts []otypes.NormalizedFact) otypes.Summary {
	s := otypes.Summary{Total: len(facts)}
	for i := range facts {
		f := &facts[i]
		s.Drug.Add(f.Drug.IsMatched())
		s.Condition.Add(f.Condition.IsMatched())
		s.Relation.Add(f.Relation.IsMatched())
		s.Outcome.Add(f.Outcome == nil || f.Outcome.IsMatched())

		allMatched := true
		for _, se := range f.SideEffects {
			if !se.IsMatched() {
				allMatched = false
				break
			}
		}
		s.SideEffects.Add(allMatched)
	}
	return s
}

//Personal.AI order the ending
