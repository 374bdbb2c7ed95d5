package resolver

import (
	otypes "github.com/turtacn/OntoGround/pkg/types/ontology"
)

// Vocabulary names.
const (
	VocabRxNorm = "rxnorm"
	VocabSNOMED = "snomed"
)

// DefaultStrategies is the per-category priority order of external
// vocabularies. Relations are internal predicates and never resolve
// externally.
var DefaultStrategies = map[otypes.Category][]string{
	otypes.CategoryDrugs:       {VocabRxNorm, VocabSNOMED},
	otypes.CategoryConditions:  {VocabSNOMED, VocabRxNorm},
	otypes.CategorySideEffects: {VocabSNOMED},
	otypes.CategoryOutcomes:    {VocabSNOMED},
	otypes.CategoryRelations:   {},
}

// buildStrategies binds strategy names to registered vocabularies, dropping
// names with no registered vocabulary.
func buildStrategies(table map[otypes.Category][]string, vocabs map[string]Vocabulary) map[otypes.Category][]Vocabulary {
	out := make(map[otypes.Category][]Vocabulary, len(otypes.Categories()))
	for _, cat := range otypes.Categories() {
		chain := make([]Vocabulary, 0, len(table[cat]))
		for _, name := range table[cat] {
			if v, ok := vocabs[name]; ok {
				chain = append(chain, v)
			}
		}
		out[cat] = chain
	}
	return out
}

//Personal.AI order the ending
