package normalizer

import (
	"strings"

	otypes "github.com/turtacn/OntoGround/pkg/types/ontology"
)

// Harvest collects the original surface form of every unmatched match, per
// category, keeping duplicates and input order. Blank surface forms are not
// harvestable and are skipped. Every category is present in the result.
func Harvest(facts []otypes.NormalizedFact) otypes.Harvest {
	h := make(otypes.Harvest, len(otypes.Categories()))
	for _, cat := range otypes.Categories() {
		h[cat] = []string{}
	}
	for i := range facts {
		facts[i].EachMatch(func(cat otypes.Category, m otypes.NormalizationMatch) {
			if m.IsMatched() || strings.TrimSpace(m.OriginalText) == "" {
				return
			}
			h[cat] = append(h[cat], m.OriginalText)
		})
	}
	return h
}

//Personal.AI order the ending
