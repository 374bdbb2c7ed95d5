package normalizer

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/turtacn/OntoGround/internal/domain/ontology"
	otypes "github.com/turtacn/OntoGround/pkg/types/ontology"
)

func concept(cat otypes.Category, id, label string, syns ...string) *ontology.Concept {
	return &ontology.Concept{Category: cat, ID: id, Label: label, Provider: "test", Synonyms: syns}
}

func testDictionary() *ontology.Dictionary {
	d := ontology.NewDictionary()
	d.Entities[otypes.CategoryDrugs] = []*ontology.Concept{
		concept(otypes.CategoryDrugs, "RX:1", "sertraline", "zoloft"),
		concept(otypes.CategoryDrugs, "RX:2", "fluoxetine", "prozac"),
	}
	d.Entities[otypes.CategoryConditions] = []*ontology.Concept{
		concept(otypes.CategoryConditions, "SCT:1", "major depressive disorder", "depression", "MDD"),
	}
	d.Entities[otypes.CategoryRelations] = []*ontology.Concept{
		concept(otypes.CategoryRelations, "REL:TREATS", "treats"),
	}
	d.Entities[otypes.CategoryOutcomes] = []*ontology.Concept{
		concept(otypes.CategoryOutcomes, "OUT:1", "response", "treatment response"),
	}
	d.Entities[otypes.CategorySideEffects] = []*ontology.Concept{
		concept(otypes.CategorySideEffects, "SE:1", "nausea"),
	}
	return d
}

func newTestNormalizer(t *testing.T) *Normalizer {
	t.Helper()
	n, err := New(testDictionary(), Options{MinFuzzyScore: DefaultMinFuzzyScore})
	require.NoError(t, err)
	return n
}

//Personal.AI order the ending
