package normalizer

import (
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/OntoGround/internal/domain/ontology"
	"github.com/turtacn/OntoGround/pkg/errors"
	otypes "github.com/turtacn/OntoGround/pkg/types/ontology"
)

func TestBuildIndex_RegistersLabelsAndSynonyms(t *testing.T) {
	idx, err := BuildIndex(testDictionary(), ConflictWarn, Surface)
	require.NoError(t, err)

	drugs := idx.Category(otypes.CategoryDrugs)
	assert.Equal(t, []string{"fluoxetine", "prozac", "sertraline", "zoloft"}, drugs.Keys())
	assert.True(t, sort.StringsAreSorted(idx.Category(otypes.CategoryConditions).Keys()))
	assert.Equal(t, 2, drugs.Concepts())

	e, ok := drugs.get("zoloft")
	require.True(t, ok)
	assert.Equal(t, "RX:1", e.concept.ID)
	assert.Equal(t, otypes.MatchSynonym, e.kind)

	assert.True(t, idx.Contains(otypes.CategoryConditions, "MDD"))
	assert.False(t, idx.Contains(otypes.CategoryDrugs, "MDD"))
	assert.False(t, idx.Contains(otypes.CategoryDrugs, "  "))
	assert.Empty(t, idx.Conflicts())
}

func collidingDictionary() *ontology.Dictionary {
	d := ontology.NewDictionary()
	d.Entities[otypes.CategoryDrugs] = []*ontology.Concept{
		concept(otypes.CategoryDrugs, "RX:1", "sertraline", "zoloft"),
		concept(otypes.CategoryDrugs, "RX:9", "Zoloft", "lustral"),
	}
	return d
}

func TestBuildIndex_ConflictWarnKeepsFirst(t *testing.T) {
	idx, err := BuildIndex(collidingDictionary(), ConflictWarn, Surface)
	require.NoError(t, err)

	conflicts := idx.Conflicts()
	require.Len(t, conflicts, 1)
	assert.Equal(t, Conflict{
		Category: otypes.CategoryDrugs, Key: "zoloft",
		KeptID: "RX:1", KeptKind: otypes.MatchSynonym,
		DroppedID: "RX:9", DroppedKind: otypes.MatchExact,
	}, conflicts[0])
	assert.Len(t, idx.ConflictsIn(otypes.CategoryDrugs), 1)
	assert.Empty(t, idx.ConflictsIn(otypes.CategoryConditions))
	assert.Contains(t, conflicts[0].String(), `"zoloft"`)

	e, _ := idx.Category(otypes.CategoryDrugs).get("zoloft")
	assert.Equal(t, "RX:1", e.concept.ID)
	e, _ = idx.Category(otypes.CategoryDrugs).get("lustral")
	assert.Equal(t, "RX:9", e.concept.ID)
}

func TestBuildIndex_ConflictReject(t *testing.T) {
	_, err := BuildIndex(collidingDictionary(), ConflictReject, Surface)
	require.Error(t, err)
	assert.True(t, errors.IsConfiguration(err))
	assert.Contains(t, err.Error(), "zoloft")
}

func TestBuildIndex_SameConceptDuplicateIgnored(t *testing.T) {
	d := ontology.NewDictionary()
	d.Entities[otypes.CategoryDrugs] = []*ontology.Concept{
		concept(otypes.CategoryDrugs, "RX:1", "Zoloft", "zoloft", "ZOLOFT", "", "!!"),
	}
	idx, err := BuildIndex(d, ConflictReject, Surface)
	require.NoError(t, err)
	assert.Equal(t, []string{"zoloft"}, idx.Category(otypes.CategoryDrugs).Keys())
	e, _ := idx.Category(otypes.CategoryDrugs).get("zoloft")
	assert.Equal(t, otypes.MatchExact, e.kind)
}

func TestBuildIndex_ConfigurationErrors(t *testing.T) {
	cases := map[string]*ontology.Concept{
		"missing id":    concept(otypes.CategoryDrugs, "", "sertraline"),
		"missing label": concept(otypes.CategoryDrugs, "RX:1", ""),
		"blank label":   concept(otypes.CategoryDrugs, "RX:1", "?!"),
	}
	for name, c := range cases {
		t.Run(name, func(t *testing.T) {
			d := ontology.NewDictionary()
			d.Entities[otypes.CategoryDrugs] = []*ontology.Concept{c}
			_, err := BuildIndex(d, ConflictWarn, Surface)
			require.Error(t, err)
			assert.True(t, errors.IsConfiguration(err))
		})
	}

	_, err := BuildIndex(nil, ConflictWarn, Surface)
	assert.True(t, errors.IsConfiguration(err))
}

func TestParseConflictPolicy(t *testing.T) {
	p, err := ParseConflictPolicy("")
	require.NoError(t, err)
	assert.Equal(t, ConflictWarn, p)

	p, err = ParseConflictPolicy(" Reject ")
	require.NoError(t, err)
	assert.Equal(t, ConflictReject, p)

	_, err = ParseConflictPolicy("last-wins")
	assert.True(t, errors.IsConfiguration(err))
}

//Personal.AI order the ending
