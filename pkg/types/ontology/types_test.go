package ontology

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCategory(t *testing.T) {
	assert.Equal(t, []Category{"drugs", "conditions", "relations", "outcomes", "side_effects"}, Categories())

	c, ok := ParseCategory(" Side_Effects ")
	assert.True(t, ok)
	assert.Equal(t, CategorySideEffects, c)

	_, ok = ParseCategory("procedures")
	assert.False(t, ok)

	assert.Equal(t, "CUSTOM:DRUGS_1000", CategoryDrugs.CustomID(CategoryDrugs.CustomIDBase()))
	assert.Equal(t, "CUSTOM:SIDE_EFFECTS_", CategorySideEffects.CustomIDPrefix())
	assert.Equal(t, 4000, CategoryOutcomes.CustomIDBase())
}

func TestCategories_ReturnsCopy(t *testing.T) {
	cats := Categories()
	cats[0] = "mutated"
	assert.Equal(t, CategoryDrugs, Categories()[0])
}

func TestNormalizationMatch_JSONNullsWhenUnmatched(t *testing.T) {
	data, err := json.Marshal(Unmatched("aripiprazole"))
	require.NoError(t, err)
	assert.JSONEq(t, `{"original_text":"aripiprazole","concept_id":null,"label":null,"provider":null,"match_kind":"unmatched","score":0}`, string(data))
}

func TestNormalizationMatch_JSONRoundTripMatched(t *testing.T) {
	m := NormalizationMatch{OriginalText: "Zoloft", ConceptID: "RX:1", Label: "sertraline", Provider: "rxnorm", MatchKind: MatchSynonym, Score: 1}
	data, err := json.Marshal(m)
	require.NoError(t, err)

	var back NormalizationMatch
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, m, back)
	assert.True(t, back.IsMatched())
}

func TestNormalizationMatch_LegacyKeys(t *testing.T) {
	var m NormalizationMatch
	require.NoError(t, json.Unmarshal([]byte(`{"text":"Abilify","match_type":"unmatched","score":0.0,"concept_id":null}`), &m))
	assert.Equal(t, "Abilify", m.OriginalText)
	assert.Equal(t, MatchUnmatched, m.MatchKind)
	assert.False(t, m.IsMatched())
}

func TestNormalizedFact_EachMatch(t *testing.T) {
	f := NormalizedFact{
		Drug:        Unmatched("a"),
		Condition:   Unmatched("b"),
		Relation:    Unmatched("c"),
		SideEffects: []NormalizationMatch{Unmatched("d"), Unmatched("e")},
	}
	var seen []Category
	f.EachMatch(func(c Category, _ NormalizationMatch) { seen = append(seen, c) })
	assert.Equal(t, []Category{CategoryDrugs, CategoryConditions, CategoryRelations, CategorySideEffects, CategorySideEffects}, seen)
}

func TestNormalizedFact_NullOutcomeSerialized(t *testing.T) {
	data, err := json.Marshal(NormalizedFact{RawFact: Fact{"drug_name": "x"}, SideEffects: []NormalizationMatch{}})
	require.NoError(t, err)

	var generic map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &generic))
	v, present := generic["outcome"]
	assert.True(t, present)
	assert.Nil(t, v)
	_, present = generic["effect_size"]
	assert.False(t, present)
}

func TestHarvest_Frequencies(t *testing.T) {
	h := Harvest{CategoryDrugs: {"b", "a", "b", "c", "a", "b"}}
	assert.Equal(t, 6, h.Total())
	assert.Equal(t, []SurfaceCount{{"b", 3}, {"a", 2}, {"c", 1}}, h.Frequencies()[CategoryDrugs])
}

func TestAugmentationSummary_Changes(t *testing.T) {
	var s AugmentationSummary
	s.Changes(CategoryDrugs).AddedAsNewConcept = append(s.Changes(CategoryDrugs).AddedAsNewConcept, AddedConcept{Label: "x"})
	s.Changes(CategoryConditions).AddedAsSynonym = append(s.Changes(CategoryConditions).AddedAsSynonym, AddedConcept{Label: "y"})
	assert.Equal(t, 2, s.TotalAdded())
	assert.Equal(t, 0, (*CategoryChanges)(nil).Count())
}

func TestTally(t *testing.T) {
	var tl Tally
	tl.Add(true)
	tl.Add(false)
	tl.Add(true)
	assert.Equal(t, Tally{Matched: 2, Unmatched: 1}, tl)
}

//Personal.AI order the ending
