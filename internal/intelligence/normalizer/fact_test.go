package normalizer

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/OntoGround/internal/domain/ontology"
	"github.com/turtacn/OntoGround/internal/testutil"
	"github.com/turtacn/OntoGround/pkg/errors"
	otypes "github.com/turtacn/OntoGround/pkg/types/ontology"
)

func baseFact() otypes.Fact {
	return otypes.Fact{
		"drug_name":      "Zoloft",
		"condition_name": "Depression",
		"relation":       "TREATS",
	}
}

func TestNormalizeFact_Full(t *testing.T) {
	n := newTestNormalizer(t)
	f := baseFact()
	f["outcome"] = "treatment response"
	f["side_effects"] = []interface{}{"Nausea", nil, "tinnitus"}
	f["effect_size"] = json.Number("0.42")
	f["confidence_interval"] = []interface{}{json.Number("0.1"), json.Number("0.7")}
	f["source_id"] = "PMC123"

	nf, err := n.NormalizeFact(f)
	require.NoError(t, err)

	assert.Equal(t, "RX:1", nf.Drug.ConceptID)
	assert.Equal(t, "SCT:1", nf.Condition.ConceptID)
	assert.Equal(t, otypes.MatchExact, nf.Relation.MatchKind)
	require.NotNil(t, nf.Outcome)
	assert.Equal(t, "OUT:1", nf.Outcome.ConceptID)

	require.Len(t, nf.SideEffects, 3)
	assert.Equal(t, "SE:1", nf.SideEffects[0].ConceptID)
	assert.Equal(t, otypes.Unmatched(""), nf.SideEffects[1])
	assert.Equal(t, otypes.Unmatched("tinnitus"), nf.SideEffects[2])

	assert.Equal(t, json.Number("0.42"), nf.EffectSize)
	assert.Equal(t, f["confidence_interval"], nf.ConfidenceInterval)
	assert.Equal(t, "PMC123", nf.RawFact["source_id"])

	f["drug_name"] = "changed"
	assert.Equal(t, "Zoloft", nf.RawFact["drug_name"])
}

func TestNormalizeFact_OutcomeAbsence(t *testing.T) {
	n := newTestNormalizer(t)

	nf, err := n.NormalizeFact(baseFact())
	require.NoError(t, err)
	assert.Nil(t, nf.Outcome)
	assert.NotNil(t, nf.SideEffects)
	assert.Empty(t, nf.SideEffects)
	assert.Nil(t, nf.EffectSize)

	for _, v := range []interface{}{nil, ""} {
		f := baseFact()
		f["outcome"] = v
		nf, err := n.NormalizeFact(f)
		require.NoError(t, err)
		assert.Nil(t, nf.Outcome)
	}

	f := baseFact()
	f["outcome"] = json.Number("3")
	nf, err = n.NormalizeFact(f)
	require.NoError(t, err)
	require.NotNil(t, nf.Outcome)
	assert.Equal(t, otypes.Unmatched("3"), *nf.Outcome)

	f = baseFact()
	f["outcome"] = "   "
	nf, err = n.NormalizeFact(f)
	require.NoError(t, err)
	require.NotNil(t, nf.Outcome)
	assert.Equal(t, otypes.MatchUnmatched, nf.Outcome.MatchKind)
}

func TestNormalizeFact_SideEffectShapes(t *testing.T) {
	n := newTestNormalizer(t)

	f := baseFact()
	f["side_effects"] = "nausea"
	nf, err := n.NormalizeFact(f)
	require.NoError(t, err)
	require.Len(t, nf.SideEffects, 1)
	assert.Equal(t, "SE:1", nf.SideEffects[0].ConceptID)

	f["side_effects"] = ""
	nf, err = n.NormalizeFact(f)
	require.NoError(t, err)
	assert.Empty(t, nf.SideEffects)

	f["side_effects"] = []string{"nausea", "nausea"}
	nf, err = n.NormalizeFact(f)
	require.NoError(t, err)
	assert.Len(t, nf.SideEffects, 2)

	f["side_effects"] = []interface{}{"nausea", map[string]interface{}{"name": "x"}}
	_, err = n.NormalizeFact(f)
	require.Error(t, err)
	assert.True(t, errors.IsInputShape(err))
	assert.Equal(t, "side_effects", errors.FieldOf(err))
}

func TestNormalizeFact_RequiredFields(t *testing.T) {
	n := newTestNormalizer(t)

	for _, field := range []string{"drug_name", "condition_name", "relation"} {
		f := baseFact()
		delete(f, field)
		_, err := n.NormalizeFact(f)
		require.Error(t, err, field)
		assert.True(t, errors.IsInputShape(err))
		assert.Equal(t, field, errors.FieldOf(err))

		f = baseFact()
		f[field] = json.Number("7")
		_, err = n.NormalizeFact(f)
		assert.Equal(t, field, errors.FieldOf(err))
	}

	f := baseFact()
	f["outcome"] = map[string]interface{}{"text": "response"}
	_, err := n.NormalizeFact(f)
	assert.Equal(t, "outcome", errors.FieldOf(err))

	_, err = n.NormalizeFact(nil)
	assert.True(t, errors.IsInputShape(err))
}

func TestNormalizeFact_EmptyRequiredStringIsUnmatched(t *testing.T) {
	n := newTestNormalizer(t)
	f := baseFact()
	f["drug_name"] = ""
	nf, err := n.NormalizeFact(f)
	require.NoError(t, err)
	assert.Equal(t, otypes.Unmatched(""), nf.Drug)
}

func TestNormalizeBatch_SkipsAndContinues(t *testing.T) {
	logger := testutil.NewMockLogger()
	n, err := New(testDictionary(), Options{Logger: logger})
	require.NoError(t, err)

	noRelation := baseFact()
	delete(noRelation, "relation")
	second := baseFact()
	second["drug_name"] = "prozac"

	res := n.NormalizeBatch([]otypes.Fact{baseFact(), nil, noRelation, second})
	require.Len(t, res.Facts, 2)
	assert.Equal(t, "RX:1", res.Facts[0].Drug.ConceptID)
	assert.Equal(t, "RX:2", res.Facts[1].Drug.ConceptID)

	require.Len(t, res.Skipped, 2)
	assert.Equal(t, 1, res.Skipped[0].Index)
	assert.Equal(t, "", res.Skipped[0].Field)
	assert.Equal(t, 2, res.Skipped[1].Index)
	assert.Equal(t, "relation", res.Skipped[1].Field)
	assert.Equal(t, "required field is missing", res.Skipped[1].Reason)
	assert.Equal(t, 2, logger.Count("warn", "fact skipped"))

	report := res.Report()
	assert.Equal(t, 2, report.Succeeded)
	assert.Equal(t, 2, report.Summary.Total)
	assert.Len(t, report.Skipped, 2)
}

func TestNormalizeBatch_EmptyReport(t *testing.T) {
	n := newTestNormalizer(t)
	report := n.NormalizeBatch(nil).Report()
	assert.Equal(t, 0, report.Summary.Total)
	assert.NotNil(t, report.Skipped)
}

func TestNew_ConfigurationError(t *testing.T) {
	d := ontology.NewDictionary()
	d.Entities[otypes.CategoryDrugs] = []*ontology.Concept{concept(otypes.CategoryDrugs, "", "x")}
	_, err := New(d, Options{})
	assert.True(t, errors.IsConfiguration(err))

	_, err = New(testDictionary(), Options{MinFuzzyScore: 2})
	assert.True(t, errors.IsConfiguration(err))
}

func TestNew_LogsConflicts(t *testing.T) {
	logger := testutil.NewMockLogger()
	_, err := New(collidingDictionary(), Options{Logger: logger})
	require.NoError(t, err)
	assert.True(t, logger.HasMessage("warn", "dictionary key collision"))
}

func TestNew_ReportsIndexToRecorder(t *testing.T) {
	rec := &mockRecorder{}
	rec.On("ObserveIndex", mock.Anything, mock.Anything, mock.Anything)
	_, err := New(testDictionary(), Options{Recorder: rec})
	require.NoError(t, err)
	rec.AssertCalled(t, "ObserveIndex", otypes.CategoryDrugs, 4, 0)
	rec.AssertNumberOfCalls(t, "ObserveIndex", len(otypes.Categories()))
}

//Personal.AI order the ending
