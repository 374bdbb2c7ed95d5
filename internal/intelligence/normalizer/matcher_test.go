package normalizer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/OntoGround/internal/domain/ontology"
	"github.com/turtacn/OntoGround/pkg/errors"
	otypes "github.com/turtacn/OntoGround/pkg/types/ontology"
)

type mockRecorder struct {
	mock.Mock
}

func (m *mockRecorder) ObserveMatch(cat otypes.Category, kind otypes.MatchKind, score float64) {
	m.Called(cat, kind, score)
}
func (m *mockRecorder) ObserveFact(ok bool) { m.Called(ok) }
func (m *mockRecorder) ObserveIndex(cat otypes.Category, keys, conflicts int) {
	m.Called(cat, keys, conflicts)
}

func newTestMatcher(t *testing.T, d *ontology.Dictionary, threshold float64) *Matcher {
	t.Helper()
	idx, err := BuildIndex(d, ConflictWarn, Surface)
	require.NoError(t, err)
	m, err := NewMatcher(idx, threshold, nil)
	require.NoError(t, err)
	return m
}

func TestMatcher_ExactAndSynonym(t *testing.T) {
	m := newTestMatcher(t, testDictionary(), DefaultMinFuzzyScore)
	d := testDictionary()

	for _, cat := range otypes.Categories() {
		for _, c := range d.Concepts(cat) {
			got := m.Lookup(cat, c.Label)
			assert.Equal(t, otypes.MatchExact, got.MatchKind, c.Label)
			assert.Equal(t, 1.0, got.Score)
			assert.Equal(t, c.ID, got.ConceptID)

			for _, syn := range c.Synonyms {
				got := m.Lookup(cat, syn)
				assert.Equal(t, otypes.MatchSynonym, got.MatchKind, syn)
				assert.Equal(t, 1.0, got.Score)
				assert.Equal(t, c.ID, got.ConceptID)
			}
		}
	}
}

func TestMatcher_ConcreteScenarios(t *testing.T) {
	m := newTestMatcher(t, testDictionary(), 0.86)

	got := m.Lookup(otypes.CategoryDrugs, "Zoloft")
	assert.Equal(t, otypes.NormalizationMatch{
		OriginalText: "Zoloft", ConceptID: "RX:1", Label: "sertraline", Provider: "test",
		MatchKind: otypes.MatchSynonym, Score: 1.0,
	}, got)

	got = m.Lookup(otypes.CategoryDrugs, "Sertralin")
	assert.Equal(t, otypes.MatchFuzzy, got.MatchKind)
	assert.Equal(t, "RX:1", got.ConceptID)
	assert.GreaterOrEqual(t, got.Score, 0.86)
	assert.InDelta(t, 0.947, got.Score, 0.001)

	got = m.Lookup(otypes.CategoryDrugs, "aripiprazole")
	assert.Equal(t, otypes.Unmatched("aripiprazole"), got)
	assert.Equal(t, 0.0, got.Score)
	assert.Empty(t, got.ConceptID)
}

func TestMatcher_EmptyInputIsUnmatched(t *testing.T) {
	m := newTestMatcher(t, testDictionary(), 0.1)
	for _, in := range []string{"", "   ", "--"} {
		got := m.Lookup(otypes.CategoryDrugs, in)
		assert.Equal(t, otypes.MatchUnmatched, got.MatchKind)
		assert.Equal(t, in, got.OriginalText)
	}
}

func TestMatcher_TieBreaksOnSmallestKey(t *testing.T) {
	d := ontology.NewDictionary()
	d.Entities[otypes.CategoryDrugs] = []*ontology.Concept{
		concept(otypes.CategoryDrugs, "B", "abcy"),
		concept(otypes.CategoryDrugs, "A", "abcx"),
	}
	m := newTestMatcher(t, d, 0.7)
	for i := 0; i < 5; i++ {
		got := m.Lookup(otypes.CategoryDrugs, "abcz")
		assert.Equal(t, "A", got.ConceptID)
		assert.Equal(t, otypes.MatchFuzzy, got.MatchKind)
		assert.InDelta(t, 0.75, got.Score, 1e-9)
	}
}

func TestMatcher_BelowThreshold(t *testing.T) {
	m := newTestMatcher(t, testDictionary(), 0.95)
	got := m.Lookup(otypes.CategoryDrugs, "Sertralin")
	assert.Equal(t, otypes.MatchUnmatched, got.MatchKind)
}

func TestMatcher_UnknownCategory(t *testing.T) {
	m := newTestMatcher(t, testDictionary(), 0.86)
	assert.Equal(t, otypes.MatchUnmatched, m.Lookup("devices", "zoloft").MatchKind)
}

func TestNewMatcher_ThresholdRange(t *testing.T) {
	idx, err := BuildIndex(testDictionary(), ConflictWarn, Surface)
	require.NoError(t, err)

	for _, th := range []float64{0, -0.2, 1.01} {
		_, err := NewMatcher(idx, th, nil)
		assert.True(t, errors.IsConfiguration(err), "threshold %v", th)
	}
	m, err := NewMatcher(idx, 1, nil)
	require.NoError(t, err)
	assert.Equal(t, 1.0, m.Threshold())

	_, err = NewMatcher(nil, 0.86, nil)
	assert.Error(t, err)
}

func TestMatcher_RecordsObservations(t *testing.T) {
	idx, err := BuildIndex(testDictionary(), ConflictWarn, Surface)
	require.NoError(t, err)
	rec := &mockRecorder{}
	rec.On("ObserveMatch", otypes.CategoryDrugs, otypes.MatchSynonym, 1.0).Once()

	m, err := NewMatcher(idx, 0.86, rec)
	require.NoError(t, err)
	m.Lookup(otypes.CategoryDrugs, "prozac")
	rec.AssertExpectations(t)
}

//Personal.AI order the ending
