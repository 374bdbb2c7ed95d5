package normalization

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/OntoGround/internal/infrastructure/storage/dictfile"
	"github.com/turtacn/OntoGround/internal/intelligence/normalizer"
	"github.com/turtacn/OntoGround/internal/testutil"
	"github.com/turtacn/OntoGround/pkg/errors"
	otypes "github.com/turtacn/OntoGround/pkg/types/ontology"
)

const dictionaryV1 = `entities:
  drugs:
    - id: RX:1
      label: sertraline
      synonyms: [zoloft]
  conditions:
    - id: SNOMEDCT:35489007
      label: major depressive disorder
      synonyms: [MDD]
  relations:
    - id: REL:TREATS
      label: treats
`

const dictionaryV2 = dictionaryV1 + `  side_effects:
    - id: SE:1
      label: nausea
`

const factBatch = `{"validated_facts": [
  {"drug_name": "Zoloft", "condition_name": "MDD", "relation": "treats", "effect_size": 0.42},
  {"drug_name": "aripiprazole", "condition_name": "MDD", "relation": "treats", "side_effects": ["nausea"]},
  {"condition_name": "MDD", "relation": "treats"}
]}`

func newHolder(t *testing.T, content string) (*Holder, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "mappings.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	h := NewHolder(dictfile.New(path, dictfile.Options{}), normalizer.Options{}, nil)
	return h, path
}

func TestDefaultOutputPath(t *testing.T) {
	assert.Equal(t, "data/batch_normalized.json", DefaultOutputPath("data/batch.json"))
	assert.Equal(t, "facts_normalized.json", DefaultOutputPath("facts"))
}

func TestService_NotLoaded(t *testing.T) {
	h, _ := newHolder(t, dictionaryV1)
	svc := NewService(h, nil)
	assert.False(t, h.Ready())

	_, err := svc.Lookup(otypes.CategoryDrugs, "zoloft")
	assert.True(t, errors.IsCode(err, errors.ErrCodeServiceUnavailable))
}

func TestService_NormalizeFile(t *testing.T) {
	h, path := newHolder(t, dictionaryV1)
	_, err := h.Reload(context.Background())
	require.NoError(t, err)
	log := testutil.NewMockLogger()
	svc := NewService(h, log)

	input := filepath.Join(filepath.Dir(path), "batch.json")
	require.NoError(t, os.WriteFile(input, []byte(factBatch), 0o644))

	res, err := svc.NormalizeFile(context.Background(), input, "")
	require.NoError(t, err)
	assert.Equal(t, DefaultOutputPath(input), res.OutputPath)
	assert.Equal(t, 2, res.Report.Succeeded)
	require.Len(t, res.Report.Skipped, 1)
	assert.Equal(t, 2, res.Report.Skipped[0].Index)
	assert.Equal(t, "drug_name", res.Report.Skipped[0].Field)
	assert.Equal(t, 1, res.Report.Summary.Drug.Unmatched)
	assert.Equal(t, 1, res.Report.Summary.SideEffects.Unmatched)
	assert.True(t, log.HasMessage("info", "batch normalized"))

	facts, err := ReadNormalizedFile(res.OutputPath)
	require.NoError(t, err)
	require.Len(t, facts, 2)
	assert.Equal(t, "RX:1", facts[0].Drug.ConceptID)
	assert.Equal(t, otypes.MatchSynonym, facts[0].Drug.MatchKind)
	assert.Nil(t, facts[0].Outcome)
	assert.Equal(t, "0.42", stringify(facts[0].EffectSize))
	assert.Equal(t, otypes.MatchUnmatched, facts[1].SideEffects[0].MatchKind)
}

func stringify(v interface{}) string {
	if s, ok := v.(interface{ String() string }); ok {
		return s.String()
	}
	return ""
}

func TestService_NormalizeFile_BadInput(t *testing.T) {
	h, path := newHolder(t, dictionaryV1)
	_, err := h.Reload(context.Background())
	require.NoError(t, err)
	svc := NewService(h, nil)

	input := filepath.Join(filepath.Dir(path), "batch.json")
	require.NoError(t, os.WriteFile(input, []byte(`{"rows": []}`), 0o644))
	_, err = svc.NormalizeFile(context.Background(), input, "")
	assert.True(t, errors.IsInputShape(err))
	assert.NoFileExists(t, DefaultOutputPath(input))

	_, err = svc.NormalizeFile(context.Background(), filepath.Join(filepath.Dir(path), "absent.json"), "")
	assert.True(t, errors.IsInputShape(err))
}

func TestHolder_FailedReloadKeepsPrevious(t *testing.T) {
	h, path := newHolder(t, dictionaryV1)
	first, err := h.Reload(context.Background())
	require.NoError(t, err)
	assert.False(t, h.LoadedAt().IsZero())

	require.NoError(t, os.WriteFile(path, []byte("entities:\n  widgets: []\n"), 0o644))
	_, err = h.Reload(context.Background())
	require.Error(t, err)
	assert.True(t, errors.IsConfiguration(err))
	assert.Same(t, first, h.Current())
}

func TestReloader_SwapsIndexOnChange(t *testing.T) {
	h, path := newHolder(t, dictionaryV1)
	_, err := h.Reload(context.Background())
	require.NoError(t, err)
	svc := NewService(h, nil)

	m, err := svc.Lookup(otypes.CategorySideEffects, "nausea")
	require.NoError(t, err)
	require.False(t, m.IsMatched())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	r := NewReloader(h, path, 20*time.Millisecond, nil)
	done := make(chan error, 1)
	go func() { done <- r.Run(ctx) }()
	time.Sleep(100 * time.Millisecond)

	require.NoError(t, os.WriteFile(path, []byte(dictionaryV2), 0o644))
	select {
	case err := <-r.Reloaded():
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("reload not observed")
	}
	m, err = svc.Lookup(otypes.CategorySideEffects, "nausea")
	require.NoError(t, err)
	assert.Equal(t, "SE:1", m.ConceptID)

	before := h.Current()
	require.NoError(t, os.WriteFile(path, []byte("entities: [broken\n"), 0o644))
	select {
	case err := <-r.Reloaded():
		assert.Error(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("failed reload not observed")
	}
	assert.Same(t, before, h.Current())

	cancel()
	assert.NoError(t, <-done)
}

func TestHolder_Retune(t *testing.T) {
	h, _ := newHolder(t, dictionaryV1)
	ctx := context.Background()
	_, err := h.Reload(ctx)
	require.NoError(t, err)
	before := h.Current()

	_, err = h.Retune(ctx, normalizer.Options{MinFuzzyScore: 1.5})
	require.Error(t, err)
	assert.True(t, errors.IsConfiguration(err))
	assert.Same(t, before, h.Current())
	assert.Zero(t, h.Options().MinFuzzyScore)

	n, err := h.Retune(ctx, normalizer.Options{MinFuzzyScore: 0.5})
	require.NoError(t, err)
	assert.Same(t, n, h.Current())
	assert.Equal(t, 0.5, h.Options().MinFuzzyScore)
}

//Personal.AI order the ending
