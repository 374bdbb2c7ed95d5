package normalizer

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/OntoGround/pkg/errors"
	otypes "github.com/turtacn/OntoGround/pkg/types/ontology"
)

func TestParseFactBatch_Shapes(t *testing.T) {
	fact := `{"drug_name":"Zoloft","condition_name":"MDD","relation":"treats","effect_size":0.30000000000000004}`
	cases := map[string]string{
		"bare list":       `[` + fact + `]`,
		"triples":         `{"triples":[` + fact + `]}`,
		"validated_facts": `{"validated_facts":[` + fact + `], "meta": 1}`,
		"extracted_facts": `{"extracted_facts":[` + fact + `]}`,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			facts, err := ParseFactBatch([]byte(body))
			require.NoError(t, err)
			require.Len(t, facts, 1)
			assert.Equal(t, "Zoloft", facts[0]["drug_name"])
			assert.Equal(t, json.Number("0.30000000000000004"), facts[0]["effect_size"])
		})
	}
}

func TestParseFactBatch_KeyPriority(t *testing.T) {
	facts, err := ParseFactBatch([]byte(`{"extracted_facts":[{},{}],"triples":[{"drug_name":"x"}]}`))
	require.NoError(t, err)
	require.Len(t, facts, 1)
	assert.Equal(t, "x", facts[0]["drug_name"])
}

func TestParseFactBatch_NonObjectItems(t *testing.T) {
	facts, err := ParseFactBatch([]byte(`[{"drug_name":"a"}, "oops", null, 3]`))
	require.NoError(t, err)
	require.Len(t, facts, 4)
	assert.NotNil(t, facts[0])
	assert.Nil(t, facts[1])
	assert.Nil(t, facts[2])
	assert.Nil(t, facts[3])
}

func TestParseFactBatch_Rejects(t *testing.T) {
	for _, body := range []string{``, `42`, `{"facts":[]}`, `{"triples":{"a":1}}`, `[{`} {
		_, err := ParseFactBatch([]byte(body))
		require.Error(t, err, body)
		assert.True(t, errors.IsInputShape(err), body)
	}
}

func TestParseNormalizedBatch(t *testing.T) {
	legacy := `[{"raw_fact":{"drug_name":"Zoloft"},
		"drug":{"text":"Zoloft","concept_id":"RX:1","label":"sertraline","provider":"rxnorm","match_type":"synonym","score":1.0},
		"condition":{"original_text":"x","concept_id":null,"label":null,"provider":null,"match_kind":"unmatched","score":0},
		"relation":{"original_text":"treats","concept_id":"REL:1","label":"treats","provider":"custom","match_kind":"exact","score":1},
		"outcome":null,"side_effects":[]}]`

	facts, err := ParseNormalizedBatch([]byte(legacy))
	require.NoError(t, err)
	require.Len(t, facts, 1)
	assert.Equal(t, "Zoloft", facts[0].Drug.OriginalText)
	assert.Equal(t, otypes.MatchSynonym, facts[0].Drug.MatchKind)
	assert.False(t, facts[0].Condition.IsMatched())
	assert.Nil(t, facts[0].Outcome)

	wrapped, err := json.Marshal(otypes.NormalizedBatch{NormalizedFacts: facts})
	require.NoError(t, err)
	again, err := ParseNormalizedBatch(wrapped)
	require.NoError(t, err)
	assert.Equal(t, facts[0].Drug, again[0].Drug)

	_, err = ParseNormalizedBatch([]byte(`{"triples":[]}`))
	assert.True(t, errors.IsInputShape(err))
	_, err = ParseNormalizedBatch([]byte(`[{"drug": 5}]`))
	assert.True(t, errors.IsInputShape(err))
}

//Personal.AI order the ending
