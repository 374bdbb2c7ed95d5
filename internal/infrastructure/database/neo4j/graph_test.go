package neo4j

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/OntoGround/pkg/errors"
	otypes "github.com/turtacn/OntoGround/pkg/types/ontology"
)

type fakeRunner struct {
	txs []*MockTransaction
	err error
}

func (r *fakeRunner) ExecuteWrite(ctx context.Context, work func(Transaction) (interface{}, error)) (interface{}, error) {
	tx := &MockTransaction{err: r.err}
	r.txs = append(r.txs, tx)
	return work(tx)
}

func matched(text, id, label string) otypes.NormalizationMatch {
	return otypes.NormalizationMatch{OriginalText: text, ConceptID: id, Label: label, Provider: "test", MatchKind: otypes.MatchExact, Score: 1}
}

func sampleFacts() []otypes.NormalizedFact {
	outcome := matched("response rate", "OUT:1", "response")
	return []otypes.NormalizedFact{
		{
			RawFact:     otypes.Fact{"span": "sertraline treats MDD", "confidence": 0.9, "source_id": "doc1"},
			Drug:        matched("Zoloft", "RXNORM:36437", "sertraline"),
			Condition:   matched("MDD", "SNOMEDCT:35489007", "major depressive disorder"),
			Relation:    matched("treats", "REL:TREATS", "treats"),
			SideEffects: []otypes.NormalizationMatch{matched("nausea", "SE:1", "nausea"), otypes.Unmatched("dry mouth")},
		},
		{
			RawFact:   otypes.Fact{},
			Drug:      matched("sertraline", "RXNORM:36437", "sertraline"),
			Condition: otypes.Unmatched("low mood"),
			Relation:  otypes.Unmatched("improves"),
			Outcome:   &outcome,
		},
		{
			Drug:      otypes.Unmatched("drug x"),
			Condition: otypes.Unmatched("low mood"),
			Relation:  otypes.Unmatched("is linked to"),
		},
	}
}

func TestNodeID(t *testing.T) {
	assert.Equal(t, "drug_RXNORM_36437", NodeID(LabelDrug, matched("x", "RXNORM:36437", "x")))
	assert.Equal(t, "condition_http___snomed_a_b", NodeID(LabelCondition, matched("x", "http://snomed/a b", "x")))

	id := NodeID(LabelSideEffect, otypes.Unmatched("dry mouth"))
	assert.True(t, strings.HasPrefix(id, "side_effect_unmatched_"))
	assert.Len(t, strings.TrimPrefix(id, "side_effect_unmatched_"), 8)
	assert.Equal(t, id, NodeID(LabelSideEffect, otypes.Unmatched("dry mouth")))
	assert.NotEqual(t, id, NodeID(LabelSideEffect, otypes.Unmatched("dry eyes")))
}

func TestRelationType(t *testing.T) {
	cases := []struct {
		m    otypes.NormalizationMatch
		want string
	}{
		{matched("TREATS", "", ""), "TREATS"},
		{matched("treats", "REL:TREATS", "treats"), "TREATS"},
		{matched("associated with SE", "", ""), "ASSOCIATED_WITH_SE"},
		{matched("used for", "REL:TREATS", "treatment of"), "TREATS"},
		{otypes.Unmatched("superior to"), "SUPERIOR_TO"},
		{otypes.Unmatched("is linked to"), RelAssociatedWith},
		{otypes.Unmatched(""), RelAssociatedWith},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, RelationType(tc.m), "%+v", tc.m)
	}
}

func TestGraphSink_WriteFacts(t *testing.T) {
	runner := &fakeRunner{}
	sink := NewGraphSink(runner, 0, nil)

	stats, err := sink.WriteFacts(context.Background(), sampleFacts())
	require.NoError(t, err)
	require.Len(t, runner.txs, 1)

	assert.Equal(t, 3, stats.Facts)
	assert.Equal(t, 2, stats.Nodes[LabelDrug], "sertraline merged across facts")
	assert.Equal(t, 2, stats.Nodes[LabelCondition])
	assert.Equal(t, 1, stats.Nodes[LabelOutcome])
	assert.Equal(t, 2, stats.Nodes[LabelSideEffect])
	assert.Equal(t, 1, stats.Relationships["TREATS"])
	assert.Equal(t, 1, stats.Relationships["IMPROVES"])
	assert.Equal(t, 1, stats.Relationships[RelAssociatedWith])
	assert.Equal(t, 2, stats.Relationships[RelHasSideEffect])

	tx := runner.txs[0]
	joined := strings.Join(tx.queries, "\n")
	assert.Contains(t, joined, "MERGE (n:Drug {node_id: row.node_id})")
	assert.Contains(t, joined, "MERGE (a)-[r:IMPROVES]->(b)")
	assert.Contains(t, joined, "MATCH (a:Drug {node_id: row.from}), (b:Outcome {node_id: row.to})")
	assert.Contains(t, joined, "MERGE (a)-[r:TREATS]->(b)")

	drugRows := tx.params[0]["rows"].([]any)
	require.Len(t, drugRows, 2)
	first := drugRows[0].(map[string]any)
	assert.Equal(t, "drug_RXNORM_36437", first["node_id"])
}

func TestGraphSink_Batches(t *testing.T) {
	runner := &fakeRunner{}
	sink := NewGraphSink(runner, 2, nil)

	stats, err := sink.WriteFacts(context.Background(), sampleFacts())
	require.NoError(t, err)
	assert.Len(t, runner.txs, 2)
	assert.Equal(t, 3, stats.Facts)
}

func TestGraphSink_Failure(t *testing.T) {
	sink := NewGraphSink(&fakeRunner{err: assert.AnError}, 10, nil)
	_, err := sink.WriteFacts(context.Background(), sampleFacts())
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeDatabaseError))
}

func TestGraphSink_EnsureConstraints(t *testing.T) {
	runner := &fakeRunner{}
	require.NoError(t, NewGraphSink(runner, 0, nil).EnsureConstraints(context.Background()))
	require.Len(t, runner.txs, 1)
	assert.Len(t, runner.txs[0].queries, 4)
	assert.Contains(t, runner.txs[0].queries[0], "FOR (n:Drug) REQUIRE n.node_id IS UNIQUE")
}

//Personal.AI order the ending
