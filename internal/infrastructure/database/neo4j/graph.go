package neo4j

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"
	"unicode"

	"github.com/turtacn/OntoGround/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/OntoGround/pkg/errors"
	otypes "github.com/turtacn/OntoGround/pkg/types/ontology"
)

// Node labels.
const (
	LabelDrug       = "Drug"
	LabelCondition  = "Condition"
	LabelOutcome    = "Outcome"
	LabelSideEffect = "SideEffect"
)

// Relationship types outside the relation vocabulary.
const (
	RelAssociatedWith = "ASSOCIATED_WITH"
	RelHasSideEffect  = "HAS_SIDE_EFFECT"
	relImproves       = "IMPROVES"
)

// ValidRelations is the closed set of relation edge types the sink emits for
// a fact's relation. Anything else becomes ASSOCIATED_WITH.
var ValidRelations = map[string]bool{
	"TREATS":              true,
	"IMPROVES":            true,
	"ASSOCIATED_WITH_SE":  true,
	"AUGMENTS":            true,
	"CONTRAINDICATED_FOR": true,
	"SUPERIOR_TO":         true,
	"EQUIVALENT_TO":       true,
	"INFERIOR_TO":         true,
}

var nodePrefix = map[string]string{
	LabelDrug:       "drug",
	LabelCondition:  "condition",
	LabelOutcome:    "outcome",
	LabelSideEffect: "side_effect",
}

// DefaultBatchSize is the number of facts written per transaction.
const DefaultBatchSize = 500

// TxRunner runs a unit of work in a write transaction. *Driver satisfies it.
type TxRunner interface {
	ExecuteWrite(ctx context.Context, work func(Transaction) (interface{}, error)) (interface{}, error)
}

// WriteStats summarizes one WriteFacts call.
type WriteStats struct {
	Facts         int            `json:"facts"`
	Nodes         map[string]int `json:"nodes"`
	Relationships map[string]int `json:"relationships"`
}

// GraphSink merges normalized facts into the graph. Nodes are keyed by
// node_id, so loading the same facts twice is idempotent.
type GraphSink struct {
	runner    TxRunner
	batchSize int
	logger    logging.Logger
}

func NewGraphSink(runner TxRunner, batchSize int, log logging.Logger) *GraphSink {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	return &GraphSink{runner: runner, batchSize: batchSize, logger: logging.OrNop(log)}
}

// NodeID derives the graph key for a match: the sanitized concept id when
// grounded, otherwise a short hash of the surface text.
func NodeID(label string, m otypes.NormalizationMatch) string {
	prefix := nodePrefix[label]
	if m.ConceptID != "" {
		clean := strings.NewReplacer(":", "_", "/", "_", " ", "_").Replace(m.ConceptID)
		return prefix + "_" + clean
	}
	sum := sha256.Sum256([]byte(m.OriginalText))
	return prefix + "_unmatched_" + hex.EncodeToString(sum[:])[:8]
}

// RelationType maps a relation match to an edge type. The surface text is
// tried first, then the label, then the local part of the concept id.
func RelationType(m otypes.NormalizationMatch) string {
	candidates := []string{m.OriginalText, m.Label}
	if i := strings.LastIndex(m.ConceptID, ":"); i >= 0 {
		candidates = append(candidates, m.ConceptID[i+1:])
	}
	for _, c := range candidates {
		if t := sanitizeRelation(c); ValidRelations[t] {
			return t
		}
	}
	return RelAssociatedWith
}

func sanitizeRelation(s string) string {
	var b strings.Builder
	underscore := false
	for _, r := range strings.TrimSpace(s) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(unicode.ToUpper(r))
			underscore = false
			continue
		}
		if !underscore && b.Len() > 0 {
			b.WriteByte('_')
			underscore = true
		}
	}
	return strings.TrimSuffix(b.String(), "_")
}

type nodeRow = map[string]any

type edgeRow struct {
	fromLabel, toLabel string
	from, to           string
	props              map[string]any
}

type graphBatch struct {
	nodes map[string]map[string]nodeRow
	edges map[string][]edgeRow
}

func newGraphBatch() *graphBatch {
	return &graphBatch{nodes: make(map[string]map[string]nodeRow), edges: make(map[string][]edgeRow)}
}

func (b *graphBatch) addNode(label string, m otypes.NormalizationMatch) (string, bool) {
	if strings.TrimSpace(m.OriginalText) == "" {
		return "", false
	}
	id := NodeID(label, m)
	if b.nodes[label] == nil {
		b.nodes[label] = make(map[string]nodeRow)
	}
	if _, ok := b.nodes[label][id]; !ok {
		b.nodes[label][id] = nodeRow{
			"node_id":    id,
			"name":       m.OriginalText,
			"label":      m.Label,
			"concept_id": m.ConceptID,
			"provider":   m.Provider,
			"match_kind": string(m.MatchKind),
			"score":      m.Score,
		}
	}
	return id, true
}

func (b *graphBatch) add(f *otypes.NormalizedFact) {
	drugID, hasDrug := b.addNode(LabelDrug, f.Drug)
	condID, hasCond := b.addNode(LabelCondition, f.Condition)
	var outID string
	hasOut := false
	if f.Outcome != nil {
		outID, hasOut = b.addNode(LabelOutcome, *f.Outcome)
	}
	props := edgeProps(f.RawFact)

	if hasDrug {
		rel := RelationType(f.Relation)
		switch {
		case rel == relImproves && hasOut:
			b.edges[rel] = append(b.edges[rel], edgeRow{LabelDrug, LabelOutcome, drugID, outID, props})
		case hasCond:
			b.edges[rel] = append(b.edges[rel], edgeRow{LabelDrug, LabelCondition, drugID, condID, props})
		}
	}

	for _, se := range f.SideEffects {
		seID, ok := b.addNode(LabelSideEffect, se)
		if ok && hasDrug {
			b.edges[RelHasSideEffect] = append(b.edges[RelHasSideEffect],
				edgeRow{LabelDrug, LabelSideEffect, drugID, seID, props})
		}
	}
}

func edgeProps(raw otypes.Fact) map[string]any {
	props := map[string]any{
		"evidence":   stringOf(raw["span"]),
		"source_id":  stringOf(raw["source_id"]),
		"section":    stringOf(raw["section"]),
		"confidence": floatOf(raw["confidence"]),
	}
	return props
}

func stringOf(v interface{}) string {
	if v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}

func floatOf(v interface{}) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case int:
		return float64(n)
	case interface{ Float64() (float64, error) }:
		f, _ := n.Float64()
		return f
	}
	return 0
}

// EnsureConstraints creates a uniqueness constraint on node_id per label.
func (s *GraphSink) EnsureConstraints(ctx context.Context) error {
	_, err := s.runner.ExecuteWrite(ctx, func(tx Transaction) (interface{}, error) {
		for _, label := range sortedLabels() {
			q := fmt.Sprintf("CREATE CONSTRAINT %s_node_id IF NOT EXISTS FOR (n:%s) REQUIRE n.node_id IS UNIQUE",
				strings.ToLower(label), label)
			if _, err := tx.Run(ctx, q, nil); err != nil {
				return nil, err
			}
		}
		return nil, nil
	})
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to create graph constraints")
	}
	return nil
}

// WriteFacts merges facts in batches, one write transaction per batch.
func (s *GraphSink) WriteFacts(ctx context.Context, facts []otypes.NormalizedFact) (*WriteStats, error) {
	stats := &WriteStats{Nodes: make(map[string]int), Relationships: make(map[string]int)}
	for start := 0; start < len(facts); start += s.batchSize {
		end := start + s.batchSize
		if end > len(facts) {
			end = len(facts)
		}
		batch := newGraphBatch()
		for i := start; i < end; i++ {
			batch.add(&facts[i])
		}
		if _, err := s.runner.ExecuteWrite(ctx, func(tx Transaction) (interface{}, error) {
			return nil, s.writeBatch(ctx, tx, batch)
		}); err != nil {
			return stats, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to write fact batch").
				WithDetailf("facts %d..%d", start, end-1)
		}
		for label, rows := range batch.nodes {
			stats.Nodes[label] += len(rows)
		}
		for rel, rows := range batch.edges {
			stats.Relationships[rel] += len(rows)
		}
		stats.Facts += end - start
		s.logger.Debug("graph batch written", logging.Int("from", start), logging.Int("to", end))
	}
	s.logger.Info("facts loaded into graph",
		logging.Int("facts", stats.Facts),
		logging.Any("nodes", stats.Nodes),
		logging.Any("relationships", stats.Relationships))
	return stats, nil
}

func (s *GraphSink) writeBatch(ctx context.Context, tx Transaction, b *graphBatch) error {
	for _, label := range sortedLabels() {
		rows := b.nodes[label]
		if len(rows) == 0 {
			continue
		}
		ids := make([]string, 0, len(rows))
		for id := range rows {
			ids = append(ids, id)
		}
		sort.Strings(ids)
		params := make([]any, 0, len(ids))
		for _, id := range ids {
			params = append(params, rows[id])
		}
		q := fmt.Sprintf(`UNWIND $rows AS row
MERGE (n:%s {node_id: row.node_id})
SET n.name = row.name, n.label = row.label, n.concept_id = row.concept_id,
    n.provider = row.provider, n.match_kind = row.match_kind, n.score = row.score`, label)
		if _, err := tx.Run(ctx, q, map[string]any{"rows": params}); err != nil {
			return err
		}
	}

	rels := make([]string, 0, len(b.edges))
	for rel := range b.edges {
		rels = append(rels, rel)
	}
	sort.Strings(rels)
	for _, rel := range rels {
		// Edges of one type may connect different label pairs.
		byPair := make(map[[2]string][]any)
		var pairs [][2]string
		for _, e := range b.edges[rel] {
			key := [2]string{e.fromLabel, e.toLabel}
			if _, ok := byPair[key]; !ok {
				pairs = append(pairs, key)
			}
			byPair[key] = append(byPair[key], map[string]any{"from": e.from, "to": e.to, "props": e.props})
		}
		for _, pair := range pairs {
			q := fmt.Sprintf(`UNWIND $rows AS row
MATCH (a:%s {node_id: row.from}), (b:%s {node_id: row.to})
MERGE (a)-[r:%s]->(b)
SET r += row.props`, pair[0], pair[1], rel)
			if _, err := tx.Run(ctx, q, map[string]any{"rows": byPair[pair]}); err != nil {
				return err
			}
		}
	}
	return nil
}

func sortedLabels() []string {
	return []string{LabelDrug, LabelCondition, LabelOutcome, LabelSideEffect}
}

//Personal.AI order the ending
