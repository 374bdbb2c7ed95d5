// Package ontology holds the wire types exchanged between the normalization
// engine and its collaborators: the fact batches it consumes, the normalized
// facts and reports it produces, and the augmentation summary.
package ontology

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"
)

// Category is one of the closed set of entity categories in the dictionary.
type Category string

const (
	CategoryDrugs       Category = "drugs"
	CategoryConditions  Category = "conditions"
	CategoryRelations   Category = "relations"
	CategoryOutcomes    Category = "outcomes"
	CategorySideEffects Category = "side_effects"
)

var allCategories = [...]Category{
	CategoryDrugs,
	CategoryConditions,
	CategoryRelations,
	CategoryOutcomes,
	CategorySideEffects,
}

var customIDBase = map[Category]int{
	CategoryDrugs:       1000,
	CategoryConditions:  2000,
	CategoryRelations:   3000,
	CategoryOutcomes:    4000,
	CategorySideEffects: 5000,
}

// Categories returns every category in canonical order.
func Categories() []Category {
	out := make([]Category, len(allCategories))
	copy(out, allCategories[:])
	return out
}

// ParseCategory returns the Category named s.
func ParseCategory(s string) (Category, bool) {
	c := Category(strings.ToLower(strings.TrimSpace(s)))
	return c, c.Valid()
}

// Valid reports whether c is a member of the closed category set.
func (c Category) Valid() bool {
	_, ok := customIDBase[c]
	return ok
}

func (c Category) String() string { return string(c) }

// CustomIDBase is the first sequence number minted for locally scoped concepts.
func (c Category) CustomIDBase() int { return customIDBase[c] }

// CustomIDPrefix is the prefix of locally minted concept ids, e.g. "CUSTOM:DRUGS_".
func (c Category) CustomIDPrefix() string {
	return "CUSTOM:" + strings.ToUpper(string(c)) + "_"
}

// CustomID formats a locally minted concept id.
func (c Category) CustomID(seq int) string {
	return fmt.Sprintf("%s%d", c.CustomIDPrefix(), seq)
}

// MatchKind classifies how a surface form was grounded.
type MatchKind string

const (
	MatchExact     MatchKind = "exact"
	MatchSynonym   MatchKind = "synonym"
	MatchFuzzy     MatchKind = "fuzzy"
	MatchUnmatched MatchKind = "unmatched"
)

// ─────────────────────────────────────────────────────────────────────────────
// NormalizationMatch
// ─────────────────────────────────────────────────────────────────────────────

// NormalizationMatch is the grounding result for one surface form.
// MatchKind is unmatched exactly when ConceptID is empty and Score is 0.
type NormalizationMatch struct {
	OriginalText string
	ConceptID    string
	Label        string
	Provider     string
	MatchKind    MatchKind
	Score        float64
}

// Unmatched returns the unmatched record for text.
func Unmatched(text string) NormalizationMatch {
	return NormalizationMatch{OriginalText: text, MatchKind: MatchUnmatched}
}

// IsMatched reports whether m grounded to a concept.
func (m NormalizationMatch) IsMatched() bool {
	return m.MatchKind != MatchUnmatched && m.MatchKind != "" && m.ConceptID != ""
}

type matchJSON struct {
	OriginalText string    `json:"original_text"`
	ConceptID    *string   `json:"concept_id"`
	Label        *string   `json:"label"`
	Provider     *string   `json:"provider"`
	MatchKind    MatchKind `json:"match_kind"`
	Score        float64   `json:"score"`

	// legacy keys written by earlier pipeline revisions
	Text      *string    `json:"text,omitempty"`
	MatchType *MatchKind `json:"match_type,omitempty"`
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// MarshalJSON writes absent identifiers as null.
func (m NormalizationMatch) MarshalJSON() ([]byte, error) {
	return json.Marshal(matchJSON{
		OriginalText: m.OriginalText,
		ConceptID:    optional(m.ConceptID),
		Label:        optional(m.Label),
		Provider:     optional(m.Provider),
		MatchKind:    m.MatchKind,
		Score:        m.Score,
	})
}

// UnmarshalJSON accepts both original_text/match_kind and the legacy
// text/match_type keys.
func (m *NormalizationMatch) UnmarshalJSON(data []byte) error {
	var raw matchJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	m.OriginalText = raw.OriginalText
	if m.OriginalText == "" && raw.Text != nil {
		m.OriginalText = *raw.Text
	}
	m.MatchKind = raw.MatchKind
	if m.MatchKind == "" && raw.MatchType != nil {
		m.MatchKind = *raw.MatchType
	}
	m.ConceptID = deref(raw.ConceptID)
	m.Label = deref(raw.Label)
	m.Provider = deref(raw.Provider)
	m.Score = raw.Score
	return nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Facts
// ─────────────────────────────────────────────────────────────────────────────

// Fact is one validated fact record as handed over by the upstream
// validator. Required keys: drug_name, condition_name, relation. Optional:
// outcome, side_effects, effect_size, confidence_interval, plus any
// provenance keys (source_id, section, span, confidence).
type Fact map[string]interface{}

// NormalizedFact is the grounding of one Fact. Outcome is nil when the
// source fact claimed no outcome, which is distinct from an unmatched outcome.
type NormalizedFact struct {
	RawFact            Fact                 `json:"raw_fact"`
	Drug               NormalizationMatch   `json:"drug"`
	Condition          NormalizationMatch   `json:"condition"`
	Relation           NormalizationMatch   `json:"relation"`
	Outcome            *NormalizationMatch  `json:"outcome"`
	SideEffects        []NormalizationMatch `json:"side_effects"`
	EffectSize         interface{}          `json:"effect_size,omitempty"`
	ConfidenceInterval interface{}          `json:"confidence_interval,omitempty"`
}

// EachMatch calls fn for every match in f, in category order. A nil outcome
// is skipped.
func (f *NormalizedFact) EachMatch(fn func(Category, NormalizationMatch)) {
	fn(CategoryDrugs, f.Drug)
	fn(CategoryConditions, f.Condition)
	fn(CategoryRelations, f.Relation)
	if f.Outcome != nil {
		fn(CategoryOutcomes, *f.Outcome)
	}
	for _, se := range f.SideEffects {
		fn(CategorySideEffects, se)
	}
}

// NormalizedBatch is the on-disk shape of a normalized-fact file.
type NormalizedBatch struct {
	NormalizedFacts []NormalizedFact `json:"normalized_facts"`
}

// ─────────────────────────────────────────────────────────────────────────────
// Reports
// ─────────────────────────────────────────────────────────────────────────────

// Tally counts matched and unmatched facts for one field.
type Tally struct {
	Matched   int `json:"matched"`
	Unmatched int `json:"unmatched"`
}

// Add records one observation.
func (t *Tally) Add(matched bool) {
	if matched {
		t.Matched++
		return
	}
	t.Unmatched++
}

// Summary is the per-field matched/unmatched table for a batch.
type Summary struct {
	Total       int   `json:"total"`
	Drug        Tally `json:"drug"`
	Condition   Tally `json:"condition"`
	Relation    Tally `json:"relation"`
	Outcome     Tally `json:"outcome"`
	SideEffects Tally `json:"side_effects"`
}

// Rows returns the table in display order.
func (s Summary) Rows() []SummaryRow {
	return []SummaryRow{
		{Field: "drug", Tally: s.Drug},
		{Field: "condition", Tally: s.Condition},
		{Field: "relation", Tally: s.Relation},
		{Field: "outcome", Tally: s.Outcome},
		{Field: "side_effects", Tally: s.SideEffects},
	}
}

// SummaryRow is one line of Summary.Rows.
type SummaryRow struct {
	Field string
	Tally Tally
}

// SkippedFact records a fact that failed normalization.
type SkippedFact struct {
	Index  int    `json:"index"`
	Field  string `json:"field,omitempty"`
	Reason string `json:"reason"`
}

// BatchReport is what a batch run reports to its caller.
type BatchReport struct {
	Summary   Summary       `json:"summary"`
	Succeeded int           `json:"succeeded"`
	Skipped   []SkippedFact `json:"skipped"`
}

// Harvest maps each category to its unmatched surface forms, duplicates kept.
type Harvest map[Category][]string

// Total returns the number of harvested strings across categories.
func (h Harvest) Total() int {
	n := 0
	for _, v := range h {
		n += len(v)
	}
	return n
}

// SurfaceCount is one row of an unmatched frequency report.
type SurfaceCount struct {
	Text  string `json:"text"`
	Count int    `json:"count"`
}

// Frequencies counts distinct strings in h per category, ordered by count
// descending then text ascending.
func (h Harvest) Frequencies() map[Category][]SurfaceCount {
	out := make(map[Category][]SurfaceCount, len(h))
	for cat, texts := range h {
		counts := make(map[string]int, len(texts))
		for _, t := range texts {
			counts[t]++
		}
		rows := make([]SurfaceCount, 0, len(counts))
		for t, n := range counts {
			rows = append(rows, SurfaceCount{Text: t, Count: n})
		}
		sort.Slice(rows, func(i, j int) bool {
			if rows[i].Count != rows[j].Count {
				return rows[i].Count > rows[j].Count
			}
			return rows[i].Text < rows[j].Text
		})
		out[cat] = rows
	}
	return out
}

// ─────────────────────────────────────────────────────────────────────────────
// Resolution and augmentation
// ─────────────────────────────────────────────────────────────────────────────

// ResolvedConcept is a concept found in an external reference vocabulary.
type ResolvedConcept struct {
	Vocabulary string `json:"vocabulary"`
	ConceptID  string `json:"concept_id"`
	Label      string `json:"label"`
}

// AddedConcept is one dictionary change made (or previewed) by augmentation.
type AddedConcept struct {
	SurfaceForm string `json:"surface_form"`
	ConceptID   string `json:"concept_id"`
	Label       string `json:"label"`
	Provider    string `json:"provider"`
}

// CategoryChanges groups the changes for one category by source.
type CategoryChanges struct {
	AddedViaExternalMatch []AddedConcept `json:"added_via_external_match"`
	AddedAsNewConcept     []AddedConcept `json:"added_as_new_concept"`
	AddedAsSynonym        []AddedConcept `json:"added_as_synonym,omitempty"`
}

// Count returns the number of changes in c.
func (c *CategoryChanges) Count() int {
	if c == nil {
		return 0
	}
	return len(c.AddedViaExternalMatch) + len(c.AddedAsNewConcept) + len(c.AddedAsSynonym)
}

// AugmentationSummary reports one augmentation run.
type AugmentationSummary struct {
	RunID        string                        `json:"run_id"`
	Timestamp    time.Time                     `json:"timestamp"`
	DryRun       bool                          `json:"dry_run"`
	PerCategory  map[Category]*CategoryChanges `json:"per_category"`
	BackupPath   string                        `json:"backup_path,omitempty"`
	ManifestPath string                        `json:"manifest_path,omitempty"`
}

// TotalAdded returns the number of changes across categories.
func (s *AugmentationSummary) TotalAdded() int {
	n := 0
	for _, c := range s.PerCategory {
		n += c.Count()
	}
	return n
}

// Changes returns the changes for cat, creating the entry if needed.
func (s *AugmentationSummary) Changes(cat Category) *CategoryChanges {
	if s.PerCategory == nil {
		s.PerCategory = make(map[Category]*CategoryChanges)
	}
	c, ok := s.PerCategory[cat]
	if !ok {
		c = &CategoryChanges{
			AddedViaExternalMatch: []AddedConcept{},
			AddedAsNewConcept:     []AddedConcept{},
		}
		s.PerCategory[cat] = c
	}
	return c
}

//Personal.AI order the ending
