package normalizer

import (
	"fmt"

	"github.com/turtacn/OntoGround/internal/domain/ontology"
	"github.com/turtacn/OntoGround/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/OntoGround/pkg/errors"
	otypes "github.com/turtacn/OntoGround/pkg/types/ontology"
)

// Fact keys read by the normalizer.
const (
	FieldDrugName           = "drug_name"
	FieldConditionName      = "condition_name"
	FieldRelation           = "relation"
	FieldOutcome            = "outcome"
	FieldSideEffects        = "side_effects"
	FieldEffectSize         = "effect_size"
	FieldConfidenceInterval = "confidence_interval"
)

// Options configures a Normalizer.
type Options struct {
	MinFuzzyScore  float64
	ConflictPolicy ConflictPolicy
	FoldUnicode    bool
	Logger         logging.Logger
	Recorder       Recorder
}

// Normalizer applies the Matcher to every normalizable field of a fact. It
// owns one Index built from one dictionary snapshot and is safe for
// concurrent use.
type Normalizer struct {
	index    *Index
	matcher  *Matcher
	logger   logging.Logger
	recorder Recorder
}

// New builds the index for dict and returns a ready Normalizer. Any
// dictionary defect is a ConfigurationError; no partial index is returned.
func New(dict *ontology.Dictionary, opts Options) (*Normalizer, error) {
	logger := logging.OrNop(opts.Logger).Named("normalizer")
	rec := opts.Recorder
	if rec == nil {
		rec = nopRecorder{}
	}
	if opts.MinFuzzyScore == 0 {
		opts.MinFuzzyScore = DefaultMinFuzzyScore
	}
	if opts.ConflictPolicy == "" {
		opts.ConflictPolicy = ConflictWarn
	}

	idx, err := BuildIndex(dict, opts.ConflictPolicy, NewSurfaceFunc(opts.FoldUnicode))
	if err != nil {
		return nil, err
	}
	m, err := NewMatcher(idx, opts.MinFuzzyScore, rec)
	if err != nil {
		return nil, err
	}

	for _, cat := range otypes.Categories() {
		ci := idx.Category(cat)
		conflicts := idx.ConflictsIn(cat)
		rec.ObserveIndex(cat, ci.Len(), len(conflicts))
		logger.Debug("category indexed",
			logging.String("category", string(cat)),
			logging.Int("concepts", ci.Concepts()),
			logging.Int("keys", ci.Len()),
			logging.Int("conflicts", len(conflicts)))
		for _, c := range conflicts {
			logger.Warn("dictionary key collision", logging.String("conflict", c.String()))
		}
	}

	return &Normalizer{index: idx, matcher: m, logger: logger, recorder: rec}, nil
}

// Index exposes the underlying read-only index.
func (n *Normalizer) Index() *Index { return n.index }

// Lookup grounds a single surface form.
func (n *Normalizer) Lookup(cat otypes.Category, text string) otypes.NormalizationMatch {
	return n.matcher.Lookup(cat, text)
}

// NormalizeFact grounds drug_name, condition_name, relation, outcome and
// side_effects of f. A missing or non-string required field is an
// InputShapeError naming the field.
func (n *Normalizer) NormalizeFact(f otypes.Fact) (*otypes.NormalizedFact, error) {
	if f == nil {
		return nil, errors.InputShape("", "fact must be an object")
	}

	drug, err := requiredString(f, FieldDrugName)
	if err != nil {
		return nil, err
	}
	condition, err := requiredString(f, FieldConditionName)
	if err != nil {
		return nil, err
	}
	relation, err := requiredString(f, FieldRelation)
	if err != nil {
		return nil, err
	}
	outcome, hasOutcome, err := optionalScalar(f, FieldOutcome)
	if err != nil {
		return nil, err
	}
	sideEffects, err := stringList(f, FieldSideEffects)
	if err != nil {
		return nil, err
	}

	out := &otypes.NormalizedFact{
		RawFact:            copyFact(f),
		Drug:               n.matcher.Lookup(otypes.CategoryDrugs, drug),
		Condition:          n.matcher.Lookup(otypes.CategoryConditions, condition),
		Relation:           n.matcher.Lookup(otypes.CategoryRelations, relation),
		SideEffects:        make([]otypes.NormalizationMatch, 0, len(sideEffects)),
		EffectSize:         f[FieldEffectSize],
		ConfidenceInterval: f[FieldConfidenceInterval],
	}
	if hasOutcome {
		m := n.matcher.Lookup(otypes.CategoryOutcomes, outcome)
		out.Outcome = &m
	}
	for _, se := range sideEffects {
		out.SideEffects = append(out.SideEffects, n.matcher.Lookup(otypes.CategorySideEffects, se))
	}
	return out, nil
}

// BatchResult separates the facts that normalized from those that did not.
type BatchResult struct {
	Facts   []otypes.NormalizedFact
	Skipped []otypes.SkippedFact
}

// Report summarizes r for the caller.
func (r *BatchResult) Report() otypes.BatchReport {
	skipped := r.Skipped
	if skipped == nil {
		skipped = []otypes.SkippedFact{}
	}
	return otypes.BatchReport{
		Summary:   Summarize(r.Facts),
		Succeeded: len(r.Facts),
		Skipped:   skipped,
	}
}

// NormalizeBatch normalizes facts independently and in input order. A fact
// that fails is recorded in Skipped and the batch continues.
func (n *Normalizer) NormalizeBatch(facts []otypes.Fact) *BatchResult {
	res := &BatchResult{Facts: make([]otypes.NormalizedFact, 0, len(facts))}
	for i, f := range facts {
		nf, err := n.NormalizeFact(f)
		if err != nil {
			skip := otypes.SkippedFact{Index: i, Field: errors.FieldOf(err), Reason: reasonOf(err)}
			res.Skipped = append(res.Skipped, skip)
			n.recorder.ObserveFact(false)
			n.logger.Warn("fact skipped",
				logging.Int("index", i),
				logging.String("field", skip.Field),
				logging.String("reason", skip.Reason))
			continue
		}
		n.recorder.ObserveFact(true)
		res.Facts = append(res.Facts, *nf)
	}
	return res
}

func reasonOf(err error) string {
	var appErr *errors.AppError
	if errors.As(err, &appErr) {
		return appErr.Message
	}
	return err.Error()
}

// ─────────────────────────────────────────────────────────────────────────────
// field extraction
// ─────────────────────────────────────────────────────────────────────────────

func requiredString(f otypes.Fact, key string) (string, error) {
	v, ok := f[key]
	if !ok || v == nil {
		return "", errors.InputShape(key, "required field is missing")
	}
	s, ok := v.(string)
	if !ok {
		return "", errors.InputShape(key, "required field must be a string").WithDetailf("got %T", v)
	}
	return s, nil
}

// optionalScalar reads an optional scalar. Absent, null and "" report
// present=false.
func optionalScalar(f otypes.Fact, key string) (string, bool, error) {
	v, ok := f[key]
	if !ok || v == nil {
		return "", false, nil
	}
	s, err := scalarString(key, v)
	if err != nil {
		return "", false, err
	}
	return s, s != "", nil
}

// stringList reads side_effects: absent or null is empty, a lone string is a
// one-element list, and list entries are kept one-for-one (null entries
// become "" and stay as unmatched records).
func stringList(f otypes.Fact, key string) ([]string, error) {
	v, ok := f[key]
	if !ok || v == nil {
		return nil, nil
	}
	switch t := v.(type) {
	case []interface{}:
		out := make([]string, 0, len(t))
		for i, item := range t {
			if item == nil {
				out = append(out, "")
				continue
			}
			s, err := scalarString(key, item)
			if err != nil {
				return nil, err.WithDetailf("element %d", i)
			}
			out = append(out, s)
		}
		return out, nil
	case []string:
		return append([]string(nil), t...), nil
	default:
		s, err := scalarString(key, v)
		if err != nil {
			return nil, err
		}
		if s == "" {
			return nil, nil
		}
		return []string{s}, nil
	}
}

func scalarString(key string, v interface{}) (string, *errors.AppError) {
	switch t := v.(type) {
	case string:
		return t, nil
	case map[string]interface{}, []interface{}, otypes.Fact:
		return "", errors.InputShape(key, "expected a string value").WithDetailf("got %T", v)
	default:
		return fmt.Sprint(t), nil
	}
}

func copyFact(f otypes.Fact) otypes.Fact {
	out := make(otypes.Fact, len(f))
	for k, v := range f {
		out[k] = v
	}
	return out
}

//Personal.AI order the ending
