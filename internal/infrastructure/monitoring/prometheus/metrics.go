package prometheus

import (
	"strconv"
	"time"

	otypes "github.com/turtacn/OntoGround/pkg/types/ontology"
)

// Augmentation change sources.
const (
	SourceExternal = "external"
	SourceMinted   = "minted"
	SourceSynonym  = "synonym"
)

var (
	DefaultScoreBuckets  = []float64{.5, .6, .7, .8, .85, .9, .95, .99, 1}
	DefaultLookupBuckets = []float64{.01, .05, .1, .25, .5, 1, 2.5, 5, 10}
	DefaultHTTPBuckets   = []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10}
)

// EngineMetrics holds every engine metric. All methods are safe on a nil
// receiver, so components may be handed a nil *EngineMetrics when metrics
// are disabled.
type EngineMetrics struct {
	MatchesTotal CounterVec
	FuzzyScore   HistogramVec
	FactsTotal   CounterVec

	IndexKeys      GaugeVec
	IndexConflicts GaugeVec

	ResolverLookupsTotal   CounterVec
	ResolverLookupDuration HistogramVec

	AugmentConceptsTotal CounterVec
	AugmentRunsTotal     CounterVec

	HTTPRequestsTotal   CounterVec
	HTTPRequestDuration HistogramVec
}

// NewEngineMetrics registers the engine metrics on collector.
func NewEngineMetrics(collector MetricsCollector) *EngineMetrics {
	m := &EngineMetrics{}

	m.MatchesTotal = collector.RegisterCounter("matches_total", "Surface forms matched, by category and match kind", "category", "match_kind")
	m.FuzzyScore = collector.RegisterHistogram("fuzzy_score", "Similarity score of accepted fuzzy matches", DefaultScoreBuckets, "category")
	m.FactsTotal = collector.RegisterCounter("facts_total", "Facts processed by the normalizer", "status")

	m.IndexKeys = collector.RegisterGauge("index_keys", "Lookup keys in the active concept index", "category")
	m.IndexConflicts = collector.RegisterGauge("index_conflicts", "Key collisions seen while building the concept index", "category")

	m.ResolverLookupsTotal = collector.RegisterCounter("resolver_lookups_total", "External vocabulary lookups by outcome", "vocabulary", "outcome")
	m.ResolverLookupDuration = collector.RegisterHistogram("resolver_lookup_duration_seconds", "External vocabulary lookup latency", DefaultLookupBuckets, "vocabulary")

	m.AugmentConceptsTotal = collector.RegisterCounter("augment_concepts_total", "Dictionary changes made by augmentation", "category", "source")
	m.AugmentRunsTotal = collector.RegisterCounter("augment_runs_total", "Augmentation runs", "status", "dry_run")

	m.HTTPRequestsTotal = collector.RegisterCounter("http_requests_total", "HTTP requests served", "method", "route", "status_code")
	m.HTTPRequestDuration = collector.RegisterHistogram("http_request_duration_seconds", "HTTP request latency", DefaultHTTPBuckets, "method", "route")

	return m
}

func (m *EngineMetrics) ObserveMatch(cat otypes.Category, kind otypes.MatchKind, score float64) {
	if m == nil {
		return
	}
	m.MatchesTotal.WithLabelValues(string(cat), string(kind)).Inc()
	if kind == otypes.MatchFuzzy {
		m.FuzzyScore.WithLabelValues(string(cat)).Observe(score)
	}
}

func (m *EngineMetrics) ObserveFact(ok bool) {
	if m == nil {
		return
	}
	status := "normalized"
	if !ok {
		status = "skipped"
	}
	m.FactsTotal.WithLabelValues(status).Inc()
}

func (m *EngineMetrics) ObserveIndex(cat otypes.Category, keys, conflicts int) {
	if m == nil {
		return
	}
	m.IndexKeys.WithLabelValues(string(cat)).Set(float64(keys))
	m.IndexConflicts.WithLabelValues(string(cat)).Set(float64(conflicts))
}

// ObserveLookup records one resolver lookup. Cached lookups carry no latency.
func (m *EngineMetrics) ObserveLookup(vocabulary, outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.ResolverLookupsTotal.WithLabelValues(vocabulary, outcome).Inc()
	if elapsed > 0 {
		m.ResolverLookupDuration.WithLabelValues(vocabulary).Observe(elapsed.Seconds())
	}
}

// ObserveAugmentation records one run. Concept counts are only added for
// runs that persisted.
func (m *EngineMetrics) ObserveAugmentation(dryRun bool, summary *otypes.AugmentationSummary, err error) {
	if m == nil {
		return
	}
	status := "success"
	if err != nil {
		status = "failure"
	}
	if summary != nil && err == nil && !dryRun {
		for cat, changes := range summary.PerCategory {
			if changes == nil {
				continue
			}
			m.addConcepts(cat, SourceExternal, len(changes.AddedViaExternalMatch))
			m.addConcepts(cat, SourceMinted, len(changes.AddedAsNewConcept))
			m.addConcepts(cat, SourceSynonym, len(changes.AddedAsSynonym))
		}
	}
	m.AugmentRunsTotal.WithLabelValues(status, strconv.FormatBool(dryRun)).Inc()
}

func (m *EngineMetrics) addConcepts(cat otypes.Category, source string, n int) {
	if n > 0 {
		m.AugmentConceptsTotal.WithLabelValues(string(cat), source).Add(float64(n))
	}
}

func (m *EngineMetrics) ObserveHTTP(method, route string, status int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.HTTPRequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

//Personal.AI order the ending
