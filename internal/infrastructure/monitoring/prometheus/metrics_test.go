package prometheus

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/OntoGround/internal/infrastructure/monitoring/logging"
	otypes "github.com/turtacn/OntoGround/pkg/types/ontology"
)

func newTestCollector(t *testing.T) MetricsCollector {
	t.Helper()
	c, err := NewMetricsCollector(CollectorConfig{Namespace: "ontoground"}, logging.NewNopLogger())
	require.NoError(t, err)
	return c
}

func scrape(t *testing.T, c MetricsCollector) string {
	t.Helper()
	w := httptest.NewRecorder()
	c.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, w.Code)
	return w.Body.String()
}

func TestNewMetricsCollector_RequiresNamespace(t *testing.T) {
	_, err := NewMetricsCollector(CollectorConfig{}, nil)
	assert.Error(t, err)
}

func TestNewMetricsCollector_ProcessMetrics(t *testing.T) {
	c, err := NewMetricsCollector(CollectorConfig{Namespace: "ontoground", EnableProcessMetrics: true}, nil)
	require.NoError(t, err)
	assert.Contains(t, scrape(t, c), "ontoground_process_")
}

func TestRegister_ReturnsExistingVector(t *testing.T) {
	c := newTestCollector(t)
	a := c.RegisterCounter("dup_total", "help", "k")
	b := c.RegisterCounter("dup_total", "help", "k")
	a.WithLabelValues("x").Inc()
	b.WithLabelValues("x").Inc()
	assert.Contains(t, scrape(t, c), `ontoground_dup_total{k="x"} 2`)
}

func TestRegister_TypeMismatchIsNoop(t *testing.T) {
	c := newTestCollector(t)
	c.RegisterCounter("shared", "help")
	g := c.RegisterGauge("shared", "help")
	assert.NotPanics(t, func() { g.WithLabelValues().Set(3) })
	assert.IsType(t, noopGaugeVec{}, g)
}

func TestEngineMetrics_Matching(t *testing.T) {
	c := newTestCollector(t)
	m := NewEngineMetrics(c)

	m.ObserveMatch(otypes.CategoryDrugs, otypes.MatchExact, 1)
	m.ObserveMatch(otypes.CategoryDrugs, otypes.MatchExact, 1)
	m.ObserveMatch(otypes.CategoryConditions, otypes.MatchFuzzy, 0.9)
	m.ObserveFact(true)
	m.ObserveFact(false)
	m.ObserveIndex(otypes.CategoryDrugs, 12, 1)

	out := scrape(t, c)
	assert.Contains(t, out, `ontoground_matches_total{category="drugs",match_kind="exact"} 2`)
	assert.Contains(t, out, `ontoground_fuzzy_score_count{category="conditions"} 1`)
	assert.NotContains(t, out, `ontoground_fuzzy_score_count{category="drugs"}`)
	assert.Contains(t, out, `ontoground_facts_total{status="normalized"} 1`)
	assert.Contains(t, out, `ontoground_facts_total{status="skipped"} 1`)
	assert.Contains(t, out, `ontoground_index_keys{category="drugs"} 12`)
	assert.Contains(t, out, `ontoground_index_conflicts{category="drugs"} 1`)
}

func TestEngineMetrics_Lookups(t *testing.T) {
	c := newTestCollector(t)
	m := NewEngineMetrics(c)

	m.ObserveLookup("rxnorm", "hit", 20*time.Millisecond)
	m.ObserveLookup("rxnorm", "cached", 0)

	out := scrape(t, c)
	assert.Contains(t, out, `ontoground_resolver_lookups_total{outcome="hit",vocabulary="rxnorm"} 1`)
	assert.Contains(t, out, `ontoground_resolver_lookups_total{outcome="cached",vocabulary="rxnorm"} 1`)
	assert.Contains(t, out, `ontoground_resolver_lookup_duration_seconds_count{vocabulary="rxnorm"} 1`)
}

func TestEngineMetrics_Augmentation(t *testing.T) {
	c := newTestCollector(t)
	m := NewEngineMetrics(c)

	summary := &otypes.AugmentationSummary{}
	ch := summary.Changes(otypes.CategoryDrugs)
	ch.AddedViaExternalMatch = append(ch.AddedViaExternalMatch, otypes.AddedConcept{SurfaceForm: "aripiprazole"})
	ch.AddedAsNewConcept = append(ch.AddedAsNewConcept, otypes.AddedConcept{SurfaceForm: "x"}, otypes.AddedConcept{SurfaceForm: "y"})

	m.ObserveAugmentation(false, summary, nil)
	m.ObserveAugmentation(true, summary, nil)
	m.ObserveAugmentation(false, nil, errors.New("disk full"))

	out := scrape(t, c)
	assert.Contains(t, out, `ontoground_augment_concepts_total{category="drugs",source="external"} 1`)
	assert.Contains(t, out, `ontoground_augment_concepts_total{category="drugs",source="minted"} 2`)
	assert.NotContains(t, out, `source="synonym"`)
	assert.Contains(t, out, `ontoground_augment_runs_total{dry_run="false",status="success"} 1`)
	assert.Contains(t, out, `ontoground_augment_runs_total{dry_run="true",status="success"} 1`)
	assert.Contains(t, out, `ontoground_augment_runs_total{dry_run="false",status="failure"} 1`)
}

func TestEngineMetrics_HTTP(t *testing.T) {
	c := newTestCollector(t)
	m := NewEngineMetrics(c)
	m.ObserveHTTP(http.MethodPost, "/api/v1/normalize", 200, 5*time.Millisecond)

	n, err := testutil.GatherAndCount(c.Gatherer(), "ontoground_http_requests_total")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestEngineMetrics_NilReceiver(t *testing.T) {
	var m *EngineMetrics
	assert.NotPanics(t, func() {
		m.ObserveMatch(otypes.CategoryDrugs, otypes.MatchFuzzy, 0.9)
		m.ObserveFact(true)
		m.ObserveIndex(otypes.CategoryDrugs, 1, 0)
		m.ObserveLookup("rxnorm", "hit", time.Second)
		m.ObserveAugmentation(false, nil, nil)
		m.ObserveHTTP("GET", "/", 200, 0)
	})
}

//Personal.AI order the ending
