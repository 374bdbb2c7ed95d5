// Package resolver looks harvested surface forms up in external reference
// vocabularies, in a per-category priority order, behind a lookup cache.
package resolver

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/turtacn/OntoGround/internal/domain/ontology"
	"github.com/turtacn/OntoGround/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/OntoGround/internal/intelligence/normalizer"
	otypes "github.com/turtacn/OntoGround/pkg/types/ontology"
)

// Vocabulary is one external reference vocabulary. Lookup returns nil, nil
// when the vocabulary has no candidate for text.
type Vocabulary interface {
	Name() string
	Lookup(ctx context.Context, text string) (*otypes.ResolvedConcept, error)
}

// Lookup outcomes reported to the Recorder.
const (
	OutcomeHit    = "hit"
	OutcomeMiss   = "miss"
	OutcomeError  = "error"
	OutcomeCached = "cached"
)

// Recorder receives per-lookup observations.
type Recorder interface {
	ObserveLookup(vocabulary, outcome string, elapsed time.Duration)
}

type nopRecorder struct{}

func (nopRecorder) ObserveLookup(string, string, time.Duration) {}

// Config tunes the resolver.
type Config struct {
	Timeout     time.Duration
	Concurrency int
	// Strategies overrides DefaultStrategies when non-nil.
	Strategies map[otypes.Category][]string
	Surface    normalizer.SurfaceFunc
}

// DefaultConfig returns the production defaults.
func DefaultConfig() Config {
	return Config{Timeout: 5 * time.Second, Concurrency: 8}
}

// Request asks for one surface form in one category.
type Request struct {
	Category otypes.Category
	Text     string
}

// Resolver is constructed once per run and shared by reference. It never
// returns an error: network failures are logged, cached negatively and
// treated as "no match".
type Resolver struct {
	cfg        Config
	strategies map[otypes.Category][]Vocabulary
	cache      ontology.LookupCache
	group      singleflight.Group
	logger     logging.Logger
	recorder   Recorder
	now        func() time.Time
}

// New builds a Resolver over vocabs. A nil cache falls back to an in-memory
// cache without expiry.
func New(cfg Config, vocabs []Vocabulary, cache ontology.LookupCache, logger logging.Logger, rec Recorder) *Resolver {
	def := DefaultConfig()
	if cfg.Timeout <= 0 {
		cfg.Timeout = def.Timeout
	}
	if cfg.Concurrency < 1 {
		cfg.Concurrency = def.Concurrency
	}
	if cfg.Strategies == nil {
		cfg.Strategies = DefaultStrategies
	}
	if cfg.Surface == nil {
		cfg.Surface = normalizer.Surface
	}
	if cache == nil {
		cache = NewMemoryCache(0, 0)
	}
	if rec == nil {
		rec = nopRecorder{}
	}
	byName := make(map[string]Vocabulary, len(vocabs))
	for _, v := range vocabs {
		if v != nil {
			byName[v.Name()] = v
		}
	}
	return &Resolver{
		cfg:        cfg,
		strategies: buildStrategies(cfg.Strategies, byName),
		cache:      cache,
		logger:     logging.OrNop(logger).Named("resolver"),
		recorder:   rec,
		now:        time.Now,
	}
}

// Chain returns the vocabulary names tried for cat, in order.
func (r *Resolver) Chain(cat otypes.Category) []string {
	chain := r.strategies[cat]
	out := make([]string, len(chain))
	for i, v := range chain {
		out[i] = v.Name()
	}
	return out
}

// Load primes the cache from its backing store. Failures are logged and the
// run continues with whatever the cache holds.
func (r *Resolver) Load(ctx context.Context) {
	if err := r.cache.Load(ctx); err != nil {
		r.logger.Warn("lookup cache load failed", logging.Err(err))
	}
}

// Flush persists the cache.
func (r *Resolver) Flush(ctx context.Context) error {
	return r.cache.Flush(ctx)
}

// Resolve tries each vocabulary of cat's chain in order and returns the first
// candidate, or nil when every vocabulary fails or has none.
func (r *Resolver) Resolve(ctx context.Context, cat otypes.Category, text string) *otypes.ResolvedConcept {
	key := r.cfg.Surface(text)
	if key == "" {
		return nil
	}
	for _, v := range r.strategies[cat] {
		if ctx.Err() != nil {
			return nil
		}
		if c := r.lookup(ctx, v, key); c != nil {
			return c
		}
	}
	return nil
}

// ResolveAll resolves reqs with bounded concurrency. The result is aligned
// with reqs; unresolved entries are nil.
func (r *Resolver) ResolveAll(ctx context.Context, reqs []Request) []*otypes.ResolvedConcept {
	out := make([]*otypes.ResolvedConcept, len(reqs))
	var g errgroup.Group
	g.SetLimit(r.cfg.Concurrency)
	for i, req := range reqs {
		i, req := i, req
		g.Go(func() error {
			out[i] = r.Resolve(ctx, req.Category, req.Text)
			return nil
		})
	}
	_ = g.Wait()
	return out
}

// CacheKey is the cache key of a normalized surface form in vocabulary.
func CacheKey(vocabulary, normalized string) string {
	return vocabulary + ":" + normalized
}

func (r *Resolver) lookup(ctx context.Context, v Vocabulary, key string) *otypes.ResolvedConcept {
	cacheKey := CacheKey(v.Name(), key)
	if entry, ok := r.cached(ctx, cacheKey); ok {
		r.recorder.ObserveLookup(v.Name(), OutcomeCached, 0)
		return entry.Concept
	}

	res, _, _ := r.group.Do(cacheKey, func() (interface{}, error) {
		if entry, ok := r.cached(ctx, cacheKey); ok {
			return entry.Concept, nil
		}

		callCtx, cancel := context.WithTimeout(ctx, r.cfg.Timeout)
		defer cancel()

		start := r.now()
		concept, err := v.Lookup(callCtx, key)
		elapsed := r.now().Sub(start)

		if ctx.Err() != nil {
			// the run itself was cancelled; the vocabulary said nothing
			return nil, nil
		}

		switch {
		case err != nil:
			r.recorder.ObserveLookup(v.Name(), OutcomeError, elapsed)
			r.logger.Warn("vocabulary lookup failed",
				logging.String("vocabulary", v.Name()),
				logging.String("text", key),
				logging.Err(err))
			concept = nil
		case concept == nil:
			r.recorder.ObserveLookup(v.Name(), OutcomeMiss, elapsed)
		default:
			r.recorder.ObserveLookup(v.Name(), OutcomeHit, elapsed)
		}

		entry := ontology.CacheEntry{Found: concept != nil, Concept: concept, CachedAt: r.now().UTC()}
		if err := r.cache.Set(ctx, cacheKey, entry); err != nil {
			r.logger.Warn("lookup cache write failed", logging.String("key", cacheKey), logging.Err(err))
		}
		return concept, nil
	})

	c, _ := res.(*otypes.ResolvedConcept)
	return c
}

func (r *Resolver) cached(ctx context.Context, key string) (ontology.CacheEntry, bool) {
	entry, ok, err := r.cache.Get(ctx, key)
	if err != nil {
		r.logger.Warn("lookup cache read failed", logging.String("key", key), logging.Err(err))
		return ontology.CacheEntry{}, false
	}
	if !ok {
		return ontology.CacheEntry{}, false
	}
	if !entry.Found {
		entry.Concept = nil
	}
	return entry, true
}

//Personal.AI order the ending
