package redis

import (
	"context"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/turtacn/OntoGround/internal/domain/ontology"
	"github.com/turtacn/OntoGround/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/OntoGround/pkg/errors"
	otypes "github.com/turtacn/OntoGround/pkg/types/ontology"
)

func hit() ontology.CacheEntry {
	return ontology.CacheEntry{
		Found:    true,
		Concept:  &otypes.ResolvedConcept{Vocabulary: "rxnorm", ConceptID: "RXNORM:89013", Label: "aripiprazole"},
		CachedAt: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
	}
}

func TestLookupCache_RoundTrip(t *testing.T) {
	mr, client := newMiniClient(t)
	cache := NewLookupCache(client, logging.NewNopLogger(), WithPrefix("t:"), WithTTL(time.Hour), WithNegativeTTL(time.Minute))
	ctx := context.Background()

	_, ok, err := cache.Get(ctx, "rxnorm:abilify")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, cache.Set(ctx, "rxnorm:abilify", hit()))
	require.NoError(t, cache.Set(ctx, "snomed:abilify", ontology.CacheEntry{Found: false, CachedAt: time.Now()}))
	assert.True(t, mr.Exists("t:rxnorm:abilify"))

	got, ok, err := cache.Get(ctx, "rxnorm:abilify")
	require.NoError(t, err)
	require.True(t, ok)
	assert.True(t, got.Found)
	assert.Equal(t, "RXNORM:89013", got.Concept.ConceptID)

	assert.InDelta(t, float64(time.Hour), float64(mr.TTL("t:rxnorm:abilify")), float64(6*time.Minute))
	assert.InDelta(t, float64(time.Minute), float64(mr.TTL("t:snomed:abilify")), float64(6*time.Second))

	mr.FastForward(2 * time.Minute)
	_, ok, err = cache.Get(ctx, "snomed:abilify")
	require.NoError(t, err)
	assert.False(t, ok, "negative entry expired")
	_, ok, _ = cache.Get(ctx, "rxnorm:abilify")
	assert.True(t, ok)

	assert.NoError(t, cache.Load(ctx))
	assert.NoError(t, cache.Flush(ctx))
}

func TestLookupCache_UndecodableEntryIsAMiss(t *testing.T) {
	mr, client := newMiniClient(t)
	cache := NewLookupCache(client, logging.NewNopLogger())
	require.NoError(t, mr.Set(DefaultCachePrefix+"rxnorm:x", "{not json"))

	_, ok, err := cache.Get(context.Background(), "rxnorm:x")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestLookupCache_Purge(t *testing.T) {
	mr, client := newMiniClient(t)
	cache := NewLookupCache(client, logging.NewNopLogger(), WithPrefix("p:"))
	ctx := context.Background()
	for _, k := range []string{"rxnorm:a", "rxnorm:b", "snomed:c"} {
		require.NoError(t, cache.Set(ctx, k, hit()))
	}
	require.NoError(t, mr.Set("other", "keep"))

	n, err := cache.Purge(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)
	assert.True(t, mr.Exists("other"))
}

type LookupCacheMockSuite struct {
	suite.Suite
	mock  redismock.ClientMock
	cache *LookupCache
}

func (s *LookupCacheMockSuite) SetupTest() {
	db, mock := redismock.NewClientMock()
	s.mock = mock
	s.cache = NewLookupCache(NewClientFromUniversal(db, nil), nil, WithPrefix("m:"))
}

func (s *LookupCacheMockSuite) TearDownTest() {
	assert.NoError(s.T(), s.mock.ExpectationsWereMet())
}

func (s *LookupCacheMockSuite) TestGet_BackendError() {
	s.mock.ExpectGet("m:rxnorm:x").SetErr(assert.AnError)
	_, ok, err := s.cache.Get(context.Background(), "rxnorm:x")
	s.False(ok)
	s.True(errors.IsCode(err, errors.ErrCodeCacheError))
}

func (s *LookupCacheMockSuite) TestGet_Hit() {
	s.mock.ExpectGet("m:rxnorm:x").SetVal(`{"found":true,"concept":{"vocabulary":"rxnorm","concept_id":"RXNORM:1","label":"x"},"cached_at":"2026-01-01T00:00:00Z"}`)
	e, ok, err := s.cache.Get(context.Background(), "rxnorm:x")
	s.NoError(err)
	s.True(ok)
	s.Equal("RXNORM:1", e.Concept.ConceptID)
}

func TestLookupCacheMockSuite(t *testing.T) {
	suite.Run(t, new(LookupCacheMockSuite))
}

//Personal.AI order the ending
