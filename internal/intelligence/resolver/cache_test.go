package resolver

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/OntoGround/internal/domain/ontology"
	"github.com/turtacn/OntoGround/pkg/errors"
	otypes "github.com/turtacn/OntoGround/pkg/types/ontology"
)

func TestMemoryCache_Expiry(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	c := NewMemoryCache(time.Hour, time.Minute)
	c.now = func() time.Time { return now }
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "rxnorm:a", ontology.CacheEntry{Found: true, Concept: aripiprazole, CachedAt: now}))
	require.NoError(t, c.Set(ctx, "rxnorm:b", ontology.CacheEntry{Found: false, CachedAt: now}))

	now = now.Add(2 * time.Minute)
	_, ok, _ := c.Get(ctx, "rxnorm:a")
	assert.True(t, ok)
	_, ok, _ = c.Get(ctx, "rxnorm:b")
	assert.False(t, ok, "negative entries expire on their own TTL")

	now = now.Add(2 * time.Hour)
	_, ok, _ = c.Get(ctx, "rxnorm:a")
	assert.False(t, ok)
}

func TestFileCache_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "lookups.json")
	ctx := context.Background()

	c := NewFileCache(path, 0, 0)
	require.NoError(t, c.Load(ctx))
	require.NoError(t, c.Flush(ctx))
	_, err := os.Stat(path)
	assert.True(t, os.IsNotExist(err), "clean cache is not written")

	require.NoError(t, c.Set(ctx, "rxnorm:aripiprazole", ontology.CacheEntry{Found: true, Concept: aripiprazole, CachedAt: time.Now().UTC()}))
	require.NoError(t, c.Set(ctx, "snomed:zzz", ontology.CacheEntry{Found: false, CachedAt: time.Now().UTC()}))
	require.NoError(t, c.Flush(ctx))

	reloaded := NewFileCache(path, 0, 0)
	require.NoError(t, reloaded.Load(ctx))
	e, ok, err := reloaded.Get(ctx, "rxnorm:aripiprazole")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "RXNORM:89013", e.Concept.ConceptID)

	e, ok, _ = reloaded.Get(ctx, "snomed:zzz")
	assert.True(t, ok)
	assert.False(t, e.Found)
	assert.Equal(t, 2, reloaded.Len())
}

func TestFileCache_Corrupt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lookups.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))
	err := NewFileCache(path, 0, 0).Load(context.Background())
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeSerialization, errors.GetCode(err))
}

func TestFileCache_ResolverLifecycle(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lookups.json")
	ctx := context.Background()

	rx := rxnorm(map[string]*otypes.ResolvedConcept{"aripiprazole": aripiprazole})
	r := New(Config{}, []Vocabulary{rx}, NewFileCache(path, 0, 0), nil, nil)
	r.Load(ctx)
	r.Resolve(ctx, otypes.CategoryDrugs, "aripiprazole")
	require.NoError(t, r.Flush(ctx))

	again := rxnorm(nil)
	r2 := New(Config{}, []Vocabulary{again}, NewFileCache(path, 0, 0), nil, nil)
	r2.Load(ctx)
	assert.Equal(t, aripiprazole, r2.Resolve(ctx, otypes.CategoryDrugs, "aripiprazole"))
	assert.Equal(t, 0, again.Calls(), "a repeated run never re-queries a cached string")
}

//Personal.AI order the ending
