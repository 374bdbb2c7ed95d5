package normalizer

import (
	"fmt"
	"sort"
	"strings"

	"github.com/turtacn/OntoGround/internal/domain/ontology"
	"github.com/turtacn/OntoGround/pkg/errors"
	otypes "github.com/turtacn/OntoGround/pkg/types/ontology"
)

// ConflictPolicy decides how index construction treats two concepts of one
// category that normalize to the same key.
type ConflictPolicy string

const (
	// ConflictWarn keeps the first registration and reports the collision.
	ConflictWarn ConflictPolicy = "warn"
	// ConflictReject aborts index construction on the first collision.
	ConflictReject ConflictPolicy = "reject"
)

// ParseConflictPolicy maps a configuration value to a policy.
func ParseConflictPolicy(s string) (ConflictPolicy, error) {
	switch ConflictPolicy(strings.ToLower(strings.TrimSpace(s))) {
	case ConflictWarn, "":
		return ConflictWarn, nil
	case ConflictReject:
		return ConflictReject, nil
	default:
		return "", errors.Configuration("unknown conflict policy").WithDetailf("policy=%q", s)
	}
}

// Conflict records a key claimed by two different concepts.
type Conflict struct {
	Category    otypes.Category  `json:"category"`
	Key         string           `json:"key"`
	KeptID      string           `json:"kept_id"`
	KeptKind    otypes.MatchKind `json:"kept_kind"`
	DroppedID   string           `json:"dropped_id"`
	DroppedKind otypes.MatchKind `json:"dropped_kind"`
}

func (c Conflict) String() string {
	return fmt.Sprintf("%s: key %q claimed by %s (%s) and %s (%s)",
		c.Category, c.Key, c.KeptID, c.KeptKind, c.DroppedID, c.DroppedKind)
}

type indexEntry struct {
	concept *ontology.Concept
	kind    otypes.MatchKind
}

// CategoryIndex is the lookup structure for one category: a key map and the
// sorted key set used for approximate search. It is never mutated after
// construction.
type CategoryIndex struct {
	category otypes.Category
	entries  map[string]indexEntry
	keys     []string
	concepts int
}

// Len returns the number of registered keys.
func (ci *CategoryIndex) Len() int { return len(ci.keys) }

// Concepts returns the number of concepts indexed.
func (ci *CategoryIndex) Concepts() int { return ci.concepts }

// Keys returns the sorted key set. Callers must not modify it.
func (ci *CategoryIndex) Keys() []string { return ci.keys }

func (ci *CategoryIndex) get(key string) (indexEntry, bool) {
	e, ok := ci.entries[key]
	return e, ok
}

// buildCategoryIndex registers every concept's label (exact) and synonyms
// (synonym) under their canonical keys, in dictionary order.
func buildCategoryIndex(cat otypes.Category, concepts []*ontology.Concept, policy ConflictPolicy, surface SurfaceFunc) (*CategoryIndex, []Conflict, error) {
	ci := &CategoryIndex{
		category: cat,
		entries:  make(map[string]indexEntry),
		concepts: len(concepts),
	}
	var conflicts []Conflict

	register := func(c *ontology.Concept, key string, kind otypes.MatchKind) error {
		prev, taken := ci.entries[key]
		if !taken {
			ci.entries[key] = indexEntry{concept: c, kind: kind}
			return nil
		}
		if prev.concept.ID == c.ID {
			return nil
		}
		conflict := Conflict{
			Category: cat, Key: key,
			KeptID: prev.concept.ID, KeptKind: prev.kind,
			DroppedID: c.ID, DroppedKind: kind,
		}
		if policy == ConflictReject {
			return errors.Configuration("dictionary key collision").WithDetail(conflict.String())
		}
		conflicts = append(conflicts, conflict)
		return nil
	}

	for _, c := range concepts {
		if err := c.Validate(); err != nil {
			return nil, nil, err
		}
		labelKey := surface(c.Label)
		if labelKey == "" {
			return nil, nil, errors.Configuration("concept label normalizes to an empty key").
				WithDetailf("category=%s id=%q label=%q", cat, c.ID, c.Label)
		}
		if err := register(c, labelKey, otypes.MatchExact); err != nil {
			return nil, nil, err
		}
		for _, syn := range c.Synonyms {
			key := surface(syn)
			if key == "" {
				continue
			}
			if err := register(c, key, otypes.MatchSynonym); err != nil {
				return nil, nil, err
			}
		}
	}

	ci.keys = make([]string, 0, len(ci.entries))
	for k := range ci.entries {
		ci.keys = append(ci.keys, k)
	}
	sort.Strings(ci.keys)
	return ci, conflicts, nil
}

// Index is the derived, read-only lookup structure for a whole dictionary
// snapshot. A dictionary change requires building a new Index.
type Index struct {
	surface    SurfaceFunc
	categories map[otypes.Category]*CategoryIndex
	conflicts  []Conflict
}

// BuildIndex validates dict and indexes every category. Missing identifiers or
// labels, duplicate identifiers, and collisions under ConflictReject are
// ConfigurationErrors.
func BuildIndex(dict *ontology.Dictionary, policy ConflictPolicy, surface SurfaceFunc) (*Index, error) {
	if dict == nil {
		return nil, errors.Configuration("dictionary is nil")
	}
	if err := dict.Validate(); err != nil {
		return nil, err
	}
	if surface == nil {
		surface = Surface
	}
	idx := &Index{
		surface:    surface,
		categories: make(map[otypes.Category]*CategoryIndex, len(otypes.Categories())),
	}
	for _, cat := range otypes.Categories() {
		ci, conflicts, err := buildCategoryIndex(cat, dict.Concepts(cat), policy, surface)
		if err != nil {
			return nil, err
		}
		idx.categories[cat] = ci
		idx.conflicts = append(idx.conflicts, conflicts...)
	}
	return idx, nil
}

// Category returns the index for cat, or nil for an unknown category.
func (idx *Index) Category(cat otypes.Category) *CategoryIndex {
	return idx.categories[cat]
}

// Conflicts returns the collisions found while building under ConflictWarn.
func (idx *Index) Conflicts() []Conflict {
	return idx.conflicts
}

// ConflictsIn returns the collisions for one category.
func (idx *Index) ConflictsIn(cat otypes.Category) []Conflict {
	var out []Conflict
	for _, c := range idx.conflicts {
		if c.Category == cat {
			out = append(out, c)
		}
	}
	return out
}

// Normalize canonicalizes text the way this index's keys were built.
func (idx *Index) Normalize(text string) string {
	return idx.surface(text)
}

// Contains reports whether the canonical form of text is a registered label
// or synonym in cat.
func (idx *Index) Contains(cat otypes.Category, text string) bool {
	ci := idx.categories[cat]
	if ci == nil {
		return false
	}
	key := idx.surface(text)
	if key == "" {
		return false
	}
	_, ok := ci.entries[key]
	return ok
}

//Personal.AI order the ending
