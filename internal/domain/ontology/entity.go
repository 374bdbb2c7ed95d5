// Package ontology provides the domain model for the curated concept
// dictionary: concepts grouped by entity category, the change sets produced
// by augmentation, and the persistence ports the dictionary is stored behind.
package ontology

import (
	"sort"
	"strconv"
	"strings"

	"github.com/turtacn/OntoGround/pkg/errors"
	otypes "github.com/turtacn/OntoGround/pkg/types/ontology"
)

// ProviderCustom marks concepts minted locally rather than sourced from an
// external vocabulary.
const ProviderCustom = "custom"

// ─────────────────────────────────────────────────────────────────────────────
// Concept
// ─────────────────────────────────────────────────────────────────────────────

// Concept is one canonical, identified entry of the dictionary.
type Concept struct {
	Category otypes.Category       `json:"category"`
	ID       string                 `json:"id"`
	Label    string                 `json:"label"`
	Provider string                 `json:"provider"`
	Synonyms []string               `json:"synonyms,omitempty"`
	Metadata map[string]interface{} `json:"metadata,omitempty"`
}

// Validate checks that c carries an identifier, a label and a known category.
func (c *Concept) Validate() error {
	if c == nil {
		return errors.Configuration("concept entry is nil")
	}
	if !c.Category.Valid() {
		return errors.Configuration("concept has unknown category").
			WithDetailf("category=%q id=%q", c.Category, c.ID)
	}
	if strings.TrimSpace(c.ID) == "" {
		return errors.Configuration("concept entry is missing its identifier").
			WithDetailf("category=%s label=%q", c.Category, c.Label)
	}
	if strings.TrimSpace(c.Label) == "" {
		return errors.Configuration("concept entry is missing its label").
			WithDetailf("category=%s id=%q", c.Category, c.ID)
	}
	return nil
}

// HasSynonym reports whether s is already listed verbatim.
func (c *Concept) HasSynonym(s string) bool {
	for _, syn := range c.Synonyms {
		if syn == s {
			return true
		}
	}
	return false
}

// Clone returns a deep copy of the slice fields; metadata values are shared.
func (c *Concept) Clone() *Concept {
	out := *c
	out.Synonyms = append([]string(nil), c.Synonyms...)
	if c.Metadata != nil {
		out.Metadata = make(map[string]interface{}, len(c.Metadata))
		for k, v := range c.Metadata {
			out.Metadata[k] = v
		}
	}
	return &out
}

// ─────────────────────────────────────────────────────────────────────────────
// Dictionary
// ─────────────────────────────────────────────────────────────────────────────

// Dictionary is a decoded snapshot of the concept dictionary. It is the
// single source of truth for matching; indexes are derived from it and never
// written back.
type Dictionary struct {
	// Providers is the free-form providers section, carried through untouched.
	Providers map[string]interface{}         `json:"providers,omitempty"`
	Entities  map[otypes.Category][]*Concept `json:"entities"`
}

// NewDictionary returns an empty dictionary with every category present.
func NewDictionary() *Dictionary {
	d := &Dictionary{Entities: make(map[otypes.Category][]*Concept)}
	for _, cat := range otypes.Categories() {
		d.Entities[cat] = []*Concept{}
	}
	return d
}

// Concepts returns the concepts of cat in file order.
func (d *Dictionary) Concepts(cat otypes.Category) []*Concept {
	if d == nil {
		return nil
	}
	return d.Entities[cat]
}

// Len returns the number of concepts across all categories.
func (d *Dictionary) Len() int {
	n := 0
	for _, cs := range d.Entities {
		n += len(cs)
	}
	return n
}

// FindByID looks a concept up by identifier across all categories.
func (d *Dictionary) FindByID(id string) (*Concept, bool) {
	if d == nil {
		return nil, false
	}
	for _, cat := range otypes.Categories() {
		for _, c := range d.Entities[cat] {
			if c.ID == id {
				return c, true
			}
		}
	}
	return nil, false
}

// Validate checks every entry and that concept identifiers are unique across
// the whole dictionary.
func (d *Dictionary) Validate() error {
	if d == nil {
		return errors.Configuration("dictionary is nil")
	}
	seen := make(map[string]otypes.Category)
	for _, cat := range otypes.Categories() {
		for _, c := range d.Entities[cat] {
			if err := c.Validate(); err != nil {
				return err
			}
			if c.Category != cat {
				return errors.Configuration("concept filed under the wrong category").
					WithDetailf("id=%q filed=%s declared=%s", c.ID, cat, c.Category)
			}
			if prev, dup := seen[c.ID]; dup {
				return errors.Configuration("duplicate concept identifier").
					WithDetailf("id=%q categories=%s,%s", c.ID, prev, cat)
			}
			seen[c.ID] = cat
		}
	}
	for cat := range d.Entities {
		if !cat.Valid() {
			return errors.Configuration("unknown entity category").WithDetailf("category=%q", cat)
		}
	}
	return nil
}

// NextCustomSequence returns the next free local sequence number for cat:
// the category base, or one past the highest sequence already minted under
// the category's custom prefix, whichever is greater.
func (d *Dictionary) NextCustomSequence(cat otypes.Category) int {
	next := cat.CustomIDBase()
	prefix := cat.CustomIDPrefix()
	for _, cs := range d.Entities {
		for _, c := range cs {
			if !strings.HasPrefix(c.ID, prefix) {
				continue
			}
			n, err := strconv.Atoi(strings.TrimPrefix(c.ID, prefix))
			if err != nil {
				continue
			}
			if n+1 > next {
				next = n + 1
			}
		}
	}
	return next
}

// Apply merges cs into d. New concepts whose id is already present are
// rejected; synonyms already listed are skipped.
func (d *Dictionary) Apply(cs *ChangeSet) error {
	if cs.Empty() {
		return nil
	}
	if d.Entities == nil {
		d.Entities = make(map[otypes.Category][]*Concept)
	}
	for _, c := range cs.NewConcepts {
		if err := c.Validate(); err != nil {
			return err
		}
		if _, exists := d.FindByID(c.ID); exists {
			return errors.Internal("staged concept collides with an existing identifier").
				WithDetailf("id=%q", c.ID)
		}
		d.Entities[c.Category] = append(d.Entities[c.Category], c)
	}
	for _, add := range cs.NewSynonyms {
		target := d.find(add.Category, add.ConceptID)
		if target == nil {
			return errors.Internal("synonym targets an unknown concept").
				WithDetailf("category=%s id=%q", add.Category, add.ConceptID)
		}
		if !target.HasSynonym(add.Synonym) {
			target.Synonyms = append(target.Synonyms, add.Synonym)
		}
	}
	return nil
}

func (d *Dictionary) find(cat otypes.Category, id string) *Concept {
	for _, c := range d.Entities[cat] {
		if c.ID == id {
			return c
		}
	}
	return nil
}

// ─────────────────────────────────────────────────────────────────────────────
// ChangeSet
// ─────────────────────────────────────────────────────────────────────────────

// SynonymAddition attaches a surface form to an existing concept.
type SynonymAddition struct {
	Category  otypes.Category `json:"category"`
	ConceptID string          `json:"concept_id"`
	Synonym   string          `json:"synonym"`
}

// ChangeSet is the set of dictionary mutations staged by one augmentation
// run. Concepts are appended in staging order.
type ChangeSet struct {
	NewConcepts []*Concept        `json:"new_concepts"`
	NewSynonyms []SynonymAddition `json:"new_synonyms"`
}

// Empty reports whether cs carries no changes.
func (cs *ChangeSet) Empty() bool {
	return cs == nil || (len(cs.NewConcepts) == 0 && len(cs.NewSynonyms) == 0)
}

// Categories returns the categories touched by cs, in canonical order.
func (cs *ChangeSet) Categories() []otypes.Category {
	if cs.Empty() {
		return nil
	}
	touched := make(map[otypes.Category]bool)
	for _, c := range cs.NewConcepts {
		touched[c.Category] = true
	}
	for _, s := range cs.NewSynonyms {
		touched[s.Category] = true
	}
	out := make([]otypes.Category, 0, len(touched))
	for cat := range touched {
		out = append(out, cat)
	}
	order := make(map[otypes.Category]int)
	for i, cat := range otypes.Categories() {
		order[cat] = i
	}
	sort.Slice(out, func(i, j int) bool { return order[out[i]] < order[out[j]] })
	return out
}

//Personal.AI order the ending
