package augmentation

import (
	"strings"

	"github.com/turtacn/OntoGround/internal/domain/ontology"
	"github.com/turtacn/OntoGround/internal/intelligence/normalizer"
	otypes "github.com/turtacn/OntoGround/pkg/types/ontology"
)

// Candidate is one harvested surface form that is not yet in the dictionary.
type Candidate struct {
	Category otypes.Category
	Text     string
	Key      string
	// Occurrences counts how often Key was harvested.
	Occurrences int
}

// knownKeys maps every label and synonym key of cat to its concept id.
// The first registration of a key wins.
func knownKeys(dict *ontology.Dictionary, cat otypes.Category, surface normalizer.SurfaceFunc) map[string]string {
	known := make(map[string]string)
	register := func(text, id string) {
		key := surface(text)
		if key == "" {
			return
		}
		if _, ok := known[key]; !ok {
			known[key] = id
		}
	}
	for _, c := range dict.Concepts(cat) {
		register(c.Label, c.ID)
		for _, syn := range c.Synonyms {
			register(syn, c.ID)
		}
	}
	return known
}

// Candidates normalizes and deduplicates h against dict. A string whose key
// is already a label or synonym in its category is dropped; of several
// strings sharing a key, the first harvested spelling is kept.
func Candidates(dict *ontology.Dictionary, h otypes.Harvest, surface normalizer.SurfaceFunc) []Candidate {
	if surface == nil {
		surface = normalizer.Surface
	}
	var out []Candidate
	for _, cat := range otypes.Categories() {
		known := knownKeys(dict, cat, surface)
		pos := make(map[string]int)
		for _, text := range h[cat] {
			key := surface(text)
			if key == "" {
				continue
			}
			if _, exists := known[key]; exists {
				continue
			}
			if i, seen := pos[key]; seen {
				out[i].Occurrences++
				continue
			}
			pos[key] = len(out)
			out = append(out, Candidate{Category: cat, Text: strings.TrimSpace(text), Key: key, Occurrences: 1})
		}
	}
	return out
}

// resolution is the external result for one candidate key.
type resolution map[otypes.Category]map[string]*otypes.ResolvedConcept

func (r resolution) get(cat otypes.Category, key string) *otypes.ResolvedConcept {
	return r[cat][key]
}

func (r resolution) put(cat otypes.Category, key string, rc *otypes.ResolvedConcept) {
	if r[cat] == nil {
		r[cat] = make(map[string]*otypes.ResolvedConcept)
	}
	r[cat][key] = rc
}

// planner stages concepts and synonyms against one dictionary snapshot. It
// never mutates the snapshot.
type planner struct {
	dict    *ontology.Dictionary
	surface normalizer.SurfaceFunc
	known   map[otypes.Category]map[string]string
	ids     map[string]otypes.Category
	staged  map[string]*ontology.Concept
	nextSeq map[otypes.Category]int
	cs      *ontology.ChangeSet
	summary *otypes.AugmentationSummary
}

func newPlanner(dict *ontology.Dictionary, surface normalizer.SurfaceFunc, summary *otypes.AugmentationSummary) *planner {
	p := &planner{
		dict:    dict,
		surface: surface,
		known:   make(map[otypes.Category]map[string]string),
		ids:     make(map[string]otypes.Category),
		staged:  make(map[string]*ontology.Concept),
		nextSeq: make(map[otypes.Category]int),
		cs:      &ontology.ChangeSet{},
		summary: summary,
	}
	for _, cat := range otypes.Categories() {
		p.known[cat] = knownKeys(dict, cat, surface)
		for _, c := range dict.Concepts(cat) {
			p.ids[c.ID] = cat
		}
	}
	return p
}

// stage handles one candidate. An external result whose id or label is
// already known in the category becomes a synonym of that concept; an id
// owned by another category falls back to a locally minted concept.
func (p *planner) stage(c Candidate, rc *otypes.ResolvedConcept) {
	if _, dup := p.known[c.Category][c.Key]; dup {
		return
	}
	if rc != nil && rc.ConceptID != "" {
		if owner, taken := p.ids[rc.ConceptID]; taken {
			if owner == c.Category {
				p.attach(c, rc.ConceptID, rc.Vocabulary)
				return
			}
		} else if id, ok := p.known[c.Category][p.surface(rc.Label)]; ok && rc.Label != "" {
			p.attach(c, id, rc.Vocabulary)
			return
		} else {
			p.addExternal(c, rc)
			return
		}
	}
	p.mint(c)
}

func (p *planner) attach(c Candidate, id, provider string) {
	p.cs.NewSynonyms = append(p.cs.NewSynonyms, ontology.SynonymAddition{
		Category:  c.Category,
		ConceptID: id,
		Synonym:   c.Text,
	})
	p.known[c.Category][c.Key] = id
	label := ""
	if staged, ok := p.staged[id]; ok {
		label = staged.Label
	} else if existing, ok := p.dict.FindByID(id); ok {
		label = existing.Label
	}
	changes := p.summary.Changes(c.Category)
	changes.AddedAsSynonym = append(changes.AddedAsSynonym, otypes.AddedConcept{
		SurfaceForm: c.Text,
		ConceptID:   id,
		Label:       label,
		Provider:    provider,
	})
}

func (p *planner) addExternal(c Candidate, rc *otypes.ResolvedConcept) {
	label := strings.TrimSpace(rc.Label)
	if label == "" {
		label = c.Text
	}
	concept := &ontology.Concept{
		Category: c.Category,
		ID:       rc.ConceptID,
		Label:    label,
		Provider: rc.Vocabulary,
		Synonyms: []string{},
	}
	// The harvested spelling must find the concept on the next run.
	if p.surface(label) != c.Key {
		concept.Synonyms = append(concept.Synonyms, c.Text)
	}
	p.add(concept)
	changes := p.summary.Changes(c.Category)
	changes.AddedViaExternalMatch = append(changes.AddedViaExternalMatch, added(c.Text, concept))
}

func (p *planner) mint(c Candidate) {
	seq, ok := p.nextSeq[c.Category]
	if !ok {
		seq = p.dict.NextCustomSequence(c.Category)
	}
	p.nextSeq[c.Category] = seq + 1
	concept := &ontology.Concept{
		Category: c.Category,
		ID:       c.Category.CustomID(seq),
		Label:    c.Text,
		Provider: ontology.ProviderCustom,
		Synonyms: []string{},
	}
	p.add(concept)
	changes := p.summary.Changes(c.Category)
	changes.AddedAsNewConcept = append(changes.AddedAsNewConcept, added(c.Text, concept))
}

func (p *planner) add(concept *ontology.Concept) {
	p.cs.NewConcepts = append(p.cs.NewConcepts, concept)
	p.ids[concept.ID] = concept.Category
	p.staged[concept.ID] = concept
	known := p.known[concept.Category]
	for _, text := range append([]string{concept.Label}, concept.Synonyms...) {
		if key := p.surface(text); key != "" {
			if _, ok := known[key]; !ok {
				known[key] = concept.ID
			}
		}
	}
}

func added(surface string, c *ontology.Concept) otypes.AddedConcept {
	return otypes.AddedConcept{
		SurfaceForm: surface,
		ConceptID:   c.ID,
		Label:       c.Label,
		Provider:    c.Provider,
	}
}

//Personal.AI order the ending
