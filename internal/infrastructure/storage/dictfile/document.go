package dictfile

import (
	"bytes"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/turtacn/OntoGround/internal/domain/ontology"
	"github.com/turtacn/OntoGround/pkg/errors"
	otypes "github.com/turtacn/OntoGround/pkg/types/ontology"
)

// Entry keys and their accepted aliases.
const (
	keyEntities  = "entities"
	keyProviders = "providers"
	keySynonyms  = "synonyms"
)

var (
	idKeys       = []string{"id", "concept_id"}
	labelKeys    = []string{"label", "name"}
	providerKeys = []string{"provider", "source"}
)

// document is a parsed dictionary: the decoded snapshot plus the YAML node
// tree it came from, so that writes keep comments, ordering and unknown keys.
type document struct {
	raw      []byte
	root     *yaml.Node
	entities *yaml.Node
	dict     *ontology.Dictionary
	// conceptNodes maps category and id to the mapping node of the entry.
	conceptNodes map[otypes.Category]map[string]*yaml.Node
}

// parse decodes data. Every defect is a ConfigurationError.
func parse(data []byte) (*document, error) {
	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, errors.Configuration("dictionary is not valid YAML").WithCause(err)
	}
	if root.Kind != yaml.DocumentNode || len(root.Content) == 0 {
		return nil, errors.Configuration("dictionary is empty")
	}
	top := root.Content[0]
	if top.Kind != yaml.MappingNode {
		return nil, errors.Configuration("dictionary root must be a mapping")
	}

	doc := &document{
		root:         &root,
		dict:         ontology.NewDictionary(),
		conceptNodes: make(map[otypes.Category]map[string]*yaml.Node),
	}

	if prov := mappingValue(top, keyProviders); prov != nil && !isNull(prov) {
		var providers map[string]interface{}
		if err := prov.Decode(&providers); err != nil {
			return nil, errors.Configuration("dictionary providers section is malformed").WithCause(err)
		}
		doc.dict.Providers = providers
	}

	entities := mappingValue(top, keyEntities)
	if entities == nil {
		return nil, errors.Configuration("dictionary has no entities section")
	}
	if entities.Kind != yaml.MappingNode {
		return nil, errors.Configuration("dictionary entities section must be a mapping").
			WithDetailf("line %d", entities.Line)
	}
	doc.entities = entities

	for i := 0; i+1 < len(entities.Content); i += 2 {
		keyNode, listNode := entities.Content[i], entities.Content[i+1]
		cat, ok := otypes.ParseCategory(keyNode.Value)
		if !ok {
			return nil, errors.Configuration("unknown entity category").
				WithDetailf("category=%q line %d", keyNode.Value, keyNode.Line)
		}
		concepts, err := doc.parseCategory(cat, listNode)
		if err != nil {
			return nil, err
		}
		doc.dict.Entities[cat] = append(doc.dict.Entities[cat], concepts...)
	}

	if err := doc.dict.Validate(); err != nil {
		return nil, err
	}
	return doc, nil
}

func (d *document) parseCategory(cat otypes.Category, list *yaml.Node) ([]*ontology.Concept, error) {
	if isNull(list) {
		return nil, nil
	}
	if list.Kind != yaml.SequenceNode {
		return nil, errors.Configuration("entity category must be a list").
			WithDetailf("category=%s line %d", cat, list.Line)
	}
	if d.conceptNodes[cat] == nil {
		d.conceptNodes[cat] = make(map[string]*yaml.Node)
	}
	out := make([]*ontology.Concept, 0, len(list.Content))
	for _, item := range list.Content {
		c, err := parseConcept(cat, item)
		if err != nil {
			return nil, err
		}
		d.conceptNodes[cat][c.ID] = item
		out = append(out, c)
	}
	return out, nil
}

func parseConcept(cat otypes.Category, n *yaml.Node) (*ontology.Concept, error) {
	if n.Kind != yaml.MappingNode {
		return nil, errors.Configuration("concept entry must be a mapping").
			WithDetailf("category=%s line %d", cat, n.Line)
	}
	c := &ontology.Concept{Category: cat}
	for i := 0; i+1 < len(n.Content); i += 2 {
		k, v := n.Content[i].Value, n.Content[i+1]
		switch {
		case contains(idKeys, k):
			c.ID = strings.TrimSpace(scalar(v))
		case contains(labelKeys, k):
			c.Label = scalar(v)
		case contains(providerKeys, k):
			c.Provider = strings.TrimSpace(scalar(v))
		case k == keySynonyms:
			syns, err := synonymList(v)
			if err != nil {
				return nil, errors.Configuration("concept synonyms must be a list of strings").
					WithDetailf("category=%s line %d", cat, v.Line).WithCause(err)
			}
			c.Synonyms = syns
		default:
			var val interface{}
			if err := v.Decode(&val); err != nil {
				return nil, errors.Configuration("concept metadata is malformed").
					WithDetailf("category=%s key=%q line %d", cat, k, v.Line).WithCause(err)
			}
			if c.Metadata == nil {
				c.Metadata = make(map[string]interface{})
			}
			c.Metadata[k] = val
		}
	}
	if c.Provider == "" {
		c.Provider = ontology.ProviderCustom
	}
	if err := c.Validate(); err != nil {
		return nil, errors.Configuration("invalid concept entry").
			WithDetailf("line %d", n.Line).WithCause(err)
	}
	return c, nil
}

func synonymList(v *yaml.Node) ([]string, error) {
	switch {
	case isNull(v):
		return nil, nil
	case v.Kind == yaml.ScalarNode:
		return []string{v.Value}, nil
	}
	var syns []string
	if err := v.Decode(&syns); err != nil {
		return nil, err
	}
	return syns, nil
}

// apply mirrors cs into both the node tree and the decoded snapshot.
func (d *document) apply(cs *ontology.ChangeSet) error {
	if cs.Empty() {
		return nil
	}
	if err := d.dict.Apply(cs); err != nil {
		return err
	}
	for _, c := range cs.NewConcepts {
		list := d.categoryList(c.Category)
		node := conceptNode(c)
		list.Content = append(list.Content, node)
		if d.conceptNodes[c.Category] == nil {
			d.conceptNodes[c.Category] = make(map[string]*yaml.Node)
		}
		d.conceptNodes[c.Category][c.ID] = node
	}
	for _, add := range cs.NewSynonyms {
		node := d.conceptNodes[add.Category][add.ConceptID]
		if node == nil {
			return errors.Internal("synonym targets a concept missing from the node tree").
				WithDetailf("category=%s id=%q", add.Category, add.ConceptID)
		}
		appendSynonym(node, add.Synonym)
	}
	return nil
}

// categoryList returns the sequence node of cat, creating it when absent.
// Existing keys are matched the way parse reads them, so "Drugs:" is reused.
func (d *document) categoryList(cat otypes.Category) *yaml.Node {
	if v := d.categoryValue(cat); v != nil {
		if isNull(v) {
			*v = yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq"}
		}
		return v
	}
	key := strNode(string(cat))
	list := &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq"}
	d.entities.Content = append(d.entities.Content, key, list)
	return list
}

func (d *document) categoryValue(cat otypes.Category) *yaml.Node {
	for i := 0; i+1 < len(d.entities.Content); i += 2 {
		if c, ok := otypes.ParseCategory(d.entities.Content[i].Value); ok && c == cat {
			return d.entities.Content[i+1]
		}
	}
	return nil
}

func appendSynonym(concept *yaml.Node, synonym string) {
	syns := mappingValue(concept, keySynonyms)
	switch {
	case syns == nil:
		syns = &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq"}
		concept.Content = append(concept.Content, strNode(keySynonyms), syns)
	case isNull(syns):
		*syns = yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq"}
	case syns.Kind == yaml.ScalarNode:
		existing := strNode(syns.Value)
		*syns = yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq", Content: []*yaml.Node{existing}}
	}
	for _, s := range syns.Content {
		if s.Value == synonym {
			return
		}
	}
	syns.Content = append(syns.Content, strNode(synonym))
}

func conceptNode(c *ontology.Concept) *yaml.Node {
	n := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
	n.Content = append(n.Content,
		strNode("id"), strNode(c.ID),
		strNode("label"), strNode(c.Label),
		strNode("provider"), strNode(c.Provider),
	)
	syns := &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq"}
	if len(c.Synonyms) == 0 {
		syns.Style = yaml.FlowStyle
	}
	for _, s := range c.Synonyms {
		syns.Content = append(syns.Content, strNode(s))
	}
	n.Content = append(n.Content, strNode(keySynonyms), syns)

	keys := make([]string, 0, len(c.Metadata))
	for k := range c.Metadata {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		v := &yaml.Node{}
		if err := v.Encode(c.Metadata[k]); err != nil {
			continue
		}
		n.Content = append(n.Content, strNode(k), v)
	}
	return n
}

// encode renders the node tree with two-space indentation.
func (d *document) encode() ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(d.root); err != nil {
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// ─────────────────────────────────────────────────────────────────────────────
// node helpers
// ─────────────────────────────────────────────────────────────────────────────

func mappingValue(m *yaml.Node, key string) *yaml.Node {
	if m == nil || m.Kind != yaml.MappingNode {
		return nil
	}
	for i := 0; i+1 < len(m.Content); i += 2 {
		if m.Content[i].Value == key {
			return m.Content[i+1]
		}
	}
	return nil
}

func isNull(n *yaml.Node) bool {
	return n == nil || (n.Kind == yaml.ScalarNode && n.ShortTag() == "!!null")
}

func scalar(n *yaml.Node) string {
	if n == nil || n.Kind != yaml.ScalarNode || isNull(n) {
		return ""
	}
	return n.Value
}

func strNode(s string) *yaml.Node {
	n := &yaml.Node{}
	n.SetString(s)
	return n
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

//Personal.AI order the ending
