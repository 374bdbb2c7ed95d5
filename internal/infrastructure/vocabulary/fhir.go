package vocabulary

import (
	"context"
	"net/url"
	"strings"

	"github.com/turtacn/OntoGround/internal/intelligence/resolver"
	"github.com/turtacn/OntoGround/pkg/errors"
	otypes "github.com/turtacn/OntoGround/pkg/types/ontology"
)

const (
	// DefaultFHIRBaseURL is a public FHIR R4 terminology server.
	DefaultFHIRBaseURL = "https://tx.fhir.org/r4"
	// DefaultSNOMEDValueSet is the implicit value set of all SNOMED CT concepts.
	DefaultSNOMEDValueSet = "http://snomed.info/sct?fhir_vs"
	// SNOMEDIDPrefix prefixes SNOMED CT concept identifiers.
	SNOMEDIDPrefix = "SNOMEDCT:"
)

type valueSetExpansion struct {
	ResourceType string `json:"resourceType"`
	Expansion    struct {
		Total    int `json:"total"`
		Contains []struct {
			System  string `json:"system"`
			Code    string `json:"code"`
			Display string `json:"display"`
		} `json:"contains"`
	} `json:"expansion"`
}

// FHIRTerminology resolves clinical terms with ValueSet/$expand filtering.
type FHIRTerminology struct {
	c        *client
	valueSet string
}

var _ resolver.Vocabulary = (*FHIRTerminology)(nil)

// NewFHIRTerminology returns a client for the server at baseURL expanding
// valueSet (DefaultSNOMEDValueSet when empty).
func NewFHIRTerminology(baseURL, valueSet string, opts ...Option) (*FHIRTerminology, error) {
	c, err := newClient(baseURL, opts)
	if err != nil {
		return nil, err
	}
	if valueSet == "" {
		valueSet = DefaultSNOMEDValueSet
	}
	return &FHIRTerminology{c: c, valueSet: valueSet}, nil
}

func (f *FHIRTerminology) Name() string { return resolver.VocabSNOMED }

// Lookup returns the first expansion entry with a code.
func (f *FHIRTerminology) Lookup(ctx context.Context, text string) (*otypes.ResolvedConcept, error) {
	q := url.Values{}
	q.Set("url", f.valueSet)
	q.Set("filter", text)
	q.Set("count", "1")

	var vs valueSetExpansion
	if err := f.c.getJSON(ctx, "/ValueSet/$expand", q, &vs); err != nil {
		return nil, errors.LookupFailure(err, f.Name())
	}
	for _, entry := range vs.Expansion.Contains {
		code := strings.TrimSpace(entry.Code)
		if code == "" {
			continue
		}
		label := strings.TrimSpace(entry.Display)
		if label == "" {
			label = text
		}
		return &otypes.ResolvedConcept{
			Vocabulary: f.Name(),
			ConceptID:  SNOMEDIDPrefix + code,
			Label:      label,
		}, nil
	}
	return nil, nil
}

//Personal.AI order the ending
