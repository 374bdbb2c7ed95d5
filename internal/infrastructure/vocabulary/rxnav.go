package vocabulary

import (
	"context"
	"net/url"
	"strconv"
	"strings"

	"github.com/turtacn/OntoGround/internal/intelligence/resolver"
	"github.com/turtacn/OntoGround/pkg/errors"
	otypes "github.com/turtacn/OntoGround/pkg/types/ontology"
)

// DefaultRxNavBaseURL is the public NLM RxNav REST endpoint.
const DefaultRxNavBaseURL = "https://rxnav.nlm.nih.gov/REST"

// RxNormIDPrefix prefixes RxNorm concept identifiers.
const RxNormIDPrefix = "RXNORM:"

// DefaultRxNavMinScore is the lowest approximateTerm score accepted unless
// WithMinScore overrides it. approximateTerm always answers with its nearest
// candidates, however distant.
const DefaultRxNavMinScore = 8.0

type approximateTermResponse struct {
	ApproximateGroup struct {
		InputTerm string `json:"inputTerm"`
		Candidate []struct {
			RxCUI  string `json:"rxcui"`
			Name   string `json:"name"`
			Score  string `json:"score"`
			Rank   string `json:"rank"`
			Source string `json:"source"`
		} `json:"candidate"`
	} `json:"approximateGroup"`
}

type propertyResponse struct {
	PropConceptGroup struct {
		PropConcept []struct {
			PropName  string `json:"propName"`
			PropValue string `json:"propValue"`
		} `json:"propConcept"`
	} `json:"propConceptGroup"`
}

// RxNav resolves drug names through the RxNav approximate-term search.
type RxNav struct {
	c *client
}

var _ resolver.Vocabulary = (*RxNav)(nil)

// NewRxNav returns an RxNav client rooted at baseURL.
func NewRxNav(baseURL string, opts ...Option) (*RxNav, error) {
	opts = append([]Option{WithMinScore(DefaultRxNavMinScore)}, opts...)
	c, err := newClient(baseURL, opts)
	if err != nil {
		return nil, err
	}
	return &RxNav{c: c}, nil
}

func (r *RxNav) Name() string { return resolver.VocabRxNorm }

// Lookup returns the best approximate-term candidate carrying an RxCUI and a
// score of at least the configured minimum. Candidates without a parseable
// score are skipped. When the candidate has no name the RxNorm Name property
// is fetched.
func (r *RxNav) Lookup(ctx context.Context, text string) (*otypes.ResolvedConcept, error) {
	q := url.Values{}
	q.Set("term", text)
	q.Set("maxEntries", "1")

	var resp approximateTermResponse
	if err := r.c.getJSON(ctx, "/approximateTerm.json", q, &resp); err != nil {
		return nil, errors.LookupFailure(err, r.Name())
	}

	for _, cand := range resp.ApproximateGroup.Candidate {
		rxcui := strings.TrimSpace(cand.RxCUI)
		if rxcui == "" {
			continue
		}
		score, err := strconv.ParseFloat(strings.TrimSpace(cand.Score), 64)
		if err != nil || score < r.c.minScore {
			continue
		}
		label := strings.TrimSpace(cand.Name)
		if label == "" {
			var err error
			if label, err = r.rxNormName(ctx, rxcui); err != nil {
				return nil, errors.LookupFailure(err, r.Name())
			}
		}
		if label == "" {
			label = text
		}
		return &otypes.ResolvedConcept{
			Vocabulary: r.Name(),
			ConceptID:  RxNormIDPrefix + rxcui,
			Label:      label,
		}, nil
	}
	return nil, nil
}

func (r *RxNav) rxNormName(ctx context.Context, rxcui string) (string, error) {
	q := url.Values{}
	q.Set("propName", "RxNorm Name")
	var resp propertyResponse
	if err := r.c.getJSON(ctx, "/rxcui/"+url.PathEscape(rxcui)+"/property.json", q, &resp); err != nil {
		return "", err
	}
	for _, p := range resp.PropConceptGroup.PropConcept {
		if v := strings.TrimSpace(p.PropValue); v != "" {
			return v, nil
		}
	}
	return "", nil
}

//Personal.AI order the ending
