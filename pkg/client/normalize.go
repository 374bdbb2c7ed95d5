package client

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/turtacn/OntoGround/pkg/errors"
	otypes "github.com/turtacn/OntoGround/pkg/types/ontology"
)

// NormalizeResponse is the result of one batch normalization.
type NormalizeResponse struct {
	Report          otypes.BatchReport      `json:"report"`
	NormalizedFacts []otypes.NormalizedFact `json:"normalized_facts"`
}

type lookupRequest struct {
	Category otypes.Category `json:"category"`
	Text     string          `json:"text"`
}

// Normalize grounds facts against the server's dictionary.
func (c *Client) Normalize(ctx context.Context, facts []otypes.Fact) (*NormalizeResponse, error) {
	if facts == nil {
		facts = []otypes.Fact{}
	}
	var resp NormalizeResponse
	if err := c.post(ctx, "/api/v1/normalize", facts, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// NormalizeRaw sends batch as is. batch may use any wrapper the server
// accepts: a bare list or an object keyed by triples, validated_facts or
// extracted_facts.
func (c *Client) NormalizeRaw(ctx context.Context, batch json.RawMessage) (*NormalizeResponse, error) {
	var resp NormalizeResponse
	if err := c.do(ctx, http.MethodPost, "/api/v1/normalize", batch, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Lookup grounds a single surface form.
func (c *Client) Lookup(ctx context.Context, category otypes.Category, text string) (otypes.NormalizationMatch, error) {
	if !category.Valid() {
		return otypes.NormalizationMatch{}, errors.InvalidParam("unknown category").WithDetail(string(category))
	}
	var m otypes.NormalizationMatch
	err := c.post(ctx, "/api/v1/lookup", lookupRequest{Category: category, Text: text}, &m)
	return m, err
}

// Ready reports whether the server has a dictionary loaded and its
// backends are healthy.
func (c *Client) Ready(ctx context.Context) (bool, error) {
	err := c.do(ctx, http.MethodGet, "/readyz", nil, nil)
	if err == nil {
		return true, nil
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.IsNotReady() {
		return false, nil
	}
	return false, err
}

//Personal.AI order the ending
