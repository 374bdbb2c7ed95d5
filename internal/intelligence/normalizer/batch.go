package normalizer

import (
	"bytes"
	"encoding/json"

	"github.com/turtacn/OntoGround/pkg/errors"
	otypes "github.com/turtacn/OntoGround/pkg/types/ontology"
)

// FactBatchKeys are the object keys a fact batch may be wrapped under, in
// the order they are tried.
var FactBatchKeys = []string{"triples", "validated_facts", "extracted_facts"}

// NormalizedBatchKey wraps a normalized-fact batch.
const NormalizedBatchKey = "normalized_facts"

// ParseFactBatch decodes a fact batch given as a bare JSON array or as an
// object holding the array under one of FactBatchKeys. Numbers are kept as
// json.Number so effect sizes pass through unchanged. Array items that are
// not objects decode to nil facts and fail individually at normalization.
func ParseFactBatch(data []byte) ([]otypes.Fact, error) {
	items, err := unwrapList(data, FactBatchKeys)
	if err != nil {
		return nil, err
	}
	facts := make([]otypes.Fact, len(items))
	for i, raw := range items {
		var obj map[string]interface{}
		if err := decodeNumber(raw, &obj); err != nil {
			continue
		}
		if obj != nil {
			facts[i] = otypes.Fact(obj)
		}
	}
	return facts, nil
}

// ParseNormalizedBatch decodes normalized facts given as a bare array or as
// {"normalized_facts": [...]}.
func ParseNormalizedBatch(data []byte) ([]otypes.NormalizedFact, error) {
	items, err := unwrapList(data, []string{NormalizedBatchKey})
	if err != nil {
		return nil, err
	}
	out := make([]otypes.NormalizedFact, 0, len(items))
	for i, raw := range items {
		var nf otypes.NormalizedFact
		if err := decodeNumber(raw, &nf); err != nil {
			return nil, errors.InputShape("", "normalized fact is malformed").
				WithDetailf("index %d", i).WithCause(err)
		}
		out = append(out, nf)
	}
	return out, nil
}

func unwrapList(data []byte, keys []string) ([]json.RawMessage, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, errors.InputShape("", "batch is empty")
	}
	switch trimmed[0] {
	case '[':
		var items []json.RawMessage
		if err := json.Unmarshal(trimmed, &items); err != nil {
			return nil, errors.InputShape("", "batch is not valid JSON").WithCause(err)
		}
		return items, nil
	case '{':
		var obj map[string]json.RawMessage
		if err := json.Unmarshal(trimmed, &obj); err != nil {
			return nil, errors.InputShape("", "batch is not valid JSON").WithCause(err)
		}
		for _, k := range keys {
			raw, ok := obj[k]
			if !ok {
				continue
			}
			var items []json.RawMessage
			if err := json.Unmarshal(raw, &items); err != nil {
				return nil, errors.InputShape(k, "batch wrapper does not hold a list").WithCause(err)
			}
			return items, nil
		}
	}
	return nil, errors.InputShape("", "unrecognized batch shape").
		WithDetailf("expected a list or an object keyed by one of %v", keys)
}

func decodeNumber(raw json.RawMessage, v interface{}) error {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	return dec.Decode(v)
}

//Personal.AI order the ending
