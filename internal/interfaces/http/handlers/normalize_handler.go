package handlers

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/turtacn/OntoGround/internal/application/normalization"
	"github.com/turtacn/OntoGround/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/OntoGround/pkg/errors"
	otypes "github.com/turtacn/OntoGround/pkg/types/ontology"
)

// NormalizeHandler serves the normalization API.
type NormalizeHandler struct {
	svc    *normalization.Service
	logger logging.Logger
}

// NewNormalizeHandler creates a NormalizeHandler.
func NewNormalizeHandler(svc *normalization.Service, logger logging.Logger) *NormalizeHandler {
	return &NormalizeHandler{svc: svc, logger: logging.OrNop(logger)}
}

// NormalizeResponse is the body of POST /api/v1/normalize.
type NormalizeResponse struct {
	Report          otypes.BatchReport      `json:"report"`
	NormalizedFacts []otypes.NormalizedFact `json:"normalized_facts"`
}

// LookupRequest is the body of POST /api/v1/lookup.
// Text is required but may be blank; a blank surface form is unmatched.
type LookupRequest struct {
	Category string  `json:"category"`
	Text     *string `json:"text"`
}

// Normalize handles POST /api/v1/normalize. The body is a fact batch in any
// accepted wrapper shape.
func (h *NormalizeHandler) Normalize(w http.ResponseWriter, r *http.Request) {
	data, err := io.ReadAll(r.Body)
	if err != nil {
		writeAppError(w, err)
		return
	}

	res, err := h.svc.NormalizeBytes(data)
	if err != nil {
		if !errors.IsInputShape(err) {
			h.logger.Error("normalize request failed", logging.Err(err))
		}
		writeAppError(w, err)
		return
	}

	facts := res.Facts
	if facts == nil {
		facts = []otypes.NormalizedFact{}
	}
	writeJSON(w, http.StatusOK, NormalizeResponse{Report: res.Report(), NormalizedFacts: facts})
}

// Lookup handles POST /api/v1/lookup.
func (h *NormalizeHandler) Lookup(w http.ResponseWriter, r *http.Request) {
	var req LookupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAppError(w, errors.InputShape("", "request body is not a lookup object").WithCause(err))
		return
	}
	cat, ok := otypes.ParseCategory(req.Category)
	if !ok {
		writeAppError(w, errors.InputShape("category", "unknown category").WithDetail(req.Category))
		return
	}
	if req.Text == nil {
		writeAppError(w, errors.InputShape("text", "text is required"))
		return
	}

	m, err := h.svc.Lookup(cat, *req.Text)
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, m)
}

//Personal.AI order the ending
