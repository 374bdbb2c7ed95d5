// Package normalization runs fact batches through the active normalizer and
// keeps that normalizer in step with the dictionary on disk.
package normalization

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/renameio/v2"

	"github.com/turtacn/OntoGround/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/OntoGround/internal/intelligence/normalizer"
	"github.com/turtacn/OntoGround/pkg/errors"
	otypes "github.com/turtacn/OntoGround/pkg/types/ontology"
)

const outputSuffix = "_normalized.json"

// DefaultOutputPath is "<dir>/<input stem>_normalized.json".
func DefaultOutputPath(input string) string {
	ext := filepath.Ext(input)
	return strings.TrimSuffix(input, ext) + outputSuffix
}

// Result is the outcome of one NormalizeFile call.
type Result struct {
	Report     otypes.BatchReport
	Facts      []otypes.NormalizedFact
	OutputPath string
}

// Service normalizes fact batches with whatever normalizer the Holder
// currently serves.
type Service struct {
	holder *Holder
	logger logging.Logger
}

func NewService(holder *Holder, log logging.Logger) *Service {
	return &Service{holder: holder, logger: logging.OrNop(log).Named("normalization")}
}

// Holder exposes the underlying holder, e.g. for readiness checks.
func (s *Service) Holder() *Holder { return s.holder }

func (s *Service) current() (*normalizer.Normalizer, error) {
	n := s.holder.Current()
	if n == nil {
		return nil, errors.New(errors.ErrCodeServiceUnavailable, "dictionary has not been loaded")
	}
	return n, nil
}

// Normalize runs facts through the active normalizer.
func (s *Service) Normalize(facts []otypes.Fact) (*normalizer.BatchResult, error) {
	n, err := s.current()
	if err != nil {
		return nil, err
	}
	return n.NormalizeBatch(facts), nil
}

// NormalizeBytes parses a fact batch in any accepted wrapper shape and
// normalizes it. An unrecognized shape aborts with an InputShapeError.
func (s *Service) NormalizeBytes(data []byte) (*normalizer.BatchResult, error) {
	facts, err := normalizer.ParseFactBatch(data)
	if err != nil {
		return nil, err
	}
	return s.Normalize(facts)
}

// Lookup grounds a single surface form.
func (s *Service) Lookup(cat otypes.Category, text string) (otypes.NormalizationMatch, error) {
	n, err := s.current()
	if err != nil {
		return otypes.NormalizationMatch{}, err
	}
	return n.Lookup(cat, text), nil
}

// NormalizeFile normalizes the fact batch at input and writes
// {"normalized_facts": [...]} to output, or to DefaultOutputPath(input)
// when output is empty. The output file is replaced atomically.
func (s *Service) NormalizeFile(_ context.Context, input, output string) (*Result, error) {
	data, err := os.ReadFile(input)
	if err != nil {
		return nil, errors.InputShape("", "cannot read fact batch").WithDetail(input).WithCause(err)
	}
	res, err := s.NormalizeBytes(data)
	if err != nil {
		return nil, err
	}
	if output == "" {
		output = DefaultOutputPath(input)
	}
	if err := WriteNormalizedFile(output, res.Facts); err != nil {
		return nil, err
	}

	report := res.Report()
	s.logger.Info("batch normalized",
		logging.String("input", input),
		logging.String("output", output),
		logging.Int("succeeded", report.Succeeded),
		logging.Int("skipped", len(report.Skipped)))
	return &Result{Report: report, Facts: res.Facts, OutputPath: output}, nil
}

// WriteNormalizedFile writes facts as an indented normalized batch.
func WriteNormalizedFile(path string, facts []otypes.NormalizedFact) error {
	if facts == nil {
		facts = []otypes.NormalizedFact{}
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(otypes.NormalizedBatch{NormalizedFacts: facts}); err != nil {
		return errors.Wrap(err, errors.ErrCodeSerialization, "failed to encode normalized facts")
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return errors.Persistence(err, "failed to create output directory").WithDetail(dir)
		}
	}
	if err := renameio.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return errors.Persistence(err, "failed to write normalized facts").WithDetail(path)
	}
	return nil
}

// ReadNormalizedFile reads a normalized batch written by this or an earlier
// pipeline revision.
func ReadNormalizedFile(path string) ([]otypes.NormalizedFact, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.InputShape("", "cannot read normalized-fact file").WithDetail(path).WithCause(err)
	}
	return normalizer.ParseNormalizedBatch(data)
}

//Personal.AI order the ending
