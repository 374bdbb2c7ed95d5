package augmentation

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"

	"github.com/turtacn/OntoGround/internal/domain/ontology"
	"github.com/turtacn/OntoGround/pkg/errors"
	otypes "github.com/turtacn/OntoGround/pkg/types/ontology"
)

// FileAudit appends one JSON summary per line to a local file.
type FileAudit struct {
	path string
	mu   sync.Mutex
}

var _ ontology.AuditSink = (*FileAudit)(nil)

func NewFileAudit(path string) *FileAudit {
	return &FileAudit{path: path}
}

func (a *FileAudit) Path() string { return a.path }

func (a *FileAudit) Record(_ context.Context, s *otypes.AugmentationSummary) error {
	line, err := json.Marshal(s)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeSerialization, "failed to encode augmentation summary")
	}
	line = append(line, '\n')

	a.mu.Lock()
	defer a.mu.Unlock()
	if dir := filepath.Dir(a.path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return errors.Persistence(err, "failed to create audit log directory").WithDetail(dir)
		}
	}
	f, err := os.OpenFile(a.path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return errors.Persistence(err, "failed to open audit log").WithDetail(a.path)
	}
	if _, err := f.Write(line); err != nil {
		_ = f.Close()
		return errors.Persistence(err, "failed to append audit record").WithDetail(a.path)
	}
	if err := f.Close(); err != nil {
		return errors.Persistence(err, "failed to close audit log").WithDetail(a.path)
	}
	return nil
}

// ReadAudit returns every summary recorded in the JSONL file at path.
func ReadAudit(path string) ([]otypes.AugmentationSummary, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Persistence(err, "failed to read audit log").WithDetail(path)
	}
	var out []otypes.AugmentationSummary
	dec := json.NewDecoder(bytes.NewReader(data))
	for dec.More() {
		var s otypes.AugmentationSummary
		if err := dec.Decode(&s); err != nil {
			return out, errors.Wrap(err, errors.ErrCodeSerialization, "malformed audit record").WithDetail(path)
		}
		out = append(out, s)
	}
	return out, nil
}

//Personal.AI order the ending
