// Package augmentation closes the normalization loop: it turns harvested
// unmatched surface forms into dictionary changes, resolving them against
// external vocabularies first and minting local identifiers otherwise.
package augmentation

import (
	"context"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/turtacn/OntoGround/internal/domain/ontology"
	"github.com/turtacn/OntoGround/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/OntoGround/internal/intelligence/normalizer"
	"github.com/turtacn/OntoGround/internal/intelligence/resolver"
	"github.com/turtacn/OntoGround/pkg/errors"
	otypes "github.com/turtacn/OntoGround/pkg/types/ontology"
)

// ConceptResolver looks candidates up externally. *resolver.Resolver
// satisfies it.
type ConceptResolver interface {
	Load(ctx context.Context)
	ResolveAll(ctx context.Context, reqs []resolver.Request) []*otypes.ResolvedConcept
	Flush(ctx context.Context) error
}

// Recorder receives one observation per run.
type Recorder interface {
	ObserveAugmentation(dryRun bool, summary *otypes.AugmentationSummary, err error)
}

type nopRecorder struct{}

func (nopRecorder) ObserveAugmentation(bool, *otypes.AugmentationSummary, error) {}

// Options wires a Service. Repository is required; everything else is
// optional.
type Options struct {
	Repository ontology.DictionaryRepository
	// Resolver is nil when external lookups are disabled; every candidate is
	// then minted locally.
	Resolver ConceptResolver
	Audit    []ontology.AuditSink
	Surface  normalizer.SurfaceFunc
	Logger   logging.Logger
	Recorder Recorder
	Now      func() time.Time
	NewRunID func() string
}

// Service runs augmentation against one dictionary repository.
type Service struct {
	repo     ontology.DictionaryRepository
	resolver ConceptResolver
	audit    []ontology.AuditSink
	surface  normalizer.SurfaceFunc
	logger   logging.Logger
	recorder Recorder
	now      func() time.Time
	newRunID func() string
}

func NewService(opts Options) (*Service, error) {
	if opts.Repository == nil {
		return nil, errors.Configuration("augmentation requires a dictionary repository")
	}
	s := &Service{
		repo:     opts.Repository,
		resolver: opts.Resolver,
		surface:  opts.Surface,
		logger:   logging.OrNop(opts.Logger).Named("augment"),
		recorder: opts.Recorder,
		now:      opts.Now,
		newRunID: opts.NewRunID,
	}
	for _, sink := range opts.Audit {
		if sink != nil {
			s.audit = append(s.audit, sink)
		}
	}
	if s.surface == nil {
		s.surface = normalizer.Surface
	}
	if s.recorder == nil {
		s.recorder = nopRecorder{}
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.newRunID == nil {
		s.newRunID = uuid.NewString
	}
	return s, nil
}

// Augment stages dictionary changes for h and, unless dryRun, persists them.
// External lookups happen before the dictionary lock is taken; the plan is
// then recomputed against the snapshot read under the lock, so concurrent
// runs never stage the same surface form twice. A dry run touches neither
// the dictionary, the backup directory nor the audit sinks.
func (s *Service) Augment(ctx context.Context, h otypes.Harvest, dryRun bool) (summary *otypes.AugmentationSummary, err error) {
	summary = &otypes.AugmentationSummary{
		RunID:       s.newRunID(),
		Timestamp:   s.now().UTC(),
		DryRun:      dryRun,
		PerCategory: make(map[otypes.Category]*otypes.CategoryChanges),
	}
	log := s.logger.With(logging.String("run_id", summary.RunID), logging.Bool("dry_run", dryRun))
	defer func() { s.recorder.ObserveAugmentation(dryRun, summary, err) }()

	snapshot, err := s.repo.Load(ctx)
	if err != nil {
		return nil, err
	}
	candidates := Candidates(snapshot, h, s.surface)
	log.Info("augmentation candidates collected",
		logging.Int("harvested", h.Total()),
		logging.Int("candidates", len(candidates)))

	resolved := s.resolve(ctx, candidates)

	if dryRun {
		p := newPlanner(snapshot, s.surface, summary)
		for _, c := range candidates {
			p.stage(c, resolved.get(c.Category, c.Key))
		}
		log.Info("augmentation previewed", logging.Int("staged", summary.TotalAdded()))
		return summary, nil
	}

	manifest, err := s.repo.Update(ctx, summary.RunID, func(current *ontology.Dictionary) (*ontology.ChangeSet, error) {
		// Reset in case the repository retries the callback.
		summary.PerCategory = make(map[otypes.Category]*otypes.CategoryChanges)
		p := newPlanner(current, s.surface, summary)
		for _, c := range Candidates(current, h, s.surface) {
			p.stage(c, resolved.get(c.Category, c.Key))
		}
		return p.cs, nil
	})
	if err != nil {
		log.Error("augmentation failed", logging.Err(err))
		return nil, err
	}
	if manifest != nil {
		summary.BackupPath = manifest.BackupPath
		summary.ManifestPath = manifest.ManifestPath
	}
	log.Info("augmentation persisted",
		logging.Int("added", summary.TotalAdded()),
		logging.String("backup", summary.BackupPath))

	s.record(ctx, summary, log)
	return summary, nil
}

// AugmentFromFile harvests the normalized-fact file at path and augments.
func (s *Service) AugmentFromFile(ctx context.Context, path string, dryRun bool) (*otypes.AugmentationSummary, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.InputShape("", "cannot read normalized-fact file").WithDetail(path).WithCause(err)
	}
	facts, err := normalizer.ParseNormalizedBatch(data)
	if err != nil {
		return nil, err
	}
	return s.Augment(ctx, normalizer.Harvest(facts), dryRun)
}

func (s *Service) resolve(ctx context.Context, candidates []Candidate) resolution {
	out := make(resolution)
	if s.resolver == nil || len(candidates) == 0 {
		return out
	}
	s.resolver.Load(ctx)
	reqs := make([]resolver.Request, len(candidates))
	for i, c := range candidates {
		reqs[i] = resolver.Request{Category: c.Category, Text: c.Text}
	}
	for i, rc := range s.resolver.ResolveAll(ctx, reqs) {
		if rc != nil {
			out.put(candidates[i].Category, candidates[i].Key, rc)
		}
	}
	if err := s.resolver.Flush(ctx); err != nil {
		s.logger.Warn("lookup cache flush failed", logging.Err(err))
	}
	return out
}

func (s *Service) record(ctx context.Context, summary *otypes.AugmentationSummary, log logging.Logger) {
	for _, sink := range s.audit {
		if err := sink.Record(ctx, summary); err != nil {
			log.Warn("audit record failed", logging.Err(err))
		}
	}
}

//Personal.AI order the ending
