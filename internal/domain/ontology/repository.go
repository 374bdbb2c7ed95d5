package ontology

import (
	"context"
	"time"

	otypes "github.com/turtacn/OntoGround/pkg/types/ontology"
)

// BackupManifest describes one pre-mutation backup of the dictionary so
// recovery tooling can verify it without trusting the file name.
type BackupManifest struct {
	RunID        string    `json:"run_id"`
	SourcePath   string    `json:"source_path"`
	BackupPath   string    `json:"backup_path"`
	ManifestPath string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
	SHA256       string    `json:"sha256"`
	SizeBytes    int64     `json:"size_bytes"`
}

// UpdateFunc receives a fresh snapshot read under the dictionary lock and
// returns the changes to persist. A nil or empty ChangeSet leaves the
// dictionary untouched (the backup is still written).
type UpdateFunc func(current *Dictionary) (*ChangeSet, error)

// DictionaryRepository is the persistence contract for the concept dictionary.
type DictionaryRepository interface {
	// Path identifies the backing resource.
	Path() string

	// Load parses the dictionary. Parse failures are ConfigurationErrors.
	Load(ctx context.Context) (*Dictionary, error)

	// Update runs fn inside the dictionary critical section: the current state
	// is backed up before fn's changes are written, and the live resource is
	// replaced atomically.
	Update(ctx context.Context, runID string, fn UpdateFunc) (*BackupManifest, error)
}

// Locker guards the dictionary across hosts.
type Locker interface {
	Acquire(ctx context.Context, key string, ttl time.Duration) (release func(context.Context) error, err error)
}

// BackupMirror copies a completed backup somewhere off-host.
type BackupMirror interface {
	Mirror(ctx context.Context, m *BackupManifest) error
}

// AuditSink records completed augmentation runs.
type AuditSink interface {
	Record(ctx context.Context, s *otypes.AugmentationSummary) error
}

// ─────────────────────────────────────────────────────────────────────────────
// Lookup cache
// ─────────────────────────────────────────────────────────────────────────────

// CacheEntry is one cached external lookup. Found=false is a negative result.
type CacheEntry struct {
	Found    bool                    `json:"found"`
	Concept  *otypes.ResolvedConcept `json:"concept,omitempty"`
	CachedAt time.Time               `json:"cached_at"`
}

// LookupCache stores external lookup results keyed by "{vocabulary}:{text}".
type LookupCache interface {
	Get(ctx context.Context, key string) (CacheEntry, bool, error)
	Set(ctx context.Context, key string, e CacheEntry) error
	// Load and Flush bracket a run for backends with an explicit lifecycle.
	Load(ctx context.Context) error
	Flush(ctx context.Context) error
}

//Personal.AI order the ending
