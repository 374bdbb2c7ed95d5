// Package dictfile stores the concept dictionary as a YAML file. Reads are
// lock-free; updates run under an advisory file lock (and optionally a
// distributed lock), back the current file up with a checksum manifest and
// replace the live file atomically.
package dictfile

import (
	"context"
	"os"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/renameio/v2"

	"github.com/turtacn/OntoGround/internal/domain/ontology"
	"github.com/turtacn/OntoGround/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/OntoGround/pkg/errors"
)

const (
	// DefaultLockTimeout bounds how long Update waits for the file lock.
	DefaultLockTimeout = 30 * time.Second
	// DefaultLockTTL is the lease requested from a distributed Locker.
	DefaultLockTTL = 2 * time.Minute

	lockRetryDelay = 100 * time.Millisecond
	lockSuffix     = ".lock"
)

// Options configures a Store. The zero value is usable.
type Options struct {
	// BackupDir receives backups and manifests. Empty means next to the file.
	BackupDir   string
	LockTimeout time.Duration
	// Locker, when set, is held for the whole critical section in addition
	// to the local file lock.
	Locker  ontology.Locker
	LockTTL time.Duration
	// Mirror, when set, receives every completed backup. Failures are logged.
	Mirror ontology.BackupMirror
	Logger logging.Logger
	Now    func() time.Time
}

// Store is a file-backed ontology.DictionaryRepository.
type Store struct {
	path string
	opts Options
	log  logging.Logger
}

var _ ontology.DictionaryRepository = (*Store)(nil)

// New returns a Store for the dictionary at path.
func New(path string, opts Options) *Store {
	if opts.LockTimeout <= 0 {
		opts.LockTimeout = DefaultLockTimeout
	}
	if opts.LockTTL <= 0 {
		opts.LockTTL = DefaultLockTTL
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Store{path: path, opts: opts, log: logging.OrNop(opts.Logger)}
}

func (s *Store) Path() string { return s.path }

// Load reads and parses the dictionary.
func (s *Store) Load(_ context.Context) (*ontology.Dictionary, error) {
	doc, _, err := s.read()
	if err != nil {
		return nil, err
	}
	return doc.dict, nil
}

func (s *Store) read() (*document, os.FileMode, error) {
	info, err := os.Stat(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, 0, errors.Configuration("dictionary file does not exist").WithDetail(s.path)
		}
		return nil, 0, errors.Persistence(err, "failed to stat dictionary").WithDetail(s.path)
	}
	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, 0, errors.Persistence(err, "failed to read dictionary").WithDetail(s.path)
	}
	doc, err := parse(data)
	if err != nil {
		return nil, 0, errors.Wrap(err, errors.ErrCodeConfiguration, "dictionary is malformed").WithDetail(s.path)
	}
	doc.raw = data
	return doc, info.Mode().Perm(), nil
}

// Update runs fn inside the critical section. The pre-mutation file is always
// backed up before fn's changes are written; nothing is written when fn fails.
func (s *Store) Update(ctx context.Context, runID string, fn ontology.UpdateFunc) (*ontology.BackupManifest, error) {
	unlock, err := s.lockFile(ctx)
	if err != nil {
		return nil, err
	}
	defer unlock()

	if s.opts.Locker != nil {
		release, err := s.opts.Locker.Acquire(ctx, s.path, s.opts.LockTTL)
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeLock, "failed to acquire distributed dictionary lock").WithDetail(s.path)
		}
		defer func() {
			if rerr := release(context.Background()); rerr != nil {
				s.log.Warn("distributed lock release failed", logging.String("path", s.path), logging.Err(rerr))
			}
		}()
	}

	doc, perm, err := s.read()
	if err != nil {
		return nil, err
	}

	cs, err := fn(doc.dict)
	if err != nil {
		return nil, err
	}

	manifest, err := s.backup(runID, doc.raw, perm)
	if err != nil {
		return nil, err
	}
	s.log.Info("dictionary backed up",
		logging.String("run_id", runID),
		logging.String("backup", manifest.BackupPath),
		logging.String("sha256", manifest.SHA256))

	if s.opts.Mirror != nil {
		if merr := s.opts.Mirror.Mirror(ctx, manifest); merr != nil {
			s.log.Warn("backup mirror failed", logging.String("backup", manifest.BackupPath), logging.Err(merr))
		}
	}

	if cs.Empty() {
		return manifest, nil
	}
	if err := s.write(doc, cs, perm); err != nil {
		return manifest, err
	}
	s.log.Info("dictionary updated",
		logging.String("run_id", runID),
		logging.Int("new_concepts", len(cs.NewConcepts)),
		logging.Int("new_synonyms", len(cs.NewSynonyms)))
	return manifest, nil
}

func (s *Store) lockFile(ctx context.Context) (func(), error) {
	fl := flock.New(s.path + lockSuffix)
	lctx, cancel := context.WithTimeout(ctx, s.opts.LockTimeout)
	defer cancel()

	locked, err := fl.TryLockContext(lctx, lockRetryDelay)
	if err != nil || !locked {
		if err == nil {
			err = lctx.Err()
		}
		return nil, errors.Wrap(err, errors.ErrCodeLock, "timed out waiting for dictionary lock").
			WithDetailf("%s after %s", s.path+lockSuffix, s.opts.LockTimeout)
	}
	return func() {
		if err := fl.Unlock(); err != nil {
			s.log.Warn("dictionary lock release failed", logging.String("path", fl.Path()), logging.Err(err))
		}
	}, nil
}

func (s *Store) write(doc *document, cs *ontology.ChangeSet, perm os.FileMode) error {
	if err := doc.apply(cs); err != nil {
		return err
	}
	data, err := doc.encode()
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeSerialization, "failed to encode dictionary")
	}
	if _, err := parse(data); err != nil {
		return errors.Wrap(err, errors.ErrCodeInternal, "encoded dictionary does not parse back").WithDetail(s.path)
	}
	if err := renameio.WriteFile(s.path, data, perm); err != nil {
		return errors.Persistence(err, "failed to replace dictionary").WithDetail(s.path)
	}
	return nil
}

//Personal.AI order the ending
