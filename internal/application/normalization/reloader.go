package normalization

import (
	"context"
	"crypto/sha256"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/turtacn/OntoGround/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/OntoGround/pkg/errors"
)

// DefaultDebounce collapses the event burst of an editor save or an atomic
// rename into one reload.
const DefaultDebounce = 300 * time.Millisecond

// Reloader watches the dictionary file and reloads the Holder on change.
// The parent directory is watched since atomic replacement swaps the inode.
type Reloader struct {
	holder   *Holder
	path     string
	debounce time.Duration
	logger   logging.Logger
	lastSum  [sha256.Size]byte

	// reloaded is signalled after every reload attempt; tests wait on it.
	reloaded chan error
}

func NewReloader(holder *Holder, path string, debounce time.Duration, log logging.Logger) *Reloader {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	r := &Reloader{
		holder:   holder,
		path:     filepath.Clean(path),
		debounce: debounce,
		logger:   logging.OrNop(log).Named("reloader"),
		reloaded: make(chan error, 1),
	}
	if data, err := os.ReadFile(r.path); err == nil {
		r.lastSum = sha256.Sum256(data)
	}
	return r
}

// Reloaded delivers the result of each reload attempt. A result is dropped
// while the previous one is still unread.
func (r *Reloader) Reloaded() <-chan error { return r.reloaded }

// Run blocks until ctx is done.
func (r *Reloader) Run(ctx context.Context) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeInternal, "failed to create file watcher")
	}
	defer w.Close()
	dir := filepath.Dir(r.path)
	if err := w.Add(dir); err != nil {
		return errors.Wrap(err, errors.ErrCodeConfiguration, "failed to watch dictionary directory").WithDetail(dir)
	}
	r.logger.Info("watching dictionary", logging.String("path", r.path))

	timer := time.NewTimer(r.debounce)
	if !timer.Stop() {
		<-timer.C
	}
	for {
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != r.path {
				continue
			}
			if ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create) || ev.Has(fsnotify.Rename) {
				timer.Reset(r.debounce)
			}
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			r.logger.Warn("file watcher error", logging.Err(err))
		case <-timer.C:
			r.reload(ctx)
		}
	}
}

func (r *Reloader) reload(ctx context.Context) {
	data, err := os.ReadFile(r.path)
	if err != nil {
		// Mid-rename; the create event that follows triggers another attempt.
		r.logger.Debug("dictionary not readable", logging.Err(err))
		return
	}
	sum := sha256.Sum256(data)
	if sum == r.lastSum {
		return
	}
	_, err = r.holder.Reload(ctx)
	if err != nil {
		r.logger.Error("dictionary reload failed; keeping previous index", logging.Err(err))
	} else {
		r.lastSum = sum
		r.logger.Info("dictionary reloaded", logging.String("path", r.path))
	}
	select {
	case r.reloaded <- err:
	default:
	}
}

//Personal.AI order the ending
