package normalization

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/turtacn/OntoGround/internal/domain/ontology"
	"github.com/turtacn/OntoGround/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/OntoGround/internal/intelligence/normalizer"
)

// Holder serves the active Normalizer. Reload builds a fresh one from the
// repository and swaps it in; a failed build keeps the previous one.
type Holder struct {
	repo     ontology.DictionaryRepository
	mu       sync.Mutex
	opts     normalizer.Options
	current  atomic.Pointer[normalizer.Normalizer]
	loadedAt atomic.Int64
	logger   logging.Logger
}

func NewHolder(repo ontology.DictionaryRepository, opts normalizer.Options, log logging.Logger) *Holder {
	return &Holder{repo: repo, opts: opts, logger: logging.OrNop(log).Named("holder")}
}

// Current returns the active normalizer, or nil before the first Reload.
func (h *Holder) Current() *normalizer.Normalizer { return h.current.Load() }

// Ready reports whether a normalizer has been loaded.
func (h *Holder) Ready() bool { return h.current.Load() != nil }

// LoadedAt is the time of the last successful load.
func (h *Holder) LoadedAt() time.Time {
	ns := h.loadedAt.Load()
	if ns == 0 {
		return time.Time{}
	}
	return time.Unix(0, ns)
}

// Options returns the matching options used by the next build.
func (h *Holder) Options() normalizer.Options {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.opts
}

// Reload reads the dictionary and replaces the active normalizer.
func (h *Holder) Reload(ctx context.Context) (*normalizer.Normalizer, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.build(ctx, h.opts)
}

// Retune rebuilds with opts and keeps them only if the build succeeds.
func (h *Holder) Retune(ctx context.Context, opts normalizer.Options) (*normalizer.Normalizer, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	n, err := h.build(ctx, opts)
	if err != nil {
		return nil, err
	}
	h.opts = opts
	return n, nil
}

func (h *Holder) build(ctx context.Context, opts normalizer.Options) (*normalizer.Normalizer, error) {
	dict, err := h.repo.Load(ctx)
	if err != nil {
		return nil, err
	}
	n, err := normalizer.New(dict, opts)
	if err != nil {
		return nil, err
	}
	h.current.Store(n)
	h.loadedAt.Store(time.Now().UnixNano())
	h.logger.Info("dictionary loaded",
		logging.String("path", h.repo.Path()),
		logging.Int("concepts", dict.Len()))
	return n, nil
}

//Personal.AI order the ending
