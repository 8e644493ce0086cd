// Package index keeps the known-category list the extractor classifies
// against, so each analysis does not reload it from the store.
package index

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/MrSnakeDoc/toolshelf/internal/domain"
	"github.com/MrSnakeDoc/toolshelf/internal/logger"
)

// DefaultTTL is how long a loaded list is served before reloading.
const DefaultTTL = time.Minute

// Loader reads the authoritative category list.
type Loader func(ctx context.Context) ([]domain.Category, error)

// Backing is an optional shared cache consulted before the Loader.
type Backing interface {
	Get(ctx context.Context) ([]domain.CategoryRef, bool, error)
	Put(ctx context.Context, refs []domain.CategoryRef) error
	Invalidate(ctx context.Context) error
}

// CategoryIndex is an in-memory snapshot of the known categories.
type CategoryIndex struct {
	mu         sync.RWMutex
	refs       []domain.CategoryRef
	lastReload time.Time
	generation uint64 // bumped by Invalidate

	ttl     time.Duration
	load    Loader
	backing Backing
	logger  logger.Logger
	now     func() time.Time
}

// NewCategoryIndex creates an empty index. backing may be nil. A non-positive
// ttl selects DefaultTTL.
func NewCategoryIndex(load Loader, backing Backing, ttl time.Duration, log logger.Logger) *CategoryIndex {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &CategoryIndex{
		ttl:     ttl,
		load:    load,
		backing: backing,
		logger:  log,
		now:     time.Now,
	}
}

// Known returns the current known categories, reloading when the snapshot
// is missing or older than the TTL.
func (idx *CategoryIndex) Known(ctx context.Context) ([]domain.CategoryRef, error) {
	idx.mu.RLock()
	if idx.refs != nil && idx.now().Sub(idx.lastReload) < idx.ttl {
		refs := cloneRefs(idx.refs)
		idx.mu.RUnlock()
		return refs, nil
	}
	gen := idx.generation
	idx.mu.RUnlock()

	refs, fromStore, err := idx.fetch(ctx)
	if err != nil {
		return nil, err
	}

	idx.mu.Lock()
	stale := idx.generation != gen
	if !stale {
		idx.refs = refs
		idx.lastReload = idx.now()
	}
	idx.mu.Unlock()

	// A list loaded before an invalidation is still returned to this caller
	// but never published.
	if fromStore && !stale && idx.backing != nil {
		idx.share(ctx, refs, gen)
	}
	return cloneRefs(refs), nil
}

// share publishes refs to the backing. An Invalidate that lands between the
// generation check and the write may have its delete overtaken by the write,
// so the write is retracted when the generation moved.
func (idx *CategoryIndex) share(ctx context.Context, refs []domain.CategoryRef, gen uint64) {
	if err := idx.backing.Put(ctx, refs); err != nil {
		idx.logger.Warn("failed to share known categories", logger.Error(err))
		return
	}
	idx.mu.RLock()
	moved := idx.generation != gen
	idx.mu.RUnlock()
	if !moved {
		return
	}
	if err := idx.backing.Invalidate(ctx); err != nil {
		idx.logger.Warn("failed to retract stale category list", logger.Error(err))
	}
}

func cloneRefs(refs []domain.CategoryRef) []domain.CategoryRef {
	out := make([]domain.CategoryRef, len(refs))
	copy(out, refs)
	return out
}

func (idx *CategoryIndex) fetch(ctx context.Context) (refs []domain.CategoryRef, fromStore bool, err error) {
	if idx.backing != nil {
		refs, ok, err := idx.backing.Get(ctx)
		switch {
		case err != nil:
			idx.logger.Warn("shared category cache unavailable", logger.Error(err))
		case ok:
			return refs, false, nil
		}
	}

	cats, err := idx.load(ctx)
	if err != nil {
		return nil, false, fmt.Errorf("load categories: %w", err)
	}
	refs = make([]domain.CategoryRef, 0, len(cats))
	for _, c := range cats {
		refs = append(refs, c.Ref())
	}
	idx.logger.Debug("known categories reloaded", logger.Int("count", len(refs)))
	return refs, true, nil
}

// Invalidate drops the snapshot. The next Known call reloads.
func (idx *CategoryIndex) Invalidate(ctx context.Context) {
	idx.mu.Lock()
	idx.refs = nil
	idx.lastReload = time.Time{}
	idx.generation++
	idx.mu.Unlock()

	if idx.backing != nil {
		if err := idx.backing.Invalidate(ctx); err != nil {
			idx.logger.Warn("failed to invalidate shared category cache", logger.Error(err))
		}
	}
}

// LastReload returns when the snapshot was last loaded.
func (idx *CategoryIndex) LastReload() time.Time {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return idx.lastReload
}
