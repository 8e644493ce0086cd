// Package reconcile keeps a local copy of a remote catalog and applies
// mutations optimistically: the local copy changes first, then the server
// of record is called, then the local entity is replaced by the server's
// response. A failed call rolls the local copy back.
package reconcile

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/MrSnakeDoc/toolshelf/internal/domain"
	"github.com/MrSnakeDoc/toolshelf/internal/logger"
	"github.com/MrSnakeDoc/toolshelf/internal/store"
)

// TempPrefix marks ids assigned locally before the server answers.
const TempPrefix = "tmp-"

// Remote is the server of record. *client.Client and every store.Store
// satisfy it.
type Remote interface {
	ListCategories(ctx context.Context) ([]domain.Category, error)
	CreateCategory(ctx context.Context, c domain.Category) (domain.Category, error)
	UpdateCategory(ctx context.Context, id string, p domain.CategoryPatch) (domain.Category, error)
	DeleteCategory(ctx context.Context, id string, policy store.DeletePolicy) error
	Reorder(ctx context.Context, categoryID string, order []string) (domain.Category, error)

	ListTools(ctx context.Context, f store.ToolFilter) ([]domain.Tool, error)
	CreateTool(ctx context.Context, t domain.Tool) (domain.Tool, error)
	UpdateTool(ctx context.Context, id string, p domain.ToolPatch) (domain.Tool, error)
	MoveTool(ctx context.Context, toolID, fromCategoryID, toCategoryID string, position int) (domain.Tool, error)
	DeleteTool(ctx context.Context, id string) error

	ListCollections(ctx context.Context) ([]domain.Collection, error)
	CreateCollection(ctx context.Context, c domain.Collection) (domain.Collection, error)
	DeleteCollection(ctx context.Context, id string) error
	AddToCollection(ctx context.Context, collectionID, toolID string) (domain.Collection, error)
	RemoveFromCollection(ctx context.Context, collectionID, toolID string) (domain.Collection, error)
}

// SyncError is returned when the server rejected or never received a
// mutation. The local copy has already been rolled back when it is returned.
type SyncError struct {
	Op  string
	ID  string
	Err error
}

func (e *SyncError) Error() string {
	if e.ID == "" {
		return fmt.Sprintf("sync %s: %v (local change rolled back)", e.Op, e.Err)
	}
	return fmt.Sprintf("sync %s %s: %v (local change rolled back)", e.Op, e.ID, e.Err)
}

func (e *SyncError) Unwrap() error { return e.Err }

// Reconciler serializes mutations; reads never wait on the network and
// observe tentative state while a call is in flight.
type Reconciler struct {
	remote Remote
	logger logger.Logger
	newID  func() string

	ops sync.Mutex // one mutation at a time

	mu       sync.RWMutex
	local    Catalog
	resolved map[string]string // temp id -> server id
}

func New(remote Remote, log logger.Logger) *Reconciler {
	return &Reconciler{
		remote:   remote,
		logger:   log,
		newID:    func() string { return TempPrefix + uuid.NewString() },
		resolved: map[string]string{},
	}
}

// IsTemp reports whether id was assigned locally.
func IsTemp(id string) bool { return strings.HasPrefix(id, TempPrefix) }

// Load replaces the local copy with the server's catalog.
func (r *Reconciler) Load(ctx context.Context) error {
	r.ops.Lock()
	defer r.ops.Unlock()

	var next Catalog
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		next.Categories, err = r.remote.ListCategories(gctx)
		return err
	})
	g.Go(func() (err error) {
		next.Tools, err = r.remote.ListTools(gctx, store.ToolFilter{})
		return err
	})
	g.Go(func() (err error) {
		next.Collections, err = r.remote.ListCollections(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return fmt.Errorf("load catalog: %w", err)
	}

	r.mu.Lock()
	r.local = next.clone()
	r.mu.Unlock()
	r.logger.Debug("catalog loaded",
		logger.Int("categories", len(next.Categories)),
		logger.Int("tools", len(next.Tools)),
		logger.Int("collections", len(next.Collections)))
	return nil
}

// Snapshot returns a deep copy of the local catalog.
func (r *Reconciler) Snapshot() Catalog {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.local.clone()
}

// ResolveID maps a temp id to the id the server assigned. Any other id is
// returned unchanged.
func (r *Reconciler) ResolveID(id string) string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.resolveLocked(id)
}

func (r *Reconciler) resolveLocked(id string) string {
	if server, ok := r.resolved[id]; ok {
		return server
	}
	return id
}

// mutate runs the optimistic apply / remote call / commit sequence. local
// may be nil. call returns the commit to apply on success.
func (r *Reconciler) mutate(ctx context.Context, op, id string, local func(*Catalog), call func(context.Context) (func(*Catalog), error)) error {
	r.ops.Lock()
	defer r.ops.Unlock()

	r.mu.Lock()
	before := r.local.clone()
	if local != nil {
		local(&r.local)
	}
	r.mu.Unlock()

	commit, err := call(ctx)

	r.mu.Lock()
	defer r.mu.Unlock()
	if err != nil {
		r.local = before
		r.logger.Warn("sync failed, local change rolled back",
			logger.String("op", op),
			logger.String("id", id),
			logger.Error(err))
		return &SyncError{Op: op, ID: id, Err: err}
	}
	if commit != nil {
		commit(&r.local)
	}
	return nil
}

// record maps tempID to serverID and rewrites every reference.
func (r *Reconciler) record(c *Catalog, tempID, serverID string) {
	r.resolved[tempID] = serverID
	c.rename(tempID, serverID)
}

// ─────────────────────────────
// Categories
// ─────────────────────────────

func (r *Reconciler) CreateCategory(ctx context.Context, cat domain.Category) (domain.Category, error) {
	tempID := r.newID()
	tentative := cat.Clone()
	tentative.ID = tempID
	tentative.ToolIDs = []string{}

	var out domain.Category
	err := r.mutate(ctx, "create category", tempID,
		func(c *Catalog) { c.putCategory(tentative) },
		func(ctx context.Context) (func(*Catalog), error) {
			created, err := r.remote.CreateCategory(ctx, domain.Category{Name: cat.Name, Collapsed: cat.Collapsed, SortOrder: cat.SortOrder})
			if err != nil {
				return nil, err
			}
			out = created
			return func(c *Catalog) {
				if i := c.category(tempID); i >= 0 {
					c.Categories = append(c.Categories[:i], c.Categories[i+1:]...)
				}
				c.putCategory(created.Clone())
				r.record(c, tempID, created.ID)
			}, nil
		})
	return out, err
}

func (r *Reconciler) UpdateCategory(ctx context.Context, id string, p domain.CategoryPatch) (domain.Category, error) {
	id = r.ResolveID(id)
	var out domain.Category
	err := r.mutate(ctx, "update category", id,
		func(c *Catalog) {
			if i := c.category(id); i >= 0 {
				c.Categories[i] = p.Apply(c.Categories[i])
			}
		},
		func(ctx context.Context) (func(*Catalog), error) {
			updated, err := r.remote.UpdateCategory(ctx, id, p)
			if err != nil {
				return nil, err
			}
			out = updated
			return func(c *Catalog) { c.putCategory(updated.Clone()) }, nil
		})
	return out, err
}

// DeleteCategory removes the category. Under RejectIfNonEmpty a category
// that still lists tools locally is left in place until the server agrees.
func (r *Reconciler) DeleteCategory(ctx context.Context, id string, policy store.DeletePolicy) error {
	id = r.ResolveID(id)
	return r.mutate(ctx, "delete category", id,
		func(c *Catalog) {
			i := c.category(id)
			if i < 0 {
				return
			}
			if policy == store.Cascade || len(c.Categories[i].ToolIDs) == 0 {
				c.removeCategory(id)
			}
		},
		func(ctx context.Context) (func(*Catalog), error) {
			if err := r.remote.DeleteCategory(ctx, id, policy); err != nil {
				return nil, err
			}
			return func(c *Catalog) { c.removeCategory(id) }, nil
		})
}

// Reorder replaces a category's tool order.
func (r *Reconciler) Reorder(ctx context.Context, categoryID string, order []string) (domain.Category, error) {
	categoryID = r.ResolveID(categoryID)
	resolved := make([]string, len(order))
	for i, id := range order {
		resolved[i] = r.ResolveID(id)
	}

	var out domain.Category
	err := r.mutate(ctx, "reorder category", categoryID,
		func(c *Catalog) {
			if i := c.category(categoryID); i >= 0 && store.CheckPermutation(c.Categories[i].ToolIDs, resolved) == nil {
				c.Categories[i].ToolIDs = append([]string(nil), resolved...)
			}
		},
		func(ctx context.Context) (func(*Catalog), error) {
			updated, err := r.remote.Reorder(ctx, categoryID, resolved)
			if err != nil {
				return nil, err
			}
			out = updated
			return func(c *Catalog) { c.putCategory(updated.Clone()) }, nil
		})
	return out, err
}

// ─────────────────────────────
// Tools
// ─────────────────────────────

// CreateTool files a tentative tool under a temp id until the server
// assigns the canonical one.
func (r *Reconciler) CreateTool(ctx context.Context, t domain.Tool) (domain.Tool, error) {
	tempID := r.newID()
	t = t.Clone()
	t.CategoryID = r.ResolveID(t.CategoryID)
	tentative := t.Clone()
	tentative.ID = tempID

	var out domain.Tool
	err := r.mutate(ctx, "create tool", tempID,
		func(c *Catalog) { c.putTool(tentative) },
		func(ctx context.Context) (func(*Catalog), error) {
			req := t.Clone()
			req.ID = ""
			created, err := r.remote.CreateTool(ctx, req)
			if err != nil {
				return nil, err
			}
			out = created
			return func(c *Catalog) {
				r.record(c, tempID, created.ID)
				if i := c.tool(tempID); i >= 0 {
					c.Tools = append(c.Tools[:i], c.Tools[i+1:]...)
				}
				c.putTool(created.Clone())
			}, nil
		})
	return out, err
}

func (r *Reconciler) UpdateTool(ctx context.Context, id string, p domain.ToolPatch) (domain.Tool, error) {
	id = r.ResolveID(id)
	if p.CategoryID != nil {
		resolved := r.ResolveID(*p.CategoryID)
		p.CategoryID = &resolved
	}

	var out domain.Tool
	err := r.mutate(ctx, "update tool", id,
		func(c *Catalog) {
			if i := c.tool(id); i >= 0 {
				c.putTool(p.Apply(c.Tools[i]))
			}
		},
		func(ctx context.Context) (func(*Catalog), error) {
			updated, err := r.remote.UpdateTool(ctx, id, p)
			if err != nil {
				return nil, err
			}
			out = updated
			return func(c *Catalog) { c.putTool(updated.Clone()) }, nil
		})
	return out, err
}

// MoveTool re-files a tool at position in toCategoryID; position < 0 appends.
func (r *Reconciler) MoveTool(ctx context.Context, toolID, toCategoryID string, position int) (domain.Tool, error) {
	toolID = r.ResolveID(toolID)
	toCategoryID = r.ResolveID(toCategoryID)

	r.mu.RLock()
	from := ""
	if i := r.local.tool(toolID); i >= 0 {
		from = r.local.Tools[i].CategoryID
	}
	r.mu.RUnlock()
	if from == "" {
		return domain.Tool{}, domain.NotFound("tool", toolID)
	}

	var out domain.Tool
	err := r.mutate(ctx, "move tool", toolID,
		func(c *Catalog) {
			if i := c.tool(toolID); i >= 0 {
				c.Tools[i].CategoryID = toCategoryID
				c.refile(toolID, toCategoryID, position)
			}
		},
		func(ctx context.Context) (func(*Catalog), error) {
			moved, err := r.remote.MoveTool(ctx, toolID, from, toCategoryID, position)
			if err != nil {
				return nil, err
			}
			out = moved
			return func(c *Catalog) {
				if i := c.tool(toolID); i >= 0 {
					c.Tools[i] = moved.Clone()
				}
			}, nil
		})
	return out, err
}

func (r *Reconciler) DeleteTool(ctx context.Context, id string) error {
	id = r.ResolveID(id)
	return r.mutate(ctx, "delete tool", id,
		func(c *Catalog) { c.removeTool(id) },
		func(ctx context.Context) (func(*Catalog), error) {
			return nil, r.remote.DeleteTool(ctx, id)
		})
}

// ─────────────────────────────
// Collections
// ─────────────────────────────

func (r *Reconciler) CreateCollection(ctx context.Context, coll domain.Collection) (domain.Collection, error) {
	tempID := r.newID()
	coll = coll.Clone()
	for i, id := range coll.ToolIDs {
		coll.ToolIDs[i] = r.ResolveID(id)
	}
	tentative := coll.Clone()
	tentative.ID = tempID

	var out domain.Collection
	err := r.mutate(ctx, "create collection", tempID,
		func(c *Catalog) { c.putCollection(tentative) },
		func(ctx context.Context) (func(*Catalog), error) {
			req := coll.Clone()
			req.ID = ""
			created, err := r.remote.CreateCollection(ctx, req)
			if err != nil {
				return nil, err
			}
			out = created
			return func(c *Catalog) {
				c.removeCollection(tempID)
				c.putCollection(created.Clone())
				r.resolved[tempID] = created.ID
			}, nil
		})
	return out, err
}

func (r *Reconciler) DeleteCollection(ctx context.Context, id string) error {
	id = r.ResolveID(id)
	return r.mutate(ctx, "delete collection", id,
		func(c *Catalog) { c.removeCollection(id) },
		func(ctx context.Context) (func(*Catalog), error) {
			return nil, r.remote.DeleteCollection(ctx, id)
		})
}

func (r *Reconciler) AddToCollection(ctx context.Context, collectionID, toolID string) (domain.Collection, error) {
	collectionID = r.ResolveID(collectionID)
	toolID = r.ResolveID(toolID)

	var out domain.Collection
	err := r.mutate(ctx, "add to collection", collectionID,
		func(c *Catalog) {
			if i := c.collection(collectionID); i >= 0 && !c.Collections[i].Contains(toolID) {
				c.Collections[i].ToolIDs = append(c.Collections[i].ToolIDs, toolID)
			}
		},
		func(ctx context.Context) (func(*Catalog), error) {
			updated, err := r.remote.AddToCollection(ctx, collectionID, toolID)
			if err != nil {
				return nil, err
			}
			out = updated
			return func(c *Catalog) { c.putCollection(updated.Clone()) }, nil
		})
	return out, err
}

func (r *Reconciler) RemoveFromCollection(ctx context.Context, collectionID, toolID string) (domain.Collection, error) {
	collectionID = r.ResolveID(collectionID)
	toolID = r.ResolveID(toolID)

	var out domain.Collection
	err := r.mutate(ctx, "remove from collection", collectionID,
		func(c *Catalog) {
			if i := c.collection(collectionID); i >= 0 {
				c.Collections[i].ToolIDs = domain.RemoveID(c.Collections[i].ToolIDs, toolID)
			}
		},
		func(ctx context.Context) (func(*Catalog), error) {
			updated, err := r.remote.RemoveFromCollection(ctx, collectionID, toolID)
			if err != nil {
				return nil, err
			}
			out = updated
			return func(c *Catalog) { c.putCollection(updated.Clone()) }, nil
		})
	return out, err
}
