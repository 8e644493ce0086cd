// Package memory is a mutex-guarded in-process catalog store.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/MrSnakeDoc/toolshelf/internal/domain"
	"github.com/MrSnakeDoc/toolshelf/internal/store"
)

// Store keeps the catalog in maps guarded by a single RWMutex. Every
// mutation holds the write lock for its whole duration, so compound
// operations are observed atomically. Values crossing the API are copies.
type Store struct {
	mu          sync.RWMutex
	categories  map[string]*domain.Category   // ID -> Category
	tools       map[string]*domain.Tool       // ID -> Tool
	collections map[string]*domain.Collection // ID -> Collection
	collOrder   []string                      // collection ids in creation order

	newID func() string
	now   func() time.Time
}

// New creates an empty store.
func New() *Store {
	return &Store{
		categories:  make(map[string]*domain.Category),
		tools:       make(map[string]*domain.Tool),
		collections: make(map[string]*domain.Collection),
		newID:       uuid.NewString,
		now:         time.Now,
	}
}

var _ store.Store = (*Store)(nil)

// ─────────────────────────────────────────────────────────────────
// Categories
// ─────────────────────────────────────────────────────────────────

func (s *Store) ListCategories(_ context.Context) ([]domain.Category, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.Category, 0, len(s.categories))
	for _, c := range s.categories {
		out = append(out, c.Clone())
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].SortOrder != out[j].SortOrder {
			return out[i].SortOrder < out[j].SortOrder
		}
		return out[i].Name < out[j].Name
	})
	return out, nil
}

func (s *Store) GetCategory(_ context.Context, id string) (domain.Category, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.categories[id]
	if !ok {
		return domain.Category{}, domain.NotFound("category", id)
	}
	return c.Clone(), nil
}

func (s *Store) CreateCategory(_ context.Context, c domain.Category) (domain.Category, error) {
	if err := store.ValidateCategory(c); err != nil {
		return domain.Category{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	c = c.Clone()
	c.ID = s.newID()
	c.ToolIDs = []string{}
	if c.SortOrder == 0 {
		c.SortOrder = s.nextSortOrder()
	}
	s.categories[c.ID] = &c
	return c.Clone(), nil
}

func (s *Store) nextSortOrder() int {
	next := 0
	for _, c := range s.categories {
		if c.SortOrder >= next {
			next = c.SortOrder + 1
		}
	}
	return next
}

func (s *Store) UpdateCategory(_ context.Context, id string, p domain.CategoryPatch) (domain.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.categories[id]
	if !ok {
		return domain.Category{}, domain.NotFound("category", id)
	}
	updated := p.Apply(*c)
	if err := store.ValidateCategory(updated); err != nil {
		return domain.Category{}, err
	}
	s.categories[id] = &updated
	return updated.Clone(), nil
}

func (s *Store) DeleteCategory(_ context.Context, id string, policy store.DeletePolicy) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.categories[id]
	if !ok {
		return domain.NotFound("category", id)
	}
	if len(c.ToolIDs) > 0 {
		if policy != store.Cascade {
			return fmt.Errorf("category %q owns %d tools: %w", id, len(c.ToolIDs), store.ErrCategoryNotEmpty)
		}
		for _, toolID := range c.ToolIDs {
			s.detachFromCollections(toolID)
			delete(s.tools, toolID)
		}
	}
	delete(s.categories, id)
	return nil
}

func (s *Store) Reorder(_ context.Context, categoryID string, order []string) (domain.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.categories[categoryID]
	if !ok {
		return domain.Category{}, domain.NotFound("category", categoryID)
	}
	if err := store.CheckPermutation(c.ToolIDs, order); err != nil {
		return domain.Category{}, err
	}
	c.ToolIDs = append([]string(nil), order...)
	return c.Clone(), nil
}

// ─────────────────────────────────────────────────────────────────
// Tools
// ─────────────────────────────────────────────────────────────────

// ListTools returns tools in category display order, categories ordered as
// in ListCategories.
func (s *Store) ListTools(_ context.Context, f store.ToolFilter) ([]domain.Tool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if f.CategoryID != "" {
		c, ok := s.categories[f.CategoryID]
		if !ok {
			return nil, domain.NotFound("category", f.CategoryID)
		}
		return f.Rank(s.toolsOf(c)), nil
	}

	cats := make([]*domain.Category, 0, len(s.categories))
	for _, c := range s.categories {
		cats = append(cats, c)
	}
	sort.Slice(cats, func(i, j int) bool {
		if cats[i].SortOrder != cats[j].SortOrder {
			return cats[i].SortOrder < cats[j].SortOrder
		}
		return cats[i].Name < cats[j].Name
	})

	out := make([]domain.Tool, 0, len(s.tools))
	for _, c := range cats {
		out = append(out, s.toolsOf(c)...)
	}
	return f.Rank(out), nil
}

func (s *Store) toolsOf(c *domain.Category) []domain.Tool {
	out := make([]domain.Tool, 0, len(c.ToolIDs))
	for _, id := range c.ToolIDs {
		if t, ok := s.tools[id]; ok {
			out = append(out, t.Clone())
		}
	}
	return out
}

func (s *Store) GetTool(_ context.Context, id string) (domain.Tool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	t, ok := s.tools[id]
	if !ok {
		return domain.Tool{}, domain.NotFound("tool", id)
	}
	return t.Clone(), nil
}

func (s *Store) CreateTool(_ context.Context, t domain.Tool) (domain.Tool, error) {
	t, err := store.PrepareTool(t)
	if err != nil {
		return domain.Tool{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.categories[t.CategoryID]
	if !ok {
		return domain.Tool{}, domain.Invalid("categoryId", "references an unknown category")
	}
	t.ID = s.newID()
	if t.CreatedAt.IsZero() {
		t.CreatedAt = s.now().UTC().Truncate(time.Microsecond)
	}
	s.tools[t.ID] = &t
	c.ToolIDs = append(c.ToolIDs, t.ID)
	return t.Clone(), nil
}

func (s *Store) UpdateTool(_ context.Context, id string, p domain.ToolPatch) (domain.Tool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.tools[id]
	if !ok {
		return domain.Tool{}, domain.NotFound("tool", id)
	}
	updated := p.Apply(*current)
	updated.ID = current.ID
	updated.CreatedAt = current.CreatedAt
	updated, err := store.PrepareTool(updated)
	if err != nil {
		return domain.Tool{}, err
	}

	if updated.CategoryID != current.CategoryID {
		if _, ok := s.categories[updated.CategoryID]; !ok {
			return domain.Tool{}, domain.Invalid("categoryId", "references an unknown category")
		}
		s.refile(id, current.CategoryID, updated.CategoryID, -1)
	}
	s.tools[id] = &updated
	return updated.Clone(), nil
}

func (s *Store) MoveTool(_ context.Context, toolID, fromCategoryID, toCategoryID string, position int) (domain.Tool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.tools[toolID]
	if !ok {
		return domain.Tool{}, domain.NotFound("tool", toolID)
	}
	if _, ok := s.categories[toCategoryID]; !ok {
		return domain.Tool{}, domain.NotFound("category", toCategoryID)
	}
	if t.CategoryID != fromCategoryID {
		return domain.Tool{}, fmt.Errorf("tool %q is filed under %q, not %q: %w", toolID, t.CategoryID, fromCategoryID, store.ErrConflict)
	}

	s.refile(toolID, fromCategoryID, toCategoryID, position)
	t.CategoryID = toCategoryID
	return t.Clone(), nil
}

// refile moves toolID between category lists. Callers hold the write lock.
func (s *Store) refile(toolID, from, to string, position int) {
	src := s.categories[from]
	src.ToolIDs = domain.RemoveID(src.ToolIDs, toolID)
	dst := s.categories[to]
	dst.ToolIDs = domain.InsertID(domain.RemoveID(dst.ToolIDs, toolID), toolID, position)
}

func (s *Store) DeleteTool(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.tools[id]
	if !ok {
		return domain.NotFound("tool", id)
	}
	if c, ok := s.categories[t.CategoryID]; ok {
		c.ToolIDs = domain.RemoveID(c.ToolIDs, id)
	}
	s.detachFromCollections(id)
	delete(s.tools, id)
	return nil
}

func (s *Store) detachFromCollections(toolID string) {
	for _, coll := range s.collections {
		coll.ToolIDs = domain.RemoveID(coll.ToolIDs, toolID)
	}
}

// ─────────────────────────────────────────────────────────────────
// Collections
// ─────────────────────────────────────────────────────────────────

func (s *Store) ListCollections(_ context.Context) ([]domain.Collection, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.Collection, 0, len(s.collOrder))
	for _, id := range s.collOrder {
		out = append(out, s.collections[id].Clone())
	}
	return out, nil
}

func (s *Store) GetCollection(_ context.Context, id string) (domain.Collection, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.collections[id]
	if !ok {
		return domain.Collection{}, domain.NotFound("collection", id)
	}
	return c.Clone(), nil
}

func (s *Store) CreateCollection(_ context.Context, c domain.Collection) (domain.Collection, error) {
	if err := store.ValidateCollection(c); err != nil {
		return domain.Collection{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	c = c.Clone()
	c.ToolIDs = store.DedupIDs(c.ToolIDs)
	for _, toolID := range c.ToolIDs {
		if _, ok := s.tools[toolID]; !ok {
			return domain.Collection{}, domain.Invalid("toolIds", "references an unknown tool "+toolID)
		}
	}
	c.ID = s.newID()
	s.collections[c.ID] = &c
	s.collOrder = append(s.collOrder, c.ID)
	return c.Clone(), nil
}

func (s *Store) UpdateCollection(_ context.Context, id string, p domain.CollectionPatch) (domain.Collection, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.collections[id]
	if !ok {
		return domain.Collection{}, domain.NotFound("collection", id)
	}
	updated := c.Clone()
	if p.Name != nil {
		updated.Name = *p.Name
	}
	if err := store.ValidateCollection(updated); err != nil {
		return domain.Collection{}, err
	}
	s.collections[id] = &updated
	return updated.Clone(), nil
}

func (s *Store) DeleteCollection(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.collections[id]; !ok {
		return domain.NotFound("collection", id)
	}
	delete(s.collections, id)
	s.collOrder = domain.RemoveID(s.collOrder, id)
	return nil
}

func (s *Store) AddToCollection(_ context.Context, collectionID, toolID string) (domain.Collection, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.collections[collectionID]
	if !ok {
		return domain.Collection{}, domain.NotFound("collection", collectionID)
	}
	if _, ok := s.tools[toolID]; !ok {
		return domain.Collection{}, domain.NotFound("tool", toolID)
	}
	if !c.Contains(toolID) {
		c.ToolIDs = append(c.ToolIDs, toolID)
	}
	return c.Clone(), nil
}

func (s *Store) RemoveFromCollection(_ context.Context, collectionID, toolID string) (domain.Collection, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.collections[collectionID]
	if !ok {
		return domain.Collection{}, domain.NotFound("collection", collectionID)
	}
	c.ToolIDs = domain.RemoveID(c.ToolIDs, toolID)
	return c.Clone(), nil
}

func (s *Store) Ping(context.Context) error { return nil }

func (s *Store) Close() error { return nil }
