// Package store defines the catalog store contract shared by the memory and
// SQL implementations.
package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/MrSnakeDoc/toolshelf/internal/domain"
)

// Errors re-exported so callers only import store.
var (
	ErrNotFound         = domain.ErrNotFound
	ErrValidation       = domain.ErrValidation
	ErrCategoryNotEmpty = domain.ErrCategoryNotEmpty
	ErrConflict         = domain.ErrConflict
)

// DeletePolicy decides what DeleteCategory does with the tools it owns.
type DeletePolicy string

const (
	// Cascade deletes every tool owned by the category.
	Cascade DeletePolicy = "cascade"
	// RejectIfNonEmpty refuses to delete a category that owns tools.
	RejectIfNonEmpty DeletePolicy = "reject"
)

// ParsePolicy maps a query value onto a DeletePolicy. Empty means reject.
func ParsePolicy(raw string) (DeletePolicy, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "", string(RejectIfNonEmpty), "reject-if-nonempty":
		return RejectIfNonEmpty, nil
	case string(Cascade):
		return Cascade, nil
	default:
		return "", domain.Invalid("policy", "must be cascade or reject")
	}
}

// ToolFilter narrows ListTools.
type ToolFilter struct {
	CategoryID string
	// Query ranks tools by fuzzy match on name and tags, best first, and
	// drops tools that do not match.
	Query string
}

// Rank applies f.Query to tools listed in display order.
func (f ToolFilter) Rank(tools []domain.Tool) []domain.Tool {
	if strings.TrimSpace(f.Query) == "" {
		return tools
	}
	matches := domain.RankTools(f.Query, tools)
	out := make([]domain.Tool, len(matches))
	for i, m := range matches {
		out[i] = m.Tool
	}
	return out
}

// Store is the catalog of categories, tools and collections.
//
// Implementations keep these invariants at every observable point:
//   - a tool's CategoryID references an existing category;
//   - a category's ToolIDs holds exactly the tools filed under it, without duplicates;
//   - collections never reference a deleted tool.
//
// Compound operations (MoveTool, DeleteCategory, DeleteTool, Reorder) are atomic.
type Store interface {
	ListCategories(ctx context.Context) ([]domain.Category, error)
	GetCategory(ctx context.Context, id string) (domain.Category, error)
	CreateCategory(ctx context.Context, c domain.Category) (domain.Category, error)
	UpdateCategory(ctx context.Context, id string, p domain.CategoryPatch) (domain.Category, error)
	DeleteCategory(ctx context.Context, id string, policy DeletePolicy) error
	// Reorder replaces a category's tool order. order must be a permutation
	// of the current membership.
	Reorder(ctx context.Context, categoryID string, order []string) (domain.Category, error)

	ListTools(ctx context.Context, f ToolFilter) ([]domain.Tool, error)
	GetTool(ctx context.Context, id string) (domain.Tool, error)
	// CreateTool assigns the id and, when zero, CreatedAt. The tool is
	// appended to its category.
	CreateTool(ctx context.Context, t domain.Tool) (domain.Tool, error)
	// UpdateTool applies p. A changed CategoryID moves the tool to the end
	// of the new category.
	UpdateTool(ctx context.Context, id string, p domain.ToolPatch) (domain.Tool, error)
	// MoveTool re-files a tool. fromCategoryID must be the tool's current
	// category; position < 0 appends.
	MoveTool(ctx context.Context, toolID, fromCategoryID, toCategoryID string, position int) (domain.Tool, error)
	DeleteTool(ctx context.Context, id string) error

	ListCollections(ctx context.Context) ([]domain.Collection, error)
	GetCollection(ctx context.Context, id string) (domain.Collection, error)
	CreateCollection(ctx context.Context, c domain.Collection) (domain.Collection, error)
	UpdateCollection(ctx context.Context, id string, p domain.CollectionPatch) (domain.Collection, error)
	DeleteCollection(ctx context.Context, id string) error
	// AddToCollection is a no-op when the tool is already a member.
	AddToCollection(ctx context.Context, collectionID, toolID string) (domain.Collection, error)
	RemoveFromCollection(ctx context.Context, collectionID, toolID string) (domain.Collection, error)

	Ping(ctx context.Context) error
	Close() error
}

// CheckPermutation verifies that order is exactly a permutation of current.
func CheckPermutation(current, order []string) error {
	if len(order) != len(current) {
		return domain.Invalid("toolIds", fmt.Sprintf("has %d ids, category has %d", len(order), len(current)))
	}
	members := make(map[string]bool, len(current))
	for _, id := range current {
		members[id] = true
	}
	seen := make(map[string]bool, len(order))
	for _, id := range order {
		if !members[id] {
			return domain.Invalid("toolIds", fmt.Sprintf("%q is not a member of the category", id))
		}
		if seen[id] {
			return domain.Invalid("toolIds", fmt.Sprintf("%q appears more than once", id))
		}
		seen[id] = true
	}
	return nil
}

// ValidateCategory checks the fields required to persist c.
func ValidateCategory(c domain.Category) error {
	if strings.TrimSpace(c.Name) == "" {
		return domain.Invalid("name", "is required")
	}
	return nil
}

// ValidateCollection checks the fields required to persist c.
func ValidateCollection(c domain.Collection) error {
	if strings.TrimSpace(c.Name) == "" {
		return domain.Invalid("name", "is required")
	}
	return nil
}

// PrepareTool normalizes t and validates it for insertion or update.
func PrepareTool(t domain.Tool) (domain.Tool, error) {
	t = t.Clone()
	t.Name = strings.TrimSpace(t.Name)
	t.URL = strings.TrimSpace(t.URL)
	t.Type = strings.TrimSpace(t.Type)
	t.Normalize()
	if err := t.Validate(); err != nil {
		return domain.Tool{}, err
	}
	return t, nil
}

// DedupIDs drops empty and repeated ids, keeping the first occurrence.
func DedupIDs(ids []string) []string {
	out := make([]string, 0, len(ids))
	seen := make(map[string]bool, len(ids))
	for _, id := range ids {
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}
