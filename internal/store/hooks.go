package store

import (
	"context"

	"github.com/MrSnakeDoc/toolshelf/internal/domain"
)

// Hook runs after a category mutation commits.
type Hook func(ctx context.Context)

type hooked struct {
	Store
	hooks []Hook
}

// WithCategoryHooks wraps s so that every successful category create, update
// or delete runs hooks synchronously before returning.
func WithCategoryHooks(s Store, hooks ...Hook) Store {
	if len(hooks) == 0 {
		return s
	}
	return &hooked{Store: s, hooks: hooks}
}

func (h *hooked) fire(ctx context.Context) {
	for _, hook := range h.hooks {
		hook(ctx)
	}
}

func (h *hooked) CreateCategory(ctx context.Context, c domain.Category) (domain.Category, error) {
	out, err := h.Store.CreateCategory(ctx, c)
	if err == nil {
		h.fire(ctx)
	}
	return out, err
}

func (h *hooked) UpdateCategory(ctx context.Context, id string, p domain.CategoryPatch) (domain.Category, error) {
	out, err := h.Store.UpdateCategory(ctx, id, p)
	if err == nil {
		h.fire(ctx)
	}
	return out, err
}

func (h *hooked) DeleteCategory(ctx context.Context, id string, policy DeletePolicy) error {
	err := h.Store.DeleteCategory(ctx, id, policy)
	if err == nil {
		h.fire(ctx)
	}
	return err
}
