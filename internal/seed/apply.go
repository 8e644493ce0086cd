package seed

import (
	"context"
	"fmt"
	"strings"

	"github.com/MrSnakeDoc/toolshelf/internal/classify"
	"github.com/MrSnakeDoc/toolshelf/internal/domain"
	"github.com/MrSnakeDoc/toolshelf/internal/logger"
	"github.com/MrSnakeDoc/toolshelf/internal/store"
)

// Summary counts what Apply created.
type Summary struct {
	Categories  int
	Tools       int
	Collections int
}

// Apply writes f into st when st has no categories yet. A populated catalog
// is left untouched and reported as skipped.
func Apply(ctx context.Context, st store.Store, f File, log logger.Logger) (sum Summary, skipped bool, err error) {
	existing, err := st.ListCategories(ctx)
	if err != nil {
		return Summary{}, false, fmt.Errorf("seed: list categories: %w", err)
	}
	if len(existing) > 0 {
		log.Info("catalog already populated, seed skipped", logger.Int("categories", len(existing)))
		return Summary{}, true, nil
	}

	// Collections reference tools by lower-cased name or by URL.
	byRef := make(map[string]string)

	for _, cs := range f.Categories {
		cat, err := st.CreateCategory(ctx, domain.Category{Name: cs.Name, SortOrder: cs.SortOrder, Collapsed: cs.Collapsed})
		if err != nil {
			return sum, false, fmt.Errorf("seed: category %q: %w", cs.Name, err)
		}
		sum.Categories++

		for _, ts := range cs.Tools {
			t, err := st.CreateTool(ctx, ts.tool(cat.ID))
			if err != nil {
				return sum, false, fmt.Errorf("seed: tool %q: %w", ts.Name, err)
			}
			sum.Tools++
			byRef[strings.ToLower(t.Name)] = t.ID
			byRef[t.URL] = t.ID
		}
	}

	for _, cs := range f.Collections {
		ids := make([]string, 0, len(cs.Tools))
		for _, ref := range cs.Tools {
			id, ok := byRef[ref]
			if !ok {
				id, ok = byRef[strings.ToLower(ref)]
			}
			if !ok {
				return sum, false, fmt.Errorf("seed: collection %q: %w", cs.Name, domain.Invalid("tools", "references an unknown tool "+ref))
			}
			ids = append(ids, id)
		}
		if _, err := st.CreateCollection(ctx, domain.Collection{Name: cs.Name, ToolIDs: ids}); err != nil {
			return sum, false, fmt.Errorf("seed: collection %q: %w", cs.Name, err)
		}
		sum.Collections++
	}

	log.Info("catalog seeded",
		logger.Int("categories", sum.Categories),
		logger.Int("tools", sum.Tools),
		logger.Int("collections", sum.Collections))
	return sum, false, nil
}

func (ts ToolSeed) tool(categoryID string) domain.Tool {
	t := domain.Tool{
		Name:         ts.Name,
		URL:          ts.URL,
		Type:         domain.NormalizeToolType(ts.Type),
		Summary:      ts.Summary,
		WhatItIs:     ts.WhatItIs,
		Capabilities: ts.Capabilities,
		BestFor:      ts.BestFor,
		Tags:         ts.Tags,
		CategoryID:   categoryID,
		IsPinned:     ts.Pinned,
		Notes:        ts.Notes,
	}
	if s, ok := domain.ParseStatus(ts.Status); ok {
		t.Status = s
	}
	if k, ok := domain.ParseContentKind(ts.ContentType); ok {
		t.ContentType = k
	} else {
		t.ContentType = classify.ClassifyString(ts.URL)
	}
	return t
}
