// Package storetest holds the behavioral suite every store.Store
// implementation must pass.
package storetest

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/MrSnakeDoc/toolshelf/internal/domain"
	"github.com/MrSnakeDoc/toolshelf/internal/store"
)

// Factory returns a fresh, empty store. It should register cleanup on t.
type Factory func(t *testing.T) store.Store

// Run executes the suite against stores built by newStore.
func Run(t *testing.T, newStore Factory) {
	tests := []struct {
		name string
		fn   func(t *testing.T, s store.Store)
	}{
		{"CategoryCRUD", testCategoryCRUD},
		{"CreateToolAppendsToCategory", testCreateToolAppends},
		{"CreateToolValidation", testCreateToolValidation},
		{"ListToolsQuery", testListToolsQuery},
		{"MoveToolAppends", testMoveToolAppends},
		{"MoveToolAtPosition", testMoveToolAtPosition},
		{"MoveToolWithinCategory", testMoveToolWithinCategory},
		{"MoveToolConflict", testMoveToolConflict},
		{"UpdateToolRefiles", testUpdateToolRefiles},
		{"UpdateToolTrims", testUpdateToolTrims},
		{"DeleteCategoryCascade", testDeleteCategoryCascade},
		{"DeleteCategoryReject", testDeleteCategoryReject},
		{"DeleteToolCascades", testDeleteToolCascades},
		{"ReorderPermutationLaw", testReorderPermutationLaw},
		{"Collections", testCollections},
		{"RandomOperationsKeepIntegrity", testRandomOperations},
		{"ConcurrentMoves", testConcurrentMoves},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.fn(t, newStore(t))
		})
	}
}

func mustCategory(t *testing.T, s store.Store, name string) domain.Category {
	t.Helper()
	c, err := s.CreateCategory(context.Background(), domain.Category{Name: name})
	if err != nil {
		t.Fatalf("CreateCategory(%q) error = %v", name, err)
	}
	return c
}

func mustTool(t *testing.T, s store.Store, name, categoryID string) domain.Tool {
	t.Helper()
	tool, err := s.CreateTool(context.Background(), domain.Tool{
		Name:       name,
		URL:        "https://example.com/" + name,
		Type:       "API",
		CategoryID: categoryID,
		Tags:       []string{"ai", "AI", "Coding"},
	})
	if err != nil {
		t.Fatalf("CreateTool(%q) error = %v", name, err)
	}
	return tool
}

func mustCollection(t *testing.T, s store.Store, name string, toolIDs ...string) domain.Collection {
	t.Helper()
	c, err := s.CreateCollection(context.Background(), domain.Collection{Name: name, ToolIDs: toolIDs})
	if err != nil {
		t.Fatalf("CreateCollection(%q) error = %v", name, err)
	}
	return c
}

func toolIDs(t *testing.T, s store.Store, categoryID string) []string {
	t.Helper()
	c, err := s.GetCategory(context.Background(), categoryID)
	if err != nil {
		t.Fatalf("GetCategory(%q) error = %v", categoryID, err)
	}
	return c.ToolIDs
}

func assertIDs(t *testing.T, what string, want, got []string) {
	t.Helper()
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("%s mismatch (-want +got):\n%s", what, diff)
	}
}

func assertErr(t *testing.T, err, target error) {
	t.Helper()
	if !errors.Is(err, target) {
		t.Errorf("error = %v, want %v", err, target)
	}
}

// AssertIntegrity checks every cross-entity invariant observable through s.
func AssertIntegrity(t *testing.T, s store.Store) {
	t.Helper()
	ctx := context.Background()

	cats, err := s.ListCategories(ctx)
	if err != nil {
		t.Fatalf("ListCategories() error = %v", err)
	}
	tools, err := s.ListTools(ctx, store.ToolFilter{})
	if err != nil {
		t.Fatalf("ListTools() error = %v", err)
	}

	catIDs := make(map[string]bool, len(cats))
	listed := make(map[string]string) // tool id -> category listing it
	for _, c := range cats {
		catIDs[c.ID] = true
		for _, id := range c.ToolIDs {
			if prev, dup := listed[id]; dup {
				t.Errorf("tool %s listed by categories %s and %s", id, prev, c.ID)
			}
			listed[id] = c.ID
		}
	}

	for _, tool := range tools {
		if !catIDs[tool.CategoryID] {
			t.Errorf("tool %s references missing category %s", tool.ID, tool.CategoryID)
		}
		if listed[tool.ID] != tool.CategoryID {
			t.Errorf("tool %s has categoryId %s but is listed by %q", tool.ID, tool.CategoryID, listed[tool.ID])
		}
		delete(listed, tool.ID)
	}
	for id, catID := range listed {
		t.Errorf("category %s lists missing tool %s", catID, id)
	}

	colls, err := s.ListCollections(ctx)
	if err != nil {
		t.Fatalf("ListCollections() error = %v", err)
	}
	for _, c := range colls {
		for _, id := range c.ToolIDs {
			if _, err := s.GetTool(ctx, id); err != nil {
				t.Errorf("collection %s references tool %s: %v", c.ID, id, err)
			}
		}
	}
}

func testCategoryCRUD(t *testing.T, s store.Store) {
	ctx := context.Background()

	b := mustCategory(t, s, "Beta")
	a := mustCategory(t, s, "Alpha")
	if a.SortOrder <= b.SortOrder {
		t.Errorf("SortOrder = %d, want greater than %d", a.SortOrder, b.SortOrder)
	}
	if a.ToolIDs == nil || len(a.ToolIDs) != 0 {
		t.Errorf("new category ToolIDs = %#v, want empty", a.ToolIDs)
	}

	cats, err := s.ListCategories(ctx)
	if err != nil {
		t.Fatalf("ListCategories() error = %v", err)
	}
	if len(cats) != 2 || cats[0].ID != b.ID || cats[1].ID != a.ID {
		t.Errorf("ListCategories() = %+v, want Beta then Alpha", cats)
	}

	name, collapsed, order := "Gamma", true, -5
	got, err := s.UpdateCategory(ctx, a.ID, domain.CategoryPatch{Name: &name, Collapsed: &collapsed, SortOrder: &order})
	if err != nil {
		t.Fatalf("UpdateCategory() error = %v", err)
	}
	if got.Name != "Gamma" || !got.Collapsed || got.SortOrder != -5 {
		t.Errorf("UpdateCategory() = %+v", got)
	}
	cats, _ = s.ListCategories(ctx)
	if cats[0].ID != a.ID {
		t.Errorf("ListCategories()[0] = %s, want %s after sortOrder change", cats[0].ID, a.ID)
	}

	empty := ""
	_, err = s.UpdateCategory(ctx, a.ID, domain.CategoryPatch{Name: &empty})
	assertErr(t, err, store.ErrValidation)

	_, err = s.CreateCategory(ctx, domain.Category{Name: "  "})
	assertErr(t, err, store.ErrValidation)

	_, err = s.GetCategory(ctx, "missing")
	assertErr(t, err, store.ErrNotFound)
	_, err = s.UpdateCategory(ctx, "missing", domain.CategoryPatch{Name: &name})
	assertErr(t, err, store.ErrNotFound)
	assertErr(t, s.DeleteCategory(ctx, "missing", store.Cascade), store.ErrNotFound)

	if err := s.DeleteCategory(ctx, b.ID, store.RejectIfNonEmpty); err != nil {
		t.Fatalf("DeleteCategory(empty) error = %v", err)
	}
	_, err = s.GetCategory(ctx, b.ID)
	assertErr(t, err, store.ErrNotFound)
}

func testCreateToolAppends(t *testing.T, s store.Store) {
	ctx := context.Background()
	cat := mustCategory(t, s, "Coding")
	t1 := mustTool(t, s, "t1", cat.ID)
	t2 := mustTool(t, s, "t2", cat.ID)

	if t1.ID == "" || t1.ID == t2.ID {
		t.Fatalf("ids not assigned: %q %q", t1.ID, t2.ID)
	}
	if t1.CreatedAt.IsZero() {
		t.Errorf("CreatedAt not set")
	}
	if t1.Status != domain.StatusActive || t1.ContentType != domain.KindTool {
		t.Errorf("defaults = %s/%s, want active/tool", t1.Status, t1.ContentType)
	}
	assertIDs(t, "tags", []string{"AI", "Coding"}, t1.Tags)
	assertIDs(t, "category toolIds", []string{t1.ID, t2.ID}, toolIDs(t, s, cat.ID))

	got, err := s.GetTool(ctx, t1.ID)
	if err != nil {
		t.Fatalf("GetTool() error = %v", err)
	}
	if diff := cmp.Diff(t1.Tags, got.Tags); diff != "" || got.Name != "t1" || !got.CreatedAt.Equal(t1.CreatedAt) {
		t.Errorf("GetTool() = %+v, want %+v", got, t1)
	}

	listed, err := s.ListTools(ctx, store.ToolFilter{CategoryID: cat.ID})
	if err != nil {
		t.Fatalf("ListTools() error = %v", err)
	}
	if len(listed) != 2 || listed[0].ID != t1.ID {
		t.Errorf("ListTools() = %+v", listed)
	}
	_, err = s.ListTools(ctx, store.ToolFilter{CategoryID: "missing"})
	assertErr(t, err, store.ErrNotFound)
}

func testListToolsQuery(t *testing.T, s store.Store) {
	ctx := context.Background()
	cat := mustCategory(t, s, "Coding")
	mustTool(t, s, "zzz", cat.ID)
	loose := mustTool(t, s, "cursorless", cat.ID)
	exact := mustTool(t, s, "cursor", cat.ID)

	got, err := s.ListTools(ctx, store.ToolFilter{Query: "Cursor"})
	if err != nil {
		t.Fatalf("ListTools(query) error = %v", err)
	}
	ids := make([]string, len(got))
	for i, tool := range got {
		ids[i] = tool.ID
	}
	assertIDs(t, "ranked tools", []string{exact.ID, loose.ID}, ids)

	got, err = s.ListTools(ctx, store.ToolFilter{CategoryID: cat.ID, Query: "nothing-matches-this"})
	if err != nil {
		t.Fatalf("ListTools(no match) error = %v", err)
	}
	if len(got) != 0 {
		t.Errorf("ListTools(no match) = %+v, want empty", got)
	}
}

func testCreateToolValidation(t *testing.T, s store.Store) {
	ctx := context.Background()
	cat := mustCategory(t, s, "Coding")

	tests := []struct {
		name string
		tool domain.Tool
	}{
		{"missing name", domain.Tool{URL: "https://x", CategoryID: cat.ID}},
		{"missing url", domain.Tool{Name: "x", CategoryID: cat.ID}},
		{"missing category", domain.Tool{Name: "x", URL: "https://x"}},
		{"unknown category", domain.Tool{Name: "x", URL: "https://x", CategoryID: "nope"}},
		{"bad status", domain.Tool{Name: "x", URL: "https://x", CategoryID: cat.ID, Status: "retired"}},
		{"bad content type", domain.Tool{Name: "x", URL: "https://x", CategoryID: cat.ID, ContentType: "gadget"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.CreateTool(ctx, tt.tool)
			assertErr(t, err, store.ErrValidation)
		})
	}
	assertIDs(t, "category toolIds", []string{}, toolIDs(t, s, cat.ID))
}

// moveFixture builds catA = [t1, t2], catB = [t3].
func moveFixture(t *testing.T, s store.Store) (catA, catB domain.Category, t1, t2, t3 domain.Tool) {
	t.Helper()
	catA = mustCategory(t, s, "A")
	catB = mustCategory(t, s, "B")
	t1 = mustTool(t, s, "t1", catA.ID)
	t2 = mustTool(t, s, "t2", catA.ID)
	t3 = mustTool(t, s, "t3", catB.ID)
	return
}

func testMoveToolAppends(t *testing.T, s store.Store) {
	ctx := context.Background()
	catA, catB, t1, t2, t3 := moveFixture(t, s)

	moved, err := s.MoveTool(ctx, t1.ID, catA.ID, catB.ID, -1)
	if err != nil {
		t.Fatalf("MoveTool() error = %v", err)
	}
	if moved.CategoryID != catB.ID {
		t.Errorf("moved.CategoryID = %s, want %s", moved.CategoryID, catB.ID)
	}
	assertIDs(t, "catA", []string{t2.ID}, toolIDs(t, s, catA.ID))
	assertIDs(t, "catB", []string{t3.ID, t1.ID}, toolIDs(t, s, catB.ID))

	got, _ := s.GetTool(ctx, t1.ID)
	if got.CategoryID != catB.ID {
		t.Errorf("GetTool().CategoryID = %s, want %s", got.CategoryID, catB.ID)
	}
	AssertIntegrity(t, s)
}

func testMoveToolAtPosition(t *testing.T, s store.Store) {
	ctx := context.Background()
	catA, catB, t1, t2, t3 := moveFixture(t, s)

	if _, err := s.MoveTool(ctx, t2.ID, catA.ID, catB.ID, 0); err != nil {
		t.Fatalf("MoveTool() error = %v", err)
	}
	assertIDs(t, "catA", []string{t1.ID}, toolIDs(t, s, catA.ID))
	assertIDs(t, "catB", []string{t2.ID, t3.ID}, toolIDs(t, s, catB.ID))

	if _, err := s.MoveTool(ctx, t1.ID, catA.ID, catB.ID, 99); err != nil {
		t.Fatalf("MoveTool() error = %v", err)
	}
	assertIDs(t, "catB", []string{t2.ID, t3.ID, t1.ID}, toolIDs(t, s, catB.ID))
	AssertIntegrity(t, s)
}

func testMoveToolWithinCategory(t *testing.T, s store.Store) {
	ctx := context.Background()
	catA, _, t1, t2, _ := moveFixture(t, s)
	t4 := mustTool(t, s, "t4", catA.ID)

	if _, err := s.MoveTool(ctx, t4.ID, catA.ID, catA.ID, 0); err != nil {
		t.Fatalf("MoveTool() error = %v", err)
	}
	assertIDs(t, "catA", []string{t4.ID, t1.ID, t2.ID}, toolIDs(t, s, catA.ID))
	AssertIntegrity(t, s)
}

func testMoveToolConflict(t *testing.T, s store.Store) {
	ctx := context.Background()
	catA, catB, t1, t2, t3 := moveFixture(t, s)

	_, err := s.MoveTool(ctx, t1.ID, catB.ID, catA.ID, -1)
	assertErr(t, err, store.ErrConflict)
	_, err = s.MoveTool(ctx, t1.ID, catA.ID, "missing", -1)
	assertErr(t, err, store.ErrNotFound)
	_, err = s.MoveTool(ctx, "missing", catA.ID, catB.ID, -1)
	assertErr(t, err, store.ErrNotFound)

	assertIDs(t, "catA", []string{t1.ID, t2.ID}, toolIDs(t, s, catA.ID))
	assertIDs(t, "catB", []string{t3.ID}, toolIDs(t, s, catB.ID))
}

func testUpdateToolRefiles(t *testing.T, s store.Store) {
	ctx := context.Background()
	catA, catB, t1, t2, t3 := moveFixture(t, s)

	name, pinned := "renamed", true
	tags := []string{"video", " ", "Video"}
	got, err := s.UpdateTool(ctx, t1.ID, domain.ToolPatch{Name: &name, IsPinned: &pinned, Tags: &tags, CategoryID: &catB.ID})
	if err != nil {
		t.Fatalf("UpdateTool() error = %v", err)
	}
	if got.Name != "renamed" || !got.IsPinned || got.CategoryID != catB.ID || got.ID != t1.ID {
		t.Errorf("UpdateTool() = %+v", got)
	}
	if !got.CreatedAt.Equal(t1.CreatedAt) {
		t.Errorf("CreatedAt changed: %v -> %v", t1.CreatedAt, got.CreatedAt)
	}
	assertIDs(t, "tags", []string{"Video"}, got.Tags)
	assertIDs(t, "catA", []string{t2.ID}, toolIDs(t, s, catA.ID))
	assertIDs(t, "catB", []string{t3.ID, t1.ID}, toolIDs(t, s, catB.ID))

	missing := "missing"
	_, err = s.UpdateTool(ctx, t2.ID, domain.ToolPatch{CategoryID: &missing})
	assertErr(t, err, store.ErrValidation)
	_, err = s.UpdateTool(ctx, "missing", domain.ToolPatch{Name: &name})
	assertErr(t, err, store.ErrNotFound)

	status := domain.Status("retired")
	_, err = s.UpdateTool(ctx, t2.ID, domain.ToolPatch{Status: &status})
	assertErr(t, err, store.ErrValidation)
	AssertIntegrity(t, s)
}

func testUpdateToolTrims(t *testing.T, s store.Store) {
	ctx := context.Background()
	cat := mustCategory(t, s, "Coding")
	tool := mustTool(t, s, "Cursor", cat.ID)

	name, url := "  Cursor IDE ", " https://cursor.com/ide "
	got, err := s.UpdateTool(ctx, tool.ID, domain.ToolPatch{Name: &name, URL: &url})
	if err != nil {
		t.Fatalf("UpdateTool() error = %v", err)
	}
	if got.Name != "Cursor IDE" || got.URL != "https://cursor.com/ide" {
		t.Errorf("UpdateTool() = %q %q, want trimmed", got.Name, got.URL)
	}

	blank := "   "
	_, err = s.UpdateTool(ctx, tool.ID, domain.ToolPatch{Name: &blank})
	assertErr(t, err, store.ErrValidation)
	_, err = s.UpdateTool(ctx, tool.ID, domain.ToolPatch{URL: &blank})
	assertErr(t, err, store.ErrValidation)

	stored, err := s.GetTool(ctx, tool.ID)
	if err != nil {
		t.Fatalf("GetTool() error = %v", err)
	}
	if stored.Name != "Cursor IDE" {
		t.Errorf("stored name = %q after rejected update", stored.Name)
	}
}

func testDeleteCategoryCascade(t *testing.T, s store.Store) {
	ctx := context.Background()
	catA, catB, t1, t2, t3 := moveFixture(t, s)
	coll := mustCollection(t, s, "favorites", t1.ID, t3.ID, t2.ID)

	if err := s.DeleteCategory(ctx, catA.ID, store.Cascade); err != nil {
		t.Fatalf("DeleteCategory(cascade) error = %v", err)
	}
	for _, id := range []string{t1.ID, t2.ID} {
		if _, err := s.GetTool(ctx, id); !errors.Is(err, store.ErrNotFound) {
			t.Errorf("GetTool(%s) error = %v, want not found", id, err)
		}
	}
	got, err := s.GetCollection(ctx, coll.ID)
	if err != nil {
		t.Fatalf("GetCollection() error = %v", err)
	}
	assertIDs(t, "collection", []string{t3.ID}, got.ToolIDs)
	assertIDs(t, "catB", []string{t3.ID}, toolIDs(t, s, catB.ID))
	AssertIntegrity(t, s)
}

func testDeleteCategoryReject(t *testing.T, s store.Store) {
	ctx := context.Background()
	catA, _, t1, t2, _ := moveFixture(t, s)

	assertErr(t, s.DeleteCategory(ctx, catA.ID, store.RejectIfNonEmpty), store.ErrCategoryNotEmpty)
	assertIDs(t, "catA", []string{t1.ID, t2.ID}, toolIDs(t, s, catA.ID))
	AssertIntegrity(t, s)
}

func testDeleteToolCascades(t *testing.T, s store.Store) {
	ctx := context.Background()
	catA, _, t1, t2, t3 := moveFixture(t, s)
	c1 := mustCollection(t, s, "one", t1.ID, t3.ID)
	c2 := mustCollection(t, s, "two", t1.ID)

	if err := s.DeleteTool(ctx, t1.ID); err != nil {
		t.Fatalf("DeleteTool() error = %v", err)
	}
	assertIDs(t, "catA", []string{t2.ID}, toolIDs(t, s, catA.ID))
	got1, _ := s.GetCollection(ctx, c1.ID)
	got2, _ := s.GetCollection(ctx, c2.ID)
	assertIDs(t, "collection one", []string{t3.ID}, got1.ToolIDs)
	assertIDs(t, "collection two", []string{}, got2.ToolIDs)

	assertErr(t, s.DeleteTool(ctx, t1.ID), store.ErrNotFound)
	AssertIntegrity(t, s)
}

func testReorderPermutationLaw(t *testing.T, s store.Store) {
	ctx := context.Background()
	catA, _, t1, t2, t3 := moveFixture(t, s)
	t4 := mustTool(t, s, "t4", catA.ID)

	got, err := s.Reorder(ctx, catA.ID, []string{t4.ID, t2.ID, t1.ID})
	if err != nil {
		t.Fatalf("Reorder() error = %v", err)
	}
	want := []string{t4.ID, t2.ID, t1.ID}
	assertIDs(t, "Reorder result", want, got.ToolIDs)
	assertIDs(t, "stored order", want, toolIDs(t, s, catA.ID))

	rejected := map[string][]string{
		"foreign id":   {t4.ID, t2.ID, t3.ID},
		"missing id":   {t4.ID, t2.ID},
		"duplicate id": {t4.ID, t2.ID, t2.ID},
		"extra id":     {t4.ID, t2.ID, t1.ID, t3.ID},
		"unknown id":   {t4.ID, t2.ID, "ghost"},
		"empty":        {},
	}
	for name, order := range rejected {
		t.Run(name, func(t *testing.T) {
			_, err := s.Reorder(ctx, catA.ID, order)
			assertErr(t, err, store.ErrValidation)
			assertIDs(t, "stored order", want, toolIDs(t, s, catA.ID))
		})
	}

	_, err = s.Reorder(ctx, "missing", nil)
	assertErr(t, err, store.ErrNotFound)
}

func testCollections(t *testing.T, s store.Store) {
	ctx := context.Background()
	_, _, t1, t2, _ := moveFixture(t, s)

	_, err := s.CreateCollection(ctx, domain.Collection{Name: ""})
	assertErr(t, err, store.ErrValidation)
	_, err = s.CreateCollection(ctx, domain.Collection{Name: "bad", ToolIDs: []string{"ghost"}})
	assertErr(t, err, store.ErrValidation)

	c := mustCollection(t, s, "reading", t2.ID, t2.ID)
	assertIDs(t, "created", []string{t2.ID}, c.ToolIDs)

	c, err = s.AddToCollection(ctx, c.ID, t1.ID)
	if err != nil {
		t.Fatalf("AddToCollection() error = %v", err)
	}
	c, _ = s.AddToCollection(ctx, c.ID, t1.ID)
	assertIDs(t, "after add", []string{t2.ID, t1.ID}, c.ToolIDs)

	_, err = s.AddToCollection(ctx, c.ID, "ghost")
	assertErr(t, err, store.ErrNotFound)
	_, err = s.AddToCollection(ctx, "missing", t1.ID)
	assertErr(t, err, store.ErrNotFound)

	c, err = s.RemoveFromCollection(ctx, c.ID, t2.ID)
	if err != nil {
		t.Fatalf("RemoveFromCollection() error = %v", err)
	}
	assertIDs(t, "after remove", []string{t1.ID}, c.ToolIDs)

	name := "later"
	c, err = s.UpdateCollection(ctx, c.ID, domain.CollectionPatch{Name: &name})
	if err != nil || c.Name != "later" {
		t.Fatalf("UpdateCollection() = %+v, %v", c, err)
	}

	second := mustCollection(t, s, "second")
	list, _ := s.ListCollections(ctx)
	if len(list) != 2 || list[0].ID != c.ID || list[1].ID != second.ID {
		t.Errorf("ListCollections() = %+v", list)
	}

	if err := s.DeleteCollection(ctx, c.ID); err != nil {
		t.Fatalf("DeleteCollection() error = %v", err)
	}
	assertErr(t, s.DeleteCollection(ctx, c.ID), store.ErrNotFound)
	// Tools outlive the collections referencing them.
	if _, err := s.GetTool(ctx, t1.ID); err != nil {
		t.Errorf("GetTool() after collection delete error = %v", err)
	}
}

func testRandomOperations(t *testing.T, s store.Store) {
	ctx := context.Background()
	rng := rand.New(rand.NewSource(42))

	cats := []string{mustCategory(t, s, "c0").ID, mustCategory(t, s, "c1").ID, mustCategory(t, s, "c2").ID}
	coll := mustCollection(t, s, "all")
	var tools []string

	pick := func(ids []string) string { return ids[rng.Intn(len(ids))] }

	for i := 0; i < 120; i++ {
		switch op := rng.Intn(10); {
		case op < 4 && len(cats) > 0:
			tool := mustTool(t, s, fmt.Sprintf("tool-%d", i), pick(cats))
			tools = append(tools, tool.ID)
			if rng.Intn(2) == 0 {
				_, _ = s.AddToCollection(ctx, coll.ID, tool.ID)
			}
		case op < 7 && len(tools) > 0 && len(cats) > 0:
			id := pick(tools)
			current, err := s.GetTool(ctx, id)
			if err != nil {
				t.Fatalf("GetTool(%s) error = %v", id, err)
			}
			if _, err := s.MoveTool(ctx, id, current.CategoryID, pick(cats), rng.Intn(4)-1); err != nil {
				t.Fatalf("MoveTool() error = %v", err)
			}
		case op < 9 && len(tools) > 0:
			id := pick(tools)
			if err := s.DeleteTool(ctx, id); err != nil {
				t.Fatalf("DeleteTool(%s) error = %v", id, err)
			}
			tools = domain.RemoveID(tools, id)
		case len(cats) > 1:
			id := pick(cats)
			owned := toolIDs(t, s, id)
			if err := s.DeleteCategory(ctx, id, store.Cascade); err != nil {
				t.Fatalf("DeleteCategory(%s) error = %v", id, err)
			}
			for _, toolID := range owned {
				tools = domain.RemoveID(tools, toolID)
			}
			cats = domain.RemoveID(cats, id)
			cats = append(cats, mustCategory(t, s, fmt.Sprintf("c-%d", i)).ID)
		}
		AssertIntegrity(t, s)
		if t.Failed() {
			t.Fatalf("integrity violated after step %d", i)
		}
	}
}

func testConcurrentMoves(t *testing.T, s store.Store) {
	ctx := context.Background()
	catA := mustCategory(t, s, "A")
	catB := mustCategory(t, s, "B")
	var ids []string
	for i := 0; i < 8; i++ {
		ids = append(ids, mustTool(t, s, fmt.Sprintf("t%d", i), catA.ID).ID)
	}

	var wg sync.WaitGroup
	for w := 0; w < 4; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < 10; i++ {
				id := ids[(w+i)%len(ids)]
				tool, err := s.GetTool(ctx, id)
				if err != nil {
					continue
				}
				to := catA.ID
				if tool.CategoryID == catA.ID {
					to = catB.ID
				}
				// A concurrent mover may have won; conflicts are expected.
				_, err = s.MoveTool(ctx, id, tool.CategoryID, to, -1)
				if err != nil && !errors.Is(err, store.ErrConflict) {
					t.Errorf("MoveTool() error = %v", err)
				}
			}
		}(w)
	}
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 20; i++ {
			cats, err := s.ListCategories(ctx)
			if err != nil {
				t.Errorf("ListCategories() error = %v", err)
				return
			}
			seen := make(map[string]bool)
			for _, c := range cats {
				for _, id := range c.ToolIDs {
					if seen[id] {
						t.Errorf("tool %s listed twice", id)
					}
					seen[id] = true
				}
			}
			if len(seen) != len(ids) {
				t.Errorf("snapshot lists %d tools, want %d", len(seen), len(ids))
			}
		}
	}()
	wg.Wait()

	a := toolIDs(t, s, catA.ID)
	b := toolIDs(t, s, catB.ID)
	if len(a)+len(b) != len(ids) {
		t.Errorf("categories hold %d tools, want %d", len(a)+len(b), len(ids))
	}
	AssertIntegrity(t, s)
}
