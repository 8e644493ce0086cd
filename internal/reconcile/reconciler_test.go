package reconcile

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/MrSnakeDoc/toolshelf/internal/domain"
	"github.com/MrSnakeDoc/toolshelf/internal/logger"
	"github.com/MrSnakeDoc/toolshelf/internal/store"
	"github.com/MrSnakeDoc/toolshelf/internal/store/memory"
)

var errOffline = errors.New("server unreachable")

// flakyRemote is a real in-memory store whose mutations can be made to fail
// or observed while in flight.
type flakyRemote struct {
	store.Store
	fail     bool
	inFlight func()
}

func (f *flakyRemote) before() error {
	if f.inFlight != nil {
		f.inFlight()
	}
	if f.fail {
		return errOffline
	}
	return nil
}

func (f *flakyRemote) CreateCategory(ctx context.Context, c domain.Category) (domain.Category, error) {
	if err := f.before(); err != nil {
		return domain.Category{}, err
	}
	return f.Store.CreateCategory(ctx, c)
}

func (f *flakyRemote) DeleteCategory(ctx context.Context, id string, p store.DeletePolicy) error {
	if err := f.before(); err != nil {
		return err
	}
	return f.Store.DeleteCategory(ctx, id, p)
}

func (f *flakyRemote) CreateTool(ctx context.Context, t domain.Tool) (domain.Tool, error) {
	if err := f.before(); err != nil {
		return domain.Tool{}, err
	}
	return f.Store.CreateTool(ctx, t)
}

func (f *flakyRemote) UpdateTool(ctx context.Context, id string, p domain.ToolPatch) (domain.Tool, error) {
	if err := f.before(); err != nil {
		return domain.Tool{}, err
	}
	return f.Store.UpdateTool(ctx, id, p)
}

func (f *flakyRemote) MoveTool(ctx context.Context, id, from, to string, pos int) (domain.Tool, error) {
	if err := f.before(); err != nil {
		return domain.Tool{}, err
	}
	return f.Store.MoveTool(ctx, id, from, to, pos)
}

func (f *flakyRemote) DeleteTool(ctx context.Context, id string) error {
	if err := f.before(); err != nil {
		return err
	}
	return f.Store.DeleteTool(ctx, id)
}

func (f *flakyRemote) AddToCollection(ctx context.Context, cid, tid string) (domain.Collection, error) {
	if err := f.before(); err != nil {
		return domain.Collection{}, err
	}
	return f.Store.AddToCollection(ctx, cid, tid)
}

type fixture struct {
	remote *flakyRemote
	r      *Reconciler
	coding domain.Category
	other  domain.Category
	cursor domain.Tool
	daily  domain.Collection
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	mem := memory.New()

	coding, err := mem.CreateCategory(ctx, domain.Category{Name: "Coding"})
	if err != nil {
		t.Fatal(err)
	}
	other, err := mem.CreateCategory(ctx, domain.Category{Name: "Research", SortOrder: 1})
	if err != nil {
		t.Fatal(err)
	}
	cursor, err := mem.CreateTool(ctx, domain.Tool{Name: "Cursor", URL: "https://cursor.com", CategoryID: coding.ID})
	if err != nil {
		t.Fatal(err)
	}
	daily, err := mem.CreateCollection(ctx, domain.Collection{Name: "Daily", ToolIDs: []string{cursor.ID}})
	if err != nil {
		t.Fatal(err)
	}

	f := &fixture{remote: &flakyRemote{Store: mem}, coding: coding, other: other, cursor: cursor, daily: daily}
	f.r = New(f.remote, logger.New("error", false))
	if err := f.r.Load(ctx); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	return f
}

func categoryIDs(c Catalog, id string) []string {
	for _, cat := range c.Categories {
		if cat.ID == id {
			return cat.ToolIDs
		}
	}
	return nil
}

func TestLoad(t *testing.T) {
	f := newFixture(t)
	snap := f.r.Snapshot()
	if len(snap.Categories) != 2 || len(snap.Tools) != 1 || len(snap.Collections) != 1 {
		t.Fatalf("Snapshot() = %+v", snap)
	}
	if diff := cmp.Diff([]string{f.cursor.ID}, categoryIDs(snap, f.coding.ID)); diff != "" {
		t.Errorf("coding tools (-want +got):\n%s", diff)
	}

	// Snapshots are copies.
	snap.Categories[0].ToolIDs[0] = "mutated"
	if got := f.r.Snapshot().Categories[0].ToolIDs[0]; got == "mutated" {
		t.Error("Snapshot() shares memory with the local copy")
	}
}

func TestCreateToolIsVisibleBeforeServerAnswers(t *testing.T) {
	f := newFixture(t)
	var tentative Catalog
	f.remote.inFlight = func() { tentative = f.r.Snapshot() }

	created, err := f.r.CreateTool(context.Background(), domain.Tool{Name: "Claude", URL: "https://claude.ai", CategoryID: f.coding.ID})
	if err != nil {
		t.Fatalf("CreateTool() error = %v", err)
	}

	ids := categoryIDs(tentative, f.coding.ID)
	if len(ids) != 2 || !IsTemp(ids[1]) {
		t.Fatalf("tentative coding tools = %v, want a temp id appended", ids)
	}
	tempID := ids[1]

	if IsTemp(created.ID) {
		t.Fatalf("CreateTool() id = %q, want server id", created.ID)
	}
	if got := f.r.ResolveID(tempID); got != created.ID {
		t.Errorf("ResolveID(%q) = %q, want %q", tempID, got, created.ID)
	}
	if got := f.r.ResolveID(f.cursor.ID); got != f.cursor.ID {
		t.Errorf("ResolveID(server id) = %q, want unchanged", got)
	}

	snap := f.r.Snapshot()
	if diff := cmp.Diff([]string{f.cursor.ID, created.ID}, categoryIDs(snap, f.coding.ID)); diff != "" {
		t.Errorf("coding tools after sync (-want +got):\n%s", diff)
	}
	for _, tool := range snap.Tools {
		if IsTemp(tool.ID) {
			t.Errorf("temp tool %q left in local copy", tool.ID)
		}
	}

	// The temp id keeps working for later calls.
	if _, err := f.r.AddToCollection(context.Background(), f.daily.ID, tempID); err != nil {
		t.Fatalf("AddToCollection(temp id) error = %v", err)
	}
	coll, err := f.remote.GetCollection(context.Background(), f.daily.ID)
	if err != nil {
		t.Fatal(err)
	}
	if !coll.Contains(created.ID) {
		t.Errorf("server collection = %v, want %q", coll.ToolIDs, created.ID)
	}
}

func TestFailedMutationsRollBack(t *testing.T) {
	ctx := context.Background()
	tests := []struct {
		name string
		run  func(f *fixture) error
	}{
		{"create tool", func(f *fixture) error {
			_, err := f.r.CreateTool(ctx, domain.Tool{Name: "Claude", URL: "https://claude.ai", CategoryID: f.coding.ID})
			return err
		}},
		{"update tool", func(f *fixture) error {
			name := "Renamed"
			_, err := f.r.UpdateTool(ctx, f.cursor.ID, domain.ToolPatch{Name: &name, CategoryID: &f.other.ID})
			return err
		}},
		{"move tool", func(f *fixture) error {
			_, err := f.r.MoveTool(ctx, f.cursor.ID, f.other.ID, 0)
			return err
		}},
		{"delete tool", func(f *fixture) error {
			return f.r.DeleteTool(ctx, f.cursor.ID)
		}},
		{"create category", func(f *fixture) error {
			_, err := f.r.CreateCategory(ctx, domain.Category{Name: "Video"})
			return err
		}},
		{"cascade delete category", func(f *fixture) error {
			return f.r.DeleteCategory(ctx, f.coding.ID, store.Cascade)
		}},
		{"add to collection", func(f *fixture) error {
			_, err := f.r.AddToCollection(ctx, f.daily.ID, "some-tool")
			return err
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			before := f.r.Snapshot()
			f.remote.fail = true

			var changed bool
			f.remote.inFlight = func() { changed = !cmp.Equal(before, f.r.Snapshot()) }

			err := tt.run(f)
			var syncErr *SyncError
			if !errors.As(err, &syncErr) || !errors.Is(err, errOffline) {
				t.Fatalf("error = %v, want *SyncError wrapping the remote error", err)
			}
			if !strings.Contains(err.Error(), "rolled back") {
				t.Errorf("error %q does not mention the rollback", err)
			}
			if !changed {
				t.Error("local copy was not changed before the remote call")
			}
			if diff := cmp.Diff(before, f.r.Snapshot()); diff != "" {
				t.Errorf("local copy not restored (-before +after):\n%s", diff)
			}
		})
	}
}

func TestServerResponseIsAuthoritative(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	// The store normalizes tags; the local copy must end up with the server's version.
	tags := []string{"ai", "AI", " coding "}
	updated, err := f.r.UpdateTool(ctx, f.cursor.ID, domain.ToolPatch{Tags: &tags})
	if err != nil {
		t.Fatalf("UpdateTool() error = %v", err)
	}
	for _, tool := range f.r.Snapshot().Tools {
		if tool.ID == f.cursor.ID {
			if diff := cmp.Diff(updated.Tags, tool.Tags); diff != "" {
				t.Errorf("local tags differ from server (-server +local):\n%s", diff)
			}
		}
	}
}

func TestRejectedDeleteKeepsCategory(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	err := f.r.DeleteCategory(ctx, f.coding.ID, store.RejectIfNonEmpty)
	if !errors.Is(err, domain.ErrCategoryNotEmpty) {
		t.Fatalf("DeleteCategory(reject) error = %v, want ErrCategoryNotEmpty", err)
	}
	if ids := categoryIDs(f.r.Snapshot(), f.coding.ID); len(ids) != 1 {
		t.Errorf("coding tools = %v, want category kept", ids)
	}

	if err := f.r.DeleteCategory(ctx, f.other.ID, store.RejectIfNonEmpty); err != nil {
		t.Fatalf("DeleteCategory(empty) error = %v", err)
	}
	if len(f.r.Snapshot().Categories) != 1 {
		t.Error("empty category not removed locally")
	}
}

func TestCascadeDeleteCleansCollections(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	if err := f.r.DeleteCategory(ctx, f.coding.ID, store.Cascade); err != nil {
		t.Fatalf("DeleteCategory(cascade) error = %v", err)
	}
	snap := f.r.Snapshot()
	if len(snap.Tools) != 0 {
		t.Errorf("tools = %+v, want none", snap.Tools)
	}
	if len(snap.Collections[0].ToolIDs) != 0 {
		t.Errorf("collection members = %v, want none", snap.Collections[0].ToolIDs)
	}
}

func TestMoveTool(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	moved, err := f.r.MoveTool(ctx, f.cursor.ID, f.other.ID, -1)
	if err != nil {
		t.Fatalf("MoveTool() error = %v", err)
	}
	if moved.CategoryID != f.other.ID {
		t.Errorf("MoveTool() category = %q", moved.CategoryID)
	}
	snap := f.r.Snapshot()
	if len(categoryIDs(snap, f.coding.ID)) != 0 {
		t.Errorf("source still lists the tool: %v", categoryIDs(snap, f.coding.ID))
	}
	if diff := cmp.Diff([]string{f.cursor.ID}, categoryIDs(snap, f.other.ID)); diff != "" {
		t.Errorf("destination tools (-want +got):\n%s", diff)
	}

	if _, err := f.r.MoveTool(ctx, "unknown", f.other.ID, -1); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("MoveTool(unknown) error = %v, want ErrNotFound", err)
	}
}

func TestMoveWithinCategoryMatchesServer(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	second, err := f.r.CreateTool(ctx, domain.Tool{Name: "Zed", URL: "https://zed.dev", CategoryID: f.coding.ID})
	if err != nil {
		t.Fatalf("CreateTool() error = %v", err)
	}

	tests := []struct {
		name     string
		toolID   string
		position int
		want     []string
	}{
		{"append", f.cursor.ID, -1, []string{second.ID, f.cursor.ID}},
		{"to front", f.cursor.ID, 0, []string{f.cursor.ID, second.ID}},
		{"past end", f.cursor.ID, 5, []string{second.ID, f.cursor.ID}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := f.r.MoveTool(ctx, tt.toolID, f.coding.ID, tt.position); err != nil {
				t.Fatalf("MoveTool() error = %v", err)
			}
			server, err := f.remote.GetCategory(ctx, f.coding.ID)
			if err != nil {
				t.Fatalf("GetCategory() error = %v", err)
			}
			if diff := cmp.Diff(tt.want, server.ToolIDs); diff != "" {
				t.Errorf("server order (-want +got):\n%s", diff)
			}
			if diff := cmp.Diff(server.ToolIDs, categoryIDs(f.r.Snapshot(), f.coding.ID)); diff != "" {
				t.Errorf("local order differs from server (-server +local):\n%s", diff)
			}
		})
	}
}

func TestCreateCategoryThenToolByTempID(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	var tempCat string
	f.remote.inFlight = func() {
		for _, c := range f.r.Snapshot().Categories {
			if IsTemp(c.ID) {
				tempCat = c.ID
			}
		}
	}
	cat, err := f.r.CreateCategory(ctx, domain.Category{Name: "Video"})
	if err != nil {
		t.Fatalf("CreateCategory() error = %v", err)
	}
	f.remote.inFlight = nil
	if tempCat == "" {
		t.Fatal("no tentative category observed")
	}

	tool, err := f.r.CreateTool(ctx, domain.Tool{Name: "YouTube", URL: "https://youtube.com", CategoryID: tempCat})
	if err != nil {
		t.Fatalf("CreateTool(temp category) error = %v", err)
	}
	if tool.CategoryID != cat.ID {
		t.Errorf("CreateTool() category = %q, want %q", tool.CategoryID, cat.ID)
	}
}
