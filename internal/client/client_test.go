package client

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/MrSnakeDoc/toolshelf/internal/config"
	"github.com/MrSnakeDoc/toolshelf/internal/domain"
	"github.com/MrSnakeDoc/toolshelf/internal/httpserver"
	"github.com/MrSnakeDoc/toolshelf/internal/httpserver/deps"
	"github.com/MrSnakeDoc/toolshelf/internal/logger"
	"github.com/MrSnakeDoc/toolshelf/internal/pipeline"
	"github.com/MrSnakeDoc/toolshelf/internal/store"
	"github.com/MrSnakeDoc/toolshelf/internal/store/memory"
)

type stubAnalyzer struct {
	res *pipeline.Result
	err error
}

func (s stubAnalyzer) Analyze(context.Context, string) (*pipeline.Result, error) {
	return s.res, s.err
}

func newServer(t *testing.T, analyzer deps.Analyzer) *Client {
	t.Helper()
	log := logger.New("error", false)
	if analyzer == nil {
		analyzer = stubAnalyzer{err: &pipeline.Failure{Kind: pipeline.ExtractionConfigError, Message: "extraction is not configured"}}
	}
	srv := httpserver.New(&config.Config{ListenPort: ":0"}, log, deps.Deps{
		Logger:    log,
		StartTime: time.Now(),
		Store:     memory.New(),
		Analyzer:  analyzer,
	})
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return newClient(t, ts.URL)
}

func newClient(t *testing.T, base string) *Client {
	t.Helper()
	c, err := New(Options{BaseURL: base, RetryDelay: time.Millisecond}, logger.New("error", false))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return c
}

func TestNewValidatesBaseURL(t *testing.T) {
	for _, base := range []string{"", "localhost:8080", "ftp://x", "http://"} {
		if _, err := New(Options{BaseURL: base}, logger.New("error", false)); err == nil {
			t.Errorf("New(%q) error = nil", base)
		}
	}
}

func TestCatalogRoundTrip(t *testing.T) {
	ctx := context.Background()
	c := newServer(t, nil)

	cat, err := c.CreateCategory(ctx, domain.Category{Name: "Coding"})
	if err != nil {
		t.Fatalf("CreateCategory() error = %v", err)
	}
	other, err := c.CreateCategory(ctx, domain.Category{Name: "Research", SortOrder: 1})
	if err != nil {
		t.Fatalf("CreateCategory() error = %v", err)
	}

	tool, err := c.CreateTool(ctx, domain.Tool{ID: "tmp-ignored", Name: "Cursor", URL: "https://cursor.com", CategoryID: cat.ID})
	if err != nil {
		t.Fatalf("CreateTool() error = %v", err)
	}
	if tool.ID == "" || tool.ID == "tmp-ignored" {
		t.Errorf("CreateTool() id = %q, want server-assigned", tool.ID)
	}

	moved, err := c.MoveTool(ctx, tool.ID, cat.ID, other.ID, -1)
	if err != nil {
		t.Fatalf("MoveTool() error = %v", err)
	}
	if moved.CategoryID != other.ID {
		t.Errorf("MoveTool() category = %q, want %q", moved.CategoryID, other.ID)
	}

	tools, err := c.ListTools(ctx, store.ToolFilter{CategoryID: other.ID})
	if err != nil {
		t.Fatalf("ListTools() error = %v", err)
	}
	if len(tools) != 1 || tools[0].ID != tool.ID {
		t.Errorf("ListTools() = %+v", tools)
	}

	coll, err := c.CreateCollection(ctx, domain.Collection{Name: "Daily"})
	if err != nil {
		t.Fatalf("CreateCollection() error = %v", err)
	}
	coll, err = c.AddToCollection(ctx, coll.ID, tool.ID)
	if err != nil {
		t.Fatalf("AddToCollection() error = %v", err)
	}
	if diff := cmp.Diff([]string{tool.ID}, coll.ToolIDs); diff != "" {
		t.Errorf("collection members (-want +got):\n%s", diff)
	}

	if err := c.DeleteCategory(ctx, other.ID, store.RejectIfNonEmpty); !errors.Is(err, domain.ErrCategoryNotEmpty) {
		t.Errorf("DeleteCategory(reject) error = %v, want ErrCategoryNotEmpty", err)
	}
	if err := c.DeleteCategory(ctx, other.ID, store.Cascade); err != nil {
		t.Fatalf("DeleteCategory(cascade) error = %v", err)
	}

	if _, err := c.GetTool(ctx, tool.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("GetTool(deleted) error = %v, want ErrNotFound", err)
	}
	colls, err := c.ListCollections(ctx)
	if err != nil {
		t.Fatalf("ListCollections() error = %v", err)
	}
	if len(colls) != 1 || len(colls[0].ToolIDs) != 0 {
		t.Errorf("ListCollections() = %+v, want one empty collection", colls)
	}
}

func TestErrorsMatchDomainSentinels(t *testing.T) {
	ctx := context.Background()
	c := newServer(t, nil)

	_, err := c.CreateCategory(ctx, domain.Category{})
	if !errors.Is(err, domain.ErrValidation) {
		t.Errorf("CreateCategory(empty) error = %v, want ErrValidation", err)
	}
	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.Status != http.StatusBadRequest {
		t.Errorf("CreateCategory(empty) error = %#v, want 400 APIError", err)
	}

	if _, err := c.UpdateTool(ctx, "missing", domain.ToolPatch{}); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("UpdateTool(missing) error = %v, want ErrNotFound", err)
	}
}

func TestAnalyze(t *testing.T) {
	ctx := context.Background()

	t.Run("failure", func(t *testing.T) {
		c := newServer(t, nil)
		_, err := c.Analyze(ctx, "https://cursor.com")
		var f *pipeline.Failure
		if !errors.As(err, &f) || f.Kind != pipeline.ExtractionConfigError {
			t.Fatalf("Analyze() error = %v, want ExtractionConfigError failure", err)
		}
	})

	t.Run("success", func(t *testing.T) {
		rec := domain.ExtractedRecord{Name: "Cursor", URL: "https://cursor.com", CategoryID: "c1", ContentType: domain.KindTool}
		c := newServer(t, stubAnalyzer{res: &pipeline.Result{
			Record:  rec,
			Scraped: domain.ScrapedContent{URL: "https://cursor.com", Title: "Cursor"},
		}})
		got, err := c.Analyze(ctx, "https://cursor.com")
		if err != nil {
			t.Fatalf("Analyze() error = %v", err)
		}
		if got.Record.Name != "Cursor" || got.Scraped.Title != "Cursor" {
			t.Errorf("Analyze() = %+v", got)
		}
	})
}

func TestRetry(t *testing.T) {
	tests := []struct {
		name      string
		statuses  []int
		wantCalls int32
		wantErr   bool
	}{
		{"5xx then ok", []int{http.StatusBadGateway, http.StatusOK}, 2, false},
		{"5xx twice", []int{http.StatusInternalServerError, http.StatusServiceUnavailable}, 2, true},
		{"4xx not retried", []int{http.StatusNotFound, http.StatusOK}, 1, true},
		{"ok first", []int{http.StatusOK}, 1, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var calls atomic.Int32
			ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				n := calls.Add(1)
				status := tt.statuses[n-1]
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(status)
				if status == http.StatusOK {
					_, _ = w.Write([]byte(`{"success":true,"data":[]}`))
					return
				}
				_, _ = w.Write([]byte(`{"success":false,"error":"boom","errorType":"InternalError"}`))
			}))
			defer ts.Close()

			_, err := newClient(t, ts.URL).ListCategories(context.Background())
			if (err != nil) != tt.wantErr {
				t.Errorf("ListCategories() error = %v, wantErr %v", err, tt.wantErr)
			}
			if got := calls.Load(); got != tt.wantCalls {
				t.Errorf("server saw %d calls, want %d", got, tt.wantCalls)
			}
		})
	}
}

func TestRetryResendsBody(t *testing.T) {
	var bodies []string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		buf := make([]byte, 512)
		n, _ := r.Body.Read(buf)
		bodies = append(bodies, string(buf[:n]))
		if len(bodies) == 1 {
			w.WriteHeader(http.StatusBadGateway)
			_, _ = w.Write([]byte("<html>bad gateway</html>"))
			return
		}
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"success":true,"data":{"id":"c1","name":"Coding","toolIds":[]}}`))
	}))
	defer ts.Close()

	cat, err := newClient(t, ts.URL).CreateCategory(context.Background(), domain.Category{Name: "Coding"})
	if err != nil {
		t.Fatalf("CreateCategory() error = %v", err)
	}
	if cat.ID != "c1" {
		t.Errorf("CreateCategory() id = %q, want c1", cat.ID)
	}
	if len(bodies) != 2 || bodies[0] != bodies[1] || bodies[0] == "" {
		t.Errorf("request bodies = %q, want the same non-empty body twice", bodies)
	}
}

func TestNonJSONErrorResponse(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "forbidden by proxy", http.StatusForbidden)
	}))
	defer ts.Close()

	_, err := newClient(t, ts.URL).ListTools(context.Background(), store.ToolFilter{})
	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.Status != http.StatusForbidden {
		t.Fatalf("ListTools() error = %v, want 403 APIError", err)
	}
}
