package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/MrSnakeDoc/toolshelf/internal/config"
	"github.com/MrSnakeDoc/toolshelf/internal/domain"
	"github.com/MrSnakeDoc/toolshelf/internal/httpserver"
	"github.com/MrSnakeDoc/toolshelf/internal/httpserver/deps"
	"github.com/MrSnakeDoc/toolshelf/internal/logger"
	"github.com/MrSnakeDoc/toolshelf/internal/pipeline"
	"github.com/MrSnakeDoc/toolshelf/internal/store"
	"github.com/MrSnakeDoc/toolshelf/internal/store/memory"
)

type stubAnalyzer struct{}

func (stubAnalyzer) Analyze(context.Context, string) (*pipeline.Result, error) {
	return nil, &pipeline.Failure{Kind: pipeline.FetchFailed, Message: "upstream returned 503"}
}

func startServer(t *testing.T) (string, store.Store) {
	t.Helper()
	log := logger.New("error", false)
	st := memory.New()
	srv := httpserver.New(&config.Config{ListenPort: ":0"}, log, deps.Deps{
		Logger:    log,
		StartTime: time.Now(),
		Store:     st,
		Analyzer:  stubAnalyzer{},
	})
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return ts.URL, st
}

func run(t *testing.T, server string, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	root := newRootCmd()
	root.SetOut(&stdout)
	root.SetErr(&stderr)
	root.SetArgs(append([]string{"--server", server, "--timeout", "10s"}, args...))
	err := root.Execute()
	return stdout.String(), stderr.String(), err
}

func TestCatalogCommands(t *testing.T) {
	server, st := startServer(t)
	ctx := context.Background()

	steps := [][]string{
		{"categories", "add", "Coding"},
		{"categories", "add", "Research", "--sort", "1"},
		{"tools", "add", "https://cursor.com", "--name", "Cursor", "--category", "coding", "--tags", "ai,editor"},
		{"collections", "add", "Daily", "Cursor"},
		{"tools", "mv", "Cursor", "Research"},
	}
	for _, args := range steps {
		if _, stderr, err := run(t, server, args...); err != nil {
			t.Fatalf("%v: error = %v (stderr %q)", args, err, stderr)
		}
	}

	tools, err := st.ListTools(ctx, store.ToolFilter{})
	if err != nil || len(tools) != 1 {
		t.Fatalf("ListTools() = %+v, %v", tools, err)
	}
	cats, _ := st.ListCategories(ctx)
	if tools[0].CategoryID != cats[1].ID {
		t.Errorf("tool filed under %q, want Research %q", tools[0].CategoryID, cats[1].ID)
	}

	out, _, err := run(t, server, "tools", "list", "--category", "research")
	if err != nil {
		t.Fatalf("tools list error = %v", err)
	}
	if !strings.Contains(out, "Cursor") || !strings.Contains(out, "https://cursor.com") {
		t.Errorf("tools list output = %q", out)
	}

	out, _, err = run(t, server, "--json", "collections", "list")
	if err != nil {
		t.Fatalf("collections list error = %v", err)
	}
	var colls []domain.Collection
	if err := json.Unmarshal([]byte(out), &colls); err != nil {
		t.Fatalf("collections list is not JSON: %v\n%s", err, out)
	}
	if len(colls) != 1 || len(colls[0].ToolIDs) != 1 {
		t.Errorf("collections = %+v", colls)
	}

	if _, _, err := run(t, server, "categories", "rm", "Research"); err == nil || !strings.Contains(err.Error(), "rolled back") {
		t.Errorf("categories rm non-empty error = %v, want rejected sync", err)
	}
	if _, _, err := run(t, server, "categories", "rm", "Research", "--cascade"); err != nil {
		t.Fatalf("categories rm --cascade error = %v", err)
	}
	if tools, _ := st.ListTools(ctx, store.ToolFilter{}); len(tools) != 0 {
		t.Errorf("tools after cascade = %+v", tools)
	}
}

func TestToolsAddFallsBackWhenAnalysisFails(t *testing.T) {
	server, st := startServer(t)
	if _, _, err := run(t, server, "categories", "add", "Coding"); err != nil {
		t.Fatal(err)
	}

	_, stderr, err := run(t, server, "tools", "add", "https://example.com", "--analyze", "--name", "Example", "--category", "Coding")
	if err != nil {
		t.Fatalf("tools add error = %v", err)
	}
	if !strings.Contains(stderr, "FetchFailed") {
		t.Errorf("stderr = %q, want the analysis failure reported", stderr)
	}
	if tools, _ := st.ListTools(context.Background(), store.ToolFilter{}); len(tools) != 1 || tools[0].Name != "Example" {
		t.Errorf("tools = %+v", tools)
	}
}

func TestLookup(t *testing.T) {
	ids := []string{"a1", "b2", "c3"}
	names := []string{"Coding", "Research", "coding"}
	tests := []struct {
		ref     string
		want    string
		wantErr bool
	}{
		{"b2", "b2", false},
		{"research", "b2", false},
		{" Research ", "b2", false},
		{"coding", "", true},
		{"missing", "", true},
	}
	for _, tt := range tests {
		got, err := lookup("category", tt.ref, ids, names)
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Errorf("lookup(%q) = %q, %v; want %q, wantErr %v", tt.ref, got, err, tt.want, tt.wantErr)
		}
	}
}
