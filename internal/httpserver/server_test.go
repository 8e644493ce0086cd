package httpserver

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/MrSnakeDoc/toolshelf/internal/config"
	"github.com/MrSnakeDoc/toolshelf/internal/domain"
	"github.com/MrSnakeDoc/toolshelf/internal/httpserver/deps"
	"github.com/MrSnakeDoc/toolshelf/internal/logger"
	"github.com/MrSnakeDoc/toolshelf/internal/pipeline"
	"github.com/MrSnakeDoc/toolshelf/internal/store/memory"
)

type fakeAnalyzer struct {
	res *pipeline.Result
	err error
}

func (f fakeAnalyzer) Analyze(context.Context, string) (*pipeline.Result, error) {
	return f.res, f.err
}

type response struct {
	Success   bool            `json:"success"`
	Data      json.RawMessage `json:"data"`
	Scraped   json.RawMessage `json:"scraped"`
	Error     string          `json:"error"`
	ErrorType string          `json:"errorType"`
}

type harness struct {
	t *testing.T
	h http.Handler
}

func newHarness(t *testing.T, d deps.Deps) *harness {
	t.Helper()
	log := logger.New("error", false)
	d.Logger = log
	d.StartTime = time.Now()
	if d.Store == nil {
		d.Store = memory.New()
	}
	if d.Analyzer == nil {
		d.Analyzer = fakeAnalyzer{err: &pipeline.Failure{Kind: pipeline.ExtractionConfigError, Message: "extraction is not configured"}}
	}
	srv := New(&config.Config{ListenPort: ":0"}, log, d)
	return &harness{t: t, h: srv.Handler()}
}

func (h *harness) do(method, path string, body any) (int, response) {
	h.t.Helper()
	var buf bytes.Buffer
	switch b := body.(type) {
	case nil:
	case string:
		buf.WriteString(b)
	default:
		if err := json.NewEncoder(&buf).Encode(b); err != nil {
			h.t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.h.ServeHTTP(rec, req)

	var resp response
	if rec.Body.Len() > 0 {
		if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
			h.t.Fatalf("%s %s: invalid json %q: %v", method, path, rec.Body.String(), err)
		}
	}
	return rec.Code, resp
}

func (h *harness) decode(raw json.RawMessage, dst any) {
	h.t.Helper()
	if err := json.Unmarshal(raw, dst); err != nil {
		h.t.Fatalf("decode data %s: %v", raw, err)
	}
}

func TestCatalogRoundTrip(t *testing.T) {
	h := newHarness(t, deps.Deps{})

	code, resp := h.do(http.MethodPost, "/categories", map[string]any{"name": "Coding"})
	if code != http.StatusCreated || !resp.Success {
		t.Fatalf("create category = %d %+v", code, resp)
	}
	var coding domain.Category
	h.decode(resp.Data, &coding)

	_, resp = h.do(http.MethodPost, "/categories", map[string]any{"name": "Design"})
	var design domain.Category
	h.decode(resp.Data, &design)

	code, resp = h.do(http.MethodPost, "/tools", map[string]any{
		"name":       "Cursor",
		"url":        "https://cursor.com",
		"categoryId": coding.ID,
		"tags":       []string{"AI", "ai", "Code"},
	})
	if code != http.StatusCreated {
		t.Fatalf("create tool = %d %+v", code, resp)
	}
	var cursor domain.Tool
	h.decode(resp.Data, &cursor)
	if cursor.ID == "" || len(cursor.Tags) != 2 || cursor.Status != domain.StatusActive {
		t.Errorf("created tool = %+v", cursor)
	}

	code, resp = h.do(http.MethodPost, "/tools/"+cursor.ID+"/move", map[string]any{
		"fromCategoryId": coding.ID,
		"toCategoryId":   design.ID,
	})
	if code != http.StatusOK {
		t.Fatalf("move = %d %+v", code, resp)
	}

	_, resp = h.do(http.MethodGet, "/categories/"+design.ID, nil)
	h.decode(resp.Data, &design)
	if len(design.ToolIDs) != 1 || design.ToolIDs[0] != cursor.ID {
		t.Errorf("design.ToolIDs = %v", design.ToolIDs)
	}

	code, resp = h.do(http.MethodGet, "/tools?categoryId="+coding.ID, nil)
	var listed []domain.Tool
	h.decode(resp.Data, &listed)
	if code != http.StatusOK || len(listed) != 0 {
		t.Errorf("list coding tools = %d %v", code, listed)
	}

	code, resp = h.do(http.MethodPost, "/collections", map[string]any{"name": "Favorites", "toolIds": []string{cursor.ID}})
	if code != http.StatusCreated {
		t.Fatalf("create collection = %d %+v", code, resp)
	}
	var favs domain.Collection
	h.decode(resp.Data, &favs)

	code, resp = h.do(http.MethodDelete, "/categories/"+design.ID, nil)
	if code != http.StatusConflict || resp.ErrorType != "CategoryNotEmpty" {
		t.Errorf("delete non-empty = %d %+v", code, resp)
	}

	code, _ = h.do(http.MethodDelete, "/categories/"+design.ID+"?policy=cascade", nil)
	if code != http.StatusOK {
		t.Errorf("cascade delete = %d", code)
	}

	code, _ = h.do(http.MethodGet, "/tools/"+cursor.ID, nil)
	if code != http.StatusNotFound {
		t.Errorf("get deleted tool = %d, want 404", code)
	}
	_, resp = h.do(http.MethodGet, "/collections/"+favs.ID, nil)
	h.decode(resp.Data, &favs)
	if len(favs.ToolIDs) != 0 {
		t.Errorf("collection still references deleted tool: %v", favs.ToolIDs)
	}
}

func TestErrorMapping(t *testing.T) {
	h := newHarness(t, deps.Deps{})
	_, resp := h.do(http.MethodPost, "/categories", map[string]any{"name": "Coding"})
	var coding domain.Category
	h.decode(resp.Data, &coding)
	_, resp = h.do(http.MethodPost, "/categories", map[string]any{"name": "Design"})
	var design domain.Category
	h.decode(resp.Data, &design)
	_, resp = h.do(http.MethodPost, "/tools", map[string]any{"name": "A", "url": "https://a.dev", "categoryId": coding.ID})
	var tool domain.Tool
	h.decode(resp.Data, &tool)

	tests := []struct {
		name     string
		method   string
		path     string
		body     any
		wantCode int
		wantType string
	}{
		{"unknown category", http.MethodGet, "/categories/nope", nil, http.StatusNotFound, "NotFound"},
		{"blank name", http.MethodPost, "/categories", map[string]any{"name": " "}, http.StatusBadRequest, "ValidationError"},
		{"unknown field", http.MethodPost, "/categories", map[string]any{"label": "x"}, http.StatusBadRequest, "BadRequest"},
		{"malformed json", http.MethodPost, "/tools", "{", http.StatusBadRequest, "BadRequest"},
		{"tool in unknown category", http.MethodPost, "/tools", map[string]any{"name": "B", "url": "https://b.dev", "categoryId": "nope"}, http.StatusBadRequest, "ValidationError"},
		{"move from wrong category", http.MethodPost, "/tools/" + tool.ID + "/move", map[string]any{"fromCategoryId": design.ID, "toCategoryId": coding.ID}, http.StatusConflict, "Conflict"},
		{"move to missing category", http.MethodPost, "/tools/" + tool.ID + "/move", map[string]any{"fromCategoryId": coding.ID, "toCategoryId": "nope"}, http.StatusNotFound, "NotFound"},
		{"reorder not a permutation", http.MethodPut, "/categories/" + coding.ID + "/order", map[string]any{"toolIds": []string{}}, http.StatusBadRequest, "ValidationError"},
		{"bad delete policy", http.MethodDelete, "/categories/" + coding.ID + "?policy=purge", nil, http.StatusBadRequest, "ValidationError"},
		{"unknown route", http.MethodGet, "/nope", nil, http.StatusNotFound, "NotFound"},
		{"wrong method", http.MethodPut, "/tools", nil, http.StatusMethodNotAllowed, "MethodNotAllowed"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, resp := h.do(tt.method, tt.path, tt.body)
			if code != tt.wantCode || resp.ErrorType != tt.wantType || resp.Success {
				t.Errorf("%s %s = %d %+v, want %d %s", tt.method, tt.path, code, resp, tt.wantCode, tt.wantType)
			}
		})
	}
}

func TestAnalyzeURL(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		h := newHarness(t, deps.Deps{Analyzer: fakeAnalyzer{res: &pipeline.Result{
			Record:  domain.ExtractedRecord{Name: "Cursor", URL: "https://cursor.com", CategoryID: "c1", ContentType: domain.KindTool},
			Scraped: domain.ScrapedContent{URL: "https://cursor.com", Title: "Cursor", Keywords: []string{}},
		}}})
		code, resp := h.do(http.MethodPost, "/analyze-url", map[string]any{"url": "https://cursor.com"})
		if code != http.StatusOK || !resp.Success {
			t.Fatalf("analyze = %d %+v", code, resp)
		}
		var rec domain.ExtractedRecord
		h.decode(resp.Data, &rec)
		if rec.Name != "Cursor" {
			t.Errorf("record = %+v", rec)
		}
		var scraped domain.ScrapedContent
		h.decode(resp.Scraped, &scraped)
		if scraped.Title != "Cursor" {
			t.Errorf("scraped = %+v", scraped)
		}
	})

	t.Run("pipeline failure is 200", func(t *testing.T) {
		h := newHarness(t, deps.Deps{Analyzer: fakeAnalyzer{err: &pipeline.Failure{Kind: pipeline.FetchFailed, Message: "page returned http status 404"}}})
		code, resp := h.do(http.MethodPost, "/analyze-url", map[string]any{"url": "https://gone.example"})
		if code != http.StatusOK || resp.Success || resp.ErrorType != "FetchFailed" {
			t.Errorf("analyze = %d %+v", code, resp)
		}
	})

	t.Run("unexpected failure is 500", func(t *testing.T) {
		h := newHarness(t, deps.Deps{Analyzer: fakeAnalyzer{err: errors.New("boom")}})
		code, resp := h.do(http.MethodPost, "/analyze-url", map[string]any{"url": "https://x.example"})
		if code != http.StatusInternalServerError || resp.Error != "internal error" {
			t.Errorf("analyze = %d %+v", code, resp)
		}
	})

	t.Run("malformed body is 400", func(t *testing.T) {
		h := newHarness(t, deps.Deps{})
		code, _ := h.do(http.MethodPost, "/analyze-url", "not json")
		if code != http.StatusBadRequest {
			t.Errorf("analyze = %d, want 400", code)
		}
	})

	t.Run("rate limited", func(t *testing.T) {
		h := newHarness(t, deps.Deps{AnalyzeRate: 1})
		h.do(http.MethodPost, "/analyze-url", map[string]any{"url": "https://x.example"})
		code, resp := h.do(http.MethodPost, "/analyze-url", map[string]any{"url": "https://x.example"})
		if code != http.StatusTooManyRequests || resp.ErrorType != "RateLimited" {
			t.Errorf("second analyze = %d %+v", code, resp)
		}
	})
}

func TestProbes(t *testing.T) {
	h := newHarness(t, deps.Deps{Checks: []deps.Check{
		{Name: "store", Ping: func(context.Context) error { return nil }},
		{Name: "redis", Ping: func(context.Context) error { return errors.New("down") }},
	}})

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	h.h.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("healthz = %d", rec.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/readyz", nil)
	rec = httptest.NewRecorder()
	h.h.ServeHTTP(rec, req)
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("readyz = %d, want 503", rec.Code)
	}
	var body struct {
		Ready      bool              `json:"ready"`
		Components map[string]string `json:"components"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode readyz: %v", err)
	}
	if body.Ready || body.Components["store"] != "ok" || body.Components["redis"] != "down" {
		t.Errorf("readyz body = %+v", body)
	}
}
