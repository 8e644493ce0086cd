package fetch

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/MrSnakeDoc/toolshelf/internal/logger"
)

func newTestFetcher(timeout time.Duration) *Fetcher {
	return New(Options{Timeout: timeout}, logger.New("error", false))
}

func TestFetchSuccess(t *testing.T) {
	uaCh := make(chan string, 1)
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		uaCh <- r.UserAgent()
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte("<html><title>ok</title></html>"))
	}))
	defer ts.Close()

	page, err := newTestFetcher(time.Second).Fetch(context.Background(), ts.URL)
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if !strings.Contains(string(page.Body), "<title>ok</title>") {
		t.Errorf("Fetch() body = %q", page.Body)
	}
	if gotUA := <-uaCh; !strings.HasPrefix(gotUA, "Mozilla/5.0") {
		t.Errorf("User-Agent = %q, want browser-like", gotUA)
	}
	if page.Status != http.StatusOK {
		t.Errorf("Status = %d, want 200", page.Status)
	}
}

func TestFetchFollowsRedirects(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/old", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/new", http.StatusMovedPermanently)
	})
	mux.HandleFunc("/new", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("moved"))
	})
	ts := httptest.NewServer(mux)
	defer ts.Close()

	page, err := newTestFetcher(time.Second).Fetch(context.Background(), ts.URL+"/old")
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if !strings.HasSuffix(page.URL, "/new") {
		t.Errorf("final URL = %s, want .../new", page.URL)
	}
}

func TestFetchInvalidURLMakesNoRequest(t *testing.T) {
	var hits int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
	}))
	defer ts.Close()

	inputs := []string{"", "   ", "not a url", "ftp://example.com/file", "https://", "/relative/path"}
	for _, in := range inputs {
		_, err := newTestFetcher(time.Second).Fetch(context.Background(), in)
		var f *Failure
		if !errors.As(err, &f) || f.Kind != KindInvalidURL {
			t.Errorf("Fetch(%q) error = %v, want InvalidUrl failure", in, err)
		}
	}
	if atomic.LoadInt32(&hits) != 0 {
		t.Errorf("server received %d requests, want 0", hits)
	}
}

func TestFetchHTTPError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer ts.Close()

	_, err := newTestFetcher(time.Second).Fetch(context.Background(), ts.URL)
	var f *Failure
	if !errors.As(err, &f) {
		t.Fatalf("Fetch() error = %v, want *Failure", err)
	}
	if f.Kind != KindHTTPError || f.Status != http.StatusNotFound {
		t.Errorf("Fetch() failure = %+v, want HttpError 404", f)
	}
}

func TestFetchTimeout(t *testing.T) {
	release := make(chan struct{})
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer ts.Close()
	defer close(release)

	start := time.Now()
	_, err := newTestFetcher(50*time.Millisecond).Fetch(context.Background(), ts.URL)
	var f *Failure
	if !errors.As(err, &f) || f.Kind != KindTimeout {
		t.Fatalf("Fetch() error = %v, want Timeout failure", err)
	}
	if elapsed := time.Since(start); elapsed > 2*time.Second {
		t.Errorf("Fetch() took %v, timeout not enforced", elapsed)
	}
}

func TestFetchCallerCancellation(t *testing.T) {
	release := make(chan struct{})
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer ts.Close()
	defer close(release)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	_, err := newTestFetcher(5*time.Second).Fetch(ctx, ts.URL)
	var f *Failure
	if !errors.As(err, &f) || f.Kind != KindCanceled {
		t.Fatalf("Fetch() error = %v, want Canceled failure", err)
	}
}

func TestFetchBodyIsCapped(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(strings.Repeat("a", 4096)))
	}))
	defer ts.Close()

	f := New(Options{Timeout: time.Second, MaxBodyBytes: 100}, logger.New("error", false))
	page, err := f.Fetch(context.Background(), ts.URL)
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if len(page.Body) != 100 {
		t.Errorf("body length = %d, want 100", len(page.Body))
	}
}
