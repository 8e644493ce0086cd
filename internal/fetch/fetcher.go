// Package fetch retrieves a single page with a bounded wall-clock time.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/MrSnakeDoc/toolshelf/internal/logger"
)

const (
	// DefaultTimeout is the hard limit for one fetch, including redirects and body read.
	DefaultTimeout = 5 * time.Second
	// DefaultMaxBodyBytes caps how much markup is read from a response.
	DefaultMaxBodyBytes int64 = 2 << 20

	// DefaultUserAgent identifies as a conventional browser; many sites
	// serve empty shells or 403s to unknown agents.
	DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0 Safari/537.36"
)

// Kind discriminates fetch failures.
type Kind string

const (
	KindInvalidURL Kind = "InvalidUrl"
	KindTimeout    Kind = "Timeout"
	KindCanceled   Kind = "Canceled"
	KindHTTPError  Kind = "HttpError"
	KindNetwork    Kind = "Network"
)

// Failure is the typed error returned for every expected fetch failure.
type Failure struct {
	Kind   Kind
	URL    string
	Status int // set for KindHTTPError
	Err    error
}

func (f *Failure) Error() string {
	switch f.Kind {
	case KindHTTPError:
		return fmt.Sprintf("fetch %s: http status %d", f.URL, f.Status)
	case KindInvalidURL:
		return fmt.Sprintf("invalid url %q: %v", f.URL, f.Err)
	default:
		if f.Err != nil {
			return fmt.Sprintf("fetch %s: %s: %v", f.URL, strings.ToLower(string(f.Kind)), f.Err)
		}
		return fmt.Sprintf("fetch %s: %s", f.URL, strings.ToLower(string(f.Kind)))
	}
}

func (f *Failure) Unwrap() error { return f.Err }

// RawPage is the unprocessed result of a successful fetch.
type RawPage struct {
	URL         string // final URL after redirects
	Status      int
	ContentType string
	Body        []byte
}

// Options configures a Fetcher. Zero values fall back to the package defaults.
type Options struct {
	Timeout      time.Duration
	MaxBodyBytes int64
	UserAgent    string
	Client       *http.Client
}

// Fetcher issues one GET per call. It never caches and never retries.
type Fetcher struct {
	client    *http.Client
	timeout   time.Duration
	maxBody   int64
	userAgent string
	logger    logger.Logger
}

// New builds a Fetcher.
func New(opts Options, log logger.Logger) *Fetcher {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.MaxBodyBytes <= 0 {
		opts.MaxBodyBytes = DefaultMaxBodyBytes
	}
	if opts.UserAgent == "" {
		opts.UserAgent = DefaultUserAgent
	}
	client := opts.Client
	if client == nil {
		// Redirects are followed with the standard policy (max 10 hops).
		client = &http.Client{}
	}
	return &Fetcher{
		client:    client,
		timeout:   opts.Timeout,
		maxBody:   opts.MaxBodyBytes,
		userAgent: opts.UserAgent,
		logger:    log,
	}
}

// ParseURL validates raw as an absolute http(s) URL with a host.
func ParseURL(raw string) (*url.URL, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, errors.New("url is empty")
	}
	u, err := url.Parse(raw)
	if err != nil {
		return nil, err
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("unsupported scheme %q", u.Scheme)
	}
	if u.Hostname() == "" {
		return nil, errors.New("missing host")
	}
	return u, nil
}

// Fetch retrieves rawURL. The fetch is bounded by the fetcher timeout and by ctx,
// whichever ends first; malformed URLs fail before any network I/O.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) (*RawPage, error) {
	u, err := ParseURL(rawURL)
	if err != nil {
		return nil, &Failure{Kind: KindInvalidURL, URL: rawURL, Err: err}
	}
	target := u.String()

	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, http.NoBody)
	if err != nil {
		return nil, &Failure{Kind: KindInvalidURL, URL: target, Err: err}
	}
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")

	start := time.Now()
	resp, err := f.client.Do(req)
	if err != nil {
		return nil, f.classify(ctx, target, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		f.logger.Debug("fetch returned non-2xx status",
			logger.String("url", target),
			logger.Int("status", resp.StatusCode))
		return nil, &Failure{Kind: KindHTTPError, URL: target, Status: resp.StatusCode}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBody))
	if err != nil {
		return nil, f.classify(ctx, target, err)
	}

	final := target
	if resp.Request != nil && resp.Request.URL != nil {
		final = resp.Request.URL.String()
	}

	f.logger.Debug("page fetched",
		logger.String("url", final),
		logger.Int("bytes", len(body)),
		logger.Duration("elapsed", time.Since(start)))

	return &RawPage{
		URL:         final,
		Status:      resp.StatusCode,
		ContentType: resp.Header.Get("Content-Type"),
		Body:        body,
	}, nil
}

// classify maps a transport error onto a failure kind using the context state.
func (f *Fetcher) classify(ctx context.Context, target string, err error) *Failure {
	switch {
	case errors.Is(ctx.Err(), context.DeadlineExceeded):
		return &Failure{Kind: KindTimeout, URL: target, Err: err}
	case errors.Is(ctx.Err(), context.Canceled):
		return &Failure{Kind: KindCanceled, URL: target, Err: err}
	default:
		return &Failure{Kind: KindNetwork, URL: target, Err: err}
	}
}
