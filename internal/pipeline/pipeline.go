// Package pipeline runs fetch, scrape, classify and extract for one URL and
// reports failures with a single error taxonomy.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/MrSnakeDoc/toolshelf/internal/classify"
	"github.com/MrSnakeDoc/toolshelf/internal/domain"
	"github.com/MrSnakeDoc/toolshelf/internal/extract"
	"github.com/MrSnakeDoc/toolshelf/internal/fetch"
	"github.com/MrSnakeDoc/toolshelf/internal/logger"
)

// ErrorKind is the errorType reported to API callers.
type ErrorKind string

const (
	InvalidURL            ErrorKind = "InvalidUrl"
	FetchFailed           ErrorKind = "FetchFailed"
	ParseFailed           ErrorKind = "ParseFailed"
	ExtractionConfigError ErrorKind = "ExtractionConfigError"
	ExtractionParseError  ErrorKind = "ExtractionParseError"
	ExtractionFailed      ErrorKind = "ExtractionFailed"
)

// Failure is returned for every expected pipeline failure.
type Failure struct {
	Kind    ErrorKind
	Message string
	Err     error
}

func (f *Failure) Error() string {
	if f.Err != nil {
		return fmt.Sprintf("%s: %s: %v", f.Kind, f.Message, f.Err)
	}
	return fmt.Sprintf("%s: %s", f.Kind, f.Message)
}

func (f *Failure) Unwrap() error { return f.Err }

// Fetcher retrieves a page.
type Fetcher interface {
	Fetch(ctx context.Context, rawURL string) (*fetch.RawPage, error)
}

// Scraper turns a page into content.
type Scraper interface {
	Scrape(page *fetch.RawPage) domain.ScrapedContent
}

// Extractor proposes a record for content.
type Extractor interface {
	Extract(ctx context.Context, content domain.ScrapedContent, known []domain.CategoryRef) (*domain.ExtractedRecord, error)
}

// Categories provides the read-only category snapshot offered to the extractor.
type Categories interface {
	Known(ctx context.Context) ([]domain.CategoryRef, error)
}

// Result is a successful analysis.
type Result struct {
	Record  domain.ExtractedRecord
	Scraped domain.ScrapedContent
	// URLKind is the classifier's verdict before merging.
	URLKind domain.ContentKind
}

// Analyzer wires the stages together. It holds no per-request state, so a
// single Analyzer serves concurrent requests.
type Analyzer struct {
	fetcher    Fetcher
	scraper    Scraper
	extractor  Extractor
	categories Categories
	logger     logger.Logger
}

func New(f Fetcher, s Scraper, e Extractor, c Categories, log logger.Logger) *Analyzer {
	return &Analyzer{fetcher: f, scraper: s, extractor: e, categories: c, logger: log}
}

// Analyze runs the pipeline for rawURL. Every expected failure is a *Failure.
func (a *Analyzer) Analyze(ctx context.Context, rawURL string) (*Result, error) {
	start := time.Now()

	u, err := fetch.ParseURL(rawURL)
	if err != nil {
		return nil, &Failure{Kind: InvalidURL, Message: "url must be an absolute http(s) url", Err: err}
	}

	// Classification only needs the URL, so it runs alongside the fetch.
	var (
		page    *fetch.RawPage
		urlKind domain.ContentKind
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		urlKind = classify.Classify(u)
		return nil
	})
	g.Go(func() error {
		p, err := a.fetcher.Fetch(gctx, u.String())
		if err != nil {
			return err
		}
		page = p
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, fetchFailure(err)
	}

	scraped := a.scraper.Scrape(page)
	if scraped.Empty() {
		return nil, &Failure{Kind: ParseFailed, Message: "page has no usable title, description or text"}
	}

	known, err := a.categories.Known(ctx)
	if err != nil {
		return nil, &Failure{Kind: ExtractionFailed, Message: "could not load categories", Err: err}
	}

	rec, err := a.extractor.Extract(ctx, scraped, known)
	if err != nil {
		return nil, extractionFailure(err)
	}
	rec.ContentType = classify.Merge(urlKind, rec.ContentType)

	a.logger.Info("url analyzed",
		logger.String("url", scraped.URL),
		logger.String("category", rec.CategoryID),
		logger.String("content_type", string(rec.ContentType)),
		logger.Bool("category_fallback", rec.CategoryFallback),
		logger.Duration("elapsed", time.Since(start)))

	return &Result{Record: *rec, Scraped: scraped, URLKind: urlKind}, nil
}

func fetchFailure(err error) *Failure {
	var ff *fetch.Failure
	if !errors.As(err, &ff) {
		return &Failure{Kind: FetchFailed, Message: "page could not be fetched", Err: err}
	}
	switch ff.Kind {
	case fetch.KindInvalidURL:
		return &Failure{Kind: InvalidURL, Message: "url must be an absolute http(s) url", Err: err}
	case fetch.KindHTTPError:
		return &Failure{Kind: FetchFailed, Message: fmt.Sprintf("page returned http status %d", ff.Status), Err: err}
	case fetch.KindTimeout:
		return &Failure{Kind: FetchFailed, Message: "page took too long to respond", Err: err}
	default:
		return &Failure{Kind: FetchFailed, Message: "page could not be fetched", Err: err}
	}
}

func extractionFailure(err error) *Failure {
	var ef *extract.Failure
	if !errors.As(err, &ef) {
		return &Failure{Kind: ExtractionFailed, Message: "extraction failed", Err: err}
	}
	switch ef.Kind {
	case extract.KindConfig:
		return &Failure{Kind: ExtractionConfigError, Message: "extraction is not configured", Err: err}
	case extract.KindParse:
		return &Failure{Kind: ExtractionParseError, Message: "extraction reply was not valid JSON", Err: err}
	default:
		return &Failure{Kind: ExtractionFailed, Message: ef.Reason, Err: err}
	}
}
