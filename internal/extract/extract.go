// Package extract turns scraped content into a validated catalog record by
// asking a text-in, JSON-out capability and checking its reply.
package extract

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/MrSnakeDoc/toolshelf/internal/domain"
	"github.com/MrSnakeDoc/toolshelf/internal/logger"
)

// ErrNotConfigured is returned by a capability that has no credentials.
var ErrNotConfigured = errors.New("extraction capability is not configured")

// Capability is the black-box model: given instructions and a prompt,
// return text that should contain one JSON object.
type Capability interface {
	Generate(ctx context.Context, system, prompt string) (string, error)
}

// FailureKind discriminates extraction failures.
type FailureKind string

const (
	KindConfig FailureKind = "ExtractionConfigError"
	KindParse  FailureKind = "ExtractionParseError"
	KindFailed FailureKind = "ExtractionFailed"
)

// Failure is the typed error returned for every expected extraction failure.
type Failure struct {
	Kind   FailureKind
	Reason string
	Err    error
}

func (f *Failure) Error() string {
	if f.Err != nil {
		return fmt.Sprintf("%s: %s: %v", f.Kind, f.Reason, f.Err)
	}
	return fmt.Sprintf("%s: %s", f.Kind, f.Reason)
}

func (f *Failure) Unwrap() error { return f.Err }

// Options tunes extraction.
type Options struct {
	// FallbackCategoryID re-files records whose proposed category is unknown.
	// It is only honored when it is itself one of the known categories.
	FallbackCategoryID string
}

// Extractor validates capability replies against the catalog schema.
type Extractor struct {
	capability Capability
	opts       Options
	logger     logger.Logger
}

func New(c Capability, opts Options, log logger.Logger) *Extractor {
	return &Extractor{capability: c, opts: opts, logger: log}
}

// Extract asks the capability for a record describing content. On success the
// record's CategoryID is always one of known.
func (e *Extractor) Extract(ctx context.Context, content domain.ScrapedContent, known []domain.CategoryRef) (*domain.ExtractedRecord, error) {
	if _, ok := e.capability.(Unconfigured); ok {
		return nil, &Failure{Kind: KindConfig, Reason: "capability unavailable", Err: ErrNotConfigured}
	}
	if len(known) == 0 {
		return nil, &Failure{Kind: KindFailed, Reason: "no categories to classify into"}
	}

	raw, err := e.capability.Generate(ctx, systemInstruction(), buildPrompt(content, known))
	if err != nil {
		if errors.Is(err, ErrNotConfigured) {
			return nil, &Failure{Kind: KindConfig, Reason: "capability unavailable", Err: err}
		}
		e.logger.Warn("extraction capability failed",
			logger.String("url", content.URL),
			logger.Error(err))
		return nil, &Failure{Kind: KindFailed, Reason: "capability call failed", Err: err}
	}

	fields, err := decode(raw)
	if err != nil {
		e.logger.Debug("unparseable extraction reply",
			logger.String("url", content.URL),
			logger.Int("bytes", len(raw)))
		return nil, &Failure{Kind: KindParse, Reason: "reply is not a JSON object", Err: err}
	}

	rec, err := e.validate(fields, content, known)
	if err != nil {
		return nil, err
	}
	return rec, nil
}

func (e *Extractor) validate(f map[string]any, content domain.ScrapedContent, known []domain.CategoryRef) (*domain.ExtractedRecord, error) {
	rec := &domain.ExtractedRecord{
		Name:         strings.TrimSpace(asString(f["name"])),
		URL:          content.URL,
		Type:         strings.TrimSpace(asString(f["type"])),
		CategoryID:   strings.TrimSpace(asString(f["categoryId"])),
		Summary:      clip(strings.TrimSpace(asString(f["summary"])), maxSummaryRunes),
		WhatItIs:     strings.TrimSpace(asString(f["whatItIs"])),
		Capabilities: domain.CleanList(asList(f["capabilities"]), maxCapabilities),
		BestFor:      domain.CleanList(asList(f["bestFor"]), maxBestFor),
		Tags:         domain.NormalizeTags(asList(f["tags"]), maxTags),
		Notes:        strings.TrimSpace(asString(f["notes"])),
	}

	switch {
	case rec.Name == "":
		return nil, &Failure{Kind: KindFailed, Reason: "reply is missing name"}
	case rec.Type == "":
		return nil, &Failure{Kind: KindFailed, Reason: "reply is missing type"}
	case rec.CategoryID == "":
		return nil, &Failure{Kind: KindFailed, Reason: "reply is missing categoryId"}
	}

	rec.Type = domain.NormalizeToolType(rec.Type)

	if status, ok := domain.ParseStatus(asString(f["status"])); ok {
		rec.Status = status
	} else {
		rec.Status = domain.StatusActive
	}
	if kind, ok := domain.ParseContentKind(asString(f["contentType"])); ok {
		rec.ContentType = kind
	} else {
		rec.ContentType = domain.KindTool
	}

	if !containsCategory(known, rec.CategoryID) {
		fallback := e.opts.FallbackCategoryID
		if fallback == "" || !containsCategory(known, fallback) {
			return nil, &Failure{Kind: KindFailed, Reason: fmt.Sprintf("unknown categoryId %q", rec.CategoryID)}
		}
		e.logger.Info("extracted category unknown, using fallback",
			logger.String("proposed", rec.CategoryID),
			logger.String("fallback", fallback))
		rec.CategoryID = fallback
		rec.CategoryFallback = true
	}

	return rec, nil
}

// decode strips Markdown fences and surrounding prose, then parses a single
// JSON object.
func decode(raw string) (map[string]any, error) {
	s := stripFences(raw)
	if start, end := strings.Index(s, "{"), strings.LastIndex(s, "}"); start >= 0 && end > start {
		s = s[start : end+1]
	}
	var out map[string]any
	if err := json.Unmarshal([]byte(s), &out); err != nil {
		return nil, err
	}
	if out == nil {
		return nil, errors.New("reply is null")
	}
	return out, nil
}

func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	// Drop the info string (json, JSON, ...) up to the first newline.
	if nl := strings.IndexByte(s, '\n'); nl >= 0 {
		s = s[nl+1:]
	}
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

func asString(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	return ""
}

// asList keeps the string entries of a JSON array. Anything else is empty.
func asList(v any) []string {
	items, ok := v.([]any)
	if !ok {
		return []string{}
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

func clip(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return strings.TrimSpace(string([]rune(s)[:n]))
}

func containsCategory(known []domain.CategoryRef, id string) bool {
	for _, c := range known {
		if c.ID == id {
			return true
		}
	}
	return false
}
