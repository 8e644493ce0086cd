package domain

// ScrapedContent is the normalized content extracted from a fetched page.
type ScrapedContent struct {
	URL         string   `json:"url"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	OGImage     *string  `json:"ogImage"` // nil when the page declares no image
	Keywords    []string `json:"keywords"`
	BodyText    string   `json:"bodyText"`
}

// Empty reports whether the page yielded nothing the extractor could reason about.
func (c ScrapedContent) Empty() bool {
	return c.Title == "" && c.Description == "" && c.BodyText == ""
}

// ExtractedRecord is a validated, schema-conformant record proposed for the catalog.
type ExtractedRecord struct {
	Name         string      `json:"name"`
	URL          string      `json:"url"`
	Type         string      `json:"type"`
	CategoryID   string      `json:"categoryId"`
	Summary      string      `json:"summary"`
	WhatItIs     string      `json:"whatItIs"`
	Capabilities []string    `json:"capabilities"`
	BestFor      []string    `json:"bestFor"`
	Tags         []string    `json:"tags"`
	Status       Status      `json:"status"`
	ContentType  ContentKind `json:"contentType"`
	Notes        string      `json:"notes"`

	// CategoryFallback is true when the proposed category was unknown and the
	// record was re-filed into the configured fallback category.
	CategoryFallback bool `json:"categoryFallback,omitempty"`
}

// Tool converts the record into a Tool ready for creation.
func (r ExtractedRecord) Tool() Tool {
	t := Tool{
		Name:         r.Name,
		URL:          r.URL,
		Type:         r.Type,
		Summary:      r.Summary,
		WhatItIs:     r.WhatItIs,
		Capabilities: cloneStrings(r.Capabilities),
		BestFor:      cloneStrings(r.BestFor),
		Tags:         cloneStrings(r.Tags),
		CategoryID:   r.CategoryID,
		Status:       r.Status,
		ContentType:  r.ContentType,
		Notes:        r.Notes,
	}
	t.Normalize()
	return t
}
