package domain

import "time"

// Tool is a cataloged link with structured metadata.
//
// A Tool belongs to exactly one Category at any time (CategoryID) and may be
// referenced by any number of Collections.
type Tool struct {
	// ─────────────────────────────
	// Identity (server-assigned)
	// ─────────────────────────────

	// ID is opaque and assigned by the store on creation.
	ID string `json:"id"`

	// Name is the display name.
	// Example: "ChatGPT"
	Name string `json:"name"`

	// URL is the canonical link to the tool.
	URL string `json:"url"`

	// ─────────────────────────────
	// Description
	// ─────────────────────────────

	// Type is a short free-form tag.
	// Example: "CHATBOT"
	Type string `json:"type"`

	Summary      string   `json:"summary"`
	WhatItIs     string   `json:"whatItIs"`
	Capabilities []string `json:"capabilities"`
	BestFor      []string `json:"bestFor"`

	// Tags are case-preserving and de-duplicated (see NormalizeTags).
	Tags []string `json:"tags"`

	// ─────────────────────────────
	// Placement & state
	// ─────────────────────────────

	// CategoryID references the owning Category.
	CategoryID string `json:"categoryId"`

	IsPinned    bool        `json:"isPinned"`
	Status      Status      `json:"status"`
	ContentType ContentKind `json:"contentType"`

	// CreatedAt is set by the store when zero.
	CreatedAt time.Time `json:"createdAt"`

	Notes string `json:"notes,omitempty"`
}

// Clone returns a deep copy of t.
func (t Tool) Clone() Tool {
	t.Capabilities = cloneStrings(t.Capabilities)
	t.BestFor = cloneStrings(t.BestFor)
	t.Tags = cloneStrings(t.Tags)
	return t
}

// Normalize fills defaults and cleans list fields in place.
// Lists are never nil after normalization.
func (t *Tool) Normalize() {
	t.Capabilities = CleanList(t.Capabilities, 0)
	t.BestFor = CleanList(t.BestFor, 0)
	t.Tags = NormalizeTags(t.Tags, 0)
	if t.Status == "" {
		t.Status = StatusActive
	}
	if t.ContentType == "" {
		t.ContentType = KindTool
	}
}

// Validate checks the fields a store requires before persisting a tool.
func (t Tool) Validate() error {
	switch {
	case t.Name == "":
		return Invalid("name", "is required")
	case t.URL == "":
		return Invalid("url", "is required")
	case t.CategoryID == "":
		return Invalid("categoryId", "is required")
	case !t.Status.Valid():
		return Invalid("status", "must be one of active, beta, deprecated, inactive")
	case !t.ContentType.Valid():
		return Invalid("contentType", "must be one of tool, website, video, podcast, article")
	}
	return nil
}

// ToolPatch describes a partial tool update. Nil fields are left untouched.
type ToolPatch struct {
	Name         *string      `json:"name,omitempty"`
	URL          *string      `json:"url,omitempty"`
	Type         *string      `json:"type,omitempty"`
	Summary      *string      `json:"summary,omitempty"`
	WhatItIs     *string      `json:"whatItIs,omitempty"`
	Capabilities *[]string    `json:"capabilities,omitempty"`
	BestFor      *[]string    `json:"bestFor,omitempty"`
	Tags         *[]string    `json:"tags,omitempty"`
	CategoryID   *string      `json:"categoryId,omitempty"`
	IsPinned     *bool        `json:"isPinned,omitempty"`
	Status       *Status      `json:"status,omitempty"`
	ContentType  *ContentKind `json:"contentType,omitempty"`
	Notes        *string      `json:"notes,omitempty"`
}

// Apply returns a copy of t with the patch applied.
// CategoryID is applied too; callers that need to keep category lists
// consistent must compare the result against the original.
func (p ToolPatch) Apply(t Tool) Tool {
	t = t.Clone()
	if p.Name != nil {
		t.Name = *p.Name
	}
	if p.URL != nil {
		t.URL = *p.URL
	}
	if p.Type != nil {
		t.Type = *p.Type
	}
	if p.Summary != nil {
		t.Summary = *p.Summary
	}
	if p.WhatItIs != nil {
		t.WhatItIs = *p.WhatItIs
	}
	if p.Capabilities != nil {
		t.Capabilities = cloneStrings(*p.Capabilities)
	}
	if p.BestFor != nil {
		t.BestFor = cloneStrings(*p.BestFor)
	}
	if p.Tags != nil {
		t.Tags = cloneStrings(*p.Tags)
	}
	if p.CategoryID != nil {
		t.CategoryID = *p.CategoryID
	}
	if p.IsPinned != nil {
		t.IsPinned = *p.IsPinned
	}
	if p.Status != nil {
		t.Status = *p.Status
	}
	if p.ContentType != nil {
		t.ContentType = *p.ContentType
	}
	if p.Notes != nil {
		t.Notes = *p.Notes
	}
	t.Normalize()
	return t
}

func cloneStrings(in []string) []string {
	if in == nil {
		return nil
	}
	out := make([]string, len(in))
	copy(out, in)
	return out
}
