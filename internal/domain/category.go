package domain

// Category is a named, ordered bucket that owns a disjoint partition of tools.
type Category struct {
	ID   string `json:"id"`
	Name string `json:"name"`

	// ToolIDs is the display order of the tools owned by this category.
	// It contains an id if and only if that tool's CategoryID is this category.
	ToolIDs []string `json:"toolIds"`

	// Collapsed is view state only.
	Collapsed bool `json:"collapsed"`

	// SortOrder orders categories relative to each other.
	SortOrder int `json:"sortOrder"`
}

// Clone returns a deep copy of c. ToolIDs is never nil in the copy.
func (c Category) Clone() Category {
	ids := make([]string, len(c.ToolIDs))
	copy(ids, c.ToolIDs)
	c.ToolIDs = ids
	return c
}

// Ref returns the id/name pair offered to the extractor.
func (c Category) Ref() CategoryRef {
	return CategoryRef{ID: c.ID, Name: c.Name}
}

// CategoryRef is the minimal view of a category used for classification.
type CategoryRef struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// CategoryPatch describes a partial category update.
type CategoryPatch struct {
	Name      *string `json:"name,omitempty"`
	Collapsed *bool   `json:"collapsed,omitempty"`
	SortOrder *int    `json:"sortOrder,omitempty"`
}

// Apply returns a copy of c with the patch applied.
func (p CategoryPatch) Apply(c Category) Category {
	c = c.Clone()
	if p.Name != nil {
		c.Name = *p.Name
	}
	if p.Collapsed != nil {
		c.Collapsed = *p.Collapsed
	}
	if p.SortOrder != nil {
		c.SortOrder = *p.SortOrder
	}
	return c
}
