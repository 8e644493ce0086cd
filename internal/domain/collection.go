package domain

// Collection is a cross-cutting group of tool references, independent of categories.
type Collection struct {
	ID      string   `json:"id"`
	Name    string   `json:"name"`
	ToolIDs []string `json:"toolIds"`
}

// Clone returns a deep copy of c. ToolIDs is never nil in the copy.
func (c Collection) Clone() Collection {
	ids := make([]string, len(c.ToolIDs))
	copy(ids, c.ToolIDs)
	c.ToolIDs = ids
	return c
}

// Contains reports whether toolID is a member of the collection.
func (c Collection) Contains(toolID string) bool {
	for _, id := range c.ToolIDs {
		if id == toolID {
			return true
		}
	}
	return false
}

// CollectionPatch describes a partial collection update.
type CollectionPatch struct {
	Name *string `json:"name,omitempty"`
}
