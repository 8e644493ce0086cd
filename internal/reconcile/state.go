package reconcile

import "github.com/MrSnakeDoc/toolshelf/internal/domain"

// Catalog is a point-in-time copy of the local catalog.
type Catalog struct {
	Categories  []domain.Category
	Tools       []domain.Tool
	Collections []domain.Collection
}

func (c Catalog) clone() Catalog {
	out := Catalog{
		Categories:  make([]domain.Category, len(c.Categories)),
		Tools:       make([]domain.Tool, len(c.Tools)),
		Collections: make([]domain.Collection, len(c.Collections)),
	}
	for i, cat := range c.Categories {
		out.Categories[i] = cat.Clone()
	}
	for i, t := range c.Tools {
		out.Tools[i] = t.Clone()
	}
	for i, coll := range c.Collections {
		out.Collections[i] = coll.Clone()
	}
	return out
}

func (c *Catalog) category(id string) int {
	for i := range c.Categories {
		if c.Categories[i].ID == id {
			return i
		}
	}
	return -1
}

func (c *Catalog) tool(id string) int {
	for i := range c.Tools {
		if c.Tools[i].ID == id {
			return i
		}
	}
	return -1
}

func (c *Catalog) collection(id string) int {
	for i := range c.Collections {
		if c.Collections[i].ID == id {
			return i
		}
	}
	return -1
}

// putTool inserts or replaces t and files it under its category, keeping
// its position when it already sits there.
func (c *Catalog) putTool(t domain.Tool) {
	if i := c.tool(t.ID); i >= 0 {
		c.Tools[i] = t
	} else {
		c.Tools = append(c.Tools, t)
	}
	c.file(t.ID, t.CategoryID, -1)
}

// file makes categoryID the only category listing toolID. position < 0
// appends; a tool already filed there keeps its place.
func (c *Catalog) file(toolID, categoryID string, position int) {
	c.place(toolID, categoryID, position, true)
}

// refile is file without the keep-place rule: the tool is always taken out
// and reinserted, as the server does for a move.
func (c *Catalog) refile(toolID, categoryID string, position int) {
	c.place(toolID, categoryID, position, false)
}

func (c *Catalog) place(toolID, categoryID string, position int, keep bool) {
	for i := range c.Categories {
		cat := &c.Categories[i]
		if cat.ID != categoryID {
			cat.ToolIDs = domain.RemoveID(cat.ToolIDs, toolID)
			continue
		}
		if keep && position < 0 && domain.IndexOf(cat.ToolIDs, toolID) >= 0 {
			continue
		}
		cat.ToolIDs = domain.InsertID(domain.RemoveID(cat.ToolIDs, toolID), toolID, position)
	}
}

func (c *Catalog) removeTool(id string) {
	if i := c.tool(id); i >= 0 {
		c.Tools = append(c.Tools[:i], c.Tools[i+1:]...)
	}
	for i := range c.Categories {
		c.Categories[i].ToolIDs = domain.RemoveID(c.Categories[i].ToolIDs, id)
	}
	for i := range c.Collections {
		c.Collections[i].ToolIDs = domain.RemoveID(c.Collections[i].ToolIDs, id)
	}
}

// removeCategory drops the category and every tool filed under it.
func (c *Catalog) removeCategory(id string) {
	i := c.category(id)
	if i < 0 {
		return
	}
	owned := append([]string(nil), c.Categories[i].ToolIDs...)
	for _, t := range c.Tools {
		if t.CategoryID == id {
			owned = append(owned, t.ID)
		}
	}
	for _, toolID := range owned {
		c.removeTool(toolID)
	}
	c.Categories = append(c.Categories[:i], c.Categories[i+1:]...)
}

func (c *Catalog) putCategory(cat domain.Category) {
	if i := c.category(cat.ID); i >= 0 {
		c.Categories[i] = cat
		return
	}
	c.Categories = append(c.Categories, cat)
}

func (c *Catalog) putCollection(coll domain.Collection) {
	if i := c.collection(coll.ID); i >= 0 {
		c.Collections[i] = coll
		return
	}
	c.Collections = append(c.Collections, coll)
}

func (c *Catalog) removeCollection(id string) {
	if i := c.collection(id); i >= 0 {
		c.Collections = append(c.Collections[:i], c.Collections[i+1:]...)
	}
}

// rename rewrites every reference to oldID.
func (c *Catalog) rename(oldID, newID string) {
	for i := range c.Categories {
		c.Categories[i].ToolIDs = domain.ReplaceID(c.Categories[i].ToolIDs, oldID, newID)
	}
	for i := range c.Collections {
		c.Collections[i].ToolIDs = domain.ReplaceID(c.Collections[i].ToolIDs, oldID, newID)
	}
	for i := range c.Tools {
		if c.Tools[i].CategoryID == oldID {
			c.Tools[i].CategoryID = newID
		}
	}
}
