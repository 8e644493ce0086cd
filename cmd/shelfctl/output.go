package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/MrSnakeDoc/toolshelf/internal/domain"
	"github.com/MrSnakeDoc/toolshelf/internal/reconcile"
)

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func table(w io.Writer, header string, rows [][]string) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, header)
	for _, row := range rows {
		fmt.Fprintln(tw, strings.Join(row, "\t"))
	}
	return tw.Flush()
}

func (s *session) print(w io.Writer, v any, header string, rows func() [][]string) error {
	if s.opts.json {
		return printJSON(w, v)
	}
	return table(w, header, rows())
}

// lookup resolves a category, tool or collection reference given either as
// an id or as a case-insensitive name.
func lookup(kind, ref string, ids, names []string) (string, error) {
	for _, id := range ids {
		if id == ref {
			return id, nil
		}
	}
	var match []string
	for i, name := range names {
		if strings.EqualFold(strings.TrimSpace(name), strings.TrimSpace(ref)) {
			match = append(match, ids[i])
		}
	}
	switch len(match) {
	case 0:
		return "", domain.NotFound(kind, ref)
	case 1:
		return match[0], nil
	default:
		return "", domain.Invalid(kind, fmt.Sprintf("name %q is ambiguous, use an id", ref))
	}
}

func categoryRef(c reconcile.Catalog, ref string) (string, error) {
	ids := make([]string, len(c.Categories))
	names := make([]string, len(c.Categories))
	for i, cat := range c.Categories {
		ids[i], names[i] = cat.ID, cat.Name
	}
	return lookup("category", ref, ids, names)
}

func toolRef(c reconcile.Catalog, ref string) (string, error) {
	ids := make([]string, len(c.Tools))
	names := make([]string, len(c.Tools))
	for i, t := range c.Tools {
		ids[i], names[i] = t.ID, t.Name
	}
	return lookup("tool", ref, ids, names)
}

func collectionRef(c reconcile.Catalog, ref string) (string, error) {
	ids := make([]string, len(c.Collections))
	names := make([]string, len(c.Collections))
	for i, coll := range c.Collections {
		ids[i], names[i] = coll.ID, coll.Name
	}
	return lookup("collection", ref, ids, names)
}
