package sqlstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/MrSnakeDoc/toolshelf/internal/domain"
	"github.com/MrSnakeDoc/toolshelf/internal/store"
)

const toolColumns = `t.id, t.name, t.url, t.type, t.summary, t.what_it_is, t.capabilities, t.best_for, t.tags,
	t.category_id, t.is_pinned, t.status, t.content_type, t.created_at, t.notes`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTool(row rowScanner) (domain.Tool, error) {
	var (
		t                   domain.Tool
		caps, bestFor, tags string
		status, kind        string
	)
	err := row.Scan(&t.ID, &t.Name, &t.URL, &t.Type, &t.Summary, &t.WhatItIs, &caps, &bestFor, &tags,
		&t.CategoryID, &t.IsPinned, &status, &kind, &t.CreatedAt, &t.Notes)
	if err != nil {
		return domain.Tool{}, err
	}
	t.Status = domain.Status(status)
	t.ContentType = domain.ContentKind(kind)
	if t.Capabilities, err = decodeList(caps); err != nil {
		return domain.Tool{}, err
	}
	if t.BestFor, err = decodeList(bestFor); err != nil {
		return domain.Tool{}, err
	}
	if t.Tags, err = decodeList(tags); err != nil {
		return domain.Tool{}, err
	}
	t.CreatedAt = t.CreatedAt.UTC()
	return t, nil
}

func decodeList(raw string) ([]string, error) {
	out := []string{}
	if raw == "" {
		return out, nil
	}
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return nil, fmt.Errorf("decode list column: %w", err)
	}
	if out == nil {
		out = []string{}
	}
	return out, nil
}

func encodeList(list []string) string {
	if list == nil {
		list = []string{}
	}
	data, _ := json.Marshal(list)
	return string(data)
}

// ListTools returns tools in category display order, categories ordered as
// in ListCategories.
func (s *Store) ListTools(ctx context.Context, f store.ToolFilter) ([]domain.Tool, error) {
	var out []domain.Tool
	err := s.read(func(c conn) error {
		query := `SELECT ` + toolColumns + `
			FROM tools t
			LEFT JOIN categories c ON c.id = t.category_id
			LEFT JOIN category_tool_order o ON o.tool_id = t.id`
		var args []any
		if f.CategoryID != "" {
			exists, err := c.categoryExists(ctx, f.CategoryID)
			if err != nil {
				return err
			}
			if !exists {
				return domain.NotFound("category", f.CategoryID)
			}
			query += ` WHERE t.category_id = ?`
			args = append(args, f.CategoryID)
		}
		query += ` ORDER BY c.sort_order, c.name, o.position`

		rows, err := c.query(ctx, query, args...)
		if err != nil {
			return err
		}
		defer rows.Close()

		out = []domain.Tool{}
		for rows.Next() {
			t, err := scanTool(rows)
			if err != nil {
				return err
			}
			out = append(out, t)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}
	return f.Rank(out), nil
}

func (s *Store) GetTool(ctx context.Context, id string) (domain.Tool, error) {
	var out domain.Tool
	err := s.read(func(c conn) error {
		var err error
		out, err = c.tool(ctx, id)
		return err
	})
	return out, err
}

func (c conn) tool(ctx context.Context, id string) (domain.Tool, error) {
	t, err := scanTool(c.queryRow(ctx, `SELECT `+toolColumns+` FROM tools t WHERE t.id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Tool{}, domain.NotFound("tool", id)
	}
	if err != nil {
		return domain.Tool{}, fmt.Errorf("get tool: %w", err)
	}
	return t, nil
}

func (c conn) toolExists(ctx context.Context, id string) (bool, error) {
	var n int
	if err := c.queryRow(ctx, `SELECT COUNT(*) FROM tools WHERE id = ?`, id).Scan(&n); err != nil {
		return false, fmt.Errorf("check tool: %w", err)
	}
	return n > 0, nil
}

func (s *Store) CreateTool(ctx context.Context, t domain.Tool) (domain.Tool, error) {
	t, err := store.PrepareTool(t)
	if err != nil {
		return domain.Tool{}, err
	}
	t.ID = s.newID()
	if t.CreatedAt.IsZero() {
		t.CreatedAt = s.now()
	}
	t.CreatedAt = t.CreatedAt.UTC().Truncate(time.Microsecond)

	err = s.write(ctx, func(c conn) error {
		exists, err := c.categoryExists(ctx, t.CategoryID)
		if err != nil {
			return err
		}
		if !exists {
			return domain.Invalid("categoryId", "references an unknown category")
		}
		err = c.exec(ctx, `INSERT INTO tools (id, name, url, type, summary, what_it_is, capabilities, best_for, tags,
				category_id, is_pinned, status, content_type, created_at, notes)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			t.ID, t.Name, t.URL, t.Type, t.Summary, t.WhatItIs,
			encodeList(t.Capabilities), encodeList(t.BestFor), encodeList(t.Tags),
			t.CategoryID, t.IsPinned, string(t.Status), string(t.ContentType), t.CreatedAt, t.Notes)
		if err != nil {
			return fmt.Errorf("insert tool: %w", err)
		}
		pos, err := c.nextPosition(ctx, `SELECT MAX(position) FROM category_tool_order WHERE category_id = ?`, t.CategoryID)
		if err != nil {
			return err
		}
		return c.exec(ctx, `INSERT INTO category_tool_order (tool_id, category_id, position) VALUES (?, ?, ?)`,
			t.ID, t.CategoryID, pos)
	})
	if err != nil {
		return domain.Tool{}, err
	}
	return t, nil
}

// nextPosition returns one past the largest position selected by query.
// Deletes leave gaps, so a row count is not enough.
func (c conn) nextPosition(ctx context.Context, query string, args ...any) (int, error) {
	var top sql.NullInt64
	if err := c.queryRow(ctx, query, args...).Scan(&top); err != nil {
		return 0, fmt.Errorf("next position: %w", err)
	}
	if !top.Valid {
		return 0, nil
	}
	return int(top.Int64) + 1, nil
}

func (s *Store) UpdateTool(ctx context.Context, id string, p domain.ToolPatch) (domain.Tool, error) {
	var out domain.Tool
	err := s.write(ctx, func(c conn) error {
		current, err := c.tool(ctx, id)
		if err != nil {
			return err
		}
		updated := p.Apply(current)
		updated.ID = current.ID
		updated.CreatedAt = current.CreatedAt
		if updated, err = store.PrepareTool(updated); err != nil {
			return err
		}

		if updated.CategoryID != current.CategoryID {
			exists, err := c.categoryExists(ctx, updated.CategoryID)
			if err != nil {
				return err
			}
			if !exists {
				return domain.Invalid("categoryId", "references an unknown category")
			}
		}

		err = c.exec(ctx, `UPDATE tools SET name = ?, url = ?, type = ?, summary = ?, what_it_is = ?,
				capabilities = ?, best_for = ?, tags = ?, category_id = ?, is_pinned = ?, status = ?,
				content_type = ?, notes = ?
			WHERE id = ?`,
			updated.Name, updated.URL, updated.Type, updated.Summary, updated.WhatItIs,
			encodeList(updated.Capabilities), encodeList(updated.BestFor), encodeList(updated.Tags),
			updated.CategoryID, updated.IsPinned, string(updated.Status), string(updated.ContentType),
			updated.Notes, id)
		if err != nil {
			return fmt.Errorf("update tool: %w", err)
		}

		if updated.CategoryID != current.CategoryID {
			if err := c.refile(ctx, id, current.CategoryID, updated.CategoryID, -1); err != nil {
				return err
			}
		}
		out = updated
		return nil
	})
	return out, err
}

func (s *Store) MoveTool(ctx context.Context, toolID, fromCategoryID, toCategoryID string, position int) (domain.Tool, error) {
	var out domain.Tool
	err := s.write(ctx, func(c conn) error {
		t, err := c.tool(ctx, toolID)
		if err != nil {
			return err
		}
		exists, err := c.categoryExists(ctx, toCategoryID)
		if err != nil {
			return err
		}
		if !exists {
			return domain.NotFound("category", toCategoryID)
		}
		if t.CategoryID != fromCategoryID {
			return fmt.Errorf("tool %q is filed under %q, not %q: %w", toolID, t.CategoryID, fromCategoryID, store.ErrConflict)
		}

		if err := c.exec(ctx, `UPDATE tools SET category_id = ? WHERE id = ?`, toCategoryID, toolID); err != nil {
			return fmt.Errorf("move tool: %w", err)
		}
		if err := c.refile(ctx, toolID, fromCategoryID, toCategoryID, position); err != nil {
			return err
		}
		t.CategoryID = toCategoryID
		out = t
		return nil
	})
	return out, err
}

// refile rewrites the order rows of both categories.
func (c conn) refile(ctx context.Context, toolID, from, to string, position int) error {
	src, err := c.order(ctx, from)
	if err != nil {
		return err
	}
	if err := c.writeOrder(ctx, from, domain.RemoveID(src, toolID)); err != nil {
		return err
	}
	dst, err := c.order(ctx, to)
	if err != nil {
		return err
	}
	return c.writeOrder(ctx, to, domain.InsertID(domain.RemoveID(dst, toolID), toolID, position))
}

func (s *Store) DeleteTool(ctx context.Context, id string) error {
	return s.write(ctx, func(c conn) error {
		exists, err := c.toolExists(ctx, id)
		if err != nil {
			return err
		}
		if !exists {
			return domain.NotFound("tool", id)
		}
		return c.deleteTool(ctx, id)
	})
}

// deleteTool removes the category membership, then collection memberships,
// then the tool row.
func (c conn) deleteTool(ctx context.Context, id string) error {
	if err := c.exec(ctx, `DELETE FROM category_tool_order WHERE tool_id = ?`, id); err != nil {
		return fmt.Errorf("delete tool order: %w", err)
	}
	if err := c.exec(ctx, `DELETE FROM collection_tool WHERE tool_id = ?`, id); err != nil {
		return fmt.Errorf("delete tool memberships: %w", err)
	}
	if err := c.exec(ctx, `DELETE FROM tools WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete tool: %w", err)
	}
	return nil
}
