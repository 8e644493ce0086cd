package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/MrSnakeDoc/toolshelf/internal/domain"
	"github.com/MrSnakeDoc/toolshelf/internal/store"
)

func (s *Store) ListCollections(ctx context.Context) ([]domain.Collection, error) {
	var out []domain.Collection
	err := s.read(func(c conn) error {
		rows, err := c.query(ctx, `SELECT id, name FROM collections ORDER BY seq`)
		if err != nil {
			return err
		}
		defer rows.Close()

		out = []domain.Collection{}
		for rows.Next() {
			var coll domain.Collection
			if err := rows.Scan(&coll.ID, &coll.Name); err != nil {
				return err
			}
			out = append(out, coll)
		}
		if err := rows.Err(); err != nil {
			return err
		}

		for i := range out {
			if out[i].ToolIDs, err = c.members(ctx, out[i].ID); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list collections: %w", err)
	}
	return out, nil
}

func (s *Store) GetCollection(ctx context.Context, id string) (domain.Collection, error) {
	var out domain.Collection
	err := s.read(func(c conn) error {
		var err error
		out, err = c.collection(ctx, id)
		return err
	})
	return out, err
}

func (c conn) collection(ctx context.Context, id string) (domain.Collection, error) {
	var coll domain.Collection
	err := c.queryRow(ctx, `SELECT id, name FROM collections WHERE id = ?`, id).Scan(&coll.ID, &coll.Name)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Collection{}, domain.NotFound("collection", id)
	}
	if err != nil {
		return domain.Collection{}, fmt.Errorf("get collection: %w", err)
	}
	if coll.ToolIDs, err = c.members(ctx, id); err != nil {
		return domain.Collection{}, err
	}
	return coll, nil
}

func (c conn) members(ctx context.Context, collectionID string) ([]string, error) {
	return c.ids(ctx, `SELECT tool_id FROM collection_tool WHERE collection_id = ? ORDER BY position`, collectionID)
}

func (s *Store) CreateCollection(ctx context.Context, coll domain.Collection) (domain.Collection, error) {
	if err := store.ValidateCollection(coll); err != nil {
		return domain.Collection{}, err
	}
	coll = coll.Clone()
	coll.ID = s.newID()
	coll.ToolIDs = store.DedupIDs(coll.ToolIDs)

	err := s.write(ctx, func(c conn) error {
		for _, toolID := range coll.ToolIDs {
			exists, err := c.toolExists(ctx, toolID)
			if err != nil {
				return err
			}
			if !exists {
				return domain.Invalid("toolIds", "references an unknown tool "+toolID)
			}
		}
		seq, err := c.nextPosition(ctx, `SELECT MAX(seq) FROM collections`)
		if err != nil {
			return err
		}
		if err := c.exec(ctx, `INSERT INTO collections (id, name, seq) VALUES (?, ?, ?)`, coll.ID, coll.Name, seq); err != nil {
			return fmt.Errorf("insert collection: %w", err)
		}
		for i, toolID := range coll.ToolIDs {
			if err := c.exec(ctx, `INSERT INTO collection_tool (collection_id, tool_id, position) VALUES (?, ?, ?)`, coll.ID, toolID, i); err != nil {
				return fmt.Errorf("insert collection member: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return domain.Collection{}, err
	}
	return coll, nil
}

func (s *Store) UpdateCollection(ctx context.Context, id string, p domain.CollectionPatch) (domain.Collection, error) {
	var out domain.Collection
	err := s.write(ctx, func(c conn) error {
		current, err := c.collection(ctx, id)
		if err != nil {
			return err
		}
		if p.Name != nil {
			current.Name = *p.Name
		}
		if err := store.ValidateCollection(current); err != nil {
			return err
		}
		if err := c.exec(ctx, `UPDATE collections SET name = ? WHERE id = ?`, current.Name, id); err != nil {
			return fmt.Errorf("update collection: %w", err)
		}
		out = current
		return nil
	})
	return out, err
}

func (s *Store) DeleteCollection(ctx context.Context, id string) error {
	return s.write(ctx, func(c conn) error {
		if _, err := c.collection(ctx, id); err != nil {
			return err
		}
		if err := c.exec(ctx, `DELETE FROM collection_tool WHERE collection_id = ?`, id); err != nil {
			return fmt.Errorf("delete collection members: %w", err)
		}
		if err := c.exec(ctx, `DELETE FROM collections WHERE id = ?`, id); err != nil {
			return fmt.Errorf("delete collection: %w", err)
		}
		return nil
	})
}

func (s *Store) AddToCollection(ctx context.Context, collectionID, toolID string) (domain.Collection, error) {
	var out domain.Collection
	err := s.write(ctx, func(c conn) error {
		coll, err := c.collection(ctx, collectionID)
		if err != nil {
			return err
		}
		exists, err := c.toolExists(ctx, toolID)
		if err != nil {
			return err
		}
		if !exists {
			return domain.NotFound("tool", toolID)
		}
		if coll.Contains(toolID) {
			out = coll
			return nil
		}
		pos, err := c.nextPosition(ctx, `SELECT MAX(position) FROM collection_tool WHERE collection_id = ?`, collectionID)
		if err != nil {
			return err
		}
		if err := c.exec(ctx, `INSERT INTO collection_tool (collection_id, tool_id, position) VALUES (?, ?, ?)`, collectionID, toolID, pos); err != nil {
			return fmt.Errorf("add collection member: %w", err)
		}
		coll.ToolIDs = append(coll.ToolIDs, toolID)
		out = coll
		return nil
	})
	return out, err
}

func (s *Store) RemoveFromCollection(ctx context.Context, collectionID, toolID string) (domain.Collection, error) {
	var out domain.Collection
	err := s.write(ctx, func(c conn) error {
		coll, err := c.collection(ctx, collectionID)
		if err != nil {
			return err
		}
		if err := c.exec(ctx, `DELETE FROM collection_tool WHERE collection_id = ? AND tool_id = ?`, collectionID, toolID); err != nil {
			return fmt.Errorf("remove collection member: %w", err)
		}
		coll.ToolIDs = domain.RemoveID(coll.ToolIDs, toolID)
		out = coll
		return nil
	})
	return out, err
}
