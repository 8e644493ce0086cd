// Package sqlstore persists the catalog in SQLite or PostgreSQL.
package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"

	"github.com/MrSnakeDoc/toolshelf/internal/domain"
	"github.com/MrSnakeDoc/toolshelf/internal/logger"
	"github.com/MrSnakeDoc/toolshelf/internal/store"
)

const (
	DriverSQLite   = "sqlite3"
	DriverPostgres = "postgres"
)

// Store is a database/sql catalog. Writers are serialized by mu and run in a
// single transaction each; readers share mu so multi-query reads observe one
// committed state.
type Store struct {
	db     *sql.DB
	driver string
	mu     sync.RWMutex
	logger logger.Logger

	newID func() string
	now   func() time.Time
}

var _ store.Store = (*Store)(nil)

// Open connects, applies the schema and returns a ready store.
func Open(ctx context.Context, driver, dsn string, log logger.Logger) (*Store, error) {
	switch driver {
	case DriverSQLite:
		dsn = withForeignKeys(dsn)
	case DriverPostgres:
		dsn = strings.TrimSpace(dsn)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if driver == DriverSQLite {
		// One connection: SQLite serializes writers anyway, and :memory:
		// databases are per connection.
		db.SetMaxOpenConns(1)
	} else {
		db.SetMaxOpenConns(10)
		db.SetMaxIdleConns(5)
		db.SetConnMaxLifetime(5 * time.Minute)
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	log.Info("SQL store ready", logger.String("driver", driver))

	return &Store{
		db:     db,
		driver: driver,
		logger: log,
		newID:  uuid.NewString,
		now:    time.Now,
	}, nil
}

func withForeignKeys(dsn string) string {
	if dsn == "" {
		dsn = "file:toolshelf.db"
	}
	if strings.Contains(dsn, "_foreign_keys") || strings.Contains(dsn, "_fk=") {
		return dsn
	}
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	return dsn + sep + "_foreign_keys=on"
}

// rebind rewrites ? placeholders as $n for PostgreSQL.
func (s *Store) rebind(query string) string {
	if s.driver != DriverPostgres {
		return query
	}
	var sb strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			sb.WriteByte('$')
			sb.WriteString(strconv.Itoa(n))
			continue
		}
		sb.WriteRune(r)
	}
	return sb.String()
}

type queryer interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// conn binds a queryer to the store's placeholder dialect.
type conn struct {
	q queryer
	s *Store
}

func (c conn) query(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	return c.q.QueryContext(ctx, c.s.rebind(query), args...)
}

func (c conn) queryRow(ctx context.Context, query string, args ...any) *sql.Row {
	return c.q.QueryRowContext(ctx, c.s.rebind(query), args...)
}

func (c conn) exec(ctx context.Context, query string, args ...any) error {
	_, err := c.q.ExecContext(ctx, c.s.rebind(query), args...)
	return err
}

// write runs fn in a transaction under the writer lock.
func (s *Store) write(ctx context.Context, fn func(c conn) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	if err := fn(conn{q: tx, s: s}); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// read runs fn under the reader lock.
func (s *Store) read(fn func(c conn) error) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return fn(conn{q: s.db, s: s})
}

func (s *Store) Ping(ctx context.Context) error { return s.db.PingContext(ctx) }

func (s *Store) Close() error { return s.db.Close() }

// ─────────────────────────────────────────────────────────────────
// Categories
// ─────────────────────────────────────────────────────────────────

func (s *Store) ListCategories(ctx context.Context) ([]domain.Category, error) {
	var out []domain.Category
	err := s.read(func(c conn) error {
		rows, err := c.query(ctx, `SELECT id, name, collapsed, sort_order FROM categories ORDER BY sort_order, name`)
		if err != nil {
			return err
		}
		defer rows.Close()

		out = []domain.Category{}
		for rows.Next() {
			var cat domain.Category
			if err := rows.Scan(&cat.ID, &cat.Name, &cat.Collapsed, &cat.SortOrder); err != nil {
				return err
			}
			out = append(out, cat)
		}
		if err := rows.Err(); err != nil {
			return err
		}

		order, err := c.allOrders(ctx)
		if err != nil {
			return err
		}
		for i := range out {
			out[i].ToolIDs = order[out[i].ID]
			if out[i].ToolIDs == nil {
				out[i].ToolIDs = []string{}
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	return out, nil
}

func (c conn) allOrders(ctx context.Context) (map[string][]string, error) {
	rows, err := c.query(ctx, `SELECT category_id, tool_id FROM category_tool_order ORDER BY category_id, position`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	order := make(map[string][]string)
	for rows.Next() {
		var catID, toolID string
		if err := rows.Scan(&catID, &toolID); err != nil {
			return nil, err
		}
		order[catID] = append(order[catID], toolID)
	}
	return order, rows.Err()
}

func (s *Store) GetCategory(ctx context.Context, id string) (domain.Category, error) {
	var out domain.Category
	err := s.read(func(c conn) error {
		var err error
		out, err = c.category(ctx, id)
		return err
	})
	return out, err
}

func (c conn) category(ctx context.Context, id string) (domain.Category, error) {
	var cat domain.Category
	err := c.queryRow(ctx, `SELECT id, name, collapsed, sort_order FROM categories WHERE id = ?`, id).
		Scan(&cat.ID, &cat.Name, &cat.Collapsed, &cat.SortOrder)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Category{}, domain.NotFound("category", id)
	}
	if err != nil {
		return domain.Category{}, fmt.Errorf("get category: %w", err)
	}
	cat.ToolIDs, err = c.order(ctx, id)
	if err != nil {
		return domain.Category{}, err
	}
	return cat, nil
}

func (c conn) categoryExists(ctx context.Context, id string) (bool, error) {
	var n int
	if err := c.queryRow(ctx, `SELECT COUNT(*) FROM categories WHERE id = ?`, id).Scan(&n); err != nil {
		return false, fmt.Errorf("check category: %w", err)
	}
	return n > 0, nil
}

// order returns a category's tool ids in display order, never nil.
func (c conn) order(ctx context.Context, categoryID string) ([]string, error) {
	return c.ids(ctx, `SELECT tool_id FROM category_tool_order WHERE category_id = ? ORDER BY position`, categoryID)
}

// writeOrder replaces a category's order rows with ids.
func (c conn) writeOrder(ctx context.Context, categoryID string, ids []string) error {
	if err := c.exec(ctx, `DELETE FROM category_tool_order WHERE category_id = ?`, categoryID); err != nil {
		return fmt.Errorf("clear order: %w", err)
	}
	for i, id := range ids {
		if err := c.exec(ctx, `INSERT INTO category_tool_order (tool_id, category_id, position) VALUES (?, ?, ?)`, id, categoryID, i); err != nil {
			return fmt.Errorf("write order: %w", err)
		}
	}
	return nil
}

func (c conn) ids(ctx context.Context, query string, args ...any) ([]string, error) {
	rows, err := c.query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

func (s *Store) CreateCategory(ctx context.Context, cat domain.Category) (domain.Category, error) {
	if err := store.ValidateCategory(cat); err != nil {
		return domain.Category{}, err
	}
	cat = cat.Clone()
	cat.ID = s.newID()
	cat.ToolIDs = []string{}

	err := s.write(ctx, func(c conn) error {
		if cat.SortOrder == 0 {
			var next sql.NullInt64
			if err := c.queryRow(ctx, `SELECT MAX(sort_order) + 1 FROM categories`).Scan(&next); err != nil {
				return err
			}
			if next.Valid && next.Int64 > 0 {
				cat.SortOrder = int(next.Int64)
			}
		}
		return c.exec(ctx, `INSERT INTO categories (id, name, collapsed, sort_order) VALUES (?, ?, ?, ?)`,
			cat.ID, cat.Name, cat.Collapsed, cat.SortOrder)
	})
	if err != nil {
		return domain.Category{}, fmt.Errorf("create category: %w", err)
	}
	return cat, nil
}

func (s *Store) UpdateCategory(ctx context.Context, id string, p domain.CategoryPatch) (domain.Category, error) {
	var out domain.Category
	err := s.write(ctx, func(c conn) error {
		current, err := c.category(ctx, id)
		if err != nil {
			return err
		}
		out = p.Apply(current)
		if err := store.ValidateCategory(out); err != nil {
			return err
		}
		return c.exec(ctx, `UPDATE categories SET name = ?, collapsed = ?, sort_order = ? WHERE id = ?`,
			out.Name, out.Collapsed, out.SortOrder, id)
	})
	return out, err
}

func (s *Store) DeleteCategory(ctx context.Context, id string, policy store.DeletePolicy) error {
	return s.write(ctx, func(c conn) error {
		exists, err := c.categoryExists(ctx, id)
		if err != nil {
			return err
		}
		if !exists {
			return domain.NotFound("category", id)
		}
		owned, err := c.ids(ctx, `SELECT id FROM tools WHERE category_id = ?`, id)
		if err != nil {
			return err
		}
		if len(owned) > 0 && policy != store.Cascade {
			return fmt.Errorf("category %q owns %d tools: %w", id, len(owned), store.ErrCategoryNotEmpty)
		}
		for _, toolID := range owned {
			if err := c.deleteTool(ctx, toolID); err != nil {
				return err
			}
		}
		return c.exec(ctx, `DELETE FROM categories WHERE id = ?`, id)
	})
}

func (s *Store) Reorder(ctx context.Context, categoryID string, order []string) (domain.Category, error) {
	var out domain.Category
	err := s.write(ctx, func(c conn) error {
		current, err := c.category(ctx, categoryID)
		if err != nil {
			return err
		}
		if err := store.CheckPermutation(current.ToolIDs, order); err != nil {
			return err
		}
		if err := c.writeOrder(ctx, categoryID, order); err != nil {
			return err
		}
		current.ToolIDs = append([]string{}, order...)
		out = current
		return nil
	})
	return out, err
}
