package sqlstore

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/MrSnakeDoc/toolshelf/internal/domain"
	"github.com/MrSnakeDoc/toolshelf/internal/logger"
	"github.com/MrSnakeDoc/toolshelf/internal/store"
	"github.com/MrSnakeDoc/toolshelf/internal/store/storetest"
)

func TestSQLiteStore(t *testing.T) {
	storetest.Run(t, func(t *testing.T) store.Store {
		dsn := "file:" + filepath.Join(t.TempDir(), "toolshelf.db")
		s, err := Open(context.Background(), DriverSQLite, dsn, logger.New("error", false))
		if err != nil {
			t.Fatalf("Open() error = %v", err)
		}
		t.Cleanup(func() { _ = s.Close() })
		return s
	})
}

// TestPostgresStore runs against a live database when
// TOOLSHELF_TEST_POSTGRES_DSN is set.
func TestPostgresStore(t *testing.T) {
	dsn := os.Getenv("TOOLSHELF_TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("TOOLSHELF_TEST_POSTGRES_DSN not set")
	}
	storetest.Run(t, func(t *testing.T) store.Store {
		s, err := Open(context.Background(), DriverPostgres, dsn, logger.New("error", false))
		if err != nil {
			t.Fatalf("Open() error = %v", err)
		}
		for _, table := range []string{"collection_tool", "collections", "category_tool_order", "tools", "categories"} {
			if _, err := s.db.Exec("DELETE FROM " + table); err != nil {
				t.Fatalf("truncate %s: %v", table, err)
			}
		}
		t.Cleanup(func() { _ = s.Close() })
		return s
	})
}

func TestOpenRejectsUnknownDriver(t *testing.T) {
	if _, err := Open(context.Background(), "mysql", "", logger.New("error", false)); err == nil {
		t.Fatal("Open(mysql) error = nil")
	}
}

func TestSQLitePersistsAcrossReopen(t *testing.T) {
	ctx := context.Background()
	dsn := "file:" + filepath.Join(t.TempDir(), "toolshelf.db")
	log := logger.New("error", false)

	s, err := Open(ctx, DriverSQLite, dsn, log)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	cat, err := s.CreateCategory(ctx, domain.Category{Name: "Coding"})
	if err != nil {
		t.Fatalf("CreateCategory() error = %v", err)
	}
	_ = s.Close()

	s, err = Open(ctx, DriverSQLite, dsn, log)
	if err != nil {
		t.Fatalf("reopen error = %v", err)
	}
	defer s.Close()
	got, err := s.GetCategory(ctx, cat.ID)
	if err != nil || got.Name != "Coding" {
		t.Errorf("GetCategory() = %+v, %v", got, err)
	}
}

func TestRebind(t *testing.T) {
	tests := []struct {
		driver string
		in     string
		want   string
	}{
		{DriverSQLite, "SELECT * FROM t WHERE a = ? AND b = ?", "SELECT * FROM t WHERE a = ? AND b = ?"},
		{DriverPostgres, "SELECT * FROM t WHERE a = ? AND b = ?", "SELECT * FROM t WHERE a = $1 AND b = $2"},
	}
	for _, tt := range tests {
		s := &Store{driver: tt.driver}
		if got := s.rebind(tt.in); got != tt.want {
			t.Errorf("rebind(%s) = %q, want %q", tt.driver, got, tt.want)
		}
	}
}

func TestWithForeignKeys(t *testing.T) {
	tests := map[string]string{
		"":                       "file:toolshelf.db?_foreign_keys=on",
		"file:x.db":              "file:x.db?_foreign_keys=on",
		"file:x.db?cache=shared": "file:x.db?cache=shared&_foreign_keys=on",
		"file:x.db?_fk=1":        "file:x.db?_fk=1",
	}
	for in, want := range tests {
		if got := withForeignKeys(in); got != want {
			t.Errorf("withForeignKeys(%q) = %q, want %q", in, got, want)
		}
	}
}
