// Package local manages the SQLite database holding the device-local copy
// of lists and items.
//
// Only this package may open or query the database. All other packages
// receive the repositories returned by [Store.Lists] and [Store.Items] and
// call their methods. The store is durable across restarts and keeps ids
// unique by PRIMARY KEY constraint, which is what lets the engine treat
// the local copy as canonical and duplicate-free.
package local

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3" // SQLite driver

	"github.com/N3z3d/prioris/internal/model"
)

const schema = `
CREATE TABLE IF NOT EXISTS lists (
    id          TEXT PRIMARY KEY,
    name        TEXT NOT NULL,
    type        TEXT NOT NULL DEFAULT 'CUSTOM',
    description TEXT NOT NULL DEFAULT '',
    created_at  TEXT NOT NULL DEFAULT '',
    updated_at  TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS items (
    id         TEXT PRIMARY KEY,
    title      TEXT NOT NULL,
    list_id    TEXT NOT NULL,
    completed  INTEGER NOT NULL DEFAULT 0,
    created_at TEXT NOT NULL DEFAULT ''
);

CREATE INDEX IF NOT EXISTS idx_items_list_id ON items (list_id);
`

// Store owns the SQLite connection shared by the two repositories.
type Store struct {
	db *sql.DB
}

// Open opens (or creates) the SQLite database at path, applies the schema,
// and configures WAL mode for better concurrent read performance.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("opening database %q: %w", path, err)
	}

	// Single writer to avoid SQLITE_BUSY under WAL.
	db.SetMaxOpenConns(1)

	if err := migrate(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("applying schema: %w", err)
	}

	return &Store{db: db}, nil
}

// Close releases the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Lists returns the list repository backed by this store.
func (s *Store) Lists() *ListStore { return &ListStore{db: s.db} }

// Items returns the item repository backed by this store.
func (s *Store) Items() *ItemStore { return &ItemStore{db: s.db} }

// migrate applies the schema DDL idempotently (CREATE IF NOT EXISTS).
func migrate(db *sql.DB) error {
	_, err := db.Exec(schema)
	return err
}

// --- ListStore ---------------------------------------------------------------

// ListStore is the SQLite-backed list repository.
type ListStore struct {
	db *sql.DB
}

const listColumns = `id, name, type, description, created_at, updated_at`

// GetAll returns every stored list, ordered by creation time.
func (s *ListStore) GetAll(ctx context.Context) ([]*model.List, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+listColumns+` FROM lists ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("querying lists: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var lists []*model.List
	for rows.Next() {
		l, err := scanList(rows)
		if err != nil {
			return nil, err
		}
		lists = append(lists, l)
	}
	return lists, rows.Err()
}

// GetByID returns the list with the given id, or (nil, nil) if absent.
func (s *ListStore) GetByID(ctx context.Context, id string) (*model.List, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+listColumns+` FROM lists WHERE id = ?`, id)
	return scanList(row)
}

// Save inserts a new list.
func (s *ListStore) Save(ctx context.Context, list *model.List) error {
	const q = `INSERT INTO lists (id, name, type, description, created_at, updated_at)
	           VALUES (?, ?, ?, ?, ?, ?)`
	_, err := s.db.ExecContext(ctx, q,
		list.ID, list.Name, string(list.Type), list.Description,
		formatTime(list.CreatedAt), formatTime(list.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("inserting list %q: %w", list.ID, err)
	}
	return nil
}

// Update overwrites an existing list's mutable fields.
func (s *ListStore) Update(ctx context.Context, list *model.List) error {
	const q = `UPDATE lists SET name = ?, type = ?, description = ?, updated_at = ? WHERE id = ?`
	if _, err := s.db.ExecContext(ctx, q,
		list.Name, string(list.Type), list.Description, formatTime(list.UpdatedAt), list.ID,
	); err != nil {
		return fmt.Errorf("updating list %q: %w", list.ID, err)
	}
	return nil
}

// Delete removes the list with the given id and its items.
func (s *ListStore) Delete(ctx context.Context, id string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM items WHERE list_id = ?`, id); err != nil {
		return fmt.Errorf("deleting items of list %q: %w", id, err)
	}
	if _, err := s.db.ExecContext(ctx, `DELETE FROM lists WHERE id = ?`, id); err != nil {
		return fmt.Errorf("deleting list %q: %w", id, err)
	}
	return nil
}

// --- ItemStore ---------------------------------------------------------------

// ItemStore is the SQLite-backed item repository.
type ItemStore struct {
	db *sql.DB
}

const itemColumns = `id, title, list_id, completed, created_at`

// GetAll returns every stored item, ordered by creation time.
func (s *ItemStore) GetAll(ctx context.Context) ([]*model.Item, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+itemColumns+` FROM items ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("querying items: %w", err)
	}
	defer func() { _ = rows.Close() }()
	return collectItems(rows)
}

// GetByID returns the item with the given id, or (nil, nil) if absent.
func (s *ItemStore) GetByID(ctx context.Context, id string) (*model.Item, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+itemColumns+` FROM items WHERE id = ?`, id)
	return scanItem(row)
}

// GetByListID returns the items belonging to the given list, in creation order.
func (s *ItemStore) GetByListID(ctx context.Context, listID string) ([]*model.Item, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+itemColumns+` FROM items WHERE list_id = ? ORDER BY created_at, id`, listID)
	if err != nil {
		return nil, fmt.Errorf("querying items for list %q: %w", listID, err)
	}
	defer func() { _ = rows.Close() }()
	return collectItems(rows)
}

// Save inserts a new item.
func (s *ItemStore) Save(ctx context.Context, item *model.Item) error {
	const q = `INSERT INTO items (id, title, list_id, completed, created_at)
	           VALUES (?, ?, ?, ?, ?)`
	_, err := s.db.ExecContext(ctx, q,
		item.ID, item.Title, item.ListID, boolToInt(item.Completed), formatTime(item.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("inserting item %q: %w", item.ID, err)
	}
	return nil
}

// Update overwrites an existing item's mutable fields.
func (s *ItemStore) Update(ctx context.Context, item *model.Item) error {
	const q = `UPDATE items SET title = ?, list_id = ?, completed = ? WHERE id = ?`
	if _, err := s.db.ExecContext(ctx, q,
		item.Title, item.ListID, boolToInt(item.Completed), item.ID,
	); err != nil {
		return fmt.Errorf("updating item %q: %w", item.ID, err)
	}
	return nil
}

// Delete removes the item with the given id.
func (s *ItemStore) Delete(ctx context.Context, id string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM items WHERE id = ?`, id); err != nil {
		return fmt.Errorf("deleting item %q: %w", id, err)
	}
	return nil
}

// --- helpers -----------------------------------------------------------------

// scanner matches both *sql.Row and *sql.Rows so the scan helpers can be reused.
type scanner interface {
	Scan(dest ...any) error
}

func scanList(s scanner) (*model.List, error) {
	var l model.List
	var typ, createdAt, updatedAt string

	err := s.Scan(&l.ID, &l.Name, &typ, &l.Description, &createdAt, &updatedAt)
	if err == sql.ErrNoRows {
		return nil, nil //nolint:nilnil // intentional: "not found" sentinel
	}
	if err != nil {
		return nil, fmt.Errorf("scanning list row: %w", err)
	}

	l.Type = model.ListType(typ)
	l.CreatedAt, _ = parseTime(createdAt)
	l.UpdatedAt, _ = parseTime(updatedAt)
	return &l, nil
}

func scanItem(s scanner) (*model.Item, error) {
	var i model.Item
	var completed int
	var createdAt string

	err := s.Scan(&i.ID, &i.Title, &i.ListID, &completed, &createdAt)
	if err == sql.ErrNoRows {
		return nil, nil //nolint:nilnil // intentional: "not found" sentinel
	}
	if err != nil {
		return nil, fmt.Errorf("scanning item row: %w", err)
	}

	i.Completed = completed != 0
	i.CreatedAt, _ = parseTime(createdAt)
	return &i, nil
}

func collectItems(rows *sql.Rows) ([]*model.Item, error) {
	var items []*model.Item
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	return time.Parse(time.RFC3339Nano, s)
}
