package store

import (
	"fmt"

	"github.com/jmoiron/sqlx"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS objects (
	name TEXT PRIMARY KEY,
	size INTEGER NOT NULL,
	last_modified TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_objects_last_modified ON objects(last_modified);
`

const upsertSQL = `INSERT OR REPLACE INTO objects (name, size, last_modified) VALUES (?, ?, ?)`

// ObjectInfo is the index entry for one stored object
type ObjectInfo struct {
	Name         string `json:"name" db:"name"`
	Size         int64  `json:"size" db:"size"`
	LastModified string `json:"lastModified" db:"last_modified"`
}

// ObjectIndex keeps object metadata in sqlite. It is derived state: the
// files under the store root are the source of truth and the index can be
// rebuilt from them at any time.
type ObjectIndex struct {
	db *sqlx.DB
}

func NewObjectIndex(db *sqlx.DB) (*ObjectIndex, error) {
	if _, err := db.Exec(schemaSQL); err != nil {
		return nil, fmt.Errorf("failed to initialize index: %w", err)
	}
	return &ObjectIndex{db: db}, nil
}

func (oi *ObjectIndex) Close() error {
	return oi.db.Close()
}

// Get retrieves the entry for name
func (oi *ObjectIndex) Get(name string) (*ObjectInfo, bool) {
	var info ObjectInfo
	err := oi.db.Get(&info, "SELECT name, size, last_modified FROM objects WHERE name = ?", name)
	if err != nil {
		return nil, false
	}
	return &info, true
}

// Set adds or updates an entry
func (oi *ObjectIndex) Set(info *ObjectInfo) error {
	_, err := oi.db.Exec(upsertSQL, info.Name, info.Size, info.LastModified)
	return err
}

func (oi *ObjectIndex) Remove(name string) error {
	_, err := oi.db.Exec("DELETE FROM objects WHERE name = ?", name)
	return err
}

// List returns all entries ordered by name
func (oi *ObjectIndex) List() ([]*ObjectInfo, error) {
	objects := make([]*ObjectInfo, 0)
	if err := oi.db.Select(&objects, "SELECT name, size, last_modified FROM objects ORDER BY name"); err != nil {
		return nil, fmt.Errorf("list objects: %w", err)
	}
	return objects, nil
}

func (oi *ObjectIndex) Count() (int, error) {
	var count int
	if err := oi.db.Get(&count, "SELECT COUNT(*) FROM objects"); err != nil {
		return 0, err
	}
	return count, nil
}

// Reset replaces the whole index with objects in a single transaction
func (oi *ObjectIndex) Reset(objects []*ObjectInfo) error {
	tx, err := oi.db.Beginx()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	if _, err := tx.Exec("DELETE FROM objects"); err != nil {
		tx.Rollback()
		return fmt.Errorf("failed to clear index: %w", err)
	}

	stmt, err := tx.Preparex(upsertSQL)
	if err != nil {
		tx.Rollback()
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	for _, obj := range objects {
		if _, err := stmt.Exec(obj.Name, obj.Size, obj.LastModified); err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to insert %q: %w", obj.Name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}
