package storage

import (
	"database/sql"
	"fmt"
	"log/slog"
	"sync"
	"triedb/pkg/common"

	_ "modernc.org/sqlite"
)

// Backend stores the source records the index is rebuilt from.
type Backend interface {
	BatchWrite(records []common.Record) error
	Delete(doc common.DocID, field string) error
	LoadAll() ([]common.Record, error)
	Close() error
	Truncate() error
}

type SQLiteBackend struct {
	db *sql.DB
	mu sync.Mutex
}

// NewSQLiteBackend opens (or creates) the database at path.
func NewSQLiteBackend(path string) (*SQLiteBackend, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}

	query := `
	CREATE TABLE IF NOT EXISTS records (
		doc   INTEGER NOT NULL,
		field TEXT    NOT NULL,
		kind  INTEGER NOT NULL,
		bits  INTEGER NOT NULL,
		PRIMARY KEY (doc, field)
	);`
	if _, err := db.Exec(query); err != nil {
		db.Close()
		return nil, fmt.Errorf("init records table: %w", err)
	}

	_, err = db.Exec(`
		PRAGMA journal_mode = WAL;
		PRAGMA synchronous = NORMAL;
	`)
	if err != nil {
		slog.Warn("failed to set sqlite pragmas", "path", path, "error", err)
	}

	return &SQLiteBackend{db: db}, nil
}

const upsertRecord = "INSERT OR REPLACE INTO records (doc, field, kind, bits) VALUES (?, ?, ?, ?)"

func (s *SQLiteBackend) BatchWrite(records []common.Record) error {
	if len(records) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.Begin()
	if err != nil {
		return err
	}

	stmt, err := tx.Prepare(upsertRecord)
	if err != nil {
		tx.Rollback()
		return err
	}
	defer stmt.Close()

	for _, rec := range records {
		if _, err := stmt.Exec(int64(rec.Doc), rec.Field, int(rec.Value.Kind), rec.Value.Bits); err != nil {
			tx.Rollback()
			return err
		}
	}

	return tx.Commit()
}

func (s *SQLiteBackend) Delete(doc common.DocID, field string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.db.Exec("DELETE FROM records WHERE doc = ? AND field = ?", int64(doc), field)
	return err
}

func (s *SQLiteBackend) LoadAll() ([]common.Record, error) {
	rows, err := s.db.Query("SELECT doc, field, kind, bits FROM records ORDER BY field ASC, doc ASC")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []common.Record
	for rows.Next() {
		var (
			doc   int64
			field string
			kind  int
			bits  int64
		)
		if err := rows.Scan(&doc, &field, &kind, &bits); err != nil {
			return nil, err
		}
		records = append(records, common.Record{
			Doc:   common.DocID(doc),
			Field: field,
			Value: common.Value{Kind: common.Kind(kind), Bits: bits},
		})
	}
	return records, rows.Err()
}

func (s *SQLiteBackend) Truncate() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.db.Exec("DELETE FROM records")
	return err
}

func (s *SQLiteBackend) Close() error {
	return s.db.Close()
}
