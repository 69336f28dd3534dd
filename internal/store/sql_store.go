package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	apperrors "github.com/SAP-F-2025/classroom-session/internal/errors"
	_ "modernc.org/sqlite"
)

const createRecordsTable = `CREATE TABLE IF NOT EXISTS records (
	path       TEXT PRIMARY KEY,
	data       TEXT NOT NULL,
	updated_at INTEGER NOT NULL
)`

// SQLStore is the offline record store on an embedded SQLite file.
type SQLStore struct {
	db *sql.DB
}

// OpenSQLite opens (and creates when needed) the SQLite database at dsn.
func OpenSQLite(ctx context.Context, dsn string) (*SQLStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite: %w", err)
	}
	// single writer; also keeps ":memory:" one database
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, createRecordsTable); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create records table: %w", err)
	}
	return &SQLStore{db: db}, nil
}

func (s *SQLStore) Get(ctx context.Context, path string, dest interface{}) (bool, error) {
	var data string
	err := s.db.QueryRowContext(ctx, `SELECT data FROM records WHERE path = ?`, path).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, apperrors.FromTransport(err)
	}
	if err := json.Unmarshal([]byte(data), dest); err != nil {
		return false, fmt.Errorf("failed to decode record %s: %w", path, err)
	}
	return true, nil
}

func (s *SQLStore) Set(ctx context.Context, path string, value interface{}) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to encode record %s: %w", path, err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO records (path, data, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(path) DO UPDATE SET data = excluded.data, updated_at = excluded.updated_at`,
		path, string(data), time.Now().Unix())
	if err != nil {
		return apperrors.FromTransport(err)
	}
	return nil
}

func (s *SQLStore) Close() error {
	return s.db.Close()
}
