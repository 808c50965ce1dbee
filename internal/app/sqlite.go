package app

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/klabast/wb-services/groupie-dates/internal/dates"
	_ "modernc.org/sqlite"
)

var sqliteSchema = []string{
	`CREATE TABLE IF NOT EXISTS date_records (
		id TEXT PRIMARY KEY,
		position INTEGER NOT NULL,
		data TEXT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_date_records_position ON date_records(position)`,
}

// SQLiteStore persists records in a SQLite database
type SQLiteStore struct {
	sqlDB *sql.DB
}

// OpenSQLiteStore opens the database at path and applies the schema
func OpenSQLiteStore(path string) (*SQLiteStore, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	dsn := filepath.Clean(path) + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	for _, stmt := range sqliteSchema {
		if _, err := sqlDB.Exec(stmt); err != nil {
			_ = sqlDB.Close()
			return nil, fmt.Errorf("apply schema: %w", err)
		}
	}
	return &SQLiteStore{sqlDB: sqlDB}, nil
}

// Close closes the SQLite handle
func (s *SQLiteStore) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

// List returns all records ordered by insertion position
func (s *SQLiteStore) List(ctx context.Context) ([]dates.DateRecord, error) {
	rows, err := s.sqlDB.QueryContext(ctx, `SELECT id, data FROM date_records ORDER BY position`)
	if err != nil {
		return nil, fmt.Errorf("query records: %w", err)
	}
	defer rows.Close()

	records := []dates.DateRecord{}
	for rows.Next() {
		var id, raw string
		if err := rows.Scan(&id, &raw); err != nil {
			return nil, fmt.Errorf("scan record: %w", err)
		}
		rec := dates.DateRecord{ID: dates.ID(id)}
		if err := json.Unmarshal([]byte(raw), &rec.Data); err != nil {
			return nil, fmt.Errorf("decode record %s: %w", id, err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate records: %w", err)
	}
	return records, nil
}

// Add inserts a record at the end of the list with the next free numeric ID
func (s *SQLiteStore) Add(ctx context.Context, data dates.Data) (dates.DateRecord, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return dates.DateRecord{}, fmt.Errorf("encode data: %w", err)
	}

	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return dates.DateRecord{}, fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	rows, err := tx.QueryContext(ctx, `SELECT id FROM date_records`)
	if err != nil {
		return dates.DateRecord{}, fmt.Errorf("query ids: %w", err)
	}
	var existing []dates.DateRecord
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return dates.DateRecord{}, fmt.Errorf("scan id: %w", err)
		}
		existing = append(existing, dates.DateRecord{ID: dates.ID(id)})
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return dates.DateRecord{}, fmt.Errorf("iterate ids: %w", err)
	}

	var position int64
	if err := tx.QueryRowContext(ctx, `SELECT COALESCE(MAX(position), 0) + 1 FROM date_records`).Scan(&position); err != nil {
		return dates.DateRecord{}, fmt.Errorf("next position: %w", err)
	}

	rec := dates.DateRecord{ID: NextID(existing), Data: data}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO date_records (id, position, data) VALUES (?, ?, ?)`,
		rec.ID.String(), position, string(raw),
	); err != nil {
		return dates.DateRecord{}, fmt.Errorf("insert record: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return dates.DateRecord{}, fmt.Errorf("commit: %w", err)
	}
	return rec, nil
}

// Delete removes the record with id
func (s *SQLiteStore) Delete(ctx context.Context, id dates.ID) error {
	res, err := s.sqlDB.ExecContext(ctx, `DELETE FROM date_records WHERE id = ?`, id.String())
	if err != nil {
		return fmt.Errorf("delete record: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// Move puts the record with id at position and renumbers the list
func (s *SQLiteStore) Move(ctx context.Context, id dates.ID, position int) error {
	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	rows, err := tx.QueryContext(ctx, `SELECT id FROM date_records ORDER BY position`)
	if err != nil {
		return fmt.Errorf("query ids: %w", err)
	}
	var ordered []dates.DateRecord
	for rows.Next() {
		var rid string
		if err := rows.Scan(&rid); err != nil {
			rows.Close()
			return fmt.Errorf("scan id: %w", err)
		}
		ordered = append(ordered, dates.DateRecord{ID: dates.ID(rid)})
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate ids: %w", err)
	}

	moved, err := moveRecord(ordered, id, position)
	if err != nil {
		return err
	}

	stmt, err := tx.PrepareContext(ctx, `UPDATE date_records SET position = ? WHERE id = ?`)
	if err != nil {
		return fmt.Errorf("prepare update: %w", err)
	}
	defer stmt.Close()
	for i, rec := range moved {
		if _, err := stmt.ExecContext(ctx, i+1, rec.ID.String()); err != nil {
			return fmt.Errorf("update position of %s: %w", rec.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}
