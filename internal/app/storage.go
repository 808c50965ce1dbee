package app

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/klabast/wb-services/groupie-dates/internal/dates"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

var (
	// ErrNotFound is returned when a record does not exist
	ErrNotFound = errors.New("record not found")
	// ErrPosition is returned when a move targets a position outside the list
	ErrPosition = errors.New("position out of range")
	// ErrNoStagedChanges is returned by Commit and Revert when nothing is staged
	ErrNoStagedChanges = errors.New("no staged changes")
)

// Store persists date records in list order
type Store interface {
	List(ctx context.Context) ([]dates.DateRecord, error)
	Add(ctx context.Context, data dates.Data) (dates.DateRecord, error)
	Delete(ctx context.Context, id dates.ID) error
	// Move puts the record with id at the zero-based position in the list
	Move(ctx context.Context, id dates.ID, position int) error
	Close() error
}

// Stager is implemented by stores that collect edits before publishing them
type Stager interface {
	HasChanges() bool
	Commit() error
	Revert() error
}

// OpenStore picks the backend from the file extension: .db and .sqlite
// open a SQLite database, anything else a JSON or YAML file.
func OpenStore(path string, logger *zap.Logger) (Store, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".db", ".sqlite", ".sqlite3":
		store, err := OpenSQLiteStore(path)
		if err != nil {
			return nil, err
		}
		return store, nil
	default:
		store, err := OpenFileStore(path, logger)
		if err != nil {
			return nil, err
		}
		return store, nil
	}
}

// FileStore keeps records in memory, backed by a JSON or YAML file.
// With staging on, changes go to a side file until Commit.
type FileStore struct {
	path    string
	logger  *zap.Logger
	mu      sync.RWMutex
	records []dates.DateRecord
	staging bool
}

// OpenFileStore loads path. A missing file starts an empty store.
func OpenFileStore(path string, logger *zap.Logger) (*FileStore, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &FileStore{path: path, logger: logger}

	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		logger.Warn("Data file not found, starting empty", zap.String("path", path))
		return s, nil
	}
	if err := s.Reload(); err != nil {
		return nil, err
	}
	return s, nil
}

// Path returns the backing file
func (s *FileStore) Path() string {
	return s.path
}

// StagedPath returns the file staged edits are written to
func (s *FileStore) StagedPath() string {
	return s.path + StagedSuffix
}

// Reload re-reads the backing file
func (s *FileStore) Reload() error {
	return s.loadFrom(s.path)
}

// EnableStaging routes further writes to StagedPath. Edits left staged by
// an earlier run are loaded.
func (s *FileStore) EnableStaging() error {
	s.mu.Lock()
	s.staging = true
	s.mu.Unlock()

	if _, err := os.Stat(s.StagedPath()); err == nil {
		s.logger.Warn("Found staged dates, loading unsaved changes", zap.String("path", s.StagedPath()))
		return s.loadFrom(s.StagedPath())
	}
	return nil
}

// HasChanges reports whether staged edits are waiting for Commit
func (s *FileStore) HasChanges() bool {
	_, err := os.Stat(s.StagedPath())
	return err == nil
}

// Commit moves the current file into the backup directory and makes the
// staged file the new main file
func (s *FileStore) Commit() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	staged := s.StagedPath()
	if _, err := os.Stat(staged); errors.Is(err, os.ErrNotExist) {
		return ErrNoStagedChanges
	}

	backupDir := filepath.Join(filepath.Dir(s.path), BackupDir)
	if err := os.MkdirAll(backupDir, 0755); err != nil {
		return fmt.Errorf("create backup directory: %w", err)
	}

	if _, err := os.Stat(s.path); err == nil {
		backup := filepath.Join(backupDir,
			fmt.Sprintf("%d_%s%s", time.Now().Unix(), filepath.Base(s.path), BackupSuffix))
		if err := os.Rename(s.path, backup); err != nil {
			return fmt.Errorf("create backup: %w", err)
		}
		s.logger.Info("Backup created", zap.String("path", backup))
	}

	if err := os.Rename(staged, s.path); err != nil {
		return fmt.Errorf("commit %s: %w", staged, err)
	}
	s.logger.Info("Changes committed", zap.String("path", s.path))
	return nil
}

// Revert drops the staged file and reloads the main file
func (s *FileStore) Revert() error {
	staged := s.StagedPath()
	if _, err := os.Stat(staged); errors.Is(err, os.ErrNotExist) {
		return ErrNoStagedChanges
	}
	if err := os.Remove(staged); err != nil {
		return fmt.Errorf("remove %s: %w", staged, err)
	}

	if _, err := os.Stat(s.path); errors.Is(err, os.ErrNotExist) {
		s.mu.Lock()
		s.records = nil
		s.mu.Unlock()
	} else if err := s.Reload(); err != nil {
		return err
	}

	s.logger.Info("Changes reverted", zap.String("path", s.path))
	return nil
}

// loadFrom replaces the records with the content of file. The format
// follows the main file's extension.
func (s *FileStore) loadFrom(file string) error {
	data, err := os.ReadFile(file)
	if err != nil {
		return fmt.Errorf("read %s: %w", file, err)
	}

	records, err := decodeRecords(s.path, data)
	if err != nil {
		return fmt.Errorf("decode %s: %w", file, err)
	}

	s.mu.Lock()
	s.records = records
	s.mu.Unlock()

	s.logger.Info("Loaded dates", zap.String("path", file), zap.Int("count", len(records)))
	return nil
}

// List returns a copy of all records
func (s *FileStore) List(ctx context.Context) ([]dates.DateRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]dates.DateRecord, len(s.records))
	copy(out, s.records)
	return out, nil
}

// Add appends a record with the next free numeric ID and saves the file
func (s *FileStore) Add(ctx context.Context, data dates.Data) (dates.DateRecord, error) {
	if err := ctx.Err(); err != nil {
		return dates.DateRecord{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	rec := dates.DateRecord{ID: NextID(s.records), Data: data}
	prev := s.records
	s.records = append(append([]dates.DateRecord(nil), prev...), rec)

	if err := s.saveLocked(); err != nil {
		s.records = prev
		return dates.DateRecord{}, err
	}
	return rec, nil
}

// Delete removes the record with id and saves the file
func (s *FileStore) Delete(ctx context.Context, id dates.ID) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := -1
	for i, rec := range s.records {
		if rec.ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return ErrNotFound
	}

	prev := s.records
	next := make([]dates.DateRecord, 0, len(prev)-1)
	next = append(next, prev[:idx]...)
	s.records = append(next, prev[idx+1:]...)

	if err := s.saveLocked(); err != nil {
		s.records = prev
		return err
	}
	return nil
}

// Move puts the record with id at position and saves the file
func (s *FileStore) Move(ctx context.Context, id dates.ID, position int) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	next, err := moveRecord(s.records, id, position)
	if err != nil {
		return err
	}

	prev := s.records
	s.records = next
	if err := s.saveLocked(); err != nil {
		s.records = prev
		return err
	}
	return nil
}

// moveRecord returns a copy of records with id moved to position
func moveRecord(records []dates.DateRecord, id dates.ID, position int) ([]dates.DateRecord, error) {
	idx := -1
	for i, rec := range records {
		if rec.ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil, ErrNotFound
	}
	if position < 0 || position >= len(records) {
		return nil, ErrPosition
	}

	rec := records[idx]
	rest := make([]dates.DateRecord, 0, len(records))
	rest = append(rest, records[:idx]...)
	rest = append(rest, records[idx+1:]...)

	out := make([]dates.DateRecord, 0, len(records))
	out = append(out, rest[:position]...)
	out = append(out, rec)
	return append(out, rest[position:]...), nil
}

// Close is a no-op; writes are flushed on every change
func (s *FileStore) Close() error {
	return nil
}

// saveLocked writes the records with backup (caller must hold lock).
// Staged stores only rewrite the staged file.
func (s *FileStore) saveLocked() error {
	data, err := encodeRecords(s.path, s.records)
	if err != nil {
		return fmt.Errorf("encode %s: %w", s.path, err)
	}

	if s.staging {
		if err := os.WriteFile(s.StagedPath(), data, FilePermissions); err != nil {
			return fmt.Errorf("write %s: %w", s.StagedPath(), err)
		}
		return nil
	}

	// Create backup
	if _, err := os.Stat(s.path); err == nil {
		if err := copyFile(s.path, s.path+BackupSuffix); err != nil {
			s.logger.Warn("Failed to create backup", zap.String("path", s.path), zap.Error(err))
		}
	}

	// Write to temp file first
	tmpFile := s.path + TmpSuffix
	if err := os.WriteFile(tmpFile, data, FilePermissions); err != nil {
		return fmt.Errorf("write %s: %w", tmpFile, err)
	}

	// Rename temp file to actual file
	if err := os.Rename(tmpFile, s.path); err != nil {
		return fmt.Errorf("rename %s: %w", tmpFile, err)
	}
	return nil
}

func copyFile(src, dst string) error {
	data, err := os.ReadFile(src)
	if err != nil {
		return err
	}
	return os.WriteFile(dst, data, FilePermissions)
}

func isYAML(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return true
	}
	return false
}

func decodeRecords(path string, data []byte) ([]dates.DateRecord, error) {
	if isYAML(path) {
		var records []dates.DateRecord
		if err := yaml.Unmarshal(data, &records); err != nil {
			return nil, err
		}
		return records, nil
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, nil
	}
	return dates.Decode(bytes.NewReader(data))
}

func encodeRecords(path string, records []dates.DateRecord) ([]byte, error) {
	if records == nil {
		records = []dates.DateRecord{}
	}
	if isYAML(path) {
		return yaml.Marshal(records)
	}
	return json.MarshalIndent(records, "", "  ")
}
