package history

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"github.com/doeshing/typecopilot/internal/domain"
	"github.com/doeshing/typecopilot/internal/ports"
)

const (
	dbFile   = "history.db"
	jsonFile = "history.jsonl"
)

// SQLiteStore persists correction history in a SQLite database. When the database
// cannot be opened it degrades to a FileStore in the same directory.
type SQLiteStore struct {
	db       *sql.DB
	path     string
	fallback *FileStore
	mu       sync.Mutex
}

// NewSQLiteStore creates (or opens) dir/history.db.
func NewSQLiteStore(dir string) *SQLiteStore {
	path := filepath.Join(dir, dbFile)
	fallback := &FileStore{path: filepath.Join(dir, jsonFile)}
	if err := os.MkdirAll(dir, domain.DirectoryPermissions); err != nil {
		return &SQLiteStore{path: path, fallback: fallback}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return &SQLiteStore{path: path, fallback: fallback}
	}
	store := &SQLiteStore{db: db, path: path}
	if err := store.init(); err != nil {
		_ = db.Close()
		return &SQLiteStore{path: path, fallback: fallback}
	}
	return store
}

func (s *SQLiteStore) init() error {
	if s.db == nil {
		return os.ErrInvalid
	}
	_, err := s.db.Exec(`CREATE TABLE IF NOT EXISTS corrections (
		id TEXT PRIMARY KEY,
		timestamp_ns INTEGER,
		mode TEXT,
		target TEXT,
		model TEXT,
		streamed INTEGER,
		outcome TEXT,
		error TEXT,
		input_len INTEGER,
		output_len INTEGER,
		fragments INTEGER,
		input TEXT,
		output TEXT,
		duration_ms INTEGER
	);`)
	return err
}

// Save inserts a new record.
func (s *SQLiteStore) Save(record domain.CorrectionRecord) error {
	if s.db == nil {
		return s.fallback.Save(record)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.db.Exec(`INSERT INTO corrections
		(id, timestamp_ns, mode, target, model, streamed, outcome, error, input_len, output_len, fragments, input, output, duration_ms)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		record.ID,
		record.Timestamp.UnixNano(),
		string(record.Mode),
		string(record.Target),
		record.Model,
		boolToInt(record.Streamed),
		record.Outcome,
		record.Error,
		record.InputLen,
		record.OutputLen,
		record.Fragments,
		record.Input,
		record.Output,
		record.DurationMS,
	)
	return err
}

// Records returns the newest records first. A limit of 0 returns everything.
func (s *SQLiteStore) Records(limit int) ([]domain.CorrectionRecord, error) {
	if s.db == nil {
		return s.fallback.Records(limit)
	}
	query := `SELECT id, timestamp_ns, mode, target, model, streamed, outcome, error,
		input_len, output_len, fragments, input, output, duration_ms
		FROM corrections ORDER BY timestamp_ns DESC`
	var args []interface{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var records []domain.CorrectionRecord
	for rows.Next() {
		var (
			rec          domain.CorrectionRecord
			ts           int64
			mode, target string
			streamed     int
		)
		if err := rows.Scan(&rec.ID, &ts, &mode, &target, &rec.Model, &streamed, &rec.Outcome, &rec.Error,
			&rec.InputLen, &rec.OutputLen, &rec.Fragments, &rec.Input, &rec.Output, &rec.DurationMS); err != nil {
			return nil, err
		}
		rec.Timestamp = time.Unix(0, ts)
		rec.Mode = domain.Mode(mode)
		rec.Target = domain.Target(target)
		rec.Streamed = streamed == 1
		records = append(records, rec)
	}
	return records, rows.Err()
}

// Prune deletes records older than cutoff and reports how many were removed.
func (s *SQLiteStore) Prune(cutoff time.Time) (int, error) {
	if s.db == nil {
		return s.fallback.Prune(cutoff)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	res, err := s.db.Exec("DELETE FROM corrections WHERE timestamp_ns < ?", cutoff.UnixNano())
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	return int(n), err
}

// Clear deletes all history entries.
func (s *SQLiteStore) Clear() error {
	if s.db == nil {
		return s.fallback.Clear()
	}
	_, err := s.db.Exec("DELETE FROM corrections")
	return err
}

// ExportJSON writes every record to dest as jsonl, newest first.
func (s *SQLiteStore) ExportJSON(dest string) error {
	if s.db == nil {
		return s.fallback.ExportJSON(dest)
	}
	records, err := s.Records(0)
	if err != nil {
		return err
	}
	file, err := os.Create(dest)
	if err != nil {
		return err
	}
	defer file.Close()
	for _, rec := range records {
		b, err := json.Marshal(rec)
		if err != nil {
			return err
		}
		if _, err := file.Write(append(b, '\n')); err != nil {
			return err
		}
	}
	return nil
}

// Path returns the database path, or the jsonl path when running degraded.
func (s *SQLiteStore) Path() string {
	if s.db == nil {
		return s.fallback.Path()
	}
	return s.path
}

// Close releases the database handle.
func (s *SQLiteStore) Close() error {
	if s.db == nil {
		return nil
	}
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("close history database: %w", err)
	}
	return nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

var _ ports.HistoryRepository = (*SQLiteStore)(nil)
