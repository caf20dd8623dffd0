package history

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"time"

	"github.com/doeshing/typecopilot/internal/domain"
	"github.com/doeshing/typecopilot/internal/ports"
)

// FileStore appends history records to a jsonl file.
type FileStore struct {
	path string
	mu   sync.Mutex
}

// NewFileStore creates a history store at dir/history.jsonl.
func NewFileStore(dir string) *FileStore {
	return &FileStore{path: filepath.Join(dir, jsonFile)}
}

// Save implements ports.HistoryRepository.
func (f *FileStore) Save(record domain.CorrectionRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := os.MkdirAll(filepath.Dir(f.path), domain.DirectoryPermissions); err != nil {
		return err
	}
	file, err := os.OpenFile(f.path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, domain.SecureFilePermissions)
	if err != nil {
		return err
	}
	defer file.Close()
	data, err := json.Marshal(record)
	if err != nil {
		return err
	}
	data = append(data, '\n')
	_, err = file.Write(data)
	return err
}

// Path returns the backing file path.
func (f *FileStore) Path() string {
	return f.path
}

// Clear removes the history file.
func (f *FileStore) Clear() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := os.Remove(f.path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// Records loads history entries newest first (best-effort: unreadable lines are skipped).
func (f *FileStore) Records(limit int) ([]domain.CorrectionRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	records, err := f.load()
	if err != nil {
		return nil, err
	}
	slices.Reverse(records)
	if limit > 0 && len(records) > limit {
		records = records[:limit]
	}
	return records, nil
}

// ExportJSON writes history entries to the given destination as jsonl.
func (f *FileStore) ExportJSON(dest string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	data, err := os.ReadFile(f.path)
	if err != nil {
		if !os.IsNotExist(err) {
			return err
		}
		data = nil
	}
	return os.WriteFile(dest, data, domain.SecureFilePermissions)
}

// Prune removes entries older than cutoff.
func (f *FileStore) Prune(cutoff time.Time) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	records, err := f.load()
	if err != nil || len(records) == 0 {
		return 0, err
	}
	var (
		buf     bytes.Buffer
		removed int
	)
	for _, rec := range records {
		if rec.Timestamp.Before(cutoff) {
			removed++
			continue
		}
		data, err := json.Marshal(rec)
		if err != nil {
			continue
		}
		buf.Write(data)
		buf.WriteByte('\n')
	}
	if removed == 0 {
		return 0, nil
	}
	return removed, os.WriteFile(f.path, buf.Bytes(), domain.SecureFilePermissions)
}

func (f *FileStore) load() ([]domain.CorrectionRecord, error) {
	data, err := os.ReadFile(f.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	lines := bytes.Split(bytes.TrimSpace(data), []byte("\n"))
	var records []domain.CorrectionRecord
	for _, line := range lines {
		if len(line) == 0 {
			continue
		}
		var rec domain.CorrectionRecord
		if err := json.Unmarshal(line, &rec); err == nil {
			records = append(records, rec)
		}
	}
	return records, nil
}

var _ ports.HistoryRepository = (*FileStore)(nil)
