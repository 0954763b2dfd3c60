package jobstore

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"vidq/internal/domain/download"
)

// ErrNotFound is returned for unknown download ids.
var ErrNotFound = errors.New("download not found")

// Store keeps download records in memory and mirrors them to a JSON file so
// jobs survive process restarts. An empty file path disables persistence.
type Store struct {
	mu   sync.RWMutex
	byID map[string]download.Download
	file string
}

// NewStore creates a record store and loads any persisted state from disk.
func NewStore(file string) (*Store, error) {
	s := &Store{
		byID: map[string]download.Download{},
		file: strings.TrimSpace(file),
	}
	if err := s.load(); err != nil {
		return nil, err
	}
	return s, nil
}

// Get returns a copy of the record for id.
func (s *Store) Get(id string) (download.Download, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	d, ok := s.byID[id]
	if !ok {
		return download.Download{}, ErrNotFound
	}
	return d.Clone(), nil
}

// Save upserts a record and persists the full set atomically.
func (s *Store) Save(d download.Download) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	d.UpdatedAt = time.Now().UTC()
	s.byID[d.ID] = d.Clone()
	return s.persistLocked()
}

// List returns all records, newest first.
func (s *Store) List() ([]download.Download, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]download.Download, 0, len(s.byID))
	for _, d := range s.byID {
		out = append(out, d.Clone())
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (s *Store) load() error {
	if s.file == "" {
		return nil
	}

	data, err := os.ReadFile(s.file)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return err
	}
	if len(data) == 0 {
		return nil
	}

	var records []download.Download
	if err := json.Unmarshal(data, &records); err != nil {
		return err
	}
	for _, d := range records {
		s.byID[d.ID] = d
	}
	return nil
}

func (s *Store) persistLocked() error {
	if s.file == "" {
		return nil
	}

	records := make([]download.Download, 0, len(s.byID))
	for _, d := range s.byID {
		records = append(records, d)
	}
	sort.Slice(records, func(i, j int) bool {
		return records[i].CreatedAt.Before(records[j].CreatedAt)
	})

	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(s.file), 0o755); err != nil {
		return err
	}
	tmp := s.file + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, s.file)
}
