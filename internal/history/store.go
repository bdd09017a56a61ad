// Copyright SoenkevL, 2026. All rights reserved.

// Package history keeps a bounded, ordered log of finished conversions,
// persisted as a single JSON file. The log is newest-first and capped;
// records past the cap are dropped on each append. A corrupt or missing
// file degrades to an empty log rather than failing the caller: losing
// the convenience history must never block a conversion.
package history

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/SoenkevL/pdf2md/pkg/types"
)

// MaxRecent is the number of records retained in the log.
const MaxRecent = 10

// Store persists the conversion history at a fixed file path. The
// load-modify-save cycle in Add is serialized by a mutex, so concurrent
// appends through one Store cannot lose each other's records. Distinct
// processes sharing the file still race; last writer wins over the whole
// log.
type Store struct {
	mu   sync.Mutex
	path string
}

// NewStore creates a store backed by the JSON file at path. The file is
// created on first Add.
func NewStore(path string) *Store {
	return &Store{path: path}
}

// Load reads the persisted log, newest record first. A missing or
// unparsable file yields an empty log and no error.
func (s *Store) Load() []types.ConversionRecord {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil
	}

	var records []types.ConversionRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil
	}
	return records
}

// Save replaces the entire persisted log with records. The write goes
// through a temp file and rename so readers never observe a partial log.
func (s *Store) Save(records []types.ConversionRecord) error {
	if records == nil {
		records = []types.ConversionRecord{}
	}
	data, err := json.MarshalIndent(records, "", "    ")
	if err != nil {
		return fmt.Errorf("encoding history: %w", err)
	}

	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, ".history-*")
	if err != nil {
		return fmt.Errorf("creating temp history file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("writing history: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing history file: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("replacing history file %s: %w", s.path, err)
	}
	return nil
}

// Add records a finished conversion and returns its generated identifier.
// The new record is inserted at the front and the log is truncated to
// MaxRecent before persisting.
func (s *Store) Add(pdfPath, outputPath string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	records := s.Load()

	rec := types.ConversionRecord{
		ID:         uuid.NewString(),
		Filename:   filepath.Base(pdfPath),
		PDFPath:    pdfPath,
		OutputPath: outputPath,
		Timestamp:  time.Now(),
		HasPreview: true,
	}

	records = append([]types.ConversionRecord{rec}, records...)
	if len(records) > MaxRecent {
		records = records[:MaxRecent]
	}

	if err := s.Save(records); err != nil {
		return "", err
	}
	return rec.ID, nil
}

// Get looks up a record by identifier. The second return value reports
// whether the record was found; a miss is a normal outcome, not an error.
func (s *Store) Get(id string) (types.ConversionRecord, bool) {
	for _, rec := range s.Load() {
		if rec.ID == id {
			return rec, true
		}
	}
	return types.ConversionRecord{}, false
}

// Recent returns all retained records, newest first.
func (s *Store) Recent() []types.ConversionRecord {
	return s.Load()
}
