package runlog

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"
)

// FileStore stores run journals as files
type FileStore struct {
	baseDir string
	mu      sync.RWMutex
	active  map[string]*activeRun
}

type activeRun struct {
	record *Record
}

// StoreConfig holds configuration for journal storage
type StoreConfig struct {
	BaseDir string
}

// NewFileStore creates a file-based journal store
func NewFileStore(config StoreConfig) (*FileStore, error) {
	runsDir := filepath.Join(config.BaseDir, "runs")
	if err := os.MkdirAll(runsDir, 0755); err != nil {
		return nil, err
	}

	return &FileStore{
		baseDir: config.BaseDir,
		active:  make(map[string]*activeRun),
	}, nil
}

// StartRun begins a new journal
func (s *FileStore) StartRun(runID string, meta RunMetadata) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.active[runID]; exists {
		return ErrRunAlreadyExists
	}

	// Check if run already exists on disk
	runDir := filepath.Join(s.baseDir, "runs", runID)
	if _, err := os.Stat(runDir); err == nil {
		return ErrRunAlreadyExists
	}

	if err := os.MkdirAll(runDir, 0755); err != nil {
		return err
	}

	record := &Record{
		RunID: runID,
		Meta: Meta{
			RunID:     runID,
			Graph:     meta.Graph,
			Input:     meta.Input,
			StartedAt: time.Now(),
			Status:    RunStatusRunning,
		},
		Events: make([]Event, 0),
	}

	// Write initial metadata
	if err := s.writeMeta(runID, &record.Meta); err != nil {
		return err
	}

	s.active[runID] = &activeRun{
		record: record,
	}

	return nil
}

// RecordEvent adds an event to an active journal
func (s *FileStore) RecordEvent(runID string, e Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	active, ok := s.active[runID]
	if !ok {
		return ErrRunNotStarted
	}

	active.record.AddEvent(e)
	return nil
}

// EndRun completes a journal
func (s *FileStore) EndRun(runID string, status RunStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	active, ok := s.active[runID]
	if !ok {
		return ErrRunNotStarted
	}

	active.record.Meta.Status = status
	active.record.Meta.EndedAt = time.Now()

	// Save full journal
	if err := active.record.Save(s.baseDir); err != nil {
		return err
	}

	// Update metadata
	if err := s.writeMeta(runID, &active.record.Meta); err != nil {
		return err
	}

	delete(s.active, runID)
	return nil
}

// EndRunWithError completes a journal with an error
func (s *FileStore) EndRunWithError(runID string, runErr error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	active, ok := s.active[runID]
	if !ok {
		return ErrRunNotStarted
	}

	active.record.Meta.Status = RunStatusFailed
	active.record.Meta.EndedAt = time.Now()
	if runErr != nil {
		active.record.Meta.Error = runErr.Error()
	}

	// Save full journal
	if saveErr := active.record.Save(s.baseDir); saveErr != nil {
		return saveErr
	}

	// Update metadata
	if writeErr := s.writeMeta(runID, &active.record.Meta); writeErr != nil {
		return writeErr
	}

	delete(s.active, runID)
	return nil
}

// Load retrieves a complete journal
func (s *FileStore) Load(runID string) (*Record, error) {
	// Check if it's an active run
	s.mu.RLock()
	if active, ok := s.active[runID]; ok {
		s.mu.RUnlock()
		// Return a copy to prevent concurrent modification
		data, err := json.Marshal(active.record)
		if err != nil {
			return nil, err
		}
		var r Record
		if err := json.Unmarshal(data, &r); err != nil {
			return nil, err
		}
		return &r, nil
	}
	s.mu.RUnlock()

	return Load(s.baseDir, runID)
}

// LoadMeta retrieves just the metadata
func (s *FileStore) LoadMeta(runID string) (*Meta, error) {
	// Check if it's an active run
	s.mu.RLock()
	if active, ok := s.active[runID]; ok {
		s.mu.RUnlock()
		meta := active.record.Meta
		return &meta, nil
	}
	s.mu.RUnlock()

	path := filepath.Join(s.baseDir, "runs", runID, "meta.json")
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrRunNotFound
		}
		return nil, err
	}

	var meta Meta
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, err
	}

	return &meta, nil
}

// List returns metadata for runs matching filter
func (s *FileStore) List(filter ListFilter) ([]Meta, error) {
	runsDir := filepath.Join(s.baseDir, "runs")
	entries, err := os.ReadDir(runsDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var results []Meta

	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}

		meta, err := s.LoadMeta(entry.Name())
		if err != nil {
			continue
		}

		// Apply filters
		if filter.Graph != "" && meta.Graph != filter.Graph {
			continue
		}
		if filter.Status != "" && meta.Status != filter.Status {
			continue
		}
		if !filter.After.IsZero() && meta.StartedAt.Before(filter.After) {
			continue
		}
		if !filter.Before.IsZero() && meta.StartedAt.After(filter.Before) {
			continue
		}

		results = append(results, *meta)
	}

	// Sort by start time (newest first)
	sort.Slice(results, func(i, j int) bool {
		return results[i].StartedAt.After(results[j].StartedAt)
	})

	// Apply limit
	if filter.Limit > 0 && len(results) > filter.Limit {
		results = results[:filter.Limit]
	}

	return results, nil
}

// Delete removes a run
func (s *FileStore) Delete(runID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Remove from active if present
	delete(s.active, runID)

	runDir := filepath.Join(s.baseDir, "runs", runID)
	if err := os.RemoveAll(runDir); err != nil && !os.IsNotExist(err) {
		return err
	}

	return nil
}

// GetActive returns an active journal (for monitoring)
func (s *FileStore) GetActive(runID string) (*Record, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	active, ok := s.active[runID]
	if !ok {
		return nil, false
	}

	return active.record, true
}

// ListActive returns all active run IDs
func (s *FileStore) ListActive() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]string, 0, len(s.active))
	for id := range s.active {
		ids = append(ids, id)
	}
	return ids
}

func (s *FileStore) writeMeta(runID string, meta *Meta) error {
	path := filepath.Join(s.baseDir, "runs", runID, "meta.json")
	data, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// BaseDir returns the base directory for the store
func (s *FileStore) BaseDir() string {
	return s.baseDir
}
