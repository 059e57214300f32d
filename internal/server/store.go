package server

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/mintesnot-teshome/llm-verify/internal/probe"
)

// Store persists benchmark runs and their probe records. Reads return empty
// results rather than errors so handlers can stay simple; only writes can
// fail.
type Store interface {
	CreateRun(meta RunMeta) error
	UpdateRun(runID string, mutate func(*RunMeta)) (RunMeta, error)
	GetRun(runID string) (RunMeta, bool)
	ListRuns(limit int) []RunMeta
	InsertRecords(records []probe.Record) error
	ListRecords(runID string) []probe.Record
	ListRecordsByModel(runID, modelName string) []probe.Record
}

// MemoryFileStore keeps everything in memory, optionally snapshotting to a
// JSON file after each write. With an empty path it is purely in-memory,
// which is what the CLI uses.
type MemoryFileStore struct {
	mu      sync.RWMutex
	path    string
	runs    map[string]RunMeta
	records map[string][]probe.Record
}

var _ Store = (*MemoryFileStore)(nil)

func NewMemoryFileStore(path string) (*MemoryFileStore, error) {
	store := &MemoryFileStore{
		path:    path,
		runs:    map[string]RunMeta{},
		records: map[string][]probe.Record{},
	}
	if strings.TrimSpace(path) == "" {
		return store, nil
	}
	if err := store.load(); err != nil {
		return nil, err
	}
	return store, nil
}

func (s *MemoryFileStore) CreateRun(meta RunMeta) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.runs[meta.RunID]; exists {
		return fmt.Errorf("run %s already exists", meta.RunID)
	}
	s.runs[meta.RunID] = meta
	if _, ok := s.records[meta.RunID]; !ok {
		s.records[meta.RunID] = []probe.Record{}
	}
	return s.persistLocked()
}

func (s *MemoryFileStore) UpdateRun(runID string, mutate func(*RunMeta)) (RunMeta, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	meta, ok := s.runs[runID]
	if !ok {
		return RunMeta{}, fmt.Errorf("run not found: %s", runID)
	}
	if mutate != nil {
		mutate(&meta)
	}
	s.runs[runID] = meta
	if err := s.persistLocked(); err != nil {
		return RunMeta{}, err
	}
	return meta, nil
}

func (s *MemoryFileStore) GetRun(runID string) (RunMeta, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	meta, ok := s.runs[runID]
	return meta, ok
}

func (s *MemoryFileStore) ListRuns(limit int) []RunMeta {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]RunMeta, 0, len(s.runs))
	for _, meta := range s.runs {
		out = append(out, meta)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt > out[j].CreatedAt
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

func (s *MemoryFileStore) InsertRecords(records []probe.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, record := range records {
		if _, ok := s.runs[record.RunID]; !ok {
			return fmt.Errorf("run not found: %s", record.RunID)
		}
		s.records[record.RunID] = append(s.records[record.RunID], record)
	}
	return s.persistLocked()
}

func (s *MemoryFileStore) ListRecords(runID string) []probe.Record {
	s.mu.RLock()
	defer s.mu.RUnlock()
	records := s.records[runID]
	out := make([]probe.Record, len(records))
	copy(out, records)
	return out
}

func (s *MemoryFileStore) ListRecordsByModel(runID, modelName string) []probe.Record {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []probe.Record{}
	for _, record := range s.records[runID] {
		if record.ModelName == modelName {
			out = append(out, record)
		}
	}
	return out
}

type storeSnapshot struct {
	Runs    []RunMeta                 `json:"runs"`
	Records map[string][]probe.Record `json:"records"`
}

func (s *MemoryFileStore) load() error {
	data, err := os.ReadFile(filepath.Clean(s.path))
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("read store snapshot: %w", err)
	}
	var snapshot storeSnapshot
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return fmt.Errorf("decode store snapshot: %w", err)
	}
	for _, run := range snapshot.Runs {
		s.runs[run.RunID] = run
	}
	for runID, records := range snapshot.Records {
		s.records[runID] = records
	}
	return nil
}

func (s *MemoryFileStore) persistLocked() error {
	if strings.TrimSpace(s.path) == "" {
		return nil
	}
	runs := make([]RunMeta, 0, len(s.runs))
	for _, run := range s.runs {
		runs = append(runs, run)
	}
	sort.Slice(runs, func(i, j int) bool {
		return runs[i].CreatedAt < runs[j].CreatedAt
	})
	data, err := json.MarshalIndent(storeSnapshot{Runs: runs, Records: s.records}, "", "  ")
	if err != nil {
		return fmt.Errorf("encode store snapshot: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("create store directory: %w", err)
	}
	tmpPath := s.path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0o644); err != nil {
		return fmt.Errorf("write store temp snapshot: %w", err)
	}
	if err := os.Rename(tmpPath, s.path); err != nil {
		return fmt.Errorf("replace store snapshot: %w", err)
	}
	return nil
}
