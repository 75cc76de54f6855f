package store

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/mheijden/fitfix/pkg/metrics"
	"github.com/mheijden/fitfix/pkg/model"
)

const filePermissions = 0644

// SnapshotStore persists a model as one indented JSON file. Saves go
// through a temporary file and an atomic rename, so a crash mid-write
// never leaves a torn snapshot behind.
type SnapshotStore struct {
	path    string
	metrics *metrics.Registry
}

// NewSnapshotStore creates a JSON store at the given path. A nil registry
// falls back to the package default.
func NewSnapshotStore(path string, registry *metrics.Registry) *SnapshotStore {
	if registry == nil {
		registry = metrics.DefaultRegistry()
	}
	return &SnapshotStore{path: path, metrics: registry}
}

// Load reads the snapshot file and rebuilds the model.
func (s *SnapshotStore) Load() (*model.PipingModel, error) {
	start := time.Now()

	m, size, err := s.load()
	if err != nil {
		s.metrics.RecordStoreOperation("load", "error", time.Since(start))
		return nil, err
	}

	s.metrics.RecordStoreOperation("load", "ok", time.Since(start))
	s.metrics.SetStoreSize(size)
	return m, nil
}

func (s *SnapshotStore) load() (*model.PipingModel, int64, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, 0, fmt.Errorf("read snapshot: %w", err)
	}

	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, 0, fmt.Errorf("unmarshal snapshot: %w", err)
	}

	m, err := Restore(&doc)
	if err != nil {
		return nil, 0, fmt.Errorf("restore snapshot: %w", err)
	}
	return m, int64(len(data)), nil
}

// Save captures the model and atomically replaces the snapshot file.
func (s *SnapshotStore) Save(m *model.PipingModel) error {
	start := time.Now()

	size, err := s.save(m)
	if err != nil {
		s.metrics.RecordStoreOperation("save", "error", time.Since(start))
		return err
	}

	s.metrics.RecordStoreOperation("save", "ok", time.Since(start))
	s.metrics.SetStoreSize(size)
	return nil
}

func (s *SnapshotStore) save(m *model.PipingModel) (int64, error) {
	doc, err := Capture(m)
	if err != nil {
		return 0, fmt.Errorf("capture model: %w", err)
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return 0, fmt.Errorf("marshal snapshot: %w", err)
	}

	tmpPath := s.path + ".tmp"
	if err := os.WriteFile(tmpPath, data, filePermissions); err != nil {
		return 0, fmt.Errorf("write snapshot: %w", err)
	}
	if err := os.Rename(tmpPath, s.path); err != nil {
		return 0, fmt.Errorf("rename snapshot: %w", err)
	}
	return int64(len(data)), nil
}

// Close is a no-op for file snapshots.
func (s *SnapshotStore) Close() error {
	return nil
}
