package store

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/mheijden/fitfix/pkg/metrics"
	"github.com/mheijden/fitfix/pkg/model"
)

// ErrUnknownFormat marks a model path whose extension maps to no backend.
var ErrUnknownFormat = errors.New("unknown model file format")

// Store is one persistence backend for piping models.
type Store interface {
	// Load reads and rebuilds the persisted model.
	Load() (*model.PipingModel, error)
	// Save persists the model's live contents, replacing any previous
	// state.
	Save(m *model.PipingModel) error
	// Close releases backend resources. Idempotent.
	Close() error
}

// Open selects a backend from the path's extension: .json for a plain
// snapshot, .json.sz for a snappy-compressed one, .db or .sqlite for a
// relational store.
func Open(path string, registry *metrics.Registry) (Store, error) {
	switch {
	case strings.HasSuffix(path, ".json.sz"):
		return NewCompressedStore(path, registry), nil
	case strings.HasSuffix(path, ".json"):
		return NewSnapshotStore(path, registry), nil
	case strings.HasSuffix(path, ".db"), strings.HasSuffix(path, ".sqlite"):
		return OpenSqliteStore(path, registry)
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, filepath.Ext(path))
}
