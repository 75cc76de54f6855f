package store

import (
	"bytes"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"hash/crc32"
	"io"
	"os"
	"time"

	"github.com/golang/snappy"

	"github.com/mheijden/fitfix/pkg/metrics"
	"github.com/mheijden/fitfix/pkg/model"
)

// CompressedStore persists a model as snappy-compressed JSON.
//
// File format: [DataLen:4][Data:N][Checksum:4], big-endian, with the
// checksum taken over the compressed payload.
type CompressedStore struct {
	path    string
	metrics *metrics.Registry
}

// NewCompressedStore creates a compressed store at the given path. A nil
// registry falls back to the package default.
func NewCompressedStore(path string, registry *metrics.Registry) *CompressedStore {
	if registry == nil {
		registry = metrics.DefaultRegistry()
	}
	return &CompressedStore{path: path, metrics: registry}
}

// Load reads the compressed file, verifies its checksum and rebuilds the
// model.
func (s *CompressedStore) Load() (*model.PipingModel, error) {
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

func (s *CompressedStore) load() (*model.PipingModel, int64, error) {
	raw, err := os.ReadFile(s.path)
	if err != nil {
		return nil, 0, fmt.Errorf("read compressed snapshot: %w", err)
	}

	reader := bytes.NewReader(raw)

	var dataLen uint32
	if err := binary.Read(reader, binary.BigEndian, &dataLen); err != nil {
		return nil, 0, fmt.Errorf("read frame length: %w", err)
	}
	if int(dataLen) > reader.Len() {
		return nil, 0, fmt.Errorf("frame length %d exceeds file size", dataLen)
	}

	compressed := make([]byte, dataLen)
	if _, err := io.ReadFull(reader, compressed); err != nil {
		return nil, 0, fmt.Errorf("read frame payload: %w", err)
	}

	var checksum uint32
	if err := binary.Read(reader, binary.BigEndian, &checksum); err != nil {
		return nil, 0, fmt.Errorf("read frame checksum: %w", err)
	}
	if crc32.ChecksumIEEE(compressed) != checksum {
		return nil, 0, fmt.Errorf("checksum mismatch in %s", s.path)
	}

	data, err := snappy.Decode(nil, compressed)
	if err != nil {
		return nil, 0, fmt.Errorf("decompress snapshot: %w", err)
	}

	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, 0, fmt.Errorf("unmarshal snapshot: %w", err)
	}

	m, err := Restore(&doc)
	if err != nil {
		return nil, 0, fmt.Errorf("restore snapshot: %w", err)
	}
	return m, int64(len(raw)), nil
}

// Save captures the model, compresses it and atomically replaces the
// snapshot file.
func (s *CompressedStore) Save(m *model.PipingModel) error {
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

func (s *CompressedStore) save(m *model.PipingModel) (int64, error) {
	doc, err := Capture(m)
	if err != nil {
		return 0, fmt.Errorf("capture model: %w", err)
	}

	data, err := json.Marshal(doc)
	if err != nil {
		return 0, fmt.Errorf("marshal snapshot: %w", err)
	}

	compressed := snappy.Encode(nil, data)

	var buf bytes.Buffer
	if err := binary.Write(&buf, binary.BigEndian, uint32(len(compressed))); err != nil {
		return 0, err
	}
	if _, err := buf.Write(compressed); err != nil {
		return 0, err
	}
	if err := binary.Write(&buf, binary.BigEndian, crc32.ChecksumIEEE(compressed)); err != nil {
		return 0, err
	}

	tmpPath := s.path + ".tmp"
	if err := os.WriteFile(tmpPath, buf.Bytes(), filePermissions); err != nil {
		return 0, fmt.Errorf("write compressed snapshot: %w", err)
	}
	if err := os.Rename(tmpPath, s.path); err != nil {
		return 0, fmt.Errorf("rename compressed snapshot: %w", err)
	}
	return int64(buf.Len()), nil
}

// Close is a no-op for file snapshots.
func (s *CompressedStore) Close() error {
	return nil
}
