package store

import (
	"database/sql"
	"fmt"
	"os"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/mheijden/fitfix/pkg/metrics"
	"github.com/mheijden/fitfix/pkg/model"
)

// SqliteStore persists a model across four relational tables. It exists
// for tooling that shares a model with other processes or queries it in
// place; the snapshot stores remain the canonical archival form.
type SqliteStore struct {
	db      *sql.DB
	path    string
	metrics *metrics.Registry
}

// OpenSqliteStore opens or creates a SQLite model database at the given
// path and ensures the schema exists.
func OpenSqliteStore(path string, registry *metrics.Registry) (*SqliteStore, error) {
	if registry == nil {
		registry = metrics.DefaultRegistry()
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA foreign_keys=ON",
	} {
		if _, err := db.Exec(pragma); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("%s: %w", pragma, err)
		}
	}

	schema := `
		CREATE TABLE IF NOT EXISTS segments (
			id INTEGER PRIMARY KEY,
			type_name TEXT NOT NULL,
			diameter_mm REAL NOT NULL,
			start_x REAL NOT NULL, start_y REAL NOT NULL, start_z REAL NOT NULL,
			end_x REAL NOT NULL, end_y REAL NOT NULL, end_z REAL NOT NULL,
			no_centerline INTEGER NOT NULL DEFAULT 0
		);

		CREATE TABLE IF NOT EXISTS fittings (
			id INTEGER PRIMARY KEY,
			family TEXT NOT NULL,
			connectors INTEGER NOT NULL,
			flippable INTEGER NOT NULL DEFAULT 0,
			flipped INTEGER NOT NULL DEFAULT 0
		);

		CREATE TABLE IF NOT EXISTS parameters (
			fitting_id INTEGER NOT NULL,
			name TEXT NOT NULL,
			storage TEXT NOT NULL,
			bool_value INTEGER NOT NULL DEFAULT 0,
			int_value INTEGER NOT NULL DEFAULT 0,
			float_value REAL NOT NULL DEFAULT 0,
			text_value TEXT NOT NULL DEFAULT '',
			is_set INTEGER NOT NULL DEFAULT 0,
			PRIMARY KEY (fitting_id, name),
			FOREIGN KEY (fitting_id) REFERENCES fittings(id) ON DELETE CASCADE
		);

		CREATE TABLE IF NOT EXISTS connections (
			a INTEGER NOT NULL,
			a_connector INTEGER NOT NULL,
			b INTEGER NOT NULL,
			b_connector INTEGER NOT NULL
		);

		CREATE TABLE IF NOT EXISTS meta (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);`

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}

	return &SqliteStore{db: db, path: path, metrics: registry}, nil
}

// Load reads the whole model out of the database and rebuilds it.
func (s *SqliteStore) Load() (*model.PipingModel, error) {
	start := time.Now()

	doc, err := s.loadDocument()
	if err != nil {
		s.metrics.RecordStoreOperation("load", "error", time.Since(start))
		return nil, err
	}
	m, err := Restore(doc)
	if err != nil {
		s.metrics.RecordStoreOperation("load", "error", time.Since(start))
		return nil, fmt.Errorf("restore model: %w", err)
	}

	s.metrics.RecordStoreOperation("load", "ok", time.Since(start))
	s.recordFileSize()
	return m, nil
}

func (s *SqliteStore) loadDocument() (*Document, error) {
	doc := &Document{Version: DocumentVersion}

	if v, ok, err := s.metaValue("version"); err != nil {
		return nil, err
	} else if ok {
		if _, err := fmt.Sscanf(v, "%d", &doc.Version); err != nil {
			return nil, fmt.Errorf("parse version: %w", err)
		}
	}

	rows, err := s.db.Query(`
		SELECT id, type_name, diameter_mm,
			start_x, start_y, start_z, end_x, end_y, end_z, no_centerline
		FROM segments ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("query segments: %w", err)
	}
	defer func() { _ = rows.Close() }()
	for rows.Next() {
		var sr SegmentRecord
		if err := rows.Scan(&sr.ID, &sr.TypeName, &sr.DiameterMM,
			&sr.Start.X, &sr.Start.Y, &sr.Start.Z,
			&sr.End.X, &sr.End.Y, &sr.End.Z, &sr.NoCenterline); err != nil {
			return nil, fmt.Errorf("scan segment row: %w", err)
		}
		doc.Segments = append(doc.Segments, sr)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	params, err := s.loadParameters()
	if err != nil {
		return nil, err
	}

	frows, err := s.db.Query(
		"SELECT id, family, connectors, flippable, flipped FROM fittings ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("query fittings: %w", err)
	}
	defer func() { _ = frows.Close() }()
	for frows.Next() {
		var fr FittingRecord
		if err := frows.Scan(&fr.ID, &fr.Family, &fr.Connectors,
			&fr.Flippable, &fr.Flipped); err != nil {
			return nil, fmt.Errorf("scan fitting row: %w", err)
		}
		fr.Params = params[fr.ID]
		doc.Fittings = append(doc.Fittings, fr)
	}
	if err := frows.Err(); err != nil {
		return nil, err
	}

	jrows, err := s.db.Query(
		"SELECT a, a_connector, b, b_connector FROM connections ORDER BY rowid")
	if err != nil {
		return nil, fmt.Errorf("query connections: %w", err)
	}
	defer func() { _ = jrows.Close() }()
	for jrows.Next() {
		var jr JointRecord
		if err := jrows.Scan(&jr.A, &jr.AConnector, &jr.B, &jr.BConnector); err != nil {
			return nil, fmt.Errorf("scan connection row: %w", err)
		}
		doc.Joints = append(doc.Joints, jr)
	}
	if err := jrows.Err(); err != nil {
		return nil, err
	}

	return doc, nil
}

func (s *SqliteStore) loadParameters() (map[uint64]map[string]ParamRecord, error) {
	rows, err := s.db.Query(`
		SELECT fitting_id, name, storage, bool_value, int_value, float_value, text_value, is_set
		FROM parameters`)
	if err != nil {
		return nil, fmt.Errorf("query parameters: %w", err)
	}
	defer func() { _ = rows.Close() }()

	params := make(map[uint64]map[string]ParamRecord)
	for rows.Next() {
		var fittingID uint64
		var name string
		var pr ParamRecord
		if err := rows.Scan(&fittingID, &name, &pr.Storage,
			&pr.Bool, &pr.Int, &pr.Float, &pr.Text, &pr.IsSet); err != nil {
			return nil, fmt.Errorf("scan parameter row: %w", err)
		}
		if params[fittingID] == nil {
			params[fittingID] = make(map[string]ParamRecord)
		}
		params[fittingID][name] = pr
	}
	return params, rows.Err()
}

// Save captures the model and writes it in one transaction: segment and
// fitting rows are upserted and stale ones pruned; parameters and
// connections are rebuilt outright.
func (s *SqliteStore) Save(m *model.PipingModel) error {
	start := time.Now()

	if err := s.save(m); err != nil {
		s.metrics.RecordStoreOperation("save", "error", time.Since(start))
		return err
	}

	s.metrics.RecordStoreOperation("save", "ok", time.Since(start))
	s.recordFileSize()
	return nil
}

func (s *SqliteStore) save(m *model.PipingModel) error {
	doc, err := Capture(m)
	if err != nil {
		return fmt.Errorf("capture model: %w", err)
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin save: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, table := range []string{"connections", "parameters"} {
		if _, err := tx.Exec("DELETE FROM " + table); err != nil {
			return fmt.Errorf("clear %s: %w", table, err)
		}
	}

	if _, err := tx.Exec(`
		INSERT INTO meta (key, value) VALUES ('version', ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		fmt.Sprintf("%d", doc.Version)); err != nil {
		return fmt.Errorf("store version: %w", err)
	}

	keepSegments := make(map[uint64]bool, len(doc.Segments))
	for _, sr := range doc.Segments {
		keepSegments[sr.ID] = true
		if _, err := tx.Exec(`
			INSERT INTO segments (id, type_name, diameter_mm,
				start_x, start_y, start_z, end_x, end_y, end_z, no_centerline)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(id) DO UPDATE SET
				type_name = excluded.type_name,
				diameter_mm = excluded.diameter_mm,
				start_x = excluded.start_x,
				start_y = excluded.start_y,
				start_z = excluded.start_z,
				end_x = excluded.end_x,
				end_y = excluded.end_y,
				end_z = excluded.end_z,
				no_centerline = excluded.no_centerline`,
			sr.ID, sr.TypeName, sr.DiameterMM,
			sr.Start.X, sr.Start.Y, sr.Start.Z,
			sr.End.X, sr.End.Y, sr.End.Z, sr.NoCenterline); err != nil {
			return fmt.Errorf("upsert segment %d: %w", sr.ID, err)
		}
	}
	if err := pruneStale(tx, "segments", keepSegments); err != nil {
		return err
	}

	keepFittings := make(map[uint64]bool, len(doc.Fittings))
	for _, fr := range doc.Fittings {
		keepFittings[fr.ID] = true
		if _, err := tx.Exec(`
			INSERT INTO fittings (id, family, connectors, flippable, flipped)
			VALUES (?, ?, ?, ?, ?)
			ON CONFLICT(id) DO UPDATE SET
				family = excluded.family,
				connectors = excluded.connectors,
				flippable = excluded.flippable,
				flipped = excluded.flipped`,
			fr.ID, fr.Family, fr.Connectors, fr.Flippable, fr.Flipped); err != nil {
			return fmt.Errorf("upsert fitting %d: %w", fr.ID, err)
		}
		for name, pr := range fr.Params {
			if _, err := tx.Exec(`
				INSERT INTO parameters (fitting_id, name, storage,
					bool_value, int_value, float_value, text_value, is_set)
				VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
				fr.ID, name, pr.Storage,
				pr.Bool, pr.Int, pr.Float, pr.Text, pr.IsSet); err != nil {
				return fmt.Errorf("insert parameter %s of fitting %d: %w", name, fr.ID, err)
			}
		}
	}
	if err := pruneStale(tx, "fittings", keepFittings); err != nil {
		return err
	}

	for _, jr := range doc.Joints {
		if _, err := tx.Exec(`
			INSERT INTO connections (a, a_connector, b, b_connector)
			VALUES (?, ?, ?, ?)`,
			jr.A, jr.AConnector, jr.B, jr.BConnector); err != nil {
			return fmt.Errorf("insert connection %d-%d: %w", jr.A, jr.B, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit save: %w", err)
	}
	return nil
}

// pruneStale deletes rows whose identity is no longer in the document.
// Row-at-a-time keeps the statement free of parameter-count limits.
func pruneStale(tx *sql.Tx, table string, keep map[uint64]bool) error {
	rows, err := tx.Query("SELECT id FROM " + table)
	if err != nil {
		return fmt.Errorf("list %s: %w", table, err)
	}
	var stale []uint64
	for rows.Next() {
		var id uint64
		if err := rows.Scan(&id); err != nil {
			_ = rows.Close()
			return fmt.Errorf("scan %s id: %w", table, err)
		}
		if !keep[id] {
			stale = append(stale, id)
		}
	}
	if err := rows.Err(); err != nil {
		_ = rows.Close()
		return err
	}
	_ = rows.Close()

	for _, id := range stale {
		if _, err := tx.Exec("DELETE FROM "+table+" WHERE id = ?", id); err != nil {
			return fmt.Errorf("prune %s %d: %w", table, id, err)
		}
	}
	return nil
}

func (s *SqliteStore) metaValue(key string) (string, bool, error) {
	var val string
	err := s.db.QueryRow("SELECT value FROM meta WHERE key = ?", key).Scan(&val)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("query meta %s: %w", key, err)
	}
	return val, true, nil
}

func (s *SqliteStore) recordFileSize() {
	if info, err := os.Stat(s.path); err == nil {
		s.metrics.SetStoreSize(info.Size())
	}
}

// Close closes the database connection.
func (s *SqliteStore) Close() error {
	return s.db.Close()
}
