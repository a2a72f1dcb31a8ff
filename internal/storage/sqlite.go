//go:build sqlite

package storage

import (
	"context"
	"database/sql"
	"sync"

	"github.com/pkg/errors"

	"neuralnet/internal/model"

	_ "modernc.org/sqlite"
)

type SQLiteStore struct {
	path string

	mu sync.RWMutex
	db *sql.DB
}

func NewSQLiteStore(path string) *SQLiteStore {
	return &SQLiteStore{path: path}
}

func (s *SQLiteStore) Init(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.path == "" {
		return errors.New("sqlite path is required")
	}
	if s.db != nil {
		return nil
	}

	db, err := sql.Open("sqlite", s.path)
	if err != nil {
		return errors.Wrapf(err, "open %s", s.path)
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return errors.Wrapf(err, "ping %s", s.path)
	}

	if err := createTables(ctx, db); err != nil {
		_ = db.Close()
		return errors.Wrap(err, "create tables")
	}

	s.db = db
	return nil
}

func (s *SQLiteStore) SaveNetwork(ctx context.Context, snapshot model.NetworkSnapshot) error {
	db, err := s.getDB()
	if err != nil {
		return err
	}

	payload, err := EncodeNetwork(snapshot)
	if err != nil {
		return err
	}

	_, err = db.ExecContext(ctx, `
		INSERT INTO networks (id, schema_version, codec_version, payload)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			schema_version = excluded.schema_version,
			codec_version = excluded.codec_version,
			payload = excluded.payload
	`, snapshot.ID, snapshot.SchemaVersion, snapshot.CodecVersion, payload)
	return errors.Wrapf(err, "save network %s", snapshot.ID)
}

func (s *SQLiteStore) GetNetwork(ctx context.Context, id string) (model.NetworkSnapshot, bool, error) {
	db, err := s.getDB()
	if err != nil {
		return model.NetworkSnapshot{}, false, err
	}

	var payload []byte
	err = db.QueryRowContext(ctx, `SELECT payload FROM networks WHERE id = ?`, id).Scan(&payload)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.NetworkSnapshot{}, false, nil
		}
		return model.NetworkSnapshot{}, false, errors.Wrapf(err, "get network %s", id)
	}

	snapshot, err := DecodeNetwork(payload)
	if err != nil {
		return model.NetworkSnapshot{}, false, errors.WithMessagef(err, "network %s", id)
	}
	return snapshot, true, nil
}

func (s *SQLiteStore) SaveTrainingHistory(ctx context.Context, runID string, history []float64) error {
	db, err := s.getDB()
	if err != nil {
		return err
	}

	payload, err := EncodeTrainingHistory(history)
	if err != nil {
		return err
	}

	_, err = db.ExecContext(ctx, `
		INSERT INTO training_history (run_id, payload)
		VALUES (?, ?)
		ON CONFLICT(run_id) DO UPDATE SET
			payload = excluded.payload
	`, runID, payload)
	return errors.Wrapf(err, "save training history %s", runID)
}

func (s *SQLiteStore) GetTrainingHistory(ctx context.Context, runID string) ([]float64, bool, error) {
	db, err := s.getDB()
	if err != nil {
		return nil, false, err
	}

	var payload []byte
	err = db.QueryRowContext(ctx, `SELECT payload FROM training_history WHERE run_id = ?`, runID).Scan(&payload)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, errors.Wrapf(err, "get training history %s", runID)
	}

	history, err := DecodeTrainingHistory(payload)
	if err != nil {
		return nil, false, errors.WithMessagef(err, "run %s", runID)
	}
	return history, true, nil
}

func (s *SQLiteStore) SaveRun(ctx context.Context, run model.RunRecord) error {
	db, err := s.getDB()
	if err != nil {
		return err
	}

	payload, err := EncodeRun(run)
	if err != nil {
		return err
	}

	_, err = db.ExecContext(ctx, `
		INSERT INTO runs (id, network_id, created_at_utc, schema_version, codec_version, payload)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			network_id = excluded.network_id,
			created_at_utc = excluded.created_at_utc,
			schema_version = excluded.schema_version,
			codec_version = excluded.codec_version,
			payload = excluded.payload
	`, run.ID, run.NetworkID, run.CreatedAtUTC, run.SchemaVersion, run.CodecVersion, payload)
	return errors.Wrapf(err, "save run %s", run.ID)
}

func (s *SQLiteStore) GetRun(ctx context.Context, id string) (model.RunRecord, bool, error) {
	db, err := s.getDB()
	if err != nil {
		return model.RunRecord{}, false, err
	}

	var payload []byte
	err = db.QueryRowContext(ctx, `SELECT payload FROM runs WHERE id = ?`, id).Scan(&payload)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.RunRecord{}, false, nil
		}
		return model.RunRecord{}, false, errors.Wrapf(err, "get run %s", id)
	}

	run, err := DecodeRun(payload)
	if err != nil {
		return model.RunRecord{}, false, errors.WithMessagef(err, "run %s", id)
	}
	return run, true, nil
}

func (s *SQLiteStore) ListRuns(ctx context.Context) ([]model.RunRecord, error) {
	db, err := s.getDB()
	if err != nil {
		return nil, err
	}

	rows, err := db.QueryContext(ctx, `SELECT payload FROM runs ORDER BY created_at_utc, id`)
	if err != nil {
		return nil, errors.Wrap(err, "list runs")
	}
	defer rows.Close()

	var runs []model.RunRecord
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return nil, errors.Wrap(err, "scan run")
		}
		run, err := DecodeRun(payload)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, errors.Wrap(rows.Err(), "list runs")
}

func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

func (s *SQLiteStore) getDB() (*sql.DB, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.db == nil {
		return nil, errors.New("store is not initialized")
	}
	return s.db, nil
}

func createTables(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS networks (
			id TEXT PRIMARY KEY,
			schema_version INTEGER NOT NULL,
			codec_version INTEGER NOT NULL,
			payload BLOB NOT NULL
		);
		CREATE TABLE IF NOT EXISTS training_history (
			run_id TEXT PRIMARY KEY,
			payload BLOB NOT NULL
		);
		CREATE TABLE IF NOT EXISTS runs (
			id TEXT PRIMARY KEY,
			network_id TEXT NOT NULL,
			created_at_utc TEXT NOT NULL,
			schema_version INTEGER NOT NULL,
			codec_version INTEGER NOT NULL,
			payload BLOB NOT NULL
		);
	`)
	return err
}
