package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	_ "github.com/go-sql-driver/mysql"

	"github.com/reportkit/dashboard/internal/schema"
)

// MySQLStore persists snapshots as JSON documents keyed by id. Same contract
// as the in-memory store; the database only adds durability. The upsert keeps
// last-writer-wins: the whole prior value is replaced, never merged.
type MySQLStore struct {
	db *sql.DB
}

func NewMySQLStore(dsn string) (*MySQLStore, error) {
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	s := &MySQLStore{db: db}
	if err := s.initSchema(); err != nil {
		return nil, fmt.Errorf("failed to init schema: %w", err)
	}
	return s, nil
}

func (s *MySQLStore) initSchema() error {
	_, err := s.db.Exec(`CREATE TABLE IF NOT EXISTS dashboards (
		id VARCHAR(191) PRIMARY KEY,
		state JSON NOT NULL,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP
	)`)
	return err
}

func (s *MySQLStore) Save(ctx context.Context, id string, state schema.DashboardState) error {
	payload, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("failed to encode state: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO dashboards (id, state) VALUES (?, ?)
		ON DUPLICATE KEY UPDATE state = VALUES(state)
	`, id, payload)
	return err
}

func (s *MySQLStore) Load(ctx context.Context, id string) (schema.DashboardState, error) {
	var payload []byte
	err := s.db.QueryRowContext(ctx, `SELECT state FROM dashboards WHERE id = ?`, id).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return schema.DashboardState{}, ErrNotFound
	}
	if err != nil {
		return schema.DashboardState{}, err
	}

	var state schema.DashboardState
	if err := json.Unmarshal(payload, &state); err != nil {
		return schema.DashboardState{}, fmt.Errorf("failed to decode state: %w", err)
	}
	return state, nil
}

func (s *MySQLStore) ListAll(ctx context.Context) ([]schema.DashboardState, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT state FROM dashboards`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var all []schema.DashboardState
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return nil, err
		}
		var state schema.DashboardState
		if err := json.Unmarshal(payload, &state); err != nil {
			return nil, fmt.Errorf("failed to decode state: %w", err)
		}
		all = append(all, state)
	}
	return all, rows.Err()
}

func (s *MySQLStore) Close() error {
	return s.db.Close()
}
