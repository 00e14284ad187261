package repository

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"math"

	"github.com/Shivanand-hulikatti/academic-event-manager/internal/model"
)

// SQLiteStore keeps events in a single SQLite table.
type SQLiteStore struct {
	db *sql.DB
}

var _ EventStore = (*SQLiteStore)(nil)

// NewSQLiteStore constructs a SQLiteStore. The store owns db.
func NewSQLiteStore(db *sql.DB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

// Initialize creates the events table if it does not exist.
func (r *SQLiteStore) Initialize(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx,
		`CREATE TABLE IF NOT EXISTS events (
			id       INTEGER PRIMARY KEY,
			title    TEXT    NOT NULL,
			date     TEXT    NOT NULL,
			location TEXT    NOT NULL,
			capacity INTEGER NOT NULL
		)`,
	)
	if err != nil {
		return fmt.Errorf("create events table: %w", err)
	}
	return nil
}

// Load returns all events ordered by id.
func (r *SQLiteStore) Load(ctx context.Context) ([]model.Event, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, title, date, location, capacity FROM events ORDER BY id`,
	)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	defer rows.Close()

	events := []model.Event{}
	for rows.Next() {
		var e model.Event
		if err := rows.Scan(&e.ID, &e.Title, &e.Date, &e.Location, &e.Capacity); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

// Save replaces the table contents inside one transaction.
func (r *SQLiteStore) Save(ctx context.Context, events []model.Event) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM events`); err != nil {
		return fmt.Errorf("clear events: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO events (id, title, date, location, capacity) VALUES (?, ?, ?, ?, ?)`,
	)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, e := range events {
		if _, err := stmt.ExecContext(ctx, e.ID, e.Title, e.Date, e.Location, e.Capacity); err != nil {
			return fmt.Errorf("insert event %d: %w", e.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// Append inserts one event with its id as given.
func (r *SQLiteStore) Append(ctx context.Context, e model.Event) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO events (id, title, date, location, capacity) VALUES (?, ?, ?, ?, ?)`,
		e.ID, e.Title, e.Date, e.Location, e.Capacity,
	)
	if err != nil {
		return fmt.Errorf("insert event: %w", err)
	}
	return nil
}

// Create allocates max(id)+1 and inserts in a single statement, which SQLite
// runs under its database write lock. No row is inserted once the largest id
// reaches the int64 limit.
func (r *SQLiteStore) Create(ctx context.Context, in model.EventInput) (*model.Event, error) {
	var id int
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO events (id, title, date, location, capacity)
		 SELECT m + 1, ?, ?, ?, ?
		 FROM (SELECT COALESCE(MAX(id), 0) AS m FROM events)
		 WHERE m < ?
		 RETURNING id`,
		in.Title, in.Date, in.Location, in.Capacity, int64(math.MaxInt64),
	).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrIDsExhausted
	}
	if err != nil {
		return nil, fmt.Errorf("insert event: %w", err)
	}
	e := in.WithID(id)
	return &e, nil
}

// Count returns the number of rows in the events table.
func (r *SQLiteStore) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM events`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count events: %w", err)
	}
	return n, nil
}

// Snapshot renders the table in CSV form.
func (r *SQLiteStore) Snapshot(ctx context.Context) (string, io.ReadCloser, error) {
	events, err := r.Load(ctx)
	if err != nil {
		return "", nil, err
	}
	var buf bytes.Buffer
	if err := WriteCSV(&buf, events); err != nil {
		return "", nil, fmt.Errorf("render snapshot: %w", err)
	}
	return SnapshotName, io.NopCloser(&buf), nil
}

// Close closes the database.
func (r *SQLiteStore) Close() error {
	return r.db.Close()
}
