package repository

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"math"

	"github.com/Shivanand-hulikatti/academic-event-manager/internal/model"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore keeps events in a PostgreSQL table.
type PostgresStore struct {
	db *pgxpool.Pool
}

var _ EventStore = (*PostgresStore)(nil)

// NewPostgresStore constructs a PostgresStore. The store owns the pool.
func NewPostgresStore(db *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{db: db}
}

// Initialize creates the events table if it does not exist.
func (r *PostgresStore) Initialize(ctx context.Context) error {
	_, err := r.db.Exec(ctx,
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
func (r *PostgresStore) Load(ctx context.Context) ([]model.Event, error) {
	rows, err := r.db.Query(ctx,
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
func (r *PostgresStore) Save(ctx context.Context, events []model.Event) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, `DELETE FROM events`); err != nil {
		return fmt.Errorf("clear events: %w", err)
	}

	_, err = tx.CopyFrom(ctx,
		pgx.Identifier{"events"},
		[]string{"id", "title", "date", "location", "capacity"},
		pgx.CopyFromSlice(len(events), func(i int) ([]any, error) {
			e := events[i]
			return []any{e.ID, e.Title, e.Date, e.Location, e.Capacity}, nil
		}),
	)
	if err != nil {
		return fmt.Errorf("copy events: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// Append inserts one event with its id as given.
func (r *PostgresStore) Append(ctx context.Context, e model.Event) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO events (id, title, date, location, capacity) VALUES ($1, $2, $3, $4, $5)`,
		e.ID, e.Title, e.Date, e.Location, e.Capacity,
	)
	if err != nil {
		return fmt.Errorf("insert event: %w", err)
	}
	return nil
}

// Create allocates max(id)+1 under a table lock so concurrent processes
// cannot hand out the same id.
func (r *PostgresStore) Create(ctx context.Context, in model.EventInput) (*model.Event, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, `LOCK TABLE events IN SHARE ROW EXCLUSIVE MODE`); err != nil {
		return nil, fmt.Errorf("lock events table: %w", err)
	}

	var maxID int64
	if err := tx.QueryRow(ctx, `SELECT COALESCE(MAX(id), 0) FROM events`).Scan(&maxID); err != nil {
		return nil, fmt.Errorf("next event id: %w", err)
	}
	// The id column is a 32-bit INTEGER.
	if maxID >= math.MaxInt32 {
		return nil, ErrIDsExhausted
	}

	e := in.WithID(int(maxID) + 1)
	_, err = tx.Exec(ctx,
		`INSERT INTO events (id, title, date, location, capacity) VALUES ($1, $2, $3, $4, $5)`,
		e.ID, e.Title, e.Date, e.Location, e.Capacity,
	)
	if err != nil {
		return nil, fmt.Errorf("insert event: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit transaction: %w", err)
	}
	return &e, nil
}

// Count returns the number of rows in the events table.
func (r *PostgresStore) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM events`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count events: %w", err)
	}
	return n, nil
}

// Snapshot renders the table in CSV form.
func (r *PostgresStore) Snapshot(ctx context.Context) (string, io.ReadCloser, error) {
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

// Close releases the connection pool.
func (r *PostgresStore) Close() error {
	r.db.Close()
	return nil
}
