// Package repository implements persistence for event records. The CSV file
// store is the reference backend; SQLite and PostgreSQL backends satisfy the
// same EventStore contract so handlers and services never see the difference.
package repository

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"

	"github.com/Shivanand-hulikatti/academic-event-manager/internal/model"
)

// ErrNotFound is returned when a requested event does not exist.
var ErrNotFound = errors.New("not found")

// ErrIDsExhausted is returned when the largest stored id leaves no room for
// another one.
var ErrIDsExhausted = errors.New("no event ids left")

// SnapshotName is the file name used for snapshots of database backends.
const SnapshotName = "events.csv"

// EventStore is a whole-collection record store. Mutating callers load the
// collection, transform it in memory and Save it back; serialising those
// sequences is the caller's job.
type EventStore interface {
	// Initialize prepares empty storage. It is idempotent.
	Initialize(ctx context.Context) error
	// Load returns every readable record in storage order.
	Load(ctx context.Context) ([]model.Event, error)
	// Save replaces the whole collection.
	Save(ctx context.Context, events []model.Event) error
	// Append adds one record as-is. The CSV backend does not check for a
	// duplicate id; the SQL backends reject one through the primary key.
	Append(ctx context.Context, e model.Event) error
	// Create assigns the next id and persists the record.
	Create(ctx context.Context, in model.EventInput) (*model.Event, error)
	// Count returns the number of stored rows.
	Count(ctx context.Context) (int, error)
	// Snapshot opens the persisted collection in its CSV wire form.
	// The caller must close the returned reader.
	Snapshot(ctx context.Context) (name string, rc io.ReadCloser, err error)
	Close() error
}

// NextID returns max(existing ids)+1, or 1 for an empty collection. It fails
// with ErrIDsExhausted when the maximum is already math.MaxInt.
func NextID(events []model.Event) (int, error) {
	maxID := 0
	for _, e := range events {
		if e.ID > maxID {
			maxID = e.ID
		}
	}
	if maxID == math.MaxInt {
		return 0, ErrIDsExhausted
	}
	return maxID + 1, nil
}

// IndexOf returns the position of the event with the given id, or -1.
func IndexOf(events []model.Event, id int) int {
	for i, e := range events {
		if e.ID == id {
			return i
		}
	}
	return -1
}

func encodeRow(e model.Event) []string {
	return []string{
		strconv.Itoa(e.ID),
		e.Title,
		e.Date,
		e.Location,
		strconv.Itoa(e.Capacity),
	}
}

// decodeRow parses one data row. The error names the offending field.
func decodeRow(rec []string) (model.Event, error) {
	if len(rec) != len(model.Header) {
		return model.Event{}, fmt.Errorf("expected %d fields, got %d", len(model.Header), len(rec))
	}
	id, err := strconv.Atoi(rec[0])
	if err != nil {
		return model.Event{}, fmt.Errorf("invalid id %q", rec[0])
	}
	capacity, err := strconv.Atoi(rec[4])
	if err != nil {
		return model.Event{}, fmt.Errorf("invalid capacity %q", rec[4])
	}
	return model.Event{
		ID:       id,
		Title:    rec[1],
		Date:     rec[2],
		Location: rec[3],
		Capacity: capacity,
	}, nil
}

// WriteCSV writes the header followed by one row per event.
func WriteCSV(w io.Writer, events []model.Event) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(model.Header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, e := range events {
		if err := cw.Write(encodeRow(e)); err != nil {
			return fmt.Errorf("write event %d: %w", e.ID, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

func newCSVReader(r io.Reader) *csv.Reader {
	cr := csv.NewReader(r)
	// Row shape is checked per row so one bad line does not fail the file.
	cr.FieldsPerRecord = -1
	// A stray quote inside an unquoted field is kept as a literal character.
	cr.LazyQuotes = true
	return cr
}
