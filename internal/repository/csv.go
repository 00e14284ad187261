package repository

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync/atomic"

	"github.com/Shivanand-hulikatti/academic-event-manager/internal/model"
)

// CSVStore keeps events in a comma-separated file with a fixed header row.
// Every operation opens the file, takes a flock and closes it again; nothing
// is cached between calls.
type CSVStore struct {
	path    string
	logger  *slog.Logger
	dropped atomic.Int64
}

var _ EventStore = (*CSVStore)(nil)

// NewCSVStore constructs a CSVStore for the file at path.
func NewCSVStore(path string, logger *slog.Logger) *CSVStore {
	return &CSVStore{path: path, logger: logger}
}

// Path returns the location of the events file.
func (s *CSVStore) Path() string {
	return s.path
}

// DroppedRows reports how many corrupt rows Load has skipped since the store
// was created.
func (s *CSVStore) DroppedRows() int64 {
	return s.dropped.Load()
}

// Initialize creates the file with its header row. An existing file is left
// untouched.
func (s *CSVStore) Initialize(ctx context.Context) error {
	f, err := os.OpenFile(s.path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		if errors.Is(err, fs.ErrExist) {
			return nil
		}
		return fmt.Errorf("create events file: %w", err)
	}
	defer f.Close()

	if err := lockExclusive(f); err != nil {
		return fmt.Errorf("lock events file: %w", err)
	}
	if err := WriteCSV(f, nil); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	s.logger.Info("events file initialized", slog.String("path", s.path))
	return f.Close()
}

// Load reads every row. Rows whose id or capacity do not parse are logged,
// counted and skipped.
func (s *CSVStore) Load(ctx context.Context) ([]model.Event, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f, err := os.Open(s.path)
	if err != nil {
		return nil, fmt.Errorf("open events file: %w", err)
	}
	defer f.Close()

	if err := lockShared(f); err != nil {
		return nil, fmt.Errorf("lock events file: %w", err)
	}

	cr := newCSVReader(f)
	if _, err := cr.Read(); err != nil {
		if errors.Is(err, io.EOF) {
			return []model.Event{}, nil
		}
		return nil, fmt.Errorf("read header: %w", err)
	}

	events := []model.Event{}
	dropped := 0
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read events: %w", err)
		}

		e, err := decodeRow(rec)
		if err != nil {
			line, _ := cr.FieldPos(0)
			s.logger.Error("skipping corrupt event row",
				slog.String("path", s.path),
				slog.Int("line", line),
				slog.String("error", err.Error()),
			)
			dropped++
			continue
		}
		events = append(events, e)
	}

	if dropped > 0 {
		total := s.dropped.Add(int64(dropped))
		s.logger.Warn("corrupt rows skipped during load",
			slog.Int("dropped", dropped),
			slog.Int64("dropped_total", total),
		)
	}
	return events, nil
}

// Save rewrites the file with the header and the given events. A failure
// half-way through leaves a truncated file.
func (s *CSVStore) Save(ctx context.Context, events []model.Event) error {
	f, err := os.OpenFile(s.path, os.O_WRONLY|os.O_CREATE, 0o644)
	if err != nil {
		return fmt.Errorf("open events file: %w", err)
	}
	defer f.Close()

	if err := lockExclusive(f); err != nil {
		return fmt.Errorf("lock events file: %w", err)
	}
	// Truncate only once the lock is held so readers never see an empty file.
	if err := f.Truncate(0); err != nil {
		return fmt.Errorf("truncate events file: %w", err)
	}
	if err := WriteCSV(f, events); err != nil {
		return fmt.Errorf("save events: %w", err)
	}
	return f.Close()
}

// Append writes one row at the end of the file. A missing or empty file gets
// its header first.
func (s *CSVStore) Append(ctx context.Context, e model.Event) error {
	f, err := os.OpenFile(s.path, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("open events file: %w", err)
	}
	defer f.Close()

	if err := lockExclusive(f); err != nil {
		return fmt.Errorf("lock events file: %w", err)
	}

	info, err := f.Stat()
	if err != nil {
		return fmt.Errorf("stat events file: %w", err)
	}

	cw := csv.NewWriter(f)
	if info.Size() == 0 {
		if err := cw.Write(model.Header); err != nil {
			return fmt.Errorf("write header: %w", err)
		}
	}
	if err := cw.Write(encodeRow(e)); err != nil {
		return fmt.Errorf("append event %d: %w", e.ID, err)
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("append event %d: %w", e.ID, err)
	}
	return f.Close()
}

// Create assigns max(id)+1 and appends the record.
func (s *CSVStore) Create(ctx context.Context, in model.EventInput) (*model.Event, error) {
	events, err := s.Load(ctx)
	if err != nil {
		return nil, err
	}
	id, err := NextID(events)
	if err != nil {
		return nil, err
	}
	e := in.WithID(id)
	if err := s.Append(ctx, e); err != nil {
		return nil, err
	}
	return &e, nil
}

// Count returns the number of data rows in the file, corrupt rows included.
func (s *CSVStore) Count(ctx context.Context) (int, error) {
	f, err := os.Open(s.path)
	if err != nil {
		return 0, fmt.Errorf("open events file: %w", err)
	}
	defer f.Close()

	if err := lockShared(f); err != nil {
		return 0, fmt.Errorf("lock events file: %w", err)
	}

	cr := newCSVReader(f)
	cr.ReuseRecord = true
	rows := 0
	for {
		_, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return 0, fmt.Errorf("count events: %w", err)
		}
		rows++
	}
	if rows == 0 {
		return 0, nil
	}
	return rows - 1, nil
}

// Snapshot opens the events file under a shared lock, held until the reader
// is closed.
func (s *CSVStore) Snapshot(ctx context.Context) (string, io.ReadCloser, error) {
	f, err := os.Open(s.path)
	if err != nil {
		return "", nil, fmt.Errorf("open events file: %w", err)
	}
	if err := lockShared(f); err != nil {
		f.Close()
		return "", nil, fmt.Errorf("lock events file: %w", err)
	}
	return filepath.Base(s.path), f, nil
}

// Close is a no-op; the store holds no open handles between calls.
func (s *CSVStore) Close() error {
	return nil
}
