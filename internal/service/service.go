// Package service implements business logic, validation, and orchestration
// between HTTP handlers and the repository layer.
package service

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/Shivanand-hulikatti/academic-event-manager/internal/archive"
	"github.com/Shivanand-hulikatti/academic-event-manager/internal/integrity"
	"github.com/Shivanand-hulikatti/academic-event-manager/internal/model"
	"github.com/Shivanand-hulikatti/academic-event-manager/internal/repository"
	"golang.org/x/text/cases"
)

// ValidationError reports client input that failed a field check.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// EventService orchestrates event-related business operations.
//
// Every mutation runs load, transform and save under mu, so concurrent
// requests in this process cannot lose each other's updates.
type EventService struct {
	store  repository.EventStore
	logger *slog.Logger
	mu     sync.RWMutex
}

// NewEventService constructs an EventService with its dependencies.
func NewEventService(store repository.EventStore, logger *slog.Logger) *EventService {
	return &EventService{store: store, logger: logger}
}

// CreateEvent validates the request and stores it under the next free id.
func (s *EventService) CreateEvent(ctx context.Context, in model.EventInput) (*model.Event, error) {
	if err := s.validate(in); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	event, err := s.store.Create(ctx, in)
	if err != nil {
		return nil, fmt.Errorf("create event: %w", err)
	}
	s.logger.Info("event created", slog.Int("id", event.ID), slog.String("title", event.Title))
	return event, nil
}

// ListEvents returns all events.
func (s *EventService) ListEvents(ctx context.Context) ([]model.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	events, err := s.store.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	s.logger.Info("events listed", slog.Int("count", len(events)))
	return events, nil
}

// GetEvent returns a single event by id.
func (s *EventService) GetEvent(ctx context.Context, id int) (*model.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	events, err := s.store.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("get event: %w", err)
	}
	i := repository.IndexOf(events, id)
	if i < 0 {
		s.logger.Warn("event lookup failed", slog.Int("id", id))
		return nil, repository.ErrNotFound
	}
	return &events[i], nil
}

// UpdateEvent replaces every field of the event with the given id.
func (s *EventService) UpdateEvent(ctx context.Context, id int, in model.EventInput) (*model.Event, error) {
	if err := s.validate(in); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	events, err := s.store.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("update event: %w", err)
	}
	i := repository.IndexOf(events, id)
	if i < 0 {
		s.logger.Warn("event update failed", slog.Int("id", id))
		return nil, repository.ErrNotFound
	}

	events[i] = in.WithID(id)
	if err := s.store.Save(ctx, events); err != nil {
		return nil, fmt.Errorf("update event: %w", err)
	}
	s.logger.Info("event updated", slog.Int("id", id))
	return &events[i], nil
}

// DeleteEvent removes the event with the given id and returns it.
func (s *EventService) DeleteEvent(ctx context.Context, id int) (*model.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	events, err := s.store.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("delete event: %w", err)
	}
	i := repository.IndexOf(events, id)
	if i < 0 {
		s.logger.Warn("event delete failed", slog.Int("id", id))
		return nil, repository.ErrNotFound
	}

	deleted := events[i]
	remaining := append(events[:i:i], events[i+1:]...)
	if err := s.store.Save(ctx, remaining); err != nil {
		return nil, fmt.Errorf("delete event: %w", err)
	}
	s.logger.Info("event deleted", slog.Int("id", id), slog.String("title", deleted.Title))
	return &deleted, nil
}

// CountEvents returns the number of stored rows.
func (s *EventService) CountEvents(ctx context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n, err := s.store.Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("count events: %w", err)
	}
	s.logger.Info("events counted", slog.Int("quantity", n))
	return n, nil
}

// FilterEvents returns the events matching every set criterion. Title and
// location match case-insensitive substrings; date matches exactly; capacity
// bounds are inclusive and not checked against each other.
func (s *EventService) FilterEvents(ctx context.Context, f model.EventFilter) ([]model.Event, error) {
	events, err := s.ListEvents(ctx)
	if err != nil {
		return nil, err
	}

	fold := cases.Fold()
	title := fold.String(f.Title)
	location := fold.String(f.Location)

	matched := []model.Event{}
	for _, e := range events {
		if title != "" && !strings.Contains(fold.String(e.Title), title) {
			continue
		}
		if f.Date != "" && e.Date != f.Date {
			continue
		}
		if location != "" && !strings.Contains(fold.String(e.Location), location) {
			continue
		}
		if f.CapacityMin != nil && e.Capacity < *f.CapacityMin {
			continue
		}
		if f.CapacityMax != nil && e.Capacity > *f.CapacityMax {
			continue
		}
		matched = append(matched, e)
	}
	s.logger.Info("events filtered", slog.Int("matched", len(matched)))
	return matched, nil
}

// Archive packages the persisted collection as a zip. It returns the entry
// name and a reader positioned at the start of the archive.
func (s *EventService) Archive(ctx context.Context) (string, *bytes.Reader, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	name, rc, err := s.store.Snapshot(ctx)
	if err != nil {
		return "", nil, fmt.Errorf("archive events: %w", err)
	}
	defer rc.Close()

	r, err := archive.Package(name, rc)
	if err != nil {
		return "", nil, fmt.Errorf("archive events: %w", err)
	}
	s.logger.Info("events archived", slog.String("entry", name), slog.Int64("bytes", r.Size()))
	return name, r, nil
}

// Hash returns the SHA-256 digest of the persisted collection.
func (s *EventService) Hash(ctx context.Context) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, rc, err := s.store.Snapshot(ctx)
	if err != nil {
		return "", fmt.Errorf("hash events: %w", err)
	}
	defer rc.Close()

	sum, err := integrity.Digest(rc)
	if err != nil {
		return "", fmt.Errorf("hash events: %w", err)
	}
	s.logger.Info("events hashed", slog.String("sha256", sum))
	return sum, nil
}

func (s *EventService) validate(in model.EventInput) error {
	if _, err := time.Parse(model.DateLayout, in.Date); err != nil {
		s.logger.Error("invalid event date", slog.String("date", in.Date))
		return &ValidationError{Field: "date", Message: "invalid date format, use YYYY-MM-DD"}
	}
	if in.Capacity <= 0 {
		s.logger.Error("invalid event capacity", slog.Int("capacity", in.Capacity))
		return &ValidationError{Field: "capacity", Message: "capacity must be greater than zero"}
	}
	return nil
}
