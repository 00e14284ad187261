package repository

import (
	"bytes"
	"context"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/Shivanand-hulikatti/academic-event-manager/internal/model"
	"github.com/stretchr/testify/require"
)

// createTestCSVStore returns an initialized store in a temp dir plus the
// buffer its logger writes to.
func createTestCSVStore(t *testing.T) (*CSVStore, *bytes.Buffer) {
	t.Helper()
	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, &slog.HandlerOptions{Level: slog.LevelDebug}))
	s := NewCSVStore(filepath.Join(t.TempDir(), "events.csv"), logger)
	require.NoError(t, s.Initialize(context.Background()))
	return s, &logs
}

func sampleEvents() []model.Event {
	return []model.Event{
		{ID: 1, Title: "Talk", Date: "2024-12-25", Location: "Hall A", Capacity: 30},
		{ID: 2, Title: `Workshop, "Go"`, Date: "2025-01-10", Location: "Lab 3", Capacity: 12},
	}
}

func sampleInput(title string) model.EventInput {
	return model.EventInput{Title: title, Date: "2024-12-25", Location: "Hall A", Capacity: 30}
}

// exerciseStore runs the backend-independent contract against s, which must
// be initialized and empty.
func exerciseStore(t *testing.T, s EventStore) {
	t.Helper()
	ctx := context.Background()

	events, err := s.Load(ctx)
	require.NoError(t, err)
	require.Empty(t, events)

	first, err := s.Create(ctx, sampleInput("Talk"))
	require.NoError(t, err)
	require.Equal(t, 1, first.ID)

	second, err := s.Create(ctx, sampleInput("Panel"))
	require.NoError(t, err)
	require.Equal(t, 2, second.ID)

	require.NoError(t, s.Append(ctx, model.Event{ID: 10, Title: "Imported", Date: "2025-03-01", Location: "Online", Capacity: 500}))

	third, err := s.Create(ctx, sampleInput("Keynote"))
	require.NoError(t, err)
	require.Equal(t, 11, third.ID, "next id follows the maximum, not the row count")

	n, err := s.Count(ctx)
	require.NoError(t, err)
	require.Equal(t, 4, n)

	events, err = s.Load(ctx)
	require.NoError(t, err)
	require.Len(t, events, 4)

	events = append(events[:1], events[2:]...)
	require.NoError(t, s.Save(ctx, events))

	reloaded, err := s.Load(ctx)
	require.NoError(t, err)
	require.Equal(t, events, reloaded)

	n, err = s.Count(ctx)
	require.NoError(t, err)
	require.Equal(t, 3, n)
}
