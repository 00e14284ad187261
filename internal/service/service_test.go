package service

import (
	"archive/zip"
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/Shivanand-hulikatti/academic-event-manager/internal/model"
	"github.com/Shivanand-hulikatti/academic-event-manager/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestService(t *testing.T) (*EventService, *repository.CSVStore) {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	store := repository.NewCSVStore(filepath.Join(t.TempDir(), "events.csv"), logger)
	require.NoError(t, store.Initialize(context.Background()))
	return NewEventService(store, logger), store
}

func talk() model.EventInput {
	return model.EventInput{Title: "Talk", Date: "2024-12-25", Location: "Hall A", Capacity: 30}
}

func intPtr(v int) *int { return &v }

func TestCreateEvent_AssignsSequentialIDs(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	first, err := svc.CreateEvent(ctx, talk())
	require.NoError(t, err)
	assert.Equal(t, model.Event{ID: 1, Title: "Talk", Date: "2024-12-25", Location: "Hall A", Capacity: 30}, *first)

	second, err := svc.CreateEvent(ctx, talk())
	require.NoError(t, err)
	assert.Equal(t, 2, second.ID)

	got, err := svc.GetEvent(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, first, got)
}

func TestCreateEvent_ValidationLeavesStoreUntouched(t *testing.T) {
	tests := []struct {
		name  string
		mut   func(*model.EventInput)
		field string
	}{
		{"month out of range", func(in *model.EventInput) { in.Date = "2024-13-01" }, "date"},
		{"day out of range", func(in *model.EventInput) { in.Date = "2024-02-30" }, "date"},
		{"wrong layout", func(in *model.EventInput) { in.Date = "25/12/2024" }, "date"},
		{"zero capacity", func(in *model.EventInput) { in.Capacity = 0 }, "capacity"},
		{"negative capacity", func(in *model.EventInput) { in.Capacity = -5 }, "capacity"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, store := newTestService(t)
			before, err := os.ReadFile(store.Path())
			require.NoError(t, err)

			in := talk()
			tt.mut(&in)
			_, err = svc.CreateEvent(context.Background(), in)

			var verr *ValidationError
			require.True(t, errors.As(err, &verr))
			assert.Equal(t, tt.field, verr.Field)

			after, err := os.ReadFile(store.Path())
			require.NoError(t, err)
			assert.Equal(t, before, after)
		})
	}
}

func TestGetEvent_NotFound(t *testing.T) {
	svc, _ := newTestService(t)
	_, err := svc.GetEvent(context.Background(), 42)
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestUpdateEvent_ReplacesOnlyTarget(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	for _, title := range []string{"A", "B", "C"} {
		in := talk()
		in.Title = title
		_, err := svc.CreateEvent(ctx, in)
		require.NoError(t, err)
	}
	before, err := svc.ListEvents(ctx)
	require.NoError(t, err)

	upd := model.EventInput{Title: "B2", Date: "2025-06-01", Location: "Auditorium", Capacity: 250}
	got, err := svc.UpdateEvent(ctx, 2, upd)
	require.NoError(t, err)
	assert.Equal(t, upd.WithID(2), *got)

	after, err := svc.ListEvents(ctx)
	require.NoError(t, err)
	require.Len(t, after, 3)
	assert.Equal(t, before[0], after[0])
	assert.Equal(t, upd.WithID(2), after[1])
	assert.Equal(t, before[2], after[2])
}

func TestUpdateEvent_Errors(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	_, err := svc.CreateEvent(ctx, talk())
	require.NoError(t, err)

	_, err = svc.UpdateEvent(ctx, 9, talk())
	assert.ErrorIs(t, err, repository.ErrNotFound)

	bad := talk()
	bad.Capacity = 0
	_, err = svc.UpdateEvent(ctx, 1, bad)
	var verr *ValidationError
	assert.True(t, errors.As(err, &verr))
}

func TestDeleteEvent_RemovesExactlyOne(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	for i := 0; i < 3; i++ {
		_, err := svc.CreateEvent(ctx, talk())
		require.NoError(t, err)
	}

	deleted, err := svc.DeleteEvent(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, 2, deleted.ID)

	n, err := svc.CountEvents(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	events, err := svc.ListEvents(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, events[0].ID)
	assert.Equal(t, 3, events[1].ID)

	_, err = svc.DeleteEvent(ctx, 2)
	assert.ErrorIs(t, err, repository.ErrNotFound)
	n, err = svc.CountEvents(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n, "failed delete leaves the collection unchanged")

	// Ids are not reused while a higher id still exists.
	next, err := svc.CreateEvent(ctx, talk())
	require.NoError(t, err)
	assert.Equal(t, 4, next.ID)
}

func TestFilterEvents(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	inputs := []model.EventInput{
		{Title: "Intro to Go", Date: "2024-12-25", Location: "Hall A", Capacity: 30},
		{Title: "Advanced GO", Date: "2025-01-10", Location: "Sala São Paulo", Capacity: 120},
		{Title: "Rust meetup", Date: "2024-12-25", Location: "hall b", Capacity: 60},
	}
	for _, in := range inputs {
		_, err := svc.CreateEvent(ctx, in)
		require.NoError(t, err)
	}

	tests := []struct {
		name   string
		filter model.EventFilter
		want   []int
	}{
		{"no criteria", model.EventFilter{}, []int{1, 2, 3}},
		{"title case-insensitive", model.EventFilter{Title: "go"}, []int{1, 2}},
		{"date exact", model.EventFilter{Date: "2024-12-25"}, []int{1, 3}},
		{"location folded", model.EventFilter{Location: "SÃO"}, []int{2}},
		{"location substring", model.EventFilter{Location: "HALL"}, []int{1, 3}},
		{"capacity range inclusive", model.EventFilter{CapacityMin: intPtr(30), CapacityMax: intPtr(60)}, []int{1, 3}},
		{"inverted range", model.EventFilter{CapacityMin: intPtr(100), CapacityMax: intPtr(50)}, []int{}},
		{"combined", model.EventFilter{Title: "go", CapacityMin: intPtr(100)}, []int{2}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := svc.FilterEvents(ctx, tt.filter)
			require.NoError(t, err)
			ids := []int{}
			for _, e := range got {
				ids = append(ids, e.ID)
			}
			assert.Equal(t, tt.want, ids)
		})
	}
}

func TestHash_StableUntilMutation(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	h1, err := svc.Hash(ctx)
	require.NoError(t, err)
	h2, err := svc.Hash(ctx)
	require.NoError(t, err)
	assert.Equal(t, h1, h2)

	_, err = svc.CreateEvent(ctx, talk())
	require.NoError(t, err)
	h3, err := svc.Hash(ctx)
	require.NoError(t, err)
	assert.NotEqual(t, h1, h3)

	_, err = svc.UpdateEvent(ctx, 1, model.EventInput{Title: "Talk", Date: "2024-12-26", Location: "Hall A", Capacity: 30})
	require.NoError(t, err)
	h4, err := svc.Hash(ctx)
	require.NoError(t, err)
	assert.NotEqual(t, h3, h4)
}

func TestHash_MissingFile(t *testing.T) {
	svc, store := newTestService(t)
	require.NoError(t, os.Remove(store.Path()))

	_, err := svc.Hash(context.Background())
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestArchive_ContainsCurrentFile(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()
	_, err := svc.CreateEvent(ctx, talk())
	require.NoError(t, err)

	name, r, err := svc.Archive(ctx)
	require.NoError(t, err)
	assert.Equal(t, "events.csv", name)

	zr, err := zip.NewReader(r, r.Size())
	require.NoError(t, err)
	require.Len(t, zr.File, 1)
	rc, err := zr.File[0].Open()
	require.NoError(t, err)
	defer rc.Close()
	got, err := io.ReadAll(rc)
	require.NoError(t, err)

	want, err := os.ReadFile(store.Path())
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestCreateEvent_ConcurrentCallsGetUniqueIDs(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	const workers = 20
	ids := make(chan int, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			e, err := svc.CreateEvent(ctx, talk())
			if assert.NoError(t, err) {
				ids <- e.ID
			}
		}()
	}
	wg.Wait()
	close(ids)

	seen := map[int]bool{}
	for id := range ids {
		assert.False(t, seen[id], "duplicate id %d", id)
		seen[id] = true
	}
	assert.Len(t, seen, workers)

	n, err := svc.CountEvents(ctx)
	require.NoError(t, err)
	assert.Equal(t, workers, n)
}
