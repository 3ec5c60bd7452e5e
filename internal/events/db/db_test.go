package db_test

import (
	"context"
	"database/sql"
	"errors"
	"sync"
	"testing"
	"time"

	"ticketly/internal/events/db"
	"ticketly/internal/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	_ "github.com/uptrace/bun/driver/sqliteshim"
)

func setupTestDB(t *testing.T) (*db.DB, *bun.DB) {
	sqldb, err := sql.Open("sqlite", "file:"+uuid.NewString()+"?mode=memory&cache=shared")
	if err != nil {
		t.Fatalf("Failed to connect to in-memory database: %v", err)
	}
	// One connection so every query sees the same in-memory database
	sqldb.SetMaxOpenConns(1)

	bunDB := bun.NewDB(sqldb, sqlitedialect.New())

	_, err = bunDB.NewCreateTable().Model((*models.Event)(nil)).Exec(context.Background())
	if err != nil {
		t.Fatalf("Failed to create events table: %v", err)
	}

	return &db.DB{Bun: bunDB}, bunDB
}

func newTestEvent(seats int) *models.Event {
	now := time.Now().UTC()
	return &models.Event{
		ID:             uuid.NewString(),
		Title:          "Jazz Night",
		Description:    "An evening of live jazz",
		Date:           now.Add(72 * time.Hour),
		Location:       "Blue Note Hall",
		TotalSeats:     seats,
		AvailableSeats: seats,
		TicketPrice:    45.0,
		Status:         models.EventStatusActive,
		CreatedBy:      "admin-1",
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}

func TestCreateAndGetEvent(t *testing.T) {
	eventDB, bunDB := setupTestDB(t)
	defer bunDB.Close()
	ctx := context.Background()

	event := newTestEvent(100)
	require.NoError(t, eventDB.CreateEvent(ctx, event))

	got, err := eventDB.GetEventByID(ctx, event.ID)
	require.NoError(t, err)
	assert.Equal(t, event.Title, got.Title)
	assert.Equal(t, 100, got.AvailableSeats)
	assert.False(t, got.SoldOut())

	_, err = eventDB.GetEventByID(ctx, "missing")
	assert.ErrorIs(t, err, db.ErrNotFound)
}

func TestListEventsFiltersAndSorts(t *testing.T) {
	eventDB, bunDB := setupTestDB(t)
	defer bunDB.Close()
	ctx := context.Background()

	soon := newTestEvent(10)
	soon.Date = time.Now().UTC().Add(24 * time.Hour)
	later := newTestEvent(10)
	later.Date = time.Now().UTC().Add(48 * time.Hour)
	cancelled := newTestEvent(10)
	cancelled.Status = models.EventStatusCancelled

	for _, e := range []*models.Event{later, soon, cancelled} {
		require.NoError(t, eventDB.CreateEvent(ctx, e))
	}

	active, total, err := eventDB.ListEvents(ctx, db.ListOptions{Status: models.EventStatusActive, Page: 1, Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	require.Len(t, active, 2)
	// Upcoming events come first
	assert.Equal(t, soon.ID, active[0].ID)
	assert.Equal(t, later.ID, active[1].ID)

	all, total, err := eventDB.ListEvents(ctx, db.ListOptions{Status: "all", Page: 1, Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	assert.Len(t, all, 3)

	paged, total, err := eventDB.ListEvents(ctx, db.ListOptions{Status: "all", Page: 2, Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	assert.Len(t, paged, 1)
}

func TestUpdateEventPartialFields(t *testing.T) {
	eventDB, bunDB := setupTestDB(t)
	defer bunDB.Close()
	ctx := context.Background()

	event := newTestEvent(50)
	require.NoError(t, eventDB.CreateEvent(ctx, event))

	newTitle := "Jazz Night Deluxe"
	updated, err := eventDB.UpdateEvent(ctx, event.ID, models.UpdateEventRequest{Title: &newTitle})
	require.NoError(t, err)
	assert.Equal(t, newTitle, updated.Title)
	// Untouched fields survive the partial update
	assert.Equal(t, 50, updated.AvailableSeats)
	assert.Equal(t, event.Location, updated.Location)

	_, err = eventDB.UpdateEvent(ctx, "missing", models.UpdateEventRequest{Title: &newTitle})
	assert.ErrorIs(t, err, db.ErrNotFound)
}

func TestUpdateTotalSeatsResetsAvailable(t *testing.T) {
	eventDB, bunDB := setupTestDB(t)
	defer bunDB.Close()
	ctx := context.Background()

	event := newTestEvent(10)
	require.NoError(t, eventDB.CreateEvent(ctx, event))

	// Sell some seats first
	for i := 0; i < 4; i++ {
		_, err := eventDB.DecrementAvailableSeat(ctx, event.ID)
		require.NoError(t, err)
	}

	newTotal := 20
	updated, err := eventDB.UpdateEvent(ctx, event.ID, models.UpdateEventRequest{TotalSeats: &newTotal})
	require.NoError(t, err)
	assert.Equal(t, 20, updated.TotalSeats)
	assert.Equal(t, 20, updated.AvailableSeats)
}

func TestDecrementAvailableSeat(t *testing.T) {
	eventDB, bunDB := setupTestDB(t)
	defer bunDB.Close()
	ctx := context.Background()

	event := newTestEvent(2)
	require.NoError(t, eventDB.CreateEvent(ctx, event))

	first, err := eventDB.DecrementAvailableSeat(ctx, event.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, first.AvailableSeats)
	assert.False(t, first.SoldOut())

	second, err := eventDB.DecrementAvailableSeat(ctx, event.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, second.AvailableSeats)
	assert.True(t, second.SoldOut())

	// Exhausted: the guard refuses and the count never goes negative
	_, err = eventDB.DecrementAvailableSeat(ctx, event.ID)
	assert.ErrorIs(t, err, db.ErrNoSeatsAvailable)

	got, err := eventDB.GetEventByID(ctx, event.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, got.AvailableSeats)
}

func TestDecrementMissingEvent(t *testing.T) {
	eventDB, bunDB := setupTestDB(t)
	defer bunDB.Close()

	_, err := eventDB.DecrementAvailableSeat(context.Background(), "missing")
	assert.ErrorIs(t, err, db.ErrNotFound)
}

func TestConcurrentDecrementsNeverOversell(t *testing.T) {
	eventDB, bunDB := setupTestDB(t)
	defer bunDB.Close()
	ctx := context.Background()

	const seats = 3
	const contenders = 12

	event := newTestEvent(seats)
	require.NoError(t, eventDB.CreateEvent(ctx, event))

	var wg sync.WaitGroup
	results := make(chan error, contenders)

	for i := 0; i < contenders; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := eventDB.DecrementAvailableSeat(ctx, event.ID)
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	var wins, losses int
	for err := range results {
		switch {
		case err == nil:
			wins++
		case errors.Is(err, db.ErrNoSeatsAvailable):
			losses++
		default:
			t.Fatalf("unexpected decrement error: %v", err)
		}
	}

	assert.Equal(t, seats, wins)
	assert.Equal(t, contenders-seats, losses)

	got, err := eventDB.GetEventByID(ctx, event.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, got.AvailableSeats)
}

func TestUpdateStatusAndDelete(t *testing.T) {
	eventDB, bunDB := setupTestDB(t)
	defer bunDB.Close()
	ctx := context.Background()

	event := newTestEvent(5)
	require.NoError(t, eventDB.CreateEvent(ctx, event))

	updated, err := eventDB.UpdateEventStatus(ctx, event.ID, models.EventStatusCancelled)
	require.NoError(t, err)
	assert.Equal(t, models.EventStatusCancelled, updated.Status)

	require.NoError(t, eventDB.DeleteEvent(ctx, event.ID))
	assert.ErrorIs(t, eventDB.DeleteEvent(ctx, event.ID), db.ErrNotFound)
}
