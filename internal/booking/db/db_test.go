package db_test

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"ticketly/internal/booking/db"
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
	sqldb.SetMaxOpenConns(1)

	bunDB := bun.NewDB(sqldb, sqlitedialect.New())

	_, err = bunDB.NewCreateTable().Model((*models.Booking)(nil)).Exec(context.Background())
	if err != nil {
		t.Fatalf("Failed to create bookings table: %v", err)
	}

	return &db.DB{Bun: bunDB}, bunDB
}

func newTestBooking(userID string) *models.Booking {
	now := time.Now().UTC()
	return &models.Booking{
		ID:        uuid.NewString(),
		UserID:    userID,
		EventID:   "event-1",
		Amount:    45.0,
		Currency:  "usd",
		Status:    models.BookingStatusPending,
		SessionID: "cs_" + uuid.NewString(),
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func TestCreateAndLookupBooking(t *testing.T) {
	bookingDB, bunDB := setupTestDB(t)
	defer bunDB.Close()
	ctx := context.Background()

	booking := newTestBooking("user-1")
	require.NoError(t, bookingDB.CreateBooking(ctx, booking))

	byID, err := bookingDB.GetBookingByID(ctx, booking.ID)
	require.NoError(t, err)
	assert.Equal(t, booking.SessionID, byID.SessionID)
	assert.Equal(t, models.BookingStatusPending, byID.Status)

	bySession, err := bookingDB.GetBookingBySessionID(ctx, booking.SessionID)
	require.NoError(t, err)
	assert.Equal(t, booking.ID, bySession.ID)

	_, err = bookingDB.GetBookingByID(ctx, "missing")
	assert.ErrorIs(t, err, db.ErrNotFound)
	_, err = bookingDB.GetBookingBySessionID(ctx, "cs_missing")
	assert.ErrorIs(t, err, db.ErrNotFound)
}

func TestMarkPaid(t *testing.T) {
	bookingDB, bunDB := setupTestDB(t)
	defer bunDB.Close()
	ctx := context.Background()

	booking := newTestBooking("user-1")
	require.NoError(t, bookingDB.CreateBooking(ctx, booking))

	require.NoError(t, bookingDB.MarkPaid(ctx, booking.ID))

	got, err := bookingDB.GetBookingByID(ctx, booking.ID)
	require.NoError(t, err)
	assert.Equal(t, models.BookingStatusPaid, got.Status)

	// Paid is terminal: a second transition is refused
	assert.ErrorIs(t, bookingDB.MarkPaid(ctx, booking.ID), db.ErrNotPending)
	assert.ErrorIs(t, bookingDB.MarkFailed(ctx, booking.ID), db.ErrNotPending)
}

func TestMarkFailed(t *testing.T) {
	bookingDB, bunDB := setupTestDB(t)
	defer bunDB.Close()
	ctx := context.Background()

	booking := newTestBooking("user-1")
	require.NoError(t, bookingDB.CreateBooking(ctx, booking))

	require.NoError(t, bookingDB.MarkFailed(ctx, booking.ID))

	got, err := bookingDB.GetBookingByID(ctx, booking.ID)
	require.NoError(t, err)
	assert.Equal(t, models.BookingStatusFailed, got.Status)

	// Failed is terminal too
	assert.ErrorIs(t, bookingDB.MarkPaid(ctx, booking.ID), db.ErrNotPending)
}

func TestMarkMissingBooking(t *testing.T) {
	bookingDB, bunDB := setupTestDB(t)
	defer bunDB.Close()

	assert.ErrorIs(t, bookingDB.MarkPaid(context.Background(), "missing"), db.ErrNotFound)
	assert.ErrorIs(t, bookingDB.MarkFailed(context.Background(), "missing"), db.ErrNotFound)
}

func TestListBookingsByUser(t *testing.T) {
	bookingDB, bunDB := setupTestDB(t)
	defer bunDB.Close()
	ctx := context.Background()

	older := newTestBooking("user-1")
	older.CreatedAt = time.Now().UTC().Add(-time.Hour)
	newer := newTestBooking("user-1")
	other := newTestBooking("user-2")

	for _, b := range []*models.Booking{older, newer, other} {
		require.NoError(t, bookingDB.CreateBooking(ctx, b))
	}

	bookings, err := bookingDB.ListBookingsByUser(ctx, "user-1")
	require.NoError(t, err)
	require.Len(t, bookings, 2)
	// Newest first
	assert.Equal(t, newer.ID, bookings[0].ID)
	assert.Equal(t, older.ID, bookings[1].ID)
}

func TestCountBookingsByStatus(t *testing.T) {
	bookingDB, bunDB := setupTestDB(t)
	defer bunDB.Close()
	ctx := context.Background()

	paid := newTestBooking("user-1")
	failed := newTestBooking("user-1")
	pending := newTestBooking("user-2")

	for _, b := range []*models.Booking{paid, failed, pending} {
		require.NoError(t, bookingDB.CreateBooking(ctx, b))
	}
	require.NoError(t, bookingDB.MarkPaid(ctx, paid.ID))
	require.NoError(t, bookingDB.MarkFailed(ctx, failed.ID))

	count, err := bookingDB.CountBookingsByStatus(ctx, models.BookingStatusPaid)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	count, err = bookingDB.CountBookingsByStatus(ctx, models.BookingStatusPending)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}
