package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"ticketly/internal/models"

	"github.com/uptrace/bun"
)

// ErrNotFound is returned when no booking matches the lookup.
var ErrNotFound = errors.New("booking not found")

// ErrNotPending is returned when a terminal transition is attempted on a
// booking that is not pending. paid and failed are terminal; a booking
// reaches at most one of them, exactly once.
var ErrNotPending = errors.New("booking is not pending")

type DB struct {
	Bun *bun.DB
}

// CreateBooking inserts a new pending booking. SessionID is unique, so a
// duplicate session insert fails at the store.
func (d *DB) CreateBooking(ctx context.Context, booking *models.Booking) error {
	_, err := d.Bun.NewInsert().Model(booking).Exec(ctx)
	if err != nil {
		return fmt.Errorf("insert booking: %w", err)
	}
	return nil
}

func (d *DB) GetBookingByID(ctx context.Context, id string) (*models.Booking, error) {
	var booking models.Booking
	err := d.Bun.NewSelect().
		Model(&booking).
		Where("id = ?", id).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &booking, nil
}

// GetBookingBySessionID looks up the single booking tied to a payment
// session.
func (d *DB) GetBookingBySessionID(ctx context.Context, sessionID string) (*models.Booking, error) {
	var booking models.Booking
	err := d.Bun.NewSelect().
		Model(&booking).
		Where("session_id = ?", sessionID).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &booking, nil
}

// MarkPaid transitions a pending booking to paid.
func (d *DB) MarkPaid(ctx context.Context, id string) error {
	return d.markStatus(ctx, id, models.BookingStatusPaid)
}

// MarkFailed transitions a pending booking to failed.
func (d *DB) MarkFailed(ctx context.Context, id string) error {
	return d.markStatus(ctx, id, models.BookingStatusFailed)
}

// markStatus guards the transition in the UPDATE itself: only a pending row
// matches, so a booking cannot leave a terminal state.
func (d *DB) markStatus(ctx context.Context, id, status string) error {
	res, err := d.Bun.NewUpdate().
		Model((*models.Booking)(nil)).
		Set("status = ?", status).
		Set("updated_at = ?", time.Now().UTC()).
		Where("id = ?", id).
		Where("status = ?", models.BookingStatusPending).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("update booking status: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		if _, getErr := d.GetBookingByID(ctx, id); getErr != nil {
			return getErr
		}
		return ErrNotPending
	}
	return nil
}

// ListBookingsByUser returns the caller's bookings, newest first.
func (d *DB) ListBookingsByUser(ctx context.Context, userID string) ([]models.Booking, error) {
	var bookings []models.Booking
	err := d.Bun.NewSelect().
		Model(&bookings).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("list bookings: %w", err)
	}
	return bookings, nil
}

// CountBookingsByStatus counts bookings in one status.
func (d *DB) CountBookingsByStatus(ctx context.Context, status string) (int, error) {
	return d.Bun.NewSelect().
		Model((*models.Booking)(nil)).
		Where("status = ?", status).
		Count(ctx)
}
