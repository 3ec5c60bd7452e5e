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

// ErrNotFound is returned when a requested event does not exist.
var ErrNotFound = errors.New("event not found")

// ErrNoSeatsAvailable is returned by DecrementAvailableSeat when the guard
// condition fails: the event exists but its seats are exhausted.
var ErrNoSeatsAvailable = errors.New("no seats available")

type DB struct {
	Bun *bun.DB
}

// ListOptions controls List filtering and pagination. Status "all" (or "")
// disables the status filter. SortByCreated orders newest-first instead of
// the default upcoming-first ordering.
type ListOptions struct {
	Status        string
	Page          int
	Limit         int
	SortByCreated bool
}

func (d *DB) CreateEvent(ctx context.Context, event *models.Event) error {
	_, err := d.Bun.NewInsert().Model(event).Exec(ctx)
	return err
}

func (d *DB) GetEventByID(ctx context.Context, id string) (*models.Event, error) {
	var event models.Event
	err := d.Bun.NewSelect().
		Model(&event).
		Where("id = ?", id).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &event, nil
}

// ListEvents returns one page of events plus the unpaged total for the same
// filter.
func (d *DB) ListEvents(ctx context.Context, opts ListOptions) ([]models.Event, int, error) {
	if opts.Page < 1 {
		opts.Page = 1
	}
	if opts.Limit < 1 {
		opts.Limit = 10
	}

	q := d.Bun.NewSelect().Model((*models.Event)(nil))
	if opts.Status != "" && opts.Status != "all" {
		q = q.Where("status = ?", opts.Status)
	}

	total, err := q.Count(ctx)
	if err != nil {
		return nil, 0, fmt.Errorf("count events: %w", err)
	}

	var events []models.Event
	q = d.Bun.NewSelect().Model(&events)
	if opts.Status != "" && opts.Status != "all" {
		q = q.Where("status = ?", opts.Status)
	}
	if opts.SortByCreated {
		q = q.Order("created_at DESC")
	} else {
		q = q.Order("date ASC")
	}
	err = q.Limit(opts.Limit).
		Offset((opts.Page - 1) * opts.Limit).
		Scan(ctx)
	if err != nil {
		return nil, 0, fmt.Errorf("list events: %w", err)
	}

	return events, total, nil
}

// UpdateEvent applies a partial field set. Setting TotalSeats also resets
// AvailableSeats to the new total.
//
// This is a plain overwrite: administrative edits are not synchronized
// against concurrent confirmations. The only write path with a concurrency
// guarantee is DecrementAvailableSeat.
func (d *DB) UpdateEvent(ctx context.Context, id string, req models.UpdateEventRequest) (*models.Event, error) {
	updated := &models.Event{}
	q := d.Bun.NewUpdate().
		Model(updated).
		Set("updated_at = ?", time.Now().UTC()).
		Where("id = ?", id).
		Returning("*")

	if req.Title != nil {
		q = q.Set("title = ?", *req.Title)
	}
	if req.Description != nil {
		q = q.Set("description = ?", *req.Description)
	}
	if req.Date != nil {
		q = q.Set("date = ?", *req.Date)
	}
	if req.Location != nil {
		q = q.Set("location = ?", *req.Location)
	}
	if req.TotalSeats != nil {
		q = q.Set("total_seats = ?", *req.TotalSeats)
		q = q.Set("available_seats = ?", *req.TotalSeats)
	}
	if req.TicketPrice != nil {
		q = q.Set("ticket_price = ?", *req.TicketPrice)
	}
	if req.PrimaryImage != nil {
		q = q.Set("primary_image = ?", *req.PrimaryImage)
	}
	if req.SecondaryImages != nil {
		q = q.Set("secondary_images = ?", *req.SecondaryImages)
	}

	res, err := q.Exec(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("update event: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, ErrNotFound
	}
	return updated, nil
}

// UpdateEventStatus moves the event to a new lifecycle status.
func (d *DB) UpdateEventStatus(ctx context.Context, id, status string) (*models.Event, error) {
	updated := &models.Event{}
	res, err := d.Bun.NewUpdate().
		Model(updated).
		Set("status = ?", status).
		Set("updated_at = ?", time.Now().UTC()).
		Where("id = ?", id).
		Returning("*").
		Exec(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("update event status: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, ErrNotFound
	}
	return updated, nil
}

func (d *DB) DeleteEvent(ctx context.Context, id string) error {
	res, err := d.Bun.NewDelete().
		Model((*models.Event)(nil)).
		Where("id = ?", id).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("delete event: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// DecrementAvailableSeat takes exactly one seat, but only if one is left.
// The existence check and the decrement are a single conditional UPDATE, so
// two confirmations racing for the last seat cannot both win: the statement
// either matches the row with available_seats > 0 and decrements it, or
// matches nothing.
//
// On success the post-decrement event is returned. ErrNoSeatsAvailable means
// the guard failed; ErrNotFound means the event does not exist at all.
func (d *DB) DecrementAvailableSeat(ctx context.Context, id string) (*models.Event, error) {
	updated := &models.Event{}
	res, err := d.Bun.NewUpdate().
		Model(updated).
		Set("available_seats = available_seats - 1").
		Set("updated_at = ?", time.Now().UTC()).
		Where("id = ?", id).
		Where("available_seats > 0").
		Returning("*").
		Exec(ctx)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("decrement seats: %w", err)
	}
	if err == nil {
		if n, _ := res.RowsAffected(); n > 0 {
			return updated, nil
		}
	}

	// Guard failed. Distinguish a missing event from an exhausted one;
	// this read is off the hot path and does not weaken the decrement.
	if _, getErr := d.GetEventByID(ctx, id); getErr != nil {
		return nil, getErr
	}
	return nil, ErrNoSeatsAvailable
}

// CountEvents returns the total number of events.
func (d *DB) CountEvents(ctx context.Context) (int, error) {
	return d.Bun.NewSelect().Model((*models.Event)(nil)).Count(ctx)
}
