package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/uptrace/bun"
)

// Event statuses.
const (
	EventStatusActive    = "active"
	EventStatusCancelled = "cancelled"
	EventStatusCompleted = "completed"
)

// ImageRef points at an uploaded image on the hosting provider.
type ImageRef struct {
	PublicID string `json:"publicId"`
	URL      string `json:"url"`
}

// ImageRefList is a JSON-encoded column of image references.
type ImageRefList []ImageRef

func (r ImageRef) Value() (driver.Value, error) {
	return json.Marshal(r)
}

func (r *ImageRef) Scan(src interface{}) error {
	return scanJSON(src, r)
}

func (l ImageRefList) Value() (driver.Value, error) {
	if l == nil {
		l = ImageRefList{}
	}
	return json.Marshal(l)
}

func (l *ImageRefList) Scan(src interface{}) error {
	return scanJSON(src, l)
}

func scanJSON(src, dst interface{}) error {
	switch v := src.(type) {
	case nil:
		return nil
	case []byte:
		return json.Unmarshal(v, dst)
	case string:
		return json.Unmarshal([]byte(v), dst)
	default:
		return fmt.Errorf("unsupported column type %T", src)
	}
}

type Event struct {
	bun.BaseModel `bun:"table:events"`

	ID              string       `bun:"id,pk" json:"id"`
	Title           string       `bun:"title,notnull" json:"title"`
	Description     string       `bun:"description" json:"description"`
	Date            time.Time    `bun:"date,notnull" json:"date"`
	Location        string       `bun:"location" json:"location"`
	TotalSeats      int          `bun:"total_seats,notnull" json:"totalSeats"`
	AvailableSeats  int          `bun:"available_seats,notnull" json:"availableSeats"`
	TicketPrice     float64      `bun:"ticket_price,notnull" json:"ticketPrice"`
	PrimaryImage    ImageRef     `bun:"primary_image,type:jsonb" json:"primaryImage"`
	SecondaryImages ImageRefList `bun:"secondary_images,type:jsonb" json:"secondaryImages"`
	Status          string       `bun:"status,notnull" json:"status"`
	CreatedBy       string       `bun:"created_by" json:"createdBy"`
	CreatedAt       time.Time    `bun:"created_at,notnull" json:"createdAt"`
	UpdatedAt       time.Time    `bun:"updated_at,notnull" json:"updatedAt"`
}

// SoldOut reports whether the event has no seats left.
func (e *Event) SoldOut() bool {
	return e.AvailableSeats <= 0
}

// CreateEventRequest carries the fields an administrator submits when
// creating an event. Images arrive as hosting references.
type CreateEventRequest struct {
	Title           string       `json:"title"`
	Description     string       `json:"description"`
	Date            time.Time    `json:"date"`
	Location        string       `json:"location"`
	TotalSeats      int          `json:"totalSeats"`
	TicketPrice     float64      `json:"ticketPrice"`
	PrimaryImage    ImageRef     `json:"primaryImage"`
	SecondaryImages ImageRefList `json:"secondaryImages"`
}

// UpdateEventRequest carries a partial field set. Nil means "leave as is".
type UpdateEventRequest struct {
	Title           *string       `json:"title"`
	Description     *string       `json:"description"`
	Date            *time.Time    `json:"date"`
	Location        *string       `json:"location"`
	TotalSeats      *int          `json:"totalSeats"`
	TicketPrice     *float64      `json:"ticketPrice"`
	PrimaryImage    *ImageRef     `json:"primaryImage"`
	SecondaryImages *ImageRefList `json:"secondaryImages"`
}

// EventList is the paginated listing envelope.
type EventList struct {
	Events      []Event `json:"events"`
	TotalPages  int     `json:"totalPages"`
	CurrentPage int     `json:"currentPage"`
	Total       int     `json:"total"`
}
