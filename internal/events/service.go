package events

import (
	"context"
	"errors"
	"fmt"
	"time"

	"ticketly/internal/events/db"
	"ticketly/internal/logger"
	"ticketly/internal/models"

	"github.com/google/uuid"
)

// ErrValidation wraps all admin-input failures so handlers can map them to
// one status code.
var ErrValidation = errors.New("validation error")

// Schema bounds carried over from the catalog's data model.
const (
	maxTitleLen       = 100
	maxDescriptionLen = 1000
	maxLocationLen    = 200
	maxTotalSeats     = 10000
)

type Store interface {
	CreateEvent(ctx context.Context, event *models.Event) error
	GetEventByID(ctx context.Context, id string) (*models.Event, error)
	ListEvents(ctx context.Context, opts db.ListOptions) ([]models.Event, int, error)
	UpdateEvent(ctx context.Context, id string, req models.UpdateEventRequest) (*models.Event, error)
	UpdateEventStatus(ctx context.Context, id, status string) (*models.Event, error)
	DeleteEvent(ctx context.Context, id string) error
}

// Cache sits in front of the public read path. Implementations must treat
// misses and backend failures alike: fall through to the store.
type Cache interface {
	GetList(ctx context.Context, key string) (*models.EventList, bool)
	SetList(ctx context.Context, key string, list *models.EventList)
	GetEvent(ctx context.Context, id string) (*models.Event, bool)
	SetEvent(ctx context.Context, event *models.Event)
	Invalidate(ctx context.Context, id string)
}

type Notifier interface {
	BroadcastCatalogChanged()
}

type Service struct {
	store    Store
	cache    Cache
	notifier Notifier
	log      *logger.Logger
}

func NewService(store Store, cache Cache, notifier Notifier, log *logger.Logger) *Service {
	return &Service{store: store, cache: cache, notifier: notifier, log: log}
}

// Create validates and persists a new event. AvailableSeats starts at
// TotalSeats.
func (s *Service) Create(ctx context.Context, createdBy string, req models.CreateEventRequest) (*models.Event, error) {
	if err := validateCreate(req); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	event := &models.Event{
		ID:              uuid.NewString(),
		Title:           req.Title,
		Description:     req.Description,
		Date:            req.Date,
		Location:        req.Location,
		TotalSeats:      req.TotalSeats,
		AvailableSeats:  req.TotalSeats,
		TicketPrice:     req.TicketPrice,
		PrimaryImage:    req.PrimaryImage,
		SecondaryImages: req.SecondaryImages,
		Status:          models.EventStatusActive,
		CreatedBy:       createdBy,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	if err := s.store.CreateEvent(ctx, event); err != nil {
		return nil, fmt.Errorf("create event: %w", err)
	}

	s.log.Info("EVENTS", fmt.Sprintf("Created event %s (%d seats)", event.ID, event.TotalSeats))
	s.afterCatalogChange(ctx, event.ID)
	return event, nil
}

func (s *Service) Get(ctx context.Context, id string) (*models.Event, error) {
	if event, ok := s.cache.GetEvent(ctx, id); ok {
		return event, nil
	}
	event, err := s.store.GetEventByID(ctx, id)
	if err != nil {
		return nil, err
	}
	s.cache.SetEvent(ctx, event)
	return event, nil
}

func (s *Service) List(ctx context.Context, opts db.ListOptions) (*models.EventList, error) {
	if opts.Page < 1 {
		opts.Page = 1
	}
	if opts.Limit < 1 || opts.Limit > 100 {
		opts.Limit = 10
	}
	if opts.Status == "" {
		opts.Status = models.EventStatusActive
	}

	key := listCacheKey(opts)
	if list, ok := s.cache.GetList(ctx, key); ok {
		return list, nil
	}

	events, total, err := s.store.ListEvents(ctx, opts)
	if err != nil {
		return nil, err
	}

	list := &models.EventList{
		Events:      events,
		TotalPages:  (total + opts.Limit - 1) / opts.Limit,
		CurrentPage: opts.Page,
		Total:       total,
	}
	s.cache.SetList(ctx, key, list)
	return list, nil
}

func (s *Service) Update(ctx context.Context, id string, req models.UpdateEventRequest) (*models.Event, error) {
	if err := validateUpdate(req); err != nil {
		return nil, err
	}

	event, err := s.store.UpdateEvent(ctx, id, req)
	if err != nil {
		return nil, err
	}

	if req.TotalSeats != nil {
		s.log.Info("EVENTS", fmt.Sprintf("Event %s seats reset to %d", id, *req.TotalSeats))
	}
	s.afterCatalogChange(ctx, id)
	return event, nil
}

func (s *Service) UpdateStatus(ctx context.Context, id, status string) (*models.Event, error) {
	switch status {
	case models.EventStatusActive, models.EventStatusCancelled, models.EventStatusCompleted:
	default:
		return nil, fmt.Errorf("%w: invalid status %q", ErrValidation, status)
	}

	event, err := s.store.UpdateEventStatus(ctx, id, status)
	if err != nil {
		return nil, err
	}

	s.log.Info("EVENTS", fmt.Sprintf("Event %s status -> %s", id, status))
	s.afterCatalogChange(ctx, id)
	return event, nil
}

func (s *Service) Delete(ctx context.Context, id string) error {
	if err := s.store.DeleteEvent(ctx, id); err != nil {
		return err
	}
	s.log.Info("EVENTS", fmt.Sprintf("Deleted event %s", id))
	s.afterCatalogChange(ctx, id)
	return nil
}

func (s *Service) afterCatalogChange(ctx context.Context, id string) {
	s.cache.Invalidate(ctx, id)
	s.notifier.BroadcastCatalogChanged()
}

func listCacheKey(opts db.ListOptions) string {
	sort := "date"
	if opts.SortByCreated {
		sort = "created"
	}
	return fmt.Sprintf("events:list:%s:%d:%d:%s", opts.Status, opts.Page, opts.Limit, sort)
}

func validateCreate(req models.CreateEventRequest) error {
	if req.Title == "" || len(req.Title) > maxTitleLen {
		return fmt.Errorf("%w: title is required and cannot exceed %d characters", ErrValidation, maxTitleLen)
	}
	if req.Description == "" || len(req.Description) > maxDescriptionLen {
		return fmt.Errorf("%w: description is required and cannot exceed %d characters", ErrValidation, maxDescriptionLen)
	}
	if req.Location == "" || len(req.Location) > maxLocationLen {
		return fmt.Errorf("%w: location is required and cannot exceed %d characters", ErrValidation, maxLocationLen)
	}
	if !req.Date.After(time.Now()) {
		return fmt.Errorf("%w: event date must be in the future", ErrValidation)
	}
	if req.TotalSeats < 1 || req.TotalSeats > maxTotalSeats {
		return fmt.Errorf("%w: total seats must be between 1 and %d", ErrValidation, maxTotalSeats)
	}
	if req.TicketPrice < 0 {
		return fmt.Errorf("%w: ticket price cannot be negative", ErrValidation)
	}
	if req.PrimaryImage.URL == "" {
		return fmt.Errorf("%w: primary image is required", ErrValidation)
	}
	return nil
}

func validateUpdate(req models.UpdateEventRequest) error {
	if req.Title != nil && (*req.Title == "" || len(*req.Title) > maxTitleLen) {
		return fmt.Errorf("%w: title cannot be empty or exceed %d characters", ErrValidation, maxTitleLen)
	}
	if req.Description != nil && (*req.Description == "" || len(*req.Description) > maxDescriptionLen) {
		return fmt.Errorf("%w: description cannot be empty or exceed %d characters", ErrValidation, maxDescriptionLen)
	}
	if req.Location != nil && (*req.Location == "" || len(*req.Location) > maxLocationLen) {
		return fmt.Errorf("%w: location cannot be empty or exceed %d characters", ErrValidation, maxLocationLen)
	}
	if req.TotalSeats != nil && (*req.TotalSeats < 1 || *req.TotalSeats > maxTotalSeats) {
		return fmt.Errorf("%w: total seats must be between 1 and %d", ErrValidation, maxTotalSeats)
	}
	if req.TicketPrice != nil && *req.TicketPrice < 0 {
		return fmt.Errorf("%w: ticket price cannot be negative", ErrValidation)
	}
	return nil
}
