package checkout

import (
	"context"
	"errors"
	"fmt"
	"time"

	eventsdb "ticketly/internal/events/db"
	"ticketly/internal/logger"
	"ticketly/internal/models"

	"github.com/google/uuid"
)

var (
	// ErrSoldOut is returned at initiation when no seats are left. This is
	// an optimistic check: seats are not held during the payment flow, so
	// the authoritative check happens again at confirmation.
	ErrSoldOut = errors.New("event is sold out")

	// ErrEventNotActive is returned when reserving against a cancelled or
	// completed event.
	ErrEventNotActive = errors.New("event is not active")

	// ErrPaymentNotCompleted is returned when the gateway reports the
	// session as unsettled.
	ErrPaymentNotCompleted = errors.New("payment not completed")

	// ErrBookingFailed is returned when confirming a booking that already
	// ended in the failed state.
	ErrBookingFailed = errors.New("booking already failed")

	// ErrUpstream wraps gateway transport failures.
	ErrUpstream = errors.New("payment gateway unavailable")
)

// PaymentGateway is the hosted-checkout provider. The coordinator treats it
// as a boolean oracle for "was this session paid" and never sees
// payment-method details.
type PaymentGateway interface {
	CreateSession(ctx context.Context, req SessionRequest) (*Session, error)
	GetSessionSettlement(ctx context.Context, sessionID string) (bool, error)
}

// SessionRequest describes the checkout session to open.
type SessionRequest struct {
	Amount      float64
	Currency    string
	Description string
	EventID     string
	UserID      string
}

// Session is a freshly opened hosted-checkout session.
type Session struct {
	ID         string
	PaymentURL string
}

type EventStore interface {
	GetEventByID(ctx context.Context, id string) (*models.Event, error)
	DecrementAvailableSeat(ctx context.Context, id string) (*models.Event, error)
}

type BookingStore interface {
	CreateBooking(ctx context.Context, booking *models.Booking) error
	GetBookingBySessionID(ctx context.Context, sessionID string) (*models.Booking, error)
	MarkPaid(ctx context.Context, id string) error
	MarkFailed(ctx context.Context, id string) error
}

type Notifier interface {
	BroadcastInventoryChanged(eventID string, availableSeats int, soldOut bool)
}

// Publisher streams booking outcomes to downstream consumers. Publishing is
// fire-and-forget: a broker failure never fails a confirmation.
type Publisher interface {
	PublishBookingConfirmed(ctx context.Context, booking *models.Booking, event *models.Event) error
	PublishBookingFailed(ctx context.Context, booking *models.Booking) error
}

// Invalidator drops cached event reads after inventory changes.
type Invalidator interface {
	Invalidate(ctx context.Context, eventID string)
}

// Service coordinates the reservation flow: it opens payment sessions
// against available inventory and, on settlement, performs the atomic
// seat-decrement-and-booking-confirmation step.
type Service struct {
	events    EventStore
	bookings  BookingStore
	gateway   PaymentGateway
	notifier  Notifier
	publisher Publisher
	cache     Invalidator
	currency  string
	log       *logger.Logger
}

func NewService(
	events EventStore,
	bookings BookingStore,
	gateway PaymentGateway,
	notifier Notifier,
	publisher Publisher,
	cache Invalidator,
	currency string,
	log *logger.Logger,
) *Service {
	return &Service{
		events:    events,
		bookings:  bookings,
		gateway:   gateway,
		notifier:  notifier,
		publisher: publisher,
		cache:     cache,
		currency:  currency,
		log:       log,
	}
}

// InitiateReservation opens a payment session for one seat and records a
// pending booking keyed by that session. No inventory is taken yet: seat
// accounting is deferred to confirmation so abandoned sessions never pin
// seats. Two shoppers can both start checkout for the last seat; the
// conditional decrement at confirmation picks the winner.
func (s *Service) InitiateReservation(ctx context.Context, userID, eventID string) (*models.ReservationResponse, error) {
	event, err := s.events.GetEventByID(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if event.Status != models.EventStatusActive {
		return nil, ErrEventNotActive
	}
	if event.SoldOut() {
		return nil, ErrSoldOut
	}

	session, err := s.gateway.CreateSession(ctx, SessionRequest{
		Amount:      event.TicketPrice,
		Currency:    s.currency,
		Description: event.Title,
		EventID:     event.ID,
		UserID:      userID,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: create session: %v", ErrUpstream, err)
	}

	now := time.Now().UTC()
	booking := &models.Booking{
		ID:        uuid.NewString(),
		UserID:    userID,
		EventID:   event.ID,
		Amount:    event.TicketPrice,
		Currency:  s.currency,
		Status:    models.BookingStatusPending,
		SessionID: session.ID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.bookings.CreateBooking(ctx, booking); err != nil {
		return nil, fmt.Errorf("record pending booking: %w", err)
	}

	s.log.LogBooking("INITIATE", booking.ID, fmt.Sprintf("session %s for event %s", session.ID, event.ID))

	return &models.ReservationResponse{
		SessionID:  session.ID,
		PaymentURL: session.PaymentURL,
	}, nil
}

// ConfirmReservation settles a payment session against inventory. It may be
// called more than once per session (client redirect plus gateway
// callback); a booking that is already paid returns success without
// touching inventory again.
//
// The decrement is a single conditional update on the event row. When it
// reports no seats left, some racing confirmation consumed the last one and
// this booking is marked failed; support has to reconcile the paid-but-seatless
// case out of band.
func (s *Service) ConfirmReservation(ctx context.Context, sessionID string) (*models.ConfirmationResponse, error) {
	booking, err := s.bookings.GetBookingBySessionID(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	switch booking.Status {
	case models.BookingStatusPaid:
		s.log.LogBooking("CONFIRM", booking.ID, "already paid, idempotent success")
		return &models.ConfirmationResponse{BookingID: booking.ID}, nil
	case models.BookingStatusFailed:
		return nil, ErrBookingFailed
	}

	settled, err := s.gateway.GetSessionSettlement(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("%w: query settlement: %v", ErrUpstream, err)
	}
	if !settled {
		return nil, ErrPaymentNotCompleted
	}

	event, err := s.events.DecrementAvailableSeat(ctx, booking.EventID)
	if err != nil {
		if errors.Is(err, eventsdb.ErrNoSeatsAvailable) {
			if markErr := s.bookings.MarkFailed(ctx, booking.ID); markErr != nil {
				s.log.Error("CHECKOUT", fmt.Sprintf("Failed to mark booking %s failed: %v", booking.ID, markErr))
			}
			s.log.LogBooking("CONFIRM", booking.ID, "lost seat race, booking failed")
			booking.Status = models.BookingStatusFailed
			s.publishFailed(ctx, booking)
			return nil, eventsdb.ErrNoSeatsAvailable
		}
		return nil, err
	}

	if err := s.bookings.MarkPaid(ctx, booking.ID); err != nil {
		return nil, fmt.Errorf("mark booking paid: %w", err)
	}
	booking.Status = models.BookingStatusPaid

	s.log.LogBooking("CONFIRM", booking.ID, fmt.Sprintf("paid, event %s now has %d seats", event.ID, event.AvailableSeats))

	s.cache.Invalidate(ctx, event.ID)
	s.notifier.BroadcastInventoryChanged(event.ID, event.AvailableSeats, event.SoldOut())
	s.publishConfirmed(ctx, booking, event)

	return &models.ConfirmationResponse{BookingID: booking.ID}, nil
}

func (s *Service) publishConfirmed(ctx context.Context, booking *models.Booking, event *models.Event) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.PublishBookingConfirmed(ctx, booking, event); err != nil {
		s.log.Warn("KAFKA", fmt.Sprintf("Publish booking confirmed %s: %v", booking.ID, err))
	}
}

func (s *Service) publishFailed(ctx context.Context, booking *models.Booking) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.PublishBookingFailed(ctx, booking); err != nil {
		s.log.Warn("KAFKA", fmt.Sprintf("Publish booking failed %s: %v", booking.ID, err))
	}
}
