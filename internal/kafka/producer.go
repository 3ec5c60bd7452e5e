package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"ticketly/internal/models"

	"github.com/segmentio/kafka-go"
)

// BookingEvent is the payload streamed for booking outcomes.
type BookingEvent struct {
	BookingID      string    `json:"bookingId"`
	UserID         string    `json:"userId"`
	EventID        string    `json:"eventId"`
	Amount         float64   `json:"amount"`
	Currency       string    `json:"currency"`
	Status         string    `json:"status"`
	AvailableSeats int       `json:"availableSeats,omitempty"`
	OccurredAt     time.Time `json:"occurredAt"`
}

// Producer streams booking outcomes to the confirmed and failed topics.
type Producer struct {
	confirmedWriter *kafka.Writer
	failedWriter    *kafka.Writer
}

func NewProducer(brokers []string, confirmedTopic, failedTopic string) *Producer {
	return &Producer{
		confirmedWriter: kafka.NewWriter(kafka.WriterConfig{
			Brokers: brokers,
			Topic:   confirmedTopic,
		}),
		failedWriter: kafka.NewWriter(kafka.WriterConfig{
			Brokers: brokers,
			Topic:   failedTopic,
		}),
	}
}

// PublishBookingConfirmed streams a paid booking together with the event's
// remaining seat count.
func (p *Producer) PublishBookingConfirmed(ctx context.Context, booking *models.Booking, event *models.Event) error {
	return p.publish(ctx, p.confirmedWriter, BookingEvent{
		BookingID:      booking.ID,
		UserID:         booking.UserID,
		EventID:        booking.EventID,
		Amount:         booking.Amount,
		Currency:       booking.Currency,
		Status:         booking.Status,
		AvailableSeats: event.AvailableSeats,
		OccurredAt:     time.Now().UTC(),
	})
}

// PublishBookingFailed streams a booking that lost the seat race.
func (p *Producer) PublishBookingFailed(ctx context.Context, booking *models.Booking) error {
	return p.publish(ctx, p.failedWriter, BookingEvent{
		BookingID:  booking.ID,
		UserID:     booking.UserID,
		EventID:    booking.EventID,
		Amount:     booking.Amount,
		Currency:   booking.Currency,
		Status:     booking.Status,
		OccurredAt: time.Now().UTC(),
	})
}

func (p *Producer) publish(ctx context.Context, writer *kafka.Writer, event BookingEvent) error {
	msgBytes, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal booking event: %w", err)
	}

	return writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(event.BookingID),
		Value: msgBytes,
	})
}

// Close shuts down both topic writers.
func (p *Producer) Close() error {
	if err := p.confirmedWriter.Close(); err != nil {
		return err
	}
	return p.failedWriter.Close()
}
