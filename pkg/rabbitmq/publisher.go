package rabbitmq

import (
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/busbooking/reservation-service/internal/models"
	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
)

const (
	BookingExchange = "bookings"
	ExchangeKind    = "topic"
)

// BookingEvent is the envelope published for every booking lifecycle change.
// Routing keys: booking.created, booking.confirmed, booking.cancelled.
type BookingEvent struct {
	EventID     string               `json:"event_id"`
	Type        string               `json:"type"`
	BookingID   uint                 `json:"booking_id"`
	Reference   string               `json:"reference"`
	UserID      uint                 `json:"user_id"`
	ScheduleID  uint                 `json:"schedule_id"`
	Status      models.BookingStatus `json:"status"`
	SeatCount   int                  `json:"seat_count"`
	TotalAmount float64              `json:"total_amount"`
	OccurredAt  time.Time            `json:"occurred_at"`
}

func NewBookingEvent(eventType string, booking *models.Booking) BookingEvent {
	return BookingEvent{
		EventID:     uuid.NewString(),
		Type:        eventType,
		BookingID:   booking.ID,
		Reference:   booking.Reference,
		UserID:      booking.UserID,
		ScheduleID:  booking.ScheduleID,
		Status:      booking.Status,
		SeatCount:   booking.SeatCount,
		TotalAmount: booking.TotalAmount,
		OccurredAt:  time.Now().UTC(),
	}
}

type Publisher struct {
	conn    *amqp.Connection
	channel *amqp.Channel
}

func NewPublisher(url string) (*Publisher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("rabbitmq dial: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("rabbitmq channel: %w", err)
	}

	if err := ch.ExchangeDeclare(BookingExchange, ExchangeKind, true, false, false, false, nil); err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("rabbitmq exchange declare: %w", err)
	}

	return &Publisher{conn: conn, channel: ch}, nil
}

func (p *Publisher) Publish(routingKey string, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}

	if err := p.channel.Publish(
		BookingExchange,
		routingKey,
		false,
		false,
		amqp.Publishing{
			ContentType: "application/json",
			Body:        body,
		},
	); err != nil {
		return fmt.Errorf("publish message: %w", err)
	}

	log.Printf("[RabbitMQ] published to %s/%s: %s", BookingExchange, routingKey, string(body))
	return nil
}

func (p *Publisher) Close() {
	if p.channel != nil {
		p.channel.Close()
	}
	if p.conn != nil {
		p.conn.Close()
	}
}
