package consumer

import (
	"context"
	"encoding/json"
	"errors"
	"log"

	"github.com/busbooking/reservation-service/internal/service"
	amqp "github.com/rabbitmq/amqp091-go"
)

// paymentResult is the message shape the payment gateway publishes on
// payment.succeeded and payment.failed.
type paymentResult struct {
	BookingID     uint   `json:"booking_id"`
	TransactionID string `json:"transaction_id"`
	Succeeded     bool   `json:"succeeded"`
}

type PaymentConsumer struct {
	reservations service.ReservationService
}

func NewPaymentConsumer(reservations service.ReservationService) *PaymentConsumer {
	return &PaymentConsumer{reservations: reservations}
}

// Start listens for payment results and drives the matching bookings through
// confirmation or cancellation.
func (pc *PaymentConsumer) Start(msgs <-chan amqp.Delivery) {
	go func() {
		for msg := range msgs {
			pc.handleMessage(msg)
		}
		log.Println("[PaymentConsumer] channel closed, stopping consumer")
	}()
}

func (pc *PaymentConsumer) handleMessage(msg amqp.Delivery) {
	var result paymentResult
	if err := json.Unmarshal(msg.Body, &result); err != nil {
		log.Printf("[PaymentConsumer] failed to unmarshal: %v", err)
		msg.Nack(false, false)
		return
	}

	_, err := pc.reservations.ConfirmPayment(context.Background(), result.BookingID, result.TransactionID, result.Succeeded)
	if err != nil {
		// Unknown or already-settled bookings are dead messages, everything
		// else (db outage etc.) is worth a redelivery.
		if errors.Is(err, service.ErrBookingNotFound) || errors.Is(err, service.ErrInvalidStateTransition) {
			log.Printf("[PaymentConsumer] dropping payment result for booking %d: %v", result.BookingID, err)
			msg.Nack(false, false)
			return
		}
		log.Printf("[PaymentConsumer] failed to apply payment result for booking %d: %v", result.BookingID, err)
		msg.Nack(false, true) // requeue
		return
	}

	log.Printf("[PaymentConsumer] applied payment result for booking %d (succeeded=%t)", result.BookingID, result.Succeeded)
	msg.Ack(false)
}
