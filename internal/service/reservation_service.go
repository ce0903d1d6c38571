package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/busbooking/reservation-service/internal/models"
	"github.com/busbooking/reservation-service/internal/reference"
	"github.com/busbooking/reservation-service/internal/repository"
	"github.com/busbooking/reservation-service/pkg/rabbitmq"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

var (
	ErrScheduleNotFound       = errors.New("schedule not found")
	ErrInsufficientSeats      = errors.New("not enough seats available")
	ErrInvalidPassenger       = errors.New("invalid passenger")
	ErrBookingNotFound        = errors.New("booking not found")
	ErrInvalidStateTransition = errors.New("invalid booking state transition")
	ErrReferenceExhausted     = errors.New("could not generate a unique booking reference")
)

const (
	// maxReferenceAttempts bounds the collision-retry loop of the reference
	// generator. Hitting the bound is an operational anomaly, not user error.
	maxReferenceAttempts = 5
	// maxTxRetries bounds transparent retries of the reservation transaction
	// when postgres reports a serialization failure or deadlock.
	maxTxRetries = 3
)

type ReservationService interface {
	Reserve(ctx context.Context, input ReserveInput) (*models.Booking, error)
	ConfirmPayment(ctx context.Context, bookingID uint, transactionID string, succeeded bool) (*models.Booking, error)
	Cancel(ctx context.Context, bookingID uint) (*models.Booking, error)
	GetBooking(ctx context.Context, id uint) (*models.Booking, error)
	GetBookingByReference(ctx context.Context, ref string) (*models.Booking, error)
	ListUserBookings(ctx context.Context, userID uint) ([]models.Booking, error)
}

type PassengerInput struct {
	Name   string `json:"name"`
	Age    int    `json:"age"`
	Gender string `json:"gender"`
}

type ReserveInput struct {
	UserID        uint
	ScheduleID    uint
	Passengers    []PassengerInput
	PaymentMethod string
}

type reservationService struct {
	bookingRepo  repository.BookingRepository
	scheduleRepo repository.ScheduleRepository
	publisher    *rabbitmq.Publisher
}

func NewReservationService(bookingRepo repository.BookingRepository, scheduleRepo repository.ScheduleRepository, publisher *rabbitmq.Publisher) ReservationService {
	return &reservationService{
		bookingRepo:  bookingRepo,
		scheduleRepo: scheduleRepo,
		publisher:    publisher,
	}
}

// Reserve books one seat per passenger on the schedule. The availability
// check, the counter decrement and the booking+seats+payment inserts happen
// in a single transaction holding a row lock on the schedule, so concurrent
// requests for the same departure are serialized and can never oversell.
func (s *reservationService) Reserve(ctx context.Context, input ReserveInput) (*models.Booking, error) {
	if err := validatePassengers(input.Passengers); err != nil {
		return nil, err
	}

	var result *models.Booking
	seatCount := len(input.Passengers)

	txFn := func(tx *gorm.DB) error {
		// Lock the schedule row; serializes all seat accounting per schedule.
		schedule, err := s.scheduleRepo.FindByIDForUpdate(ctx, tx, input.ScheduleID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrScheduleNotFound
			}
			return err
		}
		if !schedule.IsActive {
			return ErrScheduleNotFound
		}
		if schedule.AvailableSeats < seatCount {
			return ErrInsufficientSeats
		}

		// Conditional decrement; matches zero rows if another writer got
		// there first, even if the lock above were ever weakened.
		ok, err := s.scheduleRepo.ReserveSeats(ctx, tx, schedule.ID, seatCount)
		if err != nil {
			return err
		}
		if !ok {
			return ErrInsufficientSeats
		}

		taken, err := s.bookingRepo.TakenSeatNumbers(ctx, tx, schedule.ID)
		if err != nil {
			return err
		}
		seatNumbers, ok := assignSeatNumbers(taken, schedule.TotalSeats, seatCount)
		if !ok {
			// Counter said yes but the pool disagrees: conservation is
			// broken, refuse rather than hand out duplicate seats.
			return ErrInsufficientSeats
		}

		ref, err := s.uniqueReference(ctx, tx)
		if err != nil {
			return err
		}

		booking := &models.Booking{
			UserID:      input.UserID,
			ScheduleID:  schedule.ID,
			Reference:   ref,
			Status:      models.StatusPending,
			TotalAmount: float64(seatCount) * schedule.Price,
			SeatCount:   seatCount,
		}
		if err := s.bookingRepo.Create(ctx, tx, booking); err != nil {
			return err
		}

		seats := make([]models.Seat, seatCount)
		for i, p := range input.Passengers {
			seats[i] = models.Seat{
				BookingID:     booking.ID,
				ScheduleID:    schedule.ID,
				SeatNumber:    seatNumbers[i],
				PassengerName: strings.TrimSpace(p.Name),
				Age:           p.Age,
				Gender:        strings.ToLower(strings.TrimSpace(p.Gender)),
			}
		}
		if err := s.bookingRepo.CreateSeats(ctx, tx, seats); err != nil {
			return err
		}

		payment := &models.Payment{
			BookingID: booking.ID,
			Amount:    booking.TotalAmount,
			Method:    input.PaymentMethod,
			Status:    models.PaymentPending,
		}
		if err := s.bookingRepo.CreatePayment(ctx, tx, payment); err != nil {
			return err
		}

		booking.Seats = seats
		booking.Payment = payment
		result = booking
		return nil
	}

	if err := s.runWithRetry(ctx, txFn); err != nil {
		return nil, err
	}

	s.publish("booking.created", result)
	return result, nil
}

// ConfirmPayment records the outcome of a payment attempt for a pending
// booking. Success confirms the booking; failure cancels it and returns the
// reserved seats to the schedule.
func (s *reservationService) ConfirmPayment(ctx context.Context, bookingID uint, transactionID string, succeeded bool) (*models.Booking, error) {
	var result *models.Booking

	txFn := func(tx *gorm.DB) error {
		booking, err := s.bookingRepo.FindByIDForUpdate(ctx, tx, bookingID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrBookingNotFound
			}
			return err
		}
		if booking.Status != models.StatusPending {
			return fmt.Errorf("%w: booking is %s, payment can only be recorded while pending", ErrInvalidStateTransition, booking.Status)
		}

		payment, err := s.bookingRepo.FindPaymentForUpdate(ctx, tx, booking.ID)
		if err != nil {
			return err
		}

		now := time.Now().UTC()
		payment.TransactionID = &transactionID
		payment.PaidAt = &now

		next := models.StatusConfirmed
		payment.Status = models.PaymentSuccess
		if !succeeded {
			next = models.StatusCancelled
			payment.Status = models.PaymentFailed
			if err := s.scheduleRepo.ReleaseSeats(ctx, tx, booking.ScheduleID, booking.SeatCount); err != nil {
				return err
			}
		}
		if !booking.Status.CanTransitionTo(next) {
			return fmt.Errorf("%w: %s -> %s", ErrInvalidStateTransition, booking.Status, next)
		}

		if err := s.bookingRepo.UpdatePayment(ctx, tx, payment); err != nil {
			return err
		}
		if err := s.bookingRepo.UpdateStatus(ctx, tx, booking.ID, next); err != nil {
			return err
		}

		booking.Status = next
		booking.Payment = payment
		result = booking
		return nil
	}

	if err := s.runWithRetry(ctx, txFn); err != nil {
		return nil, err
	}

	if result.Status == models.StatusConfirmed {
		s.publish("booking.confirmed", result)
	} else {
		s.publish("booking.cancelled", result)
	}
	return result, nil
}

// Cancel transitions a pending or confirmed booking to cancelled and returns
// its seats to the schedule. Cancelling an already-cancelled booking is an
// idempotent no-op, not an error. Seat and payment rows are kept as
// historical record; a still-pending payment is marked failed.
func (s *reservationService) Cancel(ctx context.Context, bookingID uint) (*models.Booking, error) {
	var result *models.Booking
	alreadyCancelled := false

	txFn := func(tx *gorm.DB) error {
		booking, err := s.bookingRepo.FindByIDForUpdate(ctx, tx, bookingID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrBookingNotFound
			}
			return err
		}
		if booking.Status == models.StatusCancelled {
			alreadyCancelled = true
			result = booking
			return nil
		}
		if !booking.Status.CanTransitionTo(models.StatusCancelled) {
			return fmt.Errorf("%w: %s -> %s", ErrInvalidStateTransition, booking.Status, models.StatusCancelled)
		}

		if err := s.bookingRepo.UpdateStatus(ctx, tx, booking.ID, models.StatusCancelled); err != nil {
			return err
		}
		if err := s.scheduleRepo.ReleaseSeats(ctx, tx, booking.ScheduleID, booking.SeatCount); err != nil {
			return err
		}

		payment, err := s.bookingRepo.FindPaymentForUpdate(ctx, tx, booking.ID)
		if err != nil {
			return err
		}
		if payment.Status == models.PaymentPending {
			payment.Status = models.PaymentFailed
			if err := s.bookingRepo.UpdatePayment(ctx, tx, payment); err != nil {
				return err
			}
		}

		booking.Status = models.StatusCancelled
		booking.Payment = payment
		result = booking
		return nil
	}

	if err := s.runWithRetry(ctx, txFn); err != nil {
		return nil, err
	}

	if !alreadyCancelled {
		s.publish("booking.cancelled", result)
	}
	return result, nil
}

func (s *reservationService) GetBooking(ctx context.Context, id uint) (*models.Booking, error) {
	booking, err := s.bookingRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrBookingNotFound
		}
		return nil, err
	}
	seats, err := s.bookingRepo.FindSeats(ctx, booking.ID)
	if err != nil {
		return nil, err
	}
	payment, err := s.bookingRepo.FindPayment(ctx, booking.ID)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	booking.Seats = seats
	booking.Payment = payment
	return booking, nil
}

func (s *reservationService) GetBookingByReference(ctx context.Context, ref string) (*models.Booking, error) {
	booking, err := s.bookingRepo.FindByReference(ctx, strings.ToUpper(strings.TrimSpace(ref)))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrBookingNotFound
		}
		return nil, err
	}
	return s.GetBooking(ctx, booking.ID)
}

func (s *reservationService) ListUserBookings(ctx context.Context, userID uint) ([]models.Booking, error) {
	return s.bookingRepo.FindByUserID(ctx, userID)
}

// uniqueReference generates a booking reference and verifies it against
// existing bookings, retrying on collision up to maxReferenceAttempts.
func (s *reservationService) uniqueReference(ctx context.Context, tx *gorm.DB) (string, error) {
	for attempt := 0; attempt < maxReferenceAttempts; attempt++ {
		ref, err := reference.New()
		if err != nil {
			return "", err
		}
		exists, err := s.bookingRepo.ReferenceExists(ctx, tx, ref)
		if err != nil {
			return "", err
		}
		if !exists {
			return ref, nil
		}
	}
	return "", ErrReferenceExhausted
}

// runWithRetry executes fn in a transaction, transparently retrying when
// postgres aborts it with a serialization failure or deadlock.
func (s *reservationService) runWithRetry(ctx context.Context, fn func(tx *gorm.DB) error) error {
	var err error
	for attempt := 0; attempt <= maxTxRetries; attempt++ {
		err = s.bookingRepo.GetDB().WithContext(ctx).Transaction(fn)
		if err == nil || !isRetryableTxError(err) {
			return err
		}
		log.Printf("[Reservation] transaction conflict, retrying (%d/%d): %v", attempt+1, maxTxRetries, err)
	}
	return err
}

func isRetryableTxError(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		// 40001 serialization_failure, 40P01 deadlock_detected
		return pgErr.Code == "40001" || pgErr.Code == "40P01"
	}
	return false
}

func (s *reservationService) publish(routingKey string, booking *models.Booking) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(routingKey, rabbitmq.NewBookingEvent(routingKey, booking)); err != nil {
		log.Printf("[Reservation] failed to publish %s for booking %s: %v", routingKey, booking.Reference, err)
	}
}

// assignSeatNumbers picks count seat numbers from 1..totalSeats, lowest free
// first, skipping the sorted taken list. ok is false when fewer than count
// numbers are free.
func assignSeatNumbers(taken []int, totalSeats, count int) ([]int, bool) {
	assigned := make([]int, 0, count)
	i := 0
	for n := 1; n <= totalSeats && len(assigned) < count; n++ {
		for i < len(taken) && taken[i] < n {
			i++
		}
		if i < len(taken) && taken[i] == n {
			continue
		}
		assigned = append(assigned, n)
	}
	if len(assigned) < count {
		return nil, false
	}
	return assigned, true
}

func validatePassengers(passengers []PassengerInput) error {
	if len(passengers) == 0 {
		return fmt.Errorf("%w: at least one passenger is required", ErrInvalidPassenger)
	}
	for i, p := range passengers {
		if strings.TrimSpace(p.Name) == "" {
			return fmt.Errorf("%w: passenger %d: name is required", ErrInvalidPassenger, i+1)
		}
		if p.Age < 1 || p.Age > 120 {
			return fmt.Errorf("%w: passenger %d: age must be between 1 and 120", ErrInvalidPassenger, i+1)
		}
		switch strings.ToLower(strings.TrimSpace(p.Gender)) {
		case models.GenderMale, models.GenderFemale, models.GenderOther:
		default:
			return fmt.Errorf("%w: passenger %d: gender must be male, female or other", ErrInvalidPassenger, i+1)
		}
	}
	return nil
}
