package repository

import (
	"context"
	"time"

	"github.com/busbooking/reservation-service/internal/models"
	"gorm.io/gorm"
)

type BookingRepository interface {
	Create(ctx context.Context, tx *gorm.DB, booking *models.Booking) error
	CreateSeats(ctx context.Context, tx *gorm.DB, seats []models.Seat) error
	CreatePayment(ctx context.Context, tx *gorm.DB, payment *models.Payment) error
	FindByID(ctx context.Context, id uint) (*models.Booking, error)
	FindByIDForUpdate(ctx context.Context, tx *gorm.DB, id uint) (*models.Booking, error)
	FindByUserID(ctx context.Context, userID uint) ([]models.Booking, error)
	FindSeats(ctx context.Context, bookingID uint) ([]models.Seat, error)
	FindPayment(ctx context.Context, bookingID uint) (*models.Payment, error)
	FindPaymentForUpdate(ctx context.Context, tx *gorm.DB, bookingID uint) (*models.Payment, error)
	FindByReference(ctx context.Context, reference string) (*models.Booking, error)
	ReferenceExists(ctx context.Context, tx *gorm.DB, reference string) (bool, error)
	TakenSeatNumbers(ctx context.Context, tx *gorm.DB, scheduleID uint) ([]int, error)
	UpdateStatus(ctx context.Context, tx *gorm.DB, bookingID uint, status models.BookingStatus) error
	UpdatePayment(ctx context.Context, tx *gorm.DB, payment *models.Payment) error
	GetDB() *gorm.DB
}

type bookingRepository struct {
	db *gorm.DB
}

func NewBookingRepository(db *gorm.DB) BookingRepository {
	return &bookingRepository{db: db}
}

func (r *bookingRepository) GetDB() *gorm.DB {
	return r.db
}

func (r *bookingRepository) Create(ctx context.Context, tx *gorm.DB, booking *models.Booking) error {
	return tx.WithContext(ctx).Create(booking).Error
}

func (r *bookingRepository) CreateSeats(ctx context.Context, tx *gorm.DB, seats []models.Seat) error {
	if len(seats) == 0 {
		return nil
	}
	return tx.WithContext(ctx).Create(&seats).Error
}

func (r *bookingRepository) CreatePayment(ctx context.Context, tx *gorm.DB, payment *models.Payment) error {
	return tx.WithContext(ctx).Create(payment).Error
}

func (r *bookingRepository) FindByID(ctx context.Context, id uint) (*models.Booking, error) {
	var booking models.Booking
	if err := r.db.WithContext(ctx).First(&booking, id).Error; err != nil {
		return nil, err
	}
	return &booking, nil
}

// FindByIDForUpdate locks the booking row for the duration of the enclosing
// transaction so status transitions cannot race each other.
func (r *bookingRepository) FindByIDForUpdate(ctx context.Context, tx *gorm.DB, id uint) (*models.Booking, error) {
	var booking models.Booking
	if err := tx.WithContext(ctx).
		Set("gorm:query_option", "FOR UPDATE").
		First(&booking, id).Error; err != nil {
		return nil, err
	}
	return &booking, nil
}

func (r *bookingRepository) FindByUserID(ctx context.Context, userID uint) ([]models.Booking, error) {
	var bookings []models.Booking
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("id DESC").
		Find(&bookings).Error
	if err != nil {
		return nil, err
	}
	return bookings, nil
}

func (r *bookingRepository) FindSeats(ctx context.Context, bookingID uint) ([]models.Seat, error) {
	var seats []models.Seat
	err := r.db.WithContext(ctx).
		Where("booking_id = ?", bookingID).
		Order("seat_number ASC").
		Find(&seats).Error
	if err != nil {
		return nil, err
	}
	return seats, nil
}

func (r *bookingRepository) FindPayment(ctx context.Context, bookingID uint) (*models.Payment, error) {
	var payment models.Payment
	err := r.db.WithContext(ctx).
		Where("booking_id = ?", bookingID).
		First(&payment).Error
	if err != nil {
		return nil, err
	}
	return &payment, nil
}

func (r *bookingRepository) FindPaymentForUpdate(ctx context.Context, tx *gorm.DB, bookingID uint) (*models.Payment, error) {
	var payment models.Payment
	err := tx.WithContext(ctx).
		Set("gorm:query_option", "FOR UPDATE").
		Where("booking_id = ?", bookingID).
		First(&payment).Error
	if err != nil {
		return nil, err
	}
	return &payment, nil
}

func (r *bookingRepository) FindByReference(ctx context.Context, reference string) (*models.Booking, error) {
	var booking models.Booking
	err := r.db.WithContext(ctx).
		Where("reference = ?", reference).
		First(&booking).Error
	if err != nil {
		return nil, err
	}
	return &booking, nil
}

func (r *bookingRepository) ReferenceExists(ctx context.Context, tx *gorm.DB, reference string) (bool, error) {
	var count int64
	err := tx.WithContext(ctx).
		Model(&models.Booking{}).
		Where("reference = ?", reference).
		Count(&count).Error
	return count > 0, err
}

// TakenSeatNumbers returns the seat numbers currently occupied on a schedule,
// i.e. seats of bookings that are not cancelled, in ascending order. Must be
// called under the schedule row lock when used for assignment.
func (r *bookingRepository) TakenSeatNumbers(ctx context.Context, tx *gorm.DB, scheduleID uint) ([]int, error) {
	var taken []int
	err := tx.WithContext(ctx).
		Model(&models.Seat{}).
		Joins("JOIN bookings ON bookings.id = seats.booking_id").
		Where("seats.schedule_id = ? AND bookings.status <> ?", scheduleID, models.StatusCancelled).
		Order("seats.seat_number ASC").
		Pluck("seats.seat_number", &taken).Error
	if err != nil {
		return nil, err
	}
	return taken, nil
}

func (r *bookingRepository) UpdateStatus(ctx context.Context, tx *gorm.DB, bookingID uint, status models.BookingStatus) error {
	return tx.WithContext(ctx).
		Model(&models.Booking{}).
		Where("id = ?", bookingID).
		Update("status", status).Error
}

func (r *bookingRepository) UpdatePayment(ctx context.Context, tx *gorm.DB, payment *models.Payment) error {
	return tx.WithContext(ctx).
		Model(&models.Payment{}).
		Where("id = ?", payment.ID).
		Updates(map[string]interface{}{
			"status":         payment.Status,
			"transaction_id": payment.TransactionID,
			"paid_at":        payment.PaidAt,
			"updated_at":     time.Now(),
		}).Error
}
