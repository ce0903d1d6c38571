package models

import "time"

type PaymentStatus string

const (
	PaymentPending PaymentStatus = "pending"
	PaymentSuccess PaymentStatus = "success"
	PaymentFailed  PaymentStatus = "failed"
)

// Payment is the 1:1 payment record for a booking, created in pending state
// together with the booking. Amount always equals Booking.TotalAmount.
// TransactionID stays nil until a payment result is recorded.
type Payment struct {
	ID            uint          `gorm:"primaryKey" json:"id"`
	BookingID     uint          `gorm:"not null;uniqueIndex" json:"booking_id"`
	Amount        float64       `gorm:"not null" json:"amount"`
	Method        string        `gorm:"type:varchar(50);not null" json:"method"`
	TransactionID *string       `gorm:"type:varchar(100)" json:"transaction_id,omitempty"`
	Status        PaymentStatus `gorm:"type:varchar(20);not null;default:'pending'" json:"status"`
	PaidAt        *time.Time    `json:"paid_at,omitempty"`
	CreatedAt     time.Time     `json:"created_at"`
	UpdatedAt     time.Time     `json:"updated_at"`
}
