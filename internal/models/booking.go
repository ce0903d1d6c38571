package models

import "time"

type BookingStatus string

const (
	StatusPending   BookingStatus = "pending"
	StatusConfirmed BookingStatus = "confirmed"
	StatusCancelled BookingStatus = "cancelled"
)

// bookingTransitions enumerates the allowed lifecycle moves. Cancelled is
// terminal; everything not listed here is rejected.
var bookingTransitions = map[BookingStatus][]BookingStatus{
	StatusPending:   {StatusConfirmed, StatusCancelled},
	StatusConfirmed: {StatusCancelled},
	StatusCancelled: {},
}

// CanTransitionTo reports whether moving from s to next is a legal booking
// lifecycle transition.
func (s BookingStatus) CanTransitionTo(next BookingStatus) bool {
	for _, allowed := range bookingTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

type Booking struct {
	ID          uint          `gorm:"primaryKey" json:"id"`
	UserID      uint          `gorm:"not null;index" json:"user_id"`
	ScheduleID  uint          `gorm:"not null;index" json:"schedule_id"`
	Reference   string        `gorm:"type:varchar(50);not null;uniqueIndex" json:"reference"`
	Status      BookingStatus `gorm:"type:varchar(20);not null;default:'pending'" json:"status"`
	TotalAmount float64       `gorm:"not null" json:"total_amount"`
	SeatCount   int           `gorm:"not null" json:"seat_count"`
	CreatedAt   time.Time     `json:"created_at"`
	UpdatedAt   time.Time     `json:"updated_at"`

	Seats   []Seat   `gorm:"foreignKey:BookingID" json:"seats,omitempty"`
	Payment *Payment `gorm:"foreignKey:BookingID" json:"payment,omitempty"`
}
