package models

// Gender values accepted for a passenger record.
const (
	GenderMale   = "male"
	GenderFemale = "female"
	GenderOther  = "other"
)

// Seat is one passenger's reserved position within a booking. Seat numbers
// are assigned by the reservation service from the schedule's pool
// (1..TotalSeats) and are unique per schedule across non-cancelled bookings.
// That uniqueness is enforced at reservation time under the schedule row
// lock; rows are kept after cancellation as historical record, so the index
// here is not unique.
type Seat struct {
	ID            uint   `gorm:"primaryKey" json:"id"`
	BookingID     uint   `gorm:"not null;index" json:"booking_id"`
	ScheduleID    uint   `gorm:"not null;index:idx_seat_schedule_number" json:"schedule_id"`
	SeatNumber    int    `gorm:"not null;index:idx_seat_schedule_number" json:"seat_number"`
	PassengerName string `gorm:"type:varchar(100);not null" json:"passenger_name"`
	Age           int    `gorm:"not null" json:"age"`
	Gender        string `gorm:"type:varchar(10);not null" json:"gender"`
}
