package models

import "time"

// Schedule is one bus departure on a route and travel date. TotalSeats is
// copied from the bus at schedule creation so the capacity invariant
// (0 <= available_seats <= total_seats) can be enforced without a join.
// AvailableSeats is mutated only by the reservation service.
type Schedule struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	BusID          uint      `gorm:"not null" json:"bus_id"`
	RouteID        uint      `gorm:"not null" json:"route_id"`
	DepartureTime  time.Time `gorm:"not null" json:"departure_time"`
	ArrivalTime    time.Time `gorm:"not null" json:"arrival_time"`
	TravelDate     time.Time `gorm:"not null;index" json:"travel_date"`
	Price          float64   `gorm:"not null" json:"price"`
	TotalSeats     int       `gorm:"not null" json:"total_seats"`
	AvailableSeats int       `gorm:"not null" json:"available_seats"`
	IsActive       bool      `gorm:"not null;default:true" json:"is_active"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

type Bus struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	BusNumber  string    `gorm:"type:varchar(50);not null;uniqueIndex" json:"bus_number"`
	BusType    string    `gorm:"type:varchar(50);not null" json:"bus_type"`
	TotalSeats int       `gorm:"not null" json:"total_seats"`
	Amenities  string    `gorm:"type:varchar(500)" json:"amenities,omitempty"`
	IsActive   bool      `gorm:"not null;default:true" json:"is_active"`
	CreatedAt  time.Time `json:"created_at"`
}

type Route struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Origin      string    `gorm:"type:varchar(100);not null;index:idx_route_pair" json:"origin"`
	Destination string    `gorm:"type:varchar(100);not null;index:idx_route_pair" json:"destination"`
	DistanceKM  float64   `gorm:"not null" json:"distance_km"`
	DurationMin int       `gorm:"not null" json:"duration_min"`
	IsActive    bool      `gorm:"not null;default:true" json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
}
