package repository

import (
	"context"
	"time"

	"github.com/busbooking/reservation-service/internal/models"
	"gorm.io/gorm"
)

type ScheduleRepository interface {
	FindByID(ctx context.Context, id uint) (*models.Schedule, error)
	FindByIDForUpdate(ctx context.Context, tx *gorm.DB, id uint) (*models.Schedule, error)
	ReserveSeats(ctx context.Context, tx *gorm.DB, scheduleID uint, count int) (bool, error)
	ReleaseSeats(ctx context.Context, tx *gorm.DB, scheduleID uint, count int) error
	Search(ctx context.Context, origin, destination string, travelDate time.Time) ([]ScheduleSearchRow, error)
	Locations(ctx context.Context) ([]string, error)
}

type scheduleRepository struct {
	db *gorm.DB
}

func NewScheduleRepository(db *gorm.DB) ScheduleRepository {
	return &scheduleRepository{db: db}
}

func (r *scheduleRepository) FindByID(ctx context.Context, id uint) (*models.Schedule, error) {
	var schedule models.Schedule
	if err := r.db.WithContext(ctx).First(&schedule, id).Error; err != nil {
		return nil, err
	}
	return &schedule, nil
}

// FindByIDForUpdate acquires a row-level lock on the schedule within the given
// transaction. This serializes concurrent reservations per schedule.
func (r *scheduleRepository) FindByIDForUpdate(ctx context.Context, tx *gorm.DB, id uint) (*models.Schedule, error) {
	var schedule models.Schedule
	if err := tx.WithContext(ctx).
		Set("gorm:query_option", "FOR UPDATE").
		First(&schedule, id).Error; err != nil {
		return nil, err
	}
	return &schedule, nil
}

// ReserveSeats performs the atomic check-and-decrement of the availability
// counter. The WHERE clause makes overselling impossible regardless of the
// caller's locking: the update matches no row when fewer than count seats
// remain, and the returned bool is false in that case.
func (r *scheduleRepository) ReserveSeats(ctx context.Context, tx *gorm.DB, scheduleID uint, count int) (bool, error) {
	res := tx.WithContext(ctx).
		Model(&models.Schedule{}).
		Where("id = ? AND is_active AND available_seats >= ?", scheduleID, count).
		UpdateColumn("available_seats", gorm.Expr("available_seats - ?", count))
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// ReleaseSeats returns count seats to the schedule. LEAST caps the counter at
// total_seats so a stray double release can never break the capacity
// invariant.
func (r *scheduleRepository) ReleaseSeats(ctx context.Context, tx *gorm.DB, scheduleID uint, count int) error {
	return tx.WithContext(ctx).
		Model(&models.Schedule{}).
		Where("id = ?", scheduleID).
		UpdateColumn("available_seats", gorm.Expr("LEAST(available_seats + ?, total_seats)", count)).Error
}

// ScheduleSearchRow is the flattened schedule+bus+route projection returned
// by Search. It is read-only; availability is never mutated through it.
type ScheduleSearchRow struct {
	ScheduleID     uint      `json:"schedule_id"`
	BusID          uint      `json:"bus_id"`
	BusNumber      string    `json:"bus_number"`
	BusType        string    `json:"bus_type"`
	Amenities      string    `json:"amenities,omitempty"`
	Origin         string    `json:"origin"`
	Destination    string    `json:"destination"`
	DepartureTime  time.Time `json:"departure_time"`
	ArrivalTime    time.Time `json:"arrival_time"`
	Price          float64   `json:"price"`
	AvailableSeats int       `json:"available_seats"`
	DurationMin    int       `json:"duration_min"`
}

func (r *scheduleRepository) Search(ctx context.Context, origin, destination string, travelDate time.Time) ([]ScheduleSearchRow, error) {
	day := travelDate.Truncate(24 * time.Hour)
	var rows []ScheduleSearchRow
	err := r.db.WithContext(ctx).
		Model(&models.Schedule{}).
		Select(`schedules.id AS schedule_id, buses.id AS bus_id, buses.bus_number, buses.bus_type, buses.amenities,
			routes.origin, routes.destination, schedules.departure_time, schedules.arrival_time,
			schedules.price, schedules.available_seats, routes.duration_min`).
		Joins("JOIN buses ON buses.id = schedules.bus_id").
		Joins("JOIN routes ON routes.id = schedules.route_id").
		Where("routes.origin = ? AND routes.destination = ?", origin, destination).
		Where("schedules.travel_date >= ? AND schedules.travel_date < ?", day, day.Add(24*time.Hour)).
		Where("schedules.is_active AND buses.is_active AND routes.is_active").
		Order("schedules.departure_time ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// Locations returns every distinct origin and destination of active routes.
func (r *scheduleRepository) Locations(ctx context.Context) ([]string, error) {
	var locations []string
	err := r.db.WithContext(ctx).
		Raw(`SELECT origin AS location FROM routes WHERE is_active
		     UNION
		     SELECT destination FROM routes WHERE is_active
		     ORDER BY location`).
		Scan(&locations).Error
	if err != nil {
		return nil, err
	}
	return locations, nil
}
