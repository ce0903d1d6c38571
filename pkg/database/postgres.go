package database

import (
	"log"

	"github.com/busbooking/reservation-service/internal/models"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func NewPostgresDB(dsn string) *gorm.DB {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}

	if err := db.AutoMigrate(
		&models.User{},
		&models.Bus{},
		&models.Route{},
		&models.Schedule{},
		&models.Booking{},
		&models.Seat{},
		&models.Payment{},
	); err != nil {
		log.Fatalf("failed to auto-migrate: %v", err)
	}

	// Guards the conditional seat decrement; the counter can never go below
	// zero or above the bus capacity even if application code regresses.
	db.Exec(`
		ALTER TABLE schedules DROP CONSTRAINT IF EXISTS chk_schedule_seat_bounds;
		ALTER TABLE schedules ADD CONSTRAINT chk_schedule_seat_bounds
		CHECK (available_seats >= 0 AND available_seats <= total_seats)
	`)

	return db
}
