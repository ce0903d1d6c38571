//go:build integration

package integration

import (
	"fmt"
	"log"
	"os"
	"testing"

	"github.com/busbooking/reservation-service/internal/models"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var testDB *gorm.DB

var testTables = []string{"payments", "seats", "bookings", "schedules", "buses", "routes", "users"}

func TestMain(m *testing.M) {
	dsn := fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		getEnv("TEST_DB_HOST", "localhost"),
		getEnv("TEST_DB_PORT", "5434"),
		getEnv("TEST_DB_USER", "postgres"),
		getEnv("TEST_DB_PASSWORD", "postgres"),
		getEnv("TEST_DB_NAME", "reservation_test_db"),
	)

	var err error
	testDB, err = gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		log.Fatalf("failed to connect to test database: %v", err)
	}

	// Drop and recreate tables for clean state
	dropTables()

	if err := testDB.AutoMigrate(
		&models.User{},
		&models.Bus{},
		&models.Route{},
		&models.Schedule{},
		&models.Booking{},
		&models.Seat{},
		&models.Payment{},
	); err != nil {
		log.Fatalf("failed to auto-migrate test database: %v", err)
	}

	testDB.Exec(`
		ALTER TABLE schedules ADD CONSTRAINT chk_schedule_seat_bounds
		CHECK (available_seats >= 0 AND available_seats <= total_seats)
	`)

	code := m.Run()

	dropTables()

	os.Exit(code)
}

func dropTables() {
	for _, table := range testTables {
		testDB.Exec("DROP TABLE IF EXISTS " + table + " CASCADE")
	}
}

func cleanTables() {
	for _, table := range testTables {
		testDB.Exec("DELETE FROM " + table)
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
