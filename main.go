package main

import (
	"log"

	"github.com/busbooking/reservation-service/config"
	"github.com/busbooking/reservation-service/internal/consumer"
	"github.com/busbooking/reservation-service/internal/handler"
	"github.com/busbooking/reservation-service/internal/middleware"
	"github.com/busbooking/reservation-service/internal/repository"
	"github.com/busbooking/reservation-service/internal/service"
	"github.com/busbooking/reservation-service/pkg/database"
	"github.com/busbooking/reservation-service/pkg/rabbitmq"
	"github.com/labstack/echo/v4"
	echoMw "github.com/labstack/echo/v4/middleware"
)

func main() {
	cfg := config.Load()

	db := database.NewPostgresDB(cfg.DSN())

	// RabbitMQ publisher for booking lifecycle events. The service runs
	// without it; events are dropped, bookings are not.
	publisher, err := rabbitmq.NewPublisher(cfg.RabbitURL)
	if err != nil {
		log.Printf("rabbitmq unavailable, booking events disabled: %v", err)
		publisher = nil
	} else {
		defer publisher.Close()
	}

	// Repositories
	userRepo := repository.NewUserRepository(db)
	scheduleRepo := repository.NewScheduleRepository(db)
	bookingRepo := repository.NewBookingRepository(db)

	// Services
	authSvc := service.NewAuthService(userRepo, cfg.JWTSecret, cfg.TokenTTL, cfg.BcryptCost)
	searchSvc := service.NewSearchService(scheduleRepo)
	reservationSvc := service.NewReservationService(bookingRepo, scheduleRepo, publisher)

	// RabbitMQ consumer: payment results from the payment gateway drive
	// booking confirmation and cancellation.
	if mqConsumer, err := rabbitmq.NewConsumer(cfg.RabbitURL); err != nil {
		log.Printf("rabbitmq unavailable, payment consumer disabled: %v", err)
	} else {
		defer mqConsumer.Close()
		msgs, err := mqConsumer.Consume()
		if err != nil {
			log.Fatalf("failed to start consuming: %v", err)
		}
		consumer.NewPaymentConsumer(reservationSvc).Start(msgs)
	}

	// Echo
	e := echo.New()
	e.HTTPErrorHandler = middleware.ErrorHandler
	e.Use(echoMw.RequestLoggerWithConfig(echoMw.RequestLoggerConfig{
		LogStatus: true,
		LogURI:    true,
		LogMethod: true,
		LogValuesFunc: func(c echo.Context, v echoMw.RequestLoggerValues) error {
			log.Printf("%s %s %d", v.Method, v.URI, v.Status)
			return nil
		},
	}))
	e.Use(echoMw.Recover())

	e.GET("/health", func(c echo.Context) error {
		return c.JSON(200, map[string]string{"status": "ok", "service": "reservation-service"})
	})

	handler.NewAuthHandler(authSvc).RegisterRoutes(e)
	handler.NewSearchHandler(searchSvc).RegisterRoutes(e)
	handler.NewBookingHandler(reservationSvc).RegisterRoutes(e, cfg.JWTSecret)

	log.Printf("Reservation Service starting on :%s", cfg.ServerPort)
	e.Logger.Fatal(e.Start(":" + cfg.ServerPort))
}
