package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/busbooking/reservation-service/internal/dto"
	"github.com/busbooking/reservation-service/internal/middleware"
	"github.com/busbooking/reservation-service/internal/service"
	"github.com/labstack/echo/v4"
)

type BookingHandler struct {
	svc service.ReservationService
}

func NewBookingHandler(svc service.ReservationService) *BookingHandler {
	return &BookingHandler{svc: svc}
}

func (h *BookingHandler) RegisterRoutes(e *echo.Echo, jwtSecret string) {
	bookings := e.Group("/api/v1/bookings", middleware.JWT(jwtSecret))
	bookings.POST("", h.CreateBooking)
	bookings.GET("", h.ListMyBookings)
	bookings.GET("/:id", h.GetBooking)
	bookings.GET("/reference/:ref", h.GetBookingByReference)
	bookings.POST("/:id/payment", h.ConfirmPayment)
	bookings.DELETE("/:id", h.CancelBooking)
}

func (h *BookingHandler) CreateBooking(c echo.Context) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}

	var req dto.CreateBookingRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if req.ScheduleID == 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "schedule_id is required")
	}
	if req.PaymentMethod == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "payment_method is required")
	}

	booking, err := h.svc.Reserve(c.Request().Context(), req.ToReserveInput(userID))
	if err != nil {
		return mapReservationError(err)
	}

	return c.JSON(http.StatusCreated, dto.ToBookingResponse(booking))
}

func (h *BookingHandler) ConfirmPayment(c echo.Context) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}
	bookingID, err := pathID(c)
	if err != nil {
		return err
	}

	var req dto.ConfirmPaymentRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if req.TransactionID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "transaction_id is required")
	}

	if err := h.authorizeBookingAccess(c, bookingID, userID); err != nil {
		return err
	}

	booking, err := h.svc.ConfirmPayment(c.Request().Context(), bookingID, req.TransactionID, req.Succeeded)
	if err != nil {
		return mapReservationError(err)
	}

	return c.JSON(http.StatusOK, dto.ToBookingResponse(booking))
}

func (h *BookingHandler) CancelBooking(c echo.Context) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}
	bookingID, err := pathID(c)
	if err != nil {
		return err
	}

	if err := h.authorizeBookingAccess(c, bookingID, userID); err != nil {
		return err
	}

	booking, err := h.svc.Cancel(c.Request().Context(), bookingID)
	if err != nil {
		return mapReservationError(err)
	}

	return c.JSON(http.StatusOK, dto.ToBookingResponse(booking))
}

func (h *BookingHandler) GetBooking(c echo.Context) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}
	bookingID, err := pathID(c)
	if err != nil {
		return err
	}

	booking, err := h.svc.GetBooking(c.Request().Context(), bookingID)
	if err != nil {
		return mapReservationError(err)
	}
	if booking.UserID != userID && c.Get("role") != "admin" {
		// Hide other users' bookings rather than confirming they exist.
		return echo.NewHTTPError(http.StatusNotFound, "booking not found")
	}

	return c.JSON(http.StatusOK, dto.ToBookingResponse(booking))
}

func (h *BookingHandler) GetBookingByReference(c echo.Context) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}
	ref := c.Param("ref")
	if ref == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "reference is required")
	}

	booking, err := h.svc.GetBookingByReference(c.Request().Context(), ref)
	if err != nil {
		return mapReservationError(err)
	}
	if booking.UserID != userID && c.Get("role") != "admin" {
		return echo.NewHTTPError(http.StatusNotFound, "booking not found")
	}

	return c.JSON(http.StatusOK, dto.ToBookingResponse(booking))
}

func (h *BookingHandler) ListMyBookings(c echo.Context) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}

	bookings, err := h.svc.ListUserBookings(c.Request().Context(), userID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	resp := make([]dto.BookingResponse, len(bookings))
	for i, b := range bookings {
		resp[i] = dto.ToBookingResponse(&b)
	}

	return c.JSON(http.StatusOK, resp)
}

func (h *BookingHandler) authorizeBookingAccess(c echo.Context, bookingID, userID uint) error {
	booking, err := h.svc.GetBooking(c.Request().Context(), bookingID)
	if err != nil {
		return mapReservationError(err)
	}
	if booking.UserID != userID && c.Get("role") != "admin" {
		return echo.NewHTTPError(http.StatusNotFound, "booking not found")
	}
	return nil
}

func mapReservationError(err error) error {
	switch {
	case errors.Is(err, service.ErrScheduleNotFound),
		errors.Is(err, service.ErrBookingNotFound):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrInsufficientSeats),
		errors.Is(err, service.ErrInvalidStateTransition):
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	case errors.Is(err, service.ErrInvalidPassenger):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
}

func currentUserID(c echo.Context) (uint, error) {
	id, ok := c.Get("user_id").(uint)
	if !ok || id == 0 {
		return 0, echo.NewHTTPError(http.StatusUnauthorized, "not authenticated")
	}
	return id, nil
}

func pathID(c echo.Context) (uint, error) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "invalid booking id")
	}
	return uint(id), nil
}
