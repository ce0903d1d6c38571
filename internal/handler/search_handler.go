package handler

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/busbooking/reservation-service/internal/service"
	"github.com/labstack/echo/v4"
)

type SearchHandler struct {
	svc service.SearchService
}

func NewSearchHandler(svc service.SearchService) *SearchHandler {
	return &SearchHandler{svc: svc}
}

func (h *SearchHandler) RegisterRoutes(e *echo.Echo) {
	search := e.Group("/api/v1/search")
	search.GET("/locations", h.Locations)
	search.GET("/schedules", h.Schedules)
	search.GET("/schedules/:id", h.Schedule)
}

func (h *SearchHandler) Locations(c echo.Context) error {
	locations, err := h.svc.Locations(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, locations)
}

func (h *SearchHandler) Schedules(c echo.Context) error {
	date, err := time.Parse("2006-01-02", c.QueryParam("date"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "date must be YYYY-MM-DD")
	}

	rows, err := h.svc.SearchSchedules(c.Request().Context(), c.QueryParam("origin"), c.QueryParam("destination"), date)
	if err != nil {
		if errors.Is(err, service.ErrInvalidSearch) {
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusOK, rows)
}

func (h *SearchHandler) Schedule(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid schedule id")
	}

	schedule, err := h.svc.GetSchedule(c.Request().Context(), uint(id))
	if err != nil {
		if errors.Is(err, service.ErrScheduleNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, err.Error())
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusOK, schedule)
}
