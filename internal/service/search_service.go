package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/busbooking/reservation-service/internal/models"
	"github.com/busbooking/reservation-service/internal/repository"
	"gorm.io/gorm"
)

var ErrInvalidSearch = errors.New("invalid search query")

type SearchService interface {
	SearchSchedules(ctx context.Context, origin, destination string, travelDate time.Time) ([]repository.ScheduleSearchRow, error)
	GetSchedule(ctx context.Context, id uint) (*models.Schedule, error)
	Locations(ctx context.Context) ([]string, error)
}

type searchService struct {
	scheduleRepo repository.ScheduleRepository
}

func NewSearchService(scheduleRepo repository.ScheduleRepository) SearchService {
	return &searchService{scheduleRepo: scheduleRepo}
}

func (s *searchService) SearchSchedules(ctx context.Context, origin, destination string, travelDate time.Time) ([]repository.ScheduleSearchRow, error) {
	origin = strings.TrimSpace(origin)
	destination = strings.TrimSpace(destination)
	if origin == "" || destination == "" {
		return nil, fmt.Errorf("%w: origin and destination are required", ErrInvalidSearch)
	}
	if strings.EqualFold(origin, destination) {
		return nil, fmt.Errorf("%w: origin and destination must differ", ErrInvalidSearch)
	}
	return s.scheduleRepo.Search(ctx, origin, destination, travelDate)
}

func (s *searchService) GetSchedule(ctx context.Context, id uint) (*models.Schedule, error) {
	schedule, err := s.scheduleRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrScheduleNotFound
		}
		return nil, err
	}
	if !schedule.IsActive {
		return nil, ErrScheduleNotFound
	}
	return schedule, nil
}

func (s *searchService) Locations(ctx context.Context) ([]string, error) {
	return s.scheduleRepo.Locations(ctx)
}
