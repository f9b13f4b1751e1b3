package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/shuankun/shuankun-api/internal/dto"
	"github.com/shuankun/shuankun-api/internal/models"
	appErrors "github.com/shuankun/shuankun-api/pkg/errors"
)

const maxSchoolDay = 6

type scheduleStore interface {
	GetDefault(ctx context.Context, userID string) (*models.Schedule, error)
	ListDetails(ctx context.Context, scheduleID string) ([]models.ScheduleDetail, error)
	Create(ctx context.Context, exec sqlx.ExtContext, schedule *models.Schedule) error
	Update(ctx context.Context, exec sqlx.ExtContext, schedule *models.Schedule) error
	ReplaceDetails(ctx context.Context, exec sqlx.ExtContext, scheduleID string, details []models.ScheduleDetail) error
}

// ScheduleService manages the base weekly timetable used to prefill plans.
type ScheduleService struct {
	repo      scheduleStore
	tx        txProvider
	validator *validator.Validate
	logger    *zap.Logger
}

// NewScheduleService constructs the schedule service.
func NewScheduleService(repo scheduleStore, tx txProvider, validate *validator.Validate, logger *zap.Logger) *ScheduleService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ScheduleService{repo: repo, tx: tx, validator: validate, logger: logger}
}

// GetDefault returns the default schedule with its details.
func (s *ScheduleService) GetDefault(ctx context.Context, userID string) (*models.Schedule, error) {
	schedule, err := s.repo.GetDefault(ctx, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "schedule not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load schedule")
	}
	details, err := s.repo.ListDetails(ctx, schedule.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load schedule details")
	}
	if details == nil {
		details = []models.ScheduleDetail{}
	}
	schedule.Details = details
	return schedule, nil
}

// SaveDefault creates or replaces the default schedule in one transaction.
func (s *ScheduleService) SaveDefault(ctx context.Context, userID string, req dto.SaveScheduleRequest) (*models.Schedule, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid schedule payload")
	}
	periods, err := normalizeDailyPeriods(req.DailyPeriods)
	if err != nil {
		return nil, err
	}
	details, err := scheduleDetails(req.Details, periods)
	if err != nil {
		return nil, err
	}

	existing, err := s.repo.GetDefault(ctx, userID)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load schedule")
	}
	if s.tx == nil {
		return nil, appErrors.Clone(appErrors.ErrInternal, "transaction provider missing")
	}

	schedule := &models.Schedule{UserID: userID, Name: req.Name, IsDefault: true, DailyPeriods: periods}
	if existing != nil {
		schedule.ID = existing.ID
		schedule.CreatedAt = existing.CreatedAt
	}

	tx, err := s.tx.BeginTxx(ctx, nil)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to begin transaction")
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if existing != nil {
		err = s.repo.Update(ctx, tx, schedule)
	} else {
		err = s.repo.Create(ctx, tx, schedule)
	}
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save schedule")
	}
	if err = s.repo.ReplaceDetails(ctx, tx, schedule.ID, details); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save schedule details")
	}
	if err = tx.Commit(); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to commit schedule")
	}

	schedule.Details = details
	s.logger.Info("default schedule saved", zap.String("user_id", userID), zap.String("schedule_id", schedule.ID), zap.Int("details", len(details)))
	return schedule, nil
}

// normalizeDailyPeriods fills Monday..Friday with the default count and
// rejects unknown days or counts outside 0..8.
func normalizeDailyPeriods(in models.DailyPeriods) (models.DailyPeriods, error) {
	out := make(models.DailyPeriods, maxSchoolDay)
	for day := 1; day <= models.DefaultSchoolDays; day++ {
		out[day] = models.DefaultPeriodsPerDay
	}
	for day, count := range in {
		if day < 1 || day > maxSchoolDay {
			return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("daily_periods: unknown day %d", day))
		}
		if count < 0 || count > models.MaxPeriodsPerDay {
			return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("daily_periods: day %d must have 0-%d periods", day, models.MaxPeriodsPerDay))
		}
		out[day] = count
	}
	return out, nil
}

func scheduleDetails(inputs []dto.ScheduleDetailInput, periods models.DailyPeriods) ([]models.ScheduleDetail, error) {
	type slot struct{ day, period int }
	seen := make(map[slot]struct{}, len(inputs))
	details := make([]models.ScheduleDetail, 0, len(inputs))
	for _, input := range inputs {
		if input.Period > periods[input.DayOfWeek] {
			return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("day %d has only %d periods", input.DayOfWeek, periods[input.DayOfWeek]))
		}
		key := slot{input.DayOfWeek, input.Period}
		if _, ok := seen[key]; ok {
			return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("duplicate slot for day %d period %d", input.DayOfWeek, input.Period))
		}
		seen[key] = struct{}{}
		details = append(details, models.ScheduleDetail{
			DayOfWeek:   input.DayOfWeek,
			Period:      input.Period,
			SubjectID:   input.SubjectID,
			Grade:       input.Grade,
			ClassNumber: input.ClassNumber,
		})
	}
	return details, nil
}
