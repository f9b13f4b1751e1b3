package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/shuankun/shuankun-api/internal/dto"
	"github.com/shuankun/shuankun-api/internal/models"
	appErrors "github.com/shuankun/shuankun-api/pkg/errors"
)

// maxEventRange bounds GET /events to roughly one academic year.
const maxEventRange = 400 * 24 * time.Hour

type eventStore interface {
	ListByRange(ctx context.Context, userID string, from, to time.Time) ([]models.SchoolEvent, error)
	Create(ctx context.Context, event *models.SchoolEvent) error
	Delete(ctx context.Context, userID, id string) error
}

// EventService manages school events.
type EventService struct {
	repo      eventStore
	validator *validator.Validate
	logger    *zap.Logger
}

// NewEventService constructs the event service.
func NewEventService(repo eventStore, validate *validator.Validate, logger *zap.Logger) *EventService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EventService{repo: repo, validator: validate, logger: logger}
}

// List returns the caller's events between from and to, inclusive.
func (s *EventService) List(ctx context.Context, userID string, query dto.EventRangeQuery) ([]models.SchoolEvent, error) {
	if err := s.validator.Struct(query); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid event range")
	}
	from, _ := time.Parse(dto.DateLayout, query.From)
	to, _ := time.Parse(dto.DateLayout, query.To)
	if to.Before(from) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "to must not be before from")
	}
	if to.Sub(from) > maxEventRange {
		return nil, appErrors.Clone(appErrors.ErrValidation, "event range too long")
	}

	events, err := s.repo.ListByRange(ctx, userID, from, to)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list events")
	}
	if events == nil {
		events = []models.SchoolEvent{}
	}
	return events, nil
}

// Create stores an event for the caller.
func (s *EventService) Create(ctx context.Context, userID string, req dto.CreateEventRequest) (*models.SchoolEvent, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid event payload")
	}
	date, _ := time.Parse(dto.DateLayout, req.EventDate)

	event := &models.SchoolEvent{
		UserID:        userID,
		Name:          strings.TrimSpace(req.Name),
		EventDate:     date,
		EventType:     req.EventType,
		HoursFraction: req.HoursFraction,
		Memo:          req.Memo,
	}
	if err := s.repo.Create(ctx, event); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create event")
	}
	return event, nil
}

// Delete removes an event owned by the caller.
func (s *EventService) Delete(ctx context.Context, userID, id string) error {
	if err := s.repo.Delete(ctx, userID, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "event not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete event")
	}
	return nil
}
