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
	"github.com/shuankun/shuankun-api/pkg/cache"
	appErrors "github.com/shuankun/shuankun-api/pkg/errors"
)

const catalogCacheNamespace = "catalog"

type subjectCatalog interface {
	List(ctx context.Context) ([]models.Subject, error)
	FindByID(ctx context.Context, id string) (*models.Subject, error)
}

type publisherCatalog interface {
	List(ctx context.Context) ([]models.Publisher, error)
	ExistsByCode(ctx context.Context, code string) (bool, error)
	Create(ctx context.Context, publisher *models.Publisher) error
}

type textbookUnitCatalog interface {
	List(ctx context.Context, filter models.TextbookUnitFilter) ([]models.TextbookUnit, error)
	Create(ctx context.Context, unit *models.TextbookUnit) error
}

// CatalogService serves the shared subject, publisher and textbook unit lists.
type CatalogService struct {
	subjects   subjectCatalog
	publishers publisherCatalog
	units      textbookUnitCatalog
	cache      *CacheService
	cacheTTL   time.Duration
	validator  *validator.Validate
	logger     *zap.Logger
}

// NewCatalogService constructs the catalog service.
func NewCatalogService(subjects subjectCatalog, publishers publisherCatalog, units textbookUnitCatalog, cacheSvc *CacheService, cacheTTL time.Duration, validate *validator.Validate, logger *zap.Logger) *CatalogService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CatalogService{
		subjects:   subjects,
		publishers: publishers,
		units:      units,
		cache:      cacheSvc,
		cacheTTL:   cacheTTL,
		validator:  validate,
		logger:     logger,
	}
}

// ListSubjects returns every subject in category display order.
func (s *CatalogService) ListSubjects(ctx context.Context) ([]models.Subject, error) {
	key := cache.Key(catalogCacheNamespace, "subjects")
	var cached []models.Subject
	if hit, err := s.cache.Get(ctx, key, &cached); err == nil && hit {
		return cached, nil
	}

	subjects, err := s.subjects.List(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list subjects")
	}
	if subjects == nil {
		subjects = []models.Subject{}
	}
	_ = s.cache.Set(ctx, key, subjects, s.cacheTTL)
	return subjects, nil
}

// ListPublishers returns every publisher.
func (s *CatalogService) ListPublishers(ctx context.Context) ([]models.Publisher, error) {
	key := cache.Key(catalogCacheNamespace, "publishers")
	var cached []models.Publisher
	if hit, err := s.cache.Get(ctx, key, &cached); err == nil && hit {
		return cached, nil
	}

	publishers, err := s.publishers.List(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list publishers")
	}
	if publishers == nil {
		publishers = []models.Publisher{}
	}
	_ = s.cache.Set(ctx, key, publishers, s.cacheTTL)
	return publishers, nil
}

// CreatePublisher adds a publisher ensuring its code is unique.
func (s *CatalogService) CreatePublisher(ctx context.Context, req dto.CreatePublisherRequest) (*models.Publisher, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid publisher payload")
	}
	code := strings.TrimSpace(req.Code)

	exists, err := s.publishers.ExistsByCode(ctx, code)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check publisher code")
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrConflict, "publisher code already exists")
	}

	publisher := &models.Publisher{Name: strings.TrimSpace(req.Name), Code: code}
	if err := s.publishers.Create(ctx, publisher); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create publisher")
	}
	_ = s.cache.Invalidate(ctx, cache.Key(catalogCacheNamespace, "publishers"))
	return publisher, nil
}

// ListTextbookUnits returns units for the filter ordered by unit order.
func (s *CatalogService) ListTextbookUnits(ctx context.Context, filter models.TextbookUnitFilter) ([]models.TextbookUnit, error) {
	if filter.Grade < 0 || filter.Grade > 6 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "grade must be between 1 and 6")
	}
	units, err := s.units.List(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list textbook units")
	}
	if units == nil {
		units = []models.TextbookUnit{}
	}
	return units, nil
}

// CreateTextbookUnit adds a unit for an existing subject.
func (s *CatalogService) CreateTextbookUnit(ctx context.Context, req dto.CreateTextbookUnitRequest) (*models.TextbookUnit, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid textbook unit payload")
	}
	if _, err := s.subjects.FindByID(ctx, req.SubjectID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "subject not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load subject")
	}

	unit := &models.TextbookUnit{
		PublisherID:     req.PublisherID,
		SubjectID:       req.SubjectID,
		Grade:           req.Grade,
		UnitOrder:       req.UnitOrder,
		UnitName:        strings.TrimSpace(req.UnitName),
		Category:        req.Category,
		SuggestedHours:  req.SuggestedHours,
		SuggestedPeriod: req.SuggestedPeriod,
	}
	if err := s.units.Create(ctx, unit); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create textbook unit")
	}
	return unit, nil
}
