package service

import (
	"context"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/shuankun/shuankun-api/internal/models"
	"github.com/shuankun/shuankun-api/pkg/cache"
	"github.com/shuankun/shuankun-api/pkg/curriculum"
	appErrors "github.com/shuankun/shuankun-api/pkg/errors"
)

const hoursCacheNamespace = "hours"

type hoursSubjectLister interface {
	ListSubjects(ctx context.Context, userID string, grade int) ([]models.UserSubject, error)
}

type actualHoursReader interface {
	ListActualHours(ctx context.Context, userID, subjectID string, grade, academicYear int) ([]models.ActualHourRecord, error)
}

type hoursProfileReader interface {
	Get(ctx context.Context, userID string) (*models.TeacherProfile, error)
}

// HoursReportQuery selects one report. Zero AcademicYear or Month default to
// the current academic year and month; zero Grade falls back to the homeroom grade.
type HoursReportQuery struct {
	UserID       string `validate:"required"`
	Grade        int    `validate:"omitempty,min=1,max=6"`
	AcademicYear int    `validate:"omitempty,min=2000,max=2100"`
	Month        int    `validate:"omitempty,min=1,max=12"`
}

// HoursServiceConfig tunes report fan-out.
type HoursServiceConfig struct {
	Concurrency int
	CacheTTL    time.Duration
}

// HoursService produces per-subject hour forecasts for a teacher.
type HoursService struct {
	subjects  hoursSubjectLister
	actuals   actualHoursReader
	profiles  hoursProfileReader
	engine    *ForecastEngine
	cache     *CacheService
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger
	cfg       HoursServiceConfig
	now       func() time.Time
}

// NewHoursService wires the report dependencies.
func NewHoursService(subjects hoursSubjectLister, actuals actualHoursReader, profiles hoursProfileReader, engine *ForecastEngine, cacheSvc *CacheService, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger, cfg HoursServiceConfig) *HoursService {
	if engine == nil {
		engine = NewForecastEngine(nil)
	}
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 4
	}
	return &HoursService{
		subjects:  subjects,
		actuals:   actuals,
		profiles:  profiles,
		engine:    engine,
		cache:     cacheSvc,
		metrics:   metrics,
		validator: validate,
		logger:    logger,
		cfg:       cfg,
		now:       time.Now,
	}
}

// Report builds the hours report. The boolean reports a cache hit. Subjects
// whose records fail to load are listed in Errors; the rest are still reported.
func (s *HoursService) Report(ctx context.Context, query HoursReportQuery) (*models.HoursReport, bool, error) {
	if err := s.validator.Struct(query); err != nil {
		return nil, false, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid hours report query")
	}
	query, err := s.resolveQuery(ctx, query)
	if err != nil {
		return nil, false, err
	}

	cacheKey := hoursCacheKey(query)
	var cached models.HoursReport
	if hit, err := s.cache.Get(ctx, cacheKey, &cached); err == nil && hit {
		return &cached, true, nil
	}

	start := time.Now()
	subjects, err := s.subjects.ListSubjects(ctx, query.UserID, query.Grade)
	if err != nil {
		return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load subjects")
	}
	subjects = uniqueSubjects(subjects)

	results := make([]*models.SubjectHoursReport, len(subjects))
	failures := make([]*models.SubjectReportError, len(subjects))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.Concurrency)
	for i := range subjects {
		i, subject := i, subjects[i]
		g.Go(func() error {
			records, err := s.actuals.ListActualHours(gctx, query.UserID, subject.SubjectID, query.Grade, query.AcademicYear)
			if err != nil {
				s.logger.Warn("load actual hours failed",
					zap.String("user_id", query.UserID),
					zap.String("subject_id", subject.SubjectID),
					zap.Error(err))
				failures[i] = &models.SubjectReportError{SubjectID: subject.SubjectID, SubjectName: subject.SubjectName, Message: "failed to load actual hours"}
				return nil
			}
			results[i] = s.subjectReport(subject, query, records)
			return nil
		})
	}
	_ = g.Wait()
	s.metrics.ObserveDBQuery("hours_report", time.Since(start))

	report := &models.HoursReport{
		UserID:       query.UserID,
		Grade:        query.Grade,
		AcademicYear: query.AcademicYear,
		Month:        query.Month,
		Subjects:     make([]models.SubjectHoursReport, 0, len(subjects)),
		GeneratedAt:  s.now().UTC(),
	}
	for i := range subjects {
		if results[i] != nil {
			report.Subjects = append(report.Subjects, *results[i])
		}
		if failures[i] != nil {
			report.Errors = append(report.Errors, *failures[i])
		}
	}

	if len(report.Errors) == 0 {
		if err := s.cache.Set(ctx, cacheKey, report, s.cfg.CacheTTL); err != nil {
			s.logger.Warn("cache hours report", zap.Error(err))
		}
	}
	return report, false, nil
}

func (s *HoursService) subjectReport(subject models.UserSubject, query HoursReportQuery, records []models.ActualHourRecord) *models.SubjectHoursReport {
	if _, ok := s.engine.Table().Lookup(query.Grade, subject.SubjectName); !ok {
		s.logger.Debug("no standard hours for subject",
			zap.Int("grade", query.Grade),
			zap.String("subject", subject.SubjectName))
	}
	data := s.engine.ComputeSubjectHoursReport(
		models.Subject{ID: subject.SubjectID, Name: subject.SubjectName, Category: subject.Category},
		query.Grade, query.AcademicYear, query.Month, records,
	)
	alert := PredictionAlert(data.CurrentActual, data.EndOfYearPrediction, data.AnnualPlanned, query.Month)
	if alert != nil {
		s.metrics.RecordHoursAlert(subject.SubjectName)
	}
	return &models.SubjectHoursReport{HoursData: data, Alert: alert}
}

func (s *HoursService) resolveQuery(ctx context.Context, query HoursReportQuery) (HoursReportQuery, error) {
	now := s.now()
	if query.AcademicYear == 0 {
		query.AcademicYear = AcademicYearOf(now)
	}
	if query.Month == 0 {
		query.Month = int(now.Month())
	}
	if query.Grade != 0 {
		return query, nil
	}
	if s.profiles == nil {
		return query, appErrors.Clone(appErrors.ErrValidation, "grade is required")
	}
	profile, err := s.profiles.Get(ctx, query.UserID)
	if err != nil || profile == nil || profile.Grade == nil {
		return query, appErrors.Clone(appErrors.ErrValidation, "grade is required")
	}
	query.Grade = *profile.Grade
	return query, nil
}

// Targets derives balance targets for the adjustment engine from a report.
func (s *HoursService) Targets(report *models.HoursReport) []models.SubjectTarget {
	if report == nil {
		return nil
	}
	targets := make([]models.SubjectTarget, 0, len(report.Subjects))
	for _, subject := range report.Subjects {
		targets = append(targets, models.SubjectTarget{
			SubjectID:    subject.SubjectID,
			CurrentHours: subject.CumulativeActual,
			TargetHours:  float64(subject.CurrentPlanned),
			Variance:     subject.Variance,
		})
	}
	return targets
}

// StandardHours lists the reference table for a grade, or every grade when grade is 0.
func (s *HoursService) StandardHours(grade int) (map[int][]curriculum.SubjectHours, error) {
	table := s.engine.Table()
	if grade != 0 {
		subjects := table.Subjects(grade)
		if len(subjects) == 0 {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "no standard hours for grade")
		}
		return map[int][]curriculum.SubjectHours{grade: subjects}, nil
	}
	out := make(map[int][]curriculum.SubjectHours)
	for _, g := range table.Grades() {
		out[g] = table.Subjects(g)
	}
	return out, nil
}

// InvalidateUser drops every cached report of a user.
func (s *HoursService) InvalidateUser(ctx context.Context, userID string) {
	if err := s.cache.Invalidate(ctx, cache.Pattern(hoursCacheNamespace, userID)); err != nil {
		s.logger.Warn("invalidate hours reports", zap.String("user_id", userID), zap.Error(err))
	}
}

func hoursCacheKey(query HoursReportQuery) string {
	return cache.Key(hoursCacheNamespace, query.UserID,
		strconv.Itoa(query.Grade), strconv.Itoa(query.AcademicYear), strconv.Itoa(query.Month))
}

func uniqueSubjects(subjects []models.UserSubject) []models.UserSubject {
	seen := make(map[string]struct{}, len(subjects))
	out := make([]models.UserSubject, 0, len(subjects))
	for _, subject := range subjects {
		if _, ok := seen[subject.SubjectID]; ok {
			continue
		}
		seen[subject.SubjectID] = struct{}{}
		out = append(out, subject)
	}
	return out
}
