package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/shuankun/shuankun-api/internal/dto"
	"github.com/shuankun/shuankun-api/internal/models"
	appErrors "github.com/shuankun/shuankun-api/pkg/errors"
)

const (
	autoSuggestLastDay    = 5
	autoSuggestLastPeriod = 4
)

type txProvider interface {
	BeginTxx(ctx context.Context, opts *sql.TxOptions) (*sqlx.Tx, error)
}

type planProfileReader interface {
	Get(ctx context.Context, userID string) (*models.TeacherProfile, error)
	ListSubjects(ctx context.Context, userID string, grade int) ([]models.UserSubject, error)
}

type planScheduleReader interface {
	GetDefault(ctx context.Context, userID string) (*models.Schedule, error)
	ListDetails(ctx context.Context, scheduleID string) ([]models.ScheduleDetail, error)
}

type planEventReader interface {
	ListByRange(ctx context.Context, userID string, from, to time.Time) ([]models.SchoolEvent, error)
}

type weeklyPlanStore interface {
	Upsert(ctx context.Context, exec sqlx.ExtContext, plan *models.WeeklyPlan) error
	ReplaceDetails(ctx context.Context, exec sqlx.ExtContext, planID string, details []models.WeeklyPlanDetail) error
	GetByWeek(ctx context.Context, userID string, weekStart time.Time) (*models.WeeklyPlan, error)
	GetByID(ctx context.Context, id string) (*models.WeeklyPlan, error)
	ListDetails(ctx context.Context, planID string) ([]models.WeeklyPlanDetail, error)
	ListByUser(ctx context.Context, userID string, academicYear int) ([]models.WeeklyPlan, error)
	Delete(ctx context.Context, exec sqlx.ExtContext, userID, id string) error
}

type hoursReporter interface {
	Report(ctx context.Context, query HoursReportQuery) (*models.HoursReport, bool, error)
	Targets(report *models.HoursReport) []models.SubjectTarget
	InvalidateUser(ctx context.Context, userID string)
}

// WeeklyPlanService builds, adjusts and persists weekly plans.
type WeeklyPlanService struct {
	profiles  planProfileReader
	schedules planScheduleReader
	events    planEventReader
	plans     weeklyPlanStore
	hours     hoursReporter
	engine    *AdjustmentEngine
	tx        txProvider
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewWeeklyPlanService wires weekly plan dependencies.
func NewWeeklyPlanService(
	profiles planProfileReader,
	schedules planScheduleReader,
	events planEventReader,
	plans weeklyPlanStore,
	hours hoursReporter,
	engine *AdjustmentEngine,
	tx txProvider,
	metrics *MetricsService,
	validate *validator.Validate,
	logger *zap.Logger,
) *WeeklyPlanService {
	if engine == nil {
		engine = NewAdjustmentEngine()
	}
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &WeeklyPlanService{
		profiles:  profiles,
		schedules: schedules,
		events:    events,
		plans:     plans,
		hours:     hours,
		engine:    engine,
		tx:        tx,
		metrics:   metrics,
		validator: validate,
		logger:    logger,
	}
}

// Initialize returns a fresh grid for the week containing the requested date,
// prefilled from the default schedule and annotated with the week's events.
func (s *WeeklyPlanService) Initialize(ctx context.Context, userID string, req dto.InitializeWeeklyPlanRequest) (*dto.GridResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid initialize payload")
	}
	monday, err := parseWeekStart(req.WeekStart)
	if err != nil {
		return nil, err
	}
	profile, err := s.requireProfile(ctx, userID)
	if err != nil {
		return nil, err
	}

	var schedule *models.Schedule
	var details []models.ScheduleDetail
	if s.schedules != nil {
		schedule, err = s.schedules.GetDefault(ctx, userID)
		switch {
		case errors.Is(err, sql.ErrNoRows):
			schedule = nil
		case err != nil:
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load default schedule")
		default:
			details, err = s.schedules.ListDetails(ctx, schedule.ID)
			if err != nil {
				return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load schedule details")
			}
		}
	}

	cells := buildGrid(profile, schedule, details)

	if s.events != nil {
		events, err := s.events.ListByRange(ctx, userID, monday, monday.AddDate(0, 0, 6))
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load school events")
		}
		applyEventMemos(cells, events)
	}

	s.metrics.RecordPlanOperation("initialize")
	return &dto.GridResponse{
		WeekStart: monday.Format(dto.DateLayout),
		WeekEnd:   monday.AddDate(0, 0, 4).Format(dto.DateLayout),
		Cells:     cells,
		Summary:   CalculateWeeklyHoursSummary(cells),
	}, nil
}

// AutoSuggest rotates a homeroom teacher's subjects across the main periods
// (periods 1-4, Monday to Friday). Specialists and users without subjects get
// the grid back unchanged.
func (s *WeeklyPlanService) AutoSuggest(ctx context.Context, userID string, req dto.GridRequest) (*dto.GridResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid grid payload")
	}
	profile, err := s.requireProfile(ctx, userID)
	if err != nil {
		return nil, err
	}

	cells := make([]models.WeeklyPlanCell, len(req.Cells))
	copy(cells, req.Cells)

	if profile.IsHomeroom() && profile.Grade != nil {
		subjects, err := s.profiles.ListSubjects(ctx, userID, *profile.Grade)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load subjects")
		}
		subjects = uniqueSubjects(subjects)
		if len(subjects) > 0 {
			next := 0
			for i := range cells {
				if cells[i].Day > autoSuggestLastDay || cells[i].Period > autoSuggestLastPeriod {
					continue
				}
				cells[i].SubjectID = subjects[next%len(subjects)].SubjectID
				cells[i].Grade = profile.Grade
				cells[i].ClassNumber = profile.ClassNumber
				next++
			}
		}
	}

	s.metrics.RecordPlanOperation("auto_suggest")
	return &dto.GridResponse{Cells: cells, Summary: CalculateWeeklyHoursSummary(cells)}, nil
}

// Adjust runs the adjustment engine once over the grid.
func (s *WeeklyPlanService) Adjust(ctx context.Context, userID string, req dto.AdjustWeeklyPlanRequest) (*dto.GridResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid adjust payload")
	}

	targets := req.Targets
	if len(targets) == 0 && req.UseHoursReport && s.hours != nil {
		report, _, err := s.hours.Report(ctx, HoursReportQuery{
			UserID:       userID,
			Grade:        req.Grade,
			AcademicYear: req.AcademicYear,
			Month:        req.Month,
		})
		if err != nil {
			return nil, err
		}
		targets = s.hours.Targets(report)
	}

	adjusted := s.engine.Adjust(req.Cells, targets)
	summary := CalculateWeeklyHoursSummary(adjusted)
	s.metrics.RecordPlanOperation("adjust")
	s.metrics.ObserveAdjustedCells(summary.AdjustedCells)

	return &dto.GridResponse{
		Cells:       adjusted,
		Summary:     summary,
		Suggestions: GenerateAdjustmentSuggestions(adjusted, targets),
	}, nil
}

// DetectEvents halves full-hour cells whose memo names an event.
func (s *WeeklyPlanService) DetectEvents(req dto.GridRequest) (*dto.GridResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid grid payload")
	}
	cells := DetectEventDays(req.Cells)
	s.metrics.RecordPlanOperation("detect_events")
	return &dto.GridResponse{Cells: cells, Summary: CalculateWeeklyHoursSummary(cells)}, nil
}

// Summary totals a grid and lists advisory messages.
func (s *WeeklyPlanService) Summary(req dto.GridRequest) (*dto.GridResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid grid payload")
	}
	return &dto.GridResponse{
		Cells:       req.Cells,
		Summary:     CalculateWeeklyHoursSummary(req.Cells),
		Suggestions: GenerateAdjustmentSuggestions(req.Cells, nil),
	}, nil
}

// Save stores the grid as the user's plan for the week, replacing any cells
// saved before. Only cells with a subject are persisted.
func (s *WeeklyPlanService) Save(ctx context.Context, userID string, req dto.SaveWeeklyPlanRequest) (*models.WeeklyPlanWithCells, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid weekly plan payload")
	}
	monday, err := parseWeekStart(req.WeekStart)
	if err != nil {
		return nil, err
	}
	if err := checkDuplicateCells(req.Cells); err != nil {
		return nil, err
	}
	profile, err := s.requireProfile(ctx, userID)
	if err != nil {
		return nil, err
	}
	if s.tx == nil {
		return nil, appErrors.Clone(appErrors.ErrInternal, "transaction provider missing")
	}

	status := req.Status
	if status == "" {
		status = models.PlanStatusDraft
	}
	plan := &models.WeeklyPlan{
		UserID:        userID,
		AcademicYear:  AcademicYearOf(monday),
		WeekStartDate: monday,
		WeekEndDate:   monday.AddDate(0, 0, 4),
		Status:        status,
	}
	details := detailsFromCells(req.Cells, profile)

	tx, err := s.tx.BeginTxx(ctx, nil)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to begin transaction")
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if err = s.plans.Upsert(ctx, tx, plan); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save weekly plan")
	}
	if err = s.plans.ReplaceDetails(ctx, tx, plan.ID, details); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save weekly plan cells")
	}
	if err = tx.Commit(); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to commit weekly plan")
	}

	if s.hours != nil {
		s.hours.InvalidateUser(ctx, userID)
	}
	s.metrics.RecordPlanOperation("save")
	s.logger.Info("weekly plan saved",
		zap.String("user_id", userID),
		zap.String("plan_id", plan.ID),
		zap.String("week_start", monday.Format(dto.DateLayout)),
		zap.Int("cells", len(details)))

	cells := make([]models.WeeklyPlanCell, 0, len(details))
	for _, detail := range details {
		cells = append(cells, detail.Cell())
	}
	return &models.WeeklyPlanWithCells{WeeklyPlan: *plan, Cells: cells}, nil
}

// Get returns the saved plan of the week containing date.
func (s *WeeklyPlanService) Get(ctx context.Context, userID, date string) (*models.WeeklyPlanWithCells, error) {
	monday, err := parseWeekStart(date)
	if err != nil {
		return nil, err
	}
	plan, err := s.plans.GetByWeek(ctx, userID, monday)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrWeeklyPlanNotFound
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load weekly plan")
	}
	return s.withCells(ctx, plan)
}

// GetByID returns a saved plan owned by userID.
func (s *WeeklyPlanService) GetByID(ctx context.Context, userID, id string) (*models.WeeklyPlanWithCells, error) {
	plan, err := s.plans.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrWeeklyPlanNotFound
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load weekly plan")
	}
	if plan.UserID != userID {
		return nil, appErrors.ErrWeeklyPlanNotFound
	}
	return s.withCells(ctx, plan)
}

// List returns the user's saved plans for an academic year (0 for all).
func (s *WeeklyPlanService) List(ctx context.Context, userID string, academicYear int) ([]models.WeeklyPlan, error) {
	plans, err := s.plans.ListByUser(ctx, userID, academicYear)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list weekly plans")
	}
	if plans == nil {
		plans = []models.WeeklyPlan{}
	}
	return plans, nil
}

// Delete removes a plan owned by userID.
func (s *WeeklyPlanService) Delete(ctx context.Context, userID, id string) error {
	if s.tx == nil {
		return appErrors.Clone(appErrors.ErrInternal, "transaction provider missing")
	}
	tx, err := s.tx.BeginTxx(ctx, nil)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to begin transaction")
	}
	if err = s.plans.Delete(ctx, tx, userID, id); err != nil {
		_ = tx.Rollback()
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.ErrWeeklyPlanNotFound
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete weekly plan")
	}
	if err = tx.Commit(); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to commit weekly plan delete")
	}
	if s.hours != nil {
		s.hours.InvalidateUser(ctx, userID)
	}
	s.metrics.RecordPlanOperation("delete")
	return nil
}

func (s *WeeklyPlanService) withCells(ctx context.Context, plan *models.WeeklyPlan) (*models.WeeklyPlanWithCells, error) {
	details, err := s.plans.ListDetails(ctx, plan.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load weekly plan cells")
	}
	cells := make([]models.WeeklyPlanCell, 0, len(details))
	for _, detail := range details {
		cells = append(cells, detail.Cell())
	}
	return &models.WeeklyPlanWithCells{WeeklyPlan: *plan, Cells: cells}, nil
}

func (s *WeeklyPlanService) requireProfile(ctx context.Context, userID string) (*models.TeacherProfile, error) {
	profile, err := s.profiles.Get(ctx, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrProfileIncomplete
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load teacher profile")
	}
	if profile.IsHomeroom() && profile.Grade == nil {
		return nil, appErrors.ErrProfileIncomplete
	}
	return profile, nil
}

// parseWeekStart parses a date and moves it back to that week's Monday.
func parseWeekStart(raw string) (time.Time, error) {
	date, err := time.Parse(dto.DateLayout, raw)
	if err != nil {
		return time.Time{}, appErrors.Clone(appErrors.ErrValidation, "date must be formatted as YYYY-MM-DD")
	}
	return mondayOf(date), nil
}

func mondayOf(date time.Time) time.Time {
	offset := (int(date.Weekday()) + 6) % 7
	return date.AddDate(0, 0, -offset)
}

// schoolDayOf maps a date to day-of-week 1 (Monday) .. 6 (Saturday); Sunday is 0.
func schoolDayOf(date time.Time) int {
	return int(date.Weekday())
}

func buildGrid(profile *models.TeacherProfile, schedule *models.Schedule, details []models.ScheduleDetail) []models.WeeklyPlanCell {
	var periods models.DailyPeriods
	if schedule != nil {
		periods = schedule.DailyPeriods
	}
	days := models.DefaultSchoolDays
	if periods.For(6, 0) > 0 {
		days = 6
	}

	type slot struct{ day, period int }
	prefill := make(map[slot]models.ScheduleDetail, len(details))
	for _, detail := range details {
		prefill[slot{detail.DayOfWeek, detail.Period}] = detail
	}

	cells := make([]models.WeeklyPlanCell, 0, days*models.DefaultPeriodsPerDay)
	for day := 1; day <= days; day++ {
		count := periods.For(day, models.DefaultPeriodsPerDay)
		if count > models.MaxPeriodsPerDay {
			count = models.MaxPeriodsPerDay
		}
		for period := 1; period <= count; period++ {
			cell := models.WeeklyPlanCell{Day: day, Period: period, Hours: models.DefaultCellHours}
			if profile.IsHomeroom() {
				cell.Grade = profile.Grade
				cell.ClassNumber = profile.ClassNumber
			}
			if detail, ok := prefill[slot{day, period}]; ok {
				cell.SubjectID = detail.SubjectID
				if detail.Grade != nil {
					cell.Grade = detail.Grade
				}
				if detail.ClassNumber != nil {
					cell.ClassNumber = detail.ClassNumber
				}
			}
			cells = append(cells, cell)
		}
	}
	return cells
}

func applyEventMemos(cells []models.WeeklyPlanCell, events []models.SchoolEvent) {
	for _, event := range events {
		day := schoolDayOf(event.EventDate)
		if day == 0 || event.Name == "" {
			continue
		}
		for i := range cells {
			if cells[i].Day != day {
				continue
			}
			if cells[i].Memo == "" {
				cells[i].Memo = event.Name
			} else {
				cells[i].Memo += " " + event.Name
			}
		}
	}
}

func checkDuplicateCells(cells []models.WeeklyPlanCell) error {
	type slot struct{ day, period, grade, class int }
	seen := make(map[slot]struct{}, len(cells))
	for _, cell := range cells {
		key := slot{cell.Day, cell.Period, derefInt(cell.Grade), derefInt(cell.ClassNumber)}
		if _, ok := seen[key]; ok {
			return appErrors.Clone(appErrors.ErrDuplicateCell, fmt.Sprintf("duplicate cell for day %d period %d grade %d class %d", key.day, key.period, key.grade, key.class))
		}
		seen[key] = struct{}{}
	}
	return nil
}

func derefInt(v *int) int {
	if v == nil {
		return 0
	}
	return *v
}

func detailsFromCells(cells []models.WeeklyPlanCell, profile *models.TeacherProfile) []models.WeeklyPlanDetail {
	details := make([]models.WeeklyPlanDetail, 0, len(cells))
	for _, cell := range cells {
		if cell.SubjectID == "" {
			continue
		}
		detail := models.WeeklyPlanDetail{
			DayOfWeek:   cell.Day,
			Period:      cell.Period,
			SubjectID:   cell.SubjectID,
			Grade:       cell.Grade,
			ClassNumber: cell.ClassNumber,
			Hours:       cell.Hours,
			Memo:        cell.Memo,
		}
		if cell.UnitID != "" {
			unit := cell.UnitID
			detail.UnitID = &unit
		}
		if profile.IsHomeroom() {
			if detail.Grade == nil {
				detail.Grade = profile.Grade
			}
			if detail.ClassNumber == nil {
				detail.ClassNumber = profile.ClassNumber
			}
		}
		details = append(details, detail)
	}
	return details
}
