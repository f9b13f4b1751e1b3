package service

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/shuankun/shuankun-api/internal/dto"
	"github.com/shuankun/shuankun-api/internal/models"
	appErrors "github.com/shuankun/shuankun-api/pkg/errors"
)

type scheduleReaderStub struct {
	schedule *models.Schedule
	details  []models.ScheduleDetail
	err      error
}

func (s *scheduleReaderStub) GetDefault(_ context.Context, _ string) (*models.Schedule, error) {
	if s.err != nil {
		return nil, s.err
	}
	if s.schedule == nil {
		return nil, sql.ErrNoRows
	}
	return s.schedule, nil
}

func (s *scheduleReaderStub) ListDetails(_ context.Context, _ string) ([]models.ScheduleDetail, error) {
	return s.details, nil
}

type eventReaderStub struct {
	events   []models.SchoolEvent
	from, to time.Time
}

func (e *eventReaderStub) ListByRange(_ context.Context, _ string, from, to time.Time) ([]models.SchoolEvent, error) {
	e.from, e.to = from, to
	return e.events, nil
}

type planStoreStub struct {
	upserted  *models.WeeklyPlan
	details   []models.WeeklyPlanDetail
	upsertErr error

	stored    *models.WeeklyPlan
	getErr    error
	deleteErr error
	deleted    string
	deleteInTx bool
	listYear   int
}

func (p *planStoreStub) Upsert(_ context.Context, exec sqlx.ExtContext, plan *models.WeeklyPlan) error {
	if p.upsertErr != nil {
		return p.upsertErr
	}
	plan.ID = "plan-1"
	copied := *plan
	p.upserted = &copied
	return nil
}

func (p *planStoreStub) ReplaceDetails(_ context.Context, _ sqlx.ExtContext, _ string, details []models.WeeklyPlanDetail) error {
	p.details = details
	return nil
}

func (p *planStoreStub) GetByWeek(_ context.Context, _ string, _ time.Time) (*models.WeeklyPlan, error) {
	if p.getErr != nil {
		return nil, p.getErr
	}
	return p.stored, nil
}

func (p *planStoreStub) GetByID(_ context.Context, _ string) (*models.WeeklyPlan, error) {
	if p.getErr != nil {
		return nil, p.getErr
	}
	return p.stored, nil
}

func (p *planStoreStub) ListDetails(_ context.Context, _ string) ([]models.WeeklyPlanDetail, error) {
	return p.details, nil
}

func (p *planStoreStub) ListByUser(_ context.Context, _ string, academicYear int) ([]models.WeeklyPlan, error) {
	p.listYear = academicYear
	return nil, nil
}

func (p *planStoreStub) Delete(_ context.Context, exec sqlx.ExtContext, _ string, id string) error {
	p.deleteInTx = exec != nil
	if p.deleteErr != nil {
		return p.deleteErr
	}
	p.deleted = id
	return nil
}

type hoursReporterStub struct {
	query       HoursReportQuery
	targets     []models.SubjectTarget
	err         error
	invalidated []string
}

func (h *hoursReporterStub) Report(_ context.Context, query HoursReportQuery) (*models.HoursReport, bool, error) {
	h.query = query
	if h.err != nil {
		return nil, false, h.err
	}
	return &models.HoursReport{UserID: query.UserID}, false, nil
}

func (h *hoursReporterStub) Targets(_ *models.HoursReport) []models.SubjectTarget {
	return h.targets
}

func (h *hoursReporterStub) InvalidateUser(_ context.Context, userID string) {
	h.invalidated = append(h.invalidated, userID)
}

type weeklyPlanFixture struct {
	profiles  *profileStoreStub
	schedules *scheduleReaderStub
	events    *eventReaderStub
	plans     *planStoreStub
	hours     *hoursReporterStub
	tx        txProvider
}

func newWeeklyPlanFixture(profile *models.TeacherProfile) *weeklyPlanFixture {
	return &weeklyPlanFixture{
		profiles:  &profileStoreStub{profile: profile},
		schedules: &scheduleReaderStub{},
		events:    &eventReaderStub{},
		plans:     &planStoreStub{},
		hours:     &hoursReporterStub{},
	}
}

func (f *weeklyPlanFixture) service() *WeeklyPlanService {
	return NewWeeklyPlanService(f.profiles, f.schedules, f.events, f.plans, f.hours, nil, f.tx, nil, nil, zap.NewNop())
}

func homeroomProfile() *models.TeacherProfile {
	return &models.TeacherProfile{UserID: "user-1", Role: models.TeacherRoleHomeroom, Grade: intPtr(5), ClassNumber: intPtr(2)}
}

func specialistProfile() *models.TeacherProfile {
	return &models.TeacherProfile{UserID: "user-1", Role: models.TeacherRoleSpecialist}
}

func findCell(t *testing.T, cells []models.WeeklyPlanCell, day, period int) models.WeeklyPlanCell {
	t.Helper()
	for _, c := range cells {
		if c.Day == day && c.Period == period {
			return c
		}
	}
	t.Fatalf("cell day=%d period=%d not found", day, period)
	return models.WeeklyPlanCell{}
}

func TestWeeklyPlanInitializeHomeroomWithScheduleAndEvents(t *testing.T) {
	f := newWeeklyPlanFixture(homeroomProfile())
	f.schedules.schedule = &models.Schedule{ID: "sched-1", DailyPeriods: models.DailyPeriods{3: 5, 6: 4}}
	f.schedules.details = []models.ScheduleDetail{
		{DayOfWeek: 1, Period: 1, SubjectID: "kokugo"},
		{DayOfWeek: 2, Period: 3, SubjectID: "music", Grade: intPtr(3), ClassNumber: intPtr(1)},
	}
	f.events.events = []models.SchoolEvent{
		{Name: "運動会", EventDate: time.Date(2024, 6, 12, 0, 0, 0, 0, time.UTC)},
		{Name: "日曜参観", EventDate: time.Date(2024, 6, 16, 0, 0, 0, 0, time.UTC)},
	}

	resp, err := f.service().Initialize(context.Background(), "user-1", dto.InitializeWeeklyPlanRequest{WeekStart: "2024-06-13"})
	require.NoError(t, err)

	assert.Equal(t, "2024-06-10", resp.WeekStart)
	assert.Equal(t, "2024-06-14", resp.WeekEnd)
	assert.Equal(t, time.Date(2024, 6, 10, 0, 0, 0, 0, time.UTC), f.events.from)
	assert.Equal(t, time.Date(2024, 6, 16, 0, 0, 0, 0, time.UTC), f.events.to)

	// four days of six periods, Wednesday with five, Saturday with four
	require.Len(t, resp.Cells, 6*4+5+4)
	assert.InDelta(t, 33.0, resp.Summary.TotalHours, 1e-9)

	first := findCell(t, resp.Cells, 1, 1)
	assert.Equal(t, "kokugo", first.SubjectID)
	assert.Equal(t, 5, *first.Grade)
	assert.Equal(t, 2, *first.ClassNumber)

	music := findCell(t, resp.Cells, 2, 3)
	assert.Equal(t, "music", music.SubjectID)
	assert.Equal(t, 3, *music.Grade)

	for _, c := range resp.Cells {
		assert.Equal(t, models.DefaultCellHours, c.Hours)
		if c.Day == 3 {
			assert.Equal(t, "運動会", c.Memo)
		} else {
			assert.Empty(t, c.Memo)
		}
	}
}

func TestWeeklyPlanInitializeSpecialistWithoutSchedule(t *testing.T) {
	f := newWeeklyPlanFixture(specialistProfile())

	resp, err := f.service().Initialize(context.Background(), "user-1", dto.InitializeWeeklyPlanRequest{WeekStart: "2024-06-10"})
	require.NoError(t, err)
	require.Len(t, resp.Cells, models.DefaultSchoolDays*models.DefaultPeriodsPerDay)
	for _, c := range resp.Cells {
		assert.Nil(t, c.Grade)
		assert.Empty(t, c.SubjectID)
	}
}

func TestWeeklyPlanInitializeRequiresProfile(t *testing.T) {
	f := newWeeklyPlanFixture(nil)
	_, err := f.service().Initialize(context.Background(), "user-1", dto.InitializeWeeklyPlanRequest{WeekStart: "2024-06-10"})
	requireAppError(t, err, appErrors.ErrProfileIncomplete.Code)

	f = newWeeklyPlanFixture(&models.TeacherProfile{Role: models.TeacherRoleHomeroom})
	_, err = f.service().Initialize(context.Background(), "user-1", dto.InitializeWeeklyPlanRequest{WeekStart: "2024-06-10"})
	requireAppError(t, err, appErrors.ErrProfileIncomplete.Code)
}

func TestWeeklyPlanInitializeRejectsBadDate(t *testing.T) {
	f := newWeeklyPlanFixture(homeroomProfile())
	_, err := f.service().Initialize(context.Background(), "user-1", dto.InitializeWeeklyPlanRequest{WeekStart: "2024/06/10"})
	requireAppError(t, err, appErrors.ErrValidation.Code)
}

func TestWeeklyPlanAutoSuggestRotatesHomeroomSubjects(t *testing.T) {
	f := newWeeklyPlanFixture(homeroomProfile())
	f.profiles.subjects = []models.UserSubject{
		{SubjectID: "kokugo", Grade: 5},
		{SubjectID: "sansu", Grade: 5},
		{SubjectID: "kokugo", Grade: 5},
		{SubjectID: "rika", Grade: 5},
		{SubjectID: "ongaku", Grade: 4},
	}
	grid := emptyWeek(5, 6)

	resp, err := f.service().AutoSuggest(context.Background(), "user-1", dto.GridRequest{Cells: grid})
	require.NoError(t, err)

	assert.Equal(t, []int{5}, f.profiles.listedGrades)
	want := []string{"kokugo", "sansu", "rika", "kokugo"}
	for period := 1; period <= 4; period++ {
		assert.Equal(t, want[period-1], findCell(t, resp.Cells, 1, period).SubjectID)
	}
	assert.Equal(t, "sansu", findCell(t, resp.Cells, 2, 1).SubjectID)
	assert.Empty(t, findCell(t, resp.Cells, 1, 5).SubjectID)
	assert.Empty(t, findCell(t, resp.Cells, 3, 6).SubjectID)
	assert.Equal(t, 2, *findCell(t, resp.Cells, 4, 2).ClassNumber)
	assert.Empty(t, grid[0].SubjectID)
}

func TestWeeklyPlanAutoSuggestLeavesGridUnchanged(t *testing.T) {
	grid := []models.WeeklyPlanCell{cell(1, 1, "art", 1, ""), cell(1, 2, "", 1, "")}

	t.Run("specialist", func(t *testing.T) {
		f := newWeeklyPlanFixture(specialistProfile())
		f.profiles.subjects = []models.UserSubject{{SubjectID: "music", Grade: 5}}
		resp, err := f.service().AutoSuggest(context.Background(), "user-1", dto.GridRequest{Cells: grid})
		require.NoError(t, err)
		assert.Equal(t, grid, resp.Cells)
		assert.Empty(t, f.profiles.listedGrades)
	})

	t.Run("no subjects", func(t *testing.T) {
		f := newWeeklyPlanFixture(homeroomProfile())
		resp, err := f.service().AutoSuggest(context.Background(), "user-1", dto.GridRequest{Cells: grid})
		require.NoError(t, err)
		assert.Equal(t, grid, resp.Cells)
	})
}

func TestWeeklyPlanAdjustUsesHoursReportTargets(t *testing.T) {
	f := newWeeklyPlanFixture(homeroomProfile())
	f.hours.targets = []models.SubjectTarget{{SubjectID: "rika", Variance: -5}}
	grid := []models.WeeklyPlanCell{cell(1, 1, "kokugo", 1, "運動会"), cell(1, 2, "sansu", 1, "")}

	resp, err := f.service().Adjust(context.Background(), "user-1", dto.AdjustWeeklyPlanRequest{
		Cells:          grid,
		UseHoursReport: true,
		Month:          9,
	})
	require.NoError(t, err)

	assert.Equal(t, "user-1", f.hours.query.UserID)
	assert.Equal(t, 9, f.hours.query.Month)
	assert.Equal(t, 0.5, resp.Cells[0].Hours)
	assert.Equal(t, 1, resp.Summary.AdjustedCells)
	assert.Contains(t, resp.Suggestions, "rikaが5時間不足しています。")
	assert.Equal(t, "運動会", grid[0].Memo)
}

func TestWeeklyPlanAdjustPrefersExplicitTargets(t *testing.T) {
	f := newWeeklyPlanFixture(homeroomProfile())
	_, err := f.service().Adjust(context.Background(), "user-1", dto.AdjustWeeklyPlanRequest{
		Cells:          emptyWeek(1, 2),
		Targets:        []models.SubjectTarget{{SubjectID: "kokugo"}},
		UseHoursReport: true,
	})
	require.NoError(t, err)
	assert.Empty(t, f.hours.query.UserID)
}

func TestWeeklyPlanAdjustPropagatesReportError(t *testing.T) {
	f := newWeeklyPlanFixture(homeroomProfile())
	f.hours.err = appErrors.Clone(appErrors.ErrValidation, "grade is required")
	_, err := f.service().Adjust(context.Background(), "user-1", dto.AdjustWeeklyPlanRequest{Cells: emptyWeek(1, 1), UseHoursReport: true})
	requireAppError(t, err, appErrors.ErrValidation.Code)
}

func TestWeeklyPlanSummaryAndDetectEvents(t *testing.T) {
	svc := newWeeklyPlanFixture(nil).service()
	grid := []models.WeeklyPlanCell{cell(1, 1, "kokugo", 1, "運動会"), cell(1, 2, "kokugo", 0.5, "")}

	detected, err := svc.DetectEvents(dto.GridRequest{Cells: grid})
	require.NoError(t, err)
	assert.Equal(t, 0.5, detected.Cells[0].Hours)
	assert.InDelta(t, 1.0, detected.Summary.TotalHours, 1e-9)

	summary, err := svc.Summary(dto.GridRequest{Cells: grid})
	require.NoError(t, err)
	assert.InDelta(t, 1.5, summary.Summary.SubjectHours["kokugo"], 1e-9)
	assert.Equal(t, 1, summary.Summary.AdjustedCells)

	_, err = svc.Summary(dto.GridRequest{Cells: []models.WeeklyPlanCell{{Day: 9, Period: 1}}})
	requireAppError(t, err, appErrors.ErrValidation.Code)
}

func TestWeeklyPlanSavePersistsSubjectCells(t *testing.T) {
	f := newWeeklyPlanFixture(homeroomProfile())
	tx, mock := newTxProviderMock(t)
	f.tx = tx
	mock.ExpectBegin()
	mock.ExpectCommit()

	grid := []models.WeeklyPlanCell{
		cell(1, 1, "kokugo", 1, ""),
		cell(1, 2, "", 1, "空き"),
		{Day: 2, Period: 1, SubjectID: "sansu", UnitID: "unit-9", Hours: 0.5, Grade: intPtr(4), ClassNumber: intPtr(1)},
	}
	saved, err := f.service().Save(context.Background(), "user-1", dto.SaveWeeklyPlanRequest{WeekStart: "2025-01-08", Cells: grid})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())

	require.NotNil(t, f.plans.upserted)
	assert.Equal(t, 2024, f.plans.upserted.AcademicYear)
	assert.Equal(t, time.Date(2025, 1, 6, 0, 0, 0, 0, time.UTC), f.plans.upserted.WeekStartDate)
	assert.Equal(t, time.Date(2025, 1, 10, 0, 0, 0, 0, time.UTC), f.plans.upserted.WeekEndDate)
	assert.Equal(t, models.PlanStatusDraft, f.plans.upserted.Status)

	require.Len(t, f.plans.details, 2)
	assert.Equal(t, 5, *f.plans.details[0].Grade)
	assert.Equal(t, 2, *f.plans.details[0].ClassNumber)
	assert.Nil(t, f.plans.details[0].UnitID)
	assert.Equal(t, 4, *f.plans.details[1].Grade)
	require.NotNil(t, f.plans.details[1].UnitID)
	assert.Equal(t, "unit-9", *f.plans.details[1].UnitID)

	assert.Equal(t, "plan-1", saved.ID)
	assert.Len(t, saved.Cells, 2)
	assert.Equal(t, []string{"user-1"}, f.hours.invalidated)
}

func TestWeeklyPlanSaveRollsBackOnStoreError(t *testing.T) {
	f := newWeeklyPlanFixture(homeroomProfile())
	tx, mock := newTxProviderMock(t)
	f.tx = tx
	f.plans.upsertErr = errors.New("boom")
	mock.ExpectBegin()
	mock.ExpectRollback()

	_, err := f.service().Save(context.Background(), "user-1", dto.SaveWeeklyPlanRequest{WeekStart: "2025-01-06", Cells: emptyWeek(1, 1)})
	requireAppError(t, err, appErrors.ErrInternal.Code)
	require.NoError(t, mock.ExpectationsWereMet())
	assert.Empty(t, f.hours.invalidated)
}

func TestWeeklyPlanSaveRejectsDuplicateCells(t *testing.T) {
	f := newWeeklyPlanFixture(homeroomProfile())
	grid := []models.WeeklyPlanCell{cell(1, 1, "kokugo", 1, ""), cell(1, 1, "sansu", 1, "")}
	_, err := f.service().Save(context.Background(), "user-1", dto.SaveWeeklyPlanRequest{WeekStart: "2025-01-06", Cells: grid})
	requireAppError(t, err, appErrors.ErrValidation.Code)
	assert.Nil(t, f.plans.upserted)
}

func TestWeeklyPlanGetAndDelete(t *testing.T) {
	f := newWeeklyPlanFixture(homeroomProfile())
	f.plans.stored = &models.WeeklyPlan{ID: "plan-1", UserID: "user-1"}
	f.plans.details = []models.WeeklyPlanDetail{{DayOfWeek: 1, Period: 1, SubjectID: "kokugo", Hours: 1}}
	svc := f.service()

	plan, err := svc.Get(context.Background(), "user-1", "2024-06-12")
	require.NoError(t, err)
	require.Len(t, plan.Cells, 1)
	assert.Equal(t, "kokugo", plan.Cells[0].SubjectID)

	_, err = svc.GetByID(context.Background(), "someone-else", "plan-1")
	requireAppError(t, err, appErrors.ErrNotFound.Code)

	list, err := svc.List(context.Background(), "user-1", 2024)
	require.NoError(t, err)
	assert.NotNil(t, list)
	assert.Equal(t, 2024, f.plans.listYear)

	f.plans.getErr = sql.ErrNoRows
	_, err = svc.Get(context.Background(), "user-1", "2024-06-12")
	requireAppError(t, err, appErrors.ErrNotFound.Code)
}

func TestWeeklyPlanDeleteRunsInTransaction(t *testing.T) {
	f := newWeeklyPlanFixture(homeroomProfile())
	tx, mock := newTxProviderMock(t)
	f.tx = tx
	svc := f.service()

	mock.ExpectBegin()
	mock.ExpectCommit()
	require.NoError(t, svc.Delete(context.Background(), "user-1", "plan-1"))
	assert.Equal(t, "plan-1", f.plans.deleted)
	assert.True(t, f.plans.deleteInTx)
	assert.Equal(t, []string{"user-1"}, f.hours.invalidated)

	f.plans.deleteErr = sql.ErrNoRows
	mock.ExpectBegin()
	mock.ExpectRollback()
	err := svc.Delete(context.Background(), "user-1", "plan-2")
	requireAppError(t, err, appErrors.ErrNotFound.Code)

	f.plans.deleteErr = errors.New("connection reset")
	mock.ExpectBegin()
	mock.ExpectRollback()
	err = svc.Delete(context.Background(), "user-1", "plan-3")
	requireAppError(t, err, appErrors.ErrInternal.Code)

	require.NoError(t, mock.ExpectationsWereMet())
	assert.Equal(t, []string{"user-1"}, f.hours.invalidated)
}

func TestWeeklyPlanSaveAcceptsSpecialistClassesInOneSlot(t *testing.T) {
	f := newWeeklyPlanFixture(specialistProfile())
	tx, mock := newTxProviderMock(t)
	f.tx = tx
	mock.ExpectBegin()
	mock.ExpectCommit()

	grid := []models.WeeklyPlanCell{
		{Day: 1, Period: 1, SubjectID: "ongaku", Hours: 1, Grade: intPtr(5), ClassNumber: intPtr(1)},
		{Day: 1, Period: 1, SubjectID: "ongaku", Hours: 1, Grade: intPtr(5), ClassNumber: intPtr(2)},
	}
	saved, err := f.service().Save(context.Background(), "user-1", dto.SaveWeeklyPlanRequest{WeekStart: "2025-01-06", Cells: grid})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
	require.Len(t, f.plans.details, 2)
	assert.Equal(t, 1, *f.plans.details[0].ClassNumber)
	assert.Equal(t, 2, *f.plans.details[1].ClassNumber)
	assert.Len(t, saved.Cells, 2)

	grid = append(grid, models.WeeklyPlanCell{Day: 1, Period: 1, SubjectID: "zuko", Hours: 1, Grade: intPtr(5), ClassNumber: intPtr(2)})
	_, err = f.service().Save(context.Background(), "user-1", dto.SaveWeeklyPlanRequest{WeekStart: "2025-01-06", Cells: grid})
	requireAppError(t, err, appErrors.ErrValidation.Code)
}

func TestParseWeekStartMovesToMonday(t *testing.T) {
	cases := map[string]string{
		"2024-06-10": "2024-06-10",
		"2024-06-14": "2024-06-10",
		"2024-06-16": "2024-06-10",
		"2024-06-17": "2024-06-17",
	}
	for in, want := range cases {
		got, err := parseWeekStart(in)
		require.NoError(t, err)
		assert.Equal(t, want, got.Format(dto.DateLayout), in)
	}
}
