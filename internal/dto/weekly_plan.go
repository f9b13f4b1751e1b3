package dto

import "github.com/shuankun/shuankun-api/internal/models"

// DateLayout is the wire format of calendar dates.
const DateLayout = "2006-01-02"

// InitializeWeeklyPlanRequest asks for a fresh grid for the week containing WeekStart.
type InitializeWeeklyPlanRequest struct {
	WeekStart string `json:"week_start" validate:"required,datetime=2006-01-02"`
}

// GridRequest carries a grid for stateless operations (auto-suggest, detect events, summary).
type GridRequest struct {
	Cells []models.WeeklyPlanCell `json:"cells" validate:"dive"`
}

// AdjustWeeklyPlanRequest runs the adjustment engine. Explicit Targets win;
// otherwise UseHoursReport derives targets from the caller's hours report.
type AdjustWeeklyPlanRequest struct {
	Cells          []models.WeeklyPlanCell `json:"cells" validate:"dive"`
	Targets        []models.SubjectTarget  `json:"targets,omitempty" validate:"omitempty,dive"`
	UseHoursReport bool                    `json:"use_hours_report"`
	Grade          int                     `json:"grade,omitempty" validate:"omitempty,min=1,max=6"`
	AcademicYear   int                     `json:"academic_year,omitempty"`
	Month          int                     `json:"month,omitempty" validate:"omitempty,min=1,max=12"`
}

// SaveWeeklyPlanRequest persists a week's grid.
type SaveWeeklyPlanRequest struct {
	WeekStart string                  `json:"week_start" validate:"required,datetime=2006-01-02"`
	Status    models.PlanStatus       `json:"status,omitempty" validate:"omitempty,oneof=draft completed"`
	Cells     []models.WeeklyPlanCell `json:"cells" validate:"dive"`
}

// GridResponse returns a grid together with its summary.
type GridResponse struct {
	WeekStart   string                    `json:"week_start,omitempty"`
	WeekEnd     string                    `json:"week_end,omitempty"`
	Cells       []models.WeeklyPlanCell   `json:"cells"`
	Summary     models.WeeklyHoursSummary `json:"summary"`
	Suggestions []string                  `json:"suggestions,omitempty"`
}
