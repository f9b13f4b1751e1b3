package models

import "time"

// WeeklyPlanCell is one day x period slot of a week's plan. An empty SubjectID
// means the slot is unscheduled.
type WeeklyPlanCell struct {
	Day         int     `json:"day" validate:"min=1,max=6"`
	Period      int     `json:"period" validate:"min=1"`
	SubjectID   string  `json:"subject_id,omitempty"`
	UnitID      string  `json:"unit_id,omitempty"`
	Grade       *int    `json:"grade,omitempty" validate:"omitempty,min=1,max=6"`
	ClassNumber *int    `json:"class_number,omitempty" validate:"omitempty,min=1"`
	Hours       float64 `json:"hours" validate:"min=0,max=1"`
	Memo        string  `json:"memo,omitempty"`
}

// DefaultCellHours is the nominal hours value of a fresh cell.
const DefaultCellHours = 1.0

// PlanStatus captures the lifecycle of a saved weekly plan.
type PlanStatus string

const (
	PlanStatusDraft     PlanStatus = "draft"
	PlanStatusCompleted PlanStatus = "completed"
)

// WeeklyPlan is the persisted header of one user's plan for one week.
type WeeklyPlan struct {
	ID            string     `db:"id" json:"id"`
	UserID        string     `db:"user_id" json:"user_id"`
	AcademicYear  int        `db:"academic_year" json:"academic_year"`
	WeekStartDate time.Time  `db:"week_start_date" json:"week_start_date"`
	WeekEndDate   time.Time  `db:"week_end_date" json:"week_end_date"`
	Status        PlanStatus `db:"status" json:"status"`
	CreatedAt     time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time  `db:"updated_at" json:"updated_at"`
}

// WeeklyPlanDetail is a persisted cell. Only cells with a subject are stored.
type WeeklyPlanDetail struct {
	ID           string  `db:"id" json:"id"`
	WeeklyPlanID string  `db:"weekly_plan_id" json:"weekly_plan_id"`
	DayOfWeek    int     `db:"day_of_week" json:"day_of_week"`
	Period       int     `db:"period" json:"period"`
	SubjectID    string  `db:"subject_id" json:"subject_id"`
	UnitID       *string `db:"unit_id" json:"unit_id,omitempty"`
	Grade        *int    `db:"grade" json:"grade,omitempty"`
	ClassNumber  *int    `db:"class_number" json:"class_number,omitempty"`
	Hours        float64 `db:"hours" json:"hours"`
	Memo         string  `db:"memo" json:"memo"`
}

// Cell converts a persisted detail back into a grid cell.
func (d WeeklyPlanDetail) Cell() WeeklyPlanCell {
	cell := WeeklyPlanCell{
		Day:         d.DayOfWeek,
		Period:      d.Period,
		SubjectID:   d.SubjectID,
		Grade:       d.Grade,
		ClassNumber: d.ClassNumber,
		Hours:       d.Hours,
		Memo:        d.Memo,
	}
	if d.UnitID != nil {
		cell.UnitID = *d.UnitID
	}
	return cell
}

// WeeklyPlanWithCells bundles a plan with its grid.
type WeeklyPlanWithCells struct {
	WeeklyPlan
	Cells []WeeklyPlanCell `json:"cells"`
}

// WeeklyHoursSummary aggregates a grid's hours.
type WeeklyHoursSummary struct {
	TotalHours    float64            `json:"total_hours"`
	SubjectHours  map[string]float64 `json:"subject_hours"`
	AdjustedCells int                `json:"adjusted_cells"`
}
