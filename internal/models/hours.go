package models

import "time"

// SubjectTarget is the per-subject variance input of the balance pass.
type SubjectTarget struct {
	SubjectID    string  `json:"subject_id" validate:"required"`
	CurrentHours float64 `json:"current_hours"`
	TargetHours  float64 `json:"target_hours"`
	Variance     float64 `json:"variance"`
	Priority     int     `json:"priority"`
}

// ActualHourRecord is one persisted plan cell as seen by the forecast.
// Hours may be NULL in storage and then counts as 0.
type ActualHourRecord struct {
	Hours         *float64  `db:"hours" json:"hours"`
	WeekStartDate time.Time `db:"week_start_date" json:"week_start_date"`
	SubjectID     string    `db:"subject_id" json:"subject_id"`
	Grade         *int      `db:"grade" json:"grade,omitempty"`
}

// VarianceStatus buckets a subject's variance for display.
type VarianceStatus string

const (
	VarianceOnTrack  VarianceStatus = "on_track"
	VarianceWarning  VarianceStatus = "warning"
	VarianceCritical VarianceStatus = "critical"
)

// HoursData is the forecast for one subject/grade/year/month.
type HoursData struct {
	SubjectID            string         `json:"subject_id"`
	SubjectName          string         `json:"subject_name"`
	Grade                int            `json:"grade"`
	AcademicYear         int            `json:"academic_year"`
	Month                int            `json:"month"`
	AnnualPlanned        int            `json:"annual_planned"`
	CurrentPlanned       int            `json:"current_planned"`
	CurrentActual        int            `json:"current_actual"`
	CumulativePlanned    int            `json:"cumulative_planned"`
	CumulativeActual     float64        `json:"cumulative_actual"`
	Variance             float64        `json:"variance"`
	EndOfYearPrediction  int            `json:"end_of_year_prediction"`
	Status               VarianceStatus `json:"status"`
	RemainingAdjustHours float64        `json:"remaining_adjust_hours"`
}

// HoursAlert flags a projected year-end shortfall.
type HoursAlert struct {
	Shortage              int `json:"shortage"`
	AdditionalHoursNeeded int `json:"additional_hours_needed"`
	MonthsRemaining       int `json:"months_remaining"`
	ResolvedByMonth       int `json:"resolved_by_month"`
}

// SubjectHoursReport pairs a subject forecast with its optional alert.
type SubjectHoursReport struct {
	HoursData
	Alert *HoursAlert `json:"alert,omitempty"`
}

// SubjectReportError records a subject whose records could not be loaded.
type SubjectReportError struct {
	SubjectID   string `json:"subject_id"`
	SubjectName string `json:"subject_name"`
	Message     string `json:"message"`
}

// HoursReport is the per-user report for a grade and as-of month.
type HoursReport struct {
	UserID       string               `json:"user_id"`
	Grade        int                  `json:"grade"`
	AcademicYear int                  `json:"academic_year"`
	Month        int                  `json:"month"`
	Subjects     []SubjectHoursReport `json:"subjects"`
	Errors       []SubjectReportError `json:"errors,omitempty"`
	GeneratedAt  time.Time            `json:"generated_at"`
}
