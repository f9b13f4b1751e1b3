package dto

import "github.com/shuankun/shuankun-api/internal/models"

// ScheduleDetailInput is one occupied slot of the base timetable.
type ScheduleDetailInput struct {
	DayOfWeek   int    `json:"day_of_week" validate:"min=1,max=6"`
	Period      int    `json:"period" validate:"min=1,max=8"`
	SubjectID   string `json:"subject_id" validate:"required"`
	Grade       *int   `json:"grade,omitempty" validate:"omitempty,min=1,max=6"`
	ClassNumber *int   `json:"class_number,omitempty" validate:"omitempty,min=1"`
}

// SaveScheduleRequest captures PUT /schedules/default.
type SaveScheduleRequest struct {
	Name         string                `json:"name" validate:"required,max=100"`
	DailyPeriods models.DailyPeriods   `json:"daily_periods"`
	Details      []ScheduleDetailInput `json:"details" validate:"dive"`
}
