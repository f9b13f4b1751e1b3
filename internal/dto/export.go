package dto

import "github.com/shuankun/shuankun-api/internal/models"

// ExportRequest captures POST /exports.
type ExportRequest struct {
	Type         models.ExportType   `json:"type" validate:"required,oneof=weekly_plan hours_report"`
	Format       models.ExportFormat `json:"format" validate:"required,oneof=csv pdf"`
	WeeklyPlanID string              `json:"weekly_plan_id,omitempty"`
	Grade        int                 `json:"grade,omitempty" validate:"omitempty,min=1,max=6"`
	AcademicYear int                 `json:"academic_year,omitempty"`
	AsOfMonth    int                 `json:"as_of_month,omitempty" validate:"omitempty,min=1,max=12"`
}

// ExportJobResponse is returned after enqueueing an export.
type ExportJobResponse struct {
	ID       string              `json:"id"`
	Status   models.ExportStatus `json:"status"`
	Progress int                 `json:"progress"`
}

// ExportStatusResponse exposes job progress metadata.
type ExportStatusResponse struct {
	ID        string              `json:"id"`
	Type      models.ExportType   `json:"type"`
	Status    models.ExportStatus `json:"status"`
	Progress  int                 `json:"progress"`
	ResultURL *string             `json:"result_url,omitempty"`
	Error     *string             `json:"error,omitempty"`
}
