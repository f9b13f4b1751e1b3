package dto

import "github.com/shuankun/shuankun-api/internal/models"

// UpdateProfileRequest captures PUT /profile.
type UpdateProfileRequest struct {
	Role        models.TeacherRole `json:"role" validate:"required,oneof=homeroom specialist"`
	Grade       *int               `json:"grade,omitempty" validate:"omitempty,min=1,max=6"`
	ClassNumber *int               `json:"class_number,omitempty" validate:"omitempty,min=1"`
}

// UserSubjectInput is one subject selection.
type UserSubjectInput struct {
	SubjectID   string `json:"subject_id" validate:"required"`
	PublisherID string `json:"publisher_id" validate:"required"`
	Grade       int    `json:"grade" validate:"required,min=1,max=6"`
	ClassNumber *int   `json:"class_number,omitempty" validate:"omitempty,min=1"`
}

// ReplaceSubjectsRequest captures PUT /profile/subjects.
type ReplaceSubjectsRequest struct {
	Subjects []UserSubjectInput `json:"subjects" validate:"dive"`
}
