package handler

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/shuankun/shuankun-api/internal/dto"
	"github.com/shuankun/shuankun-api/internal/models"
	"github.com/shuankun/shuankun-api/pkg/response"
)

type profileService interface {
	Get(ctx context.Context, userID string) (*models.TeacherProfile, error)
	Update(ctx context.Context, userID, email string, req dto.UpdateProfileRequest) (*models.TeacherProfile, error)
	ListSubjects(ctx context.Context, userID string, grade int) ([]models.UserSubject, error)
	ReplaceSubjects(ctx context.Context, userID string, req dto.ReplaceSubjectsRequest) ([]models.UserSubject, error)
}

// ProfileHandler exposes the caller's teacher profile.
type ProfileHandler struct {
	service profileService
}

// NewProfileHandler constructs handler.
func NewProfileHandler(svc profileService) *ProfileHandler {
	return &ProfileHandler{service: svc}
}

// Get godoc
// @Summary Get the caller's profile
// @Tags Profile
// @Produce json
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /profile [get]
func (h *ProfileHandler) Get(c *gin.Context) {
	claims := requireClaims(c)
	if claims == nil {
		return
	}
	profile, err := h.service.Get(c.Request.Context(), claims.ActorID())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, profile)
}

// Update godoc
// @Summary Set role, grade and class
// @Tags Profile
// @Accept json
// @Produce json
// @Param payload body dto.UpdateProfileRequest true "Profile"
// @Success 200 {object} response.Envelope
// @Router /profile [put]
func (h *ProfileHandler) Update(c *gin.Context) {
	claims := requireClaims(c)
	if claims == nil {
		return
	}
	var req dto.UpdateProfileRequest
	if !bindJSON(c, &req) {
		return
	}
	profile, err := h.service.Update(c.Request.Context(), claims.ActorID(), claims.Email, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, profile)
}

// ListSubjects godoc
// @Summary List subject selections
// @Tags Profile
// @Produce json
// @Param grade query int false "Grade filter"
// @Success 200 {object} response.Envelope
// @Router /profile/subjects [get]
func (h *ProfileHandler) ListSubjects(c *gin.Context) {
	claims := requireClaims(c)
	if claims == nil {
		return
	}
	grade, ok := queryInt(c, "grade")
	if !ok {
		return
	}
	subjects, err := h.service.ListSubjects(c.Request.Context(), claims.ActorID(), grade)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, subjects)
}

// ReplaceSubjects godoc
// @Summary Replace subject selections
// @Tags Profile
// @Accept json
// @Produce json
// @Param payload body dto.ReplaceSubjectsRequest true "Subjects"
// @Success 200 {object} response.Envelope
// @Router /profile/subjects [put]
func (h *ProfileHandler) ReplaceSubjects(c *gin.Context) {
	claims := requireClaims(c)
	if claims == nil {
		return
	}
	var req dto.ReplaceSubjectsRequest
	if !bindJSON(c, &req) {
		return
	}
	subjects, err := h.service.ReplaceSubjects(c.Request.Context(), claims.ActorID(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, subjects)
}
