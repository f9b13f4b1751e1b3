package handler

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/shuankun/shuankun-api/internal/dto"
	"github.com/shuankun/shuankun-api/internal/models"
	"github.com/shuankun/shuankun-api/pkg/response"
)

type scheduleService interface {
	GetDefault(ctx context.Context, userID string) (*models.Schedule, error)
	SaveDefault(ctx context.Context, userID string, req dto.SaveScheduleRequest) (*models.Schedule, error)
}

// ScheduleHandler manages the caller's default timetable.
type ScheduleHandler struct {
	service scheduleService
}

// NewScheduleHandler constructs handler.
func NewScheduleHandler(svc scheduleService) *ScheduleHandler {
	return &ScheduleHandler{service: svc}
}

// GetDefault godoc
// @Summary Get the default timetable
// @Tags Schedules
// @Produce json
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /schedules/default [get]
func (h *ScheduleHandler) GetDefault(c *gin.Context) {
	claims := requireClaims(c)
	if claims == nil {
		return
	}
	schedule, err := h.service.GetDefault(c.Request.Context(), claims.ActorID())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, schedule)
}

// SaveDefault godoc
// @Summary Create or replace the default timetable
// @Tags Schedules
// @Accept json
// @Produce json
// @Param payload body dto.SaveScheduleRequest true "Timetable"
// @Success 200 {object} response.Envelope
// @Router /schedules/default [put]
func (h *ScheduleHandler) SaveDefault(c *gin.Context) {
	claims := requireClaims(c)
	if claims == nil {
		return
	}
	var req dto.SaveScheduleRequest
	if !bindJSON(c, &req) {
		return
	}
	schedule, err := h.service.SaveDefault(c.Request.Context(), claims.ActorID(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, schedule)
}
