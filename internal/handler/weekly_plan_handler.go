package handler

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/shuankun/shuankun-api/internal/dto"
	"github.com/shuankun/shuankun-api/internal/models"
	"github.com/shuankun/shuankun-api/pkg/response"
)

type weeklyPlanService interface {
	Initialize(ctx context.Context, userID string, req dto.InitializeWeeklyPlanRequest) (*dto.GridResponse, error)
	AutoSuggest(ctx context.Context, userID string, req dto.GridRequest) (*dto.GridResponse, error)
	Adjust(ctx context.Context, userID string, req dto.AdjustWeeklyPlanRequest) (*dto.GridResponse, error)
	DetectEvents(req dto.GridRequest) (*dto.GridResponse, error)
	Summary(req dto.GridRequest) (*dto.GridResponse, error)
	Save(ctx context.Context, userID string, req dto.SaveWeeklyPlanRequest) (*models.WeeklyPlanWithCells, error)
	Get(ctx context.Context, userID, date string) (*models.WeeklyPlanWithCells, error)
	GetByID(ctx context.Context, userID, id string) (*models.WeeklyPlanWithCells, error)
	List(ctx context.Context, userID string, academicYear int) ([]models.WeeklyPlan, error)
	Delete(ctx context.Context, userID, id string) error
}

// WeeklyPlanHandler serves the weekly plan grid endpoints.
type WeeklyPlanHandler struct {
	service weeklyPlanService
}

// NewWeeklyPlanHandler constructs the handler.
func NewWeeklyPlanHandler(svc weeklyPlanService) *WeeklyPlanHandler {
	return &WeeklyPlanHandler{service: svc}
}

// Initialize godoc
// @Summary Build an empty grid for a week
// @Tags WeeklyPlans
// @Accept json
// @Produce json
// @Param payload body dto.InitializeWeeklyPlanRequest true "Week start"
// @Success 200 {object} response.Envelope
// @Failure 412 {object} response.Envelope
// @Router /weekly-plans/initialize [post]
func (h *WeeklyPlanHandler) Initialize(c *gin.Context) {
	claims := requireClaims(c)
	if claims == nil {
		return
	}
	var req dto.InitializeWeeklyPlanRequest
	if !bindJSON(c, &req) {
		return
	}
	grid, err := h.service.Initialize(c.Request.Context(), claims.ActorID(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, grid)
}

// AutoSuggest godoc
// @Summary Fill periods 1-4 with the homeroom teacher's subjects
// @Tags WeeklyPlans
// @Accept json
// @Produce json
// @Param payload body dto.GridRequest true "Grid"
// @Success 200 {object} response.Envelope
// @Router /weekly-plans/auto-suggest [post]
func (h *WeeklyPlanHandler) AutoSuggest(c *gin.Context) {
	claims := requireClaims(c)
	if claims == nil {
		return
	}
	var req dto.GridRequest
	if !bindJSON(c, &req) {
		return
	}
	grid, err := h.service.AutoSuggest(c.Request.Context(), claims.ActorID(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, grid)
}

// Adjust godoc
// @Summary Apply hour adjustment rules to a grid
// @Tags WeeklyPlans
// @Accept json
// @Produce json
// @Param payload body dto.AdjustWeeklyPlanRequest true "Grid and targets"
// @Success 200 {object} response.Envelope
// @Router /weekly-plans/adjust [post]
func (h *WeeklyPlanHandler) Adjust(c *gin.Context) {
	claims := requireClaims(c)
	if claims == nil {
		return
	}
	var req dto.AdjustWeeklyPlanRequest
	if !bindJSON(c, &req) {
		return
	}
	grid, err := h.service.Adjust(c.Request.Context(), claims.ActorID(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, grid)
}

// DetectEvents godoc
// @Summary Mark event-day cells as half hours
// @Tags WeeklyPlans
// @Accept json
// @Produce json
// @Param payload body dto.GridRequest true "Grid"
// @Success 200 {object} response.Envelope
// @Router /weekly-plans/detect-events [post]
func (h *WeeklyPlanHandler) DetectEvents(c *gin.Context) {
	var req dto.GridRequest
	if !bindJSON(c, &req) {
		return
	}
	grid, err := h.service.DetectEvents(req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, grid)
}

// Summary godoc
// @Summary Summarise a grid's hours
// @Tags WeeklyPlans
// @Accept json
// @Produce json
// @Param payload body dto.GridRequest true "Grid"
// @Success 200 {object} response.Envelope
// @Router /weekly-plans/summary [post]
func (h *WeeklyPlanHandler) Summary(c *gin.Context) {
	var req dto.GridRequest
	if !bindJSON(c, &req) {
		return
	}
	grid, err := h.service.Summary(req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, grid)
}

// Save godoc
// @Summary Save the plan for a week
// @Tags WeeklyPlans
// @Accept json
// @Produce json
// @Param payload body dto.SaveWeeklyPlanRequest true "Plan"
// @Success 200 {object} response.Envelope
// @Router /weekly-plans [put]
func (h *WeeklyPlanHandler) Save(c *gin.Context) {
	claims := requireClaims(c)
	if claims == nil {
		return
	}
	var req dto.SaveWeeklyPlanRequest
	if !bindJSON(c, &req) {
		return
	}
	plan, err := h.service.Save(c.Request.Context(), claims.ActorID(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, plan)
}

// List godoc
// @Summary List saved plans
// @Tags WeeklyPlans
// @Produce json
// @Param academic_year query int false "Academic year (April start)"
// @Success 200 {object} response.Envelope
// @Router /weekly-plans [get]
func (h *WeeklyPlanHandler) List(c *gin.Context) {
	claims := requireClaims(c)
	if claims == nil {
		return
	}
	year, ok := queryInt(c, "academic_year")
	if !ok {
		return
	}
	plans, err := h.service.List(c.Request.Context(), claims.ActorID(), year)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, plans)
}

// GetByWeek godoc
// @Summary Get the plan of the week containing date
// @Tags WeeklyPlans
// @Produce json
// @Param date path string true "Any date in the week (YYYY-MM-DD)"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /weekly-plans/week/{date} [get]
func (h *WeeklyPlanHandler) GetByWeek(c *gin.Context) {
	claims := requireClaims(c)
	if claims == nil {
		return
	}
	plan, err := h.service.Get(c.Request.Context(), claims.ActorID(), c.Param("date"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, plan)
}

// GetByID godoc
// @Summary Get a saved plan
// @Tags WeeklyPlans
// @Produce json
// @Param id path string true "Plan ID"
// @Success 200 {object} response.Envelope
// @Router /weekly-plans/{id} [get]
func (h *WeeklyPlanHandler) GetByID(c *gin.Context) {
	claims := requireClaims(c)
	if claims == nil {
		return
	}
	plan, err := h.service.GetByID(c.Request.Context(), claims.ActorID(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, plan)
}

// Delete godoc
// @Summary Delete a saved plan
// @Tags WeeklyPlans
// @Param id path string true "Plan ID"
// @Success 204
// @Router /weekly-plans/{id} [delete]
func (h *WeeklyPlanHandler) Delete(c *gin.Context) {
	claims := requireClaims(c)
	if claims == nil {
		return
	}
	if err := h.service.Delete(c.Request.Context(), claims.ActorID(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
