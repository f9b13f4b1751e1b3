package handler

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/shuankun/shuankun-api/internal/dto"
	"github.com/shuankun/shuankun-api/internal/models"
	"github.com/shuankun/shuankun-api/pkg/response"
)

type eventService interface {
	List(ctx context.Context, userID string, query dto.EventRangeQuery) ([]models.SchoolEvent, error)
	Create(ctx context.Context, userID string, req dto.CreateEventRequest) (*models.SchoolEvent, error)
	Delete(ctx context.Context, userID, id string) error
}

// EventHandler exposes school events.
type EventHandler struct {
	service eventService
}

// NewEventHandler constructs handler.
func NewEventHandler(svc eventService) *EventHandler {
	return &EventHandler{service: svc}
}

// List godoc
// @Summary List events in a date range
// @Tags Events
// @Produce json
// @Param from query string true "From (YYYY-MM-DD)"
// @Param to query string true "To (YYYY-MM-DD)"
// @Success 200 {object} response.Envelope
// @Router /events [get]
func (h *EventHandler) List(c *gin.Context) {
	claims := requireClaims(c)
	if claims == nil {
		return
	}
	query := dto.EventRangeQuery{From: c.Query("from"), To: c.Query("to")}
	events, err := h.service.List(c.Request.Context(), claims.ActorID(), query)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, events)
}

// Create godoc
// @Summary Register a school event
// @Tags Events
// @Accept json
// @Produce json
// @Param payload body dto.CreateEventRequest true "Event"
// @Success 201 {object} response.Envelope
// @Router /events [post]
func (h *EventHandler) Create(c *gin.Context) {
	claims := requireClaims(c)
	if claims == nil {
		return
	}
	var req dto.CreateEventRequest
	if !bindJSON(c, &req) {
		return
	}
	event, err := h.service.Create(c.Request.Context(), claims.ActorID(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, event)
}

// Delete godoc
// @Summary Delete a school event
// @Tags Events
// @Param id path string true "Event ID"
// @Success 204
// @Router /events/{id} [delete]
func (h *EventHandler) Delete(c *gin.Context) {
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
