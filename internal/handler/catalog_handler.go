package handler

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/shuankun/shuankun-api/internal/dto"
	"github.com/shuankun/shuankun-api/internal/models"
	"github.com/shuankun/shuankun-api/pkg/response"
)

type catalogService interface {
	ListSubjects(ctx context.Context) ([]models.Subject, error)
	ListPublishers(ctx context.Context) ([]models.Publisher, error)
	CreatePublisher(ctx context.Context, req dto.CreatePublisherRequest) (*models.Publisher, error)
	ListTextbookUnits(ctx context.Context, filter models.TextbookUnitFilter) ([]models.TextbookUnit, error)
	CreateTextbookUnit(ctx context.Context, req dto.CreateTextbookUnitRequest) (*models.TextbookUnit, error)
}

// CatalogHandler serves subjects, publishers and textbook units.
type CatalogHandler struct {
	service catalogService
}

// NewCatalogHandler constructs handler.
func NewCatalogHandler(svc catalogService) *CatalogHandler {
	return &CatalogHandler{service: svc}
}

// ListSubjects godoc
// @Summary List subjects
// @Tags Catalog
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /subjects [get]
func (h *CatalogHandler) ListSubjects(c *gin.Context) {
	subjects, err := h.service.ListSubjects(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, subjects)
}

// ListPublishers godoc
// @Summary List textbook publishers
// @Tags Catalog
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /publishers [get]
func (h *CatalogHandler) ListPublishers(c *gin.Context) {
	publishers, err := h.service.ListPublishers(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, publishers)
}

// CreatePublisher godoc
// @Summary Register a publisher (admin)
// @Tags Catalog
// @Accept json
// @Produce json
// @Param payload body dto.CreatePublisherRequest true "Publisher"
// @Success 201 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /publishers [post]
func (h *CatalogHandler) CreatePublisher(c *gin.Context) {
	var req dto.CreatePublisherRequest
	if !bindJSON(c, &req) {
		return
	}
	publisher, err := h.service.CreatePublisher(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, publisher)
}

// ListTextbookUnits godoc
// @Summary List textbook units
// @Tags Catalog
// @Produce json
// @Param subject_id query string false "Subject"
// @Param publisher_id query string false "Publisher"
// @Param grade query int false "Grade"
// @Success 200 {object} response.Envelope
// @Router /textbook-units [get]
func (h *CatalogHandler) ListTextbookUnits(c *gin.Context) {
	grade, ok := queryInt(c, "grade")
	if !ok {
		return
	}
	units, err := h.service.ListTextbookUnits(c.Request.Context(), models.TextbookUnitFilter{
		SubjectID:   strings.TrimSpace(c.Query("subject_id")),
		PublisherID: strings.TrimSpace(c.Query("publisher_id")),
		Grade:       grade,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, units)
}

// CreateTextbookUnit godoc
// @Summary Register a textbook unit (admin)
// @Tags Catalog
// @Accept json
// @Produce json
// @Param payload body dto.CreateTextbookUnitRequest true "Unit"
// @Success 201 {object} response.Envelope
// @Router /textbook-units [post]
func (h *CatalogHandler) CreateTextbookUnit(c *gin.Context) {
	var req dto.CreateTextbookUnitRequest
	if !bindJSON(c, &req) {
		return
	}
	unit, err := h.service.CreateTextbookUnit(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, unit)
}
