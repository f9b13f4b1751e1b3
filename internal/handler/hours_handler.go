package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/shuankun/shuankun-api/internal/middleware"
	"github.com/shuankun/shuankun-api/internal/models"
	"github.com/shuankun/shuankun-api/internal/service"
	"github.com/shuankun/shuankun-api/pkg/curriculum"
	"github.com/shuankun/shuankun-api/pkg/response"
)

type hoursService interface {
	Report(ctx context.Context, query service.HoursReportQuery) (*models.HoursReport, bool, error)
	StandardHours(grade int) (map[int][]curriculum.SubjectHours, error)
}

// HoursHandler exposes the class hours forecast.
type HoursHandler struct {
	service hoursService
}

// NewHoursHandler constructs handler.
func NewHoursHandler(svc hoursService) *HoursHandler {
	return &HoursHandler{service: svc}
}

// Report godoc
// @Summary Forecast annual hours per subject
// @Description Grade and academic year default to the caller's profile and the current date.
// @Tags Hours
// @Produce json
// @Param grade query int false "Grade"
// @Param academic_year query int false "Academic year (April start)"
// @Param month query int false "As-of month (1-12)"
// @Success 200 {object} response.Envelope
// @Failure 412 {object} response.Envelope
// @Router /hours/report [get]
func (h *HoursHandler) Report(c *gin.Context) {
	claims := requireClaims(c)
	if claims == nil {
		return
	}
	grade, ok := queryInt(c, "grade")
	if !ok {
		return
	}
	year, ok := queryInt(c, "academic_year")
	if !ok {
		return
	}
	month, ok := queryInt(c, "month")
	if !ok {
		return
	}
	report, cached, err := h.service.Report(c.Request.Context(), service.HoursReportQuery{
		UserID:       claims.ActorID(),
		Grade:        grade,
		AcademicYear: year,
		Month:        month,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetCacheHit(c, cached)
	response.JSON(c, http.StatusOK, report, nil, middleware.ExtractMeta(c))
}

// Standard godoc
// @Summary Standard annual hours table
// @Tags Hours
// @Produce json
// @Param grade query int false "Grade (omit for all)"
// @Success 200 {object} response.Envelope
// @Router /hours/standard [get]
func (h *HoursHandler) Standard(c *gin.Context) {
	grade, ok := queryInt(c, "grade")
	if !ok {
		return
	}
	table, err := h.service.StandardHours(grade)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, table)
}
