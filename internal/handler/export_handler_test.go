package handler

import (
	"context"
	"net/http"
	"os"
	"path/filepath"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shuankun/shuankun-api/internal/dto"
	"github.com/shuankun/shuankun-api/internal/middleware"
	"github.com/shuankun/shuankun-api/internal/models"
	"github.com/shuankun/shuankun-api/internal/service"
	appErrors "github.com/shuankun/shuankun-api/pkg/errors"
)

type exportJobServiceStub struct {
	createReq   dto.ExportRequest
	actorID     string
	role        models.UserRole
	createResp  *dto.ExportJobResponse
	createErr   error
	statusResp  *dto.ExportStatusResponse
	statusErr   error
	download    *service.ExportDownload
	downloadErr error
}

func (s *exportJobServiceStub) CreateJob(_ context.Context, req dto.ExportRequest, actorID string) (*dto.ExportJobResponse, error) {
	s.createReq, s.actorID = req, actorID
	return s.createResp, s.createErr
}

func (s *exportJobServiceStub) GetStatus(_ context.Context, _, actorID string, role models.UserRole) (*dto.ExportStatusResponse, error) {
	s.actorID, s.role = actorID, role
	return s.statusResp, s.statusErr
}

func (s *exportJobServiceStub) ResolveDownload(_ context.Context, _ string) (*service.ExportDownload, error) {
	return s.download, s.downloadErr
}

func TestExportHandlerCreate(t *testing.T) {
	svc := &exportJobServiceStub{createResp: &dto.ExportJobResponse{ID: "job-1", Status: models.ExportStatusQueued}}
	h := NewExportHandler(svc)

	c, w := newGinContext(http.MethodPost, "/exports", dto.ExportRequest{Type: models.ExportTypeWeeklyPlan, Format: models.ExportFormatPDF, WeeklyPlanID: "plan-1"})
	asTeacher(c, "user-1")
	h.Create(c)

	require.Equal(t, http.StatusAccepted, w.Code)
	assert.Equal(t, "user-1", svc.actorID)
	assert.Equal(t, "plan-1", svc.createReq.WeeklyPlanID)
	assert.JSONEq(t, `{"id":"job-1","status":"QUEUED","progress":0}`, string(decodeEnvelope(t, w).Data))
}

func TestExportHandlerStatus(t *testing.T) {
	svc := &exportJobServiceStub{statusErr: appErrors.ErrForbidden}
	h := NewExportHandler(svc)

	c, w := newGinContext(http.MethodGet, "/exports/job-1", nil)
	c.Params = gin.Params{{Key: "id", Value: "job-1"}}
	c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: "admin-1", Role: models.RoleAdmin})
	h.Status(c)

	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, models.RoleAdmin, svc.role)
}

func TestExportHandlerDownload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "weekly_plan.csv")
	require.NoError(t, os.WriteFile(path, []byte("曜日,時限\n月,1\n"), 0o644))
	file, err := os.Open(path)
	require.NoError(t, err)
	info, err := file.Stat()
	require.NoError(t, err)

	svc := &exportJobServiceStub{download: &service.ExportDownload{
		File:     file,
		Size:     info.Size(),
		Filename: "weekly_plan.csv",
		Format:   models.ExportFormatCSV,
	}}
	h := NewExportHandler(svc)

	c, w := newGinContext(http.MethodGet, "/exports/download/tok", nil)
	c.Params = gin.Params{{Key: "token", Value: "tok"}}
	h.Download(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/csv; charset=utf-8", w.Header().Get("Content-Type"))
	assert.Equal(t, `attachment; filename="weekly_plan.csv"`, w.Header().Get("Content-Disposition"))
	assert.Equal(t, "曜日,時限\n月,1\n", w.Body.String())
}

func TestExportHandlerDownloadRejected(t *testing.T) {
	h := NewExportHandler(&exportJobServiceStub{downloadErr: appErrors.Clone(appErrors.ErrForbidden, "invalid or expired download token")})
	c, w := newGinContext(http.MethodGet, "/exports/download/bad", nil)
	c.Params = gin.Params{{Key: "token", Value: "bad"}}
	h.Download(c)
	assert.Equal(t, http.StatusForbidden, w.Code)
}
