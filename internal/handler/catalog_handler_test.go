package handler

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shuankun/shuankun-api/internal/dto"
	"github.com/shuankun/shuankun-api/internal/models"
	appErrors "github.com/shuankun/shuankun-api/pkg/errors"
)

type catalogServiceStub struct {
	filter    models.TextbookUnitFilter
	createErr error
}

func (s *catalogServiceStub) ListSubjects(_ context.Context) ([]models.Subject, error) {
	return []models.Subject{{ID: "s-kokugo", Name: "国語", Category: models.SubjectCategoryCore}}, nil
}

func (s *catalogServiceStub) ListPublishers(_ context.Context) ([]models.Publisher, error) {
	return []models.Publisher{}, nil
}

func (s *catalogServiceStub) CreatePublisher(_ context.Context, req dto.CreatePublisherRequest) (*models.Publisher, error) {
	if s.createErr != nil {
		return nil, s.createErr
	}
	return &models.Publisher{ID: "pub-1", Name: req.Name, Code: req.Code}, nil
}

func (s *catalogServiceStub) ListTextbookUnits(_ context.Context, filter models.TextbookUnitFilter) ([]models.TextbookUnit, error) {
	s.filter = filter
	return []models.TextbookUnit{}, nil
}

func (s *catalogServiceStub) CreateTextbookUnit(_ context.Context, req dto.CreateTextbookUnitRequest) (*models.TextbookUnit, error) {
	return &models.TextbookUnit{ID: "unit-1", UnitName: req.UnitName}, nil
}

func TestCatalogHandlerListSubjects(t *testing.T) {
	h := NewCatalogHandler(&catalogServiceStub{})
	c, w := newGinContext(http.MethodGet, "/subjects", nil)
	h.ListSubjects(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, string(decodeEnvelope(t, w).Data), "国語")
}

func TestCatalogHandlerCreatePublisher(t *testing.T) {
	svc := &catalogServiceStub{}
	h := NewCatalogHandler(svc)

	c, w := newGinContext(http.MethodPost, "/publishers", dto.CreatePublisherRequest{Name: "東京書籍", Code: "tokyo-shoseki"})
	h.CreatePublisher(c)
	assert.Equal(t, http.StatusCreated, w.Code)

	svc.createErr = appErrors.Clone(appErrors.ErrConflict, "publisher code already exists")
	c, w = newGinContext(http.MethodPost, "/publishers", dto.CreatePublisherRequest{Name: "東京書籍", Code: "tokyo-shoseki"})
	h.CreatePublisher(c)
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestCatalogHandlerTextbookUnits(t *testing.T) {
	svc := &catalogServiceStub{}
	h := NewCatalogHandler(svc)

	c, w := newGinContext(http.MethodGet, "/textbook-units?subject_id=s-kokugo&publisher_id=p-1&grade=5", nil)
	h.ListTextbookUnits(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, models.TextbookUnitFilter{SubjectID: "s-kokugo", PublisherID: "p-1", Grade: 5}, svc.filter)

	c, w = newGinContext(http.MethodPost, "/textbook-units", dto.CreateTextbookUnitRequest{PublisherID: "p-1", SubjectID: "s-kokugo", Grade: 5, UnitOrder: 1, UnitName: "なまえつけてよ"})
	h.CreateTextbookUnit(c)
	assert.Equal(t, http.StatusCreated, w.Code)
}
