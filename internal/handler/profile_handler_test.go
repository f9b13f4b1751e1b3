package handler

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shuankun/shuankun-api/internal/dto"
	"github.com/shuankun/shuankun-api/internal/models"
	appErrors "github.com/shuankun/shuankun-api/pkg/errors"
)

type profileServiceStub struct {
	email    string
	grade    int
	replaced dto.ReplaceSubjectsRequest
	getErr   error
}

func (s *profileServiceStub) Get(_ context.Context, userID string) (*models.TeacherProfile, error) {
	if s.getErr != nil {
		return nil, s.getErr
	}
	return &models.TeacherProfile{UserID: userID, Role: models.TeacherRoleSpecialist}, nil
}

func (s *profileServiceStub) Update(_ context.Context, userID, email string, req dto.UpdateProfileRequest) (*models.TeacherProfile, error) {
	s.email = email
	return &models.TeacherProfile{UserID: userID, Role: req.Role, Grade: req.Grade, ClassNumber: req.ClassNumber}, nil
}

func (s *profileServiceStub) ListSubjects(_ context.Context, _ string, grade int) ([]models.UserSubject, error) {
	s.grade = grade
	return []models.UserSubject{}, nil
}

func (s *profileServiceStub) ReplaceSubjects(_ context.Context, _ string, req dto.ReplaceSubjectsRequest) ([]models.UserSubject, error) {
	s.replaced = req
	return []models.UserSubject{}, nil
}

func TestProfileHandlerGet(t *testing.T) {
	svc := &profileServiceStub{getErr: appErrors.Clone(appErrors.ErrNotFound, "profile not configured")}
	h := NewProfileHandler(svc)

	c, w := newGinContext(http.MethodGet, "/profile", nil)
	asTeacher(c, "user-1")
	h.Get(c)
	assert.Equal(t, http.StatusNotFound, w.Code)

	svc.getErr = nil
	c, w = newGinContext(http.MethodGet, "/profile", nil)
	asTeacher(c, "user-1")
	h.Get(c)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestProfileHandlerUpdatePassesEmail(t *testing.T) {
	svc := &profileServiceStub{}
	h := NewProfileHandler(svc)

	c, w := newGinContext(http.MethodPut, "/profile", `{"role":"homeroom","grade":5,"class_number":2}`)
	asTeacher(c, "user-1")
	h.Update(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "user-1@school.jp", svc.email)
	assert.Contains(t, string(decodeEnvelope(t, w).Data), `"grade":5`)
}

func TestProfileHandlerSubjects(t *testing.T) {
	svc := &profileServiceStub{}
	h := NewProfileHandler(svc)

	c, w := newGinContext(http.MethodGet, "/profile/subjects?grade=5", nil)
	asTeacher(c, "user-1")
	h.ListSubjects(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 5, svc.grade)

	c, w = newGinContext(http.MethodPut, "/profile/subjects", `{"subjects":[{"subject_id":"s-kokugo","publisher_id":"p-1","grade":5}]}`)
	asTeacher(c, "user-1")
	h.ReplaceSubjects(c)
	require.Equal(t, http.StatusOK, w.Code)
	require.Len(t, svc.replaced.Subjects, 1)
	assert.Equal(t, "p-1", svc.replaced.Subjects[0].PublisherID)
}

type scheduleServiceStub struct {
	saved dto.SaveScheduleRequest
}

func (s *scheduleServiceStub) GetDefault(_ context.Context, _ string) (*models.Schedule, error) {
	return nil, appErrors.Clone(appErrors.ErrNotFound, "default schedule not found")
}

func (s *scheduleServiceStub) SaveDefault(_ context.Context, userID string, req dto.SaveScheduleRequest) (*models.Schedule, error) {
	s.saved = req
	return &models.Schedule{ID: "sched-1", UserID: userID, Name: req.Name, IsDefault: true, DailyPeriods: req.DailyPeriods}, nil
}

func TestScheduleHandler(t *testing.T) {
	svc := &scheduleServiceStub{}
	h := NewScheduleHandler(svc)

	c, w := newGinContext(http.MethodGet, "/schedules/default", nil)
	asTeacher(c, "user-1")
	h.GetDefault(c)
	assert.Equal(t, http.StatusNotFound, w.Code)

	c, w = newGinContext(http.MethodPut, "/schedules/default", `{"name":"基本時間割","daily_periods":{"3":5},"details":[{"day_of_week":1,"period":1,"subject_id":"s-kokugo"}]}`)
	asTeacher(c, "user-1")
	h.SaveDefault(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, models.DailyPeriods{3: 5}, svc.saved.DailyPeriods)
	assert.Len(t, svc.saved.Details, 1)
}

type eventServiceStub struct {
	query     dto.EventRangeQuery
	deleteErr error
}

func (s *eventServiceStub) List(_ context.Context, _ string, query dto.EventRangeQuery) ([]models.SchoolEvent, error) {
	s.query = query
	return []models.SchoolEvent{}, nil
}

func (s *eventServiceStub) Create(_ context.Context, userID string, req dto.CreateEventRequest) (*models.SchoolEvent, error) {
	return &models.SchoolEvent{ID: "ev-1", UserID: userID, Name: req.Name, EventDate: time.Date(2024, 10, 5, 0, 0, 0, 0, time.UTC)}, nil
}

func (s *eventServiceStub) Delete(_ context.Context, _, _ string) error {
	return s.deleteErr
}

func TestEventHandler(t *testing.T) {
	svc := &eventServiceStub{deleteErr: appErrors.Clone(appErrors.ErrNotFound, "event not found")}
	h := NewEventHandler(svc)

	c, w := newGinContext(http.MethodGet, "/events?from=2024-10-01&to=2024-10-31", nil)
	asTeacher(c, "user-1")
	h.List(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, dto.EventRangeQuery{From: "2024-10-01", To: "2024-10-31"}, svc.query)

	c, w = newGinContext(http.MethodPost, "/events", dto.CreateEventRequest{Name: "運動会", EventDate: "2024-10-05", HoursFraction: 0.5})
	asTeacher(c, "user-1")
	h.Create(c)
	assert.Equal(t, http.StatusCreated, w.Code)

	c, w = newGinContext(http.MethodDelete, "/events/ev-1", nil)
	c.Params = gin.Params{{Key: "id", Value: "ev-1"}}
	asTeacher(c, "user-1")
	h.Delete(c)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
