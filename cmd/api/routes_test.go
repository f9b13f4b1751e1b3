package main

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"github.com/shuankun/shuankun-api/internal/handler"
	"github.com/shuankun/shuankun-api/internal/models"
	"github.com/shuankun/shuankun-api/pkg/config"
	appErrors "github.com/shuankun/shuankun-api/pkg/errors"
)

type staticValidator map[string]*models.JWTClaims

func (v staticValidator) ValidateToken(token string) (*models.JWTClaims, error) {
	if claims, ok := v[token]; ok {
		return claims, nil
	}
	return nil, appErrors.Clone(appErrors.ErrUnauthorized, "invalid token")
}

func testRouterConfig(env string) *config.Config {
	return &config.Config{Env: env, APIPrefix: "/api/v1", Metrics: config.MetricsConfig{Enabled: true}}
}

func TestRouterGuards(t *testing.T) {
	auth := staticValidator{"teacher": {UserID: "user-1", Role: models.RoleTeacher}}
	r := newRouter(testRouterConfig(config.EnvDevelopment), zap.NewNop(), auth, nil, routeHandlers{
		system: handler.NewMetricsHandler(nil, zap.NewNop(), nil),
	})

	cases := []struct {
		name   string
		method string
		path   string
		token  string
		status int
	}{
		{"health is public", http.MethodGet, "/health", "", http.StatusOK},
		{"ready without deps", http.MethodGet, "/ready", "", http.StatusOK},
		{"profile needs token", http.MethodGet, "/api/v1/profile", "", http.StatusUnauthorized},
		{"weekly plans need token", http.MethodPost, "/api/v1/weekly-plans/adjust", "", http.StatusUnauthorized},
		{"bad token", http.MethodGet, "/api/v1/hours/report", "forged", http.StatusUnauthorized},
		{"publisher create is admin only", http.MethodPost, "/api/v1/publishers", "teacher", http.StatusForbidden},
		{"unit create is admin only", http.MethodPost, "/api/v1/textbook-units", "teacher", http.StatusForbidden},
		{"exports disabled", http.MethodPost, "/api/v1/exports", "teacher", http.StatusNotFound},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(tc.method, tc.path, nil)
			if tc.token != "" {
				req.Header.Set("Authorization", "Bearer "+tc.token)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)
			assert.Equal(t, tc.status, w.Code)
		})
	}
}

func TestRouterHidesDocsInProduction(t *testing.T) {
	h := routeHandlers{system: handler.NewMetricsHandler(nil, zap.NewNop(), nil)}

	dev := newRouter(testRouterConfig(config.EnvDevelopment), zap.NewNop(), staticValidator{}, nil, h)
	w := httptest.NewRecorder()
	dev.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/docs/doc.json", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	prod := newRouter(testRouterConfig(config.EnvProduction), zap.NewNop(), staticValidator{}, nil, h)
	w = httptest.NewRecorder()
	prod.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/docs/doc.json", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}
