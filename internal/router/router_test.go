package router

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"github.com/noah-isme/childcare-incidents-api/internal/handler"
	"github.com/noah-isme/childcare-incidents-api/internal/models"
	"github.com/noah-isme/childcare-incidents-api/pkg/config"
)

type staticTokens struct {
	role models.UserRole
}

func (s staticTokens) ValidateToken(token string) (*models.JWTClaims, error) {
	return &models.JWTClaims{UserID: "staff-1", OrganizationID: "org-1", Role: s.role}, nil
}

func newTestEngine(role models.UserRole) *gin.Engine {
	gin.SetMode(gin.TestMode)
	cfg := &config.Config{Env: "test", APIPrefix: "/api/v1"}
	return Setup(cfg, Dependencies{
		Incidents: handler.NewIncidentHandler(nil),
		Reports:   handler.NewReportHandler(nil),
		Metrics:   handler.NewMetricsHandler(nil, nil),
		Tokens:    staticTokens{role: role},
		Logger:    zap.NewNop(),
	})
}

func TestSetupHealthIsPublic(t *testing.T) {
	recorder := httptest.NewRecorder()
	newTestEngine(models.RoleTeacher).ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, recorder.Code)
	assert.NotEmpty(t, recorder.Header().Get("X-Request-ID"))
}

func TestSetupRequiresBearerToken(t *testing.T) {
	recorder := httptest.NewRecorder()
	newTestEngine(models.RoleDirector).ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/api/v1/incidents", nil))
	assert.Equal(t, http.StatusUnauthorized, recorder.Code)
}

func TestSetupRestrictsCloseAndExport(t *testing.T) {
	engine := newTestEngine(models.RoleTeacher)
	for _, target := range []struct{ method, path string }{
		{http.MethodPost, "/api/v1/incidents/inc-1/close"},
		{http.MethodGet, "/api/v1/incidents/export"},
	} {
		recorder := httptest.NewRecorder()
		req := httptest.NewRequest(target.method, target.path, nil)
		req.Header.Set("Authorization", "Bearer token")
		engine.ServeHTTP(recorder, req)
		assert.Equal(t, http.StatusForbidden, recorder.Code, target.path)
	}
}
