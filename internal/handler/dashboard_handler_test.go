package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/lms-progress-api/internal/middleware"
	"github.com/noah-isme/lms-progress-api/internal/models"
	"github.com/noah-isme/lms-progress-api/internal/service"
)

type fakeDashboardSrv struct {
	summary *service.DashboardSummary
	cached  bool
	err     error
	userID  string
}

func (f *fakeDashboardSrv) Summary(_ context.Context, userID string) (*service.DashboardSummary, bool, error) {
	f.userID = userID
	return f.summary, f.cached, f.err
}

func authedContext(rec *httptest.ResponseRecorder, method, target string) *gin.Context {
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(method, target, nil)
	c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: "user-1", Name: "Dana Smith"})
	return c
}

func TestDashboardHandlerRequiresAuth(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewDashboardHandler(&fakeDashboardSrv{})

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/dashboard", nil)

	handler.Summary(c)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestDashboardHandlerSummary(t *testing.T) {
	gin.SetMode(gin.TestMode)
	srv := &fakeDashboardSrv{
		summary: &service.DashboardSummary{CoursesCompleted: 1, QuizzesTaken: 2},
		cached:  true,
	}
	handler := NewDashboardHandler(srv)

	rec := httptest.NewRecorder()
	c := authedContext(rec, http.MethodGet, "/dashboard")

	handler.Summary(c)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "user-1", srv.userID)

	var envelope struct {
		Data service.DashboardSummary `json:"data"`
		Meta map[string]interface{}   `json:"meta"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	assert.Equal(t, 1, envelope.Data.CoursesCompleted)
	assert.Equal(t, true, envelope.Meta["cache"])
}
