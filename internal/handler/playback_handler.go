package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"github.com/noah-isme/lms-progress-api/internal/playback"
	"github.com/noah-isme/lms-progress-api/internal/service"
	appErrors "github.com/noah-isme/lms-progress-api/pkg/errors"
	"github.com/noah-isme/lms-progress-api/pkg/response"
)

// OpenSessionRequest opens a monitored playback session for a lesson.
type OpenSessionRequest struct {
	CourseID string `json:"courseId" validate:"required,uuid4"`
	LessonID string `json:"lessonId" validate:"required,uuid4"`
}

// PlaybackEventRequest is one telemetry report from the client player.
type PlaybackEventRequest struct {
	Position float64 `json:"position" validate:"min=0"`
	Duration float64 `json:"duration" validate:"min=0"`
	State    string  `json:"state" validate:"required"`
}

// SessionResponse describes an opened session.
type SessionResponse struct {
	LessonID     string `json:"lesson_id"`
	PollInterval string `json:"poll_interval"`
}

// PlaybackHandler exposes playback session endpoints. Sessions hold a
// server-side monitor fed by client telemetry reports.
type PlaybackHandler struct {
	manager  *playback.SessionManager
	metrics  *service.MetricsService
	validate *validator.Validate
}

// NewPlaybackHandler constructs PlaybackHandler.
func NewPlaybackHandler(manager *playback.SessionManager, metrics *service.MetricsService, validate *validator.Validate) *PlaybackHandler {
	return &PlaybackHandler{manager: manager, metrics: metrics, validate: validate}
}

// Open godoc
// @Summary Open a playback session
// @Tags Playback
// @Accept json
// @Produce json
// @Param payload body OpenSessionRequest true "Session payload"
// @Success 201 {object} response.Envelope
// @Security BearerAuth
// @Router /playback/sessions [post]
func (h *PlaybackHandler) Open(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req OpenSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	if err := h.validate.Struct(req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid session payload"))
		return
	}

	player := playback.NewRemotePlayer()
	if _, err := h.manager.Open(c.Request.Context(), claims.UserID, req.CourseID, req.LessonID, player); err != nil {
		response.Error(c, err)
		return
	}
	h.metrics.SetActiveSessions(h.manager.Count())
	response.Created(c, SessionResponse{
		LessonID:     req.LessonID,
		PollInterval: playback.DefaultPollInterval.String(),
	})
}

// Report godoc
// @Summary Report playback telemetry
// @Tags Playback
// @Accept json
// @Produce json
// @Param lessonId path string true "Lesson ID"
// @Param payload body PlaybackEventRequest true "Telemetry payload"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /playback/sessions/{lessonId}/events [post]
func (h *PlaybackHandler) Report(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req PlaybackEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	state, ok := playback.ParseState(req.State)
	if !ok {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "unknown playback state"))
		return
	}

	monitor := h.manager.Find(claims.UserID, c.Param("lessonId"))
	if monitor == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrNotFound, "playback session not found"))
		return
	}
	if player, ok := monitor.Player().(*playback.RemotePlayer); ok {
		player.Report(req.Position, req.Duration, state)
	}
	monitor.HandleStateChange(state)
	response.JSON(c, http.StatusOK, gin.H{"state": state.String()}, nil)
}

// Close godoc
// @Summary Close a playback session
// @Tags Playback
// @Produce json
// @Param lessonId path string true "Lesson ID"
// @Success 204
// @Security BearerAuth
// @Router /playback/sessions/{lessonId} [delete]
func (h *PlaybackHandler) Close(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	h.manager.Close(claims.UserID, c.Param("lessonId"))
	h.metrics.SetActiveSessions(h.manager.Count())
	response.NoContent(c)
}
