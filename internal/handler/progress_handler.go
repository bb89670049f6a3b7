package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"github.com/noah-isme/lms-progress-api/internal/service"
	appErrors "github.com/noah-isme/lms-progress-api/pkg/errors"
	"github.com/noah-isme/lms-progress-api/pkg/response"
)

// RecordProgressRequest is the manual progress write payload. Most
// progress arrives through playback sessions; this endpoint covers
// clients reporting positions directly.
type RecordProgressRequest struct {
	CourseID string `json:"courseId" validate:"required,uuid4"`
	LessonID string `json:"lessonId" validate:"required,uuid4"`
	Percent  int    `json:"percent" validate:"min=0,max=100"`
}

// EnrollRequest enrolls the learner into a course.
type EnrollRequest struct {
	CourseID string `json:"courseId" validate:"required,uuid4"`
}

// ProgressHandler exposes lesson and course progress endpoints.
type ProgressHandler struct {
	progress *service.ProgressService
	validate *validator.Validate
}

// NewProgressHandler constructs ProgressHandler.
func NewProgressHandler(progress *service.ProgressService, validate *validator.Validate) *ProgressHandler {
	return &ProgressHandler{progress: progress, validate: validate}
}

// Record godoc
// @Summary Record lesson progress
// @Tags Progress
// @Accept json
// @Produce json
// @Param payload body RecordProgressRequest true "Progress payload"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /progress/lessons [post]
func (h *ProgressHandler) Record(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req RecordProgressRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	if err := h.validate.Struct(req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid progress payload"))
		return
	}

	if err := h.progress.RecordLessonProgress(c.Request.Context(), claims.UserID, req.CourseID, req.LessonID, req.Percent); err != nil {
		response.Error(c, err)
		return
	}
	progress, err := h.progress.Progress(c.Request.Context(), claims.UserID, req.CourseID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, progress, nil)
}

// CourseProgress godoc
// @Summary Get course progress
// @Tags Progress
// @Produce json
// @Param courseId path string true "Course ID"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /progress/courses/{courseId} [get]
func (h *ProgressHandler) CourseProgress(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	progress, err := h.progress.Progress(c.Request.Context(), claims.UserID, c.Param("courseId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, progress, nil)
}

// Enroll godoc
// @Summary Enroll into a course
// @Tags Progress
// @Accept json
// @Produce json
// @Param payload body EnrollRequest true "Enrollment payload"
// @Success 201 {object} response.Envelope
// @Security BearerAuth
// @Router /enrollments [post]
func (h *ProgressHandler) Enroll(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req EnrollRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	if err := h.validate.Struct(req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid enrollment payload"))
		return
	}

	enrollment, err := h.progress.Enroll(c.Request.Context(), claims.UserID, req.CourseID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, enrollment)
}

// ListEnrollments godoc
// @Summary List the learner's enrollments
// @Tags Progress
// @Produce json
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /enrollments [get]
func (h *ProgressHandler) ListEnrollments(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	enrollments, err := h.progress.ListEnrollments(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, enrollments, nil)
}
