package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"github.com/noah-isme/lms-progress-api/internal/service"
	appErrors "github.com/noah-isme/lms-progress-api/pkg/errors"
	"github.com/noah-isme/lms-progress-api/pkg/response"
)

// SubmitAttemptRequest carries the learner's selected option indexes,
// one per question in quiz order. -1 marks an unanswered question.
type SubmitAttemptRequest struct {
	Answers []int `json:"answers" validate:"required"`
}

// AssessmentHandler exposes quiz attempt endpoints.
type AssessmentHandler struct {
	assessments *service.AssessmentService
	validate    *validator.Validate
}

// NewAssessmentHandler constructs AssessmentHandler.
func NewAssessmentHandler(assessments *service.AssessmentService, validate *validator.Validate) *AssessmentHandler {
	return &AssessmentHandler{assessments: assessments, validate: validate}
}

// Submit godoc
// @Summary Submit a quiz attempt
// @Tags Assessments
// @Accept json
// @Produce json
// @Param quizId path string true "Quiz ID"
// @Param payload body SubmitAttemptRequest true "Answers payload"
// @Success 201 {object} response.Envelope
// @Security BearerAuth
// @Router /quizzes/{quizId}/attempts [post]
func (h *AssessmentHandler) Submit(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req SubmitAttemptRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	if err := h.validate.Struct(req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid attempt payload"))
		return
	}

	result, err := h.assessments.SubmitAttempt(c.Request.Context(), claims.UserID, c.Param("quizId"), req.Answers)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, result)
}

// List godoc
// @Summary List the learner's attempts grouped by quiz
// @Tags Assessments
// @Produce json
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /attempts [get]
func (h *AssessmentHandler) List(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	histories, err := h.assessments.ListAttempts(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, histories, nil)
}

// ListForQuiz godoc
// @Summary List the learner's attempts for one quiz
// @Tags Assessments
// @Produce json
// @Param quizId path string true "Quiz ID"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /quizzes/{quizId}/attempts [get]
func (h *AssessmentHandler) ListForQuiz(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	records, err := h.assessments.ListQuizAttempts(c.Request.Context(), claims.UserID, c.Param("quizId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, records, nil)
}
