package handler

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/lms-progress-api/internal/service"
	appErrors "github.com/noah-isme/lms-progress-api/pkg/errors"
	"github.com/noah-isme/lms-progress-api/pkg/response"
)

// CertificateHandler exposes the completion certificate download.
type CertificateHandler struct {
	certificates *service.CertificateService
}

// NewCertificateHandler constructs CertificateHandler.
func NewCertificateHandler(certificates *service.CertificateService) *CertificateHandler {
	return &CertificateHandler{certificates: certificates}
}

// Download godoc
// @Summary Download the course completion certificate
// @Tags Certificates
// @Produce application/pdf
// @Param courseId path string true "Course ID"
// @Success 200 {file} binary
// @Security BearerAuth
// @Router /courses/{courseId}/certificate [get]
func (h *CertificateHandler) Download(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	courseID := c.Param("courseId")
	pdf, err := h.certificates.Issue(c.Request.Context(), claims.UserID, claims.Name, courseID)
	if err != nil {
		response.Error(c, err)
		return
	}
	filename := fmt.Sprintf("certificate-%s.pdf", courseID)
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, "application/pdf", pdf)
}
