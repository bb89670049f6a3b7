package service

import (
	"context"
	"database/sql"
	"time"

	appErrors "github.com/noah-isme/lms-progress-api/pkg/errors"
	"github.com/noah-isme/lms-progress-api/pkg/export"
)

type courseTitleReader interface {
	FindTitle(ctx context.Context, courseID string) (string, error)
}

type certificateRenderer interface {
	Render(cert export.Certificate) ([]byte, error)
}

// CertificateService issues completion certificates. A certificate is
// available only once the course aggregate reaches 100.
type CertificateService struct {
	enrollments enrollmentStore
	courses     courseTitleReader
	renderer    certificateRenderer
}

func NewCertificateService(enrollments enrollmentStore, courses courseTitleReader, renderer certificateRenderer) *CertificateService {
	return &CertificateService{enrollments: enrollments, courses: courses, renderer: renderer}
}

// Issue renders the completion certificate PDF for one course.
func (s *CertificateService) Issue(ctx context.Context, userID, userName, courseID string) ([]byte, error) {
	enrollment, err := s.enrollments.FindByUserAndCourse(ctx, userID, courseID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "enrollment not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load enrollment")
	}
	if enrollment.OverallProgress < 100 {
		return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "course is not completed yet")
	}

	title, err := s.courses.FindTitle(ctx, courseID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
	}

	completedAt := time.Now().UTC()
	if enrollment.UpdatedAt != nil {
		completedAt = *enrollment.UpdatedAt
	}

	pdf, err := s.renderer.Render(export.Certificate{
		StudentName: userName,
		CourseTitle: title,
		CompletedAt: completedAt,
	})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render certificate")
	}
	return pdf, nil
}
