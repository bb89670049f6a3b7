package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/lms-progress-api/internal/models"
)

// EnrollmentRepository handles persistence of enrollments.
type EnrollmentRepository struct {
	db *sqlx.DB
}

// NewEnrollmentRepository constructs the repository.
func NewEnrollmentRepository(db *sqlx.DB) *EnrollmentRepository {
	return &EnrollmentRepository{db: db}
}

// FindByUserAndCourse returns the enrollment linking a learner to a
// course. Callers translate sql.ErrNoRows into a precondition failure.
func (r *EnrollmentRepository) FindByUserAndCourse(ctx context.Context, userID, courseID string) (*models.Enrollment, error) {
	const query = `SELECT id, user_id, course_id, progress, lessons_progress, created_at, updated_at
        FROM enrollments WHERE user_id = $1 AND course_id = $2`
	var enrollment models.Enrollment
	if err := r.db.GetContext(ctx, &enrollment, query, userID, courseID); err != nil {
		return nil, err
	}
	return &enrollment, nil
}

// ListByUser returns all enrollments of a learner with course titles,
// newest first.
func (r *EnrollmentRepository) ListByUser(ctx context.Context, userID string) ([]models.EnrollmentDetail, error) {
	const query = `SELECT e.id, e.user_id, e.course_id, e.progress, e.lessons_progress, e.created_at, e.updated_at,
        COALESCE(c.title, '') AS course_title
        FROM enrollments e
        LEFT JOIN courses c ON c.id = e.course_id
        WHERE e.user_id = $1
        ORDER BY e.created_at DESC`
	var enrollments []models.EnrollmentDetail
	if err := r.db.SelectContext(ctx, &enrollments, query, userID); err != nil {
		return nil, fmt.Errorf("list enrollments: %w", err)
	}
	return enrollments, nil
}

// UpdateProgress persists the aggregate and per-lesson progress in one
// atomic update, stamping updated_at.
func (r *EnrollmentRepository) UpdateProgress(ctx context.Context, id string, overall int, lessons models.LessonProgressMap, updatedAt time.Time) error {
	const query = `UPDATE enrollments SET progress = $2, lessons_progress = $3, updated_at = $4 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, overall, lessons, updatedAt); err != nil {
		return fmt.Errorf("update enrollment progress: %w", err)
	}
	return nil
}

// Create persists a new enrollment record, filling in the ID, the
// creation time and an empty progress map when absent.
func (r *EnrollmentRepository) Create(ctx context.Context, enrollment *models.Enrollment) error {
	if enrollment.ID == "" {
		enrollment.ID = uuid.NewString()
	}
	if enrollment.CreatedAt.IsZero() {
		enrollment.CreatedAt = time.Now().UTC()
	}
	if enrollment.LessonsProgress == nil {
		enrollment.LessonsProgress = models.LessonProgressMap{}
	}
	const query = `INSERT INTO enrollments (id, user_id, course_id, progress, lessons_progress, created_at)
        VALUES (:id, :user_id, :course_id, :progress, :lessons_progress, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, enrollment); err != nil {
		return fmt.Errorf("create enrollment: %w", err)
	}
	return nil
}
