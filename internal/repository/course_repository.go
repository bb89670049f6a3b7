package repository

import (
	"context"

	"github.com/jmoiron/sqlx"
)

// CourseRepository reads course metadata. Course authoring lives in
// the catalog application; the engine only needs titles for display
// and certificates.
type CourseRepository struct {
	db *sqlx.DB
}

// NewCourseRepository constructs the repository.
func NewCourseRepository(db *sqlx.DB) *CourseRepository {
	return &CourseRepository{db: db}
}

// FindTitle returns the title of a course.
func (r *CourseRepository) FindTitle(ctx context.Context, courseID string) (string, error) {
	const query = `SELECT title FROM courses WHERE id = $1`
	var title string
	if err := r.db.GetContext(ctx, &title, query, courseID); err != nil {
		return "", err
	}
	return title, nil
}
