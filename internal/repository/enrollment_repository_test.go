package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/lms-progress-api/internal/models"
)

func newEnrollmentRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestEnrollmentRepositoryFindByUserAndCourse(t *testing.T) {
	db, mock, cleanup := newEnrollmentRepoMock(t)
	defer cleanup()
	repo := NewEnrollmentRepository(db)

	now := time.Now()
	rows := sqlmock.NewRows([]string{"id", "user_id", "course_id", "progress", "lessons_progress", "created_at", "updated_at"}).
		AddRow("enr-1", "user-1", "course-1", 50, []byte(`{"lesson-1":100,"lesson-2":90}`), now, nil)
	mock.ExpectQuery(regexp.QuoteMeta("FROM enrollments WHERE user_id = $1 AND course_id = $2")).
		WithArgs("user-1", "course-1").
		WillReturnRows(rows)

	enrollment, err := repo.FindByUserAndCourse(context.Background(), "user-1", "course-1")
	require.NoError(t, err)
	require.Equal(t, 50, enrollment.OverallProgress)
	require.Equal(t, models.LessonProgressMap{"lesson-1": 100, "lesson-2": 90}, enrollment.LessonsProgress)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestEnrollmentRepositoryListByUser(t *testing.T) {
	db, mock, cleanup := newEnrollmentRepoMock(t)
	defer cleanup()
	repo := NewEnrollmentRepository(db)

	now := time.Now()
	rows := sqlmock.NewRows([]string{"id", "user_id", "course_id", "progress", "lessons_progress", "created_at", "updated_at", "course_title"}).
		AddRow("enr-2", "user-1", "course-2", 0, []byte(`{}`), now, nil, "Advanced Topics").
		AddRow("enr-1", "user-1", "course-1", 100, []byte(`{"lesson-1":100}`), now.Add(-time.Hour), &now, "Getting Started")
	mock.ExpectQuery(regexp.QuoteMeta("LEFT JOIN courses c ON c.id = e.course_id")).
		WithArgs("user-1").
		WillReturnRows(rows)

	enrollments, err := repo.ListByUser(context.Background(), "user-1")
	require.NoError(t, err)
	require.Len(t, enrollments, 2)
	require.Equal(t, "Advanced Topics", enrollments[0].CourseTitle)
	require.Equal(t, 100, enrollments[1].OverallProgress)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestEnrollmentRepositoryUpdateProgress(t *testing.T) {
	db, mock, cleanup := newEnrollmentRepoMock(t)
	defer cleanup()
	repo := NewEnrollmentRepository(db)

	now := time.Now().UTC()
	lessons := models.LessonProgressMap{"lesson-1": 100, "lesson-2": 40}
	mock.ExpectExec(regexp.QuoteMeta("UPDATE enrollments SET progress = $2, lessons_progress = $3, updated_at = $4 WHERE id = $1")).
		WithArgs("enr-1", 25, lessons, now).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.UpdateProgress(context.Background(), "enr-1", 25, lessons, now)
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestEnrollmentRepositoryCreateDefaults(t *testing.T) {
	db, mock, cleanup := newEnrollmentRepoMock(t)
	defer cleanup()
	repo := NewEnrollmentRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO enrollments")).
		WillReturnResult(sqlmock.NewResult(0, 1))

	enrollment := &models.Enrollment{UserID: "user-1", CourseID: "course-1"}
	err := repo.Create(context.Background(), enrollment)
	require.NoError(t, err)
	require.NotEmpty(t, enrollment.ID)
	require.False(t, enrollment.CreatedAt.IsZero())
	require.NotNil(t, enrollment.LessonsProgress)
	require.NoError(t, mock.ExpectationsWereMet())
}
