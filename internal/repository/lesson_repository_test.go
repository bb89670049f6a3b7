package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"
)

func TestLessonRepositoryCountByCourse(t *testing.T) {
	db, mock, cleanup := newEnrollmentRepoMock(t)
	defer cleanup()
	repo := NewLessonRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM lessons WHERE course_id = $1")).
		WithArgs("course-1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(4))

	total, err := repo.CountByCourse(context.Background(), "course-1")
	require.NoError(t, err)
	require.Equal(t, 4, total)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestLessonRepositoryListByCourse(t *testing.T) {
	db, mock, cleanup := newEnrollmentRepoMock(t)
	defer cleanup()
	repo := NewLessonRepository(db)

	now := time.Now()
	rows := sqlmock.NewRows([]string{"id", "course_id", "title", "position", "video_url", "created_at"}).
		AddRow("l1", "course-1", "Intro", 1, "https://videos.example/l1", now).
		AddRow("l2", "course-1", "Deep Dive", 2, "https://videos.example/l2", now)
	mock.ExpectQuery(regexp.QuoteMeta("FROM lessons WHERE course_id = $1 ORDER BY position ASC")).
		WithArgs("course-1").
		WillReturnRows(rows)

	lessons, err := repo.ListByCourse(context.Background(), "course-1")
	require.NoError(t, err)
	require.Len(t, lessons, 2)
	require.Equal(t, "Intro", lessons[0].Title)
	require.Equal(t, 2, lessons[1].Position)
	require.NoError(t, mock.ExpectationsWereMet())
}
