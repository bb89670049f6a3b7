package service

import (
	"context"
	"database/sql"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/lms-progress-api/internal/models"
	appErrors "github.com/noah-isme/lms-progress-api/pkg/errors"
)

type mockEnrollmentStore struct {
	mu          sync.Mutex
	enrollments map[string]models.Enrollment
	updates     int
	creates     int
	updateErr   error
	block       chan struct{}
}

func enrollmentKey(userID, courseID string) string { return userID + "/" + courseID }

func (m *mockEnrollmentStore) FindByUserAndCourse(_ context.Context, userID, courseID string) (*models.Enrollment, error) {
	if m.block != nil {
		<-m.block
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if e, ok := m.enrollments[enrollmentKey(userID, courseID)]; ok {
		copied := e
		return &copied, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockEnrollmentStore) ListByUser(_ context.Context, userID string) ([]models.EnrollmentDetail, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.EnrollmentDetail
	for _, e := range m.enrollments {
		if e.UserID == userID {
			out = append(out, models.EnrollmentDetail{Enrollment: e})
		}
	}
	return out, nil
}

func (m *mockEnrollmentStore) UpdateProgress(_ context.Context, id string, overall int, lessons models.LessonProgressMap, updatedAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.updateErr != nil {
		return m.updateErr
	}
	m.updates++
	for key, e := range m.enrollments {
		if e.ID == id {
			e.OverallProgress = overall
			e.LessonsProgress = lessons
			e.UpdatedAt = &updatedAt
			m.enrollments[key] = e
		}
	}
	return nil
}

func (m *mockEnrollmentStore) Create(_ context.Context, enrollment *models.Enrollment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if enrollment.ID == "" {
		enrollment.ID = "enr-" + enrollment.CourseID
	}
	m.creates++
	m.enrollments[enrollmentKey(enrollment.UserID, enrollment.CourseID)] = *enrollment
	return nil
}

func (m *mockEnrollmentStore) get(userID, courseID string) models.Enrollment {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.enrollments[enrollmentKey(userID, courseID)]
}

type mockLessonRoster struct {
	counts  map[string]int
	rosters map[string][]models.Lesson
}

func (m *mockLessonRoster) CountByCourse(_ context.Context, courseID string) (int, error) {
	return m.counts[courseID], nil
}

func (m *mockLessonRoster) ListByCourse(_ context.Context, courseID string) ([]models.Lesson, error) {
	return m.rosters[courseID], nil
}

type mockNotifier struct {
	mu      sync.Mutex
	lessons []string
}

func (m *mockNotifier) NotifyLessonCompleted(_, _, lessonID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lessons = append(m.lessons, lessonID)
}

func (m *mockNotifier) notified() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.lessons))
	copy(out, m.lessons)
	return out
}

type mockInvalidator struct {
	mu    sync.Mutex
	users []string
}

func (m *mockInvalidator) InvalidateSummary(_ context.Context, userID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users = append(m.users, userID)
}

func newProgressFixture(enrollment models.Enrollment, totalLessons int) (*ProgressService, *mockEnrollmentStore, *mockNotifier, *mockInvalidator) {
	store := &mockEnrollmentStore{enrollments: map[string]models.Enrollment{
		enrollmentKey(enrollment.UserID, enrollment.CourseID): enrollment,
	}}
	roster := &mockLessonRoster{counts: map[string]int{enrollment.CourseID: totalLessons}}
	notifier := &mockNotifier{}
	invalidator := &mockInvalidator{}
	svc := NewProgressService(store, roster, notifier, invalidator, nil, 90, nil)
	return svc, store, notifier, invalidator
}

func TestRecordLessonProgressAggregates(t *testing.T) {
	svc, store, _, invalidator := newProgressFixture(models.Enrollment{
		ID:       "enr-1",
		UserID:   "user-1",
		CourseID: "course-1",
		LessonsProgress: models.LessonProgressMap{
			"l1": 100, "l2": 90, "l3": 40,
		},
	}, 4)

	err := svc.RecordLessonProgress(context.Background(), "user-1", "course-1", "l4", 10)
	require.NoError(t, err)

	updated := store.get("user-1", "course-1")
	// Two of four lessons are at or above 90.
	assert.Equal(t, 50, updated.OverallProgress)
	assert.Equal(t, 10, updated.LessonsProgress["l4"])
	assert.NotNil(t, updated.UpdatedAt)
	assert.Equal(t, []string{"user-1"}, invalidator.users)
}

func TestRecordLessonProgressIdempotentForSamePercent(t *testing.T) {
	svc, store, _, _ := newProgressFixture(models.Enrollment{
		ID: "enr-1", UserID: "user-1", CourseID: "course-1",
		LessonsProgress: models.LessonProgressMap{},
	}, 2)

	require.NoError(t, svc.RecordLessonProgress(context.Background(), "user-1", "course-1", "l1", 50))
	first := store.get("user-1", "course-1")
	require.NoError(t, svc.RecordLessonProgress(context.Background(), "user-1", "course-1", "l1", 50))
	second := store.get("user-1", "course-1")

	assert.Equal(t, first.OverallProgress, second.OverallProgress)
	assert.Equal(t, first.LessonsProgress, second.LessonsProgress)
}

func TestRecordLessonProgressUnknownEnrollment(t *testing.T) {
	svc, _, _, _ := newProgressFixture(models.Enrollment{
		ID: "enr-1", UserID: "user-1", CourseID: "course-1",
	}, 2)

	err := svc.RecordLessonProgress(context.Background(), "user-1", "course-9", "l1", 25)
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErr.Code)
}

func TestRecordLessonProgressRejectsOutOfRangePercent(t *testing.T) {
	svc, _, _, _ := newProgressFixture(models.Enrollment{
		ID: "enr-1", UserID: "user-1", CourseID: "course-1",
	}, 2)

	for _, percent := range []int{-1, 101} {
		err := svc.RecordLessonProgress(context.Background(), "user-1", "course-1", "l1", percent)
		require.Error(t, err)
		assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
	}
}

func TestRecordLessonProgressDropsConcurrentWrites(t *testing.T) {
	svc, store, _, _ := newProgressFixture(models.Enrollment{
		ID: "enr-1", UserID: "user-1", CourseID: "course-1",
		LessonsProgress: models.LessonProgressMap{},
	}, 4)

	block := make(chan struct{})
	store.block = block

	done := make(chan error, 1)
	go func() {
		done <- svc.RecordLessonProgress(context.Background(), "user-1", "course-1", "l1", 25)
	}()

	// Wait for the first write to hold the per-user slot.
	require.Eventually(t, func() bool {
		if svc.tryAcquire("user-1") {
			svc.release("user-1")
			return false
		}
		return true
	}, time.Second, time.Millisecond)

	// A second write for the same user is dropped without error.
	err := svc.RecordLessonProgress(context.Background(), "user-1", "course-1", "l2", 50)
	require.NoError(t, err)

	close(block)
	require.NoError(t, <-done)

	updated := store.get("user-1", "course-1")
	assert.Equal(t, 25, updated.LessonsProgress["l1"])
	_, hasL2 := updated.LessonsProgress["l2"]
	assert.False(t, hasL2, "concurrent write must be dropped, not queued")
}

func TestRecordLessonProgressNotifiesOncePerLesson(t *testing.T) {
	svc, _, notifier, _ := newProgressFixture(models.Enrollment{
		ID: "enr-1", UserID: "user-1", CourseID: "course-1",
		LessonsProgress: models.LessonProgressMap{},
	}, 2)

	require.NoError(t, svc.RecordLessonProgress(context.Background(), "user-1", "course-1", "l1", 90))
	require.NoError(t, svc.RecordLessonProgress(context.Background(), "user-1", "course-1", "l1", 100))
	assert.Equal(t, []string{"l1"}, notifier.notified())

	// Closing the playback session re-arms the notification.
	svc.EndSession("user-1", "l1")
	require.NoError(t, svc.RecordLessonProgress(context.Background(), "user-1", "course-1", "l1", 100))
	assert.Equal(t, []string{"l1", "l1"}, notifier.notified())
}

func TestRecordLessonProgressBelowThresholdDoesNotNotify(t *testing.T) {
	svc, _, notifier, _ := newProgressFixture(models.Enrollment{
		ID: "enr-1", UserID: "user-1", CourseID: "course-1",
		LessonsProgress: models.LessonProgressMap{},
	}, 2)

	require.NoError(t, svc.RecordLessonProgress(context.Background(), "user-1", "course-1", "l1", 75))
	assert.Empty(t, notifier.notified())
}

func TestLessonPercentReturnsPersistedValue(t *testing.T) {
	svc, _, _, _ := newProgressFixture(models.Enrollment{
		ID: "enr-1", UserID: "user-1", CourseID: "course-1",
		LessonsProgress: models.LessonProgressMap{"l1": 75},
	}, 2)

	percent, err := svc.LessonPercent(context.Background(), "user-1", "course-1", "l1")
	require.NoError(t, err)
	assert.Equal(t, 75, percent)

	percent, err = svc.LessonPercent(context.Background(), "user-1", "course-1", "l2")
	require.NoError(t, err)
	assert.Equal(t, 0, percent)
}

func TestEndSessionClearsOnlyClosedLesson(t *testing.T) {
	svc, _, notifier, _ := newProgressFixture(models.Enrollment{
		ID: "enr-1", UserID: "user-1", CourseID: "course-1",
		LessonsProgress: models.LessonProgressMap{},
	}, 2)

	require.NoError(t, svc.RecordLessonProgress(context.Background(), "user-1", "course-1", "l1", 95))
	require.NoError(t, svc.RecordLessonProgress(context.Background(), "user-1", "course-1", "l2", 95))
	svc.EndSession("user-1", "l1")

	require.NoError(t, svc.RecordLessonProgress(context.Background(), "user-1", "course-1", "l1", 100))
	require.NoError(t, svc.RecordLessonProgress(context.Background(), "user-1", "course-1", "l2", 100))
	assert.Equal(t, []string{"l1", "l2", "l1"}, notifier.notified())
}

func TestProgressAnnotatesLessonRoster(t *testing.T) {
	svc, _, _, _ := newProgressFixture(models.Enrollment{
		ID: "enr-1", UserID: "user-1", CourseID: "course-1",
		OverallProgress: 50,
		LessonsProgress: models.LessonProgressMap{"l1": 95, "l2": 40},
	}, 2)
	svc.lessons.(*mockLessonRoster).rosters = map[string][]models.Lesson{
		"course-1": {
			{ID: "l1", CourseID: "course-1", Title: "Intro", Position: 1},
			{ID: "l2", CourseID: "course-1", Title: "Deep Dive", Position: 2},
		},
	}

	progress, err := svc.Progress(context.Background(), "user-1", "course-1")
	require.NoError(t, err)
	require.Len(t, progress.Lessons, 2)
	assert.Equal(t, "Intro", progress.Lessons[0].Title)
	assert.Equal(t, 95, progress.Lessons[0].Percent)
	assert.True(t, progress.Lessons[0].Completed)
	assert.Equal(t, 40, progress.Lessons[1].Percent)
	assert.False(t, progress.Lessons[1].Completed)
}

func TestEnrollCreatesOnceAndInvalidates(t *testing.T) {
	svc, store, _, invalidator := newProgressFixture(models.Enrollment{
		ID: "enr-1", UserID: "user-1", CourseID: "course-1",
	}, 2)

	enrollment, err := svc.Enroll(context.Background(), "user-1", "course-2")
	require.NoError(t, err)
	assert.NotEmpty(t, enrollment.ID)
	assert.Equal(t, "course-2", enrollment.CourseID)
	assert.NotNil(t, enrollment.LessonsProgress)
	assert.Equal(t, 1, store.creates)
	assert.Equal(t, []string{"user-1"}, invalidator.users)

	// Enrolling again returns the existing record.
	again, err := svc.Enroll(context.Background(), "user-1", "course-2")
	require.NoError(t, err)
	assert.Equal(t, enrollment.ID, again.ID)
	assert.Equal(t, 1, store.creates)
}

func TestAggregateRounding(t *testing.T) {
	svc, _, _, _ := newProgressFixture(models.Enrollment{
		ID: "enr-1", UserID: "user-1", CourseID: "course-1",
	}, 3)

	// One of three lessons complete rounds 33.33 to 33.
	assert.Equal(t, 33, svc.aggregate(models.LessonProgressMap{"l1": 95}, 3))
	// Two of three rounds 66.67 to 67.
	assert.Equal(t, 67, svc.aggregate(models.LessonProgressMap{"l1": 95, "l2": 90}, 3))
	assert.Equal(t, 0, svc.aggregate(models.LessonProgressMap{"l1": 95}, 0))
}
