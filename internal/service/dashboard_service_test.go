package service

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/lms-progress-api/internal/models"
	appErrors "github.com/noah-isme/lms-progress-api/pkg/errors"
)

type mockTitleResolver struct {
	titles map[string]string
	calls  int
}

func (m *mockTitleResolver) TitlesByIDs(_ context.Context, ids []string) (map[string]string, error) {
	m.calls++
	out := make(map[string]string, len(ids))
	for _, id := range ids {
		if title, ok := m.titles[id]; ok {
			out[id] = title
		}
	}
	return out, nil
}

type memoryCache struct {
	entries map[string][]byte
	sets    int
	deletes []string
}

func newMemoryCache() *memoryCache {
	return &memoryCache{entries: map[string][]byte{}}
}

func (c *memoryCache) Get(_ context.Context, key string, dest interface{}) error {
	raw, ok := c.entries[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	return json.Unmarshal(raw, dest)
}

func (c *memoryCache) Set(_ context.Context, key string, value interface{}, _ time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	c.entries[key] = raw
	c.sets++
	return nil
}

func (c *memoryCache) Delete(_ context.Context, key string) error {
	c.deletes = append(c.deletes, key)
	delete(c.entries, key)
	return nil
}

func newDashboardFixture(cache summaryCache) (*DashboardService, *mockEnrollmentStore, *mockAttemptStore) {
	now := time.Now()
	enrollments := &mockEnrollmentStore{enrollments: map[string]models.Enrollment{
		enrollmentKey("user-1", "c1"): {
			ID: "enr-1", UserID: "user-1", CourseID: "c1",
			OverallProgress: 100, CreatedAt: now.AddDate(0, 0, -3),
		},
		enrollmentKey("user-1", "c2"): {
			ID: "enr-2", UserID: "user-1", CourseID: "c2",
			OverallProgress: 40, CreatedAt: now.AddDate(0, 0, -1),
		},
	}}
	attempts := &mockAttemptStore{rows: []models.QuizAttempt{
		{ID: "a1", QuizID: "quiz-1", UserID: "user-1", Score: 100, CreatedAt: now.Add(-2 * time.Hour)},
	}}
	svc := NewDashboardService(DashboardServiceParams{
		Enrollments:  enrollments,
		Attempts:     attempts,
		Quizzes:      &mockTitleResolver{titles: map[string]string{"quiz-1": "Syntax Quiz"}},
		Achievements: NewAchievementService(90),
		Activity:     NewActivityService(),
		Cache:        cache,
		CacheTTL:     time.Minute,
	})
	return svc, enrollments, attempts
}

func TestDashboardSummaryComposes(t *testing.T) {
	svc, _, _ := newDashboardFixture(nil)

	summary, cached, err := svc.Summary(context.Background(), "user-1")
	require.NoError(t, err)
	assert.False(t, cached)
	assert.Len(t, summary.Courses, 2)
	assert.Equal(t, 1, summary.CoursesCompleted)
	assert.Equal(t, 1, summary.QuizzesTaken)
	assert.Len(t, summary.Achievements, 4)
	assert.True(t, badgeByTitle(t, summary.Achievements, "Perfect Quiz").Achieved)
	assert.True(t, badgeByTitle(t, summary.Achievements, "First Course Completed").Achieved)
	require.NotEmpty(t, summary.RecentActivity)
	for _, item := range summary.RecentActivity {
		assert.NotEmpty(t, item.When)
	}
}

func TestDashboardSummaryCacheAside(t *testing.T) {
	cache := newMemoryCache()
	svc, _, attempts := newDashboardFixture(cache)

	_, cached, err := svc.Summary(context.Background(), "user-1")
	require.NoError(t, err)
	assert.False(t, cached)
	assert.Equal(t, 1, cache.sets)

	// A new attempt lands but the cached summary is served until the
	// entry is invalidated.
	attempts.rows = append(attempts.rows, models.QuizAttempt{
		ID: "a2", QuizID: "quiz-1", UserID: "user-1", Score: 20, CreatedAt: time.Now(),
	})
	summary, cached, err := svc.Summary(context.Background(), "user-1")
	require.NoError(t, err)
	assert.True(t, cached)
	assert.Equal(t, 1, summary.QuizzesTaken)

	svc.InvalidateSummary(context.Background(), "user-1")
	assert.Equal(t, []string{"dashboard:user-1"}, cache.deletes)

	summary, cached, err = svc.Summary(context.Background(), "user-1")
	require.NoError(t, err)
	assert.False(t, cached)
	assert.Equal(t, 2, summary.QuizzesTaken)
}

func TestDashboardSummaryRequiresUser(t *testing.T) {
	svc, _, _ := newDashboardFixture(nil)
	_, _, err := svc.Summary(context.Background(), "")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}
