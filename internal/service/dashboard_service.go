package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/lms-progress-api/internal/models"
	appErrors "github.com/noah-isme/lms-progress-api/pkg/errors"
)

type enrollmentLister interface {
	ListByUser(ctx context.Context, userID string) ([]models.EnrollmentDetail, error)
}

type attemptLister interface {
	ListByUser(ctx context.Context, userID string) ([]models.QuizAttempt, error)
}

type quizTitleResolver interface {
	TitlesByIDs(ctx context.Context, ids []string) (map[string]string, error)
}

type summaryCache interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// ActivityItem is a feed entry rendered for display, the real
// timestamp paired with a relative label.
type ActivityItem struct {
	models.ActivityEvent
	When string `json:"when"`
}

// DashboardSummary is the learner's composed dashboard payload.
type DashboardSummary struct {
	Courses          []models.EnrollmentDetail `json:"courses"`
	CoursesCompleted int                       `json:"courses_completed"`
	QuizzesTaken     int                       `json:"quizzes_taken"`
	Achievements     []models.Achievement      `json:"achievements"`
	RecentActivity   []ActivityItem            `json:"recent_activity"`
	GeneratedAt      time.Time                 `json:"generated_at"`
}

// DashboardServiceParams groups constructor dependencies.
type DashboardServiceParams struct {
	Enrollments  enrollmentLister
	Attempts     attemptLister
	Quizzes      quizTitleResolver
	Achievements *AchievementService
	Activity     *ActivityService
	Cache        summaryCache
	Metrics      *MetricsService
	Logger       *zap.Logger
	CacheTTL     time.Duration
}

// DashboardService composes the learner dashboard from enrollments,
// attempts and the derived badge and activity views, with a
// cache-aside layer in front.
type DashboardService struct {
	enrollments  enrollmentLister
	attempts     attemptLister
	quizzes      quizTitleResolver
	achievements *AchievementService
	activity     *ActivityService
	cache        summaryCache
	metrics      *MetricsService
	logger       *zap.Logger
	ttl          time.Duration
	now          func() time.Time
}

// NewDashboardService constructs a DashboardService with sane defaults.
func NewDashboardService(params DashboardServiceParams) *DashboardService {
	ttl := params.CacheTTL
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	logger := params.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DashboardService{
		enrollments:  params.Enrollments,
		attempts:     params.Attempts,
		quizzes:      params.Quizzes,
		achievements: params.Achievements,
		activity:     params.Activity,
		cache:        params.Cache,
		metrics:      params.Metrics,
		logger:       logger,
		ttl:          ttl,
		now:          time.Now,
	}
}

// Summary returns the learner's dashboard, served from cache when
// fresh. The second return reports cache utilisation.
func (s *DashboardService) Summary(ctx context.Context, userID string) (*DashboardSummary, bool, error) {
	if userID == "" {
		return nil, false, appErrors.Clone(appErrors.ErrValidation, "userId is required")
	}
	key := cacheKeyDashboard(userID)
	if s.cache != nil {
		var cached DashboardSummary
		err := s.cache.Get(ctx, key, &cached)
		if err == nil {
			s.metrics.RecordCacheOperation(true)
			return &cached, true, nil
		}
		if !errors.Is(err, appErrors.ErrCacheMiss) {
			s.logger.Warn("dashboard cache read failed", zap.String("key", key), zap.Error(err))
		}
		s.metrics.RecordCacheOperation(false)
	}

	summary, err := s.compose(ctx, userID)
	if err != nil {
		return nil, false, err
	}
	if s.cache != nil {
		if err := s.cache.Set(ctx, key, summary, s.ttl); err != nil {
			s.logger.Warn("dashboard cache write failed", zap.String("key", key), zap.Error(err))
		}
	}
	return summary, false, nil
}

// InvalidateSummary drops the cached dashboard after a progress or
// attempt write so the next read recomputes it.
func (s *DashboardService) InvalidateSummary(ctx context.Context, userID string) {
	if s.cache == nil || userID == "" {
		return
	}
	if err := s.cache.Delete(ctx, cacheKeyDashboard(userID)); err != nil {
		s.logger.Warn("dashboard cache invalidation failed", zap.String("user_id", userID), zap.Error(err))
	}
}

func (s *DashboardService) compose(ctx context.Context, userID string) (*DashboardSummary, error) {
	enrollments, err := s.enrollments.ListByUser(ctx, userID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load enrollments")
	}
	attempts, err := s.attempts.ListByUser(ctx, userID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load attempts")
	}

	titles := map[string]string{}
	if s.quizzes != nil && len(attempts) > 0 {
		ids := make([]string, 0, len(attempts))
		seen := map[string]bool{}
		for _, a := range attempts {
			if !seen[a.QuizID] {
				seen[a.QuizID] = true
				ids = append(ids, a.QuizID)
			}
		}
		titles, err = s.quizzes.TitlesByIDs(ctx, ids)
		if err != nil {
			s.logger.Warn("quiz title lookup failed", zap.Error(err))
			titles = map[string]string{}
		}
	}

	now := s.now().UTC()
	completed := 0
	for _, e := range enrollments {
		if e.OverallProgress >= 100 {
			completed++
		}
	}

	events := s.activity.Derive(enrollments, attempts, titles, now)
	items := make([]ActivityItem, len(events))
	for i, ev := range events {
		items[i] = ActivityItem{ActivityEvent: ev, When: RelativeLabel(ev.OccurredAt, now)}
	}

	return &DashboardSummary{
		Courses:          enrollments,
		CoursesCompleted: completed,
		QuizzesTaken:     len(attempts),
		Achievements:     s.achievements.Evaluate(enrollments, attempts, now),
		RecentActivity:   items,
		GeneratedAt:      now,
	}, nil
}

func cacheKeyDashboard(userID string) string {
	return fmt.Sprintf("dashboard:%s", userID)
}
