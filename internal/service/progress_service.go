package service

import (
	"context"
	"database/sql"
	"math"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/lms-progress-api/internal/models"
	appErrors "github.com/noah-isme/lms-progress-api/pkg/errors"
)

type enrollmentStore interface {
	FindByUserAndCourse(ctx context.Context, userID, courseID string) (*models.Enrollment, error)
	ListByUser(ctx context.Context, userID string) ([]models.EnrollmentDetail, error)
	UpdateProgress(ctx context.Context, id string, overall int, lessons models.LessonProgressMap, updatedAt time.Time) error
	Create(ctx context.Context, enrollment *models.Enrollment) error
}

type lessonRoster interface {
	CountByCourse(ctx context.Context, courseID string) (int, error)
	ListByCourse(ctx context.Context, courseID string) ([]models.Lesson, error)
}

type completionNotifier interface {
	NotifyLessonCompleted(userID, courseID, lessonID string)
}

type summaryInvalidator interface {
	InvalidateSummary(ctx context.Context, userID string)
}

// CourseProgress is the read model for one enrollment's progress.
type CourseProgress struct {
	CourseID        string                   `json:"course_id"`
	OverallProgress int                      `json:"overall_progress"`
	LessonsProgress models.LessonProgressMap `json:"lessons_progress"`
	Lessons         []LessonStatus           `json:"lessons"`
	UpdatedAt       *time.Time               `json:"updated_at,omitempty"`
}

// LessonStatus is one roster entry annotated with the learner's
// progress on it.
type LessonStatus struct {
	models.Lesson
	Percent   int  `json:"percent"`
	Completed bool `json:"completed"`
}

// ProgressService is the single authority turning lesson-level
// percents into persisted enrollment updates. Playback never writes
// the aggregate directly; it always flows through here.
type ProgressService struct {
	enrollments enrollmentStore
	lessons     lessonRoster
	notifier    completionNotifier
	invalidator summaryInvalidator
	metrics     *MetricsService
	threshold   int
	logger      *zap.Logger

	mu        sync.Mutex
	inflight  map[string]bool
	completed map[string]map[string]bool
}

// NewProgressService constructs ProgressService. completionThreshold
// is the percent at which a lesson counts as finished (90 unless
// configured otherwise).
func NewProgressService(enrollments enrollmentStore, lessons lessonRoster, notifier completionNotifier, invalidator summaryInvalidator, metrics *MetricsService, completionThreshold int, logger *zap.Logger) *ProgressService {
	if completionThreshold <= 0 || completionThreshold > 100 {
		completionThreshold = 90
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ProgressService{
		enrollments: enrollments,
		lessons:     lessons,
		notifier:    notifier,
		invalidator: invalidator,
		metrics:     metrics,
		threshold:   completionThreshold,
		logger:      logger,
		inflight:    make(map[string]bool),
		completed:   make(map[string]map[string]bool),
	}
}

// RecordLessonProgress merges a lesson percent into the enrollment and
// recomputes the course aggregate in one persisted update.
//
// Writes are single-flight per user: a call arriving while another is
// in flight is dropped silently. Checkpoints are monotonic snapshots,
// so the next one resends a higher percent and nothing is lost.
func (s *ProgressService) RecordLessonProgress(ctx context.Context, userID, courseID, lessonID string, percent int) error {
	if percent < 0 || percent > 100 {
		return appErrors.Clone(appErrors.ErrValidation, "percent must be between 0 and 100")
	}

	if !s.tryAcquire(userID) {
		s.count("dropped")
		return nil
	}
	defer s.release(userID)

	enrollment, err := s.enrollments.FindByUserAndCourse(ctx, userID, courseID)
	if err != nil {
		if err == sql.ErrNoRows {
			s.count("error")
			return appErrors.Clone(appErrors.ErrNotFound, "enrollment not found")
		}
		s.count("error")
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load enrollment")
	}

	totalLessons, err := s.lessons.CountByCourse(ctx, courseID)
	if err != nil {
		s.count("error")
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load lesson roster")
	}

	merged := enrollment.LessonsProgress
	if merged == nil {
		merged = models.LessonProgressMap{}
	}
	merged[lessonID] = percent

	overall := s.aggregate(merged, totalLessons)
	now := time.Now().UTC()

	if err := s.enrollments.UpdateProgress(ctx, enrollment.ID, overall, merged, now); err != nil {
		// No automatic retry: the next checkpoint event attempts again
		// with a fresher percent.
		s.count("error")
		s.logger.Warn("progress persistence failed",
			zap.String("user_id", userID),
			zap.String("lesson_id", lessonID),
			zap.Error(err))
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to persist progress")
	}
	s.count("ok")
	if s.metrics != nil {
		s.metrics.CountCheckpoint(percent)
	}

	if percent >= s.threshold {
		s.notifyOnce(userID, courseID, lessonID)
	}
	if s.invalidator != nil {
		s.invalidator.InvalidateSummary(ctx, userID)
	}
	return nil
}

// Progress returns the aggregate, the per-lesson percents, and the
// annotated lesson roster for one enrollment.
func (s *ProgressService) Progress(ctx context.Context, userID, courseID string) (*CourseProgress, error) {
	enrollment, err := s.enrollments.FindByUserAndCourse(ctx, userID, courseID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "enrollment not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load enrollment")
	}
	lessons := enrollment.LessonsProgress
	if lessons == nil {
		lessons = models.LessonProgressMap{}
	}

	roster, err := s.lessons.ListByCourse(ctx, courseID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load lesson roster")
	}
	statuses := make([]LessonStatus, len(roster))
	for i, lesson := range roster {
		percent := lessons[lesson.ID]
		statuses[i] = LessonStatus{
			Lesson:    lesson,
			Percent:   percent,
			Completed: percent >= s.threshold,
		}
	}

	return &CourseProgress{
		CourseID:        courseID,
		OverallProgress: enrollment.OverallProgress,
		LessonsProgress: lessons,
		Lessons:         statuses,
		UpdatedAt:       enrollment.UpdatedAt,
	}, nil
}

// LessonPercent returns the last persisted percent for one lesson so a
// new playback session resumes checkpointing where the previous one
// left off.
func (s *ProgressService) LessonPercent(ctx context.Context, userID, courseID, lessonID string) (int, error) {
	enrollment, err := s.enrollments.FindByUserAndCourse(ctx, userID, courseID)
	if err != nil {
		if err == sql.ErrNoRows {
			return 0, appErrors.Clone(appErrors.ErrNotFound, "enrollment not found")
		}
		return 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load enrollment")
	}
	return enrollment.LessonsProgress[lessonID], nil
}

// Enroll creates the enrollment linking a learner to a course.
// Enrolling twice is a no-op returning the existing record.
func (s *ProgressService) Enroll(ctx context.Context, userID, courseID string) (*models.Enrollment, error) {
	existing, err := s.enrollments.FindByUserAndCourse(ctx, userID, courseID)
	if err == nil {
		return existing, nil
	}
	if err != sql.ErrNoRows {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load enrollment")
	}

	enrollment := &models.Enrollment{
		UserID:          userID,
		CourseID:        courseID,
		LessonsProgress: models.LessonProgressMap{},
	}
	if err := s.enrollments.Create(ctx, enrollment); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create enrollment")
	}
	if s.invalidator != nil {
		s.invalidator.InvalidateSummary(ctx, userID)
	}
	return enrollment, nil
}

// ListEnrollments returns all enrollments of a learner.
func (s *ProgressService) ListEnrollments(ctx context.Context, userID string) ([]models.EnrollmentDetail, error) {
	enrollments, err := s.enrollments.ListByUser(ctx, userID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list enrollments")
	}
	return enrollments, nil
}

// EndSession clears the completion dedupe state for one lesson when
// its playback session closes, allowing a future session to notify
// again. Registered as the session manager's close hook.
func (s *ProgressService) EndSession(userID, lessonID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	seen := s.completed[userID]
	delete(seen, lessonID)
	if len(seen) == 0 {
		delete(s.completed, userID)
	}
}

// aggregate recomputes the course-level percent: the rounded share of
// lessons at or above the completion threshold.
func (s *ProgressService) aggregate(lessons models.LessonProgressMap, totalLessons int) int {
	if totalLessons <= 0 {
		return 0
	}
	completed := 0
	for _, p := range lessons {
		if p >= s.threshold {
			completed++
		}
	}
	return int(math.Round(float64(completed) / float64(totalLessons) * 100))
}

func (s *ProgressService) tryAcquire(userID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.inflight[userID] {
		return false
	}
	s.inflight[userID] = true
	return true
}

func (s *ProgressService) release(userID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.inflight, userID)
}

// notifyOnce emits the lesson-completed notification the first time a
// lesson crosses the threshold in this session. Repeated checkpoint
// arrivals at or above the threshold do not re-notify.
func (s *ProgressService) notifyOnce(userID, courseID, lessonID string) {
	s.mu.Lock()
	seen := s.completed[userID]
	if seen == nil {
		seen = make(map[string]bool)
		s.completed[userID] = seen
	}
	already := seen[lessonID]
	seen[lessonID] = true
	s.mu.Unlock()

	if already || s.notifier == nil {
		return
	}
	s.notifier.NotifyLessonCompleted(userID, courseID, lessonID)
}

func (s *ProgressService) count(result string) {
	if s.metrics != nil {
		s.metrics.CountProgressWrite(result)
	}
}
