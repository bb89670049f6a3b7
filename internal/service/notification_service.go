package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/lms-progress-api/pkg/config"
	"github.com/noah-isme/lms-progress-api/pkg/jobs"
)

const jobTypeLessonCompleted = "lesson_completed"

type lessonCompletedPayload struct {
	UserID   string
	CourseID string
	LessonID string
}

// NotificationService dispatches one-shot learner notifications off
// the request path through a background queue. Delivery here is a
// structured log entry; a push channel plugs in behind the same queue.
type NotificationService struct {
	queue  *jobs.Queue
	logger *zap.Logger
}

// NewNotificationService constructs the service and its queue.
func NewNotificationService(cfg config.NotificationsConfig, logger *zap.Logger) *NotificationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &NotificationService{logger: logger}
	s.queue = jobs.NewQueue("notifications", s.handle, jobs.QueueConfig{
		Workers:    cfg.Workers,
		BufferSize: cfg.BufferSize,
		MaxRetries: cfg.MaxRetries,
		RetryDelay: cfg.RetryDelay,
		Logger:     logger,
	})
	return s
}

// Start launches the dispatch workers.
func (s *NotificationService) Start(ctx context.Context) {
	s.queue.Start(ctx)
}

// Stop drains the dispatch workers.
func (s *NotificationService) Stop() {
	s.queue.Stop()
}

// NotifyLessonCompleted enqueues a lesson completion notification.
// Failures are logged and dropped; notifications are best effort and
// never block progress persistence.
func (s *NotificationService) NotifyLessonCompleted(userID, courseID, lessonID string) {
	job := jobs.Job{
		ID:   uuid.NewString(),
		Type: jobTypeLessonCompleted,
		Payload: lessonCompletedPayload{
			UserID:   userID,
			CourseID: courseID,
			LessonID: lessonID,
		},
	}
	if err := s.queue.Enqueue(job); err != nil {
		s.logger.Warn("failed to enqueue notification",
			zap.String("user_id", userID),
			zap.String("lesson_id", lessonID),
			zap.Error(err))
	}
}

func (s *NotificationService) handle(_ context.Context, job jobs.Job) error {
	payload, ok := job.Payload.(lessonCompletedPayload)
	if !ok {
		return fmt.Errorf("unexpected payload for %s job", job.Type)
	}
	s.logger.Info("lesson completed",
		zap.String("user_id", payload.UserID),
		zap.String("course_id", payload.CourseID),
		zap.String("lesson_id", payload.LessonID))
	return nil
}
