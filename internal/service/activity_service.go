package service

import (
	"fmt"
	"sort"
	"time"

	"github.com/noah-isme/lms-progress-api/internal/models"
)

// ActivityService reconstructs a recent-activity feed from enrollment
// and attempt data. No activity log is stored; the feed is an
// approximation derived on every read.
type ActivityService struct{}

func NewActivityService() *ActivityService {
	return &ActivityService{}
}

// Derive builds the five most recent activity events, newest first.
//
// Enrollment events carry the enrollment time. Lesson activity has no
// stored timestamp, so any enrollment with progress is shown as a
// lesson-completed event one day after enrolling. Quiz events use the
// attempt's real timestamp. Events dated in the future relative to now
// are clamped to now.
func (s *ActivityService) Derive(enrollments []models.EnrollmentDetail, attempts []models.QuizAttempt, quizTitles map[string]string, now time.Time) []models.ActivityEvent {
	events := make([]models.ActivityEvent, 0, len(enrollments)*2+len(attempts))

	for _, e := range enrollments {
		events = append(events, models.ActivityEvent{
			Type:       models.ActivityCourseEnrolled,
			CourseID:   e.CourseID,
			Item:       e.CourseTitle,
			OccurredAt: e.CreatedAt,
		})
		if e.OverallProgress > 0 {
			events = append(events, models.ActivityEvent{
				Type:       models.ActivityLessonCompleted,
				CourseID:   e.CourseID,
				Item:       e.CourseTitle,
				OccurredAt: e.CreatedAt.Add(24 * time.Hour),
			})
		}
	}

	for _, a := range attempts {
		score := a.Score
		events = append(events, models.ActivityEvent{
			Type:       models.ActivityQuizCompleted,
			Item:       quizTitles[a.QuizID],
			OccurredAt: a.CreatedAt,
			Score:      &score,
		})
	}

	for i := range events {
		if events[i].OccurredAt.After(now) {
			events[i].OccurredAt = now
		}
	}

	sort.SliceStable(events, func(i, j int) bool {
		return events[i].OccurredAt.After(events[j].OccurredAt)
	})
	if len(events) > 5 {
		events = events[:5]
	}
	return events
}

// RelativeLabel renders a timestamp as a coarse relative phrase for
// display. Internals keep real timestamps; only the rendered feed uses
// relative wording.
func RelativeLabel(t, now time.Time) string {
	d := now.Sub(t)
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		m := int(d.Minutes())
		if m == 1 {
			return "1 minute ago"
		}
		return fmt.Sprintf("%d minutes ago", m)
	case d < 24*time.Hour:
		h := int(d.Hours())
		if h == 1 {
			return "1 hour ago"
		}
		return fmt.Sprintf("%d hours ago", h)
	default:
		days := int(d.Hours() / 24)
		if days == 1 {
			return "1 day ago"
		}
		return fmt.Sprintf("%d days ago", days)
	}
}
