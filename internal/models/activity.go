package models

import "time"

// ActivityType identifies the kind of derived activity event.
type ActivityType string

// Derived activity event kinds.
const (
	ActivityCourseEnrolled  ActivityType = "course_enrolled"
	ActivityLessonCompleted ActivityType = "lesson_completed"
	ActivityQuizCompleted   ActivityType = "quiz_completed"
)

// ActivityEvent is one entry of the reconstructed recent-activity
// feed. OccurredAt is a real timestamp; relative-time labels are
// produced only at the display boundary.
type ActivityEvent struct {
	Type       ActivityType `json:"type"`
	CourseID   string       `json:"course_id,omitempty"`
	Item       string       `json:"item,omitempty"`
	OccurredAt time.Time    `json:"occurred_at"`
	Score      *int         `json:"score,omitempty"`
}
