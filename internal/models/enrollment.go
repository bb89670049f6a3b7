package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// LessonProgressMap maps lesson IDs to watched percent (0-100). Stored
// as JSONB on the enrollment row.
type LessonProgressMap map[string]int

// Value implements driver.Valuer for JSONB storage.
func (m LessonProgressMap) Value() (driver.Value, error) {
	if m == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(m)
}

// Scan implements sql.Scanner for JSONB retrieval.
func (m *LessonProgressMap) Scan(src interface{}) error {
	if src == nil {
		*m = LessonProgressMap{}
		return nil
	}
	var raw []byte
	switch v := src.(type) {
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("unsupported lessons_progress type %T", src)
	}
	if len(raw) == 0 {
		*m = LessonProgressMap{}
		return nil
	}
	return json.Unmarshal(raw, m)
}

// Enrollment links one learner to one course and carries both the
// aggregate progress and the per-lesson breakdown. OverallProgress is
// written only by progress aggregation, never directly from playback.
type Enrollment struct {
	ID              string            `db:"id" json:"id"`
	UserID          string            `db:"user_id" json:"user_id"`
	CourseID        string            `db:"course_id" json:"course_id"`
	OverallProgress int               `db:"progress" json:"progress"`
	LessonsProgress LessonProgressMap `db:"lessons_progress" json:"lessons_progress"`
	CreatedAt       time.Time         `db:"created_at" json:"created_at"`
	UpdatedAt       *time.Time        `db:"updated_at" json:"updated_at,omitempty"`
}

// EnrollmentDetail enriches Enrollment with course info for display.
type EnrollmentDetail struct {
	Enrollment
	CourseTitle string `db:"course_title" json:"course_title"`
}
