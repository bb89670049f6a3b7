package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// QuizQuestion is one multiple-choice question within a quiz.
type QuizQuestion struct {
	ID            string   `json:"id"`
	Text          string   `json:"text"`
	Options       []string `json:"options"`
	CorrectOption int      `json:"correctOption"`
}

// QuestionList is the JSONB-backed question collection of a quiz.
type QuestionList []QuizQuestion

// Value implements driver.Valuer for JSONB storage.
func (l QuestionList) Value() (driver.Value, error) {
	if l == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(l)
}

// Scan implements sql.Scanner for JSONB retrieval.
func (l *QuestionList) Scan(src interface{}) error {
	if src == nil {
		*l = QuestionList{}
		return nil
	}
	var raw []byte
	switch v := src.(type) {
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("unsupported questions type %T", src)
	}
	if len(raw) == 0 {
		*l = QuestionList{}
		return nil
	}
	return json.Unmarshal(raw, l)
}

// Quiz is a scored assessment attached to a course.
type Quiz struct {
	ID        string       `db:"id" json:"id"`
	CourseID  string       `db:"course_id" json:"course_id"`
	Title     string       `db:"title" json:"title"`
	Questions QuestionList `db:"questions" json:"questions"`
	CreatedAt time.Time    `db:"created_at" json:"created_at"`
}
