package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// UnansweredOption marks a question the learner never answered.
const UnansweredOption = -1

// AttemptAnswer records the learner's selection for one question.
type AttemptAnswer struct {
	QuestionID     string `json:"questionId"`
	SelectedOption int    `json:"selectedOption"`
	Correct        bool   `json:"correct"`
}

// AnswerList is the JSONB-backed answer sequence of an attempt.
type AnswerList []AttemptAnswer

// Value implements driver.Valuer for JSONB storage.
func (l AnswerList) Value() (driver.Value, error) {
	if l == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(l)
}

// Scan implements sql.Scanner for JSONB retrieval. Legacy rows written
// through the string fallback hold the same JSON doubly encoded; those
// are unwrapped transparently.
func (l *AnswerList) Scan(src interface{}) error {
	if src == nil {
		*l = AnswerList{}
		return nil
	}
	var raw []byte
	switch v := src.(type) {
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("unsupported answers type %T", src)
	}
	if len(raw) == 0 {
		*l = AnswerList{}
		return nil
	}
	if raw[0] == '"' {
		var inner string
		if err := json.Unmarshal(raw, &inner); err != nil {
			return err
		}
		raw = []byte(inner)
	}
	return json.Unmarshal(raw, l)
}

// QuizAttempt is one scored submission of a quiz. Attempts are
// append-only; multiple attempts per (user, quiz) are retained.
type QuizAttempt struct {
	ID        string     `db:"id" json:"id"`
	QuizID    string     `db:"quiz_id" json:"quiz_id"`
	UserID    string     `db:"user_id" json:"user_id"`
	Score     int        `db:"score" json:"score"`
	Answers   AnswerList `db:"answers" json:"answers"`
	CreatedAt time.Time  `db:"created_at" json:"created_at"`
}

// AttemptRecord annotates an attempt with its position in the
// learner's history for a quiz. AttemptNumber is derived at read time;
// the most recent attempt carries the highest number.
type AttemptRecord struct {
	QuizAttempt
	AttemptNumber int `json:"attempt_number"`
	TotalAttempts int `json:"total_attempts"`
}

// AttemptHistory groups a learner's attempts for one quiz, most
// recent first.
type AttemptHistory struct {
	QuizID   string          `json:"quiz_id"`
	Attempts []AttemptRecord `json:"attempts"`
}
