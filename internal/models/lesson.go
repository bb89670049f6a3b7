package models

import "time"

// Lesson is one unit of course content. The engine only counts lessons
// and reads their identity; authoring is handled elsewhere.
type Lesson struct {
	ID        string    `db:"id" json:"id"`
	CourseID  string    `db:"course_id" json:"course_id"`
	Title     string    `db:"title" json:"title"`
	Position  int       `db:"position" json:"position"`
	VideoURL  string    `db:"video_url" json:"video_url,omitempty"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}
