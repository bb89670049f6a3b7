package models

// Achievement is a derived badge state. Achievements are recomputed
// from enrollments and attempts on every read and never persisted.
type Achievement struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Achieved    bool   `json:"achieved"`
}
