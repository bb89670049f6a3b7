package service

import (
	"time"

	"github.com/noah-isme/lms-progress-api/internal/models"
)

// AchievementService derives badge states from enrollments and quiz
// attempts. Nothing here is persisted; the same inputs always produce
// the same badges.
type AchievementService struct {
	completionThreshold int
}

func NewAchievementService(completionThreshold int) *AchievementService {
	if completionThreshold <= 0 || completionThreshold > 100 {
		completionThreshold = 90
	}
	return &AchievementService{completionThreshold: completionThreshold}
}

// Evaluate computes the full badge set. Every known badge is always
// present in the result so the caller can render locked and unlocked
// states alike.
func (s *AchievementService) Evaluate(enrollments []models.EnrollmentDetail, attempts []models.QuizAttempt, now time.Time) []models.Achievement {
	completedCourse := false
	for _, e := range enrollments {
		if e.OverallProgress >= 100 {
			completedCourse = true
			break
		}
	}

	weekAgo := now.Add(-7 * 24 * time.Hour)
	recentEnrollments := 0
	for _, e := range enrollments {
		if !e.CreatedAt.Before(weekAgo) {
			recentEnrollments++
		}
	}

	perfectQuiz := false
	for _, a := range attempts {
		if a.Score == 100 {
			perfectQuiz = true
			break
		}
	}

	return []models.Achievement{
		{
			Title:       "First Course Completed",
			Description: "Finished all lessons of a course",
			Achieved:    completedCourse,
		},
		{
			Title:       "Knowledge Seeker",
			Description: "Enrolled in 3 or more courses",
			Achieved:    len(enrollments) >= 3,
		},
		{
			Title:       "Fast Learner",
			Description: "Enrolled in 2 courses within a single week",
			Achieved:    recentEnrollments >= 2,
		},
		{
			Title:       "Perfect Quiz",
			Description: "Scored 100% on a quiz",
			Achieved:    perfectQuiz,
		},
	}
}
