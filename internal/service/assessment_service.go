package service

import (
	"context"
	"database/sql"
	"math"
	"sort"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/lms-progress-api/internal/models"
	appErrors "github.com/noah-isme/lms-progress-api/pkg/errors"
)

// Persistence outcomes of one attempt submission. The score is always
// computed and returned; the outcome only qualifies how durably the
// attempt was stored.
const (
	RecordOutcomeStored   = "stored"
	RecordOutcomeDegraded = "degraded"
	RecordOutcomeFailed   = "failed"
)

type quizStore interface {
	FindByID(ctx context.Context, id string) (*models.Quiz, error)
}

type attemptStore interface {
	Insert(ctx context.Context, attempt *models.QuizAttempt) error
	InsertEncoded(ctx context.Context, attempt *models.QuizAttempt) error
	FindLegacySingle(ctx context.Context, userID, quizID string) (*models.QuizAttempt, error)
	Delete(ctx context.Context, id string) error
	ListByUser(ctx context.Context, userID string) ([]models.QuizAttempt, error)
	ListByUserAndQuiz(ctx context.Context, userID, quizID string) ([]models.QuizAttempt, error)
}

// SubmitResult is the outcome of a quiz submission. Score is always
// valid; Outcome reports whether the attempt row was stored cleanly,
// stored after legacy-constraint repair, or not stored at all.
type SubmitResult struct {
	AttemptID string `json:"attempt_id,omitempty"`
	Score     int    `json:"score"`
	Outcome   string `json:"outcome"`
	Warning   string `json:"warning,omitempty"`
}

// AssessmentService grades quiz submissions and keeps the append-only
// attempt history.
type AssessmentService struct {
	quizzes     quizStore
	attempts    attemptStore
	invalidator summaryInvalidator
	metrics     *MetricsService
	logger      *zap.Logger
}

func NewAssessmentService(quizzes quizStore, attempts attemptStore, invalidator summaryInvalidator, metrics *MetricsService, logger *zap.Logger) *AssessmentService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AssessmentService{quizzes: quizzes, attempts: attempts, invalidator: invalidator, metrics: metrics, logger: logger}
}

// SubmitAttempt grades the submission and records it.
//
// Grading never fails once the submission passes validation. Recording
// may: legacy deployments enforce one attempt per (user, quiz), and
// that conflict is repaired in place by deleting the old row and
// retrying once. A store that rejects the answers JSONB structurally
// gets the answers re-sent as an encoded string. When every recording
// path fails the score is still returned, with Outcome set to failed.
func (s *AssessmentService) SubmitAttempt(ctx context.Context, userID, quizID string, selected []int) (*SubmitResult, error) {
	quiz, err := s.quizzes.FindByID(ctx, quizID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "quiz not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load quiz")
	}
	if len(selected) != len(quiz.Questions) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "answer count does not match question count")
	}

	score, answers, err := grade(quiz.Questions, selected)
	if err != nil {
		return nil, err
	}

	attempt := &models.QuizAttempt{
		ID:        uuid.NewString(),
		QuizID:    quizID,
		UserID:    userID,
		Score:     score,
		Answers:   answers,
		CreatedAt: time.Now().UTC(),
	}

	result := &SubmitResult{AttemptID: attempt.ID, Score: score}
	result.Outcome, result.Warning = s.record(ctx, attempt)
	if result.Outcome == RecordOutcomeFailed {
		result.AttemptID = ""
	} else if s.invalidator != nil {
		// The attempt row changed quiz counts, achievements and the
		// activity feed; the cached dashboard is stale.
		s.invalidator.InvalidateSummary(ctx, userID)
	}
	if s.metrics != nil {
		s.metrics.CountAttempt(result.Outcome)
	}
	return result, nil
}

// record persists the attempt, repairing legacy-schema conflicts.
func (s *AssessmentService) record(ctx context.Context, attempt *models.QuizAttempt) (outcome, warning string) {
	err := s.attempts.Insert(ctx, attempt)
	if err == nil {
		return RecordOutcomeStored, ""
	}

	switch {
	case appErrors.IsUniqueViolation(err):
		return s.repairLegacyConflict(ctx, attempt)
	case appErrors.IsStructuralRejection(err):
		return s.insertEncoded(ctx, attempt)
	default:
		s.logger.Error("attempt insert failed",
			zap.String("quiz_id", attempt.QuizID),
			zap.String("user_id", attempt.UserID),
			zap.Error(err))
		return RecordOutcomeFailed, "attempt could not be recorded"
	}
}

// repairLegacyConflict handles stores still carrying the old
// UNIQUE(user_id, quiz_id) constraint: delete the single existing row
// and retry the insert exactly once.
func (s *AssessmentService) repairLegacyConflict(ctx context.Context, attempt *models.QuizAttempt) (string, string) {
	legacy, err := s.attempts.FindLegacySingle(ctx, attempt.UserID, attempt.QuizID)
	if err != nil || legacy == nil {
		s.logger.Warn("legacy attempt lookup failed after unique violation",
			zap.String("quiz_id", attempt.QuizID),
			zap.Error(err))
		return RecordOutcomeDegraded, "previous attempt could not be replaced"
	}
	if err := s.attempts.Delete(ctx, legacy.ID); err != nil {
		s.logger.Warn("legacy attempt delete failed",
			zap.String("attempt_id", legacy.ID),
			zap.Error(err))
		return RecordOutcomeDegraded, "previous attempt could not be replaced"
	}
	if err := s.attempts.Insert(ctx, attempt); err != nil {
		s.logger.Warn("attempt reinsert failed after legacy delete",
			zap.String("quiz_id", attempt.QuizID),
			zap.Error(err))
		return RecordOutcomeDegraded, "attempt replaced a previous one but could not be stored"
	}
	s.logger.Info("legacy attempt conflict repaired",
		zap.String("quiz_id", attempt.QuizID),
		zap.String("replaced_attempt_id", legacy.ID))
	return RecordOutcomeStored, "previous attempt for this quiz was replaced"
}

// insertEncoded retries with the answers serialized as a JSON string,
// matching rows written before the answers column became jsonb.
func (s *AssessmentService) insertEncoded(ctx context.Context, attempt *models.QuizAttempt) (string, string) {
	if err := s.attempts.InsertEncoded(ctx, attempt); err != nil {
		s.logger.Error("encoded attempt insert failed",
			zap.String("quiz_id", attempt.QuizID),
			zap.Error(err))
		return RecordOutcomeFailed, "attempt could not be recorded"
	}
	return RecordOutcomeStored, ""
}

// ListAttempts returns the learner's full attempt history grouped by
// quiz, each group most recent first with derived attempt numbers.
func (s *AssessmentService) ListAttempts(ctx context.Context, userID string) ([]models.AttemptHistory, error) {
	attempts, err := s.attempts.ListByUser(ctx, userID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list attempts")
	}
	return groupAttempts(attempts), nil
}

// ListQuizAttempts returns the learner's attempts for one quiz, most
// recent first.
func (s *AssessmentService) ListQuizAttempts(ctx context.Context, userID, quizID string) ([]models.AttemptRecord, error) {
	attempts, err := s.attempts.ListByUserAndQuiz(ctx, userID, quizID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list attempts")
	}
	return numberAttempts(attempts), nil
}

// grade scores a submission against the quiz questions. An answer of
// UnansweredOption counts as wrong; anything else must index into the
// question's options.
func grade(questions models.QuestionList, selected []int) (int, models.AnswerList, error) {
	answers := make(models.AnswerList, len(questions))
	correct := 0
	for i, q := range questions {
		sel := selected[i]
		if sel != models.UnansweredOption && (sel < 0 || sel >= len(q.Options)) {
			return 0, nil, appErrors.Clone(appErrors.ErrValidation, "selected option out of range")
		}
		ok := sel == q.CorrectOption
		if ok {
			correct++
		}
		answers[i] = models.AttemptAnswer{QuestionID: q.ID, SelectedOption: sel, Correct: ok}
	}
	score := 0
	if len(questions) > 0 {
		score = int(math.Round(float64(correct) / float64(len(questions)) * 100))
	}
	return score, answers, nil
}

// groupAttempts buckets attempts per quiz, newest first within each
// group, and orders the groups by their newest attempt.
func groupAttempts(attempts []models.QuizAttempt) []models.AttemptHistory {
	byQuiz := make(map[string][]models.QuizAttempt)
	order := make([]string, 0)
	for _, a := range attempts {
		if _, seen := byQuiz[a.QuizID]; !seen {
			order = append(order, a.QuizID)
		}
		byQuiz[a.QuizID] = append(byQuiz[a.QuizID], a)
	}

	histories := make([]models.AttemptHistory, 0, len(order))
	for _, quizID := range order {
		histories = append(histories, models.AttemptHistory{
			QuizID:   quizID,
			Attempts: numberAttempts(byQuiz[quizID]),
		})
	}
	return histories
}

// numberAttempts sorts newest first and derives attempt numbers so the
// oldest attempt is number 1.
func numberAttempts(attempts []models.QuizAttempt) []models.AttemptRecord {
	sorted := make([]models.QuizAttempt, len(attempts))
	copy(sorted, attempts)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].CreatedAt.After(sorted[j].CreatedAt)
	})

	total := len(sorted)
	records := make([]models.AttemptRecord, total)
	for i, a := range sorted {
		records[i] = models.AttemptRecord{
			QuizAttempt:   a,
			AttemptNumber: total - i,
			TotalAttempts: total,
		}
	}
	return records
}
