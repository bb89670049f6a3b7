package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/lms-progress-api/internal/models"
)

// AttemptRepository handles the append-only quiz attempt history.
type AttemptRepository struct {
	db *sqlx.DB
}

// NewAttemptRepository constructs the repository.
func NewAttemptRepository(db *sqlx.DB) *AttemptRepository {
	return &AttemptRepository{db: db}
}

// Insert appends a new attempt row. The raw driver error is returned
// unwrapped under %w so the recorder can classify unique violations
// and structural rejections.
func (r *AttemptRepository) Insert(ctx context.Context, attempt *models.QuizAttempt) error {
	if attempt.ID == "" {
		attempt.ID = uuid.NewString()
	}
	if attempt.CreatedAt.IsZero() {
		attempt.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO quiz_attempts (id, quiz_id, user_id, score, answers, created_at)
        VALUES (:id, :quiz_id, :user_id, :score, :answers, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, attempt); err != nil {
		return fmt.Errorf("insert attempt: %w", err)
	}
	return nil
}

// InsertEncoded appends an attempt with the answers sequence stored as
// an opaque serialized string. Fallback path for stores that reject
// the structured payload.
func (r *AttemptRepository) InsertEncoded(ctx context.Context, attempt *models.QuizAttempt) error {
	if attempt.ID == "" {
		attempt.ID = uuid.NewString()
	}
	if attempt.CreatedAt.IsZero() {
		attempt.CreatedAt = time.Now().UTC()
	}
	encoded, err := json.Marshal(attempt.Answers)
	if err != nil {
		return fmt.Errorf("encode answers: %w", err)
	}
	const query = `INSERT INTO quiz_attempts (id, quiz_id, user_id, score, answers, created_at)
        VALUES ($1, $2, $3, $4, $5, $6)`
	if _, err := r.db.ExecContext(ctx, query, attempt.ID, attempt.QuizID, attempt.UserID, attempt.Score, string(encoded), attempt.CreatedAt); err != nil {
		return fmt.Errorf("insert encoded attempt: %w", err)
	}
	return nil
}

// FindLegacySingle returns the single row a legacy unique constraint
// on (user_id, quiz_id) would have retained, or nil when absent.
func (r *AttemptRepository) FindLegacySingle(ctx context.Context, userID, quizID string) (*models.QuizAttempt, error) {
	const query = `SELECT id, quiz_id, user_id, score, answers, created_at
        FROM quiz_attempts WHERE user_id = $1 AND quiz_id = $2
        ORDER BY created_at DESC LIMIT 1`
	var attempt models.QuizAttempt
	if err := r.db.GetContext(ctx, &attempt, query, userID, quizID); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("find legacy attempt: %w", err)
	}
	return &attempt, nil
}

// Delete removes one attempt row. Only used by the conflict repair
// sequence; attempts are otherwise append-only.
func (r *AttemptRepository) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM quiz_attempts WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("delete attempt: %w", err)
	}
	return nil
}

// ListByUser returns all attempts of a learner, newest first.
func (r *AttemptRepository) ListByUser(ctx context.Context, userID string) ([]models.QuizAttempt, error) {
	const query = `SELECT id, quiz_id, user_id, score, answers, created_at
        FROM quiz_attempts WHERE user_id = $1 ORDER BY created_at DESC`
	var attempts []models.QuizAttempt
	if err := r.db.SelectContext(ctx, &attempts, query, userID); err != nil {
		return nil, fmt.Errorf("list attempts: %w", err)
	}
	return attempts, nil
}

// ListByUserAndQuiz returns a learner's attempts for one quiz, newest
// first.
func (r *AttemptRepository) ListByUserAndQuiz(ctx context.Context, userID, quizID string) ([]models.QuizAttempt, error) {
	const query = `SELECT id, quiz_id, user_id, score, answers, created_at
        FROM quiz_attempts WHERE user_id = $1 AND quiz_id = $2 ORDER BY created_at DESC`
	var attempts []models.QuizAttempt
	if err := r.db.SelectContext(ctx, &attempts, query, userID, quizID); err != nil {
		return nil, fmt.Errorf("list quiz attempts: %w", err)
	}
	return attempts, nil
}
