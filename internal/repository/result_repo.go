package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"deckroom-backend/internal/models"
)

type ResultRepo struct {
	pool *pgxpool.Pool
}

func NewResultRepo(pool *pgxpool.Pool) *ResultRepo {
	return &ResultRepo{pool: pool}
}

func (r *ResultRepo) Create(ctx context.Context, res *models.StudyResult) error {
	res.ID = uuid.New()
	query := `
		INSERT INTO study_results (id, assignment_id, student_id, score_percent, time_seconds, total_attempts, completed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at`

	return r.pool.QueryRow(ctx, query,
		res.ID, res.AssignmentID, res.StudentID, res.ScorePercent,
		res.TimeSeconds, res.TotalAttempts, res.CompletedAt,
	).Scan(&res.CreatedAt)
}

func (r *ResultRepo) ListByStudent(ctx context.Context, studentID uuid.UUID) ([]*models.StudyResult, error) {
	query := `SELECT id, assignment_id, student_id, score_percent, time_seconds, total_attempts, completed_at, created_at
		FROM study_results
		WHERE student_id = $1
		ORDER BY completed_at DESC`

	rows, err := r.pool.Query(ctx, query, studentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []*models.StudyResult
	for rows.Next() {
		res := &models.StudyResult{}
		err := rows.Scan(&res.ID, &res.AssignmentID, &res.StudentID, &res.ScorePercent,
			&res.TimeSeconds, &res.TotalAttempts, &res.CompletedAt, &res.CreatedAt)
		if err != nil {
			return nil, err
		}
		results = append(results, res)
	}
	return results, nil
}

// ListByAssignment returns the leaderboard: best score first, ties
// broken by most recent completion.
func (r *ResultRepo) ListByAssignment(ctx context.Context, assignmentID uuid.UUID) ([]*models.StudyResult, error) {
	query := `SELECT r.id, r.assignment_id, r.student_id, r.score_percent, r.time_seconds, r.total_attempts, r.completed_at, r.created_at, s.username
		FROM study_results r
		JOIN students s ON r.student_id = s.id
		WHERE r.assignment_id = $1
		ORDER BY r.score_percent DESC, r.completed_at DESC`

	rows, err := r.pool.Query(ctx, query, assignmentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []*models.StudyResult
	for rows.Next() {
		res := &models.StudyResult{}
		err := rows.Scan(&res.ID, &res.AssignmentID, &res.StudentID, &res.ScorePercent,
			&res.TimeSeconds, &res.TotalAttempts, &res.CompletedAt, &res.CreatedAt, &res.Username)
		if err != nil {
			return nil, err
		}
		results = append(results, res)
	}
	return results, nil
}

func (r *ResultRepo) StatsByAssignment(ctx context.Context, assignmentID uuid.UUID) (*models.AssignmentStats, error) {
	stats := &models.AssignmentStats{}

	err := r.pool.QueryRow(ctx, `
		SELECT COUNT(*),
		       COALESCE(AVG(score_percent), 0),
		       COALESCE(MAX(score_percent), 0),
		       COUNT(DISTINCT student_id)
		FROM study_results
		WHERE assignment_id = $1
	`, assignmentID).Scan(&stats.Attempts, &stats.AverageScore, &stats.BestScore, &stats.StudentsCompleted)
	if err != nil {
		return nil, err
	}

	err = r.pool.QueryRow(ctx, `
		SELECT COUNT(*)
		FROM students s
		JOIN assignments a ON a.class_id = s.class_id
		WHERE a.id = $1
	`, assignmentID).Scan(&stats.ClassSize)
	if err != nil {
		return nil, err
	}

	return stats, nil
}
