package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"deckroom-backend/internal/models"
)

type AssignmentRepo struct {
	pool *pgxpool.Pool
}

func NewAssignmentRepo(pool *pgxpool.Pool) *AssignmentRepo {
	return &AssignmentRepo{pool: pool}
}

func (r *AssignmentRepo) Create(ctx context.Context, a *models.Assignment) error {
	a.ID = uuid.New()
	query := `
		INSERT INTO assignments (id, deck_id, class_id, due_date)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at`

	return r.pool.QueryRow(ctx, query, a.ID, a.DeckID, a.ClassID, a.DueDate).
		Scan(&a.CreatedAt)
}

func (r *AssignmentRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Assignment, error) {
	a := &models.Assignment{}
	query := `SELECT a.id, a.deck_id, a.class_id, a.due_date, a.created_at, d.name
		FROM assignments a
		JOIN decks d ON a.deck_id = d.id
		WHERE a.id = $1`

	err := r.pool.QueryRow(ctx, query, id).Scan(
		&a.ID, &a.DeckID, &a.ClassID, &a.DueDate, &a.CreatedAt, &a.DeckName,
	)
	if err != nil {
		return nil, err
	}
	return a, nil
}

// ListByTeacher returns every assignment whose deck belongs to the
// teacher, newest due date first.
func (r *AssignmentRepo) ListByTeacher(ctx context.Context, teacherID uuid.UUID) ([]*models.Assignment, error) {
	query := `SELECT a.id, a.deck_id, a.class_id, a.due_date, a.created_at, d.name
		FROM assignments a
		JOIN decks d ON a.deck_id = d.id
		WHERE d.teacher_id = $1
		ORDER BY a.due_date DESC, a.created_at DESC`

	return r.list(ctx, query, teacherID)
}

func (r *AssignmentRepo) ListByClass(ctx context.Context, classID uuid.UUID) ([]*models.Assignment, error) {
	query := `SELECT a.id, a.deck_id, a.class_id, a.due_date, a.created_at, d.name
		FROM assignments a
		JOIN decks d ON a.deck_id = d.id
		WHERE a.class_id = $1
		ORDER BY a.due_date DESC, a.created_at DESC`

	return r.list(ctx, query, classID)
}

func (r *AssignmentRepo) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := r.pool.Exec(ctx, "DELETE FROM assignments WHERE id = $1", id)
	return err
}

func (r *AssignmentRepo) list(ctx context.Context, query string, arg any) ([]*models.Assignment, error) {
	rows, err := r.pool.Query(ctx, query, arg)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var assignments []*models.Assignment
	for rows.Next() {
		a := &models.Assignment{}
		err := rows.Scan(&a.ID, &a.DeckID, &a.ClassID, &a.DueDate, &a.CreatedAt, &a.DeckName)
		if err != nil {
			return nil, err
		}
		assignments = append(assignments, a)
	}
	return assignments, nil
}
