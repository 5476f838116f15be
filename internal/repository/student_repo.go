package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"deckroom-backend/internal/models"
)

type StudentRepo struct {
	pool *pgxpool.Pool
}

func NewStudentRepo(pool *pgxpool.Pool) *StudentRepo {
	return &StudentRepo{pool: pool}
}

func (r *StudentRepo) Create(ctx context.Context, s *models.Student) error {
	s.ID = uuid.New()
	query := `
		INSERT INTO students (id, username, password_hash, class_id, teacher_id)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at`

	return r.pool.QueryRow(ctx, query,
		s.ID, s.Username, s.PasswordHash, s.ClassID, s.TeacherID,
	).Scan(&s.CreatedAt)
}

func (r *StudentRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Student, error) {
	s := &models.Student{}
	query := `SELECT id, username, password_hash, class_id, teacher_id, created_at
		FROM students WHERE id = $1`

	err := r.pool.QueryRow(ctx, query, id).Scan(
		&s.ID, &s.Username, &s.PasswordHash, &s.ClassID, &s.TeacherID, &s.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return s, nil
}

// GetByLogin looks up a student by username within one class. Usernames
// are only unique per class, so the class id is part of the key.
func (r *StudentRepo) GetByLogin(ctx context.Context, username string, classID uuid.UUID) (*models.Student, error) {
	s := &models.Student{}
	query := `SELECT id, username, password_hash, class_id, teacher_id, created_at
		FROM students WHERE username = $1 AND class_id = $2`

	err := r.pool.QueryRow(ctx, query, username, classID).Scan(
		&s.ID, &s.Username, &s.PasswordHash, &s.ClassID, &s.TeacherID, &s.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return s, nil
}

func (r *StudentRepo) ListByClass(ctx context.Context, classID uuid.UUID) ([]*models.Student, error) {
	query := `SELECT id, username, password_hash, class_id, teacher_id, created_at
		FROM students WHERE class_id = $1 ORDER BY username`

	rows, err := r.pool.Query(ctx, query, classID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var students []*models.Student
	for rows.Next() {
		s := &models.Student{}
		err := rows.Scan(&s.ID, &s.Username, &s.PasswordHash, &s.ClassID, &s.TeacherID, &s.CreatedAt)
		if err != nil {
			return nil, err
		}
		students = append(students, s)
	}
	return students, nil
}

func (r *StudentRepo) CountByClass(ctx context.Context, classID uuid.UUID) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx, "SELECT COUNT(*) FROM students WHERE class_id = $1", classID).Scan(&count)
	return count, err
}
