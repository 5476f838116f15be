package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"deckroom-backend/internal/models"
)

type ClassRepo struct {
	pool *pgxpool.Pool
}

func NewClassRepo(pool *pgxpool.Pool) *ClassRepo {
	return &ClassRepo{pool: pool}
}

func (r *ClassRepo) Create(ctx context.Context, c *models.Class) error {
	c.ID = uuid.New()
	query := `
		INSERT INTO classes (id, name, code, teacher_id)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at, updated_at`

	return r.pool.QueryRow(ctx, query, c.ID, c.Name, c.Code, c.TeacherID).
		Scan(&c.CreatedAt, &c.UpdatedAt)
}

func (r *ClassRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Class, error) {
	c := &models.Class{}
	query := `SELECT id, name, code, teacher_id, created_at, updated_at
		FROM classes WHERE id = $1`

	err := r.pool.QueryRow(ctx, query, id).Scan(
		&c.ID, &c.Name, &c.Code, &c.TeacherID, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return c, nil
}

// GetByCode resolves a class join code as typed by a student.
func (r *ClassRepo) GetByCode(ctx context.Context, code string) (*models.Class, error) {
	c := &models.Class{}
	query := `SELECT id, name, code, teacher_id, created_at, updated_at
		FROM classes WHERE code = $1`

	err := r.pool.QueryRow(ctx, query, code).Scan(
		&c.ID, &c.Name, &c.Code, &c.TeacherID, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return c, nil
}

func (r *ClassRepo) ListByTeacher(ctx context.Context, teacherID uuid.UUID) ([]*models.Class, error) {
	query := `SELECT id, name, code, teacher_id, created_at, updated_at
		FROM classes WHERE teacher_id = $1 ORDER BY created_at DESC`

	rows, err := r.pool.Query(ctx, query, teacherID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var classes []*models.Class
	for rows.Next() {
		c := &models.Class{}
		err := rows.Scan(&c.ID, &c.Name, &c.Code, &c.TeacherID, &c.CreatedAt, &c.UpdatedAt)
		if err != nil {
			return nil, err
		}
		classes = append(classes, c)
	}
	return classes, nil
}

func (r *ClassRepo) Rename(ctx context.Context, id uuid.UUID, name string) error {
	_, err := r.pool.Exec(ctx,
		"UPDATE classes SET name = $1, updated_at = NOW() WHERE id = $2", name, id)
	return err
}

// CodeExists reports whether a join code is already taken.
func (r *ClassRepo) CodeExists(ctx context.Context, code string) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx,
		"SELECT EXISTS(SELECT 1 FROM classes WHERE code = $1)", code).Scan(&exists)
	return exists, err
}
