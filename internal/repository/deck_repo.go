package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"deckroom-backend/internal/models"
)

type DeckRepo struct {
	pool *pgxpool.Pool
}

func NewDeckRepo(pool *pgxpool.Pool) *DeckRepo {
	return &DeckRepo{pool: pool}
}

// Deck operations

func (r *DeckRepo) Create(ctx context.Context, d *models.Deck) error {
	d.ID = uuid.New()
	query := `
		INSERT INTO decks (id, name, teacher_id)
		VALUES ($1, $2, $3)
		RETURNING created_at, updated_at`

	return r.pool.QueryRow(ctx, query, d.ID, d.Name, d.TeacherID).
		Scan(&d.CreatedAt, &d.UpdatedAt)
}

func (r *DeckRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Deck, error) {
	d := &models.Deck{}
	query := `SELECT d.id, d.name, d.teacher_id, COUNT(c.id), d.created_at, d.updated_at
		FROM decks d
		LEFT JOIN cards c ON c.deck_id = d.id
		WHERE d.id = $1
		GROUP BY d.id`

	err := r.pool.QueryRow(ctx, query, id).Scan(
		&d.ID, &d.Name, &d.TeacherID, &d.CardCount, &d.CreatedAt, &d.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return d, nil
}

func (r *DeckRepo) ListByTeacher(ctx context.Context, teacherID uuid.UUID) ([]*models.Deck, error) {
	query := `SELECT d.id, d.name, d.teacher_id, COUNT(c.id), d.created_at, d.updated_at
		FROM decks d
		LEFT JOIN cards c ON c.deck_id = d.id
		WHERE d.teacher_id = $1
		GROUP BY d.id
		ORDER BY d.created_at DESC`

	rows, err := r.pool.Query(ctx, query, teacherID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var decks []*models.Deck
	for rows.Next() {
		d := &models.Deck{}
		err := rows.Scan(&d.ID, &d.Name, &d.TeacherID, &d.CardCount, &d.CreatedAt, &d.UpdatedAt)
		if err != nil {
			return nil, err
		}
		decks = append(decks, d)
	}
	return decks, nil
}

func (r *DeckRepo) Rename(ctx context.Context, id uuid.UUID, name string) error {
	_, err := r.pool.Exec(ctx,
		"UPDATE decks SET name = $1, updated_at = NOW() WHERE id = $2", name, id)
	return err
}

// Delete removes a deck; cards cascade at the schema level.
func (r *DeckRepo) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := r.pool.Exec(ctx, "DELETE FROM decks WHERE id = $1", id)
	return err
}

// Card operations

func (r *DeckRepo) CreateCard(ctx context.Context, c *models.Card) error {
	c.ID = uuid.New()
	query := `
		INSERT INTO cards (id, deck_id, question, answer)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at`

	return r.pool.QueryRow(ctx, query, c.ID, c.DeckID, c.Question, c.Answer).
		Scan(&c.CreatedAt)
}

// CreateCards inserts a batch of pre-parsed cards in one transaction so
// a half-imported deck is never visible.
func (r *DeckRepo) CreateCards(ctx context.Context, deckID uuid.UUID, cards []models.Card) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	for i := range cards {
		cards[i].ID = uuid.New()
		cards[i].DeckID = deckID
		err := tx.QueryRow(ctx,
			`INSERT INTO cards (id, deck_id, question, answer)
			 VALUES ($1, $2, $3, $4) RETURNING created_at`,
			cards[i].ID, deckID, cards[i].Question, cards[i].Answer,
		).Scan(&cards[i].CreatedAt)
		if err != nil {
			return err
		}
	}

	return tx.Commit(ctx)
}

func (r *DeckRepo) ListCards(ctx context.Context, deckID uuid.UUID) ([]models.Card, error) {
	query := `SELECT id, deck_id, question, answer, created_at
		FROM cards WHERE deck_id = $1 ORDER BY created_at ASC`

	rows, err := r.pool.Query(ctx, query, deckID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var cards []models.Card
	for rows.Next() {
		c := models.Card{}
		err := rows.Scan(&c.ID, &c.DeckID, &c.Question, &c.Answer, &c.CreatedAt)
		if err != nil {
			return nil, err
		}
		cards = append(cards, c)
	}
	return cards, nil
}

func (r *DeckRepo) UpdateCard(ctx context.Context, id uuid.UUID, question, answer string) error {
	_, err := r.pool.Exec(ctx,
		"UPDATE cards SET question = $1, answer = $2, updated_at = NOW() WHERE id = $3",
		question, answer, id)
	return err
}

func (r *DeckRepo) DeleteCard(ctx context.Context, id uuid.UUID) error {
	_, err := r.pool.Exec(ctx, "DELETE FROM cards WHERE id = $1", id)
	return err
}

func (r *DeckRepo) GetCard(ctx context.Context, id uuid.UUID) (*models.Card, error) {
	c := &models.Card{}
	query := `SELECT id, deck_id, question, answer, created_at FROM cards WHERE id = $1`

	err := r.pool.QueryRow(ctx, query, id).Scan(&c.ID, &c.DeckID, &c.Question, &c.Answer, &c.CreatedAt)
	if err != nil {
		return nil, err
	}
	return c, nil
}
