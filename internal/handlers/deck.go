package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"deckroom-backend/internal/middleware"
	"deckroom-backend/internal/models"
	"deckroom-backend/internal/repository"
)

// maxBulkCards caps one import request. Client-side CSV parsing sends
// the rows here as JSON.
const maxBulkCards = 500

type DeckHandler struct {
	deckRepo *repository.DeckRepo
}

func NewDeckHandler(deckRepo *repository.DeckRepo) *DeckHandler {
	return &DeckHandler{deckRepo: deckRepo}
}

func (h *DeckHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req models.CreateDeckRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return
	}

	if req.Name == "" {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Deck name is required", r))
		return
	}

	deck := &models.Deck{
		Name:      req.Name,
		TeacherID: middleware.GetUserID(r.Context()),
	}

	if err := h.deckRepo.Create(r.Context(), deck); err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to create deck", r))
		return
	}

	writeJSON(w, http.StatusCreated, deck)
}

func (h *DeckHandler) List(w http.ResponseWriter, r *http.Request) {
	teacherID := middleware.GetUserID(r.Context())

	decks, err := h.deckRepo.ListByTeacher(r.Context(), teacherID)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to fetch decks", r))
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"decks": decks})
}

func (h *DeckHandler) Get(w http.ResponseWriter, r *http.Request) {
	deck, ok := h.ownedDeck(w, r)
	if !ok {
		return
	}

	cards, _ := h.deckRepo.ListCards(r.Context(), deck.ID)

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"deck":  deck,
		"cards": cards,
	})
}

func (h *DeckHandler) Rename(w http.ResponseWriter, r *http.Request) {
	deck, ok := h.ownedDeck(w, r)
	if !ok {
		return
	}

	var req models.CreateDeckRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Name == "" {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Deck name is required", r))
		return
	}

	if err := h.deckRepo.Rename(r.Context(), deck.ID, req.Name); err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to rename deck", r))
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "Deck renamed"})
}

func (h *DeckHandler) Delete(w http.ResponseWriter, r *http.Request) {
	deck, ok := h.ownedDeck(w, r)
	if !ok {
		return
	}

	if err := h.deckRepo.Delete(r.Context(), deck.ID); err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to delete deck", r))
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "Deck deleted"})
}

func (h *DeckHandler) AddCard(w http.ResponseWriter, r *http.Request) {
	deck, ok := h.ownedDeck(w, r)
	if !ok {
		return
	}

	var req models.CardRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return
	}

	if strings.TrimSpace(req.Question) == "" || strings.TrimSpace(req.Answer) == "" {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Question and answer are required", r))
		return
	}

	card := &models.Card{
		DeckID:   deck.ID,
		Question: strings.TrimSpace(req.Question),
		Answer:   strings.TrimSpace(req.Answer),
	}

	if err := h.deckRepo.CreateCard(r.Context(), card); err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to create card", r))
		return
	}

	writeJSON(w, http.StatusCreated, card)
}

// ImportCards bulk-inserts pre-parsed rows in one transaction. Rows
// with a blank question or answer fail the whole import so a typo in a
// CSV does not silently drop cards.
func (h *DeckHandler) ImportCards(w http.ResponseWriter, r *http.Request) {
	deck, ok := h.ownedDeck(w, r)
	if !ok {
		return
	}

	var req models.BulkCardsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return
	}

	if len(req.Cards) == 0 {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "No cards to import", r))
		return
	}
	if len(req.Cards) > maxBulkCards {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR",
			fmt.Sprintf("Import is limited to %d cards per request", maxBulkCards), r))
		return
	}

	cards := make([]models.Card, len(req.Cards))
	for i, row := range req.Cards {
		q := strings.TrimSpace(row.Question)
		a := strings.TrimSpace(row.Answer)
		if q == "" || a == "" {
			writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR",
				fmt.Sprintf("Row %d is missing a question or answer", i+1), r))
			return
		}
		cards[i] = models.Card{DeckID: deck.ID, Question: q, Answer: a}
	}

	if err := h.deckRepo.CreateCards(r.Context(), deck.ID, cards); err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to import cards", r))
		return
	}

	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"message":  "Cards imported",
		"imported": len(cards),
	})
}

func (h *DeckHandler) UpdateCard(w http.ResponseWriter, r *http.Request) {
	card, ok := h.ownedCard(w, r)
	if !ok {
		return
	}

	var req models.CardRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return
	}

	if strings.TrimSpace(req.Question) == "" || strings.TrimSpace(req.Answer) == "" {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Question and answer are required", r))
		return
	}

	if err := h.deckRepo.UpdateCard(r.Context(), card.ID, strings.TrimSpace(req.Question), strings.TrimSpace(req.Answer)); err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to update card", r))
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "Card updated"})
}

func (h *DeckHandler) DeleteCard(w http.ResponseWriter, r *http.Request) {
	card, ok := h.ownedCard(w, r)
	if !ok {
		return
	}

	if err := h.deckRepo.DeleteCard(r.Context(), card.ID); err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to delete card", r))
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "Card deleted"})
}

func (h *DeckHandler) ownedDeck(w http.ResponseWriter, r *http.Request) (*models.Deck, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid deck ID", r))
		return nil, false
	}

	deck, err := h.deckRepo.GetByID(r.Context(), id)
	if err != nil {
		writeJSON(w, http.StatusNotFound, errorResp("NOT_FOUND", "Deck not found", r))
		return nil, false
	}

	if deck.TeacherID != middleware.GetUserID(r.Context()) {
		writeJSON(w, http.StatusForbidden, errorResp("FORBIDDEN", "Access denied", r))
		return nil, false
	}
	return deck, true
}

func (h *DeckHandler) ownedCard(w http.ResponseWriter, r *http.Request) (*models.Card, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "cardID"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid card ID", r))
		return nil, false
	}

	card, err := h.deckRepo.GetCard(r.Context(), id)
	if err != nil {
		writeJSON(w, http.StatusNotFound, errorResp("NOT_FOUND", "Card not found", r))
		return nil, false
	}

	deck, err := h.deckRepo.GetByID(r.Context(), card.DeckID)
	if err != nil || deck.TeacherID != middleware.GetUserID(r.Context()) {
		writeJSON(w, http.StatusForbidden, errorResp("FORBIDDEN", "Access denied", r))
		return nil, false
	}
	return card, true
}
