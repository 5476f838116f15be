package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"deckroom-backend/internal/models"
	"deckroom-backend/internal/services"
)

// ─── Error Mapping Tests ───

func TestHandleServiceError_StatusCodes(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode int
		wantErr  string
	}{
		{"validation", &services.ValidationError{Fields: map[string]string{"email": "bad"}}, http.StatusBadRequest, "VALIDATION_ERROR"},
		{"conflict", &services.ConflictError{Message: "taken"}, http.StatusConflict, "CONFLICT"},
		{"not found", &services.NotFoundError{Message: "missing"}, http.StatusNotFound, "NOT_FOUND"},
		{"unauthorized", &services.UnauthorizedError{Message: "nope"}, http.StatusUnauthorized, "UNAUTHORIZED"},
		{"forbidden", &services.ForbiddenError{Message: "denied"}, http.StatusForbidden, "FORBIDDEN"},
		{"rate limited", &services.RateLimitError{Message: "slow down"}, http.StatusTooManyRequests, "RATE_LIMITED"},
		{"unknown", errors.New("boom"), http.StatusInternalServerError, "INTERNAL_ERROR"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			rr := httptest.NewRecorder()

			handleServiceError(rr, req, tc.err)

			if rr.Code != tc.wantCode {
				t.Errorf("Expected status %d, got %d", tc.wantCode, rr.Code)
			}

			var resp models.ErrorResponse
			if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
				t.Fatalf("Failed to decode error response: %v", err)
			}
			if resp.Error.Code != tc.wantErr {
				t.Errorf("Expected error code %q, got %q", tc.wantErr, resp.Error.Code)
			}
		})
	}
}

func TestHandleServiceError_ValidationFields(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rr := httptest.NewRecorder()

	handleServiceError(rr, req, &services.ValidationError{
		Fields: map[string]string{"password": "too short"},
	})

	var resp models.ErrorResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("Failed to decode error response: %v", err)
	}
	if resp.Error.Fields["password"] != "too short" {
		t.Errorf("Expected field error to survive serialization, got %v", resp.Error.Fields)
	}
}

func TestErrorResp_EchoesRequestID(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-ID", "req-abc-123")

	resp := errorResp("NOT_FOUND", "Deck not found", req)

	if resp.Error.RequestID != "req-abc-123" {
		t.Errorf("Expected request ID 'req-abc-123', got %q", resp.Error.RequestID)
	}
	if resp.Error.Message != "Deck not found" {
		t.Errorf("Expected message to pass through, got %q", resp.Error.Message)
	}
}

func TestWriteJSON(t *testing.T) {
	rr := httptest.NewRecorder()

	writeJSON(rr, http.StatusCreated, map[string]string{"message": "ok"})

	if rr.Code != http.StatusCreated {
		t.Errorf("Expected status 201, got %d", rr.Code)
	}
	if ct := rr.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Expected Content-Type 'application/json', got %q", ct)
	}

	var body map[string]string
	if err := json.NewDecoder(rr.Body).Decode(&body); err != nil {
		t.Fatalf("Failed to decode body: %v", err)
	}
	if body["message"] != "ok" {
		t.Errorf("Expected message 'ok', got %q", body["message"])
	}
}

// ─── URL Param Tests ───

func TestSessionParam(t *testing.T) {
	id := uuid.New()

	tests := []struct {
		name   string
		param  string
		wantOK bool
		wantID uuid.UUID
	}{
		{"valid uuid", id.String(), true, id},
		{"garbage", "not-a-uuid", false, uuid.Nil},
		{"empty", "", false, uuid.Nil},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			rctx := chi.NewRouteContext()
			rctx.URLParams.Add("id", tc.param)
			req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))

			rr := httptest.NewRecorder()
			got, ok := sessionParam(rr, req)

			if ok != tc.wantOK {
				t.Fatalf("Expected ok=%v, got %v", tc.wantOK, ok)
			}
			if got != tc.wantID {
				t.Errorf("Expected id %s, got %s", tc.wantID, got)
			}
			if !tc.wantOK && rr.Code != http.StatusBadRequest {
				t.Errorf("Expected 400 response for bad param, got %d", rr.Code)
			}
		})
	}
}

// ─── Request Parsing Tests ───

func TestStartSessionRequest_Parsing(t *testing.T) {
	assignmentID := uuid.New()
	deckID := uuid.New()

	raw := `{"deck_id":"` + deckID.String() + `","assignment_id":"` + assignmentID.String() + `"}`

	var req models.StartSessionRequest
	if err := json.Unmarshal([]byte(raw), &req); err != nil {
		t.Fatalf("Failed to parse request: %v", err)
	}

	if req.DeckID != deckID {
		t.Errorf("Expected deck_id %s, got %s", deckID, req.DeckID)
	}
	if req.AssignmentID == nil || *req.AssignmentID != assignmentID {
		t.Errorf("Expected assignment_id %s, got %v", assignmentID, req.AssignmentID)
	}
}

func TestStartSessionRequest_FreePractice(t *testing.T) {
	deckID := uuid.New()
	raw := `{"deck_id":"` + deckID.String() + `"}`

	var req models.StartSessionRequest
	if err := json.Unmarshal([]byte(raw), &req); err != nil {
		t.Fatalf("Failed to parse request: %v", err)
	}

	if req.AssignmentID != nil {
		t.Errorf("Expected nil assignment_id for free practice, got %v", req.AssignmentID)
	}
}

// ─── Join Code Tests ───

func TestJoinCodeAlphabet_NoAmbiguousChars(t *testing.T) {
	for _, forbidden := range "01OIl" {
		for _, c := range joinCodeAlphabet {
			if c == forbidden {
				t.Errorf("Alphabet contains ambiguous character %q", c)
			}
		}
	}
}
