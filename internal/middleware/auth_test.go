package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
)

func TestJWTRoundTrip(t *testing.T) {
	auth := NewJWTAuth("test-secret")
	subjectID := uuid.New()

	token, err := auth.GenerateAccessToken(subjectID, RoleStudent)
	if err != nil {
		t.Fatalf("Failed to generate token: %v", err)
	}

	var gotID uuid.UUID
	var gotRole string
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotID = GetUserID(r.Context())
		gotRole = GetRole(r.Context())
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rr := httptest.NewRecorder()

	auth.Middleware(next).ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
	if gotID != subjectID {
		t.Errorf("Expected subject %s in context, got %s", subjectID, gotID)
	}
	if gotRole != RoleStudent {
		t.Errorf("Expected role %q in context, got %q", RoleStudent, gotRole)
	}
}

func TestJWTMiddleware_RejectsBadTokens(t *testing.T) {
	auth := NewJWTAuth("test-secret")
	other := NewJWTAuth("different-secret")

	wrongKey, _ := other.GenerateAccessToken(uuid.New(), RoleTeacher)

	tests := []struct {
		name   string
		header string
	}{
		{"missing header", ""},
		{"not bearer", "Basic abc123"},
		{"garbage token", "Bearer not.a.jwt"},
		{"wrong signing key", "Bearer " + wrongKey},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			rr := httptest.NewRecorder()

			called := false
			next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				called = true
			})

			auth.Middleware(next).ServeHTTP(rr, req)

			if rr.Code != http.StatusUnauthorized {
				t.Errorf("Expected 401, got %d", rr.Code)
			}
			if called {
				t.Error("Handler should not run for an invalid token")
			}
		})
	}
}

func TestRequireRole(t *testing.T) {
	auth := NewJWTAuth("test-secret")

	studentToken, _ := auth.GenerateAccessToken(uuid.New(), RoleStudent)
	teacherToken, _ := auth.GenerateAccessToken(uuid.New(), RoleTeacher)

	handler := auth.Middleware(RequireRole(RoleTeacher)(http.HandlerFunc(
		func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
		})))

	tests := []struct {
		name     string
		token    string
		wantCode int
	}{
		{"teacher allowed", teacherToken, http.StatusOK},
		{"student forbidden", studentToken, http.StatusForbidden},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.Header.Set("Authorization", "Bearer "+tc.token)
			rr := httptest.NewRecorder()

			handler.ServeHTTP(rr, req)

			if rr.Code != tc.wantCode {
				t.Errorf("Expected %d, got %d", tc.wantCode, rr.Code)
			}
		})
	}
}

func TestGetUserID_EmptyContext(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)

	if id := GetUserID(req.Context()); id != uuid.Nil {
		t.Errorf("Expected uuid.Nil from bare context, got %s", id)
	}
	if role := GetRole(req.Context()); role != "" {
		t.Errorf("Expected empty role from bare context, got %q", role)
	}
}
