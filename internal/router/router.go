package router

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"deckroom-backend/internal/handlers"
	"deckroom-backend/internal/middleware"
	"deckroom-backend/internal/websocket"
)

func New(
	jwtAuth *middleware.JWTAuth,
	authHandler *handlers.AuthHandler,
	classHandler *handlers.ClassHandler,
	deckHandler *handlers.DeckHandler,
	assignmentHandler *handlers.AssignmentHandler,
	studyHandler *handlers.StudyHandler,
	resultHandler *handlers.ResultHandler,
	wsHub *websocket.Hub,
	frontendURL string,
) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.CORS(frontendURL))

	// Auth rate limiter (10 req/min per IP)
	authLimiter := middleware.NewRateLimiter(10, time.Minute)

	// Health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})

	r.Route("/api/v1", func(r chi.Router) {

		// ──── Auth Routes (public) ────
		r.Route("/auth", func(r chi.Router) {
			r.Use(authLimiter.Middleware)
			r.Post("/register", authHandler.Register)
			r.Post("/login", authHandler.Login)
			r.Post("/student-login", authHandler.StudentLogin)
			r.Post("/refresh", authHandler.Refresh)
			r.Post("/forgot-password", authHandler.ForgotPassword)
			r.Post("/reset-password", authHandler.ResetPassword)

			// Logout requires auth
			r.Group(func(r chi.Router) {
				r.Use(jwtAuth.Middleware)
				r.Post("/logout", authHandler.Logout)
			})
		})

		// ──── Class Routes (teacher) ────
		r.Route("/classes", func(r chi.Router) {
			r.Use(jwtAuth.Middleware)
			r.Use(middleware.RequireRole(middleware.RoleTeacher))
			r.Post("/", classHandler.Create)
			r.Get("/", classHandler.List)
			r.Get("/{id}", classHandler.Get)
			r.Put("/{id}", classHandler.Rename)
			r.Post("/{id}/students", classHandler.AddStudent)
		})

		// ──── Deck Routes (teacher) ────
		r.Route("/decks", func(r chi.Router) {
			r.Use(jwtAuth.Middleware)
			r.Use(middleware.RequireRole(middleware.RoleTeacher))
			r.Post("/", deckHandler.Create)
			r.Get("/", deckHandler.List)
			r.Get("/{id}", deckHandler.Get)
			r.Put("/{id}", deckHandler.Rename)
			r.Delete("/{id}", deckHandler.Delete)
			r.Post("/{id}/cards", deckHandler.AddCard)
			r.Post("/{id}/cards/import", deckHandler.ImportCards)

			r.Route("/cards/{cardID}", func(r chi.Router) {
				r.Put("/", deckHandler.UpdateCard)
				r.Delete("/", deckHandler.DeleteCard)
			})
		})

		// ──── Assignment Routes ────
		r.Route("/assignments", func(r chi.Router) {
			r.Use(jwtAuth.Middleware)

			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireRole(middleware.RoleTeacher))
				r.Post("/", assignmentHandler.Create)
				r.Get("/", assignmentHandler.List)
				r.Delete("/{id}", assignmentHandler.Delete)
				r.Get("/{id}/stats", resultHandler.Stats)
			})

			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireRole(middleware.RoleStudent))
				r.Get("/mine", assignmentHandler.ListForStudent)
			})

			// Leaderboard is visible to the class and its teacher
			r.Get("/{id}/leaderboard", resultHandler.Leaderboard)
		})

		// ──── Study Session Routes (student) ────
		r.Route("/study/sessions", func(r chi.Router) {
			r.Use(jwtAuth.Middleware)
			r.Use(middleware.RequireRole(middleware.RoleStudent))
			r.Post("/", studyHandler.Start)
			r.Get("/{id}", studyHandler.Get)
			r.Post("/{id}/answer", studyHandler.Answer)
			r.Post("/{id}/advance", studyHandler.Advance)
			r.Get("/{id}/summary", studyHandler.Summary)
			r.Post("/{id}/result", studyHandler.SubmitResult)
			r.Delete("/{id}", studyHandler.Abandon)
		})

		// ──── Result Routes (student) ────
		r.Route("/results", func(r chi.Router) {
			r.Use(jwtAuth.Middleware)
			r.Use(middleware.RequireRole(middleware.RoleStudent))
			r.Get("/mine", resultHandler.MyResults)
		})

		// ──── WebSocket ────
		r.Get("/ws", wsHub.HandleWebSocket)
	})

	return r
}
