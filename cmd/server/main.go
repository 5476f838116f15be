package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"deckroom-backend/internal/config"
	"deckroom-backend/internal/database"
	"deckroom-backend/internal/handlers"
	"deckroom-backend/internal/middleware"
	"deckroom-backend/internal/repository"
	"deckroom-backend/internal/router"
	"deckroom-backend/internal/services"
	"deckroom-backend/internal/websocket"
	"deckroom-backend/internal/worker"
)

func main() {
	log.Println("🚀 Starting Deckroom Backend...")

	// ──── Step 1: Load Environment Variables ────
	cfg := config.Load()
	log.Println("✓ Environment variables loaded")

	// ──── Step 2: Initialize PostgreSQL Connection Pool ────
	pool, err := database.NewPostgresPool(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("✗ PostgreSQL connection failed: %v", err)
	}
	defer pool.Close()
	log.Println("✓ PostgreSQL connected")

	// ──── Step 3: Initialize Redis Clients ────
	redisClients, err := database.NewRedisClients(cfg.RedisURL)
	if err != nil {
		log.Fatalf("✗ Redis connection failed: %v", err)
	}
	defer redisClients.Close()
	log.Println("✓ Redis connected")

	// ──── Step 4: Run Database Migrations ────
	if err := database.RunMigrations(pool, "migrations"); err != nil {
		log.Fatalf("✗ Database migration failed: %v", err)
	}
	log.Println("✓ Database migrations applied")

	// ──── Initialize Repositories ────
	userRepo := repository.NewUserRepo(pool)
	studentRepo := repository.NewStudentRepo(pool)
	classRepo := repository.NewClassRepo(pool)
	deckRepo := repository.NewDeckRepo(pool)
	assignmentRepo := repository.NewAssignmentRepo(pool)
	resultRepo := repository.NewResultRepo(pool)

	// ──── Initialize Services ────
	jwtAuth := middleware.NewJWTAuth(cfg.JWTSecret)
	emailService := services.NewEmailService(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPass, cfg.SMTPFrom, cfg.FrontendURL)
	authService := services.NewAuthService(userRepo, studentRepo, classRepo, redisClients.Queue, jwtAuth, emailService)
	studyService := services.NewStudyService(deckRepo, resultRepo, studentRepo, redisClients.Queue)

	// ──── Initialize Handlers ────
	authHandler := handlers.NewAuthHandler(authService)
	classHandler := handlers.NewClassHandler(classRepo, studentRepo)
	deckHandler := handlers.NewDeckHandler(deckRepo)
	assignmentHandler := handlers.NewAssignmentHandler(assignmentRepo, deckRepo, classRepo, studentRepo, resultRepo)
	studyHandler := handlers.NewStudyHandler(studyService, assignmentRepo, studentRepo)
	resultHandler := handlers.NewResultHandler(resultRepo, assignmentRepo, classRepo, studentRepo)

	// ──── Step 5: Start Worker Pool ────
	workerPool := worker.NewPool(
		redisClients.Queue,
		resultRepo,
		studentRepo,
		studyService,
		cfg.WorkerCount,
		time.Duration(cfg.SessionIdleMins)*time.Minute,
	)
	workerPool.Start()
	log.Printf("✓ Worker pool started (%d goroutines)", cfg.WorkerCount)

	// ──── Step 6: Start WebSocket Hub ────
	wsHub := websocket.NewHub(redisClients.PubSub, cfg.JWTSecret)
	log.Println("✓ WebSocket hub started")

	// ──── Step 7: Start HTTP Server ────
	r := router.New(
		jwtAuth,
		authHandler,
		classHandler,
		deckHandler,
		assignmentHandler,
		studyHandler,
		resultHandler,
		wsHub,
		cfg.FrontendURL,
	)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Port),
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		log.Println("Shutting down...")
		workerPool.Stop()

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		server.Shutdown(ctx)
	}()

	log.Printf("✓ Deckroom Backend ready on http://localhost:%s", cfg.Port)
	log.Printf("  API: http://localhost:%s/api/v1", cfg.Port)
	log.Printf("  WS:  ws://localhost:%s/api/v1/ws", cfg.Port)

	if err := server.ListenAndServe(); err != http.ErrServerClosed {
		log.Fatalf("Server error: %v", err)
	}
}
