package main

import (
	"log"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"vitalquiz/internal/config"
	"vitalquiz/internal/database"
	"vitalquiz/internal/handlers"
	"vitalquiz/internal/repository"
	"vitalquiz/internal/service"
)

func main() {
	// Load configuration
	cfg := config.Load()

	// Initialize database with config (supports sqlite, postgres, mysql)
	db, err := database.InitializeWithConfig(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	log.Printf("Database connection established (type: %s)", cfg.DatabaseType)

	// Run migrations
	if err := db.RunMigrations(cfg.MigrationsPath); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	log.Println("Migrations completed successfully")

	// Initialize repositories
	vitalPointRepo := repository.NewVitalPointRepository(db)
	historyRepo := repository.NewHistoryRepository(db)
	sessionRepo := repository.NewSessionRepository(db)
	resultRepo := repository.NewResultRepository(db)

	// Seed the vital point catalog
	catalogService := service.NewCatalogService(vitalPointRepo)
	created, updated, err := catalogService.SeedFromFile(cfg.CatalogPath)
	if err != nil {
		log.Fatalf("Failed to seed vital point catalog: %v", err)
	}

	log.Printf("Vital point catalog seeded (created: %d, updated: %d)", created, updated)

	// Initialize services
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	quizService := service.NewQuizService(db, sessionRepo, historyRepo, vitalPointRepo, resultRepo, rng, cfg.ChoiceCount)
	statsService := service.NewStatsService(historyRepo, resultRepo, cfg.TestResultLimit)

	// Initialize handlers
	quizHandler := handlers.NewQuizHandler(quizService)
	historyHandler := handlers.NewHistoryHandler(statsService)
	vitalPointHandler := handlers.NewVitalPointHandler(vitalPointRepo)

	// Setup routes
	mux := http.NewServeMux()

	// Static images
	mux.Handle("GET /static/", http.StripPrefix("/static/", http.FileServer(http.Dir(cfg.StaticFilesPath))))

	// Catalog routes
	mux.HandleFunc("GET /api/vital-points", vitalPointHandler.List)
	mux.HandleFunc("GET /api/vital-points/{id}", vitalPointHandler.Get)

	// Learning history routes
	mux.HandleFunc("GET /api/learning-history", historyHandler.GetAllHistory)
	mux.HandleFunc("GET /api/learning-history/statistics", historyHandler.GetStatistics)
	mux.HandleFunc("GET /api/learning-history/weak-points", historyHandler.GetWeakPoints)
	mux.HandleFunc("GET /api/learning-history/test-results", historyHandler.GetTestResults)

	// Quiz session routes
	mux.HandleFunc("POST /api/quiz-sessions", quizHandler.StartSession)
	mux.HandleFunc("GET /api/quiz-sessions/{id}", quizHandler.GetSession)
	mux.HandleFunc("GET /api/quiz-sessions/{id}/current-question", quizHandler.CurrentQuestion)
	mux.HandleFunc("POST /api/quiz-sessions/{id}/answers", quizHandler.SubmitAnswer)
	mux.HandleFunc("POST /api/quiz-sessions/{id}/pause", quizHandler.Pause)
	mux.HandleFunc("POST /api/quiz-sessions/{id}/resume", quizHandler.Resume)
	mux.HandleFunc("POST /api/quiz-sessions/{id}/complete", quizHandler.Complete)

	// Wrap with CORS and logging middleware
	handler := handlers.Logging(handlers.CORS(cfg.AllowedOrigin, mux))

	// Start server
	addr := ":" + cfg.ServerPort
	server := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("Server starting on http://localhost%s", addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Server shutting down...")
}
