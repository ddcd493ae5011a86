package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"studymate-backend/internal/config"
	"studymate-backend/internal/database"
	"studymate-backend/internal/handlers"
	"studymate-backend/internal/logger"
	"studymate-backend/internal/middleware"
	"studymate-backend/internal/realtime"
	"studymate-backend/internal/repository"
	"studymate-backend/internal/router"
	"studymate-backend/internal/services"
	"studymate-backend/internal/worker"
)

func main() {
	// ──── Step 1: Load Environment Variables ────
	cfg := config.Load()

	log, err := logger.New(cfg.Env)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger init failed: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()
	log.Info("starting StudyMate backend", "env", cfg.Env)

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	// ──── Step 2: PostgreSQL ────
	pool, err := database.NewPostgresPool(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatal("PostgreSQL connection failed", "error", err)
	}
	defer pool.Close()
	log.Info("PostgreSQL connected")

	// ──── Step 3: Redis ────
	rdb, err := database.OpenRedis(ctx, cfg.RedisURL)
	if err != nil {
		log.Fatal("Redis connection failed", "error", err)
	}
	defer rdb.Close()
	log.Info("Redis connected")

	// ──── Step 4: Migrations ────
	if err := database.RunMigrations(ctx, pool, "migrations", log); err != nil {
		log.Fatal("database migration failed", "error", err)
	}

	// ──── Repositories ────
	breakdownRepo := repository.NewBreakdownRepo(pool)
	groupRepo := repository.NewGroupRepo(pool)
	messageRepo := repository.NewGroupMessageRepo(pool)
	noteRepo := repository.NewNoteRepo(pool)

	// ──── Step 5: Upstream clients ────
	geminiService, err := services.NewGeminiService(ctx, services.GeminiOptions{
		APIKey:         cfg.GeminiAPIKey,
		Model:          cfg.GeminiModel,
		ConcurrentReqs: cfg.GeminiConcurrentReqs,
		Timeout:        cfg.UpstreamTimeout,
		MaxRetries:     cfg.UpstreamMaxRetries,
	}, log)
	if err != nil {
		log.Fatal("Gemini client initialization failed", "error", err)
	}
	defer geminiService.Close()

	youtubeSearch, err := services.NewYouTubeSearchService(ctx, services.YouTubeSearchOptions{
		APIKey:     cfg.YouTubeAPIKey,
		Timeout:    cfg.UpstreamTimeout,
		MaxRetries: cfg.UpstreamMaxRetries,
	}, log)
	if err != nil {
		log.Fatal("YouTube client initialization failed", "error", err)
	}

	// ──── Services ────
	jwtAuth := middleware.NewJWTAuth(cfg.JWTSecret)
	pipeline := services.NewChapterPipeline(geminiService, youtubeSearch, log)
	translator := services.NewTranslator(geminiService, services.NewRedisTranslationCache(rdb.Jobs), cfg.TranslationCacheTTL, log)
	extractor := services.NewSyllabusExtractor(log)
	emailService := services.NewEmailService(services.EmailOptions{
		Host:        cfg.SMTPHost,
		Port:        cfg.SMTPPort,
		User:        cfg.SMTPUser,
		Pass:        cfg.SMTPPass,
		From:        cfg.SMTPFrom,
		FrontendURL: cfg.FrontendURL,
	}, log)

	// ──── Step 6: Realtime feed + worker pool ────
	publisher := realtime.NewPublisher(rdb.Jobs)
	pending := realtime.NewPendingSet(cfg.PendingBreakdownTTL)
	hub := realtime.NewHub(rdb.Feed, jwtAuth, groupRepo, pending, publisher, log)
	go hub.RunExpiry(ctx, 15*time.Second)

	workerPool := worker.NewPool(rdb.Jobs, pipeline, breakdownRepo, messageRepo, publisher, cfg.WorkerCount, log)
	workerPool.Start()

	// ──── Handlers ────
	r := router.New(ctx, router.Deps{
		JWTAuth:          jwtAuth,
		StudyHandler:     handlers.NewStudyHandler(pipeline, translator, extractor, log),
		BreakdownHandler: handlers.NewBreakdownHandler(breakdownRepo, pipeline, log),
		GroupHandler:     handlers.NewGroupHandler(groupRepo, messageRepo, breakdownRepo, workerPool, pending, publisher, emailService, log),
		NoteHandler:      handlers.NewNoteHandler(noteRepo),
		Hub:              hub,
		FrontendURL:      cfg.FrontendURL,
	})

	// Generation with retries can outlast a short write timeout.
	server := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Port),
		Handler:      r,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 5 * time.Minute,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		log.Info("shutting down")
		workerPool.Stop()
		stop()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		server.Shutdown(shutdownCtx)
	}()

	log.Info("StudyMate backend ready", "port", cfg.Port, "api", "/api/v1", "ws", "/api/v1/ws")

	if err := server.ListenAndServe(); err != http.ErrServerClosed {
		log.Fatal("server error", "error", err)
	}
}
