package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"

	"tineghir-cms/internal/cache"
	"tineghir-cms/internal/config"
	"tineghir-cms/internal/handler"
	"tineghir-cms/internal/logging"
	"tineghir-cms/internal/maintenance"
	"tineghir-cms/internal/middleware"
	"tineghir-cms/internal/session"
	"tineghir-cms/internal/store"
)

// Version information - injected at build time via ldflags
var (
	appVersion   = "dev"
	appGitCommit = "unknown"
	appBuildTime = "unknown"
)

func main() {
	showVersion := flag.Bool("version", false, "Show version information")
	flag.BoolVar(showVersion, "v", false, "Show version information (shorthand)")

	flag.Usage = func() {
		_, _ = fmt.Fprintf(os.Stderr, "tineghir - Tineghir tourism site backend\n\n")
		_, _ = fmt.Fprintf(os.Stderr, "Usage: %s [options]\n\n", os.Args[0])
		_, _ = fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		_, _ = fmt.Fprintf(os.Stderr, "\nEnvironment Variables:\n")
		_, _ = fmt.Fprintf(os.Stderr, "  TINEGHIR_SESSION_SECRET   Session key (required, min 32 bytes)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  TINEGHIR_DB_PATH          SQLite database path (default: ./data/tineghir.db)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  TINEGHIR_SERVER_PORT      Server port (default: 3000)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  TINEGHIR_ENV              Environment: development|production (default: development)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  TINEGHIR_UPLOADS_DIR      Upload storage directory (default: ./uploads)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  TINEGHIR_REDIS_URL        Redis URL for the content cache (optional)\n")
	}

	flag.Parse()

	if *showVersion {
		_, _ = fmt.Printf("tineghir %s (commit: %s, built: %s)\n", appVersion, appGitCommit, appBuildTime)
		os.Exit(0)
	}

	if err := run(); err != nil {
		slog.Error("application error", "error", err)
		os.Exit(1)
	}
}

func run() error {
	// Load .env file if present (development)
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	// Setup logger
	logLevel := slog.LevelInfo
	switch cfg.LogLevel {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	// Ensure data directory exists
	dbDir := filepath.Dir(cfg.DBPath)
	if err := os.MkdirAll(dbDir, 0o755); err != nil {
		return fmt.Errorf("creating data directory: %w", err)
	}

	// Initialize database
	slog.Info("initializing database", "path", cfg.DBPath)
	db, err := store.NewDB(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("initializing database: %w", err)
	}
	defer func(db *sql.DB) {
		if err := db.Close(); err != nil {
			slog.Error("error closing database connection", "error", err)
		}
	}(db)

	slog.Info("running database migrations")
	if err := store.Migrate(db); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}
	slog.Info("database ready")

	// Upgrade logger to also mirror WARN and ERROR logs into the event log
	textHandler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel})
	logger = slog.New(logging.NewEventLogHandler(textHandler, db))
	slog.SetDefault(logger)

	// Seed default data on first boot
	ctx := context.Background()
	if err := store.Seed(ctx, db, store.SeedParams{
		AdminEmail:    cfg.AdminEmail,
		AdminPassword: cfg.AdminPassword,
	}); err != nil {
		return fmt.Errorf("seeding database: %w", err)
	}

	// Initialize session manager
	sessionManager := session.New(db, cfg.IsDevelopment())
	slog.Info("session manager initialized", "lifetime", session.Lifetime)

	// Content cache (memory, or Redis when configured)
	contentCache := cache.New(cfg.RedisURL, time.Hour)
	defer func() { _ = contentCache.Close() }()

	// Login attempt ceiling: 5 attempts per 15 minutes per address
	loginLimiter := middleware.NewLoginLimiter(middleware.DefaultLoginLimiterConfig())
	slog.Info("login rate limiter initialized", "max_attempts", 5, "window", "15m")

	// General API ceiling per address
	apiRateLimiter := middleware.NewGlobalRateLimiter(100, 200)
	slog.Info("api rate limiter initialized", "rate", "100 req/s", "burst", 200)

	// Cross-origin request protection for the session-cookie surface
	csrfMiddleware := middleware.CSRF(middleware.DefaultCSRFConfig([]byte(cfg.SessionSecret), cfg.IsDevelopment()))

	// Maintenance jobs (rate-window pruning, event retention, WAL checkpoint)
	sched := maintenance.New(db, loginLimiter, apiRateLimiter)
	if err := sched.Start(); err != nil {
		return fmt.Errorf("starting maintenance scheduler: %w", err)
	}
	defer sched.Stop()

	// Initialize handlers
	authHandler := handler.NewAuthHandler(db, sessionManager)
	contentHandler := handler.NewContentHandler(db, contentCache)
	attractionsHandler := handler.NewAttractionsHandler(db)
	usersHandler := handler.NewUsersHandler(db)
	messagesHandler := handler.NewMessagesHandler(db)
	uploadHandler := handler.NewUploadHandler(cfg.UploadsDir)
	healthHandler := handler.NewHealthHandler(db)

	// Create router
	r := chi.NewRouter()

	// Middleware stack
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Logger)
	r.Use(chimw.Recoverer)
	r.Use(chimw.Compress(5))

	r.Get("/health", healthHandler.Health)

	// API surface. Routes are statically classified here: public-read,
	// public-write (message submission and login only), or protected.
	r.Route("/api", func(r chi.Router) {
		r.Use(apiRateLimiter.Middleware())
		r.Use(sessionManager.LoadAndSave)
		r.Use(csrfMiddleware)

		// Public routes
		r.With(loginLimiter.Middleware()).Post("/login", authHandler.Login)
		r.Post("/logout", authHandler.Logout)
		r.Get("/content", contentHandler.Get)
		r.Get("/attractions", attractionsHandler.List)
		r.Post("/messages", messagesHandler.Create)

		// Protected routes
		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(sessionManager))
			r.Use(middleware.LoadUser(sessionManager, db))

			r.Get("/me", authHandler.Me)
			r.Post("/content", contentHandler.Update)
			r.Post("/attractions", attractionsHandler.Create)
			r.Delete("/attractions/{id}", attractionsHandler.Delete)
			r.Get("/users", usersHandler.List)
			r.Post("/users", usersHandler.Create)
			r.Delete("/users/{id}", usersHandler.Delete)
			r.Get("/messages", messagesHandler.List)
			r.Post("/upload", uploadHandler.Upload)
		})
	})

	// Serve uploaded files. Uploads: cache for 1 week.
	uploadsFS := http.FileServer(http.Dir(cfg.UploadsDir))
	r.Handle("/uploads/*", http.StripPrefix("/uploads/", cacheControl(604800, uploadsFS)))

	// Create server with appropriate timeouts
	srv := &http.Server{
		Addr:              cfg.ServerAddr(),
		Handler:           r,
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      60 * time.Second, // allow for large uploads and slow connections
		IdleTimeout:       60 * time.Second,
		MaxHeaderBytes:    1 << 20,
	}

	// Start server in goroutine
	go func() {
		slog.Info("starting server", "addr", cfg.ServerAddr(), "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server error", "error", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	slog.Info("server stopped")
	return nil
}

// cacheControl wraps a handler with a public max-age Cache-Control header.
func cacheControl(maxAgeSeconds int, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", fmt.Sprintf("public, max-age=%d", maxAgeSeconds))
		next.ServeHTTP(w, r)
	})
}
