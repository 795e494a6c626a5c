package main

import (
	"context"
	"io"
	"log"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/cors"

	"classledger/internal/auth"
	"classledger/internal/config"
	"classledger/internal/folders"
	"classledger/internal/handler"
	"classledger/internal/ledger"
	"classledger/internal/middleware"
	"classledger/internal/repository/postgres"
	"classledger/internal/repository/postgres/migrations"
)

func main() {
	// Load .env file (silently ignore if it doesn't exist - for production)
	_ = godotenv.Load()

	// Load configuration
	cfg := config.Load()

	// Setup structured logging
	logLevel := slog.LevelInfo
	if cfg.Environment == "dev" {
		logLevel = slog.LevelDebug
	}

	var logOut io.Writer = os.Stdout
	if cfg.LogDir != "" {
		logFile, err := config.SetupLogFile(cfg.LogDir, 10)
		if err != nil {
			log.Fatalf("Failed to set up log file: %v", err)
		}
		defer logFile.Close()
		logOut = io.MultiWriter(os.Stdout, logFile)
	}

	logger := slog.New(slog.NewJSONHandler(logOut, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	logger.Info("server starting",
		"environment", cfg.Environment,
		"port", cfg.Port,
		"table_prefix", cfg.TablePrefix,
	)

	// Create JWT verifier against the identity provider's JWKS endpoint
	jwtVerifier, err := auth.NewJWTVerifier(cfg.SupabaseJWKSURL, logger)
	if err != nil {
		log.Fatalf("Failed to create JWT verifier: %v", err)
	}
	defer jwtVerifier.Close()

	// Create pgx connection pool
	ctx := context.Background()
	pool, err := postgres.CreateConnectionPool(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to create connection pool: %v", err)
	}
	defer pool.Close()

	logger.Info("database connected",
		"max_conns", 25,
		"min_conns", 5,
	)

	// Bring the schema up to date. Prefixed-table deployments manage the
	// schema externally.
	if cfg.TablePrefix == "" {
		if err := migrations.MigrateUp(cfg.DatabaseURL); err != nil {
			log.Fatalf("Failed to run migrations: %v", err)
		}
		logger.Info("database schema up to date")
	} else {
		logger.Warn("table prefix set, skipping embedded migrations", "table_prefix", cfg.TablePrefix)
	}

	// Create repositories
	tables := postgres.NewTableNames(cfg.TablePrefix)
	repoConfig := &postgres.RepositoryConfig{
		Pool:   pool,
		Tables: tables,
		Logger: logger,
	}
	studentRepo := postgres.NewStudentRepository(repoConfig)
	sessionRepo := postgres.NewSessionRepository(repoConfig)
	txManager := postgres.NewTransactionManager(pool)
	changeFeed := postgres.NewChangeFeed(repoConfig)

	// Load the folder registry
	folderRegistry, err := folders.NewRegistry()
	if err != nil {
		log.Fatalf("Failed to load folder registry: %v", err)
	}
	logger.Info("folder registry loaded", "folders", len(folderRegistry.List()))

	// Per-identity entity stores and the mutation coordinator
	storeManager := ledger.NewManager(func() *ledger.EntityStore {
		return ledger.NewEntityStore(studentRepo, sessionRepo, txManager, changeFeed, logger)
	}, logger)
	defer storeManager.CloseAll()

	coordinator := ledger.NewCoordinator(storeManager, folderRegistry, logger)

	// Create handlers
	studentHandler := handler.NewStudentHandler(storeManager, coordinator, logger)
	sessionHandler := handler.NewSessionHandler(storeManager, coordinator, logger)
	reportHandler := handler.NewReportHandler(storeManager, logger)
	folderHandler := handler.NewFolderHandler(folderRegistry)
	streamHandler := handler.NewStreamHandler(storeManager, logger)

	logger.Info("services initialized")

	// Create HTTP router (Go 1.22+ enhanced patterns)
	mux := http.NewServeMux()

	// Health check
	mux.HandleFunc("GET /health", handler.HealthCheck)

	// Folder registry
	mux.HandleFunc("GET /api/folders", folderHandler.ListFolders)

	// Student routes
	mux.HandleFunc("GET /api/students", studentHandler.ListStudents)
	mux.HandleFunc("POST /api/students", studentHandler.CreateStudent)
	mux.HandleFunc("DELETE /api/students/{id}", studentHandler.DeleteStudent)
	mux.HandleFunc("GET /api/students/{id}/sessions", studentHandler.ListStudentSessions)

	// Session routes
	mux.HandleFunc("GET /api/sessions", sessionHandler.ListSessions)
	mux.HandleFunc("POST /api/sessions", sessionHandler.LogSession)
	mux.HandleFunc("PATCH /api/sessions/{id}", sessionHandler.UpdateSession)
	mux.HandleFunc("DELETE /api/sessions/{id}", sessionHandler.DeleteSession)
	mux.HandleFunc("POST /api/sessions/bulk-delete", sessionHandler.BulkDeleteSessions)
	mux.HandleFunc("GET /api/months", sessionHandler.ListMonths)

	// Report routes
	mux.HandleFunc("GET /api/reports/monthly", reportHandler.Monthly)
	mux.HandleFunc("GET /api/reports/monthly/export", reportHandler.ExportMonthly)

	// Live ledger stream
	mux.HandleFunc("GET /api/ledger/stream", streamHandler.StreamLedger)

	// Build middleware chain
	var httpHandler http.Handler = mux

	// Apply middleware in reverse order (they wrap each other)
	// Order: CORS → Recovery → Auth → Routes
	httpHandler = middleware.AuthMiddleware(jwtVerifier)(httpHandler)
	httpHandler = middleware.Recovery(logger)(httpHandler)

	// CORS - Must be before auth to handle OPTIONS pre-flight requests
	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   strings.Split(cfg.CORSOrigins, ","),
		AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Origin", "Content-Type", "Accept", "Authorization", "Last-Event-ID"},
		AllowCredentials: true,
	})
	httpHandler = corsHandler.Handler(httpHandler)

	// Create HTTP server
	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      httpHandler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 0, // Disabled to allow long-lived SSE streams
		IdleTimeout:  60 * time.Second,
	}

	// Start server
	logger.Info("server listening", "port", cfg.Port)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatalf("Failed to start server: %v", err)
	}
}
