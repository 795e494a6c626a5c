// Seeds a development database with a few students and sessions so the
// ledger UI has something to show. Target identity comes from SEED_USER_ID;
// a random one is generated when unset.
package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"

	"classledger/internal/config"
	"classledger/internal/domain/models"
	"classledger/internal/repository/postgres"
	"classledger/internal/repository/postgres/migrations"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	if cfg.Environment == "prod" {
		log.Fatal("Refusing to seed a prod environment")
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	userID := os.Getenv("SEED_USER_ID")
	if userID == "" {
		userID = uuid.New().String()
		logger.Info("no SEED_USER_ID set, generated one", "user_id", userID)
	}

	ctx := context.Background()
	pool, err := postgres.CreateConnectionPool(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to create connection pool: %v", err)
	}
	defer pool.Close()

	if cfg.TablePrefix == "" {
		if err := migrations.MigrateUp(cfg.DatabaseURL); err != nil {
			log.Fatalf("Failed to run migrations: %v", err)
		}
	}

	repoConfig := &postgres.RepositoryConfig{
		Pool:   pool,
		Tables: postgres.NewTableNames(cfg.TablePrefix),
		Logger: logger,
	}
	studentRepo := postgres.NewStudentRepository(repoConfig)
	sessionRepo := postgres.NewSessionRepository(repoConfig)

	students := []*models.Student{
		{UserID: userID, Name: "Amy Chen", Note: "Tuesday evenings"},
		{UserID: userID, Name: "Ben Okafor", Note: ""},
		{UserID: userID, Name: "Clara Ruiz", Note: "exam prep until June"},
	}
	for _, st := range students {
		if err := studentRepo.Create(ctx, st); err != nil {
			log.Fatalf("Failed to create student %q: %v", st.Name, err)
		}
		logger.Info("student created", "id", st.ID, "name", st.Name)
	}

	// A month of plain teaching-log entries plus a package-tracked run
	// long enough to show a package rollover.
	now := time.Now()
	month := now.Format("2006-01")
	sessions := make([]*models.ClassSession, 0, 16)
	for i := 0; i < 4; i++ {
		sessions = append(sessions, &models.ClassSession{
			UserID:    userID,
			StudentID: students[0].ID,
			Folder:    "1",
			Date:      fmt.Sprintf("%s-%02d", month, 3+i*7),
			Duration:  1.5,
			Note:      "regular lesson",
		})
	}
	for i := 0; i < 11; i++ {
		pkg := 1
		if i >= 10 {
			pkg = 2
		}
		sessions = append(sessions, &models.ClassSession{
			UserID:    userID,
			StudentID: students[1].ID,
			Folder:    "2",
			Date:      fmt.Sprintf("%s-%02d", month, 1+i*2),
			Duration:  1.0,
			PackageNo: &pkg,
		})
	}
	sessions = append(sessions, &models.ClassSession{
		UserID:    userID,
		StudentID: students[2].ID,
		Folder:    "3",
		Date:      now.Format("2006-01-02"),
		Duration:  2.0,
		Note:      "first package session",
		PackageNo: func() *int { n := 1; return &n }(),
	})

	for _, s := range sessions {
		if err := sessionRepo.Create(ctx, s); err != nil {
			log.Fatalf("Failed to create session: %v", err)
		}
	}

	logger.Info("seed complete",
		"user_id", userID,
		"students", len(students),
		"sessions", len(sessions),
	)
}
