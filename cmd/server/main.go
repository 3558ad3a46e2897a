package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	stdhttp "net/http"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	_ "github.com/lib/pq"

	"github.com/taskboard/api/internal/adapters/handler/http"
	"github.com/taskboard/api/internal/adapters/repository/postgres"
	"github.com/taskboard/api/internal/config"
	"github.com/taskboard/api/internal/core/services"
)

const migrationsPath = "./internal/adapters/repository/postgres/migrations"

func main() {
	_ = godotenv.Load()

	cfg, err := config.New()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	db, err := sql.Open("postgres", cfg.PostgresDSN)
	if err != nil {
		log.Fatalf("failed to open database: %v", err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		log.Fatalf("failed to ping database: %v", err)
	}

	if err := syncSchema(db, cfg.IsDevelopment()); err != nil {
		log.Fatalf("failed to sync schema: %v", err)
	}

	userRepo := postgres.NewUserRepository(db)
	taskRepo := postgres.NewTaskRepository(db)

	tokenSvc := services.NewTokenService(services.TokenConfig{
		AccessSecret:  []byte(cfg.AccessSecret),
		RefreshSecret: []byte(cfg.RefreshSecret),
		AccessTTL:     cfg.AccessTTL,
		RefreshTTL:    cfg.RefreshTTL,
	})
	authSvc := services.NewAuthService(userRepo, tokenSvc)
	taskSvc := services.NewTaskService(taskRepo)

	authHandler := http.NewAuthHandler(authSvc, cfg.IsProduction())
	taskHandler := http.NewTaskHandler(taskSvc)
	authMiddleware := http.NewAuthMiddleware(tokenSvc, userRepo)
	router := http.NewRouter(authHandler, taskHandler, authMiddleware)

	server := &stdhttp.Server{Addr: ":" + cfg.Port, Handler: router}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		log.Printf("listening on %s", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, stdhttp.ErrServerClosed) {
			log.Fatal(err)
		}
	}()

	<-ctx.Done()
	fmt.Println("Gracefully shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatal(err)
	}
}

// syncSchema applies the migration files in order. In development the schema
// is dropped and recreated on every boot.
func syncSchema(db *sql.DB, recreate bool) error {
	if recreate {
		if _, err := db.Exec(`DROP TABLE IF EXISTS tasks, users CASCADE`); err != nil {
			return fmt.Errorf("failed to drop tables: %w", err)
		}
	}

	entries, err := os.ReadDir(migrationsPath)
	if err != nil {
		return fmt.Errorf("failed to read migrations directory: %w", err)
	}

	var names []string
	for _, entry := range entries {
		if !entry.IsDir() && strings.HasSuffix(entry.Name(), "up.sql") {
			names = append(names, entry.Name())
		}
	}
	sort.Strings(names)

	for _, name := range names {
		content, err := os.ReadFile(filepath.Join(migrationsPath, name))
		if err != nil {
			return fmt.Errorf("failed to read migration %s: %w", name, err)
		}
		if _, err := db.Exec(string(content)); err != nil {
			return fmt.Errorf("failed to execute migration %s: %w", name, err)
		}
	}

	return nil
}
