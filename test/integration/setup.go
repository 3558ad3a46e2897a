package integration

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	stdhttp "net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	_ "github.com/lib/pq"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	handler "github.com/taskboard/api/internal/adapters/handler/http"
	repo "github.com/taskboard/api/internal/adapters/repository/postgres"
	"github.com/taskboard/api/internal/core/services"
)

type TestApp struct {
	DB          *sql.DB
	Server      *httptest.Server
	Client      *stdhttp.Client
	DBContainer testcontainers.Container
}

func setupPostgresContainer(ctx context.Context) (testcontainers.Container, string, error) {
	dbName := "testdb"
	user := "user"
	password := "password"

	pgContainer, err := postgres.Run(ctx, "postgres:15-alpine",
		postgres.WithDatabase(dbName),
		postgres.WithUsername(user),
		postgres.WithPassword(password),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(5*time.Second),
		),
	)
	if err != nil {
		return nil, "", fmt.Errorf("failed to start postgres container: %w", err)
	}

	connStr, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		return nil, "", err
	}

	return pgContainer, connStr, nil
}

func applyMigrations(db *sql.DB) error {
	dirPath := "../../internal/adapters/repository/postgres/migrations"

	entries, err := os.ReadDir(dirPath)
	if err != nil {
		return fmt.Errorf("failed to read migrations directory: %w", err)
	}

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}

		if !strings.HasSuffix(entry.Name(), "up.sql") {
			continue
		}

		fullPath := filepath.Join(dirPath, entry.Name())
		content, err := os.ReadFile(fullPath)
		if err != nil {
			return fmt.Errorf("failed to read migration file %s: %w", entry.Name(), err)
		}

		_, err = db.Exec(string(content))
		if err != nil {
			return fmt.Errorf("failed to execute migration %s: %w", entry.Name(), err)
		}
	}

	return nil
}

func setupTestApp(t *testing.T) *TestApp {
	t.Helper()
	ctx := context.Background()

	dbContainer, dbURL, err := setupPostgresContainer(ctx)
	require.NoError(t, err)

	db, err := sql.Open("postgres", dbURL)
	require.NoError(t, err)

	err = applyMigrations(db)
	require.NoError(t, err)

	userRepo := repo.NewUserRepository(db)
	taskRepo := repo.NewTaskRepository(db)

	tokenSvc := services.NewTokenService(services.TokenConfig{
		AccessSecret:  []byte("test-access-secret"),
		RefreshSecret: []byte("test-refresh-secret"),
		AccessTTL:     15 * time.Minute,
		RefreshTTL:    7 * 24 * time.Hour,
	})
	authSvc := services.NewAuthService(userRepo, tokenSvc)
	taskSvc := services.NewTaskService(taskRepo)

	authHandler := handler.NewAuthHandler(authSvc, false)
	taskHandler := handler.NewTaskHandler(taskSvc)
	authMiddleware := handler.NewAuthMiddleware(tokenSvc, userRepo)
	router := handler.NewRouter(authHandler, taskHandler, authMiddleware)

	server := httptest.NewServer(router)

	return &TestApp{
		DB:          db,
		Server:      server,
		Client:      server.Client(),
		DBContainer: dbContainer,
	}
}

func (app *TestApp) Teardown(t *testing.T) {
	t.Helper()
	app.Server.Close()
	require.NoError(t, app.DB.Close())
	require.NoError(t, app.DBContainer.Terminate(context.Background()))
}

type envelope struct {
	Status  string          `json:"status"`
	Data    json.RawMessage `json:"data"`
	Message string          `json:"message"`
}

func (app *TestApp) do(t *testing.T, method, path string, body any, opts ...func(*stdhttp.Request)) *stdhttp.Response {
	t.Helper()

	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(encoded)
	}

	req, err := stdhttp.NewRequest(method, app.Server.URL+path, reader)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	for _, opt := range opts {
		opt(req)
	}

	resp, err := app.Client.Do(req)
	require.NoError(t, err)
	return resp
}

func withBearer(token string) func(*stdhttp.Request) {
	return func(req *stdhttp.Request) {
		req.Header.Set("Authorization", "Bearer "+token)
	}
}

func withCookie(cookie *stdhttp.Cookie) func(*stdhttp.Request) {
	return func(req *stdhttp.Request) {
		req.AddCookie(cookie)
	}
}

func readBody(t *testing.T, resp *stdhttp.Response) []byte {
	t.Helper()
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return body
}

func decodeEnvelope(t *testing.T, resp *stdhttp.Response) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(readBody(t, resp), &env))
	return env
}

func refreshCookieFrom(resp *stdhttp.Response) *stdhttp.Cookie {
	for _, cookie := range resp.Cookies() {
		if cookie.Name == "refreshToken" {
			return cookie
		}
	}
	return nil
}

// registerUser registers a fresh user through the API and returns the access
// token and refresh cookie from the response.
func registerUser(t *testing.T, app *TestApp, username, email, password string) (string, *stdhttp.Cookie) {
	t.Helper()

	resp := app.do(t, stdhttp.MethodPost, "/auth/register", map[string]string{
		"username": username,
		"email":    email,
		"password": password,
	})
	require.Equal(t, stdhttp.StatusCreated, resp.StatusCode)

	cookie := refreshCookieFrom(resp)
	require.NotNil(t, cookie, "refresh cookie should be set")

	env := decodeEnvelope(t, resp)
	var data struct {
		AccessToken string `json:"accessToken"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &data))
	require.NotEmpty(t, data.AccessToken)

	return data.AccessToken, cookie
}
