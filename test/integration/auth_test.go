package integration

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisterAndLogin(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	app := setupTestApp(t)
	defer app.Teardown(t)

	resp := app.do(t, http.MethodPost, "/auth/register", map[string]string{
		"username": "ana",
		"email":    "ana@x.com",
		"password": "p1",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	cookie := refreshCookieFrom(resp)
	require.NotNil(t, cookie)
	assert.True(t, cookie.HttpOnly)
	assert.Equal(t, http.SameSiteStrictMode, cookie.SameSite)

	body := readBody(t, resp)
	assert.NotContains(t, string(body), "password")

	var env envelope
	require.NoError(t, json.Unmarshal(body, &env))
	assert.Equal(t, "success", env.Status)

	var data struct {
		User struct {
			ID       string `json:"id"`
			Username string `json:"username"`
			Email    string `json:"email"`
		} `json:"user"`
		AccessToken string `json:"accessToken"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &data))
	assert.Equal(t, "ana", data.User.Username)
	assert.Equal(t, "ana@x.com", data.User.Email)
	assert.NotEmpty(t, data.User.ID)
	assert.NotEmpty(t, data.AccessToken)

	// the registered user can immediately log in
	resp = app.do(t, http.MethodPost, "/auth/login", map[string]string{
		"email":    "ana@x.com",
		"password": "p1",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	env = decodeEnvelope(t, resp)
	assert.Equal(t, "success", env.Status)
}

func TestRegisterDuplicate(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	app := setupTestApp(t)
	defer app.Teardown(t)

	registerUser(t, app, "ana", "ana@x.com", "p1")

	// duplicate username with a fresh email
	resp := app.do(t, http.MethodPost, "/auth/register", map[string]string{
		"username": "ana",
		"email":    "other@x.com",
		"password": "p2",
	})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	env := decodeEnvelope(t, resp)
	assert.Equal(t, "error", env.Status)
	assert.Equal(t, "Username or email already exists", env.Message)

	// duplicate email with a fresh username
	resp = app.do(t, http.MethodPost, "/auth/register", map[string]string{
		"username": "bob",
		"email":    "ana@x.com",
		"password": "p2",
	})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	var count int
	require.NoError(t, app.DB.QueryRow("SELECT COUNT(*) FROM users").Scan(&count))
	assert.Equal(t, 1, count)
}

func TestLoginFailuresAreIndistinguishable(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	app := setupTestApp(t)
	defer app.Teardown(t)

	registerUser(t, app, "ana", "ana@x.com", "p1")

	wrongPassword := app.do(t, http.MethodPost, "/auth/login", map[string]string{
		"email":    "ana@x.com",
		"password": "wrong",
	})
	unknownEmail := app.do(t, http.MethodPost, "/auth/login", map[string]string{
		"email":    "nobody@x.com",
		"password": "p1",
	})

	require.Equal(t, http.StatusUnauthorized, wrongPassword.StatusCode)
	require.Equal(t, http.StatusUnauthorized, unknownEmail.StatusCode)
	assert.Equal(t, readBody(t, wrongPassword), readBody(t, unknownEmail))
}

func TestRefreshRotation(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	app := setupTestApp(t)
	defer app.Teardown(t)

	_, oldCookie := registerUser(t, app, "ana", "ana@x.com", "p1")

	resp := app.do(t, http.MethodPost, "/auth/refresh", nil, withCookie(oldCookie))
	require.Equal(t, http.StatusOK, resp.StatusCode)

	newCookie := refreshCookieFrom(resp)
	require.NotNil(t, newCookie)
	assert.NotEqual(t, oldCookie.Value, newCookie.Value)

	env := decodeEnvelope(t, resp)
	var data struct {
		AccessToken string `json:"accessToken"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &data))
	assert.NotEmpty(t, data.AccessToken)

	// the superseded token is rejected even though it has not expired
	resp = app.do(t, http.MethodPost, "/auth/refresh", nil, withCookie(oldCookie))
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	env = decodeEnvelope(t, resp)
	assert.Equal(t, "Invalid refresh token", env.Message)

	// the rotated one works
	resp = app.do(t, http.MethodPost, "/auth/refresh", nil, withCookie(newCookie))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()
}

func TestLogoutInvalidatesRefreshToken(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	app := setupTestApp(t)
	defer app.Teardown(t)

	accessToken, cookie := registerUser(t, app, "ana", "ana@x.com", "p1")

	resp := app.do(t, http.MethodPost, "/auth/logout", nil, withBearer(accessToken))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	env := decodeEnvelope(t, resp)
	assert.Equal(t, "Successfully logged out", env.Message)

	resp = app.do(t, http.MethodPost, "/auth/refresh", nil, withCookie(cookie))
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	resp.Body.Close()

	// a new login issues a working session again
	resp = app.do(t, http.MethodPost, "/auth/login", map[string]string{
		"email":    "ana@x.com",
		"password": "p1",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	fresh := refreshCookieFrom(resp)
	require.NotNil(t, fresh)
	resp.Body.Close()

	resp = app.do(t, http.MethodPost, "/auth/refresh", nil, withCookie(fresh))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	app := setupTestApp(t)
	defer app.Teardown(t)

	resp := app.do(t, http.MethodGet, "/tasks", nil)
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	env := decodeEnvelope(t, resp)
	assert.Equal(t, "Access token is required", env.Message)

	resp = app.do(t, http.MethodGet, "/tasks", nil, withBearer("garbage"))
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	env = decodeEnvelope(t, resp)
	assert.Equal(t, "Invalid token", env.Message)

	resp = app.do(t, http.MethodPost, "/auth/refresh", nil)
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	env = decodeEnvelope(t, resp)
	assert.Equal(t, "Refresh token is required", env.Message)
}
