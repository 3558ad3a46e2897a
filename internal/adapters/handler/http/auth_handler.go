package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/taskboard/api/internal/core/domain"
	"github.com/taskboard/api/internal/core/ports"
)

const refreshTokenCookie = "refreshToken"

type AuthHandler struct {
	service      ports.AuthService
	secureCookie bool
}

func NewAuthHandler(service ports.AuthService, secureCookie bool) *AuthHandler {
	return &AuthHandler{
		service:      service,
		secureCookie: secureCookie,
	}
}

type registerRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// publicUser is the only user shape that ever leaves the API.
type publicUser struct {
	ID       uuid.UUID `json:"id"`
	Username string    `json:"username"`
	Email    string    `json:"email"`
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if strings.TrimSpace(req.Username) == "" || strings.TrimSpace(req.Email) == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "Username, email and password are required")
		return
	}

	result, err := h.service.Register(r.Context(), ports.RegisterInput{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		if errors.Is(err, domain.ErrUserExists) {
			writeError(w, http.StatusBadRequest, "Username or email already exists")
			return
		}
		writeInternalError(w, err)
		return
	}

	h.setRefreshTokenCookie(w, result.RefreshToken)
	writeSuccess(w, http.StatusCreated, map[string]any{
		"user":        toPublicUser(result.User),
		"accessToken": result.AccessToken,
	})
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	result, err := h.service.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidCredentials) {
			writeError(w, http.StatusUnauthorized, "Invalid credentials")
			return
		}
		writeInternalError(w, err)
		return
	}

	h.setRefreshTokenCookie(w, result.RefreshToken)
	writeSuccess(w, http.StatusOK, map[string]any{
		"user":        toPublicUser(result.User),
		"accessToken": result.AccessToken,
	})
}

func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	user, ok := UserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Invalid refresh token")
		return
	}

	result, err := h.service.Refresh(r.Context(), user)
	if err != nil {
		writeInternalError(w, err)
		return
	}

	h.setRefreshTokenCookie(w, result.RefreshToken)
	writeSuccess(w, http.StatusOK, map[string]any{
		"accessToken": result.AccessToken,
	})
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	user, ok := UserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Access token is required")
		return
	}

	if err := h.service.Logout(r.Context(), user.ID); err != nil {
		writeInternalError(w, err)
		return
	}

	h.clearRefreshTokenCookie(w)
	writeMessage(w, http.StatusOK, "Successfully logged out")
}

func (h *AuthHandler) setRefreshTokenCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     refreshTokenCookie,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		Secure:   h.secureCookie,
		SameSite: http.SameSiteStrictMode,
		MaxAge:   7 * 24 * 60 * 60, // 7 days
	})
}

func (h *AuthHandler) clearRefreshTokenCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     refreshTokenCookie,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		Secure:   h.secureCookie,
		SameSite: http.SameSiteStrictMode,
		MaxAge:   -1,
	})
}

func toPublicUser(user *domain.User) publicUser {
	return publicUser{
		ID:       user.ID,
		Username: user.Username,
		Email:    user.Email,
	}
}
