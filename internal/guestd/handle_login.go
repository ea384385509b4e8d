package guestd

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/rayarayu/checkin/internal/kiosk"
)

// LoginRequest is the request body for POST /api/login.
type LoginRequest struct {
	Username string     `json:"username"`
	Password string     `json:"password"`
	Role     kiosk.Role `json:"role"`
}

type LoginResponse struct {
	Username string     `json:"username"`
	Role     kiosk.Role `json:"role"`
	Token    string     `json:"token"`
}

func handleLogin(store *Store, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req LoginRequest
		if err := readJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if strings.TrimSpace(req.Username) == "" || req.Password == "" {
			writeError(w, http.StatusBadRequest, "username and password are required")
			return
		}
		if req.Role != "" && !req.Role.Valid() {
			writeError(w, http.StatusBadRequest, "unknown role")
			return
		}

		op, err := store.Authenticate(r.Context(), req.Username, req.Password, req.Role)
		if errors.Is(err, ErrInvalidCredentials) {
			writeError(w, http.StatusUnauthorized, "invalid credentials")
			return
		}
		if err != nil {
			logger.Error("login failed", "error", err)
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}

		token, err := store.CreateSession(r.Context(), op.ID)
		if err != nil {
			logger.Error("creating session", "error", err)
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}

		http.SetCookie(w, &http.Cookie{
			Name:     sessionCookieName,
			Value:    token,
			Path:     "/",
			MaxAge:   int(24 * time.Hour / time.Second),
			HttpOnly: true,
			SameSite: http.SameSiteLaxMode,
		})

		logger.Info("operator logged in", "username", op.Username, "role", op.Role)
		writeJSON(w, http.StatusOK, LoginResponse{Username: op.Username, Role: op.Role, Token: token})
	}
}

func handleLogout(store *Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if token := tokenFromRequest(r); token != "" {
			store.DeleteSession(r.Context(), token)
		}

		http.SetCookie(w, &http.Cookie{
			Name:     sessionCookieName,
			Value:    "",
			Path:     "/",
			MaxAge:   -1,
			HttpOnly: true,
			SameSite: http.SameSiteLaxMode,
		})

		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}

// handleMe reports the session's operator, but only under the role the
// operator actually holds.
func handleMe() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		op := operatorFrom(r)
		if kiosk.Role(chi.URLParam(r, "role")) != op.Role {
			writeError(w, http.StatusUnauthorized, "not authenticated")
			return
		}
		writeJSON(w, http.StatusOK, op)
	}
}
