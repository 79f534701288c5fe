package handler

import (
	"net/http"
	"time"

	"github.com/google/uuid"

	"watch-me-run-api/internal/auth"
	"watch-me-run-api/internal/model"
)

func (h *Handler) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
		Name     string `json:"name"`
	}
	if err := decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}
	if req.Email == "" || req.Password == "" || req.Name == "" {
		writeError(w, http.StatusBadRequest, "all fields required")
		return
	}
	if len(req.Password) < 8 {
		writeError(w, http.StatusBadRequest, "password too short")
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	u := &model.User{
		ID:           uuid.New().String(),
		Email:        req.Email,
		PasswordHash: hash,
		Name:         req.Name,
	}
	if err := h.store.CreateUser(r.Context(), u); err != nil {
		// unique violation = dup email, but don't reveal that
		writeError(w, http.StatusConflict, "registration failed")
		return
	}

	h.issueSession(w, r, u.ID)
	writeJSON(w, http.StatusCreated, map[string]string{"userId": u.ID, "name": u.Name})
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := decode(r, &req); err != nil || req.Email == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "email and password required")
		return
	}

	u, err := h.store.UserByEmail(r.Context(), req.Email)
	if err != nil || !auth.CheckPassword(u.PasswordHash, req.Password) {
		writeError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}

	h.issueSession(w, r, u.ID)
	writeJSON(w, http.StatusOK, map[string]string{"userId": u.ID, "name": u.Name})
}

func (h *Handler) handleRefresh(w http.ResponseWriter, r *http.Request) {
	c, err := r.Cookie("refresh_token")
	if err != nil || c.Value == "" {
		writeError(w, http.StatusUnauthorized, "no refresh token")
		return
	}

	rt, err := h.store.RefreshTokenByHash(r.Context(), auth.HashRefreshToken(c.Value))
	if err != nil || rt.Revoked || time.Now().After(rt.ExpiresAt) {
		writeError(w, http.StatusUnauthorized, "invalid refresh token")
		return
	}

	// rotate: the presented token is spent either way
	rawNew, hashNew, err := auth.NewRefreshToken()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if _, err := h.store.RotateRefreshToken(r.Context(), rt.ID, rt.UserID, hashNew, time.Now().Add(auth.RefreshTTL)); err != nil {
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	access, err := auth.NewAccessToken(rt.UserID, h.secret)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	setSessionCookies(w, access, rawNew)
	writeJSON(w, http.StatusOK, map[string]string{"userId": rt.UserID})
}

func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	if c, err := r.Cookie("refresh_token"); err == nil && c.Value != "" {
		if rt, err := h.store.RefreshTokenByHash(r.Context(), auth.HashRefreshToken(c.Value)); err == nil {
			_ = h.store.RevokeAllRefreshTokens(r.Context(), rt.UserID)
		}
	}
	clearSessionCookies(w)
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) issueSession(w http.ResponseWriter, r *http.Request, userID string) {
	access, err := auth.NewAccessToken(userID, h.secret)
	if err != nil {
		return
	}
	rawRefresh, hash, err := auth.NewRefreshToken()
	if err != nil {
		return
	}
	if _, err := h.store.CreateRefreshToken(r.Context(), userID, hash, time.Now().Add(auth.RefreshTTL)); err != nil {
		return
	}
	setSessionCookies(w, access, rawRefresh)
}

func setSessionCookies(w http.ResponseWriter, access, refresh string) {
	http.SetCookie(w, &http.Cookie{
		Name: "access_token", Value: access,
		HttpOnly: true, Path: "/", SameSite: http.SameSiteLaxMode,
		MaxAge: int(auth.AccessTTL.Seconds()),
	})
	http.SetCookie(w, &http.Cookie{
		Name: "refresh_token", Value: refresh,
		HttpOnly: true, Path: "/auth/", SameSite: http.SameSiteLaxMode,
		MaxAge: int(auth.RefreshTTL.Seconds()),
	})
}

func clearSessionCookies(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{Name: "access_token", Value: "", Path: "/", MaxAge: -1})
	http.SetCookie(w, &http.Cookie{Name: "refresh_token", Value: "", Path: "/auth/", MaxAge: -1})
}
