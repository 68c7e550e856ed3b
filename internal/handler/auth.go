package handler

import (
	"log/slog"
	"net/http"

	"github.com/mlaurel/hearthledger/internal/auth"
	"github.com/mlaurel/hearthledger/internal/middleware"
)

type AuthHandler struct {
	authSvc *auth.Service
	logger  *slog.Logger
}

func NewAuthHandler(authSvc *auth.Service, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{authSvc: authSvc, logger: logger}
}

func setSessionCookie(w http.ResponseWriter, r *http.Request, token string, maxAge int) {
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Secure:   r.TLS != nil,
	})
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email       string `json:"email"`
		Password    string `json:"password"`
		DisplayName string `json:"display_name"`
	}
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, h.logger, err)
		return
	}

	accountID, err := h.authSvc.Register(r.Context(), req.Email, req.Password, req.DisplayName)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}

	// Open a session right away so the client doesn't have to log in after
	// registering.
	sess, err := h.authSvc.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	setSessionCookie(w, r, sess.Token, 90*24*60*60)

	respondJSON(w, http.StatusCreated, map[string]string{"account_id": accountID})
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, h.logger, err)
		return
	}

	sess, err := h.authSvc.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	setSessionCookie(w, r, sess.Token, 90*24*60*60)

	respondJSON(w, http.StatusOK, map[string]string{"account_id": sess.AccountID})
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if ac, ok := auth.FromContext(r.Context()); ok {
		if err := h.authSvc.Logout(r.Context(), ac.SessionToken); err != nil {
			h.logger.Error("logout", "error", err)
		}
	}
	setSessionCookie(w, r, "", -1)
	respondJSON(w, http.StatusNoContent, nil)
}

// RequestPasswordReset always responds 204 so the endpoint cannot be used to
// probe for registered emails.
func (h *AuthHandler) RequestPasswordReset(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email string `json:"email"`
	}
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, h.logger, err)
		return
	}

	if err := h.authSvc.SendPasswordReset(r.Context(), req.Email); err != nil {
		h.logger.Error("send password reset", "error", err)
	}
	respondJSON(w, http.StatusNoContent, nil)
}

func (h *AuthHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Token       string `json:"token"`
		NewPassword string `json:"new_password"`
	}
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, h.logger, err)
		return
	}

	if err := h.authSvc.ResetPassword(r.Context(), req.Token, req.NewPassword); err != nil {
		respondError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusNoContent, nil)
}
