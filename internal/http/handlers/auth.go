package handlers

import (
	"net/http"

	"github.com/hongminglow/storefront/internal/apperr"
	"github.com/hongminglow/storefront/internal/http/respond"
	"github.com/hongminglow/storefront/internal/models/dto"
	"github.com/hongminglow/storefront/internal/session"
)

// AuthHandler owns sign-up, sign-in, sign-out and session lookup.
type AuthHandler struct {
	sessions *session.Provider
}

// NewAuthHandler constructs the handler.
func NewAuthHandler(sessions *session.Provider) *AuthHandler {
	return &AuthHandler{sessions: sessions}
}

// Register attaches auth routes to the mux.
func (h *AuthHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/auth/signup", h.handleSignUp)
	mux.HandleFunc("POST /api/auth/signin", h.handleSignIn)
	mux.HandleFunc("POST /api/auth/signout", h.handleSignOut)
	mux.HandleFunc("GET /api/auth/me", h.handleMe)
}

func (h *AuthHandler) handleSignUp(w http.ResponseWriter, r *http.Request) {
	var req dto.CredentialsRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respond.Fail(w, r, err)
		return
	}
	user, role, err := h.sessions.SignUp(r.Context(), req.Email, req.Password)
	if err != nil {
		respond.Fail(w, r, err)
		return
	}
	respond.JSON(w, http.StatusCreated, "account created", dto.SessionResponse{User: &user, Role: role})
}

func (h *AuthHandler) handleSignIn(w http.ResponseWriter, r *http.Request) {
	var req dto.CredentialsRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respond.Fail(w, r, err)
		return
	}
	signed, err := h.sessions.SignIn(r.Context(), req.Email, req.Password)
	if err != nil {
		respond.Fail(w, r, err)
		return
	}
	respond.JSON(w, http.StatusOK, "signed in", dto.SignInResponse{
		Token:     signed.Token,
		ExpiresAt: signed.Session.ExpiresAt,
		User:      signed.User,
		Role:      signed.Session.Role,
	})
}

func (h *AuthHandler) handleSignOut(w http.ResponseWriter, r *http.Request) {
	sess := session.FromContext(r.Context())
	if !sess.Authenticated() {
		respond.Fail(w, r, apperr.Auth(apperr.AuthRequired, "sign in required"))
		return
	}
	if err := h.sessions.SignOut(r.Context(), sess); err != nil {
		respond.Fail(w, r, err)
		return
	}
	respond.JSON(w, http.StatusOK, "signed out", dto.SessionResponse{Role: sess.Role})
}

func (h *AuthHandler) handleMe(w http.ResponseWriter, r *http.Request) {
	sess := session.FromContext(r.Context())
	if !sess.Authenticated() {
		respond.JSON(w, http.StatusOK, "ok", dto.SessionResponse{Role: sess.Role})
		return
	}
	user, err := h.sessions.User(r.Context(), sess)
	if err != nil {
		respond.Fail(w, r, err)
		return
	}
	respond.JSON(w, http.StatusOK, "ok", dto.SessionResponse{User: &user, Role: sess.Role})
}
