package handlers

import (
	"net/http"
	"strings"

	"github.com/savelydental/Savely/internal/application/services"
	"github.com/savelydental/Savely/internal/domain/entities"
	"github.com/savelydental/Savely/internal/infrastructure/observability"
	"github.com/savelydental/Savely/internal/web"
	apperrors "github.com/savelydental/Savely/pkg/errors"
)

const (
	tabLogin    = "login"
	tabRegister = "register"
)

// AuthHandler serves sign-in, sign-up, OAuth and profile pages
type AuthHandler struct {
	view *View
	auth *services.AuthService
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(view *View, auth *services.AuthService) *AuthHandler {
	return &AuthHandler{view: view, auth: auth}
}

type authPage struct {
	Tab   string
	Email string
	Name  string
	Error string
}

// Page handles GET /auth
func (h *AuthHandler) Page(w http.ResponseWriter, r *http.Request) {
	if services.CurrentUser(r.Context()) != nil {
		redirect(w, r, "/perfil")
		return
	}
	tab := tabLogin
	if r.URL.Query().Get("tab") == tabRegister {
		tab = tabRegister
	}
	h.view.Render(w, r, http.StatusOK, web.PageAuth, "Accede a tu cuenta", authPage{Tab: tab})
}

// Login handles POST /auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}
	creds := entities.Credentials{
		Email:    r.PostFormValue("email"),
		Password: r.PostFormValue("password"),
	}

	if _, err := h.auth.Login(r.Context(), sess, creds); err != nil {
		observability.LoggerFromContext(r.Context()).Warn().Err(err).Msg("login failed")
		h.view.Render(w, r, statusFor(err), web.PageAuth, "Accede a tu cuenta", authPage{
			Tab:   tabLogin,
			Email: creds.Email,
			Error: apperrors.MessageOf(err, "Error al iniciar sesión"),
		})
		return
	}

	h.view.Flash(r.Context(), entities.FlashSuccess, "¡Bienvenido de nuevo!")
	redirect(w, r, "/")
}

// Register handles POST /auth/register
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}
	reg := entities.Registration{
		Name:     r.PostFormValue("name"),
		Email:    r.PostFormValue("email"),
		Password: r.PostFormValue("password"),
	}

	if _, err := h.auth.Register(r.Context(), sess, reg); err != nil {
		observability.LoggerFromContext(r.Context()).Warn().Err(err).Msg("registration failed")
		h.view.Render(w, r, statusFor(err), web.PageAuth, "Accede a tu cuenta", authPage{
			Tab:   tabRegister,
			Email: reg.Email,
			Name:  reg.Name,
			Error: apperrors.MessageOf(err, "Error al registrarse"),
		})
		return
	}

	h.view.Flash(r.Context(), entities.FlashSuccess, "¡Cuenta creada correctamente!")
	redirect(w, r, "/")
}

// Logout handles POST /auth/logout
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}

	if err := h.auth.Logout(r.Context(), sess); err != nil {
		observability.LoggerFromContext(r.Context()).Error().Err(err).Msg("logout failed")
		h.view.Flash(r.Context(), entities.FlashError, "Error al cerrar sesión")
		redirect(w, r, "/perfil")
		return
	}

	h.view.Flash(r.Context(), entities.FlashSuccess, "Sesión cerrada correctamente")
	redirect(w, r, "/")
}

// Google handles GET /auth/google
func (h *AuthHandler) Google(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, h.auth.OAuthRedirectURL(), http.StatusFound)
}

// Callback handles GET /auth/callback. The session id arrives in the URL
// fragment, so the page script posts it to /auth/session.
func (h *AuthHandler) Callback(w http.ResponseWriter, r *http.Request) {
	h.view.Render(w, r, http.StatusOK, web.PageCallback, "Iniciando sesión", nil)
}

// Session handles POST /auth/session
func (h *AuthHandler) Session(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}

	user, err := h.auth.CompleteOAuth(r.Context(), sess, r.PostFormValue("session_id"))
	if err != nil {
		observability.LoggerFromContext(r.Context()).Warn().Err(err).Msg("oauth exchange failed")
		message := "Error al iniciar sesión con Google"
		if apperrors.IsType(err, apperrors.ErrorTypeValidation) {
			message = apperrors.MessageOf(err, message)
		}
		h.view.Flash(r.Context(), entities.FlashError, message)
		redirect(w, r, "/auth")
		return
	}

	h.view.Flash(r.Context(), entities.FlashSuccess, "¡Bienvenido, "+strings.TrimSpace(user.Name)+"!")
	redirect(w, r, "/")
}

// Profile handles GET /perfil
func (h *AuthHandler) Profile(w http.ResponseWriter, r *http.Request) {
	sess, err := services.SessionFromContext(r.Context())
	if err != nil || !sess.Authenticated() {
		redirect(w, r, "/auth")
		return
	}

	if _, err := h.auth.Refresh(r.Context(), sess); err != nil {
		redirect(w, r, "/auth")
		return
	}
	h.view.Render(w, r, http.StatusOK, web.PageProfile, "Mi perfil", nil)
}

func (h *AuthHandler) session(w http.ResponseWriter, r *http.Request) (*entities.Session, bool) {
	sess, err := services.SessionFromContext(r.Context())
	if err != nil {
		h.view.Error(w, r, apperrors.NewInternalError("missing session", err))
		return nil, false
	}
	return sess, true
}
