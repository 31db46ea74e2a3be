package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/savelydental/Savely/internal/application/services"
	"github.com/savelydental/Savely/internal/domain/entities"
	"github.com/savelydental/Savely/internal/infrastructure/observability"
	"github.com/savelydental/Savely/internal/web"
	apperrors "github.com/savelydental/Savely/pkg/errors"
)

// View renders pages with the session's current user and pending notification
type View struct {
	renderer *web.Renderer
	state    *services.SessionState
}

// NewView creates a page view helper
func NewView(renderer *web.Renderer, state *services.SessionState) *View {
	return &View{renderer: renderer, state: state}
}

// notFoundPage is the view model of the not-found page
type notFoundPage struct {
	Heading   string
	Message   string
	BackURL   string
	BackLabel string
}

// Render writes page with status. The flash notification is consumed here.
func (v *View) Render(w http.ResponseWriter, r *http.Request, status int, page, title string, data any) {
	ctx := r.Context()
	logger := observability.LoggerFromContext(ctx)

	p := web.Page{Title: title, User: services.CurrentUser(ctx), Data: data}
	if sess, err := services.SessionFromContext(ctx); err == nil {
		flash, err := v.state.PopFlash(ctx, sess)
		if err != nil {
			logger.Warn().Err(err).Msg("failed to clear notification")
		}
		p.Flash = flash
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := v.renderer.Render(w, page, p); err != nil {
		logger.Error().Err(err).Str("page", page).Msg("failed to render page")
	}
}

// Flash queues a notification for the next rendered page of this session
func (v *View) Flash(ctx context.Context, kind entities.FlashKind, message string) {
	sess, err := services.SessionFromContext(ctx)
	if err != nil {
		return
	}
	if err := v.state.AddFlash(ctx, sess, kind, message); err != nil {
		observability.LoggerFromContext(ctx).Warn().Err(err).Msg("failed to store notification")
	}
}

// NotFound renders the not-found page with a link back to the search
func (v *View) NotFound(w http.ResponseWriter, r *http.Request, heading, message string) {
	v.Render(w, r, http.StatusNotFound, web.PageNotFound, heading, notFoundPage{
		Heading:   heading,
		Message:   message,
		BackURL:   "/buscar",
		BackLabel: "Volver a buscar",
	})
}

// Error renders the generic error page for err
func (v *View) Error(w http.ResponseWriter, r *http.Request, err error) {
	observability.LoggerFromContext(r.Context()).Error().Err(err).Msg("request failed")
	v.Render(w, r, statusFor(err), web.PageError, "Error", nil)
}

// NotFoundRoute handles every path no other route matched
func (v *View) NotFoundRoute(w http.ResponseWriter, r *http.Request) {
	v.NotFound(w, r, "Página no encontrada", "La página que buscas no existe.")
}

// statusFor maps an application error to its HTTP status
func statusFor(err error) int {
	switch apperrors.TypeOf(err) {
	case apperrors.ErrorTypeValidation:
		return http.StatusBadRequest
	case apperrors.ErrorTypeUnauthorized:
		return http.StatusUnauthorized
	case apperrors.ErrorTypeNotFound:
		return http.StatusNotFound
	case apperrors.ErrorTypeConflict:
		return http.StatusConflict
	case apperrors.ErrorTypeExternal:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// redirect sends the browser to target with a GET
func redirect(w http.ResponseWriter, r *http.Request, target string) {
	http.Redirect(w, r, target, http.StatusSeeOther)
}

func respondWithJSON(w http.ResponseWriter, statusCode int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(payload)
}

// Health handles GET /health
func Health(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
