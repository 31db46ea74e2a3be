package middleware

import (
	"net/http"
	"strings"
	"time"

	"github.com/savelydental/Savely/internal/application/services"
	"github.com/savelydental/Savely/internal/domain/entities"
	"github.com/savelydental/Savely/internal/infrastructure/observability"
)

// SessionCookie configures the browser session cookie
type SessionCookie struct {
	Name   string
	Secure bool
}

// SessionMiddleware resolves the browser session from its cookie, starting a
// new one when needed, and attaches it to the request context. Static assets
// and probes are served without a session.
func SessionMiddleware(state *services.SessionState, cookie SessionCookie) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if skipSession(r.URL.Path) {
				next.ServeHTTP(w, r)
				return
			}

			var id string
			if c, err := r.Cookie(cookie.Name); err == nil {
				id = c.Value
			}

			sess, created, err := state.Load(r.Context(), id)
			if err != nil {
				// The page still renders with a transient session
				observability.LoggerFromContext(r.Context()).Error().Err(err).Msg("session store unavailable")
			}
			// The cookie is written with the headers, so a sign-in that moves
			// the session to a new id is reflected
			issued := sess.ID
			if created {
				issued = ""
			}
			sw := &sessionCookieWriter{
				ResponseWriter: w,
				sess:           sess,
				issued:         issued,
				cookie:         cookie,
				ttl:            state.TTL(),
			}
			next.ServeHTTP(sw, r.WithContext(services.WithSession(r.Context(), sess)))
			sw.reissue()
		})
	}
}

func (c SessionCookie) issue(id string, ttl time.Duration) *http.Cookie {
	return &http.Cookie{
		Name:     c.Name,
		Value:    id,
		Path:     "/",
		MaxAge:   int(ttl.Seconds()),
		HttpOnly: true,
		Secure:   c.Secure,
		SameSite: http.SameSiteLaxMode,
	}
}

// sessionCookieWriter sets the cookie before the headers go out when the
// session id differs from the one the browser sent
type sessionCookieWriter struct {
	http.ResponseWriter
	sess        *entities.Session
	issued      string
	cookie      SessionCookie
	ttl         time.Duration
	wroteHeader bool
}

func (w *sessionCookieWriter) reissue() {
	if w.wroteHeader {
		return
	}
	w.wroteHeader = true
	if w.sess.ID != w.issued {
		http.SetCookie(w.ResponseWriter, w.cookie.issue(w.sess.ID, w.ttl))
	}
}

func (w *sessionCookieWriter) WriteHeader(statusCode int) {
	w.reissue()
	w.ResponseWriter.WriteHeader(statusCode)
}

func (w *sessionCookieWriter) Write(b []byte) (int, error) {
	w.reissue()
	return w.ResponseWriter.Write(b)
}

func (w *sessionCookieWriter) Flush() {
	w.reissue()
	if flusher, ok := w.ResponseWriter.(http.Flusher); ok {
		flusher.Flush()
	}
}

func (w *sessionCookieWriter) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}

func skipSession(path string) bool {
	return strings.HasPrefix(path, "/static/") || path == "/health" || path == "/metrics"
}
