package handlers_test

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/savelydental/Savely/internal/adapters/cache"
	"github.com/savelydental/Savely/internal/adapters/session"
	"github.com/savelydental/Savely/internal/api/handlers"
	"github.com/savelydental/Savely/internal/api/middleware"
	"github.com/savelydental/Savely/internal/api/routes"
	"github.com/savelydental/Savely/internal/application/services"
	"github.com/savelydental/Savely/internal/infrastructure/clients/denticompare"
	"github.com/savelydental/Savely/internal/web"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const clinicsJSON = `[
  {"clinic_id":"c1","name":"Clínica Sonrisa","address":"Calle Mayor 1","city":"Madrid","rating":4.8,"image_url":"https://img.example/1.jpg","treatment_price":1200,"treatment_duration":3},
  {"clinic_id":"c2","name":"Dental Sol","address":"Gran Vía 20","city":"Madrid","rating":4.5,"image_url":"https://img.example/2.jpg","treatment_price":950,"treatment_duration":5},
  {"clinic_id":"c3","name":"Odonto Plus","address":"Calle Alcalá 7","city":"Madrid","rating":4.2,"image_url":"https://img.example/3.jpg","treatment_price":1400,"treatment_duration":2},
  {"clinic_id":"c4","name":"Boca Sana","address":"Paseo del Prado 3","city":"Madrid","rating":4.0,"image_url":"https://img.example/4.jpg"}
]`

const compareJSON = `{
  "treatment_name": "Implante Dental",
  "comparisons": [
    {"clinic": {"clinic_id":"c1","name":"Clínica Sonrisa","city":"Madrid","rating":4.8},
     "treatment": {"treatment_id":"implante-dental","name":"Implante Dental","price":1200,"duration_days":3,"warranty_months":60,"includes":["Consulta","Implante","Corona","Revisión"],"process_steps":["Estudio","Cirugía"]},
     "is_best_value": false},
    {"clinic": {"clinic_id":"c2","name":"Dental Sol","city":"Madrid","rating":4.5},
     "treatment": {"treatment_id":"implante-dental","name":"Implante Dental","price":950,"duration_days":5,"warranty_months":36,"includes":["Consulta"],"process_steps":["Cirugía"]},
     "is_best_value": true}
  ]
}`

// fakeAPI is an in-memory stand-in for the DentiCompare REST API
type fakeAPI struct {
	mu             sync.Mutex
	clinicQueries  []string
	compareBodies  []string
	sessionBodies  []string
	compareCalls   atomic.Int32
	exchangeCalls  atomic.Int32
	blockMinRating string
	blockStarted   chan struct{}
	blockFail      chan struct{}
}

func (f *fakeAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)
	path := strings.TrimPrefix(r.URL.Path, "/api")

	switch {
	case path == "/treatments":
		io.WriteString(w, `[{"treatment_id":"implante-dental","name":"Implante Dental"},{"treatment_id":"blanqueamiento","name":"Blanqueamiento"}]`)
	case path == "/cities":
		io.WriteString(w, `["Barcelona","Madrid"]`)
	case path == "/clinics":
		f.mu.Lock()
		f.clinicQueries = append(f.clinicQueries, r.URL.RawQuery)
		block := f.blockMinRating != "" && r.URL.Query().Get("min_rating") == f.blockMinRating
		f.mu.Unlock()
		if block {
			f.blockStarted <- struct{}{}
			select {
			case <-r.Context().Done():
			case <-f.blockFail:
				w.WriteHeader(http.StatusBadGateway)
				io.WriteString(w, `{"detail":"upstream unavailable"}`)
			}
			return
		}
		io.WriteString(w, clinicsJSON)
	case path == "/clinics/c1":
		io.WriteString(w, `{"clinic_id":"c1","name":"Clínica Sonrisa","address":"Calle Mayor 1","city":"Madrid","latitude":40.4168,"longitude":-3.7038,"rating":4.8,
		  "treatments":[{"treatment_id":"implante-dental","name":"Implante Dental","price":1200,"duration_days":3,"warranty_months":60,"includes":["Consulta"],"process_steps":["Estudio"]}]}`)
	case strings.HasPrefix(path, "/clinics/"):
		w.WriteHeader(http.StatusNotFound)
		io.WriteString(w, `{"detail":"Clinic not found"}`)
	case path == "/compare":
		f.compareCalls.Add(1)
		f.mu.Lock()
		f.compareBodies = append(f.compareBodies, string(body))
		f.mu.Unlock()
		io.WriteString(w, compareJSON)
	case path == "/auth/login":
		var creds map[string]string
		json.Unmarshal(body, &creds)
		if creds["password"] != "secret" {
			w.WriteHeader(http.StatusUnauthorized)
			io.WriteString(w, `{"detail":"Credenciales inválidas"}`)
			return
		}
		io.WriteString(w, `{"user_id":"user_1","email":"ana@example.com","name":"Ana","token":"jwt"}`)
	case path == "/auth/session":
		f.exchangeCalls.Add(1)
		f.mu.Lock()
		f.sessionBodies = append(f.sessionBodies, string(body))
		f.mu.Unlock()
		http.SetCookie(w, &http.Cookie{Name: denticompare.SessionCookieName, Value: "session_abc"})
		io.WriteString(w, `{"user_id":"user_2","email":"luis@example.com","name":"Luis"}`)
	case path == "/auth/me":
		if r.Header.Get("Authorization") == "" {
			w.WriteHeader(http.StatusUnauthorized)
			io.WriteString(w, `{"detail":"Not authenticated"}`)
			return
		}
		io.WriteString(w, `{"user_id":"user_1","email":"ana@example.com","name":"Ana"}`)
	case path == "/auth/logout":
		io.WriteString(w, `{"message":"Logged out"}`)
	default:
		http.NotFound(w, r)
	}
}

func (f *fakeAPI) lastClinicQuery() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.clinicQueries) == 0 {
		return ""
	}
	return f.clinicQueries[len(f.clinicQueries)-1]
}

type testApp struct {
	server *httptest.Server
	api    *fakeAPI
	client *http.Client
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()

	api := &fakeAPI{blockStarted: make(chan struct{}, 1)}
	apiServer := httptest.NewServer(api)
	t.Cleanup(apiServer.Close)

	catalog := denticompare.NewClient(apiServer.URL+"/api", 2*time.Second, nil)
	memory := cache.NewMemoryAdapter()
	state := services.NewSessionState(session.NewCacheStore(memory), time.Hour)

	renderer, err := web.NewRenderer()
	require.NoError(t, err)
	view := handlers.NewView(renderer, state)

	search := services.NewSearchService(catalog, services.NewFetchGuard(), nil)
	auth := services.NewAuthService(catalog, state, memory, services.AuthConfig{
		ProviderURL: "https://auth.example.com",
		PublicURL:   "http://savely.test",
	}, nil)

	router := routes.NewRouter(
		view,
		handlers.NewLandingHandler(view, search),
		handlers.NewSearchHandler(view, search, false),
		handlers.NewCompareHandler(view, services.NewCompareService(catalog)),
		handlers.NewClinicHandler(view, services.NewClinicService(catalog)),
		handlers.NewAuthHandler(view, auth),
		state,
		routes.Options{SessionCookie: middleware.SessionCookie{Name: "savely_session"}},
	)

	server := httptest.NewServer(router.SetupRoutes())
	t.Cleanup(server.Close)

	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	client := &http.Client{
		Jar: jar,
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
	return &testApp{server: server, api: api, client: client}
}

func (a *testApp) get(t *testing.T, path string) (*http.Response, string) {
	t.Helper()
	resp, err := a.client.Get(a.server.URL + path)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, string(body)
}

func (a *testApp) post(t *testing.T, path string, form url.Values) (*http.Response, string) {
	t.Helper()
	resp, err := a.client.PostForm(a.server.URL+path, form)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, string(body)
}

func TestHealth(t *testing.T) {
	app := newTestApp(t)

	resp, body := app.get(t, "/health")

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"status":"ok"}`, body)
}

func TestLanding(t *testing.T) {
	app := newTestApp(t)

	resp, body := app.get(t, "/")

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, `data-testid="featured-clinic-c1"`)
	assert.Contains(t, body, `data-testid="featured-clinic-c3"`)
	assert.NotContains(t, body, `data-testid="featured-clinic-c4"`, "only the first three clinics are featured")
	assert.Contains(t, body, `href="/buscar?treatment=implante-dental"`)
}

func TestSearch_MountFromURL(t *testing.T) {
	app := newTestApp(t)

	resp, body := app.get(t, "/buscar?city=Madrid&treatment=implante-dental&min_rating=4.5")

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "city=Madrid&treatment_id=implante-dental", app.api.lastClinicQuery(), "rating is not restored from the URL")
	assert.Contains(t, body, "4 clínicas encontradas en Madrid para Implante Dental")
	assert.Contains(t, body, `data-testid="compare-checkbox-c1"`)
}

func TestSearch_NoTreatmentHidesCompare(t *testing.T) {
	app := newTestApp(t)

	_, body := app.get(t, "/buscar")

	assert.Equal(t, "", app.api.lastClinicQuery())
	assert.NotContains(t, body, "compare-checkbox-")
	assert.NotContains(t, body, "price-range-slider")
}

func TestSearch_FilterChangeQuery(t *testing.T) {
	app := newTestApp(t)

	resp, body := app.post(t, "/buscar", url.Values{
		"city":       {"Madrid"},
		"treatment":  {"implante-dental"},
		"min_price":  {"0"},
		"max_price":  {"5000"},
		"min_rating": {"0"},
		"set_rating": {"4.5"},
	})

	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "city=Madrid&treatment_id=implante-dental&min_rating=4.5", app.api.lastClinicQuery())
	assert.Contains(t, body, `name="min_rating" value="4.5"`)
	assert.Regexp(t, `history\.replaceState\(null, "", "/buscar\?city=Madrid(&|\\u0026)treatment=implante-dental"\)`, body)
}

func TestSearch_ToggleSelection(t *testing.T) {
	app := newTestApp(t)
	base := url.Values{
		"treatment": {"implante-dental"},
		"selected":  {"c1", "c2", "c3"},
	}

	t.Run("fourth clinic is ignored", func(t *testing.T) {
		form := url.Values{}
		for k, v := range base {
			form[k] = v
		}
		form.Set("toggle", "c4")

		_, body := app.post(t, "/buscar", form)

		assert.Equal(t, 3, strings.Count(body, `name="selected"`))
		assert.NotContains(t, body, `name="selected" value="c4"`)
		assert.Contains(t, body, "Comparar 3 clínicas")
	})

	t.Run("selected clinic is removed", func(t *testing.T) {
		form := url.Values{}
		for k, v := range base {
			form[k] = v
		}
		form.Set("toggle", "c2")

		_, body := app.post(t, "/buscar", form)

		assert.Equal(t, 2, strings.Count(body, `name="selected"`))
		assert.NotContains(t, body, `name="selected" value="c2"`)
	})

	t.Run("single selection cannot compare", func(t *testing.T) {
		_, body := app.post(t, "/buscar", url.Values{"treatment": {"implante-dental"}, "toggle": {"c1"}})

		assert.Equal(t, 1, strings.Count(body, `name="selected"`))
		assert.NotContains(t, body, "compare-floating-button")
	})
}

func TestSearch_Clear(t *testing.T) {
	app := newTestApp(t)

	resp, _ := app.post(t, "/buscar", url.Values{"city": {"Madrid"}, "action": {"clear"}})

	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/buscar", resp.Header.Get("Location"))
}

func TestSearch_CompareNavigation(t *testing.T) {
	app := newTestApp(t)

	resp, _ := app.post(t, "/buscar/comparar", url.Values{
		"treatment": {"x"},
		"selected":  {"a", "b"},
	})
	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/comparar?clinics=a,b&treatment=x", resp.Header.Get("Location"))

	resp, _ = app.post(t, "/buscar/comparar", url.Values{
		"treatment": {"x"},
		"selected":  {"a"},
	})
	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/buscar?treatment=x", resp.Header.Get("Location"))
}

func TestSearch_SupersededSubmission(t *testing.T) {
	app := newTestApp(t)
	app.api.blockMinRating = "4"

	// establish the browser session
	app.get(t, "/buscar")
	viewID := "6f1c2b8e-3f5a-4c2d-9e7b-1a2b3c4d5e6f"

	first := make(chan *http.Response, 1)
	go func() {
		resp, err := app.client.PostForm(app.server.URL+"/buscar", url.Values{
			"view": {viewID}, "set_rating": {"4"},
		})
		if err == nil {
			resp.Body.Close()
		}
		first <- resp
	}()
	<-app.api.blockStarted

	resp, _ := app.post(t, "/buscar", url.Values{"view": {viewID}, "set_rating": {"4.8"}})
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	stale := <-first
	require.NotNil(t, stale)
	assert.Equal(t, http.StatusNoContent, stale.StatusCode)
}

func TestCompare(t *testing.T) {
	t.Run("renders both layouts with one best value", func(t *testing.T) {
		app := newTestApp(t)

		resp, body := app.get(t, "/comparar?clinics=c1,c2&treatment=implante-dental")

		require.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Contains(t, body, "Comparando Implante Dental")
		assert.Contains(t, body, `data-testid="comparison-table"`)
		assert.Contains(t, body, `data-testid="compare-card-mobile-c1"`)
		assert.Contains(t, body, `data-testid="best-value-card-c2"`)
		assert.Contains(t, body, `data-testid="best-value-column-c2"`)
		assert.NotContains(t, body, "best-value-card-c1")
		assert.NotContains(t, body, "best-value-column-c1")
		assert.Equal(t, 2, strings.Count(body, "Mejor precio"))
		assert.Contains(t, body, "+1 más")
		assert.Less(t, strings.Index(body, "compare-card-mobile-c1"), strings.Index(body, "compare-card-mobile-c2"), "server order is kept")

		app.api.mu.Lock()
		defer app.api.mu.Unlock()
		require.Len(t, app.api.compareBodies, 1)
		assert.JSONEq(t, `{"clinic_ids":["c1","c2"],"treatment_id":"implante-dental"}`, app.api.compareBodies[0])
	})

	t.Run("too few clinics skips the api", func(t *testing.T) {
		app := newTestApp(t)

		_, body := app.get(t, "/comparar?clinics=c1&treatment=implante-dental")

		assert.Contains(t, body, "No se puede comparar")
		assert.Contains(t, body, `href="/buscar"`)
		assert.Zero(t, app.api.compareCalls.Load())
	})

	t.Run("missing treatment skips the api", func(t *testing.T) {
		app := newTestApp(t)

		_, body := app.get(t, "/comparar?clinics=c1,c2")

		assert.Contains(t, body, "No se puede comparar")
		assert.Zero(t, app.api.compareCalls.Load())
	})
}

func TestClinic(t *testing.T) {
	app := newTestApp(t)

	t.Run("detail with map", func(t *testing.T) {
		resp, body := app.get(t, "/clinica/c1")

		require.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Contains(t, body, "Clínica Sonrisa")
		assert.Contains(t, body, `data-testid="treatment-implante-dental"`)
		assert.Contains(t, body, "https://www.openstreetmap.org/export/embed.html?bbox=")
	})

	t.Run("not found", func(t *testing.T) {
		resp, body := app.get(t, "/clinica/missing")

		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
		assert.Contains(t, body, "Clínica no encontrada")
		assert.Contains(t, body, `href="/buscar"`)
	})
}

func TestAuth_Login(t *testing.T) {
	app := newTestApp(t)

	resp, body := app.post(t, "/auth/login", url.Values{"email": {"ana@example.com"}, "password": {"wrong"}})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Contains(t, body, "Credenciales inválidas")

	resp, _ = app.post(t, "/auth/login", url.Values{"email": {"ana@example.com"}, "password": {"secret"}})
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/", resp.Header.Get("Location"))

	_, body = app.get(t, "/")
	assert.Contains(t, body, "¡Bienvenido de nuevo!")
	assert.Contains(t, body, `data-testid="nav-profile"`)

	_, body = app.get(t, "/")
	assert.NotContains(t, body, "¡Bienvenido de nuevo!", "notifications are shown once")

	resp, _ = app.get(t, "/auth")
	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/perfil", resp.Header.Get("Location"))

	resp, body = app.get(t, "/perfil")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "ana@example.com")

	resp, _ = app.post(t, "/auth/logout", nil)
	assert.Equal(t, "/", resp.Header.Get("Location"))
	_, body = app.get(t, "/")
	assert.Contains(t, body, "Sesión cerrada correctamente")
	assert.Contains(t, body, `data-testid="nav-login"`)
}

func (a *testApp) sessionCookie(t *testing.T) string {
	t.Helper()
	u, err := url.Parse(a.server.URL)
	require.NoError(t, err)
	for _, c := range a.client.Jar.Cookies(u) {
		if c.Name == "savely_session" {
			return c.Value
		}
	}
	return ""
}

func TestAuth_LoginIssuesNewSessionCookie(t *testing.T) {
	app := newTestApp(t)

	app.get(t, "/auth")
	before := app.sessionCookie(t)
	require.NotEmpty(t, before)

	resp, _ := app.post(t, "/auth/login", url.Values{"email": {"ana@example.com"}, "password": {"secret"}})
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)

	after := app.sessionCookie(t)
	assert.NotEqual(t, before, after)

	// the pre-login id is no longer signed in
	planted := &http.Client{CheckRedirect: app.client.CheckRedirect}
	req, err := http.NewRequest(http.MethodGet, app.server.URL+"/perfil", nil)
	require.NoError(t, err)
	req.AddCookie(&http.Cookie{Name: "savely_session", Value: before})
	resp, err = planted.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/auth", resp.Header.Get("Location"))

	resp, _ = app.get(t, "/perfil")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestAuth_LoginSurvivesFailingSearch(t *testing.T) {
	app := newTestApp(t)
	app.api.blockMinRating = "4"
	app.api.blockFail = make(chan struct{})

	app.get(t, "/buscar")

	searched := make(chan *http.Response, 1)
	go func() {
		resp, err := app.client.PostForm(app.server.URL+"/buscar", url.Values{
			"view": {"0b6a4a8e-2c1d-4f3e-8a9b-7c6d5e4f3a2b"}, "set_rating": {"4"},
		})
		if err == nil {
			io.Copy(io.Discard, resp.Body)
			resp.Body.Close()
		}
		searched <- resp
	}()
	<-app.api.blockStarted

	resp, _ := app.post(t, "/auth/login", url.Values{"email": {"ana@example.com"}, "password": {"secret"}})
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)

	close(app.api.blockFail)
	failed := <-searched
	require.NotNil(t, failed)
	assert.Equal(t, http.StatusOK, failed.StatusCode)

	resp, body := app.get(t, "/perfil")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "ana@example.com")
}

func TestAuth_OAuthSession(t *testing.T) {
	app := newTestApp(t)

	resp, _ := app.get(t, "/auth/google")
	assert.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, "https://auth.example.com/?redirect=http%3A%2F%2Fsavely.test%2Fauth%2Fcallback", resp.Header.Get("Location"))

	resp, body := app.get(t, "/auth/callback")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, `action="/auth/session"`)

	resp, _ = app.post(t, "/auth/session", url.Values{"session_id": {"abc123"}})
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/", resp.Header.Get("Location"))

	app.api.mu.Lock()
	assert.Equal(t, []string{`{"session_id":"abc123"}`}, app.api.sessionBodies)
	app.api.mu.Unlock()

	_, body = app.get(t, "/")
	assert.Contains(t, body, "¡Bienvenido, Luis!")

	// a replayed callback reuses the first exchange
	app.post(t, "/auth/session", url.Values{"session_id": {"abc123"}})
	assert.Equal(t, int32(1), app.api.exchangeCalls.Load())
}

func TestAuth_OAuthMissingSession(t *testing.T) {
	app := newTestApp(t)

	resp, _ := app.post(t, "/auth/session", url.Values{"session_id": {""}})
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/auth", resp.Header.Get("Location"))

	_, body := app.get(t, "/auth")
	assert.Contains(t, body, "No se encontró la sesión")
	assert.Zero(t, app.api.exchangeCalls.Load())
}

func TestProfile_RequiresLogin(t *testing.T) {
	app := newTestApp(t)

	resp, _ := app.get(t, "/perfil")

	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/auth", resp.Header.Get("Location"))
}

func TestNotFoundRoute(t *testing.T) {
	app := newTestApp(t)

	resp, body := app.get(t, "/no-existe")

	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Contains(t, body, "Página no encontrada")
}

func TestStaticAssets(t *testing.T) {
	app := newTestApp(t)

	resp, body := app.get(t, "/static/app.css")

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, ".best-value-column")
}
