package denticompare

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/savelydental/Savely/internal/domain/entities"
	"github.com/savelydental/Savely/internal/domain/providers"
	"github.com/savelydental/Savely/internal/infrastructure/observability"
	apperrors "github.com/savelydental/Savely/pkg/errors"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/propagation"
)

// SessionCookieName is the cookie the API uses to carry its session token
const SessionCookieName = "session_token"

// HTTPClient talks to the DentiCompare REST API. Every call is a single
// request: nothing is retried, deduplicated or cached.
type HTTPClient struct {
	baseURL    string
	httpClient *http.Client
	metrics    *observability.Metrics
}

var (
	_ providers.CatalogProvider = (*HTTPClient)(nil)
	_ providers.AuthProvider    = (*HTTPClient)(nil)
)

// NewClient creates a client for the API rooted at baseURL (e.g. http://host/api)
func NewClient(baseURL string, timeout time.Duration, metrics *observability.Metrics) *HTTPClient {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &HTTPClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
		metrics: metrics,
	}
}

// BaseURL returns the API root the client was configured with
func (c *HTTPClient) BaseURL() string {
	return c.baseURL
}

func (c *HTTPClient) ListTreatments(ctx context.Context) ([]entities.Treatment, error) {
	var out []entities.Treatment
	if _, err := c.doJSON(ctx, "list_treatments", request{method: http.MethodGet, path: "/treatments"}, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *HTTPClient) ListCities(ctx context.Context) ([]string, error) {
	var out []string
	if _, err := c.doJSON(ctx, "list_cities", request{method: http.MethodGet, path: "/cities"}, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *HTTPClient) ListClinics(ctx context.Context, query string) ([]entities.Clinic, error) {
	var out []entities.Clinic
	if _, err := c.doJSON(ctx, "list_clinics", request{method: http.MethodGet, path: "/clinics", query: query}, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *HTTPClient) GetClinic(ctx context.Context, id string) (*entities.Clinic, error) {
	if strings.TrimSpace(id) == "" {
		return nil, apperrors.NewValidationError("clinic id is required")
	}
	out := &entities.Clinic{}
	if _, err := c.doJSON(ctx, "get_clinic", request{method: http.MethodGet, path: "/clinics/" + url.PathEscape(id)}, out); err != nil {
		return nil, err
	}
	return out, nil
}

// Compare posts the comparison request. The response is checked against
// the comparison schema before it is decoded.
func (c *HTTPClient) Compare(ctx context.Context, req entities.ComparisonRequest) (*entities.ComparisonResult, error) {
	var raw json.RawMessage
	if _, err := c.doJSON(ctx, "compare", request{method: http.MethodPost, path: "/compare", body: req}, &raw); err != nil {
		return nil, err
	}
	if err := validateComparison(raw); err != nil {
		return nil, apperrors.NewExternalError("unexpected comparison payload", err)
	}

	out := &entities.ComparisonResult{}
	if err := json.Unmarshal(raw, out); err != nil {
		return nil, apperrors.NewExternalError("failed to decode comparison", err)
	}
	return out, nil
}

func (c *HTTPClient) Seed(ctx context.Context) (*providers.SeedSummary, error) {
	out := &providers.SeedSummary{}
	if _, err := c.doJSON(ctx, "seed", request{method: http.MethodPost, path: "/seed"}, out); err != nil {
		return nil, err
	}
	return out, nil
}

// authResponse is the user payload returned by login, register and session exchange
type authResponse struct {
	entities.User
	Token string `json:"token"`
}

func (c *HTTPClient) Login(ctx context.Context, creds entities.Credentials) (*entities.AuthResult, error) {
	return c.authenticate(ctx, "login", "/auth/login", creds)
}

func (c *HTTPClient) Register(ctx context.Context, reg entities.Registration) (*entities.AuthResult, error) {
	return c.authenticate(ctx, "register", "/auth/register", reg)
}

func (c *HTTPClient) ExchangeSession(ctx context.Context, sessionID string) (*entities.AuthResult, error) {
	body := map[string]string{"session_id": sessionID}
	return c.authenticate(ctx, "exchange_session", "/auth/session", body)
}

func (c *HTTPClient) Me(ctx context.Context, token string) (*entities.User, error) {
	out := &entities.User{}
	if _, err := c.doJSON(ctx, "me", request{method: http.MethodGet, path: "/auth/me", token: token}, out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *HTTPClient) Logout(ctx context.Context, token string) error {
	_, err := c.doJSON(ctx, "logout", request{method: http.MethodPost, path: "/auth/logout", token: token}, nil)
	return err
}

func (c *HTTPClient) authenticate(ctx context.Context, op, path string, body interface{}) (*entities.AuthResult, error) {
	out := &authResponse{}
	resp, err := c.doJSON(ctx, op, request{method: http.MethodPost, path: path, body: body}, out)
	if err != nil {
		return nil, err
	}

	token := out.Token
	if token == "" {
		for _, cookie := range resp.Cookies() {
			if cookie.Name == SessionCookieName {
				token = cookie.Value
				break
			}
		}
	}
	if token == "" {
		return nil, apperrors.NewExternalError("authentication response carried no session token", nil)
	}

	return &entities.AuthResult{User: out.User, Token: token}, nil
}

type request struct {
	method string
	path   string
	query  string
	body   interface{}
	token  string
}

func (c *HTTPClient) doJSON(ctx context.Context, op string, r request, out interface{}) (*http.Response, error) {
	ctx, span := observability.StartSpan(ctx, "denticompare."+op)
	defer span.End()

	endpoint := c.baseURL + r.path
	if r.query != "" {
		endpoint += "?" + r.query
	}
	observability.SetSpanAttributes(span,
		attribute.String("http.method", r.method),
		attribute.String("api.operation", op),
	)

	var body io.Reader
	if r.body != nil {
		payload, err := json.Marshal(r.body)
		if err != nil {
			return nil, apperrors.NewInternalError("failed to encode request", err)
		}
		body = bytes.NewReader(payload)
	}

	httpReq, err := http.NewRequestWithContext(ctx, r.method, endpoint, body)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build request", err)
	}
	httpReq.Header.Set("Accept", "application/json")
	if body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	if r.token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+r.token)
		httpReq.AddCookie(&http.Cookie{Name: SessionCookieName, Value: r.token})
	}
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(httpReq.Header))

	start := time.Now()
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		observability.RecordAPICall(ctx, c.metrics, op, 0, time.Since(start))
		observability.RecordError(span, err)
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, apperrors.NewExternalError("api request failed", err)
	}
	defer resp.Body.Close()

	observability.RecordAPICall(ctx, c.metrics, op, resp.StatusCode, time.Since(start))
	observability.SetSpanAttributes(span, attribute.Int("http.status_code", resp.StatusCode))

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		observability.RecordError(span, err)
		return nil, apperrors.NewExternalError("failed to read api response", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := errorFromResponse(resp.StatusCode, payload)
		observability.RecordError(span, apiErr)
		return nil, apiErr
	}

	if out == nil || len(bytes.TrimSpace(payload)) == 0 {
		return resp, nil
	}
	if err := json.Unmarshal(payload, out); err != nil {
		observability.RecordError(span, err)
		return nil, apperrors.NewExternalError("failed to decode api response", err)
	}
	return resp, nil
}

// errorFromResponse maps a non-2xx answer to an AppError whose message is the
// API's detail string when it sent one.
func errorFromResponse(status int, payload []byte) error {
	message := detailMessage(payload)
	cause := fmt.Errorf("api returned status %d", status)

	switch {
	case status == http.StatusNotFound:
		if message == "" {
			message = "recurso no encontrado"
		}
		return &apperrors.AppError{Type: apperrors.ErrorTypeNotFound, Message: message, Err: cause}
	case status == http.StatusBadRequest || status == http.StatusUnprocessableEntity:
		return &apperrors.AppError{Type: apperrors.ErrorTypeValidation, Message: message, Err: cause}
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return &apperrors.AppError{Type: apperrors.ErrorTypeUnauthorized, Message: message, Err: cause}
	case status == http.StatusConflict:
		return &apperrors.AppError{Type: apperrors.ErrorTypeConflict, Message: message, Err: cause}
	default:
		return apperrors.NewExternalError(message, cause)
	}
}

// detailMessage extracts {"detail": "..."}; structured validation details
// are not user-facing and yield "".
func detailMessage(payload []byte) string {
	var body struct {
		Detail json.RawMessage `json:"detail"`
	}
	if err := json.Unmarshal(payload, &body); err != nil || len(body.Detail) == 0 {
		return ""
	}
	var detail string
	if err := json.Unmarshal(body.Detail, &detail); err != nil {
		return ""
	}
	return strings.TrimSpace(detail)
}
