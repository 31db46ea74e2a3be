package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/savelydental/Savely/internal/domain/entities"
	"github.com/savelydental/Savely/internal/domain/providers"
	"github.com/savelydental/Savely/internal/infrastructure/observability"
	apperrors "github.com/savelydental/Savely/pkg/errors"
	"golang.org/x/sync/singleflight"
)

const exchangeKeyPrefix = "oauth:exchange:"

// AuthConfig configures AuthService
type AuthConfig struct {
	ProviderURL string
	PublicURL   string
	ExchangeTTL time.Duration
}

// AuthService signs users in and out of a browser session
type AuthService struct {
	auth    providers.AuthProvider
	state   *SessionState
	cache   providers.CacheProvider
	cfg     AuthConfig
	group   singleflight.Group
	metrics *observability.Metrics
}

// NewAuthService creates a new auth service
func NewAuthService(auth providers.AuthProvider, state *SessionState, cache providers.CacheProvider, cfg AuthConfig, metrics *observability.Metrics) *AuthService {
	if cfg.ExchangeTTL <= 0 {
		cfg.ExchangeTTL = 5 * time.Minute
	}
	return &AuthService{
		auth:    auth,
		state:   state,
		cache:   cache,
		cfg:     cfg,
		metrics: metrics,
	}
}

// Login signs the session in with email and password
func (a *AuthService) Login(ctx context.Context, sess *entities.Session, creds entities.Credentials) (*entities.User, error) {
	creds.Email = strings.TrimSpace(creds.Email)
	if creds.Email == "" || creds.Password == "" {
		return nil, apperrors.NewValidationError("Introduce tu email y contraseña")
	}

	result, err := a.auth.Login(ctx, creds)
	if err != nil {
		return nil, fmt.Errorf("login: %w", err)
	}
	return a.complete(ctx, sess, result)
}

// Register creates an account and signs the session in
func (a *AuthService) Register(ctx context.Context, sess *entities.Session, reg entities.Registration) (*entities.User, error) {
	reg.Name = strings.TrimSpace(reg.Name)
	reg.Email = strings.TrimSpace(reg.Email)
	if reg.Name == "" || reg.Email == "" || reg.Password == "" {
		return nil, apperrors.NewValidationError("Completa todos los campos")
	}

	result, err := a.auth.Register(ctx, reg)
	if err != nil {
		return nil, fmt.Errorf("register: %w", err)
	}
	return a.complete(ctx, sess, result)
}

// Logout ends the API session. The local user is only cleared once the API
// call succeeded.
func (a *AuthService) Logout(ctx context.Context, sess *entities.Session) error {
	if !sess.Authenticated() {
		return nil
	}
	if err := a.auth.Logout(ctx, sess.APIToken); err != nil {
		return fmt.Errorf("logout: %w", err)
	}
	return a.state.signOut(ctx, sess)
}

// OAuthRedirectURL returns where the browser is sent to start Google sign-in
func (a *AuthService) OAuthRedirectURL() string {
	return a.cfg.ProviderURL + "/?redirect=" + url.QueryEscape(a.cfg.PublicURL+"/auth/callback")
}

// CompleteOAuth exchanges the OAuth session id carried back by the provider.
// Each distinct session id reaches the API once: concurrent duplicates share
// one call and repeats within the exchange TTL reuse its result.
func (a *AuthService) CompleteOAuth(ctx context.Context, sess *entities.Session, sessionID string) (*entities.User, error) {
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return nil, apperrors.NewValidationError("No se encontró la sesión")
	}

	key := exchangeKeyPrefix + hashToken(sessionID)
	v, err, _ := a.group.Do(key, func() (interface{}, error) {
		return a.exchangeOnce(context.WithoutCancel(ctx), key, sessionID)
	})
	if err != nil {
		observability.RecordAuthExchange(ctx, a.metrics, "failed")
		return nil, fmt.Errorf("exchange session: %w", err)
	}
	return a.complete(ctx, sess, v.(*entities.AuthResult))
}

func (a *AuthService) exchangeOnce(ctx context.Context, key, sessionID string) (*entities.AuthResult, error) {
	logger := observability.LoggerFromContext(ctx)

	if a.cache != nil {
		data, err := a.cache.Get(ctx, key)
		if err == nil {
			result := &entities.AuthResult{}
			if jsonErr := json.Unmarshal(data, result); jsonErr == nil {
				observability.RecordAuthExchange(ctx, a.metrics, "reused")
				return result, nil
			}
		} else if !errors.Is(err, providers.ErrCacheMiss) {
			logger.Warn().Err(err).Msg("oauth exchange memo unavailable")
		}
	}

	result, err := a.auth.ExchangeSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	observability.RecordAuthExchange(ctx, a.metrics, "exchanged")

	if a.cache != nil {
		if data, err := json.Marshal(result); err == nil {
			if err := a.cache.Set(ctx, key, data, int(a.cfg.ExchangeTTL.Seconds())); err != nil {
				logger.Warn().Err(err).Msg("failed to memoise oauth exchange")
			}
		}
	}
	return result, nil
}

// Refresh re-reads the signed-in user from the API. A rejected token signs
// the session out; other failures keep the stored user.
func (a *AuthService) Refresh(ctx context.Context, sess *entities.Session) (*entities.User, error) {
	if !sess.Authenticated() {
		return nil, apperrors.NewUnauthorizedError("no has iniciado sesión")
	}

	user, err := a.auth.Me(ctx, sess.APIToken)
	if err != nil {
		if apperrors.IsType(err, apperrors.ErrorTypeUnauthorized) {
			if signOutErr := a.state.signOut(ctx, sess); signOutErr != nil {
				return nil, signOutErr
			}
			return nil, err
		}
		observability.LoggerFromContext(ctx).Warn().Err(err).Msg("failed to refresh user")
		u := *sess.User
		return &u, nil
	}

	if err := a.state.replaceUser(ctx, sess, user); err != nil {
		return nil, err
	}
	return user, nil
}

func (a *AuthService) complete(ctx context.Context, sess *entities.Session, result *entities.AuthResult) (*entities.User, error) {
	if err := a.state.signIn(ctx, sess, result); err != nil {
		return nil, fmt.Errorf("store session: %w", err)
	}
	user := result.User
	return &user, nil
}

func hashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
