package services

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/savelydental/Savely/internal/domain/entities"
	"github.com/savelydental/Savely/internal/domain/providers"
	apperrors "github.com/savelydental/Savely/pkg/errors"
)

type sessionKey struct{}

// SessionState owns the per-browser session. Anyone may read the current
// user; only AuthService changes it.
type SessionState struct {
	store providers.SessionStore
	ttl   time.Duration
	now   func() time.Time
}

// NewSessionState creates a session state store with sessions living ttl
func NewSessionState(store providers.SessionStore, ttl time.Duration) *SessionState {
	return &SessionState{
		store: store,
		ttl:   ttl,
		now:   time.Now,
	}
}

// TTL returns the session lifetime
func (s *SessionState) TTL() time.Duration {
	return s.ttl
}

// Load returns the session for id, starting a new one when id is unknown or
// expired. created reports whether a new session was started and stored.
// When the store fails the caller gets an unsaved session with created false,
// so the browser keeps its cookie.
func (s *SessionState) Load(ctx context.Context, id string) (sess *entities.Session, created bool, err error) {
	if id != "" {
		sess, err = s.store.Get(ctx, id)
		if err == nil {
			return sess, false, nil
		}
		if !apperrors.IsType(err, apperrors.ErrorTypeNotFound) {
			return s.newSession(), false, err
		}
	}

	sess = s.newSession()
	if err := s.store.Save(ctx, sess); err != nil {
		return sess, false, err
	}
	return sess, true, nil
}

func (s *SessionState) newSession() *entities.Session {
	now := s.now().UTC()
	return &entities.Session{
		ID:        uuid.NewString(),
		CreatedAt: now,
		ExpiresAt: now.Add(s.ttl),
	}
}

// AddFlash queues a notification for the next rendered page
func (s *SessionState) AddFlash(ctx context.Context, sess *entities.Session, kind entities.FlashKind, message string) error {
	return s.store.SaveFlash(ctx, sess, entities.Flash{Kind: kind, Message: message})
}

// PopFlash returns and clears the pending notification, if any
func (s *SessionState) PopFlash(ctx context.Context, sess *entities.Session) (*entities.Flash, error) {
	if sess == nil {
		return nil, nil
	}
	return s.store.TakeFlash(ctx, sess.ID)
}

// signIn is called by AuthService only. The session moves to a fresh id;
// the old one stops resolving.
func (s *SessionState) signIn(ctx context.Context, sess *entities.Session, result *entities.AuthResult) error {
	if err := s.store.Delete(ctx, sess.ID); err != nil {
		return err
	}

	fresh := s.newSession()
	user := result.User
	sess.ID = fresh.ID
	sess.CreatedAt = fresh.CreatedAt
	sess.ExpiresAt = fresh.ExpiresAt
	sess.User = &user
	sess.APIToken = result.Token
	return s.store.Save(ctx, sess)
}

// signOut is called by AuthService only
func (s *SessionState) signOut(ctx context.Context, sess *entities.Session) error {
	sess.User = nil
	sess.APIToken = ""
	return s.store.Save(ctx, sess)
}

func (s *SessionState) replaceUser(ctx context.Context, sess *entities.Session, user *entities.User) error {
	u := *user
	sess.User = &u
	return s.store.Save(ctx, sess)
}

// WithSession attaches sess to ctx
func WithSession(ctx context.Context, sess *entities.Session) context.Context {
	return context.WithValue(ctx, sessionKey{}, sess)
}

// SessionFromContext returns the session attached to ctx
func SessionFromContext(ctx context.Context) (*entities.Session, error) {
	sess, ok := ctx.Value(sessionKey{}).(*entities.Session)
	if !ok || sess == nil {
		return nil, errors.New("no session in context")
	}
	return sess, nil
}

// CurrentUser returns a copy of the signed-in user, or nil
func CurrentUser(ctx context.Context) *entities.User {
	sess, err := SessionFromContext(ctx)
	if err != nil || sess.User == nil {
		return nil
	}
	u := *sess.User
	return &u
}
