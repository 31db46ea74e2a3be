package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/savelydental/Savely/internal/domain/entities"
	"github.com/savelydental/Savely/internal/domain/providers"
	apperrors "github.com/savelydental/Savely/pkg/errors"
)

const (
	keyPrefix   = "session:"
	flashSuffix = ":flash"
)

// CacheStore keeps browser sessions as JSON documents in a CacheProvider,
// expiring with the session itself.
type CacheStore struct {
	cache providers.CacheProvider
	now   func() time.Time
}

// NewCacheStore creates a session store backed by cache
func NewCacheStore(cache providers.CacheProvider) *CacheStore {
	return &CacheStore{cache: cache, now: time.Now}
}

var _ providers.SessionStore = (*CacheStore)(nil)

// Get loads a session; unknown and expired ids are NotFound
func (s *CacheStore) Get(ctx context.Context, id string) (*entities.Session, error) {
	if id == "" {
		return nil, apperrors.NewNotFoundError("session not found")
	}
	data, err := s.cache.Get(ctx, keyPrefix+id)
	if errors.Is(err, providers.ErrCacheMiss) {
		return nil, apperrors.NewNotFoundError("session not found")
	}
	if err != nil {
		return nil, apperrors.NewInternalError("failed to load session", err)
	}

	sess := &entities.Session{}
	if err := json.Unmarshal(data, sess); err != nil {
		return nil, apperrors.NewInternalError("failed to decode session", err)
	}
	if sess.Expired(s.now()) {
		_ = s.cache.Delete(ctx, keyPrefix+id)
		return nil, apperrors.NewNotFoundError("session expired")
	}
	return sess, nil
}

// Save writes the session with a TTL matching its remaining lifetime
func (s *CacheStore) Save(ctx context.Context, sess *entities.Session) error {
	if sess == nil || sess.ID == "" {
		return apperrors.NewValidationError("session id is required")
	}
	data, err := json.Marshal(sess)
	if err != nil {
		return apperrors.NewInternalError("failed to encode session", err)
	}

	ttl, alive := s.ttl(sess)
	if !alive {
		return s.Delete(ctx, sess.ID)
	}
	if err := s.cache.Set(ctx, keyPrefix+sess.ID, data, ttl); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

// Delete removes the session and its pending notification
func (s *CacheStore) Delete(ctx context.Context, id string) error {
	if err := s.cache.Delete(ctx, keyPrefix+id); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	if err := s.cache.Delete(ctx, keyPrefix+id+flashSuffix); err != nil {
		return fmt.Errorf("delete session flash: %w", err)
	}
	return nil
}

// SaveFlash writes the notification next to the session document
func (s *CacheStore) SaveFlash(ctx context.Context, sess *entities.Session, flash entities.Flash) error {
	if sess == nil || sess.ID == "" {
		return apperrors.NewValidationError("session id is required")
	}
	ttl, alive := s.ttl(sess)
	if !alive {
		return nil
	}
	data, err := json.Marshal(flash)
	if err != nil {
		return apperrors.NewInternalError("failed to encode flash", err)
	}
	if err := s.cache.Set(ctx, keyPrefix+sess.ID+flashSuffix, data, ttl); err != nil {
		return fmt.Errorf("save flash: %w", err)
	}
	return nil
}

// TakeFlash reads and deletes the pending notification
func (s *CacheStore) TakeFlash(ctx context.Context, id string) (*entities.Flash, error) {
	if id == "" {
		return nil, nil
	}
	key := keyPrefix + id + flashSuffix
	data, err := s.cache.Get(ctx, key)
	if errors.Is(err, providers.ErrCacheMiss) {
		return nil, nil
	}
	if err != nil {
		return nil, apperrors.NewInternalError("failed to load flash", err)
	}
	if err := s.cache.Delete(ctx, key); err != nil {
		return nil, fmt.Errorf("clear flash: %w", err)
	}

	flash := &entities.Flash{}
	if err := json.Unmarshal(data, flash); err != nil {
		return nil, apperrors.NewInternalError("failed to decode flash", err)
	}
	return flash, nil
}

// ttl returns the remaining lifetime in seconds; 0 keeps the key until
// deleted. alive is false once the session has expired.
func (s *CacheStore) ttl(sess *entities.Session) (ttl int, alive bool) {
	if sess.ExpiresAt.IsZero() {
		return 0, true
	}
	remaining := sess.ExpiresAt.Sub(s.now())
	if remaining <= 0 {
		return 0, false
	}
	return int(math.Ceil(remaining.Seconds())), true
}
