package providers

import (
	"context"

	"github.com/savelydental/Savely/internal/domain/entities"
)

// SessionStore persists browser sessions. Get returns a NotFound AppError
// for unknown or expired ids.
type SessionStore interface {
	Get(ctx context.Context, id string) (*entities.Session, error)
	Save(ctx context.Context, session *entities.Session) error
	Delete(ctx context.Context, id string) error

	// SaveFlash stores the pending notification of session under its own key,
	// leaving the session document untouched. It expires with the session.
	SaveFlash(ctx context.Context, session *entities.Session, flash entities.Flash) error
	// TakeFlash returns and removes the pending notification; nil when none
	TakeFlash(ctx context.Context, id string) (*entities.Flash, error)
}
