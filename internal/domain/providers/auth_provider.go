package providers

import (
	"context"

	"github.com/savelydental/Savely/internal/domain/entities"
)

// AuthProvider authenticates users against the API
type AuthProvider interface {
	Login(ctx context.Context, creds entities.Credentials) (*entities.AuthResult, error)
	Register(ctx context.Context, reg entities.Registration) (*entities.AuthResult, error)
	// ExchangeSession trades an OAuth session id for an API session
	ExchangeSession(ctx context.Context, sessionID string) (*entities.AuthResult, error)
	Me(ctx context.Context, token string) (*entities.User, error)
	Logout(ctx context.Context, token string) error
}
