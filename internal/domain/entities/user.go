package entities

import (
	"strings"
	"time"
)

// User represents an authenticated user as reported by the API
type User struct {
	ID      string  `json:"user_id"`
	Email   string  `json:"email"`
	Name    string  `json:"name"`
	Picture *string `json:"picture,omitempty"`
}

// Initial returns the upper-cased first letter of the user's name, used as avatar fallback
func (u *User) Initial() string {
	name := strings.TrimSpace(u.Name)
	if name == "" {
		name = u.Email
	}
	for _, r := range name {
		return strings.ToUpper(string(r))
	}
	return "?"
}

// AvatarURL returns the picture URL or an empty string
func (u *User) AvatarURL() string {
	if u.Picture == nil {
		return ""
	}
	return *u.Picture
}

// Credentials holds email/password login input
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Registration holds sign-up input
type Registration struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// AuthResult is the outcome of a successful authentication against the API.
// Token is the API credential used for later authenticated calls.
type AuthResult struct {
	User  User
	Token string
}

// FlashKind classifies a transient notification
type FlashKind string

const (
	FlashSuccess FlashKind = "success"
	FlashError   FlashKind = "error"
)

// Flash is a one-shot notification shown on the next rendered page
type Flash struct {
	Kind    FlashKind `json:"kind"`
	Message string    `json:"message"`
}

// Session is the server-side state attached to one browser. The pending
// Flash is stored apart from it.
type Session struct {
	ID        string    `json:"id"`
	User      *User     `json:"user,omitempty"`
	APIToken  string    `json:"api_token,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Authenticated reports whether a user is signed in on this session
func (s *Session) Authenticated() bool {
	return s != nil && s.User != nil
}

// Expired reports whether the session is past its expiry at now
func (s *Session) Expired(now time.Time) bool {
	return !s.ExpiresAt.IsZero() && now.After(s.ExpiresAt)
}
