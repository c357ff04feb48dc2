package session

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/jrsteele09/netop-connector/environment"
	"github.com/jrsteele09/netop-connector/internal/config"
	oauthwire "github.com/jrsteele09/netop-connector/oauth2"
)

// State is a session's position in the token lifecycle:
//
//	Unauthenticated -> Active -> Refreshing -> Active
//	                                        -> RefreshFailed -> Unauthenticated
type State string

const (
	Unauthenticated State = "unauthenticated"
	Active          State = "active"
	Refreshing      State = "refreshing"
	RefreshFailed   State = "refresh_failed"
)

// expirySkew treats a token as expired slightly early so it does not lapse in flight.
const expirySkew = 30 * time.Second

// Session is an authorised connection to one NetOp environment.
type Session struct {
	ID          string                  `json:"id"`
	Environment environment.Environment `json:"environment"`
	oauthwire.TokenSet
	State     State     `json:"state"`
	Label     string    `json:"label,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// New creates an Active session from a successful code exchange.
func New(id string, env environment.Environment, tokens oauthwire.TokenSet, now time.Time) *Session {
	if id == "" {
		id = uuid.New().String()
	}
	return &Session{
		ID:          id,
		Environment: env,
		TokenSet:    tokens,
		State:       Active,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// Bearer returns the credential sent to the partner API.
func (s *Session) Bearer(kind string) string {
	if kind == config.BearerIDToken && s.IDToken != "" {
		return s.IDToken
	}
	return s.AccessToken
}

// BearerExpiry returns when the bearer credential lapses. ID tokens carry their
// own exp claim; it is read without verification since the partner API, not
// this process, is the relying party. Zero means unknown.
func (s *Session) BearerExpiry(kind string) time.Time {
	if kind == config.BearerIDToken && s.IDToken != "" {
		claims := jwt.RegisteredClaims{}
		if _, _, err := jwt.NewParser().ParseUnverified(s.IDToken, &claims); err == nil && claims.ExpiresAt != nil {
			return claims.ExpiresAt.Time
		}
	}
	return s.ExpiresAt
}

// Expired reports whether the bearer credential must be refreshed before use.
func (s *Session) Expired(kind string, now time.Time) bool {
	expiry := s.BearerExpiry(kind)
	if expiry.IsZero() {
		return false
	}
	return !now.Add(expirySkew).Before(expiry)
}

// applyRefresh replaces the tokens after a successful refresh. The refresh and
// ID tokens are kept when the provider does not rotate them.
func (s *Session) applyRefresh(tokens oauthwire.TokenSet, now time.Time) {
	if tokens.RefreshToken == "" {
		tokens.RefreshToken = s.RefreshToken
	}
	if tokens.IDToken == "" {
		tokens.IDToken = s.IDToken
	}
	s.TokenSet = tokens
	s.State = Active
	s.UpdatedAt = now
}

// Invalidate drops the tokens and returns the session to Unauthenticated.
func (s *Session) Invalidate(now time.Time) {
	s.TokenSet = oauthwire.TokenSet{}
	s.State = Unauthenticated
	s.UpdatedAt = now
}
