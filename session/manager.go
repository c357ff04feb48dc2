package session

import (
	"context"
	"net/http"
	"time"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/jrsteele09/netop-connector/environment"
	"github.com/jrsteele09/netop-connector/internal/config"
	apperrors "github.com/jrsteele09/netop-connector/internal/errors"
	oauthwire "github.com/jrsteele09/netop-connector/oauth2"
	"github.com/jrsteele09/netop-connector/transport"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"golang.org/x/oauth2"
)

// IDTokenVerifier checks an ID token's signature and claims. *oidc.IDTokenVerifier
// satisfies it.
type IDTokenVerifier interface {
	Verify(ctx context.Context, rawIDToken string) (*oidc.IDToken, error)
}

// AuthorizationRequest is the identity provider redirect that starts a login.
type AuthorizationRequest struct {
	URL         string
	State       string
	RedirectURI string
}

// Manager runs the OAuth2 authorization code flow against the identity
// provider and keeps sessions' tokens fresh.
type Manager struct {
	clientID     string
	clientSecret string
	authorizeURL string
	tokenURL     string
	redirectURI  string
	bearer       string
	httpClient   *http.Client
	requester    transport.Requester
	baseURL      func(environment.Environment) (string, error)
	verifier     IDTokenVerifier
	nowFunc      func() time.Time
}

// ManagerOption defines a function type to modify the Manager instance.
type ManagerOption func(*Manager)

// WithHTTPClient sets the client used for token endpoint calls.
func WithHTTPClient(client *http.Client) ManagerOption {
	return func(m *Manager) {
		m.httpClient = client
	}
}

// WithRequester sets the partner API requester used by TestSession.
func WithRequester(requester transport.Requester) ManagerOption {
	return func(m *Manager) {
		m.requester = requester
	}
}

// WithBaseURLResolver overrides environment.BaseURL (tests point it at httptest servers).
func WithBaseURLResolver(resolve func(environment.Environment) (string, error)) ManagerOption {
	return func(m *Manager) {
		m.baseURL = resolve
	}
}

// WithIDTokenVerifier verifies ID tokens returned by the code exchange.
func WithIDTokenVerifier(verifier IDTokenVerifier) ManagerOption {
	return func(m *Manager) {
		m.verifier = verifier
	}
}

func WithNowFunc(now func() time.Time) ManagerOption {
	return func(m *Manager) {
		m.nowFunc = now
	}
}

// NewManager creates a Manager from the OAuth configuration.
func NewManager(cfg config.OAuthConfig, options ...ManagerOption) (*Manager, error) {
	if cfg.GetClientID() == "" || cfg.GetClientSecret() == "" {
		return nil, &apperrors.ConfigurationError{Field: "client credentials", Reason: "client id and secret are required"}
	}
	m := &Manager{
		clientID:     cfg.GetClientID(),
		clientSecret: cfg.GetClientSecret(),
		authorizeURL: cfg.GetAuthorizeURL(),
		tokenURL:     cfg.GetTokenURL(),
		redirectURI:  cfg.GetRedirectURI(),
		bearer:       cfg.GetBearerToken(),
		httpClient:   http.DefaultClient,
		baseURL:      environment.BaseURL,
		nowFunc:      time.Now,
	}
	for _, opt := range options {
		opt(m)
	}
	if m.requester == nil {
		m.requester = transport.NewHTTPRequester(30*time.Second, transport.WithHTTPClient(m.httpClient))
	}
	return m, nil
}

// NewRemoteVerifier verifies ID tokens against the provider's published JWKS.
// ctx must outlive the verifier; keys are fetched lazily.
func NewRemoteVerifier(ctx context.Context, cfg config.OAuthConfig) *oidc.IDTokenVerifier {
	keySet := oidc.NewRemoteKeySet(ctx, cfg.GetJWKSURL())
	return oidc.NewVerifier(cfg.GetIssuer(), keySet, &oidc.Config{ClientID: cfg.GetClientID()})
}

// BearerKind reports which token is sent as the partner API credential.
func (m *Manager) BearerKind() string {
	return m.bearer
}

func (m *Manager) oauthConfig(redirectURI string) *oauth2.Config {
	return &oauth2.Config{
		ClientID:     m.clientID,
		ClientSecret: m.clientSecret,
		Endpoint: oauth2.Endpoint{
			AuthURL:   m.authorizeURL,
			TokenURL:  m.tokenURL,
			AuthStyle: oauth2.AuthStyleInParams,
		},
		RedirectURL: redirectURI,
		Scopes:      oauthwire.Scopes,
	}
}

func (m *Manager) tokenContext(ctx context.Context) context.Context {
	return context.WithValue(ctx, oauth2.HTTPClient, m.httpClient)
}

// BuildAuthorizeRequest returns the /authorize redirect for a code flow login
// with the fixed scope set.
func (m *Manager) BuildAuthorizeRequest(state, redirectURI string) AuthorizationRequest {
	if redirectURI == "" {
		redirectURI = m.redirectURI
	}
	return AuthorizationRequest{
		URL:         m.oauthConfig(redirectURI).AuthCodeURL(state),
		State:       state,
		RedirectURI: redirectURI,
	}
}

// ExchangeCode trades an authorization code for tokens. A non-2xx token
// endpoint response is an AuthExchangeError carrying its status and body.
func (m *Manager) ExchangeCode(ctx context.Context, code, redirectURI string) (*oauthwire.TokenSet, error) {
	if redirectURI == "" {
		redirectURI = m.redirectURI
	}
	token, err := m.oauthConfig(redirectURI).Exchange(m.tokenContext(ctx), code)
	if err != nil {
		return nil, exchangeError(oauthwire.AuthorizationCodeGrant, err)
	}

	tokens := tokenSetFrom(token)
	if m.verifier != nil && tokens.IDToken != "" {
		if _, err := m.verifier.Verify(ctx, tokens.IDToken); err != nil {
			return nil, errors.Wrap(err, "[ExchangeCode] id token verification failed")
		}
	}
	log.Debug().Time("expires_at", tokens.ExpiresAt).Msg("authorization code exchanged")
	return &tokens, nil
}

// Refresh obtains new tokens with the refresh token of previous. Tokens the
// provider does not rotate are carried over from previous.
func (m *Manager) Refresh(ctx context.Context, previous oauthwire.TokenSet, redirectURI string) (*oauthwire.TokenSet, error) {
	if previous.RefreshToken == "" {
		return nil, errors.Wrap(apperrors.ErrUnauthenticated, "[Refresh] no refresh token")
	}
	if redirectURI == "" {
		redirectURI = m.redirectURI
	}
	// An empty access token forces the token source to refresh.
	source := m.oauthConfig(redirectURI).TokenSource(m.tokenContext(ctx), &oauth2.Token{RefreshToken: previous.RefreshToken})
	token, err := source.Token()
	if err != nil {
		return nil, exchangeError(oauthwire.RefreshTokenGrant, err)
	}

	tokens := tokenSetFrom(token)
	if tokens.RefreshToken == "" {
		tokens.RefreshToken = previous.RefreshToken
	}
	if tokens.IDToken == "" {
		tokens.IDToken = previous.IDToken
	}
	return &tokens, nil
}

// NewSession creates an Active session for env from exchanged tokens.
func (m *Manager) NewSession(id string, env environment.Environment, tokens oauthwire.TokenSet) (*Session, error) {
	if _, err := environment.Resolve(env); err != nil {
		return nil, err
	}
	return New(id, env, tokens, m.nowFunc()), nil
}

// RefreshSession moves s through Refreshing and back to Active. When the
// provider rejects the refresh s is left RefreshFailed; the caller destroys it.
func (m *Manager) RefreshSession(ctx context.Context, s *Session) error {
	if s.State != Active {
		return errors.Wrapf(apperrors.ErrUnauthenticated, "[RefreshSession] session is %s", s.State)
	}
	s.State = Refreshing
	tokens, err := m.Refresh(ctx, s.TokenSet, m.redirectURI)
	if err != nil {
		s.State = RefreshFailed
		s.UpdatedAt = m.nowFunc()
		log.Warn().Str("session", s.ID).Err(err).Msg("token refresh failed")
		return err
	}
	s.applyRefresh(*tokens, m.nowFunc())
	log.Info().Str("session", s.ID).Time("expires_at", s.ExpiresAt).Msg("session refreshed")
	return nil
}

func tokenSetFrom(token *oauth2.Token) oauthwire.TokenSet {
	tokens := oauthwire.TokenSet{
		AccessToken:  token.AccessToken,
		RefreshToken: token.RefreshToken,
		TokenType:    token.TokenType,
		ExpiresIn:    int(token.ExpiresIn),
		ExpiresAt:    token.Expiry,
	}
	if idToken, ok := token.Extra("id_token").(string); ok {
		tokens.IDToken = idToken
	}
	return tokens
}

func exchangeError(grant oauthwire.GrantType, err error) error {
	var retrieveErr *oauth2.RetrieveError
	if errors.As(err, &retrieveErr) {
		status := 0
		if retrieveErr.Response != nil {
			status = retrieveErr.Response.StatusCode
		}
		return &apperrors.AuthExchangeError{
			GrantType: string(grant),
			Status:    status,
			Body:      string(retrieveErr.Body),
		}
	}
	return errors.Wrapf(err, "[%s] token request failed", grant)
}
