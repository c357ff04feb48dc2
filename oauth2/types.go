package oauth2

import (
	"strings"

	"github.com/coreos/go-oidc/v3/oidc"
)

// ResponseType represents the OAuth 2.0 response type requested at the authorize endpoint.
type ResponseType string

const (
	// CodeResponseType indicates the authorization code flow.
	// The identity provider redirects back with ?code=...&state=...
	CodeResponseType ResponseType = "code"
)

// GrantType represents the OAuth 2.0 grant type used at the token endpoint.
type GrantType string

const (
	// AuthorizationCodeGrant exchanges an authorization code for tokens.
	// Token request includes: code, redirect_uri, client_id, client_secret
	AuthorizationCodeGrant GrantType = "authorization_code"

	// RefreshTokenGrant exchanges a refresh token for a new access token.
	// Token request includes: refresh_token, client_id, client_secret
	RefreshTokenGrant GrantType = "refresh_token"
)

// Scopes is the fixed scope set requested from the identity provider.
// offline_access is what makes the provider issue a refresh token.
var Scopes = []string{oidc.ScopeOpenID, "profile", "email", oidc.ScopeOfflineAccess}

// ScopeString returns Scopes space separated, as sent on the wire.
func ScopeString() string {
	return strings.Join(Scopes, " ")
}
