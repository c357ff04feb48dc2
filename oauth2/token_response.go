package oauth2

import "time"

// TokenSet is the identity provider's token endpoint response for both the
// authorization_code and refresh_token grants.
type TokenSet struct {
	// AccessToken authorises partner API calls: "Authorization: Bearer <access_token>".
	AccessToken string `json:"access_token"`

	// RefreshToken is long-lived and is only issued when offline_access was granted.
	// Refresh responses may omit it, in which case the previous one stays valid.
	RefreshToken string `json:"refresh_token,omitempty"`

	// IDToken is the OpenID Connect identity token (present because openid is requested).
	IDToken string `json:"id_token,omitempty"`

	// TokenType is "Bearer".
	TokenType string `json:"token_type,omitempty"`

	// ExpiresIn is the access token lifetime in seconds.
	ExpiresIn int `json:"expires_in,omitempty"`

	// ExpiresAt is ExpiresIn resolved against the time the response was received.
	// Zero means the provider did not say.
	ExpiresAt time.Time `json:"expires_at,omitempty"`
}
