package config

const (
	clientIDVar      = "CLIENT_ID"
	clientSecretVar  = "CLIENT_SECRET"
	redirectURIVar   = "REDIRECT_URI"
	authDomainVar    = "AUTH_DOMAIN"
	bearerTokenVar   = "BEARER_TOKEN"
	verifyIDTokenVar = "VERIFY_ID_TOKEN"
)

const (
	BearerAccessToken = "access_token"
	BearerIDToken     = "id_token"
)

type OAuthConfig interface {
	GetClientID() string
	GetClientSecret() string
	GetRedirectURI() string
	GetAuthDomain() string
	GetIssuer() string
	GetAuthorizeURL() string
	GetTokenURL() string
	GetJWKSURL() string
	GetBearerToken() string
	GetVerifyIDToken() bool
}

type OAuth struct {
	clientID      string
	clientSecret  string
	redirectURI   string
	authDomain    string
	bearerToken   string
	verifyIDToken bool
}

var _ OAuthConfig = OAuth{}

func loadOAuth() OAuth {
	return OAuth{
		clientID:      GetEnv(clientIDVar, ""),
		clientSecret:  GetEnv(clientSecretVar, ""),
		redirectURI:   GetEnv(redirectURIVar, "http://localhost:8085/callback"),
		authDomain:    GetEnv(authDomainVar, "netop.auth0.com"),
		bearerToken:   GetEnv(bearerTokenVar, BearerAccessToken),
		verifyIDToken: GetEnvBool(verifyIDTokenVar, false),
	}
}

func (o OAuth) GetClientID() string {
	return o.clientID
}

func (o OAuth) GetClientSecret() string {
	return o.clientSecret
}

func (o OAuth) GetRedirectURI() string {
	return o.redirectURI
}

func (o OAuth) GetAuthDomain() string {
	return o.authDomain
}

// GetIssuer is the identity provider's issuer URL (trailing slash included, as Auth0 issues it).
func (o OAuth) GetIssuer() string {
	return "https://" + o.authDomain + "/"
}

func (o OAuth) GetAuthorizeURL() string {
	return "https://" + o.authDomain + "/authorize"
}

func (o OAuth) GetTokenURL() string {
	return "https://" + o.authDomain + "/oauth/token"
}

func (o OAuth) GetJWKSURL() string {
	return "https://" + o.authDomain + "/.well-known/jwks.json"
}

// GetBearerToken selects which token authorises partner API calls.
func (o OAuth) GetBearerToken() string {
	return o.bearerToken
}

func (o OAuth) GetVerifyIDToken() bool {
	return o.verifyIDToken
}
