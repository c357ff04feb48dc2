package session_test

import (
	"crypto/rand"
	"crypto/rsa"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/jrsteele09/netop-connector/environment"
	"github.com/jrsteele09/netop-connector/internal/config"
	oauthwire "github.com/jrsteele09/netop-connector/oauth2"
	"github.com/jrsteele09/netop-connector/session"
	"github.com/jrsteele09/netop-connector/transport"
	"github.com/stretchr/testify/require"
)

const (
	testClientID     = "netop-client"
	testClientSecret = "netop-secret"
	testRedirectURI  = "http://localhost:8085/callback"
	testIssuer       = "https://netop.auth.test/"
	testBaseURL      = "https://netop.test"
)

var testNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

// oauthConfig is a fixed config.OAuthConfig pointing at a local token server.
type oauthConfig struct {
	authorizeURL string
	tokenURL     string
	bearer       string
}

var _ config.OAuthConfig = oauthConfig{}

func (c oauthConfig) GetClientID() string     { return testClientID }
func (c oauthConfig) GetClientSecret() string { return testClientSecret }
func (c oauthConfig) GetRedirectURI() string  { return testRedirectURI }
func (c oauthConfig) GetAuthDomain() string   { return "netop.auth.test" }
func (c oauthConfig) GetIssuer() string       { return testIssuer }
func (c oauthConfig) GetAuthorizeURL() string { return c.authorizeURL }
func (c oauthConfig) GetTokenURL() string     { return c.tokenURL }
func (c oauthConfig) GetJWKSURL() string      { return testIssuer + ".well-known/jwks.json" }
func (c oauthConfig) GetVerifyIDToken() bool  { return false }
func (c oauthConfig) GetBearerToken() string {
	if c.bearer == "" {
		return config.BearerAccessToken
	}
	return c.bearer
}

// tokenServer is a stand-in token endpoint. Each request's form is recorded and
// passed to reply.
type tokenServer struct {
	*httptest.Server
	lock  sync.Mutex
	forms []url.Values
}

func newTokenServer(t *testing.T, reply func(form url.Values) (int, string)) *tokenServer {
	t.Helper()
	ts := &tokenServer{}
	ts.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = r.ParseForm()
		ts.lock.Lock()
		ts.forms = append(ts.forms, r.PostForm)
		ts.lock.Unlock()

		status, body := reply(r.PostForm)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(ts.Close)
	return ts
}

func (ts *tokenServer) Forms() []url.Values {
	ts.lock.Lock()
	defer ts.lock.Unlock()
	return append([]url.Values(nil), ts.forms...)
}

func refreshedTokens(accessToken string) func(url.Values) (int, string) {
	return func(url.Values) (int, string) {
		return http.StatusOK, `{"access_token":"` + accessToken + `","token_type":"Bearer","expires_in":3600}`
	}
}

func rejectGrant(url.Values) (int, string) {
	return http.StatusForbidden, `{"error":"invalid_grant","error_description":"Unknown or invalid refresh token."}`
}

func newManager(t *testing.T, ts *tokenServer, requester transport.Requester, options ...session.ManagerOption) *session.Manager {
	t.Helper()
	cfg := oauthConfig{authorizeURL: "https://netop.auth.test/authorize"}
	if ts != nil {
		cfg.tokenURL = ts.URL + "/oauth/token"
	}
	options = append([]session.ManagerOption{
		session.WithNowFunc(func() time.Time { return testNow }),
		session.WithBaseURLResolver(func(environment.Environment) (string, error) { return testBaseURL, nil }),
	}, options...)
	if requester != nil {
		options = append(options, session.WithRequester(requester))
	}
	m, err := session.NewManager(cfg, options...)
	require.NoError(t, err)
	return m
}

func activeSession(accessToken, refreshToken string) *session.Session {
	return session.New("session-1", environment.Staging, oauthTokens(accessToken, refreshToken, testNow.Add(time.Hour)), testNow)
}

func oauthTokens(accessToken, refreshToken string, expiresAt time.Time) oauthwire.TokenSet {
	return oauthwire.TokenSet{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		TokenType:    "Bearer",
		ExpiresIn:    int(expiresAt.Sub(testNow).Seconds()),
		ExpiresAt:    expiresAt,
	}
}

func signIDToken(t *testing.T, key *rsa.PrivateKey, claims jwt.MapClaims) string {
	t.Helper()
	raw, err := jwt.NewWithClaims(jwt.SigningMethodRS256, claims).SignedString(key)
	require.NoError(t, err)
	return raw
}

func newRSAKey(t *testing.T) *rsa.PrivateKey {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	return key
}
