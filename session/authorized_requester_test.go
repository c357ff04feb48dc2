package session_test

import (
	"context"
	"net/http"
	"sync"
	"testing"
	"time"

	apperrors "github.com/jrsteele09/netop-connector/internal/errors"
	"github.com/jrsteele09/netop-connector/session"
	"github.com/jrsteele09/netop-connector/session/repofake"
	"github.com/jrsteele09/netop-connector/transport"
	"github.com/jrsteele09/netop-connector/transport/transportfake"
	"github.com/stretchr/testify/require"
)

const accessURL = testBaseURL + "/1.0/globalInfo/access"

// byBearer answers 200 for the accepted bearer and 401 otherwise.
func byBearer(accepted string) transportfake.Responder {
	return func(req transport.Request) (*transport.Response, error) {
		if req.Headers["Authorization"] == "Bearer "+accepted {
			return transportfake.Respond(req, http.StatusOK, `{"roleType":"Organization","resourceId":7}`), nil
		}
		return transportfake.Respond(req, http.StatusUnauthorized, `{"message":"Unauthorized"}`), nil
	}
}

func TestAuthorizedRequester_InjectsBearer(t *testing.T) {
	fake := transportfake.NewFakeRequester().On(http.MethodGet, accessURL, byBearer("at-1"))
	ts := newTokenServer(t, refreshedTokens("unused"))
	m := newManager(t, ts, nil)

	r := session.NewAuthorizedRequester(m, activeSession("at-1", "rt-1"), fake)
	resp, err := r.Do(context.Background(), transport.Request{URL: accessURL, Method: http.MethodGet})
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.Status)
	require.Empty(t, ts.Forms(), "no refresh for a valid bearer")
	require.Len(t, fake.Calls(), 1)
}

func TestAuthorizedRequester_RefreshesOnceOn401AndRetries(t *testing.T) {
	fake := transportfake.NewFakeRequester().On(http.MethodGet, accessURL, byBearer("at-2"))
	ts := newTokenServer(t, refreshedTokens("at-2"))
	repo := repofake.NewFakeSessionRepo()
	m := newManager(t, ts, nil)
	s := activeSession("at-1", "rt-1")

	r := session.NewAuthorizedRequester(m, s, fake, session.WithSessionRepo(repo))
	resp, err := r.Do(context.Background(), transport.Request{URL: accessURL, Method: http.MethodGet})
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.Status)

	calls := fake.Calls()
	require.Len(t, calls, 2)
	require.Equal(t, "Bearer at-1", calls[0].Headers["Authorization"])
	require.Equal(t, "Bearer at-2", calls[1].Headers["Authorization"])
	require.Len(t, ts.Forms(), 1)

	stored, err := repo.Get(s.ID)
	require.NoError(t, err)
	require.Equal(t, "at-2", stored.AccessToken)
	require.Equal(t, session.Active, stored.State)
}

func TestAuthorizedRequester_ConcurrentRejectionsShareOneRefresh(t *testing.T) {
	fake := transportfake.NewFakeRequester().On(http.MethodGet, accessURL, byBearer("at-2"))
	ts := newTokenServer(t, refreshedTokens("at-2"))
	m := newManager(t, ts, nil)
	s := activeSession("at-1", "rt-1")
	r := session.NewAuthorizedRequester(m, s, fake)

	const workers = 8
	statuses := make([]int, workers)
	errs := make([]error, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			resp, err := r.Do(context.Background(), transport.Request{URL: accessURL, Method: http.MethodGet})
			errs[i] = err
			if resp != nil {
				statuses[i] = resp.Status
			}
		}(i)
	}
	wg.Wait()

	for i := 0; i < workers; i++ {
		require.NoError(t, errs[i])
		require.Equal(t, http.StatusOK, statuses[i])
	}
	require.Len(t, ts.Forms(), 1, "callers rejected with the same bearer share one refresh")

	for _, call := range fake.Calls() {
		if call.Headers["Authorization"] != "Bearer at-1" {
			require.Equal(t, "Bearer at-2", call.Headers["Authorization"])
		}
	}
}

func TestAuthorizedRequester_SecondRejectionIsReturned(t *testing.T) {
	fake := transportfake.NewFakeRequester().On(http.MethodGet, accessURL, byBearer("never"))
	ts := newTokenServer(t, refreshedTokens("at-2"))
	m := newManager(t, ts, nil)

	r := session.NewAuthorizedRequester(m, activeSession("at-1", "rt-1"), fake)
	resp, err := r.Do(context.Background(), transport.Request{URL: accessURL, Method: http.MethodGet})
	require.NoError(t, err)
	require.Equal(t, http.StatusUnauthorized, resp.Status)
	require.Len(t, fake.Calls(), 2, "the request is retried exactly once")
	require.Len(t, ts.Forms(), 1, "the session is refreshed exactly once")
}

func TestAuthorizedRequester_FailedRefreshDestroysSession(t *testing.T) {
	fake := transportfake.NewFakeRequester().On(http.MethodGet, accessURL, byBearer("never"))
	ts := newTokenServer(t, rejectGrant)
	repo := repofake.NewFakeSessionRepo()
	m := newManager(t, ts, nil)
	s := activeSession("at-1", "rt-1")
	require.NoError(t, repo.Upsert(s))

	r := session.NewAuthorizedRequester(m, s, fake, session.WithSessionRepo(repo))
	_, err := r.Do(context.Background(), transport.Request{URL: accessURL, Method: http.MethodGet})
	require.ErrorIs(t, err, apperrors.ErrAuthExchange)
	require.Equal(t, session.Unauthenticated, s.State)

	_, err = repo.Get(s.ID)
	require.ErrorIs(t, err, apperrors.ErrSessionNotFound)

	_, err = r.Do(context.Background(), transport.Request{URL: accessURL, Method: http.MethodGet})
	require.ErrorIs(t, err, apperrors.ErrUnauthenticated)
	require.Len(t, fake.Calls(), 1)
}

func TestAuthorizedRequester_RefreshesExpiredSessionFirst(t *testing.T) {
	fake := transportfake.NewFakeRequester().On(http.MethodGet, accessURL, byBearer("at-2"))
	ts := newTokenServer(t, refreshedTokens("at-2"))
	m := newManager(t, ts, nil)
	s := activeSession("at-1", "rt-1")
	s.ExpiresAt = testNow.Add(-time.Minute)

	r := session.NewAuthorizedRequester(m, s, fake)
	resp, err := r.Do(context.Background(), transport.Request{URL: accessURL, Method: http.MethodGet})
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.Status)

	calls := fake.Calls()
	require.Len(t, calls, 1)
	require.Equal(t, "Bearer at-2", calls[0].Headers["Authorization"])
}

func TestAuthorizedRequester_UsesIDTokenWhenConfigured(t *testing.T) {
	fake := transportfake.NewFakeRequester().On(http.MethodGet, accessURL, byBearer("it-1"))
	cfg := oauthConfig{authorizeURL: "https://netop.auth.test/authorize", bearer: "id_token"}
	m, err := session.NewManager(cfg, session.WithNowFunc(func() time.Time { return testNow }))
	require.NoError(t, err)

	s := activeSession("at-1", "rt-1")
	s.IDToken = "it-1"

	resp, err := session.NewAuthorizedRequester(m, s, fake).Do(context.Background(), transport.Request{URL: accessURL, Method: http.MethodGet})
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.Status)
}
