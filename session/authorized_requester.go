package session

import (
	"context"
	"net/http"
	"sync"

	apperrors "github.com/jrsteele09/netop-connector/internal/errors"
	"github.com/jrsteele09/netop-connector/transport"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

var _ transport.Requester = (*AuthorizedRequester)(nil)

// AuthorizedRequester sends partner API calls with a session's bearer
// credential. An expired session is refreshed before the call; a 401 triggers
// one refresh and one retry of the same request.
type AuthorizedRequester struct {
	manager *Manager
	session *Session
	next    transport.Requester
	repo    Repo
	lock    sync.Mutex
}

type AuthorizedRequesterOption func(*AuthorizedRequester)

// WithSessionRepo persists refreshed sessions and deletes sessions whose
// refresh failed.
func WithSessionRepo(repo Repo) AuthorizedRequesterOption {
	return func(a *AuthorizedRequester) {
		a.repo = repo
	}
}

func NewAuthorizedRequester(manager *Manager, s *Session, next transport.Requester, options ...AuthorizedRequesterOption) *AuthorizedRequester {
	a := &AuthorizedRequester{
		manager: manager,
		session: s,
		next:    next,
	}
	for _, opt := range options {
		opt(a)
	}
	return a
}

// Session returns the session the requester authorizes with.
func (a *AuthorizedRequester) Session() *Session {
	return a.session
}

func (a *AuthorizedRequester) Do(ctx context.Context, req transport.Request) (*transport.Response, error) {
	bearer, err := a.bearer(ctx)
	if err != nil {
		return nil, err
	}

	resp, err := a.next.Do(ctx, req.WithHeader("Authorization", "Bearer "+bearer))
	if err != nil || resp.Status != http.StatusUnauthorized {
		return resp, err
	}

	log.Debug().Str("url", req.URL).Msg("bearer rejected, refreshing session")
	bearer, err = a.refresh(ctx, bearer)
	if err != nil {
		return nil, err
	}
	return a.next.Do(ctx, req.WithHeader("Authorization", "Bearer "+bearer))
}

func (a *AuthorizedRequester) bearer(ctx context.Context) (string, error) {
	a.lock.Lock()
	s := a.session
	kind := a.manager.BearerKind()
	state, expired, bearer := s.State, s.Expired(kind, a.manager.nowFunc()), s.Bearer(kind)
	a.lock.Unlock()

	if state != Active {
		return "", errors.Wrapf(apperrors.ErrUnauthenticated, "[AuthorizedRequester] session %s is %s", s.ID, state)
	}
	if !expired {
		return bearer, nil
	}
	return a.refresh(ctx, bearer)
}

// refresh renews the session unless another call already replaced the
// rejected bearer, and returns the bearer to use from now on.
func (a *AuthorizedRequester) refresh(ctx context.Context, rejected string) (string, error) {
	a.lock.Lock()
	defer a.lock.Unlock()

	s := a.session
	kind := a.manager.BearerKind()
	if current := s.Bearer(kind); s.State == Active && current != rejected {
		return current, nil
	}
	if err := a.manager.RefreshSession(ctx, s); err != nil {
		s.Invalidate(a.manager.nowFunc())
		if a.repo != nil {
			if delErr := a.repo.Delete(s.ID); delErr != nil {
				log.Error().Str("session", s.ID).Err(delErr).Msg("failed to delete session")
			}
		}
		return "", err
	}
	if a.repo != nil {
		if err := a.repo.Upsert(s); err != nil {
			return "", errors.Wrap(err, "[AuthorizedRequester] persisting refreshed session")
		}
	}
	return s.Bearer(kind), nil
}
