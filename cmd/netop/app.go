package main

import (
	"context"

	"github.com/jrsteele09/netop-connector/environment"
	"github.com/jrsteele09/netop-connector/internal/config"
	"github.com/jrsteele09/netop-connector/internal/logging"
	"github.com/jrsteele09/netop-connector/session"
	"github.com/jrsteele09/netop-connector/session/filerepo"
	"github.com/jrsteele09/netop-connector/transport"
	"github.com/jrsteele09/netop-connector/upsert"
	"github.com/pkg/errors"
)

const defaultSessionID = "default"

// app holds what every command needs, built once from the process environment.
type app struct {
	cfg       config.Config
	env       environment.Environment
	manager   *session.Manager
	repo      session.Repo
	requester transport.Requester
	sessionID string
}

func newApp(ctx context.Context, sessionID string) (*app, error) {
	cfg := config.New()
	if err := logging.Setup(cfg.GetLogLevel(), cfg.GetLogPretty()); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	env, err := environment.Parse(cfg.GetEnvironment())
	if err != nil {
		return nil, err
	}

	key := cfg.GetSessionKey()
	if key == "" {
		key = cfg.GetClientSecret()
	}
	repo, err := filerepo.New(cfg.GetSessionFile(), key)
	if err != nil {
		return nil, err
	}

	requester := transport.NewHTTPRequester(cfg.GetRequestTimeout(), transport.WithUserAgent(cfg.GetAppName()))
	options := []session.ManagerOption{session.WithRequester(requester)}
	if cfg.GetVerifyIDToken() {
		options = append(options, session.WithIDTokenVerifier(session.NewRemoteVerifier(ctx, cfg)))
	}
	manager, err := session.NewManager(cfg, options...)
	if err != nil {
		return nil, err
	}

	return &app{
		cfg:       cfg,
		env:       env,
		manager:   manager,
		repo:      repo,
		requester: requester,
		sessionID: sessionID,
	}, nil
}

// loadSession returns the persisted session for this invocation.
func (a *app) loadSession() (*session.Session, error) {
	s, err := a.repo.Get(a.sessionID)
	if err != nil {
		return nil, errors.Wrap(err, "not logged in, run netop login")
	}
	return s, nil
}

// reconciler returns an upsert.Reconciler authorised by the stored session in
// the session's own environment.
func (a *app) reconciler() (*upsert.Reconciler, error) {
	s, err := a.loadSession()
	if err != nil {
		return nil, err
	}
	baseURL, err := environment.BaseURL(s.Environment)
	if err != nil {
		return nil, err
	}
	authorized := session.NewAuthorizedRequester(a.manager, s, a.requester, session.WithSessionRepo(a.repo))
	return upsert.NewReconciler(authorized, baseURL), nil
}
