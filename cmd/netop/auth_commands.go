package main

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"time"

	"github.com/common-nighthawk/go-figure"
	"github.com/google/uuid"
	"github.com/jrsteele09/netop-connector/environment"
	"github.com/jrsteele09/netop-connector/session"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

type LoginOptions struct {
	Environment string
	Timeout     time.Duration
}

func NewCmdLogin(root *rootOptions) *cobra.Command {
	o := &LoginOptions{}
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Authorize the connector against NetOp and store the session.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return o.Run(cmd.Context(), root.app, cmd.OutOrStdout(), cmd.ErrOrStderr())
		},
	}
	cmd.Flags().StringVar(&o.Environment, "env", "", "NetOp environment (production or staging). Defaults to NETOP_ENV.")
	cmd.Flags().DurationVar(&o.Timeout, "timeout", 5*time.Minute, "How long to wait for the browser redirect.")
	return cmd
}

func (o *LoginOptions) Run(ctx context.Context, a *app, out, errOut io.Writer) error {
	env := a.env
	if o.Environment != "" {
		parsed, err := environment.Parse(o.Environment)
		if err != nil {
			return err
		}
		env = parsed
	}
	displayAppname(errOut, a.cfg.GetAppName())

	redirectURI := a.cfg.GetRedirectURI()
	state := uuid.New().String()
	code, err := awaitAuthorizationCode(ctx, redirectURI, state, o.Timeout, func() {
		req := a.manager.BuildAuthorizeRequest(state, redirectURI)
		fmt.Fprintf(errOut, "Open this URL to authorize the connector:\n\n  %s\n\n", req.URL)
	})
	if err != nil {
		return err
	}

	tokens, err := a.manager.ExchangeCode(ctx, code, redirectURI)
	if err != nil {
		return err
	}
	s, err := a.manager.NewSession(a.sessionID, env, *tokens)
	if err != nil {
		return err
	}
	identity, err := a.manager.TestSession(ctx, s)
	if err != nil {
		return errors.Wrap(err, "session check failed")
	}
	if err := a.repo.Upsert(s); err != nil {
		return err
	}
	return printJSON(out, identity)
}

// awaitAuthorizationCode serves the redirect URI locally until the identity
// provider delivers a code. prompt runs once the listener is up.
func awaitAuthorizationCode(ctx context.Context, redirectURI, state string, timeout time.Duration, prompt func()) (string, error) {
	u, err := url.Parse(redirectURI)
	if err != nil {
		return "", errors.Wrapf(err, "redirect uri %q", redirectURI)
	}
	listener, err := net.Listen("tcp", u.Host)
	if err != nil {
		return "", errors.Wrapf(err, "listening on %s", u.Host)
	}

	results := make(chan session.CallbackResult, 1)
	mux := http.NewServeMux()
	mux.Handle(u.Path, session.CallbackHandler(state, results))
	server := &http.Server{Handler: mux, ReadHeaderTimeout: 10 * time.Second}
	go func() {
		if err := server.Serve(listener); err != nil && err != http.ErrServerClosed {
			log.Err(err).Msg("callback server stopped")
		}
	}()
	defer shutdown(server)

	prompt()

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	select {
	case result := <-results:
		return result.Code, result.Err
	case <-ctx.Done():
		return "", errors.Wrap(ctx.Err(), "waiting for authorization")
	}
}

func shutdown(server *http.Server) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Err(err).Msg("callback server shutdown")
	}
}

func displayAppname(w io.Writer, appname string) {
	myFigure := figure.NewFigure(appname, "cybermedium", true)
	fmt.Fprintln(w, myFigure.String())
}

func NewCmdLogout(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Destroy the stored session.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return root.app.repo.Delete(root.app.sessionID)
		},
	}
}

func NewCmdWhoami(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Check the stored session and show the resource it acts as.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a := root.app
			s, err := a.loadSession()
			if err != nil {
				return err
			}
			identity, err := a.manager.TestSession(cmd.Context(), s)
			if err != nil {
				if s.State == session.Unauthenticated {
					_ = a.repo.Delete(s.ID)
				}
				return err
			}
			if err := a.repo.Upsert(s); err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), identity)
		},
	}
}

func NewCmdRefresh(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "refresh",
		Short: "Refresh the stored session's tokens.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a := root.app
			s, err := a.loadSession()
			if err != nil {
				return err
			}
			if err := a.manager.RefreshSession(cmd.Context(), s); err != nil {
				s.Invalidate(time.Now())
				_ = a.repo.Delete(s.ID)
				return err
			}
			if err := a.repo.Upsert(s); err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), map[string]any{
				"session":    s.ID,
				"state":      s.State,
				"expires_at": s.ExpiresAt,
			})
		},
	}
}
