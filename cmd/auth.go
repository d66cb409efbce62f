package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/desertthunder/spotifly/internal/auth"
	"github.com/desertthunder/spotifly/internal/formatter"
	"github.com/desertthunder/spotifly/internal/server"
	"github.com/desertthunder/spotifly/internal/shared"
	"github.com/urfave/cli/v3"
	"golang.org/x/oauth2"
)

// AuthLogin runs the authorization-code flow with PKCE through a local callback server and caches the token.
func (r *Runner) AuthLogin(ctx context.Context, cmd *cli.Command) error {
	authenticator, err := auth.NewAuthenticator(r.config.Credentials.Spotify)
	if err != nil {
		return err
	}
	cache, err := r.tokenCache()
	if err != nil {
		return err
	}

	state, err := shared.GenerateState()
	if err != nil {
		return err
	}
	verifier := oauth2.GenerateVerifier()
	handler := server.NewOAuthHandler(authenticator, state, oauth2.VerifierOption(verifier))

	addr := net.JoinHostPort(r.config.Server.Host, strconv.Itoa(r.config.Server.Port))
	srv, err := server.ListenCallback(addr, handler, r.logger)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, cmd.Duration("timeout"))
	defer cancel()

	served := make(chan error, 1)
	go func() { served <- srv.Serve(ctx) }()

	url := authenticator.AuthURL(state, oauth2.S256ChallengeOption(verifier))
	opened, err := shared.PresentURL(r.output, url, !cmd.Bool("no-browser"), r.openBrowser)
	switch {
	case opened:
		r.writePlain("%s\n", formatter.Muted("Waiting for the browser to finish signing in..."))
	case err != nil:
		r.logger.Warn("could not open browser", "error", err)
	}

	var result server.OAuthResult
	select {
	case result = <-handler.Result():
	case <-ctx.Done():
	}
	cancel()
	if err := <-served; err != nil {
		r.logger.Warn("callback server stopped with error", "error", err)
	}

	if result.Token == nil {
		if err := result.Error(); err != nil {
			return err
		}
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return fmt.Errorf("%w: no callback within %s", shared.ErrTimeout, cmd.Duration("timeout"))
		}
		return ctx.Err()
	}

	if err := cache.Save(result.Token); err != nil {
		return err
	}
	r.logger.Info("token cached", "path", cache.Path())
	return r.writePlain("%s\n", formatter.OK("✓ Signed in to Spotify"))
}

type authStatus struct {
	Authenticated bool      `json:"authenticated"`
	UserID        string    `json:"user_id,omitempty"`
	TokenPath     string    `json:"token_path"`
	Expiry        time.Time `json:"expiry,omitzero"`
	Error         string    `json:"error,omitempty"`
}

// AuthStatus reports whether a token is cached and still accepted by the API.
func (r *Runner) AuthStatus(ctx context.Context, cmd *cli.Command) error {
	cache, err := r.tokenCache()
	if err != nil {
		return err
	}
	status := authStatus{TokenPath: cache.Path()}

	token, err := cache.Load()
	if err != nil {
		return err
	}
	if token != nil || r.client != nil {
		if token != nil {
			status.Expiry = token.Expiry
		}
		client, err := r.apiClient(ctx)
		if err == nil {
			status.UserID, err = client.CurrentUserID(ctx)
		}
		if err != nil {
			status.Error = err.Error()
		} else {
			status.Authenticated = true
		}
	}

	if r.structured(cmd) {
		return r.writeJSON(status, cmd.Bool("pretty"))
	}
	switch {
	case status.Authenticated:
		r.writePlain("%s\n", formatter.OK("✓ Signed in as "+status.UserID))
	case status.Error != "":
		r.writePlain("%s\n", formatter.Err("✗ Cached token rejected: "+status.Error))
	default:
		r.writePlain("%s\n", formatter.Err("✗ Not signed in"))
	}
	if !status.Expiry.IsZero() {
		r.writePlain("Token expiry: %s\n", status.Expiry.Local().Format(time.RFC1123))
	}
	return r.writePlain("Token cache: %s\n", status.TokenPath)
}

// AuthLogout deletes the cached token.
func (r *Runner) AuthLogout(ctx context.Context, cmd *cli.Command) error {
	cache, err := r.tokenCache()
	if err != nil {
		return err
	}
	if err := cache.Delete(); err != nil {
		return err
	}
	return r.writePlain("%s\n", formatter.OK("✓ Signed out"))
}
