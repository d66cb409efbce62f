// Package auth supplies access tokens to the API client.
//
// The store and services never manage token lifetime: they ask a [Session] for the current token on every request.
// [OAuthSession] refreshes through golang.org/x/oauth2 and persists refreshed tokens to a [TokenCache].
package auth

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/desertthunder/spotifly/internal/shared"
	spotifyauth "github.com/zmb3/spotify/v2/auth"
	"golang.org/x/oauth2"
)

// Session supplies a currently valid access token.
type Session interface {
	AccessToken(ctx context.Context) (string, error)
}

// StaticSession returns a fixed token. Used for pre-issued tokens and tests.
type StaticSession string

func (s StaticSession) AccessToken(context.Context) (string, error) {
	if s == "" {
		return "", shared.ErrNotAuthenticated
	}
	return string(s), nil
}

// Scopes requested by the login flow.
var Scopes = []string{
	spotifyauth.ScopeUserLibraryRead,
	spotifyauth.ScopeUserLibraryModify,
	spotifyauth.ScopePlaylistReadPrivate,
	spotifyauth.ScopePlaylistReadCollaborative,
	spotifyauth.ScopePlaylistModifyPublic,
	spotifyauth.ScopePlaylistModifyPrivate,
	spotifyauth.ScopeUserFollowRead,
	spotifyauth.ScopeUserTopRead,
	spotifyauth.ScopeUserReadRecentlyPlayed,
	spotifyauth.ScopeUserReadPlaybackState,
	spotifyauth.ScopeUserModifyPlaybackState,
	spotifyauth.ScopeUserReadCurrentlyPlaying,
}

// NewAuthenticator builds the authorization-code authenticator from config credentials.
func NewAuthenticator(cfg shared.SpotifyConfig) (*spotifyauth.Authenticator, error) {
	if !cfg.Configured() {
		return nil, fmt.Errorf("%w: client_id and client_secret must be set", shared.ErrMissingCredentials)
	}
	return spotifyauth.New(
		spotifyauth.WithClientID(cfg.ClientID),
		spotifyauth.WithClientSecret(cfg.ClientSecret),
		spotifyauth.WithRedirectURL(cfg.RedirectURI),
		spotifyauth.WithScopes(Scopes...),
	), nil
}

// OAuthSession serves tokens from an oauth2.TokenSource, saving each refreshed token to the cache.
type OAuthSession struct {
	mu     sync.Mutex
	source oauth2.TokenSource
	cache  *TokenCache
	last   string
}

// NewOAuthSession wraps token with a refreshing source built from config.
func NewOAuthSession(ctx context.Context, config *oauth2.Config, token *oauth2.Token, cache *TokenCache) *OAuthSession {
	return &OAuthSession{
		source: oauth2.ReuseTokenSource(token, config.TokenSource(ctx, token)),
		cache:  cache,
		last:   token.AccessToken,
	}
}

// LoadSession restores a session from the token cache.
//
// Returns [shared.ErrNotAuthenticated] when no token has been cached yet.
func LoadSession(ctx context.Context, cfg shared.SpotifyConfig, cache *TokenCache) (*OAuthSession, error) {
	token, err := cache.Load()
	if err != nil {
		return nil, err
	}
	if token == nil {
		return nil, fmt.Errorf("%w: no cached token at %s", shared.ErrNotAuthenticated, cache.Path())
	}
	return NewOAuthSession(ctx, OAuthConfig(cfg), token, cache), nil
}

// OAuthConfig returns the oauth2 configuration for the Spotify accounts service.
func OAuthConfig(cfg shared.SpotifyConfig) *oauth2.Config {
	return &oauth2.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		RedirectURL:  cfg.RedirectURI,
		Scopes:       Scopes,
		Endpoint: oauth2.Endpoint{
			AuthURL:  spotifyauth.AuthURL,
			TokenURL: spotifyauth.TokenURL,
		},
	}
}

// AccessToken returns a valid token, refreshing it when expired.
func (s *OAuthSession) AccessToken(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	token, err := s.source.Token()
	if err != nil {
		var re *oauth2.RetrieveError
		if errors.As(err, &re) {
			return "", fmt.Errorf("%w: %v", shared.ErrUnauthorized, err)
		}
		return "", fmt.Errorf("%w: %v", shared.ErrAuthFailed, err)
	}

	if token.AccessToken != s.last && s.cache != nil {
		if err := s.cache.Save(token); err != nil {
			return "", err
		}
	}
	s.last = token.AccessToken
	return token.AccessToken, nil
}
