package main

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/desertthunder/genrefy/internal/server"
	"github.com/desertthunder/genrefy/internal/services"
	"github.com/desertthunder/genrefy/internal/shared"
	"github.com/urfave/cli/v3"
	"golang.org/x/oauth2"
)

const authTimeout = 2 * time.Minute

// Auth performs the OAuth2 authorization code flow for Spotify.
//
// Starts a local HTTP server, opens the browser for user authorization, exchanges the code for
// tokens and saves the refresh token to the config file.
func (r *Runner) Auth(ctx context.Context, cmd *cli.Command) error {
	configPath := cmd.String("config")

	config, err := r.loadConfig(cmd)
	if err != nil {
		return err
	}

	credentials := config.Credentials.Spotify.Map()
	spotifyService, err := services.NewSpotifyService(credentials)
	if err != nil {
		return fmt.Errorf("%w: set client_id and client_secret in %s", err, configPath)
	}

	token, err := r.doOAuth(ctx, config, spotifyService.GetAuthURL, r.exchangeFunc(credentials), !cmd.Bool("no-browser"))
	if err != nil {
		return err
	}

	if token.RefreshToken == "" {
		return fmt.Errorf("%w: Spotify did not return a refresh token", shared.ErrAuthRequired)
	}

	config.Credentials.Spotify.RefreshToken = token.RefreshToken
	if err := shared.SaveConfig(configPath, config); err != nil {
		return fmt.Errorf("failed to save config: %w", err)
	}

	r.writePlainln("✓ Authorization successful")
	r.writePlain("✓ Refresh token saved to %s\n\n", configPath)
	r.writePlain("You can now use: genrefy genres <playlist>\n")

	return nil
}

// exchangeFunc trades an authorization code for a token with a fresh Spotify client.
func (r *Runner) exchangeFunc(credentials map[string]string) server.ExchangeFunc {
	return func(ctx context.Context, code string) (*oauth2.Token, error) {
		svc, err := services.NewSpotifyService(credentials)
		if err != nil {
			return nil, err
		}
		svc.WithHTTPClient(r.httpClient)

		if err := svc.Authenticate(ctx, map[string]string{"auth_code": code}); err != nil {
			return nil, err
		}
		return svc.Token(), nil
	}
}

func (r *Runner) doOAuth(ctx context.Context, config *shared.Config, authURL func(state string) string, exchange server.ExchangeFunc, openBrowser bool) (*oauth2.Token, error) {
	state, err := shared.GenerateState()
	if err != nil {
		return nil, fmt.Errorf("failed to generate state token: %w", err)
	}

	url := authURL(state)
	oauthHandler := server.NewOAuthHandler(exchange, state)
	router := server.NewBasicRouter()
	router.Handler(oauthHandler)

	serverAddr := config.Server.Addr()
	httpServer := &http.Server{
		Addr:              serverAddr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErrors := make(chan error, 1)
	go func() {
		r.logger.Infof("starting OAuth callback server at %v", serverAddr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrors <- err
		}
	}()

	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			r.logger.Warn("error shutting down server", "error", err)
		}
	}()

	if openBrowser {
		r.writePlain("→ Opening browser for Spotify authorization...\n")
		if err := shared.OpenBrowser(url); err != nil {
			r.logger.Warnf("failed to open browser automatically %v", err)
			r.writePlainln("⚠ Could not open browser automatically.")
			openBrowser = false
		}
	}
	if !openBrowser {
		r.writePlain("Please open this URL in your browser:\n%s\n\n", url)
	}

	r.writePlain("→ Waiting for authorization (%v timeout)...\n", authTimeout)

	timeout := time.NewTimer(authTimeout)
	defer timeout.Stop()

	var result server.OAuthResult

	select {
	case result = <-oauthHandler.Result():
	case err := <-serverErrors:
		return nil, fmt.Errorf("server error: %w", err)
	case <-timeout.C:
		return nil, fmt.Errorf("%w: authorization timed out after %v", shared.ErrTimeout, authTimeout)
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	if result.Error() != nil {
		return nil, fmt.Errorf("authorization failed: %w", result.Error())
	}

	if result.Token == nil {
		return nil, fmt.Errorf("%w: no token received", shared.ErrAuthRequired)
	}

	return result.Token, nil
}
