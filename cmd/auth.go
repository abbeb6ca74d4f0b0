package main

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/desertthunder/xbr/internal/models"
	"github.com/desertthunder/xbr/internal/server"
	"github.com/desertthunder/xbr/internal/shared"
	"github.com/urfave/cli/v3"
)

// AuthLogin signs in to Xbox Live and persists the resulting token artifact.
//
// The device code flow is the default; --browser runs the authorization-code
// flow with a local callback server instead.
func (r *Runner) AuthLogin(ctx context.Context, cmd *cli.Command) error {
	auth, err := r.authService()
	if err != nil {
		return err
	}

	var artifact *models.TokenArtifact
	if cmd.Bool("browser") {
		artifact, err = r.browserLogin(ctx)
	} else {
		artifact, err = auth.DeviceFlow(ctx, r.devicePrompt())
	}
	if err != nil {
		return err
	}

	r.logger.Info("authentication successful", "gamertag", artifact.Gamertag)

	r.writePlain("✓ Signed in as %s\n", artifact.Gamertag)
	r.writePlain("XUID: %s\n", artifact.XUID)
	r.writePlain("Session valid until: %s\n", artifact.ExpiresAt.Local().Format("2006-01-02 15:04:05"))
	return nil
}

// browserLogin runs the authorization-code flow: a local callback server
// receives the code while the system browser shows the Microsoft sign-in
// page. The Xbox user/XSTS exchanges follow once the OAuth leg completes.
func (r *Runner) browserLogin(ctx context.Context) (*models.TokenArtifact, error) {
	auth, err := r.authService()
	if err != nil {
		return nil, err
	}

	state, err := shared.GenerateState()
	if err != nil {
		return nil, fmt.Errorf("failed to generate state token: %w", err)
	}

	handler := server.NewOAuthHandler(auth.GetOAuthConfig(), state)
	router := server.NewBasicRouter()
	router.Handler(handler)

	addr := fmt.Sprintf("%s:%d", r.config.Server.Host, r.config.Server.Port)
	srv := &http.Server{Addr: addr, Handler: router}
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			r.logger.Error("callback server error", "error", err)
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	authURL := auth.GetAuthURL(state)
	r.writePlain("Opening browser for Xbox Live sign-in...\n")
	if err := shared.OpenBrowser(authURL); err != nil {
		r.logger.Warn("failed to open browser", "error", err)
		r.writePlain("Open this URL to sign in:\n\n  %s\n\n", authURL)
	}

	var result server.OAuthResult
	select {
	case result = <-handler.Result():
	case <-ctx.Done():
		return nil, fmt.Errorf("%w: sign-in cancelled", shared.ErrTimeout)
	}
	if err := result.Error(); err != nil {
		return nil, err
	}

	artifact, err := auth.BuildArtifact(ctx, result.Token)
	if err != nil {
		return nil, err
	}

	if err := r.tokenStore().Save(artifact); err != nil {
		return nil, fmt.Errorf("failed to save tokens: %w", err)
	}
	return artifact, nil
}

// AuthStatus shows the current authentication state from the token store.
func (r *Runner) AuthStatus(ctx context.Context, cmd *cli.Command) error {
	store := r.tokenStore()

	artifact, err := store.Load()
	if err != nil {
		r.writePlain("✗ Not authenticated\n")
		r.writePlain("Run 'xbr auth login' to sign in.\n")
		return nil
	}

	if artifact.Expired() {
		r.writePlain("✗ Session expired for %s\n", artifact.Gamertag)
		if artifact.RefreshToken != "" {
			r.writePlain("The session will be refreshed automatically on the next command.\n")
		} else {
			r.writePlain("Run 'xbr auth login' to sign in again.\n")
		}
		return nil
	}

	r.writePlain("✓ Signed in as %s\n", artifact.Gamertag)
	r.writePlain("XUID: %s\n", artifact.XUID)
	r.writePlain("Session valid until: %s\n", artifact.ExpiresAt.Local().Format("2006-01-02 15:04:05"))
	return nil
}
