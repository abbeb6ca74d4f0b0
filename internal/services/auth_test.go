package services

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/desertthunder/xbr/internal/shared"
	"golang.org/x/oauth2"
)

func testCredentials() shared.XboxConfig {
	return shared.XboxConfig{
		ClientID:     "client-id",
		ClientSecret: "client-secret",
		RedirectURI:  "http://localhost:8080/auth/callback",
	}
}

func newTestAuthService(t *testing.T, store TokenStore) *XboxAuthService {
	t.Helper()
	svc, err := NewXboxAuthService(testCredentials(), store)
	if err != nil {
		t.Fatalf("NewXboxAuthService failed: %v", err)
	}
	return svc
}

// xblTokenBody builds the response shape the user and XSTS endpoints share.
func xblTokenBody(token string, claims map[string]string) map[string]any {
	return map[string]any{
		"IssueInstant":  time.Now().UTC().Format(time.RFC3339),
		"NotAfter":      time.Now().Add(8 * time.Hour).UTC().Format(time.RFC3339),
		"Token":         token,
		"DisplayClaims": map[string]any{"xui": []map[string]string{claims}},
	}
}

func TestNewXboxAuthService(t *testing.T) {
	t.Run("rejects missing credentials", func(t *testing.T) {
		_, err := NewXboxAuthService(shared.XboxConfig{}, NewFileTokenStore(t.TempDir()))
		if !errors.Is(err, shared.ErrMissingCredentials) {
			t.Errorf("expected ErrMissingCredentials, got %v", err)
		}
	})

	t.Run("defaults the redirect URI", func(t *testing.T) {
		creds := testCredentials()
		creds.RedirectURI = ""
		svc, err := NewXboxAuthService(creds, NewFileTokenStore(t.TempDir()))
		if err != nil {
			t.Fatalf("NewXboxAuthService failed: %v", err)
		}
		if svc.config.RedirectURL == "" {
			t.Error("expected a default redirect URL")
		}
	})
}

func TestExchangeUserToken(t *testing.T) {
	t.Run("sends the RPS ticket and returns the token", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var payload struct {
				RelyingParty string `json:"RelyingParty"`
				Properties   struct {
					AuthMethod string `json:"AuthMethod"`
					RpsTicket  string `json:"RpsTicket"`
				} `json:"Properties"`
			}
			if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
				t.Errorf("failed to decode request: %v", err)
			}
			if payload.RelyingParty != "http://auth.xboxlive.com" {
				t.Errorf("unexpected relying party %q", payload.RelyingParty)
			}
			if !strings.HasPrefix(payload.Properties.RpsTicket, "d=") {
				t.Errorf("expected d= ticket prefix, got %q", payload.Properties.RpsTicket)
			}
			json.NewEncoder(w).Encode(xblTokenBody("user-token", map[string]string{"uhs": "111"}))
		}))
		defer server.Close()

		svc := newTestAuthService(t, NewFileTokenStore(t.TempDir()))
		svc.userTokenEndpoint = server.URL

		token, err := svc.ExchangeUserToken(context.Background(), "access-token")
		if err != nil {
			t.Fatalf("ExchangeUserToken failed: %v", err)
		}
		if token != "user-token" {
			t.Errorf("expected user-token, got %q", token)
		}
	})

	t.Run("fails on empty token", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			json.NewEncoder(w).Encode(map[string]any{"Token": ""})
		}))
		defer server.Close()

		svc := newTestAuthService(t, NewFileTokenStore(t.TempDir()))
		svc.userTokenEndpoint = server.URL

		if _, err := svc.ExchangeUserToken(context.Background(), "access-token"); !errors.Is(err, shared.ErrAuthFailed) {
			t.Errorf("expected ErrAuthFailed, got %v", err)
		}
	})
}

func TestExchangeXSTSToken(t *testing.T) {
	t.Run("returns the identity claims", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var payload struct {
				Properties struct {
					UserTokens []string `json:"UserTokens"`
					SandboxID  string   `json:"SandboxId"`
				} `json:"Properties"`
			}
			json.NewDecoder(r.Body).Decode(&payload)
			if payload.Properties.SandboxID != "RETAIL" {
				t.Errorf("expected RETAIL sandbox, got %q", payload.Properties.SandboxID)
			}
			if len(payload.Properties.UserTokens) != 1 || payload.Properties.UserTokens[0] != "user-token" {
				t.Errorf("unexpected user tokens %v", payload.Properties.UserTokens)
			}
			json.NewEncoder(w).Encode(xblTokenBody("xsts-token", map[string]string{
				"uhs": "1234567890",
				"xid": "2533274810000000",
				"gtg": "MajorNelson",
			}))
		}))
		defer server.Close()

		svc := newTestAuthService(t, NewFileTokenStore(t.TempDir()))
		svc.xstsEndpoint = server.URL

		identity, err := svc.ExchangeXSTSToken(context.Background(), "user-token")
		if err != nil {
			t.Fatalf("ExchangeXSTSToken failed: %v", err)
		}
		if identity.Token != "xsts-token" {
			t.Errorf("expected xsts-token, got %q", identity.Token)
		}
		if identity.UserHash != "1234567890" || identity.XUID != "2533274810000000" || identity.Gamertag != "MajorNelson" {
			t.Errorf("unexpected claims: %+v", identity)
		}
		if !identity.NotAfter.After(time.Now()) {
			t.Errorf("expected a future NotAfter, got %v", identity.NotAfter)
		}
	})

	t.Run("maps restriction codes", func(t *testing.T) {
		codes := []int64{2148916233, 2148916235, 2148916236, 2148916237, 2148916238}
		for _, code := range codes {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusUnauthorized)
				json.NewEncoder(w).Encode(map[string]any{"Identity": "0", "XErr": code})
			}))

			svc := newTestAuthService(t, NewFileTokenStore(t.TempDir()))
			svc.xstsEndpoint = server.URL

			_, err := svc.ExchangeXSTSToken(context.Background(), "user-token")
			if !errors.Is(err, shared.ErrAuthRestricted) {
				t.Errorf("XErr %d: expected ErrAuthRestricted, got %v", code, err)
			}
			server.Close()
		}
	})

	t.Run("maps unknown XErr codes to plain failure", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadRequest)
			json.NewEncoder(w).Encode(map[string]any{"XErr": int64(2148916999)})
		}))
		defer server.Close()

		svc := newTestAuthService(t, NewFileTokenStore(t.TempDir()))
		svc.xstsEndpoint = server.URL

		_, err := svc.ExchangeXSTSToken(context.Background(), "user-token")
		if !errors.Is(err, shared.ErrAuthFailed) {
			t.Errorf("expected ErrAuthFailed, got %v", err)
		}
		if errors.Is(err, shared.ErrAuthRestricted) {
			t.Error("unknown XErr should not map to ErrAuthRestricted")
		}
	})
}

func TestBuildArtifact(t *testing.T) {
	userServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(xblTokenBody("user-token", map[string]string{"uhs": "111"}))
	}))
	defer userServer.Close()

	xstsServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(xblTokenBody("xsts-token", map[string]string{
			"uhs": "1234567890",
			"xid": "2533274810000000",
			"gtg": "MajorNelson",
		}))
	}))
	defer xstsServer.Close()

	svc := newTestAuthService(t, NewFileTokenStore(t.TempDir()))
	svc.userTokenEndpoint = userServer.URL
	svc.xstsEndpoint = xstsServer.URL

	token := &oauth2.Token{
		AccessToken:  "access-token",
		RefreshToken: "refresh-token",
		Expiry:       time.Now().Add(time.Hour),
	}

	artifact, err := svc.BuildArtifact(context.Background(), token)
	if err != nil {
		t.Fatalf("BuildArtifact failed: %v", err)
	}

	if !artifact.Complete() {
		t.Error("expected a complete artifact")
	}
	if artifact.Expired() {
		t.Error("expected a future expiry")
	}
	if artifact.Gamertag != "MajorNelson" {
		t.Errorf("expected gamertag MajorNelson, got %q", artifact.Gamertag)
	}
	if artifact.RefreshToken != "refresh-token" {
		t.Errorf("expected refresh token to carry over, got %q", artifact.RefreshToken)
	}
	if got, want := artifact.AuthHeader(), "XBL3.0 x=1234567890;xsts-token"; got != want {
		t.Errorf("expected header %q, got %q", want, got)
	}
}

func TestLoadOrRefresh(t *testing.T) {
	t.Run("reuses a valid stored artifact without network calls", func(t *testing.T) {
		store := NewFileTokenStore(t.TempDir())
		if err := store.Save(testArtifact()); err != nil {
			t.Fatalf("Save failed: %v", err)
		}

		svc := newTestAuthService(t, store)
		svc.userTokenEndpoint = "http://127.0.0.1:0"
		svc.xstsEndpoint = "http://127.0.0.1:0"

		artifact, err := svc.LoadOrRefresh(context.Background(), nil)
		if err != nil {
			t.Fatalf("LoadOrRefresh failed: %v", err)
		}
		if artifact.Gamertag != "MajorNelson" {
			t.Errorf("expected stored artifact, got gamertag %q", artifact.Gamertag)
		}
	})

	t.Run("renews an expired artifact without prompting", func(t *testing.T) {
		tokenServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if err := r.ParseForm(); err != nil {
				t.Errorf("failed to parse token request: %v", err)
			}
			if got := r.Form.Get("grant_type"); got != "refresh_token" {
				t.Errorf("expected refresh_token grant, got %q", got)
			}
			if got := r.Form.Get("refresh_token"); got != "refresh-token" {
				t.Errorf("unexpected refresh token %q", got)
			}
			w.Header().Set("Content-Type", "application/json")
			json.NewEncoder(w).Encode(map[string]any{
				"access_token":  "renewed-access-token",
				"refresh_token": "renewed-refresh-token",
				"token_type":    "Bearer",
				"expires_in":    3600,
			})
		}))
		defer tokenServer.Close()

		userServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			json.NewEncoder(w).Encode(xblTokenBody("renewed-user-token", map[string]string{"uhs": "111"}))
		}))
		defer userServer.Close()

		xstsServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			json.NewEncoder(w).Encode(xblTokenBody("renewed-xsts-token", map[string]string{
				"uhs": "1234567890",
				"xid": "2533274810000000",
				"gtg": "MajorNelson",
			}))
		}))
		defer xstsServer.Close()

		store := NewFileTokenStore(t.TempDir())
		stale := testArtifact()
		stale.ExpiresAt = time.Now().Add(-time.Hour)
		if err := store.Save(stale); err != nil {
			t.Fatalf("Save failed: %v", err)
		}

		svc := newTestAuthService(t, store)
		svc.config.Endpoint.TokenURL = tokenServer.URL
		svc.userTokenEndpoint = userServer.URL
		svc.xstsEndpoint = xstsServer.URL

		artifact, err := svc.LoadOrRefresh(context.Background(), nil)
		if err != nil {
			t.Fatalf("LoadOrRefresh failed: %v", err)
		}
		if !artifact.Complete() || artifact.Expired() {
			t.Errorf("expected a complete unexpired artifact, got %+v", artifact)
		}
		if artifact.XSTSToken != "renewed-xsts-token" {
			t.Errorf("expected a renewed XSTS token, got %q", artifact.XSTSToken)
		}
		if artifact.RefreshToken != "renewed-refresh-token" {
			t.Errorf("expected the rotated refresh token, got %q", artifact.RefreshToken)
		}

		saved, err := store.Load()
		if err != nil {
			t.Fatalf("Load failed: %v", err)
		}
		if saved.XSTSToken != "renewed-xsts-token" || saved.Expired() {
			t.Errorf("expected the renewed artifact to be persisted, got %+v", saved)
		}
	})

	t.Run("requires a prompt when no tokens exist", func(t *testing.T) {
		svc := newTestAuthService(t, NewFileTokenStore(t.TempDir()))

		_, err := svc.LoadOrRefresh(context.Background(), nil)
		if !errors.Is(err, shared.ErrNotAuthenticated) {
			t.Errorf("expected ErrNotAuthenticated, got %v", err)
		}
	})

	t.Run("requires a prompt for an expired artifact without refresh token", func(t *testing.T) {
		store := NewFileTokenStore(t.TempDir())
		stale := testArtifact()
		stale.RefreshToken = ""
		stale.ExpiresAt = time.Now().Add(-time.Hour)
		if err := store.Save(stale); err != nil {
			t.Fatalf("Save failed: %v", err)
		}

		svc := newTestAuthService(t, store)
		_, err := svc.LoadOrRefresh(context.Background(), nil)
		if !errors.Is(err, shared.ErrNotAuthenticated) {
			t.Errorf("expected ErrNotAuthenticated, got %v", err)
		}
	})
}

func TestRefresh(t *testing.T) {
	t.Run("requires a refresh token", func(t *testing.T) {
		svc := newTestAuthService(t, NewFileTokenStore(t.TempDir()))
		stale := testArtifact()
		stale.RefreshToken = ""

		_, err := svc.Refresh(context.Background(), stale)
		if !errors.Is(err, shared.ErrNoRefreshToken) {
			t.Errorf("expected ErrNoRefreshToken, got %v", err)
		}
	})
}

func TestGetAuthURL(t *testing.T) {
	svc := newTestAuthService(t, NewFileTokenStore(t.TempDir()))
	authURL := svc.GetAuthURL("state-token")

	if !strings.Contains(authURL, "login.live.com/oauth20_authorize.srf") {
		t.Errorf("expected live.com authorize URL, got %q", authURL)
	}
	if !strings.Contains(authURL, "state=state-token") {
		t.Errorf("expected state parameter, got %q", authURL)
	}
	if !strings.Contains(authURL, "Xboxlive.signin") {
		t.Errorf("expected Xboxlive.signin scope, got %q", authURL)
	}
}
