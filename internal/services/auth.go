// Xbox Live authentication chain.
//
// The chain is linear: an OAuth access token from the Microsoft identity
// provider (device flow or browser flow) is exchanged for an Xbox user
// token, which is exchanged for an XSTS service ticket. Any step failing
// aborts the attempt; callers re-invoke, there are no retries.
package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/desertthunder/xbr/internal/models"
	"github.com/desertthunder/xbr/internal/shared"
	"golang.org/x/oauth2"
)

const (
	oauthAuthURL   = "https://login.live.com/oauth20_authorize.srf"
	oauthTokenURL  = "https://login.live.com/oauth20_token.srf"
	oauthDeviceURL = "https://login.microsoftonline.com/consumers/oauth2/v2.0/devicecode"
	userAuthURL    = "https://user.auth.xboxlive.com/user/authenticate"
	xstsAuthURL    = "https://xsts.auth.xboxlive.com/xsts/authorize"
)

// XErr codes the XSTS endpoint reports for accounts that cannot sign in to
// Xbox Live at all (missing account, region ban, age gate, unlinked child
// account). These are user-facing restrictions, not transient failures.
var restrictionCodes = map[int64]string{
	2148916233: "account has no Xbox profile",
	2148916235: "Xbox Live is not available in this region",
	2148916236: "account requires adult verification",
	2148916237: "account requires adult verification",
	2148916238: "child account must be added to a family",
}

// DevicePrompt is invoked when the device flow needs the user to approve the
// sign-in out of band.
type DevicePrompt func(verificationURI, userCode string)

// XSTSIdentity is the final product of the authentication chain: the XSTS
// service ticket plus the user claims needed to build API calls.
type XSTSIdentity struct {
	Token    string
	UserHash string
	XUID     string
	Gamertag string
	NotAfter time.Time
}

// XboxAuthService performs the Xbox Live authentication chain and persists
// the resulting [models.TokenArtifact] through a [TokenStore].
type XboxAuthService struct {
	config     *oauth2.Config
	store      TokenStore
	httpClient *http.Client

	// Overridable in tests.
	userTokenEndpoint string
	xstsEndpoint      string
}

// NewXboxAuthService creates an auth service for the given Azure application
// credentials.
func NewXboxAuthService(creds shared.XboxConfig, store TokenStore) (*XboxAuthService, error) {
	if err := creds.Validate(); err != nil {
		return nil, err
	}

	redirectURI := creds.RedirectURI
	if redirectURI == "" {
		redirectURI = "http://localhost:8080/auth/callback"
	}

	config := &oauth2.Config{
		ClientID:     creds.ClientID,
		ClientSecret: creds.ClientSecret,
		RedirectURL:  redirectURI,
		Scopes:       []string{"Xboxlive.signin", "Xboxlive.offline_access"},
		Endpoint: oauth2.Endpoint{
			AuthURL:       oauthAuthURL,
			TokenURL:      oauthTokenURL,
			DeviceAuthURL: oauthDeviceURL,
		},
	}

	return &XboxAuthService{
		config:            config,
		store:             store,
		httpClient:        &http.Client{Timeout: 60 * time.Second},
		userTokenEndpoint: userAuthURL,
		xstsEndpoint:      xstsAuthURL,
	}, nil
}

// GetOAuthConfig returns the underlying OAuth2 configuration, used by the
// browser-flow callback handler.
func (s *XboxAuthService) GetOAuthConfig() *oauth2.Config {
	return s.config
}

// GetAuthURL returns the browser authorization URL for the given state token.
func (s *XboxAuthService) GetAuthURL(state string) string {
	return s.config.AuthCodeURL(state, oauth2.AccessTypeOffline)
}

// RequestDeviceCode initiates the device authorization grant.
func (s *XboxAuthService) RequestDeviceCode(ctx context.Context) (*oauth2.DeviceAuthResponse, error) {
	resp, err := s.config.DeviceAuth(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: device code request: %v", shared.ErrAuthFailed, err)
	}
	return resp, nil
}

// PollForDeviceToken polls the token endpoint until the user approves the
// sign-in or the approval window expires.
func (s *XboxAuthService) PollForDeviceToken(ctx context.Context, da *oauth2.DeviceAuthResponse) (*oauth2.Token, error) {
	token, err := s.config.DeviceAccessToken(ctx, da)
	if err == nil {
		return token, nil
	}

	var retrieveErr *oauth2.RetrieveError
	if errors.As(err, &retrieveErr) && retrieveErr.ErrorCode == "expired_token" {
		return nil, fmt.Errorf("%w: device code expired before approval", shared.ErrTimeout)
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return nil, fmt.Errorf("%w: device approval window elapsed", shared.ErrTimeout)
	}
	return nil, fmt.Errorf("%w: %v", shared.ErrAuthFailed, err)
}

// ExchangeUserToken exchanges the OAuth access token for an Xbox user token.
func (s *XboxAuthService) ExchangeUserToken(ctx context.Context, accessToken string) (string, error) {
	payload := map[string]any{
		"RelyingParty": "http://auth.xboxlive.com",
		"TokenType":    "JWT",
		"Properties": map[string]any{
			"AuthMethod": "RPS",
			"SiteName":   "user.auth.xboxlive.com",
			"RpsTicket":  "d=" + accessToken,
		},
	}

	var resp xblTokenResponse
	if err := s.postXBL(ctx, s.userTokenEndpoint, payload, &resp); err != nil {
		return "", err
	}
	if resp.Token == "" {
		return "", fmt.Errorf("%w: user token response missing token", shared.ErrAuthFailed)
	}
	return resp.Token, nil
}

// ExchangeXSTSToken exchanges the Xbox user token for the XSTS service
// ticket. Account restriction conditions are reported as
// [shared.ErrAuthRestricted]; all other failures as [shared.ErrAuthFailed].
func (s *XboxAuthService) ExchangeXSTSToken(ctx context.Context, userToken string) (*XSTSIdentity, error) {
	payload := map[string]any{
		"RelyingParty": "http://xboxlive.com",
		"TokenType":    "JWT",
		"Properties": map[string]any{
			"UserTokens": []string{userToken},
			"SandboxId":  "RETAIL",
		},
	}

	var resp xblTokenResponse
	if err := s.postXBL(ctx, s.xstsEndpoint, payload, &resp); err != nil {
		return nil, err
	}

	if len(resp.DisplayClaims.XUI) == 0 {
		return nil, fmt.Errorf("%w: XSTS response missing user claims", shared.ErrAuthFailed)
	}

	claims := resp.DisplayClaims.XUI[0]
	identity := &XSTSIdentity{
		Token:    resp.Token,
		UserHash: claims.UserHash,
		XUID:     claims.XUID,
		Gamertag: claims.Gamertag,
	}
	if notAfter, err := time.Parse(time.RFC3339, resp.NotAfter); err == nil {
		identity.NotAfter = notAfter
	}
	return identity, nil
}

// BuildArtifact runs the user and XSTS exchanges for an OAuth token and
// assembles the persisted artifact.
func (s *XboxAuthService) BuildArtifact(ctx context.Context, token *oauth2.Token) (*models.TokenArtifact, error) {
	userToken, err := s.ExchangeUserToken(ctx, token.AccessToken)
	if err != nil {
		return nil, err
	}

	identity, err := s.ExchangeXSTSToken(ctx, userToken)
	if err != nil {
		return nil, err
	}

	expiresAt := identity.NotAfter
	if expiresAt.IsZero() {
		expiresAt = token.Expiry
	}

	return &models.TokenArtifact{
		AccessToken:  token.AccessToken,
		RefreshToken: token.RefreshToken,
		UserToken:    userToken,
		XSTSToken:    identity.Token,
		UserHash:     identity.UserHash,
		XUID:         identity.XUID,
		Gamertag:     identity.Gamertag,
		ExpiresAt:    expiresAt,
	}, nil
}

// DeviceFlow runs the full interactive chain: device code, poll, token
// exchanges, persist.
func (s *XboxAuthService) DeviceFlow(ctx context.Context, prompt DevicePrompt) (*models.TokenArtifact, error) {
	da, err := s.RequestDeviceCode(ctx)
	if err != nil {
		return nil, err
	}

	if prompt != nil {
		prompt(da.VerificationURI, da.UserCode)
	}

	token, err := s.PollForDeviceToken(ctx, da)
	if err != nil {
		return nil, err
	}

	artifact, err := s.BuildArtifact(ctx, token)
	if err != nil {
		return nil, err
	}

	if err := s.store.Save(artifact); err != nil {
		return nil, fmt.Errorf("failed to persist tokens: %w", err)
	}
	return artifact, nil
}

// Refresh renews an expired artifact using its refresh token, then re-runs
// the user/XSTS exchanges. No user interaction is required.
func (s *XboxAuthService) Refresh(ctx context.Context, stale *models.TokenArtifact) (*models.TokenArtifact, error) {
	if stale.RefreshToken == "" {
		return nil, shared.ErrNoRefreshToken
	}

	source := s.config.TokenSource(ctx, &oauth2.Token{
		RefreshToken: stale.RefreshToken,
		Expiry:       time.Now().Add(-time.Hour),
	})

	token, err := source.Token()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrRefreshFailed, err)
	}

	artifact, err := s.BuildArtifact(ctx, token)
	if err != nil {
		return nil, err
	}

	if err := s.store.Save(artifact); err != nil {
		return nil, fmt.Errorf("failed to persist tokens: %w", err)
	}
	return artifact, nil
}

// LoadOrRefresh is the entry point other components use to obtain a valid
// artifact. An unexpired stored artifact is reused as-is; an expired one with
// a refresh token is renewed silently; otherwise the full device flow runs,
// using prompt to reach the user. With a nil prompt the interactive leg is
// unavailable and [shared.ErrNotAuthenticated] is returned instead.
func (s *XboxAuthService) LoadOrRefresh(ctx context.Context, prompt DevicePrompt) (*models.TokenArtifact, error) {
	if s.store.Exists() {
		artifact, err := s.store.Load()
		if err != nil {
			return nil, err
		}

		if !artifact.Expired() && artifact.Complete() {
			return artifact, nil
		}

		if artifact.RefreshToken != "" {
			refreshed, err := s.Refresh(ctx, artifact)
			if err == nil {
				return refreshed, nil
			}
			// Fall through to the interactive flow on refresh failure.
		}
	}

	if prompt == nil {
		return nil, fmt.Errorf("%w: run `xbr auth login` first", shared.ErrNotAuthenticated)
	}
	return s.DeviceFlow(ctx, prompt)
}

// xblTokenResponse is the shared response shape of the user and XSTS
// authentication endpoints.
type xblTokenResponse struct {
	IssueInstant  string `json:"IssueInstant"`
	NotAfter      string `json:"NotAfter"`
	Token         string `json:"Token"`
	DisplayClaims struct {
		XUI []struct {
			UserHash string `json:"uhs"`
			XUID     string `json:"xid"`
			Gamertag string `json:"gtg"`
		} `json:"xui"`
	} `json:"DisplayClaims"`
}

// xblErrorResponse is the error body the XSTS endpoint returns alongside a
// 401 status.
type xblErrorResponse struct {
	XErr     int64  `json:"XErr"`
	Message  string `json:"Message"`
	Redirect string `json:"Redirect"`
}

// postXBL posts a JSON payload to an Xbox authentication endpoint and decodes
// the response, translating error statuses into the auth error taxonomy.
func (s *XboxAuthService) postXBL(ctx context.Context, url string, payload any, result any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("x-xbl-contract-version", "1")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrAuthFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var xblErr xblErrorResponse
		if err := json.NewDecoder(resp.Body).Decode(&xblErr); err == nil && xblErr.XErr != 0 {
			if reason, restricted := restrictionCodes[xblErr.XErr]; restricted {
				return fmt.Errorf("%w: %s (XErr %d)", shared.ErrAuthRestricted, reason, xblErr.XErr)
			}
			return fmt.Errorf("%w: status %d (XErr %d)", shared.ErrAuthFailed, resp.StatusCode, xblErr.XErr)
		}
		return fmt.Errorf("%w: status %d", shared.ErrAuthFailed, resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		return fmt.Errorf("%w: failed to decode response: %v", shared.ErrAuthFailed, err)
	}
	return nil
}
