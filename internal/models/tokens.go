package models

import (
	"fmt"
	"time"
)

// TokenArtifact holds every credential produced by the Xbox Live
// authentication chain. Persisted as JSON in the token store and read-only
// for the lifetime of a process run.
type TokenArtifact struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token,omitempty"`
	UserToken    string    `json:"user_token"`
	XSTSToken    string    `json:"xsts_token"`
	UserHash     string    `json:"user_hash"`
	XUID         string    `json:"xuid"`
	Gamertag     string    `json:"gamertag"`
	ExpiresAt    time.Time `json:"expires_at"`
}

// Expired reports whether the artifact is past its expiry and must not be
// used for API calls.
func (t *TokenArtifact) Expired() bool {
	return !t.ExpiresAt.After(time.Now())
}

// Complete reports whether every field required for authorized API calls is
// populated.
func (t *TokenArtifact) Complete() bool {
	return t.AccessToken != "" && t.UserToken != "" && t.XSTSToken != "" && t.UserHash != ""
}

// AuthHeader builds the Authorization header value expected by Xbox Live
// endpoints.
func (t *TokenArtifact) AuthHeader() string {
	return fmt.Sprintf("XBL3.0 x=%s;%s", t.UserHash, t.XSTSToken)
}
