// package services defines clients for the Xbox Live identity provider and
// the Xbox Live data APIs.
//
// Authentication (live.com OAuth + user/XSTS token exchanges) and data access
// (profile, titlehub, userstats, achievements) are separate clients joined by
// the [models.TokenArtifact] the auth client produces.
package services

import (
	"context"
	"fmt"

	"github.com/desertthunder/xbr/internal/models"
	"github.com/desertthunder/xbr/internal/shared"
)

// Xbox Live data API hosts.
const (
	profileHost      = "https://profile.xboxlive.com"
	titleHubHost     = "https://titlehub.xboxlive.com"
	userStatsHost    = "https://userstats.xboxlive.com"
	achievementsHost = "https://achievements.xboxlive.com"
)

// XboxClient defines the read-only operations the snapshot engine needs.
// Implemented by [XboxAPI]; mocked in tests.
type XboxClient interface {
	// GetProfile retrieves the profile settings for the given XUID.
	GetProfile(ctx context.Context, xuid string) (*models.Profile, error)

	// ResolveXUID looks up the XUID for a gamertag.
	ResolveXUID(ctx context.Context, gamertag string) (string, error)

	// GetTitleHistory retrieves all played games for the given XUID.
	GetTitleHistory(ctx context.Context, xuid string) ([]models.Title, error)

	// GetStats retrieves minutes played per title for the given XUID.
	GetStats(ctx context.Context, xuid string, titleIDs []string) (map[string]int, error)

	// GetAchievements retrieves unlocked achievements (with rarity) for one title.
	GetAchievements(ctx context.Context, xuid, titleID string) ([]models.Achievement, error)
}

// APIError describes a non-2xx response from an Xbox Live endpoint.
type APIError struct {
	StatusCode int
	Endpoint   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("xbox API error: status %d (%s)", e.StatusCode, e.Endpoint)
}

// Unwrap makes APIError match [shared.ErrAPIRequest] via [errors.Is].
func (e *APIError) Unwrap() error {
	return shared.ErrAPIRequest
}

// HostURL resolves a short host name used by the `api get` debug command to
// a full base URL.
func HostURL(name string) (string, error) {
	switch name {
	case "profile":
		return profileHost, nil
	case "titlehub":
		return titleHubHost, nil
	case "userstats":
		return userStatsHost, nil
	case "achievements":
		return achievementsHost, nil
	default:
		return "", fmt.Errorf("%w: unknown host %q", shared.ErrInvalidArgument, name)
	}
}
