package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/desertthunder/xbr/internal/models"
	"github.com/desertthunder/xbr/internal/shared"
)

// statsBatchSize is the maximum number of title stat requests the userstats
// batch endpoint accepts per call.
const statsBatchSize = 50

// XboxAPI is the HTTP client for the Xbox Live data endpoints. All calls are
// authorized with the XSTS ticket in the token artifact; a 401 from any
// endpoint means the ticket expired mid-run and surfaces as
// [shared.ErrTokenExpired].
type XboxAPI struct {
	artifact   *models.TokenArtifact
	httpClient *http.Client
	language   string

	// Overridable in tests.
	profileURL      string
	titleHubURL     string
	userStatsURL    string
	achievementsURL string
}

// NewXboxAPI creates a data API client authorized by the given artifact.
func NewXboxAPI(artifact *models.TokenArtifact, language string, timeout time.Duration) *XboxAPI {
	if language == "" {
		language = "en-US"
	}
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &XboxAPI{
		artifact:        artifact,
		httpClient:      &http.Client{Timeout: timeout},
		language:        language,
		profileURL:      profileHost,
		titleHubURL:     titleHubHost,
		userStatsURL:    userStatsHost,
		achievementsURL: achievementsHost,
	}
}

// GetProfile retrieves the display settings for the given XUID.
func (x *XboxAPI) GetProfile(ctx context.Context, xuid string) (*models.Profile, error) {
	endpoint := fmt.Sprintf("%s/users/xuid(%s)/profile/settings?settings=GameDisplayPicRaw,Gamerscore,Gamertag,AccountTier", x.profileURL, xuid)

	var resp profileResponse
	if err := x.doRequest(ctx, http.MethodGet, endpoint, "profile", "2", nil, &resp); err != nil {
		return nil, err
	}
	if len(resp.ProfileUsers) == 0 {
		return nil, fmt.Errorf("%w: empty profile response", shared.ErrAPIRequest)
	}

	user := resp.ProfileUsers[0]
	profile := &models.Profile{XUID: user.ID}
	for _, setting := range user.Settings {
		switch setting.ID {
		case "Gamertag":
			profile.Gamertag = setting.Value
		case "Gamerscore":
			profile.Gamerscore, _ = strconv.Atoi(setting.Value)
		case "AccountTier":
			profile.AccountTier = setting.Value
		case "GameDisplayPicRaw":
			profile.AvatarURL = setting.Value
		}
	}
	return profile, nil
}

// ResolveXUID looks up the XUID that owns a gamertag.
func (x *XboxAPI) ResolveXUID(ctx context.Context, gamertag string) (string, error) {
	endpoint := fmt.Sprintf("%s/users/gt(%s)/profile/settings?settings=Gamertag", x.profileURL, url.PathEscape(gamertag))

	var resp profileResponse
	if err := x.doRequest(ctx, http.MethodGet, endpoint, "profile", "2", nil, &resp); err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound {
			return "", fmt.Errorf("%w: %s", shared.ErrPlayerNotFound, gamertag)
		}
		return "", err
	}
	if len(resp.ProfileUsers) == 0 || resp.ProfileUsers[0].ID == "" {
		return "", fmt.Errorf("%w: %s", shared.ErrPlayerNotFound, gamertag)
	}
	return resp.ProfileUsers[0].ID, nil
}

// GetTitleHistory retrieves the full played-game history for the XUID,
// filtered to actual games (the endpoint also lists apps).
func (x *XboxAPI) GetTitleHistory(ctx context.Context, xuid string) ([]models.Title, error) {
	endpoint := fmt.Sprintf("%s/users/xuid(%s)/titles/titlehistory/decoration/achievement,image,scid", x.titleHubURL, xuid)

	var resp titleHubResponse
	if err := x.doRequest(ctx, http.MethodGet, endpoint, "titlehub", "2", nil, &resp); err != nil {
		return nil, err
	}

	titles := make([]models.Title, 0, len(resp.Titles))
	for _, t := range resp.Titles {
		if t.Type != "Game" {
			continue
		}
		titles = append(titles, models.Title{
			ID:                   t.TitleID,
			Name:                 t.Name,
			LastPlayed:           t.TitleHistory.LastTimePlayed,
			CurrentGamerscore:    t.Achievement.CurrentGamerscore,
			MaxGamerscore:        t.Achievement.TotalGamerscore,
			AchievementsUnlocked: t.Achievement.CurrentAchievements,
			ProgressPercent:      t.Achievement.ProgressPercentage,
			Image:                t.DisplayImage,
		})
	}
	return titles, nil
}

// GetStats retrieves MinutesPlayed per title, batching requests to the
// endpoint's limit. The result maps title ID to minutes; titles the endpoint
// reports nothing for are absent from the map.
func (x *XboxAPI) GetStats(ctx context.Context, xuid string, titleIDs []string) (map[string]int, error) {
	minutes := make(map[string]int, len(titleIDs))

	for start := 0; start < len(titleIDs); start += statsBatchSize {
		end := min(start+statsBatchSize, len(titleIDs))

		batch, err := x.getStatsBatch(ctx, xuid, titleIDs[start:end])
		if err != nil {
			return nil, err
		}
		for id, m := range batch {
			minutes[id] = m
		}
	}
	return minutes, nil
}

func (x *XboxAPI) getStatsBatch(ctx context.Context, xuid string, titleIDs []string) (map[string]int, error) {
	stats := make([]map[string]string, 0, len(titleIDs))
	for _, id := range titleIDs {
		stats = append(stats, map[string]string{"name": "MinutesPlayed", "titleid": id})
	}
	payload := map[string]any{
		"arrangebyfield": "xuid",
		"stats":          stats,
		"xuids":          []string{xuid},
	}

	endpoint := x.userStatsURL + "/batch"
	var resp statsResponse
	if err := x.doRequest(ctx, http.MethodPost, endpoint, "userstats", "2", payload, &resp); err != nil {
		return nil, err
	}

	minutes := make(map[string]int)
	for _, collection := range resp.StatListsCollection {
		for _, stat := range collection.Stats {
			if stat.TitleID == "" {
				continue
			}
			value, err := parseStatValue(stat.Value)
			if err != nil {
				continue
			}
			minutes[stat.TitleID] = value
		}
	}
	return minutes, nil
}

// GetAchievements retrieves the unlocked achievements for one title,
// including rarity data. Locked achievements are dropped.
func (x *XboxAPI) GetAchievements(ctx context.Context, xuid, titleID string) ([]models.Achievement, error) {
	endpoint := fmt.Sprintf("%s/users/xuid(%s)/achievements?titleId=%s&maxItems=1000", x.achievementsURL, xuid, titleID)

	var resp achievementsResponse
	if err := x.doRequest(ctx, http.MethodGet, endpoint, "achievements", "4", nil, &resp); err != nil {
		return nil, err
	}

	unlocked := make([]models.Achievement, 0, len(resp.Achievements))
	for _, a := range resp.Achievements {
		timeUnlocked := a.Progression.TimeUnlocked
		if timeUnlocked == "" || strings.HasPrefix(timeUnlocked, "0001-01-01") {
			continue
		}

		achievement := models.Achievement{
			ID:             a.ID,
			Name:           a.Name,
			Description:    a.Description,
			TimeUnlocked:   timeUnlocked,
			RarityPercent:  a.Rarity.CurrentPercentage,
			RarityCategory: a.Rarity.CurrentCategory,
			TitleID:        titleID,
		}
		for _, reward := range a.Rewards {
			if reward.Type == "Gamerscore" {
				achievement.Gamerscore, _ = strconv.Atoi(reward.Value)
			}
		}
		for _, asset := range a.MediaAssets {
			if asset.Type == "Icon" {
				achievement.Icon = asset.URL
				break
			}
		}
		unlocked = append(unlocked, achievement)
	}
	return unlocked, nil
}

// APIResponse carries the raw result of a passthrough request.
type APIResponse struct {
	Status int             `json:"status"`
	Body   json.RawMessage `json:"body"`
}

// Raw performs an authorized GET against one of the known hosts and returns
// the response as-is. Backs the `api get` debug command.
func (x *XboxAPI) Raw(ctx context.Context, host, path string) (*APIResponse, error) {
	var base, contract string
	switch host {
	case "profile":
		base, contract = x.profileURL, "2"
	case "titlehub":
		base, contract = x.titleHubURL, "2"
	case "userstats":
		base, contract = x.userStatsURL, "2"
	case "achievements":
		base, contract = x.achievementsURL, "4"
	default:
		return nil, fmt.Errorf("%w: unknown host %q", shared.ErrInvalidArgument, host)
	}

	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, base+path, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	x.setHeaders(req, contract)

	resp, err := x.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if !json.Valid(body) {
		body, _ = json.Marshal(string(body))
	}
	return &APIResponse{Status: resp.StatusCode, Body: body}, nil
}

func (x *XboxAPI) setHeaders(req *http.Request, contract string) {
	req.Header.Set("Authorization", x.artifact.AuthHeader())
	req.Header.Set("x-xbl-contract-version", contract)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Accept-Language", x.language)
}

// doRequest performs an authorized request against an Xbox Live endpoint and
// decodes the JSON response into result.
func (x *XboxAPI) doRequest(ctx context.Context, method, endpoint, name, contract string, body any, result any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	x.setHeaders(req, contract)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := x.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		return fmt.Errorf("%w: %s returned 401", shared.ErrTokenExpired, name)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &APIError{StatusCode: resp.StatusCode, Endpoint: name}
	}

	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		return fmt.Errorf("%w: failed to decode %s response: %v", shared.ErrAPIRequest, name, err)
	}
	return nil
}

// parseStatValue parses a stat value that the endpoint serializes as either a
// JSON number or a numeric string.
func parseStatValue(raw json.RawMessage) (int, error) {
	if len(raw) == 0 {
		return 0, fmt.Errorf("empty stat value")
	}

	var number float64
	if err := json.Unmarshal(raw, &number); err == nil {
		return int(number), nil
	}

	var text string
	if err := json.Unmarshal(raw, &text); err != nil {
		return 0, fmt.Errorf("unparseable stat value: %s", raw)
	}
	number, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return 0, fmt.Errorf("unparseable stat value: %q", text)
	}
	return int(number), nil
}

type profileResponse struct {
	ProfileUsers []struct {
		ID       string `json:"id"`
		Settings []struct {
			ID    string `json:"id"`
			Value string `json:"value"`
		} `json:"settings"`
	} `json:"profileUsers"`
}

type titleHubResponse struct {
	Titles []struct {
		TitleID      string `json:"titleId"`
		Name         string `json:"name"`
		Type         string `json:"type"`
		DisplayImage string `json:"displayImage"`
		Achievement  struct {
			CurrentAchievements int     `json:"currentAchievements"`
			CurrentGamerscore   int     `json:"currentGamerscore"`
			TotalGamerscore     int     `json:"totalGamerscore"`
			ProgressPercentage  float64 `json:"progressPercentage"`
		} `json:"achievement"`
		TitleHistory struct {
			LastTimePlayed string `json:"lastTimePlayed"`
		} `json:"titleHistory"`
	} `json:"titles"`
}

type statsResponse struct {
	StatListsCollection []struct {
		Stats []struct {
			Name    string          `json:"name"`
			TitleID string          `json:"titleid"`
			Value   json.RawMessage `json:"value"`
		} `json:"stats"`
	} `json:"statlistscollection"`
}

type achievementsResponse struct {
	Achievements []struct {
		ID          string `json:"id"`
		Name        string `json:"name"`
		Description string `json:"description"`
		Progression struct {
			TimeUnlocked string `json:"timeUnlocked"`
		} `json:"progression"`
		Rarity struct {
			CurrentCategory   string  `json:"currentCategory"`
			CurrentPercentage float64 `json:"currentPercentage"`
		} `json:"rarity"`
		Rewards []struct {
			Type  string `json:"type"`
			Value string `json:"value"`
		} `json:"rewards"`
		MediaAssets []struct {
			Type string `json:"type"`
			URL  string `json:"url"`
		} `json:"mediaAssets"`
	} `json:"achievements"`
}
