package models

import (
	"sort"
)

// Profile represents the identity portion of an Xbox Live account.
type Profile struct {
	XUID        string `json:"xuid"`
	Gamertag    string `json:"gamertag"`
	Gamerscore  int    `json:"gamerscore"`
	AccountTier string `json:"account_tier"`
	AvatarURL   string `json:"avatar_url"`
}

// Title represents a played game from the title history endpoint, merged with
// playtime from the stats endpoint.
type Title struct {
	ID                   string  `json:"id"`
	Name                 string  `json:"name"`
	LastPlayed           string  `json:"last_played"`
	CurrentGamerscore    int     `json:"current_gamerscore"`
	MaxGamerscore        int     `json:"max_gamerscore"`
	AchievementsUnlocked int     `json:"achievements_unlocked"`
	ProgressPercent      float64 `json:"progress_percent"`
	Image                string  `json:"image"`
	HoursPlayed          float64 `json:"hours_played"`
}

// Completed reports whether every achievement in the title has been earned.
func (t Title) Completed() bool {
	return t.ProgressPercent >= 100
}

// Achievement represents a single unlocked achievement with rarity data.
type Achievement struct {
	ID             string  `json:"id"`
	Name           string  `json:"name"`
	Description    string  `json:"description"`
	Gamerscore     int     `json:"gamerscore"`
	TimeUnlocked   string  `json:"time_unlocked"`
	RarityPercent  float64 `json:"rarity_percent"`
	RarityCategory string  `json:"rarity_category"`
	TitleID        string  `json:"title_id"`
	Icon           string  `json:"icon"`
	GameName       string  `json:"game_name,omitempty"`
	GameImage      string  `json:"game_image,omitempty"`
}

// Statistics holds lifetime totals computed from the title list.
type Statistics struct {
	TotalGames            int     `json:"total_games"`
	TotalHours            float64 `json:"total_hours"`
	TotalAchievements     int     `json:"total_achievements"`
	TotalGamerscoreEarned int     `json:"total_gamerscore_earned"`
	CompletedGames        int     `json:"completed_games"`
}

// YearStats aggregates activity for a single calendar year.
type YearStats struct {
	Games        int     `json:"games"`
	Hours        float64 `json:"hours"`
	Achievements int     `json:"achievements"`
	Gamerscore   int     `json:"gamerscore"`
	Completed    int     `json:"completed"`
}

// SnapshotDocument is the aggregation of one account's lifetime data, frozen
// at build time. Written once as JSON and never mutated; the HTML/SVG
// renderers consume this exact shape.
type SnapshotDocument struct {
	SnapshotDate        string               `json:"snapshot_date"`
	Profile             Profile              `json:"profile"`
	Statistics          Statistics           `json:"statistics"`
	ByYear              map[string]YearStats `json:"by_year"`
	AchievementsByMonth map[string]int       `json:"achievements_by_month"`
	Games               []Title              `json:"games"`
	Achievements        []Achievement        `json:"achievements_detailed"`
	RarestAchievements  []Achievement        `json:"rarest_achievements"`
	Warnings            []string             `json:"warnings,omitempty"`
}

// TopGames returns up to n titles ordered by hours played, descending.
func (d *SnapshotDocument) TopGames(n int) []Title {
	games := make([]Title, len(d.Games))
	copy(games, d.Games)
	sort.SliceStable(games, func(i, j int) bool {
		return games[i].HoursPlayed > games[j].HoursPlayed
	})
	if n > 0 && n < len(games) {
		games = games[:n]
	}
	return games
}

// RarestUnlocked returns up to n unlocked achievements ordered by rarity,
// rarest first. Achievements below minRarity are excluded as statistical
// noise, and anything at or above maxRarity is not interesting to surface.
func (d *SnapshotDocument) RarestUnlocked(n int, minRarity, maxRarity float64) []Achievement {
	var unlocked []Achievement
	for _, a := range d.Achievements {
		if a.TimeUnlocked == "" {
			continue
		}
		if a.RarityPercent < minRarity || a.RarityPercent >= maxRarity {
			continue
		}
		unlocked = append(unlocked, a)
	}

	sort.SliceStable(unlocked, func(i, j int) bool {
		return unlocked[i].RarityPercent < unlocked[j].RarityPercent
	})
	if n > 0 && n < len(unlocked) {
		unlocked = unlocked[:n]
	}
	return unlocked
}

// CompletedGames returns titles at 100% progress, most recently played first.
func (d *SnapshotDocument) CompletedGames(n int) []Title {
	var done []Title
	for _, g := range d.Games {
		if g.Completed() {
			done = append(done, g)
		}
	}
	sort.SliceStable(done, func(i, j int) bool {
		return done[i].LastPlayed > done[j].LastPlayed
	})
	if n > 0 && n < len(done) {
		done = done[:n]
	}
	return done
}
