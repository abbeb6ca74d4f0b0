package formatter

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"

	"github.com/desertthunder/xbr/internal/models"
	"github.com/desertthunder/xbr/internal/shared"
)

type cardGameView struct {
	Y      int
	ImageY int
	NameY  int
	HoursY int
	Name   string
	Hours  string
	Image  template.URL
}

type cardView struct {
	Gamertag     string
	Hours        string
	Games        int
	Gamerscore   string
	Achievements string
	Background   template.URL
	Avatar       template.URL
	TopGames     []cardGameView
}

// RenderCard renders the 1200x600 SVG share card for a snapshot. The fetcher
// inlines game art as data URIs; any image it cannot resolve is simply
// omitted from the card.
func RenderCard(doc *models.SnapshotDocument, fetch ImageFetcher) ([]byte, error) {
	if fetch == nil {
		fetch = func(string) string { return "" }
	}

	top3 := doc.TopGames(3)

	view := &cardView{
		Gamertag:     strings.ToUpper(doc.Profile.Gamertag),
		Hours:        shared.FormatHours(doc.Statistics.TotalHours),
		Games:        doc.Statistics.TotalGames,
		Gamerscore:   shared.FormatNumber(doc.Profile.Gamerscore),
		Achievements: shared.FormatNumber(doc.Statistics.TotalAchievements),
		Avatar:       template.URL(fetch(doc.Profile.AvatarURL)),
	}
	if len(top3) > 0 {
		view.Background = template.URL(fetch(top3[0].Image))
	}

	for i, g := range top3 {
		y := 200 + i*85
		view.TopGames = append(view.TopGames, cardGameView{
			Y:      y,
			ImageY: y + 10,
			NameY:  y + 32,
			HoursY: y + 52,
			Name:   truncate(g.Name, 20),
			Hours:  shared.FormatHours(g.HoursPlayed),
			Image:  template.URL(fetch(g.Image)),
		})
	}

	var buf bytes.Buffer
	if err := cardTemplate.Execute(&buf, view); err != nil {
		return nil, fmt.Errorf("failed to render share card: %w", err)
	}
	return buf.Bytes(), nil
}
