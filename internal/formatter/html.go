package formatter

import (
	"bytes"
	"fmt"
	"html/template"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/desertthunder/xbr/internal/models"
	"github.com/desertthunder/xbr/internal/shared"
)

// Rarity tiers for the report's achievement cards.
const (
	legendaryBelow = 5.0
	epicBelow      = 15.0
	rareBelow      = 30.0
)

type gameView struct {
	Rank         int
	RankClass    string
	Name         string
	Image        string
	Hours        string
	Achievements int
	Progress     float64
	Gamerscore   int
}

type achievementView struct {
	Rank        int
	RarityClass string
	Name        string
	GameName    string
	Description string
	Icon        string
	Date        string
	Rarity      string
	Gamerscore  int
}

type reportView struct {
	Gamertag       string
	AvatarURL      string
	Description    string
	Hours          string
	Games          int
	Gamerscore     string
	Achievements   string
	TopGameName    string
	TopGameImage   string
	TopGameHours   string
	TopGames       []gameView
	Rarest         []achievementView
	Completed      []gameView
	CompletedCount int
	ChartLabels    template.JS
	ChartValues    template.JS
	SVGFile        string
	GeneratedAt    string
}

// ReportResult contains the paths of files created by WriteReport.
type ReportResult struct {
	HTMLPath string
	SVGPath  string
}

// RenderReport renders the lifetime review HTML page for a snapshot.
func RenderReport(doc *models.SnapshotDocument) ([]byte, error) {
	view, err := buildReportView(doc)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := reportTemplate.Execute(&buf, view); err != nil {
		return nil, fmt.Errorf("failed to render report: %w", err)
	}
	return buf.Bytes(), nil
}

// WriteReport renders the HTML report plus the SVG share card into the
// output directory. The fetcher resolves game art for the card; pass
// [FetchImageDataURI] for real downloads or nil to skip images.
func WriteReport(doc *models.SnapshotDocument, outputDir string, fetch ImageFetcher) (*ReportResult, error) {
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	htmlData, err := RenderReport(doc)
	if err != nil {
		return nil, err
	}
	htmlPath := filepath.Join(outputDir, fmt.Sprintf("lifetime_review_%s.html", doc.Profile.Gamertag))
	if err := os.WriteFile(htmlPath, htmlData, 0644); err != nil {
		return nil, fmt.Errorf("failed to write HTML report: %w", err)
	}

	svgData, err := RenderCard(doc, fetch)
	if err != nil {
		return nil, err
	}
	svgPath := filepath.Join(outputDir, fmt.Sprintf("share_%s.svg", doc.Profile.Gamertag))
	if err := os.WriteFile(svgPath, svgData, 0644); err != nil {
		return nil, fmt.Errorf("failed to write share card: %w", err)
	}

	return &ReportResult{HTMLPath: htmlPath, SVGPath: svgPath}, nil
}

func buildReportView(doc *models.SnapshotDocument) (*reportView, error) {
	top10 := doc.TopGames(10)

	view := &reportView{
		Gamertag:       doc.Profile.Gamertag,
		AvatarURL:      doc.Profile.AvatarURL,
		Hours:          shared.FormatHours(doc.Statistics.TotalHours),
		Games:          doc.Statistics.TotalGames,
		Gamerscore:     shared.FormatNumber(doc.Profile.Gamerscore),
		Achievements:   shared.FormatNumber(doc.Statistics.TotalAchievements),
		CompletedCount: doc.Statistics.CompletedGames,
		SVGFile:        fmt.Sprintf("share_%s.svg", doc.Profile.Gamertag),
		GeneratedAt:    time.Now().Format("02/01/2006"),
	}
	view.Description = fmt.Sprintf("%s - %sh jogadas, %d jogos, %s conquistas",
		view.Gamertag, view.Hours, view.Games, view.Achievements)

	if len(top10) > 0 {
		view.TopGameName = top10[0].Name
		view.TopGameImage = top10[0].Image
		view.TopGameHours = shared.FormatHours(top10[0].HoursPlayed)
	}

	rankClasses := map[int]string{1: "gold", 2: "silver", 3: "bronze"}
	for i, g := range top10 {
		view.TopGames = append(view.TopGames, gameView{
			Rank:         i + 1,
			RankClass:    rankClasses[i+1],
			Name:         g.Name,
			Image:        g.Image,
			Hours:        shared.FormatHours(g.HoursPlayed),
			Achievements: g.AchievementsUnlocked,
			Progress:     g.ProgressPercent,
		})
	}

	for i, a := range doc.RarestUnlocked(10, 0.01, 50) {
		view.Rarest = append(view.Rarest, achievementView{
			Rank:        i + 1,
			RarityClass: rarityClass(a.RarityPercent),
			Name:        a.Name,
			GameName:    a.GameName,
			Description: truncate(a.Description, 60),
			Icon:        a.Icon,
			Date:        formatDate(a.TimeUnlocked),
			Rarity:      fmt.Sprintf("%.1f", a.RarityPercent),
			Gamerscore:  a.Gamerscore,
		})
	}

	for _, g := range doc.CompletedGames(20) {
		view.Completed = append(view.Completed, gameView{
			Name:       g.Name,
			Image:      g.Image,
			Hours:      shared.FormatHours(g.HoursPlayed),
			Gamerscore: g.CurrentGamerscore,
		})
	}

	labels, values := chartData(doc.AchievementsByMonth)
	labelsJSON, err := shared.MarshalJSON(labels, false)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal chart labels: %w", err)
	}
	valuesJSON, err := shared.MarshalJSON(values, false)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal chart values: %w", err)
	}
	view.ChartLabels = template.JS(labelsJSON)
	view.ChartValues = template.JS(valuesJSON)

	return view, nil
}

func rarityClass(pct float64) string {
	switch {
	case pct < legendaryBelow:
		return "legendary"
	case pct < epicBelow:
		return "epic"
	case pct < rareBelow:
		return "rare"
	default:
		return ""
	}
}

// chartData turns the monthly achievement buckets into chronologically
// ordered chart labels ("Jan/23") and values.
func chartData(byMonth map[string]int) ([]string, []int) {
	months := make([]string, 0, len(byMonth))
	for m := range byMonth {
		if len(m) == 7 && m[4] == '-' {
			months = append(months, m)
		}
	}
	sort.Strings(months)

	labels := make([]string, 0, len(months))
	values := make([]int, 0, len(months))
	for _, m := range months {
		if t, err := time.Parse("2006-01", m); err == nil {
			labels = append(labels, t.Format("Jan/06"))
		} else {
			labels = append(labels, m)
		}
		values = append(values, byMonth[m])
	}
	return labels, values
}
