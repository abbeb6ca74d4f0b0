// package tasks implements the snapshot build pipeline.
//
// The core abstraction is SnapshotEngine, which orchestrates the Xbox Live
// fetches (profile, title history, playtime, achievements), aggregates them
// into a [models.SnapshotDocument], and writes the snapshot files.
// Operations emit progress updates via channels for non-blocking status
// reporting to CLI/UI layers.
package tasks

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/desertthunder/xbr/internal/models"
	"github.com/desertthunder/xbr/internal/services"
	"github.com/desertthunder/xbr/internal/shared"
	"golang.org/x/time/rate"
)

// Rarity window for the rarest-achievements list. Zero percentages mean the
// endpoint has no rarity data for the achievement yet.
const (
	minRarityPercent = 0.01
	maxRarityPercent = 100.0
	rarestCount      = 50
)

// BuildOpts contains configuration for a snapshot build.
type BuildOpts struct {
	Gamertag   string  // Target gamertag; empty means the signed-in account
	OutputDir  string  // Snapshot output directory (default: ./output)
	MaxGames   int     // Titles considered for the achievements pass (default: 100)
	NumWorkers int     // Concurrent achievement fetchers (default: 5)
	RateLimit  float64 // Achievement fetches per second (default: 5)
}

// BuildResult contains everything produced by a snapshot build.
type BuildResult struct {
	Document     *models.SnapshotDocument
	SnapshotPath string
	LatestPath   string
	Warnings     []string
}

// achievementJob is one title queued for the achievements pass.
type achievementJob struct {
	index int
	title models.Title
}

// achievementResult is the outcome of fetching one title's achievements.
type achievementResult struct {
	title        models.Title
	achievements []models.Achievement
	err          error
}

// SnapshotBuilder defines the snapshot build operation.
type SnapshotBuilder interface {
	// Build fetches an account's lifetime data and writes the snapshot files.
	Build(ctx context.Context, progress chan<- ProgressUpdate, opts BuildOpts) (*BuildResult, error)
}

// SnapshotEngine implements SnapshotBuilder against the Xbox Live APIs.
//
// Profile and title history failures abort the build; playtime and
// achievement failures degrade it, recorded as warnings on the document.
type SnapshotEngine struct {
	client   services.XboxClient
	artifact *models.TokenArtifact
}

// NewSnapshotEngine creates an engine for the signed-in account.
func NewSnapshotEngine(client services.XboxClient, artifact *models.TokenArtifact) *SnapshotEngine {
	return &SnapshotEngine{
		client:   client,
		artifact: artifact,
	}
}

// sendProgress sends a progress update through the channel without blocking.
// Uses select with default to ensure progress reporting never blocks execution.
func (e *SnapshotEngine) sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
		// Sent successfully
	default:
		// Channel full or closed, skip this update
	}
}

// Build runs the full snapshot pipeline and writes the snapshot files.
func (e *SnapshotEngine) Build(ctx context.Context, progress chan<- ProgressUpdate, opts BuildOpts) (*BuildResult, error) {
	if e.client == nil {
		return nil, fmt.Errorf("%w: Xbox client not initialized", shared.ErrServiceUnavailable)
	}

	if opts.OutputDir == "" {
		opts.OutputDir = "output"
	}
	if opts.MaxGames <= 0 {
		opts.MaxGames = 100
	}
	if opts.NumWorkers <= 0 {
		opts.NumWorkers = 5
	}
	if opts.NumWorkers > 10 {
		opts.NumWorkers = 10
	}
	if opts.RateLimit <= 0 {
		opts.RateLimit = 5.0
	}

	xuid, err := e.resolveTarget(ctx, progress, opts.Gamertag)
	if err != nil {
		return nil, err
	}

	doc, err := e.buildDocument(ctx, progress, xuid, opts)
	if err != nil {
		return nil, err
	}

	snapshotPath, latestPath, err := WriteSnapshotFiles(doc, opts.OutputDir)
	if err != nil {
		return nil, err
	}
	e.sendProgress(progress, writeSnapshotUpdate(snapshotPath))

	return &BuildResult{
		Document:     doc,
		SnapshotPath: snapshotPath,
		LatestPath:   latestPath,
		Warnings:     doc.Warnings,
	}, nil
}

// resolveTarget determines the XUID to snapshot: the signed-in account by
// default, or a gamertag lookup when one is supplied.
func (e *SnapshotEngine) resolveTarget(ctx context.Context, progress chan<- ProgressUpdate, gamertag string) (string, error) {
	if gamertag == "" || (e.artifact != nil && gamertag == e.artifact.Gamertag) {
		if e.artifact == nil || e.artifact.XUID == "" {
			return "", fmt.Errorf("%w: no signed-in account", shared.ErrNotAuthenticated)
		}
		return e.artifact.XUID, nil
	}

	e.sendProgress(progress, resolveTargetUpdate(gamertag))
	xuid, err := e.client.ResolveXUID(ctx, gamertag)
	if err != nil {
		return "", err
	}
	return xuid, nil
}

// buildDocument runs the fetch and aggregation passes for one XUID.
func (e *SnapshotEngine) buildDocument(ctx context.Context, progress chan<- ProgressUpdate, xuid string, opts BuildOpts) (*models.SnapshotDocument, error) {
	var warnings []string

	e.sendProgress(progress, fetchProfileUpdate())
	profile, err := e.client.GetProfile(ctx, xuid)
	if err != nil {
		return nil, fmt.Errorf("%w: profile fetch failed: %v", shared.ErrSnapshotFailed, err)
	}
	e.sendProgress(progress, foundProfileUpdate(profile))

	e.sendProgress(progress, fetchTitlesUpdate())
	titles, err := e.client.GetTitleHistory(ctx, xuid)
	if err != nil {
		return nil, fmt.Errorf("%w: title history fetch failed: %v", shared.ErrSnapshotFailed, err)
	}
	e.sendProgress(progress, foundTitlesUpdate(len(titles)))

	// The endpoint returns most recently played first; the cap keeps the
	// achievements pass bounded on large libraries.
	if len(titles) > opts.MaxGames {
		titles = titles[:opts.MaxGames]
	}

	titleIDs := make([]string, len(titles))
	for i, t := range titles {
		titleIDs[i] = t.ID
	}

	e.sendProgress(progress, fetchStatsUpdate(1, 1))
	minutes, err := e.client.GetStats(ctx, xuid, titleIDs)
	if err != nil {
		if errors.Is(err, shared.ErrTokenExpired) {
			return nil, err
		}
		warnings = append(warnings, fmt.Sprintf("playtime unavailable: %v", err))
		minutes = map[string]int{}
	}
	for i := range titles {
		titles[i].HoursPlayed = roundHours(minutes[titles[i].ID])
	}

	e.sendProgress(progress, startAchievementsUpdate(len(titles)))
	achievements, achievementWarnings, err := e.fetchAchievements(ctx, progress, xuid, titles, opts)
	if err != nil {
		return nil, err
	}
	warnings = append(warnings, achievementWarnings...)

	e.sendProgress(progress, aggregateUpdate())
	doc := aggregate(profile, titles, achievements)
	doc.Warnings = warnings
	return doc, nil
}

// fetchAchievements runs the per-title achievements pass through a rate
// limited worker pool. Individual title failures become warnings; an expired
// ticket aborts the build.
func (e *SnapshotEngine) fetchAchievements(
	ctx context.Context,
	progress chan<- ProgressUpdate,
	xuid string,
	titles []models.Title,
	opts BuildOpts,
) ([]models.Achievement, []string, error) {
	limiter := rate.NewLimiter(rate.Limit(opts.RateLimit), 1)

	jobs := make(chan achievementJob, len(titles))
	results := make(chan achievementResult, len(titles))

	var wg sync.WaitGroup
	for i := 0; i < opts.NumWorkers; i++ {
		wg.Add(1)
		go e.achievementWorker(ctx, &wg, limiter, xuid, jobs, results)
	}

	for i, title := range titles {
		jobs <- achievementJob{index: i, title: title}
	}
	close(jobs)

	go func() {
		wg.Wait()
		close(results)
	}()

	var (
		all      []models.Achievement
		warnings []string
		fatal    error
	)

	completed := 0
	for res := range results {
		completed++

		if res.err != nil {
			if errors.Is(res.err, shared.ErrTokenExpired) && fatal == nil {
				fatal = res.err
			}
			warnings = append(warnings, fmt.Sprintf("achievements unavailable for %s: %v", res.title.Name, res.err))
			e.sendProgress(progress, achievementsFailedUpdate(completed, len(titles), res.title.Name, res.err))
			continue
		}

		for _, a := range res.achievements {
			a.GameName = res.title.Name
			a.GameImage = res.title.Image
			all = append(all, a)
		}
		e.sendProgress(progress, fetchAchievementsUpdate(completed, len(titles), res.title.Name))
	}

	if fatal != nil {
		return nil, nil, fatal
	}
	return all, warnings, nil
}

// achievementWorker is a worker goroutine that fetches achievements for
// titles from the jobs channel.
func (e *SnapshotEngine) achievementWorker(
	ctx context.Context,
	wg *sync.WaitGroup,
	limiter *rate.Limiter,
	xuid string,
	jobs <-chan achievementJob,
	results chan<- achievementResult,
) {
	defer wg.Done()

	for job := range jobs {
		if err := limiter.Wait(ctx); err != nil {
			results <- achievementResult{title: job.title, err: err}
			continue
		}

		achievements, err := e.client.GetAchievements(ctx, xuid, job.title.ID)
		results <- achievementResult{
			title:        job.title,
			achievements: achievements,
			err:          err,
		}
	}
}

// aggregate computes the lifetime statistics, yearly buckets, and rarity
// list from the fetched data.
func aggregate(profile *models.Profile, titles []models.Title, achievements []models.Achievement) *models.SnapshotDocument {
	stats := models.Statistics{TotalGames: len(titles)}
	byYear := make(map[string]models.YearStats)

	for _, t := range titles {
		stats.TotalHours += t.HoursPlayed
		stats.TotalAchievements += t.AchievementsUnlocked
		stats.TotalGamerscoreEarned += t.CurrentGamerscore
		if t.Completed() {
			stats.CompletedGames++
		}

		year := shared.YearOf(t.LastPlayed)
		if year == "" {
			continue
		}
		bucket := byYear[year]
		bucket.Games++
		bucket.Hours += t.HoursPlayed
		if t.Completed() {
			bucket.Completed++
		}
		byYear[year] = bucket
	}

	byMonth := make(map[string]int)
	for _, a := range achievements {
		if month := shared.MonthKeyOf(a.TimeUnlocked); month != "" {
			byMonth[month]++
		}
		year := shared.YearOf(a.TimeUnlocked)
		if year == "" {
			continue
		}
		bucket := byYear[year]
		bucket.Achievements++
		bucket.Gamerscore += a.Gamerscore
		byYear[year] = bucket
	}

	sort.SliceStable(achievements, func(i, j int) bool {
		return achievements[i].TimeUnlocked > achievements[j].TimeUnlocked
	})

	doc := &models.SnapshotDocument{
		SnapshotDate:        time.Now().UTC().Format(time.RFC3339),
		Profile:             *profile,
		Statistics:          stats,
		ByYear:              byYear,
		AchievementsByMonth: byMonth,
		Games:               titles,
		Achievements:        achievements,
	}
	doc.RarestAchievements = doc.RarestUnlocked(rarestCount, minRarityPercent, maxRarityPercent)
	return doc
}

// roundHours converts minutes to hours with one decimal of precision.
func roundHours(minutes int) float64 {
	return math.Round(float64(minutes)/60*10) / 10
}
