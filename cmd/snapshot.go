package main

import (
	"context"

	"github.com/desertthunder/xbr/internal/models"
	"github.com/desertthunder/xbr/internal/repositories"
	"github.com/desertthunder/xbr/internal/shared"
	"github.com/desertthunder/xbr/internal/tasks"
	"github.com/urfave/cli/v3"
)

// SnapshotBuild fetches an account's lifetime data and writes the snapshot files.
func (r *Runner) SnapshotBuild(ctx context.Context, cmd *cli.Command) error {
	target := cmd.StringArg("gamertag")

	api, artifact, err := r.apiClient(ctx, r.devicePrompt())
	if err != nil {
		return err
	}

	opts := tasks.BuildOpts{
		Gamertag:   target,
		OutputDir:  r.config.Storage.OutputDir,
		MaxGames:   r.config.API.MaxGames,
		NumWorkers: r.config.API.NumWorkers,
		RateLimit:  r.config.API.RateLimit,
	}
	if cmd.IsSet("max-games") {
		opts.MaxGames = int(cmd.Int("max-games"))
	}
	if cmd.String("output") != "" {
		opts.OutputDir = cmd.String("output")
	}
	if cmd.IsSet("workers") {
		opts.NumWorkers = int(cmd.Int("workers"))
	}
	if cmd.IsSet("rate") {
		opts.RateLimit = cmd.Float("rate")
	}

	r.logger.Info("building snapshot", "gamertag", artifact.Gamertag, "target", target)
	r.writePlain("Building lifetime snapshot...\n\n")

	// Progress goroutine mirrors the engine phases on the console
	progressCh := make(chan tasks.ProgressUpdate, 50)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for update := range progressCh {
			switch update.Phase {
			case tasks.ResolveTarget:
				r.writePlain("🎯 %s\n", update.Message)
			case tasks.FetchProfile:
				r.writePlain("👤 %s\n", update.Message)
			case tasks.FetchTitles:
				r.writePlain("🎮 %s\n", update.Message)
			case tasks.FetchStats:
				if update.Step <= 1 {
					r.writePlain("⏱  %s\n", update.Message)
				}
			case tasks.FetchAchievements:
				if update.Step == 0 {
					r.writePlain("🏆 %s\n", update.Message)
				} else {
					r.writePlain("   %s\n", update.Message)
				}
			case tasks.Aggregate:
				r.writePlain("📊 %s\n", update.Message)
			case tasks.WriteSnapshot:
				r.writePlain("💾 %s\n", update.Message)
			}
		}
	}()

	engine := tasks.NewSnapshotEngine(api, artifact)
	result, err := engine.Build(ctx, progressCh, opts)
	close(progressCh)
	<-done

	if err != nil {
		return err
	}

	doc := result.Document
	r.writePlain("\n")
	r.writePlainHeader("Snapshot Complete!")
	r.writePlain("Gamertag: %s\n", doc.Profile.Gamertag)
	r.writePlain("Games: %d (%d completed)\n", doc.Statistics.TotalGames, doc.Statistics.CompletedGames)
	r.writePlain("Hours played: %sh\n", shared.FormatHours(doc.Statistics.TotalHours))
	r.writePlain("Achievements: %s\n", shared.FormatNumber(doc.Statistics.TotalAchievements))
	r.writePlain("Gamerscore: %sG\n", shared.FormatNumber(doc.Profile.Gamerscore))
	r.writePlain("\nSnapshot: %s\n", result.SnapshotPath)
	r.writePlain("Latest: %s\n", result.LatestPath)

	if len(result.Warnings) > 0 {
		r.writePlain("\n%d warnings:\n", len(result.Warnings))
		for _, warning := range result.Warnings {
			r.writePlain("  - %s\n", warning)
		}
	}

	r.recordSnapshot(result)

	r.writePlain("\nRun 'xbr render %s' to generate the report.\n", result.LatestPath)
	return nil
}

// recordSnapshot appends the build to the sqlite history. History is
// best-effort: failures log a warning and never fail the build.
func (r *Runner) recordSnapshot(result *tasks.BuildResult) {
	db, err := r.openDatabase()
	if err != nil {
		r.logger.Warn("skipping history record", "error", err)
		return
	}
	defer db.Close()

	repo := repositories.NewSnapshotRepository(db)
	record := models.NewSnapshotRecord(0, result.Document, result.SnapshotPath, result.LatestPath)
	if err := repo.Create(record); err != nil {
		r.logger.Warn("failed to record snapshot history", "error", err)
		return
	}
	r.logger.Info("snapshot recorded", "id", record.ID(), "sequence", record.Sequence())
}
