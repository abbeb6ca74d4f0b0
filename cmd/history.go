package main

import (
	"context"

	"github.com/desertthunder/xbr/internal/repositories"
	"github.com/desertthunder/xbr/internal/shared"
	"github.com/urfave/cli/v3"
)

// HistoryList lists recorded snapshots, newest first.
func (r *Runner) HistoryList(ctx context.Context, cmd *cli.Command) error {
	gamertag := cmd.String("gamertag")
	limit := int(cmd.Int("limit"))

	db, err := r.openDatabase()
	if err != nil {
		return err
	}
	defer db.Close()

	repo := repositories.NewSnapshotRepository(db)
	records, err := repo.List(map[string]any{"gamertag": gamertag, "limit": limit})
	if err != nil {
		return err
	}

	if len(records) == 0 {
		r.writePlain("No snapshots recorded yet. Run 'xbr snapshot build' first.\n")
		return nil
	}

	r.writePlainHeader("Snapshot History")
	for _, record := range records {
		stats := record.Stats()
		r.writePlain("#%d  %s  %s\n", record.Sequence(), record.Gamertag(), record.CreatedAt().Format("2006-01-02 15:04"))
		r.writePlain("     %d games, %sh, %s achievements",
			stats.TotalGames, shared.FormatHours(stats.TotalHours), shared.FormatNumber(stats.TotalAchievements))
		if record.WarningCount() > 0 {
			r.writePlain(" (%d warnings)", record.WarningCount())
		}
		r.writePlain("\n     %s\n", record.SnapshotPath())
	}
	return nil
}
