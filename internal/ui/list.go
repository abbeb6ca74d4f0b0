package ui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/list"
	"github.com/desertthunder/xbr/internal/models"
	"github.com/desertthunder/xbr/internal/shared"
)

var (
	_ list.Item = snapshotItem{}
)

// snapshotItem wraps [models.SnapshotRecord] to implement [list.Item].
type snapshotItem struct {
	record *models.SnapshotRecord
}

func (i snapshotItem) FilterValue() string { return i.record.Gamertag() }
func (i snapshotItem) Title() string {
	return fmt.Sprintf("#%d %s — %s", i.record.Sequence(), i.record.Gamertag(), i.record.CreatedAt().Format("2006-01-02 15:04"))
}
func (i snapshotItem) Description() string {
	stats := i.record.Stats()
	desc := fmt.Sprintf("%d games • %sh • %s achievements",
		stats.TotalGames, shared.FormatHours(stats.TotalHours), shared.FormatNumber(stats.TotalAchievements))
	if i.record.WarningCount() > 0 {
		desc = fmt.Sprintf("%s • %d warnings", desc, i.record.WarningCount())
	}
	return desc
}
