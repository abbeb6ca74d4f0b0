package tasks

import (
	"fmt"

	"github.com/desertthunder/xbr/internal/models"
)

// ProgressUpdate represents a progress event during a snapshot build.
//
// Used to send real-time updates to the CLI or UI layer for display.
type ProgressUpdate struct {
	Phase   Phase  // Operation phase
	Step    int    // Current step number within phase
	Total   int    // Total steps in this phase
	Message string // Human-readable message for display
	Data    any    // Optional phase-specific data for advanced UIs
}

// Operation phase enumeration
type Phase int

const (
	ResolveTarget Phase = iota
	FetchProfile
	FetchTitles
	FetchStats
	FetchAchievements
	Aggregate
	WriteSnapshot
)

func (p Phase) String() string {
	switch p {
	case ResolveTarget:
		return "resolve_target"
	case FetchProfile:
		return "fetch_profile"
	case FetchTitles:
		return "fetch_titles"
	case FetchStats:
		return "fetch_stats"
	case FetchAchievements:
		return "fetch_achievements"
	case Aggregate:
		return "aggregate"
	case WriteSnapshot:
		return "write_snapshot"
	default:
		return ""
	}
}

func resolveTargetUpdate(gamertag string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ResolveTarget,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Resolving gamertag %s...", gamertag),
	}
}

func fetchProfileUpdate() ProgressUpdate {
	return ProgressUpdate{
		Phase:   FetchProfile,
		Step:    1,
		Total:   1,
		Message: "Fetching profile...",
	}
}

func foundProfileUpdate(profile *models.Profile) ProgressUpdate {
	return ProgressUpdate{
		Phase:   FetchProfile,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Found %s (%d G)", profile.Gamertag, profile.Gamerscore),
		Data:    profile,
	}
}

func fetchTitlesUpdate() ProgressUpdate {
	return ProgressUpdate{
		Phase:   FetchTitles,
		Step:    1,
		Total:   1,
		Message: "Fetching game history...",
	}
}

func foundTitlesUpdate(count int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   FetchTitles,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Found %d games", count),
	}
}

func fetchStatsUpdate(batch, totalBatches int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   FetchStats,
		Step:    batch,
		Total:   totalBatches,
		Message: "Fetching playtime statistics...",
	}
}

func startAchievementsUpdate(total int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   FetchAchievements,
		Step:    0,
		Total:   total,
		Message: fmt.Sprintf("Fetching achievements for %d games...", total),
	}
}

func fetchAchievementsUpdate(step, total int, name string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   FetchAchievements,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] %s", step, total, name),
	}
}

func achievementsFailedUpdate(step, total int, name string, err error) ProgressUpdate {
	return ProgressUpdate{
		Phase:   FetchAchievements,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] ✗ %s: %v", step, total, name, err),
	}
}

func aggregateUpdate() ProgressUpdate {
	return ProgressUpdate{
		Phase:   Aggregate,
		Step:    1,
		Total:   1,
		Message: "Aggregating lifetime statistics...",
	}
}

func writeSnapshotUpdate(path string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   WriteSnapshot,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Snapshot written to %s", path),
	}
}
