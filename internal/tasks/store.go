package tasks

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/desertthunder/xbr/internal/models"
	"github.com/desertthunder/xbr/internal/shared"
)

// WriteSnapshotFiles writes a snapshot document to the output directory as a
// timestamped file plus a stable "latest" file, and returns both paths.
//
// Each file is written to a temp file and renamed into place so that readers
// of the latest file never observe a partial document.
func WriteSnapshotFiles(doc *models.SnapshotDocument, outputDir string) (string, string, error) {
	if doc.Profile.Gamertag == "" {
		return "", "", fmt.Errorf("%w: document has no gamertag", shared.ErrSnapshotFailed)
	}

	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return "", "", fmt.Errorf("failed to create output directory: %w", err)
	}

	data, err := shared.MarshalJSON(doc, true)
	if err != nil {
		return "", "", fmt.Errorf("failed to marshal snapshot: %w", err)
	}

	slug := gamertagSlug(doc.Profile.Gamertag)
	stamp := time.Now().Format("20060102_150405")

	snapshotPath := filepath.Join(outputDir, fmt.Sprintf("achievements_snapshot_%s_%s.json", slug, stamp))
	latestPath := filepath.Join(outputDir, fmt.Sprintf("achievements_snapshot_%s_latest.json", slug))

	if err := writeAtomic(snapshotPath, data); err != nil {
		return "", "", err
	}
	if err := writeAtomic(latestPath, data); err != nil {
		return "", "", err
	}
	return snapshotPath, latestPath, nil
}

// LoadSnapshot reads and parses a snapshot document from disk.
func LoadSnapshot(path string) (*models.SnapshotDocument, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", shared.ErrSnapshotNotFound, path)
		}
		return nil, fmt.Errorf("failed to read snapshot: %w", err)
	}

	var doc models.SnapshotDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse snapshot: %w", err)
	}
	return &doc, nil
}

// LatestSnapshotPath returns the stable latest-file path for a gamertag.
func LatestSnapshotPath(outputDir, gamertag string) string {
	return filepath.Join(outputDir, fmt.Sprintf("achievements_snapshot_%s_latest.json", gamertagSlug(gamertag)))
}

// writeAtomic writes data via a temp file in the same directory and renames
// it over the target.
func writeAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".snapshot-*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to write snapshot: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to close snapshot file: %w", err)
	}

	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to move snapshot into place: %w", err)
	}
	return nil
}

// gamertagSlug makes a gamertag safe for use in filenames.
func gamertagSlug(gamertag string) string {
	slug := strings.ToLower(gamertag)
	slug = strings.ReplaceAll(slug, " ", "_")
	slug = strings.ReplaceAll(slug, "/", "_")
	return slug
}
