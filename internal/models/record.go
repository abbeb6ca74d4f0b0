package models

import (
	"fmt"
	"time"
)

// SnapshotRecord is the persisted history entry for a built snapshot.
// The snapshot content itself lives in the JSON file at SnapshotPath; the
// record only carries headline numbers for listing and browsing.
type SnapshotRecord struct {
	id           string
	sequence     int
	gamertag     string
	xuid         string
	snapshotPath string
	latestPath   string
	stats        Statistics
	gamerscore   int
	warningCount int
	createdAt    time.Time
	updatedAt    time.Time
	deletedAt    *time.Time
}

// NewSnapshotRecord creates a record for a freshly built snapshot document.
func NewSnapshotRecord(sequence int, doc *SnapshotDocument, snapshotPath, latestPath string) *SnapshotRecord {
	now := time.Now()
	return &SnapshotRecord{
		sequence:     sequence,
		gamertag:     doc.Profile.Gamertag,
		xuid:         doc.Profile.XUID,
		snapshotPath: snapshotPath,
		latestPath:   latestPath,
		stats:        doc.Statistics,
		gamerscore:   doc.Profile.Gamerscore,
		warningCount: len(doc.Warnings),
		createdAt:    now,
		updatedAt:    now,
	}
}

// RestoreSnapshotRecord rebuilds a record from database columns.
func RestoreSnapshotRecord(id string, sequence int, gamertag, xuid, snapshotPath, latestPath string, stats Statistics, gamerscore, warningCount int, createdAt, updatedAt time.Time) *SnapshotRecord {
	return &SnapshotRecord{
		id:           id,
		sequence:     sequence,
		gamertag:     gamertag,
		xuid:         xuid,
		snapshotPath: snapshotPath,
		latestPath:   latestPath,
		stats:        stats,
		gamerscore:   gamerscore,
		warningCount: warningCount,
		createdAt:    createdAt,
		updatedAt:    updatedAt,
	}
}

func (r *SnapshotRecord) ID() string            { return r.id }
func (r *SnapshotRecord) Sequence() int         { return r.sequence }
func (r *SnapshotRecord) Gamertag() string      { return r.gamertag }
func (r *SnapshotRecord) XUID() string          { return r.xuid }
func (r *SnapshotRecord) SnapshotPath() string  { return r.snapshotPath }
func (r *SnapshotRecord) LatestPath() string    { return r.latestPath }
func (r *SnapshotRecord) Stats() Statistics     { return r.stats }
func (r *SnapshotRecord) Gamerscore() int       { return r.gamerscore }
func (r *SnapshotRecord) WarningCount() int     { return r.warningCount }
func (r *SnapshotRecord) CreatedAt() time.Time  { return r.createdAt }
func (r *SnapshotRecord) UpdatedAt() time.Time  { return r.updatedAt }
func (r *SnapshotRecord) DeletedAt() *time.Time { return r.deletedAt }

func (r *SnapshotRecord) SetID(id string)           { r.id = id }
func (r *SnapshotRecord) SetSequence(n int)         { r.sequence = n }
func (r *SnapshotRecord) SetUpdatedAt(t time.Time)  { r.updatedAt = t }
func (r *SnapshotRecord) SetDeletedAt(t *time.Time) { r.deletedAt = t }
func (r *SnapshotRecord) SetCreatedAt(t time.Time)  { r.createdAt = t }

// Validate checks that the record identifies an account and a file on disk.
func (r *SnapshotRecord) Validate() error {
	if r.gamertag == "" {
		return fmt.Errorf("snapshot record requires a gamertag")
	}
	if r.snapshotPath == "" {
		return fmt.Errorf("snapshot record requires a snapshot path")
	}
	return nil
}
