package repositories

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/desertthunder/xbr/internal/models"
	"github.com/desertthunder/xbr/internal/shared"
)

// SnapshotRepository implements [models.Repository] for [models.SnapshotRecord] persistence.
type SnapshotRepository struct {
	db *sql.DB
}

// NewSnapshotRepository creates a new [SnapshotRepository] with the given database connection
func NewSnapshotRepository(db *sql.DB) *SnapshotRepository {
	return &SnapshotRepository{db: db}
}

// Create inserts a new snapshot record with generated ID and sequence
func (r *SnapshotRepository) Create(record *models.SnapshotRecord) error {
	sequence, err := NextSequence(r.db, "snapshots")
	if err != nil {
		return fmt.Errorf("failed to generate sequence: %w", err)
	}

	id := shared.GenerateID()
	record.SetID(id)
	record.SetSequence(sequence)

	if err := record.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	query := `
		INSERT INTO snapshots (id, sequence, gamertag, xuid, snapshot_path, latest_path,
			total_games, total_achievements, total_hours, gamerscore, warning_count,
			created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	stats := record.Stats()
	_, err = r.db.Exec(query,
		id, sequence, record.Gamertag(), record.XUID(), record.SnapshotPath(), record.LatestPath(),
		stats.TotalGames, stats.TotalAchievements, stats.TotalHours, record.Gamerscore(), record.WarningCount(),
		record.CreatedAt(), record.UpdatedAt())
	if err != nil {
		return fmt.Errorf("failed to insert snapshot record: %w", err)
	}

	return nil
}

// Get retrieves a snapshot record by ID, excluding soft-deleted records
func (r *SnapshotRepository) Get(id string) (*models.SnapshotRecord, error) {
	query := `
		SELECT id, sequence, gamertag, xuid, snapshot_path, latest_path,
			total_games, total_achievements, total_hours, gamerscore, warning_count,
			created_at, updated_at, deleted_at
		FROM snapshots
		WHERE id = ? AND deleted_at IS NULL
	`

	record, err := scanRecord(r.db.QueryRow(query, id))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: snapshot record %s", shared.ErrSnapshotNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query snapshot record: %w", err)
	}
	return record, nil
}

// Update modifies an existing snapshot record
func (r *SnapshotRepository) Update(record *models.SnapshotRecord) error {
	if err := record.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	now := time.Now()
	record.SetUpdatedAt(now)

	query := `
		UPDATE snapshots
		SET snapshot_path = ?, latest_path = ?, total_games = ?, total_achievements = ?,
			total_hours = ?, gamerscore = ?, warning_count = ?, updated_at = ?
		WHERE id = ? AND deleted_at IS NULL
	`

	stats := record.Stats()
	result, err := r.db.Exec(query,
		record.SnapshotPath(), record.LatestPath(), stats.TotalGames, stats.TotalAchievements,
		stats.TotalHours, record.Gamerscore(), record.WarningCount(), now, record.ID())
	if err != nil {
		return fmt.Errorf("failed to update snapshot record: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("snapshot record not found or already deleted: %s", record.ID())
	}

	return nil
}

// Delete soft-deletes a snapshot record by ID
func (r *SnapshotRepository) Delete(id string) error {
	now := time.Now()

	query := `
		UPDATE snapshots
		SET deleted_at = ?
		WHERE id = ? AND deleted_at IS NULL
	`

	result, err := r.db.Exec(query, now, id)
	if err != nil {
		return fmt.Errorf("failed to delete snapshot record: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("snapshot record not found or already deleted: %s", id)
	}

	return nil
}

// List retrieves snapshot records matching the given criteria, newest first,
// excluding soft-deleted records. Supported criteria: "gamertag", "limit".
func (r *SnapshotRepository) List(criteria map[string]any) ([]*models.SnapshotRecord, error) {
	query := `
		SELECT id, sequence, gamertag, xuid, snapshot_path, latest_path,
			total_games, total_achievements, total_hours, gamerscore, warning_count,
			created_at, updated_at, deleted_at
		FROM snapshots
		WHERE deleted_at IS NULL
	`

	args := []any{}

	if gamertag, ok := criteria["gamertag"].(string); ok && gamertag != "" {
		query += " AND gamertag = ?"
		args = append(args, gamertag)
	}

	query += " ORDER BY sequence DESC"

	if limit, ok := criteria["limit"].(int); ok && limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query snapshot records: %w", err)
	}
	defer rows.Close()

	var records []*models.SnapshotRecord
	for rows.Next() {
		record, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan snapshot record: %w", err)
		}
		records = append(records, record)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return records, nil
}

// Latest returns the most recent record for a gamertag, or nil when none exists.
func (r *SnapshotRepository) Latest(gamertag string) (*models.SnapshotRecord, error) {
	records, err := r.List(map[string]any{"gamertag": gamertag, "limit": 1})
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, nil
	}
	return records[0], nil
}

// scanner abstracts sql.Row and sql.Rows for shared scanning.
type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(row scanner) (*models.SnapshotRecord, error) {
	var (
		id           string
		sequence     int
		gamertag     string
		xuid         string
		snapshotPath string
		latestPath   string
		totalGames   int
		totalAch     int
		totalHours   float64
		gamerscore   int
		warningCount int
		createdAt    time.Time
		updatedAt    time.Time
		deletedAt    sql.NullTime
	)

	err := row.Scan(&id, &sequence, &gamertag, &xuid, &snapshotPath, &latestPath,
		&totalGames, &totalAch, &totalHours, &gamerscore, &warningCount,
		&createdAt, &updatedAt, &deletedAt)
	if err != nil {
		return nil, err
	}

	stats := models.Statistics{
		TotalGames:        totalGames,
		TotalAchievements: totalAch,
		TotalHours:        totalHours,
	}

	record := models.RestoreSnapshotRecord(id, sequence, gamertag, xuid, snapshotPath, latestPath,
		stats, gamerscore, warningCount, createdAt, updatedAt)
	if deletedAt.Valid {
		record.SetDeletedAt(&deletedAt.Time)
	}

	return record, nil
}
