// Package sqlite provides the SQLite-backed implementation of the catalog
// store port.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/mattn/go-sqlite3"

	"github.com/Shima-Rai/melixa/internal/core/domain"
	"github.com/Shima-Rai/melixa/internal/core/ports"
)

// Adapter implements ports.CatalogStore on a SQLite database.
type Adapter struct {
	db *sql.DB
}

var _ ports.CatalogStore = (*Adapter)(nil)

// NewAdapter opens the database and runs the schema migration.
func NewAdapter(storagePath string) (*Adapter, error) {
	db, err := sql.Open("sqlite3", storagePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite db: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping sqlite db: %w", err)
	}

	a := &Adapter{db: db}
	if err := a.migrate(); err != nil {
		return nil, fmt.Errorf("migration failed: %w", err)
	}

	return a, nil
}

// Close releases the database connection.
func (a *Adapter) Close() error {
	return a.db.Close()
}

func (a *Adapter) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS tracks (
		id                TEXT PRIMARY KEY,
		source_path       TEXT NOT NULL UNIQUE,
		mood              TEXT NOT NULL,
		tempo             REAL NOT NULL,
		tempo_variance    REAL NOT NULL,
		energy            REAL NOT NULL,
		energy_variance   REAL NOT NULL,
		spectral_centroid REAL,
		prob_calm         REAL NOT NULL DEFAULT 0,
		prob_energetic    REAL NOT NULL DEFAULT 0,
		prob_happy        REAL NOT NULL DEFAULT 0,
		prob_sad          REAL NOT NULL DEFAULT 0,
		play_count        INTEGER NOT NULL DEFAULT 0,
		created_at        TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at        TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
	);
	CREATE INDEX IF NOT EXISTS idx_tracks_mood ON tracks(mood);
	`
	if _, err := a.db.Exec(schema); err != nil {
		return err
	}
	return nil
}

const trackColumns = `id, source_path, mood, tempo, tempo_variance, energy, energy_variance,
	spectral_centroid, prob_calm, prob_energetic, prob_happy, prob_sad, play_count`

// Upsert inserts or updates the record keyed by source path. Re-ingesting an
// asset overwrites its feature values but keeps the assigned id and play
// count. The record must pass validation before it touches storage.
func (a *Adapter) Upsert(ctx context.Context, sourcePath string, rec domain.FeatureRecord) (domain.FeatureRecord, error) {
	if err := rec.Validate(); err != nil {
		return domain.FeatureRecord{}, err
	}

	var centroid sql.NullFloat64
	if rec.SpectralCentroid != nil {
		centroid = sql.NullFloat64{Float64: *rec.SpectralCentroid, Valid: true}
	}

	query := `
	INSERT INTO tracks (
		id, source_path, mood, tempo, tempo_variance, energy, energy_variance,
		spectral_centroid, prob_calm, prob_energetic, prob_happy, prob_sad
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(source_path) DO UPDATE SET
		mood              = excluded.mood,
		tempo             = excluded.tempo,
		tempo_variance    = excluded.tempo_variance,
		energy            = excluded.energy,
		energy_variance   = excluded.energy_variance,
		spectral_centroid = excluded.spectral_centroid,
		prob_calm         = excluded.prob_calm,
		prob_energetic    = excluded.prob_energetic,
		prob_happy        = excluded.prob_happy,
		prob_sad          = excluded.prob_sad,
		updated_at        = CURRENT_TIMESTAMP
	`
	if _, err := a.db.ExecContext(
		ctx,
		query,
		uuid.NewString(),
		sourcePath,
		string(rec.Mood),
		rec.Tempo,
		rec.TempoVariance,
		rec.Energy,
		rec.EnergyVariance,
		centroid,
		rec.MoodProbabilities[domain.MoodCalm],
		rec.MoodProbabilities[domain.MoodEnergetic],
		rec.MoodProbabilities[domain.MoodHappy],
		rec.MoodProbabilities[domain.MoodSad],
	); err != nil {
		return domain.FeatureRecord{}, mapSQLiteError("failed to upsert track", err)
	}

	row := a.db.QueryRowContext(ctx,
		"SELECT "+trackColumns+" FROM tracks WHERE source_path = ?", sourcePath)
	persisted, err := scanTrack(row)
	if err != nil {
		return domain.FeatureRecord{}, fmt.Errorf("failed to load upserted track: %w", err)
	}
	return persisted, nil
}

// GetByID loads one record, domain.ErrNotFound when the id is unknown.
func (a *Adapter) GetByID(ctx context.Context, id string) (domain.FeatureRecord, error) {
	row := a.db.QueryRowContext(ctx,
		"SELECT "+trackColumns+" FROM tracks WHERE id = ?", id)
	rec, err := scanTrack(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.FeatureRecord{}, domain.ErrNotFound
		}
		return domain.FeatureRecord{}, fmt.Errorf("failed to load track: %w", err)
	}
	return rec, nil
}

// ListAll returns the catalog in stable insertion order.
func (a *Adapter) ListAll(ctx context.Context) ([]domain.FeatureRecord, error) {
	// rowid, not created_at: CURRENT_TIMESTAMP has second granularity and
	// would tie for rapid ingests.
	rows, err := a.db.QueryContext(ctx,
		"SELECT "+trackColumns+" FROM tracks ORDER BY rowid ASC")
	if err != nil {
		return nil, fmt.Errorf("failed to list tracks: %w", err)
	}
	defer rows.Close()

	records := []domain.FeatureRecord{}
	for rows.Next() {
		rec, err := scanTrack(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan track: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate tracks: %w", err)
	}
	return records, nil
}

// IncrementPlayCount bumps the counter and returns the new value.
func (a *Adapter) IncrementPlayCount(ctx context.Context, id string) (int, error) {
	res, err := a.db.ExecContext(ctx,
		"UPDATE tracks SET play_count = play_count + 1 WHERE id = ?", id)
	if err != nil {
		return 0, fmt.Errorf("failed to update play count: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to update play count: %w", err)
	}
	if affected == 0 {
		return 0, domain.ErrNotFound
	}

	var count int
	if err := a.db.QueryRowContext(ctx,
		"SELECT play_count FROM tracks WHERE id = ?", id).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to load play count: %w", err)
	}
	return count, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTrack(row rowScanner) (domain.FeatureRecord, error) {
	var rec domain.FeatureRecord
	var mood string
	var centroid sql.NullFloat64
	var pCalm, pEnergetic, pHappy, pSad float64

	if err := row.Scan(
		&rec.ID,
		&rec.SourcePath,
		&mood,
		&rec.Tempo,
		&rec.TempoVariance,
		&rec.Energy,
		&rec.EnergyVariance,
		&centroid,
		&pCalm,
		&pEnergetic,
		&pHappy,
		&pSad,
		&rec.PlayCount,
	); err != nil {
		return domain.FeatureRecord{}, err
	}

	rec.Mood = domain.Mood(mood)
	if centroid.Valid {
		rec.SpectralCentroid = &centroid.Float64
	}
	rec.MoodProbabilities = map[domain.Mood]float64{
		domain.MoodCalm:      pCalm,
		domain.MoodEnergetic: pEnergetic,
		domain.MoodHappy:     pHappy,
		domain.MoodSad:       pSad,
	}
	return rec, nil
}

// mapSQLiteError surfaces constraint violations as the domain conflict
// sentinel; everything else is wrapped as-is.
func mapSQLiteError(msg string, err error) error {
	var serr sqlite3.Error
	if errors.As(err, &serr) && serr.Code == sqlite3.ErrConstraint {
		return fmt.Errorf("%s: %w: %v", msg, domain.ErrConflict, err)
	}
	return fmt.Errorf("%s: %w", msg, err)
}
