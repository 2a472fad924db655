// Package services wires the domain logic to the catalog store for callers
// at the edges (HTTP, CLI).
package services

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/Shima-Rai/melixa/internal/core/domain"
	"github.com/Shima-Rai/melixa/internal/core/ports"
)

// Catalog answers queries over the persisted feature records. The store is
// injected and owned by the caller; the service never opens or closes it.
type Catalog struct {
	store  ports.CatalogStore
	logger zerolog.Logger
}

// NewCatalog constructs a Catalog service.
func NewCatalog(store ports.CatalogStore, logger zerolog.Logger) *Catalog {
	return &Catalog{
		store:  store,
		logger: logger.With().Str("component", "catalog").Logger(),
	}
}

// Track loads one record by id.
func (c *Catalog) Track(ctx context.Context, id string) (domain.FeatureRecord, error) {
	rec, err := c.store.GetByID(ctx, id)
	if err != nil {
		return domain.FeatureRecord{}, fmt.Errorf("service: failed to load track: %w", err)
	}
	return rec, nil
}

// Tracks lists the whole catalog in store order.
func (c *Catalog) Tracks(ctx context.Context) ([]domain.FeatureRecord, error) {
	recs, err := c.store.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("service: failed to list tracks: %w", err)
	}
	return recs, nil
}

// SimilarTracks ranks the catalog against the reference record.
func (c *Catalog) SimilarTracks(ctx context.Context, id string, opts domain.RecommendOptions) ([]domain.Recommendation, error) {
	ref, err := c.store.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("service: failed to load reference track: %w", err)
	}

	catalog, err := c.store.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("service: failed to list catalog: %w", err)
	}

	recs, err := domain.Recommend(ref, catalog, opts)
	if err != nil {
		return nil, fmt.Errorf("service: recommendation failed: %w", err)
	}

	c.logger.Debug().
		Str("reference", id).
		Int("candidates", len(catalog)).
		Int("results", len(recs)).
		Msg("similar tracks ranked")

	return recs, nil
}

// RecordPlay bumps the play counter and returns the new value.
func (c *Catalog) RecordPlay(ctx context.Context, id string) (int, error) {
	count, err := c.store.IncrementPlayCount(ctx, id)
	if err != nil {
		return 0, fmt.Errorf("service: failed to record play: %w", err)
	}
	return count, nil
}
