package ports

import (
	"context"

	"github.com/Shima-Rai/melixa/internal/core/domain"
)

// CatalogStore persists feature records keyed uniquely by source path.
// Upsert is idempotent per source path: re-ingesting an asset overwrites its
// feature values while preserving the assigned id and play count.
type CatalogStore interface {
	Upsert(ctx context.Context, sourcePath string, rec domain.FeatureRecord) (domain.FeatureRecord, error)
	GetByID(ctx context.Context, id string) (domain.FeatureRecord, error)
	ListAll(ctx context.Context) ([]domain.FeatureRecord, error)
	IncrementPlayCount(ctx context.Context, id string) (int, error)
}
