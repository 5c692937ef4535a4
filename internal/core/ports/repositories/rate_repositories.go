package repositories

import (
	"context"

	"github.com/kasapahq/vendorpay/internal/core/domain"
)

// RateReader defines lookups against the two rate configuration sources. Both
// take the already-normalized procurement-type key and return
// apperrors.ErrNotFound on a miss; a configured rate of exactly zero is a
// valid hit.
type RateReader interface {
	// FindRegistryRate looks up the dedicated procurement-type registry.
	FindRegistryRate(ctx context.Context, normalizedType string) (*domain.WhtRate, error)

	// FindValidationRate looks up the generic key/value validation registry,
	// matching case-insensitively.
	FindValidationRate(ctx context.Context, normalizedType string) (*domain.WhtRate, error)
}

// RateRepositoryFacade combines the rate repository interfaces.
type RateRepositoryFacade interface {
	RateReader
}
