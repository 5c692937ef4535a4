package pgsql

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/kasapahq/vendorpay/internal/apperrors"
	"github.com/kasapahq/vendorpay/internal/core/domain"
	portsrepo "github.com/kasapahq/vendorpay/internal/core/ports/repositories"
)

type PgxRateRepository struct {
	BaseRepository
}

// newPgxRateRepository creates a new repository for WHT rate configuration.
func newPgxRateRepository(pool *pgxpool.Pool) portsrepo.RateRepositoryFacade {
	return &PgxRateRepository{
		BaseRepository: BaseRepository{Pool: pool},
	}
}

var _ portsrepo.RateRepositoryFacade = (*PgxRateRepository)(nil)

// FindRegistryRate looks up the dedicated procurement-type registry. Keys are
// stored normalized, so the match is exact.
func (r *PgxRateRepository) FindRegistryRate(ctx context.Context, normalizedType string) (*domain.WhtRate, error) {
	query := `SELECT procurement_type, rate FROM wht_rates WHERE procurement_type = $1;`

	var rate domain.WhtRate
	err := r.Pool.QueryRow(ctx, query, normalizedType).Scan(&rate.ProcurementType, &rate.Rate)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find registry rate for %s: %w", normalizedType, err)
	}
	rate.Source = "registry"
	return &rate, nil
}

// FindValidationRate looks up the generic key/value validation registry,
// matching case-insensitively.
func (r *PgxRateRepository) FindValidationRate(ctx context.Context, normalizedType string) (*domain.WhtRate, error) {
	query := `SELECT key, rate FROM validation_rates WHERE LOWER(key) = $1;`

	var rate domain.WhtRate
	err := r.Pool.QueryRow(ctx, query, normalizedType).Scan(&rate.ProcurementType, &rate.Rate)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find validation rate for %s: %w", normalizedType, err)
	}
	rate.Source = "validation"
	return &rate, nil
}
