package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/kasapahq/vendorpay/internal/apperrors"
	"github.com/kasapahq/vendorpay/internal/core/domain"
	portsrepo "github.com/kasapahq/vendorpay/internal/core/ports/repositories"
	portssvc "github.com/kasapahq/vendorpay/internal/core/ports/services"
	"github.com/kasapahq/vendorpay/internal/middleware"
	"github.com/kasapahq/vendorpay/internal/utils/ratecache"
)

// rateService resolves withholding-tax rates for procurement types from the
// dedicated registry first, then the generic validation registry. A miss in
// both fails closed: returning zero for an unconfigured type would silently
// turn missing configuration into a tax exemption.
type rateService struct {
	rateRepo portsrepo.RateRepositoryFacade
	cache    *ratecache.Cache
}

// NewRateService creates a new RateService with the injected cache.
func NewRateService(rateRepo portsrepo.RateRepositoryFacade, cache *ratecache.Cache) portssvc.RateSvcFacade {
	return &rateService{
		rateRepo: rateRepo,
		cache:    cache,
	}
}

var _ portssvc.RateSvcFacade = (*rateService)(nil)

// NormalizeProcurementType produces the canonical cache/registry key:
// lowercased, trimmed, internal whitespace collapsed to single spaces.
func NormalizeProcurementType(procurementType string) string {
	return strings.Join(strings.Fields(strings.ToLower(procurementType)), " ")
}

// ResolveRate resolves the WHT rate for procurementType. A configured rate of
// exactly zero is a valid result (tax-exempt types). Successful resolutions
// are cached under the normalized key for the cache's TTL.
func (s *rateService) ResolveRate(ctx context.Context, procurementType string) (decimal.Decimal, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	key := NormalizeProcurementType(procurementType)
	if key == "" {
		return decimal.Zero, fmt.Errorf("%w: empty procurement type", apperrors.ErrValidation)
	}

	if rate, ok := s.cache.Get(key); ok {
		return rate, nil
	}

	rate, err := s.lookupRate(ctx, key)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			logger.Warn("No WHT rate configured for procurement type", slog.String("procurement_type", key))
			return decimal.Zero, fmt.Errorf("%w: no WHT rate for procurement type %q", apperrors.ErrNotConfigured, procurementType)
		}
		return decimal.Zero, fmt.Errorf("failed to resolve WHT rate for %q: %w", procurementType, err)
	}

	s.cache.Put(key, rate.Rate)
	logger.Debug("WHT rate resolved", slog.String("procurement_type", key), slog.String("rate", rate.Rate.String()), slog.String("source", rate.Source))
	return rate.Rate, nil
}

// lookupRate checks the dedicated registry, then the validation registry with
// singular/plural-tolerant key variants.
func (s *rateService) lookupRate(ctx context.Context, key string) (*domain.WhtRate, error) {
	rate, err := s.rateRepo.FindRegistryRate(ctx, key)
	if err == nil {
		return rate, nil
	}
	if !errors.Is(err, apperrors.ErrNotFound) {
		return nil, err
	}

	for _, variant := range keyVariants(key) {
		rate, err = s.rateRepo.FindValidationRate(ctx, variant)
		if err == nil {
			return rate, nil
		}
		if !errors.Is(err, apperrors.ErrNotFound) {
			return nil, err
		}
	}
	return nil, apperrors.ErrNotFound
}

// keyVariants returns the key plus its singular/plural counterparts, deduped,
// original first.
func keyVariants(key string) []string {
	variants := []string{key}
	if strings.HasSuffix(key, "s") {
		variants = append(variants, strings.TrimSuffix(key, "s"))
	} else {
		variants = append(variants, key+"s")
	}
	return variants
}

// InvalidateCache drops every cached resolution. Invalidation is wholesale;
// there is no per-key eviction.
func (s *rateService) InvalidateCache() {
	s.cache.Invalidate()
}
