package reference

import (
	"context"
	"strconv"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/NHadi/PawSmartMobile-sub001/internal/commerce"
	"github.com/NHadi/PawSmartMobile-sub001/internal/entity"
	"github.com/NHadi/PawSmartMobile-sub001/internal/refcache"
	"github.com/NHadi/PawSmartMobile-sub001/pkg/errorbank"
)

var serviceTracer = otel.Tracer("github.com/NHadi/PawSmartMobile-sub001/service/reference")

// Service serves slowly-changing reference data through the tiered cache,
// plus the single default-address preference scalar.
type Service struct {
	cache  *refcache.Cache
	client commerce.Client
	logger *zap.Logger
}

// Module provides the reference service to Fx.
var Module = fx.Provide(NewService)

// NewService wires a new Service instance.
func NewService(cache *refcache.Cache, client commerce.Client, logger *zap.Logger) *Service {
	return &Service{cache: cache, client: client, logger: logger}
}

// Regions returns the administrative regions of a country, read-through
// cached with the long reference-data TTL. All writers produce the same
// derived data, so a racing refetch is harmless.
func (s *Service) Regions(ctx context.Context, countryID int64) ([]entity.Region, error) {
	ctx, span := serviceTracer.Start(ctx, "ReferenceService.Regions", trace.WithAttributes(attribute.Int64("country.id", countryID)))
	defer span.End()

	id := strconv.FormatInt(countryID, 10)
	var regions []entity.Region
	if s.cache.Get(ctx, refcache.NamespaceRegions, id, &regions) {
		return regions, nil
	}

	regions, err := s.client.Regions(ctx, countryID)
	if err != nil {
		span.RecordError(err)
		return nil, errorbank.Unavailable("failed to load regions", errorbank.WithCause(err))
	}

	if err := s.cache.Set(ctx, refcache.NamespaceRegions, regions, refcache.SetOptions{Identifier: id}); err != nil && s.logger != nil {
		s.logger.Warn("cache regions failed", zap.Int64("country_id", countryID), zap.Error(err))
	}
	return regions, nil
}

// PostalCodes returns the postal codes of a region, cached with the short
// volatile reference TTL.
func (s *Service) PostalCodes(ctx context.Context, regionID int64) ([]entity.PostalCode, error) {
	ctx, span := serviceTracer.Start(ctx, "ReferenceService.PostalCodes", trace.WithAttributes(attribute.Int64("region.id", regionID)))
	defer span.End()

	id := strconv.FormatInt(regionID, 10)
	var postals []entity.PostalCode
	if s.cache.Get(ctx, refcache.NamespacePostalCodes, id, &postals) {
		return postals, nil
	}

	postals, err := s.client.PostalCodes(ctx, regionID)
	if err != nil {
		span.RecordError(err)
		return nil, errorbank.Unavailable("failed to load postal codes", errorbank.WithCause(err))
	}

	if err := s.cache.Set(ctx, refcache.NamespacePostalCodes, postals, refcache.SetOptions{Identifier: id}); err != nil && s.logger != nil {
		s.logger.Warn("cache postal codes failed", zap.Int64("region_id", regionID), zap.Error(err))
	}
	return postals, nil
}

// DefaultAddressID reads the user's chosen default address. Absent means the
// user never picked one; there is no backend fallback for this preference.
func (s *Service) DefaultAddressID(ctx context.Context) (int64, bool) {
	var id int64
	if !s.cache.Get(ctx, refcache.NamespaceDefaultAddress, "", &id) {
		return 0, false
	}
	return id, true
}

// SetDefaultAddressID stores the user's default address preference.
func (s *Service) SetDefaultAddressID(ctx context.Context, id int64) error {
	if id <= 0 {
		return errorbank.BadRequest("address id must be positive")
	}
	return s.cache.Set(ctx, refcache.NamespaceDefaultAddress, id, refcache.SetOptions{})
}
