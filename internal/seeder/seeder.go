package seeder

import (
	"context"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/NHadi/PawSmartMobile-sub001/internal/config"
	referencesvc "github.com/NHadi/PawSmartMobile-sub001/internal/service/reference"
)

// Module provides the seeder to Fx.
var Module = fx.Provide(New)

// Seeder warms the reference cache so a fresh environment starts with the
// slow-changing data already resident in both tiers.
type Seeder struct {
	reference *referencesvc.Service
	countryID int64
	logger    *zap.Logger
}

// New constructs a Seeder.
func New(reference *referencesvc.Service, cfg config.Config, logger *zap.Logger) *Seeder {
	return &Seeder{
		reference: reference,
		countryID: cfg.SeedCountryID,
		logger:    logger,
	}
}

// Warm fetches the configured country's regions and each region's postal
// codes through the read-through cache.
func (s *Seeder) Warm(ctx context.Context) error {
	regions, err := s.reference.Regions(ctx, s.countryID)
	if err != nil {
		return err
	}
	s.logger.Info("regions warmed", zap.Int64("country_id", s.countryID), zap.Int("count", len(regions)))

	for _, region := range regions {
		postals, err := s.reference.PostalCodes(ctx, region.ID)
		if err != nil {
			s.logger.Warn("postal codes warm failed", zap.Int64("region_id", region.ID), zap.Error(err))
			continue
		}
		s.logger.Debug("postal codes warmed", zap.Int64("region_id", region.ID), zap.Int("count", len(postals)))
	}
	return nil
}
