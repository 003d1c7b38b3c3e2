package service

import (
	"carspa/internal/metrics"
	"carspa/internal/pricing"

	"github.com/rs/zerolog"
)

type PricingService struct {
	logger *zerolog.Logger
}

func NewPricingService(logger *zerolog.Logger) *PricingService {
	return &PricingService{logger: logger}
}

// Estimate returns the itemized quote for the named selection.
func (s *PricingService) Estimate(vehicle, tier string, addOns []string) (*pricing.Quote, error) {
	quote, err := pricing.QuoteNames(vehicle, tier, addOns)
	if err != nil {
		metrics.IncEstimate("invalid")
		s.logger.Error().Err(err).
			Str("vehicle_class", vehicle).
			Str("package_tier", tier).
			Strs("add_ons", addOns).
			Msg("invalid pricing selection")
		return nil, err
	}
	metrics.IncEstimate("ok")
	return quote, nil
}

func (s *PricingService) Table() pricing.TableView {
	return pricing.Table()
}
