package app

import (
	"context"
	"errors"

	"github.com/rs/zerolog"

	"github.com/auto-dns/sysav-sync/internal/config"
	"github.com/auto-dns/sysav-sync/internal/domain"
	"github.com/auto-dns/sysav-sync/internal/sysav"
)

// Validation outcome codes.
const (
	StatusOK              = "ok"
	StatusInvalidURL      = "invalid_url"
	StatusDiscoveryFailed = "discovery_failed"
	StatusAddressNotFound = "address_not_found"
	StatusUnknown         = "unknown"
)

// ValidationResult is the outcome of a one-shot lookup for an address.
type ValidationResult struct {
	Address  domain.Address
	Status   string
	Schedule *domain.Schedule
	Err      error
}

// ClassifyError maps a lookup error to its validation status.
func ClassifyError(err error) string {
	var invalid *sysav.InvalidAPIBaseError
	var discovery *sysav.DiscoveryError
	var query *sysav.QueryError
	switch {
	case err == nil:
		return StatusOK
	case errors.As(err, &invalid):
		return StatusInvalidURL
	case errors.As(err, &discovery):
		return StatusDiscoveryFailed
	case errors.As(err, &query):
		return StatusAddressNotFound
	default:
		return StatusUnknown
	}
}

// ValidateAddresses looks up every configured address once, sequentially.
func ValidateAddresses(ctx context.Context, cfg *config.Config, logger zerolog.Logger) []ValidationResult {
	results := make([]ValidationResult, 0, len(cfg.Addresses))
	for _, ac := range cfg.Addresses {
		results = append(results, validateAddress(ctx, &cfg.App, ac, logger))
	}
	return results
}

func validateAddress(ctx context.Context, appCfg *config.AppConfig, ac config.AddressConfig, logger zerolog.Logger) ValidationResult {
	result := ValidationResult{Address: ac.Address()}
	client, err := NewSysavClient(appCfg, ac, logger)
	if err != nil {
		result.Status, result.Err = ClassifyError(err), err
		return result
	}
	defer client.Close()

	result.Schedule, result.Err = client.FetchNext(ctx, result.Address)
	result.Status = ClassifyError(result.Err)
	return result
}
