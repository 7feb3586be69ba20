package tariff

import "errors"

var (
	ErrTariffNotFound           = errors.New("tariff not found")
	ErrTariffInactive           = errors.New("tariff is inactive")
	ErrInvalidBillingPeriod     = errors.New("invalid billing period")
	ErrInvalidPlanConfiguration = errors.New("invalid tariff plan configuration")
	ErrFailedToLoadPlans        = errors.New("failed to load tariff plans")
	ErrNoActivePlans            = errors.New("catalog has no active tariff plans")
	ErrAmountOverflow           = errors.New("amount overflows int64")
)
