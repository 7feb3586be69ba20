// Package tariff provides the read-only catalog of subscription plans.
//
// A Catalog is built once from a Source (in-memory seed or YAML file) and is
// never mutated afterwards. Reloading the catalog means building a new one and
// swapping the pointer; subscriptions keep the quota and feature snapshots they
// were activated with, so a catalog change never alters them retroactively.
//
// # Prices
//
// Money amounts are integers in the smallest currency unit. A plan must define
// a monthly price; quarterly and yearly prices are optional and fall back to
// the monthly price multiplied by the period length, with no discount.
// Discounts only show up in Quote, which is a reporting helper and is never
// used to compute invoice amounts.
//
// # Usage
//
//	catalog, err := tariff.NewCatalog(ctx, tariff.NewInMemSource(tariff.DefaultPlans()...))
//	if err != nil {
//		return err
//	}
//
//	plan, exact, err := catalog.Recommend(20, tariff.FeatureBotIntegration)
//	if err != nil {
//		return err
//	}
//	if !exact {
//		// no plan covers the request, plan is the most expensive active one
//	}
//
//	amount, err := plan.Price(tariff.PeriodQuarterly)
//
// # Errors
//
// Lookups return ErrTariffNotFound for unknown codes and ErrTariffInactive when
// a disabled plan is requested through GetActive. Invalid periods yield
// ErrInvalidBillingPeriod. Load-time problems are reported as
// ErrInvalidPlanConfiguration or ErrFailedToLoadPlans joined with the cause.
package tariff
