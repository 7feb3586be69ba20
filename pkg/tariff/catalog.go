package tariff

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/dmitrymomot/tariffledger/pkg/validator"
)

// Catalog is a read-only registry of tariff plans.
// All lookups are pure and safe for concurrent use; a catalog is never
// mutated after construction, reloading means building a new one.
type Catalog struct {
	plans  map[string]Plan
	sorted []Plan // all plans ordered by monthly price, then code
}

// NewCatalog loads plans from src and validates them.
func NewCatalog(ctx context.Context, src Source) (*Catalog, error) {
	if src == nil {
		panic("tariff: Source is required")
	}

	plans, err := src.Load(ctx)
	if err != nil {
		return nil, errors.Join(ErrFailedToLoadPlans, err)
	}

	if err := validatePlans(plans); err != nil {
		return nil, err
	}

	c := &Catalog{
		plans:  make(map[string]Plan, len(plans)),
		sorted: make([]Plan, 0, len(plans)),
	}
	for _, p := range plans {
		p = p.Clone()
		for period, price := range p.Prices {
			if price.Currency == "" {
				price.Currency = DefaultCurrency
				p.Prices[period] = price
			}
		}
		c.plans[p.Code] = p
		c.sorted = append(c.sorted, p)
	}

	slices.SortStableFunc(c.sorted, comparePlans)

	return c, nil
}

// MustNewCatalog is like NewCatalog but panics on error.
func MustNewCatalog(ctx context.Context, src Source) *Catalog {
	c, err := NewCatalog(ctx, src)
	if err != nil {
		panic(err)
	}
	return c
}

// Get returns the plan with the given code regardless of its active flag.
func (c *Catalog) Get(code string) (Plan, error) {
	p, ok := c.plans[code]
	if !ok {
		return Plan{}, ErrTariffNotFound
	}
	return p.Clone(), nil
}

// GetActive is like Get but fails with ErrTariffInactive for disabled plans.
func (c *Catalog) GetActive(code string) (Plan, error) {
	p, err := c.Get(code)
	if err != nil {
		return Plan{}, err
	}
	if !p.Active {
		return Plan{}, ErrTariffInactive
	}
	return p, nil
}

// List returns plans sorted ascending by monthly price.
func (c *Catalog) List(activeOnly bool) []Plan {
	out := make([]Plan, 0, len(c.sorted))
	for _, p := range c.sorted {
		if activeOnly && !p.Active {
			continue
		}
		out = append(out, p.Clone())
	}
	return out
}

// Default returns the plan flagged as default.
// When no plan carries the flag, the cheapest active plan is returned instead.
// ErrNoActivePlans is returned only when the catalog has no active plan at all.
func (c *Catalog) Default() (Plan, error) {
	for _, p := range c.sorted {
		if p.Default {
			return p.Clone(), nil
		}
	}
	active := c.List(true)
	if len(active) == 0 {
		return Plan{}, ErrNoActivePlans
	}
	return active[0], nil
}

// Recommend picks the cheapest active plan that includes at least
// leadsPerMonth leads and every required feature.
//
// If no plan qualifies it falls back to the most expensive active plan and
// reports exact=false, so callers can tell a match from a best-effort answer.
// An empty catalog of active plans yields ErrNoActivePlans.
func (c *Catalog) Recommend(leadsPerMonth int64, required ...Feature) (plan Plan, exact bool, err error) {
	active := c.List(true)
	if len(active) == 0 {
		return Plan{}, false, ErrNoActivePlans
	}

	for _, p := range active {
		if p.LeadsIncluded < leadsPerMonth {
			continue
		}
		if !p.HasFeatures(required...) {
			continue
		}
		// active is sorted by price, the first survivor is the cheapest
		return p, true, nil
	}

	return active[len(active)-1], false, nil
}

// Len returns the number of plans in the catalog.
func (c *Catalog) Len() int {
	return len(c.plans)
}

func comparePlans(a, b Plan) int {
	if r := cmp.Compare(a.MonthlyPrice().Amount, b.MonthlyPrice().Amount); r != 0 {
		return r
	}
	return strings.Compare(a.Code, b.Code)
}

// validatePlans catches configuration errors at load time.
func validatePlans(plans []Plan) error {
	if len(plans) == 0 {
		return errors.Join(ErrInvalidPlanConfiguration, errors.New("no plans provided"))
	}

	var errs []error
	seen := make(map[string]struct{}, len(plans))
	defaults := 0
	for _, p := range plans {
		if _, dup := seen[p.Code]; dup {
			errs = append(errs, fmt.Errorf("duplicate plan code %q", p.Code))
		}
		seen[p.Code] = struct{}{}
		if p.Default {
			defaults++
		}

		_, hasMonthly := p.Prices[PeriodMonthly]
		rules := []validator.Rule{
			validator.RequiredString("code", p.Code),
			validator.MinNum("leads_included", p.LeadsIncluded, 0),
			{Check: func() bool { return hasMonthly }, Error: validator.ValidationError{
				Field: "prices", Message: "monthly price is required", Code: "required",
			}},
		}
		for _, period := range slices.Sorted(maps.Keys(p.Prices)) {
			price := p.Prices[period]
			field := "prices." + string(period)
			rules = append(rules,
				validator.InList(field, period, Periods()),
				validator.MinNum(field+".amount", price.Amount, 0),
			)
			if price.Currency != "" {
				rules = append(rules, validator.ValidCurrencyCode(field+".currency", price.Currency))
			}
		}
		if err := validator.Apply(rules...); err != nil {
			errs = append(errs, fmt.Errorf("plan %q: %w", p.Code, err))
		}
	}
	if defaults > 1 {
		errs = append(errs, errors.New("more than one default plan"))
	}

	if len(errs) == 0 {
		return nil
	}
	return errors.Join(append([]error{ErrInvalidPlanConfiguration}, errs...)...)
}
