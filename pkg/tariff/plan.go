package tariff

import (
	"maps"
	"slices"
)

// Feature is a capability tag granted by a plan.
type Feature string

const (
	FeatureBasicListing       Feature = "basic_listing"
	FeatureEmailNotifications Feature = "email_notifications"
	FeatureBotIntegration     Feature = "bot_integration"
	FeatureAnalytics          Feature = "analytics"
	FeaturePriorityPlacement  Feature = "priority_placement"
	FeatureAPIAccess          Feature = "api_access"
	FeaturePersonalManager    Feature = "personal_manager"
)

// Plan is an immutable catalog entry.
// Prices must contain at least the monthly price; other periods fall back
// to the monthly price multiplied by the period length.
type Plan struct {
	Code          string           `yaml:"code" json:"code"`
	Name          string           `yaml:"name" json:"name"`
	Description   string           `yaml:"description" json:"description,omitempty"`
	Prices        map[Period]Money `yaml:"prices" json:"prices"`
	LeadsIncluded int64            `yaml:"leads_included" json:"leads_included"`
	Features      []Feature        `yaml:"features" json:"features"`
	Active        bool             `yaml:"active" json:"active"`
	Default       bool             `yaml:"default" json:"default"`
}

// MonthlyPrice returns the monthly price of the plan.
func (p Plan) MonthlyPrice() Money {
	return p.Prices[PeriodMonthly]
}

// Price returns the amount charged for one billing period.
// Without an explicit price for the period the monthly price is multiplied
// by the number of months; no multi-period discount is applied here.
func (p Plan) Price(period Period) (Money, error) {
	if !period.Valid() {
		return Money{}, ErrInvalidBillingPeriod
	}
	if price, ok := p.Prices[period]; ok {
		return price, nil
	}
	return p.MonthlyPrice().Mul(int64(period.Months()))
}

// HasFeature reports whether the plan grants the feature.
func (p Plan) HasFeature(f Feature) bool {
	return slices.Contains(p.Features, f)
}

// HasFeatures reports whether the plan grants every feature in required.
func (p Plan) HasFeatures(required ...Feature) bool {
	for _, f := range required {
		if !p.HasFeature(f) {
			return false
		}
	}
	return true
}

// Clone returns a deep copy so callers can't mutate catalog state.
func (p Plan) Clone() Plan {
	p.Prices = maps.Clone(p.Prices)
	p.Features = slices.Clone(p.Features)
	return p
}

// PlanComparison describes what changes when moving between two plans.
type PlanComparison struct {
	NewFeatures  []Feature
	LostFeatures []Feature
	LeadsFrom    int64
	LeadsTo      int64
}

// IsDowngrade reports whether the target plan grants fewer leads or features.
func (c PlanComparison) IsDowngrade() bool {
	return c.LeadsTo < c.LeadsFrom || len(c.LostFeatures) > 0
}

// ComparePlans returns the differences between current and target plans.
func ComparePlans(current, target Plan) PlanComparison {
	cmp := PlanComparison{
		NewFeatures:  make([]Feature, 0),
		LostFeatures: make([]Feature, 0),
		LeadsFrom:    current.LeadsIncluded,
		LeadsTo:      target.LeadsIncluded,
	}

	for _, f := range target.Features {
		if !current.HasFeature(f) {
			cmp.NewFeatures = append(cmp.NewFeatures, f)
		}
	}
	for _, f := range current.Features {
		if !target.HasFeature(f) {
			cmp.LostFeatures = append(cmp.LostFeatures, f)
		}
	}

	return cmp
}
