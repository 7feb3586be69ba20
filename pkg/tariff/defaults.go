package tariff

// DefaultPlans returns the marketplace seed catalog.
// Amounts are in kopecks.
func DefaultPlans() []Plan {
	return []Plan{
		{
			Code:          "free",
			Name:          "Free",
			Description:   "Basic listing for new partners",
			Prices:        map[Period]Money{PeriodMonthly: {Amount: 0, Currency: DefaultCurrency}},
			LeadsIncluded: 3,
			Features:      []Feature{FeatureBasicListing},
			Active:        true,
		},
		{
			Code:        "start",
			Name:        "Start",
			Description: "For partners getting their first clients",
			Prices: map[Period]Money{
				PeriodMonthly:   {Amount: 200000, Currency: DefaultCurrency},
				PeriodQuarterly: {Amount: 540000, Currency: DefaultCurrency},
				PeriodYearly:    {Amount: 1920000, Currency: DefaultCurrency},
			},
			LeadsIncluded: 10,
			Features:      []Feature{FeatureBasicListing, FeatureEmailNotifications},
			Active:        true,
		},
		{
			Code:        "professional",
			Name:        "Professional",
			Description: "Steady lead flow with bot integration and analytics",
			Prices: map[Period]Money{
				PeriodMonthly:   {Amount: 500000, Currency: DefaultCurrency},
				PeriodQuarterly: {Amount: 1350000, Currency: DefaultCurrency},
				PeriodYearly:    {Amount: 4800000, Currency: DefaultCurrency},
			},
			LeadsIncluded: 25,
			Features: []Feature{
				FeatureBasicListing,
				FeatureEmailNotifications,
				FeatureBotIntegration,
				FeatureAnalytics,
			},
			Active:  true,
			Default: true,
		},
		{
			Code:        "business",
			Name:        "Business",
			Description: "Priority placement, API access and a personal manager",
			Prices: map[Period]Money{
				PeriodMonthly:   {Amount: 1000000, Currency: DefaultCurrency},
				PeriodQuarterly: {Amount: 2700000, Currency: DefaultCurrency},
				PeriodYearly:    {Amount: 9600000, Currency: DefaultCurrency},
			},
			LeadsIncluded: 100,
			Features: []Feature{
				FeatureBasicListing,
				FeatureEmailNotifications,
				FeatureBotIntegration,
				FeatureAnalytics,
				FeaturePriorityPlacement,
				FeatureAPIAccess,
				FeaturePersonalManager,
			},
			Active: true,
		},
	}
}
