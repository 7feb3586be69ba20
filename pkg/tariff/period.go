package tariff

import "strings"

// Period is a billing cycle length.
type Period string

const (
	PeriodMonthly   Period = "monthly"
	PeriodQuarterly Period = "quarterly"
	PeriodYearly    Period = "yearly"
)

// Periods lists supported billing periods in ascending length.
func Periods() []Period {
	return []Period{PeriodMonthly, PeriodQuarterly, PeriodYearly}
}

// ParsePeriod normalizes user input into a Period.
func ParsePeriod(s string) (Period, error) {
	p := Period(strings.ToLower(strings.TrimSpace(s)))
	if !p.Valid() {
		return "", ErrInvalidBillingPeriod
	}
	return p, nil
}

func (p Period) Valid() bool {
	switch p {
	case PeriodMonthly, PeriodQuarterly, PeriodYearly:
		return true
	}
	return false
}

// Months returns the number of calendar months covered by the period.
// Returns 0 for unknown periods.
func (p Period) Months() int {
	switch p {
	case PeriodMonthly:
		return 1
	case PeriodQuarterly:
		return 3
	case PeriodYearly:
		return 12
	}
	return 0
}

// Days returns the fixed day count used for expiry arithmetic.
// Calendar-day constants are used instead of month arithmetic so that
// expiry dates are reproducible regardless of the start date.
func (p Period) Days() int {
	switch p {
	case PeriodMonthly:
		return 30
	case PeriodQuarterly:
		return 90
	case PeriodYearly:
		return 365
	}
	return 0
}

func (p Period) String() string {
	return string(p)
}
