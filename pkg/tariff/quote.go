package tariff

// Quote is a price breakdown for reporting and UI.
// It is never used to compute invoice amounts.
type Quote struct {
	TariffCode     string    `json:"tariff_code"`
	TariffName     string    `json:"tariff_name"`
	Period         Period    `json:"period"`
	Seats          int64     `json:"seats"`
	PricePerSeat   Money     `json:"price_per_seat"`
	Total          Money     `json:"total"`
	Savings        Money     `json:"savings"`
	SavingsPercent float64   `json:"savings_percent"`
	LeadsIncluded  int64     `json:"leads_included"`
	Features       []Feature `json:"features"`
}

// Quote computes the total for seats subscriptions to a plan and how much
// is saved compared with paying monthly for the same time span.
// Totals that do not fit in int64 fail with ErrAmountOverflow.
func (c *Catalog) Quote(code string, period Period, seats int64) (Quote, error) {
	p, err := c.Get(code)
	if err != nil {
		return Quote{}, err
	}
	if seats < 1 {
		seats = 1
	}

	perSeat, err := p.Price(period)
	if err != nil {
		return Quote{}, err
	}

	total, err := perSeat.Mul(seats)
	if err != nil {
		return Quote{}, err
	}
	baseline, err := p.MonthlyPrice().Mul(seats)
	if err != nil {
		return Quote{}, err
	}
	if baseline, err = baseline.Mul(int64(period.Months())); err != nil {
		return Quote{}, err
	}

	q := Quote{
		TariffCode:    p.Code,
		TariffName:    p.Name,
		Period:        period,
		Seats:         seats,
		PricePerSeat:  perSeat,
		Total:         total,
		Savings:       Money{Currency: total.Currency},
		LeadsIncluded: p.LeadsIncluded,
		Features:      p.Features,
	}

	if period != PeriodMonthly && baseline.Amount > 0 {
		q.Savings.Amount = baseline.Amount - total.Amount
		q.SavingsPercent = float64(q.Savings.Amount) * 100 / float64(baseline.Amount)
	}

	return q, nil
}
