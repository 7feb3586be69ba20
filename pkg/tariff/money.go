package tariff

import (
	"fmt"
	"math"
)

// DefaultCurrency is used when a plan does not declare one.
const DefaultCurrency = "RUB"

// Money represents a monetary amount in the smallest currency unit.
// For example, 5000.00 RUB would be Amount: 500000, Currency: "RUB".
type Money struct {
	Amount   int64  `json:"amount" yaml:"amount"`     // amount in minor units
	Currency string `json:"currency" yaml:"currency"` // ISO 4217 currency code
}

// Mul returns m multiplied by n, keeping the currency.
// It fails with ErrAmountOverflow when the product does not fit in int64.
func (m Money) Mul(n int64) (Money, error) {
	p := m.Amount * n
	if m.Amount != 0 && (p/m.Amount != n || (m.Amount == -1 && n == math.MinInt64)) {
		return Money{}, fmt.Errorf("%w: %d x %d", ErrAmountOverflow, m.Amount, n)
	}
	return Money{Amount: p, Currency: m.Currency}, nil
}

func (m Money) IsZero() bool {
	return m.Amount == 0
}
