package tariff_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/tariffledger/pkg/tariff"
)

const tariffsYAML = `
tariffs:
  - code: start
    name: Start
    active: true
    leads_included: 10
    features: [basic_listing]
    prices:
      monthly: {amount: 200000}
  - code: professional
    name: Professional
    active: true
    default: true
    leads_included: 25
    features: [basic_listing, bot_integration]
    prices:
      monthly: {amount: 500000, currency: RUB}
      yearly: {amount: 4800000, currency: RUB}
`

func TestYAMLSource(t *testing.T) {
	t.Parallel()

	t.Run("loads catalog from file", func(t *testing.T) {
		t.Parallel()
		path := filepath.Join(t.TempDir(), "tariffs.yaml")
		require.NoError(t, os.WriteFile(path, []byte(tariffsYAML), 0o600))

		c, err := tariff.NewCatalog(context.Background(), tariff.NewYAMLSource(path))
		require.NoError(t, err)
		assert.Equal(t, 2, c.Len())

		start, err := c.Get("start")
		require.NoError(t, err)
		assert.Equal(t, tariff.DefaultCurrency, start.MonthlyPrice().Currency, "currency defaults when omitted")

		pro, err := c.Get("professional")
		require.NoError(t, err)
		yearly, err := pro.Price(tariff.PeriodYearly)
		require.NoError(t, err)
		assert.Equal(t, int64(4800000), yearly.Amount)
		assert.True(t, pro.HasFeature(tariff.FeatureBotIntegration))
	})

	t.Run("missing file", func(t *testing.T) {
		t.Parallel()
		_, err := tariff.NewCatalog(context.Background(), tariff.NewYAMLSource(filepath.Join(t.TempDir(), "nope.yaml")))
		assert.ErrorIs(t, err, tariff.ErrFailedToLoadPlans)
	})

	t.Run("empty document", func(t *testing.T) {
		t.Parallel()
		_, err := tariff.ParseYAML([]byte("tariffs: []\n"))
		assert.ErrorIs(t, err, tariff.ErrInvalidPlanConfiguration)
	})

	t.Run("malformed yaml", func(t *testing.T) {
		t.Parallel()
		_, err := tariff.ParseYAML([]byte("tariffs: [ {code: "))
		assert.ErrorIs(t, err, tariff.ErrInvalidPlanConfiguration)
	})
}

func TestInMemSource(t *testing.T) {
	t.Parallel()

	assert.Panics(t, func() { tariff.NewInMemSource() })

	plans := tariff.DefaultPlans()
	src := tariff.NewInMemSource(plans...)
	plans[0].Code = "mutated"

	loaded, err := src.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "free", loaded[0].Code)
}
