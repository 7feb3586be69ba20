package ledger_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/tariffledger/pkg/gateway"
	"github.com/dmitrymomot/tariffledger/pkg/invoice"
	"github.com/dmitrymomot/tariffledger/pkg/ledger"
	"github.com/dmitrymomot/tariffledger/pkg/tariff"
)

var t0 = time.Date(2025, 3, 14, 9, 0, 0, 0, time.UTC)

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type recorder struct {
	mu     sync.Mutex
	events []ledger.Transition
}

func (r *recorder) OnTransition(_ context.Context, t ledger.Transition) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, t)
}

func (r *recorder) Events() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.events))
	for _, e := range r.events {
		out = append(out, string(e.Entity)+":"+e.Event)
	}
	return out
}

type fixture struct {
	ledger  *ledger.Ledger
	clock   *clock
	issuer  *invoice.Issuer
	gateway *gateway.Local
	repo    ledger.Repository
	events  *recorder
}

func plans() []tariff.Plan {
	return append(tariff.DefaultPlans(), tariff.Plan{
		Code:          "archived",
		Name:          "Archived",
		Prices:        map[tariff.Period]tariff.Money{tariff.PeriodMonthly: {Amount: 100000, Currency: "RUB"}},
		LeadsIncluded: 50,
	})
}

func newFixture(t *testing.T, opts ...ledger.Option) *fixture {
	t.Helper()
	return newFixtureWithRepo(t, ledger.NewMemoryRepository(), opts...)
}

func newFixtureWithRepo(t *testing.T, repo ledger.Repository, opts ...ledger.Option) *fixture {
	t.Helper()

	catalog, err := tariff.NewCatalog(context.Background(), tariff.NewInMemSource(plans()...))
	require.NoError(t, err)

	c := &clock{now: t0}
	issuer := invoice.NewIssuer(catalog, invoice.NewMemoryStore(), invoice.NewMemorySequence(), invoice.WithClock(c.Now))
	gw := gateway.NewLocal(gateway.LocalConfig{CheckoutBaseURL: "http://pay.local", WebhookSecret: "secret"}).WithClock(c.Now)
	rec := &recorder{}

	opts = append([]ledger.Option{ledger.WithClock(c.Now), ledger.WithObserver(rec)}, opts...)
	return &fixture{
		ledger:  ledger.New(catalog, issuer, gw, repo, opts...),
		clock:   c,
		issuer:  issuer,
		gateway: gw,
		repo:    repo,
		events:  rec,
	}
}

func days(n int) time.Duration {
	return time.Duration(n) * 24 * time.Hour
}
