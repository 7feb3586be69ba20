package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/dmitrymomot/tariffledger/pkg/binder"
	"github.com/dmitrymomot/tariffledger/pkg/environment"
	"github.com/dmitrymomot/tariffledger/pkg/gateway"
	"github.com/dmitrymomot/tariffledger/pkg/handler"
	"github.com/dmitrymomot/tariffledger/pkg/httpserver"
	"github.com/dmitrymomot/tariffledger/pkg/invoice"
	"github.com/dmitrymomot/tariffledger/pkg/ledger"
	"github.com/dmitrymomot/tariffledger/pkg/qrcode"
	"github.com/dmitrymomot/tariffledger/pkg/requestid"
	"github.com/dmitrymomot/tariffledger/pkg/tariff"
	"github.com/dmitrymomot/tariffledger/pkg/verification"
)

// Invoices reads issued invoices. *invoice.Issuer satisfies it.
type Invoices interface {
	Get(ctx context.Context, number string) (*invoice.Invoice, error)
	ListBySubject(ctx context.Context, subjectID string) ([]*invoice.Invoice, error)
}

// Options wires the API to its collaborators. Verifier, Metrics and
// HealthChecks are optional; the matching routes are only mounted when set.
type Options struct {
	Ledger   *ledger.Ledger
	Catalog  *tariff.Catalog
	Invoices Invoices
	Webhooks *gateway.Registry
	Verifier verification.Verifier
	Payee    qrcode.Payee
	Metrics  *Metrics

	HealthChecks  []httpserver.Check
	HealthTimeout time.Duration

	// OutboundTimeout bounds requests that call a payment provider or the
	// registry. Defaults to 10s.
	OutboundTimeout time.Duration

	// Env is attached to request contexts; empty leaves them untagged.
	Env environment.Environment

	Logger *slog.Logger
	Clock  func() time.Time
}

// API is the JSON HTTP surface of the billing service.
type API struct {
	ledger   *ledger.Ledger
	catalog  *tariff.Catalog
	invoices Invoices
	webhooks *gateway.Registry
	verifier verification.Verifier
	payee    qrcode.Payee
	metrics  *Metrics
	checks   []httpserver.Check
	timeout  time.Duration
	outbound time.Duration
	env      environment.Environment
	logger   *slog.Logger
	now      func() time.Time
	errors   handler.ErrorHandler[handler.Context]
}

// New creates the API. Panics if a required collaborator is missing.
func New(opts Options) *API {
	if opts.Ledger == nil {
		panic("api: ledger is required")
	}
	if opts.Catalog == nil {
		panic("api: catalog is required")
	}
	if opts.Invoices == nil {
		panic("api: invoices are required")
	}
	if opts.Webhooks == nil {
		panic("api: webhook registry is required")
	}

	a := &API{
		ledger:   opts.Ledger,
		catalog:  opts.Catalog,
		invoices: opts.Invoices,
		webhooks: opts.Webhooks,
		verifier: opts.Verifier,
		payee:    opts.Payee,
		metrics:  opts.Metrics,
		checks:   opts.HealthChecks,
		timeout:  opts.HealthTimeout,
		outbound: opts.OutboundTimeout,
		env:      opts.Env,
		logger:   opts.Logger,
		now:      opts.Clock,
	}
	if a.logger == nil {
		a.logger = slog.New(slog.DiscardHandler)
	}
	if a.now == nil {
		a.now = time.Now
	}
	if a.timeout <= 0 {
		a.timeout = 3 * time.Second
	}
	if a.outbound <= 0 {
		a.outbound = 10 * time.Second
	}
	a.errors = handler.NewErrorHandler(a.logger, handler.WithClassifier(classify))
	return a
}

// Handler builds the router.
func (a *API) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(requestid.Middleware)
	if a.env != "" {
		r.Use(environment.Middleware(a.env))
	}
	if a.metrics != nil {
		r.Use(a.metrics.Middleware)
		r.Method(http.MethodGet, "/metrics", a.metrics.Handler())
	}

	r.Get("/healthz", httpserver.HealthHandler(a.logger, a.timeout, a.checks...))

	path := binder.Path(chi.URLParam)
	query := binder.Query()
	body := binder.JSON()

	r.Route("/tariffs", func(r chi.Router) {
		r.Get("/", wrap(a, a.listTariffs, query))
		r.Get("/recommend", wrap(a, a.recommendTariff, query))
		r.Get("/{code}", wrap(a, a.getTariff, path))
		r.Get("/{code}/quote", wrap(a, a.quoteTariff, path, query))
	})

	r.Route("/subjects/{subject}", func(r chi.Router) {
		r.Post("/payments", wrapOutbound(a, a.requestPayment, path, body))
		r.Post("/subscription", wrap(a, a.activateSubscription, path, body))
		r.Get("/subscription", wrap(a, a.getActiveSubscription, path))
		r.Delete("/subscription", wrap(a, a.cancelSubscription, path, body))
		r.Post("/subscription/upgrade", wrap(a, a.upgradeTariff, path, body))
		r.Post("/leads", wrap(a, a.recordLead, path))
		r.Get("/usage", wrap(a, a.usage, path))
		r.Get("/invoices", wrap(a, a.listInvoices, path))
		if a.verifier != nil {
			r.Post("/verify", wrapOutbound(a, a.verify, path, body))
		}
	})

	r.Route("/subscriptions/{id}", func(r chi.Router) {
		r.Get("/", wrap(a, a.getSubscription, path))
		r.Post("/renew", wrap(a, a.renewSubscription, path))
		r.Post("/suspend", wrap(a, a.suspendSubscription, path))
		r.Post("/resume", wrap(a, a.resumeSubscription, path))
	})

	r.Route("/invoices/{number}", func(r chi.Router) {
		r.Get("/", wrap(a, a.getInvoice, path))
		r.Get("/qr", wrap(a, a.invoiceQR, path, query))
	})

	r.Route("/payments/{id}", func(r chi.Router) {
		r.Get("/", wrap(a, a.getPayment, path))
		r.Post("/verdict", wrap(a, a.recordVerdict, path, body))
		r.Post("/refund", wrapOutbound(a, a.refundPayment, path, body))
	})

	r.Post("/webhooks/{provider}", wrap(a, a.webhook, path))

	return r
}

func wrap[R any](a *API, h handler.HandlerFunc[handler.Context, R], binders ...handler.Bind) http.HandlerFunc {
	return handler.Wrap(h,
		handler.WithBinders[handler.Context, R](binders...),
		handler.WithErrorHandler[handler.Context, R](a.errors),
	)
}

// wrapOutbound is wrap for handlers that call a payment provider or the
// company registry; their context is cut off after the outbound timeout.
func wrapOutbound[R any](a *API, h handler.HandlerFunc[handler.Context, R], binders ...handler.Bind) http.HandlerFunc {
	return handler.Wrap(h,
		handler.WithBinders[handler.Context, R](binders...),
		handler.WithErrorHandler[handler.Context, R](a.errors),
		handler.WithDecorators(deadline[R](a.outbound)),
	)
}

func deadline[R any](d time.Duration) handler.Decorator[handler.Context, R] {
	return func(next handler.HandlerFunc[handler.Context, R]) handler.HandlerFunc[handler.Context, R] {
		return func(ctx handler.Context, req R) handler.Response {
			tctx, cancel := context.WithTimeout(ctx, d)
			defer cancel()
			return next(handler.NewContext(ctx.ResponseWriter(), ctx.Request().WithContext(tctx)), req)
		}
	}
}

// failure hands err to the error handler from inside a handler.
type failure struct{ err error }

func (f failure) Render(http.ResponseWriter, *http.Request) error { return f.err }

func fail(err error) handler.Response { return failure{err: err} }
