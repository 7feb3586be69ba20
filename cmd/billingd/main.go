// Command billingd runs the tariff ledger: the JSON API, payment webhooks
// and the periodic expiry and reminder sweeps.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/sync/errgroup"
	"golang.org/x/text/language"

	"github.com/dmitrymomot/tariffledger/internal/api"
	"github.com/dmitrymomot/tariffledger/internal/sweeper"
	"github.com/dmitrymomot/tariffledger/pkg/config"
	"github.com/dmitrymomot/tariffledger/pkg/email"
	"github.com/dmitrymomot/tariffledger/pkg/environment"
	"github.com/dmitrymomot/tariffledger/pkg/gateway"
	"github.com/dmitrymomot/tariffledger/pkg/httpserver"
	"github.com/dmitrymomot/tariffledger/pkg/invoice"
	"github.com/dmitrymomot/tariffledger/pkg/ledger"
	"github.com/dmitrymomot/tariffledger/pkg/logger"
	"github.com/dmitrymomot/tariffledger/pkg/notifications"
	"github.com/dmitrymomot/tariffledger/pkg/qrcode"
	"github.com/dmitrymomot/tariffledger/pkg/requestid"
	"github.com/dmitrymomot/tariffledger/pkg/tariff"
	"github.com/dmitrymomot/tariffledger/pkg/verification"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		slog.Error("billingd stopped", logger.Error(err))
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	var (
		app     appConfig
		logCfg  logger.Config
		httpCfg httpserver.Config
		gwCfg   gateway.Config
		mailCfg email.Config
		verCfg  verification.Config
		sweepCf sweeper.Config
		payee   qrcode.Payee
	)
	if err := errors.Join(
		config.Load(&app),
		config.Load(&logCfg),
		config.Load(&httpCfg),
		config.Load(&gwCfg),
		config.Load(&mailCfg),
		config.Load(&verCfg),
		config.Load(&sweepCf),
		config.Load(&payee),
	); err != nil {
		return err
	}

	logOpts, err := logCfg.Options()
	if err != nil {
		return err
	}
	log := logger.New(append(logOpts, logger.WithContextExtractors(requestid.LoggerExtractor()))...)
	logger.SetAsDefault(log)

	var src tariff.Source = tariff.NewInMemSource(tariff.DefaultPlans()...)
	if app.TariffsFile != "" {
		src = tariff.NewYAMLSource(app.TariffsFile)
	}
	catalog, err := tariff.NewCatalog(ctx, src)
	if err != nil {
		return err
	}

	infra, err := connect(ctx, app, log)
	if err != nil {
		return err
	}
	defer infra.close()

	issuer := invoice.NewIssuer(catalog, infra.invoices, infra.sequence, invoice.WithLogger(log))

	provider, err := gateway.New(gwCfg)
	if err != nil {
		return err
	}

	sender, err := email.New(mailCfg)
	if err != nil {
		return err
	}
	tag, err := language.Parse(app.NotifyLanguage)
	if err != nil {
		return fmt.Errorf("parse NOTIFY_LANGUAGE: %w", err)
	}
	notifier := notifications.NewManager(
		notifications.NewMemoryStorage(),
		notifications.NewMultiDeliverer([]notifications.Deliverer{
			notifications.NewLogDeliverer(log),
			notifications.NewEmailDeliverer(sender, notifications.StaticRecipients(app.NotifyRecipients)),
		}, notifications.WithMultiDelivererLogger(log)),
		notifications.WithPlans(catalog),
		notifications.WithLanguage(tag),
		notifications.WithManagerLogger(log),
	)

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	metrics := api.NewMetrics(registry)

	l := ledger.New(catalog, issuer, provider, infra.repo,
		ledger.WithLogger(log),
		ledger.WithObserver(notifier, metrics),
	)

	sw, err := sweeper.New(sweepCf, l,
		sweeper.WithInvoices(issuer),
		sweeper.WithReminder(notifier),
		sweeper.WithLogger(log),
	)
	if err != nil {
		return err
	}

	handler := api.New(api.Options{
		Ledger:        l,
		Catalog:       catalog,
		Invoices:      issuer,
		Webhooks:      gateway.NewRegistry(provider),
		Verifier:      verification.NewService(verification.NewStatic(), verCfg, verification.WithLogger(log)),
		Payee:         payee,
		Metrics:       metrics,
		HealthChecks:  infra.checks,
		HealthTimeout: app.HealthTimeout,
		Env:           environment.Parse(logCfg.Env),
		Logger:        log,
	}).Handler()

	server := httpserver.NewFromConfig(httpCfg, httpserver.WithLogger(log))

	log.InfoContext(ctx, "billingd starting",
		slog.String("storage", app.Storage),
		slog.String("invoice_store", app.invoiceStore()),
		slog.String("invoice_sequence", app.invoiceSequence()),
		logger.Provider(provider.Name()),
		slog.Int("tariffs", catalog.Len()),
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return server.Run(gctx, handler) })
	g.Go(func() error { return sw.Run(gctx) })

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
